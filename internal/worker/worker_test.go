package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cybertriage/cybertriage/internal/bus"
	"github.com/cybertriage/cybertriage/internal/domain"
	"github.com/cybertriage/cybertriage/internal/lifecycle"
	"github.com/cybertriage/cybertriage/internal/repository"
	"github.com/cybertriage/cybertriage/internal/ruleset"
	"github.com/cybertriage/cybertriage/internal/triage"
)

const digitalArrestComplaint = "Received a call from someone claiming to be a CBI officer. " +
	"They said my Aadhaar was used for money laundering and kept me on a video call for hours until I transferred money."

func newService(t *testing.T, b domain.EventBus) *lifecycle.Service {
	t.Helper()
	tables, err := ruleset.Default()
	if err != nil {
		t.Fatalf("failed to load rule tables: %v", err)
	}
	engine, err := triage.NewEngine(tables)
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}
	return lifecycle.New(repository.NewMemoryStore(), engine, lifecycle.WithBus(b))
}

// waitForStatus polls until the case reaches status or the deadline passes.
func waitForStatus(t *testing.T, svc *lifecycle.Service, caseID, status string) *domain.Case {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		res, err := svc.GetCase(context.Background(), caseID)
		if err != nil {
			t.Fatalf("GetCase failed: %v", err)
		}
		if res.Case.Status == status {
			return res.Case
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("case %s never reached %s", caseID, status)
	return nil
}

func TestWorker(t *testing.T) {
	eventBus := bus.NewChannelBus(100)
	defer eventBus.Close()

	svc := newService(t, eventBus)
	ctx := context.Background()

	t.Run("StartAndStop", func(t *testing.T) {
		w := NewWorker(eventBus, svc)
		if err := w.Start(); err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		stats := w.GetStats()
		if stats.SubscriptionCount != 1 || stats.Topics[0] != domain.TopicCaseIntake {
			t.Errorf("unexpected stats %+v", stats)
		}

		if err := w.Stop(); err != nil {
			t.Errorf("Stop failed: %v", err)
		}
		if stats := w.GetStats(); stats.SubscriptionCount != 0 {
			t.Errorf("expected 0 subscriptions after stop, got %d", stats.SubscriptionCount)
		}
	})

	w := NewWorker(eventBus, svc)
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	t.Run("ConfidentCaseIsRouted", func(t *testing.T) {
		res, err := svc.Intake(ctx, lifecycle.IntakeInput{
			ComplaintText:  digitalArrestComplaint,
			AmountINR:      500_000,
			TimeSinceHours: 4,
			VictimContext:  "senior citizen",
		})
		if err != nil {
			t.Fatalf("Intake failed: %v", err)
		}

		c := waitForStatus(t, svc, res.CaseID, domain.StatusRouted)
		if c.Triage == nil || c.Routing == nil {
			t.Fatal("expected triage and routing records")
		}
		if len(c.ReviewRequests) != 0 {
			t.Errorf("expected no review requests, got %d", len(c.ReviewRequests))
		}
	})

	t.Run("UnclearCaseIsQueuedForReview", func(t *testing.T) {
		res, err := svc.Intake(ctx, lifecycle.IntakeInput{
			ComplaintText:  "Something strange happened and I am not sure what it was",
			AmountINR:      1000,
			TimeSinceHours: 100,
		})
		if err != nil {
			t.Fatalf("Intake failed: %v", err)
		}

		c := waitForStatus(t, svc, res.CaseID, domain.StatusPendingHumanReview)
		if c.Routing == nil {
			t.Error("expected case to be routed before review")
		}
		if len(c.ReviewRequests) != 1 {
			t.Fatalf("expected 1 review request, got %d", len(c.ReviewRequests))
		}
		if got, want := c.ReviewRequests[0].Priority, triage.PriorityForSeverity(c.Triage.Severity); got != want {
			t.Errorf("expected priority %s, got %s", want, got)
		}
	})
}

func TestProcessUnknownCase(t *testing.T) {
	eventBus := bus.NewChannelBus(10)
	defer eventBus.Close()

	w := NewWorker(eventBus, newService(t, eventBus))
	err := w.Process(context.Background(), "CYB-20260301-000000")
	if !errors.Is(err, domain.ErrCaseNotFound) {
		t.Errorf("expected ErrCaseNotFound, got %v", err)
	}
}

// slowPipeline fails every case after a short delay and counts calls that
// begin after the worker has stopped.
type slowPipeline struct {
	stopped  atomic.Bool
	inFlight atomic.Int32
	late     atomic.Int32
	calls    atomic.Int32
}

func (p *slowPipeline) Triage(ctx context.Context, caseID string) (lifecycle.TriageResult, error) {
	if p.stopped.Load() {
		p.late.Add(1)
	}
	p.calls.Add(1)
	p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	time.Sleep(time.Millisecond)
	return lifecycle.TriageResult{}, domain.ErrCaseNotFound
}

func (p *slowPipeline) Route(ctx context.Context, caseID string) (lifecycle.RouteResult, error) {
	return lifecycle.RouteResult{}, domain.ErrCaseNotFound
}

func (p *slowPipeline) ProposeNextAction(ctx context.Context, caseID string) (lifecycle.NextActionResult, error) {
	return lifecycle.NextActionResult{}, domain.ErrCaseNotFound
}

func (p *slowPipeline) RequestHumanReview(ctx context.Context, in lifecycle.ReviewInput) (lifecycle.ReviewResult, error) {
	return lifecycle.ReviewResult{}, domain.ErrCaseNotFound
}

func TestStopWithQueuedEvents(t *testing.T) {
	for trial := 0; trial < 20; trial++ {
		t.Run(fmt.Sprintf("Trial%d", trial), func(t *testing.T) {
			eventBus := bus.NewChannelBus(1000)
			defer eventBus.Close()

			pipeline := &slowPipeline{}
			w := NewWorker(eventBus, pipeline)
			if err := w.Start(); err != nil {
				t.Fatalf("Start failed: %v", err)
			}

			ctx := context.Background()
			for i := 0; i < 500; i++ {
				evt := domain.CaseEvent{CaseID: fmt.Sprintf("CYB-20260301-%06d", i)}
				if err := bus.PublishEvent(ctx, eventBus, domain.TopicCaseIntake, evt); err != nil {
					t.Fatalf("PublishEvent failed: %v", err)
				}
			}

			if err := w.Stop(); err != nil {
				t.Fatalf("Stop failed: %v", err)
			}
			pipeline.stopped.Store(true)

			if n := pipeline.inFlight.Load(); n != 0 {
				t.Errorf("expected no in-flight cases after Stop, got %d", n)
			}

			time.Sleep(20 * time.Millisecond)
			if n := pipeline.late.Load(); n != 0 {
				t.Errorf("expected no cases to start after Stop, got %d", n)
			}
			if n := pipeline.calls.Load(); n >= 500 {
				t.Errorf("expected queued events to be skipped, all %d ran", n)
			}
		})
	}
}
