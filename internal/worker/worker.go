// Package worker runs the automatic triage pipeline for newly registered
// complaints.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cybertriage/cybertriage/internal/bus"
	"github.com/cybertriage/cybertriage/internal/domain"
	"github.com/cybertriage/cybertriage/internal/lifecycle"
	"github.com/cybertriage/cybertriage/internal/triage"
)

// Pipeline is the subset of the lifecycle service the worker drives.
type Pipeline interface {
	Triage(ctx context.Context, caseID string) (lifecycle.TriageResult, error)
	Route(ctx context.Context, caseID string) (lifecycle.RouteResult, error)
	ProposeNextAction(ctx context.Context, caseID string) (lifecycle.NextActionResult, error)
	RequestHumanReview(ctx context.Context, in lifecycle.ReviewInput) (lifecycle.ReviewResult, error)
}

// Worker triages and routes every case published on the intake topic and
// queues it for review when confidence is too low.
type Worker struct {
	bus      domain.EventBus
	pipeline Pipeline

	mu            sync.Mutex
	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewWorker creates a new pipeline worker.
func NewWorker(b domain.EventBus, pipeline Pipeline) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:      b,
		pipeline: pipeline,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start subscribes to the intake topic.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicCaseIntake, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", domain.TopicCaseIntake, err)
	}

	w.mu.Lock()
	w.subscriptions = append(w.subscriptions, sub)
	w.mu.Unlock()

	slog.Info("pipeline worker started",
		"topic", domain.TopicCaseIntake,
	)
	return nil
}

// track registers an in-flight case. It reports false once Stop has begun.
func (w *Worker) track() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ctx.Err() != nil {
		return false
	}
	w.wg.Add(1)
	return true
}

func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	if !w.track() {
		slog.Debug("worker stopped, intake event skipped", "message_id", msg.ID)
		return nil
	}
	defer w.wg.Done()

	evt, err := bus.DecodeEvent(msg)
	if err != nil {
		slog.Error("failed to parse case event",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}
	return w.Process(ctx, evt.CaseID)
}

// Process runs triage, routing and the confidence check for one case.
func (w *Worker) Process(ctx context.Context, caseID string) error {
	start := time.Now()

	tr, err := w.pipeline.Triage(ctx, caseID)
	if err != nil {
		slog.Error("automatic triage failed",
			"case_id", caseID,
			"error", err,
		)
		return err
	}

	rt, err := w.pipeline.Route(ctx, caseID)
	if err != nil {
		slog.Error("automatic routing failed",
			"case_id", caseID,
			"error", err,
		)
		return err
	}

	next, err := w.pipeline.ProposeNextAction(ctx, caseID)
	if err != nil {
		slog.Error("confidence estimation failed",
			"case_id", caseID,
			"error", err,
		)
		return err
	}

	queue := ""
	if next.NeedsHumanReview {
		review, err := w.pipeline.RequestHumanReview(ctx, lifecycle.ReviewInput{
			CaseID:   caseID,
			Reason:   "Automated pipeline: " + strings.Join(next.Reasons, "; "),
			Priority: triage.PriorityForSeverity(tr.Severity),
		})
		if err != nil {
			slog.Error("failed to queue case for review",
				"case_id", caseID,
				"error", err,
			)
			return err
		}
		queue = review.ReviewQueue
	}

	slog.Info("case processed",
		"case_id", caseID,
		"category", tr.CategoryID,
		"severity", tr.Severity,
		"urgency_score", tr.UrgencyScore,
		"primary_assignee", rt.PrimaryAssignee,
		"confidence", next.Confidence,
		"review_queue", queue,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Stop unsubscribes and waits for in-flight cases. Events delivered after
// Stop begins are skipped.
func (w *Worker) Stop() error {
	w.mu.Lock()
	w.cancel()
	subs := w.subscriptions
	w.subscriptions = nil
	w.mu.Unlock()

	for _, sub := range subs {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}

	w.wg.Wait()

	slog.Info("pipeline worker stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
