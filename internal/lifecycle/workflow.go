package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/cybertriage/cybertriage/internal/domain"
	"github.com/cybertriage/cybertriage/internal/triage"
)

// Intake defaults and messages.
const (
	defaultChannel = "web_form"
	intakeMessage  = "Complaint registered. Gather evidence items and proceed to triage."

	// maxIDAttempts bounds case id regeneration on collision.
	maxIDAttempts = 8
)

// Intake validates and registers a new complaint.
func (s *Service) Intake(ctx context.Context, in IntakeInput) (res IntakeResult, err error) {
	ctx, end := s.begin(ctx, "intake")
	defer func() { end(err) }()

	cls, err := s.engine.Classifier.ClassifyText(in.ComplaintText, triage.MinIntakeLength)
	if err != nil {
		return res, err
	}
	channel := in.Channel
	if channel == "" {
		channel = defaultChannel
	}

	now := s.now()
	c := &domain.Case{
		Status: domain.StatusIntakeComplete,
		Intake: domain.IntakeRecord{
			ComplaintText:  in.ComplaintText,
			AmountINR:      in.AmountINR,
			TimeSinceHours: in.TimeSinceHours,
			VictimContext:  in.VictimContext,
			Channel:        channel,
			Timestamp:      now,
			PreliminaryCategory: domain.PreliminaryCategory{
				ID:              cls.CategoryID,
				Name:            cls.CategoryName,
				MatchedKeywords: cls.MatchedKeywords,
			},
		},
		Notes:          []domain.Note{},
		ReviewRequests: []domain.ReviewRequest{},
		CreatedAt:      now,
		LastUpdated:    now,
	}

	if err := s.insert(ctx, c, now); err != nil {
		return res, err
	}
	s.metrics.RecordIntake(channel)
	s.publish(ctx, domain.TopicCaseIntake, c)

	return IntakeResult{
		Outcome: domain.OK(),
		CaseID:  c.ID,
		Status:  c.Status,
		PreliminaryCategory: CategoryRef{
			ID:   cls.CategoryID,
			Name: cls.CategoryName,
		},
		EvidenceChecklist: triage.EvidenceChecklist(cls.CategoryID),
		IntakeTimestamp:   now,
		Message:           intakeMessage,
	}, nil
}

// insert assigns a fresh id to c and saves it, regenerating the id if it
// is already taken.
func (s *Service) insert(ctx context.Context, c *domain.Case, now time.Time) error {
	for range maxIDAttempts {
		id := newCaseID(now)
		unlock := s.locks.Lock(id)
		_, err := s.load(ctx, id)
		switch {
		case err == nil:
			unlock()
			continue
		case !isNotFound(err):
			unlock()
			return err
		}
		c.ID = id
		err = s.save(ctx, c)
		unlock()
		return err
	}
	return fmt.Errorf("failed to allocate a unique case id after %d attempts", maxIDAttempts)
}

// Triage classifies and scores a registered case.
func (s *Service) Triage(ctx context.Context, caseID string) (res TriageResult, err error) {
	ctx, end := s.begin(ctx, "triage", attribute.String("case_id", caseID))
	defer func() { end(err) }()

	c, err := s.mutate(ctx, caseID, func(c *domain.Case) error {
		now := s.now()
		c.Triage = s.engine.Triage(c.Intake, now)
		c.Status = domain.StatusTriageComplete
		c.LastUpdated = now
		return nil
	})
	if err != nil {
		return res, err
	}
	s.metrics.RecordTriage(c.Triage.Severity, c.Triage.UrgencyScore)
	s.publish(ctx, domain.TopicCaseTriaged, c)

	return TriageResult{
		Outcome:      domain.OK(),
		CaseID:       c.ID,
		Status:       c.Status,
		TriageRecord: c.Triage,
	}, nil
}

// Route assigns a triaged case to its responsible units and evaluates
// escalation policies.
func (s *Service) Route(ctx context.Context, caseID string) (res RouteResult, err error) {
	ctx, end := s.begin(ctx, "route", attribute.String("case_id", caseID))
	defer func() { end(err) }()

	c, err := s.mutate(ctx, caseID, func(c *domain.Case) error {
		now := s.now()
		rec, err := s.engine.Route(c, now)
		if err != nil {
			return err
		}
		c.Routing = rec
		c.Status = domain.StatusRouted
		c.LastUpdated = now
		return nil
	})
	if err != nil {
		return res, err
	}

	actions := make([]string, 0, len(c.Routing.PolicyActions))
	for _, a := range c.Routing.PolicyActions {
		actions = append(actions, a.Action)
	}
	s.metrics.RecordRoute(c.Routing.PrimaryAssignee, actions)
	s.publish(ctx, domain.TopicCaseRouted, c)

	return RouteResult{
		Outcome:       domain.OK(),
		CaseID:        c.ID,
		Status:        c.Status,
		RoutingRecord: c.Routing,
		TriageSummary: TriageSummary{
			Category:     c.Triage.CategoryName,
			Severity:     c.Triage.Severity,
			UrgencyScore: c.Triage.UrgencyScore,
			GoldenHour:   c.Triage.GoldenHour,
		},
	}, nil
}

// ProposeNextAction estimates confidence for a case and recommends what
// to do next. It never modifies the case.
func (s *Service) ProposeNextAction(ctx context.Context, caseID string) (res NextActionResult, err error) {
	ctx, end := s.begin(ctx, "propose_next_action", attribute.String("case_id", caseID))
	defer func() { end(err) }()

	c, err := s.load(ctx, caseID)
	if err != nil {
		return res, err
	}
	return NextActionResult{
		Outcome:    domain.OK(),
		CaseID:     c.ID,
		Assessment: triage.EstimateConfidence(c),
		CaseStatus: c.Status,
	}, nil
}

// RequestHumanReview appends a review request and moves the case to
// PENDING_HUMAN_REVIEW. Priorities other than urgent and high get the
// standard review time.
func (s *Service) RequestHumanReview(ctx context.Context, in ReviewInput) (res ReviewResult, err error) {
	ctx, end := s.begin(ctx, "request_human_review", attribute.String("case_id", in.CaseID))
	defer func() { end(err) }()

	priority := strings.ToLower(strings.TrimSpace(in.Priority))
	if priority == "" {
		priority = triage.PriorityNormal
	}

	var requestID int
	var queue string
	c, err := s.mutate(ctx, in.CaseID, func(c *domain.Case) error {
		now := s.now()
		c.ReviewRequests = append(c.ReviewRequests, domain.ReviewRequest{
			RequestedAt:   now,
			Reason:        in.Reason,
			Priority:      priority,
			ReviewerNotes: in.ReviewerNotes,
			Status:        domain.ReviewStatusPending,
		})
		requestID = len(c.ReviewRequests) - 1
		c.Status = domain.StatusPendingHumanReview
		c.LastUpdated = now
		c.Notes = append(c.Notes, domain.Note{
			Timestamp: now,
			Note:      "Manual review requested: " + in.Reason,
		})

		severity := domain.SeverityLow
		if c.Triage != nil {
			severity = c.Triage.Severity
		}
		queue = triage.ReviewQueue(priority, severity)
		return nil
	})
	if err != nil {
		return res, err
	}
	s.metrics.RecordReview(queue)
	s.publish(ctx, domain.TopicReviewRequested, c)

	return ReviewResult{
		Outcome:                  domain.OK(),
		CaseID:                   c.ID,
		ReviewRequestID:          requestID,
		Status:                   c.Status,
		ReviewQueue:              queue,
		Priority:                 priority,
		EstimatedReviewTimeHours: triage.EstimatedReviewHours(priority),
		Message:                  fmt.Sprintf("Case %s queued for manual review in %s", c.ID, queue),
		NextSteps:                append([]string(nil), triage.ReviewNextSteps...),
	}, nil
}
