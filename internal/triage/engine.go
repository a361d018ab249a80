package triage

import (
	"fmt"
	"time"

	"github.com/cybertriage/cybertriage/internal/domain"
	"github.com/cybertriage/cybertriage/internal/ruleset"
)

// Engine bundles the scoring components built from one rule set.
type Engine struct {
	Tables     *ruleset.Tables
	Classifier *Classifier
	Scorer     *SeverityScorer
	Router     *Router
	Policies   *PolicyEngine
}

// NewEngine builds every component from the rule tables.
func NewEngine(tables *ruleset.Tables) (*Engine, error) {
	policies, err := NewPolicyEngine(tables.Policies)
	if err != nil {
		return nil, fmt.Errorf("failed to build policy engine: %w", err)
	}
	return &Engine{
		Tables:     tables,
		Classifier: NewClassifier(tables.Taxonomy),
		Scorer:     NewSeverityScorer(tables.Severity),
		Router:     NewRouter(tables.Routing),
		Policies:   policies,
	}, nil
}

// Triage classifies the complaint text again and scores the case.
func (e *Engine) Triage(intake domain.IntakeRecord, now time.Time) *domain.TriageRecord {
	cls := e.Classifier.Classify(intake.ComplaintText)
	sev := e.Scorer.Score(SeverityInput{
		AmountINR:      intake.AmountINR,
		TimeSinceHours: intake.TimeSinceHours,
		TypeRiskScore:  cls.RiskScore,
		VictimContext:  intake.VictimContext,
	})

	recommendations := []string{}
	if sev.GoldenHour {
		recommendations = e.Scorer.GoldenHourRecommendations()
	}

	return &domain.TriageRecord{
		CategoryID:                cls.CategoryID,
		CategoryName:              cls.CategoryName,
		MatchedKeywords:           cls.MatchedKeywords,
		UrgencyScore:              sev.UrgencyScore,
		Severity:                  sev.Band,
		SeverityDescription:       sev.Description,
		SLAHours:                  sev.SLAHours,
		GoldenHour:                sev.GoldenHour,
		GoldenHourRecommendations: recommendations,
		VictimFlagPresent:         sev.VictimFlagPresent,
		VictimFlagsMatched:        sev.VictimFlagsMatched,
		DecisionTrace:             sev.DecisionTrace,
		Timestamp:                 now,
	}
}

// Route builds the routing record for a triaged case, including policy actions.
func (e *Engine) Route(c *domain.Case, now time.Time) (*domain.RoutingRecord, error) {
	if c.Triage == nil {
		return nil, fmt.Errorf("%w: case %s not triaged yet", domain.ErrNotTriaged, c.ID)
	}

	route, err := e.Router.Route(c.Triage.CategoryID, c.Triage.Severity, c.Intake.AmountINR)
	if err != nil {
		return nil, err
	}

	return &domain.RoutingRecord{
		PrimaryAssignee:   route.PrimaryAssignee,
		SecondaryAssignee: route.SecondaryAssignee,
		Jurisdiction:      route.Jurisdiction,
		EscalationPath:    route.EscalationPath,
		RoutingNotes:      route.RoutingNotes,
		PolicyActions:     e.Policies.Evaluate(FactsFromCase(c)),
		SLAHours:          c.Triage.SLAHours,
		Timestamp:         now,
	}, nil
}
