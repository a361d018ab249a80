package triage

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/cybertriage/cybertriage/internal/domain"
)

const digitalArrestComplaint = "Received a call from someone claiming to be a CBI officer. " +
	"They said my Aadhaar was used for money laundering and kept me on a video call for hours until I transferred money."

func TestEngineTriageAndRoute(t *testing.T) {
	engine, err := NewEngine(mustTables(t))
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	c := &domain.Case{
		ID: "CYB-20260301-AAAAAA",
		Intake: domain.IntakeRecord{
			ComplaintText:  digitalArrestComplaint,
			AmountINR:      500_000,
			TimeSinceHours: 4,
			VictimContext:  "senior citizen",
		},
	}

	t.Run("RouteBeforeTriage", func(t *testing.T) {
		if _, err := engine.Route(c, now); !errors.Is(err, domain.ErrNotTriaged) {
			t.Errorf("expected ErrNotTriaged, got %v", err)
		}
	})

	c.Triage = engine.Triage(c.Intake, now)

	t.Run("Triage", func(t *testing.T) {
		tr := c.Triage
		if tr.CategoryID != "DIGITAL_ARREST" {
			t.Fatalf("expected DIGITAL_ARREST, got %s (%v)", tr.CategoryID, tr.MatchedKeywords)
		}
		if len(tr.MatchedKeywords) != 4 {
			t.Errorf("expected 4 keywords, got %v", tr.MatchedKeywords)
		}
		if !tr.GoldenHour {
			t.Error("expected golden hour")
		}
		if tr.Severity != domain.SeverityCritical && tr.Severity != domain.SeverityHigh {
			t.Errorf("expected at least HIGH, got %s", tr.Severity)
		}
		if tr.UrgencyScore != 82 || tr.SLAHours != 4 {
			t.Errorf("expected 82/4h, got %d/%d", tr.UrgencyScore, tr.SLAHours)
		}
		if len(tr.GoldenHourRecommendations) != 4 {
			t.Errorf("expected golden hour recommendations, got %v", tr.GoldenHourRecommendations)
		}
		if !tr.Timestamp.Equal(now) {
			t.Errorf("unexpected timestamp %v", tr.Timestamp)
		}
	})

	t.Run("Route", func(t *testing.T) {
		rec, err := engine.Route(c, now)
		if err != nil {
			t.Fatalf("Route failed: %v", err)
		}
		if rec.PrimaryAssignee == "" {
			t.Error("expected primary assignee")
		}
		if !slices.Contains(rec.RoutingNotes, "Amount >= 100,000 - Cyber Cell mandatory") {
			t.Errorf("expected cyber cell note, got %v", rec.RoutingNotes)
		}
		if len(rec.PolicyActions) != 5 || rec.PolicyActions[0].PolicyID != "POL-007" {
			t.Errorf("unexpected policy actions %+v", rec.PolicyActions)
		}
		if rec.SLAHours != c.Triage.SLAHours {
			t.Errorf("expected triage SLA %d, got %d", c.Triage.SLAHours, rec.SLAHours)
		}
	})
}

func TestEngineTriageOutsideGoldenHour(t *testing.T) {
	engine, err := NewEngine(mustTables(t))
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	tr := engine.Triage(domain.IntakeRecord{
		ComplaintText:  "Paid a registration fee for a part time job offer",
		AmountINR:      2000,
		TimeSinceHours: 240,
	}, time.Now().UTC())

	if tr.GoldenHour {
		t.Error("expected golden hour false")
	}
	if tr.GoldenHourRecommendations == nil || len(tr.GoldenHourRecommendations) != 0 {
		t.Errorf("expected empty recommendations, got %v", tr.GoldenHourRecommendations)
	}
	if tr.CategoryID != "JOB_FRAUD" {
		t.Errorf("expected JOB_FRAUD, got %s", tr.CategoryID)
	}
}
