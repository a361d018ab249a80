package triage

import (
	"math"
	"testing"

	"github.com/cybertriage/cybertriage/internal/domain"
)

func TestAmountScore(t *testing.T) {
	s := NewSeverityScorer(mustTables(t).Severity)

	t.Run("Bounds", func(t *testing.T) {
		for _, amount := range []float64{-1e9, -1, 0, 1, 5e4, 1e6, 1e7, math.Inf(1)} {
			score := s.AmountScore(amount)
			if score < 0 || score > 100 {
				t.Errorf("AmountScore(%v) = %v outside [0,100]", amount, score)
			}
		}
	})

	t.Run("Monotonic", func(t *testing.T) {
		prev := s.AmountScore(0)
		for amount := 0.0; amount <= 2e6; amount += 12_500 {
			score := s.AmountScore(amount)
			if score < prev {
				t.Fatalf("AmountScore decreased at %v: %v < %v", amount, score, prev)
			}
			prev = score
		}
	})

	t.Run("Saturates", func(t *testing.T) {
		if got := s.AmountScore(1e6); got != 100 {
			t.Errorf("expected 100 at saturation, got %v", got)
		}
		if got := s.AmountScore(5e7); got != 100 {
			t.Errorf("expected 100 beyond saturation, got %v", got)
		}
		if got := s.AmountScore(5e5); got != 50 {
			t.Errorf("expected 50 at half saturation, got %v", got)
		}
	})
}

func TestTimeScore(t *testing.T) {
	s := NewSeverityScorer(mustTables(t).Severity)

	t.Run("ZeroHours", func(t *testing.T) {
		if got := s.TimeScore(0); got != 100 {
			t.Errorf("expected 100 at 0h, got %v", got)
		}
		if got := s.TimeScore(-5); got != 100 {
			t.Errorf("expected 100 for negative hours, got %v", got)
		}
	})

	t.Run("GoldenHourBoundary", func(t *testing.T) {
		inside := s.TimeScore(48)
		after := 50 * math.Pow(0.9, (48.0-48.0)/24)
		if inside != 50 || after != 50 {
			t.Errorf("expected both formulas to give 50 at 48h, got %v and %v", inside, after)
		}
		if got := s.TimeScore(48 + 1e-9); math.Abs(got-50) > 1e-6 {
			t.Errorf("expected continuity just past 48h, got %v", got)
		}
	})

	t.Run("Decreasing", func(t *testing.T) {
		prev := s.TimeScore(0)
		for h := 0.5; h <= 500; h += 0.5 {
			score := s.TimeScore(h)
			if score >= prev {
				t.Fatalf("TimeScore not decreasing at %vh: %v >= %v", h, score, prev)
			}
			prev = score
		}
	})

	t.Run("DailyDecay", func(t *testing.T) {
		got := s.TimeScore(72)
		if math.Abs(got-45) > 1e-9 {
			t.Errorf("expected 45 one day past the window, got %v", got)
		}
	})
}

func TestUrgencyScoreRange(t *testing.T) {
	s := NewSeverityScorer(mustTables(t).Severity)

	amounts := []float64{-1e12, -1, 0, 1, 49_999, 1e6, 1e15, math.Inf(1), math.Inf(-1), math.NaN()}
	hours := []float64{-1e6, -1, 0, 4, 48, 49, 1e6, math.Inf(1), math.NaN()}
	risks := []int{-100, 0, 50, 95, 100, 1000}
	contexts := []string{"", "senior citizen", "SENIOR CITIZEN"}

	for _, a := range amounts {
		for _, h := range hours {
			for _, r := range risks {
				for _, v := range contexts {
					res := s.Score(SeverityInput{AmountINR: a, TimeSinceHours: h, TypeRiskScore: r, VictimContext: v})
					if res.UrgencyScore < 0 || res.UrgencyScore > 100 {
						t.Fatalf("urgency %d outside [0,100] for a=%v h=%v r=%d", res.UrgencyScore, a, h, r)
					}
					if res.Band == "" {
						t.Fatalf("empty band for a=%v h=%v r=%d", a, h, r)
					}
				}
			}
		}
	}
}

func TestBandTotal(t *testing.T) {
	rules := mustTables(t).Severity
	s := NewSeverityScorer(rules)

	for score := 0; score <= 100; score++ {
		name, band := s.Band(score)
		if score < band.MinScore {
			t.Fatalf("score %d assigned to %s with min %d", score, name, band.MinScore)
		}
		for _, higher := range domain.SeverityOrder {
			if higher == name {
				break
			}
			if score >= rules.Bands[higher].MinScore {
				t.Fatalf("score %d assigned to %s but qualifies for %s", score, name, higher)
			}
		}
	}

	if name, _ := s.Band(80); name != domain.SeverityCritical {
		t.Errorf("expected CRITICAL at 80, got %s", name)
	}
	if name, _ := s.Band(79); name != domain.SeverityHigh {
		t.Errorf("expected HIGH at 79, got %s", name)
	}
	if name, _ := s.Band(0); name != domain.SeverityLow {
		t.Errorf("expected LOW at 0, got %s", name)
	}
}

func TestScoreDecisionTrace(t *testing.T) {
	s := NewSeverityScorer(mustTables(t).Severity)

	res := s.Score(SeverityInput{
		AmountINR:      500_000,
		TimeSinceHours: 4,
		TypeRiskScore:  95,
		VictimContext:  "Senior Citizen, retired",
	})

	if res.UrgencyScore != 82 {
		t.Errorf("expected urgency 82, got %d", res.UrgencyScore)
	}
	if res.Band != domain.SeverityCritical || res.SLAHours != 4 {
		t.Errorf("expected CRITICAL/4h, got %s/%d", res.Band, res.SLAHours)
	}
	if !res.GoldenHour || res.GoldenHourThreshold != 48 {
		t.Errorf("expected golden hour inside 48h, got %v/%v", res.GoldenHour, res.GoldenHourThreshold)
	}
	if !res.VictimFlagPresent || len(res.VictimFlagsMatched) != 1 || res.VictimFlagsMatched[0] != "senior citizen" {
		t.Errorf("unexpected victim flags %v", res.VictimFlagsMatched)
	}

	trace := res.DecisionTrace
	if trace.Components.AmountScore != 50 || trace.Components.TimeScore != 95.83 {
		t.Errorf("unexpected components %+v", trace.Components)
	}
	if trace.Components.TypeRiskScore != 95 || trace.Components.VictimScore != 100 {
		t.Errorf("unexpected components %+v", trace.Components)
	}
	if math.Abs(trace.RawScore-82.71) > 0.005 {
		t.Errorf("expected raw 82.71, got %v", trace.RawScore)
	}
	if trace.FinalScore != res.UrgencyScore {
		t.Errorf("final score %d does not match urgency %d", trace.FinalScore, res.UrgencyScore)
	}
	want := "(0.3*50.0) + (0.25*95.8) + (0.25*95) + (0.2*100) = 82.7"
	if trace.Calculation != want {
		t.Errorf("calculation = %q, want %q", trace.Calculation, want)
	}
}

func TestScoreNoVictimFlag(t *testing.T) {
	s := NewSeverityScorer(mustTables(t).Severity)

	res := s.Score(SeverityInput{AmountINR: 0, TimeSinceHours: 200, TypeRiskScore: 40})
	if res.VictimFlagPresent || len(res.VictimFlagsMatched) != 0 {
		t.Errorf("expected no victim flags, got %v", res.VictimFlagsMatched)
	}
	if res.DecisionTrace.Components.VictimScore != 30 {
		t.Errorf("expected victim score 30, got %d", res.DecisionTrace.Components.VictimScore)
	}
	if res.GoldenHour {
		t.Error("expected golden hour false at 200h")
	}
	if res.Band != domain.SeverityLow {
		t.Errorf("expected LOW, got %s (score %d)", res.Band, res.UrgencyScore)
	}
}
