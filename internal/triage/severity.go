package triage

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cybertriage/cybertriage/internal/domain"
)

// Victim sub-scores.
const (
	victimFlagScore    = 100
	victimDefaultScore = 30
)

// SeverityInput holds the scoring inputs.
type SeverityInput struct {
	AmountINR      float64
	TimeSinceHours float64
	TypeRiskScore  int
	VictimContext  string
}

// SeverityResult is the scored urgency with its audit trace.
type SeverityResult struct {
	UrgencyScore        int                  `json:"urgency_score"`
	Band                string               `json:"severity_band"`
	Description         string               `json:"severity_description"`
	SLAHours            int                  `json:"sla_hours"`
	GoldenHour          bool                 `json:"golden_hour"`
	GoldenHourThreshold float64              `json:"golden_hour_threshold"`
	VictimFlagPresent   bool                 `json:"victim_flag_present"`
	VictimFlagsMatched  []string             `json:"victim_flags_matched"`
	DecisionTrace       domain.DecisionTrace `json:"decision_trace"`
}

// SeverityScorer computes 0-100 urgency scores from the severity rules.
type SeverityScorer struct {
	rules domain.SeverityRules
}

// NewSeverityScorer creates a scorer.
func NewSeverityScorer(rules domain.SeverityRules) *SeverityScorer {
	return &SeverityScorer{rules: rules}
}

// Score computes the urgency score, band and decision trace.
func (s *SeverityScorer) Score(in SeverityInput) SeverityResult {
	w := s.rules.Weights

	amountScore := s.AmountScore(in.AmountINR)
	timeScore := s.TimeScore(in.TimeSinceHours)
	typeScore := min(in.TypeRiskScore, 100)
	flagged, flags := s.VictimFlags(in.VictimContext)
	victimScore := victimDefaultScore
	if flagged {
		victimScore = victimFlagScore
	}

	raw := w.Amount*amountScore +
		w.TimeSinceHours*timeScore +
		w.TypeRisk*float64(typeScore) +
		w.VictimPriority*float64(victimScore)
	if math.IsNaN(raw) {
		raw = 0
	}
	final := int(math.Min(math.Max(raw, 0), 100))

	bandName, band := s.Band(final)

	return SeverityResult{
		UrgencyScore:        final,
		Band:                bandName,
		Description:         band.Description,
		SLAHours:            band.SLAHours,
		GoldenHour:          s.InGoldenHour(in.TimeSinceHours),
		GoldenHourThreshold: s.rules.GoldenHourHours,
		VictimFlagPresent:   flagged,
		VictimFlagsMatched:  flags,
		DecisionTrace: domain.DecisionTrace{
			Components: domain.TraceComponents{
				AmountScore:   round2(amountScore),
				TimeScore:     round2(timeScore),
				TypeRiskScore: typeScore,
				VictimScore:   victimScore,
			},
			Weights:    w,
			RawScore:   round2(raw),
			FinalScore: final,
			Calculation: fmt.Sprintf("(%s*%.1f) + (%s*%.1f) + (%s*%d) + (%s*%d) = %.1f",
				formatWeight(w.Amount), amountScore,
				formatWeight(w.TimeSinceHours), timeScore,
				formatWeight(w.TypeRisk), typeScore,
				formatWeight(w.VictimPriority), victimScore,
				raw),
		},
	}
}

// AmountScore is linear in the amount up to the saturation value.
func (s *SeverityScorer) AmountScore(amount float64) float64 {
	if !(amount > 0) {
		return 0
	}
	return math.Min(amount/s.rules.AmountSaturationINR, 1.0) * 100
}

// TimeScore decays linearly from 100 to 50 inside the golden window and
// by 10% per day after it.
func (s *SeverityScorer) TimeScore(hours float64) float64 {
	threshold := s.rules.GoldenHourHours
	switch {
	case math.IsNaN(hours):
		return 0
	case hours <= 0:
		return 100
	case hours <= threshold:
		return 100 * (1 - 0.5*hours/threshold)
	default:
		return math.Max(0, 50*math.Pow(0.9, (hours-threshold)/24))
	}
}

// InGoldenHour reports whether the elapsed time is inside the golden window.
func (s *SeverityScorer) InGoldenHour(hours float64) bool {
	return hours <= s.rules.GoldenHourHours
}

// VictimFlags returns the configured flags found in the victim context.
func (s *SeverityScorer) VictimFlags(context string) (bool, []string) {
	matched := []string{}
	if context == "" {
		return false, matched
	}
	lower := strings.ToLower(context)
	for _, flag := range s.rules.VictimFlags {
		if flag != "" && strings.Contains(lower, strings.ToLower(flag)) {
			matched = append(matched, flag)
		}
	}
	return len(matched) > 0, matched
}

// Band maps an integer score to the first band whose minimum it meets.
func (s *SeverityScorer) Band(score int) (string, domain.SeverityBand) {
	for _, name := range domain.SeverityOrder {
		band, ok := s.rules.Bands[name]
		if ok && score >= band.MinScore {
			return name, band
		}
	}
	return domain.SeverityLow, s.rules.Bands[domain.SeverityLow]
}

// GoldenHourRecommendations returns the configured golden-hour actions.
func (s *SeverityScorer) GoldenHourRecommendations() []string {
	return append([]string{}, s.rules.GoldenHourRecommendations...)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}
