package triage

import (
	"fmt"
	"unicode/utf8"

	"github.com/cybertriage/cybertriage/internal/domain"
)

// Review queues suggested by the confidence estimator.
const (
	QueueAutomated            = "automated"
	QueueManualReview         = "manual_review"
	QueueInformationGathering = "information_gathering"
	QueuePriority             = "priority_queue"
)

// Recommended next actions.
const (
	ActionTriageComplaint    = "triage_complaint"
	ActionRouteComplaint     = "route_complaint"
	ActionRequestHumanReview = "request_human_review"
	ActionProceedAutomated   = "proceed_automated"
)

// Confidence thresholds.
const (
	reviewThreshold      = 60
	highConfidenceLevel  = 80
	minVictimContextLen  = 10
	highValueAmountINR   = 1_000_000
	minConfidentKeywords = 2
)

// NotTriaged is reported as the severity of a case without a triage record.
const NotTriaged = "NOT_TRIAGED"

// Assessment is the confidence estimate for a case.
type Assessment struct {
	Confidence        int      `json:"confidence"`
	ConfidenceLevel   string   `json:"confidence_level"`
	NeedsHumanReview  bool     `json:"needs_human_review"`
	Reasons           []string `json:"reasons"`
	SuggestedQueue    string   `json:"suggested_queue"`
	RecommendedAction string   `json:"recommended_action"`
	ActionReason      string   `json:"action_reason"`
	Category          string   `json:"category"`
	Severity          string   `json:"severity"`
}

// adjustment is one point rule. Within a step only the first applicable
// adjustment fires.
type adjustment struct {
	applies     func(c *domain.Case) bool
	delta       int
	reason      func(c *domain.Case) string
	forceReview bool
	queue       string
}

func fixed(s string) func(*domain.Case) string {
	return func(*domain.Case) string { return s }
}

// confidenceSteps are evaluated in order; later queue assignments override
// earlier ones.
var confidenceSteps = [][]adjustment{
	{
		{
			applies:     func(c *domain.Case) bool { return c.CategoryID() == domain.FallbackCategoryID },
			delta:       -40,
			reason:      fixed("Category classified as OTHER - unclear fraud type"),
			forceReview: true,
			queue:       QueueManualReview,
		},
		{
			applies: func(c *domain.Case) bool { return len(c.MatchedKeywords()) < minConfidentKeywords },
			delta:   -20,
			reason: func(c *domain.Case) string {
				return fmt.Sprintf("Low keyword match count (%d) - classification uncertain", len(c.MatchedKeywords()))
			},
		},
	},
	{
		{
			applies: func(c *domain.Case) bool {
				return c.Triage != nil && c.Triage.Severity == domain.SeverityCritical && c.Triage.UrgencyScore >= 85
			},
			delta:  10,
			reason: fixed("High confidence due to CRITICAL severity with clear indicators"),
		},
		{
			applies: func(c *domain.Case) bool {
				return c.Triage != nil && c.Triage.Severity == domain.SeverityLow && c.Triage.UrgencyScore < 30
			},
			delta:  -15,
			reason: fixed("Low urgency score - may need additional information"),
		},
	},
	{
		{
			applies:     func(c *domain.Case) bool { return c.Intake.AmountINR == 0 },
			delta:       -25,
			reason:      fixed("No amount specified - financial impact unclear"),
			forceReview: true,
			queue:       QueueInformationGathering,
		},
		{
			applies: func(c *domain.Case) bool { return c.Intake.AmountINR >= highValueAmountINR },
			delta:   5,
			reason:  fixed("High-value case - clear financial impact"),
		},
	},
	{
		{
			applies: func(c *domain.Case) bool {
				return utf8.RuneCountInString(c.Intake.VictimContext) < minVictimContextLen
			},
			delta:  -10,
			reason: fixed("Limited victim context - may need follow-up"),
		},
	},
	{
		{
			applies: func(c *domain.Case) bool { return c.Routing != nil && len(c.Routing.PolicyActions) >= 3 },
			delta:   5,
			reason: func(c *domain.Case) string {
				return fmt.Sprintf("%d policies triggered - clear action path", len(c.Routing.PolicyActions))
			},
		},
		{
			applies: func(c *domain.Case) bool { return c.Routing != nil && len(c.Routing.PolicyActions) == 0 },
			delta:   -10,
			reason:  fixed("No policies triggered - routing may need review"),
		},
	},
	{
		{
			applies: func(c *domain.Case) bool { return c.Triage != nil && c.Triage.GoldenHour },
			delta:   10,
			reason:  fixed("Within golden hour - time-sensitive with clear urgency"),
			queue:   QueuePriority,
		},
	},
}

// EstimateConfidence scores how safe it is to proceed with a case without
// human review and recommends the next workflow action.
func EstimateConfidence(c *domain.Case) Assessment {
	confidence := 100
	reasons := []string{}
	review := false
	queue := QueueAutomated

	for _, step := range confidenceSteps {
		for _, adj := range step {
			if !adj.applies(c) {
				continue
			}
			confidence += adj.delta
			reasons = append(reasons, adj.reason(c))
			if adj.forceReview {
				review = true
			}
			if adj.queue != "" {
				queue = adj.queue
			}
			break
		}
	}

	confidence = max(0, min(100, confidence))
	if confidence < reviewThreshold {
		review = true
		if queue == QueueAutomated {
			queue = QueueManualReview
		}
	}

	a := Assessment{
		Confidence:       confidence,
		ConfidenceLevel:  confidenceLevel(confidence),
		NeedsHumanReview: review,
		Reasons:          reasons,
		SuggestedQueue:   queue,
		Category:         c.CategoryID(),
		Severity:         NotTriaged,
	}
	if c.Triage != nil {
		a.Severity = c.Triage.Severity
	}

	// Workflow stage takes precedence over confidence.
	switch {
	case c.Triage == nil:
		a.RecommendedAction = ActionTriageComplaint
		a.ActionReason = "Case needs triage analysis"
	case c.Routing == nil:
		a.RecommendedAction = ActionRouteComplaint
		a.ActionReason = "Case needs routing decision"
	case review:
		a.RecommendedAction = ActionRequestHumanReview
		a.ActionReason = "Case requires manual review due to low confidence or complexity"
	default:
		a.RecommendedAction = ActionProceedAutomated
		a.ActionReason = "Case can proceed with automated workflow"
	}

	return a
}

func confidenceLevel(confidence int) string {
	switch {
	case confidence >= highConfidenceLevel:
		return "high"
	case confidence >= reviewThreshold:
		return "medium"
	default:
		return "low"
	}
}
