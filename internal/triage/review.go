package triage

import "github.com/cybertriage/cybertriage/internal/domain"

// Review priorities.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Review queues.
const (
	ReviewQueueUrgent   = "urgent_review_queue"
	ReviewQueueHigh     = "high_priority_review_queue"
	ReviewQueueStandard = "standard_review_queue"
)

// ReviewNextSteps describes what happens after a review request.
var ReviewNextSteps = []string{
	"Case will be assigned to available reviewer",
	"Reviewer will analyze case details and evidence",
	"Manual decision will be recorded in case notes",
	"Case will proceed based on reviewer decision",
}

// ReviewQueue selects the queue from the requested priority or the case
// severity, whichever is more urgent.
func ReviewQueue(priority, severity string) string {
	switch {
	case priority == PriorityUrgent || severity == domain.SeverityCritical:
		return ReviewQueueUrgent
	case priority == PriorityHigh || severity == domain.SeverityHigh:
		return ReviewQueueHigh
	default:
		return ReviewQueueStandard
	}
}

// EstimatedReviewHours depends on the requested priority only.
func EstimatedReviewHours(priority string) int {
	switch priority {
	case PriorityUrgent:
		return 2
	case PriorityHigh:
		return 8
	default:
		return 24
	}
}

// PriorityForSeverity maps a severity band to a review priority.
func PriorityForSeverity(severity string) string {
	switch severity {
	case domain.SeverityCritical:
		return PriorityUrgent
	case domain.SeverityHigh:
		return PriorityHigh
	default:
		return PriorityNormal
	}
}
