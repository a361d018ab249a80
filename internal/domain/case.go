package domain

import (
	"time"
)

// Case lifecycle statuses. Callers may also set arbitrary statuses via UpdateCase.
const (
	StatusIntakeComplete     = "INTAKE_COMPLETE"
	StatusTriageComplete     = "TRIAGE_COMPLETE"
	StatusRouted             = "ROUTED"
	StatusPendingHumanReview = "PENDING_HUMAN_REVIEW"
)

// ReviewStatusPending is the initial status of a review request.
const ReviewStatusPending = "PENDING_REVIEW"

// Case is a complaint tracked through intake, triage and routing.
// Triage and Routing stay nil until the corresponding stage has run.
type Case struct {
	ID             string          `json:"case_id"`
	Status         string          `json:"status"`
	Intake         IntakeRecord    `json:"intake"`
	Triage         *TriageRecord   `json:"triage"`
	Routing        *RoutingRecord  `json:"routing"`
	Notes          []Note          `json:"notes"`
	ReviewRequests []ReviewRequest `json:"review_requests"`
	CreatedAt      time.Time       `json:"created_at"`
	LastUpdated    time.Time       `json:"last_updated"`
}

// IntakeRecord holds the complaint exactly as it was submitted.
type IntakeRecord struct {
	ComplaintText       string              `json:"complaint_text"`
	AmountINR           float64             `json:"amount_inr"`
	TimeSinceHours      float64             `json:"time_since_hours"`
	VictimContext       string              `json:"victim_context"`
	Channel             string              `json:"channel"`
	Timestamp           time.Time           `json:"timestamp"`
	PreliminaryCategory PreliminaryCategory `json:"preliminary_category"`
}

// PreliminaryCategory is the classification made at intake time.
type PreliminaryCategory struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	MatchedKeywords []string `json:"matched_keywords"`
}

// TriageRecord is attached to a case by the triage stage.
type TriageRecord struct {
	CategoryID                string        `json:"category_id"`
	CategoryName              string        `json:"category_name"`
	MatchedKeywords           []string      `json:"matched_keywords"`
	UrgencyScore              int           `json:"urgency_score"`
	Severity                  string        `json:"severity"`
	SeverityDescription       string        `json:"severity_description"`
	SLAHours                  int           `json:"sla_hours"`
	GoldenHour                bool          `json:"golden_hour"`
	GoldenHourRecommendations []string      `json:"golden_hour_recommendations"`
	VictimFlagPresent         bool          `json:"victim_flag_present"`
	VictimFlagsMatched        []string      `json:"victim_flags_matched"`
	DecisionTrace             DecisionTrace `json:"decision_trace"`
	Timestamp                 time.Time     `json:"triage_timestamp"`
}

// DecisionTrace records how an urgency score was computed.
type DecisionTrace struct {
	Components  TraceComponents `json:"components"`
	Weights     Weights         `json:"weights"`
	RawScore    float64         `json:"raw_score"`
	FinalScore  int             `json:"final_score"`
	Calculation string          `json:"calculation"`
}

// TraceComponents are the normalized 0-100 sub-scores.
type TraceComponents struct {
	AmountScore   float64 `json:"amount_score"`
	TimeScore     float64 `json:"time_score"`
	TypeRiskScore int     `json:"type_risk_score"`
	VictimScore   int     `json:"victim_score"`
}

// RoutingRecord is attached to a case by the routing stage.
type RoutingRecord struct {
	PrimaryAssignee   string         `json:"primary_assignee"`
	SecondaryAssignee string         `json:"secondary_assignee"`
	Jurisdiction      string         `json:"jurisdiction"`
	EscalationPath    []string       `json:"escalation_path"`
	RoutingNotes      []string       `json:"routing_notes"`
	PolicyActions     []PolicyAction `json:"policy_actions"`
	SLAHours          int            `json:"sla_hours"`
	Timestamp         time.Time      `json:"routing_timestamp"`
}

// PolicyAction is produced for every policy rule a case matches.
type PolicyAction struct {
	PolicyID   string `json:"policy_id"`
	PolicyName string `json:"policy_name"`
	Action     string `json:"action"`
	Message    string `json:"message"`
	Priority   int    `json:"priority"`
}

// Note is an append-only audit entry on a case.
type Note struct {
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note"`
}

// ReviewRequest is an append-only request for manual review.
type ReviewRequest struct {
	RequestedAt   time.Time `json:"requested_at"`
	Reason        string    `json:"reason"`
	Priority      string    `json:"priority"`
	ReviewerNotes string    `json:"reviewer_notes"`
	Status        string    `json:"status"`
	AssignedTo    *string   `json:"assigned_to"`
}

// CategoryID returns the triaged category when available, otherwise the
// preliminary category assigned at intake.
func (c *Case) CategoryID() string {
	if c.Triage != nil {
		return c.Triage.CategoryID
	}
	if c.Intake.PreliminaryCategory.ID == "" {
		return FallbackCategoryID
	}
	return c.Intake.PreliminaryCategory.ID
}

// MatchedKeywords mirrors CategoryID for the keyword list.
func (c *Case) MatchedKeywords() []string {
	if c.Triage != nil {
		return c.Triage.MatchedKeywords
	}
	return c.Intake.PreliminaryCategory.MatchedKeywords
}
