package lifecycle

import (
	"errors"
	"time"

	"github.com/cybertriage/cybertriage/internal/domain"
	"github.com/cybertriage/cybertriage/internal/triage"
)

// ClassifyResult is returned by Classify.
type ClassifyResult struct {
	domain.Outcome
	triage.Classification
	ConfigSource string `json:"config_source"`
}

// ScoreSeverityInput holds the inputs of ScoreSeverity. A nil TypeRiskScore
// defaults to 50.
type ScoreSeverityInput struct {
	AmountINR      float64 `json:"amount_inr"`
	TimeSinceHours float64 `json:"time_since_hours"`
	TypeRiskScore  *int    `json:"type_risk_score,omitempty"`
	VictimContext  string  `json:"victim_context"`
}

// ScoreSeverityResult is returned by ScoreSeverity.
type ScoreSeverityResult struct {
	domain.Outcome
	triage.SeverityResult
	ConfigSource string `json:"config_source"`
}

// RouteCaseInput holds the inputs of RouteCase. An empty severity defaults
// to MEDIUM.
type RouteCaseInput struct {
	CategoryID   string  `json:"category_id"`
	SeverityBand string  `json:"severity_band"`
	AmountINR    float64 `json:"amount_inr"`
}

// RouteCaseResult is returned by RouteCase.
type RouteCaseResult struct {
	domain.Outcome
	triage.Route
	ConfigSource string `json:"config_source"`
}

// RoutingRulesResult is returned by RoutingRules. Either RoutingRule (one
// category) or AllRoutes is set.
type RoutingRulesResult struct {
	domain.Outcome
	CategoryID       string                         `json:"category_id,omitempty"`
	RoutingRule      *domain.RoutingEntry           `json:"routing_rule,omitempty"`
	AllRoutes        map[string]domain.RoutingEntry `json:"all_routes,omitempty"`
	TotalCategories  int                            `json:"total_categories,omitempty"`
	AmountThresholds domain.AmountThresholds        `json:"amount_thresholds"`
	ConfigSource     string                         `json:"config_source"`
}

// CategorySummary is one entry of ListCategories.
type CategorySummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	RiskScore    int    `json:"risk_score"`
	KeywordCount int    `json:"keyword_count"`
}

// CategoriesResult is returned by ListCategories.
type CategoriesResult struct {
	domain.Outcome
	Categories      []CategorySummary `json:"categories"`
	TotalCategories int               `json:"total_categories"`
}

// IntakeInput holds a new complaint. An empty channel defaults to web_form.
type IntakeInput struct {
	ComplaintText  string  `json:"complaint_text"`
	AmountINR      float64 `json:"amount_inr"`
	TimeSinceHours float64 `json:"time_since_hours"`
	VictimContext  string  `json:"victim_context"`
	Channel        string  `json:"channel"`
}

// CategoryRef names a category.
type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IntakeResult is returned by Intake.
type IntakeResult struct {
	domain.Outcome
	CaseID              string      `json:"case_id"`
	Status              string      `json:"status"`
	PreliminaryCategory CategoryRef `json:"preliminary_category"`
	EvidenceChecklist   []string    `json:"evidence_checklist"`
	IntakeTimestamp     time.Time   `json:"intake_timestamp"`
	Message             string      `json:"message"`
}

// TriageResult is returned by Triage.
type TriageResult struct {
	domain.Outcome
	CaseID string `json:"case_id"`
	Status string `json:"status"`
	*domain.TriageRecord
}

// TriageSummary condenses the triage record in routing responses.
type TriageSummary struct {
	Category     string `json:"category"`
	Severity     string `json:"severity"`
	UrgencyScore int    `json:"urgency_score"`
	GoldenHour   bool   `json:"golden_hour"`
}

// RouteResult is returned by Route.
type RouteResult struct {
	domain.Outcome
	CaseID string `json:"case_id"`
	Status string `json:"status"`
	*domain.RoutingRecord
	TriageSummary TriageSummary `json:"triage_summary"`
}

// NextActionResult is returned by ProposeNextAction.
type NextActionResult struct {
	domain.Outcome
	CaseID string `json:"case_id"`
	triage.Assessment
	CaseStatus string `json:"case_status"`
}

// ReviewInput holds a human review request. An empty priority defaults to
// normal.
type ReviewInput struct {
	CaseID        string `json:"case_id"`
	Reason        string `json:"reason"`
	Priority      string `json:"priority"`
	ReviewerNotes string `json:"reviewer_notes"`
}

// ReviewResult is returned by RequestHumanReview.
type ReviewResult struct {
	domain.Outcome
	CaseID                   string   `json:"case_id"`
	ReviewRequestID          int      `json:"review_request_id"`
	Status                   string   `json:"status"`
	ReviewQueue              string   `json:"review_queue"`
	Priority                 string   `json:"priority"`
	EstimatedReviewTimeHours int      `json:"estimated_review_time_hours"`
	Message                  string   `json:"message"`
	NextSteps                []string `json:"next_steps"`
}

// CaseResult is returned by GetCase.
type CaseResult struct {
	domain.Outcome
	Case *domain.Case `json:"case"`
}

// UpdateInput holds a case update. Empty fields are left unchanged.
type UpdateInput struct {
	CaseID string `json:"case_id"`
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// UpdateResult is returned by UpdateCase.
type UpdateResult struct {
	domain.Outcome
	CaseID  string `json:"case_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CaseSummary is one entry of ListCases.
type CaseSummary struct {
	CaseID       string    `json:"case_id"`
	Status       string    `json:"status"`
	Category     string    `json:"category"`
	AmountINR    float64   `json:"amount_inr"`
	CreatedAt    time.Time `json:"created_at"`
	Severity     string    `json:"severity,omitempty"`
	UrgencyScore *int      `json:"urgency_score,omitempty"`
}

// ListResult is returned by ListCases.
type ListResult struct {
	domain.Outcome
	Cases         []CaseSummary `json:"cases"`
	TotalReturned int           `json:"total_returned"`
	TotalInSystem int           `json:"total_in_system"`
}

// StatisticsResult is returned by Statistics.
type StatisticsResult struct {
	domain.Outcome
	TotalCases           int            `json:"total_cases"`
	StatusDistribution   map[string]int `json:"status_distribution"`
	SeverityDistribution map[string]int `json:"severity_distribution"`
	CategoryDistribution map[string]int `json:"category_distribution"`
	TotalAmountReported  float64        `json:"total_amount_reported"`
	GoldenHourCases      int            `json:"golden_hour_cases"`
	StorageMode          string         `json:"storage_mode"`
}

// FailureResult is the structured record transports return for a failed
// operation.
type FailureResult struct {
	domain.Outcome
	AvailableCategories []string `json:"available_categories,omitempty"`
}

// Failure converts err into a FailureResult.
func Failure(err error) FailureResult {
	res := FailureResult{Outcome: domain.Failure(err)}
	var unknown *UnknownCategoryError
	if errors.As(err, &unknown) {
		res.AvailableCategories = unknown.AvailableCategories
	}
	return res
}
