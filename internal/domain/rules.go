package domain

// FallbackCategoryID is the category used when no keyword matches.
const FallbackCategoryID = "OTHER"

// Severity bands.
const (
	SeverityCritical = "CRITICAL"
	SeverityHigh     = "HIGH"
	SeverityMedium   = "MEDIUM"
	SeverityLow      = "LOW"
)

// SeverityOrder is the priority order in which bands are evaluated.
// The first band whose minimum the score meets wins.
var SeverityOrder = []string{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// Category is one entry of the fraud taxonomy.
type Category struct {
	ID        string   `yaml:"id" json:"id"`
	Name      string   `yaml:"name" json:"name"`
	RiskScore int      `yaml:"risk_score" json:"risk_score"`
	Keywords  []string `yaml:"keywords" json:"keywords"`
}

// Taxonomy is the ordered category list. Order is the classification tie-break.
type Taxonomy struct {
	Categories []Category `yaml:"categories" json:"categories"`
}

// SeverityBand maps a minimum urgency score to an SLA.
type SeverityBand struct {
	MinScore    int    `yaml:"min_score" json:"min_score"`
	SLAHours    int    `yaml:"sla_hours" json:"sla_hours"`
	Description string `yaml:"description" json:"description"`
}

// Weights for the four urgency components.
type Weights struct {
	Amount         float64 `yaml:"amount" json:"amount"`
	TimeSinceHours float64 `yaml:"time_since_hours" json:"time_since_hours"`
	TypeRisk       float64 `yaml:"type_risk" json:"type_risk"`
	VictimPriority float64 `yaml:"victim_priority" json:"victim_priority"`
}

// SeverityRules configures the severity scorer.
type SeverityRules struct {
	Bands                     map[string]SeverityBand `yaml:"bands" json:"bands"`
	Weights                   Weights                 `yaml:"weights" json:"weights"`
	AmountSaturationINR       float64                 `yaml:"amount_saturation_inr" json:"amount_saturation_inr"`
	GoldenHourHours           float64                 `yaml:"golden_hour_hours" json:"golden_hour_hours"`
	VictimFlags               []string                `yaml:"victim_flags" json:"victim_flags"`
	GoldenHourRecommendations []string                `yaml:"golden_hour_recommendations" json:"golden_hour_recommendations"`
}

// RoutingEntry is the routing record for one category.
type RoutingEntry struct {
	PrimaryAssignee   string   `yaml:"primary_assignee" json:"primary_assignee"`
	SecondaryAssignee string   `yaml:"secondary_assignee" json:"secondary_assignee"`
	Jurisdiction      string   `yaml:"jurisdiction" json:"jurisdiction"`
	EscalationPath    []string `yaml:"escalation_path" json:"escalation_path"`
	Notes             string   `yaml:"notes" json:"notes"`
}

// AmountThresholds are the three ascending escalation tiers (INR).
type AmountThresholds struct {
	BankNodalPriority  float64 `yaml:"bank_nodal_priority" json:"bank_nodal_priority"`
	CyberCellMandatory float64 `yaml:"cyber_cell_mandatory" json:"cyber_cell_mandatory"`
	EOWReferral        float64 `yaml:"eow_referral" json:"eow_referral"`
}

// RoutingMatrix maps categories to responsible units.
type RoutingMatrix struct {
	Routes           map[string]RoutingEntry `yaml:"routes" json:"routes"`
	AmountThresholds AmountThresholds        `yaml:"amount_thresholds" json:"amount_thresholds"`
}

// PolicyCondition is a conjunction of optional predicates.
// A nil or empty predicate is vacuously true.
type PolicyCondition struct {
	Severity          string   `yaml:"severity,omitempty" json:"severity,omitempty"`
	Category          string   `yaml:"category,omitempty" json:"category,omitempty"`
	AmountGTE         *float64 `yaml:"amount_gte,omitempty" json:"amount_gte,omitempty"`
	VictimFlagPresent *bool    `yaml:"victim_flag_present,omitempty" json:"victim_flag_present,omitempty"`
	GoldenHour        *bool    `yaml:"golden_hour,omitempty" json:"golden_hour,omitempty"`

	// Expression is an extra CEL clause ANDed with the predicates above.
	Expression string `yaml:"expression,omitempty" json:"expression,omitempty"`
}

// PolicyRule triggers an action when its condition holds.
type PolicyRule struct {
	ID          string          `yaml:"id" json:"id"`
	Name        string          `yaml:"name" json:"name"`
	Condition   PolicyCondition `yaml:"condition" json:"condition"`
	Action      string          `yaml:"action" json:"action"`
	Description string          `yaml:"description" json:"description"`
	Priority    int             `yaml:"priority" json:"priority"`
}

// PolicyRules is the policy table plus the action message lookup.
type PolicyRules struct {
	Policies       []PolicyRule      `yaml:"policies" json:"policies"`
	ActionMessages map[string]string `yaml:"action_messages" json:"action_messages"`
}

// DomainProfile describes the deployment this rule set was written for.
type DomainProfile struct {
	Label        string   `yaml:"label" json:"label"`
	Description  string   `yaml:"description" json:"description"`
	Region       string   `yaml:"region" json:"region"`
	Currency     string   `yaml:"currency" json:"currency"`
	Helpline     string   `yaml:"helpline" json:"helpline"`
	ReportingURL string   `yaml:"reporting_url" json:"reporting_url"`
	Channels     []string `yaml:"channels" json:"channels"`
}
