package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cybertriage/cybertriage/internal/lifecycle"
)

// --- Input types ---

// ClassifyInput defines parameters for classify_intake.
type ClassifyInput struct {
	ComplaintText string `json:"complaint_text" jsonschema:"full description of the fraud incident"`
}

// ScoreSeverityInput defines parameters for score_severity.
type ScoreSeverityInput struct {
	AmountINR      float64 `json:"amount_inr,omitempty" jsonschema:"amount lost in INR"`
	TimeSinceHours float64 `json:"time_since_hours,omitempty" jsonschema:"hours since the incident"`
	TypeRiskScore  *int    `json:"type_risk_score,omitempty" jsonschema:"category risk score 0-100, from classify_intake (default 50)"`
	VictimContext  string  `json:"victim_context,omitempty" jsonschema:"victim details such as age or vulnerability"`
}

// RouteCaseInput defines parameters for route_case.
type RouteCaseInput struct {
	CategoryID   string  `json:"category_id" jsonschema:"fraud category id"`
	SeverityBand string  `json:"severity_band,omitempty" jsonschema:"CRITICAL, HIGH, MEDIUM or LOW (default MEDIUM)"`
	AmountINR    float64 `json:"amount_inr,omitempty" jsonschema:"amount lost in INR"`
}

// RoutingRulesInput defines parameters for get_routing_rules.
type RoutingRulesInput struct {
	CategoryID string `json:"category_id,omitempty" jsonschema:"category id, omit for the full matrix"`
}

// IntakeInput defines parameters for intake_complaint.
type IntakeInput struct {
	ComplaintText  string  `json:"complaint_text" jsonschema:"full description of the fraud incident"`
	AmountINR      float64 `json:"amount_inr,omitempty" jsonschema:"amount lost in INR"`
	TimeSinceHours float64 `json:"time_since_hours,omitempty" jsonschema:"hours since the incident"`
	VictimContext  string  `json:"victim_context,omitempty" jsonschema:"victim details such as age or vulnerability"`
	Channel        string  `json:"channel,omitempty" jsonschema:"intake channel (default web_form)"`
}

// CaseInput identifies a case.
type CaseInput struct {
	CaseID string `json:"case_id" jsonschema:"case id returned by intake_complaint"`
}

// UpdateInput defines parameters for update_case.
type UpdateInput struct {
	CaseID string `json:"case_id" jsonschema:"case id"`
	Status string `json:"status,omitempty" jsonschema:"new status, omit to keep the current one"`
	Notes  string `json:"notes,omitempty" jsonschema:"note to append"`
}

// ListInput defines parameters for list_cases.
type ListInput struct {
	Status string `json:"status,omitempty" jsonschema:"only return cases with this status"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of cases (default 50)"`
}

// ReviewInput defines parameters for request_human_review.
type ReviewInput struct {
	CaseID        string `json:"case_id" jsonschema:"case id"`
	Reason        string `json:"reason" jsonschema:"why the case needs a human reviewer"`
	Priority      string `json:"priority,omitempty" jsonschema:"low, normal, high or urgent (default normal); other values are queued as standard"`
	ReviewerNotes string `json:"reviewer_notes,omitempty" jsonschema:"notes for the reviewer"`
}

// NoInput is used by tools without parameters.
type NoInput struct{}

// registerTools adds all triage tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "classify_intake",
		Description: "Classify a complaint into a fraud category using the configured taxonomy. Returns category_id, category_name, risk_score, matched_keywords and confidence.",
	}, s.handleClassify)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "score_severity",
		Description: "Calculate the urgency score, severity band, SLA and golden hour flag with a full decision trace.",
	}, s.handleScoreSeverity)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "route_case",
		Description: "Determine the responsible units for a category, severity and amount using the routing matrix.",
	}, s.handleRouteCase)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_routing_rules",
		Description: "Get the routing rule for one category, or the whole routing matrix when category_id is omitted.",
	}, s.handleRoutingRules)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "intake_complaint",
		Description: "Register a new cyber fraud complaint. Returns the case id, preliminary category and evidence checklist.",
	}, s.handleIntake)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "triage_complaint",
		Description: "Analyze a registered complaint and assign urgency score, severity and SLA.",
	}, s.handleTriage)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "route_complaint",
		Description: "Route a triaged complaint and evaluate escalation policies.",
	}, s.handleRoute)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_categories",
		Description: "List all fraud categories from the taxonomy.",
	}, s.handleListCategories)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_case_status",
		Description: "Get the current status and full record of a case.",
	}, s.handleGetCase)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "update_case",
		Description: "Update a case status and/or append a note.",
	}, s.handleUpdateCase)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_cases",
		Description: "List cases, oldest first, optionally filtered by status.",
	}, s.handleListCases)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_statistics",
		Description: "Get case counts by status, severity and category, total amount reported and golden hour cases.",
	}, s.handleStatistics)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "propose_next_action",
		Description: "Estimate confidence for a case and recommend the next workflow action, including whether human review is needed.",
	}, s.handleProposeNextAction)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "request_human_review",
		Description: "Queue a case for manual review. Use when propose_next_action reports needs_human_review.",
	}, s.handleRequestReview)
}

func (s *Server) handleClassify(ctx context.Context, req *mcpsdk.CallToolRequest, input ClassifyInput) (*mcpsdk.CallToolResult, any, error) {
	return result(s.svc.Classify(ctx, input.ComplaintText))
}

func (s *Server) handleScoreSeverity(ctx context.Context, req *mcpsdk.CallToolRequest, input ScoreSeverityInput) (*mcpsdk.CallToolResult, any, error) {
	return result(s.svc.ScoreSeverity(ctx, lifecycle.ScoreSeverityInput{
		AmountINR:      input.AmountINR,
		TimeSinceHours: input.TimeSinceHours,
		TypeRiskScore:  input.TypeRiskScore,
		VictimContext:  input.VictimContext,
	}))
}

func (s *Server) handleRouteCase(ctx context.Context, req *mcpsdk.CallToolRequest, input RouteCaseInput) (*mcpsdk.CallToolResult, any, error) {
	return result(s.svc.RouteCase(ctx, lifecycle.RouteCaseInput{
		CategoryID:   input.CategoryID,
		SeverityBand: input.SeverityBand,
		AmountINR:    input.AmountINR,
	}))
}

func (s *Server) handleRoutingRules(ctx context.Context, req *mcpsdk.CallToolRequest, input RoutingRulesInput) (*mcpsdk.CallToolResult, any, error) {
	return result(s.svc.RoutingRules(ctx, input.CategoryID))
}

func (s *Server) handleIntake(ctx context.Context, req *mcpsdk.CallToolRequest, input IntakeInput) (*mcpsdk.CallToolResult, any, error) {
	return result(s.svc.Intake(ctx, lifecycle.IntakeInput{
		ComplaintText:  input.ComplaintText,
		AmountINR:      input.AmountINR,
		TimeSinceHours: input.TimeSinceHours,
		VictimContext:  input.VictimContext,
		Channel:        input.Channel,
	}))
}

func (s *Server) handleTriage(ctx context.Context, req *mcpsdk.CallToolRequest, input CaseInput) (*mcpsdk.CallToolResult, any, error) {
	return result(s.svc.Triage(ctx, input.CaseID))
}

func (s *Server) handleRoute(ctx context.Context, req *mcpsdk.CallToolRequest, input CaseInput) (*mcpsdk.CallToolResult, any, error) {
	return result(s.svc.Route(ctx, input.CaseID))
}

func (s *Server) handleListCategories(ctx context.Context, req *mcpsdk.CallToolRequest, _ NoInput) (*mcpsdk.CallToolResult, any, error) {
	return result(s.svc.ListCategories(ctx))
}

func (s *Server) handleGetCase(ctx context.Context, req *mcpsdk.CallToolRequest, input CaseInput) (*mcpsdk.CallToolResult, any, error) {
	return result(s.svc.GetCase(ctx, input.CaseID))
}

func (s *Server) handleUpdateCase(ctx context.Context, req *mcpsdk.CallToolRequest, input UpdateInput) (*mcpsdk.CallToolResult, any, error) {
	return result(s.svc.UpdateCase(ctx, lifecycle.UpdateInput{
		CaseID: input.CaseID,
		Status: input.Status,
		Notes:  input.Notes,
	}))
}

func (s *Server) handleListCases(ctx context.Context, req *mcpsdk.CallToolRequest, input ListInput) (*mcpsdk.CallToolResult, any, error) {
	return result(s.svc.ListCases(ctx, input.Status, input.Limit))
}

func (s *Server) handleStatistics(ctx context.Context, req *mcpsdk.CallToolRequest, _ NoInput) (*mcpsdk.CallToolResult, any, error) {
	return result(s.svc.Statistics(ctx))
}

func (s *Server) handleProposeNextAction(ctx context.Context, req *mcpsdk.CallToolRequest, input CaseInput) (*mcpsdk.CallToolResult, any, error) {
	return result(s.svc.ProposeNextAction(ctx, input.CaseID))
}

func (s *Server) handleRequestReview(ctx context.Context, req *mcpsdk.CallToolRequest, input ReviewInput) (*mcpsdk.CallToolResult, any, error) {
	return result(s.svc.RequestHumanReview(ctx, lifecycle.ReviewInput{
		CaseID:        input.CaseID,
		Reason:        input.Reason,
		Priority:      input.Priority,
		ReviewerNotes: input.ReviewerNotes,
	}))
}
