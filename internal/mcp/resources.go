package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cybertriage/cybertriage/internal/domain"
)

// Resource URIs.
const (
	ConfigURI     = "config://cybertriage"
	CaseURIPrefix = "case://"
	ProfileURI    = "domain://profile"
)

const jsonMIME = "application/json"

// ConfigView is the content of the config resource.
type ConfigView struct {
	DomainProfile  domain.DomainProfile `json:"domain_profile"`
	SeverityRules  SeverityView         `json:"severity_rules"`
	Categories     []CategoryView       `json:"categories"`
	RoutingSummary []string             `json:"routing_summary"`
	PolicyCount    int                  `json:"policy_count"`
	ConfigSources  map[string]string    `json:"config_sources"`
	StorageMode    string               `json:"storage_mode"`
}

// SeverityView summarizes the severity rules.
type SeverityView struct {
	Bands           map[string]domain.SeverityBand `json:"bands"`
	Weights         domain.Weights                 `json:"weights"`
	GoldenHourHours float64                        `json:"golden_hour_hours"`
}

// CategoryView summarizes one category.
type CategoryView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	RiskScore int    `json:"risk_score"`
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcpsdk.Resource{
		URI:         ConfigURI,
		Name:        "config",
		Description: "Active rule tables: domain profile, severity rules, categories, routes and policy count.",
		MIMEType:    jsonMIME,
	}, s.readConfig)

	s.mcpServer.AddResource(&mcpsdk.Resource{
		URI:         ProfileURI,
		Name:        "domain_profile",
		Description: "Deployment profile the rule tables were written for.",
		MIMEType:    jsonMIME,
	}, s.readProfile)

	s.mcpServer.AddResourceTemplate(&mcpsdk.ResourceTemplate{
		URITemplate: CaseURIPrefix + "{case_id}",
		Name:        "case",
		Description: "Full record of one case.",
		MIMEType:    jsonMIME,
	}, s.readCase)
}

func (s *Server) readConfig(ctx context.Context, req *mcpsdk.ReadResourceRequest) (*mcpsdk.ReadResourceResult, error) {
	t := s.tables

	cats := make([]CategoryView, 0, len(t.Taxonomy.Categories))
	for _, c := range t.Taxonomy.Categories {
		cats = append(cats, CategoryView{ID: c.ID, Name: c.Name, RiskScore: c.RiskScore})
	}

	view := ConfigView{
		DomainProfile: t.Profile,
		SeverityRules: SeverityView{
			Bands:           t.Severity.Bands,
			Weights:         t.Severity.Weights,
			GoldenHourHours: t.Severity.GoldenHourHours,
		},
		Categories:     cats,
		RoutingSummary: t.CategoryIDs(),
		PolicyCount:    len(t.Policies.Policies),
		ConfigSources:  t.Sources,
		StorageMode:    s.svc.StorageMode(),
	}
	return jsonResource(req.Params.URI, view)
}

func (s *Server) readProfile(ctx context.Context, req *mcpsdk.ReadResourceRequest) (*mcpsdk.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, s.tables.Profile)
}

func (s *Server) readCase(ctx context.Context, req *mcpsdk.ReadResourceRequest) (*mcpsdk.ReadResourceResult, error) {
	uri := req.Params.URI
	res, err := s.svc.GetCase(ctx, strings.TrimPrefix(uri, CaseURIPrefix))
	if errors.Is(err, domain.ErrCaseNotFound) || errors.Is(err, domain.ErrInvalidInput) {
		return nil, mcpsdk.ResourceNotFoundError(uri)
	}
	if err != nil {
		return nil, err
	}
	return jsonResource(uri, res.Case)
}

func jsonResource(uri string, v any) (*mcpsdk.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode resource %s: %w", uri, err)
	}
	return &mcpsdk.ReadResourceResult{
		Contents: []*mcpsdk.ResourceContents{{
			URI:      uri,
			MIMEType: jsonMIME,
			Text:     string(data),
		}},
	}, nil
}

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(&mcpsdk.Prompt{
		Name:        "process_complaint",
		Description: "Guide the assistant through processing a complaint with the triage tools.",
		Arguments: []*mcpsdk.PromptArgument{
			{Name: "complaint_text", Description: "complaint as told by the victim", Required: true},
			{Name: "amount", Description: "amount lost in INR"},
			{Name: "hours_ago", Description: "hours since the incident"},
		},
	}, s.promptProcessComplaint)

	s.mcpServer.AddPrompt(&mcpsdk.Prompt{
		Name:        "triage_guidance",
		Description: "Explain which triage tools exist and when to use them.",
	}, s.promptTriageGuidance)

	s.mcpServer.AddPrompt(&mcpsdk.Prompt{
		Name:        "golden_hour_alert",
		Description: "Immediate actions for a case inside the golden hour window.",
		Arguments: []*mcpsdk.PromptArgument{
			{Name: "case_id", Description: "case id", Required: true},
		},
	}, s.promptGoldenHourAlert)
}

func (s *Server) promptProcessComplaint(ctx context.Context, req *mcpsdk.GetPromptRequest) (*mcpsdk.GetPromptResult, error) {
	args := req.Params.Arguments
	amount := args["amount"]
	if amount == "" {
		amount = "0"
	}
	hours := args["hours_ago"]
	if hours == "" {
		hours = "0"
	}

	text := fmt.Sprintf(`Process this cyber fraud complaint using the CyberTriage tools:

COMPLAINT: %s
AMOUNT LOST: Rs %s
TIME SINCE INCIDENT: %s hours

WORKFLOW:
1. First call classify_intake with the complaint text to get category
2. Then call score_severity with amount, time, and risk_score from step 1
3. Finally call route_case with category_id and severity_band

Provide a summary with: category, severity, urgency score, golden hour status, assignee, and SLA.`,
		args["complaint_text"], amount, hours)

	return userPrompt("Process a cyber fraud complaint", text), nil
}

func (s *Server) promptTriageGuidance(ctx context.Context, req *mcpsdk.GetPromptRequest) (*mcpsdk.GetPromptResult, error) {
	text := fmt.Sprintf(`CyberTriage - Tool Usage Guide

SCORING TOOLS:
1. classify_intake(complaint_text) - Returns category_id, risk_score
2. score_severity(amount_inr, time_since_hours, type_risk_score, victim_context) - Returns urgency_score, severity_band
3. route_case(category_id, severity_band, amount_inr) - Returns assignee, jurisdiction
4. get_routing_rules(category_id) - Returns routing configuration
5. list_categories() - Returns the fraud taxonomy

WORKFLOW TOOLS:
- intake_complaint -> triage_complaint -> route_complaint (full case management)
- get_case_status, update_case, list_cases, get_statistics

REVIEW TOOLS:
- propose_next_action(case_id) - Returns confidence score and needs_human_review flag
- request_human_review(case_id, reason, priority) - Escalate to manual review queue

USAGE:
After processing a case, call propose_next_action to get confidence score.
If confidence < 60 or category = OTHER, call request_human_review.

Rule tables: %d categories, %d policies.
Storage mode: %s.`,
		len(s.tables.Taxonomy.Categories), len(s.tables.Policies.Policies), s.svc.StorageMode())

	return userPrompt("How to use the triage tools", text), nil
}

func (s *Server) promptGoldenHourAlert(ctx context.Context, req *mcpsdk.GetPromptRequest) (*mcpsdk.GetPromptResult, error) {
	caseID := req.Params.Arguments["case_id"]
	window := strconv.FormatFloat(s.tables.Severity.GoldenHourHours, 'f', -1, 64)

	var actions strings.Builder
	for i, rec := range s.tables.Severity.GoldenHourRecommendations {
		fmt.Fprintf(&actions, "%d. %s\n", i+1, rec)
	}

	text := fmt.Sprintf(`GOLDEN HOUR ALERT - Case %s

This case is within the critical %s-hour window where money recovery is possible.

IMMEDIATE ACTIONS REQUIRED:
%s
Report at %s or call %s.

Use get_case_status('%s') to view full case details.`,
		caseID, window, actions.String(), s.tables.Profile.ReportingURL, s.tables.Profile.Helpline, caseID)

	return userPrompt("Golden hour alert for "+caseID, text), nil
}

func userPrompt(description, text string) *mcpsdk.GetPromptResult {
	return &mcpsdk.GetPromptResult{
		Description: description,
		Messages: []*mcpsdk.PromptMessage{{
			Role:    "user",
			Content: &mcpsdk.TextContent{Text: text},
		}},
	}
}
