package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cybertriage/cybertriage/internal/domain"
	"github.com/cybertriage/cybertriage/internal/lifecycle"
	"github.com/cybertriage/cybertriage/internal/repository"
	"github.com/cybertriage/cybertriage/internal/ruleset"
	"github.com/cybertriage/cybertriage/internal/triage"
)

const digitalArrestComplaint = "Received a call from someone claiming to be a CBI officer. " +
	"They said my Aadhaar was used for money laundering and kept me on a video call for hours until I transferred money."

func newTestServer(t *testing.T) *Server {
	t.Helper()
	tables, err := ruleset.Default()
	if err != nil {
		t.Fatalf("failed to load rule tables: %v", err)
	}
	engine, err := triage.NewEngine(tables)
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}
	return New(lifecycle.New(repository.NewMemoryStore(), engine), "test")
}

// connect opens an in-memory client session against s.
func connect(t *testing.T, s *Server) *mcpsdk.ClientSession {
	t.Helper()
	ctx := context.Background()
	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()

	ss, err := s.Connect(ctx, serverTransport)
	if err != nil {
		t.Fatalf("server connect failed: %v", err)
	}
	t.Cleanup(func() { ss.Close() })

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect failed: %v", err)
	}
	t.Cleanup(func() { cs.Close() })
	return cs
}

func TestIntakeAndTriageTools(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	result, out, err := s.handleIntake(ctx, &mcpsdk.CallToolRequest{}, IntakeInput{
		ComplaintText:  digitalArrestComplaint,
		AmountINR:      500_000,
		TimeSinceHours: 4,
		VictimContext:  "senior citizen",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil && result.IsError {
		t.Fatal("expected success, got error result")
	}
	intake, ok := out.(lifecycle.IntakeResult)
	if !ok {
		t.Fatalf("unexpected output type %T", out)
	}
	if intake.PreliminaryCategory.ID != "DIGITAL_ARREST" {
		t.Errorf("expected DIGITAL_ARREST, got %s", intake.PreliminaryCategory.ID)
	}

	_, out, err = s.handleTriage(ctx, &mcpsdk.CallToolRequest{}, CaseInput{CaseID: intake.CaseID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tr := out.(lifecycle.TriageResult)
	if !tr.GoldenHour || tr.Severity != domain.SeverityCritical {
		t.Errorf("unexpected triage %+v", tr.TriageRecord)
	}
}

func TestToolFailureIsStructured(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	result, out, err := s.handleRoute(ctx, &mcpsdk.CallToolRequest{}, CaseInput{CaseID: "CYB-20260301-000000"})
	if err != nil {
		t.Fatalf("failures must be in-band, got %v", err)
	}
	if result == nil || !result.IsError {
		t.Fatal("expected IsError result")
	}
	failure := out.(lifecycle.FailureResult)
	if failure.Success || failure.ErrorCode != domain.CodeCaseNotFound {
		t.Errorf("unexpected failure %+v", failure)
	}

	text := result.Content[0].(*mcpsdk.TextContent).Text
	var decoded lifecycle.FailureResult
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		t.Fatalf("failure content is not JSON: %v", err)
	}
	if decoded.ErrorCode != domain.CodeCaseNotFound {
		t.Errorf("unexpected content %s", text)
	}

	_, out, _ = s.handleRoutingRules(ctx, &mcpsdk.CallToolRequest{}, RoutingRulesInput{CategoryID: "NOPE"})
	if f := out.(lifecycle.FailureResult); f.ErrorCode != domain.CodeNoRoute || len(f.AvailableCategories) == 0 {
		t.Errorf("expected NO_ROUTE with available categories, got %+v", f)
	}
}

func TestSessionListsEverything(t *testing.T) {
	s := newTestServer(t)
	cs := connect(t, s)
	ctx := context.Background()

	tools, err := cs.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools failed: %v", err)
	}
	want := []string{
		"classify_intake", "score_severity", "route_case", "get_routing_rules",
		"intake_complaint", "triage_complaint", "route_complaint", "list_categories",
		"get_case_status", "update_case", "list_cases", "get_statistics",
		"propose_next_action", "request_human_review",
	}
	got := map[string]bool{}
	for _, tool := range tools.Tools {
		got[tool.Name] = true
	}
	if len(tools.Tools) != len(want) {
		t.Errorf("expected %d tools, got %d", len(want), len(tools.Tools))
	}
	for _, name := range want {
		if !got[name] {
			t.Errorf("missing tool %s", name)
		}
	}

	prompts, err := cs.ListPrompts(ctx, nil)
	if err != nil {
		t.Fatalf("ListPrompts failed: %v", err)
	}
	if len(prompts.Prompts) != 3 {
		t.Errorf("expected 3 prompts, got %d", len(prompts.Prompts))
	}

	resources, err := cs.ListResources(ctx, nil)
	if err != nil {
		t.Fatalf("ListResources failed: %v", err)
	}
	if len(resources.Resources) != 2 {
		t.Errorf("expected 2 static resources, got %d", len(resources.Resources))
	}
	templates, err := cs.ListResourceTemplates(ctx, nil)
	if err != nil {
		t.Fatalf("ListResourceTemplates failed: %v", err)
	}
	if len(templates.ResourceTemplates) != 1 {
		t.Errorf("expected 1 resource template, got %d", len(templates.ResourceTemplates))
	}
}

func TestSessionCallsAndResources(t *testing.T) {
	s := newTestServer(t)
	cs := connect(t, s)
	ctx := context.Background()

	res, err := cs.CallTool(ctx, &mcpsdk.CallToolParams{
		Name: "intake_complaint",
		Arguments: map[string]any{
			"complaint_text": digitalArrestComplaint,
			"amount_inr":     500000,
		},
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %+v", res.Content)
	}
	var intake lifecycle.IntakeResult
	if err := json.Unmarshal([]byte(res.Content[0].(*mcpsdk.TextContent).Text), &intake); err != nil {
		t.Fatalf("failed to decode intake: %v", err)
	}
	if intake.CaseID == "" {
		t.Fatal("expected case id")
	}

	t.Run("CaseResource", func(t *testing.T) {
		rr, err := cs.ReadResource(ctx, &mcpsdk.ReadResourceParams{URI: CaseURIPrefix + intake.CaseID})
		if err != nil {
			t.Fatalf("ReadResource failed: %v", err)
		}
		var c domain.Case
		if err := json.Unmarshal([]byte(rr.Contents[0].Text), &c); err != nil {
			t.Fatalf("failed to decode case: %v", err)
		}
		if c.ID != intake.CaseID || c.Intake.AmountINR != 500_000 {
			t.Errorf("unexpected case %+v", c)
		}
	})

	t.Run("MissingCaseResource", func(t *testing.T) {
		if _, err := cs.ReadResource(ctx, &mcpsdk.ReadResourceParams{URI: CaseURIPrefix + "CYB-20260301-000000"}); err == nil {
			t.Error("expected error for unknown case")
		}
	})

	t.Run("ConfigResource", func(t *testing.T) {
		rr, err := cs.ReadResource(ctx, &mcpsdk.ReadResourceParams{URI: ConfigURI})
		if err != nil {
			t.Fatalf("ReadResource failed: %v", err)
		}
		var view ConfigView
		if err := json.Unmarshal([]byte(rr.Contents[0].Text), &view); err != nil {
			t.Fatalf("failed to decode config: %v", err)
		}
		if len(view.Categories) != 10 || view.PolicyCount == 0 || view.StorageMode != "memory" {
			t.Errorf("unexpected config %+v", view)
		}
		if view.ConfigSources[ruleset.FileTaxonomy] == "" {
			t.Error("expected config sources")
		}
	})

	t.Run("GoldenHourPrompt", func(t *testing.T) {
		pr, err := cs.GetPrompt(ctx, &mcpsdk.GetPromptParams{
			Name:      "golden_hour_alert",
			Arguments: map[string]string{"case_id": intake.CaseID},
		})
		if err != nil {
			t.Fatalf("GetPrompt failed: %v", err)
		}
		text := pr.Messages[0].Content.(*mcpsdk.TextContent).Text
		if !strings.Contains(text, intake.CaseID) || !strings.Contains(text, "48-hour") {
			t.Errorf("unexpected prompt %q", text)
		}
		if !strings.Contains(text, "1. ") || !strings.Contains(text, "4. ") {
			t.Errorf("expected four numbered actions, got %q", text)
		}
	})
}
