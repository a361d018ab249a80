package triage

import (
	"errors"
	"testing"

	"github.com/cybertriage/cybertriage/internal/domain"
)

func TestRoute(t *testing.T) {
	tables := mustTables(t)
	r := NewRouter(tables.Routing)
	upiNotes := tables.Routing.Routes["UPI_FRAUD"].Notes

	tests := []struct {
		name      string
		amount    float64
		wantNotes []string
	}{
		{"BelowAllTiers", 10_000, []string{upiNotes}},
		{"BankNodal", 50_000, []string{upiNotes, "Amount >= 50,000 - Bank Nodal priority"}},
		{"CyberCell", 500_000, []string{upiNotes, "Amount >= 100,000 - Cyber Cell mandatory"}},
		{"EOW", 2_500_000, []string{upiNotes, "Amount >= 1,000,000 - EOW referral recommended"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route, err := r.Route("UPI_FRAUD", domain.SeverityHigh, tt.amount)
			if err != nil {
				t.Fatalf("Route failed: %v", err)
			}
			if route.PrimaryAssignee == "" || route.Jurisdiction == "" {
				t.Errorf("expected assignee and jurisdiction, got %+v", route)
			}
			if len(route.RoutingNotes) != len(tt.wantNotes) {
				t.Fatalf("notes = %v, want %v", route.RoutingNotes, tt.wantNotes)
			}
			for i := range tt.wantNotes {
				if route.RoutingNotes[i] != tt.wantNotes[i] {
					t.Errorf("note[%d] = %q, want %q", i, route.RoutingNotes[i], tt.wantNotes[i])
				}
			}
		})
	}
}

func TestRouteFallback(t *testing.T) {
	tables := mustTables(t)
	r := NewRouter(tables.Routing)

	route, err := r.Route("UNKNOWN_CATEGORY", domain.SeverityLow, 0)
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	other := tables.Routing.Routes[domain.FallbackCategoryID]
	if route.PrimaryAssignee != other.PrimaryAssignee {
		t.Errorf("expected OTHER assignee %q, got %q", other.PrimaryAssignee, route.PrimaryAssignee)
	}
	if route.CategoryID != "UNKNOWN_CATEGORY" {
		t.Errorf("expected requested category echoed, got %s", route.CategoryID)
	}
}

func TestRouteNoRoute(t *testing.T) {
	r := NewRouter(domain.RoutingMatrix{Routes: map[string]domain.RoutingEntry{
		"UPI_FRAUD": {PrimaryAssignee: "Bank Nodal Officer"},
	}})

	_, err := r.Route("SEXTORTION", domain.SeverityHigh, 0)
	if !errors.Is(err, domain.ErrNoRoute) {
		t.Errorf("expected ErrNoRoute, got %v", err)
	}
}

func TestRouteEmptyEntryNotes(t *testing.T) {
	r := NewRouter(domain.RoutingMatrix{
		Routes: map[string]domain.RoutingEntry{
			domain.FallbackCategoryID: {PrimaryAssignee: "Cyber Cell"},
		},
		AmountThresholds: domain.AmountThresholds{BankNodalPriority: 10, CyberCellMandatory: 20, EOWReferral: 30},
	})

	route, err := r.Route(domain.FallbackCategoryID, domain.SeverityLow, 0)
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	if len(route.RoutingNotes) != 1 || route.RoutingNotes[0] != "" {
		t.Errorf("expected the empty entry note only, got %q", route.RoutingNotes)
	}

	route, err = r.Route(domain.FallbackCategoryID, domain.SeverityLow, 25)
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	if len(route.RoutingNotes) != 2 || route.RoutingNotes[0] != "" || route.RoutingNotes[1] != "Amount >= 20 - Cyber Cell mandatory" {
		t.Errorf("unexpected notes %q", route.RoutingNotes)
	}
	if route.EscalationPath == nil {
		t.Error("expected non-nil escalation path")
	}
}

func TestAmountNoteGrouping(t *testing.T) {
	tests := []struct {
		name       string
		thresholds domain.AmountThresholds
		amount     float64
		want       string
	}{
		{"BankNodal", domain.AmountThresholds{BankNodalPriority: 50_000, CyberCellMandatory: 100_000, EOWReferral: 1_000_000}, 60_000, "Amount >= 50,000 - Bank Nodal priority"},
		{"EOWMillions", domain.AmountThresholds{BankNodalPriority: 50_000, CyberCellMandatory: 100_000, EOWReferral: 12_500_000}, 20_000_000, "Amount >= 12,500,000 - EOW referral recommended"},
		{"Fractional", domain.AmountThresholds{BankNodalPriority: 1234.5, CyberCellMandatory: 1e9, EOWReferral: 1e10}, 2000, "Amount >= 1,234.5 - Bank Nodal priority"},
		{"Small", domain.AmountThresholds{BankNodalPriority: 999, CyberCellMandatory: 1e9, EOWReferral: 1e10}, 999, "Amount >= 999 - Bank Nodal priority"},
		{"BelowAll", domain.AmountThresholds{BankNodalPriority: 50_000, CyberCellMandatory: 100_000, EOWReferral: 1_000_000}, 10, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter(domain.RoutingMatrix{AmountThresholds: tt.thresholds})
			if got := r.AmountNote(tt.amount); got != tt.want {
				t.Errorf("AmountNote(%v) = %q, want %q", tt.amount, got, tt.want)
			}
		})
	}
}
