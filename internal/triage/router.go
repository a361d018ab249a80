package triage

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/cybertriage/cybertriage/internal/domain"
)

// Route is the routing decision for a category.
type Route struct {
	CategoryID        string   `json:"category_id"`
	SeverityBand      string   `json:"severity_band"`
	PrimaryAssignee   string   `json:"primary_assignee"`
	SecondaryAssignee string   `json:"secondary_assignee"`
	Jurisdiction      string   `json:"jurisdiction"`
	EscalationPath    []string `json:"escalation_path"`
	RoutingNotes      []string `json:"routing_notes"`
}

// Router maps categories to responsible units using the routing matrix.
type Router struct {
	matrix domain.RoutingMatrix
}

// NewRouter creates a router.
func NewRouter(matrix domain.RoutingMatrix) *Router {
	return &Router{matrix: matrix}
}

// Route looks up the category, falling back to OTHER. The entry's notes are
// always the first routing note, followed by the note for the highest amount
// tier crossed.
func (r *Router) Route(categoryID, severityBand string, amount float64) (Route, error) {
	entry, ok := r.matrix.Routes[categoryID]
	if !ok {
		entry, ok = r.matrix.Routes[domain.FallbackCategoryID]
	}
	if !ok {
		return Route{}, fmt.Errorf("%w: no routing rules for category %s", domain.ErrNoRoute, categoryID)
	}

	notes := []string{entry.Notes}
	if note := r.AmountNote(amount); note != "" {
		notes = append(notes, note)
	}

	return Route{
		CategoryID:        categoryID,
		SeverityBand:      severityBand,
		PrimaryAssignee:   entry.PrimaryAssignee,
		SecondaryAssignee: entry.SecondaryAssignee,
		Jurisdiction:      entry.Jurisdiction,
		EscalationPath:    append([]string{}, entry.EscalationPath...),
		RoutingNotes:      notes,
	}, nil
}

// AmountNote returns the note for the single highest threshold the amount
// meets, or "" when it meets none.
func (r *Router) AmountNote(amount float64) string {
	th := r.matrix.AmountThresholds
	switch {
	case amount >= th.EOWReferral:
		return fmt.Sprintf("Amount >= %s - EOW referral recommended", humanize.Commaf(th.EOWReferral))
	case amount >= th.CyberCellMandatory:
		return fmt.Sprintf("Amount >= %s - Cyber Cell mandatory", humanize.Commaf(th.CyberCellMandatory))
	case amount >= th.BankNodalPriority:
		return fmt.Sprintf("Amount >= %s - Bank Nodal priority", humanize.Commaf(th.BankNodalPriority))
	}
	return ""
}

// Rules returns the routing entry for one category.
func (r *Router) Rules(categoryID string) (domain.RoutingEntry, bool) {
	entry, ok := r.matrix.Routes[categoryID]
	return entry, ok
}

// Matrix returns the full routing matrix.
func (r *Router) Matrix() domain.RoutingMatrix {
	return r.matrix
}
