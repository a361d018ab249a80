// Package ruleset loads the declarative rule tables that drive triage.
// Built-in tables are embedded; a directory may override any of them.
package ruleset

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cybertriage/cybertriage/internal/domain"
	"gopkg.in/yaml.v3"
)

// Rule table file names.
const (
	FileTaxonomy      = "category_taxonomy.yaml"
	FileSeverityRules = "severity_rules.yaml"
	FileRoutingMatrix = "routing_matrix.yaml"
	FilePolicyRules   = "policy_rules.yaml"
	FileDomainProfile = "domain_profile.yaml"
)

//go:embed defaults/*.yaml
var defaults embed.FS

// ErrInvalidTables is returned when a rule table fails validation.
var ErrInvalidTables = errors.New("invalid rule tables")

// Tables is the full immutable rule set.
type Tables struct {
	Taxonomy domain.Taxonomy
	Severity domain.SeverityRules
	Routing  domain.RoutingMatrix
	Policies domain.PolicyRules
	Profile  domain.DomainProfile

	// Sources records where each table was read from.
	Sources map[string]string
}

// Default returns the embedded rule tables.
func Default() (*Tables, error) {
	return Load("")
}

// Load reads the rule tables. Files present in dir replace the embedded
// defaults; missing files fall back to them. An empty dir uses only defaults.
func Load(dir string) (*Tables, error) {
	t := &Tables{Sources: make(map[string]string)}

	targets := []struct {
		name string
		out  any
	}{
		{FileTaxonomy, &t.Taxonomy},
		{FileSeverityRules, &t.Severity},
		{FileRoutingMatrix, &t.Routing},
		{FilePolicyRules, &t.Policies},
		{FileDomainProfile, &t.Profile},
	}

	for _, target := range targets {
		data, source, err := readTable(dir, target.name)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, target.out); err != nil {
			return nil, fmt.Errorf("parse %s: %w", source, err)
		}
		t.Sources[target.name] = source
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func readTable(dir, name string) ([]byte, string, error) {
	if dir != "" {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err == nil {
			return data, path, nil
		}
		if !os.IsNotExist(err) {
			return nil, "", fmt.Errorf("read %s: %w", path, err)
		}
	}

	data, err := defaults.ReadFile("defaults/" + name)
	if err != nil {
		return nil, "", fmt.Errorf("read embedded %s: %w", name, err)
	}
	return data, "embedded:" + name, nil
}

// Validate checks the structural invariants the triage engine relies on.
func (t *Tables) Validate() error {
	seen := make(map[string]bool, len(t.Taxonomy.Categories))
	for i, c := range t.Taxonomy.Categories {
		if c.ID == "" {
			return fmt.Errorf("%w: categories[%d]: id is required", ErrInvalidTables, i)
		}
		if seen[c.ID] {
			return fmt.Errorf("%w: duplicate category id %q", ErrInvalidTables, c.ID)
		}
		if c.RiskScore < 0 || c.RiskScore > 100 {
			return fmt.Errorf("%w: category %s: risk_score %d outside 0-100", ErrInvalidTables, c.ID, c.RiskScore)
		}
		seen[c.ID] = true
	}
	if !seen[domain.FallbackCategoryID] {
		return fmt.Errorf("%w: fallback category %s missing", ErrInvalidTables, domain.FallbackCategoryID)
	}

	prev := 101
	for _, name := range domain.SeverityOrder {
		band, ok := t.Severity.Bands[name]
		if !ok {
			return fmt.Errorf("%w: severity band %s missing", ErrInvalidTables, name)
		}
		if band.MinScore > prev {
			return fmt.Errorf("%w: severity band %s min_score %d exceeds the band above it", ErrInvalidTables, name, band.MinScore)
		}
		prev = band.MinScore
	}
	if t.Severity.Bands[domain.SeverityLow].MinScore > 0 {
		return fmt.Errorf("%w: LOW band must start at 0", ErrInvalidTables)
	}

	w := t.Severity.Weights
	if w.Amount < 0 || w.TimeSinceHours < 0 || w.TypeRisk < 0 || w.VictimPriority < 0 {
		return fmt.Errorf("%w: weights must be non-negative", ErrInvalidTables)
	}
	if t.Severity.AmountSaturationINR <= 0 {
		return fmt.Errorf("%w: amount_saturation_inr must be positive", ErrInvalidTables)
	}
	if t.Severity.GoldenHourHours <= 0 {
		return fmt.Errorf("%w: golden_hour_hours must be positive", ErrInvalidTables)
	}

	th := t.Routing.AmountThresholds
	if th.BankNodalPriority > th.CyberCellMandatory || th.CyberCellMandatory > th.EOWReferral {
		return fmt.Errorf("%w: amount thresholds must ascend", ErrInvalidTables)
	}

	ids := make(map[string]bool, len(t.Policies.Policies))
	for i, p := range t.Policies.Policies {
		if p.ID == "" || p.Action == "" {
			return fmt.Errorf("%w: policies[%d]: id and action are required", ErrInvalidTables, i)
		}
		if ids[p.ID] {
			return fmt.Errorf("%w: duplicate policy id %q", ErrInvalidTables, p.ID)
		}
		ids[p.ID] = true
	}

	return nil
}

// Category returns the taxonomy entry with the given id.
func (t *Tables) Category(id string) (domain.Category, bool) {
	for _, c := range t.Taxonomy.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Category{}, false
}

// CategoryIDs returns the taxonomy ids in taxonomy order.
func (t *Tables) CategoryIDs() []string {
	ids := make([]string, 0, len(t.Taxonomy.Categories))
	for _, c := range t.Taxonomy.Categories {
		ids = append(ids, c.ID)
	}
	return ids
}
