package lifecycle

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel/attribute"

	"github.com/cybertriage/cybertriage/internal/domain"
	"github.com/cybertriage/cybertriage/internal/ruleset"
	"github.com/cybertriage/cybertriage/internal/triage"
)

// defaultTypeRisk is used by ScoreSeverity when no type risk is given.
const defaultTypeRisk = 50

// UnknownCategoryError is returned by RoutingRules for a category id that
// has no routing entry.
type UnknownCategoryError struct {
	CategoryID          string
	AvailableCategories []string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("no routing rule for category %s", e.CategoryID)
}

func (e *UnknownCategoryError) Unwrap() error {
	return domain.ErrNoRoute
}

// Classify runs the keyword classifier on free text.
func (s *Service) Classify(ctx context.Context, text string) (res ClassifyResult, err error) {
	_, end := s.begin(ctx, "classify")
	defer func() { end(err) }()

	cls, err := s.engine.Classifier.ClassifyText(text, triage.MinClassifyLength)
	if err != nil {
		return res, err
	}
	return ClassifyResult{
		Outcome:        domain.OK(),
		Classification: cls,
		ConfigSource:   s.source(ruleset.FileTaxonomy),
	}, nil
}

// ScoreSeverity scores ad-hoc inputs without touching any case.
func (s *Service) ScoreSeverity(ctx context.Context, in ScoreSeverityInput) (res ScoreSeverityResult, err error) {
	_, end := s.begin(ctx, "score_severity")
	defer func() { end(err) }()

	typeRisk := defaultTypeRisk
	if in.TypeRiskScore != nil {
		typeRisk = *in.TypeRiskScore
	}

	sev := s.engine.Scorer.Score(triage.SeverityInput{
		AmountINR:      in.AmountINR,
		TimeSinceHours: in.TimeSinceHours,
		TypeRiskScore:  typeRisk,
		VictimContext:  in.VictimContext,
	})
	return ScoreSeverityResult{
		Outcome:        domain.OK(),
		SeverityResult: sev,
		ConfigSource:   s.source(ruleset.FileSeverityRules),
	}, nil
}

// RouteCase routes ad-hoc inputs without touching any case.
func (s *Service) RouteCase(ctx context.Context, in RouteCaseInput) (res RouteCaseResult, err error) {
	_, end := s.begin(ctx, "route_case", attribute.String("category_id", in.CategoryID))
	defer func() { end(err) }()

	if in.CategoryID == "" {
		return res, fmt.Errorf("%w: category_id is required", domain.ErrInvalidInput)
	}
	band := in.SeverityBand
	if band == "" {
		band = domain.SeverityMedium
	}

	route, err := s.engine.Router.Route(in.CategoryID, band, in.AmountINR)
	if err != nil {
		return res, err
	}
	return RouteCaseResult{
		Outcome:      domain.OK(),
		Route:        route,
		ConfigSource: s.source(ruleset.FileRoutingMatrix),
	}, nil
}

// RoutingRules returns the routing entry for one category, or the whole
// matrix when categoryID is empty.
func (s *Service) RoutingRules(ctx context.Context, categoryID string) (res RoutingRulesResult, err error) {
	_, end := s.begin(ctx, "routing_rules")
	defer func() { end(err) }()

	matrix := s.engine.Router.Matrix()
	if categoryID == "" {
		return RoutingRulesResult{
			Outcome:          domain.OK(),
			AllRoutes:        matrix.Routes,
			TotalCategories:  len(matrix.Routes),
			AmountThresholds: matrix.AmountThresholds,
			ConfigSource:     s.source(ruleset.FileRoutingMatrix),
		}, nil
	}

	entry, ok := s.engine.Router.Rules(categoryID)
	if !ok {
		available := make([]string, 0, len(matrix.Routes))
		for id := range matrix.Routes {
			available = append(available, id)
		}
		sort.Strings(available)
		return res, &UnknownCategoryError{CategoryID: categoryID, AvailableCategories: available}
	}
	return RoutingRulesResult{
		Outcome:          domain.OK(),
		CategoryID:       categoryID,
		RoutingRule:      &entry,
		AmountThresholds: matrix.AmountThresholds,
		ConfigSource:     s.source(ruleset.FileRoutingMatrix),
	}, nil
}

// ListCategories summarizes the taxonomy in classification order.
func (s *Service) ListCategories(ctx context.Context) (res CategoriesResult, err error) {
	_, end := s.begin(ctx, "list_categories")
	defer func() { end(err) }()

	cats := s.engine.Tables.Taxonomy.Categories
	out := make([]CategorySummary, 0, len(cats))
	for _, c := range cats {
		out = append(out, CategorySummary{
			ID:           c.ID,
			Name:         c.Name,
			RiskScore:    c.RiskScore,
			KeywordCount: len(c.Keywords),
		})
	}
	return CategoriesResult{
		Outcome:         domain.OK(),
		Categories:      out,
		TotalCategories: len(out),
	}, nil
}

// source names where a rule table was loaded from.
func (s *Service) source(table string) string {
	return s.engine.Tables.Sources[table]
}
