package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/cybertriage/cybertriage/internal/domain"
)

// Listing defaults.
const (
	DefaultListLimit = 50
	unknownStatus    = "UNKNOWN"
	unknownCategory  = "Unknown"
	updateMessage    = "Case updated"
)

// GetCase returns the full case record.
func (s *Service) GetCase(ctx context.Context, caseID string) (res CaseResult, err error) {
	ctx, end := s.begin(ctx, "get_case", attribute.String("case_id", caseID))
	defer func() { end(err) }()

	c, err := s.load(ctx, caseID)
	if err != nil {
		return res, err
	}
	return CaseResult{Outcome: domain.OK(), Case: c}, nil
}

// UpdateCase sets a caller-supplied status and/or appends a note.
func (s *Service) UpdateCase(ctx context.Context, in UpdateInput) (res UpdateResult, err error) {
	ctx, end := s.begin(ctx, "update_case", attribute.String("case_id", in.CaseID))
	defer func() { end(err) }()

	c, err := s.mutate(ctx, in.CaseID, func(c *domain.Case) error {
		now := s.now()
		if in.Status != "" {
			c.Status = in.Status
		}
		if strings.TrimSpace(in.Notes) != "" {
			c.Notes = append(c.Notes, domain.Note{Timestamp: now, Note: in.Notes})
		}
		c.LastUpdated = now
		return nil
	})
	if err != nil {
		return res, err
	}
	s.publish(ctx, domain.TopicCaseUpdated, c)

	return UpdateResult{
		Outcome: domain.OK(),
		CaseID:  c.ID,
		Status:  c.Status,
		Message: updateMessage,
	}, nil
}

// ListCases returns up to limit case summaries, oldest first, optionally
// filtered by exact status. A zero limit means DefaultListLimit.
func (s *Service) ListCases(ctx context.Context, status string, limit int) (res ListResult, err error) {
	ctx, end := s.begin(ctx, "list_cases")
	defer func() { end(err) }()

	if limit < 0 {
		return res, fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidInput)
	}
	if limit == 0 {
		limit = DefaultListLimit
	}

	cases, err := s.store.LoadAllCases(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to load cases: %w", err)
	}

	ordered := make([]*domain.Case, 0, len(cases))
	for _, c := range cases {
		if status != "" && c.Status != status {
			continue
		}
		ordered = append(ordered, c)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})
	if len(ordered) > limit {
		ordered = ordered[:limit]
	}

	summaries := make([]CaseSummary, 0, len(ordered))
	for _, c := range ordered {
		summaries = append(summaries, summarize(c))
	}
	return ListResult{
		Outcome:       domain.OK(),
		Cases:         summaries,
		TotalReturned: len(summaries),
		TotalInSystem: len(cases),
	}, nil
}

func summarize(c *domain.Case) CaseSummary {
	category := c.Intake.PreliminaryCategory.Name
	if category == "" {
		category = unknownCategory
	}
	sum := CaseSummary{
		CaseID:    c.ID,
		Status:    c.Status,
		Category:  category,
		AmountINR: c.Intake.AmountINR,
		CreatedAt: c.Intake.Timestamp,
	}
	if c.Triage != nil {
		urgency := c.Triage.UrgencyScore
		sum.Severity = c.Triage.Severity
		sum.UrgencyScore = &urgency
	}
	return sum
}

// Statistics aggregates every stored case.
func (s *Service) Statistics(ctx context.Context) (res StatisticsResult, err error) {
	ctx, end := s.begin(ctx, "statistics")
	defer func() { end(err) }()

	cases, err := s.store.LoadAllCases(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to load cases: %w", err)
	}

	res = StatisticsResult{
		Outcome:              domain.OK(),
		TotalCases:           len(cases),
		StatusDistribution:   map[string]int{},
		SeverityDistribution: map[string]int{},
		CategoryDistribution: map[string]int{},
		StorageMode:          s.store.Mode(),
	}
	for _, band := range domain.SeverityOrder {
		res.SeverityDistribution[band] = 0
	}

	for _, c := range cases {
		status := c.Status
		if status == "" {
			status = unknownStatus
		}
		res.StatusDistribution[status]++

		category := c.Intake.PreliminaryCategory.ID
		if category == "" {
			category = domain.FallbackCategoryID
		}
		res.CategoryDistribution[category]++
		res.TotalAmountReported += c.Intake.AmountINR

		if c.Triage != nil {
			res.SeverityDistribution[c.Triage.Severity]++
			if c.Triage.GoldenHour {
				res.GoldenHourCases++
			}
		}
	}
	return res, nil
}
