// Package triage implements the deterministic decision core: keyword
// classification, urgency scoring, routing, policy evaluation and
// confidence estimation. Everything here is pure and safe for concurrent use.
package triage

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cybertriage/cybertriage/internal/domain"
)

// Minimum complaint lengths, counted in characters after trimming.
const (
	MinClassifyLength = 5
	MinIntakeLength   = 10
)

// Classification is the outcome of keyword classification.
type Classification struct {
	CategoryID      string   `json:"category_id"`
	CategoryName    string   `json:"category_name"`
	RiskScore       int      `json:"risk_score"`
	MatchedKeywords []string `json:"matched_keywords"`
	Confidence      int      `json:"confidence"`
}

// Classifier maps complaint text to a taxonomy category.
type Classifier struct {
	categories []domain.Category
	fallback   domain.Category
}

// NewClassifier creates a classifier over the given taxonomy.
func NewClassifier(taxonomy domain.Taxonomy) *Classifier {
	c := &Classifier{
		categories: taxonomy.Categories,
		fallback: domain.Category{
			ID:        domain.FallbackCategoryID,
			Name:      "Other Cybercrime",
			RiskScore: 40,
		},
	}
	for _, cat := range taxonomy.Categories {
		if cat.ID == domain.FallbackCategoryID {
			c.fallback = cat
			break
		}
	}
	return c
}

// Classify returns the category with the strictly greatest number of
// keyword hits. Ties keep the earlier category in taxonomy order.
func (c *Classifier) Classify(text string) Classification {
	lower := strings.ToLower(text)

	var best *domain.Category
	var bestMatches []string
	for i := range c.categories {
		cat := &c.categories[i]
		var matches []string
		for _, kw := range cat.Keywords {
			if kw != "" && strings.Contains(lower, kw) {
				matches = append(matches, kw)
			}
		}
		if len(matches) > len(bestMatches) {
			best = cat
			bestMatches = matches
		}
	}

	if best == nil {
		return Classification{
			CategoryID:      c.fallback.ID,
			CategoryName:    c.fallback.Name,
			RiskScore:       c.fallback.RiskScore,
			MatchedKeywords: []string{},
			Confidence:      KeywordConfidence(0),
		}
	}

	return Classification{
		CategoryID:      best.ID,
		CategoryName:    best.Name,
		RiskScore:       best.RiskScore,
		MatchedKeywords: bestMatches,
		Confidence:      KeywordConfidence(len(bestMatches)),
	}
}

// ClassifyText validates the text length before classifying.
func (c *Classifier) ClassifyText(text string, minLength int) (Classification, error) {
	if err := ValidateComplaint(text, minLength); err != nil {
		return Classification{}, err
	}
	return c.Classify(text), nil
}

// ValidateComplaint rejects empty or too-short complaint text.
func ValidateComplaint(text string, minLength int) error {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minLength {
		return fmt.Errorf("%w: complaint text required (min %d chars)", domain.ErrInvalidInput, minLength)
	}
	return nil
}

// KeywordConfidence is 20 points per matched keyword, capped at 100.
// Zero matches yield 10.
func KeywordConfidence(matched int) int {
	if matched == 0 {
		return 10
	}
	return min(matched*20, 100)
}
