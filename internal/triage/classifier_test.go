package triage

import (
	"errors"
	"testing"

	"github.com/cybertriage/cybertriage/internal/domain"
	"github.com/cybertriage/cybertriage/internal/ruleset"
)

func mustTables(t *testing.T) *ruleset.Tables {
	t.Helper()
	tables, err := ruleset.Default()
	if err != nil {
		t.Fatalf("failed to load rule tables: %v", err)
	}
	return tables
}

func TestClassifyUPI(t *testing.T) {
	c := NewClassifier(mustTables(t).Taxonomy)

	got := c.Classify("I got scammed via UPI QR code")

	if got.CategoryID != "UPI_FRAUD" {
		t.Fatalf("expected UPI_FRAUD, got %s", got.CategoryID)
	}
	if len(got.MatchedKeywords) != 2 {
		t.Errorf("expected 2 matched keywords, got %v", got.MatchedKeywords)
	}
	if got.Confidence != 40 {
		t.Errorf("expected confidence 40, got %d", got.Confidence)
	}
}

func TestClassifyFallback(t *testing.T) {
	c := NewClassifier(mustTables(t).Taxonomy)

	got := c.Classify("Something strange happened and I am not sure what it was")

	if got.CategoryID != domain.FallbackCategoryID {
		t.Fatalf("expected OTHER, got %s", got.CategoryID)
	}
	if got.MatchedKeywords == nil || len(got.MatchedKeywords) != 0 {
		t.Errorf("expected empty keyword list, got %v", got.MatchedKeywords)
	}
	if got.Confidence != 10 {
		t.Errorf("expected confidence 10, got %d", got.Confidence)
	}
	if got.RiskScore != 40 {
		t.Errorf("expected OTHER risk score 40, got %d", got.RiskScore)
	}
}

func TestClassifyWithoutFallbackEntry(t *testing.T) {
	c := NewClassifier(domain.Taxonomy{Categories: []domain.Category{
		{ID: "A", Name: "A", RiskScore: 70, Keywords: []string{"alpha"}},
	}})

	got := c.Classify("nothing relevant here")
	if got.CategoryID != domain.FallbackCategoryID || got.CategoryName != "Other Cybercrime" || got.RiskScore != 40 {
		t.Errorf("unexpected fallback %+v", got)
	}
}

func TestClassifyTieBreak(t *testing.T) {
	taxonomy := domain.Taxonomy{Categories: []domain.Category{
		{ID: "FIRST", Name: "First", RiskScore: 50, Keywords: []string{"refund", "courier"}},
		{ID: "SECOND", Name: "Second", RiskScore: 60, Keywords: []string{"courier", "refund", "parcel"}},
		{ID: domain.FallbackCategoryID, Name: "Other", RiskScore: 40},
	}}
	c := NewClassifier(taxonomy)

	t.Run("EqualCountKeepsFirst", func(t *testing.T) {
		got := c.Classify("courier asked for a refund")
		if got.CategoryID != "FIRST" {
			t.Errorf("expected FIRST on tie, got %s", got.CategoryID)
		}
	})

	t.Run("StrictlyGreaterWins", func(t *testing.T) {
		got := c.Classify("courier parcel refund")
		if got.CategoryID != "SECOND" {
			t.Errorf("expected SECOND, got %s", got.CategoryID)
		}
		if len(got.MatchedKeywords) != 3 {
			t.Errorf("expected 3 keywords, got %v", got.MatchedKeywords)
		}
	})

	t.Run("CaseInsensitive", func(t *testing.T) {
		got := c.Classify("COURIER REFUND")
		if got.CategoryID != "FIRST" {
			t.Errorf("expected FIRST, got %s", got.CategoryID)
		}
	})
}

func TestClassifyTextLength(t *testing.T) {
	c := NewClassifier(mustTables(t).Taxonomy)

	tests := []struct {
		name    string
		text    string
		min     int
		wantErr bool
	}{
		{"Empty", "", MinClassifyLength, true},
		{"FourChars", "abcd", MinClassifyLength, true},
		{"PaddedFourChars", "   abcd   ", MinClassifyLength, true},
		{"FiveChars", "abcde", MinClassifyLength, false},
		{"FiveCharsIntake", "abcde", MinIntakeLength, true},
		{"TenCharsIntake", "abcdefghij", MinIntakeLength, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.ClassifyText(tt.text, tt.min)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestKeywordConfidence(t *testing.T) {
	cases := map[int]int{0: 10, 1: 20, 2: 40, 4: 80, 5: 100, 9: 100}
	for matched, want := range cases {
		if got := KeywordConfidence(matched); got != want {
			t.Errorf("KeywordConfidence(%d) = %d, want %d", matched, got, want)
		}
	}
}
