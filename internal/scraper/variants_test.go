package scraper

import (
	"testing"

	"paaharvest/internal/config"
)

func TestVariants_PrefixOrder(t *testing.T) {
	rules := []config.VariantRule{
		{Placement: config.PlacementPrefix, Text: "What is "},
		{Placement: config.PlacementPrefix, Text: "Best "},
	}

	got := Variants("shoes", rules)

	want := []string{"shoes", "What is shoes", "Best shoes"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d variants, got %d", len(want), len(got))
	}

	for i, term := range want {
		if got[i].SearchTerm != term {
			t.Errorf("variant[%d]: expected %q, got %q", i, term, got[i].SearchTerm)
		}
	}

	if got[0].IsRetry {
		t.Error("raw keyword must not be marked as retry")
	}

	for i := 1; i < len(got); i++ {
		if !got[i].IsRetry {
			t.Errorf("variant[%d] must be marked as retry", i)
		}
	}
}

func TestVariants_SuffixPlacement(t *testing.T) {
	rules := []config.VariantRule{
		{Placement: config.PlacementSuffix, Text: " guide"},
	}

	got := Variants("shoes", rules)

	if got[1].SearchTerm != "shoes guide" {
		t.Errorf("Expected suffix form 'shoes guide', got %q", got[1].SearchTerm)
	}
}

func TestVariants_DefaultRules(t *testing.T) {
	got := Variants("camping stove", config.DefaultConfig().Variants)

	if len(got) != 6 {
		t.Fatalf("Expected raw keyword plus 5 rewrites, got %d", len(got))
	}

	if got[0].SearchTerm != "camping stove" {
		t.Errorf("raw keyword must come first, got %q", got[0].SearchTerm)
	}

	if got[5].SearchTerm != "camping stove guide" {
		t.Errorf("Expected suffix rewrite last, got %q", got[5].SearchTerm)
	}
}
