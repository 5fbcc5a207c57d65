package expense

import (
	"strings"

	"github.com/frahmantamala/expense-reporting/internal/category"
)

type keywordRule struct {
	keywords []string
	category string
}

// Merchant keywords mapped to a fragment of the seeded category names.
var suggestionRules = []keywordRule{
	{keywords: []string{"restaurant", "cafe", "food", "pizza", "burger"}, category: "food"},
	{keywords: []string{"uber", "taxi", "gas", "shell", "mobil"}, category: "transport"},
	{keywords: []string{"hotel", "airbnb", "booking"}, category: "lodging"},
}

// SuggestCategory picks a category id for a merchant name, or nil when nothing matches.
func SuggestCategory(merchant string, categories []category.CategoryResponse) *int64 {
	merchant = strings.ToLower(merchant)
	if merchant == "" {
		return nil
	}

	for _, rule := range suggestionRules {
		if !containsAny(merchant, rule.keywords) {
			continue
		}
		for _, c := range categories {
			if strings.Contains(strings.ToLower(c.Name), rule.category) {
				id := c.ID
				return &id
			}
		}
		return nil
	}
	return nil
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
