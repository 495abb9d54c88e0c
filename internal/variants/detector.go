// Package variants finds compound multi-SKU listings and splits them
// into independent product drafts.
package variants

import (
	"regexp"
	"strings"

	"dronepartpicker/scraper/internal/domain"
)

// dimensionRule describes one varying dimension for a category: a regex
// matching the whole compound token and the unit its values carry.
type dimensionRule struct {
	dimension string
	token     *regexp.Regexp
	unit      string // appended to bare values when the unit trails the run
	require   string // substring the token must contain, guards bare-number runs
}

var (
	separatorRegex = regexp.MustCompile(`(?i)\s*(?:/|,|\bor\b)\s*`)
	bareValueRegex = regexp.MustCompile(`^[\d.\s]+$`)
)

// Rules are evaluated in order per category; the first token match with
// at least two distinct values wins.
var categoryRules = map[domain.Category][]dimensionRule{
	domain.CategoryMotor: {
		{
			dimension: "kv",
			token:     regexp.MustCompile(`(?i)\b\d{3,4}(?:\s?kv)?(?:\s*(?:/|,|\bor\b)\s*\d{3,4}(?:\s?kv)?)+\s?(?:kv)?\b`),
			unit:      "KV",
			require:   "kv",
		},
	},
	domain.CategoryProp: {
		{
			dimension: "size",
			token:     regexp.MustCompile(`(?i)\b\d(?:\.\d+)?x\d(?:\.\d+)?(?:x\d)?(?:\s*(?:/|,|\bor\b)\s*\d(?:\.\d+)?x\d(?:\.\d+)?(?:x\d)?)+\b`),
		},
	},
	domain.CategoryFrame: {
		{
			dimension: "color",
			token:     regexp.MustCompile(`(?i)\b(?:black|red|blue|green|orange|purple|white|grey|gray|yellow|pink)(?:\s*(?:/|,|\bor\b)\s*(?:black|red|blue|green|orange|purple|white|grey|gray|yellow|pink))+\b`),
		},
		{
			dimension: "size",
			token:     regexp.MustCompile(`(?i)\b\d(?:\.\d+)?\s?(?:"|inch(?:es)?)?(?:\s*(?:/|,|\bor\b)\s*\d(?:\.\d+)?\s?(?:"|inch(?:es)?)?)+\s?(?:"|inch(?:es)?)\b?`),
			unit:      "inch",
			require:   "inch",
		},
	},
	domain.CategoryBattery: {
		{
			dimension: "capacity",
			token:     regexp.MustCompile(`(?i)\b\d{3,5}(?:\s?mah)?(?:\s*(?:/|,|\bor\b)\s*\d{3,5}(?:\s?mah)?)+\s?(?:mah)?\b`),
			unit:      "mAh",
			require:   "mah",
		},
		{
			dimension: "cells",
			token:     regexp.MustCompile(`(?i)\b\d{1,2}s(?:\s*(?:/|,|\bor\b)\s*\d{1,2}s)+\b`),
		},
	},
}

// allRules, in a stable order, for category-agnostic screening.
var allRuleCategories = []domain.Category{
	domain.CategoryMotor,
	domain.CategoryProp,
	domain.CategoryFrame,
	domain.CategoryBattery,
}

// HasLikelyVariants reports whether any category's variant pattern
// matches the name. A cheap screen before DetectVariants.
func HasLikelyVariants(name string) bool {
	for _, category := range allRuleCategories {
		if spec := DetectVariants(name, category); spec != nil {
			return true
		}
	}
	return false
}

// DetectVariants finds the varying dimension in a listing name for the
// given category. Returns nil when the name holds a single SKU. A
// multi-token spec like a 5x4.3x3 prop dimension is one value, not a
// variant run.
func DetectVariants(name string, category domain.Category) *domain.VariantSpec {
	rules, ok := categoryRules[category]
	if !ok {
		return nil
	}

	for _, rule := range rules {
		token := rule.token.FindString(name)
		if token == "" {
			continue
		}
		if rule.require != "" && !strings.Contains(strings.ToLower(token), rule.require) {
			continue
		}

		values := splitValues(token, rule.unit)
		if len(values) < 2 {
			continue
		}

		return &domain.VariantSpec{
			Dimension: rule.dimension,
			Token:     token,
			Values:    values,
		}
	}

	return nil
}

// splitValues splits a compound token into its distinct values. When the
// unit trails the run ("1750/2000/2300KV"), bare values get it appended;
// pieces already carrying the unit are rewritten to the canonical form so
// "1300/1500 mah" and "1300mAh/1500mAh" yield identical values.
func splitValues(token, unit string) []string {
	pieces := separatorRegex.Split(token, -1)

	seen := make(map[string]bool)
	values := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		if unit != "" {
			if bareValueRegex.MatchString(piece) {
				piece += unit
			} else if strings.HasSuffix(strings.ToLower(piece), strings.ToLower(unit)) {
				piece = strings.TrimSpace(piece[:len(piece)-len(unit)]) + unit
			}
		}
		key := strings.ToLower(strings.ReplaceAll(piece, " ", ""))
		if seen[key] {
			continue
		}
		seen[key] = true
		values = append(values, piece)
	}

	return values
}
