// Package classifier assigns taxonomy categories to free-text product
// listings. Deterministic override rules run first; a weighted keyword
// scorer covers the long tail. Both tiers are pure functions of their
// input so repeated calls always agree.
package classifier

import (
	"fmt"
	"regexp"
	"strings"

	"dronepartpicker/scraper/internal/domain"
)

// Result carries the enhanced classification output for operator tools.
type Result struct {
	Category   domain.Category `json:"category"`
	Confidence float64         `json:"confidence"`
	Reasoning  string          `json:"reasoning"`
}

var (
	kvRatingRegex   = regexp.MustCompile(`\b\d{3,4}\s?kv\b`)
	statorSizeRegex = regexp.MustCompile(`\b\d{4}\b`)
	cellCountRegex  = regexp.MustCompile(`\b\d{1,2}s\b`)
	mahRegex        = regexp.MustCompile(`\b\d{3,5}\s?mah\b`)
	bladeRegex      = regexp.MustCompile(`\b\d(\.\d)?x\d(\.\d)?(x\d)?\b|\b(bi|tri|quad)[- ]?blade\b`)
	camTokenRegex   = regexp.MustCompile(`\bcam\b`)
	escTokenRegex   = regexp.MustCompile(`\besc\b`)
	propSpaceRegex  = regexp.MustCompile(`\bprop\b`)
	wheelbaseRegex  = regexp.MustCompile(`\b\d{3}\s?mm\b|\bwheelbase\b`)
)

// scoringOrder fixes tie-break precedence for the scoring fallback.
var scoringOrder = []domain.Category{
	domain.CategoryMotor,
	domain.CategoryFrame,
	domain.CategoryCamera,
	domain.CategoryProp,
	domain.CategoryBattery,
	domain.CategoryStack,
}

// Classify assigns one taxonomy category to a listing. Description and
// URL are optional and may be empty.
func Classify(name, description, url string) domain.Category {
	result := ClassifyDetailed(name, description, url)
	return result.Category
}

// ClassifyDetailed is the enhanced variant: same category decision, plus
// a confidence score and a reasoning string for operator review.
func ClassifyDetailed(name, description, url string) Result {
	text := strings.ToLower(strings.TrimSpace(name + " " + description))

	if category, rule, ok := applyOverrides(text); ok {
		return Result{
			Category:   category,
			Confidence: 0.95,
			Reasoning:  fmt.Sprintf("override rule: %s", rule),
		}
	}

	return applyScoring(text, url)
}

// applyOverrides evaluates the high-confidence disambiguation rules in
// fixed order; the first match wins.
func applyOverrides(text string) (domain.Category, string, bool) {
	hasMount := strings.Contains(text, "mount")
	hasDampener := strings.Contains(text, "dampener")

	switch {
	case strings.Contains(text, "flight controller") || strings.Contains(text, "aio") || strings.Contains(text, "stack"):
		return domain.CategoryStack, "flight controller / AIO / stack phrasing", true
	case strings.Contains(text, "motor") && !hasMount:
		return domain.CategoryMotor, "motor without mount", true
	case (strings.Contains(text, "frame") || strings.Contains(text, "chassis")) && !hasMount && !hasDampener:
		return domain.CategoryFrame, "frame/chassis without mount or dampener", true
	case strings.Contains(text, "camera") || camTokenRegex.MatchString(text):
		return domain.CategoryCamera, "camera token", true
	case strings.Contains(text, "propeller") || strings.Contains(text, "props") || propSpaceRegex.MatchString(text):
		return domain.CategoryProp, "propeller token", true
	case strings.Contains(text, "battery") || strings.Contains(text, "lipo") || strings.Contains(text, "li-po"):
		return domain.CategoryBattery, "battery/lipo token", true
	case escTokenRegex.MatchString(text) && !hasMount:
		return domain.CategoryStack, "esc without mount", true
	}

	return "", "", false
}

func applyScoring(text, url string) Result {
	// Accessories never win by score.
	if strings.Contains(text, "mount") || strings.Contains(text, "dampener") || strings.Contains(text, "accessory") {
		return Result{
			Category:   domain.CategoryOther,
			Confidence: 0.9,
			Reasoning:  "accessory keyword present",
		}
	}

	scores := map[domain.Category]int{}
	hits := map[domain.Category][]string{}
	add := func(c domain.Category, weight int, reason string) {
		scores[c] += weight
		hits[c] = append(hits[c], reason)
	}

	if kvRatingRegex.MatchString(text) {
		add(domain.CategoryMotor, 2, "kv rating")
	}
	if statorSizeRegex.MatchString(text) && !mahRegex.MatchString(text) {
		add(domain.CategoryMotor, 2, "stator size")
	}

	if strings.Contains(text, "frame") || strings.Contains(text, "carbon fiber") {
		add(domain.CategoryFrame, 2, "frame material keyword")
	}
	if wheelbaseRegex.MatchString(text) {
		add(domain.CategoryFrame, 2, "wheelbase")
	}

	if strings.Contains(text, "fpv") && (strings.Contains(text, "camera") || camTokenRegex.MatchString(text)) {
		add(domain.CategoryCamera, 2, "fpv camera co-occurrence")
	}

	if bladeRegex.MatchString(text) {
		add(domain.CategoryProp, 2, "blade/size pattern")
	}

	if mahRegex.MatchString(text) || cellCountRegex.MatchString(text) || strings.Contains(text, "lipo") {
		add(domain.CategoryBattery, 2, "capacity/cell keyword")
	}

	if strings.Contains(text, "flight controller") || strings.Contains(text, "aio") {
		add(domain.CategoryStack, 3, "flight controller keyword")
	}

	if hinted := categoryFromURL(url); hinted != "" {
		add(hinted, 1, "url path hint")
	}

	best := domain.CategoryOther
	bestScore := 0
	allEqual := true
	for i, category := range scoringOrder {
		score := scores[category]
		if i > 0 && score != scores[scoringOrder[0]] {
			allEqual = false
		}
		// Strictly greater keeps the first-declared category on ties.
		if score > bestScore {
			bestScore = score
			best = category
		}
	}

	if bestScore == 0 || allEqual {
		return Result{
			Category:   domain.CategoryOther,
			Confidence: 0.3,
			Reasoning:  "no category scored a strict maximum",
		}
	}

	confidence := 0.5 + 0.1*float64(bestScore)
	if confidence > 0.9 {
		confidence = 0.9
	}

	return Result{
		Category:   best,
		Confidence: confidence,
		Reasoning:  fmt.Sprintf("scored %d: %s", bestScore, strings.Join(hits[best], ", ")),
	}
}

func categoryFromURL(url string) domain.Category {
	url = strings.ToLower(url)
	switch {
	case url == "":
		return ""
	case strings.Contains(url, "motor"):
		return domain.CategoryMotor
	case strings.Contains(url, "frame"):
		return domain.CategoryFrame
	case strings.Contains(url, "flight-controller") || strings.Contains(url, "stack"):
		return domain.CategoryStack
	case strings.Contains(url, "camera"):
		return domain.CategoryCamera
	case strings.Contains(url, "prop"):
		return domain.CategoryProp
	case strings.Contains(url, "batter"):
		return domain.CategoryBattery
	default:
		return ""
	}
}
