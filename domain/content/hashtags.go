package content

import (
	"strings"
	"unicode"
)

// industryHashtags are appended to every recommendation, first five only
var industryHashtags = []string{
	"AI",
	"MachineLearning",
	"DataScience",
	"Tech",
	"Innovation",
	"DigitalTransformation",
	"Business",
	"Leadership",
	"Marketing",
	"SocialMedia",
	"Strategy",
	"Growth",
	"Productivity",
	"Success",
	"Networking",
	"ProfessionalDevelopment",
	"CareerAdvice",
}

const (
	maxRecommendedHashtags = 10
	industryHashtagCount   = 5
)

// RecommendHashtags suggests hashtags for a topic: every topic word longer
// than three characters that is purely ASCII alphanumeric, capitalized,
// followed by the leading industry hashtags, deduplicated and capped at ten.
func RecommendHashtags(topic string) []string {
	candidates := make([]string, 0, maxRecommendedHashtags+industryHashtagCount)

	for _, word := range strings.Fields(strings.ToLower(topic)) {
		if len([]rune(word)) <= 3 || !isASCIIAlnum(word) {
			continue
		}
		candidates = append(candidates, strings.ToUpper(word[:1])+word[1:])
	}
	candidates = append(candidates, industryHashtags[:industryHashtagCount]...)

	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, maxRecommendedHashtags)
	for _, tag := range candidates {
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
		if len(out) == maxRecommendedHashtags {
			break
		}
	}
	return out
}

// NormalizeHashtags strips leading '#', drops empties and duplicates
func NormalizeHashtags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimLeft(strings.TrimSpace(tag), "#")
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func isASCIIAlnum(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return false
		}
	}
	return true
}
