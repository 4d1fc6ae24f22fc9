// Package evaluation holds the re-implementable computation of the
// pipeline: parsing the model's free-form analysis into sections and
// turning transcript metadata plus parsed sections into bounded scores.
package evaluation

import "strings"

// Category names a section the extractor collects bullets into.
type Category string

const (
	CategoryKeyPoints    Category = "key_points"
	CategoryStrengths    Category = "strengths"
	CategoryWeaknesses   Category = "weaknesses"
	CategoryImprovements Category = "improvements"
)

// Sections is the structured output of a section extraction pass.
type Sections struct {
	KeyPoints    []string
	Strengths    []string
	Weaknesses   []string
	Improvements []string
}

// SectionExtractor parses raw analysis text into Sections. It is an
// interface so the marker+bullet heuristic can be swapped for a
// structured-output contract without touching the scoring engine.
type SectionExtractor interface {
	Extract(raw string) Sections
}

// marker associates a case-insensitive phrase with its category. Order
// matters: a line matching several phrases is assigned to the first one
// in this table (first-match wins).
type marker struct {
	phrase   string
	category Category
}

var markers = []marker{
	{"key points", CategoryKeyPoints},
	{"strengths", CategoryStrengths},
	{"weaknesses", CategoryWeaknesses},
	{"areas for improvement", CategoryWeaknesses},
	{"improvements", CategoryImprovements},
	{"next steps", CategoryImprovements},
	{"follow-up", CategoryImprovements},
}

// MarkerExtractor is the concrete marker+bullet extractor. A marker line
// opens a category; subsequent bullet lines (`-` or `•`) are collected
// into it until the next marker line or end of text. Lines before the
// first marker are ignored. A missing marker yields an empty list, never
// an error.
type MarkerExtractor struct{}

// NewMarkerExtractor returns the default section extractor.
func NewMarkerExtractor() MarkerExtractor { return MarkerExtractor{} }

// Extract scans raw line by line and collects bullets per category.
func (MarkerExtractor) Extract(raw string) Sections {
	var out Sections
	var current Category

	for _, line := range strings.Split(raw, "\n") {
		if cat, ok := matchMarker(line); ok {
			current = cat
			continue
		}
		if current == "" {
			continue
		}
		if item, ok := bulletText(line); ok {
			switch current {
			case CategoryKeyPoints:
				out.KeyPoints = append(out.KeyPoints, item)
			case CategoryStrengths:
				out.Strengths = append(out.Strengths, item)
			case CategoryWeaknesses:
				out.Weaknesses = append(out.Weaknesses, item)
			case CategoryImprovements:
				out.Improvements = append(out.Improvements, item)
			}
		}
	}
	return out
}

func matchMarker(line string) (Category, bool) {
	lower := strings.ToLower(line)
	for _, m := range markers {
		if strings.Contains(lower, m.phrase) {
			return m.category, true
		}
	}
	return "", false
}

// bulletText reports whether the trimmed line starts with a bullet marker
// and returns its content with exactly one marker and surrounding space
// stripped, so content that itself begins with a dash survives.
func bulletText(line string) (string, bool) {
	t := strings.TrimSpace(line)
	var rest string
	switch {
	case strings.HasPrefix(t, "-"):
		rest = t[len("-"):]
	case strings.HasPrefix(t, "•"):
		rest = t[len("•"):]
	default:
		return "", false
	}
	item := strings.TrimSpace(rest)
	if item == "" {
		return "", false
	}
	return item, true
}

// BulletLines collects every bullet line in text, regardless of markers.
// Used by parsers that slice their own sections out of the prose first.
func BulletLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if item, ok := bulletText(line); ok {
			out = append(out, item)
		}
	}
	return out
}

// SectionAfter returns the bullets that follow the first line containing
// any of the given phrases (case-insensitive), up to the next header line.
// A header is a non-bullet line ending in a colon, which covers both the
// core marker table and section names specific to a caller.
func SectionAfter(raw string, phrases ...string) []string {
	var out []string
	collecting := false
	for _, line := range strings.Split(raw, "\n") {
		lower := strings.ToLower(line)
		if !collecting {
			for _, p := range phrases {
				if strings.Contains(lower, p) {
					collecting = true
					break
				}
			}
			continue
		}
		if isHeaderLine(line) {
			break
		}
		if item, ok := bulletText(line); ok {
			out = append(out, item)
		}
	}
	return out
}

func isHeaderLine(line string) bool {
	t := strings.TrimSpace(line)
	if t == "" || strings.HasPrefix(t, "-") || strings.HasPrefix(t, "•") {
		return false
	}
	if strings.HasSuffix(t, ":") {
		return true
	}
	_, isMarker := matchMarker(line)
	return isMarker
}
