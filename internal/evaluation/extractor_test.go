package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractCollectsSections(t *testing.T) {
	t.Parallel()
	raw := `The answer was solid overall.

Key Points:
- Covered the architecture
- Mentioned trade-offs
- Quantified the results

Strengths:
- Clear structure

Weaknesses:
- Light on failure handling

Improvements:
- Add monitoring details`

	got := NewMarkerExtractor().Extract(raw)
	assert.Equal(t, []string{"Covered the architecture", "Mentioned trade-offs", "Quantified the results"}, got.KeyPoints)
	assert.Equal(t, []string{"Clear structure"}, got.Strengths)
	assert.Equal(t, []string{"Light on failure handling"}, got.Weaknesses)
	assert.Equal(t, []string{"Add monitoring details"}, got.Improvements)
}

func TestExtractNoMarkers(t *testing.T) {
	t.Parallel()
	got := NewMarkerExtractor().Extract("Just prose with no structure.\n- a stray bullet before any marker")
	assert.Empty(t, got.KeyPoints)
	assert.Empty(t, got.Strengths)
	assert.Empty(t, got.Weaknesses)
	assert.Empty(t, got.Improvements)
}

func TestExtractStopsAtNextMarker(t *testing.T) {
	t.Parallel()
	raw := `Strengths:
- Good context
Weaknesses:
- No metrics`

	got := NewMarkerExtractor().Extract(raw)
	assert.Equal(t, []string{"Good context"}, got.Strengths)
	assert.Equal(t, []string{"No metrics"}, got.Weaknesses)
}

func TestExtractMarkerAliases(t *testing.T) {
	t.Parallel()
	raw := `Areas for improvement:
- Be more specific

Next steps:
- Practice system design`

	got := NewMarkerExtractor().Extract(raw)
	// "Areas for improvement" feeds weaknesses, not improvements.
	assert.Equal(t, []string{"Be more specific"}, got.Weaknesses)
	assert.Equal(t, []string{"Practice system design"}, got.Improvements)
}

func TestExtractFirstMatchWins(t *testing.T) {
	t.Parallel()
	// The line mentions both key points and strengths; the marker table's
	// order assigns it to key points.
	raw := `Key points and strengths:
- Item one`

	got := NewMarkerExtractor().Extract(raw)
	assert.Equal(t, []string{"Item one"}, got.KeyPoints)
	assert.Empty(t, got.Strengths)
}

func TestExtractStripsBulletPrefixes(t *testing.T) {
	t.Parallel()
	raw := "Key Points:\n-   spaced dash\n• unicode bullet\n-- double dash"

	got := NewMarkerExtractor().Extract(raw)
	assert.Equal(t, []string{"spaced dash", "unicode bullet", "- double dash"}, got.KeyPoints)
}

func TestExtractKeepsLeadingDashInContent(t *testing.T) {
	t.Parallel()
	raw := "Key Points:\n- -5 degrees tolerance\n- drop to -40 at night"

	got := NewMarkerExtractor().Extract(raw)
	assert.Equal(t, []string{"-5 degrees tolerance", "drop to -40 at night"}, got.KeyPoints)
}

func TestExtractIgnoresNonBulletLines(t *testing.T) {
	t.Parallel()
	raw := "Key Points:\nplain prose line\n- real bullet"

	got := NewMarkerExtractor().Extract(raw)
	assert.Equal(t, []string{"real bullet"}, got.KeyPoints)
}

func TestSectionAfterStopsAtHeader(t *testing.T) {
	t.Parallel()
	raw := `Gaps:
- Missing Kubernetes
Recommendations:
- Learn k8s`

	assert.Equal(t, []string{"Missing Kubernetes"}, SectionAfter(raw, "gaps"))
	assert.Equal(t, []string{"Learn k8s"}, SectionAfter(raw, "recommendations"))
	assert.Empty(t, SectionAfter(raw, "unrelated"))
}

func TestBulletLines(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"a", "b"}, BulletLines("header\n- a\nprose\n- b"))
	assert.Empty(t, BulletLines("no bullets at all"))
}
