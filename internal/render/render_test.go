package render

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><head>
<title>Demo</title>
<style>body { color: red; }</style>
<script>console.log("secret");</script>
</head><body>
<h1>Welcome</h1>
<p>First   paragraph</p>
<noscript>enable js</noscript>
<div><span>nested</span></div>
</body></html>`

func TestSimplifyStripsScriptAndStyle(t *testing.T) {
	out := SimplifyHTML(page)
	assert.NotContains(t, out, "color: red")
	assert.NotContains(t, out, "secret")
	assert.NotContains(t, out, "enable js")
	assert.Contains(t, out, "Welcome")
	assert.Contains(t, out, "First paragraph")
	assert.Contains(t, out, "nested")
}

func TestSimplifyCollapsesLines(t *testing.T) {
	out := SimplifyHTML(page)
	for _, line := range strings.Split(out, "\n") {
		assert.NotEmpty(t, line)
		assert.Equal(t, strings.TrimSpace(line), line)
	}
}

func TestRenderHTMLPassthrough(t *testing.T) {
	r := New(ModeHTML, DefaultBudget)
	assert.Equal(t, page, r.Render(page))
}

func TestRenderTextMode(t *testing.T) {
	r := New(ModeText, DefaultBudget)
	out := r.Render(page)
	assert.NotContains(t, out, "<h1>")
	assert.Contains(t, out, "Welcome")
}

func TestClipMarkerCount(t *testing.T) {
	full := strings.Repeat("x", 150)
	out := Clip(full, 100)
	require.True(t, strings.HasSuffix(out, "[... clipped 50 chars ...]"))
	content := strings.SplitN(out, "\n\n[...", 2)[0]
	assert.Len(t, content, 100)
}

func TestClipUnderBudgetUntouched(t *testing.T) {
	assert.Equal(t, "short", Clip("short", 100))
}

func TestClipCountsCharactersNotBytes(t *testing.T) {
	full := strings.Repeat("é", 100) // 100 chars, 200 bytes

	// Within the character budget: untouched even though the byte count is not.
	assert.Equal(t, full, Clip(full, 101))
	assert.Equal(t, full, Clip(full, 100))

	out := Clip(full, 40)
	require.True(t, utf8.ValidString(out))
	require.True(t, strings.HasSuffix(out, "[... clipped 60 chars ...]"))
	content := strings.SplitN(out, "\n\n[...", 2)[0]
	assert.Equal(t, strings.Repeat("é", 40), content)
}

func TestRenderAppliesBudget(t *testing.T) {
	r := New(ModeHTML, 10)
	out := r.Render("0123456789abcdef")
	assert.Contains(t, out, "[... clipped 6 chars ...]")
	assert.True(t, strings.HasPrefix(out, "0123456789"))
}

func TestParseMode(t *testing.T) {
	mode, ok := ParseMode("TEXT")
	require.True(t, ok)
	assert.Equal(t, ModeText, mode)
	_, ok = ParseMode("markdown")
	assert.False(t, ok)
}

func TestHeader(t *testing.T) {
	assert.Equal(t, "URL: https://example.com", Header("https://example.com"))
}

func TestSetMode(t *testing.T) {
	r := New(ModeHTML, 0)
	assert.Equal(t, DefaultBudget, r.Budget())
	r.SetMode(ModeText)
	assert.Equal(t, ModeText, r.Mode())
}
