package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFrames() []FrameInfo {
	return []FrameInfo{
		{Index: 0, Name: "sidebar", URL: "https://example.com/side"},
		{Index: 1, Name: "content", URL: "https://cdn.example.com/embed/player"},
		{Index: 2, Name: "", URL: "https://ads.example.net/slot"},
	}
}

func TestResolveFrameTokenByIndex(t *testing.T) {
	idx, err := resolveFrameToken("1", sampleFrames())
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestResolveFrameTokenIndexOutOfRange(t *testing.T) {
	_, err := resolveFrameToken("3", sampleFrames())
	assert.ErrorIs(t, err, ErrFrameNotFound)
	_, err = resolveFrameToken("-1", sampleFrames())
	assert.ErrorIs(t, err, ErrFrameNotFound)
}

func TestResolveFrameTokenNamePrefix(t *testing.T) {
	idx, err := resolveFrameToken("name=content", sampleFrames())
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	_, err = resolveFrameToken("name=missing", sampleFrames())
	assert.ErrorIs(t, err, ErrFrameNotFound)
}

func TestResolveFrameTokenURLPrefix(t *testing.T) {
	idx, err := resolveFrameToken("url=embed/player", sampleFrames())
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	// Substring match, first hit wins.
	idx, err = resolveFrameToken("url=example.com", sampleFrames())
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
}

func TestResolveFrameTokenBarePrefersName(t *testing.T) {
	// "content" is both a frame name and a substring of no URL; name wins.
	idx, err := resolveFrameToken("content", sampleFrames())
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	// Falls through to URL substring when no name matches.
	idx, err = resolveFrameToken("ads.example", sampleFrames())
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
}

func TestResolveFrameTokenNoMatch(t *testing.T) {
	_, err := resolveFrameToken("nothing-here", sampleFrames())
	assert.ErrorIs(t, err, ErrFrameNotFound)
	_, err = resolveFrameToken("  ", sampleFrames())
	assert.ErrorIs(t, err, ErrFrameNotFound)
}

func TestResolveFrameTokenEmptyList(t *testing.T) {
	_, err := resolveFrameToken("0", nil)
	assert.ErrorIs(t, err, ErrFrameNotFound)
}

func TestNormalizeURL(t *testing.T) {
	cases := map[string]string{
		"example.com":          "https://example.com",
		"https://example.com":  "https://example.com",
		"http://example.com":   "http://example.com",
		"  example.com/a  ":    "https://example.com/a",
		"":                     "",
		"localhost:8080/admin": "https://localhost:8080/admin",
	}
	for raw, want := range cases {
		assert.Equal(t, want, NormalizeURL(raw), "raw=%q", raw)
	}
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "null", FormatValue(nil))
	assert.Equal(t, "plain", FormatValue("plain"))
	assert.Equal(t, "2", FormatValue(2))
	assert.Equal(t, "[1,2]", FormatValue([]interface{}{1, 2}))
	assert.Equal(t, `{"a":1}`, FormatValue(map[string]interface{}{"a": 1}))
}
