package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeXPathPrefixes(t *testing.T) {
	cases := []struct {
		raw    string
		engine string
	}{
		{"//a[contains(., 'Next')]", "xpath=//a[contains(., 'Next')]"},
		{"./div/span", "xpath=./div/span"},
		{"  //button  ", "xpath=//button"},
		{"\t./td[1]\n", "xpath=./td[1]"},
	}
	for _, tc := range cases {
		sel := Normalize(tc.raw)
		assert.Equal(t, KindXPath, sel.Kind, "raw=%q", tc.raw)
		assert.Equal(t, tc.engine, sel.Engine, "raw=%q", tc.raw)
	}
}

func TestNormalizeCSSPassthrough(t *testing.T) {
	cases := []string{
		"a#login",
		"button.submit",
		`input[name="q"]`,
		"div.card > span",
		"/absolute-but-single-slash",
		".leading-dot-class",
		".",
		"/",
		"",
	}
	for _, raw := range cases {
		sel := Normalize(raw)
		assert.Equal(t, KindCSS, sel.Kind, "raw=%q", raw)
		assert.Equal(t, sel.Raw, sel.Engine, "raw=%q", raw)
	}
}

// Exhaustive over every two-byte ASCII prefix: only "//" and "./" may yield
// an XPath tagging.
func TestNormalizePrefixCorpus(t *testing.T) {
	for a := byte(32); a < 127; a++ {
		for b := byte(32); b < 127; b++ {
			raw := string([]byte{a, b}) + "rest"
			sel := Normalize(raw)
			wantXPath := (a == '/' && b == '/') || (a == '.' && b == '/')
			if wantXPath {
				assert.Equal(t, KindXPath, sel.Kind, "prefix=%q", raw[:2])
			} else {
				assert.Equal(t, KindCSS, sel.Kind, "prefix=%q", raw[:2])
			}
		}
	}
}
