package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A bad flag value must surface as an error from run so main's defers (and
// the caller's Fatal) stay the only exit path; run itself never os.Exits.
func TestRunRejectsInvalidRenderMode(t *testing.T) {
	err := run(cliOptions{renderMode: "markdown"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "markdown")
}
