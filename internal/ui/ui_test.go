package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPanelContainsTitleAndBody(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)
	w.Panel(KindSuccess, "goto", "Navigated to https://example.com (status: 200)")
	out := buf.String()
	assert.Contains(t, out, "goto")
	assert.Contains(t, out, "Navigated to https://example.com (status: 200)")
}

func TestPanelFailureSameShapeAsSuccess(t *testing.T) {
	var ok, fail bytes.Buffer
	New(&ok).Panel(KindSuccess, "click", "done")
	New(&fail).Panel(KindError, "error", "done")
	// Both outcomes produce a titled block; only the accent differs.
	assert.NotEmpty(t, ok.String())
	assert.NotEmpty(t, fail.String())
}

func TestPageDump(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).PageDump("URL: about:blank", "<html></html>")
	assert.Contains(t, buf.String(), "URL: about:blank")
	assert.Contains(t, buf.String(), "<html></html>")
}

func TestPrompt(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Prompt("https://example.com")
	assert.Contains(t, buf.String(), "browser[https://example.com]>")
}
