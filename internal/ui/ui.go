// Package ui prints labeled result panels. Every command line produces
// exactly one panel, success and failure alike, so the operator always sees
// a result for every line entered.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Kind selects the panel accent.
type Kind int

const (
	KindSuccess Kind = iota
	KindError
	KindWarn
	KindInfo
)

// Writer renders panels and raw page dumps to one output stream.
type Writer struct {
	out io.Writer

	success lipgloss.Style
	failure lipgloss.Style
	warn    lipgloss.Style
	info    lipgloss.Style
	dim     lipgloss.Style
	prompt  lipgloss.Style
	header  lipgloss.Style
}

func New(out io.Writer) *Writer {
	bar := func(color string) lipgloss.Style {
		return lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color(color)).
			PaddingLeft(1)
	}
	return &Writer{
		out:     out,
		success: bar("2"),
		failure: bar("1"),
		warn:    bar("3"),
		info:    bar("4"),
		dim:     lipgloss.NewStyle().Faint(true),
		prompt:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		header:  lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
	}
}

func (w *Writer) style(kind Kind) lipgloss.Style {
	switch kind {
	case KindError:
		return w.failure
	case KindWarn:
		return w.warn
	case KindInfo:
		return w.info
	default:
		return w.success
	}
}

// Panel prints a titled block for one command outcome.
func (w *Writer) Panel(kind Kind, title, body string) {
	st := w.style(kind)
	content := title
	if strings.TrimSpace(body) != "" {
		content += "\n" + body
	}
	fmt.Fprintln(w.out, st.Render(content))
}

// PageDump prints the rendered document below its URL header.
func (w *Writer) PageDump(header, content string) {
	fmt.Fprintln(w.out, w.header.Render(header))
	if content != "" {
		fmt.Fprintln(w.out, content)
	}
}

// Dim prints secondary diagnostics such as piped page console messages.
func (w *Writer) Dim(text string) {
	fmt.Fprintln(w.out, w.dim.Render(text))
}

// Prompt prints the input prompt without a trailing newline.
func (w *Writer) Prompt(url string) {
	fmt.Fprintf(w.out, "%s ", w.prompt.Render(fmt.Sprintf("browser[%s]>", url)))
}
