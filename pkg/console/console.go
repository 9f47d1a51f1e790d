// Package console prints step outcomes, model output and parallel records
// to a terminal. Colors are only emitted when Out is a terminal.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/germanamz/promptchain/pkg/chain"
	"github.com/germanamz/promptchain/pkg/credentials"
	"github.com/mattn/go-runewidth"
)

// Status markers.
const (
	MarkSuccess = "✅"
	MarkFailure = "❌"
)

const (
	colorSuccess = lipgloss.Color("#1a7f37")
	colorError   = lipgloss.Color("#cf222e")
	colorMuted   = lipgloss.Color("8")
	colorAccent  = lipgloss.Color("6")

	defaultWidth = 100
	recordSep    = " │ "
)

type styles struct {
	success lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
	name    lipgloss.Style
}

// Printer writes human-readable status lines. It is safe for concurrent use.
type Printer struct {
	Out      io.Writer
	Markdown bool // Render detail text as markdown.
	Width    int  // Word wrap width for markdown; defaults to 100.

	once   sync.Once
	mu     sync.Mutex
	st     styles
	mdRend *glamour.TermRenderer
}

// New creates a Printer writing to out.
func New(out io.Writer, markdown bool) *Printer {
	return &Printer{Out: out, Markdown: markdown}
}

func (p *Printer) init() {
	p.once.Do(func() {
		r := lipgloss.NewRenderer(p.Out)
		p.st = styles{
			success: r.NewStyle().Bold(true).Foreground(colorSuccess),
			failure: r.NewStyle().Bold(true).Foreground(colorError),
			muted:   r.NewStyle().Foreground(colorMuted),
			name:    r.NewStyle().Bold(true).Foreground(colorAccent),
		}

		if !p.Markdown {
			return
		}

		width := p.Width
		if width <= 0 {
			width = defaultWidth
		}

		md, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return
		}
		p.mdRend = md
	})
}

// Success prints "✅ Step N: msg" followed by each detail block.
// A step of zero or less omits the "Step N:" prefix.
func (p *Printer) Success(step int, msg string, detail ...string) {
	p.init()

	var b strings.Builder
	b.WriteString(p.st.success.Render(MarkSuccess + " " + stepPrefix(step) + msg))
	b.WriteByte('\n')
	for _, d := range detail {
		b.WriteString(p.render(d))
		b.WriteByte('\n')
	}

	p.write(b.String())
}

// Failure prints "❌ Step N: msg: err".
func (p *Printer) Failure(step int, msg string, err error) {
	p.init()

	line := MarkFailure + " " + stepPrefix(step) + msg
	if err != nil {
		line += ": " + err.Error()
	}

	p.write(p.st.failure.Render(line) + "\n")
}

// Info prints a plain line.
func (p *Printer) Info(line string) {
	p.write(line + "\n")
}

// Presence prints "<Provider> exists: true|false".
func (p *Printer) Presence(pr credentials.Presence) {
	p.Info(pr.String())
}

// Record prints every output of a parallel run in name order. Names are
// padded to a common display width and multi-line values stay aligned.
func (p *Printer) Record(rec chain.Record) {
	p.init()

	names := rec.Names()

	width := 0
	for _, n := range names {
		width = max(width, runewidth.StringWidth(n))
	}

	var b strings.Builder
	for _, n := range names {
		lines := strings.Split(p.render(rec[n]), "\n")
		for i, line := range lines {
			label := runewidth.FillRight("", width)
			if i == 0 {
				label = runewidth.FillRight(n, width)
			}
			b.WriteString(p.st.name.Render(label))
			b.WriteString(p.st.muted.Render(recordSep))
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	p.write(b.String())
}

// render converts markdown to terminal output when enabled. Plain text is
// returned unchanged otherwise, or when rendering fails.
func (p *Printer) render(text string) string {
	if p.mdRend == nil {
		return text
	}

	out, err := p.mdRend.Render(text)
	if err != nil {
		return text
	}

	return strings.Trim(out, "\n")
}

func (p *Printer) write(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, _ = io.WriteString(p.Out, s)
}

func stepPrefix(step int) string {
	if step <= 0 {
		return ""
	}
	return fmt.Sprintf("Step %d: ", step)
}
