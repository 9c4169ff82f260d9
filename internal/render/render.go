// Package render draws playback frames on a terminal with the anchor
// character of every word held in the same column.
package render

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/mgutz/ansi"

	"github.com/example/go-rsvp/internal/rsvp"
	"github.com/example/go-rsvp/internal/session"
)

// DefaultColumn is where the anchor character is drawn. Anchor indexes never
// exceed 4, so any column ≥ 4 keeps every word on screen.
const DefaultColumn = 12

const clearLine = "\r\x1b[2K"

// Option configures a Terminal.
type Option func(*Terminal)

// WithColumn sets the 0-based anchor column.
func WithColumn(col int) Option {
	return func(t *Terminal) { t.column = col }
}

// WithColor enables or disables ANSI colour.
func WithColor(on bool) Option {
	return func(t *Terminal) { t.color = on }
}

// Terminal renders frames on a single, continuously rewritten line.
type Terminal struct {
	w      io.Writer
	column int
	color  bool

	anchorStyle func(string) string
	statusStyle func(string) string
}

// NewTerminal returns a renderer writing to w.
func NewTerminal(w io.Writer, opts ...Option) *Terminal {
	t := &Terminal{
		w:      w,
		column: DefaultColumn,
		color:  true,
	}
	for _, fn := range opts {
		fn(t)
	}

	t.anchorStyle = plain
	t.statusStyle = plain
	if t.color {
		t.anchorStyle = ansi.ColorFunc("red+b")
		t.statusStyle = ansi.ColorFunc("black+h")
	}
	return t
}

// Render implements session.Renderer.
func (t *Terminal) Render(f session.Frame) error {
	line := Line(f.Token, t.column, t.anchorStyle)
	status := t.statusStyle(Status(f))

	end := ""
	if f.State == session.Finished || f.Closed {
		end = "\r\n" // raw-mode terminals do not translate \n
	}

	_, err := fmt.Fprintf(t.w, "%s%s    %s%s", clearLine, line, status, end)
	return err
}

// Line lays out tok so that its anchor character lands on column.
// highlight styles the anchor character.
func Line(tok rsvp.Token, column int, highlight func(string) string) string {
	left, anchor, right := tok.Split()

	pad := column - utf8.RuneCountInString(left)
	if pad < 0 {
		pad = 0
	}

	return strings.Repeat(" ", pad) + left + highlight(anchor) + right
}

// Status summarizes a frame the way the reader HUD does:
// rate, position and playback state.
func Status(f session.Frame) string {
	pos := f.Index + 1
	if pos > f.Total {
		pos = f.Total
	}
	return fmt.Sprintf("%.0f WPM  %d / %d words  %s", f.WPM, pos, f.Total, stateLabel(f.State))
}

func stateLabel(s session.State) string {
	switch s {
	case session.Playing:
		return "Reading"
	case session.Paused:
		return "Paused"
	case session.Settings:
		return "Settings"
	case session.Finished:
		return "Finished"
	default:
		return "Ready"
	}
}

func plain(s string) string { return s }
