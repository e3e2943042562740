package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Style is a terminal text style.
type Style int

const (
	StylePlain Style = iota
	StyleError
	StyleInfo
	StyleWaiting
	StyleSuccess
	StyleBold
)

var styleAttributes = map[Style][]color.Attribute{
	StylePlain:   {color.Reset},
	StyleError:   {color.FgHiRed, color.Bold},
	StyleInfo:    {color.FgCyan},
	StyleWaiting: {color.FgHiBlue},
	StyleSuccess: {color.FgHiGreen},
	StyleBold:    {color.Bold},
}

// Styler writes styled lines to one stream. Styles are applied only when
// the stream is a terminal and colors were not disabled.
type Styler struct {
	out     io.Writer
	enabled bool
	colors  map[Style]*color.Color
}

// NewStyler returns a Styler for out.
func NewStyler(out io.Writer, noColor bool) *Styler {
	s := &Styler{
		out:     out,
		enabled: !noColor && isTerminal(out),
		colors:  make(map[Style]*color.Color, len(styleAttributes)),
	}
	for style, attrs := range styleAttributes {
		c := color.New(attrs...)
		if s.enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		s.colors[style] = c
	}
	return s
}

// Enabled reports whether styles are applied.
func (s *Styler) Enabled() bool {
	return s.enabled
}

// Sprintf formats and styles a string.
func (s *Styler) Sprintf(style Style, format string, a ...interface{}) string {
	c, ok := s.colors[style]
	if !ok {
		return fmt.Sprintf(format, a...)
	}
	return c.Sprintf(format, a...)
}

// Printf writes one styled line.
func (s *Styler) Printf(style Style, format string, a ...interface{}) {
	_, _ = fmt.Fprintln(s.out, s.Sprintf(style, format, a...))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
