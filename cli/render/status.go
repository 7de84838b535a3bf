package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Status prints one-line progress and result messages for humans.
// Quiet suppresses Info lines; Success, Warn and Failure always print.
type Status struct {
	out   io.Writer
	quiet bool

	green  *color.Color
	yellow *color.Color
	red    *color.Color
	cyan   *color.Color
}

// NewStatus creates a status printer writing to out.
func NewStatus(out io.Writer, noColor, quiet bool) *Status {
	s := &Status{
		out:    out,
		quiet:  quiet,
		green:  color.New(color.FgHiGreen, color.Bold),
		yellow: color.New(color.FgYellow),
		red:    color.New(color.FgRed, color.Bold),
		cyan:   color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{s.green, s.yellow, s.red, s.cyan} {
		if noColor {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
	}
	return s
}

// Info prints a neutral progress line.
func (s *Status) Info(format string, args ...any) {
	if s.quiet {
		return
	}
	fmt.Fprintf(s.out, format+"\n", args...)
}

// Detail prints a labelled value, e.g. "Estimated size: 11 MB".
func (s *Status) Detail(label, value string) {
	if s.quiet {
		return
	}
	fmt.Fprintf(s.out, "%s %s\n", s.cyan.Sprint(label+":"), value)
}

// Success prints a result line.
func (s *Status) Success(format string, args ...any) {
	fmt.Fprintln(s.out, s.green.Sprint("Success!")+" "+fmt.Sprintf(format, args...))
}

// Warn prints a non-fatal problem.
func (s *Status) Warn(format string, args ...any) {
	fmt.Fprintln(s.out, s.yellow.Sprint("Warning:")+" "+fmt.Sprintf(format, args...))
}

// Failure prints a fatal problem.
func (s *Status) Failure(format string, args ...any) {
	fmt.Fprintln(s.out, s.red.Sprint("Error:")+" "+fmt.Sprintf(format, args...))
}
