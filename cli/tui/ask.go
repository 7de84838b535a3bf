package tui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Asker asks the user a question and returns a validated answer.
type Asker interface {
	Ask(q Question) (string, error)
}

// NewAsker returns a Bubble Tea asker when in is a terminal and a line
// asker otherwise (pipes, redirected input).
func NewAsker(in *os.File, out io.Writer) Asker {
	if term.IsTerminal(int(in.Fd())) {
		return &terminalAsker{in: in, out: out}
	}
	return NewLineAsker(in, out)
}

type terminalAsker struct {
	in  io.Reader
	out io.Writer
}

func (a *terminalAsker) Ask(q Question) (string, error) {
	return runPrompt(q, a.in, a.out)
}

// LineAsker prompts with plain text lines. It repeats a question until the
// answer validates and reports ErrCancelled when input ends.
type LineAsker struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLineAsker creates a LineAsker reading from in.
func NewLineAsker(in io.Reader, out io.Writer) *LineAsker {
	return &LineAsker{in: bufio.NewReader(in), out: out}
}

// Ask implements Asker.
func (a *LineAsker) Ask(q Question) (string, error) {
	for {
		fmt.Fprintf(a.out, "%s ", q.Title)

		line, readErr := a.in.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return "", readErr
		}
		if errors.Is(readErr, io.EOF) && line == "" {
			fmt.Fprintln(a.out)
			return "", ErrCancelled
		}

		v, err := q.resolve(line)
		if err == nil {
			return v, nil
		}
		fmt.Fprintln(a.out, err.Error())
		if readErr != nil {
			return "", ErrCancelled
		}
	}
}
