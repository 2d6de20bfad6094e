// Package confirm asks the user before destructive actions.
package confirm

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/juju/ansiterm"
)

// LineReader reads one line of input after showing prompt.
type LineReader interface {
	ReadLine(prompt string) (string, error)
}

// Gate prompts for a y/n answer until it gets one.
type Gate struct {
	Reader LineReader

	// Out receives the corrective message for unrecognized answers and
	// read failures.
	Out io.Writer

	// Color highlights the subject in the prompt.
	Color bool
}

// ConfirmDestructive asks whether the database at subject should be dropped.
// Only y, Y, n and N are accepted; anything else asks again. A failed read,
// such as a closed stdin or Ctrl-C, counts as no.
func (g *Gate) ConfirmDestructive(subject string) bool {
	if c, ok := g.Reader.(io.Closer); ok {
		defer c.Close()
	}
	prompt := g.prompt(subject)
	for {
		line, err := g.Reader.ReadLine(prompt)
		if err != nil {
			fmt.Fprintln(g.Out, err)
			return false
		}
		switch response := strings.TrimSpace(line); response {
		case "y", "Y":
			return true
		case "n", "N":
			return false
		default:
			fmt.Fprintf(g.Out, "Response not recognized: %s\nPlease type 'y' or 'n' and press enter.\n", response)
		}
	}
}

func (g *Gate) prompt(subject string) string {
	var buf bytes.Buffer
	w := ansiterm.NewWriter(&buf)
	w.SetColorCapable(g.Color)
	fmt.Fprint(w, "Drop database at ")
	ansiterm.Foreground(ansiterm.Cyan).Fprint(w, subject)
	fmt.Fprint(w, "? (y/n) ")
	return buf.String()
}

// Terminal reads answers from the process streams. On an interactive
// terminal it uses line editing; otherwise lines are read as they come.
// One Terminal holds one reader across prompts so input buffered past the
// first answer is not lost. Use it through a pointer.
type Terminal struct {
	// Stdin and Stdout default to the process streams when nil.
	Stdin  io.ReadCloser
	Stdout io.Writer

	rl *readline.Instance
	br *bufio.Reader
}

func (t *Terminal) interactive() bool {
	if t.Stdin == nil {
		return readline.DefaultIsTerminal()
	}
	f, ok := t.Stdin.(*os.File)
	return ok && readline.IsTerminal(int(f.Fd()))
}

// ReadLine implements LineReader.
func (t *Terminal) ReadLine(prompt string) (string, error) {
	if t.rl == nil && t.br == nil {
		if t.interactive() {
			rl, err := readline.NewEx(&readline.Config{
				Stdin:                  t.Stdin,
				Stdout:                 t.Stdout,
				DisableAutoSaveHistory: true,
			})
			if err != nil {
				return "", err
			}
			t.rl = rl
		} else {
			in := io.Reader(os.Stdin)
			if t.Stdin != nil {
				in = t.Stdin
			}
			t.br = bufio.NewReader(in)
		}
	}

	if t.rl != nil {
		t.rl.SetPrompt(prompt)
		return t.rl.Readline()
	}

	out := io.Writer(os.Stdout)
	if t.Stdout != nil {
		out = t.Stdout
	}
	fmt.Fprint(out, prompt)
	line, err := t.br.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	return strings.TrimRight(line, "\r\n"), err
}

// Close releases the line editor. The next ReadLine starts a fresh one.
func (t *Terminal) Close() error {
	t.br = nil
	if t.rl == nil {
		return nil
	}
	err := t.rl.Close()
	t.rl = nil
	return err
}
