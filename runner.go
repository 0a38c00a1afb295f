package fluxo

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/imovia/fluxo/pkg/domain"
	"github.com/imovia/fluxo/pkg/runner"
)

// Runner drives a Run from a line-oriented reader and prints the transcript.
// This allows for easy testing and integration with different frontends (CLI, TUI, etc).
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer
	// System formats system lines; nil prints them prefixed with "* ".
	System func(string) string
	// MaxInputSize is the byte limit for one reply; zero uses runner.DefaultMaxInputSize.
	MaxInputSize int
}

// ContentRenderer transforms bot text before it is written.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// Commands understood by the runner while waiting for input.
const (
	CommandReset = "/reset"
	CommandQuit  = "/sair"
)

// Run starts run and feeds it lines until it reaches a terminal status or input ends.
func (r *Runner) Run(ctx context.Context, run *Run) error {
	if r.Input == nil {
		return errors.New("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return errors.New("output writer must be set (use os.Stdout)")
	}
	lines := bufio.NewScanner(r.Input)
	sanitizer := runner.NewSanitizer(r.MaxInputSize)

	if !r.Headless {
		fmt.Fprintln(r.Output, "--- fluxo (simulador) ---")
	}

	if err := run.Start(ctx); err != nil {
		return err
	}
	printed := r.flush(run, 0)

	for run.Status() == domain.StatusWaitingInput {
		if !r.Headless {
			fmt.Fprint(r.Output, "> ")
		}
		if !lines.Scan() {
			return lines.Err()
		}
		text, err := sanitizer.Clean(SanitizeLine(lines.Text()))
		if err != nil {
			fmt.Fprintln(r.Output, r.system("Entrada rejeitada: "+err.Error()))
			continue
		}

		switch text {
		case CommandQuit:
			return nil
		case CommandReset:
			run.Reset()
			if err := run.Start(ctx); err != nil {
				return err
			}
			printed = r.flush(run, 0)
			continue
		}

		if err := run.SendInput(ctx, text); err != nil {
			return fmt.Errorf("send input: %w", err)
		}
		printed = r.flush(run, printed)
	}

	if run.Status() == domain.StatusError {
		return fmt.Errorf("run failed: %s", run.Err())
	}
	return nil
}

// flush writes transcript entries from index from onward and returns the new length.
func (r *Runner) flush(run *Run, from int) int {
	msgs := run.Messages()
	for _, m := range msgs[min(from, len(msgs)):] {
		switch m.Type {
		case domain.MessageBot:
			text := m.Content
			if r.Renderer != nil {
				if rendered, err := r.Renderer(text); err == nil {
					text = strings.TrimRight(rendered, "\n")
				}
			}
			fmt.Fprintln(r.Output, text)
		case domain.MessageSystem:
			if r.Headless {
				continue
			}
			fmt.Fprintln(r.Output, r.system(m.Content))
		}
	}
	return len(msgs)
}

func (r *Runner) system(text string) string {
	if r.System != nil {
		return r.System(text)
	}
	return "* " + text
}

// SanitizeLine trims the line terminator and surrounding whitespace.
func SanitizeLine(s string) string {
	return strings.TrimSpace(strings.TrimRight(s, "\r\n"))
}
