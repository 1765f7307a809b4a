// Package interactive provides interactive prompts for user confirmation.
package interactive

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/adamancini/sidecar/internal/update"
)

// Response represents the user's response to a prompt.
type Response int

const (
	ResponseYes Response = iota // Proceed
	ResponseNo                  // Decline
)

// Prompter handles interactive confirmation prompts.
type Prompter struct {
	out     io.Writer
	scanner *bufio.Scanner
}

// NewPrompter creates a prompter with stdin and stderr, keeping stdout free
// for command output.
func NewPrompter() *Prompter {
	return NewPrompterWithIO(os.Stdin, os.Stderr)
}

// NewPrompterWithIO creates a prompter with custom input/output (for testing).
func NewPrompterWithIO(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		out:     out,
		scanner: bufio.NewScanner(in),
	}
}

// IsTerminal checks if stdin is a terminal (TTY).
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// prompt displays a question and reads a yes/no answer. Anything other
// than yes, including EOF, is no.
func (p *Prompter) prompt(format string, args ...interface{}) Response {
	_, _ = fmt.Fprintf(p.out, format, args...)
	_, _ = fmt.Fprint(p.out, " [y/N] ")

	if !p.scanner.Scan() {
		_, _ = fmt.Fprintln(p.out)
		return ResponseNo
	}

	switch strings.ToLower(strings.TrimSpace(p.scanner.Text())) {
	case "y", "yes":
		return ResponseYes
	default:
		return ResponseNo
	}
}

// Confirm asks a yes/no question defaulting to no.
func (p *Prompter) Confirm(question string) bool {
	return p.prompt("%s", question) == ResponseYes
}

// Permit asks whether to install release over the current version. Its
// signature matches update.PermitFunc.
func (p *Prompter) Permit(ctx context.Context, current string, release *update.Release) bool {
	if ctx.Err() != nil {
		return false
	}
	return p.Confirm(fmt.Sprintf("Install %s (installed: %s)?", release.TagName, current))
}
