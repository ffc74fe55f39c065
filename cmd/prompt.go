package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// prompter asks questions on a command's input. All prompts of one run share the
// same reader, so piped answers are read line by line.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
	tty bool
}

func newPrompter(cmd *cobra.Command) *prompter {
	p := &prompter{
		in:  bufio.NewReader(cmd.InOrStdin()),
		out: cmd.OutOrStdout(),
	}
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
		p.tty = true
	}
	return p
}

// line reads one line. A last line without a trailing newline still counts.
func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("Failed to read %s: %w", promptName(label), err)
	}
	return strings.TrimSpace(line), nil
}

// secret reads a line without echo when the input is a terminal.
func (p *prompter) secret(label string) (string, error) {
	if !p.tty {
		return p.line(label)
	}

	fmt.Fprint(p.out, label)
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("Failed to read %s: %w", promptName(label), err)
	}
	return strings.TrimSpace(string(b)), nil
}

func promptName(label string) string {
	return strings.TrimSuffix(strings.ToLower(label), ": ")
}
