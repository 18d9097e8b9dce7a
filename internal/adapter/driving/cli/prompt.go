package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/shilph/art/internal/application"
	"github.com/shilph/art/internal/domain/port/driven"
)

// PasswordReader returns an application.PasswordReader. A preset password
// (from the environment) is used for the first attempt only; later attempts
// and the no-preset case read from the terminal without echo.
func PasswordReader(preset string, tty *os.File, out io.Writer) application.PasswordReader {
	return func(_ context.Context, attempt int) (string, error) {
		if attempt == 1 && preset != "" {
			return preset, nil
		}
		if !term.IsTerminal(int(tty.Fd())) {
			return "", errors.New("master password required: set ART_PASSWORD or run in a terminal")
		}

		if attempt > 1 {
			fmt.Fprintln(out, "Wrong password.")
		}
		fmt.Fprint(out, "Master password: ")
		pw, err := term.ReadPassword(int(tty.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}
}

// Compile-time interface satisfaction check.
var _ driven.Prompter = (*LinePrompter)(nil)

// LinePrompter asks for one-time values on a line-oriented reader.
type LinePrompter struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewLinePrompter creates a LinePrompter reading from in.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

// Prompt prints message and returns the next line without its newline.
func (p *LinePrompter) Prompt(ctx context.Context, message string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprintf(p.out, "%s ", message)

	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
