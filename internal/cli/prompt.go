package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

// Prompter asks the user questions on a terminal.
type Prompter struct {
	reader      *bufio.Reader
	writer      io.Writer
	readingLock sync.Mutex
}

// NewPrompter creates a prompter reading from r and writing prompts to w.
func NewPrompter(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{
		reader: bufio.NewReader(r),
		writer: w,
	}
}

// ReadLine reads one trimmed line, returning ErrInputCancelled if ctx ends
// first.
func (p *Prompter) ReadLine(ctx context.Context) (string, error) {
	type result struct {
		err   error
		value string
	}
	resultCh := make(chan result, 1)

	go func() {
		p.readingLock.Lock()
		defer p.readingLock.Unlock()

		value, err := p.reader.ReadString('\n')
		if errors.Is(err, io.EOF) && value != "" {
			err = nil
		}
		resultCh <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res := <-resultCh:
		return strings.TrimSpace(res.value), res.err
	}
}

// Ask prints question and returns the answer.
func (p *Prompter) Ask(ctx context.Context, question string) (string, error) {
	if _, err := fmt.Fprint(p.writer, FormatPrompt(question)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}
	return p.ReadLine(ctx)
}

// Confirm asks a yes/no question. Anything but y or yes is a no.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	answer, err := p.Ask(ctx, question+" [y/N]")
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}

	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
