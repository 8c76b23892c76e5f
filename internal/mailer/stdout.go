package mailer

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// StdoutSender writes messages to standard output instead of delivering them.
// Intended for development.
type StdoutSender struct {
	mu     sync.Mutex
	writer io.Writer
}

func NewStdoutSender() *StdoutSender {
	return &StdoutSender{writer: os.Stdout}
}

func (s *StdoutSender) Send(_ context.Context, subject, body, from, to string) error {
	var b strings.Builder
	b.WriteString("--- stdout mailer: message ---\n")
	fmt.Fprintf(&b, "From:    %s\n", from)
	fmt.Fprintf(&b, "To:      %s\n", to)
	fmt.Fprintf(&b, "Subject: %s\n", subject)
	fmt.Fprintf(&b, "Body:    (%d bytes)\n", len(body))
	b.WriteString("--- end ---\n")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.writer, b.String()); err != nil {
		return fmt.Errorf("stdout: write: %w", err)
	}
	return nil
}
