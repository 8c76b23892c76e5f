package mailer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/config"
)

func TestBuildMessage(t *testing.T) {
	date := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	msg := string(BuildMessage("news@example.org", "a@x.com", "Привет", "line one\nline two", date))

	assert.Contains(t, msg, "From: news@example.org\r\n")
	assert.Contains(t, msg, "To: a@x.com\r\n")
	assert.Contains(t, msg, "Subject: =?utf-8?q?")
	assert.Contains(t, msg, "Date: Mon, 04 May 2026 10:00:00 +0000\r\n")
	assert.Contains(t, msg, "@example.org>\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nline one\r\nline two\r\n"))
}

func TestSMTPSender_Send(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotAuth sasl.Client
	var gotBody []byte

	s := NewSMTPSender(config.MailConfig{Host: "smtp.example.org", Port: 2525, Username: "u", Password: "p"})
	s.sendMail = func(addr string, a sasl.Client, from string, to []string, r io.Reader) error {
		gotAddr, gotAuth, gotFrom, gotTo = addr, a, from, to
		gotBody, _ = io.ReadAll(r)
		return nil
	}

	err := s.Send(context.Background(), "Hi", "Hello", "news@example.org", "a@x.com")
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.org:2525", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "news@example.org", gotFrom)
	assert.Equal(t, []string{"a@x.com"}, gotTo)
	assert.Contains(t, string(gotBody), "Subject: Hi\r\n")
}

func TestSMTPSender_WrapsError(t *testing.T) {
	s := NewSMTPSender(config.MailConfig{Host: "localhost", Port: 25})
	s.sendMail = func(string, sasl.Client, string, []string, io.Reader) error {
		return errors.New("550 mailbox unavailable")
	}

	err := s.Send(context.Background(), "Hi", "Hello", "news@example.org", "b@x.com")
	assert.EqualError(t, err, "smtp: send to b@x.com: 550 mailbox unavailable")
}

func TestSMTPSender_CancelledContext(t *testing.T) {
	s := NewSMTPSender(config.MailConfig{Host: "localhost", Port: 25})
	s.sendMail = func(string, sasl.Client, string, []string, io.Reader) error {
		t.Fatal("send must not be attempted")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, "Hi", "Hello", "f@x.com", "t@x.com"), context.Canceled)
}

func TestStdoutSender(t *testing.T) {
	var buf bytes.Buffer
	s := &StdoutSender{writer: &buf}

	require.NoError(t, s.Send(context.Background(), "Hi", "Hello", "f@x.com", "t@x.com"))
	assert.Contains(t, buf.String(), "To:      t@x.com")
	assert.Contains(t, buf.String(), "Body:    (5 bytes)")
}

func TestNew_Backends(t *testing.T) {
	s, err := New(config.MailConfig{Backend: "stdout"}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &StdoutSender{}, s)

	s, err = New(config.MailConfig{Backend: "smtp", Host: "h", Port: 25}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, s)

	_, err = New(config.MailConfig{Backend: "fax"}, zerolog.Nop())
	assert.Error(t, err)
}
