package mailer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/config"
)

type sendMailFunc func(addr string, a sasl.Client, from string, to []string, r io.Reader) error

// SMTPSender relays mail through an SMTP submission server. STARTTLS is used
// when the server advertises it.
type SMTPSender struct {
	addr     string
	username string
	password string
	now      func() time.Time
	sendMail sendMailFunc
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		username: cfg.Username,
		password: cfg.Password,
		now:      time.Now,
		sendMail: smtp.SendMail,
	}
}

func (s *SMTPSender) Send(ctx context.Context, subject, body, from, to string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth sasl.Client
	if s.username != "" {
		auth = sasl.NewPlainClient("", s.username, s.password)
	}

	msg := BuildMessage(from, to, subject, body, s.now())
	if err := s.sendMail(s.addr, auth, from, []string{to}, bytes.NewReader(msg)); err != nil {
		return fmt.Errorf("smtp: send to %s: %w", to, err)
	}
	return nil
}
