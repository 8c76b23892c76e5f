package mailer

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/config"
)

// Sender delivers one plain-text email. The sender address is chosen by the
// caller from configuration.
type Sender interface {
	Send(ctx context.Context, subject, body, from, to string) error
}

// New builds the Sender selected by cfg.Backend.
func New(cfg config.MailConfig, log zerolog.Logger) (Sender, error) {
	switch cfg.Backend {
	case "smtp":
		log.Info().Str("host", cfg.Host).Int("port", cfg.Port).Msg("using smtp mail backend")
		return NewSMTPSender(cfg), nil
	case "stdout":
		log.Info().Msg("using stdout mail backend")
		return NewStdoutSender(), nil
	default:
		return nil, fmt.Errorf("unsupported mail backend: %s", cfg.Backend)
	}
}

// BuildMessage renders an RFC 5322 message with CRLF line endings.
func BuildMessage(from, to, subject, body string, date time.Time) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", date.Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Message-ID: <%s@%s>\r\n", uuid.New().String(), domainOf(from))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")

	body = strings.ReplaceAll(body, "\r\n", "\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return b.Bytes()
}

func domainOf(addr string) string {
	addr = strings.TrimSuffix(addr, ">")
	if i := strings.LastIndex(addr, "@"); i >= 0 && i < len(addr)-1 {
		return addr[i+1:]
	}
	return "localhost"
}
