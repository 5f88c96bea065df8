package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/pactguard/pactguard/internal/domain/notify"
)

// GmailConfig OAuth client plus a long-lived refresh token for the sender.
type GmailConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	Sender       string
}

type Gmail struct {
	svc    *gmail.Service
	sender string
	now    func() time.Time
}

// NewGmail builds the mailer from a refresh token. extra options are
// appended last.
func NewGmail(ctx context.Context, cfg GmailConfig, extra ...option.ClientOption) (*Gmail, error) {
	var opts []option.ClientOption
	if cfg.RefreshToken != "" {
		oc := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{gmail.GmailSendScope},
		}
		token := &oauth2.Token{RefreshToken: cfg.RefreshToken, TokenType: "Bearer"}
		opts = append(opts, option.WithHTTPClient(oauth2.NewClient(ctx, oc.TokenSource(ctx, token))))
	} else if len(extra) == 0 {
		return nil, fmt.Errorf("gmail mailer needs a refresh token: %w", notify.ErrNotConfigured)
	}
	svc, err := gmail.NewService(ctx, append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("unable to create gmail service: %w", err)
	}
	return &Gmail{svc: svc, sender: cfg.Sender, now: time.Now}, nil
}

// Send delivers a plain-text message as the authenticated user.
func (g *Gmail) Send(ctx context.Context, m notify.Message) (string, error) {
	raw := buildRFC822(g.sender, m, g.now())
	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}
	sent, err := g.svc.Users.Messages.Send("me", msg).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gmail send: %w", err)
	}
	return sent.Id, nil
}

func buildRFC822(from string, m notify.Message, now time.Time) []byte {
	var b strings.Builder
	if from != "" {
		fmt.Fprintf(&b, "From: %s\r\n", from)
	}
	fmt.Fprintf(&b, "To: %s\r\n", m.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", m.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	b.WriteString(strings.ReplaceAll(m.Body, "\n", "\r\n"))
	return []byte(b.String())
}
