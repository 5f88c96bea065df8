package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/pactguard/pactguard/internal/domain/notify"
	"github.com/pactguard/pactguard/internal/domain/report"
)

type recordingMailer struct {
	sent []domain.Message
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, msg domain.Message) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.sent = append(m.sent, msg)
	return "msg-1", nil
}

func TestSendValidation(t *testing.T) {
	svc := &Service{Mailer: &recordingMailer{}}
	cases := []struct {
		name  string
		cmd   SendCommand
		field string
	}{
		{"missing recipient", SendCommand{AnalysisText: "x"}, "recipient_email"},
		{"bad recipient", SendCommand{Recipient: "not-an-email", AnalysisText: "x"}, "recipient_email"},
		{"blank text", SendCommand{Recipient: "a@example.com", AnalysisText: "  "}, "analysis_text"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Send(context.Background(), tc.cmd)
			var verr *report.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestSendWithoutMailer(t *testing.T) {
	svc := &Service{}
	_, err := svc.Send(context.Background(), SendCommand{Recipient: "a@example.com", AnalysisText: "High risk."})
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestSendDefaultsSubject(t *testing.T) {
	m := &recordingMailer{}
	svc := &Service{Mailer: m}

	res, err := svc.Send(context.Background(), SendCommand{
		Recipient:    "Legal Team <legal@example.com>",
		AnalysisText: "Risk level: High. Liability waiver found.",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "msg-1", res.MessageID)
	require.Len(t, m.sent, 1)
	assert.Equal(t, "legal@example.com", m.sent[0].To)
	assert.Equal(t, DefaultSubject, m.sent[0].Subject)
	assert.Contains(t, m.sent[0].Body, "Liability waiver found.")
}

func TestSendMailerError(t *testing.T) {
	svc := &Service{Mailer: &recordingMailer{err: errors.New("smtp 421")}}
	_, err := svc.Send(context.Background(), SendCommand{Recipient: "a@example.com", AnalysisText: "x"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotConfigured)
}

func TestRenderBodyTruncatesSummary(t *testing.T) {
	body := RenderBody(strings.Repeat("é", 800))
	assert.True(t, strings.HasPrefix(body, "LEGAL DOCUMENT RISK ANALYSIS REPORT\n"))
	assert.Contains(t, body, strings.Repeat("é", 500)+"\n")
	assert.NotContains(t, body, strings.Repeat("é", 501))
	assert.Contains(t, body, "KEY FINDINGS:")
	assert.Contains(t, body, "4. Review insurance coverage for identified risks")
}
