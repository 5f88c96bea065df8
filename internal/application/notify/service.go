package notify

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/sirupsen/logrus"

	domain "github.com/pactguard/pactguard/internal/domain/notify"
	"github.com/pactguard/pactguard/internal/domain/report"
)

// DefaultSubject used when the request carries none.
const DefaultSubject = "Legal Document Risk Alert - PactGuard Analysis"

const summaryLimit = 500

// Service sends the analysis report email. Mailer nil means email is off.
type Service struct {
	Mailer domain.Mailer
	Log    logrus.FieldLogger
}

// SendCommand body of POST /send-email
type SendCommand struct {
	Recipient    string
	AnalysisText string
	Subject      string
}

// SendResult is returned on success.
type SendResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MessageID string `json:"message_id,omitempty"`
	Recipient string `json:"recipient"`
}

// Send validates the command, renders the report and hands it to the mailer.
func (s *Service) Send(ctx context.Context, cmd SendCommand) (SendResult, error) {
	to := strings.TrimSpace(cmd.Recipient)
	if to == "" {
		return SendResult{}, report.NewValidationError("recipient_email", "Recipient email is required")
	}
	addr, err := mail.ParseAddress(to)
	if err != nil {
		return SendResult{}, report.NewValidationError("recipient_email", "Invalid email address")
	}
	if strings.TrimSpace(cmd.AnalysisText) == "" {
		return SendResult{}, report.NewValidationError("analysis_text", "Analysis text is required")
	}
	if s.Mailer == nil {
		return SendResult{}, domain.ErrNotConfigured
	}

	subject := strings.TrimSpace(cmd.Subject)
	if subject == "" {
		subject = DefaultSubject
	}

	id, err := s.Mailer.Send(ctx, domain.Message{
		To:      addr.Address,
		Subject: subject,
		Body:    RenderBody(cmd.AnalysisText),
	})
	if err != nil {
		return SendResult{}, fmt.Errorf("send email: %w", err)
	}
	if s.Log != nil {
		s.Log.WithFields(logrus.Fields{"message_id": id, "domain": domainOf(addr.Address)}).Info("analysis email sent")
	}
	return SendResult{
		Success:   true,
		Message:   "Legal analysis email sent successfully",
		MessageID: id,
		Recipient: addr.Address,
	}, nil
}

// domainOf keeps the mailbox name out of logs.
func domainOf(addr string) string {
	if i := strings.LastIndexByte(addr, '@'); i >= 0 {
		return addr[i+1:]
	}
	return ""
}

// RenderBody fills the plain-text report template.
func RenderBody(analysisText string) string {
	summary := []rune(strings.TrimSpace(analysisText))
	if len(summary) > summaryLimit {
		summary = summary[:summaryLimit]
	}

	var b strings.Builder
	b.WriteString("LEGAL DOCUMENT RISK ANALYSIS REPORT\n")
	b.WriteString("Generated by PactGuard Legal Assistant\n\n")
	b.WriteString("EXECUTIVE SUMMARY:\n")
	b.WriteString(string(summary))
	b.WriteString("\n\nDETAILED ANALYSIS:\n")
	b.WriteString("Based on our automated legal document analysis, we have identified several key areas of concern " +
		"that require your immediate attention. This report provides a risk assessment with actionable recommendations.\n\n")
	b.WriteString("KEY FINDINGS:\n")
	for _, f := range keyFindings {
		b.WriteString("• " + f + "\n")
	}
	b.WriteString("\nRECOMMENDATIONS:\n")
	for i, r := range emailRecommendations {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r)
	}
	b.WriteString("\nThis analysis was generated automatically from legal risk patterns. " +
		"For critical decisions, please consult with a qualified attorney.\n\n")
	b.WriteString("Best regards,\nPactGuard Legal Assistant\n")
	return b.String()
}

var keyFindings = []string{
	"High-risk clauses identified requiring legal review",
	"Unfavorable terms that may impact your rights and obligations",
	"Potential liability exposure requiring mitigation strategies",
	"Compliance considerations for your review",
}

var emailRecommendations = []string{
	"Schedule immediate legal consultation for high-risk items",
	"Consider negotiating more favorable terms before signing",
	"Implement additional protections where possible",
	"Review insurance coverage for identified risks",
}
