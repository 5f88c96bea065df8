package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pactguard/pactguard/internal/domain/document"
	"github.com/pactguard/pactguard/internal/domain/report"
	"github.com/pactguard/pactguard/internal/domain/session"
)

// EmailRequest body of POST /send-email.
type EmailRequest struct {
	RecipientEmail string `json:"recipient_email"`
	AnalysisText   string `json:"analysis_text"`
	Subject        string `json:"subject,omitempty"`
}

// Backend is the analysis service behind the gateway.
type Backend interface {
	Analyze(ctx context.Context, text string) (*report.AnalysisReport, error)
	AnalyzeFile(ctx context.Context, name string, data []byte) (*report.AnalysisReport, error)
	AnalyzeDriveFile(ctx context.Context, fileID string) (*report.AnalysisReport, error)
	SendEmail(ctx context.Context, req EmailRequest) (json.RawMessage, error)
	Health(ctx context.Context) (json.RawMessage, error)
}

// Service validates input, forwards it and keeps the latest report per
// session so the email view can reuse it.
type Service struct {
	Backend  Backend
	Sessions session.Store
	Log      logrus.FieldLogger
}

func (s *Service) Analyze(ctx context.Context, sessionID, text string) (*report.AnalysisReport, error) {
	if strings.TrimSpace(text) == "" {
		return nil, report.NewValidationError("text", "Document text is required")
	}
	rep, err := s.Backend.Analyze(ctx, text)
	if err != nil {
		return nil, err
	}
	s.remember(ctx, sessionID, rep)
	return rep, nil
}

// AnalyzeFile enforces the upload allow-list before anything is forwarded.
func (s *Service) AnalyzeFile(ctx context.Context, sessionID, name string, data []byte) (*report.AnalysisReport, error) {
	if err := document.ValidateUpload(name, int64(len(data))); err != nil {
		return nil, err
	}
	rep, err := s.Backend.AnalyzeFile(ctx, name, data)
	if err != nil {
		return nil, err
	}
	s.remember(ctx, sessionID, rep)
	return rep, nil
}

func (s *Service) AnalyzeDriveFile(ctx context.Context, sessionID, fileID string) (*report.AnalysisReport, error) {
	if strings.TrimSpace(fileID) == "" {
		return nil, report.NewValidationError("file_id", "Google Drive file_id is required")
	}
	rep, err := s.Backend.AnalyzeDriveFile(ctx, strings.TrimSpace(fileID))
	if err != nil {
		return nil, err
	}
	s.remember(ctx, sessionID, rep)
	return rep, nil
}

// SendEmail forwards the request. A blank analysis_text is filled from the
// session's latest report when there is one.
func (s *Service) SendEmail(ctx context.Context, sessionID string, req EmailRequest) (json.RawMessage, error) {
	if strings.TrimSpace(req.RecipientEmail) == "" {
		return nil, report.NewValidationError("recipient_email", "Recipient email is required")
	}
	if strings.TrimSpace(req.AnalysisText) == "" {
		latest, err := s.Latest(ctx, sessionID)
		if err != nil {
			if errors.Is(err, session.ErrEmpty) {
				return nil, report.NewValidationError("analysis_text", "Analysis text is required")
			}
			return nil, err
		}
		req.AnalysisText = EmailText(latest)
	}
	return s.Backend.SendEmail(ctx, req)
}

// Latest returns the report last stored for the session.
func (s *Service) Latest(ctx context.Context, sessionID string) (*report.AnalysisReport, error) {
	if sessionID == "" {
		return nil, session.ErrEmpty
	}
	data, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var rep report.AnalysisReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("decode stored analysis: %w", err)
	}
	return &rep, nil
}

func (s *Service) Health(ctx context.Context) (json.RawMessage, error) {
	return s.Backend.Health(ctx)
}

func (s *Service) remember(ctx context.Context, sessionID string, rep *report.AnalysisReport) {
	if sessionID == "" || s.Sessions == nil {
		return
	}
	data, err := json.Marshal(rep)
	if err == nil {
		err = s.Sessions.Put(ctx, sessionID, data)
	}
	if err != nil && s.Log != nil {
		s.Log.WithError(err).WithField("report_id", rep.ID()).Warn("storing latest analysis")
	}
}

// EmailText flattens a report into the text the email summary quotes.
func EmailText(r *report.AnalysisReport) string {
	var b strings.Builder
	score := r.RiskScore()
	fmt.Fprintf(&b, "%s - Risk level: %s (%d/10)\n", r.DocumentType(), score.Label, score.Level)
	b.WriteString(r.ExecutiveSummary())
	for _, c := range r.Concerns() {
		fmt.Fprintf(&b, "\n- [%s] %s", c.Severity, c.Title)
	}
	return b.String()
}
