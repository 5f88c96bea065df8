package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pactguard/pactguard/internal/application"
	"github.com/pactguard/pactguard/internal/domain/ai"
	"github.com/pactguard/pactguard/internal/domain/document"
	"github.com/pactguard/pactguard/internal/domain/report"
	"github.com/pactguard/pactguard/internal/domain/usage"
)

// Extractor turns an uploaded file into plain text.
type Extractor interface {
	Extract(name string, data []byte) (string, error)
}

// Observer receives one call per finished run.
type Observer interface {
	ObserveAnalysis(source usage.Source, status string, took time.Duration)
}

// Service implements the analysis use-cases. Only AI, Fallback and Parser
// are required; Usage, Source and Metrics may be nil.
type Service struct {
	AI       ai.Client
	Fallback ai.Client
	Usage    usage.Repository
	Source   document.Source
	Parser   Extractor
	Clock    application.Clock
	Log      logrus.FieldLogger
	Metrics  Observer
}

// Upload is one multipart file.
type Upload struct {
	Name string
	Size int64
	Data []byte
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

func (s *Service) log() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}

// AnalyzeText scores pasted text.
func (s *Service) AnalyzeText(ctx context.Context, text string) (*report.AnalysisReport, error) {
	if strings.TrimSpace(text) == "" {
		return nil, report.NewValidationError("text", "Document text is required")
	}
	return s.run(ctx, text, usage.SourceText, report.Integration{})
}

// AnalyzeUpload validates the allow-list first, then parses and scores.
func (s *Service) AnalyzeUpload(ctx context.Context, up Upload) (*report.AnalysisReport, error) {
	if err := document.ValidateUpload(up.Name, up.Size); err != nil {
		return nil, err
	}
	text, err := s.Parser.Extract(up.Name, up.Data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, report.NewValidationError("file", "File appears to be empty or unreadable")
	}
	return s.run(ctx, text, usage.SourceUpload, report.Integration{})
}

// AnalyzeDriveFile fetches the document from the configured source.
func (s *Service) AnalyzeDriveFile(ctx context.Context, fileID string) (*report.AnalysisReport, error) {
	fileID = strings.TrimSpace(fileID)
	if fileID == "" {
		return nil, report.NewValidationError("file_id", "Google Drive file_id is required")
	}
	if s.Source == nil {
		return nil, fmt.Errorf("no document source configured: %w", document.ErrSourceUnavailable)
	}

	doc, err := s.Source.Fetch(ctx, fileID)
	if err != nil {
		return nil, err
	}
	text := doc.Text
	if text == "" {
		if text, err = s.Parser.Extract(doc.Name, doc.Data); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(text) == "" {
		return nil, report.NewValidationError("file_id", "Document is empty or unreadable")
	}
	return s.run(ctx, text, usage.SourceDrive, report.Integration{
		DriveFileID: fileID,
		Source:      s.Source.Name(),
	})
}

func (s *Service) run(ctx context.Context, text string, src usage.Source, base report.Integration) (*report.AnalysisReport, error) {
	start := s.now()
	logger := s.log().WithFields(logrus.Fields{
		"source":       src,
		"collaborator": s.AI.Name(),
		"chars":        len(text),
	})

	status := report.StatusSuccess
	a, err := s.AI.Analyze(ctx, text)
	switch {
	case err != nil:
		// one local attempt, the caller never sees the collaborator error
		logger.WithError(err).Warn("collaborator failed, using local fallback")
		status = report.StatusPartial
		if src == usage.SourceDrive {
			status = report.StatusPartialSuccess
		}
		if a, err = s.Fallback.Analyze(ctx, text); err != nil {
			return nil, fmt.Errorf("local fallback: %w", err)
		}
	case !a.External:
		status = report.StatusFallback
	}

	integ := base
	integ.Status = status
	integ.RunID = a.RunID
	integ.Provider = a.Provider
	integ.ExternalCall = a.External
	integ.BillingGenerated = a.Billable
	if !a.At.IsZero() {
		integ.AnalysisTimestamp = a.At.UTC().Format(time.RFC3339)
	}

	rep, err := report.Score(report.Evidence{
		Text:        text,
		Analysis:    a.Text,
		Findings:    s.findings(logger, a.Structured),
		Integration: integ,
	}, s.now())
	if err != nil {
		return nil, err
	}

	took := s.now().Sub(start)
	score := rep.RiskScore()
	logger.WithFields(logrus.Fields{
		"report_id":  rep.ID(),
		"status":     status,
		"risk_level": score.Level,
		"concerns":   len(rep.Concerns()),
		"took_ms":    took.Milliseconds(),
	}).Info("analysis completed")

	if s.Metrics != nil {
		s.Metrics.ObserveAnalysis(src, status, took)
	}
	s.record(ctx, logger, rep, src, took)
	return rep, nil
}

// findings keeps only structured concerns whose enums are valid.
func (s *Service) findings(logger logrus.FieldLogger, st *ai.Structured) *report.Findings {
	if st == nil {
		return nil
	}
	f := &report.Findings{
		Level:        st.RiskScore,
		DocumentType: st.DocumentType,
		Summary:      st.Summary,
	}
	for i, rc := range st.Concerns {
		c, err := report.NewConcern(
			fmt.Sprintf("ai-risk-%d", i+1),
			rc.Title,
			rc.Description,
			report.Severity(strings.ToLower(strings.TrimSpace(rc.Severity))),
			report.Category(strings.ToLower(strings.TrimSpace(rc.Category))),
		)
		if err != nil {
			logger.WithError(err).WithField("title", rc.Title).Warn("dropping collaborator concern")
			continue
		}
		f.Concerns = append(f.Concerns, c)
	}
	return f
}

func (s *Service) record(ctx context.Context, logger logrus.FieldLogger, rep *report.AnalysisReport, src usage.Source, took time.Duration) {
	if s.Usage == nil {
		return
	}
	integ := rep.Integration()
	score := rep.RiskScore()
	run := &usage.Run{
		ID:           usage.RunID(uuid.NewString()),
		ReportID:     string(rep.ID()),
		Source:       src,
		Status:       integ.Status,
		DocumentType: rep.DocumentType(),
		RiskLevel:    score.Level,
		RiskLabel:    string(score.Label),
		Provider:     integ.Provider,
		ExternalCall: integ.ExternalCall,
		Billable:     integ.BillingGenerated,
		DurationMS:   took.Milliseconds(),
		CreatedAt:    rep.Timestamp(),
	}
	// ledger failures never fail the analysis
	if err := s.Usage.Save(ctx, run); err != nil {
		logger.WithError(err).Error("saving usage run")
	}
}

// ListRuns returns a page of the usage ledger.
func (s *Service) ListRuns(ctx context.Context, page, pageSize int, f usage.Filter) (usage.PaginatedResult, error) {
	if s.Usage == nil {
		return usage.PaginatedResult{}, ErrLedgerDisabled
	}
	return s.Usage.Paginate(ctx, page, pageSize, f)
}

// ErrLedgerDisabled no usage repository is configured.
var ErrLedgerDisabled = errors.New("usage ledger is disabled")

// Status describes the configured variants.
type Status struct {
	Collaborator   string `json:"collaborator"`
	External       bool   `json:"external"`
	BreakerState   string `json:"breaker_state,omitempty"`
	DocumentSource string `json:"document_source,omitempty"`
	UsageLedger    bool   `json:"usage_ledger"`
}

type stateReporter interface{ State() string }

func (s *Service) Status() Status {
	st := Status{
		Collaborator: s.AI.Name(),
		External:     s.AI.Name() != s.Fallback.Name(),
		UsageLedger:  s.Usage != nil,
	}
	if sr, ok := s.AI.(stateReporter); ok {
		st.BreakerState = sr.State()
	}
	if s.Source != nil {
		st.DocumentSource = s.Source.Name()
	}
	return st
}
