package ai

import (
	"context"
	"time"
)

// Analysis is what a collaborator returns for one document.
type Analysis struct {
	// Text is the raw model output, scanned for risk phrases.
	Text string
	// Structured is set when the output parsed as the JSON schema.
	Structured *Structured
	RunID      string
	Provider   string
	At         time.Time
	// External is false for the local fallback; Billable marks calls that
	// are expected to have consumed paid quota.
	External bool
	Billable bool
}

// Structured JSON answer requested by the legal prompt.
type Structured struct {
	RiskScore    int          `json:"risk_score"`
	DocumentType string       `json:"document_type"`
	Summary      string       `json:"summary"`
	Concerns     []RawConcern `json:"concerns"`
}

// RawConcern is unvalidated; enums are checked when the report is built.
type RawConcern struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Category    string `json:"category"`
}

type Client interface {
	Analyze(ctx context.Context, text string) (Analysis, error)
	// Name identifies the variant for health and logs.
	Name() string
}
