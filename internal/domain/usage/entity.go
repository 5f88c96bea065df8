package usage

import (
	"time"
)

// RunID identifier of one analysis run
type RunID string

// Source enum
type Source string

const (
	SourceText   Source = "text"
	SourceUpload Source = "upload"
	SourceDrive  Source = "drive"
)

// Run is the metadata kept for one analysis. The document text and the
// report body are never stored.
type Run struct {
	ID           RunID     `json:"id"`
	ReportID     string    `json:"report_id"`
	Source       Source    `json:"source"`
	Status       string    `json:"status"`
	DocumentType string    `json:"document_type"`
	RiskLevel    int       `json:"risk_level"`
	RiskLabel    string    `json:"risk_label"`
	Provider     string    `json:"provider,omitempty"`
	ExternalCall bool      `json:"external_call"`
	Billable     bool      `json:"billable"`
	DurationMS   int64     `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// Filter narrows a page; empty fields match everything.
type Filter struct {
	Source Source
	Status string
}
