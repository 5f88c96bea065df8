package report

import (
	"time"
)

// ReportID opaque identifier, assigned once per analysis run
type ReportID string

// Severity enum (per item, lower-cased)
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Valid reports whether s is one of the four severities.
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// Category enum for concerns
type Category string

const (
	CategoryFinancial   Category = "financial"
	CategoryOperational Category = "operational"
	CategoryLegal       Category = "legal"
	CategoryCompliance  Category = "compliance"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryFinancial, CategoryOperational, CategoryLegal, CategoryCompliance:
		return true
	}
	return false
}

// Priority enum for recommendations
type Priority string

const (
	PriorityImmediate Priority = "immediate"
	PriorityHigh      Priority = "high"
	PriorityMedium    Priority = "medium"
	PriorityLow       Priority = "low"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityImmediate, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Concern one risk-bearing clause or theme found in the document
type Concern struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Category    Category `json:"category"`
}

// Impact business impact line
type Impact struct {
	Category          string   `json:"category"`
	Impact            string   `json:"impact"`
	Severity          Severity `json:"severity"`
	FinancialExposure string   `json:"financial_exposure,omitempty"`
}

// Recommendation actionable next step
type Recommendation struct {
	ID        string   `json:"id"`
	Priority  Priority `json:"priority"`
	Action    string   `json:"action"`
	Rationale string   `json:"rationale"`
	Timeline  string   `json:"timeline"`
}

// Integration status of the external collaborator call for this run
type Integration struct {
	Status            string `json:"status"`
	RunID             string `json:"run_id,omitempty"`
	Provider          string `json:"llm_provider,omitempty"`
	AnalysisTimestamp string `json:"analysis_timestamp,omitempty"`
	ExternalCall      bool   `json:"external_call"`
	BillingGenerated  bool   `json:"billing_generated"`
	DriveFileID       string `json:"drive_file_id,omitempty"`
	Source            string `json:"source,omitempty"`
}

// Integration statuses
const (
	StatusSuccess        = "success"
	StatusPartial        = "partial"
	StatusPartialSuccess = "partial_success"
	StatusFallback       = "fallback"
)

// AnalysisReport is the aggregate produced once per analysis request.
// Fields are unexported so id and timestamp cannot change after New;
// the JSON form is produced by MarshalJSON.
type AnalysisReport struct {
	id               ReportID
	timestamp        time.Time
	documentType     string
	riskScore        RiskScore
	executiveSummary string
	concerns         []Concern
	impacts          []Impact
	recommendations  []Recommendation
	integration      Integration
}

func (r *AnalysisReport) ID() ReportID                     { return r.id }
func (r *AnalysisReport) Timestamp() time.Time             { return r.timestamp }
func (r *AnalysisReport) DocumentType() string             { return r.documentType }
func (r *AnalysisReport) RiskScore() RiskScore             { return r.riskScore }
func (r *AnalysisReport) ExecutiveSummary() string         { return r.executiveSummary }
func (r *AnalysisReport) Integration() Integration         { return r.integration }
func (r *AnalysisReport) Concerns() []Concern              { return append([]Concern(nil), r.concerns...) }
func (r *AnalysisReport) Impacts() []Impact                { return append([]Impact(nil), r.impacts...) }
func (r *AnalysisReport) Recommendations() []Recommendation {
	return append([]Recommendation(nil), r.recommendations...)
}
