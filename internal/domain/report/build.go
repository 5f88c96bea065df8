package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewConcern validates severity and category before returning the item.
func NewConcern(id, title, description string, sev Severity, cat Category) (Concern, error) {
	c := Concern{ID: id, Title: title, Description: description, Severity: sev, Category: cat}
	return c, c.validate()
}

func (c Concern) validate() error {
	if !c.Severity.Valid() {
		return NewValidationError("legal_concerns.severity", fmt.Sprintf("unknown severity %q", c.Severity))
	}
	if !c.Category.Valid() {
		return NewValidationError("legal_concerns.category", fmt.Sprintf("unknown category %q", c.Category))
	}
	return nil
}

// NewImpact validates severity before returning the item.
func NewImpact(category, impact string, sev Severity, exposure string) (Impact, error) {
	i := Impact{Category: category, Impact: impact, Severity: sev, FinancialExposure: exposure}
	return i, i.validate()
}

func (i Impact) validate() error {
	if !i.Severity.Valid() {
		return NewValidationError("business_impact.severity", fmt.Sprintf("unknown severity %q", i.Severity))
	}
	return nil
}

// NewRecommendation validates priority before returning the item.
func NewRecommendation(id string, p Priority, action, rationale, timeline string) (Recommendation, error) {
	r := Recommendation{ID: id, Priority: p, Action: action, Rationale: rationale, Timeline: timeline}
	return r, r.validate()
}

func (r Recommendation) validate() error {
	if !r.Priority.Valid() {
		return NewValidationError("recommendations.priority", fmt.Sprintf("unknown priority %q", r.Priority))
	}
	return nil
}

// Draft is the mutable input to New. Level is the only risk input; the
// label and color are derived.
type Draft struct {
	DocumentType     string
	Level            int
	ExecutiveSummary string
	Concerns         []Concern
	Impacts          []Impact
	Recommendations  []Recommendation
	Integration      Integration
}

// New assigns id and timestamp and freezes the draft into a report.
func New(d Draft, now time.Time) (*AnalysisReport, error) {
	if strings.TrimSpace(d.ExecutiveSummary) == "" {
		return nil, NewValidationError("executive_summary", "must not be empty")
	}
	for _, c := range d.Concerns {
		if err := c.validate(); err != nil {
			return nil, err
		}
	}
	for _, i := range d.Impacts {
		if err := i.validate(); err != nil {
			return nil, err
		}
	}
	for _, r := range d.Recommendations {
		if err := r.validate(); err != nil {
			return nil, err
		}
	}
	docType := strings.TrimSpace(d.DocumentType)
	if docType == "" {
		docType = DefaultDocumentType
	}
	return &AnalysisReport{
		id:               ReportID(uuid.New().String()),
		timestamp:        now,
		documentType:     docType,
		riskScore:        NewRiskScore(d.Level),
		executiveSummary: d.ExecutiveSummary,
		concerns:         append([]Concern(nil), d.Concerns...),
		impacts:          append([]Impact(nil), d.Impacts...),
		recommendations:  append([]Recommendation(nil), d.Recommendations...),
		integration:      d.Integration,
	}, nil
}

// DefaultDocumentType label when classification finds nothing
const DefaultDocumentType = "Legal Agreement"

type reportJSON struct {
	ID               ReportID         `json:"id"`
	Timestamp        string           `json:"timestamp"`
	DocumentType     string           `json:"document_type"`
	RiskScore        RiskScore        `json:"risk_score"`
	ExecutiveSummary string           `json:"executive_summary"`
	Concerns         []Concern        `json:"legal_concerns"`
	Impacts          []Impact         `json:"business_impact"`
	Recommendations  []Recommendation `json:"recommendations"`
	Integration      Integration      `json:"integration"`
}

func (r *AnalysisReport) MarshalJSON() ([]byte, error) {
	out := reportJSON{
		ID:               r.id,
		DocumentType:     r.documentType,
		RiskScore:        r.riskScore,
		ExecutiveSummary: r.executiveSummary,
		Concerns:         r.concerns,
		Impacts:          r.impacts,
		Recommendations:  r.recommendations,
		Integration:      r.integration,
	}
	if !r.timestamp.IsZero() {
		out.Timestamp = r.timestamp.Format(time.RFC3339Nano)
	}
	if out.Concerns == nil {
		out.Concerns = []Concern{}
	}
	if out.Impacts == nil {
		out.Impacts = []Impact{}
	}
	if out.Recommendations == nil {
		out.Recommendations = []Recommendation{}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a report received from another service. Missing
// fields stay empty; present enum values must be valid. Any non-zero level
// is clamped and always wins over the label it was sent with; a zero level
// counts as a missing score.
func (r *AnalysisReport) UnmarshalJSON(data []byte) error {
	var in reportJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	for _, c := range in.Concerns {
		if c.Severity != "" && !c.Severity.Valid() {
			return NewValidationError("legal_concerns.severity", fmt.Sprintf("unknown severity %q", c.Severity))
		}
		if c.Category != "" && !c.Category.Valid() {
			return NewValidationError("legal_concerns.category", fmt.Sprintf("unknown category %q", c.Category))
		}
	}
	for _, i := range in.Impacts {
		if i.Severity != "" && !i.Severity.Valid() {
			return NewValidationError("business_impact.severity", fmt.Sprintf("unknown severity %q", i.Severity))
		}
	}
	for _, rec := range in.Recommendations {
		if rec.Priority != "" && !rec.Priority.Valid() {
			return NewValidationError("recommendations.priority", fmt.Sprintf("unknown priority %q", rec.Priority))
		}
	}

	var score RiskScore
	if in.RiskScore.Level != 0 {
		score = NewRiskScore(in.RiskScore.Level)
	}

	var ts time.Time
	if in.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339Nano, in.Timestamp)
		if err != nil {
			return NewValidationError("timestamp", "not an RFC 3339 time")
		}
		ts = parsed
	}

	*r = AnalysisReport{
		id:               in.ID,
		timestamp:        ts,
		documentType:     in.DocumentType,
		riskScore:        score,
		executiveSummary: in.ExecutiveSummary,
		concerns:         in.Concerns,
		impacts:          in.Impacts,
		recommendations:  in.Recommendations,
		integration:      in.Integration,
	}
	return nil
}
