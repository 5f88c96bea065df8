package report

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Evidence input to the heuristic scorer.
type Evidence struct {
	// Text is the raw document text. Required.
	Text string
	// Analysis is the collaborator's free-text output, empty when the
	// collaborator was not called or failed.
	Analysis string
	// Findings are structured hints parsed from the collaborator output.
	Findings    *Findings
	Integration Integration
}

// Findings structured collaborator output already checked against the enums.
type Findings struct {
	Level        int
	DocumentType string
	Summary      string
	Concerns     []Concern
}

// DefaultLevel is used when no risk phrase matches. It sits in the lowest band.
const DefaultLevel = 3

// riskBands evaluated most severe first; first match wins.
var riskBands = []struct {
	level   int
	phrases []string
}{
	{9, []string{"extremely high", "critical risk", "unacceptable"}},
	{7, []string{"high risk", "9/10", "8/10"}},
	{5, []string{"medium risk", "moderate risk", "7/10", "6/10", "5/10"}},
}

// BandLevel keyword level of a text.
func BandLevel(text string) int {
	lower := strings.ToLower(text)
	for _, b := range riskBands {
		for _, p := range b.phrases {
			if strings.Contains(lower, p) {
				return b.level
			}
		}
	}
	return DefaultLevel
}

var explicitScoreRx = []*regexp.Regexp{
	regexp.MustCompile(`risk score[:\s]*(\d{1,2})(?:\s*/\s*10)?`),
	regexp.MustCompile(`overall[^:\n]*:[^\d\n]*(\d{1,2})\s*/\s*10`),
}

// ExplicitLevel extracts "risk score: N" or "overall ...: N/10" from
// collaborator output.
func ExplicitLevel(analysis string) (int, bool) {
	lower := strings.ToLower(analysis)
	for _, rx := range explicitScoreRx {
		m := rx.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return ClampLevel(n), true
	}
	return 0, false
}

type concernRule struct {
	id          string
	title       string
	description string
	keywords    []string
	category    Category
	primary     bool
}

var concernRules = []concernRule{
	{"liability", "Liability Waiver Concerns", "Document contains broad liability limitations that may restrict legal recourse",
		[]string{"liabilit", "liable"}, CategoryLegal, true},
	{"warranty", "Warranty Disclaimer", "Warranties are disclaimed, leaving little remedy if the product or service fails",
		[]string{"warrant", "as is", "as-is"}, CategoryLegal, true},
	{"indemnity", "Indemnification Exposure", "One party must cover the other's losses, costs or legal fees",
		[]string{"indemnif", "hold harmless"}, CategoryFinancial, true},
	{"privacy", "Data Privacy Issues", "Unclear or concerning data collection and usage provisions",
		[]string{"privacy", "personal data", "personal information", "data collection", "collect data", "your data"}, CategoryCompliance, false},
	{"termination", "Termination Clause Risk", "Unbalanced termination rights that may favor the counterparty",
		[]string{"terminat"}, CategoryOperational, false},
	{"renewal", "Automatic Renewal", "The agreement renews automatically unless cancelled within a notice window",
		[]string{"auto-renew", "automatically renew", "automatic renewal"}, CategoryOperational, false},
	{"fees", "Penalties and Fees", "Penalty, late fee or non-refundable payment terms increase cost exposure",
		[]string{"penalt", "late fee", "liquidated damages", "non-refundable"}, CategoryFinancial, false},
	{"dispute", "Dispute Resolution Limits", "Arbitration or waiver terms limit the ability to go to court",
		[]string{"arbitration", "class action", "jury trial"}, CategoryLegal, false},
	{"ip", "Intellectual Property Transfer", "Rights to work product or content may be assigned or licensed away",
		[]string{"intellectual property", "assign all rights", "perpetual license", "irrevocable"}, CategoryLegal, false},
}

var documentTypes = []struct {
	label    string
	keywords []string
}{
	{"Terms of Service", []string{"terms of service", "terms of use", "user agreement"}},
	{"Privacy Policy", []string{"privacy policy", "privacy notice"}},
	{"Employment Contract", []string{"employment agreement", "employment contract"}},
	{"Software License Agreement", []string{"software license", "license agreement", "mit license", "apache license", "licensee"}},
	{"Non-Disclosure Agreement", []string{"non-disclosure", "nondisclosure", "confidentiality agreement"}},
}

// ClassifyDocument returns the document type label or DefaultDocumentType.
func ClassifyDocument(text string) string {
	lower := strings.ToLower(text)
	for _, dt := range documentTypes {
		for _, k := range dt.keywords {
			if strings.Contains(lower, k) {
				return dt.label
			}
		}
	}
	return DefaultDocumentType
}

// Score builds a report from local heuristics plus whatever the
// collaborator contributed. It never performs I/O.
func Score(ev Evidence, now time.Time) (*AnalysisReport, error) {
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return nil, NewValidationError("text", "Document text is required")
	}
	normalized := strings.Join(strings.Fields(text), " ")
	words := len(strings.Fields(normalized))

	// The document's own band is a floor: collaborator output can raise
	// the level but never pull it below what the text itself says.
	level := BandLevel(normalized)
	if ev.Analysis != "" {
		collab, ok := ExplicitLevel(ev.Analysis)
		if !ok {
			collab = BandLevel(ev.Analysis)
		}
		level = max(level, collab)
	}
	if ev.Findings != nil && ev.Findings.Level >= MinLevel {
		level = max(level, ClampLevel(ev.Findings.Level))
	}
	label := LabelForLevel(level)

	docType := ClassifyDocument(normalized)
	if ev.Findings != nil && strings.TrimSpace(ev.Findings.DocumentType) != "" {
		docType = strings.TrimSpace(ev.Findings.DocumentType)
	}

	concerns := deriveConcerns(strings.ToLower(normalized+"\n"+ev.Analysis), label)
	if ev.Findings != nil {
		concerns = append(concerns, ev.Findings.Concerns...)
	}

	summary := executiveSummary(ev, docType, label, words, len(concerns))

	return New(Draft{
		DocumentType:     docType,
		Level:            level,
		ExecutiveSummary: summary,
		Concerns:         concerns,
		Impacts:          impactsFor(label),
		Recommendations:  recommendationsFor(label),
		Integration:      ev.Integration,
	}, now)
}

func deriveConcerns(lower string, label RiskLabel) []Concern {
	band := label.Severity()
	var out []Concern
	for _, r := range concernRules {
		if !containsAny(lower, r.keywords) {
			continue
		}
		sev := band.Lower(1)
		if r.primary {
			sev = band.AtLeast(SeverityMedium)
		}
		out = append(out, Concern{
			ID:          fmt.Sprintf("%s-risk-%d", r.id, len(out)+1),
			Title:       r.title,
			Description: r.description,
			Severity:    sev,
			Category:    r.category,
		})
	}
	if len(out) == 0 {
		out = append(out, Concern{
			ID:          "general-risk-1",
			Title:       "Contract Analysis Required",
			Description: "No specific risk clause was recognised; a detailed legal review is still advised",
			Severity:    band,
			Category:    CategoryLegal,
		})
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func executiveSummary(ev Evidence, docType string, label RiskLabel, words, concerns int) string {
	readMins := max(1, words/200)
	if ev.Findings != nil && strings.TrimSpace(ev.Findings.Summary) != "" {
		return fmt.Sprintf("%s Risk level: %s.", strings.TrimSpace(ev.Findings.Summary), label)
	}
	head := fmt.Sprintf("%s reviewed (%d words, about %d min read). Risk level: %s.", docType, words, readMins, label)
	if a := strings.TrimSpace(ev.Analysis); a != "" {
		return head + " Key findings from AI analysis: " + excerpt(a, 200)
	}
	return head + fmt.Sprintf(" Assessment produced by local heuristic review; %d concern(s) identified.", concerns)
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

var impactTemplates = map[RiskLabel][]Impact{
	LabelCritical: {
		{Category: "Financial Risk", Impact: "Potential significant financial exposure from unfavorable terms", Severity: SeverityCritical, FinancialExposure: "High - uncapped liability or disclaimed remedies"},
		{Category: "Legal Compliance", Impact: "Regulatory and legal compliance risks require attention", Severity: SeverityHigh, FinancialExposure: "Variable based on jurisdiction"},
		{Category: "Operational Continuity", Impact: "Termination or service changes could disrupt operations without recourse", Severity: SeverityHigh},
	},
	LabelHigh: {
		{Category: "Financial Risk", Impact: "Material financial exposure if key clauses are enforced", Severity: SeverityHigh, FinancialExposure: "Moderate to high - depends on contract value"},
		{Category: "Legal Compliance", Impact: "Regulatory and legal compliance risks require attention", Severity: SeverityMedium, FinancialExposure: "Variable based on jurisdiction"},
		{Category: "Operational Continuity", Impact: "Termination or service changes could disrupt operations", Severity: SeverityMedium},
	},
	LabelMedium: {
		{Category: "Financial Risk", Impact: "Limited financial exposure under typical use", Severity: SeverityMedium, FinancialExposure: "Variable based on contract value"},
		{Category: "Legal Compliance", Impact: "Some terms should be checked against local regulations", Severity: SeverityLow},
	},
	LabelLow: {
		{Category: "Financial Risk", Impact: "No unusual financial exposure identified", Severity: SeverityLow},
		{Category: "Legal Compliance", Impact: "Terms appear consistent with common practice", Severity: SeverityLow},
	},
}

var recommendationTemplates = map[RiskLabel][]Recommendation{
	LabelCritical: {
		{ID: "rec-1", Priority: PriorityImmediate, Action: "Do not sign until counsel has reviewed the flagged clauses", Rationale: "Current terms create excessive risk exposure", Timeline: "Before contract execution"},
		{ID: "rec-2", Priority: PriorityImmediate, Action: "Negotiate improved liability and indemnification terms", Rationale: "Shift unbounded risk back to a negotiated cap", Timeline: "Before contract execution"},
		{ID: "rec-3", Priority: PriorityHigh, Action: "Clarify intellectual property ownership and usage rights", Rationale: "Protect valuable IP assets and prevent unintended transfers", Timeline: "Before contract execution"},
	},
	LabelHigh: {
		{ID: "rec-1", Priority: PriorityHigh, Action: "Negotiate improved liability and indemnification terms", Rationale: "Current terms create elevated risk exposure", Timeline: "Before contract execution"},
		{ID: "rec-2", Priority: PriorityHigh, Action: "Clarify intellectual property ownership and usage rights", Rationale: "Protect valuable IP assets and prevent unintended transfers", Timeline: "Before contract execution"},
		{ID: "rec-3", Priority: PriorityMedium, Action: "Confirm insurance coverage for the identified risks", Rationale: "Coverage gaps turn contract risk into direct cost", Timeline: "Within 30 days"},
	},
	LabelMedium: {
		{ID: "rec-1", Priority: PriorityMedium, Action: "Review the flagged clauses with the business owner", Rationale: "Some terms deviate from standard practice", Timeline: "Within 2 weeks"},
		{ID: "rec-2", Priority: PriorityLow, Action: "Track renewal and notice dates", Rationale: "Missed deadlines are the most common source of avoidable cost", Timeline: "Ongoing"},
	},
	LabelLow: {
		{ID: "rec-1", Priority: PriorityLow, Action: "Proceed with standard review and keep a signed copy on file", Rationale: "No elevated risk language was found", Timeline: "Standard review cycle"},
	},
}

func impactsFor(label RiskLabel) []Impact {
	return append([]Impact(nil), impactTemplates[label]...)
}

func recommendationsFor(label RiskLabel) []Recommendation {
	return append([]Recommendation(nil), recommendationTemplates[label]...)
}
