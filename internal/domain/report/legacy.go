package report

// LegacyLevel coarse three-level severity used by older consumers.
type LegacyLevel string

const (
	LegacyLow    LegacyLevel = "Low"
	LegacyMedium LegacyLevel = "Medium"
	LegacyHigh   LegacyLevel = "High"
)

// LegacySummary header block of the legacy shape.
type LegacySummary struct {
	DocumentType     string      `json:"documentType"`
	OverallRiskLevel LegacyLevel `json:"overallRiskLevel"`
	KeyConcerns      []string    `json:"keyConcerns"`
	Recommendation   string      `json:"recommendation"`
}

// LegacyItem one card in the legacy shape.
type LegacyItem struct {
	Severity       LegacyLevel `json:"severity"`
	Title          string      `json:"title"`
	Explanation    string      `json:"explanation"`
	OriginalClause string      `json:"originalClause"`
}

// LegacyReport is recomputed from an AnalysisReport on demand and has no
// identity of its own.
type LegacyReport struct {
	Summary            LegacySummary `json:"summary"`
	RedFlags           []LegacyItem  `json:"redFlags"`
	Obligations        []LegacyItem  `json:"obligations"`
	RightsAndDataUsage []LegacyItem  `json:"rightsAndDataUsage"`
}

func legacyFromLabel(l RiskLabel) LegacyLevel {
	switch l {
	case LabelCritical, LabelHigh:
		return LegacyHigh
	case LabelLow:
		return LegacyLow
	}
	return LegacyMedium
}

func legacyFromSeverity(s Severity) LegacyLevel {
	switch s {
	case SeverityCritical, SeverityHigh:
		return LegacyHigh
	case SeverityLow:
		return LegacyLow
	}
	return LegacyMedium
}

func legacyFromPriority(p Priority) LegacyLevel {
	switch p {
	case PriorityImmediate, PriorityHigh:
		return LegacyHigh
	case PriorityLow:
		return LegacyLow
	}
	return LegacyMedium
}

// ToLegacy projects r into the legacy shape. It is total: a nil or partially
// decoded report yields defaults instead of an error.
func ToLegacy(r *AnalysisReport) LegacyReport {
	out := LegacyReport{
		Summary: LegacySummary{
			DocumentType:     DefaultDocumentType,
			OverallRiskLevel: LegacyMedium,
			KeyConcerns:      []string{},
		},
		RedFlags:           []LegacyItem{},
		Obligations:        []LegacyItem{},
		RightsAndDataUsage: []LegacyItem{},
	}
	if r == nil {
		return out
	}

	if r.documentType != "" {
		out.Summary.DocumentType = r.documentType
	}
	if r.riskScore.Label != "" {
		out.Summary.OverallRiskLevel = legacyFromLabel(r.riskScore.Label)
	}
	out.Summary.Recommendation = headlineRecommendation(r)

	for _, c := range r.concerns {
		out.Summary.KeyConcerns = append(out.Summary.KeyConcerns, c.Title)
		if c.Severity != SeverityHigh && c.Severity != SeverityCritical {
			continue
		}
		out.RedFlags = append(out.RedFlags, LegacyItem{
			Severity:    legacyFromSeverity(c.Severity),
			Title:       c.Title,
			Explanation: c.Description,
		})
	}

	for _, rec := range r.recommendations {
		if rec.Priority != PriorityImmediate && rec.Priority != PriorityHigh {
			continue
		}
		out.Obligations = append(out.Obligations, LegacyItem{
			Severity:       legacyFromPriority(rec.Priority),
			Title:          rec.Action,
			Explanation:    rec.Rationale,
			OriginalClause: rec.Timeline,
		})
	}

	for _, i := range r.impacts {
		out.RightsAndDataUsage = append(out.RightsAndDataUsage, LegacyItem{
			Severity:       legacyFromSeverity(i.Severity),
			Title:          i.Category,
			Explanation:    i.Impact,
			OriginalClause: i.FinancialExposure,
		})
	}
	return out
}

// headlineRecommendation picks the first obligation, then the first
// recommendation of any priority, then the executive summary.
func headlineRecommendation(r *AnalysisReport) string {
	for _, rec := range r.recommendations {
		if rec.Priority == PriorityImmediate || rec.Priority == PriorityHigh {
			return rec.Action
		}
	}
	if len(r.recommendations) > 0 {
		return r.recommendations[0].Action
	}
	return r.executiveSummary
}
