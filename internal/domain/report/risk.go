package report

// RiskLabel report-level band, ordered Low < Medium < High < Critical
type RiskLabel string

const (
	LabelLow      RiskLabel = "Low"
	LabelMedium   RiskLabel = "Medium"
	LabelHigh     RiskLabel = "High"
	LabelCritical RiskLabel = "Critical"
)

const (
	MinLevel = 1
	MaxLevel = 10
)

// RiskScore level on the 1-10 scale plus its derived label and color.
type RiskScore struct {
	Level int       `json:"level"`
	Label RiskLabel `json:"label"`
	Color string    `json:"color"`
}

// band upper bounds; the mapping is total over 1-10 and monotonic
var bands = []struct {
	upTo  int
	label RiskLabel
	color string
}{
	{4, LabelLow, "#16a34a"},
	{6, LabelMedium, "#ca8a04"},
	{8, LabelHigh, "#ea580c"},
	{10, LabelCritical, "#dc2626"},
}

// ClampLevel forces a level into 1-10.
func ClampLevel(level int) int {
	if level < MinLevel {
		return MinLevel
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// LabelForLevel is the single level -> label mapping used everywhere.
func LabelForLevel(level int) RiskLabel {
	level = ClampLevel(level)
	for _, b := range bands {
		if level <= b.upTo {
			return b.label
		}
	}
	return LabelCritical
}

// ColorForLabel display color for a label, falls back to the Medium color.
func ColorForLabel(label RiskLabel) string {
	for _, b := range bands {
		if b.label == label {
			return b.color
		}
	}
	return "#ca8a04"
}

// NewRiskScore builds a consistent score from a level.
func NewRiskScore(level int) RiskScore {
	level = ClampLevel(level)
	label := LabelForLevel(level)
	return RiskScore{Level: level, Label: label, Color: ColorForLabel(label)}
}

// Rank ordinal of the label, 0 for unknown.
func (l RiskLabel) Rank() int {
	switch l {
	case LabelLow:
		return 1
	case LabelMedium:
		return 2
	case LabelHigh:
		return 3
	case LabelCritical:
		return 4
	}
	return 0
}

// Severity lower-cased item severity matching the label.
func (l RiskLabel) Severity() Severity {
	switch l {
	case LabelCritical:
		return SeverityCritical
	case LabelHigh:
		return SeverityHigh
	case LabelMedium:
		return SeverityMedium
	}
	return SeverityLow
}

// Lower steps a severity down by n, never below low.
func (s Severity) Lower(n int) Severity {
	r := severityRank[s] - n
	if r < 1 {
		r = 1
	}
	for sev, rank := range severityRank {
		if rank == r {
			return sev
		}
	}
	return SeverityLow
}

// AtLeast raises a severity to min when it is below it.
func (s Severity) AtLeast(min Severity) Severity {
	if severityRank[s] < severityRank[min] {
		return min
	}
	return s
}
