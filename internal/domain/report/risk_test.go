package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabelForLevel(t *testing.T) {
	tests := []struct {
		level int
		want  RiskLabel
	}{
		{-3, LabelLow},
		{0, LabelLow},
		{1, LabelLow},
		{4, LabelLow},
		{5, LabelMedium},
		{6, LabelMedium},
		{7, LabelHigh},
		{8, LabelHigh},
		{9, LabelCritical},
		{10, LabelCritical},
		{42, LabelCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LabelForLevel(tt.level), "level %d", tt.level)
	}
}

func TestLabelForLevelIsMonotonic(t *testing.T) {
	prev := 0
	for level := MinLevel; level <= MaxLevel; level++ {
		rank := LabelForLevel(level).Rank()
		assert.GreaterOrEqual(t, rank, prev, "level %d", level)
		// same input, same label
		assert.Equal(t, LabelForLevel(level), LabelForLevel(level))
		prev = rank
	}
}

func TestNewRiskScoreAgrees(t *testing.T) {
	for level := MinLevel - 2; level <= MaxLevel+2; level++ {
		s := NewRiskScore(level)
		assert.Equal(t, LabelForLevel(s.Level), s.Label)
		assert.Equal(t, ColorForLabel(s.Label), s.Color)
		assert.GreaterOrEqual(t, s.Level, MinLevel)
		assert.LessOrEqual(t, s.Level, MaxLevel)
	}
}

func TestColorForLabel(t *testing.T) {
	assert.Equal(t, "#16a34a", ColorForLabel(LabelLow))
	assert.Equal(t, "#dc2626", ColorForLabel(LabelCritical))
	assert.Equal(t, "#ca8a04", ColorForLabel("Bogus"))
}

func TestSeveritySteps(t *testing.T) {
	assert.Equal(t, SeverityHigh, SeverityCritical.Lower(1))
	assert.Equal(t, SeverityLow, SeverityMedium.Lower(5))
	assert.Equal(t, SeverityMedium, SeverityLow.AtLeast(SeverityMedium))
	assert.Equal(t, SeverityCritical, SeverityCritical.AtLeast(SeverityMedium))
}
