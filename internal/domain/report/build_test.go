package report

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 8, 23, 10, 0, 0, 0, time.UTC)

func TestConstructorsRejectUnknownEnums(t *testing.T) {
	_, err := NewConcern("c1", "t", "d", "severe", CategoryLegal)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "legal_concerns.severity", verr.Field)

	_, err = NewConcern("c1", "t", "d", SeverityLow, "tax")
	require.Error(t, err)

	_, err = NewImpact("Financial", "i", "LOW", "")
	require.Error(t, err)

	_, err = NewRecommendation("r1", "urgent", "a", "r", "now")
	require.Error(t, err)

	c, err := NewConcern("c1", "t", "d", SeverityCritical, CategoryCompliance)
	require.NoError(t, err)
	assert.Equal(t, SeverityCritical, c.Severity)
}

func TestNewAssignsIdentity(t *testing.T) {
	r, err := New(Draft{Level: 7, ExecutiveSummary: "summary"}, fixedNow)
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID())
	assert.Equal(t, fixedNow, r.Timestamp())
	assert.Equal(t, DefaultDocumentType, r.DocumentType())
	assert.Equal(t, LabelHigh, r.RiskScore().Label)

	other, err := New(Draft{Level: 7, ExecutiveSummary: "summary"}, fixedNow)
	require.NoError(t, err)
	assert.NotEqual(t, r.ID(), other.ID())
}

func TestNewRejectsInvalidDraft(t *testing.T) {
	_, err := New(Draft{Level: 3, ExecutiveSummary: "  "}, fixedNow)
	require.Error(t, err)

	_, err = New(Draft{
		Level:            3,
		ExecutiveSummary: "s",
		Recommendations:  []Recommendation{{ID: "r", Priority: "whenever"}},
	}, fixedNow)
	require.Error(t, err)
}

func TestAccessorsReturnCopies(t *testing.T) {
	r, err := New(Draft{
		Level:            5,
		ExecutiveSummary: "s",
		Concerns:         []Concern{{ID: "a", Title: "A", Severity: SeverityLow, Category: CategoryLegal}},
	}, fixedNow)
	require.NoError(t, err)

	cs := r.Concerns()
	cs[0].Title = "changed"
	assert.Equal(t, "A", r.Concerns()[0].Title)
}

func TestJSONRoundTrip(t *testing.T) {
	r, err := New(Draft{
		DocumentType:     "Privacy Policy",
		Level:            8,
		ExecutiveSummary: "s",
		Concerns: []Concern{
			{ID: "a", Title: "A", Severity: SeverityHigh, Category: CategoryCompliance},
			{ID: "a", Title: "A", Severity: SeverityHigh, Category: CategoryCompliance},
		},
		Integration: Integration{Status: StatusSuccess, ExternalCall: true},
	}, fixedNow)
	require.NoError(t, err)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"legal_concerns"`)
	assert.Contains(t, string(data), `"business_impact":[]`)

	var back AnalysisReport
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, r.ID(), back.ID())
	assert.True(t, r.Timestamp().Equal(back.Timestamp()))
	assert.Equal(t, r.RiskScore(), back.RiskScore())
	assert.Len(t, back.Concerns(), 2, "duplicates are kept")
	assert.True(t, back.Integration().ExternalCall)
}

func TestUnmarshalReconcilesLabel(t *testing.T) {
	var r AnalysisReport
	require.NoError(t, json.Unmarshal([]byte(`{"risk_score":{"level":9,"label":"Low"}}`), &r))
	assert.Equal(t, LabelCritical, r.RiskScore().Label)
	assert.Equal(t, "#dc2626", r.RiskScore().Color)
}

func TestUnmarshalClampsOutOfRangeLevel(t *testing.T) {
	var r AnalysisReport
	require.NoError(t, json.Unmarshal([]byte(`{"risk_score":{"level":15,"label":"Low"}}`), &r))
	assert.Equal(t, NewRiskScore(10), r.RiskScore())

	r = AnalysisReport{}
	require.NoError(t, json.Unmarshal([]byte(`{"risk_score":{"level":-3,"label":"Critical"}}`), &r))
	assert.Equal(t, 1, r.RiskScore().Level)
	assert.Equal(t, LabelLow, r.RiskScore().Label)

	r = AnalysisReport{}
	require.NoError(t, json.Unmarshal([]byte(`{"risk_score":{"level":0,"label":"Critical"}}`), &r))
	assert.Equal(t, RiskScore{}, r.RiskScore())
	assert.Equal(t, LegacyMedium, ToLegacy(&r).Summary.OverallRiskLevel)
}

func TestUnmarshalRejectsUnknownSeverity(t *testing.T) {
	var r AnalysisReport
	err := json.Unmarshal([]byte(`{"legal_concerns":[{"id":"x","severity":"extreme"}]}`), &r)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
}
