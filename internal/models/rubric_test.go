package models

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func awardAll(r ScoringRubric, fraction float64) map[string][]float64 {
	out := make(map[string][]float64, len(r.Categories))
	for _, c := range r.Categories {
		for _, check := range c.Checks {
			out[c.Name] = append(out[c.Name], fraction*float64(check.Points))
		}
	}
	return out
}

func TestDefaultRubric(t *testing.T) {
	r := DefaultRubric()
	require.NoError(t, r.Validate())

	names := make([]string, 0, len(r.Categories))
	for _, c := range r.Categories {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"essentials", "formatting", "keywords", "structure", "content"}, names)

	essentials, ok := r.Category("essentials")
	require.True(t, ok)
	assert.Equal(t, 30, essentials.MaxPoints())

	r.Categories[0].Weight = 0.9
	assert.Equal(t, 0.3, DefaultRubric().Categories[0].Weight, "each call returns a fresh copy")
}

func TestScoringRubric_Score(t *testing.T) {
	r := DefaultRubric()

	t.Run("full and empty marks", func(t *testing.T) {
		full, err := r.Score(awardAll(r, 1))
		require.NoError(t, err)
		assert.Equal(t, 100, full)

		none, err := r.Score(awardAll(r, 0))
		require.NoError(t, err)
		assert.Equal(t, 0, none)
	})

	t.Run("weighted by category", func(t *testing.T) {
		awarded := awardAll(r, 0)
		// Only essentials (weight 0.3 of 1.3) at full marks.
		awarded["essentials"] = []float64{15, 10, 5}

		score, err := r.Score(awarded)
		require.NoError(t, err)
		assert.Equal(t, int(math.Round(100*0.3/1.3)), score)
	})

	t.Run("clamps out-of-range points", func(t *testing.T) {
		awarded := awardAll(r, 1)
		awarded["essentials"] = []float64{99, -4, math.NaN()}

		score, err := r.Score(awarded)
		require.NoError(t, err)
		want := int(math.Round(100 * (0.3*15.0/30 + 1.0) / 1.3))
		assert.Equal(t, want, score)
	})

	t.Run("missing category", func(t *testing.T) {
		awarded := awardAll(r, 1)
		delete(awarded, "content")

		_, err := r.Score(awarded)
		assert.ErrorContains(t, err, `"content"`)
	})

	t.Run("wrong number of checks", func(t *testing.T) {
		awarded := awardAll(r, 1)
		awarded["structure"] = []float64{5}

		_, err := r.Score(awarded)
		assert.ErrorContains(t, err, "want 3")
	})
}

func TestScoringRubric_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ScoringRubric)
		errMsg string
	}{
		{"no categories", func(r *ScoringRubric) { r.Categories = nil }, "no categories"},
		{"negative weight", func(r *ScoringRubric) { r.Categories[1].Weight = -0.1 }, "weight"},
		{"zero points", func(r *ScoringRubric) { r.Categories[2].Checks[0].Points = 0 }, "points must be positive"},
		{"duplicate name", func(r *ScoringRubric) { r.Categories[1].Name = "essentials" }, "duplicate"},
		{"empty checks", func(r *ScoringRubric) { r.Categories[3].Checks = nil }, "no checks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DefaultRubric()
			tt.mutate(&r)
			assert.ErrorContains(t, r.Validate(), tt.errMsg)
		})
	}
}

func TestScoringRubric_MarshalJSON(t *testing.T) {
	raw, err := json.Marshal(DefaultRubric())
	require.NoError(t, err)

	out := string(raw)
	order := []string{`"essentials"`, `"formatting"`, `"keywords"`, `"structure"`, `"content"`}
	last := -1
	for _, key := range order {
		idx := strings.Index(out, key)
		require.Greater(t, idx, last, "%s out of order", key)
		last = idx
	}
	assert.Contains(t, out, `["Name, address, or phone number missing",15]`)
}

func TestNormalize(t *testing.T) {
	report := ScoreReport{ATSScore: 10}
	report.Normalize()
	raw, err := json.Marshal(report)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ats_score": 10, "feedback": {"formatting": [], "keywords": [], "structure": [], "content": []},
		"keywords": {"missing": [], "strong": []}}`, string(raw))

	var fields ExtractedFields
	fields.Normalize()
	raw, err = json.Marshal(fields)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "", "email": "", "phone": "", "address": "", "social_media": {"linkedin": "", "github": ""},
		"skills": [], "experience": [], "education": [], "languages": []}`, string(raw))
}

func TestAnalysisRequest_JobDescription(t *testing.T) {
	assert.False(t, AnalysisRequest{}.HasJobDescription())
	assert.False(t, AnalysisRequest{JobDescription: NoJobDescription}.HasJobDescription())
	assert.Equal(t, NoJobDescription, AnalysisRequest{}.JobDescriptionOrDefault())
	assert.Equal(t, "Go", AnalysisRequest{JobDescription: "Go"}.JobDescriptionOrDefault())
}

func TestRubricCategory_Deducted(t *testing.T) {
	formatting, ok := DefaultRubric().Category("formatting")
	require.True(t, ok)

	assert.False(t, formatting.Deducted([]float64{5, 5, 5, 5}))
	assert.False(t, formatting.Deducted([]float64{5, 5, 5, 9}), "clamped overshoot is not a deduction")
	assert.True(t, formatting.Deducted([]float64{5, 5, 5, 4.5}))
	assert.True(t, formatting.Deducted([]float64{5, 5, 5, -1}))
}

func TestFeedback_Category(t *testing.T) {
	f := Feedback{Structure: []string{"Add a summary"}}

	got, ok := f.Category("structure")
	assert.True(t, ok)
	assert.Equal(t, []string{"Add a summary"}, got)

	_, ok = f.Category("essentials")
	assert.False(t, ok)
}
