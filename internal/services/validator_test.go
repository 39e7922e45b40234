package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jovanglig/aigeniusresume/internal/models"
	"github.com/jovanglig/aigeniusresume/internal/schemas"
	"github.com/jovanglig/aigeniusresume/internal/testutil"
)

func TestSchemaValidator_DecodeScore(t *testing.T) {
	v := NewSchemaValidator()

	t.Run("canonical payload", func(t *testing.T) {
		report, checks, err := v.DecodeScore(json.RawMessage(testutil.ScorePayload))
		require.NoError(t, err)

		assert.Equal(t, 85, report.ATSScore)
		assert.Equal(t, []string{"Airflow", "Kafka", "Data Governance"}, report.Keywords.Missing)
		assert.Equal(t, []string{}, report.Feedback.Structure)
		assert.Nil(t, checks)
	})

	t.Run("fractional score and check scores", func(t *testing.T) {
		payload := `{"ats_score": 72.6, "feedback": {"formatting": ["x"]}, "keywords": {"missing": [], "strong": []},
			"check_scores": {"essentials": [15, 10, 0]}}`

		report, checks, err := v.DecodeScore(json.RawMessage(payload))
		require.NoError(t, err)

		assert.Equal(t, 73, report.ATSScore)
		assert.Equal(t, []float64{15, 10, 0}, checks["essentials"])
		assert.Equal(t, []string{}, report.Feedback.Content, "missing feedback lists become empty")
	})

	t.Run("missing keywords object", func(t *testing.T) {
		_, _, err := v.DecodeScore(json.RawMessage(`{"ats_score": 50, "feedback": {}}`))

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, schemas.Score, validationErr.Schema)
		assert.Equal(t, KindValidation, ErrorKind(err))
	})

	t.Run("score out of range", func(t *testing.T) {
		_, _, err := v.DecodeScore(json.RawMessage(`{"ats_score": -3, "feedback": {}, "keywords": {"missing": [], "strong": []}}`))
		assert.Equal(t, KindValidation, ErrorKind(err))
	})
}

func TestSchemaValidator_CheckFeedback(t *testing.T) {
	v := NewSchemaValidator()
	rubric := models.DefaultRubric()

	full := map[string][]float64{}
	for _, c := range rubric.Categories {
		for _, check := range c.Checks {
			full[c.Name] = append(full[c.Name], float64(check.Points))
		}
	}
	with := func(name string, values []float64) map[string][]float64 {
		out := map[string][]float64{}
		for k, values := range full {
			out[k] = values
		}
		out[name] = values
		return out
	}
	empty := &models.ScoreReport{}
	empty.Normalize()

	tests := []struct {
		name    string
		report  *models.ScoreReport
		awarded map[string][]float64
		fields  []string
	}{
		{name: "no check scores", report: empty},
		{name: "full marks", report: empty, awarded: full},
		{
			name:    "deduction without feedback",
			report:  empty,
			awarded: with("formatting", make([]float64, len(full["formatting"]))),
			fields:  []string{"feedback.formatting"},
		},
		{
			name:    "deduction with feedback",
			report:  &models.ScoreReport{Feedback: models.Feedback{Content: []string{"Quantify results"}}},
			awarded: with("content", make([]float64, len(full["content"]))),
		},
		{
			name:    "points above maximum are clamped",
			report:  empty,
			awarded: with("structure", []float64{99, 99, 99}),
		},
		{
			name:    "essentials has no feedback list",
			report:  empty,
			awarded: with("essentials", make([]float64, len(full["essentials"]))),
		},
		{
			name:    "wrong check count is not judged",
			report:  empty,
			awarded: with("keywords", []float64{0}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.CheckFeedback(rubric, tt.report, tt.awarded)
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, schemas.Score, validationErr.Schema)
			var fields []string
			for _, fe := range validationErr.Errors {
				fields = append(fields, fe.Field)
			}
			assert.Equal(t, tt.fields, fields)
			assert.Equal(t, KindValidation, ErrorKind(err))
		})
	}
}

func TestSchemaValidator_DecodeExtraction(t *testing.T) {
	v := NewSchemaValidator()

	t.Run("full record", func(t *testing.T) {
		fields, err := v.DecodeExtraction(json.RawMessage(testutil.ExtractionPayload))
		require.NoError(t, err)

		assert.Equal(t, "Jane Doe", fields.Name)
		assert.Equal(t, "github.com/janedoe", fields.SocialMedia.GitHub)
		require.Len(t, fields.Experience, 1)
		assert.Equal(t, "Acme", fields.Experience[0].CompanyName)
		assert.Equal(t, "TU Berlin", fields.Education[0].InstitutionName)
	})

	t.Run("nulls become empty values and every key serializes", func(t *testing.T) {
		fields, err := v.DecodeExtraction(json.RawMessage(`{"name": null, "skills": null, "experience": null, "education": null}`))
		require.NoError(t, err)

		out, err := json.Marshal(fields)
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(out, &decoded))
		assert.Len(t, decoded, 9)
		assert.Equal(t, "", decoded["name"])
		assert.Equal(t, []any{}, decoded["skills"])
		assert.Equal(t, []any{}, decoded["experience"])
		assert.Equal(t, map[string]any{"linkedin": "", "github": ""}, decoded["social_media"])
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := v.DecodeExtraction(json.RawMessage(`{"name": "x", "skills": "Python", "experience": [], "education": []}`))
		assert.Equal(t, KindValidation, ErrorKind(err))
	})
}
