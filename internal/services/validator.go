package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/jovanglig/aigeniusresume/internal/models"
	"github.com/jovanglig/aigeniusresume/internal/schemas"
)

// SchemaValidator treats model JSON as untrusted input: it checks the payload
// against the embedded JSON Schema, decodes it into the typed model and runs
// struct-level checks.
type SchemaValidator struct {
	validate *validator.Validate
}

func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// scorePayload is the score reply as the model sends it. ats_score may be
// fractional and check_scores is optional.
type scorePayload struct {
	ATSScore    float64              `json:"ats_score"`
	Feedback    models.Feedback      `json:"feedback"`
	Keywords    models.KeywordReport `json:"keywords"`
	CheckScores map[string][]float64 `json:"check_scores"`
}

// DecodeScore returns the normalized report and the per-check points, which
// are nil when the model sent none.
func (v *SchemaValidator) DecodeScore(payload json.RawMessage) (*models.ScoreReport, map[string][]float64, error) {
	if err := schemas.ValidateJSON(schemas.Score, payload); err != nil {
		return nil, nil, err
	}

	var decoded scorePayload
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, nil, &ValidationError{
			Schema: schemas.Score,
			Errors: []FieldError{{Field: "(root)", Message: err.Error()}},
		}
	}

	report := &models.ScoreReport{
		ATSScore: int(math.Round(decoded.ATSScore)),
		Feedback: decoded.Feedback,
		Keywords: decoded.Keywords,
	}
	report.Normalize()

	if err := v.structCheck(schemas.Score, report); err != nil {
		return nil, nil, err
	}

	return report, decoded.CheckScores, nil
}

// CheckFeedback rejects a report that leaves a feedback list empty for a
// category whose check scores show a deduction. Categories without usable
// check scores are not judged.
func (v *SchemaValidator) CheckFeedback(rubric models.ScoringRubric, report *models.ScoreReport, awarded map[string][]float64) error {
	var out *ValidationError

	for _, c := range rubric.Categories {
		feedback, ok := report.Feedback.Category(c.Name)
		if !ok || len(feedback) > 0 {
			continue
		}
		values, ok := awarded[c.Name]
		if !ok || len(values) != len(c.Checks) || !c.Deducted(values) {
			continue
		}

		if out == nil {
			out = &ValidationError{Schema: schemas.Score}
		}
		out.Errors = append(out.Errors, FieldError{
			Field:   "feedback." + c.Name,
			Message: "must explain the deducted points",
		})
	}

	if out == nil {
		return nil
	}
	return out
}

// DecodeExtraction returns the extracted fields with every key present.
func (v *SchemaValidator) DecodeExtraction(payload json.RawMessage) (*models.ExtractedFields, error) {
	if err := schemas.ValidateJSON(schemas.Extraction, payload); err != nil {
		return nil, err
	}

	var fields models.ExtractedFields
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, &ValidationError{
			Schema: schemas.Extraction,
			Errors: []FieldError{{Field: "(root)", Message: err.Error()}},
		}
	}
	fields.Normalize()

	if err := v.structCheck(schemas.Extraction, &fields); err != nil {
		return nil, err
	}

	return &fields, nil
}

func (v *SchemaValidator) structCheck(schema schemas.Name, s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("struct validation: %w", err)
	}

	out := &ValidationError{Schema: schema}
	for _, fe := range fieldErrs {
		out.Errors = append(out.Errors, FieldError{
			Field:   fe.Namespace(),
			Message: fmt.Sprintf("failed %q check (value %v)", fe.Tag(), fe.Value()),
		})
	}
	return out
}
