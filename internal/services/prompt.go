package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jovanglig/aigeniusresume/internal/models"
)

// maxEchoedReply bounds how much of a bad reply is sent back in a reformat prompt.
const maxEchoedReply = 4000

type PromptComposer struct{}

func NewPromptComposer() *PromptComposer {
	return &PromptComposer{}
}

// ComposeScoringPrompt creates the ATS scoring prompt. An empty job
// description is replaced by the "No job description provided" placeholder.
func (pc *PromptComposer) ComposeScoringPrompt(resumeText, jobDescription, rubric, outputSchema string) string {
	jobDescription = strings.TrimSpace(jobDescription)
	if jobDescription == "" {
		jobDescription = models.NoJobDescription
	}

	return fmt.Sprintf(`You are an ATS scoring bot. Analyze the CV and:
1. Evaluate each criterion from the rubric below.
2. Award points PER CHECK, from 0 up to the points listed for that check, and report them in "check_scores" in rubric order.
3. Sum weighted scores for a final 0-100 result in "ats_score".
4. Provide feedback in short and clear bullet points, one list per category. A category with deductions must have at least one entry.
5. If the job description is provided, check for keyword matches and missing skills. Name those skills that seem to be missing or are strong in the CV.

This is the scoring rubric you must follow:
%s

**Rules:**
- NEVER deviate from the rubric.
- Return ONLY one JSON object inside a single fenced block that starts with a line containing `+"```json"+` and ends with a line containing `+"```"+`.
- Always return the response in the following JSON format:

%s

This is the CV text:
%s

Here is the job description text (if provided):
%s
`, rubric, outputSchema, resumeText, jobDescription)
}

// ComposeExtractionPrompt creates the resume field extraction prompt.
func (pc *PromptComposer) ComposeExtractionPrompt(resumeText, outputSchema string) string {
	return fmt.Sprintf(`You are a resume parsing bot. Parse the CV and extract the following fields:
1. Name, email, phone number, address, and social media links (LinkedIn, GitHub)
2. Skills
3. Experience (job title, company name, start and end dates, description)
4. Education (degree, institution name, start and end dates)
5. Languages spoken

**Rules:**
- Do not deviate from the fields specified.
- Never omit a key. Use "" for unknown text and [] for unknown lists.
- Return ONLY one JSON object inside a single fenced block that starts with a line containing `+"```json"+` and ends with a line containing `+"```"+`.
- Always return the response in the following JSON format:

%s

This is the CV text:
%s
`, outputSchema, resumeText)
}

// ComposeReformatPrompt asks the model to restate a reply it got wrong. It is
// used once after a malformed reply.
func (pc *PromptComposer) ComposeReformatPrompt(originalPrompt, badReply, outputSchema string) string {
	runes := []rune(badReply)
	if len(runes) > maxEchoedReply {
		badReply = string(runes[:maxEchoedReply]) + "..."
	}

	return fmt.Sprintf(`Your previous reply could not be read as JSON. Answer the original task again.

**Rules:**
- Reply with nothing but one JSON object inside a single fenced block: a line containing `+"```json"+`, the JSON, then a line containing `+"```"+`.
- No comments, no trailing commas, no text outside the block.
- Use exactly this format:

%s

ORIGINAL TASK:
%s

YOUR PREVIOUS REPLY:
%s
`, outputSchema, originalPrompt, badReply)
}

// RubricJSON renders the rubric as indented JSON in category order.
func RubricJSON(rubric models.ScoringRubric) (string, error) {
	return indentJSON(rubric)
}

// ScoreOutputExample is the scoring skeleton shown to the model. It carries
// check_scores, which never reaches API clients.
func ScoreOutputExample(rubric models.ScoringRubric) (string, error) {
	example := struct {
		models.ScoreReport
		CheckScores checkScoresExample `json:"check_scores"`
	}{
		ScoreReport: models.ScoreReport{
			ATSScore: 85,
			Feedback: models.Feedback{
				Formatting: []string{"Header repetition on multiple pages", "Inconsistent bullet point styles"},
				Keywords:   []string{"Missing: Airflow, Kafka", "Strong coverage of Python/Snowflake"},
				Structure:  []string{"Skills section should be categorized", "Professional summary missing"},
				Content:    []string{"Excellent quantified achievements (e.g., 'reduced latency by 60%')"},
			},
			Keywords: models.KeywordReport{
				Missing: []string{"Airflow", "Kafka", "Data Governance"},
				Strong:  []string{"Python", "dbt", "Snowflake", "Terraform"},
			},
		},
		CheckScores: checkScoresExample(rubric),
	}

	return indentJSON(example)
}

// ExtractionOutputExample is the extraction skeleton shown to the model.
func ExtractionOutputExample() (string, error) {
	example := models.ExtractedFields{
		Skills:     []string{},
		Experience: []models.Experience{{}},
		Education:  []models.Education{{}},
		Languages:  []string{},
	}
	return indentJSON(example)
}

// checkScoresExample renders full marks for every check, keyed by category
// in rubric order.
type checkScoresExample models.ScoringRubric

func (c checkScoresExample) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, category := range c.Categories {
		if i > 0 {
			buf.WriteByte(',')
		}
		points := make([]int, 0, len(category.Checks))
		for _, check := range category.Checks {
			points = append(points, check.Points)
		}
		name, _ := json.Marshal(category.Name)
		values, err := json.Marshal(points)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(values)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func indentJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal prompt JSON: %w", err)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return "", fmt.Errorf("failed to indent prompt JSON: %w", err)
	}
	return out.String(), nil
}
