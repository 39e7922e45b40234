package testutil

import (
	"context"
	"strings"
	"sync"
)

// FakeCompletion is a scripted completion client. Respond receives the
// prompt and the zero-based call number.
type FakeCompletion struct {
	Respond func(prompt string, call int) (string, error)

	mu      sync.Mutex
	prompts []string
}

func (f *FakeCompletion) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f.mu.Lock()
	call := len(f.prompts)
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	return f.Respond(prompt, call)
}

func (f *FakeCompletion) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *FakeCompletion) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// Fenced wraps a JSON document the way the model is asked to reply.
func Fenced(payload string) string {
	return "Here is the analysis:\n```json\n" + strings.TrimSpace(payload) + "\n```\n"
}

const ScorePayload = `{
  "ats_score": 85,
  "feedback": {
    "formatting": ["Bullet points exceed 300 characters in the experience section"],
    "keywords": ["Add orchestration tools named in the job description"],
    "structure": [],
    "content": ["Quantify the impact of the migration project"]
  },
  "keywords": {
    "missing": ["Airflow", "Kafka", "Data Governance"],
    "strong": ["Python", "dbt", "Snowflake", "Terraform"]
  }
}`

const ExtractionPayload = `{
  "name": "Jane Doe",
  "email": "jane@example.com",
  "phone": "+1 555 0100",
  "address": "Berlin, Germany",
  "social_media": {"linkedin": "linkedin.com/in/janedoe", "github": "github.com/janedoe"},
  "skills": ["Python", "React", "AWS"],
  "experience": [
    {"job_title": "Data Engineer", "company_name": "Acme", "start_date": "2021-01", "end_date": "Present", "description": "Built pipelines"}
  ],
  "education": [
    {"degree": "BSc Computer Science", "institution_name": "TU Berlin", "start_date": "2016", "end_date": "2020"}
  ],
  "languages": ["English", "German"]
}`

// RouteByPrompt answers extraction prompts with extraction and everything
// else with score.
func RouteByPrompt(score, extraction string) func(prompt string, call int) (string, error) {
	return func(prompt string, _ int) (string, error) {
		if IsExtractionPrompt(prompt) {
			return extraction, nil
		}
		return score, nil
	}
}

// IsExtractionPrompt matches both the extraction prompt and its reformat
// follow-up, which are the only prompts carrying the extraction skeleton.
func IsExtractionPrompt(prompt string) bool {
	return strings.Contains(prompt, `"institution_name"`)
}
