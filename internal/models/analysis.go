package models

// NoJobDescription is sent to the model when the user pasted nothing.
const NoJobDescription = "No job description provided"

type AnalysisRequest struct {
	ResumeText     string `json:"resume_text" validate:"required"`
	JobDescription string `json:"job_description,omitempty"`
}

func (r AnalysisRequest) HasJobDescription() bool {
	return r.JobDescription != "" && r.JobDescription != NoJobDescription
}

func (r AnalysisRequest) JobDescriptionOrDefault() string {
	if r.HasJobDescription() {
		return r.JobDescription
	}
	return NoJobDescription
}

type TextChunk struct {
	Content string `json:"content"`
	Order   int    `json:"order"`
}

type ScoreReport struct {
	ATSScore int           `json:"ats_score" validate:"gte=0,lte=100"`
	Feedback Feedback      `json:"feedback"`
	Keywords KeywordReport `json:"keywords"`
}

type Feedback struct {
	Formatting []string `json:"formatting"`
	Keywords   []string `json:"keywords"`
	Structure  []string `json:"structure"`
	Content    []string `json:"content"`
}

// Category returns the feedback list named like a rubric category.
func (f Feedback) Category(name string) ([]string, bool) {
	switch name {
	case "formatting":
		return f.Formatting, true
	case "keywords":
		return f.Keywords, true
	case "structure":
		return f.Structure, true
	case "content":
		return f.Content, true
	}
	return nil, false
}

type KeywordReport struct {
	Missing []string `json:"missing"`
	Strong  []string `json:"strong"`
}

// Normalize replaces nil lists so every key serializes as [].
func (s *ScoreReport) Normalize() {
	s.Feedback.Formatting = nonNil(s.Feedback.Formatting)
	s.Feedback.Keywords = nonNil(s.Feedback.Keywords)
	s.Feedback.Structure = nonNil(s.Feedback.Structure)
	s.Feedback.Content = nonNil(s.Feedback.Content)
	s.Keywords.Missing = nonNil(s.Keywords.Missing)
	s.Keywords.Strong = nonNil(s.Keywords.Strong)
}

type ExtractedFields struct {
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	Phone       string       `json:"phone"`
	Address     string       `json:"address"`
	SocialMedia SocialMedia  `json:"social_media"`
	Skills      []string     `json:"skills"`
	Experience  []Experience `json:"experience" validate:"dive"`
	Education   []Education  `json:"education" validate:"dive"`
	Languages   []string     `json:"languages"`
}

type SocialMedia struct {
	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`
}

type Experience struct {
	JobTitle    string `json:"job_title"`
	CompanyName string `json:"company_name"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description"`
}

type Education struct {
	Degree          string `json:"degree"`
	InstitutionName string `json:"institution_name"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
}

// Normalize fills unknown lists with empty values so no key is ever omitted.
func (f *ExtractedFields) Normalize() {
	f.Skills = nonNil(f.Skills)
	f.Languages = nonNil(f.Languages)
	if f.Experience == nil {
		f.Experience = []Experience{}
	}
	if f.Education == nil {
		f.Education = []Education{}
	}
}

type AnalysisResult struct {
	ScoreReport     *ScoreReport     `json:"analysisResult"`
	ExtractedFields *ExtractedFields `json:"extractedData"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
