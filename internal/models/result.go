package models

import "encoding/json"

type AnalyzeResponse struct {
	ExtractedData  *ExtractedFields `json:"extractedData,omitempty"`
	AnalysisResult *ScoreReport     `json:"analysisResult,omitempty"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type RubricResponse struct {
	Version          string          `json:"version"`
	Rubric           ScoringRubric   `json:"rubric"`
	ScoreSchema      json.RawMessage `json:"score_schema"`
	ExtractionSchema json.RawMessage `json:"extraction_schema"`
}

type ChunkResponse struct {
	Chunks     []TextChunk `json:"chunks"`
	TotalChars int         `json:"total_chars"`
}
