package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jovanglig/aigeniusresume/internal/config"
	"github.com/jovanglig/aigeniusresume/internal/models"
)

type AnalysisOrchestrator interface {
	// Analyze runs scoring and extraction concurrently. Either failure fails
	// the whole call.
	Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error)
	// AnalyzeDocument extracts text from an uploaded document and analyzes it.
	AnalyzeDocument(ctx context.Context, data []byte, mimeType, jobDescription string) (*models.AnalysisResult, error)
	Score(ctx context.Context, req models.AnalysisRequest) (*models.ScoreReport, error)
	Extract(ctx context.Context, resumeText string) (*models.ExtractedFields, error)
	// ScoringPrompt returns the prompt Score would send, without sending it.
	ScoringPrompt(req models.AnalysisRequest) (string, error)
}

// OrchestratorDeps are the collaborators of the analysis pipeline. Only
// Completion is required; the rest fall back to the built-in implementations.
type OrchestratorDeps struct {
	Completion CompletionClient
	Documents  DocumentExtractor
	Chunker    TextChunker
	Prompts    *PromptComposer
	Responses  ResponseExtractor
	Validator  *SchemaValidator
	Rubric     *models.ScoringRubric
	Chunking   config.ChunkingConfig
}

type analysisOrchestrator struct {
	completion CompletionClient
	documents  DocumentExtractor
	chunker    TextChunker
	prompts    *PromptComposer
	responses  ResponseExtractor
	validator  *SchemaValidator
	rubric     models.ScoringRubric
	chunking   config.ChunkingConfig

	rubricJSON       string
	scoreSchema      string
	extractionSchema string
}

func NewAnalysisOrchestrator(deps OrchestratorDeps) (AnalysisOrchestrator, error) {
	if deps.Completion == nil {
		return nil, errors.New("analysis orchestrator needs a completion client")
	}

	o := &analysisOrchestrator{
		completion: deps.Completion,
		documents:  deps.Documents,
		chunker:    deps.Chunker,
		prompts:    deps.Prompts,
		responses:  deps.Responses,
		validator:  deps.Validator,
		chunking:   deps.Chunking,
	}
	if o.chunker == nil {
		o.chunker = NewTextChunker()
	}
	if o.prompts == nil {
		o.prompts = NewPromptComposer()
	}
	if o.responses == nil {
		o.responses = DefaultResponseExtractor()
	}
	if o.validator == nil {
		o.validator = NewSchemaValidator()
	}

	if deps.Rubric != nil {
		o.rubric = *deps.Rubric
	} else {
		o.rubric = models.DefaultRubric()
	}
	if err := o.rubric.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rubric: %w", err)
	}

	var err error
	if o.rubricJSON, err = RubricJSON(o.rubric); err != nil {
		return nil, err
	}
	if o.scoreSchema, err = ScoreOutputExample(o.rubric); err != nil {
		return nil, err
	}
	if o.extractionSchema, err = ExtractionOutputExample(); err != nil {
		return nil, err
	}

	return o, nil
}

func (o *analysisOrchestrator) AnalyzeDocument(ctx context.Context, data []byte, mimeType, jobDescription string) (*models.AnalysisResult, error) {
	if o.documents == nil {
		return nil, errors.New("analysis orchestrator has no document extractor")
	}

	ctx, requestID := ensureRequestID(ctx)

	log.Printf("📄 [%s] Extracting %s text (%d bytes)...\n", requestID, mimeType, len(data))
	content, err := o.documents.ExtractText(ctx, data, mimeType)
	if err != nil {
		log.Printf("❌ [%s] Document extraction failed: %v\n", requestID, err)
		return nil, err
	}
	log.Printf("✅ [%s] Extracted %d pages\n", requestID, content.PageCount)

	return o.Analyze(ctx, models.AnalysisRequest{
		ResumeText:     content.Text,
		JobDescription: jobDescription,
	})
}

func (o *analysisOrchestrator) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	ctx, requestID := ensureRequestID(ctx)
	req.JobDescription = strings.TrimSpace(req.JobDescription)

	text, err := o.normalize(req.ResumeText)
	if err != nil {
		return nil, err
	}
	req.ResumeText = text

	start := time.Now()
	log.Printf("🔄 [%s] Starting analysis (%d chars, job description: %t)\n", requestID, len(text), req.HasJobDescription())

	var (
		report *models.ScoreReport
		fields *models.ExtractedFields
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		report, err = o.score(gctx, requestID, req)
		if err != nil {
			return fmt.Errorf("scoring failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		fields, err = o.extract(gctx, requestID, text)
		if err != nil {
			return fmt.Errorf("extraction failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Printf("❌ [%s] Analysis failed: %v\n", requestID, err)
		return nil, err
	}

	if req.HasJobDescription() {
		AddMatchedSkills(report, fields.Skills, req.JobDescription)
	}

	log.Printf("✅ [%s] Analysis completed in %s (ats_score=%d)\n", requestID, time.Since(start).Round(time.Millisecond), report.ATSScore)

	return &models.AnalysisResult{
		ScoreReport:     report,
		ExtractedFields: fields,
	}, nil
}

func (o *analysisOrchestrator) Score(ctx context.Context, req models.AnalysisRequest) (*models.ScoreReport, error) {
	ctx, requestID := ensureRequestID(ctx)
	req.JobDescription = strings.TrimSpace(req.JobDescription)

	text, err := o.normalize(req.ResumeText)
	if err != nil {
		return nil, err
	}
	req.ResumeText = text

	return o.score(ctx, requestID, req)
}

func (o *analysisOrchestrator) Extract(ctx context.Context, resumeText string) (*models.ExtractedFields, error) {
	ctx, requestID := ensureRequestID(ctx)

	text, err := o.normalize(resumeText)
	if err != nil {
		return nil, err
	}

	return o.extract(ctx, requestID, text)
}

func (o *analysisOrchestrator) ScoringPrompt(req models.AnalysisRequest) (string, error) {
	text, err := o.normalize(req.ResumeText)
	if err != nil {
		return "", err
	}
	return o.prompts.ComposeScoringPrompt(text, req.JobDescription, o.rubricJSON, o.scoreSchema), nil
}

// normalize runs the text through the chunker and joins the chunks back.
func (o *analysisOrchestrator) normalize(text string) (string, error) {
	chunks := o.chunker.Chunk(CleanText(text), o.chunking.MaxChunkChars, o.chunking.OverlapChars)
	if len(chunks) == 0 {
		return "", &DocumentParseError{Reason: "no extractable text", Cause: ErrEmptyDocument}
	}
	return Rejoin(chunks), nil
}

func (o *analysisOrchestrator) score(ctx context.Context, requestID string, req models.AnalysisRequest) (*models.ScoreReport, error) {
	log.Printf("🤖 [%s] Scoring resume with LLM...\n", requestID)

	prompt := o.prompts.ComposeScoringPrompt(req.ResumeText, req.JobDescription, o.rubricJSON, o.scoreSchema)

	var checks map[string][]float64
	report, err := completeAndDecode(ctx, o, requestID, prompt, o.scoreSchema, func(payload json.RawMessage) (*models.ScoreReport, error) {
		report, awarded, err := o.validator.DecodeScore(payload)
		if err != nil {
			return nil, err
		}
		if err := o.validator.CheckFeedback(o.rubric, report, awarded); err != nil {
			return nil, err
		}
		checks = awarded
		return report, nil
	})
	if err != nil {
		return nil, err
	}

	if checks != nil {
		score, err := o.rubric.Score(checks)
		if err != nil {
			log.Printf("⚠️ [%s] Ignoring check scores, keeping model ats_score %d: %v\n", requestID, report.ATSScore, err)
		} else {
			report.ATSScore = score
		}
	}

	if req.HasJobDescription() {
		ReconcileKeywords(report, req.ResumeText)
	}

	return report, nil
}

func (o *analysisOrchestrator) extract(ctx context.Context, requestID, text string) (*models.ExtractedFields, error) {
	log.Printf("🤖 [%s] Extracting resume fields with LLM...\n", requestID)

	prompt := o.prompts.ComposeExtractionPrompt(text, o.extractionSchema)
	return completeAndDecode(ctx, o, requestID, prompt, o.extractionSchema, o.validator.DecodeExtraction)
}

// completeAndDecode sends prompt and decodes the reply. A reply that cannot be
// read or fails validation gets exactly one more attempt with the reformat
// prompt; replaying the same prompt at temperature 0 would repeat the output.
func completeAndDecode[T any](
	ctx context.Context,
	o *analysisOrchestrator,
	requestID, prompt, schema string,
	decode func(json.RawMessage) (T, error),
) (T, error) {
	reply, result, err := completeOnce(ctx, o, prompt, decode)
	if err == nil || !reformattable(err) {
		return result, err
	}

	log.Printf("⚠️ [%s] Unusable reply (%d chars), asking for a reformat: %v\n", requestID, len(reply), err)

	retryPrompt := o.prompts.ComposeReformatPrompt(prompt, reply, schema)
	_, result, err = completeOnce(ctx, o, retryPrompt, decode)
	return result, err
}

func completeOnce[T any](ctx context.Context, o *analysisOrchestrator, prompt string, decode func(json.RawMessage) (T, error)) (string, T, error) {
	var zero T

	reply, err := o.completion.Complete(ctx, prompt)
	if err != nil {
		return reply, zero, err
	}

	payload, err := o.responses.Extract(reply)
	if err != nil {
		return reply, zero, err
	}

	result, err := decode(payload)
	if err != nil {
		return reply, zero, err
	}
	return reply, result, nil
}

func reformattable(err error) bool {
	switch ErrorKind(err) {
	case KindMalformedResponse, KindValidation:
		return true
	}
	return false
}

type requestIDKey struct{}

// WithRequestID tags ctx with the ID used in pipeline log lines.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func ensureRequestID(ctx context.Context) (context.Context, string) {
	if id := RequestIDFrom(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return WithRequestID(ctx, id), id
}
