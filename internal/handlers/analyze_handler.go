package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jovanglig/aigeniusresume/internal/models"
	"github.com/jovanglig/aigeniusresume/internal/services"
)

type AnalyzeHandler struct {
	orchestrator services.AnalysisOrchestrator
	documents    services.DocumentExtractor
	uploads      services.UploadReader
	production   bool
}

func NewAnalyzeHandler(
	orchestrator services.AnalysisOrchestrator,
	documents services.DocumentExtractor,
	uploads services.UploadReader,
	production bool,
) *AnalyzeHandler {
	return &AnalyzeHandler{
		orchestrator: orchestrator,
		documents:    documents,
		uploads:      uploads,
		production:   production,
	}
}

// HandleAnalyze handles POST /api/analyze-resume
func (h *AnalyzeHandler) HandleAnalyze(c *fiber.Ctx) error {
	file, err := c.FormFile("resume")
	if err != nil {
		return badRequest(c, "No file uploaded")
	}

	upload, err := h.uploads.ReadUpload(file)
	if err != nil {
		return respondError(c, err, h.production)
	}

	result, err := h.orchestrator.AnalyzeDocument(c.UserContext(), upload.Data, upload.MIMEType, c.FormValue("jobDescription"))
	if err != nil {
		return respondError(c, err, h.production)
	}

	return c.JSON(models.AnalyzeResponse{
		ExtractedData:  result.ExtractedFields,
		AnalysisResult: result.ScoreReport,
	})
}

// HandleScore handles POST /api/score-resume
func (h *AnalyzeHandler) HandleScore(c *fiber.Ctx) error {
	req, ok, err := h.readRequest(c)
	if !ok {
		return err
	}

	report, err := h.orchestrator.Score(c.UserContext(), req)
	if err != nil {
		return respondError(c, err, h.production)
	}

	return c.JSON(models.AnalyzeResponse{AnalysisResult: report})
}

// HandleExtract handles POST /api/extract-resume
func (h *AnalyzeHandler) HandleExtract(c *fiber.Ctx) error {
	req, ok, err := h.readRequest(c)
	if !ok {
		return err
	}

	fields, err := h.orchestrator.Extract(c.UserContext(), req.ResumeText)
	if err != nil {
		return respondError(c, err, h.production)
	}

	return c.JSON(models.AnalyzeResponse{ExtractedData: fields})
}

// readRequest accepts either a multipart upload (resume, jobDescription) or
// a JSON AnalysisRequest. When ok is false the response is already written
// and err is what the handler should return.
func (h *AnalyzeHandler) readRequest(c *fiber.Ctx) (models.AnalysisRequest, bool, error) {
	var req models.AnalysisRequest

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		file, err := c.FormFile("resume")
		if err != nil {
			return req, false, badRequest(c, "No file uploaded")
		}

		upload, err := h.uploads.ReadUpload(file)
		if err != nil {
			return req, false, respondError(c, err, h.production)
		}

		content, err := h.documents.ExtractText(c.UserContext(), upload.Data, upload.MIMEType)
		if err != nil {
			return req, false, respondError(c, err, h.production)
		}

		req.ResumeText = content.Text
		req.JobDescription = c.FormValue("jobDescription")
		return req, true, nil
	}

	if err := c.BodyParser(&req); err != nil {
		return req, false, badRequest(c, "Invalid request payload")
	}
	if strings.TrimSpace(req.ResumeText) == "" {
		return req, false, badRequest(c, "resume_text is required")
	}

	return req, true, nil
}
