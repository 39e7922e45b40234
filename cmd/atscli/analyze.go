package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jovanglig/aigeniusresume/internal/models"
	"github.com/jovanglig/aigeniusresume/internal/services"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE...",
	Short: "Score and extract one or more résumés",
	Long:  "Analyze each PDF or DOCX résumé and print one JSON document per file, followed by a summary on stderr.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAnalyze,
}

var (
	analyzeJobDescription     string
	analyzeJobDescriptionFile string
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeJobDescription, "job-description", "j", "", "Job description text")
	analyzeCmd.Flags().StringVar(&analyzeJobDescriptionFile, "job-description-file", "", "Path to a file holding the job description")
	analyzeCmd.MarkFlagsMutuallyExclusive("job-description", "job-description-file")

	rootCmd.AddCommand(analyzeCmd)
}

type fileResult struct {
	File           string                  `json:"file"`
	ExtractedData  *models.ExtractedFields `json:"extractedData,omitempty"`
	AnalysisResult *models.ScoreReport     `json:"analysisResult,omitempty"`
	Error          string                  `json:"error,omitempty"`
	Kind           services.Kind           `json:"kind,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}

	jobDescription, err := readJobDescription(analyzeJobDescription, analyzeJobDescriptionFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := services.NewCompletionClient(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	pool := services.NewCompletionPool(client, cfg.Worker)
	defer pool.Stop()

	orchestrator, err := services.NewAnalysisOrchestrator(services.OrchestratorDeps{
		Completion: pool,
		Documents:  services.NewDocumentExtractor(cfg.Extractor),
		Chunking:   cfg.Chunking,
	})
	if err != nil {
		return err
	}

	return analyzeFiles(ctx, orchestrator, services.NewUploadReader(cfg.Storage.MaxFileSize),
		args, jobDescription, cfg.Worker.Concurrency, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// analyzeFiles analyzes paths concurrently and prints the results in argument
// order. It fails when any file failed.
func analyzeFiles(
	ctx context.Context,
	orchestrator services.AnalysisOrchestrator,
	uploads services.UploadReader,
	paths []string,
	jobDescription string,
	concurrency int,
	out, errOut io.Writer,
) error {
	results := make([]fileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))

	for i, path := range paths {
		g.Go(func() error {
			results[i] = analyzeFile(gctx, orchestrator, uploads, path, jobDescription)
			// One bad file must not cancel the others.
			return nil
		})
	}
	_ = g.Wait()

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	failed := 0
	for _, result := range results {
		if result.Error != "" {
			failed++
		}
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	}

	fmt.Fprintf(errOut, "Analyzed %d/%d files successfully\n", len(paths)-failed, len(paths))
	for _, result := range results {
		if result.Error != "" {
			fmt.Fprintf(errOut, "  ✗ %s: %s\n", result.File, result.Error)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(paths))
	}
	return nil
}

func analyzeFile(ctx context.Context, orchestrator services.AnalysisOrchestrator, uploads services.UploadReader, path, jobDescription string) fileResult {
	result := fileResult{File: path}

	upload, err := uploads.ReadFile(path)
	if err != nil {
		return result.failed(err)
	}

	analysis, err := orchestrator.AnalyzeDocument(ctx, upload.Data, upload.MIMEType, jobDescription)
	if err != nil {
		return result.failed(err)
	}

	result.ExtractedData = analysis.ExtractedFields
	result.AnalysisResult = analysis.ScoreReport
	return result
}

func (r fileResult) failed(err error) fileResult {
	r.Error = err.Error()
	r.Kind = services.ErrorKind(err)
	return r
}

func readJobDescription(text, path string) (string, error) {
	if path == "" {
		return strings.TrimSpace(text), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read job description: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
