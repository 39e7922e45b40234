package main

import (
	"encoding/json"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/jovanglig/aigeniusresume/internal/config"
	"github.com/jovanglig/aigeniusresume/internal/models"
	"github.com/jovanglig/aigeniusresume/internal/services"
)

var chunkCmd = &cobra.Command{
	Use:   "chunk FILE",
	Short: "Print the text chunks of a résumé",
	Args:  cobra.ExactArgs(1),
	RunE:  runChunk,
}

var (
	chunkMaxChars int
	chunkOverlap  int
)

func init() {
	chunkCmd.Flags().IntVar(&chunkMaxChars, "max-chars", 0, "Maximum characters per chunk (default from CHUNK_MAX_CHARS)")
	chunkCmd.Flags().IntVar(&chunkOverlap, "overlap", -1, "Characters carried over between chunks (default from CHUNK_OVERLAP_CHARS)")

	rootCmd.AddCommand(chunkCmd)
}

func runChunk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	chunking := cfg.Chunking
	if chunkMaxChars > 0 {
		chunking.MaxChunkChars = chunkMaxChars
	}
	if chunkOverlap >= 0 {
		chunking.OverlapChars = chunkOverlap
	}

	text, err := documentText(cmd, cfg, args[0])
	if err != nil {
		return err
	}

	return writeChunks(cmd.OutOrStdout(), services.NewTextChunker(), text, chunking)
}

func writeChunks(out io.Writer, chunker services.TextChunker, text string, chunking config.ChunkingConfig) error {
	chunks := chunker.Chunk(text, chunking.MaxChunkChars, chunking.OverlapChars)
	if chunks == nil {
		chunks = []models.TextChunk{}
	}

	return writeJSON(out, models.ChunkResponse{
		Chunks:     chunks,
		TotalChars: utf8.RuneCountInString(text),
	})
}

// documentText reads a PDF or DOCX file and returns its cleaned text.
func documentText(cmd *cobra.Command, cfg *config.Config, path string) (string, error) {
	upload, err := services.NewUploadReader(cfg.Storage.MaxFileSize).ReadFile(path)
	if err != nil {
		return "", err
	}

	content, err := services.NewDocumentExtractor(cfg.Extractor).ExtractText(cmd.Context(), upload.Data, upload.MIMEType)
	if err != nil {
		return "", err
	}
	return content.Text, nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}
