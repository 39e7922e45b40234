package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/jovanglig/aigeniusresume/internal/models"
	"github.com/jovanglig/aigeniusresume/internal/schemas"
)

var rubricCmd = &cobra.Command{
	Use:   "rubric",
	Short: "Print the scoring rubric and output schemas",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return writeRubric(cmd, models.DefaultRubric())
	},
}

func init() {
	rootCmd.AddCommand(rubricCmd)
}

func writeRubric(cmd *cobra.Command, rubric models.ScoringRubric) error {
	scoreSchema, err := schemas.Raw(schemas.Score)
	if err != nil {
		return err
	}
	extractionSchema, err := schemas.Raw(schemas.Extraction)
	if err != nil {
		return err
	}

	return writeJSON(cmd.OutOrStdout(), models.RubricResponse{
		Version:          rubric.Version,
		Rubric:           rubric,
		ScoreSchema:      json.RawMessage(scoreSchema),
		ExtractionSchema: json.RawMessage(extractionSchema),
	})
}
