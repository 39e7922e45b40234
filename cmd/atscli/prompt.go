package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jovanglig/aigeniusresume/internal/models"
	"github.com/jovanglig/aigeniusresume/internal/services"
)

var promptCmd = &cobra.Command{
	Use:   "prompt FILE",
	Short: "Print the scoring prompt for a résumé without calling the model",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrompt,
}

var (
	promptJobDescription     string
	promptJobDescriptionFile string
)

func init() {
	promptCmd.Flags().StringVarP(&promptJobDescription, "job-description", "j", "", "Job description text")
	promptCmd.Flags().StringVar(&promptJobDescriptionFile, "job-description-file", "", "Path to a file holding the job description")
	promptCmd.MarkFlagsMutuallyExclusive("job-description", "job-description-file")

	rootCmd.AddCommand(promptCmd)
}

var errOffline = errors.New("the prompt command never calls the model")

// offlineCompletion stands in for the model when only prompts are needed.
type offlineCompletion struct{}

func (offlineCompletion) Complete(context.Context, string) (string, error) {
	return "", errOffline
}

func runPrompt(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	jobDescription, err := readJobDescription(promptJobDescription, promptJobDescriptionFile)
	if err != nil {
		return err
	}

	text, err := documentText(cmd, cfg, args[0])
	if err != nil {
		return err
	}

	orchestrator, err := services.NewAnalysisOrchestrator(services.OrchestratorDeps{
		Completion: offlineCompletion{},
		Chunking:   cfg.Chunking,
	})
	if err != nil {
		return err
	}

	prompt, err := orchestrator.ScoringPrompt(models.AnalysisRequest{ResumeText: text, JobDescription: jobDescription})
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), prompt)
	return err
}
