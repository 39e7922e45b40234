// Command atscli runs the résumé analysis pipeline from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jovanglig/aigeniusresume/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "atscli",
	Short:         "ATS résumé analysis from the command line",
	Long:          "atscli extracts résumé text, scores it against the built-in ATS rubric and extracts structured fields, using the same pipeline as the HTTP API.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads .env and the environment, then validates the result.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
