// Command breakdown runs decompositions from the terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"breakdown/internal/config"
	"breakdown/internal/service"
	"breakdown/internal/service/llm"
)

// cliUser owns every decomposition created by the command line.
const cliUser = "cli"

// offlineModel is used when --provider offline is given without --model.
const offlineModel = "offline-fixture"

var (
	verbose  bool
	provider string
	model    string
	language string
	timeout  time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "breakdown",
	Short: "Recursively decompose objects into components and raw materials",
	Long: `breakdown asks a language model what an object is made of, then what
each part is made of, until only raw materials remain.

Provider credentials are read from the environment (.env is honored).
Use --provider offline to run without any network access.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "Completion provider for text and vision (default from LLM_TEXT_PROVIDER)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "Model id for text and vision, optionally as provider/model")
	rootCmd.PersistentFlags().StringVar(&language, "language", "", "Output language (default from OUTPUT_LANGUAGE)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "Overall operation timeout")

	rootCmd.AddCommand(explodeCmd)
	rootCmd.AddCommand(identifyCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(layoutCmd)
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig applies the persistent flags over the environment. Without
// --provider, --model may carry one as "provider/model".
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	p, m := provider, model
	if m == "" && p == "offline" {
		m = offlineModel
	}
	if m != "" && p == "" {
		ref, err := llm.ParseModel(m)
		if err != nil {
			return nil, err
		}
		p, m = ref.Provider, ref.Model
	}
	if p != "" {
		cfg.TextProvider = p
		cfg.VisionProvider = p
	}
	if m != "" {
		cfg.TextModel = m
		cfg.VisionModel = m
	}
	if language != "" {
		cfg.OutputLanguage = language
	}
	cfg.LogLevel = "warn"
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	return config.SetupLogger(cfg, w)
}

// setup builds the services without session storage.
func setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*service.Services, error) {
	svc, err := service.Setup(ctx, cfg, service.Storage{}, nil, logger)
	if err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}
	return svc, nil
}
