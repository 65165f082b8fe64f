package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"breakdown/internal/catalog"
	models "breakdown/internal/domain/models/decomposition"
	"breakdown/internal/service/decomposition"
)

var (
	promptContext      string
	promptHumor        int
	promptProfessional int
	promptDepth        int
	promptTemplate     string
)

var promptCmd = &cobra.Command{
	Use:   "prompt <item>",
	Short: "Print the decomposition prompt for an item",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrompt,
}

func init() {
	promptCmd.Flags().StringVar(&promptContext, "context", "", "Parent item the part belongs to")
	promptCmd.Flags().IntVar(&promptHumor, "humor", 50, "Humor slider, 0-100")
	promptCmd.Flags().IntVar(&promptProfessional, "professional", 50, "Professional slider, 0-100")
	promptCmd.Flags().IntVar(&promptDepth, "depth", 0, "Depth of the item in the tree")
	promptCmd.Flags().StringVar(&promptTemplate, "template", "", "Custom template using {{ITEM}} and {{CONTEXT}}")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	settings := &models.PromptSettings{
		Humor:          promptHumor,
		Professional:   promptProfessional,
		CustomTemplate: promptTemplate,
		UseCustom:      promptTemplate != "",
	}
	if err := decomposition.ValidatePromptSettings(settings); err != nil {
		return fmt.Errorf("invalid prompt settings: %w", err)
	}

	cat, err := catalog.Load()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), decomposition.CompilePrompt(args[0], promptContext, settings, decomposition.PromptOptions{
		Depth:    promptDepth,
		MaxDepth: cfg.MaxDepth,
		Language: cfg.OutputLanguage,
		Catalog:  cat,
	}))
	return nil
}
