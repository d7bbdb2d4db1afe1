package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelcraft/internal/model"
)

var (
	promptName   string
	promptSystem string
	promptTopics string
	promptCount  int
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Manage stored generation prompts",
}

var promptSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store a new generation prompt",
	Long: `Store a prompt for script generation. Jobs without an explicit
prompt reference use the most recently stored one.`,
	RunE: runPromptSet,
}

var promptShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the prompt currently in use",
	RunE:  runPromptShow,
}

func init() {
	promptSetCmd.Flags().StringVarP(&promptName, "name", "n", "", "Prompt name")
	promptSetCmd.Flags().StringVar(&promptSystem, "system", "", "System prompt override")
	promptSetCmd.Flags().StringVarP(&promptTopics, "topics", "t", "", "Comma-separated topic hints")
	promptSetCmd.Flags().IntVarP(&promptCount, "count", "c", 10, "Scripts per generation")
	promptCmd.AddCommand(promptSetCmd)
	promptCmd.AddCommand(promptShowCmd)
	rootCmd.AddCommand(promptCmd)
}

func runPromptSet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := buildServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	prompt := &model.Prompt{
		Owner:        svc.owner(),
		Name:         promptName,
		SystemPrompt: promptSystem,
		Topics:       promptTopics,
		NumScripts:   promptCount,
	}
	if err := svc.store.CreatePrompt(ctx, prompt); err != nil {
		return fmt.Errorf("store prompt: %w", err)
	}
	fmt.Printf("Stored prompt %s\n", prompt.ID)
	return nil
}

func runPromptShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := buildServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	prompt, err := svc.store.LatestPrompt(ctx, svc.owner())
	if err != nil {
		return err
	}
	if prompt == nil {
		fmt.Println("No stored prompts, generation uses the built-in default")
		return nil
	}

	fmt.Printf("ID:      %s\n", prompt.ID)
	if prompt.Name != "" {
		fmt.Printf("Name:    %s\n", prompt.Name)
	}
	if prompt.Topics != "" {
		fmt.Printf("Topics:  %s\n", prompt.Topics)
	}
	fmt.Printf("Scripts: %d\n", prompt.NumScripts)
	fmt.Printf("Used:    %d time(s)\n", prompt.TimesUsed)
	if prompt.SystemPrompt != "" {
		fmt.Printf("System:  %s\n", prompt.SystemPrompt)
	}
	return nil
}
