package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scriptsCmd = &cobra.Command{
	Use:   "scripts",
	Short: "Browse and curate generated scripts",
}

var scriptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List generated scripts, best-scored first",
	RunE:  runScriptsList,
}

var scriptsSelectCmd = &cobra.Command{
	Use:   "select <script-id>...",
	Short: "Mark scripts for rendering",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScriptsSelect,
}

var scriptsUnselectCmd = &cobra.Command{
	Use:   "unselect <script-id>...",
	Short: "Remove scripts from the render queue",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScriptsUnselect,
}

var scriptsDeleteCmd = &cobra.Command{
	Use:   "delete <script-id>...",
	Short: "Delete scripts",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScriptsDelete,
}

func init() {
	scriptsCmd.AddCommand(scriptsListCmd)
	scriptsCmd.AddCommand(scriptsSelectCmd)
	scriptsCmd.AddCommand(scriptsUnselectCmd)
	scriptsCmd.AddCommand(scriptsDeleteCmd)
	rootCmd.AddCommand(scriptsCmd)
}

func runScriptsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := buildServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	scripts, err := svc.store.ListScripts(ctx, svc.owner())
	if err != nil {
		return err
	}
	if len(scripts) == 0 {
		fmt.Println("No scripts yet. Run: reelcraft generate")
		return nil
	}

	for _, s := range scripts {
		marker := " "
		if s.Selected {
			marker = "*"
		}
		fmt.Printf("%s %s  %.2f  %s: %s\n", marker, s.ID, s.ViralScore, s.Topic, s.Hook)
	}
	return nil
}

func runScriptsSelect(cmd *cobra.Command, args []string) error {
	return setSelection(cmd, args, true)
}

func runScriptsUnselect(cmd *cobra.Command, args []string) error {
	return setSelection(cmd, args, false)
}

func setSelection(cmd *cobra.Command, ids []string, selected bool) error {
	ctx := cmd.Context()

	svc, err := buildServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	for _, id := range ids {
		script, err := svc.store.GetScript(ctx, id)
		if err != nil {
			return err
		}
		if script == nil {
			return fmt.Errorf("script %s not found", id)
		}
		if err := svc.store.SetScriptSelected(ctx, id, selected); err != nil {
			return err
		}
	}
	fmt.Printf("Updated %d script(s)\n", len(ids))
	return nil
}

func runScriptsDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := buildServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	for _, id := range args {
		if err := svc.store.DeleteScript(ctx, id); err != nil {
			return err
		}
	}
	fmt.Printf("Deleted %d script(s)\n", len(args))
	return nil
}
