package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mrrelease/internal/settings"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Configure the Azure DevOps connection",
	Long: `Prompt for the collection URL, project, personal access token and watch refresh
interval, and save them to ~/.mr-release (or the file given with --config).

Current values are offered as defaults. Leave the token empty to keep the stored one.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		defaultPath, err := settings.DefaultPath()
		if err != nil {
			return err
		}
		path = defaultPath
	}

	current := settings.New()
	if err := current.LoadFromFile(path); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !settings.IsInteractive() {
		fmt.Fprintln(out, "stdin is not a terminal; reading answers line by line")
	}

	prompter := settings.NewPrompter(cmd.InOrStdin(), out)
	updated, err := prompter.Prompt(current)
	if err != nil {
		return err
	}

	if err := updated.Validate(); err != nil {
		return fmt.Errorf("settings not saved: %w", err)
	}
	if err := updated.Save(path); err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Settings saved to %s\n", path)
	return nil
}
