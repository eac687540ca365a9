package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sydlexius/wantsync/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}
	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigValidateCommand(ctx))
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var path string
	var force bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a configuration file with default values",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = config.DefaultPath()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Default().Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "Destination path (defaults to the user config directory)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and check the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Configuration valid")
			fmt.Fprintf(out, "Database:  %s\n", cfg.Database.Path)
			fmt.Fprintf(out, "Delimiter: %q\n", cfg.DelimiterRune())
			fmt.Fprintf(out, "Delay:     %s\n", cfg.Import.Delay)
			fmt.Fprintf(out, "Output:    %s\n", cfg.Import.OutputPath)
			return nil
		},
	}
}
