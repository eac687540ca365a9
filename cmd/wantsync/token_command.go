package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sydlexius/wantsync/internal/provider"
)

func newTokenCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the stored Discogs user token",
	}
	cmd.AddCommand(newTokenSetCommand(ctx))
	cmd.AddCommand(newTokenClearCommand(ctx))
	cmd.AddCommand(newTokenShowCommand(ctx))
	return cmd
}

func newTokenSetCommand(ctx *commandContext) *cobra.Command {
	var skipVerify bool

	cmd := &cobra.Command{
		Use:   "set [token]",
		Short: "Encrypt and store a Discogs user token",
		Long:  "Stores the token used by imports that are not given --token. Get one at " + tokenHelpURL + ".",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.settings()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			var token string
			if len(args) > 0 {
				token = args[0]
			} else {
				p := newPrompter(cmd.InOrStdin(), out)
				if token, err = p.Secret("Discogs user token: "); err != nil {
					return err
				}
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return errors.New("token must not be empty")
			}

			if !skipVerify {
				check := provider.WithAPIKeyOverride(cmd.Context(), provider.NameDiscogs, token)
				ident, err := ctx.adapter(settings).Identity(check)
				if err != nil {
					return fmt.Errorf("verifying token: %w", err)
				}
				fmt.Fprintf(out, "Token belongs to %s\n", ident.Username)
			}

			if err := settings.SetAPIKey(cmd.Context(), provider.NameDiscogs, token); err != nil {
				return err
			}
			fmt.Fprintln(out, "Token stored")
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "Store the token without checking it against Discogs")
	return cmd
}

func newTokenClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.settings()
			if err != nil {
				return err
			}
			if err := settings.DeleteAPIKey(cmd.Context(), provider.NameDiscogs); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token cleared")
			return nil
		},
	}
}

func newTokenShowCommand(ctx *commandContext) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show whether a token is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.settings()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			has, err := settings.HasAPIKey(cmd.Context(), provider.NameDiscogs)
			if err != nil {
				return err
			}
			if !has {
				fmt.Fprintln(out, "No token stored")
				return nil
			}
			token, err := settings.GetAPIKey(cmd.Context(), provider.NameDiscogs)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Stored token: %s\n", maskToken(token))

			if check {
				ident, err := ctx.adapter(settings).Identity(cmd.Context())
				if err != nil {
					return fmt.Errorf("checking token: %w", err)
				}
				fmt.Fprintf(out, "Authenticated as %s\n", ident.Username)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Verify the stored token against Discogs")
	return cmd
}
