package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/contaflow/contaflow/internal/cli"
	"github.com/contaflow/contaflow/internal/config"
	"github.com/contaflow/contaflow/internal/sheets"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with external services",
	}

	cmd.AddCommand(authSheetsCmd())
	return cmd
}

func authSheetsCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Authorize Google Sheets access",
		Long: `Run the OAuth2 browser flow for Google Sheets. Requires sheets.client_id
and sheets.client_secret in the configuration. The refresh token is printed
so it can be stored as sheets.refresh_token.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Sheets.ClientID == "" || cfg.Sheets.ClientSecret == "" {
				return fmt.Errorf("sheets.client_id and sheets.client_secret must be configured")
			}

			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to get home directory: %w", err)
			}
			tokenFile := filepath.Join(home, ".config", "contaflow", "sheets-token.json")

			if !force {
				if token, err := sheets.LoadToken(tokenFile); err == nil && token.RefreshToken != "" {
					fmt.Println(cli.FormatInfo("Already authenticated; re-run with --force to start over."))
					fmt.Println(cli.FormatInfo("Store this as sheets.refresh_token: " + token.RefreshToken))
					return nil
				}
			}

			token, err := sheets.AuthenticateInteractive(ctx, sheets.OAuth2Config{
				ClientID:     cfg.Sheets.ClientID,
				ClientSecret: cfg.Sheets.ClientSecret,
				TokenFile:    tokenFile,
			})
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess("Authenticated with Google Sheets"))
			if token.RefreshToken != "" {
				fmt.Println(cli.FormatInfo("Store this as sheets.refresh_token: " + token.RefreshToken))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "run the browser flow even if a saved token exists")
	return cmd
}
