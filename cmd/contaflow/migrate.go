package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/contaflow/contaflow/internal/cli"
	"github.com/contaflow/contaflow/internal/storage"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply any pending schema migrations. Commands run migrations automatically, so this is mainly useful to initialize a fresh database.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Database is at schema version %d", storage.ExpectedSchemaVersion)))
			return nil
		},
	}
}
