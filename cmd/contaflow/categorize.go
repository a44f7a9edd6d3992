package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/contaflow/contaflow/internal/cli"
	"github.com/contaflow/contaflow/internal/engine"
)

func categorizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categorize",
		Short: "Run the categorization rules over pending transactions",
		Long: `Evaluate the active rules against every unreconciled transaction, in id
order. The first matching rule assigns its category and marks the
transaction auto-reconciled. Transactions no rule matches stay pending.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			matched, err := engine.New(store).CategorizeAll(ctx)
			if err != nil {
				return fmt.Errorf("failed to categorize: %w", err)
			}

			if matched == 0 {
				fmt.Println(cli.FormatInfo("No pending transactions matched any rule."))
				return nil
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Categorized %d transactions", matched)))
			return nil
		},
	}
}
