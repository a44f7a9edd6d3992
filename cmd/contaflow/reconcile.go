package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/contaflow/contaflow/internal/cli"
	"github.com/contaflow/contaflow/internal/service"
	"github.com/contaflow/contaflow/internal/tui"
)

func reconcileCmd() *cobra.Command {
	var txnID, categoryCode string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Interactively categorize pending transactions",
		Long: `Open a terminal UI listing every unreconciled transaction. Pick a
category for each one; categorized transactions are marked manually
reconciled.

With --transaction and --category, reconcile a single transaction without
opening the UI.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if txnID != "" || categoryCode != "" {
				if txnID == "" || categoryCode == "" {
					return fmt.Errorf("--transaction and --category must be used together")
				}
				return reconcileOne(cmd, store, txnID, categoryCode)
			}

			reconciled, err := tui.Run(ctx, store)
			if err != nil {
				return err
			}

			if reconciled == 0 {
				fmt.Println(cli.FormatInfo("Nothing reconciled."))
				return nil
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Reconciled %d transactions", reconciled)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&txnID, "transaction", "t", "", "transaction id to reconcile directly")
	cmd.Flags().StringVarP(&categoryCode, "category", "c", "", "category code to assign")
	return cmd
}

// reconcileOne assigns a category to a single pending transaction, marking
// it manually reconciled.
func reconcileOne(cmd *cobra.Command, store service.Storage, txnID, categoryCode string) error {
	ctx := cmd.Context()

	txn, err := store.GetTransaction(ctx, txnID)
	if err != nil {
		return fmt.Errorf("failed to get transaction: %w", err)
	}

	category, err := store.GetCategoryByCode(ctx, categoryCode)
	if err != nil {
		return fmt.Errorf("failed to get category: %w", err)
	}

	txn.CategoryID = &category.ID
	if err := store.SaveTransaction(ctx, txn); err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf(
		"Transaction %s categorized as %s (%s), status %s",
		txn.ID, category.Code, category.Name, txn.Reconciliation)))
	return nil
}
