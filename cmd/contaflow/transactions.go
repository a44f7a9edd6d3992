package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/contaflow/contaflow/internal/cli"
	"github.com/contaflow/contaflow/internal/engine"
	"github.com/contaflow/contaflow/internal/model"
	"github.com/contaflow/contaflow/internal/service"
	"github.com/contaflow/contaflow/internal/sync"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"txn"},
		Short:   "Manage financial transactions",
	}

	cmd.AddCommand(listTransactionsCmd())
	cmd.AddCommand(addTransactionCmd())
	cmd.AddCommand(editTransactionCmd())
	cmd.AddCommand(deleteTransactionCmd())
	cmd.AddCommand(pullTransactionsCmd())
	cmd.AddCommand(importOFXCmd())

	return cmd
}

func listTransactionsCmd() *cobra.Command {
	var (
		startDate    string
		endDate      string
		categoryCode string
		txnType      string
		status       string
		search       string
		limit        int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			filter := service.TransactionFilter{
				Type:           model.TransactionType(strings.ToUpper(txnType)),
				Reconciliation: model.ReconciliationStatus(strings.ToLower(status)),
				Search:         search,
				Limit:          limit,
			}
			if startDate != "" {
				start, err := parseDateFlag(startDate, "start")
				if err != nil {
					return err
				}
				filter.StartDate = &start
			}
			if endDate != "" {
				end, err := parseDateFlag(endDate, "end")
				if err != nil {
					return err
				}
				filter.EndDate = &end
			}
			if categoryCode != "" {
				cat, err := store.GetCategoryByCode(ctx, categoryCode)
				if err != nil {
					return fmt.Errorf("category %q: %w", categoryCode, err)
				}
				filter.CategoryID = &cat.ID
			}

			transactions, err := store.ListTransactions(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}

			if len(transactions) == 0 {
				fmt.Println(cli.FormatInfo("No transactions found."))
				return nil
			}

			rows := make([][]string, 0, len(transactions))
			for _, txn := range transactions {
				rows = append(rows, []string{
					txn.ID,
					txn.Date.Format("2006-01-02"),
					truncate(txn.Description, 40),
					txn.CustomerName,
					fmt.Sprintf("%.2f", txn.Amount),
					string(txn.Type),
					string(txn.Reconciliation),
				})
			}

			fmt.Print(cli.RenderTable(
				[]string{"ID", "DATE", "DESCRIPTION", "CUSTOMER", "AMOUNT", "TYPE", "STATUS"},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&startDate, "start", "", "start date, YYYY-MM-DD")
	cmd.Flags().StringVar(&endDate, "end", "", "end date, YYYY-MM-DD")
	cmd.Flags().StringVarP(&categoryCode, "category", "c", "", "filter by category code")
	cmd.Flags().StringVarP(&txnType, "type", "t", "", "filter by transaction type")
	cmd.Flags().StringVar(&status, "status", "", "filter by reconciliation status (unreconciled, auto, manual)")
	cmd.Flags().StringVarP(&search, "search", "s", "", "search description and customer name")
	cmd.Flags().IntVarP(&limit, "limit", "l", 50, "maximum rows (0 = all)")

	return cmd
}

func addTransactionCmd() *cobra.Command {
	var (
		date         string
		description  string
		amount       float64
		txnType      string
		categoryCode string
		notes        string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction manually",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			when, err := parseDateFlag(date, "date")
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			txn := &model.Transaction{
				ID:          "manual:" + uuid.NewString(),
				Date:        when,
				Description: description,
				Amount:      amount,
				Type:        model.TransactionType(strings.ToUpper(txnType)),
				Notes:       notes,
			}

			if categoryCode != "" {
				cat, err := store.GetCategoryByCode(ctx, categoryCode)
				if err != nil {
					return fmt.Errorf("category %q: %w", categoryCode, err)
				}
				txn.CategoryID = &cat.ID
			}

			// A manually assigned category counts as manual reconciliation.
			if err := store.SaveTransaction(ctx, txn); err != nil {
				return fmt.Errorf("failed to save transaction: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created transaction %s", txn.ID)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "transaction date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&description, "description", "", "transaction description (required)")
	cmd.Flags().Float64VarP(&amount, "amount", "a", 0, "amount, negative for expenses (required)")
	cmd.Flags().StringVarP(&txnType, "type", "t", string(model.TypeOther), "transaction type")
	cmd.Flags().StringVarP(&categoryCode, "category", "c", "", "category code")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func editTransactionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a transaction",
		Long:  `Assigning a category to a pending transaction marks it manually reconciled.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			txn, err := store.GetTransaction(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get transaction: %w", err)
			}

			applyStringFlag(cmd, "description", &txn.Description)
			applyStringFlag(cmd, "notes", &txn.Notes)
			if cmd.Flags().Changed("category") {
				raw, _ := cmd.Flags().GetString("category")
				if raw == "" {
					txn.CategoryID = nil
				} else {
					cat, err := store.GetCategoryByCode(ctx, raw)
					if err != nil {
						return fmt.Errorf("category %q: %w", raw, err)
					}
					txn.CategoryID = &cat.ID
				}
			}

			if err := store.SaveTransaction(ctx, txn); err != nil {
				return fmt.Errorf("failed to save transaction: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated transaction %s (%s)", txn.ID, txn.Reconciliation)))
			return nil
		},
	}

	cmd.Flags().String("description", "", "transaction description")
	cmd.Flags().StringP("category", "c", "", "category code (empty clears it)")
	cmd.Flags().String("notes", "", "free-form notes")

	return cmd
}

func deleteTransactionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteTransaction(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete transaction: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted transaction %s", args[0])))
			return nil
		},
	}
}

func pullTransactionsCmd() *cobra.Command {
	var (
		startDate string
		endDate   string
	)

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Import the financial statement from the billing platform",
		Long: `Fetch the Asaas financial statement for a date range and import it.
New transactions are run through the categorization rules; already imported
transactions are refreshed without touching their category or status.

Defaults to the current month.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			start, end := monthRange(time.Now())
			var err error
			if startDate != "" {
				if start, err = parseDateFlag(startDate, "start"); err != nil {
					return err
				}
			}
			if endDate != "" {
				if end, err = parseDateFlag(endDate, "end"); err != nil {
					return err
				}
			}

			syncer, store, cleanup, err := newSyncer(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			bar := newProgressBar("Pulling transactions...")
			report, err := syncer.PullTransactions(ctx, engine.New(store), start, end, func(_ int) { _ = bar.Add(1) })
			_ = bar.Finish()
			fmt.Println()
			if err != nil {
				return err
			}

			printSyncReport(report)
			return nil
		},
	}

	cmd.Flags().StringVar(&startDate, "start", "", "start date, YYYY-MM-DD (default: first day of this month)")
	cmd.Flags().StringVar(&endDate, "end", "", "end date, YYYY-MM-DD (default: last day of this month)")

	return cmd
}

func importOFXCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-ofx <files...>",
		Short: "Import transactions from OFX bank statements",
		Long: `Import bank statement exports in OFX format. Entries are deduplicated by
account and FITID, so re-importing a statement is safe.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			eng := engine.New(store)
			// OFX import is purely local, no billing client needed.
			syncer := sync.New(store, nil)

			total := &sync.Report{}
			for _, path := range args {
				f, err := os.Open(path) // #nosec G304
				if err != nil {
					return fmt.Errorf("opening %s: %w", path, err)
				}

				bar := newProgressBar(fmt.Sprintf("Importing %s...", path))
				report, err := syncer.ImportOFX(ctx, f, eng, func(_ int) { _ = bar.Add(1) })
				_ = f.Close()
				_ = bar.Finish()
				fmt.Println()
				if err != nil {
					return fmt.Errorf("importing %s: %w", path, err)
				}

				total.Imported += report.Imported
				total.Updated += report.Updated
				total.Skipped += report.Skipped
				total.Errors = append(total.Errors, report.Errors...)
			}

			printSyncReport(total)
			return nil
		},
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
