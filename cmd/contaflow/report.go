package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/contaflow/contaflow/internal/cli"
	"github.com/contaflow/contaflow/internal/config"
	"github.com/contaflow/contaflow/internal/service"
	"github.com/contaflow/contaflow/internal/sheets"
)

func reportCmd() *cobra.Command {
	var (
		startDate    string
		endDate      string
		exportSheets bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the financial report for a period",
		Long: `Summarize a period: totals per category, revenue received per customer,
and reconciliation progress. Defaults to the current month.

With --export-sheets the report is also written to Google Sheets using the
credentials under the sheets.* configuration keys.`,
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

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			summary, err := store.GetReportSummary(ctx, start, end)
			if err != nil {
				return fmt.Errorf("failed to build report: %w", err)
			}

			printReport(summary)

			if !exportSheets {
				return nil
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			sheetsCfg := sheets.DefaultConfig()
			sheetsCfg.ServiceAccountPath = cfg.Sheets.ServiceAccountPath
			sheetsCfg.ClientID = cfg.Sheets.ClientID
			sheetsCfg.ClientSecret = cfg.Sheets.ClientSecret
			sheetsCfg.RefreshToken = cfg.Sheets.RefreshToken
			sheetsCfg.SpreadsheetID = cfg.Sheets.SpreadsheetID
			if cfg.Sheets.SpreadsheetName != "" {
				sheetsCfg.SpreadsheetName = cfg.Sheets.SpreadsheetName
			}

			exporter, err := sheets.NewExporter(ctx, sheetsCfg, slog.Default())
			if err != nil {
				return fmt.Errorf("failed to create sheets exporter: %w", err)
			}

			transactions, err := store.ListTransactions(ctx, service.TransactionFilter{
				StartDate: &start,
				EndDate:   &end,
			})
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}

			if err := exporter.Export(ctx, transactions, summary); err != nil {
				return fmt.Errorf("failed to export to sheets: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Report exported to Google Sheets"))
			return nil
		},
	}

	cmd.Flags().StringVar(&startDate, "start", "", "start date, YYYY-MM-DD (default: first day of this month)")
	cmd.Flags().StringVar(&endDate, "end", "", "end date, YYYY-MM-DD (default: last day of this month)")
	cmd.Flags().BoolVar(&exportSheets, "export-sheets", false, "also write the report to Google Sheets")

	return cmd
}

func printReport(summary *service.ReportSummary) {
	fmt.Println(cli.FormatTitle(fmt.Sprintf(
		"Report %s to %s",
		summary.Start.Format("2006-01-02"), summary.End.Format("2006-01-02"))))

	fmt.Printf("Revenue:  %s\n", cli.FormatAmount(summary.TotalRevenue))
	fmt.Printf("Expenses: %s\n", cli.FormatAmount(summary.TotalExpenses))
	fmt.Printf("Balance:  %s\n\n", cli.FormatAmount(summary.Balance))

	if len(summary.ByCategory) > 0 {
		fmt.Println(cli.BoldStyle.Render("By category"))
		rows := make([][]string, 0, len(summary.ByCategory))
		for _, cat := range summary.ByCategory {
			rows = append(rows, []string{
				cat.Code,
				cat.Name,
				fmt.Sprintf("%d", cat.Count),
				fmt.Sprintf("%.2f", cat.Amount),
			})
		}
		fmt.Print(cli.RenderTable([]string{"CODE", "CATEGORY", "COUNT", "AMOUNT"}, rows))
		fmt.Println()
	}

	if len(summary.TopCustomers) > 0 {
		fmt.Println(cli.BoldStyle.Render("Top customers"))
		rows := make([][]string, 0, len(summary.TopCustomers))
		for _, customer := range summary.TopCustomers {
			rows = append(rows, []string{
				customer.Name,
				fmt.Sprintf("%d", customer.Count),
				fmt.Sprintf("%.2f", customer.Amount),
			})
		}
		fmt.Print(cli.RenderTable([]string{"CUSTOMER", "PAYMENTS", "AMOUNT"}, rows))
		fmt.Println()
	}

	fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf(
		"Reconciliation: %d pending, %d automatic, %d manual",
		summary.Reconciliation.Unreconciled,
		summary.Reconciliation.Auto,
		summary.Reconciliation.Manual)))
}
