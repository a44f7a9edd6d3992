package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/contaflow/contaflow/internal/common"
	"github.com/contaflow/contaflow/internal/model"
	"github.com/contaflow/contaflow/internal/service"
)

// Exporter writes financial reports to a Google Sheets spreadsheet.
type Exporter struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewExporter creates a Google Sheets report exporter.
func NewExporter(ctx context.Context, config Config, logger *slog.Logger) (*Exporter, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	srv, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Exporter{
		config:  config,
		service: srv,
		logger:  logger,
	}, nil
}

// Export writes the report summary and its transactions to the configured
// spreadsheet, replacing whatever was there.
func (e *Exporter) Export(ctx context.Context, transactions []model.Transaction, summary *service.ReportSummary) error {
	e.logger.Info("starting report export",
		"transactions", len(transactions),
		"date_range", fmt.Sprintf("%s to %s", summary.Start.Format("2006-01-02"), summary.End.Format("2006-01-02")))

	spreadsheetID, err := e.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	if clearErr := e.clearSheet(ctx, spreadsheetID); clearErr != nil {
		return fmt.Errorf("failed to clear sheet: %w", clearErr)
	}

	values := e.prepareReportData(transactions, summary)

	retryOpts := service.RetryOptions{
		MaxAttempts:  e.config.RetryAttempts,
		InitialDelay: e.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	err = common.WithRetry(ctx, func() error {
		return e.writeData(ctx, spreadsheetID, values)
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	if e.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return e.applyFormatting(ctx, spreadsheetID, len(values))
		}, retryOpts)
		if err != nil {
			// Formatting is cosmetic; the data is already there.
			e.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	e.logger.Info("report export completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(values))

	return nil
}

// createSheetsService creates a Google Sheets API service using either a
// service account key or an OAuth2 refresh token.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath) // #nosec G304
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		oauthConfig := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsScope},
		}

		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}

		tokenSource = oauthConfig.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// getOrCreateSpreadsheet gets the configured spreadsheet or creates a new one.
func (e *Exporter) getOrCreateSpreadsheet(ctx context.Context) (string, error) {
	if e.config.SpreadsheetID != "" {
		_, err := e.service.Spreadsheets.Get(e.config.SpreadsheetID).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("unable to access spreadsheet %s: %w", e.config.SpreadsheetID, err)
		}
		return e.config.SpreadsheetID, nil
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    e.config.SpreadsheetName,
			TimeZone: e.config.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{
				Properties: &sheets.SheetProperties{
					Title: "Report",
				},
			},
		},
	}

	created, err := e.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	e.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	return created.SpreadsheetId, nil
}

// clearSheet clears all data from the sheet.
func (e *Exporter) clearSheet(ctx context.Context, spreadsheetID string) error {
	_, err := e.service.Spreadsheets.Values.Clear(spreadsheetID, "A:Z", &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// prepareReportData lays the report out as spreadsheet rows.
func (e *Exporter) prepareReportData(transactions []model.Transaction, summary *service.ReportSummary) [][]any {
	estimatedRows := 20 + len(summary.ByCategory) + len(summary.TopCustomers) + len(transactions)
	values := make([][]any, 0, estimatedRows)

	values = append(values,
		[]any{
			"Financial Report",
			fmt.Sprintf("%s - %s", summary.Start.Format("Jan 2, 2006"), summary.End.Format("Jan 2, 2006")),
		},
		[]any{},
		[]any{"Summary"},
		[]any{"Revenue", summary.TotalRevenue},
		[]any{"Expenses", summary.TotalExpenses},
		[]any{"Balance", summary.Balance},
		[]any{},
		[]any{"Category Breakdown"},
		[]any{"Code", "Category", "Type", "Count", "Amount"},
	)

	for _, cat := range summary.ByCategory {
		values = append(values, []any{
			cat.Code,
			cat.Name,
			string(cat.Type),
			cat.Count,
			cat.Amount,
		})
	}

	values = append(values,
		[]any{},
		[]any{"Top Customers"},
		[]any{"Customer", "Payments", "Amount"},
	)
	for _, customer := range summary.TopCustomers {
		values = append(values, []any{
			customer.Name,
			customer.Count,
			customer.Amount,
		})
	}

	values = append(values,
		[]any{},
		[]any{"Reconciliation"},
		[]any{"Pending", summary.Reconciliation.Unreconciled},
		[]any{"Automatic", summary.Reconciliation.Auto},
		[]any{"Manual", summary.Reconciliation.Manual},
	)

	values = append(values,
		[]any{},
		[]any{},
		[]any{"Transaction Details"},
		[]any{
			"Date",
			"Description",
			"Customer",
			"Amount",
			"Type",
			"Category",
			"Status",
			"Notes",
		})

	for _, txn := range transactions {
		category := ""
		if txn.CategoryID != nil {
			category = fmt.Sprintf("%d", *txn.CategoryID)
		}
		values = append(values, []any{
			txn.Date.Format("2006-01-02"),
			txn.Description,
			txn.CustomerName,
			txn.Amount,
			string(txn.Type),
			category,
			string(txn.Reconciliation),
			txn.Notes,
		})
	}

	return values
}

// writeData writes the rows to the spreadsheet in batches.
func (e *Exporter) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	for i := 0; i < len(values); i += e.config.BatchSize {
		end := i + e.config.BatchSize
		if end > len(values) {
			end = len(values)
		}

		valueRange := &sheets.ValueRange{
			Values: values[i:end],
		}

		rangeStr := fmt.Sprintf("A%d", i+1)
		_, err := e.service.Spreadsheets.Values.Update(spreadsheetID, rangeStr, valueRange).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		e.logger.Debug("wrote batch", "start_row", i+1, "rows", end-i)
	}

	return nil
}

// applyFormatting bolds the headers, formats the currency column and freezes
// the title row.
func (e *Exporter) applyFormatting(ctx context.Context, spreadsheetID string, totalRows int) error {
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          0,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   2,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{
							Bold:     true,
							FontSize: 16,
						},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          0,
					StartRowIndex:    2,
					EndRowIndex:      int64(totalRows),
					StartColumnIndex: 0,
					EndColumnIndex:   1,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{
							Bold: true,
						},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          0,
					StartRowIndex:    0,
					EndRowIndex:      int64(totalRows),
					StartColumnIndex: 3,
					EndColumnIndex:   4,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						NumberFormat: &sheets.NumberFormat{
							Type:    "CURRENCY",
							Pattern: "R$ #,##0.00",
						},
					},
				},
				Fields: "userEnteredFormat.numberFormat",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    0,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   8,
				},
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId: 0,
					GridProperties: &sheets.GridProperties{
						FrozenRowCount: 1,
					},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}

	batchUpdate := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}

	_, err := e.service.Spreadsheets.BatchUpdate(spreadsheetID, batchUpdate).Context(ctx).Do()
	return err
}
