package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/contaflow/contaflow/internal/common"
	"github.com/contaflow/contaflow/internal/engine"
	"github.com/contaflow/contaflow/internal/model"
)

// PullTransactions imports the platform's financial statement for a date
// range. New transactions are run through the categorization engine right
// away; existing ones only get their core fields refreshed, preserving any
// reconciliation already done.
func (s *Syncer) PullTransactions(ctx context.Context, eng *engine.Engine, dateFrom, dateTo time.Time, progress ProgressFunc) (*Report, error) {
	report := &Report{}

	for pageNum := 0; pageNum < maxPages; pageNum++ {
		records, hasMore, err := s.client.ListFinancialTransactions(ctx, dateFrom, dateTo, pageSize, pageNum*pageSize)
		if err != nil {
			return report, fmt.Errorf("fetching statement page %d: %w", pageNum, err)
		}

		for _, record := range records {
			txn := &model.Transaction{
				ID:          record.ID,
				Date:        record.Date,
				Description: record.Description,
				Type:        model.MapTransactionType(record.Type),
				Amount:      record.Value,
				RawPayload:  record.RawPayload,
				Synced:      true,
			}

			if record.CustomerID != "" {
				customer, err := s.store.GetCustomerByAsaasID(ctx, record.CustomerID)
				switch {
				case err == nil:
					txn.CustomerID = &customer.ID
					txn.CustomerName = customer.Name
				case errors.Is(err, common.ErrNotFound):
					// Leave the transaction unlinked; a later customer
					// pull plus re-import will connect it.
				default:
					report.addError("transaction %s: resolving customer %s: %v", record.ID, record.CustomerID, err)
					continue
				}
			}

			created, err := s.store.UpsertTransaction(ctx, txn)
			if err != nil {
				report.addError("transaction %s: %v", record.ID, err)
				continue
			}

			if created {
				report.Imported++
				if eng != nil {
					if _, err := eng.Categorize(ctx, txn); err != nil {
						report.addError("categorizing transaction %s: %v", txn.ID, err)
					}
				}
			} else {
				report.Updated++
			}

			if progress != nil {
				progress(report.Total() + len(report.Errors))
			}
		}

		if !hasMore || len(records) < pageSize {
			break
		}
	}

	slog.Info("transaction import finished",
		"from", dateFrom.Format("2006-01-02"),
		"to", dateTo.Format("2006-01-02"),
		"imported", report.Imported,
		"updated", report.Updated,
		"errors", len(report.Errors))
	return report, nil
}
