package sync

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/contaflow/contaflow/internal/engine"
	"github.com/contaflow/contaflow/internal/ofx"
)

// ImportOFX imports a bank statement file. Statement entries behave like
// pulled transactions: idempotent by ID, and new ones are run through the
// categorization engine.
func (s *Syncer) ImportOFX(ctx context.Context, reader io.Reader, eng *engine.Engine, progress ProgressFunc) (*Report, error) {
	report := &Report{}

	transactions, err := ofx.NewParser().ParseFile(reader)
	if err != nil {
		return report, fmt.Errorf("parsing statement: %w", err)
	}

	for i := range transactions {
		txn := &transactions[i]
		created, err := s.store.UpsertTransaction(ctx, txn)
		if err != nil {
			report.addError("transaction %s: %v", txn.ID, err)
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

	slog.Info("statement import finished",
		"imported", report.Imported,
		"updated", report.Updated,
		"errors", len(report.Errors))
	return report, nil
}
