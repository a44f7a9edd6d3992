package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/contaflow/contaflow/internal/service"
)

// Run starts the interactive reconciliation screen over the pending
// transactions. It returns how many transactions were reconciled during the
// session.
func Run(ctx context.Context, storage service.Storage) (int, error) {
	transactions, err := storage.GetUnreconciledTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading pending transactions: %w", err)
	}
	if len(transactions) == 0 {
		return 0, nil
	}

	categories, err := storage.ListCategories(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("loading categories: %w", err)
	}
	if len(categories) == 0 {
		return 0, fmt.Errorf("no categories defined; run 'contaflow categories seed' first")
	}

	program := tea.NewProgram(
		newModel(ctx, storage, transactions, categories),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	final, err := program.Run()
	if err != nil {
		return 0, fmt.Errorf("running reconcile screen: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return 0, nil
	}
	return m.reconciled, nil
}
