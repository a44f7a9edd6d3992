// Package engine applies categorization rules to imported transactions.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/contaflow/contaflow/internal/model"
	"github.com/contaflow/contaflow/internal/service"
)

// Engine evaluates the active rule set against transactions and records
// matches as auto-reconciled categorizations.
type Engine struct {
	store service.Storage
}

// New creates a categorization engine backed by the given storage.
func New(store service.Storage) *Engine {
	return &Engine{store: store}
}

// Categorize runs the active rules against one transaction. Rules are
// evaluated by descending priority, ties broken by ascending id, and the
// first match wins: the transaction gets the rule's category, becomes
// auto-reconciled, and the rule's application counter is bumped.
//
// Transactions that are already reconciled are left untouched and report no
// match.
func (e *Engine) Categorize(ctx context.Context, txn *model.Transaction) (bool, error) {
	if txn == nil {
		return false, fmt.Errorf("transaction cannot be nil")
	}
	if txn.Reconciliation != model.Unreconciled && txn.Reconciliation != "" {
		return false, nil
	}

	rules, err := e.store.GetActiveRules(ctx)
	if err != nil {
		return false, fmt.Errorf("loading rules: %w", err)
	}

	return e.applyFirstMatch(ctx, txn, rules)
}

// CategorizeAll runs the active rules against every unreconciled transaction
// in insertion order and returns how many were categorized. The rule set is
// loaded once for the whole batch.
func (e *Engine) CategorizeAll(ctx context.Context) (int, error) {
	rules, err := e.store.GetActiveRules(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading rules: %w", err)
	}
	if len(rules) == 0 {
		return 0, nil
	}

	pending, err := e.store.GetUnreconciledTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading unreconciled transactions: %w", err)
	}

	matched := 0
	for i := range pending {
		ok, err := e.applyFirstMatch(ctx, &pending[i], rules)
		if err != nil {
			return matched, err
		}
		if ok {
			matched++
		}
	}

	slog.Info("categorization batch finished",
		"scanned", len(pending),
		"matched", matched)
	return matched, nil
}

func (e *Engine) applyFirstMatch(ctx context.Context, txn *model.Transaction, rules []model.Rule) (bool, error) {
	for i := range rules {
		rule := &rules[i]
		if !rule.Matches(txn) {
			continue
		}

		if err := e.store.ApplyCategorization(ctx, txn.ID, rule.CategoryID); err != nil {
			return false, fmt.Errorf("applying rule %d to transaction %s: %w", rule.ID, txn.ID, err)
		}
		if err := e.store.IncrementRuleTimesApplied(ctx, rule.ID); err != nil {
			return false, fmt.Errorf("updating rule %d counter: %w", rule.ID, err)
		}

		txn.CategoryID = &rule.CategoryID
		txn.Reconciliation = model.ReconciledAuto

		slog.Debug("rule matched",
			"rule_id", rule.ID,
			"transaction_id", txn.ID,
			"category_id", rule.CategoryID)
		return true, nil
	}
	return false, nil
}

// DryRun evaluates the active rules against one transaction without writing
// anything. It returns the rule that would fire, or nil.
func (e *Engine) DryRun(ctx context.Context, txn *model.Transaction) (*model.Rule, error) {
	if txn == nil {
		return nil, fmt.Errorf("transaction cannot be nil")
	}

	rules, err := e.store.GetActiveRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}

	for i := range rules {
		if rules[i].Matches(txn) {
			return &rules[i], nil
		}
	}
	return nil, nil
}
