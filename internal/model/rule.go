package model

import (
	"strings"
	"time"
)

// RuleField names the transaction attribute a rule inspects.
type RuleField string

const (
	// FieldDescription matches against the transaction description.
	FieldDescription RuleField = "description"
	// FieldType matches against the transaction type code.
	FieldType RuleField = "type"
	// FieldCustomer matches against the linked customer's display name.
	FieldCustomer RuleField = "customer"
)

// RuleOperator is the string comparison a rule applies.
type RuleOperator string

const (
	// OperatorContains is a substring test.
	OperatorContains RuleOperator = "contains"
	// OperatorEquals is an exact match.
	OperatorEquals RuleOperator = "equals"
	// OperatorStartsWith is a prefix test.
	OperatorStartsWith RuleOperator = "starts_with"
	// OperatorEndsWith is a suffix test.
	OperatorEndsWith RuleOperator = "ends_with"
)

// Rule is a single categorization predicate: when it matches a transaction,
// the engine assigns CategoryID and marks the transaction auto-reconciled.
// Active rules are evaluated by descending priority, ties broken by
// ascending id, so evaluation order is deterministic.
type Rule struct {
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Name         string
	Value        string
	CategoryCode string
	Field        RuleField
	Operator     RuleOperator
	ID           int64
	CategoryID   int64
	Priority     int
	TimesApplied int
	IsActive     bool
}

// fieldValue extracts the attribute named by the rule's Field. A transaction
// without a linked customer yields an empty customer name, never an error.
func (r *Rule) fieldValue(txn *Transaction) string {
	switch r.Field {
	case FieldDescription:
		return txn.Description
	case FieldType:
		return string(txn.Type)
	case FieldCustomer:
		return txn.CustomerName
	}
	return ""
}

// Matches reports whether the rule's predicate holds for the transaction.
// All comparisons are case-insensitive.
func (r *Rule) Matches(txn *Transaction) bool {
	value := strings.ToLower(r.fieldValue(txn))
	want := strings.ToLower(r.Value)

	switch r.Operator {
	case OperatorContains:
		return strings.Contains(value, want)
	case OperatorEquals:
		return value == want
	case OperatorStartsWith:
		return strings.HasPrefix(value, want)
	case OperatorEndsWith:
		return strings.HasSuffix(value, want)
	}
	return false
}
