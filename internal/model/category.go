package model

import "time"

// CategoryType indicates whether a chart-of-accounts node is revenue or expense.
type CategoryType string

const (
	// CategoryRevenue marks income categories.
	CategoryRevenue CategoryType = "revenue"
	// CategoryExpense marks expense categories.
	CategoryExpense CategoryType = "expense"
)

// Category is a chart-of-accounts node. Categories form a tree through
// ParentID and are the targets of categorization rules.
type Category struct {
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ParentID    *int64
	Code        string
	Name        string
	Description string
	Type        CategoryType
	ID          int64
	IsActive    bool
}
