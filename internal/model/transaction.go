package model

import "time"

// TransactionType is the local classification of a financial movement.
type TransactionType string

// Transaction types. Imported records carry the platform's type code;
// anything unrecognized maps to TypeOther.
const (
	TypePayment         TransactionType = "PAYMENT"
	TypePaymentFee      TransactionType = "PAYMENT_FEE"
	TypeTransfer        TransactionType = "TRANSFER"
	TypeTransferFee     TransactionType = "TRANSFER_FEE"
	TypeRefund          TransactionType = "REFUND"
	TypeChargeback      TransactionType = "CHARGEBACK"
	TypeAnticipation    TransactionType = "ANTICIPATION"
	TypeAnticipationFee TransactionType = "ANTICIPATION_FEE"
	TypeOther           TransactionType = "OTHER"
)

var knownTransactionTypes = map[string]TransactionType{
	"PAYMENT":          TypePayment,
	"PAYMENT_FEE":      TypePaymentFee,
	"TRANSFER":         TypeTransfer,
	"TRANSFER_FEE":     TypeTransferFee,
	"REFUND":           TypeRefund,
	"CHARGEBACK":       TypeChargeback,
	"ANTICIPATION":     TypeAnticipation,
	"ANTICIPATION_FEE": TypeAnticipationFee,
}

// MapTransactionType converts an external type code to the local enum,
// falling back to TypeOther for codes the system does not track.
func MapTransactionType(code string) TransactionType {
	if t, ok := knownTransactionTypes[code]; ok {
		return t
	}
	return TypeOther
}

// ReconciliationStatus tracks how (and whether) a transaction was matched
// to a chart-of-accounts category.
type ReconciliationStatus string

const (
	// Unreconciled transactions have no category assigned yet.
	Unreconciled ReconciliationStatus = "unreconciled"
	// ReconciledAuto means the categorization engine assigned the category.
	ReconciledAuto ReconciliationStatus = "auto"
	// ReconciledManual means an operator assigned the category.
	ReconciledManual ReconciliationStatus = "manual"
)

// Transaction is a single financial movement. Core fields (date, description,
// type, amount, external id) are immutable once imported; only the category
// and reconciliation fields change afterwards.
type Transaction struct {
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Date           time.Time
	CustomerID     *int64
	SubscriptionID *int64
	CategoryID     *int64
	ID             string
	Description    string
	CustomerName   string
	Notes          string
	RawPayload     string
	Type           TransactionType
	Reconciliation ReconciliationStatus
	Amount         float64
	Synced         bool
}
