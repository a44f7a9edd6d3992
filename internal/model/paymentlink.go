package model

import "time"

// ChargeType is how a payment link charges whoever opens it.
type ChargeType string

// Charge types supported by the payment platform.
const (
	ChargeDetached    ChargeType = "DETACHED"
	ChargeInstallment ChargeType = "INSTALLMENT"
	ChargeRecurrent   ChargeType = "RECURRENT"
)

// PaymentLinkStatus tracks whether a link can still receive payments.
type PaymentLinkStatus string

// Payment link statuses.
const (
	PaymentLinkActive   PaymentLinkStatus = "ACTIVE"
	PaymentLinkInactive PaymentLinkStatus = "INACTIVE"
	PaymentLinkExpired  PaymentLinkStatus = "EXPIRED"
)

// PaymentLink is a shareable checkout URL hosted by the payment platform.
// Value may be nil for free-amount links.
type PaymentLink struct {
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Value            *float64
	DueDateLimitDays *int
	MaxInstallments  *int
	CustomerID       *int64
	Name             string
	Description      string
	AsaasID          string
	URL              string
	BillingType      BillingType
	ChargeType       ChargeType
	Status           PaymentLinkStatus
	ID               int64
	Synced           bool
}
