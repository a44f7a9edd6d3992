package model

import "time"

// BillingCycle is how often a subscription charges.
type BillingCycle string

// Billing cycles accepted by the payment platform.
const (
	CycleWeekly       BillingCycle = "WEEKLY"
	CycleBiweekly     BillingCycle = "BIWEEKLY"
	CycleMonthly      BillingCycle = "MONTHLY"
	CycleQuarterly    BillingCycle = "QUARTERLY"
	CycleSemiannually BillingCycle = "SEMIANNUALLY"
	CycleYearly       BillingCycle = "YEARLY"
)

// BillingType is the payment method for a charge.
type BillingType string

// Payment methods accepted by the payment platform.
const (
	BillingBoleto     BillingType = "BOLETO"
	BillingCreditCard BillingType = "CREDIT_CARD"
	BillingPix        BillingType = "PIX"
	BillingUndefined  BillingType = "UNDEFINED"
)

// SubscriptionStatus tracks the lifecycle of a subscription.
type SubscriptionStatus string

// Subscription statuses.
const (
	SubscriptionActive   SubscriptionStatus = "ACTIVE"
	SubscriptionInactive SubscriptionStatus = "INACTIVE"
	SubscriptionExpired  SubscriptionStatus = "EXPIRED"
)

// Subscription is a recurring charge against a customer.
type Subscription struct {
	CreatedAt    time.Time
	UpdatedAt    time.Time
	NextDueDate  time.Time
	EndDate      *time.Time
	MaxPayments  *int
	Description  string
	AsaasID      string
	CustomerName string
	Cycle        BillingCycle
	BillingType  BillingType
	Status       SubscriptionStatus
	Value        float64
	ID           int64
	CustomerID   int64
	Synced       bool
}
