package asaas

import (
	"fmt"
	"strings"
	"time"
)

// apiDate marshals as the platform's plain "2006-01-02" date format.
type apiDate struct {
	time.Time
}

const apiDateLayout = "2006-01-02"

func (d apiDate) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(apiDateLayout) + `"`), nil
}

func (d *apiDate) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(apiDateLayout, s)
	if err != nil {
		return fmt.Errorf("parsing date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

// listEnvelope is the platform's paginated list wrapper.
type listEnvelope[T any] struct {
	Data       []T  `json:"data"`
	HasMore    bool `json:"hasMore"`
	TotalCount int  `json:"totalCount"`
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
}

// apiError is one entry of the platform's error envelope.
type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type errorEnvelope struct {
	Errors []apiError `json:"errors"`
}

type customerPayload struct {
	Name          string `json:"name"`
	CpfCnpj       string `json:"cpfCnpj,omitempty"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	MobilePhone   string `json:"mobilePhone,omitempty"`
	Address       string `json:"address,omitempty"`
	AddressNumber string `json:"addressNumber,omitempty"`
	Complement    string `json:"complement,omitempty"`
	Province      string `json:"province,omitempty"`
	PostalCode    string `json:"postalCode,omitempty"`
	Observations  string `json:"observations,omitempty"`
}

type customerRecord struct {
	ID string `json:"id"`
	customerPayload
}

type subscriptionPayload struct {
	Customer    string   `json:"customer"`
	BillingType string   `json:"billingType"`
	Cycle       string   `json:"cycle"`
	Description string   `json:"description,omitempty"`
	NextDueDate apiDate  `json:"nextDueDate"`
	EndDate     *apiDate `json:"endDate,omitempty"`
	MaxPayments *int     `json:"maxPayments,omitempty"`
	Value       float64  `json:"value"`
}

type subscriptionRecord struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	subscriptionPayload
}

type financialTransactionRecord struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Date        apiDate `json:"date"`
	Description string  `json:"description"`
	PaymentID   string  `json:"payment"`
	Value       float64 `json:"value"`
	Balance     float64 `json:"balance"`
}

type paymentRecord struct {
	ID          string   `json:"id"`
	Customer    string   `json:"customer"`
	BillingType string   `json:"billingType"`
	Status      string   `json:"status"`
	Description string   `json:"description"`
	InvoiceURL  string   `json:"invoiceUrl"`
	DueDate     apiDate  `json:"dueDate"`
	PaymentDate *apiDate `json:"paymentDate"`
	Value       float64  `json:"value"`
	NetValue    float64  `json:"netValue"`
}

type paymentLinkPayload struct {
	Name             string   `json:"name"`
	Description      string   `json:"description,omitempty"`
	BillingType      string   `json:"billingType"`
	ChargeType       string   `json:"chargeType"`
	Value            *float64 `json:"value,omitempty"`
	DueDateLimitDays *int     `json:"dueDateLimitDays,omitempty"`
	MaxInstallments  *int     `json:"maxInstallmentCount,omitempty"`
}

type paymentLinkRecord struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Active bool   `json:"active"`
	paymentLinkPayload
}

type deletedResponse struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}
