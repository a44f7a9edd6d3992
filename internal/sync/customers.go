package sync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/contaflow/contaflow/internal/model"
	"github.com/contaflow/contaflow/internal/service"
)

func customerFromBilling(bc service.BillingCustomer) *model.Customer {
	return &model.Customer{
		Name:          bc.Name,
		CpfCnpj:       bc.CpfCnpj,
		Email:         bc.Email,
		Phone:         bc.Phone,
		MobilePhone:   bc.MobilePhone,
		Address:       bc.Address,
		AddressNumber: bc.AddressNumber,
		Complement:    bc.Complement,
		Province:      bc.Province,
		PostalCode:    bc.PostalCode,
		Notes:         bc.Observations,
		AsaasID:       bc.ID,
	}
}

// PullCustomers imports every customer from the billing platform, paging
// until the platform reports no more records.
func (s *Syncer) PullCustomers(ctx context.Context, progress ProgressFunc) (*Report, error) {
	report := &Report{}

	for pageNum := 0; pageNum < maxPages; pageNum++ {
		customers, hasMore, err := s.client.ListCustomers(ctx, pageSize, pageNum*pageSize)
		if err != nil {
			return report, fmt.Errorf("fetching customer page %d: %w", pageNum, err)
		}

		for _, bc := range customers {
			created, err := s.store.UpsertCustomerByAsaasID(ctx, customerFromBilling(bc))
			if err != nil {
				report.addError("customer %s (%s): %v", bc.ID, bc.Name, err)
			} else if created {
				report.Imported++
			} else {
				report.Updated++
			}
			if progress != nil {
				progress(report.Total() + len(report.Errors))
			}
		}

		// A short page means the listing is exhausted even if the
		// platform's hasMore flag disagrees.
		if !hasMore || len(customers) < pageSize {
			break
		}
	}

	slog.Info("customer pull finished",
		"imported", report.Imported,
		"updated", report.Updated,
		"errors", len(report.Errors))
	return report, nil
}

// PushCustomer registers a local customer on the billing platform and links
// the returned external ID. Customers that already carry an external ID are
// updated in place.
func (s *Syncer) PushCustomer(ctx context.Context, customer *model.Customer) error {
	bc := service.BillingCustomer{
		Name:          customer.Name,
		CpfCnpj:       customer.CpfCnpj,
		Email:         customer.Email,
		Phone:         customer.Phone,
		MobilePhone:   customer.MobilePhone,
		Address:       customer.Address,
		AddressNumber: customer.AddressNumber,
		Complement:    customer.Complement,
		Province:      customer.Province,
		PostalCode:    customer.PostalCode,
		Observations:  customer.Notes,
	}

	if customer.AsaasID != "" {
		if err := s.client.UpdateCustomer(ctx, customer.AsaasID, bc); err != nil {
			return fmt.Errorf("pushing customer update: %w", err)
		}
	} else {
		id, err := s.client.CreateCustomer(ctx, bc)
		if err != nil {
			return fmt.Errorf("pushing new customer: %w", err)
		}
		customer.AsaasID = id
	}

	customer.Synced = true
	if err := s.store.UpdateCustomer(ctx, customer); err != nil {
		// The platform accepted the record; losing the local link would
		// duplicate the customer on the next push.
		return fmt.Errorf("recording external id %s: %w", customer.AsaasID, err)
	}
	return nil
}
