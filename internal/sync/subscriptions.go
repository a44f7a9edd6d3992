package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/contaflow/contaflow/internal/common"
	"github.com/contaflow/contaflow/internal/model"
	"github.com/contaflow/contaflow/internal/service"
)

// PullSubscriptions imports every subscription from the billing platform.
// A subscription whose customer is not mirrored locally triggers a single
// customer fetch; if the customer cannot be resolved the record is skipped
// and counted, never fatal.
func (s *Syncer) PullSubscriptions(ctx context.Context, progress ProgressFunc) (*Report, error) {
	report := &Report{}

	for pageNum := 0; pageNum < maxPages; pageNum++ {
		subs, hasMore, err := s.client.ListSubscriptions(ctx, "", pageSize, pageNum*pageSize)
		if err != nil {
			return report, fmt.Errorf("fetching subscription page %d: %w", pageNum, err)
		}

		for _, bs := range subs {
			s.importSubscription(ctx, bs, report)
			if progress != nil {
				progress(report.Total() + len(report.Errors))
			}
		}

		if !hasMore || len(subs) < pageSize {
			break
		}
	}

	slog.Info("subscription pull finished",
		"imported", report.Imported,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"errors", len(report.Errors))
	return report, nil
}

func (s *Syncer) importSubscription(ctx context.Context, bs service.BillingSubscription, report *Report) {
	customer, err := s.resolveCustomer(ctx, bs.CustomerID)
	if err != nil {
		slog.Warn("skipping subscription with unresolvable customer",
			"subscription_id", bs.ID,
			"customer_id", bs.CustomerID,
			"error", err)
		report.Skipped++
		return
	}

	sub := &model.Subscription{
		CustomerID:  customer.ID,
		AsaasID:     bs.ID,
		Description: bs.Description,
		Cycle:       model.BillingCycle(bs.Cycle),
		BillingType: model.BillingType(bs.BillingType),
		Status:      model.SubscriptionStatus(bs.Status),
		NextDueDate: bs.NextDueDate,
		EndDate:     bs.EndDate,
		MaxPayments: bs.MaxPayments,
		Value:       bs.Value,
	}
	if sub.Status == "" {
		sub.Status = model.SubscriptionActive
	}

	created, err := s.store.UpsertSubscriptionByAsaasID(ctx, sub)
	if err != nil {
		report.addError("subscription %s: %v", bs.ID, err)
	} else if created {
		report.Imported++
	} else {
		report.Updated++
	}
}

// resolveCustomer finds the local mirror of a platform customer, fetching
// and creating it on demand.
func (s *Syncer) resolveCustomer(ctx context.Context, asaasID string) (*model.Customer, error) {
	if asaasID == "" {
		return nil, fmt.Errorf("empty customer id")
	}

	customer, err := s.store.GetCustomerByAsaasID(ctx, asaasID)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	bc, err := s.client.GetCustomer(ctx, asaasID)
	if err != nil {
		return nil, err
	}

	customer = customerFromBilling(*bc)
	if _, err := s.store.UpsertCustomerByAsaasID(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// PushSubscription registers a local subscription on the billing platform
// and links the returned external ID. The linked customer must already be
// pushed.
func (s *Syncer) PushSubscription(ctx context.Context, sub *model.Subscription) error {
	customer, err := s.store.GetCustomer(ctx, sub.CustomerID)
	if err != nil {
		return fmt.Errorf("loading subscription customer: %w", err)
	}
	if customer.AsaasID == "" {
		return fmt.Errorf("customer %s has no billing platform id; push the customer first", customer.Name)
	}

	bs := service.BillingSubscription{
		CustomerID:  customer.AsaasID,
		Description: sub.Description,
		Cycle:       string(sub.Cycle),
		BillingType: string(sub.BillingType),
		NextDueDate: sub.NextDueDate,
		EndDate:     sub.EndDate,
		MaxPayments: sub.MaxPayments,
		Value:       sub.Value,
	}

	if sub.AsaasID != "" {
		if err := s.client.UpdateSubscription(ctx, sub.AsaasID, bs); err != nil {
			return fmt.Errorf("pushing subscription update: %w", err)
		}
	} else {
		id, err := s.client.CreateSubscription(ctx, bs)
		if err != nil {
			return fmt.Errorf("pushing new subscription: %w", err)
		}
		sub.AsaasID = id
	}

	sub.Synced = true
	if err := s.store.UpdateSubscription(ctx, sub); err != nil {
		return fmt.Errorf("recording external id %s: %w", sub.AsaasID, err)
	}
	return nil
}
