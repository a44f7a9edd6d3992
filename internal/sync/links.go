package sync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/contaflow/contaflow/internal/model"
	"github.com/contaflow/contaflow/internal/service"
)

func linkStatus(active bool) model.PaymentLinkStatus {
	if active {
		return model.PaymentLinkActive
	}
	return model.PaymentLinkInactive
}

// PullPaymentLinks imports every payment link hosted on the billing
// platform.
func (s *Syncer) PullPaymentLinks(ctx context.Context, progress ProgressFunc) (*Report, error) {
	report := &Report{}

	for pageNum := 0; pageNum < maxPages; pageNum++ {
		links, hasMore, err := s.client.ListPaymentLinks(ctx, pageSize, pageNum*pageSize)
		if err != nil {
			return report, fmt.Errorf("fetching payment link page %d: %w", pageNum, err)
		}

		for _, bl := range links {
			link := &model.PaymentLink{
				AsaasID:          bl.ID,
				Name:             bl.Name,
				Description:      bl.Description,
				URL:              bl.URL,
				BillingType:      model.BillingType(bl.BillingType),
				ChargeType:       model.ChargeType(bl.ChargeType),
				Status:           linkStatus(bl.Active),
				Value:            bl.Value,
				DueDateLimitDays: bl.DueDateLimitDays,
				MaxInstallments:  bl.MaxInstallments,
			}

			created, err := s.store.UpsertPaymentLinkByAsaasID(ctx, link)
			if err != nil {
				report.addError("payment link %s (%s): %v", bl.ID, bl.Name, err)
			} else if created {
				report.Imported++
			} else {
				report.Updated++
			}
			if progress != nil {
				progress(report.Total() + len(report.Errors))
			}
		}

		if !hasMore || len(links) < pageSize {
			break
		}
	}

	slog.Info("payment link pull finished",
		"imported", report.Imported,
		"updated", report.Updated,
		"errors", len(report.Errors))
	return report, nil
}

// PushPaymentLink creates a local payment link on the billing platform and
// stores the hosted URL and external ID.
func (s *Syncer) PushPaymentLink(ctx context.Context, link *model.PaymentLink) error {
	if link.AsaasID != "" {
		return fmt.Errorf("payment link %q is already on the billing platform", link.Name)
	}

	created, err := s.client.CreatePaymentLink(ctx, service.BillingPaymentLink{
		Name:             link.Name,
		Description:      link.Description,
		BillingType:      string(link.BillingType),
		ChargeType:       string(link.ChargeType),
		Value:            link.Value,
		DueDateLimitDays: link.DueDateLimitDays,
		MaxInstallments:  link.MaxInstallments,
	})
	if err != nil {
		return fmt.Errorf("pushing payment link: %w", err)
	}

	link.AsaasID = created.ID
	link.URL = created.URL
	link.Status = linkStatus(created.Active)
	link.Synced = true

	if link.ID == 0 {
		if err := s.store.CreatePaymentLink(ctx, link); err != nil {
			return fmt.Errorf("recording payment link: %w", err)
		}
		return nil
	}
	if err := s.store.UpdatePaymentLink(ctx, link); err != nil {
		return fmt.Errorf("recording payment link %s: %w", link.AsaasID, err)
	}
	return nil
}
