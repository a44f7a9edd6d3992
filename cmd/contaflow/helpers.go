package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/contaflow/contaflow/internal/asaas"
	"github.com/contaflow/contaflow/internal/cli"
	"github.com/contaflow/contaflow/internal/common"
	"github.com/contaflow/contaflow/internal/config"
	"github.com/contaflow/contaflow/internal/service"
	"github.com/contaflow/contaflow/internal/storage"
	"github.com/contaflow/contaflow/internal/sync"
	"github.com/contaflow/contaflow/internal/whatsapp"
)

// initStorage opens the database and runs any pending migrations.
func initStorage(ctx context.Context) (service.Storage, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// newBillingClient builds the Asaas API client from configuration.
func newBillingClient() (service.BillingClient, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateBilling(); err != nil {
		return nil, common.NewUserError(
			"Asaas is not configured; set asaas.api_key in the config file or CONTAFLOW_ASAAS_API_KEY", err)
	}

	return asaas.NewClient(asaas.Config{
		BaseURL: cfg.Billing.BaseURL,
		APIKey:  cfg.Billing.APIKey,
		Timeout: cfg.Billing.Timeout,
	})
}

// newMessagingClient builds the WhatsApp client from configuration.
func newMessagingClient() (service.MessagingClient, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateMessaging(); err != nil {
		return nil, common.NewUserError(
			"WhatsApp is not configured; set the whatsapp.* keys in the config file", err)
	}

	return whatsapp.NewClient(whatsapp.Config{
		Provider:   cfg.Messaging.Provider,
		APIURL:     cfg.Messaging.APIURL,
		APIKey:     cfg.Messaging.APIKey,
		InstanceID: cfg.Messaging.InstanceID,
		Token:      cfg.Messaging.Token,
		Timeout:    30 * time.Second,
	})
}

// newSyncer wires storage and the billing client together. The returned
// cleanup closes the database.
func newSyncer(ctx context.Context) (*sync.Syncer, service.Storage, func(), error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	client, err := newBillingClient()
	if err != nil {
		_ = store.Close()
		return nil, nil, nil, err
	}

	cleanup := func() { _ = store.Close() }
	return sync.New(store, client), store, cleanup, nil
}

// newProgressBar builds a spinner-style progress bar for imports whose total
// is unknown up front.
func newProgressBar(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+description+"[reset]"),
		progressbar.OptionSpinnerType(14),
	)
}

// printSyncReport summarizes an import run, listing per-record errors.
func printSyncReport(report *sync.Report) {
	fmt.Println(cli.FormatSuccess(fmt.Sprintf(
		"%d imported, %d updated, %d skipped",
		report.Imported, report.Updated, report.Skipped)))

	for _, msg := range report.Errors {
		fmt.Println(cli.FormatWarning(msg))
	}
}

// parseDateFlag parses a YYYY-MM-DD flag value.
func parseDateFlag(value, name string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s date %q: use YYYY-MM-DD", name, value)
	}
	return t, nil
}

// monthRange returns the first and last day of the current month.
func monthRange(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, -1)
	return start, end
}
