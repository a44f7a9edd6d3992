// Package sync orchestrates data flow between the billing platform and
// local storage: pulling customers, subscriptions, statement transactions
// and payment links, and pushing locally created records.
package sync

import (
	"fmt"

	"github.com/contaflow/contaflow/internal/service"
)

const (
	// pageSize is how many records each list call requests.
	pageSize = 100
	// maxPages bounds a single import run; a full page count past this
	// means something is wrong with the pagination loop, not the data.
	maxPages = 50
)

// Report tallies the outcome of one sync run. Individual record failures
// are collected instead of aborting the run.
type Report struct {
	Errors   []string
	Imported int
	Updated  int
	Skipped  int
}

func (r *Report) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Total returns how many records the run touched.
func (r *Report) Total() int {
	return r.Imported + r.Updated + r.Skipped
}

// Syncer coordinates pulls and pushes against the billing platform.
type Syncer struct {
	store  service.Storage
	client service.BillingClient
}

// New creates a Syncer.
func New(store service.Storage, client service.BillingClient) *Syncer {
	return &Syncer{store: store, client: client}
}

// ProgressFunc is invoked after each processed record during imports.
type ProgressFunc func(done int)
