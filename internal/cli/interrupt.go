package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// InterruptHandler cancels a context on SIGINT/SIGTERM and tells the user
// that in-flight work up to that point has been committed.
type InterruptHandler struct {
	writer      io.Writer
	interrupted atomic.Bool
}

// NewInterruptHandler creates a new interrupt handler writing to writer.
func NewInterruptHandler(writer io.Writer) *InterruptHandler {
	if writer == nil {
		writer = os.Stdout
	}
	return &InterruptHandler{writer: writer}
}

// HandleInterrupts installs the signal handler and returns a context that is
// canceled on the first interrupt.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigs
		if h.interrupted.CompareAndSwap(false, true) {
			fmt.Fprintf(h.writer, "\n\n%s\n%s\n",
				FormatWarning("Interrupted!"),
				FormatInfo("Finished work has been saved."))
		}
		cancel()
	}()

	return ctx
}

// WasInterrupted reports whether an interrupt signal was received.
func (h *InterruptHandler) WasInterrupted() bool {
	return h.interrupted.Load()
}
