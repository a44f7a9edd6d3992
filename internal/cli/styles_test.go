package cli

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTable(t *testing.T) {
	out := RenderTable(
		[]string{"CODE", "NAME"},
		[][]string{
			{"1.1.01", "Vendas de Produtos"},
			{"2.3.01", "Taxas Bancárias"},
		},
	)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "CODE")
	assert.Contains(t, lines[1], "1.1.01")
	assert.Contains(t, lines[2], "Taxas Bancárias")
}

func TestFormatAmount(t *testing.T) {
	assert.Contains(t, FormatAmount(1500), "R$ 1500.00")
	assert.Contains(t, FormatAmount(-12.9), "R$ -12.90")
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"yes", "y\n", true},
		{"yes full", "yes\n", true},
		{"sim", "sim\n", true},
		{"no", "n\n", false},
		{"empty defaults to no", "\n", false},
		{"eof defaults to no", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Confirm(context.Background(), strings.NewReader(tt.input), io.Discard, "Delete?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfirmCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A reader that never delivers input.
	blocked, _ := io.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := Confirm(ctx, blocked, io.Discard, "Delete?")
		assert.ErrorIs(t, err, ErrInputCancelled)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Confirm did not honor context cancellation")
	}
}
