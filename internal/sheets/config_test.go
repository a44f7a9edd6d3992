package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/contaflow/contaflow/internal/model"
	"github.com/contaflow/contaflow/internal/service"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "no auth",
			mutate:  func(_ *Config) {},
			wantErr: "no authentication method",
		},
		{
			name: "service account only",
			mutate: func(c *Config) {
				c.ServiceAccountPath = "/tmp/key.json"
			},
		},
		{
			name: "oauth only",
			mutate: func(c *Config) {
				c.ClientID = "id"
				c.ClientSecret = "secret"
				c.RefreshToken = "token"
			},
		},
		{
			name: "both auth methods",
			mutate: func(c *Config) {
				c.ServiceAccountPath = "/tmp/key.json"
				c.ClientID = "id"
				c.ClientSecret = "secret"
				c.RefreshToken = "token"
			},
			wantErr: "multiple authentication methods",
		},
		{
			name: "zero batch size",
			mutate: func(c *Config) {
				c.ServiceAccountPath = "/tmp/key.json"
				c.BatchSize = -1000
			},
			wantErr: "batch size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPrepareReportData(t *testing.T) {
	e := &Exporter{config: DefaultConfig()}

	categoryID := int64(3)
	summary := &service.ReportSummary{
		Start: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		ByCategory: []service.CategorySummary{
			{Code: "1.1.03", Name: "Recorrências", Type: model.CategoryRevenue, Count: 2, Amount: 199.80},
		},
		TopCustomers: []service.CustomerSummary{
			{Name: "Acme Ltda", Count: 2, Amount: 199.80},
		},
		Reconciliation: service.ReconciliationStats{Unreconciled: 1, Auto: 2},
		TotalRevenue:   199.80,
		TotalExpenses:  -12.90,
		Balance:        186.90,
	}
	transactions := []model.Transaction{
		{
			ID:             "ft_1",
			Date:           time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC),
			Description:    "Assinatura mensal",
			CustomerName:   "Acme Ltda",
			Amount:         99.90,
			Type:           model.TypePayment,
			CategoryID:     &categoryID,
			Reconciliation: model.ReconciledAuto,
		},
	}

	values := e.prepareReportData(transactions, summary)

	assert.Equal(t, []any{"Financial Report", "Aug 1, 2026 - Aug 31, 2026"}, values[0])
	assert.Contains(t, values, []any{"Revenue", 199.80})
	assert.Contains(t, values, []any{"Balance", 186.90})
	assert.Contains(t, values, []any{"1.1.03", "Recorrências", "revenue", 2, 199.80})
	assert.Contains(t, values, []any{"Acme Ltda", 2, 199.80})

	last := values[len(values)-1]
	assert.Equal(t, "2026-08-05", last[0])
	assert.Equal(t, "Assinatura mensal", last[1])
	assert.Equal(t, "auto", last[6])
}
