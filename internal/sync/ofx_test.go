package sync

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contaflow/contaflow/internal/engine"
	"github.com/contaflow/contaflow/internal/model"
)

const sampleStatement = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20260815120000[0:GMT]
<LANGUAGE>POR
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>BRL
<BANKACCTFROM>
<BANKID>0341
<ACCTID>12345-6
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20260801120000[0:GMT]
<DTEND>20260831120000[0:GMT]
<STMTTRN>
<TRNTYPE>FEE
<DTPOSTED>20260810120000[0:GMT]
<TRNAMT>-12.90
<FITID>2026081001
<NAME>TARIFA PACOTE SERVICOS
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20260812120000[0:GMT]
<TRNAMT>980.00
<FITID>2026081201
<NAME>TED RECEBIDA
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>967.10
<DTASOF>20260831120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>
`

func TestImportOFX(t *testing.T) {
	syncer, store, _ := newTestSyncer(t)
	ctx := context.Background()

	cat := &model.Category{Code: "2.3.01", Name: "Taxas Bancárias", Type: model.CategoryExpense, IsActive: true}
	require.NoError(t, store.CreateCategory(ctx, cat))
	rule := &model.Rule{
		Field: model.FieldDescription, Operator: model.OperatorContains,
		Value: "tarifa", CategoryID: cat.ID, IsActive: true,
	}
	require.NoError(t, store.CreateRule(ctx, rule))

	eng := engine.New(store)
	report, err := syncer.ImportOFX(ctx, strings.NewReader(sampleStatement), eng, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)
	assert.Empty(t, report.Errors)

	fee, err := store.GetTransaction(ctx, "ofx:12345-6:2026081001")
	require.NoError(t, err)
	assert.Equal(t, model.ReconciledAuto, fee.Reconciliation)
	require.NotNil(t, fee.CategoryID)
	assert.Equal(t, cat.ID, *fee.CategoryID)

	// Re-importing the same statement is a no-op update.
	report, err = syncer.ImportOFX(ctx, strings.NewReader(sampleStatement), eng, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Imported)
	assert.Equal(t, 2, report.Updated)

	again, err := store.GetTransaction(ctx, "ofx:12345-6:2026081001")
	require.NoError(t, err)
	assert.Equal(t, model.ReconciledAuto, again.Reconciliation)
}

func TestImportOFXInvalidFile(t *testing.T) {
	syncer, _, _ := newTestSyncer(t)

	_, err := syncer.ImportOFX(context.Background(), strings.NewReader("not a statement"), nil, nil)
	assert.Error(t, err)
}
