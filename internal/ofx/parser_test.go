package ofx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contaflow/contaflow/internal/model"
)

const sampleBankOFX = `OFXHEADER:100
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
<TRNTYPE>CREDIT
<DTPOSTED>20260805120000[0:GMT]
<TRNAMT>1500.00
<FITID>2026080501
<NAME>TED RECEBIDA ACME LTDA
</STMTTRN>
<STMTTRN>
<TRNTYPE>FEE
<DTPOSTED>20260810120000[0:GMT]
<TRNAMT>-12.90
<FITID>2026081001
<NAME>TARIFA PACOTE SERVICOS
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20260812120000[0:GMT]
<TRNAMT>-300.00
<FITID>2026081201
<NAME>PIX ENVIADO
<MEMO>Fornecedor XYZ
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1187.10
<DTASOF>20260831120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func TestParseFile(t *testing.T) {
	parser := NewParser()

	transactions, err := parser.ParseFile(strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	require.Len(t, transactions, 3)

	credit := transactions[0]
	assert.Equal(t, "ofx:12345-6:2026080501", credit.ID)
	assert.InDelta(t, 1500.00, credit.Amount, 0.001)
	assert.Equal(t, model.TypePayment, credit.Type)
	assert.Equal(t, "TED RECEBIDA ACME LTDA", credit.Description)
	assert.Equal(t, 2026, credit.Date.Year())

	fee := transactions[1]
	assert.Equal(t, model.TypePaymentFee, fee.Type)
	// Sign is kept: fees stay negative.
	assert.InDelta(t, -12.90, fee.Amount, 0.001)

	debit := transactions[2]
	assert.Equal(t, model.TypeTransfer, debit.Type)
	assert.Equal(t, "PIX ENVIADO - Fornecedor XYZ", debit.Description)
}

func TestParseFileInvalid(t *testing.T) {
	parser := NewParser()

	_, err := parser.ParseFile(strings.NewReader("this is not an OFX file"))
	assert.Error(t, err)
}

func TestPreprocess(t *testing.T) {
	parser := NewParser()

	input := "\n\n  OFXHEADER:100\n<SEVERITY>Info</SEVERITY>\n<DTSERVER\n"
	got := parser.preprocess(input)

	assert.True(t, strings.HasPrefix(got, "OFXHEADER"))
	assert.Contains(t, got, "<SEVERITY>INFO</SEVERITY>")
	assert.Contains(t, got, "<DTSERVER>")
}
