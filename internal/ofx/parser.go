// Package ofx parses OFX/QFX bank statements into transactions, so bank
// movements outside the billing platform can join the same reconciliation
// flow.
package ofx

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/google/uuid"

	"github.com/contaflow/contaflow/internal/model"
)

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// preprocess fixes common formatting issues in exported OFX files:
// leading blank lines, mixed-case SEVERITY values, and SGML-style tags
// missing their closing bracket.
func (p *Parser) preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

// ofxTypeMap translates OFX transaction types to the local enum. Anything
// missing falls through to TypeOther.
var ofxTypeMap = map[string]model.TransactionType{
	"CREDIT":    model.TypePayment,
	"DEP":       model.TypePayment,
	"DIRECTDEP": model.TypePayment,
	"DEBIT":     model.TypeTransfer,
	"XFER":      model.TypeTransfer,
	"PAYMENT":   model.TypeTransfer,
	"FEE":       model.TypePaymentFee,
	"SRVCHG":    model.TypePaymentFee,
}

// ParseFile parses an OFX/QFX statement and returns its transactions.
// Amounts keep the statement's sign: credits positive, debits negative.
func (p *Parser) ParseFile(reader io.Reader) ([]model.Transaction, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("parsing OFX file: %w", err)
	}

	var transactions []model.Transaction
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			accountID := string(stmt.BankAcctFrom.AcctID)
			for _, ofxTxn := range stmt.BankTranList.Transactions {
				transactions = append(transactions, p.convert(ofxTxn, accountID))
			}
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			accountID := string(stmt.CCAcctFrom.AcctID)
			for _, ofxTxn := range stmt.BankTranList.Transactions {
				transactions = append(transactions, p.convert(ofxTxn, accountID))
			}
		}
	}

	return transactions, nil
}

func (p *Parser) convert(ofxTxn ofxgo.Transaction, accountID string) model.Transaction {
	amount, _ := ofxTxn.TrnAmt.Float64()

	description := strings.TrimSpace(string(ofxTxn.Name))
	if memo := strings.TrimSpace(string(ofxTxn.Memo)); memo != "" && memo != description {
		if description == "" {
			description = memo
		} else {
			description = description + " - " + memo
		}
	}

	txnType, ok := ofxTypeMap[strings.ToUpper(fmt.Sprintf("%v", ofxTxn.TrnType))]
	if !ok {
		txnType = model.TypeOther
	}

	// Statements from the same bank always carry the same FITID for the
	// same movement, which makes re-imports idempotent.
	fitID := string(ofxTxn.FiTID)
	if fitID == "" {
		fitID = uuid.NewString()
	}

	return model.Transaction{
		ID:          fmt.Sprintf("ofx:%s:%s", accountID, fitID),
		Date:        ofxTxn.DtPosted.Time,
		Description: description,
		Type:        txnType,
		Amount:      amount,
	}
}
