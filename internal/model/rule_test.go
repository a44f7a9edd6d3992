package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRule_Matches(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		txn  Transaction
		want bool
	}{
		{
			name: "contains on description",
			rule: Rule{Field: FieldDescription, Operator: OperatorContains, Value: "taxa"},
			txn:  Transaction{Description: "Taxa Asaas - boleto"},
			want: true,
		},
		{
			name: "contains is case insensitive both ways",
			rule: Rule{Field: FieldDescription, Operator: OperatorContains, Value: "TAXA"},
			txn:  Transaction{Description: "taxa asaas"},
			want: true,
		},
		{
			name: "equals on type code",
			rule: Rule{Field: FieldType, Operator: OperatorEquals, Value: "payment_fee"},
			txn:  Transaction{Type: TypePaymentFee},
			want: true,
		},
		{
			name: "equals rejects partial match",
			rule: Rule{Field: FieldDescription, Operator: OperatorEquals, Value: "taxa"},
			txn:  Transaction{Description: "taxa asaas"},
			want: false,
		},
		{
			name: "starts_with on description",
			rule: Rule{Field: FieldDescription, Operator: OperatorStartsWith, Value: "transf"},
			txn:  Transaction{Description: "Transferência para conta corrente"},
			want: true,
		},
		{
			name: "ends_with on description",
			rule: Rule{Field: FieldDescription, Operator: OperatorEndsWith, Value: "boleto"},
			txn:  Transaction{Description: "Taxa Asaas - Boleto"},
			want: true,
		},
		{
			name: "customer field uses linked customer name",
			rule: Rule{Field: FieldCustomer, Operator: OperatorContains, Value: "silva"},
			txn:  Transaction{CustomerName: "João Silva"},
			want: true,
		},
		{
			name: "customer field without link never matches non-empty value",
			rule: Rule{Field: FieldCustomer, Operator: OperatorContains, Value: "silva"},
			txn:  Transaction{Description: "Pagamento de João Silva"},
			want: false,
		},
		{
			name: "unknown operator matches nothing",
			rule: Rule{Field: FieldDescription, Operator: RuleOperator("regex"), Value: ".*"},
			txn:  Transaction{Description: "anything"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Matches(&tt.txn))
		})
	}
}

func TestMapTransactionType(t *testing.T) {
	assert.Equal(t, TypePayment, MapTransactionType("PAYMENT"))
	assert.Equal(t, TypeAnticipationFee, MapTransactionType("ANTICIPATION_FEE"))
	assert.Equal(t, TypeOther, MapTransactionType("PIX_CASHBACK"))
	assert.Equal(t, TypeOther, MapTransactionType(""))
}
