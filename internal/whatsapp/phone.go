// Package whatsapp implements the messaging gateway clients used to notify
// customers over WhatsApp.
package whatsapp

import (
	"fmt"
	"strings"

	"github.com/contaflow/contaflow/internal/common"
)

// NormalizePhone converts a phone number to the international digits-only
// form the gateways expect: non-digits are stripped and the Brazilian
// country code 55 is prepended when absent. The result is 12 or 13 digits
// (55 + area code + 8 or 9 digit number).
func NormalizePhone(phone string) (string, error) {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	normalized := digits.String()
	if len(normalized) < 10 {
		return "", fmt.Errorf("%w: %q has too few digits", common.ErrInvalidPhone, phone)
	}

	if !strings.HasPrefix(normalized, "55") || len(normalized) < 12 {
		normalized = "55" + normalized
	}

	if len(normalized) != 12 && len(normalized) != 13 {
		return "", fmt.Errorf("%w: %q normalizes to %d digits", common.ErrInvalidPhone, phone, len(normalized))
	}
	return normalized, nil
}
