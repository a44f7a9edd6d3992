package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contaflow/contaflow/internal/common"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "mobile without country code",
			input: "81999216560",
			want:  "5581999216560",
		},
		{
			name:  "already normalized",
			input: "5581999216560",
			want:  "5581999216560",
		},
		{
			name:  "formatted number",
			input: "+55 (81) 99921-6560",
			want:  "5581999216560",
		},
		{
			name:  "landline without country code",
			input: "8133334444",
			want:  "558133334444",
		},
		{
			name:  "local number in area code 55",
			input: "5599216560",
			want:  "555599216560",
		},
		{
			name:    "too short",
			input:   "999216560",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			name:    "letters only",
			input:   "not-a-phone",
			wantErr: true,
		},
		{
			name:    "too long",
			input:   "55819992165600",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrInvalidPhone)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
