package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"event_id":"evt_1"}`)
	secret := "whsec_abc"
	sig := ComputeSignature(payload, secret)

	tests := []struct {
		name      string
		payload   []byte
		signature string
		secret    string
		want      bool
	}{
		{"valid signature", payload, sig, secret, true},
		{"surrounding whitespace trimmed", payload, "  " + sig + " ", secret, true},
		{"wrong secret", payload, sig, "whsec_other", false},
		{"tampered payload", []byte(`{"event_id":"evt_2"}`), sig, secret, false},
		{"empty signature", payload, "", secret, false},
		{"empty secret", payload, sig, "", false},
		{"not hex", payload, "zzzz", secret, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifySignature(tt.payload, tt.signature, tt.secret))
		})
	}
}
