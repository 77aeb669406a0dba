package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitFees(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		gross          int64
		wantPlatform   int64
		wantProcessing int64
		wantNet        int64
	}{
		{
			name:           "even amount",
			gross:          1000,
			wantPlatform:   100,
			wantProcessing: 29,
			wantNet:        871,
		},
		{
			name:           "remainder goes to the creator",
			gross:          999,
			wantPlatform:   99,
			wantProcessing: 28,
			wantNet:        872,
		},
		{
			name:           "one cent",
			gross:          1,
			wantPlatform:   0,
			wantProcessing: 0,
			wantNet:        1,
		},
		{
			name:           "large amount",
			gross:          1_000_000,
			wantPlatform:   100_000,
			wantProcessing: 29_000,
			wantNet:        871_000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			platform, processing, net := SplitFees(tt.gross)
			assert.Equal(t, tt.wantPlatform, platform)
			assert.Equal(t, tt.wantProcessing, processing)
			assert.Equal(t, tt.wantNet, net)
		})
	}
}

func TestSplitFeesConservation(t *testing.T) {
	t.Parallel()

	for gross := int64(1); gross <= 5000; gross++ {
		platform, processing, net := SplitFees(gross)
		assert.Equal(t, gross, platform+processing+net, "gross %d", gross)
		assert.GreaterOrEqual(t, net, int64(0))
	}
}
