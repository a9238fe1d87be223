package render

import (
	"math"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := map[string]struct {
		raw      *float64
		floor    float64
		ceiling  float64
		expected *float64
	}{
		"no reading stays nil": {
			raw:     nil,
			floor:   0,
			ceiling: 100,
		},
		"mid range": {
			raw:      lo.ToPtr(75.0),
			floor:    0,
			ceiling:  100,
			expected: lo.ToPtr(75.0),
		},
		"offset domain": {
			raw:      lo.ToPtr(55.0),
			floor:    20,
			ceiling:  90,
			expected: lo.ToPtr(50.0),
		},
		"below floor clamps to zero": {
			raw:      lo.ToPtr(-40.0),
			floor:    0,
			ceiling:  100,
			expected: lo.ToPtr(0.0),
		},
		"above ceiling clamps to hundred": {
			raw:      lo.ToPtr(2500.0),
			floor:    0,
			ceiling:  1000,
			expected: lo.ToPtr(100.0),
		},
		"degenerate domain yields zero": {
			raw:      lo.ToPtr(42.0),
			floor:    50,
			ceiling:  50,
			expected: lo.ToPtr(0.0),
		},
		"inverted domain yields zero": {
			raw:      lo.ToPtr(42.0),
			floor:    100,
			ceiling:  0,
			expected: lo.ToPtr(0.0),
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := Normalize(tt.raw, tt.floor, tt.ceiling)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.expected, *got, 1e-9)
		})
	}
}

func TestNormalize_NonFiniteStaysNil(t *testing.T) {
	// A NaN percentage would survive both clamps and later break JSON
	// encoding of every payload carrying it.
	for _, raw := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.Nil(t, Normalize(lo.ToPtr(raw), 0, 100))
	}
}

func TestNormalize_IdempotentReclamp(t *testing.T) {
	// Feeding an already-normalized percentage back through a 0-100
	// domain must not move it.
	for _, pct := range []float64{0, 12.5, 50, 99.99, 100} {
		once := Normalize(lo.ToPtr(pct), 0, 100)
		require.NotNil(t, once)
		twice := Normalize(once, 0, 100)
		require.NotNil(t, twice)
		assert.Equal(t, *once, *twice)
	}
}
