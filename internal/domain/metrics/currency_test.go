package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestToUSDCents(t *testing.T) {
	logger := zap.NewNop()

	t.Run("converts known currencies", func(t *testing.T) {
		assert.Equal(t, int64(1000), ToUSDCents(10, "USD", logger))
		assert.Equal(t, int64(1100), ToUSDCents(10, "EUR", logger))
		assert.Equal(t, int64(1270), ToUSDCents(10, "GBP", logger))
		// Zero-decimal currency: amounts are whole yen.
		assert.Equal(t, int64(670), ToUSDCents(1000, "JPY", logger))
	})

	t.Run("is case-insensitive on the code", func(t *testing.T) {
		assert.Equal(t, int64(1000), ToUSDCents(10, "usd", logger))
	})

	t.Run("rounds to whole cents", func(t *testing.T) {
		// 9.99 * 110 = 1098.9
		assert.Equal(t, int64(1099), ToUSDCents(9.99, "EUR", logger))
	})

	t.Run("falls back to magnitude heuristic for unknown codes", func(t *testing.T) {
		// Over 1000: assume minor units scaled by 100.
		assert.Equal(t, int64(50), ToUSDCents(5000, "XYZ", logger))
		// Over 100: assume scaled by 10.
		assert.Equal(t, int64(50), ToUSDCents(500, "XYZ", logger))
		// Small amounts: assume whole major units.
		assert.Equal(t, int64(500), ToUSDCents(5, "XYZ", logger))
	})

	t.Run("tolerates a nil logger", func(t *testing.T) {
		assert.Equal(t, int64(500), ToUSDCents(5, "XYZ", nil))
	})
}
