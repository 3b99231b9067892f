package safeconv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUint64ToInt64(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(0), Uint64ToInt64(0))
	assert.Equal(t, int64(42), Uint64ToInt64(42))
	assert.Equal(t, int64(math.MaxInt64), Uint64ToInt64(math.MaxInt64))
	assert.Equal(t, int64(math.MaxInt64), Uint64ToInt64(math.MaxUint64))
}

func TestMustIntToUint8(t *testing.T) {
	t.Parallel()

	t.Run("in_range", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, uint8(24), MustIntToUint8(24))
		assert.Equal(t, uint8(255), MustIntToUint8(255))
	})

	t.Run("negative_panics", func(t *testing.T) {
		t.Parallel()

		assert.PanicsWithValue(t, "safeconv: int to uint8 out of bounds", func() {
			MustIntToUint8(-1)
		})
	})

	t.Run("overflow_panics", func(t *testing.T) {
		t.Parallel()

		assert.PanicsWithValue(t, "safeconv: int to uint8 out of bounds", func() {
			MustIntToUint8(256)
		})
	})
}
