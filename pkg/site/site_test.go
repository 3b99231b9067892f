package site

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	t.Parallel()

	t.Run("packs_position_above_contig_bits", func(t *testing.T) {
		t.Parallel()

		k, err := Encode("3", 100)
		require.NoError(t, err)
		assert.Equal(t, Key(100<<5|2), k)
	})

	t.Run("unknown_contig", func(t *testing.T) {
		t.Parallel()

		_, err := Encode("GL000192.1", 10)
		require.ErrorIs(t, err, ErrUnknownContig)
		assert.Contains(t, err.Error(), "GL000192.1")
	})

	t.Run("chr_prefix_is_not_in_index", func(t *testing.T) {
		t.Parallel()

		_, err := Encode("chr1", 10)
		require.ErrorIs(t, err, ErrUnknownContig)
	})

	t.Run("position_above_range", func(t *testing.T) {
		t.Parallel()

		_, err := Encode("1", MaxPosition+1)
		require.ErrorIs(t, err, ErrPositionRange)

		_, err = Encode("1", MaxPosition)
		require.NoError(t, err)
	})

	t.Run("large_chromosome_positions_survive", func(t *testing.T) {
		t.Parallel()

		// Positions above 2^27 are truncated by a 32-bit shift.
		for _, pos := range []uint64{1 << 27, 1<<27 + 1, 248_956_422, 1 << 31, 1<<32 + 7} {
			k, err := Encode("1", pos)
			require.NoError(t, err)
			assert.Equal(t, pos, k.Position())
			assert.Equal(t, uint8(0), k.Contig())
		}
	})
}

func TestDecode_RoundTrip(t *testing.T) {
	t.Parallel()

	for i := range NumContigs {
		name := ContigName(uint8(i))

		for _, pos := range []uint64{0, 1, 12345, 1 << 30, MaxPosition} {
			k, err := Encode(name, pos)
			require.NoError(t, err)

			gotContig, gotPos := Decode(k)
			assert.Equal(t, name, gotContig)
			assert.Equal(t, pos, gotPos)
		}
	}
}

func TestEncode_Injective(t *testing.T) {
	t.Parallel()

	seen := make(map[Key]string)

	positions := []uint64{1, 2, 3, 31, 32, 33}
	for shift := 6; shift <= 40; shift++ {
		base := uint64(1) << shift
		positions = append(positions, base-1, base, base+1)
	}

	for i := range NumContigs {
		name := ContigName(uint8(i))

		for _, pos := range positions {
			k, err := Encode(name, pos)
			require.NoError(t, err)

			label := fmt.Sprintf("%s:%d", name, pos)

			prev, dup := seen[k]
			require.False(t, dup, "key collision between %s and %s:%d", prev, name, pos)

			seen[k] = label
		}
	}

	assert.Len(t, seen, NumContigs*len(positions))
}

func TestEncode_InjectiveDense(t *testing.T) {
	t.Parallel()

	// Adjacent positions on adjacent contigs never share a key.
	seen := make(map[Key]struct{})

	for i := range NumContigs {
		for pos := uint64(1<<30 - 64); pos < 1<<30+64; pos++ {
			k, err := Encode(ContigName(uint8(i)), pos)
			require.NoError(t, err)

			_, dup := seen[k]
			require.False(t, dup)

			seen[k] = struct{}{}
		}
	}
}

func TestContigIndex(t *testing.T) {
	t.Parallel()

	idx, ok := ContigIndex("X")
	require.True(t, ok)
	assert.Equal(t, uint8(22), idx)

	idx, ok = ContigIndex("MT")
	require.True(t, ok)
	assert.Equal(t, uint8(24), idx)

	_, ok = ContigIndex("M")
	assert.False(t, ok)

	assert.Empty(t, ContigName(25))
	assert.True(t, Known("22"))
	assert.False(t, Known("23"))
}

func TestKey_String(t *testing.T) {
	t.Parallel()

	k, err := Encode("Y", 2_781_480)
	require.NoError(t, err)

	assert.Equal(t, "Y:2781480", k.String())
}
