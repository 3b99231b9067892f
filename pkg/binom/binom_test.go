package binom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/bcall/pkg/accum"
)

func TestEvaluate_StrongDeviation(t *testing.T) {
	t.Parallel()

	// 5 alt reads of 10 against a cohort that is 90% reference.
	res, err := Default().Evaluate(accum.Counters{Ref: 90, Alt: 10}, 5, 5)
	require.NoError(t, err)

	assert.InDelta(t, 0.9, res.PriorP, 1e-12)
	// 2 * P(X >= 6), X ~ Binomial(9, 0.1).
	assert.InDelta(t, 1.28468e-4, res.PValue, 1e-7)
	assert.True(t, res.Call)
}

func TestEvaluate_MatchingRatioNotCalled(t *testing.T) {
	t.Parallel()

	res, err := Default().Evaluate(accum.Counters{Ref: 500, Alt: 500}, 10, 10)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, res.PriorP, 1e-12)
	assert.Greater(t, res.PValue, 0.05)
	assert.False(t, res.Call)
}

func TestEvaluate_SingleAlleleNeverCalled(t *testing.T) {
	t.Parallel()

	priors := []accum.Counters{
		{Ref: 1000, Alt: 1},
		{Ref: 1, Alt: 1000},
		{Ref: 50, Alt: 50},
		{Ref: 0, Alt: 10},
		{Ref: 10, Alt: 0},
	}

	for _, prior := range priors {
		res, err := Default().Evaluate(prior, 9, 0)
		require.NoError(t, err)
		assert.False(t, res.Call, "ref-only observation called against %+v", prior)

		res, err = Default().Evaluate(prior, 0, 9)
		require.NoError(t, err)
		assert.False(t, res.Call, "alt-only observation called against %+v", prior)
	}
}

func TestEvaluate_NoPrior(t *testing.T) {
	t.Parallel()

	_, err := Default().Evaluate(accum.Counters{}, 3, 3)
	require.ErrorIs(t, err, ErrNoPrior)
}

func TestEvaluate_BoundaryInputs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		prior    accum.Counters
		ref, alt uint64
		wantP    float64
	}{
		{"no_reads", accum.Counters{Ref: 5, Alt: 5}, 0, 0, 1},
		{"single_read_ref", accum.Counters{Ref: 5, Alt: 5}, 1, 0, 1},
		{"single_read_alt", accum.Counters{Ref: 5, Alt: 5}, 0, 1, 1},
		{"cohort_all_ref", accum.Counters{Ref: 10, Alt: 0}, 4, 0, 0},
		{"cohort_all_alt_below_n", accum.Counters{Ref: 0, Alt: 10}, 4, 1, 1},
		{"cohort_all_alt_at_n", accum.Counters{Ref: 0, Alt: 10}, 1, 3, 0},
		{"alt_exceeds_trials", accum.Counters{Ref: 5, Alt: 5}, 0, 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := Default().Evaluate(tt.prior, tt.ref, tt.alt)
			require.NoError(t, err)

			assert.False(t, math.IsNaN(res.PValue))
			assert.False(t, math.IsNaN(res.PriorP))
			assert.InDelta(t, tt.wantP, res.PValue, 1e-12)
		})
	}
}

func TestEvaluate_PValueClamped(t *testing.T) {
	t.Parallel()

	// 1 alt of 10 against a 50% cohort: CDF(1; 9, 0.5) is tiny, so the
	// doubled upper tail exceeds 1 before clamping.
	res, err := Default().Evaluate(accum.Counters{Ref: 50, Alt: 50}, 9, 1)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, res.PValue, 1e-12)
}

func TestEvaluate_Alpha(t *testing.T) {
	t.Parallel()

	strict, err := NewTester(1e-5)
	require.NoError(t, err)

	res, err := strict.Evaluate(accum.Counters{Ref: 90, Alt: 10}, 5, 5)
	require.NoError(t, err)
	assert.False(t, res.Call)

	loose, err := NewTester(0.5)
	require.NoError(t, err)

	res, err = loose.Evaluate(accum.Counters{Ref: 90, Alt: 10}, 5, 5)
	require.NoError(t, err)
	assert.True(t, res.Call)
}

func TestNewTester_Invalid(t *testing.T) {
	t.Parallel()

	for _, alpha := range []float64{0, 1, -0.1, 2, math.NaN()} {
		_, err := NewTester(alpha)
		require.ErrorIs(t, err, ErrInvalidAlpha)
	}
}

func TestCDF(t *testing.T) {
	t.Parallel()

	// Binomial(4, 0.5): P(X <= 1) = 5/16.
	assert.InDelta(t, 5.0/16.0, CDF(1, 4, 0.5), 1e-12)
	assert.InDelta(t, 1.0, CDF(4, 4, 0.5), 1e-12)
	assert.InDelta(t, 1.0, CDF(0, 4, 0), 1e-12)
	assert.InDelta(t, 0.0, CDF(3, 4, 1), 1e-12)
}

func TestEvaluate_PooledPriorIncludesOwnCounts(t *testing.T) {
	t.Parallel()

	// The cohort prior contains the tested sample's own reads. A sample
	// that dominates coverage pulls the prior toward itself and masks its
	// own deviation.
	others := accum.Counters{Ref: 18, Alt: 2}
	sampleRef, sampleAlt := uint64(40), uint64(40)

	pooled := others.Add(accum.Counters{Ref: sampleRef, Alt: sampleAlt})

	withSelf, err := Default().Evaluate(pooled, sampleRef, sampleAlt)
	require.NoError(t, err)

	leaveOneOut, err := Default().Evaluate(others, sampleRef, sampleAlt)
	require.NoError(t, err)

	assert.Greater(t, withSelf.PValue, leaveOneOut.PValue)
	assert.True(t, leaveOneOut.Call)
}
