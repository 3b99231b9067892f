// Package binom tests a sample's allele counts at a site against the
// cohort background ratio with a two-sided binomial tail.
package binom

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/Sumatoshi-tech/bcall/pkg/accum"
)

// DefaultAlpha is the significance threshold for a call.
const DefaultAlpha = 0.05

// ErrNoPrior is returned when the cohort has no reads at the site.
var ErrNoPrior = errors.New("no cohort reads at site")

// ErrInvalidAlpha is returned for a threshold outside (0, 1).
var ErrInvalidAlpha = errors.New("alpha must be in (0, 1)")

// Result is the outcome of one test.
type Result struct {
	// PriorP is the cohort fraction of reads supporting the reference.
	PriorP float64
	// PValue is the two-sided tail probability, in [0, 1].
	PValue float64
	// Call is true when the site is flagged for the sample.
	Call bool
}

// Tester evaluates samples against cohort priors.
type Tester struct {
	Alpha float64
}

// NewTester returns a tester with the given threshold.
func NewTester(alpha float64) (Tester, error) {
	if !(alpha > 0 && alpha < 1) {
		return Tester{}, fmt.Errorf("%w: %v", ErrInvalidAlpha, alpha)
	}

	return Tester{Alpha: alpha}, nil
}

// Default returns a tester with DefaultAlpha.
func Default() Tester {
	return Tester{Alpha: DefaultAlpha}
}

// Evaluate tests one sample observation against the cohort counters.
//
// With n = ref+alt-1 trials and alt-allele probability q = alt/total from
// the cohort, the p-value is 2 * (1 - CDF(alt; n, q)), clamped to 1.
// Sites observed with a single allele in the sample are never called.
func (t Tester) Evaluate(prior accum.Counters, refCount, altCount uint64) (Result, error) {
	total := prior.Total()
	if total == 0 {
		return Result{}, ErrNoPrior
	}

	priorP := float64(prior.Ref) / float64(total)
	altP := float64(prior.Alt) / float64(total)

	pValue := TwoSidedPValue(altCount, refCount+altCount, altP)

	return Result{
		PriorP: priorP,
		PValue: pValue,
		Call:   pValue < t.Alpha && refCount != 0 && altCount != 0,
	}, nil
}

// TwoSidedPValue returns 2 * (1 - CDF(k; depth-1, q)) clamped to [0, 1].
// Depth 0 or 1 leaves no trials and yields 1.
func TwoSidedPValue(k, depth uint64, q float64) float64 {
	if depth <= 1 {
		return 1
	}

	p := 2 * (1 - CDF(k, depth-1, q))

	return min(max(p, 0), 1)
}

// CDF returns P(X <= k) for X ~ Binomial(n, q). The degenerate
// probabilities are handled exactly instead of through the incomplete beta.
func CDF(k, n uint64, q float64) float64 {
	switch {
	case k >= n:
		return 1
	case q <= 0:
		return 1
	case q >= 1:
		return 0
	}

	dist := distuv.Binomial{N: float64(n), P: q}

	return dist.CDF(float64(k))
}
