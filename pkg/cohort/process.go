// Package cohort builds the cohort-wide site prior from every sample's
// readcounts and re-scans the samples against it to emit calls.
package cohort

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/bcall/pkg/accum"
	"github.com/Sumatoshi-tech/bcall/pkg/binom"
	"github.com/Sumatoshi-tech/bcall/pkg/observability"
	"github.com/Sumatoshi-tech/bcall/pkg/readcount"
	"github.com/Sumatoshi-tech/bcall/pkg/site"
)

// ErrPriorNotFound is returned when a sample reports a site the prior was
// never built for. It means the build and apply inputs disagree.
var ErrPriorNotFound = errors.New("prior not found for site")

// Mode selects how records are folded into the prior.
type Mode int

const (
	// ModeOpen creates a site for every observed position.
	ModeOpen Mode = iota
	// ModeFixed only folds into sites preseeded from a site list.
	ModeFixed
)

func (m Mode) String() string {
	if m == ModeFixed {
		return "fixed"
	}

	return "open"
}

// Processor consumes the records of one sample. It returns a skip reason
// when the record did not contribute, or "" when it did.
type Processor interface {
	ProcessRecord(sample string, key site.Key, rec readcount.Record) (string, error)
}

// Call is a site flagged for one sample.
type Call struct {
	Sample string
	PValue float64
	PriorP float64
	Record readcount.Record
}

// Emitter receives calls as they are made.
type Emitter interface {
	Emit(c Call) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(c Call) error

// Emit calls f.
func (f EmitterFunc) Emit(c Call) error {
	return f(c)
}

// FoldIntoPrior adds each record's counts to the accumulator.
type FoldIntoPrior struct {
	Acc  *accum.Accumulator
	Mode Mode
}

// ProcessRecord implements Processor.
func (p *FoldIntoPrior) ProcessRecord(_ string, key site.Key, rec readcount.Record) (string, error) {
	if p.Mode == ModeFixed {
		if !p.Acc.FoldFixed(key, rec.RefCount, rec.AltCount) {
			return observability.ReasonOutsidePanel, nil
		}

		return "", nil
	}

	p.Acc.Fold(key, rec.RefCount, rec.AltCount)

	return "", nil
}

// TestAgainstPrior tests each record against the finished prior and emits
// the sites that deviate.
type TestAgainstPrior struct {
	Acc    *accum.Accumulator
	Tester binom.Tester
	Emit   Emitter
	// AllowMissing skips sites absent from the prior instead of failing.
	AllowMissing bool

	calls int64
}

// ProcessRecord implements Processor.
func (p *TestAgainstPrior) ProcessRecord(sample string, key site.Key, rec readcount.Record) (string, error) {
	prior, ok := p.Acc.Lookup(key)
	if !ok {
		if p.AllowMissing {
			return observability.ReasonMissingPrior, nil
		}

		return "", fmt.Errorf("%w: %s:%d", ErrPriorNotFound, rec.Contig, rec.Position)
	}

	res, err := p.Tester.Evaluate(prior, rec.RefCount, rec.AltCount)
	if errors.Is(err, binom.ErrNoPrior) {
		return observability.ReasonNoEvidence, nil
	}

	if err != nil {
		return "", err
	}

	if !res.Call {
		return "", nil
	}

	p.calls++

	err = p.Emit.Emit(Call{Sample: sample, PValue: res.PValue, PriorP: res.PriorP, Record: rec})
	if err != nil {
		return "", fmt.Errorf("emit call: %w", err)
	}

	return "", nil
}

// Calls returns the number of calls emitted so far.
func (p *TestAgainstPrior) Calls() int64 {
	return p.calls
}
