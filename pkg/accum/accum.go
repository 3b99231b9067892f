// Package accum holds the per-site counters folded across a cohort.
package accum

import (
	"iter"
	"slices"

	"github.com/Sumatoshi-tech/bcall/pkg/site"
)

// Counters is the reference and alternate read total at one site.
// The zero value is the identity for Add.
type Counters struct {
	Ref uint64
	Alt uint64
}

// Add returns the component-wise sum of c and o.
func (c Counters) Add(o Counters) Counters {
	return Counters{Ref: c.Ref + o.Ref, Alt: c.Alt + o.Alt}
}

// Total returns Ref + Alt.
func (c Counters) Total() uint64 {
	return c.Ref + c.Alt
}

// IsZero reports whether no reads were folded into c.
func (c Counters) IsZero() bool {
	return c.Ref == 0 && c.Alt == 0
}

// Accumulator maps site keys to counters. Entries only ever grow by
// addition. It is not safe for concurrent mutation: shard one accumulator
// per goroutine and combine them with MergeFrom.
type Accumulator struct {
	sites map[site.Key]Counters
}

// New creates an empty accumulator.
func New() *Accumulator {
	return &Accumulator{sites: make(map[site.Key]Counters)}
}

// NewWithCapacity creates an empty accumulator sized for n sites.
func NewWithCapacity(n int) *Accumulator {
	if n < 0 {
		n = 0
	}

	return &Accumulator{sites: make(map[site.Key]Counters, n)}
}

// Fold adds the deltas to the site, creating it when absent.
func (a *Accumulator) Fold(k site.Key, refDelta, altDelta uint64) {
	c := a.sites[k]
	c.Ref += refDelta
	c.Alt += altDelta
	a.sites[k] = c
}

// FoldFixed adds the deltas only when the site already exists.
// Evidence for sites outside the preseeded set is discarded.
func (a *Accumulator) FoldFixed(k site.Key, refDelta, altDelta uint64) bool {
	c, ok := a.sites[k]
	if !ok {
		return false
	}

	c.Ref += refDelta
	c.Alt += altDelta
	a.sites[k] = c

	return true
}

// Preseed inserts zero counters for the site when absent.
func (a *Accumulator) Preseed(k site.Key) {
	if _, ok := a.sites[k]; !ok {
		a.sites[k] = Counters{}
	}
}

// MergeFrom adds every entry of other into a.
func (a *Accumulator) MergeFrom(other *Accumulator) {
	if other == nil {
		return
	}

	for k, c := range other.sites {
		a.sites[k] = a.sites[k].Add(c)
	}
}

// Lookup returns the counters for the site.
func (a *Accumulator) Lookup(k site.Key) (Counters, bool) {
	c, ok := a.sites[k]

	return c, ok
}

// Len returns the number of sites.
func (a *Accumulator) Len() int {
	return len(a.sites)
}

// ZeroCopy returns an accumulator with the same key set and zero counters.
// Workers in fixed-site mode fold into a ZeroCopy of the preseeded panel.
func (a *Accumulator) ZeroCopy() *Accumulator {
	out := NewWithCapacity(len(a.sites))

	for k := range a.sites {
		out.sites[k] = Counters{}
	}

	return out
}

// Keys returns the site keys in ascending order.
func (a *Accumulator) Keys() []site.Key {
	keys := make([]site.Key, 0, len(a.sites))

	for k := range a.sites {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}

// All iterates sites in ascending key order.
func (a *Accumulator) All() iter.Seq2[site.Key, Counters] {
	return func(yield func(site.Key, Counters) bool) {
		for _, k := range a.Keys() {
			if !yield(k, a.sites[k]) {
				return
			}
		}
	}
}

// Equal reports whether both accumulators hold the same keys and counters.
func (a *Accumulator) Equal(other *Accumulator) bool {
	if len(a.sites) != len(other.sites) {
		return false
	}

	for k, c := range a.sites {
		oc, ok := other.sites[k]
		if !ok || oc != c {
			return false
		}
	}

	return true
}

// Stats summarizes an accumulator.
type Stats struct {
	Sites        int
	NonZeroSites int
	TotalRef     uint64
	TotalAlt     uint64
}

// Stats returns site counts and read totals.
func (a *Accumulator) Stats() Stats {
	st := Stats{Sites: len(a.sites)}

	for _, c := range a.sites {
		if !c.IsZero() {
			st.NonZeroSites++
		}

		st.TotalRef += c.Ref
		st.TotalAlt += c.Alt
	}

	return st
}
