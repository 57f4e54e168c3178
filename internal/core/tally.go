package core

import "fmt"

// Tally is the count store of one counting session: the unit total per
// catalog denomination. It is not safe for concurrent use; callers
// serialize access.
type Tally struct {
	catalog *Catalog
	counts  map[string]int64
}

// NewTally starts every catalog denomination at zero.
func NewTally(c *Catalog) *Tally {
	t := &Tally{
		catalog: c,
		counts:  make(map[string]int64, c.Len()),
	}
	t.ResetAll()
	return t
}

func (t *Tally) Catalog() *Catalog {
	return t.catalog
}

// Get returns the unit total for id, zero when never set.
func (t *Tally) Get(id string) int64 {
	return t.counts[id]
}

// Set stores the unit total for id, clamped into [0, MaxUnits].
func (t *Tally) Set(id string, units int64) error {
	if _, ok := t.catalog.Lookup(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDenomination, id)
	}
	t.counts[id] = clampUnits(units)
	return nil
}

// Pair projects the stored total of id into its display pair.
func (t *Tally) Pair(id string) Pair {
	d, _ := t.catalog.Lookup(id)
	return Project(t.counts[id], d.BundleSize)
}

// Apply runs the intent against the current total of id and stores the
// result, which is also returned.
func (t *Tally) Apply(id string, in Intent) (int64, error) {
	d, ok := t.catalog.Lookup(id)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownDenomination, id)
	}
	units, err := Apply(d, t.counts[id], in)
	if err != nil {
		return 0, err
	}
	t.counts[id] = clampUnits(units)
	return t.counts[id], nil
}

func (t *Tally) ResetAll() {
	for _, d := range t.catalog.denoms {
		t.counts[d.ID] = 0
	}
}

// Subtotal is the face value counted for one denomination.
func (t *Tally) Subtotal(id string) int64 {
	d, ok := t.catalog.Lookup(id)
	if !ok {
		return 0
	}
	return t.counts[id] * d.Value
}

func (t *Tally) CategoryTotal(cat Category) int64 {
	var sum int64
	for _, d := range t.catalog.denoms {
		if d.Category == cat {
			sum += t.counts[d.ID] * d.Value
		}
	}
	return sum
}

func (t *Tally) GrandTotal() int64 {
	var sum int64
	for _, d := range t.catalog.denoms {
		sum += t.counts[d.ID] * d.Value
	}
	return sum
}
