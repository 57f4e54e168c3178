package core

// Line is one denomination's row in a summary.
type Line struct {
	Denomination Denomination
	Units        int64
	Pair         Pair
	Subtotal     int64
}

// CategoryAmount is the total counted for one category.
type CategoryAmount struct {
	Category Category
	Amount   int64
}

// Summary is a point-in-time view of a tally, recomputed on every call.
type Summary struct {
	Lines      []Line
	ByCategory []CategoryAmount
	Total      int64
}

// Summary builds the lines in catalog order and the totals per category.
func (t *Tally) Summary() Summary {
	s := Summary{Lines: make([]Line, 0, t.catalog.Len())}
	for _, d := range t.catalog.denoms {
		units := t.counts[d.ID]
		s.Lines = append(s.Lines, Line{
			Denomination: d,
			Units:        units,
			Pair:         Project(units, d.BundleSize),
			Subtotal:     units * d.Value,
		})
	}
	for _, c := range Categories() {
		if len(t.catalog.ByCategory(c)) == 0 {
			continue
		}
		s.ByCategory = append(s.ByCategory, CategoryAmount{Category: c, Amount: t.CategoryTotal(c)})
	}
	s.Total = t.GrandTotal()
	return s
}

// Line returns the summary line for id.
func (s Summary) Line(id string) (Line, bool) {
	for _, l := range s.Lines {
		if l.Denomination.ID == id {
			return l, true
		}
	}
	return Line{}, false
}

// CategoryTotal returns the amount for cat, zero when absent.
func (s Summary) CategoryTotal(cat Category) int64 {
	for _, c := range s.ByCategory {
		if c.Category == cat {
			return c.Amount
		}
	}
	return 0
}
