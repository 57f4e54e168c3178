package http

import (
	"time"

	"cashcount/internal/core"
	"cashcount/internal/currency"
)

var categoryTitles = map[core.Category]string{
	core.Banknote: "지폐 (Banknotes)",
	core.Coin:     "동전 (Coins)",
}

var categoryTotalTitles = map[core.Category]string{
	core.Banknote: "총 지폐 금액",
	core.Coin:     "총 동전 금액",
}

var unitSuffix = map[core.Category]string{
	core.Banknote: "장",
	core.Coin:     "개",
}

// rowView is the data behind one denomination row.
type rowView struct {
	ID         string
	Category   core.Category
	Label      string
	ShortLabel string
	Color      string
	ImageURL   string
	HasBundles bool
	BundleSize int
	Bundles    int64
	Loose      int64
	Units      int64
	Subtotal   string
	UnitsLabel string
}

type groupView struct {
	Category core.Category
	Title    string
	Rows     []rowView
}

type categoryAmountView struct {
	Category core.Category
	Title    string
	Amount   string
}

type summaryView struct {
	Categories []categoryAmountView
	Total      string
}

type counterView struct {
	Groups  []groupView
	Summary summaryView
}

type pageView struct {
	counterView
	Year int
}

func newRowView(l core.Line, f *currency.Formatter) rowView {
	d := l.Denomination
	return rowView{
		ID:         d.ID,
		Category:   d.Category,
		Label:      d.Label,
		ShortLabel: d.ShortLabel,
		Color:      d.Color,
		ImageURL:   d.ImageURL,
		HasBundles: d.HasBundles(),
		BundleSize: d.BundleSize,
		Bundles:    l.Pair.Bundles,
		Loose:      l.Pair.Loose,
		Units:      l.Units,
		Subtotal:   f.Format(l.Subtotal),
		UnitsLabel: f.Number(l.Units) + unitSuffix[d.Category],
	}
}

func newSummaryView(s core.Summary, f *currency.Formatter) summaryView {
	v := summaryView{Total: f.Format(s.Total)}
	for _, c := range s.ByCategory {
		v.Categories = append(v.Categories, categoryAmountView{
			Category: c.Category,
			Title:    categoryTotalTitles[c.Category],
			Amount:   f.Format(c.Amount),
		})
	}
	return v
}

// newCounterView groups rows by category in display order, skipping empty
// categories.
func newCounterView(s core.Summary, f *currency.Formatter) counterView {
	v := counterView{Summary: newSummaryView(s, f)}
	for _, cat := range core.Categories() {
		g := groupView{Category: cat, Title: categoryTitles[cat]}
		for _, l := range s.Lines {
			if l.Denomination.Category == cat {
				g.Rows = append(g.Rows, newRowView(l, f))
			}
		}
		if len(g.Rows) > 0 {
			v.Groups = append(v.Groups, g)
		}
	}
	return v
}

func newPageView(s core.Summary, f *currency.Formatter, now time.Time) pageView {
	return pageView{counterView: newCounterView(s, f), Year: now.Year()}
}

// tallyJSON is the /api/tally payload.
type tallyJSON struct {
	Currency   string              `json:"currency"`
	Lines      []lineJSON          `json:"lines"`
	Categories []categoryTotalJSON `json:"categories"`
	Total      int64               `json:"total"`
	Formatted  string              `json:"formatted_total"`
}

type lineJSON struct {
	ID         string `json:"id"`
	Category   string `json:"category"`
	Value      int64  `json:"value"`
	BundleSize int    `json:"bundle_size"`
	Units      int64  `json:"units"`
	Bundles    int64  `json:"bundles"`
	Loose      int64  `json:"loose"`
	Subtotal   int64  `json:"subtotal"`
}

type categoryTotalJSON struct {
	Category string `json:"category"`
	Amount   int64  `json:"amount"`
}

func newTallyJSON(s core.Summary, f *currency.Formatter) tallyJSON {
	out := tallyJSON{
		Currency:   f.Code(),
		Lines:      make([]lineJSON, 0, len(s.Lines)),
		Categories: make([]categoryTotalJSON, 0, len(s.ByCategory)),
		Total:      s.Total,
		Formatted:  f.Format(s.Total),
	}
	for _, l := range s.Lines {
		out.Lines = append(out.Lines, lineJSON{
			ID:         l.Denomination.ID,
			Category:   l.Denomination.Category.String(),
			Value:      l.Denomination.Value,
			BundleSize: l.Denomination.BundleSize,
			Units:      l.Units,
			Bundles:    l.Pair.Bundles,
			Loose:      l.Pair.Loose,
			Subtotal:   l.Subtotal,
		})
	}
	for _, c := range s.ByCategory {
		out.Categories = append(out.Categories, categoryTotalJSON{Category: c.Category.String(), Amount: c.Amount})
	}
	return out
}
