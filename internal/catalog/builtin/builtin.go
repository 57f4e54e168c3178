// Package builtin holds the in-process Korean won catalog.
package builtin

import (
	"context"
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"cashcount/internal/core"
)

var labels = message.NewPrinter(language.Korean)

// Store serves a fixed list of denominations from memory.
type Store struct {
	denoms []core.Denomination
}

func New(denoms []core.Denomination) *Store {
	return &Store{denoms: append([]core.Denomination(nil), denoms...)}
}

// NewKRW returns a store seeded with the won banknotes and coins.
func NewKRW() *Store {
	return New(KRW())
}

// Load returns a copy of the stored denominations.
func (s *Store) Load(_ context.Context) ([]core.Denomination, error) {
	return append([]core.Denomination(nil), s.denoms...), nil
}

// KRW lists the won denominations in display order: banknotes in bundles of
// ten, 500 won coins in rolls of forty and the smaller coins in rolls of fifty.
func KRW() []core.Denomination {
	return []core.Denomination{
		won(50000, core.Banknote, "5만", 10),
		won(10000, core.Banknote, "1만", 10),
		won(5000, core.Banknote, "5천", 10),
		won(1000, core.Banknote, "1천", 10),
		won(500, core.Coin, "5백", 40),
		won(100, core.Coin, "1백", 50),
		won(50, core.Coin, "5십", 50),
		won(10, core.Coin, "1십", 50),
	}
}

func won(value int64, cat core.Category, short string, bundle int) core.Denomination {
	size := "120/60"
	if cat == core.Coin {
		size = "60/60"
	}
	return core.Denomination{
		ID:         fmt.Sprintf("krw_%d", value),
		Value:      value,
		Category:   cat,
		BundleSize: bundle,
		Label:      labels.Sprintf("₩%d", value),
		ShortLabel: short,
		Color:      fmt.Sprintf("krw-%d", value),
		ImageURL:   fmt.Sprintf("https://picsum.photos/seed/krw%d/%s", value, size),
	}
}
