package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	Banknote Category = "banknote"
	Coin     Category = "coin"
)

type (
	// Category groups denominations for the per-category totals.
	Category string

	Denomination struct {
		ID         string
		Value      int64 // face value in whole currency units
		Category   Category
		BundleSize int // units per bundle; <= 0 means tracked as a flat count

		// Display metadata, never read by the counting logic.
		Label      string
		ShortLabel string
		Color      string
		ImageURL   string
	}

	// Catalog is the ordered, immutable set of denominations for a session.
	Catalog struct {
		denoms []Denomination
		index  map[string]int
	}
)

var (
	ErrEmptyCatalog        = errors.New("empty catalog")
	ErrEmptyID             = errors.New("empty denomination id")
	ErrDuplicateID         = errors.New("duplicate denomination id")
	ErrInvalidValue        = errors.New("invalid face value")
	ErrInvalidCategory     = errors.New("invalid category")
	ErrUnknownDenomination = errors.New("unknown denomination")
	ErrCatalogOverflow     = errors.New("catalog face values overflow the grand total")
)

// MaxCatalogValue bounds the sum of face values in a catalog so that
// MaxUnits of every denomination still fits in an int64 grand total.
const MaxCatalogValue = math.MaxInt64 / MaxUnits

// Categories returns the known categories in display order.
func Categories() []Category {
	return []Category{Banknote, Coin}
}

// ParseCategory accepts the category names case-insensitively.
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case Banknote, Coin:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
}

func (c Category) String() string {
	return string(c)
}

func (c Category) Valid() bool {
	return c == Banknote || c == Coin
}

// HasBundles reports whether the denomination is counted as bundles plus loose units.
func (d Denomination) HasBundles() bool {
	return d.BundleSize > 0
}

func (d Denomination) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return ErrEmptyID
	}
	if d.Value <= 0 || d.Value > MaxCatalogValue {
		return fmt.Errorf("%s: %w", d.ID, ErrInvalidValue)
	}
	if !d.Category.Valid() {
		return fmt.Errorf("%s: %w: %q", d.ID, ErrInvalidCategory, d.Category)
	}
	return nil
}

// NewCatalog validates the denominations and preserves their order.
func NewCatalog(denoms []Denomination) (*Catalog, error) {
	if len(denoms) == 0 {
		return nil, ErrEmptyCatalog
	}
	c := &Catalog{
		denoms: make([]Denomination, 0, len(denoms)),
		index:  make(map[string]int, len(denoms)),
	}
	var sum int64
	for _, d := range denoms {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, ok := c.index[d.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, d.ID)
		}
		if d.Value > MaxCatalogValue-sum {
			return nil, fmt.Errorf("%w: at %s", ErrCatalogOverflow, d.ID)
		}
		sum += d.Value
		c.index[d.ID] = len(c.denoms)
		c.denoms = append(c.denoms, d)
	}
	return c, nil
}

// All returns a copy of the denominations in catalog order.
func (c *Catalog) All() []Denomination {
	return append([]Denomination(nil), c.denoms...)
}

// Lookup returns the denomination with the given id.
func (c *Catalog) Lookup(id string) (Denomination, bool) {
	i, ok := c.index[id]
	if !ok {
		return Denomination{}, false
	}
	return c.denoms[i], true
}

// ByCategory returns the denominations of one category in catalog order.
func (c *Catalog) ByCategory(cat Category) []Denomination {
	var out []Denomination
	for _, d := range c.denoms {
		if d.Category == cat {
			out = append(out, d)
		}
	}
	return out
}

func (c *Catalog) Len() int {
	return len(c.denoms)
}
