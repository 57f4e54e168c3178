// Package currency formats whole-unit monetary amounts for display.
package currency

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	ErrInvalidLocale   = errors.New("invalid locale")
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrFractional      = errors.New("currency has minor units")
)

// Formatter renders integer amounts with the locale's digit grouping and a
// fixed symbol prefix, e.g. "₩251,500".
type Formatter struct {
	tag     language.Tag
	unit    currency.Unit
	symbol  string
	printer *message.Printer
}

// New builds a formatter. The currency must have no minor units since
// amounts are counted in whole units. An empty symbol falls back to the ISO
// code.
func New(locale, code, symbol string) (*Formatter, error) {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidLocale, locale, err)
	}
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidCurrency, code, err)
	}
	if scale, _ := currency.Standard.Rounding(unit); scale != 0 {
		return nil, fmt.Errorf("%w: %s uses %d decimal places", ErrFractional, unit, scale)
	}
	if symbol == "" {
		symbol = unit.String()
	}
	return &Formatter{
		tag:     tag,
		unit:    unit,
		symbol:  symbol,
		printer: message.NewPrinter(tag),
	}, nil
}

// MustKRW returns the default Korean won formatter.
func MustKRW() *Formatter {
	f, err := New("ko-KR", "KRW", "₩")
	if err != nil {
		panic(err)
	}
	return f
}

func (f *Formatter) Format(amount int64) string {
	if amount < 0 {
		return "-" + f.symbol + f.printer.Sprintf("%d", -amount)
	}
	return f.symbol + f.printer.Sprintf("%d", amount)
}

// Number renders a count with digit grouping and no symbol.
func (f *Formatter) Number(n int64) string {
	return f.printer.Sprintf("%d", n)
}

func (f *Formatter) Code() string   { return f.unit.String() }
func (f *Formatter) Symbol() string { return f.symbol }
func (f *Formatter) Locale() string { return f.tag.String() }
