package core

import (
	"errors"
	"fmt"
)

const (
	FieldBundle Field = "bundle"
	FieldLoose  Field = "loose"
	FieldFlat   Field = "flat"

	OpIncrement Op = "inc"
	OpDecrement Op = "dec"
	OpSet       Op = "set"
)

type (
	// Field names the input of a denomination row a user acted on.
	Field string

	// Op is what the user did to the field.
	Op string

	// Intent is one user action on one field. Text is only read for OpSet.
	Intent struct {
		Field Field
		Op    Op
		Text  string
	}
)

var (
	ErrInvalidIntent      = errors.New("invalid intent")
	ErrFieldNotApplicable = errors.New("field not applicable to denomination")
)

func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldBundle, FieldLoose, FieldFlat:
		return f, nil
	default:
		return "", fmt.Errorf("%w: field %q", ErrInvalidIntent, s)
	}
}

func ParseOp(s string) (Op, error) {
	switch o := Op(s); o {
	case OpIncrement, OpDecrement, OpSet:
		return o, nil
	default:
		return "", fmt.Errorf("%w: op %q", ErrInvalidIntent, s)
	}
}

// Apply computes the new unit total for d after the intent. The current
// bundle/loose pair is always projected from currentUnits.
func Apply(d Denomination, currentUnits int64, in Intent) (int64, error) {
	if _, err := ParseField(string(in.Field)); err != nil {
		return 0, err
	}
	if _, err := ParseOp(string(in.Op)); err != nil {
		return 0, err
	}
	if d.HasBundles() == (in.Field == FieldFlat) {
		return 0, fmt.Errorf("%w: %s on %s", ErrFieldNotApplicable, in.Field, d.ID)
	}
	p := Project(currentUnits, d.BundleSize)
	size := d.BundleSize

	switch in.Field {
	case FieldBundle:
		switch in.Op {
		case OpIncrement:
			return IncrementBundle(p.Bundles, p.Loose, size), nil
		case OpDecrement:
			return DecrementBundle(p.Bundles, p.Loose, size), nil
		case OpSet:
			return SetBundleText(in.Text, p.Loose, size), nil
		}
	case FieldLoose:
		switch in.Op {
		case OpIncrement:
			return IncrementLoose(p.Bundles, p.Loose, size), nil
		case OpDecrement:
			return DecrementLoose(p.Bundles, p.Loose, size), nil
		case OpSet:
			return SetLooseText(in.Text, p.Bundles, size), nil
		}
	case FieldFlat:
		switch in.Op {
		case OpIncrement:
			return IncrementFlat(p.Loose), nil
		case OpDecrement:
			return DecrementFlat(p.Loose), nil
		case OpSet:
			return SetFlatText(in.Text), nil
		}
	}
	return 0, fmt.Errorf("%w: %s/%s", ErrInvalidIntent, in.Field, in.Op)
}
