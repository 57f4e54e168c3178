package core

// Pair is the (bundles, loose) view of a unit total. It is always derived
// from the stored total and never kept on its own.
type Pair struct {
	Bundles int64
	Loose   int64
}

// Units reconstructs the unit total for the given bundle size.
func (p Pair) Units(bundleSize int) int64 {
	if bundleSize <= 0 {
		return p.Loose
	}
	return p.Bundles*int64(bundleSize) + p.Loose
}

// Project splits a unit total into whole bundles and the loose remainder.
// Without a bundle size everything is loose.
func Project(totalUnits int64, bundleSize int) Pair {
	totalUnits = clampUnits(totalUnits)
	if bundleSize <= 0 {
		return Pair{Loose: totalUnits}
	}
	size := int64(bundleSize)
	return Pair{Bundles: totalUnits / size, Loose: totalUnits % size}
}

// unitSize mirrors the form's behavior of treating a missing bundle size as 1
// whenever bundle arithmetic is requested anyway.
func unitSize(bundleSize int) int64 {
	if bundleSize <= 0 {
		return 1
	}
	return int64(bundleSize)
}

// SetBundleCount replaces the bundle count while keeping the loose units.
// A negative request is malformed input: the bundle contribution drops to
// zero and only currentLoose remains. The same applies when the result
// would exceed MaxUnits.
func SetBundleCount(requested, currentLoose int64, bundleSize int) int64 {
	currentLoose = clampUnits(currentLoose)
	size := unitSize(bundleSize)
	if requested < 0 || requested > (MaxUnits-currentLoose)/size {
		return currentLoose
	}
	return requested*size + currentLoose
}

// SetBundleText is SetBundleCount for raw field text.
func SetBundleText(text string, currentLoose int64, bundleSize int) int64 {
	return SetBundleCount(countOrInvalid(text), currentLoose, bundleSize)
}

// SetLooseCount replaces the loose units while keeping the bundles. A
// malformed request keeps only the bundle contribution. Loose counts at or
// above the bundle size are accepted as entered.
func SetLooseCount(requested, currentBundles int64, bundleSize int) int64 {
	size := unitSize(bundleSize)
	base := clampUnits(currentBundles) * size
	if base > MaxUnits {
		base = MaxUnits
	}
	if requested < 0 || requested > MaxUnits-base {
		return base
	}
	return base + requested
}

// SetLooseText is SetLooseCount for raw field text.
func SetLooseText(text string, currentBundles int64, bundleSize int) int64 {
	return SetLooseCount(countOrInvalid(text), currentBundles, bundleSize)
}

// IncrementBundle adds one bundle, saturating at MaxUnits.
func IncrementBundle(currentBundles, currentLoose int64, bundleSize int) int64 {
	current := Pair{Bundles: currentBundles, Loose: currentLoose}.Units(int(unitSize(bundleSize)))
	if current+unitSize(bundleSize) > MaxUnits {
		return clampUnits(current)
	}
	return SetBundleCount(currentBundles+1, currentLoose, bundleSize)
}

// DecrementBundle is a no-op when there are no bundles left.
func DecrementBundle(currentBundles, currentLoose int64, bundleSize int) int64 {
	if currentBundles <= 0 {
		return SetBundleCount(0, currentLoose, bundleSize)
	}
	return SetBundleCount(currentBundles-1, currentLoose, bundleSize)
}

// IncrementLoose adds one loose unit, saturating at MaxUnits.
func IncrementLoose(currentBundles, currentLoose int64, bundleSize int) int64 {
	current := Pair{Bundles: currentBundles, Loose: currentLoose}.Units(int(unitSize(bundleSize)))
	if current >= MaxUnits {
		return MaxUnits
	}
	return SetLooseCount(currentLoose+1, currentBundles, bundleSize)
}

// DecrementLoose removes one loose unit. With no loose units left it unwraps
// one bundle, leaving bundleSize-1 loose units. With nothing left at all it
// is a no-op.
func DecrementLoose(currentBundles, currentLoose int64, bundleSize int) int64 {
	switch {
	case currentLoose > 0:
		return SetLooseCount(currentLoose-1, currentBundles, bundleSize)
	case currentBundles > 0 && bundleSize > 0:
		size := int64(bundleSize)
		return clampUnits((currentBundles-1)*size + (size - 1))
	default:
		return SetLooseCount(0, currentBundles, bundleSize)
	}
}

// SetFlat sets the count of a denomination without bundles. Malformed and
// negative input clamps to zero.
func SetFlat(requested int64) int64 {
	if requested < 0 || requested > MaxUnits {
		return 0
	}
	return requested
}

// SetFlatText is SetFlat for raw field text.
func SetFlatText(text string) int64 {
	return SetFlat(countOrInvalid(text))
}

// IncrementFlat adds one unit, saturating at MaxUnits.
func IncrementFlat(current int64) int64 {
	return clampUnits(clampUnits(current) + 1)
}

// DecrementFlat removes one unit and never goes below zero.
func DecrementFlat(current int64) int64 {
	return clampUnits(current - 1)
}
