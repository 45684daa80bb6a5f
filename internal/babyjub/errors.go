package babyjub

import "errors"

var (
	// ErrPointNotOnCurve indicates coordinates that do not satisfy the curve equation.
	ErrPointNotOnCurve = errors.New("babyjub: point not on curve")

	// ErrMalformedScalar indicates a scalar with no canonical binary decomposition
	// over the field bit width (nil, negative or not reduced).
	ErrMalformedScalar = errors.New("babyjub: malformed scalar decomposition")

	// ErrDegenerateAddition indicates a zero denominator in the addition law.
	ErrDegenerateAddition = errors.New("babyjub: degenerate addition")
)
