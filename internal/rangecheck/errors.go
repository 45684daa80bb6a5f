package rangecheck

import "errors"

// ErrRangeExceeded indicates a value with no decomposition into the declared
// number of binary digits.
var ErrRangeExceeded = errors.New("rangecheck: value exceeds declared bit width")
