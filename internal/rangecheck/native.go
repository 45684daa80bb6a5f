package rangecheck

import (
	"fmt"
	"math/big"
)

// Check is the native counterpart of Checker.Check. v is taken as a field
// element, so a wrapped negative value is rejected like any large one.
func Check(v *big.Int, n int) error {
	if v == nil || v.Sign() < 0 || v.BitLen() > n {
		return fmt.Errorf("%v does not fit in %d bits: %w", v, n, ErrRangeExceeded)
	}
	return nil
}
