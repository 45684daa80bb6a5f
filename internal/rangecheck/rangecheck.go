// Package rangecheck proves that a witnessed value fits in a declared number of
// bits. There is no boolean result: a value outside [0, 2^n) leaves the
// circuit without a satisfying assignment.
package rangecheck

import (
	"fmt"
	"strings"

	"github.com/consensys/gnark/frontend"
	std "github.com/consensys/gnark/std/rangecheck"
)

// Mode selects how range checks are arithmetized.
type Mode uint8

const (
	// Bits decomposes the value into n boolean digits and asserts that their
	// weighted sum equals it.
	Bits Mode = iota
	// Lookup uses gnark's log-derivative table argument. It accepts the same
	// values and is cheaper when a circuit performs many checks.
	Lookup
)

func (m Mode) String() string {
	switch m {
	case Bits:
		return "bits"
	case Lookup:
		return "lookup"
	default:
		return fmt.Sprintf("mode(%d)", m)
	}
}

// ParseMode maps a configuration string onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bits":
		return Bits, nil
	case "lookup":
		return Lookup, nil
	default:
		return 0, fmt.Errorf("rangecheck: unknown mode %q", s)
	}
}

// Checker constrains values to a bit width.
type Checker struct {
	api    frontend.API
	mode   Mode
	lookup frontend.Rangechecker
}

// New returns a checker bound to api.
func New(api frontend.API, mode Mode) *Checker {
	c := &Checker{api: api, mode: mode}
	if mode == Lookup {
		c.lookup = std.New(api)
	}
	return c
}

// Check asserts 0 <= v < 2^n.
func (c *Checker) Check(v frontend.Variable, n int) {
	if n <= 0 {
		panic(fmt.Sprintf("rangecheck: invalid bit width %d", n))
	}
	if c.mode == Lookup {
		c.lookup.Check(v, n)
		return
	}
	// ToBinary constrains every digit to be boolean and the recomposition to
	// equal v; a wrapped value has no such digits.
	c.api.ToBinary(v, n)
}
