// Package babyjub implements the Baby Jubjub twisted Edwards curve
// a·x² + y² = 1 + d·x²·y² over the BN254 scalar field, both as native
// arithmetic and as a gnark gadget.
//
// Overview:
//   - Params carries the fixed constants (a, d, generator, subgroup order) and
//     is injected into every native operation and every Curve gadget
//   - Curve is the in-circuit engine: checked/unchecked point loading, the
//     unified addition law, doubling, equality and double-and-add scalar
//     multiplication
//   - Divisions inside the addition law are witnessed through DivHint and
//     bound by a single multiplication constraint each
//   - The native methods on Params mirror the gadget step by step, so a
//     circuit assignment can be computed outside the circuit and checked
//     against it
//
// Curve constants: a = 168700, d = 168696. Since a is a square and d is not,
// the addition law has no exceptional pairs on the curve; a zero denominator
// can only come from an off-curve input and is rejected (ErrDegenerateAddition
// natively, an unsatisfiable hint in-circuit).
package babyjub
