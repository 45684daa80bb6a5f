// ciphertext.go - ElGamal-style balance ciphertexts over Baby Jubjub.
//
// A balance v encrypted under pk = priv·G with randomness r is the pair
// (L, R) = (v·G + r·pk, r·G). Ciphertexts under the same key add
// component-wise, and the holder of priv recovers r·pk as priv·R.

package balance

import (
	"encoding/json"
	"fmt"
	"math/big"

	"zether/internal/babyjub"
)

// CiphertextSize is the length of the canonical encoding L‖R.
const CiphertextSize = 2 * babyjub.PointSize

// Ciphertext is an encrypted balance.
type Ciphertext struct {
	L babyjub.Point `json:"l"`
	R babyjub.Point `json:"r"`
}

// Zero returns the encryption of 0 with zero randomness, the balance every
// account starts from.
func Zero() Ciphertext {
	return Ciphertext{L: babyjub.Identity(), R: babyjub.Identity()}
}

// Encode returns (v·G + r·pk, r·G).
func Encode(params *babyjub.Params, v uint64, pk babyjub.Point, r *big.Int) (Ciphertext, error) {
	return EncodeScalar(params, new(big.Int).SetUint64(v), pk, r)
}

// EncodeScalar is Encode for an arbitrary scalar value.
func EncodeScalar(params *babyjub.Params, v *big.Int, pk babyjub.Point, r *big.Int) (Ciphertext, error) {
	vG, err := params.ScalarBaseMul(v)
	if err != nil {
		return Ciphertext{}, fmt.Errorf("value: %w", err)
	}
	rG, err := params.ScalarBaseMul(r)
	if err != nil {
		return Ciphertext{}, fmt.Errorf("randomness: %w", err)
	}
	rPk, err := params.ScalarMul(pk, r)
	if err != nil {
		return Ciphertext{}, fmt.Errorf("randomness: %w", err)
	}
	l, err := params.Add(vG, rPk)
	if err != nil {
		return Ciphertext{}, err
	}
	return Ciphertext{L: l, R: rG}, nil
}

// KeySwitch returns priv·R. For R = r·G and pk = priv·G it equals r·pk.
func KeySwitch(params *babyjub.Params, priv *big.Int, r babyjub.Point) (babyjub.Point, error) {
	return params.ScalarMul(r, priv)
}

// Add combines two ciphertexts under the same key.
func (ct Ciphertext) Add(params *babyjub.Params, o Ciphertext) (Ciphertext, error) {
	l, err := params.Add(ct.L, o.L)
	if err != nil {
		return Ciphertext{}, err
	}
	r, err := params.Add(ct.R, o.R)
	if err != nil {
		return Ciphertext{}, err
	}
	return Ciphertext{L: l, R: r}, nil
}

// Sub removes o from ct.
func (ct Ciphertext) Sub(params *babyjub.Params, o Ciphertext) (Ciphertext, error) {
	return ct.Add(params, Ciphertext{L: params.Neg(o.L), R: params.Neg(o.R)})
}

func (ct Ciphertext) Equal(o Ciphertext) bool {
	return ct.L.Equal(o.L) && ct.R.Equal(o.R)
}

// Validate checks that both components are on the curve.
func (ct Ciphertext) Validate(params *babyjub.Params) error {
	if !params.IsOnCurve(ct.L) {
		return fmt.Errorf("L: %w", babyjub.ErrPointNotOnCurve)
	}
	if !params.IsOnCurve(ct.R) {
		return fmt.Errorf("R: %w", babyjub.ErrPointNotOnCurve)
	}
	return nil
}

// Bytes returns L‖R.
func (ct Ciphertext) Bytes() [CiphertextSize]byte {
	var out [CiphertextSize]byte
	l, r := ct.L.Bytes(), ct.R.Bytes()
	copy(out[:babyjub.PointSize], l[:])
	copy(out[babyjub.PointSize:], r[:])
	return out
}

// SetBytes decodes L‖R. It does not check the curve equation; use Validate.
func (ct *Ciphertext) SetBytes(b []byte) error {
	if len(b) != CiphertextSize {
		return fmt.Errorf("balance: ciphertext encoding must be %d bytes, got %d", CiphertextSize, len(b))
	}
	var l, r babyjub.Point
	if err := l.SetBytes(b[:babyjub.PointSize]); err != nil {
		return err
	}
	if err := r.SetBytes(b[babyjub.PointSize:]); err != nil {
		return err
	}
	ct.L, ct.R = l, r
	return nil
}

func (ct Ciphertext) String() string {
	raw, _ := json.Marshal(ct)
	return string(raw)
}
