// Package prover compiles circuits and drives the groth16 and plonk backends
// behind one interface. Proofs travel as opaque bytes.
package prover

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/frontend/cs/scs"
	"github.com/consensys/gnark/logger"
	"github.com/consensys/gnark/test/unsafekzg"
)

// Scheme selects the proving backend.
type Scheme uint8

const (
	Groth16 Scheme = iota
	Plonk
)

func (s Scheme) String() string {
	switch s {
	case Groth16:
		return "groth16"
	case Plonk:
		return "plonk"
	default:
		return fmt.Sprintf("scheme(%d)", s)
	}
}

// ParseScheme maps a configuration string onto a Scheme.
func ParseScheme(s string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "groth16":
		return Groth16, nil
	case "plonk":
		return Plonk, nil
	default:
		return 0, fmt.Errorf("prover: unknown scheme %q", s)
	}
}

// Curve is the pairing curve every circuit is compiled for. Its scalar field
// is the base field of Baby Jubjub.
const Curve = ecc.BN254

// ErrNoKeys is returned by Prove and Verify before Setup or SetupOrLoadKeys.
var ErrNoKeys = errors.New("prover: keys not initialized")

// System is a compiled circuit together with its keys.
type System struct {
	Scheme Scheme
	Ccs    constraint.ConstraintSystem

	g16pk groth16.ProvingKey
	g16vk groth16.VerifyingKey
	plpk  plonk.ProvingKey
	plvk  plonk.VerifyingKey
}

// Compile builds the constraint system of circuit for scheme.
func Compile(circuit frontend.Circuit, scheme Scheme) (*System, error) {
	var builder frontend.NewBuilder = r1cs.NewBuilder
	switch scheme {
	case Groth16:
	case Plonk:
		builder = scs.NewBuilder
	default:
		return nil, fmt.Errorf("prover: unknown scheme %v", scheme)
	}
	start := time.Now()
	ccs, err := frontend.Compile(Curve.ScalarField(), builder, circuit)
	if err != nil {
		return nil, fmt.Errorf("circuit compilation failed: %w", err)
	}
	log := logger.Logger()
	log.Debug().
		Str("backend", scheme.String()).
		Int("nbConstraints", ccs.GetNbConstraints()).
		Dur("took", time.Since(start)).
		Msg("circuit compiled")
	return &System{Scheme: scheme, Ccs: ccs}, nil
}

// Setup generates fresh keys in memory. The plonk SRS comes from
// unsafekzg and is only fit for development.
func (s *System) Setup() error {
	start := time.Now()
	switch s.Scheme {
	case Groth16:
		pk, vk, err := groth16.Setup(s.Ccs)
		if err != nil {
			return fmt.Errorf("groth16 setup: %w", err)
		}
		s.g16pk, s.g16vk = pk, vk
	case Plonk:
		srs, srsLagrange, err := unsafekzg.NewSRS(s.Ccs)
		if err != nil {
			return fmt.Errorf("kzg srs: %w", err)
		}
		pk, vk, err := plonk.Setup(s.Ccs, srs, srsLagrange)
		if err != nil {
			return fmt.Errorf("plonk setup: %w", err)
		}
		s.plpk, s.plvk = pk, vk
	}
	log := logger.Logger()
	log.Debug().Str("backend", s.Scheme.String()).Dur("took", time.Since(start)).Msg("keys generated")
	return nil
}

func (s *System) hasKeys() bool {
	switch s.Scheme {
	case Groth16:
		return s.g16pk != nil && s.g16vk != nil
	case Plonk:
		return s.plpk != nil && s.plvk != nil
	}
	return false
}

// NbConstraints returns the size of the compiled circuit.
func (s *System) NbConstraints() int {
	return s.Ccs.GetNbConstraints()
}

// Prove solves the circuit for assignment and serializes the proof.
// An unsatisfiable assignment fails here.
func (s *System) Prove(assignment frontend.Circuit) ([]byte, error) {
	if !s.hasKeys() {
		return nil, ErrNoKeys
	}
	w, err := frontend.NewWitness(assignment, Curve.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("witness creation failed: %w", err)
	}

	var buf bytes.Buffer
	switch s.Scheme {
	case Groth16:
		proof, err := groth16.Prove(s.Ccs, s.g16pk, w)
		if err != nil {
			return nil, fmt.Errorf("proof generation failed: %w", err)
		}
		if _, err := proof.WriteTo(&buf); err != nil {
			return nil, fmt.Errorf("proof marshaling failed: %w", err)
		}
	case Plonk:
		proof, err := plonk.Prove(s.Ccs, s.plpk, w)
		if err != nil {
			return nil, fmt.Errorf("proof generation failed: %w", err)
		}
		if _, err := proof.WriteTo(&buf); err != nil {
			return nil, fmt.Errorf("proof marshaling failed: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// Verify checks proof against the public part of assignment.
func (s *System) Verify(proof []byte, assignment frontend.Circuit) error {
	if !s.hasKeys() {
		return ErrNoKeys
	}
	w, err := frontend.NewWitness(assignment, Curve.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return fmt.Errorf("public witness creation failed: %w", err)
	}

	switch s.Scheme {
	case Groth16:
		p := groth16.NewProof(Curve)
		if _, err := p.ReadFrom(bytes.NewReader(proof)); err != nil {
			return fmt.Errorf("proof unmarshaling failed: %w", err)
		}
		if err := groth16.Verify(p, s.g16vk, w); err != nil {
			return fmt.Errorf("proof verification failed: %w", err)
		}
	case Plonk:
		p := plonk.NewProof(Curve)
		if _, err := p.ReadFrom(bytes.NewReader(proof)); err != nil {
			return fmt.Errorf("proof unmarshaling failed: %w", err)
		}
		if err := plonk.Verify(p, s.plvk, w); err != nil {
			return fmt.Errorf("proof verification failed: %w", err)
		}
	}
	return nil
}
