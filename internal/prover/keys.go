package prover

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/logger"
)

// KeyPaths returns where SetupOrLoadKeys keeps the keys of a circuit named name.
func (s *System) KeyPaths(dir, name string) (pkPath, vkPath string) {
	base := filepath.Join(dir, fmt.Sprintf("%s_%s", name, s.Scheme))
	return base + ".pk", base + ".vk"
}

// SetupOrLoadKeys loads the keys from dir if both files exist; otherwise it
// generates new keys and saves them.
func (s *System) SetupOrLoadKeys(dir, name string) error {
	pkPath, vkPath := s.KeyPaths(dir, name)
	log := logger.Logger().With().Str("backend", s.Scheme.String()).Str("circuit", name).Logger()

	pkErr := s.LoadProvingKey(pkPath)
	vkErr := s.LoadVerifyingKey(vkPath)
	if pkErr == nil && vkErr == nil {
		log.Debug().Str("dir", dir).Msg("keys loaded")
		return nil
	}
	if !errors.Is(pkErr, fs.ErrNotExist) && !errors.Is(vkErr, fs.ErrNotExist) {
		return fmt.Errorf("loading keys: %w", errors.Join(pkErr, vkErr))
	}

	if err := s.Setup(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := s.SaveProvingKey(pkPath); err != nil {
		return err
	}
	if err := s.SaveVerifyingKey(vkPath); err != nil {
		return err
	}
	log.Info().Str("dir", dir).Msg("keys generated and saved")
	return nil
}

// SaveProvingKey writes the proving key to path.
func (s *System) SaveProvingKey(path string) error {
	switch s.Scheme {
	case Groth16:
		return writeTo(path, s.g16pk)
	case Plonk:
		return writeTo(path, s.plpk)
	}
	return ErrNoKeys
}

// SaveVerifyingKey writes the verifying key to path.
func (s *System) SaveVerifyingKey(path string) error {
	switch s.Scheme {
	case Groth16:
		return writeTo(path, s.g16vk)
	case Plonk:
		return writeTo(path, s.plvk)
	}
	return ErrNoKeys
}

// LoadProvingKey reads a proving key written by SaveProvingKey.
func (s *System) LoadProvingKey(path string) error {
	switch s.Scheme {
	case Groth16:
		pk := groth16.NewProvingKey(Curve)
		if err := readFrom(path, pk); err != nil {
			return err
		}
		s.g16pk = pk
	case Plonk:
		pk := plonk.NewProvingKey(Curve)
		if err := readFrom(path, pk); err != nil {
			return err
		}
		s.plpk = pk
	}
	return nil
}

// LoadVerifyingKey reads a verifying key written by SaveVerifyingKey.
func (s *System) LoadVerifyingKey(path string) error {
	switch s.Scheme {
	case Groth16:
		vk := groth16.NewVerifyingKey(Curve)
		if err := readFrom(path, vk); err != nil {
			return err
		}
		s.g16vk = vk
	case Plonk:
		vk := plonk.NewVerifyingKey(Curve)
		if err := readFrom(path, vk); err != nil {
			return err
		}
		s.plvk = vk
	}
	return nil
}

func writeTo(path string, w io.WriterTo) error {
	if w == nil {
		return ErrNoKeys
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = w.WriteTo(f)
	return err
}

func readFrom(path string, r io.ReaderFrom) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = r.ReadFrom(f)
	return err
}
