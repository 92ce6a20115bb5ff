// Copyright 2025 Certen Protocol

package verifier

import (
	"github.com/twinexyz/twarb/pkg/relerr"
	"github.com/twinexyz/twarb/pkg/types"
)

// RISC0 is a stub: the ingress server rejects RISC0 proofs and the Verifier
// discards any that reach it. The RISC0 verifier integration is not
// implemented.
type RISC0 struct{}

// NewRISC0 builds a RISC0 stub verifier.
func NewRISC0() *RISC0 { return &RISC0{} }

// Verify always fails with ErrNotSupported.
func (r *RISC0) Verify(envelope types.ProofEnvelope) (uint64, error) {
	return 0, relerr.ErrNotSupported
}
