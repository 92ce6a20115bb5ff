// Copyright 2025 Certen Protocol

package verifier

import (
	"fmt"

	"github.com/twinexyz/twarb/pkg/relerr"
	"github.com/twinexyz/twarb/pkg/types"
)

// Dummy is the always-succeeds test-scaffold prover. The batch height is
// taken from byte[1] of the opaque proof blob, widened to uint64.
type Dummy struct{}

// NewDummy builds a Dummy verifier.
func NewDummy() *Dummy { return &Dummy{} }

// Verify accepts any payload of at least 2 bytes; it exists purely to
// exercise the relay's plumbing. Shorter payloads fail with
// ErrProofParsingFailed.
func (d *Dummy) Verify(envelope types.ProofEnvelope) (uint64, error) {
	if len(envelope.DummyProof) < 2 {
		return 0, fmt.Errorf("%w: dummy proof must carry at least 2 bytes", relerr.ErrProofParsingFailed)
	}
	return uint64(envelope.DummyProof[1]), nil
}
