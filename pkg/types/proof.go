// Copyright 2025 Certen Protocol
//
// Proof envelope and post-params tagged variants exchanged between the
// ingress server, the verifier, the quorum store, and the poster.

package types

import (
	"fmt"
	"strings"
	"time"
)

// SupportedProver enumerates the proof systems the relay understands.
type SupportedProver int

const (
	ProverSP1 SupportedProver = iota
	ProverRISC0
	ProverDummy
)

func (p SupportedProver) String() string {
	switch p {
	case ProverSP1:
		return "sp1"
	case ProverRISC0:
		return "risc0"
	case ProverDummy:
		return "dummy"
	default:
		return "unknown"
	}
}

// ParseSupportedProver parses the wire/config string form of a prover type.
func ParseSupportedProver(s string) (SupportedProver, error) {
	switch strings.ToLower(s) {
	case "sp1":
		return ProverSP1, nil
	case "risc0":
		return ProverRISC0, nil
	case "dummy":
		return ProverDummy, nil
	default:
		return 0, fmt.Errorf("invalid prover type %q: sp1, risc0 and dummy supported", s)
	}
}

// ProofEnvelope is the tagged union accepted by twarb_sendProof.
type ProofEnvelope struct {
	Kind       SupportedProver
	Identifier string

	// SP1Proof holds the JSON-decoded SP1ProofWithPublicValues-equivalent payload.
	SP1Proof *SP1ProofWithPublicValues

	// RISC0Proof / DummyProof carry opaque bytes for their respective kinds.
	RISC0Proof []byte
	DummyProof []byte
}

// SP1ProofWithPublicValues mirrors the SP1 prover SDK's serialized proof
// object: a plonk or groth16-encoded proof plus its public values.
type SP1ProofWithPublicValues struct {
	// EncodedProof is the raw (unselector-prefixed) proof bytes.
	EncodedProof []byte `json:"encoded_proof"`
	// PublicValues is the proof's public-input byte string; bytes [0:8] encode
	// the batch height big-endian.
	PublicValues []byte `json:"public_values"`
	// Variant distinguishes the groth16 and plonk SP1 verifier selectors.
	Variant ProofVariant `json:"variant"`
}

// ProofVariant selects which verifier-selector prefix applies to an SP1 proof.
type ProofVariant int

const (
	VariantGroth16 ProofVariant = iota
	VariantPlonk
)

// Selector returns the 4-byte verifier selector prefix for the variant.
func (v ProofVariant) Selector() [4]byte {
	switch v {
	case VariantGroth16:
		return [4]byte{0x09, 0x06, 0x90, 0x90}
	default:
		return [4]byte{0xc8, 0x65, 0xc1, 0xb6}
	}
}

// ProofRecord is created only after successful local verification; a record
// existing implies the proof passed verification.
type ProofRecord struct {
	ProofBlob []byte
	ProofType SupportedProver
	Verified  bool
	Timestamp time.Time
}

// PostParams is the tagged variant carrying exactly the fields needed for
// on-chain finalize, dispatched on ProofType.
type PostParams struct {
	Kind   SupportedProver
	Height uint64

	SP1    *SP1PostParams
	RISC0  *RISC0PostParams
	Dummy  *DummyPostParams
}

// SP1PostParams carries the selector-prefixed plonk proof, the verifying
// key, and the public values, matching the L1 verifier ABI.
type SP1PostParams struct {
	VerifyingKey [32]byte
	PublicValues []byte
	PlonkProof   []byte // verifier-selector-prefixed
}

type RISC0PostParams struct {
	Proof []byte
}

type DummyPostParams struct {
	Proof []byte
}
