// Copyright 2025 Certen Protocol

package verifier

import (
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/twinexyz/twarb/pkg/relerr"
	"github.com/twinexyz/twarb/pkg/types"
)

func TestBeUint64(t *testing.T) {
	b := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x2c} // 300
	if got := beUint64(b); got != 300 {
		t.Errorf("beUint64 mismatch: got %d, want 300", got)
	}
}

func TestSP1_Verify_MissingELF(t *testing.T) {
	sp1 := NewSP1(map[string]string{})

	_, err := sp1.Verify(types.ProofEnvelope{SP1Proof: &types.SP1ProofWithPublicValues{}})
	if !errors.Is(err, relerr.ErrELFFileNotFound) {
		t.Fatalf("expected ErrELFFileNotFound, got %v", err)
	}
}

func TestSP1_Verify_NilProof(t *testing.T) {
	sp1 := NewSP1(map[string]string{"sp1": "/tmp/does-not-matter.elf"})

	_, err := sp1.Verify(types.ProofEnvelope{})
	if !errors.Is(err, relerr.ErrProofParsingFailed) {
		t.Fatalf("expected ErrProofParsingFailed, got %v", err)
	}
}

func TestSP1_PublicValues_HexEncodes(t *testing.T) {
	sp1 := NewSP1(nil)
	proof := &types.SP1ProofWithPublicValues{PublicValues: []byte{0xde, 0xad, 0xbe, 0xef}}

	got := sp1.PublicValues(proof)
	want := hex.EncodeToString([]byte{0xde, 0xad, 0xbe, 0xef})
	if got != want {
		t.Errorf("public values mismatch: got %q, want %q", got, want)
	}
}

func TestSP1_VerifyingKeyBytes_CachesByPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.elf")
	if err := os.WriteFile(path, []byte("elf-bytes"), 0o600); err != nil {
		t.Fatalf("failed to write test elf: %v", err)
	}

	sp1 := NewSP1(map[string]string{"sp1": path})

	first, err := sp1.verifyingKeyBytes()
	if err != nil {
		t.Fatalf("verifyingKeyBytes returned error: %v", err)
	}
	if string(first) != "elf-bytes" {
		t.Errorf("unexpected elf bytes: %q", first)
	}

	// Remove the file; a cache hit should still succeed.
	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove test elf: %v", err)
	}
	second, err := sp1.verifyingKeyBytes()
	if err != nil {
		t.Fatalf("expected cached verifying key bytes, got error: %v", err)
	}
	if string(second) != "elf-bytes" {
		t.Errorf("unexpected cached elf bytes: %q", second)
	}
}

func TestSP1_ProcessProof_BuildsSelectorPrefixedProof(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.elf")
	if err := os.WriteFile(path, []byte("0123456789abcdef0123456789abcdef"), 0o600); err != nil {
		t.Fatalf("failed to write test elf: %v", err)
	}

	sp1 := NewSP1(map[string]string{"sp1": path})
	proof := &types.SP1ProofWithPublicValues{
		EncodedProof: []byte{0x01, 0x02, 0x03},
		PublicValues: []byte{0xaa, 0xbb},
		Variant:      types.VariantPlonk,
	}

	params, err := sp1.ProcessProof(proof, 42)
	if err != nil {
		t.Fatalf("ProcessProof returned error: %v", err)
	}
	if params.Height != 42 {
		t.Errorf("height mismatch: got %d, want 42", params.Height)
	}
	selector := types.VariantPlonk.Selector()
	if len(params.SP1.PlonkProof) != len(selector)+len(proof.EncodedProof) {
		t.Errorf("plonk proof length mismatch: got %d", len(params.SP1.PlonkProof))
	}
	for i, b := range selector {
		if params.SP1.PlonkProof[i] != b {
			t.Errorf("selector prefix mismatch at byte %d: got %x, want %x", i, params.SP1.PlonkProof[i], b)
		}
	}
}
