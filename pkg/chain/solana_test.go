// Copyright 2025 Certen Protocol

package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/twinexyz/twarb/pkg/relerr"
	"github.com/twinexyz/twarb/pkg/types"
)

func TestSolana_ImplementsProvider(t *testing.T) {
	var _ Provider = NewSolana("sol-address")
}

func TestSolana_EveryMethodIsUnsupported(t *testing.T) {
	s := NewSolana("sol-address")

	if _, err := s.QueryBalance(context.Background()); !errors.Is(err, relerr.ErrNotSupported) {
		t.Errorf("QueryBalance: expected ErrNotSupported, got %v", err)
	}
	if _, err := s.CommitBatch(context.Background(), types.CommitBatchInfo{}); !errors.Is(err, relerr.ErrNotSupported) {
		t.Errorf("CommitBatch: expected ErrNotSupported, got %v", err)
	}
	if _, err := s.SubmitProof(context.Background(), types.PostParams{}); !errors.Is(err, relerr.ErrNotSupported) {
		t.Errorf("SubmitProof: expected ErrNotSupported, got %v", err)
	}
}

func TestSolana_Address(t *testing.T) {
	s := NewSolana("sol-address")
	if s.Address() != "sol-address" {
		t.Errorf("Address mismatch: got %q", s.Address())
	}
}
