// Copyright 2025 Certen Protocol

package chain

import (
	"context"
	"math/big"

	"github.com/twinexyz/twarb/pkg/relerr"
	"github.com/twinexyz/twarb/pkg/types"
)

// Solana is a selectable-but-unimplemented Provider. The original
// implementation never finished its Solana chain adapter either; every
// method here fails loudly rather than silently no-opping, so a misrouted
// "solana" l1 entry is caught at first use instead of going quiet.
type Solana struct {
	address string
}

// NewSolana builds a Solana stub provider for the configured account.
func NewSolana(address string) *Solana {
	return &Solana{address: address}
}

func (s *Solana) Address() string { return s.address }

func (s *Solana) QueryBalance(ctx context.Context) (*big.Int, error) {
	return nil, relerr.ErrNotSupported
}

func (s *Solana) CommitBatch(ctx context.Context, info types.CommitBatchInfo) (string, error) {
	return "", relerr.ErrNotSupported
}

func (s *Solana) SubmitProof(ctx context.Context, params types.PostParams) (string, error) {
	return "", relerr.ErrNotSupported
}
