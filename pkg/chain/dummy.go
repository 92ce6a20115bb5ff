// Copyright 2025 Certen Protocol

package chain

import (
	"context"
	"math/big"

	"github.com/twinexyz/twarb/pkg/types"
)

// Dummy is a deterministic, always-succeeds Provider used for exercising
// the relay's plumbing without touching a real chain.
type Dummy struct {
	address string
	balance *big.Int
}

// NewDummy builds a Dummy provider reporting a fixed balance.
func NewDummy(address string) *Dummy {
	return &Dummy{address: address, balance: big.NewInt(1_000_000_000_000_000_000)}
}

func (d *Dummy) Address() string { return d.address }

func (d *Dummy) QueryBalance(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(d.balance), nil
}

func (d *Dummy) CommitBatch(ctx context.Context, info types.CommitBatchInfo) (string, error) {
	return "0xdummy-commit", nil
}

func (d *Dummy) SubmitProof(ctx context.Context, params types.PostParams) (string, error) {
	return "0xdummy", nil
}
