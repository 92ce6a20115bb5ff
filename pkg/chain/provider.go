// Copyright 2025 Certen Protocol
//
// ChainProvider is the narrow interface the Poster and Balance Monitor drive
// against every configured L1 destination, regardless of chain family.

package chain

import (
	"context"
	"math/big"

	"github.com/twinexyz/twarb/pkg/types"
)

// Provider submits finalize/commit calls and reports the poster account's
// balance for one L1 destination.
type Provider interface {
	// QueryBalance returns the poster account's native-token balance.
	QueryBalance(ctx context.Context) (*big.Int, error)

	// CommitBatch posts the L2-derived batch payload. The poster continues
	// on to SubmitProof even if this call fails.
	CommitBatch(ctx context.Context, info types.CommitBatchInfo) (string, error)

	// SubmitProof posts params to the destination's rollup contract,
	// returning the settled transaction hash.
	SubmitProof(ctx context.Context, params types.PostParams) (string, error)

	// Address returns the poster account address for this destination, used
	// for logging and the balance monitor's per-destination labels.
	Address() string
}
