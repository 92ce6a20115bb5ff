// Copyright 2025 Certen Protocol

package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// L2TxType categorizes an L2 transaction by the event it emitted.
type L2TxType int

const (
	TxNormal L2TxType = iota
	TxDeposit
	TxForced
	TxLayerzero
)

// TransactionObject is one L2 transaction as embedded in a CommitBatchInfo.
type TransactionObject struct {
	From                 common.Address
	To                   common.Address
	Nonce                *big.Int
	Value                *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	V                    uint8
	R                    common.Hash
	S                    common.Hash
	TransactionHash      common.Hash
	BlockHash            common.Hash
	BlockNumber          *big.Int
	TransactionIndex     *big.Int
	GasPrice             *big.Int
	Gas                  uint64
	Input                []byte
	ChainID              *big.Int
}

// CommitBatchInfo is the L2-block-derived payload posted to the L1 rollup
// contract's commitBatch call.
type CommitBatchInfo struct {
	BatchNumber           uint64
	BatchHash             common.Hash
	PreviousStateRoot     common.Hash
	StateRoot             common.Hash
	TransactionRoot       common.Hash
	ReceiptRoot           common.Hash
	DepositTransactions   []TransactionObject
	ForcedTransactions    []TransactionObject
	LayerzeroTransactions []TransactionObject
	OtherTransactions     []TransactionObject
}
