// Copyright 2025 Certen Protocol

package l2

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	rtypes "github.com/twinexyz/twarb/pkg/types"
)

func signedLegacyTx(t *testing.T, chainID *big.Int, nonce uint64) *types.Transaction {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	to := common.HexToAddress("0x000000000000000000000000000000000000aa")
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    big.NewInt(1),
		Gas:      21000,
		GasPrice: big.NewInt(1_000_000_000),
	})
	signer := types.LatestSignerForChainID(chainID)
	signed, err := types.SignTx(tx, signer, key)
	if err != nil {
		t.Fatalf("failed to sign tx: %v", err)
	}
	return signed
}

func TestGenerateCommitBatchInfo_ClassifiesTransactions(t *testing.T) {
	chainID := big.NewInt(1)
	tx0 := signedLegacyTx(t, chainID, 0)
	tx1 := signedLegacyTx(t, chainID, 1)
	tx2 := signedLegacyTx(t, chainID, 2)
	tx3 := signedLegacyTx(t, chainID, 3)

	header := &types.Header{Number: big.NewInt(10)}
	block := types.NewBlock(header, &types.Body{Transactions: []*types.Transaction{tx0, tx1, tx2, tx3}})

	txTypes := map[uint]rtypes.L2TxType{
		0: rtypes.TxDeposit,
		1: rtypes.TxForced,
		3: rtypes.TxLayerzero,
	}

	info := generateCommitBatchInfo(block, common.Hash{0xaa}, txTypes, chainID)

	if info.BatchNumber != 10 {
		t.Errorf("batch number mismatch: got %d, want 10", info.BatchNumber)
	}
	if len(info.DepositTransactions) != 1 {
		t.Errorf("expected 1 deposit transaction, got %d", len(info.DepositTransactions))
	}
	if len(info.ForcedTransactions) != 1 {
		t.Errorf("expected 1 forced transaction, got %d", len(info.ForcedTransactions))
	}
	if len(info.LayerzeroTransactions) != 1 {
		t.Errorf("expected 1 layerzero transaction, got %d", len(info.LayerzeroTransactions))
	}
	if len(info.OtherTransactions) != 1 {
		t.Errorf("expected 1 other transaction, got %d", len(info.OtherTransactions))
	}
	if info.PreviousStateRoot != (common.Hash{0xaa}) {
		t.Error("previous state root not carried through")
	}
}

func TestFilterL2Transactions_TopicSignatures(t *testing.T) {
	if l1TokenDepositSignature != crypto.Keccak256Hash([]byte("L1TokenDeposit()")) {
		t.Error("deposit event signature does not match L1TokenDeposit()")
	}
	if forcedWithdrawalSignature != crypto.Keccak256Hash([]byte("ForcedWithdrawal()")) {
		t.Error("forced withdrawal event signature mismatch")
	}
	if layerzeroPayloadSignature != crypto.Keccak256Hash([]byte("LayerzeroPayload(uint256,bytes32)")) {
		t.Error("layerzero payload event signature mismatch")
	}
}

func TestGenerateCommitBatchInfo_DropsUnsignedTransactions(t *testing.T) {
	chainID := big.NewInt(1)
	to := common.HexToAddress("0x000000000000000000000000000000000000aa")
	unsigned := types.NewTx(&types.LegacyTx{
		Nonce: 0, To: &to, Value: big.NewInt(1), Gas: 21000, GasPrice: big.NewInt(1),
	})

	header := &types.Header{Number: big.NewInt(1)}
	block := types.NewBlock(header, &types.Body{Transactions: []*types.Transaction{unsigned}})

	info := generateCommitBatchInfo(block, common.Hash{}, map[uint]rtypes.L2TxType{}, chainID)

	total := len(info.DepositTransactions) + len(info.ForcedTransactions) + len(info.LayerzeroTransactions) + len(info.OtherTransactions)
	if total != 0 {
		t.Errorf("expected unsigned transaction to be dropped, got %d classified transactions", total)
	}
}

func TestToAddress_NilPointer(t *testing.T) {
	if got := toAddress(nil); got != (common.Address{}) {
		t.Errorf("expected zero address for nil pointer, got %v", got)
	}
}

func TestToAddress_NonNil(t *testing.T) {
	addr := common.HexToAddress("0x000000000000000000000000000000000000bb")
	if got := toAddress(&addr); got != addr {
		t.Errorf("address mismatch: got %v, want %v", got, addr)
	}
}
