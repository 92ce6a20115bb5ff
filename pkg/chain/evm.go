// Copyright 2025 Certen Protocol

package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	rtypes "github.com/twinexyz/twarb/pkg/types"
)

const (
	submitMaxRetries    = 10
	submitRetryDelay    = 15 * time.Second
	maxFeePerGas        = 200_000_000_000_000
	maxPriorityFeePerGas = 2_000_000
)

// rollupABI is the minimal ABI fragment needed to encode calls to the
// rollup contract's commitBatch and finalizeBatch methods. commitBatch takes
// the batch's scalar header fields; the per-transaction deposit/forced
// arrays are relevant to the contract's L1 message processing but are
// summarized here rather than abi-encoded as nested dynamic tuples.
const rollupABI = `[
	{
		"type":"function",
		"name":"finalizeBatch",
		"inputs":[{"name":"batchNumber","type":"uint256"},{"name":"_proofBytes","type":"bytes"}],
		"outputs":[],
		"stateMutability":"nonpayable"
	},
	{
		"type":"function",
		"name":"commitBatch",
		"inputs":[
			{"name":"batchNumber","type":"uint256"},
			{"name":"batchHash","type":"bytes32"},
			{"name":"previousStateRoot","type":"bytes32"},
			{"name":"stateRoot","type":"bytes32"},
			{"name":"transactionRoot","type":"bytes32"},
			{"name":"receiptRoot","type":"bytes32"}
		],
		"outputs":[],
		"stateMutability":"nonpayable"
	}
]`

// EVM is the Provider implementation for EVM-compatible L1 destinations.
type EVM struct {
	client   *ethclient.Client
	contract common.Address
	key      *ecdsa.PrivateKey
	address  common.Address
	chainID  *big.Int
	abi      abi.ABI
	logger   *log.Logger
}

// NewEVM dials rpcURL and builds a Provider signing with privateKeyHex
// against contractAddr.
func NewEVM(ctx context.Context, rpcURL, privateKeyHex, contractAddr string) (*EVM, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial evm rpc: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("error parsing private key: %w", err)
	}

	pub, ok := key.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("error deriving public key")
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chain id: %w", err)
	}

	parsedABI, err := abi.JSON(strings.NewReader(rollupABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rollup abi: %w", err)
	}

	return &EVM{
		client:   client,
		contract: common.HexToAddress(contractAddr),
		key:      key,
		address:  crypto.PubkeyToAddress(*pub),
		chainID:  chainID,
		abi:      parsedABI,
		logger:   log.New(log.Writer(), "[EVM] ", log.LstdFlags),
	}, nil
}

// Address returns the poster account's hex address.
func (e *EVM) Address() string {
	return e.address.Hex()
}

// QueryBalance returns the poster account's ether balance.
func (e *EVM) QueryBalance(ctx context.Context) (*big.Int, error) {
	return e.client.BalanceAt(ctx, e.address, nil)
}

// CommitBatch encodes and sends a commitBatch transaction for the given
// L2-derived batch payload, following the same retry contract as SubmitProof.
func (e *EVM) CommitBatch(ctx context.Context, info rtypes.CommitBatchInfo) (string, error) {
	data, err := e.abi.Pack("commitBatch",
		new(big.Int).SetUint64(info.BatchNumber),
		info.BatchHash,
		info.PreviousStateRoot,
		info.StateRoot,
		info.TransactionRoot,
		info.ReceiptRoot,
	)
	if err != nil {
		return "", fmt.Errorf("failed to encode commitBatch call: %w", err)
	}

	txHash, err := e.sendWithRetry(ctx, data, info.BatchNumber, "commit")
	if err != nil {
		return "", err
	}
	e.logger.Printf("batch committed! batch:%d txn_hash=%s", info.BatchNumber, txHash)
	return txHash, nil
}

// SubmitProof encodes and sends a finalizeBatch transaction, retrying per
// the configured submission contract: on send or receipt failure, sleep 15s
// and retry, up to 10 attempts.
func (e *EVM) SubmitProof(ctx context.Context, params rtypes.PostParams) (string, error) {
	if params.SP1 == nil {
		return "", fmt.Errorf("evm provider only supports sp1 post params")
	}

	data, err := e.abi.Pack("finalizeBatch", new(big.Int).SetUint64(params.Height), params.SP1.PlonkProof)
	if err != nil {
		return "", fmt.Errorf("failed to encode finalizeBatch call: %w", err)
	}

	txHash, err := e.sendWithRetry(ctx, data, params.Height, "finalize")
	if err != nil {
		return "", err
	}
	e.logger.Printf("posted sp1 proof for block:%d txn_hash=%s", params.Height, txHash)
	return txHash, nil
}

func (e *EVM) sendWithRetry(ctx context.Context, data []byte, height uint64, label string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < submitMaxRetries; attempt++ {
		txHash, err := e.sendOnce(ctx, data)
		if err == nil {
			return txHash, nil
		}
		lastErr = err
		e.logger.Printf("%s transaction failed! error: %v retrying! block=%d attempt=%d", label, err, height, attempt+1)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(submitRetryDelay):
		}
	}

	return "", fmt.Errorf("failed to submit transaction after %d attempts: %w", submitMaxRetries, lastErr)
}

func (e *EVM) sendOnce(ctx context.Context, data []byte) (string, error) {
	nonce, err := e.client.PendingNonceAt(ctx, e.address)
	if err != nil {
		return "", err
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   e.chainID,
		Nonce:     nonce,
		To:        &e.contract,
		Gas:       2_000_000,
		GasFeeCap: big.NewInt(maxFeePerGas),
		GasTipCap: big.NewInt(maxPriorityFeePerGas),
		Data:      data,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(e.chainID), e.key)
	if err != nil {
		return "", err
	}

	if err := e.client.SendTransaction(ctx, signed); err != nil {
		return "", err
	}

	receipt, err := e.waitReceipt(ctx, signed.Hash())
	if err != nil {
		return "", err
	}
	return receipt.TxHash.Hex(), nil
}

// waitReceipt polls briefly for the receipt; a transaction not yet mined is
// treated as a failure of this attempt so the outer retry loop's 15s sleep
// applies rather than spinning here indefinitely.
func (e *EVM) waitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	const pollAttempts = 5
	for i := 0; i < pollAttempts; i++ {
		receipt, err := e.client.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return nil, fmt.Errorf("receipt not available for %s", hash.Hex())
}
