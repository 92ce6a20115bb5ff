// Copyright 2025 Certen Protocol
//
// L2: fetches the commit-batch payload for a finalized batch height from the
// rollup's L2 RPC, categorizing each transaction by the messenger event (if
// any) it is paired with.

package l2

import (
	"context"
	"fmt"
	"log"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/twinexyz/twarb/pkg/relerr"
	rtypes "github.com/twinexyz/twarb/pkg/types"
)

const fetchMaxRetries = 5

var (
	l1TokenDepositSignature   = crypto.Keccak256Hash([]byte("L1TokenDeposit()"))
	forcedWithdrawalSignature = crypto.Keccak256Hash([]byte("ForcedWithdrawal()"))
	layerzeroPayloadSignature = crypto.Keccak256Hash([]byte("LayerzeroPayload(uint256,bytes32)"))
)

// Client reads commit-batch data from the rollup L2 chain.
type Client struct {
	eth               *ethclient.Client
	messengerContract common.Address
	chainID           *big.Int
	logger            *log.Logger
}

// NewClient dials the L2 RPC.
func NewClient(ctx context.Context, rpcURL, messengerContract string) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial l2 rpc: %w", err)
	}
	chainID, err := eth.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch l2 chain id: %w", err)
	}
	return &Client{
		eth:               eth,
		messengerContract: common.HexToAddress(messengerContract),
		chainID:           chainID,
		logger:            log.New(log.Writer(), "[L2] ", log.LstdFlags),
	}, nil
}

// FetchCommitBatch retrieves the block at height plus its parent's state
// root, and categorizes each transaction into deposit/forced/layerzero/other based on
// the messenger log it paired with. Unsigned transactions are dropped.
func (c *Client) FetchCommitBatch(ctx context.Context, height uint64) (rtypes.CommitBatchInfo, error) {
	attempt := 0
	for {
		block, err := c.eth.BlockByNumber(ctx, new(big.Int).SetUint64(height))
		if err != nil {
			attempt++
			if attempt > fetchMaxRetries {
				return rtypes.CommitBatchInfo{}, relerr.ErrFailedToFetchCommitBatch
			}
			c.logger.Printf("failed to query block: %v", err)
			continue
		}
		if block == nil {
			attempt++
			c.logger.Println("no result in block")
			continue
		}

		prevBlock, err := c.eth.BlockByNumber(ctx, new(big.Int).SetUint64(height-1))
		if err != nil || prevBlock == nil {
			attempt++
			continue
		}

		txTypes, err := c.filterL2Transactions(ctx, block.Hash())
		if err != nil {
			attempt++
			c.logger.Printf("failed to get logs: %v", err)
			continue
		}

		return generateCommitBatchInfo(block, prevBlock.Root(), txTypes, c.chainID), nil
	}
}

func (c *Client) filterL2Transactions(ctx context.Context, blockHash common.Hash) (map[uint]rtypes.L2TxType, error) {
	filter := ethereum.FilterQuery{
		BlockHash: &blockHash,
		Addresses: []common.Address{c.messengerContract},
		Topics:    [][]common.Hash{{l1TokenDepositSignature, forcedWithdrawalSignature, layerzeroPayloadSignature}},
	}

	logs, err := c.eth.FilterLogs(ctx, filter)
	if err != nil {
		return nil, err
	}

	txTypes := make(map[uint]rtypes.L2TxType)
	for _, logEntry := range logs {
		if len(logEntry.Topics) == 0 {
			continue
		}
		idx := uint(logEntry.TxIndex)
		switch logEntry.Topics[0] {
		case l1TokenDepositSignature:
			txTypes[idx] = rtypes.TxDeposit
		case forcedWithdrawalSignature:
			txTypes[idx] = rtypes.TxForced
		case layerzeroPayloadSignature:
			txTypes[idx] = rtypes.TxLayerzero
		}
	}
	return txTypes, nil
}

func generateCommitBatchInfo(block *types.Block, prevStateRoot common.Hash, txTypes map[uint]rtypes.L2TxType, chainID *big.Int) rtypes.CommitBatchInfo {
	info := rtypes.CommitBatchInfo{
		BatchNumber:       block.NumberU64(),
		BatchHash:         block.Hash(),
		PreviousStateRoot: prevStateRoot,
		StateRoot:         block.Root(),
		TransactionRoot:   block.TxHash(),
		ReceiptRoot:       block.ReceiptHash(),
	}

	signer := types.LatestSignerForChainID(chainID)

	for idx, tx := range block.Transactions() {
		from, err := types.Sender(signer, tx)
		if err != nil {
			// unsigned or unrecoverable-sender transactions are dropped.
			continue
		}

		v, r, s := tx.RawSignatureValues()
		obj := rtypes.TransactionObject{
			From:                 from,
			To:                   toAddress(tx.To()),
			Nonce:                new(big.Int).SetUint64(tx.Nonce()),
			Value:                tx.Value(),
			MaxFeePerGas:         gasFeeCap(tx),
			MaxPriorityFeePerGas: gasTipCap(tx),
			V:                    uint8(v.Uint64() & 1),
			R:                    common.BigToHash(r),
			S:                    common.BigToHash(s),
			TransactionHash:      tx.Hash(),
			BlockHash:            block.Hash(),
			BlockNumber:          block.Number(),
			TransactionIndex:     big.NewInt(int64(idx)),
			GasPrice:             tx.GasPrice(),
			Gas:                  tx.Gas(),
			Input:                tx.Data(),
			ChainID:              tx.ChainId(),
		}

		switch txTypes[uint(idx)] {
		case rtypes.TxDeposit:
			info.DepositTransactions = append(info.DepositTransactions, obj)
		case rtypes.TxForced:
			info.ForcedTransactions = append(info.ForcedTransactions, obj)
		case rtypes.TxLayerzero:
			info.LayerzeroTransactions = append(info.LayerzeroTransactions, obj)
		default:
			info.OtherTransactions = append(info.OtherTransactions, obj)
		}
	}

	return info
}

func toAddress(addr *common.Address) common.Address {
	if addr == nil {
		return common.Address{}
	}
	return *addr
}

func gasFeeCap(tx *types.Transaction) *big.Int {
	if v := tx.GasFeeCap(); v != nil {
		return v
	}
	return big.NewInt(0)
}

func gasTipCap(tx *types.Transaction) *big.Int {
	if v := tx.GasTipCap(); v != nil {
		return v
	}
	return big.NewInt(0)
}
