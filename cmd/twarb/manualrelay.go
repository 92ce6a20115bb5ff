// Copyright 2025 Certen Protocol

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twinexyz/twarb/pkg/chain"
	"github.com/twinexyz/twarb/pkg/l2"
	rtypes "github.com/twinexyz/twarb/pkg/types"
	"github.com/twinexyz/twarb/pkg/verifier"
)

var (
	manualRelayHeight    uint64
	manualRelayChain     string
	manualRelayProofType string
	manualRelayProofJSON string
)

var manualRelayCmd = &cobra.Command{
	Use:   "manual-relay",
	Short: "Fetch a commit batch and commit/finalize a proof on one L1 destination",
	RunE:  runManualRelay,
}

func init() {
	manualRelayCmd.Flags().Uint64Var(&manualRelayHeight, "height", 0, "L2 batch height")
	manualRelayCmd.Flags().StringVar(&manualRelayChain, "chain", "", "configured l1 chain id")
	manualRelayCmd.Flags().StringVar(&manualRelayProofType, "proof-type", "", "sp1|risc0|dummy")
	manualRelayCmd.Flags().StringVar(&manualRelayProofJSON, "proof-json", "", "path to the proof file")
	_ = manualRelayCmd.MarkFlagRequired("height")
	_ = manualRelayCmd.MarkFlagRequired("chain")
	_ = manualRelayCmd.MarkFlagRequired("proof-type")
	_ = manualRelayCmd.MarkFlagRequired("proof-json")
}

func runManualRelay(cmd *cobra.Command, args []string) error {
	cfg, err := loadAndValidate(configPath)
	if err != nil {
		return err
	}

	l1, ok := cfg.L1s[manualRelayChain]
	if !ok {
		return fmt.Errorf("chain %q not found in config", manualRelayChain)
	}

	ctx := context.Background()

	var provider chain.Provider
	switch strings.ToLower(l1.Type) {
	case "evm":
		provider, err = chain.NewEVM(ctx, l1.RPC, l1.PrivateKey, l1.Contract)
	case "solana":
		provider = chain.NewSolana(l1.Contract)
	default:
		return fmt.Errorf("unsupported l1 type %q", l1.Type)
	}
	if err != nil {
		return fmt.Errorf("failed to build provider: %w", err)
	}

	prover, err := rtypes.ParseSupportedProver(manualRelayProofType)
	if err != nil {
		return err
	}

	params, err := buildManualParams(prover, manualRelayProofJSON, manualRelayHeight, cfg.ELF)
	if err != nil {
		return err
	}

	l2Client, err := l2.NewClient(ctx, cfg.L2.RPC, cfg.L2.MessengerContract)
	if err != nil {
		return fmt.Errorf("failed to build l2 client: %w", err)
	}

	commitBatch, err := l2Client.FetchCommitBatch(ctx, manualRelayHeight)
	if err != nil {
		return fmt.Errorf("failed to fetch commit batch: %w", err)
	}

	if _, err := provider.CommitBatch(ctx, commitBatch); err != nil {
		fmt.Fprintf(os.Stderr, "commit batch failed: %v\n", err)
	}

	txHash, err := provider.SubmitProof(ctx, params)
	if err != nil {
		return fmt.Errorf("finalize failed: %w", err)
	}

	fmt.Printf("relayed height %d on chain %s, txn_hash=%s\n", manualRelayHeight, manualRelayChain, txHash)
	return nil
}

func buildManualParams(prover rtypes.SupportedProver, proofPath string, height uint64, elfPaths map[string]string) (rtypes.PostParams, error) {
	raw, err := os.ReadFile(proofPath)
	if err != nil {
		return rtypes.PostParams{}, fmt.Errorf("failed to read proof file: %w", err)
	}

	switch prover {
	case rtypes.ProverSP1:
		var proof rtypes.SP1ProofWithPublicValues
		if err := json.Unmarshal(raw, &proof); err != nil {
			return rtypes.PostParams{}, fmt.Errorf("failed to parse sp1 proof: %w", err)
		}
		sp1 := verifier.NewSP1(elfPaths)
		return sp1.ProcessProof(&proof, height)
	case rtypes.ProverDummy:
		return rtypes.PostParams{Kind: rtypes.ProverDummy, Height: height, Dummy: &rtypes.DummyPostParams{Proof: raw}}, nil
	default:
		return rtypes.PostParams{Kind: rtypes.ProverRISC0, Height: height, RISC0: &rtypes.RISC0PostParams{Proof: raw}}, nil
	}
}
