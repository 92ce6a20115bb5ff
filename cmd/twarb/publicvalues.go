// Copyright 2025 Certen Protocol

package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	rtypes "github.com/twinexyz/twarb/pkg/types"
)

var (
	publicValuesProofType string
	publicValuesProofJSON string
)

var publicValuesCmd = &cobra.Command{
	Use:   "public-values",
	Short: "Print a proof's public-values field",
	RunE:  runPublicValues,
}

func init() {
	publicValuesCmd.Flags().StringVar(&publicValuesProofType, "proof-type", "", "sp1|risc0|dummy")
	publicValuesCmd.Flags().StringVar(&publicValuesProofJSON, "proof-json", "", "path to the proof file")
	_ = publicValuesCmd.MarkFlagRequired("proof-type")
	_ = publicValuesCmd.MarkFlagRequired("proof-json")
}

func runPublicValues(cmd *cobra.Command, args []string) error {
	prover, err := rtypes.ParseSupportedProver(publicValuesProofType)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(publicValuesProofJSON)
	if err != nil {
		return fmt.Errorf("failed to read proof file: %w", err)
	}

	switch prover {
	case rtypes.ProverSP1:
		var proof rtypes.SP1ProofWithPublicValues
		if err := json.Unmarshal(raw, &proof); err != nil {
			return fmt.Errorf("failed to parse sp1 proof: %w", err)
		}
		fmt.Println(hex.EncodeToString(proof.PublicValues))
	default:
		return fmt.Errorf("public values are only defined for sp1 proofs")
	}
	return nil
}
