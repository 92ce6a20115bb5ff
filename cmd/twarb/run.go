// Copyright 2025 Certen Protocol

package main

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"

	dbm "github.com/cometbft/cometbft-db"
	"github.com/spf13/cobra"

	"github.com/twinexyz/twarb/pkg/balance"
	"github.com/twinexyz/twarb/pkg/chain"
	"github.com/twinexyz/twarb/pkg/config"
	"github.com/twinexyz/twarb/pkg/forensics"
	"github.com/twinexyz/twarb/pkg/ingress"
	"github.com/twinexyz/twarb/pkg/kvdb"
	"github.com/twinexyz/twarb/pkg/l2"
	"github.com/twinexyz/twarb/pkg/metrics"
	"github.com/twinexyz/twarb/pkg/poster"
	"github.com/twinexyz/twarb/pkg/quorum"
	"github.com/twinexyz/twarb/pkg/types"
	"github.com/twinexyz/twarb/pkg/verifier"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the ingress, verifier, quorum store, poster, and balance monitor",
	RunE:  runRelay,
}

func runRelay(cmd *cobra.Command, args []string) error {
	cfg, err := loadAndValidate(configPath)
	if err != nil {
		return err
	}

	logger := log.New(log.Writer(), "[Run] ", log.LstdFlags)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := dbm.NewGoLevelDB("twarb", cfg.Global.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open quorum store db: %w", err)
	}
	defer db.Close()
	kv := kvdb.NewAdapter(db)

	store := quorum.New(kv, cfg.Global.Threshold)

	reg := metrics.NewRegistry()

	forensicsClient, err := forensics.NewClient(ctx, &forensics.Config{
		ProjectID: os.Getenv("TWARB_FORENSICS_PROJECT_ID"),
		Enabled:   os.Getenv("TWARB_FORENSICS_PROJECT_ID") != "",
	})
	if err != nil {
		logger.Printf("forensics mirror disabled: %v", err)
		forensicsClient = nil
	}
	if forensicsClient != nil {
		defer forensicsClient.Close()
	}

	providers, destinations, err := buildL1Providers(ctx, cfg)
	if err != nil {
		return err
	}

	l2Client, err := l2.NewClient(ctx, cfg.L2.RPC, cfg.L2.MessengerContract)
	if err != nil {
		return fmt.Errorf("failed to build l2 client: %w", err)
	}

	sp1 := verifier.NewSP1(cfg.ELF)
	risc0 := verifier.NewRISC0()
	dummy := verifier.NewDummy()

	proofQueue := make(chan types.ProofEnvelope, 100)
	v := verifier.New(proofQueue, store, sp1, risc0, dummy, reg, forensicsClient)
	go v.Run()

	validIdentifiers := make([]string, 0, len(cfg.Provers))
	for id := range cfg.Provers {
		validIdentifiers = append(validIdentifiers, id)
	}
	svc := ingress.NewService(validIdentifiers, proofQueue)
	server, err := ingress.NewServer(cfg.Global.ServerPort, svc)
	if err != nil {
		return fmt.Errorf("failed to build ingress server: %w", err)
	}

	p := poster.New(providers, l2Client, store, reg, forensicsClient)
	go p.Run(ctx, store.Ready())

	monitor := balance.New(destinations, cfg.Global.BalanceCheckIntervalDuration())
	monitor.Start(ctx)
	defer monitor.Stop()

	metricsPort := cfg.Global.MetricsPort
	if metricsPort == 0 {
		metricsPort = 9090
	}
	go func() {
		if err := reg.Serve(ctx, fmt.Sprintf(":%d", metricsPort)); err != nil {
			logger.Printf("metrics server stopped: %v", err)
		}
	}()

	logger.Println("twarb relay running")
	return server.Run(ctx)
}

func buildL1Providers(ctx context.Context, cfg *config.Config) (map[string]chain.Provider, []balance.Destination, error) {
	providers := make(map[string]chain.Provider, len(cfg.L1s))
	destinations := make([]balance.Destination, 0, len(cfg.L1s))

	for chainID, l1 := range cfg.L1s {
		var provider chain.Provider
		var err error

		switch strings.ToLower(l1.Type) {
		case "evm":
			provider, err = chain.NewEVM(ctx, l1.RPC, l1.PrivateKey, l1.Contract)
		case "solana":
			provider = chain.NewSolana(l1.Contract)
		default:
			err = fmt.Errorf("unsupported l1 type %q for chain %s", l1.Type, chainID)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed building provider for chain %s: %w", chainID, err)
		}

		providers[chainID] = provider

		// balance_threshold is ether-denominated; the monitor compares in wei.
		var threshold *big.Int
		if eth, ok := new(big.Rat).SetString(l1.BalanceThreshold); ok {
			wei := eth.Mul(eth, new(big.Rat).SetInt(big.NewInt(1_000_000_000_000_000_000)))
			threshold = new(big.Int).Quo(wei.Num(), wei.Denom())
		}
		destinations = append(destinations, balance.Destination{
			Name:      chainID,
			Provider:  provider,
			Threshold: threshold,
		})
	}

	return providers, destinations, nil
}
