// Copyright 2025 Certen Protocol

package main

import (
	"context"
	"fmt"
	"os"

	dbm "github.com/cometbft/cometbft-db"
	"github.com/spf13/cobra"

	"github.com/twinexyz/twarb/pkg/forensics"
	"github.com/twinexyz/twarb/pkg/kvdb"
	"github.com/twinexyz/twarb/pkg/quorum"
)

var deleteDBCmd = &cobra.Command{
	Use:   "delete-db",
	Short: "Purge all Quorum Store records",
	RunE:  runDeleteDB,
}

func runDeleteDB(cmd *cobra.Command, args []string) error {
	cfg, err := loadAndValidate(configPath)
	if err != nil {
		return err
	}

	db, err := dbm.NewGoLevelDB("twarb", cfg.Global.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open quorum store db: %w", err)
	}
	defer db.Close()

	store := quorum.New(kvdb.NewAdapter(db), cfg.Global.Threshold)
	if err := store.PurgeAll(); err != nil {
		return fmt.Errorf("failed to purge quorum store: %w", err)
	}

	ctx := context.Background()
	fc, err := forensics.NewClient(ctx, &forensics.Config{
		ProjectID: os.Getenv("TWARB_FORENSICS_PROJECT_ID"),
		Enabled:   os.Getenv("TWARB_FORENSICS_PROJECT_ID") != "",
	})
	if err == nil && fc != nil {
		if err := fc.PurgeAll(ctx); err != nil {
			fmt.Printf("warning: failed to purge forensics mirror: %v\n", err)
		}
		fc.Close()
	}

	fmt.Println("quorum store purged")
	return nil
}
