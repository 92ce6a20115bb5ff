// Copyright 2025 Certen Protocol
//
// Firestore mirror for operator-visible forensic history.
// Enabled-flag gated: when disabled every call is a no-op so the relay never
// depends on Firestore being reachable to do its job.

package forensics

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	gcpfirestore "cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Client mirrors quorum-store transitions into Firestore for forensic replay.
// It owns no state the core pipeline depends on; it is strictly additive.
type Client struct {
	app       *firebase.App
	firestore *gcpfirestore.Client
	projectID string
	logger    *log.Logger
	enabled   bool
	mu        sync.RWMutex
}

// Config controls whether and how the mirror connects.
type Config struct {
	ProjectID       string
	CredentialsFile string
	Enabled         bool
	Logger          *log.Logger
}

// NewClient returns a no-op client immediately when cfg.Enabled is false.
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(log.Writer(), "[Forensics] ", log.LstdFlags)
	}

	client := &Client{
		projectID: cfg.ProjectID,
		logger:    cfg.Logger,
		enabled:   cfg.Enabled,
	}

	if !cfg.Enabled {
		cfg.Logger.Println("forensic mirror disabled - running in no-op mode")
		return client, nil
	}

	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("forensics: project id required when enabled")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	fsClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	client.app = app
	client.firestore = fsClient
	cfg.Logger.Printf("forensic mirror initialized for project: %s", cfg.ProjectID)
	return client, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.firestore != nil {
		return c.firestore.Close()
	}
	return nil
}

func (c *Client) IsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// MirrorProofRecorded upserts a forensic document when a proof is recorded
// for a height, mirroring the Quorum Store's `blocks.<height>` document.
func (c *Client) MirrorProofRecorded(ctx context.Context, height uint64, identifier, proofType string, thresholdVerified bool) {
	if !c.IsEnabled() {
		return
	}
	docPath := fmt.Sprintf("heights/%d", height)
	_, err := c.firestore.Doc(docPath).Set(ctx, map[string]interface{}{
		fmt.Sprintf("provers.%s", identifier): map[string]interface{}{
			"proofType": proofType,
			"recordId":  uuid.NewString(),
			"timestamp": time.Now().UTC(),
		},
		"thresholdVerified": thresholdVerified,
		"updatedAt":         time.Now().UTC(),
	}, gcpfirestore.MergeAll)
	if err != nil {
		c.logger.Printf("failed mirroring proof record height=%d identifier=%s: %v", height, identifier, err)
	}
}

// MirrorPostStatus upserts the per-(height,chain) post status, mirroring the
// Quorum Store's `l1s.<height>` document.
func (c *Client) MirrorPostStatus(ctx context.Context, height uint64, chain string, posted bool) {
	if !c.IsEnabled() {
		return
	}
	docPath := fmt.Sprintf("postStatus/%d", height)
	_, err := c.firestore.Doc(docPath).Set(ctx, map[string]interface{}{
		fmt.Sprintf("chains.%s", chain): posted,
		"updatedAt":                     time.Now().UTC(),
	}, gcpfirestore.MergeAll)
	if err != nil {
		c.logger.Printf("failed mirroring post status height=%d chain=%s: %v", height, chain, err)
	}
}

// PurgeAll deletes every mirrored document. Called from the delete-db CLI
// subcommand alongside the Quorum Store's own purge.
func (c *Client) PurgeAll(ctx context.Context) error {
	if !c.IsEnabled() {
		return nil
	}
	for _, coll := range []string{"heights", "postStatus"} {
		iter := c.firestore.Collection(coll).Documents(ctx)
		for {
			doc, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				break
			}
			if _, err := doc.Ref.Delete(ctx); err != nil {
				c.logger.Printf("failed deleting %s: %v", doc.Ref.Path, err)
			}
		}
	}
	return nil
}

func (c *Client) Health(ctx context.Context) error {
	if !c.IsEnabled() {
		return nil
	}
	if c.firestore == nil {
		return fmt.Errorf("forensics: client not initialized")
	}
	_, _ = c.firestore.Collection("_health").Doc("ping").Get(ctx)
	return nil
}
