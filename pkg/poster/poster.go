// Copyright 2025 Certen Protocol
//
// Poster: fans out commit-batch and finalize-batch calls to every configured
// L1 destination in parallel, recording the post status for each.

package poster

import (
	"context"
	"log"
	"sync"

	"github.com/twinexyz/twarb/pkg/chain"
	"github.com/twinexyz/twarb/pkg/forensics"
	"github.com/twinexyz/twarb/pkg/metrics"
	"github.com/twinexyz/twarb/pkg/quorum"
	"github.com/twinexyz/twarb/pkg/types"
)

// L2Source fetches the commit-batch payload for a finalized batch height.
type L2Source interface {
	FetchCommitBatch(ctx context.Context, height uint64) (types.CommitBatchInfo, error)
}

// Poster drains a channel of ready heights and posts to every L1 destination.
type Poster struct {
	providers map[string]chain.Provider
	l2        L2Source
	store     *quorum.Store
	metrics   *metrics.Registry
	forensics *forensics.Client
	logger    *log.Logger
}

// New builds a Poster over the given named L1 providers. reg and fc may be
// nil, in which case metrics/forensic mirroring are skipped.
func New(providers map[string]chain.Provider, l2 L2Source, store *quorum.Store, reg *metrics.Registry, fc *forensics.Client) *Poster {
	return &Poster{
		providers: providers,
		l2:        l2,
		store:     store,
		metrics:   reg,
		forensics: fc,
		logger:    log.New(log.Writer(), "[Poster] ", log.LstdFlags),
	}
}

// Run consumes ready heights from the Quorum Store until the channel closes.
func (p *Poster) Run(ctx context.Context, ready <-chan uint64) {
	p.logger.Println("poster service running")
	for height := range ready {
		p.postHeight(ctx, height)
	}
}

func (p *Poster) postHeight(ctx context.Context, height uint64) {
	p.logger.Printf("ready for commit batch and finalize batch. height=%d", height)
	if p.metrics != nil {
		p.metrics.HeightsReady.Inc()
	}

	identifier, record, err := p.store.FindOldestProof(height)
	if err != nil {
		p.logger.Printf("failed to find oldest proof for height=%d error=%v", height, err)
		return
	}

	params, err := buildPostParams(height, record)
	if err != nil {
		p.logger.Printf("failed to build post params for height=%d prover=%s error=%v", height, identifier, err)
		return
	}

	commitBatch, err := p.l2.FetchCommitBatch(ctx, height)
	if err != nil {
		p.logger.Printf("failed to fetch commit batch for height=%d error=%v", height, err)
		return
	}

	var wg sync.WaitGroup
	for chainName, provider := range p.providers {
		wg.Add(1)
		go func(chainName string, provider chain.Provider) {
			defer wg.Done()
			p.postToDestination(ctx, chainName, provider, commitBatch, params, height)
		}(chainName, provider)
	}
	wg.Wait()
}

func (p *Poster) postToDestination(ctx context.Context, chainName string, provider chain.Provider, commitBatch types.CommitBatchInfo, params types.PostParams, height uint64) {
	// Posting continues to finalize even if commit fails.
	if _, err := provider.CommitBatch(ctx, commitBatch); err != nil {
		p.logger.Printf("failed posting batch: %d chain: %s error: %v", commitBatch.BatchNumber, chainName, err)
		p.recordAttempt(chainName, "commit", "failed")
	} else {
		p.logger.Printf("batch committed! batch: %d chain: %s", commitBatch.BatchNumber, chainName)
		p.recordAttempt(chainName, "commit", "success")
	}

	if _, err := provider.SubmitProof(ctx, params); err != nil {
		p.logger.Printf("fail to submit proof. chain:%s error:%v", chainName, err)
		p.recordAttempt(chainName, "finalize", "failed")
		return
	}

	p.logger.Printf("proof submitted. chain:%s", chainName)
	p.recordAttempt(chainName, "finalize", "success")
	if err := p.store.RecordPostStatus(height, chainName, true); err != nil {
		p.logger.Printf("failed to record post status. chain: %s error: %v", chainName, err)
	}
	if p.forensics != nil {
		p.forensics.MirrorPostStatus(ctx, height, chainName, true)
	}
}

func (p *Poster) recordAttempt(chainName, call, result string) {
	if p.metrics == nil {
		return
	}
	p.metrics.PosterAttempts.WithLabelValues(chainName, call, result).Inc()
}

// buildPostParams adapts a verified ProofRecord back into the PostParams
// tagged variant dispatched to each L1 provider's SubmitProof.
func buildPostParams(height uint64, record types.ProofRecord) (types.PostParams, error) {
	switch record.ProofType {
	case types.ProverSP1:
		return types.PostParams{
			Kind:   types.ProverSP1,
			Height: height,
			SP1:    &types.SP1PostParams{PlonkProof: record.ProofBlob},
		}, nil
	case types.ProverDummy:
		return types.PostParams{
			Kind:   types.ProverDummy,
			Height: height,
			Dummy:  &types.DummyPostParams{Proof: record.ProofBlob},
		}, nil
	default:
		return types.PostParams{
			Kind:   types.ProverRISC0,
			Height: height,
			RISC0:  &types.RISC0PostParams{Proof: record.ProofBlob},
		}, nil
	}
}
