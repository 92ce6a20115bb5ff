// Copyright 2025 Certen Protocol
//
// Verifier: consumes proof envelopes from the ingress queue, performs local
// proof verification, and on success hands a ProofRecord to the Quorum Store.

package verifier

import (
	"context"
	"log"
	"time"

	"github.com/twinexyz/twarb/pkg/forensics"
	"github.com/twinexyz/twarb/pkg/metrics"
	"github.com/twinexyz/twarb/pkg/quorum"
	"github.com/twinexyz/twarb/pkg/relerr"
	"github.com/twinexyz/twarb/pkg/types"
)

// ProofSource is one proof kind's local check, yielding the batch height the
// proof attests to.
type ProofSource interface {
	// Verify checks a proof locally and returns the batch height it attests to.
	Verify(envelope types.ProofEnvelope) (uint64, error)
}

// Verifier drains a channel of incoming proof envelopes.
type Verifier struct {
	in        <-chan types.ProofEnvelope
	store     *quorum.Store
	sp1       ProofSource
	risc0     ProofSource
	dummy     ProofSource
	metrics   *metrics.Registry
	forensics *forensics.Client
	logger    *log.Logger
}

// New builds a Verifier wired to the three supported proof backends. reg and
// fc may be nil, in which case metrics/forensic mirroring are skipped.
func New(in <-chan types.ProofEnvelope, store *quorum.Store, sp1, risc0, dummy ProofSource, reg *metrics.Registry, fc *forensics.Client) *Verifier {
	return &Verifier{
		in:        in,
		store:     store,
		sp1:       sp1,
		risc0:     risc0,
		dummy:     dummy,
		metrics:   reg,
		forensics: fc,
		logger:    log.New(log.Writer(), "[Verifier] ", log.LstdFlags),
	}
}

// Run drains envelopes until in is closed.
func (v *Verifier) Run() {
	v.logger.Println("verifier service running")
	for envelope := range v.in {
		if v.metrics != nil {
			v.metrics.VerifierQueueDepth.Set(float64(len(v.in)))
			v.metrics.ProofsReceived.WithLabelValues(envelope.Kind.String()).Inc()
		}
		v.handle(envelope)
	}
}

func (v *Verifier) handle(envelope types.ProofEnvelope) {
	var (
		height uint64
		err    error
	)

	switch envelope.Kind {
	case types.ProverSP1:
		height, err = v.sp1.Verify(envelope)
	case types.ProverRISC0:
		v.logger.Printf("risc0 not supported! client=%s", envelope.Identifier)
		if v.metrics != nil {
			v.metrics.ProofsVerified.WithLabelValues(envelope.Kind.String(), "rejected").Inc()
		}
		return
	case types.ProverDummy:
		height, err = v.dummy.Verify(envelope)
	default:
		err = relerr.ErrNotSupported
	}

	if err != nil {
		v.logger.Printf("proof not verified. proof_type=%s client=%s error=%v", envelope.Kind, envelope.Identifier, err)
		if v.metrics != nil {
			v.metrics.ProofsVerified.WithLabelValues(envelope.Kind.String(), "failed").Inc()
		}
		return
	}
	if v.metrics != nil {
		v.metrics.ProofsVerified.WithLabelValues(envelope.Kind.String(), "verified").Inc()
	}

	v.logger.Printf("proof verified. proof_type=%s client=%s height=%d", envelope.Kind, envelope.Identifier, height)

	blob, err := encodeRecordBlob(envelope)
	if err != nil {
		v.logger.Printf("error encoding proof record client=%s error=%v", envelope.Identifier, err)
		return
	}

	record := types.ProofRecord{
		ProofBlob: blob,
		ProofType: envelope.Kind,
		Verified:  true,
		Timestamp: time.Now(),
	}

	if err := v.store.RecordProof(height, envelope.Identifier, record); err != nil {
		v.logger.Printf("error saving proof to store client=%s error=%v", envelope.Identifier, err)
		return
	}

	if v.forensics != nil {
		v.forensics.MirrorProofRecorded(context.Background(), height, envelope.Identifier, envelope.Kind.String(), true)
	}
}

func encodeRecordBlob(envelope types.ProofEnvelope) ([]byte, error) {
	switch envelope.Kind {
	case types.ProverSP1:
		// Stored verifier-selector-prefixed, the form the L1 finalize call takes.
		selector := envelope.SP1Proof.Variant.Selector()
		return append(selector[:], envelope.SP1Proof.EncodedProof...), nil
	case types.ProverDummy:
		return envelope.DummyProof, nil
	case types.ProverRISC0:
		return envelope.RISC0Proof, nil
	default:
		return nil, relerr.ErrNotSupported
	}
}
