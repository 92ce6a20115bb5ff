// Copyright 2025 Certen Protocol

package ingress

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/twinexyz/twarb/pkg/relerr"
	"github.com/twinexyz/twarb/pkg/types"
)

func TestHealthCheck(t *testing.T) {
	svc := NewService(nil, nil)
	got := svc.HealthCheck("ping")
	if got != "Status: 1 Msg: ping" {
		t.Errorf("unexpected health check response: %q", got)
	}
}

func TestSendProof_UnknownSenderRejected(t *testing.T) {
	out := make(chan types.ProofEnvelope, 1)
	svc := NewService([]string{"prover-a"}, out)

	proof, _ := json.Marshal(types.SP1ProofWithPublicValues{})
	_, err := svc.SendProof(context.Background(), proofRequest{
		Type:       "SP1Proof",
		Proof:      proof,
		Identifier: "prover-x",
	})
	if !errors.Is(err, relerr.ErrInvalidSender) {
		t.Fatalf("expected ErrInvalidSender, got %v", err)
	}
}

func TestSendProof_EnqueuesValidSP1(t *testing.T) {
	out := make(chan types.ProofEnvelope, 1)
	svc := NewService([]string{"prover-a"}, out)

	proof, _ := json.Marshal(types.SP1ProofWithPublicValues{PublicValues: []byte{1, 2, 3}})
	status, err := svc.SendProof(context.Background(), proofRequest{
		Type:       "SP1Proof",
		Proof:      proof,
		Identifier: "prover-a",
	})
	if err != nil {
		t.Fatalf("SendProof returned error: %v", err)
	}
	if status != "ok" {
		t.Errorf("status mismatch: got %q", status)
	}

	select {
	case envelope := <-out:
		if envelope.Identifier != "prover-a" || envelope.Kind != types.ProverSP1 {
			t.Errorf("unexpected envelope: %+v", envelope)
		}
	default:
		t.Fatal("expected envelope to be enqueued")
	}
}

func TestSendProof_RISC0Rejected(t *testing.T) {
	out := make(chan types.ProofEnvelope, 1)
	svc := NewService(nil, out)

	_, err := svc.SendProof(context.Background(), proofRequest{Type: "RISC0Proof"})
	if !errors.Is(err, relerr.ErrNotSupported) {
		t.Fatalf("expected ErrNotSupported, got %v", err)
	}
}

func TestSendProof_BlocksUntilConsumedThenSucceeds(t *testing.T) {
	out := make(chan types.ProofEnvelope) // unbuffered, nobody reading yet
	svc := NewService(nil, out)

	raw, _ := json.Marshal([]byte{0x01, 0x02})
	done := make(chan struct{})
	var status string
	var err error
	go func() {
		status, err = svc.SendProof(context.Background(), proofRequest{Type: "Dummy", Proof: raw})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("expected SendProof to block while the verifier queue has no reader")
	case <-time.After(50 * time.Millisecond):
	}

	<-out // drains the envelope, unblocking SendProof

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected SendProof to return once the envelope was consumed")
	}
	if err != nil {
		t.Fatalf("SendProof returned error: %v", err)
	}
	if status != "ok" {
		t.Errorf("status mismatch: got %q", status)
	}
}

func TestSendProof_UnblocksOnContextCancellation(t *testing.T) {
	out := make(chan types.ProofEnvelope) // unbuffered, nobody reading
	svc := NewService(nil, out)

	ctx, cancel := context.WithCancel(context.Background())
	raw, _ := json.Marshal([]byte{0x01, 0x02})
	done := make(chan error, 1)
	go func() {
		_, err := svc.SendProof(ctx, proofRequest{Type: "Dummy", Proof: raw})
		done <- err
	}()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("expected SendProof to return once the context was cancelled")
	}
}

func TestNewServer_RegistersNamespace(t *testing.T) {
	out := make(chan types.ProofEnvelope, 1)
	svc := NewService(nil, out)

	if _, err := NewServer(0, svc); err != nil {
		t.Fatalf("NewServer returned error: %v", err)
	}
}
