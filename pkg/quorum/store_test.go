// Copyright 2025 Certen Protocol

package quorum

import (
	"sync"
	"testing"
	"time"

	"github.com/twinexyz/twarb/pkg/types"
)

// memKV is an in-process KV for tests; no disk involved.
type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemKV() *memKV {
	return &memKV{data: map[string][]byte{}}
}

func (m *memKV) Get(key []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

func (m *memKV) Set(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[string(key)] = cp
	return nil
}

func (m *memKV) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

func (m *memKV) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	m.mu.Lock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	m.mu.Unlock()

	for _, k := range keys {
		if len(k) < len(prefix) || k[:len(prefix)] != string(prefix) {
			continue
		}
		v, err := m.Get([]byte(k))
		if err != nil {
			return err
		}
		if err := fn([]byte(k), v); err != nil {
			return err
		}
	}
	return nil
}

func record(t time.Time) types.ProofRecord {
	return types.ProofRecord{ProofType: types.ProverSP1, Verified: true, Timestamp: t}
}

func TestRecordProof_ReachesThreshold(t *testing.T) {
	store := New(newMemKV(), 2)

	if err := store.RecordProof(10, "prover-a", record(time.Unix(100, 0))); err != nil {
		t.Fatalf("RecordProof returned error: %v", err)
	}

	select {
	case h := <-store.Ready():
		t.Fatalf("unexpected ready event at height %d before threshold reached", h)
	default:
	}

	if err := store.RecordProof(10, "prover-b", record(time.Unix(200, 0))); err != nil {
		t.Fatalf("RecordProof returned error: %v", err)
	}

	select {
	case h := <-store.Ready():
		if h != 10 {
			t.Errorf("ready height mismatch: got %d, want 10", h)
		}
	default:
		t.Fatal("expected a ready event once threshold was reached")
	}
}

func TestRecordProof_DuplicateIsIdempotent(t *testing.T) {
	store := New(newMemKV(), 2)

	first := record(time.Unix(100, 0))
	if err := store.RecordProof(5, "prover-a", first); err != nil {
		t.Fatalf("RecordProof returned error: %v", err)
	}

	later := record(time.Unix(999, 0))
	if err := store.RecordProof(5, "prover-a", later); err != nil {
		t.Fatalf("RecordProof returned error: %v", err)
	}

	_, got, err := store.FindOldestProof(5)
	if err != nil {
		t.Fatalf("FindOldestProof returned error: %v", err)
	}
	if !got.Timestamp.Equal(first.Timestamp) {
		t.Errorf("expected first-received proof to win, got timestamp %v", got.Timestamp)
	}
}

func TestRecordProof_ReadyEmittedOnlyOnce(t *testing.T) {
	store := New(newMemKV(), 1)

	if err := store.RecordProof(7, "prover-a", record(time.Unix(1, 0))); err != nil {
		t.Fatalf("RecordProof returned error: %v", err)
	}
	if err := store.RecordProof(7, "prover-b", record(time.Unix(2, 0))); err != nil {
		t.Fatalf("RecordProof returned error: %v", err)
	}

	<-store.Ready()

	select {
	case h := <-store.Ready():
		t.Fatalf("unexpected second ready event at height %d", h)
	default:
	}
}

func TestFindOldestProof_PicksEarliestReceivedAt(t *testing.T) {
	store := New(newMemKV(), 3)

	_ = store.RecordProof(20, "prover-c", record(time.Unix(300, 0)))
	_ = store.RecordProof(20, "prover-a", record(time.Unix(100, 0)))
	_ = store.RecordProof(20, "prover-b", record(time.Unix(200, 0)))

	id, _, err := store.FindOldestProof(20)
	if err != nil {
		t.Fatalf("FindOldestProof returned error: %v", err)
	}
	if id != "prover-a" {
		t.Errorf("oldest proof mismatch: got %q, want prover-a", id)
	}
}

func TestFindOldestProof_NoProofsEventuallyErrors(t *testing.T) {
	store := New(newMemKV(), 1)

	start := time.Now()
	_, _, err := store.FindOldestProof(999)
	if err == nil {
		t.Fatal("expected an error when no proofs were ever recorded")
	}
	if elapsed := time.Since(start); elapsed < 400*time.Millisecond {
		t.Errorf("expected FindOldestProof to exhaust its retry budget, only waited %v", elapsed)
	}
}

func TestRecordAndReadPostStatus(t *testing.T) {
	store := New(newMemKV(), 1)

	status, err := store.PostStatus(42)
	if err != nil {
		t.Fatalf("PostStatus returned error: %v", err)
	}
	if status.Posted["sepolia"] {
		t.Error("expected unposted (height, chain) to report false")
	}

	if err := store.RecordPostStatus(42, "sepolia", true); err != nil {
		t.Fatalf("RecordPostStatus returned error: %v", err)
	}

	status, err = store.PostStatus(42)
	if err != nil {
		t.Fatalf("PostStatus returned error: %v", err)
	}
	if !status.Posted["sepolia"] {
		t.Error("expected sepolia to report posted=true after RecordPostStatus")
	}
}

func TestRecordPostStatus_PerChainIndependence(t *testing.T) {
	store := New(newMemKV(), 1)

	if err := store.RecordPostStatus(7, "sepolia", true); err != nil {
		t.Fatalf("RecordPostStatus returned error: %v", err)
	}
	if err := store.RecordPostStatus(7, "mumbai", false); err != nil {
		t.Fatalf("RecordPostStatus returned error: %v", err)
	}

	status, err := store.PostStatus(7)
	if err != nil {
		t.Fatalf("PostStatus returned error: %v", err)
	}
	if !status.Posted["sepolia"] {
		t.Error("expected sepolia to remain posted=true")
	}
	if status.Posted["mumbai"] {
		t.Error("expected mumbai to report posted=false")
	}
}

func TestPurgeAll(t *testing.T) {
	store := New(newMemKV(), 1)
	_ = store.RecordProof(1, "prover-a", record(time.Unix(1, 0)))
	_ = store.RecordPostStatus(1, "sepolia", true)

	if err := store.PurgeAll(); err != nil {
		t.Fatalf("PurgeAll returned error: %v", err)
	}

	slots, err := store.Show()
	if err != nil {
		t.Fatalf("Show returned error: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("expected no height slots after purge, got %d", len(slots))
	}

	status, err := store.PostStatus(1)
	if err != nil {
		t.Fatalf("PostStatus returned error: %v", err)
	}
	if status.Posted["sepolia"] {
		t.Error("expected post status to be purged")
	}
}

func TestShow_SortedAscending(t *testing.T) {
	store := New(newMemKV(), 1)
	_ = store.RecordProof(30, "prover-a", record(time.Unix(1, 0)))
	_ = store.RecordProof(10, "prover-a", record(time.Unix(1, 0)))
	_ = store.RecordProof(20, "prover-a", record(time.Unix(1, 0)))

	slots, err := store.Show()
	if err != nil {
		t.Fatalf("Show returned error: %v", err)
	}
	if len(slots) != 3 {
		t.Fatalf("expected 3 height slots, got %d", len(slots))
	}
	for i := 1; i < len(slots); i++ {
		if slots[i].Height < slots[i-1].Height {
			t.Fatalf("slots not sorted ascending: %v", slots)
		}
	}
}
