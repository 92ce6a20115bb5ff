// Copyright 2025 Certen Protocol
//
// Quorum Store: an M-of-N threshold state machine keyed by (batch height,
// prover identity). Persistence is document-oriented: one JSON document per
// batch height, one per post-status, stored behind a small KV interface.

package quorum

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/twinexyz/twarb/pkg/types"
)

// KV is the minimal persistence interface the store needs. pkg/kvdb.Adapter
// satisfies this over a CometBFT dbm.DB.
type KV interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Iterate(prefix []byte, fn func(key, value []byte) error) error
}

const (
	heightPrefix     = "h/"
	postStatusPrefix = "p/"
	maxFindRetries   = 5
)

// HeightSlot is the document persisted for one batch height: every proof
// received so far for that height, keyed by prover identifier.
type HeightSlot struct {
	Height  uint64                 `json:"height"`
	Proofs  map[string]ProofEntry  `json:"proofs"`
	Ready   bool                   `json:"ready"`
}

// ProofEntry is one prover's contribution to a HeightSlot.
type ProofEntry struct {
	Record    types.ProofRecord `json:"record"`
	ReceivedAt time.Time        `json:"received_at"`
}

// PostStatusSlot records, per batch height, whether each L1 destination
// chain has been posted to yet. Posted is append-only per (height, chain):
// once a chain flips to true it is never reset.
type PostStatusSlot struct {
	Height uint64          `json:"height"`
	Posted map[string]bool `json:"posted"`
}

// Store is the quorum state machine. Safe for concurrent use.
type Store struct {
	kv        KV
	threshold int
	mu        sync.Mutex
	ready     chan uint64
}

// New builds a Store over kv with the configured M-of-N threshold. ready
// receives a height exactly once, the edge-trigger instant it first reaches
// threshold distinct provers.
func New(kv KV, threshold int) *Store {
	return &Store{
		kv:        kv,
		threshold: threshold,
		ready:     make(chan uint64, 100),
	}
}

// Ready returns the channel of heights that have just reached quorum.
func (s *Store) Ready() <-chan uint64 {
	return s.ready
}

func heightKey(height uint64) []byte {
	b := make([]byte, len(heightPrefix)+8)
	copy(b, heightPrefix)
	binary.BigEndian.PutUint64(b[len(heightPrefix):], height)
	return b
}

func postStatusKey(height uint64) []byte {
	b := make([]byte, len(postStatusPrefix)+8)
	copy(b, postStatusPrefix)
	binary.BigEndian.PutUint64(b[len(postStatusPrefix):], height)
	return b
}

func (s *Store) loadHeightSlot(height uint64) (*HeightSlot, error) {
	raw, err := s.kv.Get(heightKey(height))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return &HeightSlot{Height: height, Proofs: map[string]ProofEntry{}}, nil
	}
	var slot HeightSlot
	if err := json.Unmarshal(raw, &slot); err != nil {
		return nil, fmt.Errorf("corrupt height slot %d: %w", height, err)
	}
	if slot.Proofs == nil {
		slot.Proofs = map[string]ProofEntry{}
	}
	return &slot, nil
}

func (s *Store) saveHeightSlot(slot *HeightSlot) error {
	raw, err := json.Marshal(slot)
	if err != nil {
		return err
	}
	return s.kv.Set(heightKey(slot.Height), raw)
}

// RecordProof stores a verified proof for (height, identifier). Duplicate
// submissions from the same prover for the same height are idempotent: the
// first received proof wins and later ones are silently ignored. Crossing
// the threshold emits exactly one ready event for that height.
func (s *Store) RecordProof(height uint64, identifier string, record types.ProofRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, err := s.loadHeightSlot(height)
	if err != nil {
		return err
	}

	if _, exists := slot.Proofs[identifier]; exists {
		return nil
	}

	wasReady := slot.Ready
	slot.Proofs[identifier] = ProofEntry{Record: record, ReceivedAt: record.Timestamp}

	if !wasReady && len(slot.Proofs) >= s.threshold {
		slot.Ready = true
	}

	if err := s.saveHeightSlot(slot); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	if slot.Ready && !wasReady {
		// Blocks while the bounded ready queue is full; the lock is released
		// first so the poster can still read the store meanwhile.
		s.ready <- height
	}
	return nil
}

// FindOldestProof returns the oldest-received proof for height (tie-broken
// by prover identifier, lexicographically), retrying up to maxFindRetries
// times if the slot has not yet been persisted by a concurrent writer.
func (s *Store) FindOldestProof(height uint64) (identifier string, record types.ProofRecord, err error) {
	for attempt := 0; attempt < maxFindRetries; attempt++ {
		s.mu.Lock()
		slot, lerr := s.loadHeightSlot(height)
		s.mu.Unlock()
		if lerr != nil {
			return "", types.ProofRecord{}, lerr
		}
		if len(slot.Proofs) > 0 {
			return pickOldest(slot.Proofs)
		}
		time.Sleep(100 * time.Millisecond)
	}
	return "", types.ProofRecord{}, fmt.Errorf("no proofs recorded for height %d", height)
}

func pickOldest(proofs map[string]ProofEntry) (string, types.ProofRecord, error) {
	ids := make([]string, 0, len(proofs))
	for id := range proofs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	best := ids[0]
	for _, id := range ids[1:] {
		if proofs[id].ReceivedAt.Before(proofs[best].ReceivedAt) {
			best = id
		}
	}
	return best, proofs[best].Record, nil
}

func (s *Store) loadPostStatusSlot(height uint64) (PostStatusSlot, error) {
	raw, err := s.kv.Get(postStatusKey(height))
	if err != nil {
		return PostStatusSlot{}, err
	}
	if raw == nil {
		return PostStatusSlot{Height: height, Posted: map[string]bool{}}, nil
	}
	var slot PostStatusSlot
	if err := json.Unmarshal(raw, &slot); err != nil {
		return PostStatusSlot{}, err
	}
	if slot.Posted == nil {
		slot.Posted = map[string]bool{}
	}
	return slot, nil
}

// RecordPostStatus upserts whether height has been posted to chain, leaving
// every other chain's recorded status for that height untouched. Concurrent
// posters writing distinct chains for the same height do not clobber one
// another.
func (s *Store) RecordPostStatus(height uint64, chain string, posted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, err := s.loadPostStatusSlot(height)
	if err != nil {
		return err
	}
	slot.Posted[chain] = slot.Posted[chain] || posted

	raw, err := json.Marshal(slot)
	if err != nil {
		return err
	}
	return s.kv.Set(postStatusKey(height), raw)
}

// PostStatus reports, per chain, whether height has already been posted.
func (s *Store) PostStatus(height uint64) (PostStatusSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadPostStatusSlot(height)
}

// PurgeAll deletes every height and post-status document, used by the
// delete-db CLI subcommand.
func (s *Store) PurgeAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys [][]byte
	for _, prefix := range [][]byte{[]byte(heightPrefix), []byte(postStatusPrefix)} {
		if err := s.kv.Iterate(prefix, func(key, _ []byte) error {
			cp := make([]byte, len(key))
			copy(cp, key)
			keys = append(keys, cp)
			return nil
		}); err != nil {
			return err
		}
	}
	for _, key := range keys {
		if err := s.kv.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// Show returns every persisted height slot, sorted ascending.
func (s *Store) Show() ([]HeightSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var slots []HeightSlot
	err := s.kv.Iterate([]byte(heightPrefix), func(_, value []byte) error {
		var slot HeightSlot
		if err := json.Unmarshal(value, &slot); err != nil {
			return err
		}
		slots = append(slots, slot)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Height < slots[j].Height })
	return slots, nil
}
