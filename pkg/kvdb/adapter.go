// Copyright 2025 Certen Protocol
//
// KV Adapter for CometBFT Database Integration
// Wraps CometBFT's dbm.DB interface to implement quorum.KV

package kvdb

import (
	dbm "github.com/cometbft/cometbft-db"
)

// Adapter wraps a CometBFT dbm.DB and exposes the quorum.KV interface.
type Adapter struct {
	db dbm.DB
}

// NewAdapter creates a new Adapter for the given underlying DB.
func NewAdapter(db dbm.DB) *Adapter {
	return &Adapter{db: db}
}

// Get implements quorum.KV.Get
func (a *Adapter) Get(key []byte) ([]byte, error) {
	if a.db == nil {
		return nil, nil
	}

	if v, err := a.db.Get(key); err != nil {
		return nil, err
	} else {
		// v may be nil if key not found – the store treats nil as "not present".
		return v, nil
	}
}

// Set implements quorum.KV.Set
func (a *Adapter) Set(key, value []byte) error {
	if a.db == nil {
		return nil
	}

	// Use SetSync for durable writes.
	if err := a.db.SetSync(key, value); err != nil {
		return err
	}
	return nil
}

// Delete implements quorum.KV.Delete
func (a *Adapter) Delete(key []byte) error {
	if a.db == nil {
		return nil
	}
	return a.db.Delete(key)
}

// Iterate calls fn for every key in the store with the given prefix.
func (a *Adapter) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	if a.db == nil {
		return nil
	}
	iter, err := a.db.Iterator(prefix, nil)
	if err != nil {
		return err
	}
	defer iter.Close()

	for ; iter.Valid(); iter.Next() {
		key := iter.Key()
		if len(key) < len(prefix) || string(key[:len(prefix)]) != string(prefix) {
			break
		}
		if err := fn(key, iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying database.
func (a *Adapter) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
