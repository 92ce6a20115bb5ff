// Copyright 2025 Certen Protocol
//
// Balance Monitor: periodically polls every L1 destination's poster account
// balance and logs a warning when it drops below the configured threshold.

package balance

import (
	"context"
	"log"
	"math/big"
	"sync"
	"time"

	"github.com/twinexyz/twarb/pkg/chain"
)

// Destination pairs a named chain provider with its configured alert
// threshold, in wei (or lamports-equivalent smallest unit).
type Destination struct {
	Name      string
	Provider  chain.Provider
	Threshold *big.Int
}

// Monitor runs a ticker loop that checks every destination's balance.
type Monitor struct {
	destinations []Destination
	interval     time.Duration
	logger       *log.Logger

	mu      sync.Mutex
	stopCh  chan struct{}
	running bool
}

// New builds a Monitor polling destinations every interval.
func New(destinations []Destination, interval time.Duration) *Monitor {
	return &Monitor{
		destinations: destinations,
		interval:     interval,
		logger:       log.New(log.Writer(), "[BalanceMonitor] ", log.LstdFlags),
	}
}

// Start launches the check loop in a new goroutine. Calling Start twice is a
// no-op.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})
	go m.run(ctx, m.stopCh)
}

// Stop halts the check loop. Safe to call even if not running.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	close(m.stopCh)
	m.running = false
}

func (m *Monitor) run(ctx context.Context, stopCh chan struct{}) {
	m.logger.Println("balance checker running")
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			m.checkAll(ctx)
		}
	}
}

func (m *Monitor) checkAll(ctx context.Context) {
	for _, dest := range m.destinations {
		balance, err := dest.Provider.QueryBalance(ctx)
		if err != nil {
			m.logger.Printf("failed to query balance. chain=%s error=%v", dest.Name, err)
			continue
		}
		if dest.Threshold != nil && balance.Cmp(dest.Threshold) < 0 {
			m.logger.Printf("LOW BALANCE WARNING chain=%s address=%s balance=%s threshold=%s",
				dest.Name, dest.Provider.Address(), balance.String(), dest.Threshold.String())
		}
	}
}
