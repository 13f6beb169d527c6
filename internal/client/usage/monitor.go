// Package usage tracks the signed-in user's quota consumption against the
// backend's authoritative counter.
package usage

import (
	"context"
	"sync"

	"github.com/ilmai/ilmcli/internal/client/api"
	"github.com/ilmai/ilmcli/internal/client/models"
	"github.com/ilmai/ilmcli/internal/logging"
)

// Monitor caches the latest usage snapshot. The cache is advisory only: the
// backend enforces the quota regardless, so a stale snapshot degrades the
// display, never correctness.
type Monitor struct {
	client api.Client
	log    logging.Logger

	mu         sync.Mutex
	snapshot   *models.UsageSnapshot
	failStreak int
}

func NewMonitor(client api.Client, log logging.Logger) *Monitor {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Monitor{client: client, log: log}
}

// Poll refetches the snapshot. On failure the last known snapshot is kept,
// and only the first failure of a streak is logged so a backend outage during
// interval polling does not flood the log.
func (m *Monitor) Poll(ctx context.Context) error {
	snapshot, err := m.client.Usage(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		if m.failStreak == 0 {
			m.log.Warn(ctx, "usage poll failed", "err", err)
		}
		m.failStreak++
		return err
	}
	if m.failStreak > 1 {
		m.log.Info(ctx, "usage polling recovered", "failed_polls", m.failStreak)
	}
	m.failStreak = 0
	m.snapshot = snapshot
	return nil
}

// Snapshot returns the last successfully fetched snapshot, false before the
// first success.
func (m *Monitor) Snapshot() (models.UsageSnapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot == nil {
		return models.UsageSnapshot{}, false
	}
	return *m.snapshot, true
}

// Exhausted reports whether the quota is known to be used up. Unknown counts
// as not exhausted; the backend is the enforcer.
func (m *Monitor) Exhausted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot == nil || m.snapshot.IsUnlimited {
		return false
	}
	return m.snapshot.UsageCount >= m.snapshot.UsageLimit
}

// Upgrade requests a tier upgrade and refetches the snapshot on success. The
// cached tier is never bumped optimistically; the display changes only when
// the backend confirms it.
func (m *Monitor) Upgrade(ctx context.Context) error {
	if err := m.client.Upgrade(ctx); err != nil {
		m.log.Warn(ctx, "upgrade request failed", "err", err)
		return err
	}
	m.log.Info(ctx, "tier upgraded")
	return m.Poll(ctx)
}
