// Package auth owns the credential and the derived user profile. It is the
// single writer of the API client's bearer token: login, logout and
// opportunistic invalidation all converge on the same replace/clear path.
package auth

import (
	"context"
	"sync"

	"github.com/ilmai/ilmcli/internal/client/api"
	"github.com/ilmai/ilmcli/internal/client/credential"
	"github.com/ilmai/ilmcli/internal/client/models"
	"github.com/ilmai/ilmcli/internal/logging"
)

// Status is the three-valued resolution state of the client identity.
// Consumers must branch on all three: until Bootstrap has run its one profile
// fetch, the answer to "is someone signed in?" is genuinely unknown, and
// treating unknown as anonymous causes redirect flicker.
type Status int

const (
	StatusUnknown Status = iota
	StatusAnonymous
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Manager is the session identity manager.
//
// Invariant: the profile exists only while a token does; both are replaced or
// cleared in the same critical section. At most one profile fetch result is
// ever applied per token generation — a later Login or Logout bumps the
// generation and any fetch still in flight for the old token is discarded
// when it lands.
type Manager struct {
	client api.Client
	store  credential.Store
	log    logging.Logger

	mu      sync.Mutex
	status  Status
	token   string
	profile *models.UserProfile
	gen     uint64 // bumped on every token replace/clear
}

func NewManager(client api.Client, store credential.Store, log logging.Logger) *Manager {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Manager{
		client: client,
		store:  store,
		log:    log,
		status: StatusUnknown,
	}
}

// Bootstrap resolves the persisted credential, if any, with exactly one
// profile fetch. Until it returns, Status() reports StatusUnknown. A stored
// token that no longer fetches a profile is dropped, so the client never
// starts half signed-in.
func (m *Manager) Bootstrap(ctx context.Context) {
	token, err := m.store.Load(ctx)
	if err != nil {
		m.log.Warn(ctx, "credential load failed", "err", err)
		token = ""
	}
	if token == "" {
		m.mu.Lock()
		m.status = StatusAnonymous
		m.mu.Unlock()
		return
	}
	m.activate(ctx, token, false)
}

// Login persists the token, installs it, and fetches the profile. On any
// failure the token is dropped and the manager lands in StatusAnonymous;
// the caller routes the user back to sign-in. Returns whether the client is
// now authenticated.
func (m *Manager) Login(ctx context.Context, token string) bool {
	if err := m.store.Save(ctx, token); err != nil {
		m.log.Warn(ctx, "credential save failed", "err", err)
		// Keep going: the session is still usable until the process exits.
	}
	return m.activate(ctx, token, true)
}

// activate installs the token and performs the profile fetch for it. persist
// is informational only; the store was already written by the caller.
func (m *Manager) activate(ctx context.Context, token string, persist bool) bool {
	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.token = token
	m.profile = nil
	m.mu.Unlock()
	m.client.SetToken(token)

	profile, err := m.client.Profile(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		// A newer login or logout superseded this fetch; its result must
		// not overwrite newer state.
		m.log.Debug(ctx, "stale profile fetch discarded", "persist", persist)
		return m.status == StatusAuthenticated
	}
	if err != nil {
		m.log.Warn(ctx, "profile fetch failed, dropping credential", "err", err)
		m.clearLocked(ctx)
		return false
	}
	m.profile = profile
	m.status = StatusAuthenticated
	m.log.Info(ctx, "authenticated", "user_id", profile.ID)
	return true
}

// Logout clears the token and profile unconditionally. Safe from any state.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked(ctx)
}

// Invalidate is the opportunistic forced logout: call it when any component
// observes the backend rejecting the current token. Same clear path as
// Logout.
func (m *Manager) Invalidate(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return
	}
	m.log.Info(ctx, "token rejected by backend, signing out")
	m.clearLocked(ctx)
}

// clearLocked is the single convergence point for every pathway that drops
// the credential. Caller holds m.mu.
func (m *Manager) clearLocked(ctx context.Context) {
	m.gen++
	m.token = ""
	m.profile = nil
	m.status = StatusAnonymous
	m.client.ClearToken()
	if err := m.store.Clear(ctx); err != nil {
		m.log.Warn(ctx, "credential clear failed", "err", err)
	}
}

// UpdateProfile sends a partial update and, on success, replaces the cached
// profile with the server's authoritative copy. It never merges locally:
// server-side normalization must win. Returns success/failure only, so
// callers can render an inline banner instead of handling errors.
func (m *Manager) UpdateProfile(ctx context.Context, update api.ProfileUpdate) bool {
	m.mu.Lock()
	if m.status != StatusAuthenticated {
		m.mu.Unlock()
		return false
	}
	gen := m.gen
	m.mu.Unlock()

	profile, err := m.client.UpdateProfile(ctx, update)
	if err != nil {
		m.log.Warn(ctx, "profile update failed", "err", err)
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return false
	}
	m.profile = profile
	return true
}

// Status reports the current resolution state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Profile returns the cached profile, or nil when not authenticated.
func (m *Manager) Profile() *models.UserProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profile == nil {
		return nil
	}
	p := *m.profile
	return &p
}

// Token returns the active bearer token, empty when anonymous.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}
