// Package session maintains the signed-in user's list of research sessions
// and the pointer to the one currently open in the UI.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/ilmai/ilmcli/internal/client/api"
	"github.com/ilmai/ilmcli/internal/client/models"
	"github.com/ilmai/ilmcli/internal/logging"
)

// Registry owns the in-memory session list and currentID. currentID is zero
// until either the dispatcher registers a server-minted id or the user opens
// an existing session; the client never invents an id.
//
// onReset runs whenever the open session ceases to exist (deletion of the
// open session, clear-all, explicit new chat) so the transcript is reset in
// the same step and the UI is never left pointing at a dead session.
type Registry struct {
	client  api.Client
	log     logging.Logger
	onReset func()

	mu        sync.Mutex
	sessions  []models.ResearchSession
	currentID int64
}

func NewRegistry(client api.Client, log logging.Logger, onReset func()) *Registry {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if onReset == nil {
		onReset = func() {}
	}
	return &Registry{client: client, log: log, onReset: onReset}
}

// List refetches the session list, replacing the in-memory copy wholesale.
// Ordering is server-defined (most recent first). A failure leaves the
// previous list in place; the list is always re-derivable by a later call.
func (r *Registry) List(ctx context.Context) error {
	sessions, err := r.client.Sessions(ctx)
	if err != nil {
		r.log.Warn(ctx, "session list fetch failed", "err", err)
		return err
	}
	r.mu.Lock()
	r.sessions = sessions
	r.mu.Unlock()
	return nil
}

// Sessions returns a copy of the known sessions.
func (r *Registry) Sessions() []models.ResearchSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.ResearchSession(nil), r.sessions...)
}

// Current reports the open session id, if any.
func (r *Registry) Current() (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentID, r.currentID != 0
}

// RegisterNew records a session the backend just minted and makes it the
// open one. Called only by the dispatcher, immediately after a response
// reveals a fresh id; the entry is prepended so the sidebar reflects it
// without a refetch.
func (r *Registry) RegisterNew(id int64, title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append([]models.ResearchSession{{ID: id, Title: title, CreatedAt: time.Now()}}, r.sessions...)
	r.currentID = id
}

// Open points the client at an existing session. The caller is expected to
// load its history into the transcript.
func (r *Registry) Open(id int64) {
	r.mu.Lock()
	r.currentID = id
	r.mu.Unlock()
}

// StartNew returns to the new-chat state: no open session, fresh transcript.
func (r *Registry) StartNew() {
	r.mu.Lock()
	r.currentID = 0
	r.mu.Unlock()
	r.onReset()
}

// Delete removes a session on the backend and locally. Deleting the open
// session is a compound operation: the current pointer is cleared and the
// transcript reset in the same step.
func (r *Registry) Delete(ctx context.Context, id int64) error {
	if err := r.client.DeleteSession(ctx, id); err != nil {
		r.log.Warn(ctx, "session delete failed", "session_id", id, "err", err)
		return err
	}

	r.mu.Lock()
	kept := r.sessions[:0]
	for _, s := range r.sessions {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	r.sessions = kept
	wasCurrent := r.currentID == id
	if wasCurrent {
		r.currentID = 0
	}
	r.mu.Unlock()

	if wasCurrent {
		r.onReset()
	}
	return nil
}

// ClearAll deletes every known session, best-effort: one failed deletion
// does not stop the rest, and local state is reset to empty/new-chat
// regardless, since the list is reconcilable via a fresh List. Returns the
// number of deletions that failed.
func (r *Registry) ClearAll(ctx context.Context) int {
	r.mu.Lock()
	ids := make([]int64, 0, len(r.sessions))
	for _, s := range r.sessions {
		ids = append(ids, s.ID)
	}
	r.mu.Unlock()

	failed := 0
	for _, id := range ids {
		if err := r.client.DeleteSession(ctx, id); err != nil {
			failed++
			r.log.Warn(ctx, "session delete failed during clear", "session_id", id, "err", err)
		}
	}

	r.mu.Lock()
	r.sessions = nil
	r.currentID = 0
	r.mu.Unlock()
	r.onReset()

	return failed
}
