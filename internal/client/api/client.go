// Package api is the facade over the IlmAI HTTP backend. It owns request
// construction (bearer header, query parameters, body encoding) and maps every
// transport or status failure onto the client's error taxonomy, so that the
// rest of the client never sees raw HTTP details.
package api

import (
	"context"

	"github.com/ilmai/ilmcli/internal/client/models"
)

// QueryResult is the outcome of a successful POST /query call.
type QueryResult struct {
	Response     string          `json:"response"`
	SourcesFound bool            `json:"sources_found"`
	Citations    []string        `json:"citations"`
	Sources      []models.Source `json:"sources"`

	// SessionID is non-zero only when the backend minted a new research
	// session for this query (first query of a new conversation).
	SessionID    int64  `json:"session_id"`
	SessionTitle string `json:"session_title"`
}

// ProfileUpdate is a partial PATCH /me payload. Nil fields are omitted so the
// server only touches what the caller set.
type ProfileUpdate struct {
	FullName         *string `json:"full_name,omitempty"`
	PreferredMadhhab *string `json:"preferred_madhhab,omitempty"`
	UILanguage       *string `json:"ui_language,omitempty"`
}

// Client defines the backend operations the client consumes.
//
// Contract:
//   - Login returns a bearer token but does not install it; SetToken and
//     ClearToken are the only ways to change the token attached to requests,
//     and the auth manager is their only caller.
//   - Query is the sole unauthenticated-capable operation; everything else
//     requires an installed token and fails with ErrUnauthorized without one.
//   - All methods honor context cancellation.
type Client interface {
	Signup(ctx context.Context, email, password, fullName string) error
	Login(ctx context.Context, email, password string) (string, error)
	SetToken(token string)
	ClearToken()

	Profile(ctx context.Context) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, update ProfileUpdate) (*models.UserProfile, error)

	Query(ctx context.Context, query string, mode models.ResearchMode, sessionID int64) (*QueryResult, error)

	Sessions(ctx context.Context) ([]models.ResearchSession, error)
	History(ctx context.Context, sessionID int64) ([]models.Message, error)
	DeleteSession(ctx context.Context, sessionID int64) error

	Library(ctx context.Context) ([]models.LibraryCitation, error)
	SaveCitation(ctx context.Context, sourceType, sourceID string) (*models.LibraryCitation, error)
	DeleteCitation(ctx context.Context, id int64) error

	Usage(ctx context.Context) (*models.UsageSnapshot, error)
	Upgrade(ctx context.Context) error

	Health(ctx context.Context) error
}
