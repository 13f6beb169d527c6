// Package models defines the client-side view of the IlmAI backend entities.
// Everything here is a read-model: the backend owns the authoritative copies,
// the client only mirrors what the documented endpoints return.
package models

import "time"

// Role identifies the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ResearchMode selects between single-answer and multi-perspective response
// generation on the backend.
type ResearchMode string

const (
	ModeStandard    ResearchMode = "standard"
	ModeComparative ResearchMode = "comparative"
)

// UserProfile is the authenticated user's profile as returned by GET /me.
// It exists only while a bearer token is active and is always refetched from
// the server, never synthesized locally.
type UserProfile struct {
	ID               int64  `json:"id"`
	Email            string `json:"email"`
	FullName         string `json:"full_name,omitempty"`
	PreferredMadhhab string `json:"preferred_madhhab"`
	UILanguage       string `json:"ui_language"`
}

// ResearchSession is a server-tracked, titled conversation thread. The id is
// minted by the backend on the first query of a new conversation; the client
// never invents one.
type ResearchSession struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Source is a structured reference attached to an assistant message.
type Source struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Content string `json:"content"`
}

// Message is a single turn of the conversation transcript. Messages are
// immutable once appended; insertion order is the rendered conversation.
type Message struct {
	Role         Role     `json:"role"`
	Content      string   `json:"content"`
	SourcesFound bool     `json:"sources_found,omitempty"`
	Citations    []string `json:"citations,omitempty"`
	Sources      []Source `json:"sources,omitempty"`
}

// LibraryCitation is a Source promoted into the user's persistent library by
// an explicit save. Owned by the backend library store; mirrored client-side
// only for display and deletion.
type LibraryCitation struct {
	ID         int64     `json:"id"`
	SourceType string    `json:"source_type"`
	SourceID   string    `json:"source_id"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}

// UsageSnapshot is the quota read-model returned by GET /usage.
type UsageSnapshot struct {
	Tier        string `json:"tier"`
	UsageCount  int    `json:"usage_count"`
	UsageLimit  int    `json:"usage_limit"`
	IsUnlimited bool   `json:"is_unlimited"`
}
