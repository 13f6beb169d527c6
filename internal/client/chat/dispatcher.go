package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/ilmai/ilmcli/internal/client/api"
	"github.com/ilmai/ilmcli/internal/client/models"
	"github.com/ilmai/ilmcli/internal/logging"
)

// connectivityApology is the only failure text a query ever surfaces to the
// user; raw error detail stays in the logs.
const connectivityApology = "I apologize, but I encountered an error connecting to the knowledge base. Please ensure the backend server is running."

// banglaPrefix is the literal instruction the backend expects when the user
// wants answers in Bangla. It is passed through as part of the question, not
// translated client-side.
const banglaPrefix = "Please respond in Bangla (Bengali). The question is: "

// profileSource yields the signed-in user's profile, nil when anonymous.
type profileSource interface {
	Profile() *models.UserProfile
}

// sessionTracker is the slice of the registry the dispatcher needs: the open
// session at dispatch time, and the hand-off for a freshly minted one.
type sessionTracker interface {
	Current() (int64, bool)
	RegisterNew(id int64, title string)
}

// Dispatcher is the per-query request/response state machine. At most one
// query is in flight at a time; the protocol carries no correlation id, so
// concurrent dispatch is rejected outright rather than reconciled.
type Dispatcher struct {
	client     api.Client
	profiles   profileSource
	sessions   sessionTracker
	transcript *Transcript
	log        logging.Logger

	inFlight atomic.Bool

	mu       sync.Mutex
	mode     models.ResearchMode
	language string // transient UI toggle, e.g. "en" or "bn"
}

func NewDispatcher(client api.Client, profiles profileSource, sessions sessionTracker, transcript *Transcript, log logging.Logger) *Dispatcher {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Dispatcher{
		client:     client,
		profiles:   profiles,
		sessions:   sessions,
		transcript: transcript,
		log:        log,
		mode:       models.ModeStandard,
		language:   "en",
	}
}

// Dispatch runs one query through the machine. It returns false when the
// submission was a no-op: blank text, or another query already in flight.
//
// The user's turn is appended before the call and never rolled back. The
// assistant's turn (or the apology, on failure) is appended only if, at
// completion, the open session is still the one captured at dispatch time
// and the transcript has not been swapped out since. A session deleted or
// switched away from mid-flight, or a new chat started while waiting,
// silently swallows the late response.
func (d *Dispatcher) Dispatch(ctx context.Context, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	if !d.inFlight.CompareAndSwap(false, true) {
		return false
	}
	defer d.inFlight.Store(false)

	d.transcript.Append(models.Message{Role: models.RoleUser, Content: text})

	sessionID, _ := d.sessions.Current()
	gen := d.transcript.Generation()
	mode := d.Mode()
	outgoing := d.applyLanguage(text)

	log := d.log.With("dispatch_id", uuid.NewString())
	log.Debug(ctx, "query dispatched", "mode", string(mode), "session_id", sessionID)

	result, err := d.client.Query(ctx, outgoing, mode, sessionID)

	// Session ids alone cannot detect a new chat started mid-flight when no
	// session was open yet (0 -> 0), so the transcript generation is checked
	// as well.
	if current, _ := d.sessions.Current(); current != sessionID || d.transcript.Generation() != gen {
		log.Info(ctx, "conversation changed mid-flight, response dropped",
			"dispatched_for", sessionID, "now_open", current)
		return true
	}

	if err != nil {
		log.Warn(ctx, "query failed", "err", err)
		d.transcript.Append(models.Message{Role: models.RoleAssistant, Content: connectivityApology})
		return true
	}

	d.transcript.Append(models.Message{
		Role:         models.RoleAssistant,
		Content:      result.Response,
		SourcesFound: result.SourcesFound,
		Citations:    result.Citations,
		Sources:      result.Sources,
	})

	if sessionID == 0 && result.SessionID != 0 {
		log.Info(ctx, "backend minted session", "session_id", result.SessionID)
		d.sessions.RegisterNew(result.SessionID, result.SessionTitle)
	}
	return true
}

// Busy reports whether a query is in flight.
func (d *Dispatcher) Busy() bool {
	return d.inFlight.Load()
}

// applyLanguage resolves the effective answer language — the signed-in
// user's persisted preference wins over the transient toggle — and, when it
// is not the default, prepends the instruction phrase the backend honors.
func (d *Dispatcher) applyLanguage(text string) string {
	lang := d.Language()
	if p := d.profiles.Profile(); p != nil && p.UILanguage != "" {
		lang = p.UILanguage
	}
	switch normalizeLanguage(lang) {
	case "bn":
		return banglaPrefix + text
	case "", "en":
		return text
	default:
		return fmt.Sprintf("Please respond in %s. The question is: %s", lang, text)
	}
}

func normalizeLanguage(lang string) string {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "bn", "bangla", "bengali", "বাংলা":
		return "bn"
	case "en", "english":
		return "en"
	default:
		return strings.ToLower(strings.TrimSpace(lang))
	}
}

func (d *Dispatcher) Mode() models.ResearchMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

func (d *Dispatcher) SetMode(mode models.ResearchMode) {
	d.mu.Lock()
	d.mode = mode
	d.mu.Unlock()
}

// ToggleMode flips between standard and comparative research.
func (d *Dispatcher) ToggleMode() models.ResearchMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mode == models.ModeStandard {
		d.mode = models.ModeComparative
	} else {
		d.mode = models.ModeStandard
	}
	return d.mode
}

func (d *Dispatcher) Language() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.language
}

func (d *Dispatcher) SetLanguage(lang string) {
	d.mu.Lock()
	d.language = lang
	d.mu.Unlock()
}

// ToggleLanguage flips the transient toggle between English and Bangla.
func (d *Dispatcher) ToggleLanguage() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if normalizeLanguage(d.language) == "bn" {
		d.language = "en"
	} else {
		d.language = "bn"
	}
	return d.language
}
