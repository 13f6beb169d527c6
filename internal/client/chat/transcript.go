// Package chat holds the conversation state of the research view: the
// append-only transcript and the query dispatcher that feeds it.
package chat

import (
	"sync"

	"github.com/ilmai/ilmcli/internal/client/models"
)

// Greeting opens every fresh transcript.
const Greeting = "As-salamu alaykum! I am IlmAI. How can I assist you with your research in Quran, Hadith, or Fiqh today?"

// Transcript is the ordered message list for the session currently open in
// the UI. Messages are append-only within a session; switching sessions or
// starting a new chat replaces the whole list.
type Transcript struct {
	mu   sync.Mutex
	gen  uint64
	msgs []models.Message
}

func NewTranscript() *Transcript {
	t := &Transcript{}
	t.Reset()
	return t
}

// Reset returns the transcript to the single canned greeting.
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	t.msgs = []models.Message{{Role: models.RoleAssistant, Content: Greeting}}
}

// Append adds one turn at the end.
func (t *Transcript) Append(msg models.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.msgs = append(t.msgs, msg)
}

// Replace swaps in a fetched session history, preserving its order. An empty
// history falls back to the greeting, same as a new chat.
func (t *Transcript) Replace(history []models.Message) {
	if len(history) == 0 {
		t.Reset()
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	t.msgs = append([]models.Message(nil), history...)
}

// Generation changes every time the whole conversation is swapped out (Reset
// or Replace). Appends do not change it. Callers capture it before a slow
// operation and compare afterwards to detect that their conversation is gone.
func (t *Transcript) Generation() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen
}

// Messages returns a copy of the current list.
func (t *Transcript) Messages() []models.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.Message(nil), t.msgs...)
}

func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.msgs)
}
