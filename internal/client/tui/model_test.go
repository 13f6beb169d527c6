package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilmai/ilmcli/internal/client/api"
	"github.com/ilmai/ilmcli/internal/client/auth"
	"github.com/ilmai/ilmcli/internal/client/chat"
	"github.com/ilmai/ilmcli/internal/client/library"
	"github.com/ilmai/ilmcli/internal/client/models"
	"github.com/ilmai/ilmcli/internal/client/session"
	"github.com/ilmai/ilmcli/internal/client/usage"
)

type stubClient struct {
	api.Client
	result *api.QueryResult
	saved  []string
}

func (c *stubClient) Query(context.Context, string, models.ResearchMode, int64) (*api.QueryResult, error) {
	return c.result, nil
}

func (c *stubClient) SaveCitation(_ context.Context, sourceType, sourceID string) (*models.LibraryCitation, error) {
	c.saved = append(c.saved, sourceType+"/"+sourceID)
	return &models.LibraryCitation{ID: int64(len(c.saved)), SourceType: sourceType, SourceID: sourceID}, nil
}

func (c *stubClient) SetToken(string) {}
func (c *stubClient) ClearToken()    {}

type stubStore struct{}

func (stubStore) Load(context.Context) (string, error) { return "", nil }
func (stubStore) Save(context.Context, string) error   { return nil }
func (stubStore) Clear(context.Context) error          { return nil }

func newTestModel(t *testing.T) Model {
	t.Helper()
	m, _ := newTestModelWithClient(t)
	return m
}

func newTestModelWithClient(t *testing.T) (Model, *stubClient) {
	t.Helper()
	client := &stubClient{result: &api.QueryResult{Response: "answer"}}
	transcript := chat.NewTranscript()
	registry := session.NewRegistry(client, nil, transcript.Reset)
	manager := auth.NewManager(client, stubStore{}, nil)
	dispatcher := chat.NewDispatcher(client, manager, registry, transcript, nil)

	return NewModel(context.Background(), Deps{
		Client:       client,
		Auth:         manager,
		Transcript:   transcript,
		Registry:     registry,
		Dispatcher:   dispatcher,
		Usage:        usage.NewMonitor(client, nil),
		Library:      library.NewService(client, nil),
		PollInterval: time.Minute,
	}), client
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	sizedModel, ok := updated.(Model)
	require.True(t, ok)
	return sizedModel
}

func TestView_BeforeFirstResize(t *testing.T) {
	m := newTestModel(t)
	assert.Contains(t, m.View(), "Loading")
}

func TestView_ShowsGreetingAndSuggestions(t *testing.T) {
	m := sized(t, newTestModel(t))
	out := m.View()
	assert.Contains(t, out, "As-salamu alaykum")
	assert.Contains(t, out, "Try one of these")
}

func TestTabCyclesViews(t *testing.T) {
	m := sized(t, newTestModel(t))
	require.Equal(t, viewChat, m.view)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)
	assert.Equal(t, viewSessions, m.view)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)
	assert.Equal(t, viewLibrary, m.view)
}

func TestF2TogglesMode(t *testing.T) {
	m := sized(t, newTestModel(t))
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyF2})
	m = updated.(Model)
	assert.Equal(t, models.ModeComparative, m.deps.Dispatcher.Mode())
	assert.Contains(t, m.status, "comparative")
}

func TestEnterDispatchesAndMarksBusy(t *testing.T) {
	m := sized(t, newTestModel(t))
	m.input.SetValue("What is sadaqah?")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	assert.True(t, m.busy)
	require.NotNil(t, cmd)
	assert.Empty(t, m.input.Value())
}

func TestQueryDoneClearsBusy(t *testing.T) {
	m := sized(t, newTestModel(t))
	m.busy = true

	updated, _ := m.Update(queryDoneMsg{})
	m = updated.(Model)

	assert.False(t, m.busy)
}

func TestNumberKeySubmitsSuggestedQuestion(t *testing.T) {
	m := sized(t, newTestModel(t))

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}})
	m = updated.(Model)

	assert.True(t, m.busy, "a suggestion tap must dispatch like a typed query")
	require.NotNil(t, cmd)
}

func TestNumberKeyTypesOnceConversationStarted(t *testing.T) {
	m := sized(t, newTestModel(t))
	m.deps.Transcript.Append(models.Message{Role: models.RoleUser, Content: "q"})

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}})
	m = updated.(Model)

	assert.False(t, m.busy)
	assert.Equal(t, "1", m.input.Value())
}

func TestView_ShowsSources(t *testing.T) {
	m := sized(t, newTestModel(t))
	m.deps.Transcript.Append(models.Message{
		Role:    models.RoleAssistant,
		Content: "Fasting is obligatory.",
		Sources: []models.Source{{Type: "quran", ID: "2:183", Content: "O you who believe, fasting is prescribed for you"}},
	})
	m.refreshViewport()

	out := m.View()
	assert.Contains(t, out, "[quran] 2:183")
	assert.Contains(t, out, "fasting is prescribed")
}

func TestCtrlSSavesLatestSources(t *testing.T) {
	m, client := newTestModelWithClient(t)
	m = sized(t, m)
	m.deps.Transcript.Append(models.Message{
		Role:    models.RoleAssistant,
		Content: "answer",
		Sources: []models.Source{
			{Type: "quran", ID: "2:183", Content: "..."},
			{Type: "hadith", ID: "bukhari:1", Content: "..."},
		},
	})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)

	msg, ok := cmd().(sourcesSavedMsg)
	require.True(t, ok)
	assert.Equal(t, 2, msg.saved)
	assert.NoError(t, msg.err)
	assert.Equal(t, []string{"quran/2:183", "hadith/bukhari:1"}, client.saved)
}

func TestCtrlSWithoutSources(t *testing.T) {
	m := sized(t, newTestModel(t))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)

	msg, ok := cmd().(sourcesSavedMsg)
	require.True(t, ok)
	assert.Zero(t, msg.saved)
	assert.NoError(t, msg.err)
}

func TestSessionsView_Empty(t *testing.T) {
	m := sized(t, newTestModel(t))
	m.view = viewSessions
	assert.Contains(t, m.View(), "No research sessions yet")
}
