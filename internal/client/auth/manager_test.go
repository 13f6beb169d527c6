package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilmai/ilmcli/internal/client/api"
	"github.com/ilmai/ilmcli/internal/client/models"
)

// fakeClient implements the api.Client surface the manager touches. Profile
// responses are served from a queue so tests can script successive fetches;
// an optional gate channel lets a test hold a fetch in flight.
type fakeClient struct {
	api.Client

	mu       sync.Mutex
	token    string
	profiles []profileResult
	gate     chan struct{} // when non-nil, Profile blocks until it closes

	updateResult *models.UserProfile
	updateErr    error
}

type profileResult struct {
	profile *models.UserProfile
	err     error
}

func (f *fakeClient) SetToken(token string) {
	f.mu.Lock()
	f.token = token
	f.mu.Unlock()
}

func (f *fakeClient) ClearToken() { f.SetToken("") }

func (f *fakeClient) currentToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeClient) Profile(context.Context) (*models.UserProfile, error) {
	f.mu.Lock()
	gate := f.gate
	f.gate = nil
	var res profileResult
	if len(f.profiles) > 0 {
		res = f.profiles[0]
		f.profiles = f.profiles[1:]
	} else {
		res = profileResult{err: errors.New("no scripted profile")}
	}
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return res.profile, res.err
}

func (f *fakeClient) UpdateProfile(context.Context, api.ProfileUpdate) (*models.UserProfile, error) {
	return f.updateResult, f.updateErr
}

// memStore is an in-memory credential.Store.
type memStore struct {
	mu    sync.Mutex
	token string
}

func (s *memStore) Load(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *memStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *memStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

func profileFor(id int64) *models.UserProfile {
	return &models.UserProfile{ID: id, Email: "user@example.org", PreferredMadhhab: "Hanafi", UILanguage: "en"}
}

func TestManager_StartsUnknown(t *testing.T) {
	m := NewManager(&fakeClient{}, &memStore{}, nil)
	assert.Equal(t, StatusUnknown, m.Status())
}

func TestBootstrap_NoStoredToken(t *testing.T) {
	m := NewManager(&fakeClient{}, &memStore{}, nil)
	m.Bootstrap(context.Background())
	assert.Equal(t, StatusAnonymous, m.Status())
	assert.Nil(t, m.Profile())
}

func TestBootstrap_StoredTokenResolves(t *testing.T) {
	c := &fakeClient{profiles: []profileResult{{profile: profileFor(7)}}}
	s := &memStore{token: "tok-7"}
	m := NewManager(c, s, nil)

	m.Bootstrap(context.Background())

	assert.Equal(t, StatusAuthenticated, m.Status())
	require.NotNil(t, m.Profile())
	assert.Equal(t, int64(7), m.Profile().ID)
	assert.Equal(t, "tok-7", m.Token())
	assert.Equal(t, "tok-7", c.currentToken())
}

func TestBootstrap_RejectedTokenIsDropped(t *testing.T) {
	c := &fakeClient{profiles: []profileResult{{err: api.ErrUnauthorized}}}
	s := &memStore{token: "stale"}
	m := NewManager(c, s, nil)

	m.Bootstrap(context.Background())

	assert.Equal(t, StatusAnonymous, m.Status())
	assert.Empty(t, m.Token())
	assert.Empty(t, c.currentToken())
	stored, _ := s.Load(context.Background())
	assert.Empty(t, stored, "rejected token must not survive in the store")
}

func TestLogin_ThenLogout(t *testing.T) {
	ctx := context.Background()
	c := &fakeClient{profiles: []profileResult{{profile: profileFor(1)}}}
	s := &memStore{}
	m := NewManager(c, s, nil)

	require.True(t, m.Login(ctx, "tok-1"))
	assert.Equal(t, StatusAuthenticated, m.Status())
	assert.NotNil(t, m.Profile())
	stored, _ := s.Load(ctx)
	assert.Equal(t, "tok-1", stored)

	m.Logout(ctx)
	assert.Equal(t, StatusAnonymous, m.Status())
	assert.Nil(t, m.Profile())
	assert.Empty(t, m.Token())
	stored, _ = s.Load(ctx)
	assert.Empty(t, stored)

	// Logout is safe to repeat from any state.
	m.Logout(ctx)
	assert.Equal(t, StatusAnonymous, m.Status())
}

func TestLogin_ProfileFetchFailureDropsToken(t *testing.T) {
	c := &fakeClient{profiles: []profileResult{{err: api.ErrUnavailable}}}
	m := NewManager(c, &memStore{}, nil)

	ok := m.Login(context.Background(), "tok-x")

	assert.False(t, ok)
	assert.Equal(t, StatusAnonymous, m.Status())
	assert.Nil(t, m.Profile())
	assert.Empty(t, m.Token())
}

// A second login with a different token supersedes the in-flight profile
// fetch of the first: the late result must be discarded, not applied.
func TestLogin_SupersededFetchIsDiscarded(t *testing.T) {
	ctx := context.Background()
	gate := make(chan struct{})
	c := &fakeClient{
		gate: gate,
		profiles: []profileResult{
			{profile: profileFor(1)}, // first login, held in flight
			{profile: profileFor(2)}, // second login
		},
	}
	m := NewManager(c, &memStore{}, nil)

	done := make(chan bool)
	go func() { done <- m.Login(ctx, "tok-1") }()

	// Wait for the first fetch to be in flight (its result is dequeued
	// before the gate blocks), then run the superseding login.
	waitForGate(t, c)
	require.True(t, m.Login(ctx, "tok-2"))
	require.Equal(t, int64(2), m.Profile().ID)

	close(gate)
	<-done

	assert.Equal(t, int64(2), m.Profile().ID, "stale fetch must not overwrite newer state")
	assert.Equal(t, "tok-2", m.Token())
}

func waitForGate(t *testing.T, c *fakeClient) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		c.mu.Lock()
		consumed := len(c.profiles) == 1 && c.gate == nil
		c.mu.Unlock()
		if consumed {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("first profile fetch never started")
}

func TestInvalidate_ClearsEverything(t *testing.T) {
	ctx := context.Background()
	c := &fakeClient{profiles: []profileResult{{profile: profileFor(3)}}}
	s := &memStore{}
	m := NewManager(c, s, nil)
	require.True(t, m.Login(ctx, "tok-3"))

	m.Invalidate(ctx)

	assert.Equal(t, StatusAnonymous, m.Status())
	assert.Nil(t, m.Profile())
	stored, _ := s.Load(ctx)
	assert.Empty(t, stored)

	// No-op when already anonymous.
	m.Invalidate(ctx)
	assert.Equal(t, StatusAnonymous, m.Status())
}

func TestUpdateProfile_ReplacesWithServerCopy(t *testing.T) {
	ctx := context.Background()
	server := profileFor(5)
	server.PreferredMadhhab = "Shafi'i" // normalized server-side
	c := &fakeClient{
		profiles:     []profileResult{{profile: profileFor(5)}},
		updateResult: server,
	}
	m := NewManager(c, &memStore{}, nil)
	require.True(t, m.Login(ctx, "tok-5"))

	madhhab := "shafii"
	ok := m.UpdateProfile(ctx, api.ProfileUpdate{PreferredMadhhab: &madhhab})

	require.True(t, ok)
	assert.Equal(t, "Shafi'i", m.Profile().PreferredMadhhab)
}

func TestUpdateProfile_FailureLeavesProfile(t *testing.T) {
	ctx := context.Background()
	c := &fakeClient{
		profiles:  []profileResult{{profile: profileFor(5)}},
		updateErr: api.ErrUnavailable,
	}
	m := NewManager(c, &memStore{}, nil)
	require.True(t, m.Login(ctx, "tok-5"))

	assert.False(t, m.UpdateProfile(ctx, api.ProfileUpdate{}))
	assert.Equal(t, "Hanafi", m.Profile().PreferredMadhhab)
}

func TestUpdateProfile_RequiresAuth(t *testing.T) {
	m := NewManager(&fakeClient{}, &memStore{}, nil)
	m.Bootstrap(context.Background())
	assert.False(t, m.UpdateProfile(context.Background(), api.ProfileUpdate{}))
}
