package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ilmai/ilmcli/internal/client/models"
)

const defaultTimeout = 30 * time.Second

var _ Client = (*HTTPClient)(nil)

// HTTPClient implements Client over the backend's REST endpoints.
//
// The bearer token is the only mutable state. It is guarded by a mutex so the
// auth manager's replace/clear operations are atomic with respect to request
// construction: a request either carries the old token or the new one, never
// a half-updated value.
type HTTPClient struct {
	baseURL string
	hc      *http.Client

	mu    sync.RWMutex
	token string
}

// NewHTTPClient returns a client bound to the given base URL, e.g.
// "http://127.0.0.1:8000".
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: defaultTimeout},
	}
}

// SetToken installs the bearer token attached to subsequent requests.
func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken removes the installed bearer token.
func (c *HTTPClient) ClearToken() {
	c.SetToken("")
}

func (c *HTTPClient) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// do performs a single request and decodes a 2xx JSON response into out.
// Non-2xx responses and transport failures are mapped onto the package's
// error taxonomy.
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapStatus(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// mapStatus turns a non-2xx response into a taxonomy error, preserving the
// backend's {"detail": ...} message when present.
func mapStatus(resp *http.Response) error {
	var payload struct {
		Detail string `json:"detail"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload)

	se := &StatusError{Code: resp.StatusCode, Detail: payload.Detail}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrUnauthorized, se)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %w", ErrUnavailable, se)
	default:
		return se
	}
}

func (c *HTTPClient) Signup(ctx context.Context, email, password, fullName string) error {
	payload, err := json.Marshal(map[string]string{
		"email":     email,
		"password":  password,
		"full_name": fullName,
	})
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/signup", nil, bytes.NewReader(payload), "application/json", nil)
}

// Login exchanges credentials for a bearer token. The endpoint is
// OAuth2-form-shaped: the email travels in the "username" field. The returned
// token is not installed; that is the auth manager's decision.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (string, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	err := c.do(ctx, http.MethodPost, "/login", nil, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", &resp)
	if err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

func (c *HTTPClient) Profile(ctx context.Context) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := c.do(ctx, http.MethodGet, "/me", nil, nil, "", &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, update ProfileUpdate) (*models.UserProfile, error) {
	payload, err := json.Marshal(update)
	if err != nil {
		return nil, err
	}
	var profile models.UserProfile
	if err := c.do(ctx, http.MethodPatch, "/me", nil, bytes.NewReader(payload), "application/json", &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *HTTPClient) Query(ctx context.Context, query string, mode models.ResearchMode, sessionID int64) (*QueryResult, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("mode", string(mode))
	if sessionID != 0 {
		params.Set("session_id", strconv.FormatInt(sessionID, 10))
	}

	var result QueryResult
	if err := c.do(ctx, http.MethodPost, "/query", params, nil, "", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) Sessions(ctx context.Context) ([]models.ResearchSession, error) {
	var sessions []models.ResearchSession
	if err := c.do(ctx, http.MethodGet, "/sessions", nil, nil, "", &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// historyItem is one recorded query/response pair of a research session.
type historyItem struct {
	Query        string   `json:"query"`
	Response     string   `json:"response"`
	SourcesFound bool     `json:"sources_found"`
	Citations    []string `json:"citations"`
}

// History fetches a session's recorded pairs and flattens them into an
// ordered user/assistant message list, preserving the original order.
func (c *HTTPClient) History(ctx context.Context, sessionID int64) ([]models.Message, error) {
	var items []historyItem
	path := "/history/" + strconv.FormatInt(sessionID, 10)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, "", &items); err != nil {
		return nil, err
	}

	messages := make([]models.Message, 0, 2*len(items))
	for _, item := range items {
		messages = append(messages,
			models.Message{Role: models.RoleUser, Content: item.Query},
			models.Message{
				Role:         models.RoleAssistant,
				Content:      item.Response,
				SourcesFound: item.SourcesFound,
				Citations:    item.Citations,
			},
		)
	}
	return messages, nil
}

func (c *HTTPClient) DeleteSession(ctx context.Context, sessionID int64) error {
	path := "/sessions/" + strconv.FormatInt(sessionID, 10)
	return c.do(ctx, http.MethodDelete, path, nil, nil, "", nil)
}

func (c *HTTPClient) Library(ctx context.Context) ([]models.LibraryCitation, error) {
	var citations []models.LibraryCitation
	if err := c.do(ctx, http.MethodGet, "/library", nil, nil, "", &citations); err != nil {
		return nil, err
	}
	return citations, nil
}

func (c *HTTPClient) SaveCitation(ctx context.Context, sourceType, sourceID string) (*models.LibraryCitation, error) {
	params := url.Values{}
	params.Set("source_type", sourceType)
	params.Set("source_id", sourceID)

	var citation models.LibraryCitation
	if err := c.do(ctx, http.MethodPost, "/library/save", params, nil, "", &citation); err != nil {
		return nil, err
	}
	return &citation, nil
}

func (c *HTTPClient) DeleteCitation(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/library/"+strconv.FormatInt(id, 10), nil, nil, "", nil)
}

func (c *HTTPClient) Usage(ctx context.Context) (*models.UsageSnapshot, error) {
	var snapshot models.UsageSnapshot
	if err := c.do(ctx, http.MethodGet, "/usage", nil, nil, "", &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (c *HTTPClient) Upgrade(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/upgrade", nil, nil, "", nil)
}

func (c *HTTPClient) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, "", nil)
}
