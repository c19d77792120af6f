package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/neuroresume/internal/common"
)

// HTTPClient talks to the API over HTTP/JSON. It is safe for concurrent use.
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient returns a client for serverURL with routes under prefix
// (for example "/api/v1").
func NewHTTPClient(serverURL, prefix string, timeout time.Duration) *HTTPClient {
	base := strings.TrimRight(serverURL, "/")
	if p := strings.Trim(prefix, "/"); p != "" {
		base += "/" + p
	}
	return &HTTPClient{
		baseURL: base,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *HTTPClient) setToken(t string) {
	c.mu.Lock()
	c.token = t
	c.mu.Unlock()
}

// LoggedIn reports whether a bearer token is held.
func (c *HTTPClient) LoggedIn() bool {
	return c.accessToken() != ""
}

func (c *HTTPClient) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	var res AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/register", false, req, &res); err != nil {
		return nil, err
	}
	c.setToken(res.Token.AccessToken)
	return &res, nil
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	body := map[string]string{"username": username, "password": password}

	var res AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", false, body, &res); err != nil {
		return nil, err
	}
	c.setToken(res.Token.AccessToken)
	return &res, nil
}

// Refresh swaps the held token for a new one. The old token is revoked
// server-side.
func (c *HTTPClient) Refresh(ctx context.Context) (*Token, error) {
	var res struct {
		Token Token `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", true, nil, &res); err != nil {
		return nil, err
	}
	c.setToken(res.Token.AccessToken)
	return &res.Token, nil
}

// Logout revokes the held token and forgets it locally, even when the
// server call fails.
func (c *HTTPClient) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", true, nil, nil)
	c.setToken("")
	return err
}

func (c *HTTPClient) Profile(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/user/profile", true, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) CreateSession(ctx context.Context, language string) (*Session, error) {
	body := map[string]string{}
	if language != "" {
		body["language"] = language
	}

	var s Session
	if err := c.do(ctx, http.MethodPost, "/interview/sessions", true, body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) ListSessions(ctx context.Context, p ListSessionsParams) (*SessionPage, error) {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(p.PageSize))
	}
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	path := "/interview/sessions"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var page SessionPage
	if err := c.do(ctx, http.MethodGet, path, true, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *HTTPClient) GetSession(ctx context.Context, id string) (*Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodGet, sessionPath(id, ""), true, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, sessionPath(id, ""), true, nil, nil)
}

func (c *HTTPClient) SendMessage(ctx context.Context, sessionID, content string) (*Turn, error) {
	var t Turn
	body := map[string]string{"content": content}
	if err := c.do(ctx, http.MethodPost, sessionPath(sessionID, "/messages"), true, body, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *HTTPClient) History(ctx context.Context, sessionID string) ([]Message, error) {
	var res struct {
		Messages []Message `json:"messages"`
	}
	if err := c.do(ctx, http.MethodGet, sessionPath(sessionID, "/messages"), true, nil, &res); err != nil {
		return nil, err
	}
	return res.Messages, nil
}

func (c *HTTPClient) Complete(ctx context.Context, sessionID string) (*Artifact, error) {
	var a Artifact
	if err := c.do(ctx, http.MethodPost, sessionPath(sessionID, "/complete"), true, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *HTTPClient) Regenerate(ctx context.Context, sessionID string, opts RegenerateOptions) (*Artifact, error) {
	var a Artifact
	if err := c.do(ctx, http.MethodPost, sessionPath(sessionID, "/resume/regenerate"), true, opts, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Download fetches the rendered resume file. The filename comes from the
// Content-Disposition header.
func (c *HTTPClient) Download(ctx context.Context, sessionID string) (*Document, error) {
	resp, err := c.send(ctx, http.MethodGet, sessionPath(sessionID, "/resume"), true, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	doc := &Document{MIMEType: resp.Header.Get("Content-Type"), Content: content}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		doc.Filename = params["filename"]
	}
	return doc, nil
}

func (c *HTTPClient) DownloadURL(ctx context.Context, sessionID string) (string, error) {
	var res struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodGet, sessionPath(sessionID, "/resume/url"), true, nil, &res); err != nil {
		return "", err
	}
	return res.URL, nil
}

func (c *HTTPClient) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", false, nil, nil)
}

func sessionPath(id, suffix string) string {
	return "/interview/sessions/" + url.PathEscape(id) + suffix
}

// do sends a JSON request and decodes a JSON response into out (if non-nil).
func (c *HTTPClient) do(ctx context.Context, method, path string, secured bool, in, out any) error {
	resp, err := c.send(ctx, method, path, secured, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// send performs the round trip. A non-2xx response is closed and returned
// as *APIError.
func (c *HTTPClient) send(ctx context.Context, method, path string, secured bool, in any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if secured {
		token := c.accessToken()
		if token == "" {
			return nil, ErrNotLoggedIn
		}
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	apiErr := &APIError{Status: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return nil, apiErr
}
