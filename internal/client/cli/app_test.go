package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/neuroresume/internal/client/client"
	"github.com/dmitrijs2005/neuroresume/internal/client/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	token string

	registered client.RegisterRequest
	loginUser  string
	loginPass  string
	loginErr   error
	logoutErr  error
	logouts    int

	sessions    map[string]*client.Session
	messages    map[string][]client.Message
	createdLang string
	healthErr   error

	presignedURL string
	urlErr       error
	doc          *client.Document
}

var _ client.Client = (*fakeAPI)(nil)

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		sessions: map[string]*client.Session{},
		messages: map[string][]client.Message{},
		urlErr:   &client.APIError{Status: http.StatusNotImplemented, Code: "NOT_SUPPORTED"},
	}
}

func (f *fakeAPI) LoggedIn() bool { return f.token != "" }

func (f *fakeAPI) Register(ctx context.Context, req client.RegisterRequest) (*client.AuthResult, error) {
	f.registered = req
	f.token = "t"
	return &client.AuthResult{User: client.User{Username: req.Username}}, nil
}

func (f *fakeAPI) Login(ctx context.Context, username, password string) (*client.AuthResult, error) {
	f.loginUser, f.loginPass = username, password
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.token = "t"
	return &client.AuthResult{
		Token: client.Token{AccessToken: "t", ExpiresAt: time.Now().Add(time.Hour)},
		User:  client.User{Username: username},
	}, nil
}

func (f *fakeAPI) Refresh(ctx context.Context) (*client.Token, error) {
	return &client.Token{AccessToken: f.token}, nil
}

func (f *fakeAPI) Logout(ctx context.Context) error {
	f.logouts++
	f.token = ""
	return f.logoutErr
}

func (f *fakeAPI) Profile(ctx context.Context) (*client.User, error) {
	return &client.User{}, nil
}

func (f *fakeAPI) CreateSession(ctx context.Context, language string) (*client.Session, error) {
	f.createdLang = language
	if language == "" {
		language = "ru"
	}
	s := &client.Session{ID: "session-0001-long-id", Status: "IN_PROGRESS", Language: language}
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakeAPI) ListSessions(ctx context.Context, p client.ListSessionsParams) (*client.SessionPage, error) {
	page := &client.SessionPage{Page: p.Page, PageSize: p.PageSize, Items: []client.Session{}}
	for _, s := range f.sessions {
		page.Items = append(page.Items, *s)
	}
	page.Total = len(page.Items)
	page.TotalPages = 1
	return page, nil
}

func (f *fakeAPI) GetSession(ctx context.Context, id string) (*client.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, &client.APIError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "not found"}
	}
	return s, nil
}

func (f *fakeAPI) DeleteSession(ctx context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

func (f *fakeAPI) SendMessage(ctx context.Context, sessionID, content string) (*client.Turn, error) {
	ms := f.messages[sessionID]
	user := client.Message{Seq: len(ms) + 1, Role: "user", Content: content}
	bot := client.Message{Seq: len(ms) + 2, Role: "assistant", Content: "Tell me more."}
	f.messages[sessionID] = append(ms, user, bot)
	return &client.Turn{UserMessage: user, AssistantMessage: bot, Progress: 15, MessageCount: len(ms) + 2}, nil
}

func (f *fakeAPI) History(ctx context.Context, sessionID string) ([]client.Message, error) {
	return f.messages[sessionID], nil
}

func (f *fakeAPI) Complete(ctx context.Context, sessionID string) (*client.Artifact, error) {
	f.sessions[sessionID].Status = "COMPLETED"
	return &client.Artifact{Filename: "resume_x.md", Format: "markdown", Template: "modern", SizeBytes: 7}, nil
}

func (f *fakeAPI) Regenerate(ctx context.Context, sessionID string, opts client.RegenerateOptions) (*client.Artifact, error) {
	return &client.Artifact{}, nil
}

func (f *fakeAPI) Download(ctx context.Context, sessionID string) (*client.Document, error) {
	if f.doc == nil {
		return nil, &client.APIError{Status: http.StatusNotFound, Code: "NOT_FOUND"}
	}
	return f.doc, nil
}

func (f *fakeAPI) DownloadURL(ctx context.Context, sessionID string) (string, error) {
	return f.presignedURL, f.urlErr
}

func (f *fakeAPI) Health(ctx context.Context) error { return f.healthErr }

func newTestApp(t *testing.T, input string) (*App, *fakeAPI, *bytes.Buffer) {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	api := newFakeAPI()
	var out bytes.Buffer
	return newApp(cfg, api, bufio.NewReader(bytes.NewBufferString(input)), &out), api, &out
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	orig := getPassword
	getPassword = func(_ io.Writer) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { getPassword = orig })
}

func TestNewApp(t *testing.T) {
	_, err := NewApp(&config.Config{})
	require.Error(t, err)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	a, err := NewApp(cfg)
	require.NoError(t, err)
	assert.False(t, a.isLoggedIn())
}

func TestApp_Register(t *testing.T) {
	stubPassword(t, "secret1")
	a, api, out := newTestApp(t, "alice\nalice@example.com\nAlice\n\n")

	require.NoError(t, a.Register(context.Background()))

	assert.Equal(t, client.RegisterRequest{
		Username:  "alice",
		Email:     "alice@example.com",
		Password:  "secret1",
		FirstName: "Alice",
	}, api.registered)
	assert.True(t, a.isLoggedIn())
	assert.Equal(t, "(alice)", a.status())
	assert.Contains(t, out.String(), "Registered and logged in as alice")
}

func TestApp_Login(t *testing.T) {
	stubPassword(t, "secret1")

	t.Run("success", func(t *testing.T) {
		a, api, out := newTestApp(t, "alice\n")
		require.NoError(t, a.Login(context.Background()))
		assert.Equal(t, "alice", api.loginUser)
		assert.Equal(t, "secret1", api.loginPass)
		assert.Contains(t, out.String(), "Logged in as alice")
	})

	t.Run("rejected", func(t *testing.T) {
		a, api, _ := newTestApp(t, "alice\n")
		api.loginErr = &client.APIError{Status: http.StatusUnauthorized, Code: "INVALID_CREDENTIALS"}
		err := a.Login(context.Background())
		require.ErrorIs(t, err, client.ErrUnauthorized)
		assert.False(t, a.isLoggedIn())
		assert.Equal(t, "", a.status())
	})

	t.Run("password read error", func(t *testing.T) {
		orig := getPassword
		getPassword = func(_ io.Writer) ([]byte, error) { return nil, errors.New("no tty") }
		defer func() { getPassword = orig }()

		a, _, _ := newTestApp(t, "alice\n")
		require.Error(t, a.Login(context.Background()))
	})
}

func TestApp_InterviewFlow(t *testing.T) {
	a, api, out := newTestApp(t, "")
	api.token = "t"
	ctx := context.Background()

	require.ErrorIs(t, a.Say(ctx, "hi"), errNoSession)
	require.ErrorIs(t, a.History(ctx), errNoSession)
	require.ErrorIs(t, a.Complete(ctx), errNoSession)
	require.ErrorIs(t, a.Download(ctx, nil), errNoSession)

	require.NoError(t, a.NewSession(ctx, []string{"en"}))
	assert.Equal(t, "en", api.createdLang)
	assert.Equal(t, "(session-)", a.status())

	require.NoError(t, a.Say(ctx, "I am a backend engineer"))
	assert.Contains(t, out.String(), "assistant: Tell me more.")
	assert.Contains(t, out.String(), "[progress 15%]")

	out.Reset()
	require.NoError(t, a.History(ctx))
	assert.Contains(t, out.String(), "  1 user: I am a backend engineer")
	assert.Contains(t, out.String(), "  2 assistant: Tell me more.")

	require.NoError(t, a.Complete(ctx))
	assert.Contains(t, out.String(), "Resume generated: resume_x.md")

	out.Reset()
	require.NoError(t, a.Sessions(ctx, nil))
	assert.Contains(t, out.String(), "* session-0001-long-id  COMPLETED")
	require.Error(t, a.Sessions(ctx, []string{"zero"}))
}

func TestApp_Use(t *testing.T) {
	a, api, _ := newTestApp(t, "")
	api.token = "t"
	api.sessions["s-1"] = &client.Session{ID: "s-1", Status: "IN_PROGRESS"}

	require.NoError(t, a.Use(context.Background(), []string{"s-1"}))
	assert.Equal(t, "s-1", a.sessionID)

	err := a.Use(context.Background(), []string{"missing"})
	assert.True(t, client.IsCode(err, "NOT_FOUND"))
	assert.Equal(t, "s-1", a.sessionID)
}

func TestApp_DownloadDirect(t *testing.T) {
	a, api, out := newTestApp(t, "")
	api.token = "t"
	a.sessionID = "s-1"
	api.doc = &client.Document{Filename: "resume_s-1.md", Content: []byte("# Alice")}

	target := filepath.Join(t.TempDir(), "cv", "alice.md")
	require.NoError(t, a.Download(context.Background(), []string{target}))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "# Alice", string(data))
	assert.Contains(t, out.String(), "Saved 7 bytes to "+target)
}

func TestApp_DownloadPresigned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("plain text resume"))
	}))
	defer srv.Close()

	a, api, _ := newTestApp(t, "")
	api.token = "t"
	a.sessionID = "s-1"
	api.presignedURL = srv.URL + "/resumes/abc.txt?X-Amz-Signature=x"
	api.urlErr = nil

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()

	require.NoError(t, a.Download(context.Background(), nil))

	data, err := os.ReadFile(filepath.Join(dir, "resume_s-1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "plain text resume", string(data))
}

func TestApp_DownloadPropagatesErrors(t *testing.T) {
	a, api, _ := newTestApp(t, "")
	api.token = "t"
	a.sessionID = "s-1"

	err := a.Download(context.Background(), nil)
	assert.True(t, client.IsCode(err, "NOT_FOUND"))

	api.urlErr = &client.APIError{Status: http.StatusUnauthorized, Code: "INVALID_TOKEN"}
	err = a.Download(context.Background(), nil)
	require.ErrorIs(t, err, client.ErrUnauthorized)
}

func TestApp_Logout(t *testing.T) {
	a, api, out := newTestApp(t, "")
	api.token = "t"
	a.userName = "alice"
	a.sessionID = "s-1"

	require.NoError(t, a.Logout(context.Background()))
	assert.False(t, a.isLoggedIn())
	assert.Equal(t, "", a.status())
	assert.Contains(t, out.String(), "Logged out")

	api.token = "t"
	api.logoutErr = client.ErrUnavailable
	a.userName = "alice"
	require.ErrorIs(t, a.Logout(context.Background()), client.ErrUnavailable)
	assert.Equal(t, "", a.userName)
}

func TestApp_Run(t *testing.T) {
	captureOutput(t)

	a, api, out := newTestApp(t, "exit\n")
	api.healthErr = client.ErrUnavailable
	api.token = "t"

	a.Run(context.Background())

	assert.Contains(t, out.String(), "Welcome to NeuroResume CLI")
	assert.Contains(t, out.String(), "is not reachable")
	assert.Equal(t, 1, api.logouts)
}
