package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/neuroresume/internal/common"
	"github.com/dmitrijs2005/neuroresume/internal/logging"
	"github.com/dmitrijs2005/neuroresume/internal/server/config"
	"github.com/dmitrijs2005/neuroresume/internal/server/generator"
	"github.com/dmitrijs2005/neuroresume/internal/server/pagination"
	"github.com/dmitrijs2005/neuroresume/internal/server/renderer"
	"github.com/dmitrijs2005/neuroresume/internal/server/repositories/repotest"
	"github.com/dmitrijs2005/neuroresume/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memBlobs struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (b *memBlobs) Put(_ context.Context, key string, content []byte, _ string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = content
	return nil
}

func (b *memBlobs) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.data[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return v, nil
}

func (b *memBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key)
	return nil
}

func (b *memBlobs) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

type testAPI struct {
	t      *testing.T
	router http.Handler
	store  *repotest.Store
	blobs  *memBlobs
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := repotest.NewStore()
	db := store.DB()
	t.Cleanup(func() { db.Close() })
	rm := store.Manager()
	blobs := &memBlobs{data: map[string][]byte{}}
	policy := pagination.Policy{DefaultPageSize: 20, MaxPageSize: 100}
	logger := logging.Discard()

	cfg := &config.Config{SecretKey: "test-secret", AccessTokenValidityDuration: 24 * time.Hour}
	completion := services.NewCompletionService(db, rm, renderer.NewHeuristic(), blobs, time.Second, logger)
	svc := Services{
		Users:      services.NewUserService(db, rm, cfg),
		Sessions:   services.NewSessionService(db, rm, blobs, policy, logger),
		Messages:   services.NewMessageService(db, rm, generator.NewBuiltin(), time.Second),
		Completion: completion,
		Artifacts:  services.NewArtifactService(db, rm, completion, policy),
	}

	router := NewRouter(svc, RouterConfig{Prefix: "/api/v1", CORSOrigins: []string{"https://app.example.com"}}, logger)
	return &testAPI{t: t, router: router, store: store, blobs: blobs}
}

// do sends a JSON request and returns the recorder. body may be nil.
func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (a *testAPI) register(username string) authResponse {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@x.com",
		"password": "Pw123456!",
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[authResponse](a.t, rec)
}
