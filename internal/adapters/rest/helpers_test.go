package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"propertify-view-service/internal/adapters/localstorage"
	"propertify-view-service/internal/adapters/notifier"
	"propertify-view-service/internal/core/domain"
	"propertify-view-service/internal/core/port"
	"propertify-view-service/internal/core/usecase"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeCatalog отдает страницы из заранее заданных списков и запоминает запросы.
type fakeCatalog struct {
	mu       sync.Mutex
	data     map[string][]domain.Record
	requests []domain.PageRequest
	tokens   []string
}

func newFakeCatalog() *fakeCatalog {
	records := func(prefix string, n int) []domain.Record {
		out := make([]domain.Record, n)
		for i := range out {
			out[i] = domain.Record{"_id": fmt.Sprintf("%s%d", prefix, i+1)}
		}
		return out
	}
	return &fakeCatalog{data: map[string][]domain.Record{
		"properties": records("p", 12),
		"posts":      records("post", 3),
	}}
}

func (c *fakeCatalog) FetcherFor(resource string, tokens port.TokenSource) (port.FetchFunc, error) {
	records, ok := c.data[resource]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownResource, resource)
	}
	return func(ctx context.Context, req domain.PageRequest) (*domain.PageResponse, error) {
		c.mu.Lock()
		c.requests = append(c.requests, req)
		if tokens != nil {
			c.tokens = append(c.tokens, tokens.Token())
		}
		c.mu.Unlock()

		start := (req.Page - 1) * req.Limit
		if start > len(records) {
			start = len(records)
		}
		end := start + req.Limit
		if end > len(records) {
			end = len(records)
		}
		return &domain.PageResponse{
			Data:       domain.CloneRecords(records[start:end]),
			Pagination: domain.Pagination{Total: len(records), Page: req.Page, Limit: req.Limit},
		}, nil
	}, nil
}

func (c *fakeCatalog) lastRequest() domain.PageRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests[len(c.requests)-1]
}

type staticDecoder struct{}

func (staticDecoder) Decode(ctx context.Context, token string) (*domain.UserClaims, error) {
	if token == "bad" {
		return nil, domain.ErrInvalidToken
	}
	return &domain.UserClaims{UserID: "u-" + token, Email: token + "@example.com", Role: "user"}, nil
}

type stubThread struct {
	nodes []domain.CommentNode
	err   error
}

func (s stubThread) Execute(ctx context.Context, postID string, tokens port.TokenSource) ([]domain.CommentNode, error) {
	return s.nodes, s.err
}

type testEnv struct {
	server   *httptest.Server
	catalog  *fakeCatalog
	registry *usecase.ViewSessionRegistry
	thread   *stubThread
}

const clientA = "7f1d2c3e-0000-4000-8000-00000000000a"
const clientB = "7f1d2c3e-0000-4000-8000-00000000000b"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	catalog := newFakeCatalog()
	sse := notifier.NewSSENotifier(port.NoopLogger{})
	registry := usecase.NewViewSessionRegistry(catalog, sse, port.NoopLogger{}, usecase.RegistryConfig{
		TablePageSize:  5,
		SearchDebounce: 10 * time.Millisecond,
		FeedPageSize:   5,
	})
	appState := usecase.NewAppStateStore(localstorage_adapter.NewMemoryStorage(), staticDecoder{})
	thread := &stubThread{}

	views := NewViewHandler(registry, appState, sse)
	views.keepAlive = 20 * time.Millisecond
	router := NewRouter(Handlers{
		Session:  NewSessionHandler(appState),
		Views:    views,
		Comments: NewCommentsHandler(thread, appState),
	}, []string{"*"}, port.NoopLogger{})

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		registry.CloseAll()
		sse.Close()
	})
	return &testEnv{server: srv, catalog: catalog, registry: registry, thread: thread}
}

func (e *testEnv) do(t *testing.T, method, path, clientID, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if clientID != "" {
		req.Header.Set("X-Client-ID", clientID)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// tableLoaded ждет, пока таблица сессии закончит загрузку, и возвращает ее представление.
func (e *testEnv) tableLoaded(t *testing.T, clientID, sessionID string) domain.TableView {
	t.Helper()
	var view domain.TableView
	require.Eventually(t, func() bool {
		resp := e.do(t, http.MethodGet, "/api/v1/tables/"+sessionID, clientID, "")
		if resp.StatusCode != http.StatusOK {
			return false
		}
		view = decode[domain.TableView](t, resp)
		return !view.IsLoading
	}, 2*time.Second, 10*time.Millisecond)
	return view
}

func (e *testEnv) feedLoaded(t *testing.T, clientID, sessionID string) domain.FeedView {
	t.Helper()
	var view domain.FeedView
	require.Eventually(t, func() bool {
		resp := e.do(t, http.MethodGet, "/api/v1/feeds/"+sessionID, clientID, "")
		if resp.StatusCode != http.StatusOK {
			return false
		}
		view = decode[FeedActionResponse](t, resp).View
		return !view.IsLoading
	}, 2*time.Second, 10*time.Millisecond)
	return view
}

func recordIDs(records []domain.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		id, _ := r.ID()
		out = append(out, id)
	}
	return out
}
