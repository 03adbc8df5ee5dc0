package rest

import (
	"bufio"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readEvent читает одно SSE-событие и возвращает его тип и данные.
func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if event != "" || data != "" {
				return event, data
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func subscribe(t *testing.T, env *testEnv, sessionID, clientID string) (*http.Response, *bufio.Reader) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	// EventSource не шлет заголовки: клиент передается в query
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		env.server.URL+"/api/v1/views/"+sessionID+"/events?clientId="+clientID, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp, bufio.NewReader(resp.Body)
}

func TestViewEvents_StreamsUpdatesAndClose(t *testing.T) {
	env := newTestEnv(t)
	id := openTable(t, env, clientA, `{"resource":"properties"}`)
	env.tableLoaded(t, clientA, id)

	resp, reader := subscribe(t, env, id, clientA)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	event, _ := readEvent(t, reader)
	assert.Equal(t, "connected", event)
	event, data := readEvent(t, reader)
	assert.Equal(t, "table.updated", event)
	assert.Contains(t, data, `"totalCount":12`)

	env.do(t, http.MethodPost, "/api/v1/tables/"+id+"/page", clientA, `{"index":1}`)
	// Сначала приходит состояние загрузки, затем загруженная страница
	for {
		event, data = readEvent(t, reader)
		if event == "table.updated" && strings.Contains(data, `"isLoading":false`) && strings.Contains(data, `"pageIndex":1`) {
			break
		}
	}
	assert.Contains(t, data, `"_id":"p6"`)

	env.do(t, http.MethodDelete, "/api/v1/tables/"+id, clientA, "")
	for {
		event, _ = readEvent(t, reader)
		if event == "view.closed" {
			break
		}
	}
}

func TestViewEvents_UnknownSession(t *testing.T) {
	env := newTestEnv(t)
	id := openFeed(t, env, clientA, "resource=posts")

	resp, _ := subscribe(t, env, id, clientB)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, reader := subscribe(t, env, id, clientA)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	readEvent(t, reader)
	event, _ := readEvent(t, reader)
	assert.Equal(t, "feed.updated", event)
}

func TestViewEvents_SubscribeAfterCloseIsRejected(t *testing.T) {
	env := newTestEnv(t)
	id := openTable(t, env, clientA, `{"resource":"properties"}`)
	env.tableLoaded(t, clientA, id)

	resp := env.do(t, http.MethodDelete, "/api/v1/tables/"+id, clientA, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Сессия удаляется из реестра до публикации view.closed,
	// поэтому поздняя подписка не может остаться висеть.
	resp, _ = subscribe(t, env, id, clientA)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
