package wikidata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"earthistory/internal/cache"
	"earthistory/internal/fetch"
	"earthistory/internal/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	f := fetch.NewFetcher(server.Client(), ratelimit.New(1000, time.Second), fetch.Config{
		UserAgent:   "earthistory-test",
		MaxAttempts: 3,
		BaseBackoff: time.Millisecond,
	}, nil)
	f.SetSleep(func(ctx context.Context, d time.Duration) error { return ctx.Err() })
	return NewClient(f, Endpoints{
		SPARQL:        server.URL + "/sparql",
		EntitySearch:  server.URL + "/w/api.php",
		WikipediaAPI:  server.URL + "/%s/w/api.php",
		WikipediaREST: server.URL + "/rest/page/summary",
	}, nil)
}

func TestRunQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sparql", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Contains(t, r.URL.Query().Get("query"), "SELECT")
		w.Write([]byte(`{"head":{"vars":["event"]},"results":{"bindings":[{"event":{"type":"uri","value":"http://www.wikidata.org/entity/Q1"}}]}}`))
	}))
	defer server.Close()

	rows, err := newTestClient(t, server).RunQuery(context.Background(), "SELECT ?event WHERE {}")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "http://www.wikidata.org/entity/Q1", rows[0].Value("event"))
}

func TestRunQueryNonRetryableIsNoData(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "malformed query", http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := newTestClient(t, server).RunQuery(context.Background(), "SELECT")
	assert.True(t, errors.Is(err, ErrNoData))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRunQueryExhaustedRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(t, server).RunQuery(context.Background(), "SELECT")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoData))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchRelatedEventsRejectsBadQID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))
	defer server.Close()

	_, err := newTestClient(t, server).FetchRelatedEvents(context.Background(), "Q1 }", 10)
	assert.Error(t, err)
}

func TestSearchLanguages(t *testing.T) {
	assert.Equal(t, []string{"en", "zh"}, SearchLanguages("Roman Empire"))
	assert.Equal(t, []string{"zh", "zh-tw", "zh-cn", "en"}, SearchLanguages("唐朝"))
	assert.True(t, HasHan("Tang 唐"))
	assert.False(t, HasHan("Tōhoku"))
}

func TestResolveTopicFallsThroughLanguages(t *testing.T) {
	var langs []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "wbsearchentities", q.Get("action"))
		lang := q.Get("language")
		langs = append(langs, lang)
		switch lang {
		case "zh":
			w.WriteHeader(http.StatusInternalServerError)
		case "zh-tw":
			w.Write([]byte(`{"search":[]}`))
		default:
			w.Write([]byte(`{"search":[{"id":"Q9683","label":"唐朝","description":"Chinese dynasty"}]}`))
		}
	}))
	defer server.Close()

	topic, found, err := newTestClient(t, server).ResolveTopic(context.Background(), "唐朝")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Q9683", topic.ID)
	assert.Equal(t, "zh-cn", topic.Language)
	// zh fails three times (retried), zh-tw is empty, zh-cn hits
	assert.Equal(t, []string{"zh", "zh", "zh", "zh-tw", "zh-cn"}, langs)
}

func TestResolveTopicNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"search":[]}`))
	}))
	defer server.Close()

	_, found, err := newTestClient(t, server).ResolveTopic(context.Background(), "zzxxqq")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestResolveTopicUsesCache(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"search":[{"id":"Q2277","label":"Roman Empire"}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server).WithTopicCache(cache.NewMemory(), time.Hour)
	for i := 0; i < 3; i++ {
		topic, found, err := client.ResolveTopic(context.Background(), "Roman Empire")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "Q2277", topic.ID)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestResolveTopicCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"search":[]}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, found, err := newTestClient(t, server).ResolveTopic(ctx, "anything")
	assert.False(t, found)
	assert.ErrorIs(t, err, context.Canceled)
}
