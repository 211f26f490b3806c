package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/designsafe-ci/portal-data/internal/config"
	"github.com/designsafe-ci/portal-data/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method, path, query, body string
}

func newElasticServer(t *testing.T, handle func(w http.ResponseWriter, r *http.Request)) (*ElasticBackend, *[]recorded) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recorded{r.Method, r.URL.Path, r.URL.RawQuery, string(body)})
		mu.Unlock()
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handle(w, r)
	}))
	t.Cleanup(srv.Close)

	b, err := NewElasticBackend(config.ElasticConfig{
		Hosts:        []string{srv.URL},
		DefaultIndex: "designsafe",
	}, logger.Nop())
	require.NoError(t, err)
	return b, &reqs
}

func TestElasticSearchDecodesHits(t *testing.T) {
	b, reqs := newElasticServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{
			"hits": {
				"total": {"value": 7, "relation": "eq"},
				"hits": [
					{"_id": "doc-1", "_source": {"name": "x.txt", "path": "/alice", "systemId": "sys", "type": "file",
						"permissions": [{"username": "alice", "recursive": true, "permission": {"read": true, "write": true, "execute": true}}]}}
				]
			}
		}`)
	})

	objs, total, err := b.Search(context.Background(), ListingQuery("sys", "alice", "/alice"), 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 7, total)
	require.Len(t, objs, 1)
	assert.Equal(t, "doc-1", objs[0].ID)
	assert.Equal(t, "/alice/x.txt", objs[0].FullPath())
	assert.True(t, objs[0].Permissions[0].Permission.Execute)

	require.Len(t, *reqs, 1)
	req := (*reqs)[0]
	assert.Equal(t, "/designsafe/_search", req.path)
	assert.Contains(t, req.query, "from=0")
	assert.Contains(t, req.query, "size=10")

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(req.body), &body))
	assert.Contains(t, body, "query")
}

func TestElasticSaveUsesDocumentID(t *testing.T) {
	b, reqs := newElasticServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"result": "created"}`)
	})

	o := newDoc("/alice/x.txt", "file")
	require.NoError(t, b.Save(context.Background(), o))

	req := (*reqs)[0]
	assert.Equal(t, http.MethodPut, req.method)
	assert.Equal(t, "/designsafe/_doc/"+o.ID, req.path)
	assert.Contains(t, req.query, "refresh=wait_for")
	assert.Contains(t, req.body, `"agavePath":"agave://`+testSystem+`/alice/x.txt"`)
	assert.NotContains(t, req.body, o.ID)
}

func TestElasticErrorStatus(t *testing.T) {
	b, _ := newElasticServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"result": "not_found"}`)
	})

	err := b.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFoundStatus(err))
	assert.Contains(t, err.Error(), "not_found")
}

func TestElasticScanFollowsScroll(t *testing.T) {
	page := 0
	b, reqs := newElasticServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodDelete:
			io.WriteString(w, `{"succeeded": true}`)
		case page == 0:
			page++
			io.WriteString(w, `{"_scroll_id": "s1", "hits": {"total": {"value": 2}, "hits": [{"_id": "a", "_source": {"name": "a"}}]}}`)
		case page == 1:
			page++
			io.WriteString(w, `{"_scroll_id": "s1", "hits": {"total": {"value": 2}, "hits": [{"_id": "b", "_source": {"name": "b"}}]}}`)
		default:
			io.WriteString(w, `{"_scroll_id": "s1", "hits": {"total": {"value": 2}, "hits": []}}`)
		}
	})

	objs, err := b.Scan(context.Background(), RecursiveQuery("sys", "", "/a"))
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, "a", objs[0].ID)
	assert.Equal(t, "b", objs[1].ID)

	last := (*reqs)[len(*reqs)-1]
	assert.Equal(t, http.MethodDelete, last.method)
	assert.True(t, strings.HasPrefix(last.path, "/_search/scroll"))
}

func TestElasticEnsureIndexCreatesMissingIndex(t *testing.T) {
	b, reqs := newElasticServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		io.WriteString(w, `{"acknowledged": true}`)
	})

	require.NoError(t, b.EnsureIndex(context.Background()))
	require.Len(t, *reqs, 2)
	create := (*reqs)[1]
	assert.Equal(t, http.MethodPut, create.method)
	assert.Equal(t, "/designsafe", create.path)
	assert.Contains(t, create.body, "path_hierarchy")
}

func TestNewBackendSelectsMemory(t *testing.T) {
	b, err := NewBackend(config.ElasticConfig{Hosts: []string{MemoryHost}}, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryBackend{}, b)

	b, err = NewBackend(config.ElasticConfig{Hosts: []string{"http://localhost:9200"}, DefaultIndex: "des-files"}, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &ElasticBackend{}, b)
}
