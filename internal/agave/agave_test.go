package agave

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/designsafe-ci/portal-data/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestSchemaResolvesAllRelationships(t *testing.T) {
	s, err := NewSchema()
	require.NoError(t, err)
	assert.Empty(t, s.Registry.Pending())

	_, ok := s.Job.ReverseAccessor("metadata")
	assert.True(t, ok, "Metadata.job installs Job.metadata")
	_, ok = s.System.ReverseAccessor("job_set")
	assert.True(t, ok, "Job.system installs System.job_set")
	_, ok = s.System.ReverseAccessor("files")
	assert.True(t, ok)
}

func TestDecodeFile(t *testing.T) {
	f, err := DecodeFile(map[string]any{
		"name":         "results.csv",
		"path":         "ds_user/project/results.csv",
		"system":       "designsafe.storage.default",
		"length":       float64(1024),
		"lastModified": "2016-06-01T10:00:00.000-05:00",
		"mimeType":     "text/csv",
		"format":       "raw",
		"type":         "file",
		"_links": map[string]any{
			"self": map[string]any{"href": "https://agave.example.org/files/v2/media/system/x/ds_user/project/results.csv"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "results.csv", f.Name)
	assert.Equal(t, int64(1024), f.Length)
	assert.Equal(t, "/ds_user/project/results.csv", f.FullPath())
	assert.Equal(t, "/ds_user/project", f.ParentPath())
	assert.Equal(t, "csv", f.Ext())
	assert.Equal(t, "ds_user", f.Owner())
	assert.Equal(t, 2016, f.LastModified.Year())
	assert.Contains(t, f.Link, "/files/v2/media/")
}

func TestDecodeFileRejectsBadDate(t *testing.T) {
	_, err := DecodeFile(map[string]any{"name": "x", "path": "u/x", "system": "s", "lastModified": "yesterday-ish"})
	assert.Error(t, err)
}

func TestDecodeJobValidatesStatus(t *testing.T) {
	job, err := DecodeJob(map[string]any{"name": "opensees-run", "owner": "ds_user", "status": "FINISHED", "archivePath": "ds_user/archive/jobs/1"})
	require.NoError(t, err)
	assert.Equal(t, "ds_user/archive/jobs/1", job.ArchivePath)

	_, err = DecodeJob(map[string]any{"name": "opensees-run", "owner": "ds_user", "status": "EXPLODED"})
	assert.Error(t, err)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "abc", Expiry: time.Now().Add(time.Hour)})
	return NewClient(context.Background(), srv.URL, ts, logger.Nop())
}

func TestListFiles(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		assert.Equal(t, "/files/v2/listings/system/sys/ds_user/my%20dir", r.URL.EscapedPath())
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"result": []map[string]any{
				{"name": ".", "path": "ds_user/my dir", "system": "sys", "type": "dir"},
				{"name": "a.txt", "path": "ds_user/my dir/a.txt", "system": "sys", "type": "file", "length": 3},
			},
		})
	})

	files, err := c.ListFiles(context.Background(), "sys", "/ds_user/my dir")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a.txt", files[0].Name)
}

func TestAddMetadataAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "error", "message": "bad association"})
	})

	_, err := c.AddMetadata(context.Background(), MetadataRecord{Name: "interactiveJobDetails"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "bad association", apiErr.Message)
}

func TestFilePems(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"result": []map[string]any{
				{"username": "ds_user", "recursive": true, "permission": map[string]any{"read": true, "write": true, "execute": true}},
				{"username": "guest", "permission": map[string]any{"read": true}},
			},
		})
	})

	pems, err := c.FilePems(context.Background(), "sys", "ds_user")
	require.NoError(t, err)
	require.Len(t, pems, 2)
	assert.Equal(t, Permission{Read: true, Write: true, Execute: true}, pems[0].Permission)
	assert.Equal(t, Permission{Read: true}, pems[1].Permission)
	assert.False(t, pems[1].Recursive)
}
