//go:build integration

package search

import (
	"context"
	"testing"

	"github.com/designsafe-ci/portal-data/internal/config"
	"github.com/designsafe-ci/portal-data/internal/containers"
	"github.com/designsafe-ci/portal-data/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startElasticsearch(t *testing.T) config.ElasticConfig {
	t.Helper()
	c, url, err := containers.StartElasticsearch(context.Background(), containers.DefaultElasticImage, "")
	if c != nil {
		t.Cleanup(func() {
			if err := c.Terminate(context.Background()); err != nil {
				t.Logf("terminate elasticsearch: %v", err)
			}
		})
	}
	require.NoError(t, err)

	return config.ElasticConfig{
		Hosts:        []string{url},
		DefaultIndex: "designsafe-test",
	}
}

func TestElasticsearchRoundTrip(t *testing.T) {
	cfg := startElasticsearch(t)
	ctx := context.Background()

	backend, err := NewElasticBackend(cfg, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, backend.Ping(ctx))
	require.NoError(t, backend.EnsureIndex(ctx))
	require.NoError(t, backend.EnsureIndex(ctx))

	s := NewStore(backend, logger.Nop())
	for _, d := range []struct{ full, typ string }{
		{"/alice", "dir"},
		{"/alice/b", "dir"},
		{"/alice/b/x.txt", "file"},
		{"/alice/b/d", "dir"},
		{"/alice/b/d/y.txt", "file"},
	} {
		require.NoError(t, backend.Save(ctx, newDoc(d.full, d.typ)))
	}

	objs, total, err := s.Listing(ctx, testSystem, "alice", "/alice/b", Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, objs, 2)

	dir, err := s.FromFilePath(ctx, testSystem, "alice", "/alice/b")
	require.NoError(t, err)
	_, err = s.Rename(ctx, dir, "alice", "c")
	require.NoError(t, err)

	y, err := s.FromFilePath(ctx, testSystem, "alice", "/alice/c/d/y.txt")
	require.NoError(t, err)
	assert.Equal(t, "agave://"+testSystem+"/alice/c/d/y.txt", y.AgavePath)

	n, err := s.DeleteRecursive(ctx, y)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
