//go:build integration

package containers

import (
	"context"
	"strings"
	"testing"

	"github.com/designsafe-ci/portal-data/internal/config"
	"github.com/designsafe-ci/portal-data/internal/database"
	"github.com/designsafe-ci/portal-data/internal/logger"
	"github.com/designsafe-ci/portal-data/internal/search"
	"github.com/designsafe-ci/portal-data/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackServesThePortal(t *testing.T) {
	ctx := context.Background()
	opts := OptionsFromEnv()
	stack, err := Start(ctx, opts, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := stack.Terminate(context.Background()); err != nil {
			t.Logf("terminate: %v", err)
		}
	})

	for _, kv := range stack.EnvLines() {
		k, v, _ := strings.Cut(kv, "=")
		t.Setenv(k, v)
	}
	t.Setenv("ENV_FILE", "testdata/none.env")
	cfg, err := config.Load()
	require.NoError(t, err)

	db, err := database.Connect(cfg, logger.Nop())
	require.NoError(t, err)
	defer database.Close(db)
	require.NoError(t, database.AutoMigrate(db))

	backend, err := search.NewElasticBackend(cfg.Elastic, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, backend.EnsureIndex(ctx))

	result := services.HealthCheck(ctx, cfg, db, backend, logger.Nop())
	assert.Equal(t, "healthy", result.Status, result.ErrorMessage)

	token, err := AcquireAccount(cfg.AuthzURL, opts.AuthzClientID, "ds_user@designsafe-ci.org", GeneratePassword(), []string{"user"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}
