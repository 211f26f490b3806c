package services

import (
	"context"
	"fmt"

	"github.com/designsafe-ci/portal-data/internal/config"
	"github.com/designsafe-ci/portal-data/internal/logger"
	"github.com/designsafe-ci/portal-data/internal/utils"
	"gorm.io/gorm"
)

// Pinger is anything that can report reachability, such as the search backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Search       string            `json:"search"`
	Authorizer   string            `json:"authorizer"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

func (r *HealthCheckResult) fail(component, detailKey string, err error) {
	r.Status = "unhealthy"
	r.Details[detailKey] = err.Error()
	msg := fmt.Sprintf("%s: %v", component, err)
	if r.ErrorMessage == "" {
		r.ErrorMessage = msg
	} else {
		r.ErrorMessage += "; " + msg
	}
}

// HealthCheck checks the database, the search index and the Authorizer.
func HealthCheck(ctx context.Context, cfg *config.Config, db *gorm.DB, search Pinger, log *logger.Logger) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "healthy",
		Details: make(map[string]string),
	}

	sqlDB, err := db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		result.Database = "unreachable"
		result.fail("Database ping failed", "database_error", err)
		log.Warn("health check failed", "component", "database", "error", err)
	} else {
		result.Database = "ok"
		result.Details["database_type"] = cfg.DBType
		result.Details["database_name"] = cfg.DBDatabase
	}

	if err := search.Ping(ctx); err != nil {
		result.Search = "unreachable"
		result.fail("Search ping failed", "search_error", err)
		log.Warn("health check failed", "component", "search", "error", err)
	} else {
		result.Search = "ok"
		result.Details["search_index"] = cfg.Elastic.DefaultIndex
	}

	if err := utils.PingAuthorizer(cfg.AuthzURL); err != nil {
		result.Authorizer = "unreachable"
		result.fail("Authorizer ping failed", "authorizer_error", err)
		log.Warn("health check failed", "component", "authorizer", "error", err)
	} else {
		result.Authorizer = "ok"
		result.Details["authorizer_url"] = cfg.AuthzURL
	}

	if result.Status == "healthy" {
		log.Debug("health check passed")
	}
	return result
}
