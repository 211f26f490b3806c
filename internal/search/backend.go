package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/designsafe-ci/portal-data/internal/config"
	"github.com/designsafe-ci/portal-data/internal/logger"
)

// ErrNotFound is returned when a lookup matches no document.
var ErrNotFound = errors.New("document not found")

// TransportError is a failed round trip to the index. Status is the HTTP
// status of the answer, or zero when no answer arrived.
type TransportError struct {
	Status int
	Info   string
	Err    error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("search transport error (status %d)", e.Status)
	if e.Info != "" {
		msg += ": " + e.Info
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsNotFoundStatus reports whether err is a transport error with status 404.
func IsNotFoundStatus(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Status == http.StatusNotFound
}

// Backend stores and queries objects.
type Backend interface {
	// Search returns one page of hits and the total hit count.
	Search(ctx context.Context, q Query, from, size int) ([]*Object, int64, error)
	// Scan returns every hit.
	Scan(ctx context.Context, q Query) ([]*Object, error)
	// Save creates or replaces the object under its ID.
	Save(ctx context.Context, o *Object) error
	Delete(ctx context.Context, id string) error
	EnsureIndex(ctx context.Context) error
	Ping(ctx context.Context) error
}

// MemoryHost selects the in-process backend when it is the only configured host.
const MemoryHost = "memory"

// NewBackend connects to the configured cluster, or keeps the index in
// process when ES_HOSTS is "memory". The in-process index is lost on exit.
func NewBackend(cfg config.ElasticConfig, log *logger.Logger) (Backend, error) {
	if len(cfg.Hosts) == 1 && cfg.Hosts[0] == MemoryHost {
		log.Warn("using the in-memory search index")
		return NewMemoryBackend(), nil
	}
	return NewElasticBackend(cfg, log)
}
