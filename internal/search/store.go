package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/designsafe-ci/portal-data/internal/agave"
	"github.com/designsafe-ci/portal-data/internal/logger"
	"github.com/google/uuid"
)

// DefaultPageSize is used when a listing asks for no explicit size.
const DefaultPageSize = 100

// Page selects a window of listing results.
type Page struct {
	From int
	Size int
}

func (p Page) normalize() Page {
	if p.From < 0 {
		p.From = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	return p
}

// Store runs document queries and mutations over a Backend.
type Store struct {
	backend Backend
	log     *logger.Logger
}

func NewStore(backend Backend, log *logger.Logger) *Store {
	return &Store{
		backend: backend,
		log:     log.With("service", "SearchStore"),
	}
}

// Backend exposes the underlying backend, for index setup and health checks.
func (s *Store) Backend() Backend {
	return s.backend
}

// retry runs fn and repeats it once on a transport error that is not a 404.
func retry[T any](s *Store, op string, fn func() (T, error)) (T, error) {
	v, err := fn()
	if err == nil {
		return v, nil
	}
	var te *TransportError
	if !errors.As(err, &te) || IsNotFoundStatus(err) {
		return v, err
	}
	s.log.Warn("search transport error, retrying", "op", op, "error", err)
	return fn()
}

func (s *Store) search(ctx context.Context, q Query, page Page) ([]*Object, int64, error) {
	type result struct {
		objs  []*Object
		total int64
	}
	r, err := retry(s, "search", func() (result, error) {
		objs, total, err := s.backend.Search(ctx, q, page.From, page.Size)
		return result{objs, total}, err
	})
	return r.objs, r.total, err
}

func (s *Store) scan(ctx context.Context, q Query) ([]*Object, error) {
	return retry(s, "scan", func() ([]*Object, error) {
		return s.backend.Scan(ctx, q)
	})
}

func (s *Store) save(ctx context.Context, o *Object) error {
	_, err := retry(s, "save", func() (struct{}, error) {
		return struct{}{}, s.backend.Save(ctx, o)
	})
	return err
}

func (s *Store) delete(ctx context.Context, id string) error {
	_, err := retry(s, "delete", func() (struct{}, error) {
		return struct{}{}, s.backend.Delete(ctx, id)
	})
	return err
}

// Listing returns the direct children of dir visible to username, and the
// total number of such children.
func (s *Store) Listing(ctx context.Context, system, username, dir string, page Page) ([]*Object, int64, error) {
	return s.search(ctx, ListingQuery(system, username, cleanDir(dir)), page.normalize())
}

// ListingRecursive returns every descendant of dir visible to username.
func (s *Store) ListingRecursive(ctx context.Context, system, username, dir string) ([]*Object, error) {
	return s.scan(ctx, RecursiveQuery(system, username, cleanDir(dir)))
}

// FromFilePath returns the object at fullPath, or ErrNotFound.
func (s *Store) FromFilePath(ctx context.Context, system, username, fullPath string) (*Object, error) {
	objs, _, err := s.search(ctx, FilePathQuery(system, username, fullPath), Page{Size: 1})
	if err != nil {
		return nil, err
	}
	if len(objs) == 0 {
		return nil, fmt.Errorf("%s%s: %w", system, cleanDir(fullPath), ErrNotFound)
	}
	return objs[0], nil
}

// UpsertOptions control how FromAgaveFile treats an indexed entry.
type UpsertOptions struct {
	// AutoUpdate refreshes the metadata of an existing document.
	AutoUpdate bool
	// GetPems replaces permissions with the ones carried by the file.
	GetPems bool
}

// FromAgaveFile indexes f. An existing document is updated according to opts;
// a new one is created with the path owner holding full recursive access,
// unless opts.GetPems supplies the permissions.
func (s *Store) FromAgaveFile(ctx context.Context, username string, f *agave.File, opts UpsertOptions) (*Object, error) {
	o, err := s.FromFilePath(ctx, f.System, "", f.FullPath())
	switch {
	case err == nil:
		if !opts.AutoUpdate && !opts.GetPems {
			return o, nil
		}
		if opts.AutoUpdate {
			o.applyFile(f)
		}
		if opts.GetPems {
			o.Permissions = append([]Pem{}, f.Permissions...)
		}
	case errors.Is(err, ErrNotFound):
		o = &Object{ID: uuid.NewString()}
		o.applyFile(f)
		if opts.GetPems {
			o.Permissions = append([]Pem{}, f.Permissions...)
		} else {
			o.Permissions = []Pem{{
				Username:   f.Owner(),
				Recursive:  true,
				Permission: LevelAll.Permission(),
			}}
		}
	default:
		return nil, err
	}

	if err := s.save(ctx, o); err != nil {
		return nil, fmt.Errorf("index %s for %s: %w", f.FullPath(), username, err)
	}
	return o, nil
}

func cleanDir(p string) string {
	return (&agave.File{Path: p}).FullPath()
}
