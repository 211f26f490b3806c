package search

import (
	"context"
	"errors"
	"path"
	"testing"
	"time"

	"github.com/designsafe-ci/portal-data/internal/agave"
	"github.com/designsafe-ci/portal-data/internal/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSystem = "designsafe.storage.default"

func newDoc(full, typ string) *Object {
	o := &Object{
		ID:       uuid.NewString(),
		SystemID: testSystem,
		Type:     typ,
	}
	o.relocate(path.Dir(full), path.Base(full))
	o.Permissions = []Pem{{Username: o.Owner, Recursive: true, Permission: LevelAll.Permission()}}
	return o
}

// seedTree indexes:
//
//	/alice (dir)
//	/alice/b (dir)
//	/alice/b/x.txt
//	/alice/b/d (dir)
//	/alice/b/d/y.txt
//	/alice/bb/z.txt
func seedTree(t *testing.T) (*Store, *MemoryBackend) {
	t.Helper()
	mem := NewMemoryBackend()
	for _, d := range []struct{ full, typ string }{
		{"/alice", "dir"},
		{"/alice/b", "dir"},
		{"/alice/b/x.txt", "file"},
		{"/alice/b/d", "dir"},
		{"/alice/b/d/y.txt", "file"},
		{"/alice/bb/z.txt", "file"},
	} {
		require.NoError(t, mem.Save(context.Background(), newDoc(d.full, d.typ)))
	}
	return NewStore(mem, logger.Nop()), mem
}

func mustFind(t *testing.T, s *Store, full string) *Object {
	t.Helper()
	o, err := s.FromFilePath(context.Background(), testSystem, "", full)
	require.NoError(t, err, full)
	return o
}

func TestListing(t *testing.T) {
	s, _ := seedTree(t)
	ctx := context.Background()

	objs, total, err := s.Listing(ctx, testSystem, "alice", "/alice/b", Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, objs, 2)
	assert.Equal(t, "d", objs[0].Name)
	assert.Equal(t, "x.txt", objs[1].Name)

	objs, total, err = s.Listing(ctx, testSystem, "alice", "alice/b/", Page{From: 1, Size: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, objs, 1)
	assert.Equal(t, "x.txt", objs[0].Name)

	objs, total, err = s.Listing(ctx, testSystem, "mallory", "/alice/b", Page{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, objs)
}

func TestListingRecursive(t *testing.T) {
	s, _ := seedTree(t)

	objs, err := s.ListingRecursive(context.Background(), testSystem, "alice", "/alice/b")
	require.NoError(t, err)

	var paths []string
	for _, o := range objs {
		paths = append(paths, o.FullPath())
	}
	assert.ElementsMatch(t, []string{"/alice/b/x.txt", "/alice/b/d", "/alice/b/d/y.txt"}, paths)
}

func TestFromFilePathNotFound(t *testing.T) {
	s, _ := seedTree(t)
	_, err := s.FromFilePath(context.Background(), testSystem, "alice", "/alice/nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.FromFilePath(context.Background(), testSystem, "mallory", "/alice/b/x.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFromAgaveFileCreatesOneDocument(t *testing.T) {
	mem := NewMemoryBackend()
	s := NewStore(mem, logger.Nop())
	ctx := context.Background()
	f := &agave.File{
		Name:         "x.txt",
		Path:         "ds_user/data/x.txt",
		System:       testSystem,
		Length:       12,
		LastModified: time.Date(2016, 3, 1, 10, 0, 0, 0, time.UTC),
		MimeType:     "text/plain",
		Format:       "raw",
		Type:         "file",
	}

	o, err := s.FromAgaveFile(ctx, "ds_user", f, UpsertOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, mem.Len())
	assert.Equal(t, "/ds_user/data", o.Path)
	assert.Equal(t, "x.txt", o.Name)
	assert.Equal(t, "agave://"+testSystem+"/ds_user/data/x.txt", o.AgavePath)
	assert.Equal(t, "txt", o.FileType)
	assert.Equal(t, []Pem{{
		Username:   "ds_user",
		Recursive:  true,
		Permission: Permission{Read: true, Write: true, Execute: true},
	}}, o.Permissions)

	again, err := s.FromAgaveFile(ctx, "ds_user", f, UpsertOptions{})
	require.NoError(t, err)
	assert.Equal(t, o.ID, again.ID)
	assert.Equal(t, 1, mem.Len())
}

func TestFromAgaveFileUpdates(t *testing.T) {
	mem := NewMemoryBackend()
	s := NewStore(mem, logger.Nop())
	ctx := context.Background()
	f := &agave.File{Name: "x.txt", Path: "ds_user/x.txt", System: testSystem, Type: "file", Length: 1}

	o, err := s.FromAgaveFile(ctx, "ds_user", f, UpsertOptions{})
	require.NoError(t, err)

	f.Length = 99
	f.Permissions = []Pem{{Username: "guest", Permission: Permission{Read: true}}}
	updated, err := s.FromAgaveFile(ctx, "ds_user", f, UpsertOptions{AutoUpdate: true, GetPems: true})
	require.NoError(t, err)
	assert.Equal(t, o.ID, updated.ID)
	assert.EqualValues(t, 99, updated.Length)
	assert.Equal(t, f.Permissions, updated.Permissions)

	stored, ok := mem.Get(o.ID)
	require.True(t, ok)
	assert.EqualValues(t, 99, stored.Length)
	assert.Equal(t, 1, mem.Len())
}

// flakyBackend fails Search with the queued errors before delegating.
type flakyBackend struct {
	*MemoryBackend
	errs  []error
	calls int
}

func (f *flakyBackend) Search(ctx context.Context, q Query, from, size int) ([]*Object, int64, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, 0, err
	}
	return f.MemoryBackend.Search(ctx, q, from, size)
}

func TestSearchRetry(t *testing.T) {
	unavailable := &TransportError{Status: 503}
	cases := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   bool
	}{
		{"retries once then succeeds", []error{unavailable}, 2, false},
		{"gives up after one retry", []error{unavailable, unavailable}, 2, true},
		{"no answer is retried", []error{&TransportError{Err: errors.New("connection refused")}}, 2, false},
		{"not found is not retried", []error{&TransportError{Status: 404}}, 1, true},
		{"other errors are not retried", []error{context.Canceled}, 1, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fb := &flakyBackend{MemoryBackend: NewMemoryBackend(), errs: tc.errs}
			s := NewStore(fb, logger.Nop())
			_, _, err := s.Listing(context.Background(), testSystem, "alice", "/alice", Page{})
			assert.Equal(t, tc.wantCalls, fb.calls)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
