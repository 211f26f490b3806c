package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenameRewritesSubtree(t *testing.T) {
	s, mem := seedTree(t)
	ctx := context.Background()
	dir := mustFind(t, s, "/alice/b")
	ids := map[string]string{}
	for _, p := range []string{"/alice/b/x.txt", "/alice/b/d", "/alice/b/d/y.txt"} {
		ids[p] = mustFind(t, s, p).ID
	}

	renamed, err := s.Rename(ctx, dir, "alice", "c")
	require.NoError(t, err)
	assert.Equal(t, "/alice", renamed.Path)
	assert.Equal(t, "c", renamed.Name)
	assert.Equal(t, "agave://"+testSystem+"/alice/c", renamed.AgavePath)

	for old, want := range map[string]string{
		"/alice/b/x.txt":   "/alice/c/x.txt",
		"/alice/b/d":       "/alice/c/d",
		"/alice/b/d/y.txt": "/alice/c/d/y.txt",
	} {
		o := mustFind(t, s, want)
		assert.Equal(t, ids[old], o.ID, "documents are updated in place")
		assert.Equal(t, "agave://"+testSystem+want, o.AgavePath)

		_, err := s.FromFilePath(ctx, testSystem, "", old)
		assert.ErrorIs(t, err, ErrNotFound)
	}

	sibling := mustFind(t, s, "/alice/bb/z.txt")
	assert.Equal(t, "/alice/bb", sibling.Path)
	assert.Equal(t, 6, mem.Len())
}

func TestRenameRejectsPaths(t *testing.T) {
	s, _ := seedTree(t)
	_, err := s.Rename(context.Background(), mustFind(t, s, "/alice/b"), "alice", "c/d")
	assert.ErrorIs(t, err, ErrInvalidDestination)
}

func TestMove(t *testing.T) {
	s, mem := seedTree(t)
	ctx := context.Background()

	moved, err := s.Move(ctx, mustFind(t, s, "/alice/b/x.txt"), "alice", "/alice/bb/x2.txt")
	require.NoError(t, err)
	assert.Equal(t, "/alice/bb", moved.Path)
	assert.Equal(t, "x2.txt", moved.Name)
	mustFind(t, s, "/alice/bb/x2.txt")
	assert.Equal(t, 6, mem.Len())

	moved, err = s.Move(ctx, mustFind(t, s, "/alice/b"), "alice", "/alice/bb/b")
	require.NoError(t, err)
	assert.Equal(t, "/alice/bb", moved.Path)
	y := mustFind(t, s, "/alice/bb/b/d/y.txt")
	assert.Equal(t, "alice", y.Owner)
	assert.Equal(t, 6, mem.Len())
}

func TestMoveChangesOwnerWithTopSegment(t *testing.T) {
	s, _ := seedTree(t)
	moved, err := s.Move(context.Background(), mustFind(t, s, "/alice/bb/z.txt"), "alice", "/bob/z.txt")
	require.NoError(t, err)
	assert.Equal(t, "bob", moved.Owner)
	assert.Equal(t, "agave://"+testSystem+"/bob/z.txt", moved.AgavePath)
}

func TestMoveIntoOwnSubtree(t *testing.T) {
	s, _ := seedTree(t)
	_, err := s.Move(context.Background(), mustFind(t, s, "/alice/b"), "alice", "/alice/b/d/b")
	assert.ErrorIs(t, err, ErrInvalidDestination)
}

func TestCopyLeavesOriginal(t *testing.T) {
	s, mem := seedTree(t)
	ctx := context.Background()
	dir := mustFind(t, s, "/alice/b")

	got, err := s.Copy(ctx, dir, "alice", "/alice/e")
	require.NoError(t, err)
	assert.Equal(t, dir.ID, got.ID)
	assert.Equal(t, "/alice/b", got.FullPath())
	assert.Equal(t, 10, mem.Len())

	for _, p := range []string{"/alice/b", "/alice/b/x.txt", "/alice/b/d/y.txt"} {
		mustFind(t, s, p)
	}
	copied := mustFind(t, s, "/alice/e/d/y.txt")
	assert.NotEqual(t, mustFind(t, s, "/alice/b/d/y.txt").ID, copied.ID)
	assert.Equal(t, "agave://"+testSystem+"/alice/e/d/y.txt", copied.AgavePath)
	mustFind(t, s, "/alice/e")
}

func TestCopyBareNameKeepsParent(t *testing.T) {
	s, mem := seedTree(t)
	_, err := s.Copy(context.Background(), mustFind(t, s, "/alice/b/x.txt"), "alice", "x-copy.txt")
	require.NoError(t, err)
	mustFind(t, s, "/alice/b/x-copy.txt")
	assert.Equal(t, 7, mem.Len())
}

func TestCopyIntoSelf(t *testing.T) {
	s, _ := seedTree(t)
	_, err := s.Copy(context.Background(), mustFind(t, s, "/alice/b"), "alice", "/alice/b/inner")
	assert.ErrorIs(t, err, ErrInvalidDestination)
}

func TestDeleteRecursive(t *testing.T) {
	s, mem := seedTree(t)

	n, err := s.DeleteRecursive(context.Background(), mustFind(t, s, "/alice/b"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 2, mem.Len())
	mustFind(t, s, "/alice/bb/z.txt")
}

func TestDeleteMissingDocumentIsNotRetried(t *testing.T) {
	s, _ := seedTree(t)
	o := mustFind(t, s, "/alice/b/x.txt")
	o.ID = "gone"
	_, err := s.DeleteRecursive(context.Background(), o)
	assert.True(t, IsNotFoundStatus(err))
}

func countPems(o *Object, user string) (int, Pem) {
	n := 0
	var last Pem
	for _, p := range o.Permissions {
		if p.Username == user {
			n++
			last = p
		}
	}
	return n, last
}

func TestShareAllReplacesPriorGrant(t *testing.T) {
	s, _ := seedTree(t)
	ctx := context.Background()
	x := mustFind(t, s, "/alice/b/x.txt")
	_, err := s.UpdatePems(ctx, x, "bob", LevelRead)
	require.NoError(t, err)

	_, err = s.Share(ctx, mustFind(t, s, "/alice/b"), "alice", "bob", LevelAll)
	require.NoError(t, err)

	all := Permission{Read: true, Write: true, Execute: true}
	for _, p := range []string{"/alice", "/alice/b", "/alice/b/x.txt", "/alice/b/d", "/alice/b/d/y.txt"} {
		n, pem := countPems(mustFind(t, s, p), "bob")
		assert.Equal(t, 1, n, p)
		assert.Equal(t, all, pem.Permission, p)
	}

	n, _ := countPems(mustFind(t, s, "/alice/bb/z.txt"), "bob")
	assert.Zero(t, n)

	objs, _, err := s.Listing(ctx, testSystem, "bob", "/alice/b", Page{})
	require.NoError(t, err)
	assert.Len(t, objs, 2)
}

func TestShareSkipsUnindexedAncestors(t *testing.T) {
	s, _ := seedTree(t)
	ctx := context.Background()

	// /alice/bb itself is not indexed.
	_, err := s.Share(ctx, mustFind(t, s, "/alice/bb/z.txt"), "alice", "world", LevelRead)
	require.NoError(t, err)

	n, pem := countPems(mustFind(t, s, "/alice"), "world")
	assert.Equal(t, 1, n)
	assert.Equal(t, Permission{Read: true}, pem.Permission)
	assert.True(t, pem.Recursive)

	_, pem = countPems(mustFind(t, s, "/alice/bb/z.txt"), "world")
	assert.True(t, pem.Recursive, "grants on files are recursive too")
}

func TestUpdatePemsKeepsOtherUsers(t *testing.T) {
	s, _ := seedTree(t)
	o := mustFind(t, s, "/alice/b/x.txt")

	o, err := s.UpdatePems(context.Background(), o, "bob", LevelWrite)
	require.NoError(t, err)
	o, err = s.UpdatePems(context.Background(), o, "bob", LevelExecute)
	require.NoError(t, err)

	require.Len(t, o.Permissions, 2)
	assert.Equal(t, "alice", o.Permissions[0].Username)
	assert.Equal(t, Pem{Username: "bob", Recursive: true, Permission: Permission{Execute: true}}, o.Permissions[1])
}

func TestAccessChecks(t *testing.T) {
	s, _ := seedTree(t)
	ctx := context.Background()
	b := mustFind(t, s, "/alice/b")
	_, err := s.UpdatePems(ctx, b, "bob", LevelRead)
	require.NoError(t, err)
	_, err = s.UpdatePems(ctx, b, "carol", LevelWrite)
	require.NoError(t, err)
	_, err = s.UpdatePems(ctx, b, worldUser, LevelAll)
	require.NoError(t, err)

	assert.True(t, b.CanWrite("alice"))
	assert.True(t, b.CanWrite("carol"))
	assert.False(t, b.CanWrite("bob"))
	assert.False(t, b.CanWrite("dave"), "world grants are read-only")
	assert.False(t, b.CanWrite(""))
	assert.True(t, b.CanRead("bob"))
	assert.True(t, b.CanRead("dave"))

	x := mustFind(t, s, "/alice/b/x.txt")
	assert.False(t, x.CanRead("bob"))

	for _, tt := range []struct {
		user, dir string
		want      bool
	}{
		{"alice", "/alice/new", true},
		{"bob", "/bob", true},
		{"bob", "/alice/b", false},
		{"carol", "/alice/b", true},
		{"carol", "/alice/b/x.txt", false},
		{"carol", "/alice/missing", false},
		{"alice", "/", false},
	} {
		ok, err := s.CanWriteDir(ctx, testSystem, tt.user, tt.dir)
		require.NoError(t, err)
		assert.Equal(t, tt.want, ok, "%s in %s", tt.user, tt.dir)
	}
}
