package search

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingQuerySource(t *testing.T) {
	raw, err := json.Marshal(Body(ListingQuery("designsafe.storage.default", "ds_user", "/ds_user")))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"query": {"bool": {
			"must": [
				{"term": {"path._exact": "/ds_user"}},
				{"term": {"systemId": "designsafe.storage.default"}}
			],
			"filter": [
				{"bool": {
					"should": [
						{"term": {"owner": "ds_user"}},
						{"terms": {"permissions.username": ["ds_user", "world"]}}
					],
					"minimum_should_match": 1
				}}
			],
			"must_not": [
				{"term": {"deleted": true}}
			]
		}}
	}`, string(raw))
}

func TestRecursiveQueryWithoutUser(t *testing.T) {
	src := RecursiveQuery("sys", "", "/a").Source()
	body := src["bool"].(map[string]any)
	_, hasFilter := body["filter"]
	assert.False(t, hasFilter)
	assert.Equal(t, []map[string]any{
		{"term": map[string]any{"path._path": "/a"}},
		{"term": map[string]any{"systemId": "sys"}},
	}, body["must"])
}

func TestFilePathQuerySplitsParent(t *testing.T) {
	cases := []struct {
		full, parent, name string
	}{
		{"/ds_user/data/x.txt", "/ds_user/data", "x.txt"},
		{"ds_user", "/", "ds_user"},
		{"/ds_user/", "/", "ds_user"},
	}
	for _, tc := range cases {
		q := FilePathQuery("sys", "ds_user", tc.full).(Bool)
		assert.Equal(t, Term{Field: "path._exact", Value: tc.parent}, q.Must[0], tc.full)
		assert.Equal(t, Term{Field: "name._exact", Value: tc.name}, q.Must[1], tc.full)
	}
}

func TestPathHierarchy(t *testing.T) {
	assert.Equal(t, []string{"/"}, pathHierarchy("/"))
	assert.Equal(t, []string{"/a", "/a/b", "/a/b/c"}, pathHierarchy("/a/b/c"))
	assert.Equal(t, []string{"/a", "/a/b"}, pathHierarchy("/a/b/"))
}

func TestQueryMatch(t *testing.T) {
	o := &Object{
		Name:     "x.txt",
		Path:     "/owner/data",
		SystemID: "sys",
		Owner:    "owner",
		Permissions: []Pem{
			{Username: "guest", Permission: Permission{Read: true}},
		},
	}

	assert.True(t, ListingQuery("sys", "owner", "/owner/data").Match(o))
	assert.True(t, ListingQuery("sys", "guest", "/owner/data").Match(o))
	assert.False(t, ListingQuery("sys", "stranger", "/owner/data").Match(o))
	assert.False(t, ListingQuery("other", "owner", "/owner/data").Match(o))

	assert.True(t, RecursiveQuery("sys", "owner", "/owner").Match(o))
	assert.False(t, RecursiveQuery("sys", "owner", "/own").Match(o))

	o.Permissions = append(o.Permissions, Pem{Username: worldUser})
	assert.True(t, ListingQuery("sys", "stranger", "/owner/data").Match(o))

	o.Deleted = true
	assert.False(t, ListingQuery("sys", "owner", "/owner/data").Match(o))
}

func TestBoolShouldSemantics(t *testing.T) {
	o := &Object{Name: "a", Owner: "u"}
	yes := Term{Field: "name", Value: "a"}
	no := Term{Field: "name", Value: "b"}

	assert.False(t, Bool{Should: []Query{no}}.Match(o))
	assert.True(t, Bool{Must: []Query{yes}, Should: []Query{no}}.Match(o))
	assert.False(t, Bool{Must: []Query{yes}, Should: []Query{no}, MinimumShouldMatch: 1}.Match(o))
}

func TestParsePermissionLevel(t *testing.T) {
	l, err := ParsePermissionLevel(" all ")
	require.NoError(t, err)
	assert.Equal(t, Permission{Read: true, Write: true, Execute: true}, l.Permission())

	l, err = ParsePermissionLevel("WRITE")
	require.NoError(t, err)
	assert.Equal(t, Permission{Write: true}, l.Permission())

	_, err = ParsePermissionLevel("OWNER")
	assert.Error(t, err)
}
