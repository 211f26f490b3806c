package search

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// Query is a search clause. Source renders the Elasticsearch JSON; Match
// evaluates the clause against one object for the in-memory backend.
type Query interface {
	Source() map[string]any
	Match(o *Object) bool
}

// Term matches an exact token.
type Term struct {
	Field string
	Value any
}

func (t Term) Source() map[string]any {
	return map[string]any{"term": map[string]any{t.Field: t.Value}}
}

func (t Term) Match(o *Object) bool {
	want := fmt.Sprint(t.Value)
	for _, v := range fieldTokens(o, t.Field) {
		if v == want {
			return true
		}
	}
	return false
}

// Terms matches any of several exact tokens.
type Terms struct {
	Field  string
	Values []string
}

func (t Terms) Source() map[string]any {
	return map[string]any{"terms": map[string]any{t.Field: t.Values}}
}

func (t Terms) Match(o *Object) bool {
	for _, v := range fieldTokens(o, t.Field) {
		for _, want := range t.Values {
			if v == want {
				return true
			}
		}
	}
	return false
}

// Bool combines clauses. Should clauses are optional when Must or Filter is
// present and MinimumShouldMatch is zero, as in Elasticsearch.
type Bool struct {
	Must               []Query
	Filter             []Query
	Should             []Query
	MustNot            []Query
	MinimumShouldMatch int
}

func (b Bool) Source() map[string]any {
	body := map[string]any{}
	add := func(key string, qs []Query) {
		if len(qs) == 0 {
			return
		}
		out := make([]map[string]any, len(qs))
		for i, q := range qs {
			out[i] = q.Source()
		}
		body[key] = out
	}
	add("must", b.Must)
	add("filter", b.Filter)
	add("should", b.Should)
	add("must_not", b.MustNot)
	if b.MinimumShouldMatch > 0 {
		body["minimum_should_match"] = b.MinimumShouldMatch
	}
	return map[string]any{"bool": body}
}

func (b Bool) Match(o *Object) bool {
	for _, q := range b.Must {
		if !q.Match(o) {
			return false
		}
	}
	for _, q := range b.Filter {
		if !q.Match(o) {
			return false
		}
	}
	for _, q := range b.MustNot {
		if q.Match(o) {
			return false
		}
	}
	if len(b.Should) == 0 {
		return true
	}
	need := b.MinimumShouldMatch
	if need == 0 && len(b.Must) == 0 && len(b.Filter) == 0 {
		need = 1
	}
	matched := 0
	for _, q := range b.Should {
		if q.Match(o) {
			matched++
		}
	}
	return matched >= need
}

// Body wraps a query in a search request body.
func Body(q Query) map[string]any {
	return map[string]any{"query": q.Source()}
}

// fieldTokens returns the indexed tokens of a mapped field, mirroring the
// analyzers in the index mapping.
func fieldTokens(o *Object, field string) []string {
	switch field {
	case "path", "path._exact":
		return []string{o.Path}
	case "path._path":
		return pathHierarchy(o.Path)
	case "name", "name._exact":
		return []string{o.Name}
	case "systemId":
		return []string{o.SystemID}
	case "owner":
		return []string{o.Owner}
	case "type":
		return []string{o.Type}
	case "agavePath":
		return []string{o.AgavePath}
	case "deleted":
		return []string{strconv.FormatBool(o.Deleted)}
	case "permissions.username":
		out := make([]string, len(o.Permissions))
		for i, p := range o.Permissions {
			out[i] = p.Username
		}
		return out
	}
	return nil
}

// pathHierarchy tokenizes like the path_hierarchy tokenizer: "/a/b" → "/a", "/a/b".
func pathHierarchy(p string) []string {
	p = path.Clean(p)
	if p == "/" {
		return []string{"/"}
	}
	segments := strings.Split(strings.TrimPrefix(p, "/"), "/")
	out := make([]string, 0, len(segments))
	cur := ""
	for _, s := range segments {
		cur += "/" + s
		out = append(out, cur)
	}
	return out
}

const worldUser = "world"

// accessFilter keeps objects owned by or shared with username (or the world).
func accessFilter(username string) Query {
	return Bool{
		Should: []Query{
			Term{Field: "owner", Value: username},
			Terms{Field: "permissions.username", Values: []string{username, worldUser}},
		},
		MinimumShouldMatch: 1,
	}
}

func notDeleted() Query {
	return Term{Field: "deleted", Value: true}
}

// ListingQuery selects the direct children of dir.
func ListingQuery(system, username, dir string) Query {
	return Bool{
		Must: []Query{
			Term{Field: "path._exact", Value: dir},
			Term{Field: "systemId", Value: system},
		},
		Filter:  []Query{accessFilter(username)},
		MustNot: []Query{notDeleted()},
	}
}

// RecursiveQuery selects every descendant of dir. An empty username skips the
// access filter.
func RecursiveQuery(system, username, dir string) Query {
	q := Bool{
		Must: []Query{
			Term{Field: "path._path", Value: dir},
			Term{Field: "systemId", Value: system},
		},
		MustNot: []Query{notDeleted()},
	}
	if username != "" {
		q.Filter = []Query{accessFilter(username)}
	}
	return q
}

// FilePathQuery selects the object at fullPath. An empty username skips the
// access filter.
func FilePathQuery(system, username, fullPath string) Query {
	parent, name := path.Split(path.Clean("/" + fullPath))
	parent = path.Clean(parent)
	if parent == "" || parent == "." {
		parent = "/"
	}
	q := Bool{
		Must: []Query{
			Term{Field: "path._exact", Value: parent},
			Term{Field: "name._exact", Value: name},
			Term{Field: "systemId", Value: system},
		},
		MustNot: []Query{notDeleted()},
	}
	if username != "" {
		q.Filter = []Query{accessFilter(username)}
	}
	return q
}
