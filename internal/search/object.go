package search

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/designsafe-ci/portal-data/internal/agave"
)

type (
	Pem        = agave.Pem
	Permission = agave.Permission
)

// PermissionLevel is a share grant as requested by a user.
type PermissionLevel string

const (
	LevelRead    PermissionLevel = "READ"
	LevelWrite   PermissionLevel = "WRITE"
	LevelExecute PermissionLevel = "EXECUTE"
	LevelAll     PermissionLevel = "ALL"
)

// ParsePermissionLevel accepts the level names case-insensitively.
func ParsePermissionLevel(s string) (PermissionLevel, error) {
	switch l := PermissionLevel(strings.ToUpper(strings.TrimSpace(s))); l {
	case LevelRead, LevelWrite, LevelExecute, LevelAll:
		return l, nil
	}
	return "", fmt.Errorf("unknown permission level %q", s)
}

// Permission translates the level into independent booleans.
func (l PermissionLevel) Permission() Permission {
	return Permission{
		Read:    l == LevelRead || l == LevelAll,
		Write:   l == LevelWrite || l == LevelAll,
		Execute: l == LevelExecute || l == LevelAll,
	}
}

// Object is the indexed mirror of one filesystem entry.
type Object struct {
	ID           string    `json:"-"`
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	SystemID     string    `json:"systemId"`
	AgavePath    string    `json:"agavePath"`
	Length       int64     `json:"length"`
	LastModified time.Time `json:"lastModified"`
	MimeType     string    `json:"mimeType"`
	Format       string    `json:"format"`
	FileType     string    `json:"fileType"`
	Type         string    `json:"type"`
	Deleted      bool      `json:"deleted"`
	SystemTags   []string  `json:"systemTags"`
	Keywords     []string  `json:"keywords"`
	Link         string    `json:"link"`
	Owner        string    `json:"owner"`
	Permissions  []Pem     `json:"permissions"`
}

// AgavePath is the canonical URI of the entry at fullPath on system.
func AgavePath(systemID, fullPath string) string {
	return fmt.Sprintf("agave://%s/%s", systemID, strings.TrimLeft(fullPath, "/"))
}

// ownerOf is the first segment of fullPath, the home directory owner.
func ownerOf(fullPath string) string {
	return strings.SplitN(strings.Trim(fullPath, "/"), "/", 2)[0]
}

// IsDir reports whether the object is a directory.
func (o *Object) IsDir() bool {
	return o.Type == "dir"
}

// FullPath joins the parent path and name.
func (o *Object) FullPath() string {
	return path.Join(o.Path, o.Name)
}

// relocate moves the object to parent/name and recomputes the derived fields.
func (o *Object) relocate(parent, name string) {
	o.Path = parent
	o.Name = name
	o.AgavePath = AgavePath(o.SystemID, o.FullPath())
	o.Owner = ownerOf(o.FullPath())
}

// CanRead reports whether username may read o: as its owner, through a
// grant of their own, or through a grant to the world.
func (o *Object) CanRead(username string) bool {
	if username != "" && username == o.Owner {
		return true
	}
	for _, p := range o.Permissions {
		if (p.Username == username || p.Username == worldUser) && p.Permission.Read {
			return true
		}
	}
	return false
}

// CanWrite reports whether username owns o or holds a write grant on it.
// World grants never confer write access.
func (o *Object) CanWrite(username string) bool {
	if username == "" {
		return false
	}
	if username == o.Owner {
		return true
	}
	for _, p := range o.Permissions {
		if p.Username == username && p.Permission.Write {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (o *Object) Clone() *Object {
	c := *o
	c.SystemTags = append([]string(nil), o.SystemTags...)
	c.Keywords = append([]string(nil), o.Keywords...)
	c.Permissions = append([]Pem(nil), o.Permissions...)
	return &c
}

// applyFile copies the mutable metadata of f onto the object.
func (o *Object) applyFile(f *agave.File) {
	o.SystemID = f.System
	o.MimeType = f.MimeType
	o.Format = f.Format
	o.Deleted = false
	o.LastModified = f.LastModified
	o.FileType = f.Ext()
	if o.FileType == "" {
		o.FileType = "folder"
	}
	o.SystemTags = []string{}
	o.Keywords = []string{}
	o.Length = f.Length
	o.Link = f.Link
	o.Type = f.Type
	o.relocate(f.ParentPath(), f.Name)
}

// ToFile renders the object as a files listing record.
func (o *Object) ToFile() *agave.File {
	f := &agave.File{
		Name:         o.Name,
		Path:         strings.Trim(o.FullPath(), "/"),
		System:       o.SystemID,
		Length:       o.Length,
		LastModified: o.LastModified,
		MimeType:     o.MimeType,
		Format:       o.Format,
		Type:         o.Type,
		Link:         o.Link,
		Permissions:  append([]Pem{}, o.Permissions...),
	}
	if f.Format == "" {
		f.Format = "folder"
	}
	if f.LastModified.IsZero() {
		f.LastModified = time.Now().UTC()
	}
	return f
}

func rewritePrefix(p, oldPrefix, newPrefix string) string {
	if p == oldPrefix {
		return newPrefix
	}
	if strings.HasPrefix(p, oldPrefix+"/") {
		return newPrefix + p[len(oldPrefix):]
	}
	return p
}
