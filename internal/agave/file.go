package agave

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Permission is a read/write/execute grant.
type Permission struct {
	Read    bool `json:"read"`
	Write   bool `json:"write"`
	Execute bool `json:"execute"`
}

// Pem is one user's permission entry on a file.
type Pem struct {
	Username   string     `json:"username"`
	Recursive  bool       `json:"recursive"`
	Permission Permission `json:"permission"`
}

// File is a remote filesystem entry as returned by a files listing.
type File struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	System       string    `json:"system"`
	Length       int64     `json:"length"`
	LastModified time.Time `json:"lastModified"`
	MimeType     string    `json:"mimeType"`
	Format       string    `json:"format"`
	Type         string    `json:"type"`
	Link         string    `json:"link,omitempty"`
	Permissions  []Pem     `json:"permissions"`
}

// IsDir reports whether the entry is a directory.
func (f *File) IsDir() bool {
	return f.Type == "dir"
}

// FullPath is the entry's path rooted at "/".
func (f *File) FullPath() string {
	return path.Clean("/" + strings.Trim(f.Path, "/"))
}

// ParentPath is the directory holding the entry.
func (f *File) ParentPath() string {
	return path.Dir(f.FullPath())
}

// Ext is the extension without the dot; empty for directories.
func (f *File) Ext() string {
	if f.IsDir() {
		return ""
	}
	return strings.TrimPrefix(path.Ext(f.Name), ".")
}

// Owner is the first segment of the entry's path, the home directory owner.
func (f *File) Owner() string {
	return strings.SplitN(strings.Trim(f.Path, "/"), "/", 2)[0]
}

// DecodeFile builds a File from one raw listing record.
func DecodeFile(raw map[string]any) (*File, error) {
	schema, err := DefaultSchema()
	if err != nil {
		return nil, err
	}
	attrs, err := schema.File.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode file: %w", err)
	}
	f := &File{
		Name:     attrs["name"].(string),
		Path:     attrs["path"].(string),
		System:   cast.ToString(attrs["system"]),
		Length:   attrs["length"].(int64),
		MimeType: attrs["mime_type"].(string),
		Format:   attrs["format"].(string),
		Type:     attrs["type"].(string),
	}
	if lm, ok := attrs["last_modified"].(time.Time); ok {
		f.LastModified = lm
	}
	if links, ok := attrs["links"].(map[string]any); ok {
		if self, ok := links["self"].(map[string]any); ok {
			f.Link = cast.ToString(self["href"])
		}
	}
	return f, nil
}

// DecodePems builds permission entries from a pems listing.
func DecodePems(raw []map[string]any) ([]Pem, error) {
	schema, err := DefaultSchema()
	if err != nil {
		return nil, err
	}
	pems := make([]Pem, 0, len(raw))
	for _, r := range raw {
		perm, err := schema.Permission.Decode(cast.ToStringMap(r["permission"]))
		if err != nil {
			return nil, fmt.Errorf("decode permission: %w", err)
		}
		pems = append(pems, Pem{
			Username:  cast.ToString(r["username"]),
			Recursive: cast.ToBool(r["recursive"]),
			Permission: Permission{
				Read:    cast.ToBool(perm["read"]),
				Write:   cast.ToBool(perm["write"]),
				Execute: cast.ToBool(perm["execute"]),
			},
		})
	}
	return pems, nil
}

// Job is a job record as carried by job notifications.
type Job struct {
	ID          string
	Name        string
	Owner       string
	Status      string
	ArchivePath string
}

// DecodeJob validates a job notification body against the Job model.
func DecodeJob(raw map[string]any) (*Job, error) {
	schema, err := DefaultSchema()
	if err != nil {
		return nil, err
	}
	attrs, err := schema.Job.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &Job{
		ID:          cast.ToString(attrs["id"]),
		Name:        attrs["name"].(string),
		Owner:       attrs["owner"].(string),
		Status:      attrs["status"].(string),
		ArchivePath: attrs["archive_path"].(string),
	}, nil
}
