package agave

import (
	"fmt"
	"strings"
	"sync"

	"github.com/designsafe-ci/portal-data/internal/fields"
)

// Schema holds the remote API models declared in one registry.
type Schema struct {
	Registry   *fields.Registry
	Permission *fields.Model
	File       *fields.Model
	Metadata   *fields.Model
	Job        *fields.Model
	System     *fields.Model
}

var jobStatuses = []any{
	"PENDING", "STAGING_INPUTS", "CLEANING_UP", "ARCHIVING", "STAGING_JOB", "FINISHED",
	"KILLED", "FAILED", "STOPPED", "RUNNING", "PAUSED", "QUEUED", "SUBMITTING",
	"STAGED", "PROCESSING_INPUTS", "ARCHIVING_FINISHED", "ARCHIVING_FAILED", "HEARTBEAT",
}

func oneOf(choices []any) fields.Validator {
	return func(v any) error {
		for _, c := range choices {
			if c == v {
				return nil
			}
		}
		return fmt.Errorf("%v is not one of the allowed values", v)
	}
}

// NewSchema declares the API models. Metadata is declared before Job and Job
// before System on purpose: relationships resolve whenever their target lands.
func NewSchema() (*Schema, error) {
	s := &Schema{Registry: fields.NewRegistry()}

	var err error
	s.Permission, err = fields.NewModel("Permission",
		fields.Attr("read", fields.Base(fields.WithDefault(false))),
		fields.Attr("write", fields.Base(fields.WithDefault(false))),
		fields.Attr("execute", fields.Base(fields.WithDefault(false))),
	)
	if err != nil {
		return nil, err
	}

	s.Metadata, err = s.Registry.Define("Metadata",
		fields.Attr("uuid", fields.UUID(fields.WithNull())),
		fields.Attr("name", fields.Char()),
		fields.Attr("value", fields.NestedObject(nil)),
		fields.Attr("association_ids", fields.List(fields.WithName("associationIds"))),
		fields.Attr("job", fields.RelatedObject("Job", false, fields.WithNull(), fields.WithRelatedName("metadata"))),
	)
	if err != nil {
		return nil, err
	}

	s.Job, err = s.Registry.Define("Job",
		fields.Attr("id", fields.Char(fields.WithNull())),
		fields.Attr("name", fields.Char(fields.WithVerboseName("Job Name"), fields.WithName("name"))),
		fields.Attr("owner", fields.Char()),
		fields.Attr("status", fields.Char(fields.WithChoices(jobStatuses...), fields.WithValidators(oneOf(jobStatuses)))),
		fields.Attr("archive_path", fields.Char(fields.WithName("archivePath"), fields.WithBlank(), fields.WithDefault(""))),
		fields.Attr("system", fields.RelatedObject("System", false, fields.WithName("executionSystem"), fields.WithNull())),
		fields.Attr("created", fields.DateTime(fields.WithNull())),
	)
	if err != nil {
		return nil, err
	}

	s.System, err = s.Registry.Define("System",
		fields.Attr("id", fields.Char()),
		fields.Attr("type", fields.Char(fields.WithDefault("STORAGE"))),
		fields.Attr("public", fields.Base(fields.WithDefault(false))),
	)
	if err != nil {
		return nil, err
	}

	s.File, err = s.Registry.Define("File",
		fields.Attr("name", fields.Char()),
		fields.Attr("path", fields.Char(fields.WithBlank())),
		fields.Attr("system", fields.RelatedObject("System", false, fields.WithRelatedName("files"))),
		fields.Attr("length", fields.Int(fields.WithDefault(int64(0)))),
		fields.Attr("last_modified", fields.DateTime(fields.WithName("lastModified"), fields.WithNull())),
		fields.Attr("mime_type", fields.Char(fields.WithName("mimeType"), fields.WithBlank(), fields.WithDefault(""))),
		fields.Attr("format", fields.Char(fields.WithBlank(), fields.WithDefault(""))),
		fields.Attr("type", fields.Char(fields.WithDefault("file"))),
		fields.Attr("links", fields.NestedObject(nil, fields.WithName("_links"))),
	)
	if err != nil {
		return nil, err
	}

	if pending := s.Registry.Pending(); len(pending) > 0 {
		return nil, fmt.Errorf("unresolved model references: %s", strings.Join(pending, ", "))
	}
	return s, nil
}

var defaultSchema = sync.OnceValues(NewSchema)

// DefaultSchema returns the process schema, declaring it on first use.
func DefaultSchema() (*Schema, error) {
	return defaultSchema()
}
