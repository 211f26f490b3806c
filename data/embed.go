package data

import (
	_ "embed"
)

// ObjectsIndex is the settings and mapping of the files index.
//
//go:embed elasticsearch/objects.json
var ObjectsIndex string
