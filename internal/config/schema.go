package config

import (
	"github.com/wesleyorama2/phobia/pkg/jsonschema"
)

// recordsSchema describes a record file once normalized to JSON.
const recordsSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "array",
	"items": {
		"type": "object",
		"properties": {
			"method": { "type": "string", "minLength": 1 },
			"host": { "type": "string", "minLength": 1 },
			"path": { "type": "string" },
			"start": { "type": "integer", "minimum": 0 },
			"end": { "type": "integer", "minimum": 0 },
			"content-type": { "type": "string", "minLength": 1 },
			"body": { "type": "object" }
		},
		"required": ["method", "host", "path", "start", "end", "content-type", "body"]
	}
}`

var schema = jsonschema.MustCompile("records.json", recordsSchema)
