// Package config loads record files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/phobia/internal/record"
)

// fileRecord is the on-disk shape of a record: the body kind is selected by
// the "content-type" discriminator and described by "body".
type fileRecord struct {
	Method string `json:"method"`
	Host   string `json:"host"`
	Path   string `json:"path"`
	Start  uint64 `json:"start"`
	End    uint64 `json:"end"`
}

// LoadRecords loads records from a file.
//
// The file format is determined by extension:
//   - .json -> JSON
//   - .yaml, .yml -> YAML (also used for unknown extensions)
//
// The records are checked against the record schema and validated before
// being returned.
func LoadRecords(path string) ([]record.Record, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("records file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read records file: %w", err)
	}

	return ParseRecords(data, path)
}

// ParseRecords parses record data. The format is taken from the extension of
// path, as in LoadRecords.
func ParseRecords(data []byte, path string) ([]record.Record, error) {
	doc, err := normalize(data, path)
	if err != nil {
		return nil, err
	}

	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("records file does not match schema: %w", err)
	}

	var records []record.Record
	var decodeErr error
	gjson.ParseBytes(doc).ForEach(func(key, value gjson.Result) bool {
		rec, err := decodeRecord(value)
		if err != nil {
			decodeErr = fmt.Errorf("records[%d]: %w", key.Int(), err)
			return false
		}
		records = append(records, rec)
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}

	if err := ValidateRecords(records); err != nil {
		return nil, err
	}

	return records, nil
}

// normalize returns the document as JSON.
func normalize(data []byte, path string) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		if !gjson.ValidBytes(data) {
			return nil, fmt.Errorf("failed to parse JSON records: invalid JSON")
		}
		return data, nil
	}

	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML records: %w", err)
	}
	if doc == nil {
		doc = []interface{}{}
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML records: %w", err)
	}
	return out, nil
}

func decodeRecord(value gjson.Result) (record.Record, error) {
	var fr fileRecord
	if err := json.Unmarshal([]byte(value.Raw), &fr); err != nil {
		return record.Record{}, err
	}

	body, err := record.DecodeBody(value.Get("content-type").String(), []byte(value.Get("body").Raw))
	if err != nil {
		return record.Record{}, err
	}

	return record.Record{
		Method: fr.Method,
		Host:   fr.Host,
		Path:   fr.Path,
		Start:  fr.Start,
		End:    fr.End,
		Body:   body,
	}, nil
}
