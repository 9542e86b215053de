// Package strategyfile loads mapping strategies from YAML, JSON or JSONC
// documents.
//
// A document maps encoded-side keys to entries. An entry is either a bare
// string (a rename to that decoded-side path) or an object:
//
//	id: {type: number}
//	isOnline: {map: is_online, type: bool}
//	states: {type: arrayOf, of: string}
//	avatar:
//	  type: shapeOf
//	  shape:
//	    id: {type: number}
//	    url: {type: string}
//	city: {type: decodeEntityKey, key: id, shape: {id: {type: number}}}
//	nickname: nick
package strategyfile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/reoring/restkit"
)

// Format identifies the document syntax.
type Format string

const (
	YAML  Format = "yaml"
	JSON  Format = "json"
	JSONC Format = "jsonc"
)

// FormatFromPath picks a format from a file extension; unknown extensions
// are treated as YAML, which also accepts JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON
	case ".jsonc":
		return JSONC
	}
	return YAML
}

// File is a decoded strategy document.
type File map[string]Entry

// Entry is one rule of a strategy document.
type Entry struct {
	// Map is the decoded-side path; empty means the same key.
	Map string `json:"map,omitempty" yaml:"map,omitempty" jsonschema:"description=Decoded-side dotted path. Defaults to the entry key."`
	// Type selects a conversion; empty means a plain rename.
	Type string `json:"type,omitempty" yaml:"type,omitempty" jsonschema:"description=Conversion applied in both directions,enum=number,enum=string,enum=bool,enum=dateTime,enum=arrayOf,enum=shapeOf,enum=decodeEntityKey,enum=encodeEntityKey"`
	// Of is the element type for arrayOf.
	Of string `json:"of,omitempty" yaml:"of,omitempty" jsonschema:"description=Element type name for arrayOf"`
	// Key is the member used by the entity-key types.
	Key string `json:"key,omitempty" yaml:"key,omitempty" jsonschema:"description=Entity key for decodeEntityKey and encodeEntityKey. Defaults to id."`
	// Shape is the nested strategy for shapeOf, arrayOf and the entity-key
	// types.
	Shape File `json:"shape,omitempty" yaml:"shape,omitempty" jsonschema:"description=Nested strategy"`
}

type entryFields Entry

// UnmarshalJSON accepts a bare string as a rename.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			return fmt.Errorf("strategyfile: empty rename")
		}
		*e = Entry{Map: s}
		return nil
	}
	var f entryFields
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return err
	}
	*e = Entry(f)
	return nil
}

// UnmarshalYAML accepts a bare scalar as a rename.
func (e *Entry) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		if n.Value == "" {
			return fmt.Errorf("strategyfile: line %d: empty rename", n.Line)
		}
		*e = Entry{Map: n.Value}
		return nil
	}
	if n.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if _, ok := entryKeys[k.Value]; !ok {
				return fmt.Errorf("strategyfile: line %d: field %s not found in entry", k.Line, k.Value)
			}
		}
	}
	var f entryFields
	if err := n.Decode(&f); err != nil {
		return err
	}
	*e = Entry(f)
	return nil
}

// Node.Decode does not inherit KnownFields, so entries check their own keys.
var entryKeys = map[string]struct{}{"map": {}, "type": {}, "of": {}, "key": {}, "shape": {}}

// Parse decodes a document. JSON and JSONC input is checked for duplicate
// keys first; YAML rejects them itself.
func Parse(data []byte, format Format) (File, error) {
	var f File
	switch format {
	case JSONC:
		data = jsonc.ToJSON(data)
		fallthrough
	case JSON:
		if iss := DuplicateKeys(data); len(iss) > 0 {
			return nil, iss
		}
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, parseIssue(err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, parseIssue(err)
		}
	}
	return f, nil
}

// Load reads and parses the file at path, choosing the format by extension.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, FormatFromPath(path))
}

func parseIssue(err error) restkit.Issues {
	it := restkit.IssueAt("", restkit.CodeParseError)
	it.Cause = err
	it.Hint = err.Error()
	return restkit.Issues{it}
}
