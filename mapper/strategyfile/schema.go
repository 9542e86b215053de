package strategyfile

import (
	json "github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
)

// JSONSchemaExtend lets an entry also be written as a bare rename string.
func (Entry) JSONSchemaExtend(s *jsonschema.Schema) {
	obj := *s
	obj.Definitions = nil
	*s = jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "string", MinLength: ptr(uint64(1)), Description: "Rename to this decoded-side dotted path."},
			&obj,
		},
	}
}

func ptr[T any](v T) *T { return &v }

// Schema describes the strategy document format. Entries are shared through
// $defs so nested shapes can refer back to them.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{Anonymous: true}
	s := r.Reflect(File{})
	s.Title = "restkit mapping strategy"
	return s
}

// SchemaJSON renders Schema as indented JSON.
func SchemaJSON() ([]byte, error) {
	return json.MarshalIndent(Schema(), "", "  ")
}
