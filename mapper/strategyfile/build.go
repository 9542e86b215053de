package strategyfile

import (
	"sort"

	"github.com/reoring/restkit"
	"github.com/reoring/restkit/mapper"
)

// Builder compiles documents into strategies. The zero value is not usable;
// call NewBuilder.
type Builder struct {
	types map[string]*mapper.Type
}

// NewBuilder returns a Builder knowing the primitive types number, string,
// bool and dateTime.
func NewBuilder() *Builder {
	b := &Builder{types: map[string]*mapper.Type{}}
	for _, t := range []*mapper.Type{mapper.Number, mapper.String, mapper.Bool, mapper.DateTime} {
		b.types[t.Name()] = t
	}
	return b
}

// Register makes t available under its name. Registered types may shadow
// the primitives but not the combinators.
func (b *Builder) Register(t *mapper.Type) *Builder {
	b.types[t.Name()] = t
	return b
}

// Build compiles f. Every problem in the document is reported, with paths
// that name the nested entry (for example avatar.shape.url).
func (b *Builder) Build(f File) (*mapper.Strategy, error) {
	s, iss := b.build(f, "")
	if len(iss) > 0 {
		return nil, iss
	}
	return s, nil
}

// Build compiles f with the primitive types only.
func Build(f File) (*mapper.Strategy, error) { return NewBuilder().Build(f) }

func (b *Builder) build(f File, prefix string) (*mapper.Strategy, restkit.Issues) {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var iss restkit.Issues
	rules := make(mapper.Rules, len(f))
	for _, k := range keys {
		at := k
		if prefix != "" {
			at = prefix + "." + k
		}
		rule, more := b.rule(f[k], at)
		iss = append(iss, more...)
		if rule != nil {
			rules[k] = rule
		}
	}
	if len(iss) > 0 {
		return nil, iss
	}
	s, err := mapper.NewStrategy(rules)
	if err != nil {
		sub, _ := restkit.AsIssues(err)
		for _, it := range sub {
			if prefix != "" {
				it.Path = prefix + "." + it.Path
			}
			iss = append(iss, it)
		}
		return nil, iss
	}
	return s, nil
}

func (b *Builder) rule(e Entry, at string) (mapper.Rule, restkit.Issues) {
	var t *mapper.Type
	var iss restkit.Issues

	shape := func() *mapper.Strategy {
		if e.Shape == nil {
			return nil
		}
		s, sub := b.build(e.Shape, at+".shape")
		iss = append(iss, sub...)
		return s
	}

	if iss := unusedSettings(e, at); len(iss) > 0 {
		return nil, iss
	}

	switch e.Type {
	case "":
		return mapper.Attr{Path: e.Map}, nil
	case "arrayOf":
		switch {
		case e.Of != "" && e.Shape != nil:
			return nil, restkit.Issues{restkit.IssueAt(at, restkit.CodeInvalidType, "key", "of")}
		case e.Of != "":
			elem, ok := b.types[e.Of]
			if !ok {
				return nil, restkit.Issues{restkit.IssueAt(at+".of", restkit.CodeUnknownType, "key", e.Of)}
			}
			t = mapper.ArrayOf(elem)
		case e.Shape != nil:
			if s := shape(); s != nil {
				t = mapper.ArrayOf(s)
			}
		default:
			t = mapper.ArrayOf(nil)
		}
	case "shapeOf":
		t = mapper.ShapeOf(shape())
	case "decodeEntityKey":
		t = mapper.DecodeEntityKey(e.Key, shape())
	case "encodeEntityKey":
		t = mapper.EncodeEntityKey(e.Key, shape())
	default:
		var ok bool
		if t, ok = b.types[e.Type]; !ok {
			return nil, restkit.Issues{restkit.IssueAt(at+".type", restkit.CodeUnknownType, "key", e.Type)}
		}
	}
	if len(iss) > 0 || t == nil {
		return nil, iss
	}
	return t.AsAttrMap(e.Map), nil
}

// unusedSettings reports of, key and shape when the entry's type ignores
// them.
func unusedSettings(e Entry, at string) restkit.Issues {
	var ofOK, keyOK, shapeOK bool
	switch e.Type {
	case "arrayOf":
		ofOK, shapeOK = true, true
	case "shapeOf":
		shapeOK = true
	case "decodeEntityKey", "encodeEntityKey":
		keyOK, shapeOK = true, true
	}
	var iss restkit.Issues
	if e.Of != "" && !ofOK {
		iss = append(iss, restkit.IssueAt(at+".of", restkit.CodeInvalidType, "key", "of"))
	}
	if e.Key != "" && !keyOK {
		iss = append(iss, restkit.IssueAt(at+".key", restkit.CodeInvalidType, "key", "key"))
	}
	if e.Shape != nil && !shapeOK {
		iss = append(iss, restkit.IssueAt(at+".shape", restkit.CodeInvalidType, "key", "shape"))
	}
	return iss
}
