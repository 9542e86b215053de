package resource

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"reflect"
	"sort"
	"time"

	"github.com/reoring/restkit"
	"github.com/reoring/restkit/codec"
	"github.com/reoring/restkit/mapper"
)

// File is an upload part of a FormData body.
type File struct {
	Name        string // File name reported to the server.
	ContentType string // Defaults to application/octet-stream.
	Data        []byte
}

type formField struct {
	name  string
	value string
	file  *File
}

// FormData is an ordered multipart/form-data body. Repositories pass it to
// the transport unchanged.
type FormData struct {
	fields []formField
}

// NewFormData returns an empty form.
func NewFormData() *FormData { return &FormData{} }

// Append adds a text field.
func (f *FormData) Append(name, value string) *FormData {
	f.fields = append(f.fields, formField{name: name, value: value})
	return f
}

// AppendFile adds a file part.
func (f *FormData) AppendFile(name string, file File) *FormData {
	f.fields = append(f.fields, formField{name: name, file: &file})
	return f
}

// Len reports the number of parts.
func (f *FormData) Len() int { return len(f.fields) }

// Names lists part names in insertion order, repeating names as appended.
func (f *FormData) Names() []string {
	out := make([]string, len(f.fields))
	for i, fd := range f.fields {
		out[i] = fd.name
	}
	return out
}

// Values returns the text values appended under name.
func (f *FormData) Values(name string) []string {
	var out []string
	for _, fd := range f.fields {
		if fd.name == name && fd.file == nil {
			out = append(out, fd.value)
		}
	}
	return out
}

// Get returns the first text value under name.
func (f *FormData) Get(name string) string {
	if v := f.Values(name); len(v) > 0 {
		return v[0]
	}
	return ""
}

// Encode renders the form as multipart/form-data and returns the body and
// its content type (including the boundary).
func (f *FormData) Encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, fd := range f.fields {
		if fd.file == nil {
			if err := w.WriteField(fd.name, fd.value); err != nil {
				return nil, "", err
			}
			continue
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
			"name":     fd.name,
			"filename": fd.file.Name,
		}))
		ct := fd.file.ContentType
		if ct == "" {
			ct = codec.MediaOctetStream
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(fd.file.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// ToFormData flattens body into form fields. Falsy values are skipped,
// nested objects use ns[key] names and list members ns[]. Times are written
// as ISO strings; File and []byte values become file parts.
func ToFormData(body any) *FormData {
	f := NewFormData()
	appendForm(f, body, "")
	return f
}

func appendForm(f *FormData, body any, namespace string) {
	keys, get, isList := formMembers(body)
	for _, k := range keys {
		v := get(k)
		if !mapper.Truthy(v) {
			continue
		}
		name := k
		if namespace != "" {
			if isList {
				name = namespace + "[]"
			} else {
				name = namespace + "[" + k + "]"
			}
		}
		switch t := v.(type) {
		case time.Time:
			f.Append(name, codec.FormatISO(t))
		case File:
			f.AppendFile(name, t)
		case *File:
			f.AppendFile(name, *t)
		case []byte:
			f.AppendFile(name, File{Name: k, Data: t})
		default:
			if nestedKeys, _, _ := formMembers(v); nestedKeys != nil {
				appendForm(f, v, name)
				continue
			}
			f.Append(name, mapper.ToString(v))
		}
	}
}

// formMembers returns the iteration order and accessor for objects and
// lists; keys is nil for scalars.
func formMembers(v any) (keys []string, get func(string) any, isList bool) {
	switch t := v.(type) {
	case map[string]any:
		keys = make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys, func(k string) any { return t[k] }, false
	case restkit.Meta:
		return formMembers(map[string]any(t))
	case string, []byte:
		return nil, nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, nil, false
	}
	keys = make([]string, rv.Len())
	items := make(map[string]any, rv.Len())
	for i := range keys {
		keys[i] = fmt.Sprint(i)
		items[keys[i]] = rv.Index(i).Interface()
	}
	return keys, func(k string) any { return items[k] }, true
}

// decodeMultipart parses a multipart/form-data body into an object. Repeated
// names keep the last value; file parts decode to []byte.
func decodeMultipart(data []byte, contentType string) (restkit.Object, error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, err
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil, fmt.Errorf("resource: multipart response without boundary")
	}
	out := restkit.Object{}
	r := multipart.NewReader(bytes.NewReader(data), boundary)
	for {
		p, err := r.NextPart()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		b, err := io.ReadAll(p)
		if err != nil {
			return nil, err
		}
		if p.FileName() != "" {
			out[p.FormName()] = b
		} else {
			out[p.FormName()] = string(b)
		}
	}
}
