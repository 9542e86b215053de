package codec

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"sync"

	"github.com/elnormous/contenttype"
	"github.com/fxamacker/cbor/v2"
	json "github.com/goccy/go-json"
)

// Media types understood by the built-in body codecs.
const (
	MediaJSON        = "application/json"
	MediaCBOR        = "application/cbor"
	MediaForm        = "application/x-www-form-urlencoded"
	MediaMultipart   = "multipart/form-data"
	MediaOctetStream = "application/octet-stream"
	MediaText        = "text/plain"
)

// Body converts request and response payloads for one media type.
// Unmarshal produces the dynamic shapes the mapper consumes: map[string]any,
// []any, string, float64/int64/uint64, bool, nil.
type Body interface {
	MediaType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte) (any, error)
}

// JSON is the JSON body codec backed by goccy/go-json.
var JSON Body = jsonBody{}

// CBOR is the CBOR body codec backed by fxamacker/cbor. Maps decode as
// map[string]any so results flow through the mapper unchanged.
var CBOR Body = newCBORBody()

// Text passes bodies through as strings.
var Text Body = textBody{}

// Binary passes bodies through as byte slices.
var Binary Body = binaryBody{}

// Form encodes flat objects as application/x-www-form-urlencoded.
var Form Body = formBody{}

type jsonBody struct{}

func (jsonBody) MediaType() string             { return MediaJSON }
func (jsonBody) Marshal(v any) ([]byte, error) { return json.Marshal(v) }
func (jsonBody) Unmarshal(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

type cborBody struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func newCBORBody() cborBody {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}
	dec, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
	return cborBody{enc: enc, dec: dec}
}

func (cborBody) MediaType() string               { return MediaCBOR }
func (c cborBody) Marshal(v any) ([]byte, error) { return c.enc.Marshal(v) }
func (c cborBody) Unmarshal(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var v any
	if err := c.dec.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

type textBody struct{}

func (textBody) MediaType() string { return MediaText }
func (textBody) Marshal(v any) ([]byte, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(t), nil
	case []byte:
		return t, nil
	}
	return []byte(fmt.Sprint(v)), nil
}
func (textBody) Unmarshal(data []byte) (any, error) { return string(data), nil }

type binaryBody struct{}

func (binaryBody) MediaType() string { return MediaOctetStream }
func (binaryBody) Marshal(v any) ([]byte, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return t, nil
	case string:
		return []byte(t), nil
	}
	return nil, fmt.Errorf("codec: cannot encode %T as %s", v, MediaOctetStream)
}
func (binaryBody) Unmarshal(data []byte) (any, error) { return data, nil }

type formBody struct{}

func (formBody) MediaType() string { return MediaForm }
func (formBody) Marshal(v any) ([]byte, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("codec: cannot encode %T as %s", v, MediaForm)
	}
	vals := url.Values{}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if m[k] == nil {
			continue
		}
		vals.Set(k, fmt.Sprint(m[k]))
	}
	return []byte(vals.Encode()), nil
}
func (formBody) Unmarshal(data []byte) (any, error) {
	vals, err := url.ParseQuery(string(data))
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(vals))
	for k, vs := range vals {
		if len(vs) > 0 {
			out[k] = vs[len(vs)-1]
		}
	}
	return out, nil
}

var (
	registryMu sync.RWMutex
	registry   = []Body{JSON, CBOR, Form, Binary, Text}
)

// Register adds b to the registry; it takes precedence over built-ins with
// the same media type.
func Register(b Body) {
	if b == nil {
		return
	}
	registryMu.Lock()
	registry = append([]Body{b}, registry...)
	registryMu.Unlock()
}

// ForMediaType returns the codec matching the media type (parameters such as
// charset are ignored). Unknown types fall back to Text.
func ForMediaType(mediaType string) Body {
	if mediaType == "" {
		return Text
	}
	mt := contenttype.NewMediaType(mediaType)
	registryMu.RLock()
	defer registryMu.RUnlock()
	for _, b := range registry {
		candidate := contenttype.NewMediaType(b.MediaType())
		if mt.Matches(candidate) {
			return b
		}
	}
	// Structured syntax suffixes such as application/problem+json.
	if mt.Type == "application" && len(mt.Subtype) > 5 && mt.Subtype[len(mt.Subtype)-5:] == "+json" {
		return JSON
	}
	if mt.Type == "application" && len(mt.Subtype) > 5 && mt.Subtype[len(mt.Subtype)-5:] == "+cbor" {
		return CBOR
	}
	return Text
}
