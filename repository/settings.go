package repository

import (
	"math"

	"github.com/reoring/restkit"
)

// Settings control how responses are unpacked and how search parameters are
// named on the wire. Zero fields fall back to DefaultSettings.
type Settings struct {
	PageKey    string
	PerPageKey string
	SortKey    string
	SearchKey  string

	// ExtractData returns the collection payload of an object response.
	ExtractData func(body restkit.Object) any
	// ExtractMeta returns extra meta carried by an object response.
	ExtractMeta func(body restkit.Object) restkit.Meta
	// DecodeSearchParams replaces the default page/per_page/sort/response
	// split entirely when set.
	DecodeSearchParams func(params restkit.Object) restkit.Object
}

// DefaultSettings reads data and meta members and names search parameters
// page, per_page, order and search.
func DefaultSettings() Settings {
	return Settings{
		PageKey:     "page",
		PerPageKey:  "per_page",
		SortKey:     "order",
		SearchKey:   "search",
		ExtractData: func(body restkit.Object) any { return body["data"] },
		ExtractMeta: extractMeta,
	}
}

func extractMeta(body restkit.Object) restkit.Meta {
	switch m := body["meta"].(type) {
	case map[string]any:
		return restkit.Meta(m)
	case restkit.Meta:
		return m
	}
	return nil
}

// merge overlays the non-zero fields of o on s.
func (s Settings) merge(o Settings) Settings {
	if o.PageKey != "" {
		s.PageKey = o.PageKey
	}
	if o.PerPageKey != "" {
		s.PerPageKey = o.PerPageKey
	}
	if o.SortKey != "" {
		s.SortKey = o.SortKey
	}
	if o.SearchKey != "" {
		s.SearchKey = o.SearchKey
	}
	if o.ExtractData != nil {
		s.ExtractData = o.ExtractData
	}
	if o.ExtractMeta != nil {
		s.ExtractMeta = o.ExtractMeta
	}
	if o.DecodeSearchParams != nil {
		s.DecodeSearchParams = o.DecodeSearchParams
	}
	return s
}

func (s Settings) decodeSearchParams(params restkit.Object) restkit.Object {
	if s.DecodeSearchParams != nil {
		return s.DecodeSearchParams(params)
	}
	search := restkit.Object{}
	for k, v := range params {
		switch k {
		case "page", "per_page", "sort", "response":
		default:
			search[k] = v
		}
	}
	return restkit.Object{
		s.SearchKey:  search,
		s.PageKey:    params["page"],
		s.PerPageKey: params["per_page"],
		s.SortKey:    params["sort"],
		"response":   params["response"],
	}
}

func isNaN(v any) bool {
	switch f := v.(type) {
	case float64:
		return math.IsNaN(f)
	case float32:
		return math.IsNaN(float64(f))
	}
	return false
}
