package resource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/elnormous/contenttype"

	"github.com/reoring/restkit"
	"github.com/reoring/restkit/codec"
	"github.com/reoring/restkit/internal/logctx"
)

// HTTP is a fetch-style transport: it joins paths onto a base URL, encodes
// bodies by content type, decodes responses by their Content-Type and turns
// non-2xx statuses into *ResponseError.
type HTTP struct {
	mu       sync.RWMutex
	cfg      Config
	headers  map[string]string
	handlers errorHandlers

	client      *http.Client
	logger      *slog.Logger
	handleError ErrorHandler
	canSend     func(ctx context.Context) error
	urlSource   func(ctx context.Context) (string, error)
	now         func() time.Time
}

var _ restkit.Resource = (*HTTP)(nil)

// Option configures an HTTP transport.
type Option func(*HTTP)

// WithClient replaces the http.Client. Config.Timeout is ignored then.
func WithClient(c *http.Client) Option {
	return func(h *HTTP) { h.client = c }
}

// WithLogger sets the logger used for request records.
func WithLogger(l *slog.Logger) Option {
	return func(h *HTTP) { h.logger = l }
}

// WithErrorHandler sets the hook called first for every failed response.
func WithErrorHandler(fn ErrorHandler) Option {
	return func(h *HTTP) { h.handleError = fn }
}

// WithCanSendRequest installs a pre-flight check. A non-nil error aborts the
// request and is returned as is.
func WithCanSendRequest(fn func(ctx context.Context) error) Option {
	return func(h *HTTP) { h.canSend = fn }
}

// WithURLSource resolves the base URL per request, for deployments where it
// is discovered at runtime. It takes precedence over Config.BaseURL.
func WithURLSource(fn func(ctx context.Context) (string, error)) Option {
	return func(h *HTTP) { h.urlSource = fn }
}

// WithDefaultHeaders sets headers sent with every request.
func WithDefaultHeaders(headers map[string]string) Option {
	return func(h *HTTP) { h.headers = maps.Clone(headers) }
}

// WithClock replaces time.Now for the timeoffset parameter.
func WithClock(now func() time.Time) Option {
	return func(h *HTTP) { h.now = now }
}

// NewHTTP creates a transport. Zero Config fields fall back to
// DefaultConfig.
func NewHTTP(cfg Config, opts ...Option) (*HTTP, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	h := &HTTP{cfg: cfg.withDefaults(), now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	if h.client == nil {
		h.client = &http.Client{Timeout: h.cfg.Timeout}
	}
	if h.logger == nil {
		h.logger = slog.New(logctx.New(slog.Default().Handler()))
	}
	return h, nil
}

func (h *HTTP) Post(ctx context.Context, path string, body any, opts ...restkit.RequestOption) (*restkit.Response, error) {
	return h.do(ctx, http.MethodPost, path, body, nil, opts)
}

func (h *HTTP) Put(ctx context.Context, path string, body any, opts ...restkit.RequestOption) (*restkit.Response, error) {
	return h.do(ctx, http.MethodPut, path, body, nil, opts)
}

func (h *HTTP) Patch(ctx context.Context, path string, body any, opts ...restkit.RequestOption) (*restkit.Response, error) {
	return h.do(ctx, http.MethodPatch, path, body, nil, opts)
}

// Get sends params as the query string. params must be an object or nil.
func (h *HTTP) Get(ctx context.Context, path string, params any, opts ...restkit.RequestOption) (*restkit.Response, error) {
	q, err := asQuery(params)
	if err != nil {
		return nil, err
	}
	return h.do(ctx, http.MethodGet, path, nil, q, opts)
}

func (h *HTTP) Delete(ctx context.Context, path string, body any, opts ...restkit.RequestOption) (*restkit.Response, error) {
	return h.do(ctx, http.MethodDelete, path, body, nil, opts)
}

// SetHeaders merges headers into the defaults.
func (h *HTTP) SetHeaders(headers map[string]string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.headers == nil {
		h.headers = map[string]string{}
	}
	maps.Copy(h.headers, headers)
}

// ClearHeaders drops every default header.
func (h *HTTP) ClearHeaders() {
	h.mu.Lock()
	h.headers = nil
	h.mu.Unlock()
}

// Headers returns a copy of the default headers.
func (h *HTTP) Headers() map[string]string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return maps.Clone(h.headers)
}

// SetBasePath replaces the base URL.
func (h *HTTP) SetBasePath(baseURL string) {
	h.mu.Lock()
	h.cfg.BaseURL = baseURL
	h.mu.Unlock()
}

// AddErrorHandler registers fn for failed responses and returns a function
// that unregisters it.
func (h *HTTP) AddErrorHandler(fn ErrorHandler) (remove func()) {
	h.mu.Lock()
	id := h.handlers.add(fn)
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		h.handlers.remove(id)
		h.mu.Unlock()
	}
}

// ResolveDestination appends parts to base and collapses duplicate slashes.
func (h *HTTP) ResolveDestination(parts []string, base string) string {
	return collapseSlashes(base + joinParts(parts))
}

func joinParts(parts []string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteByte('/')
		b.WriteString(p)
	}
	return b.String()
}

// JoinURL joins path onto base, optionally appends a trailing slash and
// collapses duplicate slashes that do not follow a scheme separator.
func JoinURL(base, path string, trailingSlash bool) string {
	u := base + "/" + path
	if trailingSlash {
		u += "/"
	}
	return collapseSlashes(u)
}

var duplicateSlashes = regexp.MustCompile(`([^:]/)/+`)

func collapseSlashes(s string) string {
	return duplicateSlashes.ReplaceAllString(s, "$1")
}

func asQuery(params any) (restkit.Object, error) {
	switch p := params.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return p, nil
	case restkit.Meta:
		return restkit.Object(p), nil
	}
	return nil, fmt.Errorf("resource: query parameters must be an object, got %T", params)
}

func (h *HTTP) do(ctx context.Context, method, path string, body any, query restkit.Object, opts []restkit.RequestOption) (*restkit.Response, error) {
	o := restkit.ApplyRequestOptions(opts...)

	h.mu.RLock()
	cfg := h.cfg
	headers := maps.Clone(h.headers)
	h.mu.RUnlock()

	if h.canSend != nil {
		if err := h.canSend(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRequestRejected, err)
		}
	}

	base := cfg.BaseURL
	if h.urlSource != nil {
		var err error
		if base, err = h.urlSource(ctx); err != nil {
			return nil, fmt.Errorf("resource: resolve base URL: %w", err)
		}
	}
	if base == "" {
		return nil, ErrNoBaseURL
	}
	trailing := cfg.TrailingSlash
	if o.TrailingSlash != nil {
		trailing = *o.TrailingSlash
	}
	target := JoinURL(base, path, trailing)

	q := restkit.Object{}
	maps.Copy(q, query)
	maps.Copy(q, o.Query)
	if cfg.TimeOffset {
		_, offset := h.now().Zone()
		q["timeoffset"] = offset / 60
	}
	if qs := EncodeQuery(q, cfg.QueryMode); qs != "" {
		target += "?" + qs
	}

	ct := o.ContentType
	if ct == "" {
		ct = cfg.ContentType
	}
	payload, ct, err := encodeBody(body, ct)
	if err != nil {
		return nil, fmt.Errorf("resource: encode %s body: %w", method, err)
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	for k, v := range o.Headers {
		req.Header.Set(k, v)
	}
	if payload != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", ct)
	}
	if req.Header.Get("Accept") == "" && isMediaType(ct, codec.MediaJSON) {
		req.Header.Set("Accept", codec.MediaJSON)
	}

	ctx = logctx.WithRequestData(ctx, &logctx.RequestData{Method: method, URL: target})
	start := time.Now()
	res, err := h.client.Do(req)
	if err != nil {
		h.logger.DebugContext(ctx, "request failed", slog.Any("err", err))
		return nil, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("resource: read response: %w", err)
	}
	decoded, err := decodeBody(raw, res.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("resource: decode response: %w", err)
	}
	if obj, ok := decoded.(map[string]any); ok {
		obj[restkit.StatusKey] = res.StatusCode
	}
	h.logger.DebugContext(ctx, "request completed",
		slog.Int("status", res.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		rerr := &ResponseError{
			Method: method,
			URL:    target,
			Status: res.StatusCode,
			Header: res.Header,
			Body:   decoded,
		}
		h.notify(ctx, rerr)
		return nil, rerr
	}
	return &restkit.Response{Status: res.StatusCode, Header: res.Header, Body: decoded}, nil
}

func (h *HTTP) notify(ctx context.Context, err *ResponseError) {
	if h.handleError != nil {
		h.handleError(ctx, err)
	}
	h.mu.RLock()
	handlers := h.handlers.snapshot()
	h.mu.RUnlock()
	for _, fn := range handlers {
		fn(ctx, err)
	}
}

func encodeBody(body any, ct string) ([]byte, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, ct, nil
	case *FormData:
		return b.Encode()
	}
	if isMediaType(ct, codec.MediaMultipart) {
		return ToFormData(body).Encode()
	}
	data, err := codec.ForMediaType(ct).Marshal(body)
	return data, ct, err
}

func decodeBody(data []byte, ct string) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if isMediaType(ct, codec.MediaMultipart) {
		return decodeMultipart(data, ct)
	}
	return codec.ForMediaType(ct).Unmarshal(data)
}

func isMediaType(ct, want string) bool {
	if ct == "" {
		return false
	}
	mt := contenttype.NewMediaType(ct)
	return mt.Matches(contenttype.NewMediaType(want))
}
