// Package logctx decorates slog handlers with request and operation
// attributes carried in a context.
package logctx

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Handler adds "req" and "op" groups to every record whose context carries
// RequestData or OperationData.
type Handler struct {
	slog.Handler
}

// New wraps h.
func New(h slog.Handler) Handler { return Handler{Handler: h} }

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		r.AddAttrs(slog.Group("req",
			slog.String("id", rd.RequestID),
			slog.String("method", rd.Method),
			slog.String("url", rd.URL),
		))
	}
	if od, ok := ctx.Value(operationDataKey{}).(*OperationData); ok {
		r.AddAttrs(slog.Group("op",
			slog.String("name", od.Name),
			slog.String("resource", od.Resource),
		))
	}
	return h.Handler.Handle(ctx, r)
}

func (h Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return Handler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h Handler) WithGroup(name string) slog.Handler {
	return Handler{Handler: h.Handler.WithGroup(name)}
}

type requestDataKey struct{}

// RequestData describes one outgoing transport request.
type RequestData struct {
	RequestID string
	Method    string
	URL       string
}

// WithRequestData attaches rd to ctx, assigning a request id when empty.
func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	if rd.RequestID == "" {
		rd.RequestID = uuid.NewString()
	}
	return context.WithValue(ctx, requestDataKey{}, rd)
}

// RequestFrom returns the RequestData attached to ctx, if any.
func RequestFrom(ctx context.Context) (*RequestData, bool) {
	rd, ok := ctx.Value(requestDataKey{}).(*RequestData)
	return rd, ok
}

type operationDataKey struct{}

// OperationData describes the repository operation in progress.
type OperationData struct {
	Name     string
	Resource string
}

func WithOperation(ctx context.Context, od *OperationData) context.Context {
	return context.WithValue(ctx, operationDataKey{}, od)
}
