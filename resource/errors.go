package resource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrRequestRejected wraps the error returned by the CanSendRequest hook.
var ErrRequestRejected = errors.New("resource: request rejected")

// ErrNoBaseURL is returned when a request is made before a base URL is set.
var ErrNoBaseURL = errors.New("resource: base URL is not defined")

// ResponseError is returned for non-2xx responses. Body is the decoded
// payload, shaped like Response.Body.
type ResponseError struct {
	Method string
	URL    string
	Status int
	Header http.Header
	Body   any
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("resource: %s %s: %d %s", e.Method, e.URL, e.Status, http.StatusText(e.Status))
}

// AsResponseError extracts a *ResponseError from err.
func AsResponseError(err error) (*ResponseError, bool) {
	var re *ResponseError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// ErrorHandler observes failed responses. Handlers cannot change the
// outcome; the request still fails with the ResponseError.
type ErrorHandler func(ctx context.Context, err *ResponseError)

type errorHandlers struct {
	next int
	byID map[int]ErrorHandler
	ids  []int
}

func (h *errorHandlers) add(fn ErrorHandler) int {
	if h.byID == nil {
		h.byID = map[int]ErrorHandler{}
	}
	h.next++
	h.byID[h.next] = fn
	h.ids = append(h.ids, h.next)
	return h.next
}

func (h *errorHandlers) remove(id int) {
	if _, ok := h.byID[id]; !ok {
		return
	}
	delete(h.byID, id)
	for i, v := range h.ids {
		if v == id {
			h.ids = append(h.ids[:i:i], h.ids[i+1:]...)
			break
		}
	}
}

func (h *errorHandlers) snapshot() []ErrorHandler {
	out := make([]ErrorHandler, 0, len(h.ids))
	for _, id := range h.ids {
		out = append(out, h.byID[id])
	}
	return out
}
