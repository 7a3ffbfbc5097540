package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies how a call failed. The three kinds are mutually
// exclusive: a request either never produced a response (network), produced a
// response with a non-2xx status (http), or produced a response whose body
// could not be decoded (parse).
type ErrorKind int

const (
	// KindNetwork means no response was received at all.
	KindNetwork ErrorKind = iota
	// KindHTTP means a response arrived with a non-2xx status.
	KindHTTP
	// KindParse means a response arrived but its body was not valid JSON.
	KindParse
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindHTTP:
		return "http"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// APIError wraps any transport-level failure. Detail carries the server's
// structured error message when the body matched `{"detail": ...}`, otherwise
// it is empty and Error() falls back to the underlying cause.
type APIError struct {
	Kind   ErrorKind
	Status int    // 0 for network failures
	Op     string // e.g. "get resource"
	Detail string
	Body   []byte // raw response body, when one was received
	Err    error  // underlying cause, may be nil for plain HTTP failures
}

func (e *APIError) Error() string {
	switch {
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Detail)
	case e.Kind == KindHTTP:
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	default:
		return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *APIError) Unwrap() error { return e.Err }

// errorDetail extracts a human-readable message from a structured error body,
// `{"detail": string}` or `{"detail": [{loc,msg,type}...]}`. Returns "" when
// the body does not match either shape.
func errorDetail(body []byte) string {
	var wrapper struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil || len(wrapper.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(wrapper.Detail, &s); err == nil {
		return s
	}

	var items []validationErrorItem
	if err := json.Unmarshal(wrapper.Detail, &items); err == nil && len(items) > 0 {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

// httpError builds an APIError for a non-2xx response, pulling the server
// detail out of the body when present.
func httpError(op string, status int, body []byte) *APIError {
	return &APIError{
		Kind:   KindHTTP,
		Status: status,
		Op:     op,
		Detail: errorDetail(body),
		Body:   body,
	}
}

// IsNotFound reports whether err is an HTTP 404 failure.
func IsNotFound(err error) bool { return statusIs(err, http.StatusNotFound) }

// IsConflict reports whether err is an HTTP 409 failure.
func IsConflict(err error) bool { return statusIs(err, http.StatusConflict) }

// IsAuthExpired reports whether err is an HTTP 401 failure, i.e. a request
// that stayed unauthorized after the one automatic refresh attempt.
func IsAuthExpired(err error) bool { return statusIs(err, http.StatusUnauthorized) }

func statusIs(err error, status int) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Kind == KindHTTP && ae.Status == status
}
