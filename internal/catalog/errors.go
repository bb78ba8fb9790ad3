package catalog

import (
	"errors"
	"fmt"
)

// Kind classifies a failure of the browsing core.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNetwork: the request failed before a usable response, or the
	// server answered with a non-2xx status other than 404.
	KindNetwork
	// KindNotFound: a single-item lookup returned no item.
	KindNotFound
	// KindStale: a response arrived for a superseded request. Never surfaced.
	KindStale
	// KindMalformed: the response violated the API contract.
	KindMalformed
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindNotFound:
		return "not_found"
	case KindStale:
		return "stale"
	case KindMalformed:
		return "malformed"
	}
	return "unknown"
}

// Error is the typed error returned by the API client and recorded by the core.
type Error struct {
	Kind Kind
	Op   string // e.g. "list page", "get item"
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a kind and operation name.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the Kind from err, or KindUnknown.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// IsNotFound reports whether err is a NotFound failure.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// Retryable reports whether the same operation may usefully be re-issued.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindNetwork, KindMalformed, KindUnknown:
		return err != nil
	}
	return false
}

var (
	// ErrPageOrder is returned by PageCache.Append for a page that does not
	// directly follow the last applied one.
	ErrPageOrder = errors.New("page out of order")
	// ErrKeyMismatch is returned when a page is applied under a different key
	// than the cache currently holds.
	ErrKeyMismatch = errors.New("filter key mismatch")
)
