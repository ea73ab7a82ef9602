package content

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes why a check could not run.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNetwork
	KindCache
	KindContentParsing
	KindExternalDependency
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindCache:
		return "cache"
	case KindContentParsing:
		return "content parsing"
	case KindExternalDependency:
		return "external dependency"
	default:
		return "internal"
	}
}

// Error is an engine failure with a category, a message and an optional cause.
// A changed citation is never an Error; see behavior.Result.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// IsKind reports whether any error in err's chain is an *Error of kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

func newError(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// NetworkError reports a failed fetch, clone or HTTP exchange.
func NetworkError(cause error, format string, args ...any) error {
	return newError(KindNetwork, cause, format, args...)
}

// CacheError reports an unreadable, unwritable or corrupt cache entry.
func CacheError(cause error, format string, args ...any) error {
	return newError(KindCache, cause, format, args...)
}

// ParsingError reports input or content that cannot be interpreted.
func ParsingError(cause error, format string, args ...any) error {
	return newError(KindContentParsing, cause, format, args...)
}

// DependencyError reports a failure inside an external collaborator.
func DependencyError(cause error, format string, args ...any) error {
	return newError(KindExternalDependency, cause, format, args...)
}

// InternalError reports a broken invariant.
func InternalError(cause error, format string, args ...any) error {
	return newError(KindInternal, cause, format, args...)
}
