package orchestrator

import "fmt"

type Kind int

const (
	KindNotFound Kind = iota
	KindConflict
	KindUnavailable
	KindTimeout
)

func (k Kind) String() string {
	names := []string{
		"NOT_FOUND",
		"CONFLICT",
		"UNAVAILABLE",
		"TIMEOUT"}

	if k < KindNotFound || k > KindTimeout {
		return "UNKNOWN"
	}

	return names[k]
}

// Error is the orchestrator failure taxonomy. NotFound and Conflict are
// user-actionable; Unavailable covers transport and credential-store
// failures; Timeout covers pairing windows. No kind is process-fatal.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

func newErrorf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func hasKind(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}

func IsNotFound(err error) bool    { return hasKind(err, KindNotFound) }
func IsConflict(err error) bool    { return hasKind(err, KindConflict) }
func IsUnavailable(err error) bool { return hasKind(err, KindUnavailable) }
func IsTimeout(err error) bool     { return hasKind(err, KindTimeout) }
