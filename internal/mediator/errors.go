package mediator

import "fmt"

// ErrorKind classifies boundary-crossing failures. Capability absence is
// deliberately not represented here: optional methods return documented
// neutral defaults instead of errors.
type ErrorKind int

const (
	// KindUnknown covers failures outside the taxonomy.
	KindUnknown ErrorKind = iota
	// KindMalformedCommand marks an envelope missing type-required fields or
	// carrying an unhandled type.
	KindMalformedCommand
	// KindRenderFailure marks a local rendering problem (missing image,
	// unparseable vector file). The operation degrades to a no-op.
	KindRenderFailure
	// KindTransientFetch marks a temporary data-pull failure inside a
	// networked mediator. The mediator retries internally and serves its
	// cached snapshot.
	KindTransientFetch
)

func (k ErrorKind) String() string {
	switch k {
	case KindMalformedCommand:
		return "malformed_command"
	case KindRenderFailure:
		return "render_failure"
	case KindTransientFetch:
		return "transient_fetch"
	default:
		return "unknown"
	}
}

// Error attaches a kind and operation name to an underlying failure.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a classified error.
func E(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the kind from a classified error, KindUnknown otherwise.
func KindOf(err error) ErrorKind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return KindUnknown
}
