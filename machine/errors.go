package machine

import "github.com/pkg/errors"

// Sentinel errors a running program can abort with (§4.6). Wrap these
// with errors.Wrap/Wrapf to attach the offending primitive or global
// name; callers can still match the underlying cause with errors.Is.
var (
	// ErrTypeError is raised when a primitive operation's operand is not
	// of the category it expects (e.g. adding a Char to a Num).
	ErrTypeError = errors.New("type error")

	// ErrNoMatchingAlternative is raised when CaseJump's dispatch table
	// has no entry for the scrutinee's constructor tag.
	ErrNoMatchingAlternative = errors.New("no matching alternative")

	// ErrExplicitAbort is raised by the nullary `abort` primitive.
	ErrExplicitAbort = errors.New("abort")

	// ErrStackUnderflow covers both a genuinely empty stack/dump and an
	// under-applied global reached with no dump frame to fall back into.
	ErrStackUnderflow = errors.New("stack underflow")
)
