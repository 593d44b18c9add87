// Package errdefs defines the error values returned by qemubox operations.
//
// Every expected failure is an *Error carrying a Kind, so callers can tell a
// missing machine from a broken config file or a failed qemu-img run without
// matching on message text:
//
//	var e *errdefs.Error
//	if errors.As(err, &e) && e.Kind == errdefs.KindNotFound { ... }
//
// The Is* helpers wrap that pattern.
package errdefs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an Error.
type Kind int

const (
	// KindUnknown is never assigned by this module; KindOf returns it for
	// errors that are not an *Error.
	KindUnknown Kind = iota

	// KindEnvironment means the environment cannot support the operation:
	// no home directory, or an unreadable registry root.
	KindEnvironment

	// KindNotFound means no machine exists by the given name.
	KindNotFound

	// KindConflict means the name is already occupied.
	KindConflict

	// KindConfig means a machine.toml failed to parse or validate.
	KindConfig

	// KindIO means a directory or file could not be created, written or deleted.
	KindIO

	// KindProcess means an external tool failed to spawn or exited abnormally.
	KindProcess

	// KindInvalid means the caller passed an unusable argument, such as a
	// machine name that is not a single path element.
	KindInvalid
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindEnvironment:
		return "environment"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	case KindConfig:
		return "config"
	case KindIO:
		return "io"
	case KindProcess:
		return "process"
	case KindInvalid:
		return "invalid argument"
	default:
		return "unknown"
	}
}

// Error is the structured error returned by qemubox operations.
type Error struct {
	Kind Kind

	// Op is a short description of what was being attempted,
	// e.g. "read registry root" or "create disk image".
	Op string

	// Name is the machine name involved, if any.
	Name string

	// Path is the file or directory involved, if any.
	Path string

	// Field is the config key at fault for KindConfig errors, if known.
	Field string

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder

	switch e.Kind {
	case KindNotFound:
		fmt.Fprintf(&b, "no machine named %q", e.Name)
	case KindConflict:
		fmt.Fprintf(&b, "a machine named %q already exists", e.Name)
		if e.Path != "" {
			fmt.Fprintf(&b, " at %s", e.Path)
		}
	case KindConfig:
		fmt.Fprintf(&b, "invalid config %s", e.Path)
		if e.Field != "" {
			fmt.Fprintf(&b, ": field %q", e.Field)
		}
	default:
		b.WriteString(e.Op)
		if e.Name != "" {
			fmt.Fprintf(&b, " %q", e.Name)
		}
		if e.Path != "" {
			fmt.Fprintf(&b, " (%s)", e.Path)
		}
	}

	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Environment returns a KindEnvironment error.
func Environment(op, path string, err error) *Error {
	return &Error{Kind: KindEnvironment, Op: op, Path: path, Err: err}
}

// NotFound returns a KindNotFound error for the named machine.
func NotFound(name string) *Error {
	return &Error{Kind: KindNotFound, Op: "find machine", Name: name}
}

// Conflict returns a KindConflict error for the named machine.
func Conflict(name, path string, err error) *Error {
	return &Error{Kind: KindConflict, Op: "create machine", Name: name, Path: path, Err: err}
}

// Config returns a KindConfig error for the config file at path.
// field may be empty when the fault is not tied to one key.
func Config(path, field string, err error) *Error {
	return &Error{Kind: KindConfig, Op: "load config", Path: path, Field: field, Err: err}
}

// IO returns a KindIO error.
func IO(op, path string, err error) *Error {
	return &Error{Kind: KindIO, Op: op, Path: path, Err: err}
}

// Process returns a KindProcess error for the external tool at path.
func Process(op, path string, err error) *Error {
	return &Error{Kind: KindProcess, Op: op, Path: path, Err: err}
}

// Invalid returns a KindInvalid error.
func Invalid(op, name string, err error) *Error {
	return &Error{Kind: KindInvalid, Op: op, Name: name, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain,
// or KindUnknown if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsEnvironment reports whether err is a KindEnvironment error.
func IsEnvironment(err error) bool { return KindOf(err) == KindEnvironment }

// IsNotFound reports whether err is a KindNotFound error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsConflict reports whether err is a KindConflict error.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsConfig reports whether err is a KindConfig error.
func IsConfig(err error) bool { return KindOf(err) == KindConfig }

// IsIO reports whether err is a KindIO error.
func IsIO(err error) bool { return KindOf(err) == KindIO }

// IsProcess reports whether err is a KindProcess error.
func IsProcess(err error) bool { return KindOf(err) == KindProcess }

// IsInvalid reports whether err is a KindInvalid error.
func IsInvalid(err error) bool { return KindOf(err) == KindInvalid }
