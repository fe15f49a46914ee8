// Package xerrors holds the typed error taxonomy shared by every engine
// component: preamble preconditions, structural validation, simulated-merge
// conflicts, ref-update races, and object-store integrity failures.
package xerrors

import "fmt"

// Kind classifies an Error so the CLI glue can map it to an exit code
// without inspecting message text.
type Kind string

const (
	// Precondition errors: caller state is unsuitable, no side effects occurred.
	ToolTooOld        Kind = "ToolTooOld"
	DetachedHead      Kind = "DetachedHead"
	NoIntegrationRef  Kind = "NoIntegrationBranch"
	DirtyWorkingTree  Kind = "DirtyWorkingTree"

	// Structural errors: the stack failed to parse or validate.
	SplitGroup    Kind = "SplitGroup"
	MissingID     Kind = "MissingId"
	DuplicateID   Kind = "DuplicateId"
	UnknownRef    Kind = "UnknownRef"
	NonContiguous Kind = "NonContiguous"
	GroupOverlap  Kind = "GroupOverlap"
	GroupNotFound Kind = "GroupNotFound"

	// Conflict errors: a simulated merge or fallback rebase could not proceed.
	ReorderConflict Kind = "ReorderConflict"
	RebaseConflict  Kind = "RebaseConflict"
	InProgress      Kind = "InProgress"

	// Concurrency errors: someone else moved the branch tip under us.
	RefRaced Kind = "RefRaced"

	// Integrity errors: the object store doesn't contain what we expect.
	ObjectMissing Kind = "ObjectMissing"
	EmptyChain    Kind = "EmptyChain"
)

// Error wraps a Kind with the operation that raised it and, for conflicts,
// the offending commit and files.
type Error struct {
	Kind Kind
	Op   string
	At   string   // commit hash, for Conflict kinds
	Files []string // offending files, for Conflict kinds
	Err  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.At != "" {
		msg += fmt.Sprintf(" (at %s)", e.At)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a bare Error of the given kind for the named operation.
func New(op string, kind Kind) *Error {
	return &Error{Op: op, Kind: kind}
}

// Wrap attaches op/kind to an underlying primitive error.
func Wrap(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Conflict builds a Conflict-class error carrying the offending commit and files.
func Conflict(op string, kind Kind, at string, files []string, err error) *Error {
	return &Error{Op: op, Kind: kind, At: at, Files: files, Err: err}
}

// Is reports whether err (or anything it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Kind == kind {
				return true
			}
			err = e.Err
			continue
		}
		break
	}
	return false
}

// ExitCode maps an error to the process exit code described in spec §6:
// 0 success, 1 typed error, 2 usage error.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if e, ok := err.(*Error); ok {
		switch e.Kind {
		case UnknownRef:
			return 2
		}
	}
	return 1
}
