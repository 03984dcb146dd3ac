package graph

import (
	"errors"
	"fmt"
)

// Sentinel errors for the three violation classes. Every error returned by
// this package matches exactly one of them under errors.Is.
var (
	// ErrInvalidVertex covers nil, foreign, or stale vertex handles, vertex
	// elements already in use on insert/replace, and vertex elements not
	// found on lookup-by-element paths.
	ErrInvalidVertex = errors.New("invalid vertex")

	// ErrInvalidEdge covers nil, foreign, or stale edge handles and edge
	// elements already in use on insert/replace.
	ErrInvalidEdge = errors.New("invalid edge")

	// ErrInvalidTraversal is returned by Path.Walk when the given edge does
	// not extend the path from its current tail.
	ErrInvalidTraversal = errors.New("invalid traversal")
)

// Error provides structured information about a rejected operation.
type Error struct {
	Op      string // Operation that failed (e.g., "InsertVertex", "Walk")
	Entity  string // Entity kind ("vertex", "edge", "path")
	Context string // What was wrong (e.g., "element already present")
	Cause   error  // One of the sentinel errors above
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s %s (%s): %v", e.Op, e.Entity, e.Context, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Cause)
}

// Unwrap returns the sentinel cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's sentinel cause.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// vertexError builds an ErrInvalidVertex violation for op.
func vertexError(op, context string) error {
	return &Error{Op: op, Entity: "vertex", Context: context, Cause: ErrInvalidVertex}
}

// edgeError builds an ErrInvalidEdge violation for op.
func edgeError(op, context string) error {
	return &Error{Op: op, Entity: "edge", Context: context, Cause: ErrInvalidEdge}
}

// traversalError builds an ErrInvalidTraversal violation for op.
func traversalError(op, context string) error {
	return &Error{Op: op, Entity: "path", Context: context, Cause: ErrInvalidTraversal}
}

// IsInvalidVertex returns true if the error is a vertex violation.
func IsInvalidVertex(err error) bool {
	return errors.Is(err, ErrInvalidVertex)
}

// IsInvalidEdge returns true if the error is an edge violation.
func IsInvalidEdge(err error) bool {
	return errors.Is(err, ErrInvalidEdge)
}

// IsInvalidTraversal returns true if the error is a traversal violation.
func IsInvalidTraversal(err error) bool {
	return errors.Is(err, ErrInvalidTraversal)
}
