// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package graph

import "github.com/pkg/errors"

// Sentinel errors for the taxonomy of spec.md §7. Call sites wrap
// these with github.com/pkg/errors to attach context; callers
// distinguish taxonomy members with errors.Is.
var (
	// ErrDuplicateName is raised by create_* when the name is already
	// registered for that resource kind.
	ErrDuplicateName = errors.New("graph: duplicate resource name")

	// ErrUnknownName is raised by get_* or consumer registration for a
	// name that was never created.
	ErrUnknownName = errors.New("graph: unknown resource name")

	// ErrInvalidSequence is raised when a command sequence contains a
	// disallowed duplicate idempotent setup command.
	ErrInvalidSequence = errors.New("graph: invalid command sequence")

	// ErrCyclicDependency is raised when the scheduler's topological
	// sort finds a back-edge.
	ErrCyclicDependency = errors.New("graph: cyclic dependency")

	// ErrIndexCapacity is raised when a Subresource Index's node pool
	// is exhausted during dependency or barrier analysis.
	ErrIndexCapacity = errors.New("graph: subresource index capacity exceeded")

	// ErrUnsupportedCommand is raised when the Pass Analyzer
	// encounters a command variant it does not recognize.
	ErrUnsupportedCommand = errors.New("graph: unsupported command")
)
