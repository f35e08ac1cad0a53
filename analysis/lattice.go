// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package analysis implements the worklist-based fixed-point dataflow
// solver: forward and backward analyzers that thread Store values across a
// cfg.ControlFlowGraph via a client-supplied TransferFunction, and the
// Result query layer that replays the transfer function on demand after the
// solver has converged.
package analysis

import "github.com/latticeflow/dataflow/cfg"

// Value is the per-node abstract value lattice. Implementations are
// expected to be immutable once returned by a transfer function: callers
// never mutate a V in place, only replace it via LeastUpperBound.
//
// The type parameter lets LeastUpperBound take and return the concrete
// value type rather than the Value interface, so clients never need a
// type assertion to get their own value back.
type Value[V any] interface {
	// LeastUpperBound returns the join of the receiver and other. It must
	// be commutative, associative and idempotent.
	LeastUpperBound(other V) V
	// Equal reports structural equality, used to detect a worklist fixed
	// point.
	Equal(other V) bool
}

// Store is the per-program-point abstraction threaded by the solver. Like
// Value, implementations should treat LeastUpperBound and WidenedUpperBound
// as producing a new value rather than mutating the receiver, except where
// the caller has explicitly transferred ownership (see Copy).
type Store[S any] interface {
	// Copy returns a value deep enough that mutating it can never affect
	// the receiver. The solver does not copy the stores it hands to a
	// transfer function - they are its own saved per-block stores - so a
	// transfer function that changes a store must Copy it first.
	Copy() S
	// LeastUpperBound returns the join of the receiver and previous.
	LeastUpperBound(previous S) S
	// WidenedUpperBound returns a value s such that previous and the
	// receiver are both below it, using a coarser operator than
	// LeastUpperBound so that a chain of widenings is guaranteed to
	// stabilize. ok is false for a lattice of finite height that does not
	// implement widening; the solver then falls back to LeastUpperBound.
	// With Options.MaxCountBeforeWidening set to -1 the solver never calls
	// WidenedUpperBound at all.
	WidenedUpperBound(previous S) (widened S, ok bool)
	// Equal reports whether the receiver and other are the same element of
	// the lattice, used to detect when a merge changed nothing.
	Equal(other S) bool
	// CanAlias is a conservative aliasing query a transfer function may
	// consult before applying a strong update. Implementations with no
	// aliasing concerns should always return true.
	CanAlias(a, b cfg.Node) bool
}

// Visualizer renders a Store or Value for presentation; it is a thin seam
// so a store implementation need not import a specific rendering package.
type Visualizer interface {
	Visualize(label string) string
}

// Direction is the two ways a fixed point can be computed: forward from
// entry, or backward from the exits.
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Forward {
		return "forward"
	}
	return "backward"
}
