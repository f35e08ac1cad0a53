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

package analysis

import "github.com/latticeflow/dataflow/cfg"

// Result is the queryable view of a completed analysis: the per-node
// values and per-block inputs the solver produced, plus enough of a
// back-reference to the analyzer to replay the transfer function for
// queries that fall between the saved per-block snapshots.
//
// A Result omits the source-level "tree" queries (getStoreBefore(Tree),
// getNodesForTree) a syntax-tree-aware client might add on top: the Node
// this package works with is already the opaque unit CFG construction
// produces, and mapping a tree to a set of nodes is that external
// collaborator's job, not the solver's.
type Result[V Value[V], S Store[S]] struct {
	direction      Direction
	nodeValues     map[cfg.Node]V
	stores         map[cfg.Block]*TransferInput[V, S]
	returnStores   map[cfg.Node]TransferResult[V, S] // forward only
	entryStore     S                                 // backward only
	hasEntryStore  bool                               // backward only
	analysisCaches map[*TransferInput[V, S]]map[cfg.Node]TransferResult[V, S]
	analysis       replayer[V, S]
	finalLocals    map[cfg.Node]V
}

// Value returns the abstract value recorded for n, and true if the solver
// ever produced one.
func (r *Result[V, S]) Value(n cfg.Node) (V, bool) {
	v, ok := r.nodeValues[n]
	return v, ok
}

// StoreBefore returns the store immediately before n is evaluated, or false
// if n's block was never reached by the solver.
func (r *Result[V, S]) StoreBefore(n cfg.Node) (S, bool) {
	return r.storeAt(n, true)
}

// StoreAfter returns the store immediately after n is evaluated, or false
// if n's block was never reached by the solver.
func (r *Result[V, S]) StoreAfter(n cfg.Node) (S, bool) {
	return r.storeAt(n, false)
}

func (r *Result[V, S]) storeAt(n cfg.Node, before bool) (S, bool) {
	var zero S
	input, ok := r.stores[n.Block()]
	if !ok {
		return zero, false
	}
	return r.analysis.runAnalysisFor(n, before, input, r.cacheFor(input)), true
}

// StoreBeforeBlock returns the store attached to the start of b in the
// direction the solver ran: for a forward analysis that is the store the
// worklist fed into b; for a backward analysis it is obtained by replaying
// back through b's contents.
func (r *Result[V, S]) StoreBeforeBlock(b cfg.Block) (S, bool) {
	var zero S
	input, ok := r.stores[b]
	if !ok {
		return zero, false
	}
	if r.direction == Forward {
		return input.RegularStore(), true
	}
	if n, ok := firstNode(b); ok {
		return r.StoreBefore(n)
	}
	return input.RegularStore(), true
}

// StoreAfterBlock is the dual of StoreBeforeBlock.
func (r *Result[V, S]) StoreAfterBlock(b cfg.Block) (S, bool) {
	var zero S
	input, ok := r.stores[b]
	if !ok {
		return zero, false
	}
	if r.direction == Backward {
		return input.RegularStore(), true
	}
	if n, ok := lastNode(b); ok {
		return r.StoreAfter(n)
	}
	return input.RegularStore(), true
}

func firstNode(b cfg.Block) (cfg.Node, bool) {
	switch blk := b.(type) {
	case *cfg.RegularBlock:
		if len(blk.Contents) == 0 {
			return nil, false
		}
		return blk.Contents[0], true
	case *cfg.ExceptionBlock:
		return blk.Node, true
	default:
		return nil, false
	}
}

func lastNode(b cfg.Block) (cfg.Node, bool) {
	switch blk := b.(type) {
	case *cfg.RegularBlock:
		if len(blk.Contents) == 0 {
			return nil, false
		}
		return blk.Contents[len(blk.Contents)-1], true
	case *cfg.ExceptionBlock:
		return blk.Node, true
	default:
		return nil, false
	}
}

func (r *Result[V, S]) cacheFor(input *TransferInput[V, S]) map[cfg.Node]TransferResult[V, S] {
	c, ok := r.analysisCaches[input]
	if !ok {
		c = map[cfg.Node]TransferResult[V, S]{}
		r.analysisCaches[input] = c
	}
	return c
}

// ReturnStatementStores returns the transfer results recorded at every
// return node a forward analysis visited. It is empty for a backward
// result.
func (r *Result[V, S]) ReturnStatementStores() map[cfg.Node]TransferResult[V, S] {
	return r.returnStores
}

// EntryStore returns the store snapshotted at the graph's entry block by a
// backward analysis, and true if entry was reachable from an exit. It is
// always false,zero for a forward result.
func (r *Result[V, S]) EntryStore() (S, bool) {
	return r.entryStore, r.hasEntryStore
}

// FinalLocalValues returns the caller-supplied map from a local variable's
// declaration site to its effectively-final abstract value, set via
// SetFinalLocalValues. The solver itself has no notion of variable
// declarations; a client transfer function that tracks them populates
// this map explicitly once analysis completes.
func (r *Result[V, S]) FinalLocalValues() map[cfg.Node]V {
	return r.finalLocals
}

// SetFinalLocalValues installs the map FinalLocalValues will return.
func (r *Result[V, S]) SetFinalLocalValues(m map[cfg.Node]V) {
	r.finalLocals = m
}
