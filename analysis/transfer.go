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

// replayer is the handle a TransferInput carries back to the analyzer that
// produced it, so the query layer can replay a transfer function without
// the TransferInput owning (or even knowing the concrete type of) the
// analyzer. It is satisfied by *ForwardAnalysis and *BackwardAnalysis.
type replayer[V Value[V], S Store[S]] interface {
	direction() Direction
	runAnalysisFor(n cfg.Node, before bool, input *TransferInput[V, S], cache map[cfg.Node]TransferResult[V, S]) S
}

// TransferInput is what a TransferFunction receives: either a single
// regular store, or a then/else pair produced by a conditional edge.
type TransferInput[V Value[V], S Store[S]] struct {
	regular S
	then    S
	els     S
	split   bool
	handle  replayer[V, S]
}

func newRegularInput[V Value[V], S Store[S]](store S, handle replayer[V, S]) *TransferInput[V, S] {
	return &TransferInput[V, S]{regular: store, handle: handle}
}

func newSplitInput[V Value[V], S Store[S]](then, els S, handle replayer[V, S]) *TransferInput[V, S] {
	return &TransferInput[V, S]{then: then, els: els, split: true, handle: handle}
}

// ContainsTwoStores reports whether the input carries a then/else pair
// rather than a single regular store.
func (ti *TransferInput[V, S]) ContainsTwoStores() bool { return ti.split }

// RegularStore returns the input's single store, or the lub of its
// then/else pair if it was produced by a conditional edge.
func (ti *TransferInput[V, S]) RegularStore() S {
	if ti.split {
		return ti.then.LeastUpperBound(ti.els)
	}
	return ti.regular
}

// ThenStore returns the then-branch store, which equals RegularStore when
// the input is not split.
func (ti *TransferInput[V, S]) ThenStore() S {
	if ti.split {
		return ti.then
	}
	return ti.regular
}

// ElseStore returns the else-branch store, which equals RegularStore when
// the input is not split.
func (ti *TransferInput[V, S]) ElseStore() S {
	if ti.split {
		return ti.els
	}
	return ti.regular
}

// Copy deep-copies the contained store(s), so a transfer function may
// mutate its argument without corrupting the analyzer's saved input.
func (ti *TransferInput[V, S]) Copy() *TransferInput[V, S] {
	if ti.split {
		return &TransferInput[V, S]{then: ti.then.Copy(), els: ti.els.Copy(), split: true, handle: ti.handle}
	}
	return &TransferInput[V, S]{regular: ti.regular.Copy(), handle: ti.handle}
}

// resultKind tags which shape a TransferResult has.
type resultKind int

const (
	regularResult resultKind = iota
	conditionalResult
)

// TransferResult is what a TransferFunction returns for one node: the
// node's abstract value (if it is an expression), the output store(s), and
// optionally a store per exception tag the node may raise.
type TransferResult[V Value[V], S Store[S]] struct {
	value        V
	hasValue     bool
	kind         resultKind
	regular      S
	then         S
	els          S
	exceptional  map[cfg.ExceptionTag]S
	storeChanged bool
}

// RegularTransferResult builds a TransferResult carrying a single store.
// value/hasValue may be the zero V and false if the node is not an
// expression. exceptional may be nil.
func RegularTransferResult[V Value[V], S Store[S]](value V, hasValue bool, store S, exceptional map[cfg.ExceptionTag]S, storeChanged bool) TransferResult[V, S] {
	return TransferResult[V, S]{
		value: value, hasValue: hasValue, kind: regularResult,
		regular: store, exceptional: exceptional, storeChanged: storeChanged,
	}
}

// ConditionalTransferResult builds a TransferResult that splits into a
// then/else pair, for a node that evaluates a condition.
func ConditionalTransferResult[V Value[V], S Store[S]](value V, hasValue bool, thenStore, elseStore S, exceptional map[cfg.ExceptionTag]S, storeChanged bool) TransferResult[V, S] {
	return TransferResult[V, S]{
		value: value, hasValue: hasValue, kind: conditionalResult,
		then: thenStore, els: elseStore, exceptional: exceptional, storeChanged: storeChanged,
	}
}

func (tr TransferResult[V, S]) containsTwoStores() bool { return tr.kind == conditionalResult }

// RegularStore returns the result's single store, or the lub of its
// then/else pair.
func (tr TransferResult[V, S]) RegularStore() S {
	if tr.containsTwoStores() {
		return tr.then.LeastUpperBound(tr.els)
	}
	return tr.regular
}

func (tr TransferResult[V, S]) thenStore() S {
	if tr.containsTwoStores() {
		return tr.then
	}
	return tr.regular
}

func (tr TransferResult[V, S]) elseStore() S {
	if tr.containsTwoStores() {
		return tr.els
	}
	return tr.regular
}

// Value returns the node's abstract value and true, or the zero V and
// false if the node produced none.
func (tr TransferResult[V, S]) Value() (V, bool) { return tr.value, tr.hasValue }

// ExceptionalStore returns the store to use for the given exception tag,
// and true if the result specified one explicitly.
func (tr TransferResult[V, S]) ExceptionalStore(tag cfg.ExceptionTag) (S, bool) {
	s, ok := tr.exceptional[tag]
	return s, ok
}

// toInput converts a TransferResult back into a TransferInput carrying the
// same handle, for use as the seed of the next node's input within a
// block.
func (tr TransferResult[V, S]) toInput(handle replayer[V, S]) *TransferInput[V, S] {
	if tr.containsTwoStores() {
		return newSplitInput(tr.then, tr.els, handle)
	}
	return newRegularInput(tr.regular, handle)
}

// TransferFunction dispatches on the concrete type of n - typically with a
// type switch in the implementation - to compute its value and output
// store(s) from input. It must never retain input or mutate the stores it
// carries: the engine passes its own saved stores without copying and does
// not read TransferResult.storeChanged (see Store.Copy).
type TransferFunction[V Value[V], S Store[S]] interface {
	Transfer(input *TransferInput[V, S], n cfg.Node) (TransferResult[V, S], error)
}

// ForwardTransferFunction additionally seeds the store the forward
// analyzer places at the entry block.
type ForwardTransferFunction[V Value[V], S Store[S]] interface {
	TransferFunction[V, S]
	InitialStore(ast cfg.UnderlyingAST) S
}

// BackwardTransferFunction seeds the stores the backward analyzer places
// at the regular and exceptional exits.
type BackwardTransferFunction[V Value[V], S Store[S]] interface {
	TransferFunction[V, S]
	InitialNormalExitStore(ast cfg.UnderlyingAST) S
	InitialExceptionalExitStore(ast cfg.UnderlyingAST) S
}
