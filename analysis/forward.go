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

// ForwardAnalysis threads stores from a graph's entry toward its exits,
// following each block's flow rule at conditional edges.
type ForwardAnalysis[V Value[V], S Store[S]] struct {
	base[V, S]
	transfer ForwardTransferFunction[V, S]

	wl      *worklist
	then    map[cfg.Block]S
	els     map[cfg.Block]S
	hasThen map[cfg.Block]bool
	hasEls  map[cfg.Block]bool
	shared  map[cfg.Block]bool

	storesAtReturn map[cfg.Node]TransferResult[V, S]
}

// NewForwardAnalysis constructs a forward analyzer driven by transfer.
func NewForwardAnalysis[V Value[V], S Store[S]](transfer ForwardTransferFunction[V, S], opts Options) *ForwardAnalysis[V, S] {
	return &ForwardAnalysis[V, S]{base: newBase[V, S](opts), transfer: transfer}
}

func (a *ForwardAnalysis[V, S]) direction() Direction { return Forward }

// IsRunning reports whether PerformAnalysis is currently on the call stack
// for this analyzer, including reentrant query-layer replays.
func (a *ForwardAnalysis[V, S]) IsRunning() bool { return a.isRunning }

// Value returns the node's recorded abstract value, if any transfer result
// contributed one.
func (a *ForwardAnalysis[V, S]) Value(n cfg.Node) (V, bool) {
	v, ok := a.nodeValues[n]
	return v, ok
}

// RegularExitStore returns the store propagated into the graph's regular
// exit block, if that block is reachable.
func (a *ForwardAnalysis[V, S]) RegularExitStore() (S, bool) {
	return a.exitStore(a.graph.RegularExit)
}

// ExceptionalExitStore returns the store propagated into the graph's
// exceptional exit block, if that block is reachable.
func (a *ForwardAnalysis[V, S]) ExceptionalExitStore() (S, bool) {
	return a.exitStore(a.graph.ExceptionalExit)
}

func (a *ForwardAnalysis[V, S]) exitStore(exit *cfg.SpecialBlock) (S, bool) {
	var zero S
	if exit == nil || (!a.hasThen[exit] && !a.hasEls[exit]) {
		return zero, false
	}
	switch {
	case a.hasThen[exit] && a.hasEls[exit]:
		return a.then[exit].LeastUpperBound(a.els[exit]), true
	case a.hasThen[exit]:
		return a.then[exit], true
	default:
		return a.els[exit], true
	}
}

// PerformAnalysis runs the worklist to a fixed point over g. It fails fast
// with a *ContractError if called while already running, and returns
// whatever error the transfer function produced otherwise, leaving the
// isRunning flag cleared in either case.
func (a *ForwardAnalysis[V, S]) PerformAnalysis(g *cfg.ControlFlowGraph) error {
	if a.isRunning {
		return contractErrorf("ForwardAnalysis.PerformAnalysis", "called reentrantly")
	}
	a.isRunning = true
	defer func() { a.isRunning = false }()

	a.graph = g
	a.initLoopBlocks(g)
	a.wl = newForwardWorklist(g)
	a.nodeValues = map[cfg.Node]V{}
	a.blockCount = map[cfg.Block]int{}
	a.then = map[cfg.Block]S{}
	a.els = map[cfg.Block]S{}
	a.hasThen = map[cfg.Block]bool{}
	a.hasEls = map[cfg.Block]bool{}
	a.shared = map[cfg.Block]bool{}
	a.storesAtReturn = map[cfg.Node]TransferResult[V, S]{}

	init := a.transfer.InitialStore(g.AST)
	a.mergeBoth(g.Entry, init)
	a.wl.add(g.Entry)

	for {
		blk, ok := a.wl.poll()
		if !ok {
			break
		}
		a.tracef("forward: processing %s", blk)
		if err := a.processBlock(blk); err != nil {
			return err
		}
	}
	return nil
}

func (a *ForwardAnalysis[V, S]) processBlock(blk cfg.Block) error {
	switch b := blk.(type) {
	case *cfg.RegularBlock:
		return a.processRegular(b)
	case *cfg.ConditionalBlock:
		return a.processConditional(b)
	case *cfg.ExceptionBlock:
		return a.processException(b)
	case *cfg.SpecialBlock:
		return a.processSpecial(b)
	default:
		return contractErrorf("ForwardAnalysis.processBlock", "unknown block kind %T", blk)
	}
}

func (a *ForwardAnalysis[V, S]) processRegular(b *cfg.RegularBlock) error {
	input := a.inputFor(b)
	var last TransferResult[V, S]
	for _, n := range b.Contents {
		result, err := a.transfer.Transfer(input, n)
		if err != nil {
			return &TransferError{Node: n.String(), Err: err}
		}
		v, has := result.Value()
		a.updateNodeValue(n, v, has)
		if isReturnNode(a.graph, n) {
			a.storesAtReturn[n] = result
		}
		last = result
		input = result.toInput(a)
	}
	a.propagate(b, b.Successor, b.FlowRule, last.RegularStore())
	return nil
}

func (a *ForwardAnalysis[V, S]) processConditional(b *cfg.ConditionalBlock) error {
	input := a.inputFor(b)
	a.propagate(b, b.ThenSuccessor, b.ThenFlowRule, input.RegularStore())
	a.propagate(b, b.ElseSuccessor, b.ElseFlowRule, input.RegularStore())
	return nil
}

func (a *ForwardAnalysis[V, S]) processException(b *cfg.ExceptionBlock) error {
	input := a.inputFor(b)
	result, err := a.transfer.Transfer(input, b.Node)
	if err != nil {
		return &TransferError{Node: b.Node.String(), Err: err}
	}
	v, has := result.Value()
	a.updateNodeValue(b.Node, v, has)
	if isReturnNode(a.graph, b.Node) {
		a.storesAtReturn[b.Node] = result
	}
	a.propagate(b, b.Successor, b.FlowRule, result.RegularStore())

	for tag, successors := range b.Successors {
		store, ok := result.ExceptionalStore(tag)
		if !ok {
			store = input.RegularStore().Copy()
		}
		for _, s := range successors {
			a.mergeBoth(s, store)
		}
	}
	return nil
}

func (a *ForwardAnalysis[V, S]) processSpecial(b *cfg.SpecialBlock) error {
	if b.Successor == nil {
		return nil
	}
	input := a.inputFor(b)
	a.propagate(b, b.Successor, b.FlowRule, input.RegularStore())
	return nil
}

// propagate sends store to successor according to rule, doing nothing if
// successor is nil (a terminal block).
func (a *ForwardAnalysis[V, S]) propagate(from cfg.Block, successor cfg.Block, rule cfg.FlowRule, store S) {
	if successor == nil {
		return
	}
	// The rule table in the spec collapses to two shapes once the source
	// input is already a single regular store (the common case here,
	// since callers pass RegularStore()): every rule sends that store to
	// "both" sides except THEN_TO_THEN/ELSE_TO_ELSE, which send it to only
	// one side.
	switch rule {
	case cfg.ThenToThen:
		a.mergeThen(successor, store)
	case cfg.ElseToElse:
		a.mergeElse(successor, store)
	default:
		a.mergeBoth(successor, store)
	}
}

// mergeThen merges incoming into b's then-side only. b's else-side is left
// exactly as it was: per the flow-rule table, THEN_TO_THEN updates then(B)
// and leaves else(B) untouched, so a predecessor that has only ever reached
// b via this rule must not fabricate an else-side value - els[b] stays
// genuinely absent (hasEls[b] false) until some other edge supplies it.
func (a *ForwardAnalysis[V, S]) mergeThen(b cfg.Block, incoming S) {
	widen := a.shouldWiden(b)
	merged, changed := mergeOne(incoming, a.then[b], a.hasThen[b], widen)
	a.then[b] = merged
	a.hasThen[b] = true
	a.shared[b] = false
	if changed {
		a.wl.add(b)
	}
}

// mergeElse is mergeThen's mirror image for ELSE_TO_ELSE: it merges into
// b's else-side only and never touches then[b]/hasThen[b].
func (a *ForwardAnalysis[V, S]) mergeElse(b cfg.Block, incoming S) {
	widen := a.shouldWiden(b)
	merged, changed := mergeOne(incoming, a.els[b], a.hasEls[b], widen)
	a.els[b] = merged
	a.hasEls[b] = true
	a.shared[b] = false
	if changed {
		a.wl.add(b)
	}
}

func (a *ForwardAnalysis[V, S]) mergeBoth(b cfg.Block, incoming S) {
	widen := a.shouldWiden(b)
	if (!a.hasThen[b] && !a.hasEls[b]) || a.shared[b] {
		merged, changed := mergeOne(incoming, a.then[b], a.hasThen[b] || a.hasEls[b], widen)
		a.then[b] = merged
		a.els[b] = merged
		a.hasThen[b] = true
		a.hasEls[b] = true
		a.shared[b] = true
		if changed {
			a.wl.add(b)
		}
		return
	}
	// b already carries independently-tracked then/else state (reached via
	// THEN_TO_THEN and/or ELSE_TO_ELSE edges before this EACH_TO_EACH-style
	// one); merge incoming into each side using that side's own presence
	// flag, since one side may still be genuinely unset.
	mergedT, changedT := mergeOne(incoming, a.then[b], a.hasThen[b], widen)
	mergedE, changedE := mergeOne(incoming, a.els[b], a.hasEls[b], widen)
	a.then[b] = mergedT
	a.els[b] = mergedE
	a.hasThen[b] = true
	a.hasEls[b] = true
	if changedT || changedE {
		a.wl.add(b)
	}
}

func (a *ForwardAnalysis[V, S]) inputFor(b cfg.Block) *TransferInput[V, S] {
	if a.shared[b] {
		return newRegularInput[V, S](a.then[b], a)
	}
	return newSplitInput[V, S](a.then[b], a.els[b], a)
}

func isReturnNode(g *cfg.ControlFlowGraph, n cfg.Node) bool {
	for _, r := range g.ReturnNodes {
		if r == n {
			return true
		}
	}
	return false
}

// Result assembles the query-layer view of the analyzer's final state. It
// must be called after PerformAnalysis returns.
func (a *ForwardAnalysis[V, S]) Result() *Result[V, S] {
	stores := map[cfg.Block]*TransferInput[V, S]{}
	for _, b := range a.graph.Blocks {
		if a.hasThen[b] || a.hasEls[b] {
			stores[b] = a.inputFor(b)
		}
	}
	return &Result[V, S]{
		direction:      Forward,
		nodeValues:     copyNodeValues(a.nodeValues),
		stores:         stores,
		returnStores:   copyResultMap(a.storesAtReturn),
		analysisCaches: map[*TransferInput[V, S]]map[cfg.Node]TransferResult[V, S]{},
		analysis:       a,
	}
}

// direction / runAnalysisFor satisfy the replayer interface consumed by
// TransferInput and Result.
func (a *ForwardAnalysis[V, S]) runAnalysisFor(n cfg.Node, before bool, input *TransferInput[V, S], cache map[cfg.Node]TransferResult[V, S]) S {
	if a.isRunning {
		return input.RegularStore()
	}
	a.isRunning = true
	defer func() { a.isRunning = false }()

	blk, ok := n.Block().(*cfg.RegularBlock)
	if !ok {
		// Exception and conditional blocks have exactly one relevant node
		// (or none); "before" is the block's input and "after" the
		// transfer result computed fresh, uncached.
		return replaySingleNodeBlock[V, S](a.transfer, input, n, before)
	}

	cur := input
	for _, m := range blk.Contents {
		if m == n && before {
			return cur.RegularStore()
		}
		result, cached := cache[m]
		if !cached {
			var err error
			result, err = a.transfer.Transfer(cur, m)
			if err != nil {
				return cur.RegularStore()
			}
			cache[m] = result
		}
		if m == n {
			return result.RegularStore()
		}
		cur = result.toInput(a)
	}
	return cur.RegularStore()
}

func replaySingleNodeBlock[V Value[V], S Store[S]](transfer TransferFunction[V, S], input *TransferInput[V, S], n cfg.Node, before bool) S {
	if before {
		return input.RegularStore()
	}
	result, err := transfer.Transfer(input, n)
	if err != nil {
		return input.RegularStore()
	}
	return result.RegularStore()
}

func copyNodeValues[V any](m map[cfg.Node]V) map[cfg.Node]V {
	out := make(map[cfg.Node]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyResultMap[V Value[V], S Store[S]](m map[cfg.Node]TransferResult[V, S]) map[cfg.Node]TransferResult[V, S] {
	out := make(map[cfg.Node]TransferResult[V, S], len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
