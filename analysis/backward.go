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

// BackwardAnalysis threads stores from a graph's exits toward its entry.
// Every edge is treated as EACH_TO_EACH: blocks' FlowRule fields are not
// consulted. A transfer function that produces a split then/else result on
// a backward analysis is a contract violation.
type BackwardAnalysis[V Value[V], S Store[S]] struct {
	base[V, S]
	transfer BackwardTransferFunction[V, S]

	wl              *worklist
	out             map[cfg.Block]S
	hasOut          map[cfg.Block]bool
	exceptionStore  map[*cfg.ExceptionBlock]S
	hasException    map[*cfg.ExceptionBlock]bool
	storeAtEntry    S
	hasStoreAtEntry bool
}

// NewBackwardAnalysis constructs a backward analyzer driven by transfer.
func NewBackwardAnalysis[V Value[V], S Store[S]](transfer BackwardTransferFunction[V, S], opts Options) *BackwardAnalysis[V, S] {
	return &BackwardAnalysis[V, S]{base: newBase[V, S](opts), transfer: transfer}
}

func (a *BackwardAnalysis[V, S]) direction() Direction { return Backward }

// IsRunning reports whether PerformAnalysis is currently on the call stack
// for this analyzer, including reentrant query-layer replays.
func (a *BackwardAnalysis[V, S]) IsRunning() bool { return a.isRunning }

// Value returns the node's recorded abstract value, if any transfer result
// contributed one.
func (a *BackwardAnalysis[V, S]) Value(n cfg.Node) (V, bool) {
	v, ok := a.nodeValues[n]
	return v, ok
}

// RegularExitStore returns the seeded store at the graph's regular exit,
// if that exit exists.
func (a *BackwardAnalysis[V, S]) RegularExitStore() (S, bool) {
	var zero S
	if a.graph.RegularExit == nil || !a.hasOut[a.graph.RegularExit] {
		return zero, false
	}
	return a.out[a.graph.RegularExit], true
}

// ExceptionalExitStore returns the seeded store at the graph's exceptional
// exit, if that exit exists.
func (a *BackwardAnalysis[V, S]) ExceptionalExitStore() (S, bool) {
	var zero S
	if a.graph.ExceptionalExit == nil || !a.hasOut[a.graph.ExceptionalExit] {
		return zero, false
	}
	return a.out[a.graph.ExceptionalExit], true
}

// EntryStore returns the store snapshotted when the solver reached the
// graph's entry block, and true if entry was reachable from an exit.
func (a *BackwardAnalysis[V, S]) EntryStore() (S, bool) {
	return a.storeAtEntry, a.hasStoreAtEntry
}

// PerformAnalysis runs the worklist to a fixed point over g, seeding both
// exits that exist. It is a *ContractError for g to have neither exit.
func (a *BackwardAnalysis[V, S]) PerformAnalysis(g *cfg.ControlFlowGraph) error {
	if a.isRunning {
		return contractErrorf("BackwardAnalysis.PerformAnalysis", "called reentrantly")
	}
	if g.RegularExit == nil && g.ExceptionalExit == nil {
		return contractErrorf("BackwardAnalysis.PerformAnalysis", "graph has neither a regular nor an exceptional exit")
	}
	a.isRunning = true
	defer func() { a.isRunning = false }()

	a.graph = g
	a.initLoopBlocks(g)
	a.wl = newBackwardWorklist(g)
	a.nodeValues = map[cfg.Node]V{}
	a.blockCount = map[cfg.Block]int{}
	a.out = map[cfg.Block]S{}
	a.hasOut = map[cfg.Block]bool{}
	a.exceptionStore = map[*cfg.ExceptionBlock]S{}
	a.hasException = map[*cfg.ExceptionBlock]bool{}
	a.hasStoreAtEntry = false

	if g.RegularExit != nil {
		a.out[g.RegularExit] = a.transfer.InitialNormalExitStore(g.AST)
		a.hasOut[g.RegularExit] = true
		a.wl.add(g.RegularExit)
	}
	if g.ExceptionalExit != nil {
		a.out[g.ExceptionalExit] = a.transfer.InitialExceptionalExitStore(g.AST)
		a.hasOut[g.ExceptionalExit] = true
		a.wl.add(g.ExceptionalExit)
	}

	for {
		blk, ok := a.wl.poll()
		if !ok {
			break
		}
		a.tracef("backward: processing %s", blk)
		if err := a.processBlock(blk); err != nil {
			return err
		}
	}
	return nil
}

func (a *BackwardAnalysis[V, S]) processBlock(blk cfg.Block) error {
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
		return contractErrorf("BackwardAnalysis.processBlock", "unknown block kind %T", blk)
	}
}

func (a *BackwardAnalysis[V, S]) processRegular(b *cfg.RegularBlock) error {
	cur := newRegularInput[V, S](a.out[b], a)
	for i := len(b.Contents) - 1; i >= 0; i-- {
		n := b.Contents[i]
		result, err := a.transfer.Transfer(cur, n)
		if err != nil {
			return &TransferError{Node: n.String(), Err: err}
		}
		if result.containsTwoStores() {
			return contractErrorf("BackwardAnalysis.processRegular", "transfer function for node %s produced a then/else split store in a backward analysis", n)
		}
		v, has := result.Value()
		a.updateNodeValue(n, v, has)
		cur = result.toInput(a)
	}
	a.propagateToPredecessors(b, cur.RegularStore())
	return nil
}

func (a *BackwardAnalysis[V, S]) processConditional(b *cfg.ConditionalBlock) error {
	a.propagateToPredecessors(b, a.out[b])
	return nil
}

func (a *BackwardAnalysis[V, S]) processException(b *cfg.ExceptionBlock) error {
	combined, ok := a.out[b]
	if excStore, hasExc := a.exceptionStore[b]; hasExc {
		if ok {
			combined = excStore.LeastUpperBound(combined)
		} else {
			combined = excStore
			ok = true
		}
	}
	if !ok {
		return contractErrorf("BackwardAnalysis.processException", "exception block %s has no accumulated store", b)
	}
	input := newRegularInput[V, S](combined, a)
	result, err := a.transfer.Transfer(input, b.Node)
	if err != nil {
		return &TransferError{Node: b.Node.String(), Err: err}
	}
	if result.containsTwoStores() {
		return contractErrorf("BackwardAnalysis.processException", "transfer function for node %s produced a then/else split store in a backward analysis", b.Node)
	}
	v, has := result.Value()
	a.updateNodeValue(b.Node, v, has)
	a.propagateToPredecessors(b, result.RegularStore())
	return nil
}

func (a *BackwardAnalysis[V, S]) processSpecial(b *cfg.SpecialBlock) error {
	if b.Subtype == cfg.EntrySubtype {
		a.storeAtEntry = a.out[b]
		a.hasStoreAtEntry = a.hasOut[b]
		return nil
	}
	a.propagateToPredecessors(b, a.out[b])
	return nil
}

func (a *BackwardAnalysis[V, S]) propagateToPredecessors(from cfg.Block, store S) {
	for _, p := range from.Predecessors() {
		a.propagateToPredecessor(from, p, store)
	}
}

// propagateToPredecessor implements the §4.4 rule for a single predecessor
// p of the block "from" that was just processed, with from's resulting
// store s.
func (a *BackwardAnalysis[V, S]) propagateToPredecessor(from cfg.Block, p cfg.Block, s S) {
	widen := a.shouldWiden(p)
	if eb, ok := p.(*cfg.ExceptionBlock); ok {
		if eb.Successor == from {
			merged, changed := mergeOne(s, a.out[eb], a.hasOut[eb], widen)
			a.out[eb] = merged
			a.hasOut[eb] = true
			if changed {
				a.wl.add(eb)
			}
			return
		}
		for _, succs := range eb.Successors {
			for _, sc := range succs {
				if sc == from {
					merged, changed := mergeOne(s, a.exceptionStore[eb], a.hasException[eb], widen)
					a.exceptionStore[eb] = merged
					a.hasException[eb] = true
					if changed {
						a.wl.add(eb)
					}
					return
				}
			}
		}
	}
	merged, changed := mergeOne(s, a.out[p], a.hasOut[p], widen)
	a.out[p] = merged
	a.hasOut[p] = true
	if changed {
		a.wl.add(p)
	}
}

// Result assembles the query-layer view of the analyzer's final state. It
// must be called after PerformAnalysis returns.
func (a *BackwardAnalysis[V, S]) Result() *Result[V, S] {
	stores := map[cfg.Block]*TransferInput[V, S]{}
	for _, b := range a.graph.Blocks {
		if eb, ok := b.(*cfg.ExceptionBlock); ok {
			combined, ok2 := a.out[eb]
			if excStore, hasExc := a.exceptionStore[eb]; hasExc {
				if ok2 {
					combined = excStore.LeastUpperBound(combined)
				} else {
					combined = excStore
					ok2 = true
				}
			}
			if ok2 {
				stores[b] = newRegularInput[V, S](combined, a)
			}
			continue
		}
		if a.hasOut[b] {
			stores[b] = newRegularInput[V, S](a.out[b], a)
		}
	}
	return &Result[V, S]{
		direction:      Backward,
		nodeValues:     copyNodeValues(a.nodeValues),
		stores:         stores,
		entryStore:     a.storeAtEntry,
		hasEntryStore:  a.hasStoreAtEntry,
		analysisCaches: map[*TransferInput[V, S]]map[cfg.Node]TransferResult[V, S]{},
		analysis:       a,
	}
}

// runAnalysisFor replays the backward transfer function across the block
// containing n, starting from the block's saved input (which represents
// the store after the block's last node in source order) and walking
// toward n in reverse.
func (a *BackwardAnalysis[V, S]) runAnalysisFor(n cfg.Node, before bool, input *TransferInput[V, S], cache map[cfg.Node]TransferResult[V, S]) S {
	if a.isRunning {
		return input.RegularStore()
	}
	a.isRunning = true
	defer func() { a.isRunning = false }()

	blk, ok := n.Block().(*cfg.RegularBlock)
	if !ok {
		return replaySingleNodeBlockBackward[V, S](a.transfer, input, n, before)
	}

	cur := input
	for i := len(blk.Contents) - 1; i >= 0; i-- {
		m := blk.Contents[i]
		if m == n && !before {
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
		if m == n && before {
			return result.RegularStore()
		}
		cur = result.toInput(a)
	}
	return cur.RegularStore()
}

func replaySingleNodeBlockBackward[V Value[V], S Store[S]](transfer TransferFunction[V, S], input *TransferInput[V, S], n cfg.Node, before bool) S {
	if !before {
		return input.RegularStore()
	}
	result, err := transfer.Transfer(input, n)
	if err != nil {
		return input.RegularStore()
	}
	return result.RegularStore()
}
