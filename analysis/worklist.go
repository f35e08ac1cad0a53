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

import (
	"container/heap"

	"github.com/latticeflow/dataflow/cfg"
	"github.com/latticeflow/dataflow/internal/graphutil"
)

// worklist is a priority queue of blocks with set semantics: adding a block
// already present is a no-op. Blocks drain in the order given by rank,
// which is reverse-postorder over successor edges from the entry for a
// forward analysis and reverse-postorder over predecessor edges from the
// exits for a backward one - in both cases, the order that lets the solver
// see a block's predecessors' updates (in the direction of the analysis)
// before revisiting it, minimizing the number of times any one block is
// reprocessed.
type worklist struct {
	rank    map[cfg.Block]int
	items   []cfg.Block // heap storage
	present map[cfg.Block]bool
}

// newForwardWorklist ranks every block reachable from entry.
func newForwardWorklist(g *cfg.ControlFlowGraph) *worklist {
	rank := graphutil.ReversePostorder([]cfg.Block{g.Entry}, cfg.Successors)
	return &worklist{rank: rank, present: map[cfg.Block]bool{}}
}

// newBackwardWorklist ranks every block reachable from either exit, walking
// edges in reverse (a "successor" in this walk is a predecessor in the
// graph).
func newBackwardWorklist(g *cfg.ControlFlowGraph) *worklist {
	var roots []cfg.Block
	if g.RegularExit != nil {
		roots = append(roots, g.RegularExit)
	}
	if g.ExceptionalExit != nil {
		roots = append(roots, g.ExceptionalExit)
	}
	rank := graphutil.ReversePostorder(roots, func(b cfg.Block) []cfg.Block { return b.Predecessors() })
	return &worklist{rank: rank, present: map[cfg.Block]bool{}}
}

func (w *worklist) Len() int { return len(w.items) }
func (w *worklist) Less(i, j int) bool {
	return w.rank[w.items[i]] < w.rank[w.items[j]]
}
func (w *worklist) Swap(i, j int) { w.items[i], w.items[j] = w.items[j], w.items[i] }
func (w *worklist) Push(x any)    { w.items = append(w.items, x.(cfg.Block)) }
func (w *worklist) Pop() any {
	old := w.items
	n := len(old)
	item := old[n-1]
	w.items = old[:n-1]
	return item
}

// add enqueues b if it is not already present. A block outside the ranking
// (unreachable from the analysis's roots) is silently ignored: it can never
// be produced by store propagation along real edges, but defensive callers
// may still hand one to add.
func (w *worklist) add(b cfg.Block) {
	if w.present[b] {
		return
	}
	if _, ranked := w.rank[b]; !ranked {
		return
	}
	w.present[b] = true
	heap.Push(w, b)
}

func (w *worklist) poll() (cfg.Block, bool) {
	if len(w.items) == 0 {
		return nil, false
	}
	b := heap.Pop(w).(cfg.Block)
	delete(w.present, b)
	return b, true
}

func (w *worklist) isEmpty() bool { return len(w.items) == 0 }
