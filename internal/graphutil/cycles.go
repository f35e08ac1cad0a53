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

package graphutil

import (
	"sort"

	"github.com/yourbasic/graph"

	"github.com/latticeflow/dataflow/cfg"
)

// FindAllElementaryCycles finds all elementary cycles in the block graph g,
// reporting each as the sequence of block IDs visited around the loop.
// This uses Donald B. Johnson's algorithm presented in
// "Finding All The Elementary Circuits of a Directed Graph", 1975.
// The search starts only inside strongly connected components of two or
// more blocks, so a block whose only cycle is a self-edge is not reported.
//
// A non-empty result for a control-flow graph's blocks means the graph has
// at least one loop, which a dataflow solver needs to know before it can
// decide whether widening will ever actually trigger.
func FindAllElementaryCycles(g BlockGraph) [][]int64 {
	s := &cycleState{
		blocked: map[int64]bool{},
		blist:   map[int64]map[int64]bool{},
		stack:   []int64{},
		cycles:  [][]int64{},
	}
	nodeid := 0
	for nodeid < len(g.Keys) {
		fg := Subgraph(g, g.Keys[nodeid:])
		components := graph.StrongComponents(fg)
		foundC2 := false
		for _, component := range components {
			if len(component) >= 2 {
				foundC2 = true
				sort.Slice(component, func(i, j int) bool { return component[i] < component[j] })
				node := component[0]
				nodeid = node
				s.stack = []int64{}
				s.blocked = map[int64]bool{}
				s.blist = map[int64]map[int64]bool{}
				s.circuit(int64(node), int64(node), fg)
				nodeid++
			}
		}
		if !foundC2 {
			return s.cycles
		}
	}
	return s.cycles
}

type cycleState struct {
	blocked map[int64]bool
	blist   map[int64]map[int64]bool
	stack   []int64
	cycles  [][]int64
}

func (s *cycleState) unblock(u int64) {
	s.blocked[u] = false
	for w := range s.blist[u] {
		if s.blocked[w] {
			s.unblock(w)
		}
	}
}

func (s *cycleState) circuit(v int64, i int64, g BlockGraph) bool {
	f := false
	s.stack = append(s.stack, v)
	s.blocked[v] = true
	for w := range g.Edges[v] {
		if w == i {
			stackCopy := make([]int64, len(s.stack))
			copy(stackCopy, s.stack)
			stackCopy = append(stackCopy, w)
			s.cycles = append(s.cycles, stackCopy)
			f = true
		} else if !s.blocked[w] {
			if s.circuit(w, i, g) {
				f = true
			}
		}
	}

	if f {
		s.unblock(v)
	} else {
		for w := range g.Edges[v] {
			m := s.blist[w]
			if m != nil {
				s.blist[w][v] = true
			} else {
				s.blist[w] = map[int64]bool{v: true}
			}
		}
	}
	s.stack = s.stack[:len(s.stack)-1]
	return f
}

// NaturalLoopBlocks reports the set of blocks that participate in a cycle of
// the control-flow graph: every block in an SCC of size greater than one,
// plus any block with a self-edge. It uses StronglyConnectedComponents
// (Tarjan's algorithm) directly over cfg.Block rather than going through
// BlockGraph/yourbasic's Iterator, since Johnson's fuller elementary-cycle
// enumeration above is more than a solver's widening controller needs: it
// only has to know whether a block can ever be revisited along a back edge
// at all.
func NaturalLoopBlocks(blocks []cfg.Block) map[cfg.Block]bool {
	sccs := StronglyConnectedComponents(blocks, cfg.Successors)
	loop := make(map[cfg.Block]bool)
	for _, scc := range sccs {
		if len(scc) > 1 {
			for _, b := range scc {
				loop[b] = true
			}
			continue
		}
		b := scc[0]
		for _, s := range cfg.Successors(b) {
			if s == b {
				loop[b] = true
			}
		}
	}
	return loop
}
