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

	"github.com/latticeflow/dataflow/cfg"
)

// BlockGraph is an abstraction over a control-flow graph's blocks to work
// with existing graph libraries. It implements the methods to satisfy
// yourbasic/graph's Iterator, so that library's algorithms - strongly
// connected components, shortest paths - can run directly over a
// cfg.ControlFlowGraph.
type BlockGraph struct {
	// order is the number of blocks in the graph.
	order int

	// IDMap maps from block IDs to the block itself.
	IDMap map[int64]cfg.Block

	// Keys are all the block IDs, sorted ascending.
	Keys []int64

	// Edges is an adjacency matrix: Edges[x][y] means there is a directed edge between IDMap[x] and IDMap[y].
	Edges map[int64]map[int64]bool
}

// NewBlockGraph builds a BlockGraph over every block in blocks, with an
// edge from b to each of cfg.Successors(b).
func NewBlockGraph(blocks []cfg.Block) BlockGraph {
	n := len(blocks)
	idmap := make(map[int64]cfg.Block, n)
	edges := make(map[int64]map[int64]bool, n)
	keys := make([]int64, n)

	for i, b := range blocks {
		id := int64(b.ID())
		keys[i] = id
		idmap[id] = b
		edges[id] = map[int64]bool{}
	}
	for _, b := range blocks {
		id := int64(b.ID())
		for _, s := range cfg.Successors(b) {
			edges[id][int64(s.ID())] = true
		}
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return BlockGraph{
		order: n,
		IDMap: idmap,
		Edges: edges,
		Keys:  keys,
	}
}

// Subgraph returns a new graph that is the original graph with only the
// blocks in include. Only edges with both endpoints in include survive.
// The subgraph keeps original's order, so block IDs stay valid vertex
// numbers across subgraphs; its IDMap and Keys hold only the included blocks.
func Subgraph(original BlockGraph, include []int64) BlockGraph {
	idmap := make(map[int64]cfg.Block, len(include))
	edges := make(map[int64]map[int64]bool, len(include))
	keys := make([]int64, len(include))

	for j, i := range include {
		keys[j] = i
		idmap[i] = original.IDMap[i]
	}
	for _, i := range include {
		edges[i] = map[int64]bool{}
		for e := range original.Edges[i] {
			if _, ok := idmap[e]; ok {
				edges[i][e] = true
			}
		}
	}

	return BlockGraph{
		order: original.Order(),
		IDMap: idmap,
		Edges: edges,
		Keys:  keys,
	}
}

// Order implements the order of the graph.Iterator interface for the BlockGraph.
func (g BlockGraph) Order() int {
	return g.order
}

// Visit implements the graph.Iterator interface for the BlockGraph.
func (g BlockGraph) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	if _, ok := g.IDMap[int64(v)]; !ok {
		return false
	}
	for w := range g.Edges[int64(v)] {
		if do(int(w), 1) {
			return true
		}
	}
	return false
}
