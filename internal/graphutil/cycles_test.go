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

package graphutil_test

import (
	"testing"

	"github.com/yourbasic/graph"

	"github.com/latticeflow/dataflow/cfg"
	"github.com/latticeflow/dataflow/internal/graphutil"
)

// loopingBlocks builds a tiny four-block CFG: entry -> b1 -> b2 -> b1 (a
// loop), with b2 also exiting to a regular exit block.
func loopingBlocks() []cfg.Block {
	entry := cfg.NewSpecialBlock(0, cfg.EntrySubtype)
	b1 := cfg.NewRegularBlock(1, nil)
	b2 := cfg.NewConditionalBlock(2)
	exit := cfg.NewSpecialBlock(3, cfg.ExitSubtype)

	entry.Successor = b1
	b1.Successor = b2
	b2.ThenSuccessor = b1
	b2.ElseSuccessor = exit

	return []cfg.Block{entry, b1, b2, exit}
}

func TestFindAllElementaryCycles(t *testing.T) {
	blocks := loopingBlocks()
	bg := graphutil.NewBlockGraph(blocks)

	components := graph.StrongComponents(bg)
	hasLoop := false
	for _, c := range components {
		if len(c) >= 2 {
			hasLoop = true
		}
	}
	if !hasLoop {
		t.Fatalf("expected the block graph to have a strongly connected component of two or more blocks, got %v", components)
	}

	cycles := graphutil.FindAllElementaryCycles(bg)
	if len(cycles) != 1 {
		t.Fatalf("expected exactly one elementary cycle, found %d: %v", len(cycles), cycles)
	}
	cycle := cycles[0]
	// The cycle is b1 <-> b2, reported starting from whichever block Johnson's
	// algorithm visits first within the strongly connected component.
	seen := map[int64]bool{}
	for _, id := range cycle[:len(cycle)-1] {
		seen[id] = true
	}
	if !seen[1] || !seen[2] {
		t.Fatalf("expected the cycle to visit blocks 1 and 2, got %v", cycle)
	}
}

func TestFindAllElementaryCyclesAcyclic(t *testing.T) {
	entry := cfg.NewSpecialBlock(0, cfg.EntrySubtype)
	b1 := cfg.NewRegularBlock(1, nil)
	exit := cfg.NewSpecialBlock(2, cfg.ExitSubtype)
	entry.Successor = b1
	b1.Successor = exit

	bg := graphutil.NewBlockGraph([]cfg.Block{entry, b1, exit})
	cycles := graphutil.FindAllElementaryCycles(bg)
	if len(cycles) != 0 {
		t.Fatalf("expected no cycles in an acyclic graph, found %v", cycles)
	}
}
