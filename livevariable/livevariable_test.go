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

package livevariable

import (
	"sort"
	"testing"

	"github.com/latticeflow/dataflow/analysis"
	"github.com/latticeflow/dataflow/cfg"
)

func names(nodes []cfg.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if sym, ok := symbolRead(n); ok {
			out = append(out, sym.Name)
		}
	}
	sort.Strings(out)
	return out
}

func liveAt(t *testing.T, r *analysis.Result[LiveVar, Store], n cfg.Node, before bool) []string {
	t.Helper()
	var store Store
	var ok bool
	if before {
		store, ok = r.StoreBefore(n)
	} else {
		store, ok = r.StoreAfter(n)
	}
	if !ok {
		t.Fatalf("no store recorded for %s", n)
	}
	return names(store.LiveVars())
}

func assertNames(t *testing.T, label string, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: got %v, want %v", label, got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("%s: got %v, want %v", label, got, want)
		}
	}
}

// single-block graph: a linear RegularBlock between Entry and RegularExit.
func linearGraph(contents []cfg.Node) (*cfg.ControlFlowGraph, *cfg.RegularBlock) {
	entry := cfg.NewSpecialBlock(0, cfg.EntrySubtype)
	exit := cfg.NewSpecialBlock(2, cfg.ExitSubtype)
	body := cfg.NewRegularBlock(1, contents)
	for _, n := range contents {
		n.(interface{ SetBlock(cfg.Block) }).SetBlock(body)
	}
	entry.Successor = body
	entry.FlowRule = cfg.EachToEach
	body.Successor = exit
	body.FlowRule = cfg.EachToEach
	g := cfg.New(entry, exit, nil, []cfg.Block{entry, body, exit}, nil, cfg.UnderlyingAST{Kind: cfg.MethodAST})
	return g, body
}

func run(t *testing.T, g *cfg.ControlFlowGraph) *analysis.Result[LiveVar, Store] {
	t.Helper()
	a := analysis.NewBackwardAnalysis[LiveVar, Store](Transfer{}, analysis.Options{MaxCountBeforeWidening: -1})
	if err := a.PerformAnalysis(g); err != nil {
		t.Fatalf("PerformAnalysis: %v", err)
	}
	return a.Result()
}

// Scenario: int m(int x) { return x; }
func TestLiveVariable_ReturnLocal(t *testing.T) {
	x := &Symbol{Name: "x"}
	ret := NewReturnNode(NewLocalVariableNode(x))
	g, _ := linearGraph([]cfg.Node{ret})
	r := run(t, g)

	assertNames(t, "before return x", liveAt(t, r, ret, true), []string{"x"})
	assertNames(t, "after return x", liveAt(t, r, ret, false), []string{})
}

// Scenario: int m(int x) { x = x + 1; return x; }
func TestLiveVariable_KillThenGen(t *testing.T) {
	x := &Symbol{Name: "x"}
	rhsRead := NewLocalVariableNode(x)
	asn := NewAssignmentNode(NewLocalVariableNode(x), NewBinaryOperationNode("+", rhsRead, nil))
	ret := NewReturnNode(NewLocalVariableNode(x))
	g, _ := linearGraph([]cfg.Node{asn, ret})
	r := run(t, g)

	assertNames(t, "before return x", liveAt(t, r, ret, true), []string{"x"})
	assertNames(t, "after x = x + 1", liveAt(t, r, asn, false), []string{"x"})
	// The assignment kills the pre-existing live x, then its right-hand side
	// generates a fresh read of x: the set in front of the assignment still
	// has exactly one entry for x, it's simply a different read node.
	assertNames(t, "before x = x + 1", liveAt(t, r, asn, true), []string{"x"})
}

// Scenario: int m(int a, int b) { return a + b; }
func TestLiveVariable_BinaryOperands(t *testing.T) {
	a := &Symbol{Name: "a"}
	b := &Symbol{Name: "b"}
	ret := NewReturnNode(NewBinaryOperationNode("+", NewLocalVariableNode(a), NewLocalVariableNode(b)))
	g, _ := linearGraph([]cfg.Node{ret})
	r := run(t, g)

	assertNames(t, "before return a + b", liveAt(t, r, ret, true), []string{"a", "b"})
}

// Scenario: int m(int[] xs, int i) { return xs[i]; }
func TestLiveVariable_ArrayAccess(t *testing.T) {
	xs := &Symbol{Name: "xs"}
	i := &Symbol{Name: "i"}
	ret := NewReturnNode(NewArrayAccessNode(NewLocalVariableNode(xs), NewLocalVariableNode(i)))
	g, _ := linearGraph([]cfg.Node{ret})
	r := run(t, g)

	assertNames(t, "before return xs[i]", liveAt(t, r, ret, true), []string{"i", "xs"})
}

// Scenario: a variable written but never read afterward is dead at entry.
func TestLiveVariable_WriteOnlyIsDead(t *testing.T) {
	x := &Symbol{Name: "x"}
	asn := NewAssignmentNode(NewLocalVariableNode(x), nil)
	g, _ := linearGraph([]cfg.Node{asn})
	r := run(t, g)

	assertNames(t, "before x = 0", liveAt(t, r, asn, true), []string{})
	assertNames(t, "after x = 0", liveAt(t, r, asn, false), []string{})
}

// Scenario: field reads participate the same way local reads do.
func TestLiveVariable_FieldAccess(t *testing.T) {
	f := &Symbol{Name: "this.f"}
	ret := NewReturnNode(NewFieldAccessNode(f))
	g, _ := linearGraph([]cfg.Node{ret})
	r := run(t, g)

	assertNames(t, "before return this.f", liveAt(t, r, ret, true), []string{"this.f"})
}

// A conditional merge: both branches read a distinct variable, so the
// store before the branch point is their union.
func TestLiveVariable_ConditionalMerge(t *testing.T) {
	entry := cfg.NewSpecialBlock(0, cfg.EntrySubtype)
	exit := cfg.NewSpecialBlock(4, cfg.ExitSubtype)
	cond := cfg.NewConditionalBlock(1)

	a := &Symbol{Name: "a"}
	b := &Symbol{Name: "b"}
	thenRet := NewReturnNode(NewLocalVariableNode(a))
	elseRet := NewReturnNode(NewLocalVariableNode(b))
	thenBlock := cfg.NewRegularBlock(2, []cfg.Node{thenRet})
	elseBlock := cfg.NewRegularBlock(3, []cfg.Node{elseRet})
	thenRet.SetBlock(thenBlock)
	elseRet.SetBlock(elseBlock)

	entry.Successor = cond
	entry.FlowRule = cfg.EachToEach
	cond.ThenSuccessor = thenBlock
	cond.ThenFlowRule = cfg.EachToEach
	cond.ElseSuccessor = elseBlock
	cond.ElseFlowRule = cfg.EachToEach
	thenBlock.Successor = exit
	thenBlock.FlowRule = cfg.EachToEach
	elseBlock.Successor = exit
	elseBlock.FlowRule = cfg.EachToEach

	g := cfg.New(entry, exit, nil, []cfg.Block{entry, cond, thenBlock, elseBlock, exit}, nil, cfg.UnderlyingAST{Kind: cfg.MethodAST})
	r := run(t, g)

	store, ok := r.StoreBeforeBlock(cond)
	if !ok {
		t.Fatalf("no store recorded before conditional block")
	}
	assertNames(t, "before conditional", names(store.LiveVars()), []string{"a", "b"})
}
