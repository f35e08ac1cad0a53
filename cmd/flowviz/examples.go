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

package main

import (
	"fmt"

	"github.com/latticeflow/dataflow/cfg"
	"github.com/latticeflow/dataflow/livevariable"
)

// example bundles a hand-built control-flow graph with a description used
// in the rendered graph's title.
type example struct {
	name  string
	title string
	graph *cfg.ControlFlowGraph
}

var examples = map[string]func() example{
	"return-local":      returnLocalExample,
	"kill-then-gen":      killThenGenExample,
	"binary-operands":    binaryOperandsExample,
	"array-access":       arrayAccessExample,
	"conditional-merge":  conditionalMergeExample,
}

func returnLocalExample() example {
	x := &livevariable.Symbol{Name: "x"}
	ret := livevariable.NewReturnNode(livevariable.NewLocalVariableNode(x))
	return example{name: "return-local", title: "int m(int x) { return x; }", graph: buildLinear(ret)}
}

func killThenGenExample() example {
	x := &livevariable.Symbol{Name: "x"}
	asn := livevariable.NewAssignmentNode(
		livevariable.NewLocalVariableNode(x),
		livevariable.NewBinaryOperationNode("+", livevariable.NewLocalVariableNode(x), nil),
	)
	ret := livevariable.NewReturnNode(livevariable.NewLocalVariableNode(x))
	return example{name: "kill-then-gen", title: "int m(int x) { x = x + 1; return x; }", graph: buildLinear(asn, ret)}
}

func binaryOperandsExample() example {
	a := &livevariable.Symbol{Name: "a"}
	b := &livevariable.Symbol{Name: "b"}
	ret := livevariable.NewReturnNode(livevariable.NewBinaryOperationNode("+",
		livevariable.NewLocalVariableNode(a), livevariable.NewLocalVariableNode(b)))
	return example{name: "binary-operands", title: "int m(int a, int b) { return a + b; }", graph: buildLinear(ret)}
}

func arrayAccessExample() example {
	xs := &livevariable.Symbol{Name: "xs"}
	i := &livevariable.Symbol{Name: "i"}
	ret := livevariable.NewReturnNode(livevariable.NewArrayAccessNode(
		livevariable.NewLocalVariableNode(xs), livevariable.NewLocalVariableNode(i)))
	return example{name: "array-access", title: "int m(int[] xs, int i) { return xs[i]; }", graph: buildLinear(ret)}
}

func conditionalMergeExample() example {
	entry := cfg.NewSpecialBlock(0, cfg.EntrySubtype)
	exit := cfg.NewSpecialBlock(4, cfg.ExitSubtype)
	cond := cfg.NewConditionalBlock(1)

	a := &livevariable.Symbol{Name: "a"}
	b := &livevariable.Symbol{Name: "b"}
	thenRet := livevariable.NewReturnNode(livevariable.NewLocalVariableNode(a))
	elseRet := livevariable.NewReturnNode(livevariable.NewLocalVariableNode(b))
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
	return example{name: "conditional-merge", title: "int m(boolean c, int a, int b) { if (c) return a; else return b; }", graph: g}
}

// buildLinear assembles a single RegularBlock's worth of statements between
// Entry and RegularExit, wiring each node's block back-reference.
func buildLinear(stmts ...cfg.Node) *cfg.ControlFlowGraph {
	entry := cfg.NewSpecialBlock(0, cfg.EntrySubtype)
	exit := cfg.NewSpecialBlock(2, cfg.ExitSubtype)
	body := cfg.NewRegularBlock(1, stmts)
	for _, n := range stmts {
		setBlock(n, body)
	}
	entry.Successor = body
	entry.FlowRule = cfg.EachToEach
	body.Successor = exit
	body.FlowRule = cfg.EachToEach
	return cfg.New(entry, exit, nil, []cfg.Block{entry, body, exit}, nil, cfg.UnderlyingAST{Kind: cfg.MethodAST})
}

func setBlock(n cfg.Node, b cfg.Block) {
	type blockSetter interface{ SetBlock(cfg.Block) }
	if s, ok := n.(blockSetter); ok {
		s.SetBlock(b)
	} else {
		panic(fmt.Sprintf("flowviz: node %T does not support SetBlock", n))
	}
}
