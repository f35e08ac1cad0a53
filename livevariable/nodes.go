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

// Package livevariable is a backward dataflow client built on package
// analysis: it computes, at every program point, the set of local
// variables and fields whose current value may still be read before it is
// next overwritten.
//
// The node shapes here are a minimal hand-built expression tree - there is
// no parser behind it, since turning real source into a cfg.ControlFlowGraph
// is outside this module's job. A caller wires these nodes into
// cfg.RegularBlock.Contents directly, the way the package's tests do.
package livevariable

import "github.com/latticeflow/dataflow/cfg"

// nodeBase supplies the cfg.Node.Block method every concrete node variant
// below embeds.
type nodeBase struct {
	block cfg.Block
}

func (n *nodeBase) Block() cfg.Block { return n.block }

// SetBlock attaches n to the block that owns it. Callers assembling a CFG
// by hand must call this for every node they place in a block's Contents,
// or in an ExceptionBlock's Node field - the engine and the query layer
// both key off Node.Block.
func (n *nodeBase) SetBlock(b cfg.Block) { n.block = b }

// Symbol identifies one declared variable or field across every node that
// reads or writes it. Two nodes reading the "same" variable share a
// pointer to the same Symbol; this is how kill(x) finds every live
// read of x regardless of which read node produced that live-set entry.
type Symbol struct {
	Name string
}

// LocalVariableNode reads a local variable.
type LocalVariableNode struct {
	nodeBase
	Var *Symbol
}

func NewLocalVariableNode(v *Symbol) *LocalVariableNode { return &LocalVariableNode{Var: v} }
func (n *LocalVariableNode) String() string             { return n.Var.Name }

// FieldAccessNode reads a field, e.g. `this.f` or `obj.f`.
type FieldAccessNode struct {
	nodeBase
	Field *Symbol
}

func NewFieldAccessNode(f *Symbol) *FieldAccessNode { return &FieldAccessNode{Field: f} }
func (n *FieldAccessNode) String() string           { return n.Field.Name }

// BinaryOperationNode reads both of its operands, e.g. `a + b`.
type BinaryOperationNode struct {
	nodeBase
	Op          string
	Left, Right cfg.Node
}

func NewBinaryOperationNode(op string, left, right cfg.Node) *BinaryOperationNode {
	return &BinaryOperationNode{Op: op, Left: left, Right: right}
}
func (n *BinaryOperationNode) String() string { return "(" + n.Left.String() + n.Op + n.Right.String() + ")" }

// UnaryOperationNode reads its single operand, e.g. `-a` or `!a`.
type UnaryOperationNode struct {
	nodeBase
	Op      string
	Operand cfg.Node
}

func NewUnaryOperationNode(op string, operand cfg.Node) *UnaryOperationNode {
	return &UnaryOperationNode{Op: op, Operand: operand}
}
func (n *UnaryOperationNode) String() string { return n.Op + n.Operand.String() }

// TernaryExpressionNode reads all three of its operands, e.g. `c ? t : e`.
type TernaryExpressionNode struct {
	nodeBase
	Condition, Then, Else cfg.Node
}

func NewTernaryExpressionNode(cond, then, els cfg.Node) *TernaryExpressionNode {
	return &TernaryExpressionNode{Condition: cond, Then: then, Else: els}
}
func (n *TernaryExpressionNode) String() string {
	return n.Condition.String() + "?" + n.Then.String() + ":" + n.Else.String()
}

// TypeCastNode reads its operand, e.g. `(T) a`.
type TypeCastNode struct {
	nodeBase
	Type    string
	Operand cfg.Node
}

func NewTypeCastNode(typ string, operand cfg.Node) *TypeCastNode {
	return &TypeCastNode{Type: typ, Operand: operand}
}
func (n *TypeCastNode) String() string { return "(" + n.Type + ")" + n.Operand.String() }

// InstanceOfNode reads its operand, e.g. `a instanceof T`.
type InstanceOfNode struct {
	nodeBase
	Type    string
	Operand cfg.Node
}

func NewInstanceOfNode(typ string, operand cfg.Node) *InstanceOfNode {
	return &InstanceOfNode{Type: typ, Operand: operand}
}
func (n *InstanceOfNode) String() string { return n.Operand.String() + " instanceof " + n.Type }

// ArrayAccessNode reads both the array reference and the index expression,
// e.g. `xs[i]`.
type ArrayAccessNode struct {
	nodeBase
	Array, Index cfg.Node
}

func NewArrayAccessNode(array, index cfg.Node) *ArrayAccessNode {
	return &ArrayAccessNode{Array: array, Index: index}
}
func (n *ArrayAccessNode) String() string { return n.Array.String() + "[" + n.Index.String() + "]" }

// AssignmentNode writes LHS (a LocalVariableNode or FieldAccessNode) with
// the value of RHS, which is read.
type AssignmentNode struct {
	nodeBase
	LHS, RHS cfg.Node
}

func NewAssignmentNode(lhs, rhs cfg.Node) *AssignmentNode {
	return &AssignmentNode{LHS: lhs, RHS: rhs}
}
func (n *AssignmentNode) String() string { return n.LHS.String() + " = " + n.RHS.String() }

// ReturnNode reads Result, if present.
type ReturnNode struct {
	nodeBase
	Result cfg.Node // nil for a bare `return;`
}

func NewReturnNode(result cfg.Node) *ReturnNode { return &ReturnNode{Result: result} }
func (n *ReturnNode) String() string {
	if n.Result == nil {
		return "return"
	}
	return "return " + n.Result.String()
}

// symbolRead returns the Symbol n reads, if n is one of the two node
// variants that directly denote a variable.
func symbolRead(n cfg.Node) (*Symbol, bool) {
	switch v := n.(type) {
	case *LocalVariableNode:
		return v.Var, true
	case *FieldAccessNode:
		return v.Field, true
	default:
		return nil, false
	}
}
