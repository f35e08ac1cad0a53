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
	"github.com/latticeflow/dataflow/analysis"
	"github.com/latticeflow/dataflow/cfg"
)

// Transfer implements analysis.BackwardTransferFunction for live-variable
// analysis. An assignment kills its left-hand variable and then generates
// whatever its right-hand side reads; every other node only generates.
type Transfer struct{}

var _ analysis.BackwardTransferFunction[LiveVar, Store] = Transfer{}

// InitialNormalExitStore seeds the regular exit with no live variables:
// nothing is read after the method returns.
func (Transfer) InitialNormalExitStore(cfg.UnderlyingAST) Store { return NewStore() }

// InitialExceptionalExitStore seeds the exceptional exit the same way as
// the regular one.
func (Transfer) InitialExceptionalExitStore(cfg.UnderlyingAST) Store { return NewStore() }

// Transfer computes the store immediately before n from the store after
// it (input), by killing n's assignment target, if any, and then
// generating every variable n's expressions read.
func (Transfer) Transfer(input *analysis.TransferInput[LiveVar, Store], n cfg.Node) (analysis.TransferResult[LiveVar, Store], error) {
	store := input.RegularStore().Copy()
	if asn, ok := n.(*AssignmentNode); ok {
		store.kill(asn.LHS)
		gen(store, asn.RHS)
	} else {
		gen(store, n)
	}
	return analysis.RegularTransferResult[LiveVar, Store](LiveVar{}, false, store, nil, false), nil
}

// gen adds every variable and field read transitively by n to store. It
// recurses through the operand positions of the expression shapes this
// package models; a node shape it doesn't recognize (e.g. a literal) has
// nothing to add.
func gen(store Store, n cfg.Node) {
	switch v := n.(type) {
	case nil:
		return
	case *LocalVariableNode:
		store.add(v)
	case *FieldAccessNode:
		store.add(v)
	case *BinaryOperationNode:
		gen(store, v.Left)
		gen(store, v.Right)
	case *UnaryOperationNode:
		gen(store, v.Operand)
	case *TernaryExpressionNode:
		gen(store, v.Condition)
		gen(store, v.Then)
		gen(store, v.Else)
	case *TypeCastNode:
		gen(store, v.Operand)
	case *InstanceOfNode:
		gen(store, v.Operand)
	case *ArrayAccessNode:
		gen(store, v.Array)
		gen(store, v.Index)
	case *ReturnNode:
		gen(store, v.Result)
	case *AssignmentNode:
		// An assignment read as a sub-expression (e.g. `y = (x = 1)`) uses
		// only its result; this client does not model that shape appearing
		// anywhere but as a standalone statement, so conservatively treat it
		// as reading its right-hand side without killing its target.
		gen(store, v.RHS)
	}
}
