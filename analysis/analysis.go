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

// Analysis is the common surface of *ForwardAnalysis and *BackwardAnalysis:
// run the solver once, then read back per-node values and exit stores. Most
// callers hold a concrete *ForwardAnalysis[V, S] or *BackwardAnalysis[V, S]
// directly; this interface exists for code that drives either direction
// generically, such as a command-line tool that picks the direction from a
// flag.
type Analysis[V Value[V], S Store[S]] interface {
	// PerformAnalysis runs the worklist to a fixed point over g.
	PerformAnalysis(g *cfg.ControlFlowGraph) error
	// IsRunning reports whether PerformAnalysis is currently executing,
	// including a reentrant call from a transfer function.
	IsRunning() bool
	// Result returns the query-layer view of the analyzer's state. Must be
	// called after PerformAnalysis returns.
	Result() *Result[V, S]
	// Value returns the abstract value recorded for n, if any.
	Value(n cfg.Node) (V, bool)
	// RegularExitStore returns the store at the graph's regular exit, if
	// reachable.
	RegularExitStore() (S, bool)
	// ExceptionalExitStore returns the store at the graph's exceptional
	// exit, if reachable.
	ExceptionalExitStore() (S, bool)
}

var (
	_ Analysis[stubValue, stubStore] = (*ForwardAnalysis[stubValue, stubStore])(nil)
	_ Analysis[stubValue, stubStore] = (*BackwardAnalysis[stubValue, stubStore])(nil)
)

// stubValue and stubStore exist only so the assertions above can be written
// without a real client lattice in this package.
type stubValue struct{}

func (stubValue) LeastUpperBound(stubValue) stubValue { return stubValue{} }
func (stubValue) Equal(stubValue) bool                { return true }

type stubStore struct{}

func (s stubStore) Copy() stubStore                              { return s }
func (s stubStore) LeastUpperBound(stubStore) stubStore          { return s }
func (s stubStore) WidenedUpperBound(stubStore) (stubStore, bool) { return s, false }
func (s stubStore) Equal(stubStore) bool                         { return true }
func (s stubStore) CanAlias(cfg.Node, cfg.Node) bool              { return true }
