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
	"github.com/latticeflow/dataflow/cfg"
	"github.com/latticeflow/dataflow/internal/funcutil"
)

// LiveVar names one live entry in a Store: the node whose read put the
// variable it names into the set. Two reads of the same Symbol are
// distinct LiveVar entries even though they denote the same variable -
// Store.kill is what collapses them back to one question ("is x still
// live"), by comparing Symbol, not LiveVar.
type LiveVar struct {
	Node cfg.Node
}

// LeastUpperBound never actually runs: LiveVar exists to satisfy
// analysis.Value so this package can instantiate the generic engine, but
// live-variable analysis has no use for a per-node value lattice beyond
// tagging which node introduced a set entry. If the engine ever calls
// this, something upstream merged two LiveVar values directly instead of
// going through Store's set union, which is a bug in this package, not in
// the caller.
func (v LiveVar) LeastUpperBound(LiveVar) LiveVar {
	panic("livevariable: LeastUpperBound called on a LiveVar; only Store values should ever be joined")
}

// Equal compares by reading-node identity.
func (v LiveVar) Equal(other LiveVar) bool { return v.Node == other.Node }

// Store is the set of variables that may still be read before they are
// next written, at some program point.
type Store struct {
	live map[LiveVar]struct{}
}

// NewStore returns the empty store.
func NewStore() Store {
	return Store{live: map[LiveVar]struct{}{}}
}

// keepEither is funcutil.Merge's combiner for a set represented as
// map[T]struct{}: struct{} has one value, so either side does.
func keepEither(x, y struct{}) struct{} { return x }

// Copy returns a store whose mutation never affects s.
func (s Store) Copy() Store {
	out := make(map[LiveVar]struct{}, len(s.live))
	funcutil.Merge(out, s.live, keepEither)
	return Store{live: out}
}

// LeastUpperBound is set union: a variable is live on a merged path if it
// was live on either incoming path.
func (s Store) LeastUpperBound(other Store) Store {
	out := s.Copy()
	funcutil.Merge(out.live, other.live, keepEither)
	return out
}

// WidenedUpperBound always reports ok=false: the live-variable lattice is
// finite (bounded by the program's variable count), so the worklist
// always reaches a fixed point without widening.
func (s Store) WidenedUpperBound(Store) (Store, bool) {
	return Store{}, false
}

// Equal reports whether s and other contain the same set of live reads.
func (s Store) Equal(other Store) bool {
	if len(s.live) != len(other.live) {
		return false
	}
	for k := range s.live {
		if _, ok := other.live[k]; !ok {
			return false
		}
	}
	return true
}

// CanAlias is always true: this client does no pointer analysis, so any
// two field accesses are conservatively assumed to be able to alias.
func (s Store) CanAlias(cfg.Node, cfg.Node) bool { return true }

// Live reports whether sym has a live read anywhere in s.
func (s Store) Live(sym *Symbol) bool {
	for lv := range s.live {
		if sv, ok := symbolRead(lv.Node); ok && sv == sym {
			return true
		}
	}
	return false
}

// LiveVars returns the reading nodes currently recorded as live, in no
// particular order.
func (s Store) LiveVars() []cfg.Node {
	out := make([]cfg.Node, 0, len(s.live))
	for lv := range s.live {
		out = append(out, lv.Node)
	}
	return out
}

// add records n itself as a live read. n must be a LocalVariableNode or
// FieldAccessNode; add is a no-op otherwise.
func (s Store) add(n cfg.Node) {
	if _, ok := symbolRead(n); !ok {
		return
	}
	s.live[LiveVar{Node: n}] = struct{}{}
}

// kill removes every live entry that reads the same Symbol as n (a
// LocalVariableNode or FieldAccessNode being assigned). It is a no-op for
// any other node shape, e.g. an array element or a field of an unknown
// receiver, which this client does not attempt to kill precisely.
func (s Store) kill(n cfg.Node) {
	sym, ok := symbolRead(n)
	if !ok {
		return
	}
	for lv := range s.live {
		if sv, ok := symbolRead(lv.Node); ok && sv == sym {
			delete(s.live, lv)
		}
	}
}
