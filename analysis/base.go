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
	"github.com/latticeflow/dataflow/cfg"
	"github.com/latticeflow/dataflow/internal/graphutil"
)

// Logger is the subset of config.LogGroup's API the solver calls into to
// trace its own progress. A nil Logger is valid; every method on it is
// guarded by a nil check before use.
type Logger interface {
	Tracef(format string, v ...any)
	Debugf(format string, v ...any)
}

// Options configures an analyzer at construction. MaxCountBeforeWidening
// of -1 means the lattice is assumed to have finite height and widening is
// never invoked; a non-negative value is the number of times a block may
// be merged into before the next merge switches from least-upper-bound to
// widened-upper-bound.
type Options struct {
	MaxCountBeforeWidening int
	Logger                 Logger
}

// base holds the state common to ForwardAnalysis and BackwardAnalysis: the
// node-value table, the reentrancy flag, and the widening counters. Each
// direction's analyzer embeds it and adds its own per-block store tables,
// since those differ in shape (then/else pairs for forward, a single
// out-store plus an accumulated exception store for backward).
type base[V Value[V], S Store[S]] struct {
	graph      *cfg.ControlFlowGraph
	opts       Options
	nodeValues map[cfg.Node]V
	blockCount map[cfg.Block]int
	loopBlocks map[cfg.Block]bool
	isRunning  bool
}

func newBase[V Value[V], S Store[S]](opts Options) base[V, S] {
	return base[V, S]{
		opts:       opts,
		nodeValues: map[cfg.Node]V{},
		blockCount: map[cfg.Block]int{},
	}
}

func (b *base[V, S]) tracef(format string, v ...any) {
	if b.opts.Logger != nil {
		b.opts.Logger.Tracef(format, v...)
	}
}

func (b *base[V, S]) debugf(format string, v ...any) {
	if b.opts.Logger != nil {
		b.opts.Logger.Debugf(format, v...)
	}
}

// initLoopBlocks precomputes which blocks of g participate in a natural
// loop, so shouldWiden can skip its counter entirely for everything else.
func (b *base[V, S]) initLoopBlocks(g *cfg.ControlFlowGraph) {
	b.loopBlocks = graphutil.NaturalLoopBlocks(g.Blocks)
}

// shouldWiden consults and advances the visit counter for blk, returning
// true exactly when the caller's next merge into blk should use
// WidenedUpperBound instead of LeastUpperBound. A block that provably isn't
// part of any cycle never needs widening: its incoming merges are bounded
// by its in-degree and reach a fixed point on their own regardless of the
// value lattice's height, so it is excluded before the counter is even
// consulted.
func (b *base[V, S]) shouldWiden(blk cfg.Block) bool {
	if b.opts.MaxCountBeforeWidening < 0 {
		return false
	}
	if b.loopBlocks != nil && !b.loopBlocks[blk] {
		return false
	}
	count := b.blockCount[blk]
	if count >= b.opts.MaxCountBeforeWidening {
		b.blockCount[blk] = 0
		return true
	}
	b.blockCount[blk] = count + 1
	return false
}

// updateNodeValue lub-merges v into the recorded value for n, if the
// transfer result carried one.
func (b *base[V, S]) updateNodeValue(n cfg.Node, v V, has bool) {
	if !has {
		return
	}
	if old, ok := b.nodeValues[n]; ok {
		v = old.LeastUpperBound(v)
	}
	b.nodeValues[n] = v
}

// mergeOne implements the single-store half of the spec's merge rule: join
// incoming with previous using either lub or widen, and report whether the
// result differs from previous. When hasPrevious is false, incoming is the
// result outright (there is nothing to widen against yet).
func mergeOne[S Store[S]](incoming S, previous S, hasPrevious bool, widen bool) (merged S, changed bool) {
	if !hasPrevious {
		return incoming, true
	}
	if widen {
		if w, ok := incoming.WidenedUpperBound(previous); ok {
			merged = w
		} else {
			merged = incoming.LeastUpperBound(previous)
		}
	} else {
		merged = incoming.LeastUpperBound(previous)
	}
	return merged, !merged.Equal(previous)
}
