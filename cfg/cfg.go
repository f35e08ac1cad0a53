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

// Package cfg defines the control-flow graph data model that the dataflow
// engine (package analysis) walks. A graph is assembled by a caller that
// already knows the program's control structure - parsing source into this
// shape is outside this package's job - and handed to the engine as a plain
// value.
package cfg

import "fmt"

// BlockID distinguishes blocks for debugging and for use as a stable sort
// key in diagnostics. It carries no meaning to the engine, which keys all
// of its internal maps on block identity (Go pointer equality), not BlockID.
type BlockID int64

// BlockKind tags which of the four block shapes a Block value has.
type BlockKind int

const (
	RegularBlockKind BlockKind = iota
	ConditionalBlockKind
	ExceptionBlockKind
	SpecialBlockKind
)

func (k BlockKind) String() string {
	switch k {
	case RegularBlockKind:
		return "regular"
	case ConditionalBlockKind:
		return "conditional"
	case ExceptionBlockKind:
		return "exception"
	case SpecialBlockKind:
		return "special"
	default:
		return "unknown"
	}
}

// SpecialBlockSubtype distinguishes the three special blocks a graph may
// carry: the single entry, the regular-return exit, and the exceptional
// exit reached by an uncaught exception tag.
type SpecialBlockSubtype int

const (
	EntrySubtype SpecialBlockSubtype = iota
	ExitSubtype
	ExceptionalExitSubtype
)

func (s SpecialBlockSubtype) String() string {
	switch s {
	case EntrySubtype:
		return "entry"
	case ExitSubtype:
		return "exit"
	case ExceptionalExitSubtype:
		return "exceptional-exit"
	default:
		return "unknown"
	}
}

// FlowRule names how a TransferResult's stores are split across an edge
// leaving a block. It is a property of the edge, not of either endpoint's
// value lattice, which is why it lives here rather than in package
// analysis: a cyclic import between the two packages would otherwise be
// unavoidable, since Block needs FlowRule and the solver needs Block.
//
// The rules name which side (then, else or both) of the successor's input
// an edge's store is merged into. analysis.ForwardAnalysis always sends a
// block's single merged (least-upper-bound) outgoing store, so a then/else
// pair produced inside a block is not kept apart across an edge: EachToEach,
// ThenToBoth and ElseToBoth all deliver that merged store to both sides.
// analysis.BackwardAnalysis does not consult flow rules.
type FlowRule int

const (
	// EachToEach delivers the outgoing store to both sides of the
	// successor.
	EachToEach FlowRule = iota
	// ThenToBoth delivers the outgoing store to both sides of the
	// successor.
	ThenToBoth
	// ElseToBoth delivers the outgoing store to both sides of the
	// successor.
	ElseToBoth
	// ThenToThen delivers the outgoing store to the successor's then side
	// only; the successor's else side is left as it was.
	ThenToThen
	// ElseToElse delivers the outgoing store to the successor's else side
	// only; the successor's then side is left as it was.
	ElseToElse
)

func (r FlowRule) String() string {
	switch r {
	case EachToEach:
		return "each-to-each"
	case ThenToBoth:
		return "then-to-both"
	case ElseToBoth:
		return "else-to-both"
	case ThenToThen:
		return "then-to-then"
	case ElseToElse:
		return "else-to-else"
	default:
		return "unknown"
	}
}

// ExceptionTag identifies a class of exceptional control transfer out of an
// ExceptionBlock, e.g. a panic value's type name or a sentinel error. The
// engine treats it as an opaque, comparable label; only a block's caller
// gives it meaning.
type ExceptionTag string

// Node is an opaque unit of work attached to a block. The engine never
// looks inside a Node beyond its identity and the block that owns it;
// transfer functions are the only code that discriminates node variants,
// typically with a type switch on the concrete type a client defines.
//
// Node implementations should be pointer types so that two nodes with
// identical fields remain distinct map keys - mirroring the duplicate,
// structurally-equal-but-distinct nodes that real CFG construction
// produces.
type Node interface {
	fmt.Stringer
	Block() Block
}

// Block is one of RegularBlock, ConditionalBlock, ExceptionBlock or
// SpecialBlock. All four embed blockHeader, which supplies ID and
// Predecessors.
type Block interface {
	fmt.Stringer
	ID() BlockID
	Kind() BlockKind
	Predecessors() []Block
}

type blockHeader struct {
	id           BlockID
	predecessors []Block
}

func (b *blockHeader) ID() BlockID           { return b.id }
func (b *blockHeader) Predecessors() []Block { return b.predecessors }

// RegularBlock holds an ordered list of nodes and flows unconditionally to
// a single successor (or to none, if it is the graph's last block before an
// exit).
type RegularBlock struct {
	blockHeader
	Contents  []Node
	Successor Block
	FlowRule  FlowRule
}

// NewRegularBlock constructs a RegularBlock with the given id and contents.
// Successor and FlowRule are set afterward by the caller assembling the
// graph.
func NewRegularBlock(id BlockID, contents []Node) *RegularBlock {
	return &RegularBlock{blockHeader: blockHeader{id: id}, Contents: contents}
}

func (b *RegularBlock) Kind() BlockKind { return RegularBlockKind }
func (b *RegularBlock) String() string  { return fmt.Sprintf("RegularBlock#%d", b.id) }

// ConditionalBlock carries no nodes of its own; it splits flow between a
// then and an else successor based on a condition evaluated in a
// predecessor block.
type ConditionalBlock struct {
	blockHeader
	ThenSuccessor Block
	ElseSuccessor Block
	ThenFlowRule  FlowRule
	ElseFlowRule  FlowRule
}

func NewConditionalBlock(id BlockID) *ConditionalBlock {
	return &ConditionalBlock{blockHeader: blockHeader{id: id}}
}

func (b *ConditionalBlock) Kind() BlockKind { return ConditionalBlockKind }
func (b *ConditionalBlock) String() string  { return fmt.Sprintf("ConditionalBlock#%d", b.id) }

// ExceptionBlock wraps exactly one node that may fail. Successor is the
// normal-completion successor (nil if the node always throws). Successors
// maps each exception tag the node may raise to the set of blocks flow may
// continue to for that tag - usually the graph's exceptional exit, or a
// handler block if the caller models try/catch explicitly.
type ExceptionBlock struct {
	blockHeader
	Node       Node
	Successor  Block
	FlowRule   FlowRule
	Successors map[ExceptionTag][]Block
}

func NewExceptionBlock(id BlockID, node Node) *ExceptionBlock {
	return &ExceptionBlock{
		blockHeader: blockHeader{id: id},
		Node:        node,
		Successors:  map[ExceptionTag][]Block{},
	}
}

func (b *ExceptionBlock) Kind() BlockKind { return ExceptionBlockKind }
func (b *ExceptionBlock) String() string  { return fmt.Sprintf("ExceptionBlock#%d", b.id) }

// SpecialBlock represents the graph's unique entry, its regular exit, or
// its exceptional exit. Successor is nil for the two exits.
type SpecialBlock struct {
	blockHeader
	Subtype   SpecialBlockSubtype
	Successor Block
	FlowRule  FlowRule
}

func NewSpecialBlock(id BlockID, subtype SpecialBlockSubtype) *SpecialBlock {
	return &SpecialBlock{blockHeader: blockHeader{id: id}, Subtype: subtype}
}

func (b *SpecialBlock) Kind() BlockKind { return SpecialBlockKind }
func (b *SpecialBlock) String() string {
	return fmt.Sprintf("SpecialBlock#%d(%s)", b.id, b.Subtype)
}

// ASTKind classifies the code body a ControlFlowGraph was built for. The
// engine never branches on it directly; it is handed through to transfer
// functions that need to special-case, say, a lambda body's implicit
// return.
type ASTKind int

const (
	MethodAST ASTKind = iota
	LambdaAST
	ArbitraryCodeAST
)

// UnderlyingAST describes the code body a graph was assembled from:
// its kind, and - for Method and Lambda bodies - the nodes representing
// its formal parameters, in declaration order.
type UnderlyingAST struct {
	Kind       ASTKind
	Parameters []Node
}

// ControlFlowGraph is the complete input the engine needs: a set of
// blocks reachable from Entry (and, for backward analyses, from the two
// exits), the exits themselves, and bookkeeping the spec asks the query
// layer to expose afterward.
//
// RegularExit and ExceptionalExit may be nil: a graph whose body always
// throws has no regular exit, and one that can never raise has no
// exceptional exit. A nil exit is never visited and never appears in any
// query result, which is how callers tell "unreachable" apart from "has an
// empty store".
type ControlFlowGraph struct {
	Entry           *SpecialBlock
	RegularExit     *SpecialBlock
	ExceptionalExit *SpecialBlock
	Blocks          []Block
	ReturnNodes     []Node
	AST             UnderlyingAST
}

// New assembles a ControlFlowGraph from blocks whose successor edges are
// already set, and back-fills every block's Predecessors list by scanning
// those edges once. Pass every block reachable from entry or either exit:
// an omitted block's outgoing edges are never recorded as predecessors, so
// backward ordering never reaches it, and the analyzers leave it out of
// their per-block results even when forward propagation reaches it through
// a Successor field.
func New(entry *SpecialBlock, regularExit, exceptionalExit *SpecialBlock, blocks []Block, returnNodes []Node, ast UnderlyingAST) *ControlFlowGraph {
	g := &ControlFlowGraph{
		Entry:           entry,
		RegularExit:     regularExit,
		ExceptionalExit: exceptionalExit,
		Blocks:          blocks,
		ReturnNodes:     returnNodes,
		AST:             ast,
	}
	link := func(from, to Block) {
		if to == nil {
			return
		}
		header := predecessorHeader(to)
		header.predecessors = append(header.predecessors, from)
	}
	for _, b := range blocks {
		switch blk := b.(type) {
		case *RegularBlock:
			link(blk, blk.Successor)
		case *ConditionalBlock:
			link(blk, blk.ThenSuccessor)
			link(blk, blk.ElseSuccessor)
		case *ExceptionBlock:
			link(blk, blk.Successor)
			for _, succs := range blk.Successors {
				for _, s := range succs {
					link(blk, s)
				}
			}
		case *SpecialBlock:
			link(blk, blk.Successor)
		}
	}
	return g
}

// predecessorHeader returns the blockHeader embedded in b, regardless of
// which concrete block type b is, so New can append to it uniformly.
func predecessorHeader(b Block) *blockHeader {
	switch blk := b.(type) {
	case *RegularBlock:
		return &blk.blockHeader
	case *ConditionalBlock:
		return &blk.blockHeader
	case *ExceptionBlock:
		return &blk.blockHeader
	case *SpecialBlock:
		return &blk.blockHeader
	default:
		panic(fmt.Sprintf("cfg: unknown block type %T", b))
	}
}

// Successors returns every block b flows to (then before else, normal
// before exceptional) so callers such as graph ordering don't have to
// special case each Kind themselves. An ExceptionBlock's exceptional
// successors follow map iteration order over its exception tags, so their
// order is fixed only for a block with a single tag.
func Successors(b Block) []Block {
	switch blk := b.(type) {
	case *RegularBlock:
		if blk.Successor == nil {
			return nil
		}
		return []Block{blk.Successor}
	case *ConditionalBlock:
		var out []Block
		if blk.ThenSuccessor != nil {
			out = append(out, blk.ThenSuccessor)
		}
		if blk.ElseSuccessor != nil {
			out = append(out, blk.ElseSuccessor)
		}
		return out
	case *ExceptionBlock:
		var out []Block
		if blk.Successor != nil {
			out = append(out, blk.Successor)
		}
		for _, succs := range blk.Successors {
			out = append(out, succs...)
		}
		return out
	case *SpecialBlock:
		if blk.Successor == nil {
			return nil
		}
		return []Block{blk.Successor}
	default:
		return nil
	}
}
