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
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/latticeflow/dataflow/analysis"
	"github.com/latticeflow/dataflow/cfg"
	"github.com/latticeflow/dataflow/livevariable"
)

// storeLabel renders a Store as a sorted, comma-separated variable list
// for use in a graphviz node label.
func storeLabel(s livevariable.Store) string {
	names := make([]string, 0)
	for _, n := range s.LiveVars() {
		names = append(names, n.String())
	}
	sort.Strings(names)
	if len(names) == 0 {
		return "{}"
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// writeGraphviz writes a DOT representation of g to w, one node per block,
// labeled with the before/after live-variable sets r computed for it.
//
// This follows the same direct string-writing approach the call-graph
// renderer this package is descended from uses rather than building an
// in-memory graph object first: a control-flow graph this small has no
// need for one.
func writeGraphviz(title string, g *cfg.ControlFlowGraph, r *analysis.Result[livevariable.LiveVar, livevariable.Store], w io.Writer) error {
	write := func(format string, args ...any) error {
		_, err := fmt.Fprintf(w, format, args...)
		return err
	}
	if err := write("digraph flow {\n  labelloc=\"t\";\n  label=%q;\n", title); err != nil {
		return err
	}
	for _, b := range g.Blocks {
		before, _ := r.StoreBeforeBlock(b)
		after, _ := r.StoreAfterBlock(b)
		label := fmt.Sprintf("%s\\nbefore: %s\\nafter: %s", b, storeLabel(before), storeLabel(after))
		shape := "box"
		if _, ok := b.(*cfg.ConditionalBlock); ok {
			shape = "diamond"
		}
		if err := write("  %q [shape=%s, label=%q];\n", blockID(b), shape, label); err != nil {
			return err
		}
	}
	for _, b := range g.Blocks {
		for _, s := range cfg.Successors(b) {
			if err := write("  %q -> %q;\n", blockID(b), blockID(s)); err != nil {
				return err
			}
		}
	}
	return write("}\n")
}

func blockID(b cfg.Block) string {
	return fmt.Sprintf("block%d", b.ID())
}

// writeGraphvizToFile creates filename and writes the DOT source for g to
// it, returning the DOT source text as well so the caller can feed it
// straight to a rasterizer without a second pass over the graph.
func writeGraphvizToFile(title string, g *cfg.ControlFlowGraph, r *analysis.Result[livevariable.LiveVar, livevariable.Store], filename string) (string, error) {
	var b strings.Builder
	if err := writeGraphviz(title, g, r, &b); err != nil {
		return "", err
	}
	if filename == "" {
		return b.String(), nil
	}
	f, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("could not create dot file: %w", err)
	}
	defer f.Close()
	bw := bufio.NewWriter(f)
	defer bw.Flush()
	if _, err := bw.WriteString(b.String()); err != nil {
		return "", fmt.Errorf("could not write dot file: %w", err)
	}
	return b.String(), nil
}
