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

// Command flowviz runs the live-variable client against one of a handful
// of built-in example method bodies and renders the resulting
// control-flow graph, annotated with the store computed before and after
// every node.
package main

import (
	"flag"
	"fmt"
	"os"
)

const usage = `Run live-variable analysis on a built-in example and render its graph.
Usage:
  flowviz [options] <example>
Examples:
  flowviz -out out.png return-local
  flowviz -config flowviz.yaml -open conditional-merge
Built-in examples: return-local, kill-then-gen, binary-operands, array-access, conditional-merge
`

// Flags is the parsed command line.
type Flags struct {
	FlagSet    *flag.FlagSet
	ConfigPath string
	DotOut     string
	ImageOut   string
	Open       bool
	Example    string
}

// NewFlags parses args into a Flags, or returns an error describing what
// was wrong with them.
func NewFlags(args []string) (Flags, error) {
	fs := flag.NewFlagSet("flowviz", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file (default settings if omitted)")
	dotOut := fs.String("dotout", "", "output file for the graphviz DOT source (no output if not specified)")
	imageOut := fs.String("out", "flowviz.png", "output file for the rendered PNG")
	open := fs.Bool("open", false, "open the rendered PNG in the default viewer")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n", usage)
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(os.Stderr, "  %s: %s (default: %q)\n", f.Name, f.Usage, f.DefValue)
		})
	}
	if err := fs.Parse(args); err != nil {
		return Flags{}, fmt.Errorf("failed to parse flags: %w", err)
	}
	if fs.NArg() != 1 {
		return Flags{}, fmt.Errorf("expected exactly one example name, got %d", fs.NArg())
	}
	return Flags{
		FlagSet:    fs,
		ConfigPath: *configPath,
		DotOut:     *dotOut,
		ImageOut:   *imageOut,
		Open:       *open,
		Example:    fs.Arg(0),
	}, nil
}
