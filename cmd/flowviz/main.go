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
	"os"

	"github.com/goccy/go-graphviz"
	"github.com/pkg/browser"

	"github.com/latticeflow/dataflow/analysis"
	"github.com/latticeflow/dataflow/config"
	"github.com/latticeflow/dataflow/internal/formatutil"
	"github.com/latticeflow/dataflow/livevariable"
)

func main() {
	flags, err := NewFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := run(flags); err != nil {
		fmt.Fprintln(os.Stderr, formatutil.Red(err.Error()))
		os.Exit(1)
	}
}

func run(flags Flags) error {
	cfg := config.NewDefault()
	if flags.ConfigPath != "" {
		var err error
		cfg, err = config.Load(flags.ConfigPath)
		if err != nil {
			return fmt.Errorf("could not load config %q: %w", flags.ConfigPath, err)
		}
	}
	logger := config.NewLogGroup(cfg)

	build, ok := examples[flags.Example]
	if !ok {
		return fmt.Errorf("unknown example %q (see -help for the list)", flags.Example)
	}
	ex := build()

	fmt.Fprintln(os.Stderr, formatutil.Faint(fmt.Sprintf("Running live-variable analysis on %s", ex.title)))

	a := analysis.NewBackwardAnalysis[livevariable.LiveVar, livevariable.Store](livevariable.Transfer{}, analysis.Options{
		MaxCountBeforeWidening: cfg.MaxCountBeforeWidening,
		Logger:                 logger,
	})
	if err := a.PerformAnalysis(ex.graph); err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	result := a.Result()

	dotSource, err := writeGraphvizToFile(ex.title, ex.graph, result, flags.DotOut)
	if err != nil {
		return fmt.Errorf("could not render graph: %w", err)
	}

	gv := graphviz.New()
	defer gv.Close()
	graph, err := graphviz.ParseBytes([]byte(dotSource))
	if err != nil {
		return fmt.Errorf("could not parse generated dot source: %w", err)
	}
	defer graph.Close()

	if err := gv.RenderFilename(graph, graphviz.PNG, flags.ImageOut); err != nil {
		return fmt.Errorf("could not render png: %w", err)
	}
	fmt.Fprintln(os.Stderr, formatutil.Green(fmt.Sprintf("Wrote %s", flags.ImageOut)))

	if flags.Open {
		if err := browser.OpenFile(flags.ImageOut); err != nil {
			return fmt.Errorf("could not open %s: %w", flags.ImageOut, err)
		}
	}
	return nil
}
