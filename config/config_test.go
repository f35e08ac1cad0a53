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

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewDefault(t *testing.T) {
	cfg := NewDefault()
	if cfg.MaxCountBeforeWidening != DefaultMaxCountBeforeWidening {
		t.Errorf("MaxCountBeforeWidening = %d, want %d", cfg.MaxCountBeforeWidening, DefaultMaxCountBeforeWidening)
	}
	if cfg.LogLevel != int(InfoLevel) {
		t.Errorf("LogLevel = %d, want %d", cfg.LogLevel, int(InfoLevel))
	}
	if cfg.SourceFile() != "" {
		t.Errorf("SourceFile() = %q, want empty", cfg.SourceFile())
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flow.yaml")
	contents := "max-count-before-widening: 5\nlog-level: 4\ngraph-output-dir: out\n"
	if err := writeFile(path, contents); err != nil {
		t.Fatalf("could not write test config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.MaxCountBeforeWidening != 5 {
		t.Errorf("MaxCountBeforeWidening = %d, want 5", cfg.MaxCountBeforeWidening)
	}
	if cfg.LogLevel != int(DebugLevel) {
		t.Errorf("LogLevel = %d, want %d", cfg.LogLevel, int(DebugLevel))
	}
	if cfg.GraphOutputDir != "out" {
		t.Errorf("GraphOutputDir = %q, want %q", cfg.GraphOutputDir, "out")
	}
	if cfg.SourceFile() != path {
		t.Errorf("SourceFile() = %q, want %q", cfg.SourceFile(), path)
	}
}

func TestLoad_DefaultsLogLevelWhenOmitted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flow.yaml")
	if err := writeFile(path, "max-count-before-widening: 10\n"); err != nil {
		t.Fatalf("could not write test config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LogLevel != int(InfoLevel) {
		t.Errorf("LogLevel = %d, want default %d", cfg.LogLevel, int(InfoLevel))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Load of a missing file returned no error")
	}
}

func writeFile(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o644)
}
