// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeScript(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.js")
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatalf("writing script: %v", err)
	}
	return path
}

func TestRunCommandEvaluatesScript(t *testing.T) {
	path := writeScript(t, `1 + 2;`)
	if err := newApp().Run([]string{"probescript", "run", path}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
}

func TestRunCommandReportsScriptError(t *testing.T) {
	path := writeScript(t, `throw "boom";`)
	if err := newApp().Run([]string{"probescript", "run", path}); err == nil {
		t.Fatal("expected run to report the uncaught throw")
	}
}

func TestRunCommandRequiresExactlyOneArgument(t *testing.T) {
	if err := newApp().Run([]string{"probescript", "run"}); err == nil {
		t.Fatal("expected an error when no script file is given")
	}
}

func TestTokensCommand(t *testing.T) {
	path := writeScript(t, `var x = 1;`)
	if err := newApp().Run([]string{"probescript", "tokens", path}); err != nil {
		t.Fatalf("tokens failed: %v", err)
	}
}

func TestOpsCommand(t *testing.T) {
	path := writeScript(t, `var x = 1;`)
	if err := newApp().Run([]string{"probescript", "ops", path}); err != nil {
		t.Fatalf("ops failed: %v", err)
	}
}
