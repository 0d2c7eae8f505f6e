package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	cmd := newRootCommand()
	want := []string{"run", "config", "requests"}
	for _, name := range want {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("missing %q subcommand", name)
		}
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	cmd := newConfigInitCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--path", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[radarr]") || !strings.Contains(string(data), "[sonarr]") {
		t.Fatalf("sample missing catalog sections:\n%s", data)
	}

	// Refuses to clobber without --overwrite.
	cmd = newConfigInitCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--path", target})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected existing-file error")
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable(
		[]string{"ID", "Name", "State"},
		[][]string{{"1", "Dune"}},
		[]columnAlignment{alignRight, alignLeft, alignLeft},
	)
	if !strings.Contains(out, "Dune") {
		t.Fatalf("render lost row content:\n%s", out)
	}
}
