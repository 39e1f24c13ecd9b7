package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionInfo(t *testing.T) {
	t.Parallel()

	for name, fn := range map[string]func() string{
		"getVersion": getVersion,
		"getCommit":  getCommit,
		"getDate":    getDate,
	} {
		t.Run(name+" is never empty", func(t *testing.T) {
			t.Parallel()
			if fn() == "" {
				t.Errorf("%s() returned empty string", name)
			}
		})
	}

	t.Run("unknown build setting", func(t *testing.T) {
		t.Parallel()
		if got := buildSetting("no.such.key"); got != "unknown" {
			t.Errorf("expected unknown, got %q", got)
		}
	})
}

func TestNewVersionCmd(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cmd := NewVersionCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"threadscrape version", "commit:", "built:"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got %q", want, output)
		}
	}
}
