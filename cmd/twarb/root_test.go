// Copyright 2025 Certen Protocol

package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigPath_UnderHomeDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available in this environment")
	}
	want := filepath.Join(home, ".twine", "arbitrager", "config.yaml")
	if got := defaultConfigPath(); got != want {
		t.Errorf("default config path mismatch: got %q, want %q", got, want)
	}
}

func TestLoadAndValidate_PropagatesValidationErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
global:
  threshold: 5
provers:
  a:
    prover_ip: http://localhost:9000
    prover_type: sp1
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := loadAndValidate(path); err == nil {
		t.Fatal("expected threshold-exceeds-provers to fail validation")
	}
}

func TestLoadAndValidate_MissingFile(t *testing.T) {
	if _, err := loadAndValidate("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
