package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portcullis.hcl")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunCheck_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
knock {
  sequence        = [7000, 8000, 9000]
  protected_ports = [22]
  secret          = "opensesame"
}
`)
	if err := RunCheck(path, true); err != nil {
		t.Errorf("RunCheck: %v", err)
	}
}

func TestRunCheck_InvalidConfig(t *testing.T) {
	path := writeConfig(t, `
knock {
  sequence        = [7000]
  protected_ports = [22]
  secret          = "opensesame"
}
`)
	if err := RunCheck(path, false); err == nil {
		t.Error("expected validation error for one-port sequence")
	}
}

func TestRunCheck_MissingFile(t *testing.T) {
	if err := RunCheck("/nonexistent/portcullis.hcl", false); err == nil {
		t.Error("expected error for missing file")
	}
}
