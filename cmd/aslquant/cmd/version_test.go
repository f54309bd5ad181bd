package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Failed to run version command: %v", err)
	}
	if !strings.Contains(out.String(), Version) {
		t.Errorf("Expected output to contain %q, got %q", Version, out.String())
	}
}
