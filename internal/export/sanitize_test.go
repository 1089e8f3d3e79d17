package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"plain", "Onion Soup", 0, "Onion Soup"},
		{"slashes replaced", "a/b\\c", 0, "a_b_c"},
		{"control chars dropped", "ab\x00\ncd", 0, "abcd"},
		{"allowed punctuation kept", "Step 1 - brown (slowly), ok.", 0, "Step 1 - brown (slowly), ok."},
		{"truncated", "abcdefghij", 4, "abcd"},
		{"trimmed", "  padded  ", 0, "padded"},
		{"unicode letters kept", "crème brûlée", 0, "crème brûlée"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeName(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("SanitizeName(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestValidateOutputDir(t *testing.T) {
	dir := t.TempDir()

	if err := ValidateOutputDir(dir); err != nil {
		t.Errorf("ValidateOutputDir(%q) = %v, want nil", dir, err)
	}

	if err := ValidateOutputDir(""); err == nil {
		t.Error("empty dir should be rejected")
	}
	if err := ValidateOutputDir(filepath.Join(dir, "..", "etc")); err == nil {
		t.Error("traversal should be rejected")
	}
	if err := ValidateOutputDir(filepath.Join(dir, "missing")); err == nil {
		t.Error("nonexistent dir should be rejected")
	}

	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ValidateOutputDir(file); err == nil || !strings.Contains(err.Error(), "not a directory") {
		t.Errorf("file path should be rejected as non-directory, got %v", err)
	}
}
