package size

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"39bytes", 39, false},
		{"39b", 39, false},
		{"3kb", 3 * 1024, false},
		{"3KB", 3 * 1024, false},
		{"2mb", 2 * 1024 * 1024, false},
		{"1gb", 1024 * 1024 * 1024, false},
		{"512", 512, false},
		{" 4 kb ", 4 * 1024, false},
		{"", 0, true},
		{"kb", 0, true},
		{"3tb", 0, true},
		{"-1kb", 0, true},
		{"1.5mb", 0, true},
		{"9999999999999gb", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input_bytes.bin")
	if err := os.WriteFile(path, make([]byte, 123), 0o600); err != nil {
		t.Fatal(err)
	}

	if got, err := Resolve("", path); err != nil || got != 123 {
		t.Errorf("Resolve(\"\", file) = %d, %v; want 123", got, err)
	}
	if got, err := Resolve("1kb", path); err != nil || got != 1024 {
		t.Errorf("Resolve(1kb) = %d, %v; want 1024", got, err)
	}
	if _, err := Resolve("", filepath.Join(t.TempDir(), "missing.bin")); err == nil {
		t.Error("expected error for missing fallback file")
	}
}
