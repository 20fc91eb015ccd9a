package padgen

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name string
		n    int64
	}{
		{"empty", 0},
		{"small", 39},
		{"multi chunk", ChunkSize*2 + 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := bytes.NewReader(bytes.Repeat([]byte{0x5A}, int(tt.n)))
			var out bytes.Buffer
			written, err := Generate(&out, src, tt.n)
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if written != tt.n || int64(out.Len()) != tt.n {
				t.Errorf("wrote %d (buffer %d), want %d", written, out.Len(), tt.n)
			}
		})
	}
}

func TestGenerate_ShortSource(t *testing.T) {
	var out bytes.Buffer
	if _, err := Generate(&out, bytes.NewReader([]byte{1, 2}), 3); err == nil {
		t.Error("expected error from exhausted source")
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pads", "random_bytes.bin")
	if err := WriteFile(path, 3*1024, 0o600, nil); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 3*1024 {
		t.Errorf("size = %d, want %d", info.Size(), 3*1024)
	}
}
