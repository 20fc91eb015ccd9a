package compress

import (
	"bytes"
	"testing"

	"github.com/provide-io/padcipher/pkg/cipher/operations"
)

func TestCodecsRoundTrip(t *testing.T) {
	input := bytes.Repeat([]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE}, 1000)

	for _, name := range []string{"raw", "gzip", "bzip2"} {
		t.Run(name, func(t *testing.T) {
			op, err := operations.GetByName(name)
			if err != nil {
				t.Fatalf("GetByName(%q) error = %v", name, err)
			}

			var packed, unpacked bytes.Buffer
			if err := op.ApplyStream(bytes.NewReader(input), &packed); err != nil {
				t.Fatalf("ApplyStream() error = %v", err)
			}
			if err := op.ReverseStream(&packed, &unpacked); err != nil {
				t.Fatalf("ReverseStream() error = %v", err)
			}
			if !bytes.Equal(unpacked.Bytes(), input) {
				t.Errorf("round trip mismatch: got %d bytes, want %d", unpacked.Len(), len(input))
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	names := operations.Names()
	want := []string{"raw", "gzip", "bzip2"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	if _, err := operations.GetByName("zstd"); err == nil {
		t.Error("expected error for unregistered codec")
	}
	if op, err := operations.GetByName(" BZIP2 "); err != nil || op.ID() != operations.OP_BZIP2 {
		t.Errorf("GetByName(BZIP2) = %v, %v", op, err)
	}
}

func TestReverseStream_Corrupt(t *testing.T) {
	var out bytes.Buffer
	if err := NewGzipOperation().ReverseStream(bytes.NewReader([]byte("not gzip")), &out); err == nil {
		t.Error("expected gzip error")
	}
	if err := NewBzip2Operation().ReverseStream(bytes.NewReader([]byte("not bzip2")), &out); err == nil {
		t.Error("expected bzip2 error")
	}
}
