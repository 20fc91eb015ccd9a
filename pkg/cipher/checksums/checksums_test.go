package checksums

import (
	"strings"
	"testing"
)

func TestCalculateAndVerify(t *testing.T) {
	data := []byte{0xAA, 0xBB, 0xCC}

	for _, algo := range []Algorithm{SHA256, SHA512, Adler32, Blake2b} {
		t.Run(algo.String(), func(t *testing.T) {
			sum := Calculate(data, algo)
			if !strings.HasPrefix(sum, algo.String()+":") {
				t.Fatalf("Calculate() = %q, missing prefix", sum)
			}

			ok, err := Verify(data, sum)
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if !ok {
				t.Error("Verify() = false for matching data")
			}

			ok, _ = Verify([]byte{0xAA}, sum)
			if ok {
				t.Error("Verify() = true for different data")
			}
		})
	}
}

func TestKnownDigests(t *testing.T) {
	// Empty-input digests.
	tests := []struct {
		algo Algorithm
		want string
	}{
		{SHA256, "sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{Adler32, "adler32:00000001"},
		{Blake2b, "blake2b:0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8"},
	}
	for _, tt := range tests {
		if got := Calculate(nil, tt.algo); got != tt.want {
			t.Errorf("Calculate(nil, %s) = %q, want %q", tt.algo, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		algo    Algorithm
		value   string
		wantErr bool
	}{
		{"sha256:abcd", SHA256, "abcd", false},
		{"blake2b:00ff", Blake2b, "00ff", false},
		{"abcd", SHA256, "abcd", false},
		{"md5:abcd", SHA256, "", true},
	}
	for _, tt := range tests {
		algo, value, err := Parse(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			continue
		}
		if algo != tt.algo || value != tt.value {
			t.Errorf("Parse(%q) = %v, %q; want %v, %q", tt.input, algo, value, tt.algo, tt.value)
		}
	}
}
