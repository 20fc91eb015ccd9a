package transform

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	cerrors "github.com/provide-io/padcipher/pkg/cipher/errors"
	"github.com/provide-io/padcipher/pkg/cipher/table"
)

// searchToken walks magnitudes upward, trying '+' before '-' at each step.
func searchToken(pad, plain byte) table.Token {
	for i := 0; i <= 255; i++ {
		m := byte(i)
		if pad+m == plain {
			return table.NewToken(table.SignAdd, m)
		}
		if pad-m == plain {
			return table.NewToken(table.SignSubtract, m)
		}
	}
	panic("unreachable")
}

func TestTokenFor_MatchesSearch(t *testing.T) {
	for pad := 0; pad < 256; pad++ {
		for plain := 0; plain < 256; plain++ {
			got := TokenFor(byte(pad), byte(plain))
			want := searchToken(byte(pad), byte(plain))
			if got != want {
				t.Fatalf("TokenFor(0x%02X, 0x%02X) = %q, want %q", pad, plain, got, want)
			}
		}
	}
}

func TestTokenFor_TieBreak(t *testing.T) {
	tests := []struct {
		pad, plain byte
		want       table.Token
	}{
		{0x10, 0x10, "+00"},
		{0x00, 0x80, "+80"},
		{0x80, 0x00, "+80"},
		{0x10, 0x0F, "-01"},
		{0xFF, 0x00, "+01"},
		{0x00, 0xFF, "-01"},
	}
	for _, tt := range tests {
		if got := TokenFor(tt.pad, tt.plain); got != tt.want {
			t.Errorf("TokenFor(0x%02X, 0x%02X) = %q, want %q", tt.pad, tt.plain, got, tt.want)
		}
	}
}

func mustTable(t *testing.T, lines ...string) *table.Table {
	t.Helper()
	tbl, err := table.Parse(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		t.Fatalf("table.Parse() error = %v", err)
	}
	return tbl
}

func TestWorkedExample(t *testing.T) {
	tbl := mustTable(t, "+00=01")

	code := Encrypt(0x10, 0x10, tbl)
	if code != 0x01 {
		t.Fatalf("Encrypt = 0x%02X, want 0x01", code)
	}

	plain, err := Decrypt(0x10, code, tbl, 0)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if plain != 0x10 {
		t.Errorf("Decrypt = 0x%02X, want 0x10", plain)
	}
}

func TestEncryptByte_SentinelFallback(t *testing.T) {
	tbl := mustTable(t, "+00=01")

	code, ok := EncryptByte(0x10, 0x11, tbl)
	if ok {
		t.Error("expected fallback")
	}
	if code != Sentinel {
		t.Errorf("code = 0x%02X, want 0x%02X", code, Sentinel)
	}
}

func TestDecrypt_Wraparound(t *testing.T) {
	tbl := mustTable(t, "+10=20", "-10=21")

	if got, _ := Decrypt(0xF8, 0x20, tbl, 0); got != 0x08 {
		t.Errorf("Decrypt(+10) = 0x%02X, want 0x08", got)
	}
	if got, _ := Decrypt(0x08, 0x21, tbl, 0); got != 0xF8 {
		t.Errorf("Decrypt(-10) = 0x%02X, want 0xF8", got)
	}
}

func TestDecrypt_Errors(t *testing.T) {
	tbl := mustTable(t, "*05=30", "-ZZ=31")

	tests := []struct {
		name string
		code byte
		want error
	}{
		{"unmapped code", 0x99, cerrors.ErrLookup},
		{"unknown operator", 0x30, cerrors.ErrInvalidOperator},
		{"bad magnitude", 0x31, cerrors.ErrInvalidOperator},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decrypt(0x00, tt.code, tbl, 7)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Decrypt error = %v, want %v", err, tt.want)
			}
			if !strings.Contains(err.Error(), "offset 7") {
				t.Errorf("error %q does not mention offset", err)
			}
		})
	}
}

func TestRoundTrip_FullTable(t *testing.T) {
	// A bijective table: +00..+80 and -01..-7F each get a distinct code.
	var lines []string
	code := 0
	for m := 0; m <= 0x80; m++ {
		lines = append(lines, fmt.Sprintf("+%02X=%02X", m, code))
		code++
	}
	for m := 1; m < 0x80; m++ {
		lines = append(lines, fmt.Sprintf("-%02X=%02X", m, code))
		code++
	}
	tbl := mustTable(t, lines...)

	for pad := 0; pad < 256; pad += 7 {
		for plain := 0; plain < 256; plain++ {
			c, ok := EncryptByte(byte(pad), byte(plain), tbl)
			if !ok {
				t.Fatalf("fallback for pad 0x%02X plain 0x%02X", pad, plain)
			}
			got, err := Decrypt(byte(pad), c, tbl, 0)
			if err != nil {
				t.Fatalf("Decrypt error = %v", err)
			}
			if got != byte(plain) {
				t.Fatalf("round trip pad 0x%02X: got 0x%02X, want 0x%02X", pad, got, plain)
			}
		}
	}
}
