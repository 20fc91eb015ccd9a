package permissions

import (
	"os"
	"testing"
)

func TestParseFileMode(t *testing.T) {
	tests := []struct {
		input   string
		want    os.FileMode
		wantErr bool
	}{
		{"", 0o600, false},
		{"600", 0o600, false},
		{"0640", 0o640, false},
		{"0o644", 0o644, false},
		{"0", 0o600, true},
		{"0400", 0o600, true},
		{"1777", 0o600, true},
		{"rw-r--r--", 0o600, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFileMode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFileMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFileMode(%q) = %o, want %o", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatOctal(t *testing.T) {
	if got := FormatOctal(0o640); got != "0640" {
		t.Errorf("FormatOctal(0640) = %q", got)
	}
}
