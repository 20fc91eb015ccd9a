// Package permissions parses the file modes used for pad, archive and output
// files.
package permissions

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultFilePerms is read/write for owner only; pads are secrets.
const DefaultFilePerms os.FileMode = 0o600

// ParseFileMode parses an octal permission string into a file mode.
// Handles formats like "600", "0600", "0o600". Empty yields DefaultFilePerms.
func ParseFileMode(s string) (os.FileMode, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultFilePerms, nil
	}

	digits := strings.TrimPrefix(strings.TrimPrefix(s, "0o"), "0")
	if digits == "" {
		digits = "0"
	}

	val, err := strconv.ParseUint(digits, 8, 32)
	if err != nil {
		return DefaultFilePerms, fmt.Errorf("invalid permission string %q: %w", s, err)
	}
	if val > 0o777 {
		return DefaultFilePerms, fmt.Errorf("permission %q has bits outside 0777", s)
	}
	if val&0o600 != 0o600 {
		return DefaultFilePerms, fmt.Errorf("permission %q must allow owner read and write", s)
	}

	return os.FileMode(val), nil
}

// FormatOctal formats a permission value as an octal string
func FormatOctal(perm os.FileMode) string {
	return fmt.Sprintf("0%o", uint32(perm.Perm()))
}
