// Package size resolves byte counts from size strings like "3kb" or from the
// length of an existing file.
package size

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
)

var units = map[string]int64{
	"":      1,
	"b":     1,
	"bytes": 1,
	"kb":    1024,
	"mb":    1024 * 1024,
	"gb":    1024 * 1024 * 1024,
}

// Parse converts strings such as "39bytes", "3kb" or "1GB" to a byte count.
// Units are binary multiples; a bare number is bytes.
func Parse(s string) (int64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	split := strings.IndexFunc(s, unicode.IsLetter)
	if split < 0 {
		split = len(s)
	}
	numStr, unit := strings.TrimSpace(s[:split]), s[split:]

	mult, ok := units[unit]
	if !ok {
		return 0, fmt.Errorf("invalid size unit %q in %q (examples: 1gb, 3kb, 39bytes)", unit, s)
	}
	num, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil || num < 0 {
		return 0, fmt.Errorf("invalid size %q (examples: 1gb, 3kb, 39bytes)", s)
	}
	if num > 0 && mult > (1<<63-1)/num {
		return 0, fmt.Errorf("size %q overflows", s)
	}
	return num * mult, nil
}

// Resolve returns the size given by spec, or the length of the file at
// fallbackPath when spec is empty.
func Resolve(spec, fallbackPath string) (int64, error) {
	if strings.TrimSpace(spec) != "" {
		return Parse(spec)
	}
	info, err := os.Stat(fallbackPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%s not found; provide it or pass a size", fallbackPath)
		}
		return 0, err
	}
	return info.Size(), nil
}
