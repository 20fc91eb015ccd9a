package table

import (
	"fmt"
	"strconv"
)

// Operation signs
const (
	SignAdd      = '+'
	SignSubtract = '-'
)

// Token is an operation token such as "+07" or "-3A": a sign followed by a
// hex magnitude, meaning add or subtract that magnitude modulo 256.
type Token string

// NewToken formats a token with an upper-case two-digit magnitude.
func NewToken(sign byte, magnitude byte) Token {
	return Token(fmt.Sprintf("%c%02X", sign, magnitude))
}

// Sign returns the first character of the token, or 0 for an empty token.
func (t Token) Sign() byte {
	if len(t) == 0 {
		return 0
	}
	return t[0]
}

// Magnitude parses the hex digits following the sign.
func (t Token) Magnitude() (byte, error) {
	if len(t) < 2 {
		return 0, fmt.Errorf("token %q has no magnitude", string(t))
	}
	v, err := strconv.ParseUint(string(t[1:]), 16, 8)
	if err != nil {
		return 0, fmt.Errorf("token %q: %w", string(t), err)
	}
	return byte(v), nil
}

// Canonical reports whether t is in the form NewToken produces: a sign
// and two upper-case hex digits. Only canonical tokens are ever looked up
// when encrypting.
func (t Token) Canonical() bool {
	if len(t) != 3 || (t[0] != SignAdd && t[0] != SignSubtract) {
		return false
	}
	for _, c := range []byte(t[1:]) {
		if !(c >= '0' && c <= '9') && !(c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}

func (t Token) String() string {
	return string(t)
}
