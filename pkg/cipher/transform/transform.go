// Package transform implements the per-byte cipher step: relating a plain
// byte to a pad byte through an operation token and back.
package transform

import (
	cerrors "github.com/provide-io/padcipher/pkg/cipher/errors"
	"github.com/provide-io/padcipher/pkg/cipher/table"
)

// Sentinel is emitted when the forward table has no entry for a token.
const Sentinel byte = 0xFF

// TokenFor returns the token that carries pad to plain modulo 256, picking the
// smaller magnitude and '+' on a tie.
func TokenFor(pad, plain byte) table.Token {
	up := plain - pad
	down := pad - plain
	if up <= down {
		return table.NewToken(table.SignAdd, up)
	}
	return table.NewToken(table.SignSubtract, down)
}

// EncryptByte maps plain to a code byte. ok is false when the token was not
// in the table and Sentinel was returned instead.
func EncryptByte(pad, plain byte, tbl *table.Table) (code byte, ok bool) {
	code, ok = tbl.Lookup(TokenFor(pad, plain))
	if !ok {
		return Sentinel, false
	}
	return code, true
}

// Encrypt maps plain to a code byte, falling back to Sentinel.
func Encrypt(pad, plain byte, tbl *table.Table) byte {
	code, _ := EncryptByte(pad, plain, tbl)
	return code
}

// Decrypt recovers the plain byte for code. offset is only used to annotate
// errors.
func Decrypt(pad, code byte, tbl *table.Table, offset int) (byte, error) {
	token, ok := tbl.Resolve(code)
	if !ok {
		return 0, &cerrors.LookupError{Code: code, Offset: offset}
	}

	magnitude, err := token.Magnitude()
	if err != nil {
		return 0, &cerrors.InvalidOperatorError{Token: string(token), Offset: offset}
	}

	switch token.Sign() {
	case table.SignAdd:
		return pad + magnitude, nil
	case table.SignSubtract:
		return pad - magnitude, nil
	default:
		return 0, &cerrors.InvalidOperatorError{Token: string(token), Offset: offset}
	}
}
