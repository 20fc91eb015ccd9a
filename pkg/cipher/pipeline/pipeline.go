// Package pipeline applies the per-byte transform across whole payloads and
// runs the file-level encrypt and decrypt flows against a pad ledger.
package pipeline

import (
	cerrors "github.com/provide-io/padcipher/pkg/cipher/errors"
	"github.com/provide-io/padcipher/pkg/cipher/table"
	"github.com/provide-io/padcipher/pkg/cipher/transform"
)

// Stats summarises a transform pass.
type Stats struct {
	Bytes int

	// Fallbacks counts bytes whose token was missing from the table and
	// were encrypted as transform.Sentinel.
	Fallbacks int
}

// Encrypt maps every payload byte through pad[i]. It only fails when pad is
// shorter than payload; unmapped tokens become transform.Sentinel.
func Encrypt(payload []byte, tbl *table.Table, pad []byte) ([]byte, Stats, error) {
	if len(pad) < len(payload) {
		return nil, Stats{}, &cerrors.InsufficientPadError{Available: len(pad), Required: len(payload)}
	}

	out := make([]byte, len(payload))
	stats := Stats{Bytes: len(payload)}
	for i, plain := range payload {
		code, ok := transform.EncryptByte(pad[i], plain, tbl)
		if !ok {
			stats.Fallbacks++
		}
		out[i] = code
	}
	return out, stats, nil
}

// Decrypt recovers the plaintext of payload. The first byte that cannot be
// resolved aborts the pass and no output is returned.
func Decrypt(payload []byte, tbl *table.Table, pad []byte) ([]byte, error) {
	if len(pad) < len(payload) {
		return nil, &cerrors.InsufficientPadError{Available: len(pad), Required: len(payload)}
	}

	out := make([]byte, len(payload))
	for i, code := range payload {
		plain, err := transform.Decrypt(pad[i], code, tbl, i)
		if err != nil {
			return nil, err
		}
		out[i] = plain
	}
	return out, nil
}
