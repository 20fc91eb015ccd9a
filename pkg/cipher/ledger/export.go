package ledger

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/provide-io/padcipher/internal/workenv"
	cerrors "github.com/provide-io/padcipher/pkg/cipher/errors"
	"github.com/provide-io/padcipher/pkg/cipher/operations"
	_ "github.com/provide-io/padcipher/pkg/cipher/operations/compress"
)

// Export writes the current pool to w through the named codec so it can be
// handed to the other party. The pool itself is not modified.
func (l *Ledger) Export(ctx context.Context, w io.Writer, codec string) (int, error) {
	op, err := operations.GetByName(codec)
	if err != nil {
		return 0, err
	}
	if err := l.lock(ctx); err != nil {
		return 0, err
	}
	defer l.Release()

	pool, err := l.readPool()
	if err != nil {
		return 0, err
	}
	if err := op.ApplyStream(bytes.NewReader(pool), w); err != nil {
		return 0, fmt.Errorf("exporting pool as %s: %w", op.Name(), err)
	}

	l.logger.Info("📤 Exported pad pool", "codec", op.Name(), "bytes", len(pool))
	return len(pool), nil
}

// Import replaces the pool with the decoded contents of r. An existing
// non-empty pool is only overwritten when force is set.
func (l *Ledger) Import(ctx context.Context, r io.Reader, codec string, force bool) (int, error) {
	op, err := operations.GetByName(codec)
	if err != nil {
		return 0, err
	}
	if err := l.lock(ctx); err != nil {
		return 0, err
	}
	defer l.Release()

	current, err := l.readPool()
	if err != nil {
		return 0, err
	}
	if len(current) > 0 && !force {
		return 0, fmt.Errorf("pool %s already holds %d bytes, refusing to overwrite", l.opts.PoolPath, len(current))
	}

	var buf bytes.Buffer
	if err := op.ReverseStream(r, &buf); err != nil {
		return 0, fmt.Errorf("importing pool as %s: %w", op.Name(), err)
	}

	if err := workenv.WriteFileAtomic(l.opts.PoolPath, buf.Bytes(), l.opts.FileMode); err != nil {
		return 0, cerrors.WrapIO("write pool", l.opts.PoolPath, err)
	}

	l.logger.Info("📥 Imported pad pool", "codec", op.Name(), "bytes", buf.Len(), "replaced", len(current))
	return buf.Len(), nil
}
