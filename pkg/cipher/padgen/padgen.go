// Package padgen fills pad pool files with random bytes.
package padgen

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/padcipher/internal/workenv"
	cerrors "github.com/provide-io/padcipher/pkg/cipher/errors"
)

// ChunkSize is the write granularity of Generate.
const ChunkSize = 1024 * 1024

// Generate writes n bytes read from src to w in ChunkSize pieces. A nil src
// uses crypto/rand.
func Generate(w io.Writer, src io.Reader, n int64) (int64, error) {
	if n < 0 {
		return 0, fmt.Errorf("negative pad size %d", n)
	}
	if src == nil {
		src = rand.Reader
	}

	buf := make([]byte, min(n, ChunkSize))
	var written int64
	for written < n {
		chunk := buf[:min(n-written, int64(len(buf)))]
		if _, err := io.ReadFull(src, chunk); err != nil {
			return written, fmt.Errorf("reading random bytes: %w", err)
		}
		m, err := w.Write(chunk)
		written += int64(m)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// WriteFile replaces the pool at path with n fresh random bytes.
func WriteFile(path string, n int64, perm os.FileMode, logger hclog.Logger) error {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if err := workenv.EnsureParent(path); err != nil {
		return cerrors.WrapIO("create directory", path, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return cerrors.WrapIO("create pool", path, err)
	}

	written, err := Generate(f, nil, n)
	if err != nil {
		f.Close()
		return cerrors.WrapIO("write pool", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return cerrors.WrapIO("sync pool", path, err)
	}
	if err := f.Close(); err != nil {
		return cerrors.WrapIO("close pool", path, err)
	}

	logger.Info("🎲 Generated pad pool", "path", path, "bytes", written)
	return nil
}
