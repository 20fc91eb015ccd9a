package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/padcipher/internal/workenv"
	cerrors "github.com/provide-io/padcipher/pkg/cipher/errors"
	"github.com/provide-io/padcipher/pkg/cipher/ledger"
	"github.com/provide-io/padcipher/pkg/cipher/table"
	"github.com/provide-io/padcipher/pkg/cipher/transform"
)

// Options configures a Runner.
type Options struct {
	TablePath string
	FileMode  os.FileMode
	Logger    hclog.Logger
}

// Runner executes encrypt and decrypt runs over files, drawing pad bytes
// from a ledger.
type Runner struct {
	ledger *ledger.Ledger
	opts   Options
	logger hclog.Logger
}

// Result describes a completed run.
type Result struct {
	OutputPath string
	Bytes      int
	Fallbacks  int
}

// NewRunner creates a runner over l.
func NewRunner(l *ledger.Ledger, opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	if opts.FileMode == 0 {
		opts.FileMode = 0o600
	}
	return &Runner{
		ledger: l,
		opts:   opts,
		logger: opts.Logger.Named("pipeline"),
	}
}

// prepare loads the table and payload. Nothing on disk changes here.
func (r *Runner) prepare(inputPath string) (*table.Table, []byte, error) {
	tbl, err := table.LoadWithLogger(r.opts.TablePath, r.logger)
	if err != nil {
		return nil, nil, err
	}

	payload, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, nil, cerrors.WrapIO("read payload", inputPath, err)
	}
	return tbl, payload, nil
}

func (r *Runner) writeOutput(path string, data []byte) error {
	if err := workenv.WriteFileAtomic(path, data, r.opts.FileMode); err != nil {
		return cerrors.WrapIO("write output", path, err)
	}
	return nil
}

// EncryptFile encrypts inputPath into outputPath, consuming len(input) pad
// bytes.
func (r *Runner) EncryptFile(ctx context.Context, inputPath, outputPath string) (*Result, error) {
	tbl, payload, err := r.prepare(inputPath)
	if err != nil {
		return nil, err
	}

	res, err := r.ledger.Acquire(ctx, len(payload))
	if err != nil {
		return nil, err
	}

	out, stats, err := Encrypt(payload, tbl, res.Used)
	if err != nil {
		r.ledger.Release()
		return nil, err
	}
	if stats.Fallbacks > 0 {
		r.logger.Warn("⚠️ Tokens missing from table, emitted sentinel code",
			"count", stats.Fallbacks,
			"sentinel", fmt.Sprintf("0x%02X", transform.Sentinel))
	}

	if err := r.ledger.Commit(res); err != nil {
		return nil, fmt.Errorf("committing pad: %w", err)
	}
	if err := r.writeOutput(outputPath, out); err != nil {
		return nil, err
	}

	r.logger.Info("🔐 Encrypted payload", "input", inputPath, "output", outputPath, "bytes", stats.Bytes)
	return &Result{OutputPath: outputPath, Bytes: stats.Bytes, Fallbacks: stats.Fallbacks}, nil
}

// DecryptFile decrypts inputPath into outputPath, consuming len(input) pad
// bytes. A byte that cannot be decrypted aborts the run before the pool or
// any output is touched.
func (r *Runner) DecryptFile(ctx context.Context, inputPath, outputPath string) (*Result, error) {
	tbl, payload, err := r.prepare(inputPath)
	if err != nil {
		return nil, err
	}

	res, err := r.ledger.Acquire(ctx, len(payload))
	if err != nil {
		return nil, err
	}

	out, err := Decrypt(payload, tbl, res.Used)
	if err != nil {
		r.ledger.Release()
		return nil, err
	}

	if err := r.ledger.Commit(res); err != nil {
		return nil, fmt.Errorf("committing pad: %w", err)
	}
	if err := r.writeOutput(outputPath, out); err != nil {
		return nil, err
	}

	r.logger.Info("🔓 Decrypted payload", "input", inputPath, "output", outputPath, "bytes", len(out))
	return &Result{OutputPath: outputPath, Bytes: len(out)}, nil
}

// DecryptFromArchive decrypts inputPath with the pad bytes of the most
// recent run, read from the archive. The pool is not consumed.
func (r *Runner) DecryptFromArchive(inputPath, outputPath string) (*Result, error) {
	tbl, payload, err := r.prepare(inputPath)
	if err != nil {
		return nil, err
	}

	pad, err := r.ledger.ReadArchive()
	if err != nil {
		return nil, err
	}

	out, err := Decrypt(payload, tbl, pad)
	if err != nil {
		return nil, err
	}
	if err := r.writeOutput(outputPath, out); err != nil {
		return nil, err
	}

	r.logger.Info("🔓 Decrypted payload from archive", "input", inputPath, "output", outputPath, "bytes", len(out))
	return &Result{OutputPath: outputPath, Bytes: len(out)}, nil
}
