package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/provide-io/padcipher/internal/config"
	"github.com/provide-io/padcipher/internal/workenv"
	cerrors "github.com/provide-io/padcipher/pkg/cipher/errors"
	"github.com/provide-io/padcipher/pkg/cipher/ledger"
	"github.com/provide-io/padcipher/pkg/cipher/operations"
	"github.com/provide-io/padcipher/pkg/cipher/padgen"
	"github.com/provide-io/padcipher/pkg/cipher/pipeline"
	"github.com/provide-io/padcipher/pkg/logging"
	"github.com/provide-io/padcipher/pkg/utils/permissions"
	"github.com/provide-io/padcipher/pkg/utils/size"
)

// pathFlags are the per-command file overrides.
type pathFlags struct {
	input   string
	output  string
	table   string
	pool    string
	archive string
}

func (p *pathFlags) register(cmd *cobra.Command, inputHelp, outputHelp string) {
	cmd.Flags().StringVarP(&p.input, "input", "i", "", inputHelp)
	cmd.Flags().StringVarP(&p.output, "output", "o", "", outputHelp)
	cmd.Flags().StringVarP(&p.table, "table", "t", "", "Conversion table (default conversionTable.txt)")
	cmd.Flags().StringVarP(&p.pool, "pool", "p", "", "Pad pool file (default random_bytes.bin)")
	cmd.Flags().StringVarP(&p.archive, "archive", "a", "", "Used-pad archive (default .temp_random_bytes/used_random_bytes.bin)")
}

// app is the resolved state shared by every command.
type app struct {
	cfg    config.Config
	base   string
	logger hclog.Logger
}

func setup(cmd *cobra.Command, apply func(*config.Config)) (*app, error) {
	cfg, err := config.Load(config.LoadOptions{Path: configPath, WorkDir: workDir})
	if err != nil {
		return nil, err
	}
	if apply != nil {
		apply(&cfg)
	}
	if noLock {
		cfg.Lock = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := workDir
	if base == "" {
		if base, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("determine working directory: %w", err)
		}
	}

	logger := logging.NewLogger("padcipher", logging.ResolveLogLevel(logLevel, cfg.LogLevel), cmd.ErrOrStderr())
	mode, _ := cfg.Mode()
	logger.Debug("🔧 Configuration resolved",
		"workdir", base,
		"lock", cfg.Lock,
		"checksum", cfg.Checksum,
		"file_mode", permissions.FormatOctal(mode))

	return &app{cfg: cfg.Resolved(base), base: base, logger: logger}, nil
}

func (a *app) openLedger() (*ledger.Ledger, error) {
	mode, _ := a.cfg.Mode()
	algo, _ := a.cfg.ChecksumAlgorithm()
	return ledger.Open(ledger.Options{
		PoolPath:    a.cfg.Pool,
		ArchivePath: a.cfg.Archive,
		FileMode:    mode,
		Lock:        a.cfg.Lock,
		LockTimeout: a.cfg.LockTimeout,
		Checksum:    algo,
		Logger:      a.logger,
	})
}

func (a *app) runner() (*pipeline.Runner, *ledger.Ledger, error) {
	l, err := a.openLedger()
	if err != nil {
		return nil, nil, err
	}
	mode, _ := a.cfg.Mode()
	return pipeline.NewRunner(l, pipeline.Options{
		TablePath: a.cfg.Table,
		FileMode:  mode,
		Logger:    a.logger,
	}), l, nil
}

// apply copies the non-empty flags onto cfg. input and output select the
// config fields the command reads and writes.
func (p *pathFlags) apply(input, output func(*config.Config) *string) func(*config.Config) {
	return func(cfg *config.Config) {
		overrides := []struct {
			dst *string
			val string
		}{
			{input(cfg), p.input},
			{output(cfg), p.output},
			{&cfg.Table, p.table},
			{&cfg.Pool, p.pool},
			{&cfg.Archive, p.archive},
		}
		for _, o := range overrides {
			if o.val != "" {
				*o.dst = o.val
			}
		}
	}
}

// reportLedger prints the pad bookkeeping summary after a run.
func reportLedger(w io.Writer, l *ledger.Ledger, used int) {
	fmt.Fprintf(w, "Moved %d used random bytes to %s\n", used, l.ArchivePath())
	st, err := l.Status()
	if err != nil {
		return
	}
	if st.PoolExists {
		fmt.Fprintf(w, "Updated %s with %d remaining bytes.\n", st.PoolPath, st.PoolSize)
	} else {
		fmt.Fprintf(w, "%s is now empty and has been removed.\n", st.PoolPath)
	}
}

// reportInsufficient prints the guard message for an InsufficientPadError.
func reportInsufficient(cmd *cobra.Command, err error, pool, payload, verb string) {
	var ipe *cerrors.InsufficientPadError
	if errors.As(err, &ipe) {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s is smaller than %s (%d < %d bytes). Cannot %s.\n",
			pool, payload, ipe.Available, ipe.Required, verb)
	}
}

func newEncryptCmd() *cobra.Command {
	var paths pathFlags
	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt a payload, consuming pad bytes from the pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, paths.apply(
				func(c *config.Config) *string { return &c.Input },
				func(c *config.Config) *string { return &c.Encrypted },
			))
			if err != nil {
				return err
			}
			input, output := a.cfg.Input, a.cfg.Encrypted

			r, l, err := a.runner()
			if err != nil {
				return err
			}
			res, err := r.EncryptFile(cmd.Context(), input, output)
			if err != nil {
				reportInsufficient(cmd, err, a.cfg.Pool, input, "encrypt")
				return err
			}

			out := cmd.OutOrStdout()
			reportLedger(out, l, res.Bytes)
			if res.Fallbacks > 0 {
				fmt.Fprintf(out, "Warning: %d bytes had no table entry and were written as 0xFF.\n", res.Fallbacks)
			}
			fmt.Fprintf(out, "Processed %d bytes... Done!\n", res.Bytes)
			return nil
		},
	}
	paths.register(cmd, "Plaintext payload (default input_bytes.bin)", "Encrypted output (default changes.bin)")
	return cmd
}

func newDecryptCmd() *cobra.Command {
	var (
		paths       pathFlags
		fromArchive bool
	)
	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypt a payload, consuming pad bytes from the pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, paths.apply(
				func(c *config.Config) *string { return &c.Encrypted },
				func(c *config.Config) *string { return &c.Decrypted },
			))
			if err != nil {
				return err
			}
			input, output := a.cfg.Encrypted, a.cfg.Decrypted

			r, l, err := a.runner()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if fromArchive {
				res, err := r.DecryptFromArchive(input, output)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Processed %d bytes from %s... Done!\n", res.Bytes, l.ArchivePath())
				return nil
			}

			res, err := r.DecryptFile(cmd.Context(), input, output)
			if err != nil {
				reportInsufficient(cmd, err, a.cfg.Pool, input, "decrypt")
				return err
			}
			reportLedger(out, l, res.Bytes)
			fmt.Fprintf(out, "Processed %d bytes... Done!\n", res.Bytes)
			return nil
		},
	}
	paths.register(cmd, "Encrypted payload (default changes.bin)", "Decrypted output (default reversed_bytes.bin)")
	cmd.Flags().BoolVar(&fromArchive, "from-archive", false, "Use the archived pad of the last run instead of consuming the pool")
	return cmd
}

func newPadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pad",
		Short: "Manage the pad pool",
	}
	cmd.AddCommand(newPadGenerateCmd(), newPadStatusCmd(), newPadExportCmd(), newPadImportCmd())
	return cmd
}

func newPadGenerateCmd() *cobra.Command {
	var sizeSpec, input, pool string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Fill the pad pool with random bytes",
		Long: `Fill the pad pool with random bytes. The size is taken from --size
(e.g. 1gb, 3kb, 39bytes) or, when omitted, from the length of the input file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, func(cfg *config.Config) {
				if pool != "" {
					cfg.Pool = pool
				}
				if input != "" {
					cfg.Input = input
				}
			})
			if err != nil {
				return err
			}

			n, err := size.Resolve(sizeSpec, a.cfg.Input)
			if err != nil {
				return err
			}
			if st, err := os.Stat(a.cfg.Pool); err == nil && st.Size() > 0 {
				a.logger.Warn("♻️ Replacing existing pad pool", "path", a.cfg.Pool, "bytes", st.Size())
			}

			mode, _ := a.cfg.Mode()
			if err := padgen.WriteFile(a.cfg.Pool, n, mode, a.logger); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully generated %d random bytes to %s.\n", n, a.cfg.Pool)
			return nil
		},
	}
	cmd.Flags().StringVarP(&sizeSpec, "size", "s", "", "Pool size with unit: b, bytes, kb, mb, gb")
	cmd.Flags().StringVarP(&input, "input", "i", "", "File whose length sizes the pool when --size is omitted")
	cmd.Flags().StringVarP(&pool, "pool", "p", "", "Pad pool file to write")
	return cmd
}

func newPadStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pad pool and archive state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, nil)
			if err != nil {
				return err
			}
			l, err := a.openLedger()
			if err != nil {
				return err
			}
			st, err := l.Status()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if st.PoolExists {
				fmt.Fprintf(out, "Pool:    %s (%d bytes)\n", st.PoolPath, st.PoolSize)
			} else {
				fmt.Fprintf(out, "Pool:    %s (absent, 0 bytes)\n", st.PoolPath)
			}
			if st.ArchiveExists {
				fmt.Fprintf(out, "Archive: %s (%d bytes, %s)\n", st.ArchivePath, st.ArchiveSize, st.ArchiveChecksum)
			} else {
				fmt.Fprintf(out, "Archive: %s (absent)\n", st.ArchivePath)
			}
			if st.LockHolder != 0 {
				fmt.Fprintf(out, "Lock:    held by pid %d\n", st.LockHolder)
			}
			return nil
		},
	}
}

func newPadExportCmd() *cobra.Command {
	var codec, outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the pad pool for transfer to the other party",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, nil)
			if err != nil {
				return err
			}
			l, err := a.openLedger()
			if err != nil {
				return err
			}

			if outPath == "" {
				_, err := l.Export(cmd.Context(), cmd.OutOrStdout(), codec)
				return err
			}

			path := workenv.Resolve(a.base, outPath)
			mode, _ := a.cfg.Mode()
			f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
			if err != nil {
				return cerrors.WrapIO("create export", path, err)
			}
			n, err := exportTo(cmd.Context(), l, f, path, codec)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d pad bytes to %s.\n", n, outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&codec, "codec", "raw", fmt.Sprintf("Envelope codec (%v)", operations.Names()))
	cmd.Flags().StringVar(&outPath, "out", "", "Destination file (default stdout)")
	return cmd
}

// exportTo writes the pool to w and closes it. A failed close means the
// export is incomplete and is reported as an error.
func exportTo(ctx context.Context, l *ledger.Ledger, w io.WriteCloser, path, codec string) (int, error) {
	n, err := l.Export(ctx, w, codec)
	if err != nil {
		w.Close()
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, cerrors.WrapIO("close export", path, err)
	}
	return n, nil
}

func newPadImportCmd() *cobra.Command {
	var (
		codec, inPath string
		force         bool
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Install a pad pool received from the other party",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, nil)
			if err != nil {
				return err
			}
			l, err := a.openLedger()
			if err != nil {
				return err
			}

			r := cmd.InOrStdin()
			if inPath != "" {
				f, err := os.Open(workenv.Resolve(a.base, inPath))
				if err != nil {
					return cerrors.WrapIO("open import", inPath, err)
				}
				defer f.Close()
				r = f
			}

			n, err := l.Import(cmd.Context(), r, codec, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d pad bytes into %s.\n", n, l.PoolPath())
			return nil
		},
	}
	cmd.Flags().StringVar(&codec, "codec", "raw", fmt.Sprintf("Envelope codec (%v)", operations.Names()))
	cmd.Flags().StringVar(&inPath, "in", "", "Source file (default stdin)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite a non-empty pool")
	return cmd
}
