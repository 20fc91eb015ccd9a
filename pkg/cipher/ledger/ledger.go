// Package ledger manages the shared pad pool: the file of random bytes both
// parties consume from the front, one payload's worth per run.
//
// A run acquires a Reservation (the first n bytes and the rest), transforms
// its payload, then commits: the used bytes go to the archive file and the
// remainder replaces the pool, or the pool is removed when nothing remains.
// Commits are staged and journaled so a crash never leaves the archive and
// pool disagreeing about which bytes were consumed.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/padcipher/pkg/cipher/checksums"
	cerrors "github.com/provide-io/padcipher/pkg/cipher/errors"
)

// Options configures a Ledger.
type Options struct {
	PoolPath    string
	ArchivePath string

	// FileMode is applied to the archive and pool files. Defaults to 0600.
	FileMode os.FileMode

	// Lock serializes runs sharing the pool through <pool>.lock.
	Lock        bool
	LockTimeout time.Duration

	// Checksum is the digest recorded in the journal and reported by Status.
	Checksum checksums.Algorithm

	Logger hclog.Logger
}

// Ledger is the pad pool and its archive.
type Ledger struct {
	opts   Options
	logger hclog.Logger
	locked bool
}

// Reservation is the split of the pool computed by Acquire.
type Reservation struct {
	Used      []byte
	Remaining []byte

	committed bool
}

// Status describes the persisted ledger files.
type Status struct {
	PoolPath        string
	PoolSize        int
	PoolExists      bool
	ArchivePath     string
	ArchiveSize     int
	ArchiveExists   bool
	ArchiveChecksum string
	PendingJournal  bool
	LockHolder      int
}

// Open validates opts and finishes any interrupted commit.
func Open(opts Options) (*Ledger, error) {
	if opts.PoolPath == "" {
		return nil, fmt.Errorf("pool path is required")
	}
	if opts.ArchivePath == "" {
		return nil, fmt.Errorf("archive path is required")
	}
	if opts.FileMode == 0 {
		opts.FileMode = 0o600
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}

	l := &Ledger{
		opts:   opts,
		logger: opts.Logger.Named("ledger"),
	}
	if err := l.recoverIfIdle(); err != nil {
		return nil, err
	}
	return l, nil
}

// recoverIfIdle runs Recover unless another holder has the pool lock. A
// holder may be mid-commit; its staged files are left alone and recovery
// happens when the lock is next taken.
func (l *Ledger) recoverIfIdle() error {
	if !l.opts.Lock {
		return l.Recover()
	}
	ok, err := tryAcquireLock(l.lockPath(), l.logger)
	if err != nil {
		return err
	}
	if !ok {
		l.logger.Debug("⏭️ Pad pool busy, deferring recovery", "lock", l.lockPath())
		return nil
	}
	defer releaseLock(l.lockPath(), l.logger)
	return l.Recover()
}

// PoolPath returns the pool file path.
func (l *Ledger) PoolPath() string { return l.opts.PoolPath }

// ArchivePath returns the archive file path.
func (l *Ledger) ArchivePath() string { return l.opts.ArchivePath }

func (l *Ledger) lockPath() string { return l.opts.PoolPath + lockSuffix }

// readPool returns the pool contents; a missing pool is empty.
func (l *Ledger) readPool() ([]byte, error) {
	data, err := os.ReadFile(l.opts.PoolPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, cerrors.WrapIO("read pool", l.opts.PoolPath, err)
	}
	return data, nil
}

func (l *Ledger) lock(ctx context.Context) error {
	if !l.opts.Lock || l.locked {
		return nil
	}
	if err := waitForLock(ctx, l.lockPath(), l.opts.LockTimeout, l.logger); err != nil {
		return err
	}
	l.locked = true

	// A holder that died mid-commit left its journal for us.
	if err := l.Recover(); err != nil {
		l.Release()
		return err
	}
	return nil
}

// Release drops the pool lock without committing.
func (l *Ledger) Release() {
	if !l.locked {
		return
	}
	releaseLock(l.lockPath(), l.logger)
	l.locked = false
}

// Acquire reserves the first n pad bytes. If the pool holds fewer than n
// bytes it returns an *errors.InsufficientPadError and nothing on disk
// changes. With locking enabled the lock is held until Commit or Release.
func (l *Ledger) Acquire(ctx context.Context, n int) (*Reservation, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative reservation size %d", n)
	}
	if err := l.lock(ctx); err != nil {
		return nil, err
	}

	pool, err := l.readPool()
	if err != nil {
		l.Release()
		return nil, err
	}

	if len(pool) < n {
		l.Release()
		return nil, &cerrors.InsufficientPadError{Available: len(pool), Required: n}
	}

	l.logger.Debug("🎲 Reserved pad bytes",
		"pool", l.opts.PoolPath,
		"used", n,
		"remaining", len(pool)-n)

	return &Reservation{
		Used:      pool[:n:n],
		Remaining: pool[n:],
	}, nil
}

// Commit persists a reservation: Used overwrites the archive and Remaining
// replaces the pool, which is removed when Remaining is empty.
func (l *Ledger) Commit(res *Reservation) error {
	if res == nil {
		return fmt.Errorf("nil reservation")
	}
	if res.committed {
		return fmt.Errorf("reservation already committed")
	}
	defer l.Release()

	archive, err := l.stage(l.opts.ArchivePath, res.Used)
	if err != nil {
		return err
	}

	j := &journal{
		Version:   journalVersion,
		CreatedAt: time.Now().UTC(),
		Archive:   archive,
		PoolPath:  l.opts.PoolPath,
	}
	if len(res.Remaining) > 0 {
		pool, err := l.stage(l.opts.PoolPath, res.Remaining)
		if err != nil {
			os.Remove(archive.Staged)
			return err
		}
		j.Pool = &pool
	}

	if err := l.writeJournal(j); err != nil {
		os.Remove(archive.Staged)
		if j.Pool != nil {
			os.Remove(j.Pool.Staged)
		}
		return err
	}
	res.committed = true

	if err := l.apply(j); err != nil {
		return err
	}

	l.logger.Info("📦 Moved used pad bytes to archive",
		"archive", l.opts.ArchivePath,
		"used", len(res.Used))
	if len(res.Remaining) > 0 {
		l.logger.Info("🎲 Updated pad pool", "path", l.opts.PoolPath, "remaining", len(res.Remaining))
	}
	return nil
}

// ReadArchive returns the pad bytes consumed by the most recent run.
func (l *Ledger) ReadArchive() ([]byte, error) {
	data, err := os.ReadFile(l.opts.ArchivePath)
	if err != nil {
		return nil, cerrors.WrapIO("read archive", l.opts.ArchivePath, err)
	}
	return data, nil
}

// Status reports the state of the pool and archive files.
func (l *Ledger) Status() (Status, error) {
	st := Status{
		PoolPath:    l.opts.PoolPath,
		ArchivePath: l.opts.ArchivePath,
		LockHolder:  lockHolder(l.lockPath()),
	}

	if info, err := os.Stat(l.opts.PoolPath); err == nil {
		st.PoolExists = true
		st.PoolSize = int(info.Size())
	} else if !errors.Is(err, os.ErrNotExist) {
		return st, cerrors.WrapIO("stat pool", l.opts.PoolPath, err)
	}

	archive, err := os.ReadFile(l.opts.ArchivePath)
	if err == nil {
		st.ArchiveExists = true
		st.ArchiveSize = len(archive)
		st.ArchiveChecksum = checksums.Calculate(archive, l.opts.Checksum)
	} else if !errors.Is(err, os.ErrNotExist) {
		return st, cerrors.WrapIO("read archive", l.opts.ArchivePath, err)
	}

	if _, err := os.Stat(l.journalPath()); err == nil {
		st.PendingJournal = true
	}
	return st, nil
}

// Acquire reads the pool at poolPath and splits off its first n bytes
// without locking.
func Acquire(poolPath string, n int) (used, remaining []byte, err error) {
	l := &Ledger{
		opts:   Options{PoolPath: poolPath, FileMode: 0o600},
		logger: hclog.NewNullLogger(),
	}
	res, err := l.Acquire(context.Background(), n)
	if err != nil {
		return nil, nil, err
	}
	return res.Used, res.Remaining, nil
}

// Commit writes used to archivePath and remaining to poolPath, removing
// poolPath when remaining is empty.
func Commit(used, remaining []byte, archivePath, poolPath string) error {
	l, err := Open(Options{PoolPath: poolPath, ArchivePath: archivePath})
	if err != nil {
		return err
	}
	return l.Commit(&Reservation{Used: used, Remaining: remaining})
}
