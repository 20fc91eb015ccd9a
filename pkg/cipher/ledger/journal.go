package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/provide-io/padcipher/internal/workenv"
	"github.com/provide-io/padcipher/pkg/cipher/checksums"
	cerrors "github.com/provide-io/padcipher/pkg/cipher/errors"
)

const (
	journalVersion = 1
	stagedSuffix   = ".staged"
	journalSuffix  = ".journal"
	lockSuffix     = ".lock"
)

// journal records a staged commit. Once it is on disk the commit is
// decided and Recover will finish it.
type journal struct {
	Version   int         `json:"version"`
	CreatedAt time.Time   `json:"created_at"`
	Archive   stagedFile  `json:"archive"`
	Pool      *stagedFile `json:"pool,omitempty"` // nil removes the pool
	PoolPath  string      `json:"pool_path"`
}

type stagedFile struct {
	Path     string `json:"path"`
	Staged   string `json:"staged"`
	Size     int    `json:"size"`
	Checksum string `json:"checksum"`
}

func (l *Ledger) journalPath() string { return l.opts.PoolPath + journalSuffix }

// stage writes data next to path and describes it for the journal.
func (l *Ledger) stage(path string, data []byte) (stagedFile, error) {
	staged := path + stagedSuffix
	if err := workenv.EnsureParent(path); err != nil {
		return stagedFile{}, cerrors.WrapIO("create directory", path, err)
	}
	if err := workenv.WriteFileSync(staged, data, l.opts.FileMode); err != nil {
		return stagedFile{}, cerrors.WrapIO("stage", staged, err)
	}
	return stagedFile{
		Path:     path,
		Staged:   staged,
		Size:     len(data),
		Checksum: checksums.Calculate(data, l.opts.Checksum),
	}, nil
}

// writeJournal publishes j atomically; after this returns the commit is durable.
func (l *Ledger) writeJournal(j *journal) error {
	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding journal: %w", err)
	}
	if err := workenv.WriteFileAtomic(l.journalPath(), data, l.opts.FileMode); err != nil {
		return cerrors.WrapIO("write journal", l.journalPath(), err)
	}
	return nil
}

func (l *Ledger) readJournal() (*journal, error) {
	data, err := os.ReadFile(l.journalPath())
	if err != nil {
		return nil, err
	}
	var j journal
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("%w: %v", cerrors.ErrJournal, err)
	}
	if j.Version != journalVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", cerrors.ErrJournal, j.Version)
	}
	return &j, nil
}

// apply moves every staged file into place. It is idempotent so a replay
// after a crash part-way through is safe.
func (l *Ledger) apply(j *journal) error {
	if err := l.install(j.Archive); err != nil {
		return err
	}

	if j.Pool != nil {
		if err := l.install(*j.Pool); err != nil {
			return err
		}
	} else if err := os.Remove(j.PoolPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cerrors.WrapIO("remove pool", j.PoolPath, err)
	} else if err == nil {
		l.logger.Info("🎲 Pad pool exhausted and removed", "path", j.PoolPath)
	}

	if err := os.Remove(l.journalPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cerrors.WrapIO("remove journal", l.journalPath(), err)
	}
	return nil
}

func (l *Ledger) install(f stagedFile) error {
	data, err := os.ReadFile(f.Staged)
	if errors.Is(err, os.ErrNotExist) {
		// Already renamed by an earlier attempt; the target must match.
		data, err = os.ReadFile(f.Path)
		if err != nil {
			return fmt.Errorf("%w: staged %s and target both unreadable: %v", cerrors.ErrJournal, f.Staged, err)
		}
		if ok, _ := checksums.Verify(data, f.Checksum); !ok {
			return fmt.Errorf("%w: %s does not match journal", cerrors.ErrJournal, f.Path)
		}
		return nil
	}
	if err != nil {
		return cerrors.WrapIO("read staged", f.Staged, err)
	}

	ok, err := checksums.Verify(data, f.Checksum)
	if err != nil {
		return fmt.Errorf("%w: %v", cerrors.ErrJournal, err)
	}
	if !ok || len(data) != f.Size {
		return fmt.Errorf("%w: staged %s does not match journal", cerrors.ErrJournal, f.Staged)
	}

	if err := os.Rename(f.Staged, f.Path); err != nil {
		return cerrors.WrapIO("install", f.Path, err)
	}
	l.logger.Trace("📥 Installed staged file", "path", f.Path, "size", f.Size)
	return nil
}

// Recover finishes or discards an interrupted commit. With a journal on
// disk the commit is replayed; without one, leftover staged files are
// removed and the pool is left as it was.
func (l *Ledger) Recover() error {
	j, err := l.readJournal()
	if err == nil {
		l.logger.Warn("🩹 Replaying interrupted pad commit",
			"journal", l.journalPath(),
			"created", j.CreatedAt.Format(time.RFC3339))
		return l.apply(j)
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	for _, staged := range []string{l.opts.ArchivePath + stagedSuffix, l.opts.PoolPath + stagedSuffix} {
		if err := os.Remove(staged); err == nil {
			l.logger.Info("🧹 Discarded uncommitted staged file", "path", staged)
		} else if !errors.Is(err, os.ErrNotExist) {
			return cerrors.WrapIO("remove staged", staged, err)
		}
	}
	return nil
}
