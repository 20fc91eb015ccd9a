package ledger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"

	cerrors "github.com/provide-io/padcipher/pkg/cipher/errors"
)

const (
	lockPollInterval = 100 * time.Millisecond

	// lockGracePeriod is how long an unreadable lock file counts as held.
	lockGracePeriod = 5 * time.Second
)

// isProcessRunning checks if a process with given PID is still running
func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix, Signal(0) checks if process exists without actually sending a signal
	err = process.Signal(syscall.Signal(0))
	return err == nil
}

// lockIsStale reports whether the lock file at lockPath may be removed.
// A lock naming a live process (including this one) is held; a lock whose
// contents cannot be parsed is held until it is older than lockGracePeriod.
func lockIsStale(lockPath string, data []byte, logger hclog.Logger) bool {
	if oldPid, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil {
		if isProcessRunning(oldPid) {
			logger.Debug("🔒 Pad pool locked by active process", "pid", oldPid)
			return false
		}
		logger.Info("🧹 Removing stale pad lock", "pid", oldPid)
		return true
	}

	info, err := os.Stat(lockPath)
	if err != nil {
		return false
	}
	if age := time.Since(info.ModTime()); age < lockGracePeriod {
		logger.Debug("🔒 Unreadable pad lock is recent, treating as held", "age", age)
		return false
	}
	logger.Info("🧹 Removing invalid pad lock (couldn't parse PID)")
	return true
}

// tryAcquireLock attempts to install the pool lock file. The PID is written
// to a temporary sibling first and hard-linked into place, so the lock never
// exists without its PID. Returns false if another holder has it.
func tryAcquireLock(lockPath string, logger hclog.Logger) (bool, error) {
	pid := os.Getpid()

	if data, err := os.ReadFile(lockPath); err == nil {
		if !lockIsStale(lockPath, data, logger) {
			return false, nil
		}
		os.Remove(lockPath)
	}

	tmp, err := os.CreateTemp(filepath.Dir(lockPath), "."+filepath.Base(lockPath)+".*.tmp")
	if err != nil {
		return false, cerrors.WrapIO("create lock", lockPath, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	_, werr := fmt.Fprintf(tmp, "%d\n", pid)
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return false, cerrors.WrapIO("write lock", lockPath, werr)
	}

	if err := os.Link(tmpPath, lockPath); err != nil {
		if os.IsExist(err) {
			logger.Debug("🔒 Lock file appeared, another process won the race")
			return false, nil
		}
		return false, cerrors.WrapIO("create lock", lockPath, err)
	}

	logger.Debug("🔒 Acquired pad lock", "pid", pid)
	return true, nil
}

// waitForLock polls for the lock until it is acquired, timeout elapses or
// ctx is done. A zero timeout tries exactly once.
func waitForLock(ctx context.Context, lockPath string, timeout time.Duration, logger hclog.Logger) error {
	deadline := time.Now().Add(timeout)
	for attempt := 0; ; attempt++ {
		ok, err := tryAcquireLock(lockPath, logger)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("%w: %s", cerrors.ErrLocked, lockPath)
		}

		if attempt%10 == 0 {
			logger.Debug("⏳ Waiting for pad lock...",
				"elapsed", time.Duration(attempt)*lockPollInterval,
				"timeout", timeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

// releaseLock removes the lock file
func releaseLock(lockPath string, logger hclog.Logger) {
	if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
		logger.Debug("⚠️ Failed to remove lock file", "error", err)
	} else {
		logger.Debug("🔓 Released pad lock")
	}
}

// lockHolder returns the PID recorded in the lock file, or 0.
func lockHolder(lockPath string) int {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}
