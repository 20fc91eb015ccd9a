package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/provide-io/padcipher/pkg/cipher/checksums"
)

var envKeys = []string{
	"PADCIPHER_TABLE", "PADCIPHER_POOL", "PADCIPHER_ARCHIVE", "PADCIPHER_INPUT",
	"PADCIPHER_ENCRYPTED", "PADCIPHER_DECRYPTED", "PADCIPHER_FILE_MODE",
	"PADCIPHER_CHECKSUM", "PADCIPHER_LOCK", "PADCIPHER_LOCK_TIMEOUT",
}

// clearEnv unsets every PADCIPHER_* key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		if old, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, old) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(LoadOptions{WorkDir: t.TempDir(), SkipUserConfig: true})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), `
table: tables/main.txt
pool: pads/pool.bin
lock: false
lock_timeout: 3s
checksum: blake2b
`)
	writeFile(t, filepath.Join(dir, ".env"), "PADCIPHER_POOL=from-dotenv.bin\nPADCIPHER_FILE_MODE=0640\n")
	os.Setenv("PADCIPHER_FILE_MODE", "0600")

	cfg, err := Load(LoadOptions{WorkDir: dir, SkipUserConfig: true})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Table != "tables/main.txt" {
		t.Errorf("Table = %q (file value expected)", cfg.Table)
	}
	if cfg.Pool != "from-dotenv.bin" {
		t.Errorf("Pool = %q (.env value expected)", cfg.Pool)
	}
	if cfg.FileMode != "0600" {
		t.Errorf("FileMode = %q (.env must not override the environment)", cfg.FileMode)
	}
	if cfg.Lock {
		t.Error("Lock = true, want false from file")
	}
	if cfg.LockTimeout != 3*time.Second {
		t.Errorf("LockTimeout = %v", cfg.LockTimeout)
	}
	if algo, _ := cfg.ChecksumAlgorithm(); algo != checksums.Blake2b {
		t.Errorf("ChecksumAlgorithm = %v", algo)
	}
	if cfg.Input != Default().Input {
		t.Errorf("Input = %q, want default", cfg.Input)
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yml")
	writeFile(t, path, "archive: archive.bin\n")

	cfg, err := Load(LoadOptions{Path: path, WorkDir: dir, SkipUserConfig: true})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Archive != "archive.bin" {
		t.Errorf("Archive = %q", cfg.Archive)
	}

	if _, err := Load(LoadOptions{Path: filepath.Join(dir, "missing.yml"), WorkDir: dir, SkipUserConfig: true}); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestLoad_UserConfig(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	t.Setenv("PADCIPHER_HOME", root)
	writeFile(t, filepath.Join(root, FileName), "encrypted: out.bin\n")

	cfg, err := Load(LoadOptions{WorkDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Encrypted != "out.bin" {
		t.Errorf("Encrypted = %q", cfg.Encrypted)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{name: "bad yaml", file: "table: [unterminated"},
		{name: "bad file mode", file: `file_mode: "0400"`},
		{name: "bad checksum", file: "checksum: md5"},
		{name: "empty pool", file: "pool: \"\""},
		{name: "bad lock env", env: map[string]string{"PADCIPHER_LOCK": "maybe"}},
		{name: "bad timeout env", env: map[string]string{"PADCIPHER_LOCK_TIMEOUT": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			dir := t.TempDir()
			if tt.file != "" {
				writeFile(t, filepath.Join(dir, FileName), tt.file)
			}
			for k, v := range tt.env {
				os.Setenv(k, v)
			}
			if _, err := Load(LoadOptions{WorkDir: dir, SkipUserConfig: true}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestResolved(t *testing.T) {
	cfg := Default()
	cfg.Table = "/abs/table.txt"
	got := cfg.Resolved("/work")

	if got.Table != "/abs/table.txt" {
		t.Errorf("absolute path rewritten: %q", got.Table)
	}
	if got.Pool != filepath.Join("/work", "random_bytes.bin") {
		t.Errorf("Pool = %q", got.Pool)
	}
	if cfg.Pool != "random_bytes.bin" {
		t.Error("Resolved modified the receiver")
	}
}
