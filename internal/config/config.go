// Package config resolves padcipher settings from defaults, YAML files, a
// .env file and PADCIPHER_* environment variables, in that order of
// increasing precedence. Command-line flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/provide-io/padcipher/internal/workenv"
	"github.com/provide-io/padcipher/pkg/cipher/checksums"
	"github.com/provide-io/padcipher/pkg/utils/permissions"
)

// FileName is the configuration file looked up in the work directory and
// the per-user config root.
const FileName = "padcipher.yml"

// Config captures the resolved padcipher settings.
type Config struct {
	Table     string `yaml:"table"`
	Pool      string `yaml:"pool"`
	Archive   string `yaml:"archive"`
	Input     string `yaml:"input"`
	Encrypted string `yaml:"encrypted"`
	Decrypted string `yaml:"decrypted"`

	Lock        bool          `yaml:"lock"`
	LockTimeout time.Duration `yaml:"lock_timeout"`

	FileMode string `yaml:"file_mode"`
	Checksum string `yaml:"checksum"`
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration, using the file names the
// tool has always used.
func Default() Config {
	return Config{
		Table:       "conversionTable.txt",
		Pool:        "random_bytes.bin",
		Archive:     filepath.Join(".temp_random_bytes", "used_random_bytes.bin"),
		Input:       "input_bytes.bin",
		Encrypted:   "changes.bin",
		Decrypted:   "reversed_bytes.bin",
		Lock:        true,
		LockTimeout: 10 * time.Second,
		FileMode:    "0600",
		Checksum:    "sha256",
	}
}

// LoadOptions controls where Load looks.
type LoadOptions struct {
	// Path is an explicit config file; it must exist when set.
	Path string
	// WorkDir holds the local padcipher.yml and .env. Defaults to the
	// current directory.
	WorkDir string
	// SkipUserConfig ignores the per-user config root.
	SkipUserConfig bool
}

// Load resolves the configuration. The lookup order is:
//  1. <config root>/padcipher.yml
//  2. opts.Path, or <workdir>/padcipher.yml
//  3. <workdir>/.env (never overrides variables already set)
//  4. PADCIPHER_* environment variables
func Load(opts LoadOptions) (Config, error) {
	cfg := Default()

	if opts.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("determine working directory: %w", err)
		}
		opts.WorkDir = wd
	}

	if !opts.SkipUserConfig {
		if err := loadOptionalFile(&cfg, filepath.Join(workenv.GetConfigRoot(), FileName)); err != nil {
			return Config{}, err
		}
	}

	if opts.Path != "" {
		data, err := os.ReadFile(opts.Path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", opts.Path, err)
		}
		if err := applyFileConfig(&cfg, data); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", opts.Path, err)
		}
	} else if err := loadOptionalFile(&cfg, filepath.Join(opts.WorkDir, FileName)); err != nil {
		return Config{}, err
	}

	envFile := filepath.Join(opts.WorkDir, ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadOptionalFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := applyFileConfig(cfg, data); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyFileConfig(cfg *Config, data []byte) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"PADCIPHER_TABLE":     &cfg.Table,
		"PADCIPHER_POOL":      &cfg.Pool,
		"PADCIPHER_ARCHIVE":   &cfg.Archive,
		"PADCIPHER_INPUT":     &cfg.Input,
		"PADCIPHER_ENCRYPTED": &cfg.Encrypted,
		"PADCIPHER_DECRYPTED": &cfg.Decrypted,
		"PADCIPHER_FILE_MODE": &cfg.FileMode,
		"PADCIPHER_CHECKSUM":  &cfg.Checksum,
	}
	for key, dst := range strs {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			*dst = val
		}
	}

	if val := strings.TrimSpace(os.Getenv("PADCIPHER_LOCK")); val != "" {
		lock, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("PADCIPHER_LOCK: %w", err)
		}
		cfg.Lock = lock
	}
	if val := strings.TrimSpace(os.Getenv("PADCIPHER_LOCK_TIMEOUT")); val != "" {
		timeout, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("PADCIPHER_LOCK_TIMEOUT: %w", err)
		}
		cfg.LockTimeout = timeout
	}
	return nil
}

// Validate checks the fields that need parsing.
func (c Config) Validate() error {
	if _, err := c.Mode(); err != nil {
		return err
	}
	if _, err := c.ChecksumAlgorithm(); err != nil {
		return err
	}
	if c.LockTimeout < 0 {
		return fmt.Errorf("lock_timeout must not be negative")
	}
	for name, val := range map[string]string{"table": c.Table, "pool": c.Pool, "archive": c.Archive} {
		if strings.TrimSpace(val) == "" {
			return fmt.Errorf("%s path must not be empty", name)
		}
	}
	return nil
}

// Mode returns the parsed file mode for written files.
func (c Config) Mode() (os.FileMode, error) {
	return permissions.ParseFileMode(c.FileMode)
}

// ChecksumAlgorithm returns the parsed checksum algorithm.
func (c Config) ChecksumAlgorithm() (checksums.Algorithm, error) {
	return checksums.ParseAlgorithm(c.Checksum)
}

// Resolved returns a copy with every path joined onto base.
func (c Config) Resolved(base string) Config {
	for _, p := range []*string{&c.Table, &c.Pool, &c.Archive, &c.Input, &c.Encrypted, &c.Decrypted} {
		*p = workenv.Resolve(base, *p)
	}
	return c
}
