package main

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"

	cerrors "github.com/provide-io/padcipher/pkg/cipher/errors"
)

const version = "0.4.0"

// Exit codes for different error types
const (
	ExitError           = 1
	ExitInsufficientPad = 3
	ExitTableError      = 4
	ExitDecryptError    = 5
	ExitLocked          = 6
	ExitIOError         = 7
)

var (
	configPath  string
	logLevel    string
	workDir     string
	noLock      bool
	versionFlag bool
	rootCmd     *cobra.Command
)

func getBuildTimestamp() string {
	// Try to get vcs.time from build info
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.time" {
				if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					return t.UTC().Format(time.RFC3339)
				}
			}
		}
	}
	// Fallback to binary modification time
	if exePath, err := os.Executable(); err == nil {
		if stat, err := os.Stat(exePath); err == nil {
			return stat.ModTime().UTC().Format(time.RFC3339)
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func printVersion() {
	fmt.Printf("padcipher %s\n", version)
	fmt.Printf("Built: %s\n", getBuildTimestamp())
}

// newRootCmd builds the command tree. Registering the flags resets the
// package-level flag variables to their defaults.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "padcipher",
		Short: "Pad-based byte substitution cipher",
		Long: `Encrypt and decrypt files with a consumable random pad pool and a
conversion table mapping offset tokens to code bytes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if versionFlag {
				printVersion()
				return nil
			}
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "Path to padcipher.yml (defaults to ./padcipher.yml)")
	flags.StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.StringVarP(&workDir, "workdir", "C", "", "Directory relative paths are resolved against (defaults to CWD)")
	flags.BoolVar(&noLock, "no-lock", false, "Do not lock the pad pool")
	root.Flags().BoolVarP(&versionFlag, "version", "V", false, "Show version information")

	root.AddCommand(newEncryptCmd(), newDecryptCmd(), newPadCmd())
	return root
}

func init() {
	rootCmd = newRootCmd()
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch {
	case errors.Is(err, cerrors.ErrInsufficientPad):
		return ExitInsufficientPad
	case errors.Is(err, cerrors.ErrParse), errors.Is(err, cerrors.ErrInvalidOperator):
		return ExitTableError
	case errors.Is(err, cerrors.ErrLookup):
		return ExitDecryptError
	case errors.Is(err, cerrors.ErrLocked):
		return ExitLocked
	case errors.Is(err, cerrors.ErrIO), errors.Is(err, cerrors.ErrJournal):
		return ExitIOError
	default:
		return ExitError
	}
}

func main() {
	// Handle --version or -V before cobra parses other flags
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-V") {
		printVersion()
		os.Exit(0)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
