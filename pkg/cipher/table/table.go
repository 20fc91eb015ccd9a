// Package table parses conversion tables: text files of TOKEN=HH lines
// associating operation tokens with code bytes.
//
// The forward direction (token -> code) is a plain last-line-wins map used by
// encryption. The reverse direction (code -> token) is many-to-one in general
// and is resolved with a fixed precedence rule:
//
//   - a '+' token with a smaller magnitude replaces any earlier '+' token,
//   - a '+' token always replaces a non-'+' token,
//   - a non-'+' token is only recorded when nothing is recorded yet.
package table

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	cerrors "github.com/provide-io/padcipher/pkg/cipher/errors"
)

// Table holds both directions of a conversion table. It is read-only once
// built.
type Table struct {
	Forward map[Token]byte
	Reverse map[byte]Token

	// Entries counts the TOKEN=HH lines that were accepted.
	Entries int

	// NonCanonical lists forward tokens encryption can never match, such
	// as "+0a" or "+7".
	NonCanonical []Token
}

// New returns an empty table.
func New() *Table {
	return &Table{
		Forward: make(map[Token]byte),
		Reverse: make(map[byte]Token),
	}
}

// Lookup returns the code byte mapped to token.
func (t *Table) Lookup(token Token) (byte, bool) {
	code, ok := t.Forward[token]
	return code, ok
}

// Resolve returns the token chosen for code by the precedence rule.
func (t *Table) Resolve(code byte) (Token, bool) {
	token, ok := t.Reverse[code]
	return token, ok
}

// Load reads and parses the table file at path.
func Load(path string) (*Table, error) {
	return LoadWithLogger(path, hclog.NewNullLogger())
}

// LoadWithLogger reads and parses the table file at path, logging a summary.
func LoadWithLogger(path string, logger hclog.Logger) (*Table, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, cerrors.WrapIO("open table", path, err)
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	logger.Debug("📜 Loaded conversion table",
		"path", path,
		"entries", t.Entries,
		"forward", len(t.Forward),
		"reverse", len(t.Reverse))
	if n := len(t.NonCanonical); n > 0 {
		logger.Warn("⚠️ Conversion table has tokens encryption never produces; bytes needing them encrypt to 0xFF",
			"path", path,
			"count", n,
			"first", t.NonCanonical[0].String(),
			"expected", "sign and two upper-case hex digits")
	}
	return t, nil
}

// Parse reads TOKEN=HH lines from r. Blank lines and lines without '=' are
// skipped; anything else that does not parse is a *errors.ParseError.
func Parse(r io.Reader) (*Table, error) {
	t := New()

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.Contains(line, "=") {
			continue
		}

		parts := strings.Split(line, "=")
		if len(parts) != 2 {
			return nil, &cerrors.ParseError{Line: lineNo, Text: line}
		}

		token := Token(strings.TrimSpace(parts[0]))
		value, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 16, 8)
		if err != nil {
			return nil, &cerrors.ParseError{Line: lineNo, Text: line, Err: err}
		}
		code := byte(value)

		if err := t.add(token, code); err != nil {
			return nil, &cerrors.ParseError{Line: lineNo, Text: line, Err: err}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, cerrors.WrapIO("read table", "", err)
	}

	return t, nil
}

func (t *Table) add(token Token, code byte) error {
	if _, seen := t.Forward[token]; !seen && !token.Canonical() {
		t.NonCanonical = append(t.NonCanonical, token)
	}
	t.Forward[token] = code
	t.Entries++

	current, recorded := t.Reverse[code]
	if token.Sign() == SignAdd {
		magnitude, err := token.Magnitude()
		if err != nil {
			return err
		}
		if !recorded || current.Sign() != SignAdd {
			t.Reverse[code] = token
			return nil
		}
		// The recorded '+' token was validated when it was added.
		currentMagnitude, _ := current.Magnitude()
		if magnitude < currentMagnitude {
			t.Reverse[code] = token
		}
		return nil
	}

	if !recorded {
		t.Reverse[code] = token
	}
	return nil
}
