// Package checksums provides prefixed digests used by the pad ledger to
// verify staged files and report archive state.
//
// Format: "algorithm:hexvalue" (e.g., "sha256:c0ffee123...", "blake2b:babe1337...")
package checksums

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"hash/adler32"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Algorithm represents supported checksum algorithms
type Algorithm int

const (
	SHA256 Algorithm = iota
	SHA512
	Adler32
	Blake2b
)

func (a Algorithm) String() string {
	switch a {
	case SHA256:
		return "sha256"
	case SHA512:
		return "sha512"
	case Adler32:
		return "adler32"
	case Blake2b:
		return "blake2b"
	default:
		return "unknown"
	}
}

// ParseAlgorithm resolves an algorithm name.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sha256":
		return SHA256, nil
	case "sha512":
		return SHA512, nil
	case "adler32":
		return Adler32, nil
	case "blake2b":
		return Blake2b, nil
	default:
		return SHA256, fmt.Errorf("unknown checksum algorithm: %s", name)
	}
}

// Parse splits a checksum string into algorithm and hex value. Unprefixed
// strings are assumed to be sha256.
func Parse(checksum string) (Algorithm, string, error) {
	algoName, value, found := strings.Cut(checksum, ":")
	if !found {
		return SHA256, checksum, nil
	}
	algo, err := ParseAlgorithm(algoName)
	if err != nil {
		return SHA256, "", err
	}
	return algo, value, nil
}

func newHash(algo Algorithm) hash.Hash {
	switch algo {
	case SHA512:
		return sha512.New()
	case Adler32:
		return adler32.New()
	case Blake2b:
		// Only fails for an oversized key.
		h, _ := blake2b.New256(nil)
		return h
	default:
		return sha256.New()
	}
}

// Calculate returns the prefixed checksum of data.
func Calculate(data []byte, algo Algorithm) string {
	h := newHash(algo)
	h.Write(data)
	name := algo.String()
	if name == "unknown" {
		name = SHA256.String()
	}
	return name + ":" + hex.EncodeToString(h.Sum(nil))
}

// Verify checks data against a checksum string.
func Verify(data []byte, checksum string) (bool, error) {
	algo, expected, err := Parse(checksum)
	if err != nil {
		return false, err
	}

	_, actual, _ := strings.Cut(Calculate(data, algo), ":")
	return strings.EqualFold(actual, expected), nil
}
