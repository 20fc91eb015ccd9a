// Package operations provides the stream envelopes a pad pool can be
// exported in and imported from.
package operations

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Operation constants
const (
	// No operation - raw pad bytes
	OP_NONE = 0x00

	// Compression operations (0x10-0x2F)
	OP_GZIP  = 0x10 // GZIP compression
	OP_BZIP2 = 0x13 // BZIP2 compression
)

// Operation represents a single reversible transformation of a byte stream
type Operation interface {
	// ID returns the operation identifier (e.g., OP_GZIP)
	ID() uint8

	// Name returns the lower-case codec name used on the command line
	Name() string

	// ApplyStream applies the operation to a stream
	ApplyStream(input io.Reader, output io.Writer) error

	// ReverseStream reverses the operation on a stream
	ReverseStream(input io.Reader, output io.Writer) error
}

// BaseOperation provides common functionality for operations
type BaseOperation struct {
	OpID   uint8
	OpName string
}

func (o *BaseOperation) ID() uint8 {
	return o.OpID
}

func (o *BaseOperation) Name() string {
	return o.OpName
}

// Registry maps operation IDs to implementations
var Registry = make(map[uint8]Operation)

// Register registers an operation implementation
func Register(op Operation) {
	Registry[op.ID()] = op
}

// GetByName retrieves an operation by codec name. Empty means raw.
func GetByName(name string) (Operation, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "raw"
	}
	for _, op := range Registry {
		if op.Name() == name {
			return op, nil
		}
	}
	return nil, fmt.Errorf("unknown codec %q (available: %s)", name, strings.Join(Names(), ", "))
}

// Names lists registered codec names in ID order.
func Names() []string {
	ids := make([]int, 0, len(Registry))
	for id := range Registry {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, Registry[uint8(id)].Name())
	}
	return names
}

func init() {
	Register(&RawOperation{BaseOperation{OpID: OP_NONE, OpName: "raw"}})
}

// RawOperation passes bytes through unchanged
type RawOperation struct {
	BaseOperation
}

func (o *RawOperation) ApplyStream(input io.Reader, output io.Writer) error {
	_, err := io.Copy(output, input)
	return err
}

func (o *RawOperation) ReverseStream(input io.Reader, output io.Writer) error {
	_, err := io.Copy(output, input)
	return err
}
