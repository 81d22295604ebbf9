// Package trace reads memory-access traces in the valgrind lackey format,
// one access per line:
//
//	I 0400d7d4,8
//	 L 7ff0005c8,8
//	 S 7ff0005d0,4
//	 M 0421c7f0,4
package trace

import (
	"fmt"
	"strconv"
	"strings"
)

// Operation is the kind of memory access a record describes.
type Operation byte

const (
	// Load is a data load.
	Load Operation = 'L'
	// Store is a data store.
	Store Operation = 'S'
	// Modify is a data load immediately followed by a store to the same
	// address.
	Modify Operation = 'M'
	// Instruction is an instruction fetch. The simulator ignores these.
	Instruction Operation = 'I'
)

// Valid reports whether op is one of the known operations.
func (op Operation) Valid() bool {
	switch op {
	case Load, Store, Modify, Instruction:
		return true
	default:
		return false
	}
}

// String returns the single-letter code of the operation.
func (op Operation) String() string {
	return string(rune(op))
}

// Record is one parsed trace line.
type Record struct {
	Op      Operation
	Address uint64
	Size    uint64
}

// String formats the record the way verbose output echoes it.
func (r Record) String() string {
	return fmt.Sprintf("%c %x,%d", r.Op, r.Address, r.Size)
}

// ParseLine parses one trace line of the form "<op> <hexaddr>,<size>".
// Surrounding whitespace is ignored and the address may carry a 0x prefix.
// The boolean result is false when the line does not match.
func ParseLine(line string) (Record, bool) {
	line = strings.TrimSpace(line)
	if len(line) < 2 {
		return Record{}, false
	}

	op := Operation(line[0])
	if !op.Valid() {
		return Record{}, false
	}

	rest := line[1:]
	if rest[0] != ' ' && rest[0] != '\t' {
		return Record{}, false
	}
	rest = strings.TrimSpace(rest)

	addrText, sizeText, ok := strings.Cut(rest, ",")
	if !ok {
		return Record{}, false
	}

	addrText = strings.TrimPrefix(strings.TrimPrefix(addrText, "0x"), "0X")
	address, err := strconv.ParseUint(addrText, 16, 64)
	if err != nil {
		return Record{}, false
	}

	size, err := strconv.ParseUint(strings.TrimSpace(sizeText), 10, 64)
	if err != nil {
		return Record{}, false
	}

	return Record{Op: op, Address: address, Size: size}, true
}
