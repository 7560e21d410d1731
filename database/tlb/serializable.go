// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package tlb

import (
	"errors"
	"fmt"

	"github.com/Fantom-foundation/Cellar/go/database/cell"
)

// Serializable is implemented by types that can be read from and written to
// a cell. Read and Write only cover the body of a value; constructor tags
// are handled by the package level Read and Write functions.
type Serializable interface {
	Read(p *cell.Parser) error
	Write(b *cell.Builder) error
}

// Prefix is a constructor tag of up to 64 bits.
type Prefix struct {
	Value uint64
	Bits  int
}

func (p Prefix) String() string {
	if p.Bits%4 == 0 {
		return fmt.Sprintf("#%0*x", p.Bits/4, p.Value)
	}
	return fmt.Sprintf("$%0*b", p.Bits, p.Value)
}

// Prefixed is implemented by serializable types with a constructor tag.
type Prefixed interface {
	Prefix() Prefix
}

// Read decodes v from the parser, verifying its constructor tag if it has
// one. On a tag mismatch the parser is left unchanged.
func Read(p *cell.Parser, v Serializable) error {
	if prefixed, ok := v.(Prefixed); ok {
		if err := ReadPrefix(p, prefixed.Prefix()); err != nil {
			return err
		}
	}
	return v.Read(p)
}

// Write encodes v including its constructor tag if it has one.
func Write(b *cell.Builder, v Serializable) error {
	if prefixed, ok := v.(Prefixed); ok {
		if err := WritePrefix(b, prefixed.Prefix()); err != nil {
			return err
		}
	}
	return v.Write(b)
}

// ReadPrefix consumes the given tag. If the data does not start with the
// tag, ErrPrefixMismatch is returned and the parser is not advanced.
func ReadPrefix(p *cell.Parser, prefix Prefix) error {
	got, err := p.PeekUint(prefix.Bits)
	if errors.Is(err, cell.ErrReadUnderflow) {
		return fmt.Errorf("%w: expected %v, only %d bits left", ErrPrefixMismatch, prefix, p.BitsLeft())
	}
	if err != nil {
		return err
	}
	if got != prefix.Value {
		return fmt.Errorf("%w: expected %v, got %v", ErrPrefixMismatch, prefix, Prefix{Value: got, Bits: prefix.Bits})
	}
	return p.SkipBits(prefix.Bits)
}

// WritePrefix writes the given tag.
func WritePrefix(b *cell.Builder, prefix Prefix) error {
	return b.WriteUint(prefix.Value, prefix.Bits)
}

// IsRecoverable returns true for errors that make variant dispatch continue
// with the next candidate.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrPrefixMismatch) || errors.Is(err, ErrOptionsExhausted)
}

// ReadVariant decodes one of several alternatives. Candidates are tried in
// the given order; each is created by its factory and read including its
// constructor tag. A candidate failing with a recoverable error is skipped
// and the parser is rewound. Any other error aborts the dispatch. If no
// candidate matches, ErrOptionsExhausted is returned.
func ReadVariant[T Serializable](p *cell.Parser, candidates ...func() T) (T, error) {
	var zero T
	cursor := p.Cursor()
	for _, create := range candidates {
		v := create()
		err := Read(p, v)
		if err == nil {
			return v, nil
		}
		if restoreErr := p.Restore(cursor); restoreErr != nil {
			return zero, errors.Join(err, restoreErr)
		}
		if !IsRecoverable(err) {
			return zero, err
		}
	}
	return zero, fmt.Errorf("%w: tried %d candidates", ErrOptionsExhausted, len(candidates))
}
