// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package dict

import (
	"fmt"
	"math/big"
	"math/bits"

	"github.com/Fantom-foundation/Cellar/go/database/cell"
)

// A label is a sequence of key bits stored on a trie edge. Labels come in
// three encodings:
//
//	short: 0, the length in unary (n ones and a zero), the label bits
//	long:  10, the length in lenBits(m) bits, the label bits
//	same:  11, the repeated bit, the length in lenBits(m) bits
//
// where m is the number of key bits left below the node. The writer picks
// the shortest encoding, preferring short over long over same on ties.

// lenBits returns the number of bits required to encode a label length of at
// most m, i.e. ceil(log2(m+1)).
func lenBits(m int) int {
	return bits.Len(uint(m))
}

// label is a segment of n bits of a key, held as an unsigned integer.
type label struct {
	value *big.Int
	n     int
}

// isUniform reports whether all bits of the label are equal, and if so,
// returns the repeated bit.
func (l label) isUniform() (bool, bool) {
	if l.n == 0 {
		return false, false
	}
	if l.value.Sign() == 0 {
		return true, false
	}
	all := new(big.Int).Lsh(big.NewInt(1), uint(l.n))
	all.Sub(all, big.NewInt(1))
	if l.value.Cmp(all) == 0 {
		return true, true
	}
	return false, false
}

type labelKind int

const (
	shortLabel labelKind = iota
	longLabel
	sameLabel
)

// chooseLabel selects the cheapest encoding for the label given the maximum
// length m and returns the kind together with its cost in bits.
func chooseLabel(l label, m int) (labelKind, int) {
	k := lenBits(m)
	kind, cost := shortLabel, 2*l.n+2
	if long := 2 + k + l.n; long < cost {
		kind, cost = longLabel, long
	}
	if uniform, _ := l.isUniform(); uniform {
		if same := 3 + k; same < cost {
			kind, cost = sameLabel, same
		}
	}
	return kind, cost
}

func writeLabel(b *cell.Builder, l label, m int) error {
	if l.n > m {
		return fmt.Errorf("%w: length %d exceeds %d remaining key bits", ErrInvalidLabel, l.n, m)
	}
	kind, cost := chooseLabel(l, m)
	if cost > b.BitsLeft() {
		return fmt.Errorf("%w: label needs %d bits, %d left", cell.ErrWriteOverflow, cost, b.BitsLeft())
	}
	k := lenBits(m)
	var err error
	switch kind {
	case shortLabel:
		err = b.WriteBit(false)
		for i := 0; err == nil && i < l.n; i++ {
			err = b.WriteBit(true)
		}
		if err == nil {
			err = b.WriteBit(false)
		}
		if err == nil {
			err = b.WriteBigUint(l.value, l.n)
		}
	case longLabel:
		err = b.WriteUint(0b10, 2)
		if err == nil {
			err = b.WriteUint(uint64(l.n), k)
		}
		if err == nil {
			err = b.WriteBigUint(l.value, l.n)
		}
	case sameLabel:
		_, bit := l.isUniform()
		err = b.WriteUint(0b11, 2)
		if err == nil {
			err = b.WriteBit(bit)
		}
		if err == nil {
			err = b.WriteUint(uint64(l.n), k)
		}
	}
	return err
}

func readLabel(p *cell.Parser, m int) (label, error) {
	first, err := p.ReadBit()
	if err != nil {
		return label{}, fmt.Errorf("%w: %w", ErrInvalidLabel, err)
	}
	k := lenBits(m)
	if !first {
		n := 0
		for {
			bit, err := p.ReadBit()
			if err != nil {
				return label{}, fmt.Errorf("%w: unterminated unary length: %w", ErrInvalidLabel, err)
			}
			if !bit {
				break
			}
			n++
			if n > m {
				return label{}, fmt.Errorf("%w: length exceeds %d remaining key bits", ErrInvalidLabel, m)
			}
		}
		value, err := p.ReadBigUint(n)
		if err != nil {
			return label{}, fmt.Errorf("%w: %w", ErrInvalidLabel, err)
		}
		return label{value: value, n: n}, nil
	}

	second, err := p.ReadBit()
	if err != nil {
		return label{}, fmt.Errorf("%w: %w", ErrInvalidLabel, err)
	}
	if !second {
		n, err := readLabelLength(p, k, m)
		if err != nil {
			return label{}, err
		}
		value, err := p.ReadBigUint(n)
		if err != nil {
			return label{}, fmt.Errorf("%w: %w", ErrInvalidLabel, err)
		}
		return label{value: value, n: n}, nil
	}

	bit, err := p.ReadBit()
	if err != nil {
		return label{}, fmt.Errorf("%w: %w", ErrInvalidLabel, err)
	}
	n, err := readLabelLength(p, k, m)
	if err != nil {
		return label{}, err
	}
	value := new(big.Int)
	if bit {
		value.Lsh(big.NewInt(1), uint(n))
		value.Sub(value, big.NewInt(1))
	}
	return label{value: value, n: n}, nil
}

func readLabelLength(p *cell.Parser, k, m int) (int, error) {
	n, err := p.ReadUint(k)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidLabel, err)
	}
	if n > uint64(m) {
		return 0, fmt.Errorf("%w: length %d exceeds %d remaining key bits", ErrInvalidLabel, n, m)
	}
	return int(n), nil
}
