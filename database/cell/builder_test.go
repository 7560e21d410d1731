// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package cell

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
)

func TestBuilder_EmptyBuilderProducesEmptyCell(t *testing.T) {
	c, err := NewBuilder().Build()
	if err != nil {
		t.Fatalf("failed to build cell: %v", err)
	}
	if c.BitLen() != 0 || c.RefCount() != 0 {
		t.Errorf("unexpected content of empty cell: %d bits, %d refs", c.BitLen(), c.RefCount())
	}
	if got, want := c.Hash(), Empty().Hash(); got != want {
		t.Errorf("unexpected hash, wanted %v, got %v", want, got)
	}
}

func TestBuilder_WriteUintProducesBigEndianBits(t *testing.T) {
	b := NewBuilder()
	if err := b.WriteUint(0xA, 4); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	if err := b.WriteUint(0xBCD, 12); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	if err := b.WriteBit(true); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	c, err := b.Build()
	if err != nil {
		t.Fatalf("failed to build: %v", err)
	}
	if got, want := c.BitLen(), 17; got != want {
		t.Errorf("unexpected bit length, wanted %d, got %d", want, got)
	}
	if got, want := c.Data(), []byte{0xAB, 0xCD, 0x80}; !bytes.Equal(got, want) {
		t.Errorf("unexpected data, wanted %x, got %x", want, got)
	}
}

func TestBuilder_WriteIntUsesTwosComplement(t *testing.T) {
	tests := []struct {
		value int64
		bits  int
		want  []byte
	}{
		{-1, 4, []byte{0xF0}},
		{-2, 8, []byte{0xFE}},
		{5, 8, []byte{0x05}},
		{-128, 8, []byte{0x80}},
		{-1, 64, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}},
	}
	for _, test := range tests {
		b := NewBuilder()
		if err := b.WriteInt(test.value, test.bits); err != nil {
			t.Fatalf("failed to write %d in %d bits: %v", test.value, test.bits, err)
		}
		c, err := b.Build()
		if err != nil {
			t.Fatalf("failed to build: %v", err)
		}
		if got := c.Data(); !bytes.Equal(got, test.want) {
			t.Errorf("unexpected encoding of %d in %d bits, wanted %x, got %x", test.value, test.bits, test.want, got)
		}
	}
}

func TestBuilder_ValuesOutOfRangeAreRejected(t *testing.T) {
	tests := map[string]func(*Builder) error{
		"uint too large":     func(b *Builder) error { return b.WriteUint(16, 4) },
		"uint too wide":      func(b *Builder) error { return b.WriteUint(0, 65) },
		"int too large":      func(b *Builder) error { return b.WriteInt(8, 4) },
		"int too small":      func(b *Builder) error { return b.WriteInt(-9, 4) },
		"int in zero bits":   func(b *Builder) error { return b.WriteInt(1, 0) },
		"big uint negative":  func(b *Builder) error { return b.WriteBigUint(big.NewInt(-1), 8) },
		"big uint too large": func(b *Builder) error { return b.WriteBigUint(big.NewInt(256), 8) },
		"big int too large":  func(b *Builder) error { return b.WriteBigInt(big.NewInt(128), 8) },
		"big int too small":  func(b *Builder) error { return b.WriteBigInt(big.NewInt(-129), 8) },
		"uint256 too large":  func(b *Builder) error { return b.WriteUint256(uint256.NewInt(256), 8) },
		"negative bit count": func(b *Builder) error { return b.WriteZeros(-1) },
		"unsigned generic":   func(b *Builder) error { return WriteInteger(b, uint8(200), 7) },
		"signed generic":     func(b *Builder) error { return WriteInteger(b, int8(-100), 7) },
	}
	for name, write := range tests {
		t.Run(name, func(t *testing.T) {
			b := NewBuilder()
			if err := write(b); !errors.Is(err, ErrValueOutOfRange) {
				t.Errorf("expected ErrValueOutOfRange, got %v", err)
			}
			if b.BitLen() != 0 {
				t.Errorf("failed write modified builder, bit length is %d", b.BitLen())
			}
		})
	}
}

func TestBuilder_ZeroWidthZeroValuesAreAccepted(t *testing.T) {
	b := NewBuilder()
	if err := b.WriteUint(0, 0); err != nil {
		t.Errorf("failed to write zero width uint: %v", err)
	}
	if err := b.WriteInt(0, 0); err != nil {
		t.Errorf("failed to write zero width int: %v", err)
	}
	if err := b.WriteBigInt(big.NewInt(0), 0); err != nil {
		t.Errorf("failed to write zero width big int: %v", err)
	}
	if b.BitLen() != 0 {
		t.Errorf("zero width writes changed bit length to %d", b.BitLen())
	}
}

func TestBuilder_BitCapacityIsEnforced(t *testing.T) {
	b := NewBuilder()
	if err := b.WriteZeros(MaxBits - 1); err != nil {
		t.Fatalf("failed to fill builder: %v", err)
	}
	if err := b.WriteUint(3, 2); !errors.Is(err, ErrWriteOverflow) {
		t.Errorf("expected ErrWriteOverflow, got %v", err)
	}
	if got, want := b.BitLen(), MaxBits-1; got != want {
		t.Errorf("failed write modified builder, wanted %d bits, got %d", want, got)
	}
	if err := b.WriteBit(true); err != nil {
		t.Errorf("failed to write last bit: %v", err)
	}
	if got := b.BitsLeft(); got != 0 {
		t.Errorf("expected full builder, got %d bits left", got)
	}
	if err := b.WriteBit(false); !errors.Is(err, ErrWriteOverflow) {
		t.Errorf("expected ErrWriteOverflow, got %v", err)
	}
}

func TestBuilder_RefCapacityIsEnforced(t *testing.T) {
	b := NewBuilder()
	for i := 0; i < MaxRefs; i++ {
		if err := b.WriteRef(Empty()); err != nil {
			t.Fatalf("failed to add reference %d: %v", i, err)
		}
	}
	if err := b.WriteRef(Empty()); !errors.Is(err, ErrRefOverflow) {
		t.Errorf("expected ErrRefOverflow, got %v", err)
	}
	if got, want := b.RefCount(), MaxRefs; got != want {
		t.Errorf("unexpected reference count, wanted %d, got %d", want, got)
	}
	if err := NewBuilder().WriteRef(nil); !errors.Is(err, ErrInvalidCell) {
		t.Errorf("expected ErrInvalidCell for nil reference, got %v", err)
	}
}

func TestBuilder_WriteBitsAtUnalignedPosition(t *testing.T) {
	b := NewBuilder()
	if err := b.WriteBit(true); err != nil {
		t.Fatal(err)
	}
	if err := b.WriteBits([]byte{0xFF, 0x00}, 12); err != nil {
		t.Fatal(err)
	}
	c, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := c.BitLen(), 13; got != want {
		t.Errorf("unexpected bit length, wanted %d, got %d", want, got)
	}
	if got, want := c.Data(), []byte{0xFF, 0x80}; !bytes.Equal(got, want) {
		t.Errorf("unexpected data, wanted %x, got %x", want, got)
	}
	if err := NewBuilder().WriteBits([]byte{0xFF}, 9); !errors.Is(err, ErrReadUnderflow) {
		t.Errorf("expected ErrReadUnderflow for short source, got %v", err)
	}
}

func TestBuilder_WriteSliceCopiesRemainder(t *testing.T) {
	child := Empty()
	src := NewBuilder()
	if err := src.WriteUint(0xABCD, 16); err != nil {
		t.Fatal(err)
	}
	if err := src.WriteRef(child); err != nil {
		t.Fatal(err)
	}
	c, err := src.Build()
	if err != nil {
		t.Fatal(err)
	}

	p := c.Parser()
	if _, err := p.ReadUint(4); err != nil {
		t.Fatal(err)
	}
	b := NewBuilder()
	if err := b.WriteSlice(p); err != nil {
		t.Fatalf("failed to write slice: %v", err)
	}
	if got, want := p.BitsLeft(), 12; got != want {
		t.Errorf("writing slice advanced parser, wanted %d bits left, got %d", want, got)
	}
	res, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := res.Data(), []byte{0xBC, 0xD0}; !bytes.Equal(got, want) {
		t.Errorf("unexpected data, wanted %x, got %x", want, got)
	}
	if res.RefCount() != 1 || res.Ref(0) != child {
		t.Errorf("reference was not copied")
	}
}

func TestBuilder_BuildsIndependentCells(t *testing.T) {
	b := NewBuilder()
	if err := b.WriteUint(1, 8); err != nil {
		t.Fatal(err)
	}
	first, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if err := b.WriteUint(2, 8); err != nil {
		t.Fatal(err)
	}
	second, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if got, want := first.Data(), []byte{1}; !bytes.Equal(got, want) {
		t.Errorf("first cell modified, wanted %x, got %x", want, got)
	}
	if got, want := second.Data(), []byte{1, 2}; !bytes.Equal(got, want) {
		t.Errorf("unexpected second cell, wanted %x, got %x", want, got)
	}
}

func TestBuilder_BuildExoticRejectsOrdinaryType(t *testing.T) {
	if _, err := NewBuilder().BuildExotic(Ordinary); !errors.Is(err, ErrInvalidCell) {
		t.Errorf("expected ErrInvalidCell, got %v", err)
	}
}
