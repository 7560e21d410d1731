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
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"golang.org/x/exp/constraints"
)

// Builder accumulates bits and references for a new cell. Writes are
// appended at the current bit position. A failed write leaves the builder
// unchanged. A builder may be used for building multiple cells; each call to
// Build produces an independent immutable cell.
type Builder struct {
	data   [MaxBytes]byte
	bitLen int
	refs   []*Cell
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// BitLen returns the number of bits written so far.
func (b *Builder) BitLen() int {
	return b.bitLen
}

// BitsLeft returns the number of bits that can still be written.
func (b *Builder) BitsLeft() int {
	return MaxBits - b.bitLen
}

// RefCount returns the number of references written so far.
func (b *Builder) RefCount() int {
	return len(b.refs)
}

// RefsLeft returns the number of references that can still be written.
func (b *Builder) RefsLeft() int {
	return MaxRefs - len(b.refs)
}

func (b *Builder) checkCapacity(bits int) error {
	if bits < 0 {
		return fmt.Errorf("%w: negative bit count %d", ErrValueOutOfRange, bits)
	}
	if bits > b.BitsLeft() {
		return fmt.Errorf("%w: writing %d bits, %d left", ErrWriteOverflow, bits, b.BitsLeft())
	}
	return nil
}

// WriteBit appends a single bit.
func (b *Builder) WriteBit(bit bool) error {
	if err := b.checkCapacity(1); err != nil {
		return err
	}
	if bit {
		b.data[b.bitLen/8] |= 0x80 >> (b.bitLen % 8)
	}
	b.bitLen++
	return nil
}

// WriteBits appends the first n bits of src, most significant bit first.
func (b *Builder) WriteBits(src []byte, n int) error {
	if err := b.checkCapacity(n); err != nil {
		return err
	}
	if n > len(src)*8 {
		return fmt.Errorf("%w: %d bits requested from %d bytes", ErrReadUnderflow, n, len(src))
	}
	b.appendBits(src, 0, n)
	return nil
}

// WriteZeros appends n zero bits.
func (b *Builder) WriteZeros(n int) error {
	if err := b.checkCapacity(n); err != nil {
		return err
	}
	b.bitLen += n
	return nil
}

// WriteBytes appends all bytes of data.
func (b *Builder) WriteBytes(data []byte) error {
	return b.WriteBits(data, len(data)*8)
}

// WriteUint appends v as an unsigned big-endian integer of the given width.
func (b *Builder) WriteUint(v uint64, bits int) error {
	if bits < 0 || bits > 64 {
		return fmt.Errorf("%w: unsupported width %d for uint64", ErrValueOutOfRange, bits)
	}
	if bits < 64 && v>>bits != 0 {
		return fmt.Errorf("%w: %d does not fit into %d bits", ErrValueOutOfRange, v, bits)
	}
	if err := b.checkCapacity(bits); err != nil {
		return err
	}
	var buffer [8]byte
	binary.BigEndian.PutUint64(buffer[:], v)
	b.appendBits(buffer[:], 64-bits, bits)
	return nil
}

// WriteInt appends v as a two's complement big-endian integer of the given width.
func (b *Builder) WriteInt(v int64, bits int) error {
	if bits < 0 || bits > 64 {
		return fmt.Errorf("%w: unsupported width %d for int64", ErrValueOutOfRange, bits)
	}
	if bits == 0 && v != 0 {
		return fmt.Errorf("%w: %d does not fit into 0 bits", ErrValueOutOfRange, v)
	}
	if bits > 0 && bits < 64 {
		limit := int64(1) << (bits - 1)
		if v >= limit || v < -limit {
			return fmt.Errorf("%w: %d does not fit into %d bits", ErrValueOutOfRange, v, bits)
		}
	}
	if err := b.checkCapacity(bits); err != nil {
		return err
	}
	var buffer [8]byte
	binary.BigEndian.PutUint64(buffer[:], uint64(v))
	b.appendBits(buffer[:], 64-bits, bits)
	return nil
}

// WriteBigUint appends a non-negative big integer as an unsigned
// big-endian integer of the given width.
func (b *Builder) WriteBigUint(v *big.Int, bits int) error {
	if v.Sign() < 0 {
		return fmt.Errorf("%w: negative value %v for unsigned field", ErrValueOutOfRange, v)
	}
	if v.BitLen() > bits {
		return fmt.Errorf("%w: %v does not fit into %d bits", ErrValueOutOfRange, v, bits)
	}
	if err := b.checkCapacity(bits); err != nil {
		return err
	}
	buffer := v.FillBytes(make([]byte, (bits+7)/8))
	b.appendBits(buffer, len(buffer)*8-bits, bits)
	return nil
}

// WriteBigInt appends a big integer as a two's complement big-endian
// integer of the given width.
func (b *Builder) WriteBigInt(v *big.Int, bits int) error {
	if v.Sign() >= 0 {
		if bits == 0 && v.Sign() == 0 {
			return nil
		}
		if v.BitLen() >= bits {
			return fmt.Errorf("%w: %v does not fit into %d bits", ErrValueOutOfRange, v, bits)
		}
		return b.WriteBigUint(v, bits)
	}
	// -v-1 needs to fit into bits-1 bits
	magnitude := new(big.Int).Neg(v)
	magnitude.Sub(magnitude, big.NewInt(1))
	if bits == 0 || magnitude.BitLen() >= bits {
		return fmt.Errorf("%w: %v does not fit into %d bits", ErrValueOutOfRange, v, bits)
	}
	complement := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	complement.Add(complement, v)
	return b.WriteBigUint(complement, bits)
}

// WriteUint256 appends a 256-bit unsigned integer using the given width.
func (b *Builder) WriteUint256(v *uint256.Int, bits int) error {
	if bits < 0 || bits > 256 {
		return fmt.Errorf("%w: unsupported width %d for uint256", ErrValueOutOfRange, bits)
	}
	if v.BitLen() > bits {
		return fmt.Errorf("%w: %v does not fit into %d bits", ErrValueOutOfRange, v, bits)
	}
	if err := b.checkCapacity(bits); err != nil {
		return err
	}
	buffer := v.Bytes32()
	b.appendBits(buffer[:], 256-bits, bits)
	return nil
}

// WriteRef appends a reference to the given cell.
func (b *Builder) WriteRef(c *Cell) error {
	if c == nil {
		return fmt.Errorf("%w: nil reference", ErrInvalidCell)
	}
	if len(b.refs) >= MaxRefs {
		return fmt.Errorf("%w: cell already has %d references", ErrRefOverflow, len(b.refs))
	}
	b.refs = append(b.refs, c)
	return nil
}

// WriteCell appends the data bits and references of an ordinary cell.
func (b *Builder) WriteCell(c *Cell) error {
	return b.WriteSlice(c.Parser())
}

// WriteSlice appends the remaining bits and references of the given
// parser without advancing it.
func (b *Builder) WriteSlice(p *Parser) error {
	bits := p.BitsLeft()
	refs := p.RefsLeft()
	if err := b.checkCapacity(bits); err != nil {
		return err
	}
	if refs > b.RefsLeft() {
		return fmt.Errorf("%w: appending %d references, %d left", ErrRefOverflow, refs, b.RefsLeft())
	}
	b.appendBits(p.cell.data.ToBytes(), p.bitPos, bits)
	b.refs = append(b.refs, p.cell.refs[p.refPos:]...)
	return nil
}

// Build creates an ordinary cell from the accumulated bits and references.
func (b *Builder) Build() (*Cell, error) {
	return New(Ordinary, b.data[:], b.bitLen, b.refs)
}

// BuildExotic creates an exotic cell of the given type. The accumulated
// bits must start with the type byte and follow the layout of the type.
func (b *Builder) BuildExotic(typ Type) (*Cell, error) {
	if typ == Ordinary {
		return nil, fmt.Errorf("%w: ordinary is not an exotic type", ErrInvalidCell)
	}
	return New(typ, b.data[:], b.bitLen, b.refs)
}

// appendBits copies n bits of src starting at bit offset into the builder.
// Capacity must have been checked by the caller.
func (b *Builder) appendBits(src []byte, offset, n int) {
	if b.bitLen%8 == 0 && offset%8 == 0 {
		full := n / 8
		copy(b.data[b.bitLen/8:], src[offset/8:offset/8+full])
		b.bitLen += full * 8
		offset += full * 8
		n -= full * 8
	}
	for i := 0; i < n; i++ {
		pos := offset + i
		if src[pos/8]&(0x80>>(pos%8)) != 0 {
			b.data[b.bitLen/8] |= 0x80 >> (b.bitLen % 8)
		}
		b.bitLen++
	}
}

// WriteInteger appends a value of any integer type with the given width,
// using two's complement for signed types.
func WriteInteger[T constraints.Integer](b *Builder, v T, bits int) error {
	if isSigned[T]() {
		return b.WriteInt(int64(v), bits)
	}
	return b.WriteUint(uint64(v), bits)
}

func isSigned[T constraints.Integer]() bool {
	var zero T
	return zero-1 < zero
}
