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
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"golang.org/x/exp/constraints"
)

// Parser reads the data bits and references of a cell sequentially. The
// bit and reference positions can be saved and restored, which is used by
// decoders trying alternative interpretations of the same data.
type Parser struct {
	cell   *Cell
	bitPos int
	refPos int
}

// Cursor is a saved parser position.
type Cursor struct {
	Bits int
	Refs int
}

// NewParser creates a parser positioned at the start of the given cell.
func NewParser(c *Cell) *Parser {
	return &Parser{cell: c}
}

// Cell returns the cell being parsed.
func (p *Parser) Cell() *Cell {
	return p.cell
}

// BitsLeft returns the number of unread bits.
func (p *Parser) BitsLeft() int {
	return int(p.cell.bitLen) - p.bitPos
}

// RefsLeft returns the number of unread references.
func (p *Parser) RefsLeft() int {
	return len(p.cell.refs) - p.refPos
}

// Cursor returns the current position of the parser.
func (p *Parser) Cursor() Cursor {
	return Cursor{Bits: p.bitPos, Refs: p.refPos}
}

// Restore moves the parser to a previously saved position.
func (p *Parser) Restore(c Cursor) error {
	if c.Refs < 0 || c.Refs > len(p.cell.refs) {
		return fmt.Errorf("%w: reference position %d of %d", ErrInvalidSeek, c.Refs, len(p.cell.refs))
	}
	if err := p.SeekBits(c.Bits); err != nil {
		return err
	}
	p.refPos = c.Refs
	return nil
}

// SeekBits moves the bit position to the given absolute offset.
func (p *Parser) SeekBits(pos int) error {
	if pos < 0 || pos > int(p.cell.bitLen) {
		return fmt.Errorf("%w: bit position %d of %d", ErrInvalidSeek, pos, p.cell.bitLen)
	}
	p.bitPos = pos
	return nil
}

// SkipBits moves the bit position by the given, possibly negative, delta.
func (p *Parser) SkipBits(delta int) error {
	return p.SeekBits(p.bitPos + delta)
}

// EnsureEmpty fails with ErrNotFullyConsumed if there are unread bits or
// references left.
func (p *Parser) EnsureEmpty() error {
	if p.BitsLeft() != 0 || p.RefsLeft() != 0 {
		return fmt.Errorf("%w: %d bits and %d references left", ErrNotFullyConsumed, p.BitsLeft(), p.RefsLeft())
	}
	return nil
}

func (p *Parser) checkAvailable(bits int) error {
	if bits < 0 {
		return fmt.Errorf("%w: negative bit count %d", ErrValueOutOfRange, bits)
	}
	if bits > p.BitsLeft() {
		return fmt.Errorf("%w: reading %d bits, %d left", ErrReadUnderflow, bits, p.BitsLeft())
	}
	return nil
}

// ReadBit reads a single bit.
func (p *Parser) ReadBit() (bool, error) {
	if err := p.checkAvailable(1); err != nil {
		return false, err
	}
	res := p.cell.data.Bit(p.bitPos)
	p.bitPos++
	return res, nil
}

// ReadBits reads n bits and returns them left aligned in ceil(n/8) bytes.
func (p *Parser) ReadBits(n int) ([]byte, error) {
	if err := p.checkAvailable(n); err != nil {
		return nil, err
	}
	res := make([]byte, (n+7)/8)
	for i := 0; i < n; i++ {
		if p.cell.data.Bit(p.bitPos + i) {
			res[i/8] |= 0x80 >> (i % 8)
		}
	}
	p.bitPos += n
	return res, nil
}

// ReadBytes reads n full bytes.
func (p *Parser) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative byte count %d", ErrValueOutOfRange, n)
	}
	return p.ReadBits(n * 8)
}

// ReadUint reads an unsigned big-endian integer of the given width.
func (p *Parser) ReadUint(bits int) (uint64, error) {
	res, err := p.PeekUint(bits)
	if err != nil {
		return 0, err
	}
	p.bitPos += bits
	return res, nil
}

// PeekUint reads an unsigned integer without advancing the parser.
func (p *Parser) PeekUint(bits int) (uint64, error) {
	if bits > 64 {
		return 0, fmt.Errorf("%w: unsupported width %d for uint64", ErrValueOutOfRange, bits)
	}
	if err := p.checkAvailable(bits); err != nil {
		return 0, err
	}
	res := uint64(0)
	for i := 0; i < bits; i++ {
		res <<= 1
		if p.cell.data.Bit(p.bitPos + i) {
			res |= 1
		}
	}
	return res, nil
}

// ReadInt reads a two's complement big-endian integer of the given width.
func (p *Parser) ReadInt(bits int) (int64, error) {
	res, err := p.ReadUint(bits)
	if err != nil {
		return 0, err
	}
	if bits > 0 && bits < 64 && res&(1<<(bits-1)) != 0 {
		res |= ^uint64(0) << bits
	}
	return int64(res), nil
}

// ReadBigUint reads an unsigned big-endian integer of arbitrary width.
func (p *Parser) ReadBigUint(bits int) (*big.Int, error) {
	data, err := p.ReadBits(bits)
	if err != nil {
		return nil, err
	}
	res := new(big.Int).SetBytes(data)
	if rest := bits % 8; rest != 0 {
		res.Rsh(res, uint(8-rest))
	}
	return res, nil
}

// ReadBigInt reads a two's complement big-endian integer of arbitrary width.
func (p *Parser) ReadBigInt(bits int) (*big.Int, error) {
	res, err := p.ReadBigUint(bits)
	if err != nil {
		return nil, err
	}
	if bits > 0 && res.Bit(bits-1) == 1 {
		res.Sub(res, new(big.Int).Lsh(big.NewInt(1), uint(bits)))
	}
	return res, nil
}

// ReadUint256 reads an unsigned integer of up to 256 bits.
func (p *Parser) ReadUint256(bits int) (*uint256.Int, error) {
	if bits < 0 || bits > 256 {
		return nil, fmt.Errorf("%w: unsupported width %d for uint256", ErrValueOutOfRange, bits)
	}
	data, err := p.ReadBits(bits)
	if err != nil {
		return nil, err
	}
	res := new(uint256.Int).SetBytes(data)
	if rest := bits % 8; rest != 0 {
		res.Rsh(res, uint(8-rest))
	}
	return res, nil
}

// ReadRef reads the next reference.
func (p *Parser) ReadRef() (*Cell, error) {
	if p.RefsLeft() == 0 {
		return nil, fmt.Errorf("%w: all %d references consumed", ErrNoMoreRefs, len(p.cell.refs))
	}
	res := p.cell.refs[p.refPos]
	p.refPos++
	return res, nil
}

// ReadInteger reads a value of any integer type with the given width,
// using two's complement for signed types. Values not representable by T
// are rejected with ErrValueOutOfRange.
func ReadInteger[T constraints.Integer](p *Parser, bits int) (T, error) {
	cursor := p.Cursor()
	if isSigned[T]() {
		v, err := p.ReadInt(bits)
		if err != nil {
			return 0, err
		}
		if int64(T(v)) != v {
			_ = p.Restore(cursor)
			return 0, fmt.Errorf("%w: %d does not fit into %T", ErrValueOutOfRange, v, T(0))
		}
		return T(v), nil
	}
	v, err := p.ReadUint(bits)
	if err != nil {
		return 0, err
	}
	if uint64(T(v)) != v {
		_ = p.Restore(cursor)
		return 0, fmt.Errorf("%w: %d does not fit into %T", ErrValueOutOfRange, v, T(0))
	}
	return T(v), nil
}
