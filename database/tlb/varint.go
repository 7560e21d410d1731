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
	"fmt"
	"math/big"

	"github.com/Fantom-foundation/Cellar/go/common/amount"
	"github.com/Fantom-foundation/Cellar/go/database/cell"
)

// VarUint encodes an unsigned integer as a length prefix followed by the
// value itself. The prefix holds the width of the value in bits, or in
// bytes if InBytes is set.
type VarUint struct {
	// LenBits is the width of the length prefix.
	LenBits int
	// InBytes selects a length prefix counting bytes instead of bits.
	InBytes bool
	// DataBits fixes the width of the value when writing. If zero, the
	// minimal width is used.
	DataBits int
}

func (a VarUint) ReadField(p *cell.Parser) (*big.Int, error) {
	length, err := p.ReadUint(a.LenBits)
	if err != nil {
		return nil, err
	}
	width := int(length)
	if a.InBytes {
		width *= 8
	}
	return p.ReadBigUint(width)
}

func (a VarUint) WriteField(b *cell.Builder, value *big.Int) error {
	if value == nil || value.Sign() < 0 {
		return fmt.Errorf("%w: %v is not an unsigned integer", ErrInvalidValue, value)
	}
	width := a.DataBits
	if width == 0 {
		width = value.BitLen()
		if a.InBytes {
			width = (width + 7) / 8 * 8
		}
	}
	length := width
	if a.InBytes {
		if width%8 != 0 {
			return fmt.Errorf("%w: width of %d bits is not a whole number of bytes", ErrInvalidValue, width)
		}
		length = width / 8
	}
	if a.LenBits < 64 && uint64(length)>>a.LenBits != 0 {
		return fmt.Errorf("%w: length %d exceeds %d bit prefix", ErrInvalidValue, length, a.LenBits)
	}
	if value.BitLen() > width {
		return fmt.Errorf("%w: %v does not fit into %d bits", ErrInvalidValue, value, width)
	}
	if err := b.WriteUint(uint64(length), a.LenBits); err != nil {
		return err
	}
	return b.WriteBigUint(value, width)
}

// VarBytes encodes a byte string as a length prefix followed by the bytes.
// The prefix holds the length in bits, or in bytes if InBytes is set.
type VarBytes struct {
	LenBits int
	InBytes bool
}

func (a VarBytes) ReadField(p *cell.Parser) ([]byte, error) {
	length, err := p.ReadUint(a.LenBits)
	if err != nil {
		return nil, err
	}
	if !a.InBytes {
		if length%8 != 0 {
			return nil, fmt.Errorf("%w: payload of %d bits is not a whole number of bytes", ErrInvalidValue, length)
		}
		length /= 8
	}
	if length > cell.MaxBytes {
		return nil, fmt.Errorf("%w: payload of %d bytes exceeds cell size", ErrInvalidValue, length)
	}
	return p.ReadBytes(int(length))
}

func (a VarBytes) WriteField(b *cell.Builder, value []byte) error {
	length := uint64(len(value))
	if !a.InBytes {
		length *= 8
	}
	if a.LenBits < 64 && length>>a.LenBits != 0 {
		return fmt.Errorf("%w: length %d exceeds %d bit prefix", ErrInvalidValue, length, a.LenBits)
	}
	if err := b.WriteUint(length, a.LenBits); err != nil {
		return err
	}
	return b.WriteBytes(value)
}

// BitString is a sequence of bits stored left aligned in Data.
type BitString struct {
	Data []byte
	Bits int
}

func (s BitString) String() string {
	return cell.FormatBits(s.Data, s.Bits)
}

type varBitsAdapter struct {
	lenBits int
}

// VarBits encodes a bit string as a length prefix holding the number of
// bits, followed by the bits.
func VarBits(lenBits int) Adapter[BitString] {
	return varBitsAdapter{lenBits: lenBits}
}

func (a varBitsAdapter) ReadField(p *cell.Parser) (BitString, error) {
	length, err := p.ReadUint(a.lenBits)
	if err != nil {
		return BitString{}, err
	}
	if length > cell.MaxBits {
		return BitString{}, fmt.Errorf("%w: bit string of %d bits exceeds cell size", ErrInvalidValue, length)
	}
	data, err := p.ReadBits(int(length))
	if err != nil {
		return BitString{}, err
	}
	return BitString{Data: data, Bits: int(length)}, nil
}

func (a varBitsAdapter) WriteField(b *cell.Builder, value BitString) error {
	if value.Bits < 0 || value.Bits > len(value.Data)*8 {
		return fmt.Errorf("%w: %d bits in %d bytes", ErrInvalidValue, value.Bits, len(value.Data))
	}
	if a.lenBits < 64 && uint64(value.Bits)>>a.lenBits != 0 {
		return fmt.Errorf("%w: length %d exceeds %d bit prefix", ErrInvalidValue, value.Bits, a.lenBits)
	}
	if err := b.WriteUint(uint64(value.Bits), a.lenBits); err != nil {
		return err
	}
	return b.WriteBits(value.Data, value.Bits)
}

// coinsLenBits is the width of the byte length of a coin amount.
const coinsLenBits = 4

type coinsAdapter struct{}

// Coins encodes token amounts as a 4-bit byte length followed by the
// minimal big-endian encoding of the amount.
func Coins() Adapter[amount.Amount] {
	return coinsAdapter{}
}

func (coinsAdapter) ReadField(p *cell.Parser) (amount.Amount, error) {
	length, err := p.ReadUint(coinsLenBits)
	if err != nil {
		return amount.Amount{}, err
	}
	data, err := p.ReadBytes(int(length))
	if err != nil {
		return amount.Amount{}, err
	}
	return amount.NewFromBytes(data)
}

func (coinsAdapter) WriteField(b *cell.Builder, value amount.Amount) error {
	if !value.IsCoinValue() {
		return fmt.Errorf("%w: amount %v exceeds %d bytes", ErrInvalidValue, value, amount.MaxCoinBytes)
	}
	length := value.ByteLen()
	if err := b.WriteUint(uint64(length), coinsLenBits); err != nil {
		return err
	}
	return b.WriteBytes(value.Bytes())
}
