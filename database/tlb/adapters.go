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

	"github.com/Fantom-foundation/Cellar/go/common"
	"github.com/Fantom-foundation/Cellar/go/database/cell"
	"github.com/holiman/uint256"
	"golang.org/x/exp/constraints"
)

type integerAdapter[T constraints.Integer] struct {
	bits int
}

// Uint encodes unsigned integers with a fixed number of bits.
func Uint[T constraints.Unsigned](bits int) Adapter[T] {
	return integerAdapter[T]{bits: bits}
}

// Int encodes signed integers in two's complement with a fixed number of
// bits.
func Int[T constraints.Signed](bits int) Adapter[T] {
	return integerAdapter[T]{bits: bits}
}

func (a integerAdapter[T]) ReadField(p *cell.Parser) (T, error) {
	return cell.ReadInteger[T](p, a.bits)
}

func (a integerAdapter[T]) WriteField(b *cell.Builder, value T) error {
	return cell.WriteInteger(b, value, a.bits)
}

type bigIntAdapter struct {
	bits   int
	signed bool
}

// BigUint encodes non-negative big integers with a fixed number of bits.
func BigUint(bits int) Adapter[*big.Int] {
	return bigIntAdapter{bits: bits}
}

// BigInt encodes big integers in two's complement with a fixed number of
// bits.
func BigInt(bits int) Adapter[*big.Int] {
	return bigIntAdapter{bits: bits, signed: true}
}

func (a bigIntAdapter) ReadField(p *cell.Parser) (*big.Int, error) {
	if a.signed {
		return p.ReadBigInt(a.bits)
	}
	return p.ReadBigUint(a.bits)
}

func (a bigIntAdapter) WriteField(b *cell.Builder, value *big.Int) error {
	if value == nil {
		return fmt.Errorf("%w: nil integer", ErrInvalidValue)
	}
	if a.signed {
		return b.WriteBigInt(value, a.bits)
	}
	return b.WriteBigUint(value, a.bits)
}

type uint256Adapter struct {
	bits int
}

// Uint256 encodes 256-bit unsigned integers with a fixed number of bits.
func Uint256(bits int) Adapter[*uint256.Int] {
	return uint256Adapter{bits: bits}
}

func (a uint256Adapter) ReadField(p *cell.Parser) (*uint256.Int, error) {
	return p.ReadUint256(a.bits)
}

func (a uint256Adapter) WriteField(b *cell.Builder, value *uint256.Int) error {
	if value == nil {
		return fmt.Errorf("%w: nil integer", ErrInvalidValue)
	}
	return b.WriteUint256(value, a.bits)
}

type boolAdapter struct{}

// Bool encodes a boolean as a single bit.
func Bool() Adapter[bool] {
	return boolAdapter{}
}

func (boolAdapter) ReadField(p *cell.Parser) (bool, error) {
	return p.ReadBit()
}

func (boolAdapter) WriteField(b *cell.Builder, value bool) error {
	return b.WriteBit(value)
}

type bytesAdapter struct {
	size int
}

// Bytes encodes byte strings of a fixed length.
func Bytes(size int) Adapter[[]byte] {
	return bytesAdapter{size: size}
}

func (a bytesAdapter) ReadField(p *cell.Parser) ([]byte, error) {
	return p.ReadBytes(a.size)
}

func (a bytesAdapter) WriteField(b *cell.Builder, value []byte) error {
	if len(value) != a.size {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidValue, a.size, len(value))
	}
	return b.WriteBytes(value)
}

type hashAdapter struct{}

// Hash encodes a 256-bit hash.
func Hash() Adapter[common.Hash] {
	return hashAdapter{}
}

func (hashAdapter) ReadField(p *cell.Parser) (common.Hash, error) {
	data, err := p.ReadBytes(common.HashSize)
	if err != nil {
		return common.Hash{}, err
	}
	return common.HashFromBytes(data), nil
}

func (hashAdapter) WriteField(b *cell.Builder, value common.Hash) error {
	return b.WriteBytes(value[:])
}

type constantAdapter[T comparable] struct {
	value   T
	adapter Adapter[T]
}

// Constant encodes a field that must always hold the given value. Reading
// a different value fails with ErrInvalidValue.
func Constant[T comparable](value T, adapter Adapter[T]) Adapter[T] {
	return constantAdapter[T]{value: value, adapter: adapter}
}

func (a constantAdapter[T]) ReadField(p *cell.Parser) (T, error) {
	got, err := a.adapter.ReadField(p)
	if err != nil {
		return got, err
	}
	if got != a.value {
		return got, fmt.Errorf("%w: expected constant %v, got %v", ErrInvalidValue, a.value, got)
	}
	return got, nil
}

func (a constantAdapter[T]) WriteField(b *cell.Builder, value T) error {
	if value != a.value {
		return fmt.Errorf("%w: expected constant %v, got %v", ErrInvalidValue, a.value, value)
	}
	return a.adapter.WriteField(b, value)
}
