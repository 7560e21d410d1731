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

	"github.com/Fantom-foundation/Cellar/go/common"
	"github.com/holiman/uint256"
	"golang.org/x/exp/constraints"
)

// KeyAdapter maps dictionary keys to unsigned integers of the key width and
// back.
type KeyAdapter[K comparable] interface {
	ToBits(key K, width int) (*big.Int, error)
	FromBits(bits *big.Int, width int) (K, error)
}

func checkUnsignedWidth(value *big.Int, width int) error {
	if value.Sign() < 0 || value.BitLen() > width {
		return fmt.Errorf("%w: %v does not fit into %d bits", ErrKeyWidth, value, width)
	}
	return nil
}

type uintKeys[T constraints.Unsigned] struct{}

// UintKeys maps unsigned integer keys to their binary representation.
func UintKeys[T constraints.Unsigned]() KeyAdapter[T] {
	return uintKeys[T]{}
}

func (uintKeys[T]) ToBits(key T, width int) (*big.Int, error) {
	res := new(big.Int).SetUint64(uint64(key))
	return res, checkUnsignedWidth(res, width)
}

func (uintKeys[T]) FromBits(bits *big.Int, width int) (T, error) {
	if !bits.IsUint64() || uint64(T(bits.Uint64())) != bits.Uint64() {
		return 0, fmt.Errorf("%w: %v exceeds key type %T", ErrKeyWidth, bits, T(0))
	}
	return T(bits.Uint64()), nil
}

type intKeys[T constraints.Signed] struct{}

// IntKeys maps signed integer keys to their two's complement representation
// in the key width.
func IntKeys[T constraints.Signed]() KeyAdapter[T] {
	return intKeys[T]{}
}

func (intKeys[T]) ToBits(key T, width int) (*big.Int, error) {
	value := big.NewInt(int64(key))
	if width == 0 {
		if key != 0 {
			return nil, fmt.Errorf("%w: %d does not fit into 0 bits", ErrKeyWidth, key)
		}
		return value, nil
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(width-1))
	if value.Cmp(limit) >= 0 || value.Cmp(new(big.Int).Neg(limit)) < 0 {
		return nil, fmt.Errorf("%w: %d does not fit into %d bits", ErrKeyWidth, key, width)
	}
	if value.Sign() < 0 {
		value.Add(value, new(big.Int).Lsh(limit, 1))
	}
	return value, nil
}

func (intKeys[T]) FromBits(bits *big.Int, width int) (T, error) {
	value := new(big.Int).Set(bits)
	if width > 0 && value.Bit(width-1) == 1 {
		value.Sub(value, new(big.Int).Lsh(big.NewInt(1), uint(width)))
	}
	if !value.IsInt64() || int64(T(value.Int64())) != value.Int64() {
		return 0, fmt.Errorf("%w: %v exceeds key type %T", ErrKeyWidth, value, T(0))
	}
	return T(value.Int64()), nil
}

type uint256Keys struct{}

// Uint256Keys maps 256-bit unsigned integer keys to their binary
// representation.
func Uint256Keys() KeyAdapter[uint256.Int] {
	return uint256Keys{}
}

func (uint256Keys) ToBits(key uint256.Int, width int) (*big.Int, error) {
	res := key.ToBig()
	return res, checkUnsignedWidth(res, width)
}

func (uint256Keys) FromBits(bits *big.Int, width int) (uint256.Int, error) {
	res := uint256.Int{}
	if overflow := res.SetFromBig(bits); overflow {
		return res, fmt.Errorf("%w: %v exceeds 256 bits", ErrKeyWidth, bits)
	}
	return res, nil
}

type hashKeys struct{}

// HashKeys maps 32-byte hashes, read as big-endian integers, to keys.
func HashKeys() KeyAdapter[common.Hash] {
	return hashKeys{}
}

func (hashKeys) ToBits(key common.Hash, width int) (*big.Int, error) {
	res := new(big.Int).SetBytes(key[:])
	return res, checkUnsignedWidth(res, width)
}

func (hashKeys) FromBits(bits *big.Int, width int) (common.Hash, error) {
	if bits.BitLen() > 8*common.HashSize {
		return common.Hash{}, fmt.Errorf("%w: %v exceeds hash size", ErrKeyWidth, bits)
	}
	var res common.Hash
	bits.FillBytes(res[:])
	return res, nil
}
