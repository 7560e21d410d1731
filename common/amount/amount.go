// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package amount

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// MaxCoinBytes is the longest encoding of a coin value; the length prefix
// of a coin value has 4 bits.
const MaxCoinBytes = 15

// NanoDecimals is the number of decimal places of the base unit.
const NanoDecimals = 9

// Amount is a 256-bit unsigned integer used for token values like balances
// and message values. On the wire amounts are stored with a variable number
// of bytes, see ByteLen and Bytes.
type Amount struct {
	internal uint256.Int
}

// Parse reads a decimal amount of base units.
func Parse(text string) (Amount, error) {
	value, err := uint256.FromDecimal(strings.TrimSpace(text))
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", text, err)
	}
	return Amount{internal: *value}, nil
}

// New creates a new Amount from up to 4 uint64 arguments. The
// arguments are given in the Big Endian order. No argument results in a value of zero.
// The constructor panics if more than 4 arguments are given.
func New(args ...uint64) Amount {
	if len(args) > 4 {
		panic("too many arguments")
	}
	result := Amount{}
	offset := 4 - len(args)
	for i := 0; i < len(args); i++ {
		result.internal[3-i-offset] = args[i]
	}
	return result
}

// NewFromUint256 creates a new amount from an uint256.
func NewFromUint256(value *uint256.Int) Amount {
	return Amount{internal: *value}
}

// NewFromBytes creates a new Amount from a big-endian byte string of at
// most 32 bytes.
func NewFromBytes(data []byte) (Amount, error) {
	if len(data) > 32 {
		return Amount{}, fmt.Errorf("amount encoding exceeds 32 bytes: %d", len(data))
	}
	result := Amount{}
	result.internal.SetBytes(data)
	return result, nil
}

// NewFromBigInt creates a new Amount instance from a big.Int.
func NewFromBigInt(b *big.Int) (Amount, error) {
	if b == nil {
		return New(), nil
	}
	if b.Sign() < 0 {
		return Amount{}, fmt.Errorf("cannot construct Amount from negative big.Int")
	}
	result := uint256.Int{}
	if overflow := result.SetFromBig(b); overflow {
		return Amount{}, fmt.Errorf("big.Int has more than 256 bits")
	}
	return Amount{internal: result}, nil
}

// Uint64 returns the amount as an uint64. The result is only valid if `IsUint64()` returns true.
func (a Amount) Uint64() uint64 {
	return a.internal.Uint64()
}

// IsZero returns true if the amount is zero.
func (a Amount) IsZero() bool {
	return a.internal.IsZero()
}

// IsUint64 returns true if the amount is representable as an uint64.
func (a Amount) IsUint64() bool {
	return a.internal.IsUint64()
}

// ByteLen returns the minimal number of bytes needed to represent the amount
// in big-endian order; zero needs no bytes.
func (a Amount) ByteLen() int {
	return a.internal.ByteLen()
}

// Bytes returns the minimal big-endian encoding of the amount.
func (a Amount) Bytes() []byte {
	return a.internal.Bytes()
}

// ToBig returns a bigInt version of the amount.
func (a Amount) ToBig() *big.Int {
	return a.internal.ToBig()
}

// Uint256 returns the amount as an uint256.
func (a Amount) Uint256() uint256.Int {
	return a.internal
}

// IsCoinValue returns true if the amount fits the coin encoding.
func (a Amount) IsCoinValue() bool {
	return a.ByteLen() <= MaxCoinBytes
}

// Cmp compares two amounts, returning -1, 0 or +1.
func (a Amount) Cmp(b Amount) int {
	return a.internal.Cmp(&b.internal)
}

// String returns the decimal representation of the amount.
func (a Amount) String() string {
	return a.internal.Dec()
}

// Format renders the amount as a decimal number with the given number of
// fractional digits, dropping trailing zeros of the fraction. Format(9)
// renders nano units as whole coins.
func (a Amount) Format(decimals int) string {
	digits := a.internal.Dec()
	if decimals <= 0 {
		return digits
	}
	if len(digits) <= decimals {
		digits = strings.Repeat("0", decimals-len(digits)+1) + digits
	}
	whole, fraction := digits[:len(digits)-decimals], strings.TrimRight(digits[len(digits)-decimals:], "0")
	if fraction == "" {
		return whole
	}
	return whole + "." + fraction
}

// Add returns the sum of two amounts and a boolean indicating overflow.
func Add(a, b Amount) (Amount, bool) {
	result := Amount{}
	_, overflow := result.internal.AddOverflow(&a.internal, &b.internal)
	return result, overflow
}

// Sub returns the difference of two amounts and a boolean indicating underflow.
func Sub(a, b Amount) (Amount, bool) {
	result := Amount{}
	_, underflow := result.internal.SubOverflow(&a.internal, &b.internal)
	return result, underflow
}
