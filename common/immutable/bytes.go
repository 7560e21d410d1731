// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package immutable

import "fmt"

// Bytes is an immutable slice of bytes that can be trivially cloned and
// compared with ==. Cell payloads are kept in this form so that cells can
// be shared between goroutines without defensive copies.
type Bytes struct {
	data string
}

// NewBytes creates a new Bytes from a slice of bytes. The slice is copied.
func NewBytes(data []byte) Bytes {
	return Bytes{data: string(data)}
}

// ToBytes returns a mutable copy of the content.
func (b Bytes) ToBytes() []byte {
	return []byte(b.data)
}

// AppendTo appends the content to the given slice and returns the result.
func (b Bytes) AppendTo(dst []byte) []byte {
	return append(dst, b.data...)
}

// Len returns the number of bytes.
func (b Bytes) Len() int {
	return len(b.data)
}

// At returns the byte at position i. It panics if i is out of range.
func (b Bytes) At(i int) byte {
	return b.data[i]
}

// Bit returns the bit at position i counted from the most significant bit of
// the first byte. Positions beyond the content read as zero.
func (b Bytes) Bit(i int) bool {
	if i < 0 || i/8 >= len(b.data) {
		return false
	}
	return b.data[i/8]&(0x80>>(i%8)) != 0
}

func (b Bytes) String() string {
	return fmt.Sprintf("0x%x", b.data)
}
