// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"encoding/hex"
	"fmt"
)

// HashSize is the number of bytes of a Hash.
const HashSize = 32

// Hash is a SHA-256 digest identifying the content of a cell.
type Hash [HashSize]byte

// HashFromBytes copies the first HashSize bytes of data into a Hash. Shorter
// inputs leave the remaining bytes zero.
func HashFromBytes(data []byte) Hash {
	var res Hash
	copy(res[:], data)
	return res
}

// ParseHash parses a hash given as a 64-character hex string.
func ParseHash(str string) (Hash, error) {
	data, err := hex.DecodeString(str)
	if err != nil {
		return Hash{}, fmt.Errorf("invalid hash string %q: %w", str, err)
	}
	if len(data) != HashSize {
		return Hash{}, fmt.Errorf("invalid hash length, wanted %d bytes, got %d", HashSize, len(data))
	}
	return HashFromBytes(data), nil
}

// String renders the hash as lower case hex without a prefix.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero returns true if all bytes of the hash are zero.
func (h Hash) IsZero() bool {
	return h == Hash{}
}
