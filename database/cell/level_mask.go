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

import "math/bits"

// MaxLevel is the highest level a cell can have.
const MaxLevel = 3

// LevelMask describes at which Merkle levels a cell has distinct hashes. Bit
// i of the mask is set if the cell's hash at level i+1 differs from its hash
// at level i.
type LevelMask uint8

// Level returns the level of a cell with this mask, the position of the
// highest set bit.
func (m LevelMask) Level() int {
	return bits.Len8(uint8(m))
}

// HashIndex returns the index of the highest hash of a cell with this mask.
func (m LevelMask) HashIndex() int {
	return bits.OnesCount8(uint8(m))
}

// HashCount returns the number of distinct hashes of a cell with this mask.
func (m LevelMask) HashCount() int {
	return m.HashIndex() + 1
}

// Apply restricts the mask to the levels below the given level.
func (m LevelMask) Apply(level int) LevelMask {
	if level >= 8 {
		return m
	}
	return m & LevelMask((1<<level)-1)
}

// IsSignificant returns true if the hash of the given level is distinct
// from the hash of the level below.
func (m LevelMask) IsSignificant(level int) bool {
	return level == 0 || (m>>(level-1))&1 != 0
}

// IsValid returns true if the mask only uses bits of levels 1 to 3.
func (m LevelMask) IsValid() bool {
	return m < 1<<MaxLevel
}
