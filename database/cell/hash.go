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
	"crypto/sha256"
	"encoding/binary"

	"github.com/Fantom-foundation/Cellar/go/common"
)

// hashInfo is the memoized hash and depth table of a cell. It holds one
// entry per significant level of the cell's level mask, except for pruned
// branches which only hold the entry of their own level; the lower levels of
// a pruned branch are part of its data.
type hashInfo struct {
	hashes []common.Hash
	depths []uint16
}

// Hash returns the representation hash of the cell at the highest level.
func (c *Cell) Hash() common.Hash {
	return c.HashAt(MaxLevel)
}

// Depth returns the depth of the cell at the highest level.
func (c *Cell) Depth() int {
	return c.DepthAt(MaxLevel)
}

// HashAt returns the representation hash of the cell at the given level.
func (c *Cell) HashAt(level int) common.Hash {
	index := c.levelMask.Apply(level).HashIndex()
	if c.typ == PrunedBranch {
		if own := c.levelMask.HashIndex(); index != own {
			return c.prunedHash(index)
		}
		index = 0
	}
	return c.info().hashes[index]
}

// DepthAt returns the depth of the cell at the given level. A cell without
// references has depth 0.
func (c *Cell) DepthAt(level int) int {
	index := c.levelMask.Apply(level).HashIndex()
	if c.typ == PrunedBranch {
		if own := c.levelMask.HashIndex(); index != own {
			return int(c.prunedDepth(index))
		}
		index = 0
	}
	return int(c.info().depths[index])
}

// info returns the memoized hash table, computing it if required.
func (c *Cell) info() *hashInfo {
	if res := c.hashes.Load(); res != nil {
		return res
	}
	computeHashes(c)
	return c.hashes.Load()
}

// computeHashes fills the hash tables of the given cell and all cells
// reachable from it that do not have one yet. Cells are processed in
// post-order using an explicit stack. Each table is published with a single
// compare-and-swap; concurrent callers may compute a table twice but all of
// them observe the first published instance.
func computeHashes(root *Cell) {
	stack := []*Cell{root}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		if cur.hashes.Load() != nil {
			stack = stack[:len(stack)-1]
			continue
		}
		pending := false
		for _, ref := range cur.refs {
			if ref.hashes.Load() == nil {
				stack = append(stack, ref)
				pending = true
			}
		}
		if pending {
			continue
		}
		stack = stack[:len(stack)-1]
		cur.hashes.CompareAndSwap(nil, cur.computeHashInfo())
	}
}

// computeHashInfo computes the hash table of this cell. The tables of all
// referenced cells must be available.
func (c *Cell) computeHashInfo() *hashInfo {
	total := c.levelMask.HashCount()
	count := total
	if c.typ == PrunedBranch {
		count = 1
	}
	offset := total - count

	res := &hashInfo{
		hashes: make([]common.Hash, 0, count),
		depths: make([]uint16, 0, count),
	}

	var buffer [2]byte
	index := 0
	for level := 0; level <= c.levelMask.Level(); level++ {
		if !c.levelMask.IsSignificant(level) {
			continue
		}
		if index < offset {
			index++
			continue
		}

		hasher := sha256.New()
		hasher.Write([]byte{c.refsDescriptor(c.levelMask.Apply(level)), c.bitsDescriptor()})
		if index == offset {
			hasher.Write(c.paddedData())
		} else {
			last := res.hashes[index-offset-1]
			hasher.Write(last[:])
		}

		childLevel := level
		if c.typ.IsMerkle() {
			childLevel++
		}
		depth := 0
		for _, ref := range c.refs {
			childDepth := ref.DepthAt(childLevel)
			binary.BigEndian.PutUint16(buffer[:], uint16(childDepth))
			hasher.Write(buffer[:])
			if childDepth+1 > depth {
				depth = childDepth + 1
			}
		}
		for _, ref := range c.refs {
			hash := ref.HashAt(childLevel)
			hasher.Write(hash[:])
		}

		var hash common.Hash
		hasher.Sum(hash[:0])
		res.hashes = append(res.hashes, hash)
		res.depths = append(res.depths, uint16(depth))
		index++
	}
	return res
}
