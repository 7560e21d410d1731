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

	"github.com/Fantom-foundation/Cellar/go/common"
)

const (
	hashBits  = 8 * common.HashSize
	depthBits = 16

	libraryBits      = 8 + hashBits
	merkleProofBits  = 8 + hashBits + depthBits
	merkleUpdateBits = 8 + 2*(hashBits+depthBits)
)

// computeLevelMask derives the level mask of the cell from its type, data
// and references, validating the layout of exotic cells on the way.
func (c *Cell) computeLevelMask() (LevelMask, error) {
	if c.typ == Ordinary {
		mask := LevelMask(0)
		for _, ref := range c.refs {
			mask |= ref.levelMask
		}
		return mask, nil
	}

	if c.bitLen < 8 {
		return 0, fmt.Errorf("%w: exotic cell without type byte", ErrInvalidCell)
	}
	if got := Type(c.data.At(0)); got != c.typ {
		return 0, fmt.Errorf("%w: exotic type byte %d does not match cell type %v", ErrInvalidCell, got, c.typ)
	}

	switch c.typ {
	case PrunedBranch:
		if len(c.refs) != 0 {
			return 0, fmt.Errorf("%w: pruned branch with %d references", ErrInvalidCell, len(c.refs))
		}
		if c.bitLen < 16 {
			return 0, fmt.Errorf("%w: pruned branch without level mask", ErrInvalidCell)
		}
		mask := LevelMask(c.data.At(1))
		if mask == 0 || !mask.IsValid() {
			return 0, fmt.Errorf("%w: pruned branch with invalid level mask %d", ErrInvalidCell, mask)
		}
		if want := 16 + mask.HashIndex()*(hashBits+depthBits); int(c.bitLen) != want {
			return 0, fmt.Errorf("%w: pruned branch with level mask %d needs %d bits, got %d", ErrInvalidCell, mask, want, c.bitLen)
		}
		return mask, nil

	case Library:
		if len(c.refs) != 0 || c.bitLen != libraryBits {
			return 0, fmt.Errorf("%w: library cell needs %d bits and no references, got %d bits and %d references", ErrInvalidCell, libraryBits, c.bitLen, len(c.refs))
		}
		return 0, nil

	case MerkleProof:
		if len(c.refs) != 1 || c.bitLen != merkleProofBits {
			return 0, fmt.Errorf("%w: merkle proof needs %d bits and 1 reference, got %d bits and %d references", ErrInvalidCell, merkleProofBits, c.bitLen, len(c.refs))
		}
		if err := c.checkMerkleChild(0, 1, 1+common.HashSize); err != nil {
			return 0, err
		}
		return c.refs[0].levelMask >> 1, nil

	case MerkleUpdate:
		if len(c.refs) != 2 || c.bitLen != merkleUpdateBits {
			return 0, fmt.Errorf("%w: merkle update needs %d bits and 2 references, got %d bits and %d references", ErrInvalidCell, merkleUpdateBits, c.bitLen, len(c.refs))
		}
		for i := 0; i < 2; i++ {
			if err := c.checkMerkleChild(i, 1+i*common.HashSize, 1+2*common.HashSize+2*i); err != nil {
				return 0, err
			}
		}
		return (c.refs[0].levelMask | c.refs[1].levelMask) >> 1, nil
	}
	return 0, fmt.Errorf("%w: unknown cell type %d", ErrInvalidCell, c.typ)
}

// checkMerkleChild verifies that the hash and depth stored at the given
// byte offsets match the level-0 hash and depth of the i-th reference.
func (c *Cell) checkMerkleChild(i, hashOffset, depthOffset int) error {
	ref := c.refs[i]
	hash := ref.HashAt(0)
	for j := 0; j < common.HashSize; j++ {
		if c.data.At(hashOffset+j) != hash[j] {
			return fmt.Errorf("%w: %v hash of reference %d does not match", ErrInvalidCell, c.typ, i)
		}
	}
	depth := int(c.data.At(depthOffset))<<8 | int(c.data.At(depthOffset+1))
	if depth != ref.DepthAt(0) {
		return fmt.Errorf("%w: %v depth of reference %d does not match, stored %d, actual %d", ErrInvalidCell, c.typ, i, depth, ref.DepthAt(0))
	}
	return nil
}

// prunedHash returns the i-th hash stored in the data of a pruned branch.
func (c *Cell) prunedHash(i int) common.Hash {
	var res common.Hash
	offset := 2 + i*common.HashSize
	for j := range res {
		res[j] = c.data.At(offset + j)
	}
	return res
}

// prunedDepth returns the i-th depth stored in the data of a pruned branch.
func (c *Cell) prunedDepth(i int) uint16 {
	offset := 2 + c.levelMask.HashIndex()*common.HashSize + 2*i
	return uint16(c.data.At(offset))<<8 | uint16(c.data.At(offset+1))
}

// LibraryHash returns the hash of the library cell referenced by a library
// cell. The result is undefined for other cell types.
func (c *Cell) LibraryHash() common.Hash {
	var res common.Hash
	for j := range res {
		res[j] = c.data.At(1 + j)
	}
	return res
}

// CreatePrunedBranch creates a pruned branch replacing the given cell one
// Merkle level above the cell's own level. The pruned branch has the same
// hashes and depths as the original cell on all levels up to that level.
func CreatePrunedBranch(c *Cell) (*Cell, error) {
	mask := c.levelMask | 1<<c.Level()
	if !mask.IsValid() {
		return nil, fmt.Errorf("%w: cannot prune cell of level %d", ErrInvalidCell, c.Level())
	}
	b := NewBuilder()
	if err := b.WriteUint(uint64(PrunedBranch), 8); err != nil {
		return nil, err
	}
	if err := b.WriteUint(uint64(mask), 8); err != nil {
		return nil, err
	}
	var levels []int
	for level := 0; level <= c.levelMask.Level(); level++ {
		if c.levelMask.IsSignificant(level) {
			levels = append(levels, level)
		}
	}
	for _, level := range levels {
		hash := c.HashAt(level)
		if err := b.WriteBytes(hash[:]); err != nil {
			return nil, err
		}
	}
	for _, level := range levels {
		if err := b.WriteUint(uint64(c.DepthAt(level)), depthBits); err != nil {
			return nil, err
		}
	}
	return b.BuildExotic(PrunedBranch)
}

// CreateLibraryRef creates a library cell referring to the cell with the
// given hash.
func CreateLibraryRef(hash common.Hash) (*Cell, error) {
	b := NewBuilder()
	if err := b.WriteUint(uint64(Library), 8); err != nil {
		return nil, err
	}
	if err := b.WriteBytes(hash[:]); err != nil {
		return nil, err
	}
	return b.BuildExotic(Library)
}

// CreateMerkleProof wraps the given cell, typically containing pruned
// branches, into a Merkle proof cell.
func CreateMerkleProof(c *Cell) (*Cell, error) {
	b := NewBuilder()
	if err := b.WriteUint(uint64(MerkleProof), 8); err != nil {
		return nil, err
	}
	if err := writeLevelZeroHash(b, c); err != nil {
		return nil, err
	}
	if err := b.WriteUint(uint64(c.DepthAt(0)), depthBits); err != nil {
		return nil, err
	}
	if err := b.WriteRef(c); err != nil {
		return nil, err
	}
	return b.BuildExotic(MerkleProof)
}

// CreateMerkleUpdate creates a Merkle update cell describing the transition
// from the old to the new cell.
func CreateMerkleUpdate(from, to *Cell) (*Cell, error) {
	b := NewBuilder()
	if err := b.WriteUint(uint64(MerkleUpdate), 8); err != nil {
		return nil, err
	}
	for _, c := range []*Cell{from, to} {
		if err := writeLevelZeroHash(b, c); err != nil {
			return nil, err
		}
	}
	var depths [4]byte
	binary.BigEndian.PutUint16(depths[0:], uint16(from.DepthAt(0)))
	binary.BigEndian.PutUint16(depths[2:], uint16(to.DepthAt(0)))
	if err := b.WriteBytes(depths[:]); err != nil {
		return nil, err
	}
	if err := b.WriteRef(from); err != nil {
		return nil, err
	}
	if err := b.WriteRef(to); err != nil {
		return nil, err
	}
	return b.BuildExotic(MerkleUpdate)
}

func writeLevelZeroHash(b *Builder, c *Cell) error {
	hash := c.HashAt(0)
	return b.WriteBytes(hash[:])
}
