// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package boc

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/Fantom-foundation/Cellar/go/database/cell"
)

// Encode serializes the DAG spanned by the given roots.
func Encode(roots []*cell.Cell, config Config) ([]byte, error) {
	raw, err := Flatten(roots, config.StoreHashes)
	if err != nil {
		return nil, err
	}
	return EncodeRaw(raw, config)
}

// EncodeRoot serializes the DAG spanned by a single root.
func EncodeRoot(root *cell.Cell, config Config) ([]byte, error) {
	return Encode([]*cell.Cell{root}, config)
}

// EncodeRaw serializes a flat model. Cells are written in reverse order so
// that roots come first and references point to higher wire indices.
func EncodeRaw(raw *Raw, config Config) ([]byte, error) {
	if config.HasCacheBits && !config.HasIndex {
		return nil, fmt.Errorf("%w: cache bits require an index", ErrInvalidHeader)
	}
	n := len(raw.Cells)
	if len(raw.Roots) == 0 {
		return nil, fmt.Errorf("%w: no roots", ErrInvalidHeader)
	}
	if len(raw.Roots)+raw.Absent > n {
		return nil, fmt.Errorf("%w: %d roots and %d absent cells, but only %d cells", ErrTooManyRoots, len(raw.Roots), raw.Absent, n)
	}

	refBytes := max(1, getNumBytes(uint64(n)))
	if refBytes > maxRefBytes {
		return nil, fmt.Errorf("%w: %d cells exceed the supported count", ErrInvalidHeader, n)
	}

	// Cells are serialized first to learn the payload size.
	payload := []byte{}
	ends := make([]uint64, n)
	for w := 0; w < n; w++ {
		index := n - 1 - w
		var err error
		payload, err = appendCell(payload, &raw.Cells[index], index, n, refBytes, config.StoreHashes)
		if err != nil {
			return nil, err
		}
		ends[w] = uint64(len(payload))
	}

	total := uint64(len(payload))
	maxOffset := total
	if config.HasCacheBits {
		maxOffset = total << 1
	}
	header := Header{
		HasIndex:       config.HasIndex,
		HasCrc32c:      config.HasCrc32c,
		HasCacheBits:   config.HasCacheBits,
		RefBytes:       refBytes,
		OffsetBytes:    max(1, getNumBytes(maxOffset)),
		CellCount:      n,
		RootCount:      len(raw.Roots),
		AbsentCount:    raw.Absent,
		TotalCellsSize: total,
		Roots:          make([]int, len(raw.Roots)),
	}
	for i, root := range raw.Roots {
		if root < 0 || root >= n {
			return nil, fmt.Errorf("%w: root index %d out of range, %d cells", ErrInvalidHeader, root, n)
		}
		header.Roots[i] = n - 1 - root
	}

	size := header.Size() + len(payload)
	if config.HasCrc32c {
		size += crcBytes
	}
	res := make([]byte, 0, size)
	res = header.appendTo(res)
	if config.HasIndex {
		for w, end := range ends {
			entry := end
			if config.HasCacheBits {
				entry <<= 1
				if raw.Cells[n-1-w].Shared {
					entry |= 1
				}
			}
			res = putSize(res, entry, header.OffsetBytes)
		}
	}
	res = append(res, payload...)
	if config.HasCrc32c {
		res = binary.LittleEndian.AppendUint32(res, crc32.Checksum(res, castagnoli))
	}
	return res, nil
}

// appendCell appends the wire form of the cell at the given flat index.
func appendCell(dst []byte, c *RawCell, index, n, refBytes int, withHashes bool) ([]byte, error) {
	if len(c.Refs) > cell.MaxRefs {
		return nil, fmt.Errorf("%w: cell %d has %d references", cell.ErrInvalidCell, index, len(c.Refs))
	}
	if c.BitLen < 0 || c.BitLen > cell.MaxBits || len(c.Data) < (c.BitLen+7)/8 {
		return nil, fmt.Errorf("%w: cell %d has %d bits in %d bytes", cell.ErrInvalidCell, index, c.BitLen, len(c.Data))
	}
	if !c.LevelMask.IsValid() {
		return nil, fmt.Errorf("%w: cell %d has level mask %d", cell.ErrInvalidCell, index, c.LevelMask)
	}
	count := c.LevelMask.HashCount()
	withHashes = withHashes && len(c.Hashes) == count && len(c.Depths) == count

	d1 := byte(len(c.Refs)) | byte(c.LevelMask)<<5
	if c.Exotic {
		d1 |= 8
	}
	if withHashes {
		d1 |= 16
	}
	d2 := byte((c.BitLen+7)/8 + c.BitLen/8)
	dst = append(dst, d1, d2)

	if withHashes {
		for _, hash := range c.Hashes {
			dst = append(dst, hash[:]...)
		}
		for _, depth := range c.Depths {
			dst = binary.BigEndian.AppendUint16(dst, depth)
		}
	}

	byteLen := (c.BitLen + 7) / 8
	start := len(dst)
	dst = append(dst, c.Data[:byteLen]...)
	if rest := c.BitLen % 8; rest != 0 {
		last := &dst[start+byteLen-1]
		*last &= byte(0xFF) << (8 - rest)
		*last |= 0x80 >> rest
	}

	for _, ref := range c.Refs {
		if ref < 0 || ref >= index {
			return nil, fmt.Errorf("%w: cell %d references cell %d", ErrForwardReference, index, ref)
		}
		dst = putSize(dst, uint64(n-1-ref), refBytes)
	}
	return dst, nil
}
