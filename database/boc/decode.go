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
	"math/bits"

	"github.com/Fantom-foundation/Cellar/go/common"
	"github.com/Fantom-foundation/Cellar/go/database/cell"
)

// Decode parses a serialized BOC and returns its root cells.
func Decode(data []byte) ([]*cell.Cell, error) {
	raw, _, err := DecodeRaw(data)
	if err != nil {
		return nil, err
	}
	return raw.Build()
}

// DecodeRoot parses a serialized BOC that must have exactly one root.
func DecodeRoot(data []byte) (*cell.Cell, error) {
	roots, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if len(roots) != 1 {
		return nil, fmt.Errorf("%w: expected a single root, got %d", ErrTooManyRoots, len(roots))
	}
	return roots[0], nil
}

// DecodeRaw parses a serialized BOC into its flat model without building
// cells. The returned header describes the encoding options found.
func DecodeRaw(data []byte) (*Raw, Header, error) {
	r := &reader{data: data}
	header, err := parseHeader(r)
	if err != nil {
		return nil, header, err
	}
	n := header.CellCount

	if header.HasCrc32c {
		if len(data) < crcBytes {
			return nil, header, fmt.Errorf("%w: missing checksum", ErrTruncated)
		}
		body := data[:len(data)-crcBytes]
		want := binary.LittleEndian.Uint32(data[len(data)-crcBytes:])
		if got := crc32.Checksum(body, castagnoli); got != want {
			return nil, header, fmt.Errorf("%w: stored %08x, computed %08x", ErrChecksumMismatch, want, got)
		}
		r.data = body
	}

	var index []uint64
	if header.HasIndex {
		index = make([]uint64, n)
		for i := range index {
			if index[i], err = r.readUint(header.OffsetBytes); err != nil {
				return nil, header, err
			}
			if header.HasCacheBits {
				index[i] >>= 1
			}
		}
	}

	start := r.pos
	if uint64(len(r.data)-start) < header.TotalCellsSize {
		return nil, header, fmt.Errorf("%w: %d bytes of cells declared at offset %d, %d available", ErrTruncated, header.TotalCellsSize, start, len(r.data)-start)
	}
	cellData := &reader{data: r.data[:start+int(header.TotalCellsSize)], pos: start}

	res := &Raw{
		Cells:  make([]RawCell, n),
		Roots:  make([]int, len(header.Roots)),
		Absent: header.AbsentCount,
	}
	for w := 0; w < n; w++ {
		cellStart := cellData.pos
		raw, err := parseCell(cellData, w, n, header.RefBytes)
		if err != nil {
			return nil, header, err
		}
		if index != nil && index[w] != uint64(cellData.pos-start) {
			return nil, header, fmt.Errorf("%w: index entry %d is %d, cell at offset %d ends at %d", ErrInvalidHeader, w, index[w], cellStart, cellData.pos-start)
		}
		res.Cells[n-1-w] = raw
	}
	if cellData.pos != len(cellData.data) {
		return nil, header, fmt.Errorf("%w: %d unused bytes at offset %d in cell section", ErrInvalidHeader, len(cellData.data)-cellData.pos, cellData.pos)
	}
	if end := start + int(header.TotalCellsSize); end != len(r.data) {
		return nil, header, fmt.Errorf("%w: %d trailing bytes at offset %d", ErrInvalidHeader, len(r.data)-end, end)
	}
	for i, root := range header.Roots {
		res.Roots[i] = n - 1 - root
	}
	return res, header, nil
}

// parseCell reads the cell with wire index w and converts its references to
// flat indices.
func parseCell(r *reader, w, n, refBytes int) (RawCell, error) {
	res := RawCell{}
	start := r.pos
	descriptors, err := r.read(2)
	if err != nil {
		return res, err
	}
	d1, d2 := descriptors[0], descriptors[1]
	refCount := int(d1 & 7)
	if refCount > cell.MaxRefs {
		return res, fmt.Errorf("%w: cell at offset %d has %d references", cell.ErrInvalidCell, start, refCount)
	}
	res.Exotic = d1&8 != 0
	withHashes := d1&16 != 0
	res.LevelMask = cell.LevelMask(d1 >> 5)

	if withHashes {
		count := res.LevelMask.HashCount()
		hashes, err := r.read(count * common.HashSize)
		if err != nil {
			return res, err
		}
		depths, err := r.read(count * 2)
		if err != nil {
			return res, err
		}
		res.Hashes = make([]common.Hash, count)
		res.Depths = make([]uint16, count)
		for i := 0; i < count; i++ {
			res.Hashes[i] = common.HashFromBytes(hashes[i*common.HashSize : (i+1)*common.HashSize])
			res.Depths[i] = binary.BigEndian.Uint16(depths[i*2:])
		}
	}

	byteLen := int(d2>>1) + int(d2&1)
	data, err := r.read(byteLen)
	if err != nil {
		return res, err
	}
	res.Data = append([]byte(nil), data...)
	res.BitLen = byteLen * 8
	if d2&1 != 0 {
		last := res.Data[byteLen-1]
		if last == 0 {
			return res, fmt.Errorf("%w: missing completion tag in cell at offset %d, bytes %d-%d", cell.ErrInvalidCell, start, r.pos-byteLen, r.pos)
		}
		res.BitLen -= bits.TrailingZeros8(last) + 1
	}
	if res.BitLen > cell.MaxBits {
		return res, fmt.Errorf("%w: cell at offset %d has %d bits", cell.ErrInvalidCell, start, res.BitLen)
	}

	res.Refs = make([]int, refCount)
	for i := range res.Refs {
		pos := r.pos
		ref, err := r.readUint(refBytes)
		if err != nil {
			return res, err
		}
		if ref <= uint64(w) || ref >= uint64(n) {
			return res, fmt.Errorf("%w: cell %d at offset %d references cell %d at offset %d, %d cells", ErrForwardReference, w, start, ref, pos, n)
		}
		res.Refs[i] = n - 1 - int(ref)
	}
	return res, nil
}
