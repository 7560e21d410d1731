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
)

// Magic is the prefix of every serialized BOC.
const Magic uint32 = 0xB5EE9C72

const (
	flagHasIndex     = 0x80
	flagHasCrc32c    = 0x40
	flagHasCacheBits = 0x20
	flagReserved     = 0x18
	flagSize         = 0x07

	maxRefBytes    = 4
	maxOffsetBytes = 8
	crcBytes       = 4
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Header describes the fixed part of a serialized BOC.
type Header struct {
	HasIndex     bool
	HasCrc32c    bool
	HasCacheBits bool
	// Flags holds the two reserved flag bits.
	Flags uint8
	// RefBytes is the width of cell counts and reference indices.
	RefBytes int
	// OffsetBytes is the width of the payload size and index entries.
	OffsetBytes    int
	CellCount      int
	RootCount      int
	AbsentCount    int
	TotalCellsSize uint64
	// Roots lists the wire indices of the root cells.
	Roots []int
}

// Size returns the number of bytes covered by the header, the root list and
// the index, which is the offset of the first cell.
func (h *Header) Size() int {
	res := 4 + 1 + 1 + 3*h.RefBytes + h.OffsetBytes + h.RootCount*h.RefBytes
	if h.HasIndex {
		res += h.CellCount * h.OffsetBytes
	}
	return res
}

// reader is a cursor over a BOC buffer producing errors that name the
// offending offset and span.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) read(n int) ([]byte, error) {
	if n < 0 || n > len(r.data)-r.pos {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, %d available", ErrTruncated, n, r.pos, len(r.data)-r.pos)
	}
	res := r.data[r.pos : r.pos+n]
	r.pos += n
	return res, nil
}

func (r *reader) readByte() (byte, error) {
	b, err := r.read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) readUint(width int) (uint64, error) {
	b, err := r.read(width)
	if err != nil {
		return 0, err
	}
	return readSize(b), nil
}

func (r *reader) readInt(width int) (int, error) {
	v, err := r.readUint(width)
	if err != nil {
		return 0, err
	}
	if v > uint64(len(r.data)) {
		return 0, fmt.Errorf("%w: value %d at offset %d exceeds input size %d", ErrInvalidHeader, v, r.pos-width, len(r.data))
	}
	return int(v), nil
}

// readSize interprets the given bytes as a big-endian unsigned integer.
func readSize(b []byte) uint64 {
	var res uint64
	for _, cur := range b {
		res = res<<8 | uint64(cur)
	}
	return res
}

// putSize appends value as a big-endian integer of the given width.
func putSize(dst []byte, value uint64, width int) []byte {
	for i := width - 1; i >= 0; i-- {
		dst = append(dst, byte(value>>(8*i)))
	}
	return dst
}

// getNumBytes returns the number of bytes needed to represent the value.
func getNumBytes(value uint64) int {
	if value == 0 {
		return 0
	}
	for res := 1; ; res++ {
		if value >>= 8; value == 0 {
			return res
		}
	}
}

// ParseHeader parses the header and root list of a serialized BOC. The
// returned header is validated for internal consistency, but cells and the
// checksum are not inspected.
func ParseHeader(data []byte) (Header, error) {
	r := &reader{data: data}
	return parseHeader(r)
}

func parseHeader(r *reader) (Header, error) {
	res := Header{}
	if len(r.data) == 0 {
		return res, ErrEmptyInput
	}
	magic, err := r.read(4)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrBadMagic, err)
	}
	if got := binary.BigEndian.Uint32(magic); got != Magic {
		return res, fmt.Errorf("%w: got %08x at offset 0", ErrBadMagic, got)
	}

	flags, err := r.readByte()
	if err != nil {
		return res, err
	}
	res.HasIndex = flags&flagHasIndex != 0
	res.HasCrc32c = flags&flagHasCrc32c != 0
	res.HasCacheBits = flags&flagHasCacheBits != 0
	res.Flags = (flags & flagReserved) >> 3
	res.RefBytes = int(flags & flagSize)
	if res.RefBytes == 0 || res.RefBytes > maxRefBytes {
		return res, fmt.Errorf("%w: reference width %d at offset 4", ErrInvalidHeader, res.RefBytes)
	}
	if res.HasCacheBits && !res.HasIndex {
		return res, fmt.Errorf("%w: cache bits without index", ErrInvalidHeader)
	}

	offsetBytes, err := r.readByte()
	if err != nil {
		return res, err
	}
	res.OffsetBytes = int(offsetBytes)
	if res.OffsetBytes == 0 || res.OffsetBytes > maxOffsetBytes {
		return res, fmt.Errorf("%w: offset width %d at offset 5", ErrInvalidHeader, res.OffsetBytes)
	}

	if res.CellCount, err = r.readInt(res.RefBytes); err != nil {
		return res, err
	}
	if res.RootCount, err = r.readInt(res.RefBytes); err != nil {
		return res, err
	}
	if res.AbsentCount, err = r.readInt(res.RefBytes); err != nil {
		return res, err
	}
	if res.RootCount == 0 {
		return res, fmt.Errorf("%w: no roots", ErrInvalidHeader)
	}
	if res.RootCount+res.AbsentCount > res.CellCount {
		return res, fmt.Errorf("%w: %d roots and %d absent cells, but only %d cells", ErrTooManyRoots, res.RootCount, res.AbsentCount, res.CellCount)
	}
	if res.TotalCellsSize, err = r.readUint(res.OffsetBytes); err != nil {
		return res, err
	}
	// every cell needs at least its two descriptor bytes
	if res.TotalCellsSize < 2*uint64(res.CellCount) {
		return res, fmt.Errorf("%w: %d cells cannot fit into %d bytes", ErrInvalidHeader, res.CellCount, res.TotalCellsSize)
	}

	res.Roots = make([]int, res.RootCount)
	for i := range res.Roots {
		start := r.pos
		root, err := r.readUint(res.RefBytes)
		if err != nil {
			return res, err
		}
		if root >= uint64(res.CellCount) {
			return res, fmt.Errorf("%w: root index %d at offset %d out of range, %d cells", ErrInvalidHeader, root, start, res.CellCount)
		}
		res.Roots[i] = int(root)
	}
	return res, nil
}

func (h *Header) flags() byte {
	res := byte(h.RefBytes) | (h.Flags<<3)&flagReserved
	if h.HasIndex {
		res |= flagHasIndex
	}
	if h.HasCrc32c {
		res |= flagHasCrc32c
	}
	if h.HasCacheBits {
		res |= flagHasCacheBits
	}
	return res
}

func (h *Header) appendTo(dst []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, Magic)
	dst = append(dst, h.flags(), byte(h.OffsetBytes))
	dst = putSize(dst, uint64(h.CellCount), h.RefBytes)
	dst = putSize(dst, uint64(h.RootCount), h.RefBytes)
	dst = putSize(dst, uint64(h.AbsentCount), h.RefBytes)
	dst = putSize(dst, h.TotalCellsSize, h.OffsetBytes)
	for _, root := range h.Roots {
		dst = putSize(dst, uint64(root), h.RefBytes)
	}
	return dst
}
