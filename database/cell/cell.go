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
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/Fantom-foundation/Cellar/go/common"
	"github.com/Fantom-foundation/Cellar/go/common/immutable"
)

const (
	// MaxBits is the maximum number of data bits of a cell.
	MaxBits = 1023
	// MaxRefs is the maximum number of references of a cell.
	MaxRefs = 4
	// MaxBytes is the number of bytes needed to hold MaxBits bits.
	MaxBytes = (MaxBits + 7) / 8
	// MaxDepth is the largest depth that fits the 16-bit depth fields of
	// hashes and exotic cells.
	MaxDepth = math.MaxUint16
)

// Type identifies the kind of a cell. Exotic cells store their type in the
// first byte of their data.
type Type uint8

const (
	Ordinary     Type = 0
	PrunedBranch Type = 1
	Library      Type = 2
	MerkleProof  Type = 3
	MerkleUpdate Type = 4
)

// IsExotic returns true for all types but Ordinary.
func (t Type) IsExotic() bool {
	return t != Ordinary
}

// IsMerkle returns true for Merkle proof and Merkle update cells whose
// children are hashed one level above the cell itself.
func (t Type) IsMerkle() bool {
	return t == MerkleProof || t == MerkleUpdate
}

func (t Type) String() string {
	switch t {
	case Ordinary:
		return "ordinary"
	case PrunedBranch:
		return "pruned-branch"
	case Library:
		return "library"
	case MerkleProof:
		return "merkle-proof"
	case MerkleUpdate:
		return "merkle-update"
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

// Cell is an immutable node of a cell DAG. Cells are created by a Builder or
// by New and may be shared freely, including between goroutines.
type Cell struct {
	typ       Type
	levelMask LevelMask
	bitLen    uint16
	data      immutable.Bytes
	refs      []*Cell
	hashes    atomic.Pointer[hashInfo]
	// maxDepth bounds the depth of the cell on every level.
	maxDepth uint16
}

// New creates a cell from its raw components. The first bitLen bits of data
// form the cell's payload, remaining bits are ignored. For exotic types the
// payload layout is validated and the level mask is derived from it.
func New(typ Type, data []byte, bitLen int, refs []*Cell) (*Cell, error) {
	if bitLen < 0 || bitLen > MaxBits {
		return nil, fmt.Errorf("%w: %d data bits exceed limit of %d", ErrInvalidCell, bitLen, MaxBits)
	}
	if len(refs) > MaxRefs {
		return nil, fmt.Errorf("%w: %d references exceed limit of %d", ErrInvalidCell, len(refs), MaxRefs)
	}
	byteLen := (bitLen + 7) / 8
	if len(data) < byteLen {
		return nil, fmt.Errorf("%w: %d bytes provided for %d bits", ErrInvalidCell, len(data), bitLen)
	}
	depth := 0
	for i, ref := range refs {
		if ref == nil {
			return nil, fmt.Errorf("%w: reference %d is nil", ErrInvalidCell, i)
		}
		depth = max(depth, int(ref.maxDepth)+1)
	}
	if depth > MaxDepth {
		return nil, fmt.Errorf("%w: depth %d exceeds limit of %d", ErrInvalidCell, depth, MaxDepth)
	}

	payload := make([]byte, byteLen)
	copy(payload, data)
	if rest := bitLen % 8; rest != 0 {
		payload[byteLen-1] &= byte(0xFF) << (8 - rest)
	}

	res := &Cell{
		typ:    typ,
		bitLen: uint16(bitLen),
		data:   immutable.NewBytes(payload),
	}
	if len(refs) > 0 {
		res.refs = make([]*Cell, len(refs))
		copy(res.refs, refs)
	}

	mask, err := res.computeLevelMask()
	if err != nil {
		return nil, err
	}
	res.levelMask = mask
	if typ == PrunedBranch {
		for i := 0; i < mask.HashIndex(); i++ {
			depth = max(depth, int(res.prunedDepth(i)))
		}
	}
	res.maxDepth = uint16(depth)
	return res, nil
}

// NewWithHashes is like New but seeds the memoized hashes and depths with
// the given values instead of computing them on demand. One hash and depth
// per significant level of the resulting level mask must be provided in
// ascending level order.
func NewWithHashes(typ Type, data []byte, bitLen int, refs []*Cell, hashes []common.Hash, depths []uint16) (*Cell, error) {
	res, err := New(typ, data, bitLen, refs)
	if err != nil {
		return nil, err
	}
	count := res.levelMask.HashCount()
	if len(hashes) != count || len(depths) != count {
		return nil, fmt.Errorf("%w: expected %d precomputed hashes and depths, got %d and %d", ErrInvalidCell, count, len(hashes), len(depths))
	}
	info := &hashInfo{}
	if typ == PrunedBranch {
		// lower level hashes are part of the pruned branch data
		info.hashes = []common.Hash{hashes[count-1]}
		info.depths = []uint16{depths[count-1]}
	} else {
		info.hashes = append([]common.Hash(nil), hashes...)
		info.depths = append([]uint16(nil), depths...)
	}
	for _, depth := range info.depths {
		res.maxDepth = max(res.maxDepth, depth)
	}
	res.hashes.Store(info)
	return res, nil
}

// emptyCell is shared by all users of Empty.
var emptyCell = &Cell{}

// Empty returns an ordinary cell without data and references.
func Empty() *Cell {
	return emptyCell
}

// Type returns the type of the cell.
func (c *Cell) Type() Type {
	return c.typ
}

// IsExotic returns true if this is not an ordinary cell.
func (c *Cell) IsExotic() bool {
	return c.typ.IsExotic()
}

// LevelMask returns the level mask of the cell.
func (c *Cell) LevelMask() LevelMask {
	return c.levelMask
}

// Level returns the level of the cell.
func (c *Cell) Level() int {
	return c.levelMask.Level()
}

// BitLen returns the number of data bits.
func (c *Cell) BitLen() int {
	return int(c.bitLen)
}

// Data returns a copy of the data bytes. If the bit length is not a multiple
// of 8, the unused trailing bits of the last byte are zero.
func (c *Cell) Data() []byte {
	return c.data.ToBytes()
}

// Payload returns the data bytes without copying them.
func (c *Cell) Payload() immutable.Bytes {
	return c.data
}

// RefCount returns the number of references.
func (c *Cell) RefCount() int {
	return len(c.refs)
}

// Ref returns the i-th reference or nil if there is none.
func (c *Cell) Ref(i int) *Cell {
	if i < 0 || i >= len(c.refs) {
		return nil
	}
	return c.refs[i]
}

// Refs returns a copy of the list of references.
func (c *Cell) Refs() []*Cell {
	return append([]*Cell(nil), c.refs...)
}

// Parser returns a new parser positioned at the start of this cell.
func (c *Cell) Parser() *Parser {
	return NewParser(c)
}

// Descriptors returns the two descriptor bytes of the cell as used in
// representation hashes and bag-of-cells serialization.
func (c *Cell) Descriptors() (d1, d2 byte) {
	return c.refsDescriptor(c.levelMask), c.bitsDescriptor()
}

func (c *Cell) refsDescriptor(mask LevelMask) byte {
	d1 := byte(len(c.refs)) | byte(mask)<<5
	if c.typ.IsExotic() {
		d1 |= 8
	}
	return d1
}

func (c *Cell) bitsDescriptor() byte {
	return byte((int(c.bitLen)+7)/8 + int(c.bitLen)/8)
}

// paddedData returns the data bytes with the completion tag applied: if the
// bit length is not a multiple of 8, a single 1 bit is appended.
func (c *Cell) paddedData() []byte {
	res := c.data.ToBytes()
	if rest := c.bitLen % 8; rest != 0 {
		res[len(res)-1] |= 0x80 >> rest
	}
	return res
}

// PaddedData returns the data bytes with the completion tag applied.
func (c *Cell) PaddedData() []byte {
	return c.paddedData()
}

// Equal returns true if both cells have the same representation hash.
func (c *Cell) Equal(other *Cell) bool {
	if c == other {
		return true
	}
	if c == nil || other == nil {
		return false
	}
	return c.Hash() == other.Hash()
}

// String renders the cell and all cells reachable from it as an indented
// tree of hex encoded payloads, one cell per line. A cell reached through
// more than one reference is expanded once and labelled with #n; later
// occurrences are rendered as "-> #n".
func (c *Cell) String() string {
	parents := map[*Cell]int{}
	pending := []*Cell{c}
	for len(pending) > 0 {
		cur := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		for _, ref := range cur.refs {
			parents[ref]++
			if parents[ref] == 1 {
				pending = append(pending, ref)
			}
		}
	}

	type item struct {
		cell   *Cell
		indent int
	}
	labels := map[*Cell]int{}
	var sb strings.Builder
	stack := []item{{c, 0}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		sb.WriteString(strings.Repeat(" ", cur.indent))
		if label, found := labels[cur.cell]; found {
			fmt.Fprintf(&sb, "-> #%d\n", label)
			continue
		}
		if cur.cell.typ.IsExotic() {
			sb.WriteString(cur.cell.typ.String())
			sb.WriteByte(' ')
		}
		sb.WriteString("x{")
		sb.WriteString(FormatBits(cur.cell.data.ToBytes(), int(cur.cell.bitLen)))
		sb.WriteByte('}')
		if parents[cur.cell] > 1 {
			labels[cur.cell] = len(labels) + 1
			fmt.Fprintf(&sb, " #%d", len(labels))
		}
		sb.WriteByte('\n')
		for i := len(cur.cell.refs) - 1; i >= 0; i-- {
			stack = append(stack, item{cur.cell.refs[i], cur.indent + 1})
		}
	}
	return sb.String()
}

// FormatBits renders the first bitLen bits of data in the hex notation used
// by TVM tooling. If the bit length is not a multiple of 4, a completion tag
// is added and the string is terminated by an underscore.
func FormatBits(data []byte, bitLen int) string {
	const digits = "0123456789ABCDEF"
	if bitLen%4 == 0 {
		res := make([]byte, bitLen/4)
		for i := range res {
			res[i] = digits[nibble(data, i)]
		}
		return string(res)
	}
	padded := make([]byte, (bitLen+8)/8)
	copy(padded, data[:(bitLen+7)/8])
	padded[bitLen/8] &= byte(0xFF) << (8 - bitLen%8)
	padded[bitLen/8] |= 0x80 >> (bitLen % 8)
	res := make([]byte, (bitLen+4)/4, (bitLen+4)/4+1)
	for i := range res {
		res[i] = digits[nibble(padded, i)]
	}
	return string(append(res, '_'))
}

func nibble(data []byte, i int) byte {
	if i%2 == 0 {
		return data[i/2] >> 4
	}
	return data[i/2] & 0x0F
}
