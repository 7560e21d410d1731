// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package cellstore

import (
	"fmt"
	"math/bits"

	"github.com/Fantom-foundation/Cellar/go/common"
	"github.com/Fantom-foundation/Cellar/go/database/boc"
	"github.com/Fantom-foundation/Cellar/go/database/cell"
)

// A record holds a single cell: its two descriptor bytes, its padded data
// and the hashes of the cells it references. Records are stored inside a
// compression container.

func encodeRecord(c *cell.Cell, compression boc.Compression) ([]byte, error) {
	d1, d2 := c.Descriptors()
	data := c.PaddedData()
	res := make([]byte, 0, 2+len(data)+c.RefCount()*common.HashSize)
	res = append(res, d1, d2)
	res = append(res, data...)
	for _, ref := range c.Refs() {
		hash := ref.Hash()
		res = append(res, hash[:]...)
	}
	return boc.Compress(res, compression)
}

// record is a decoded record whose references are still unresolved.
type record struct {
	typ    cell.Type
	data   []byte
	bitLen int
	refs   []common.Hash
}

func decodeRecord(hash common.Hash, container []byte) (record, error) {
	data, err := boc.Decompress(container)
	if err != nil {
		return record{}, fmt.Errorf("%w: %v: %w", ErrCorruptRecord, hash, err)
	}
	if len(data) < 2 {
		return record{}, fmt.Errorf("%w: %v: record of %d bytes", ErrCorruptRecord, hash, len(data))
	}
	d1, d2 := data[0], data[1]
	refCount := int(d1 & 7)
	byteLen := int(d2>>1) + int(d2&1)
	if refCount > cell.MaxRefs || len(data) != 2+byteLen+refCount*common.HashSize {
		return record{}, fmt.Errorf("%w: %v: descriptors %02x%02x do not match record of %d bytes", ErrCorruptRecord, hash, d1, d2, len(data))
	}

	res := record{typ: cell.Ordinary}
	res.data = data[2 : 2+byteLen]
	res.bitLen = byteLen * 8
	if d2&1 != 0 {
		last := res.data[byteLen-1]
		if last == 0 {
			return record{}, fmt.Errorf("%w: %v: missing completion tag", ErrCorruptRecord, hash)
		}
		res.bitLen -= bits.TrailingZeros8(last) + 1
	}
	if d1&8 != 0 {
		if res.bitLen < 8 {
			return record{}, fmt.Errorf("%w: %v: exotic cell without type", ErrCorruptRecord, hash)
		}
		res.typ = cell.Type(res.data[0])
	}
	refs := data[2+byteLen:]
	res.refs = make([]common.Hash, refCount)
	for i := range res.refs {
		res.refs[i] = common.HashFromBytes(refs[i*common.HashSize:])
	}
	return res, nil
}

// build creates the cell of the record from its resolved references and
// verifies that it matches the hash it was stored under.
func (r record) build(hash common.Hash, refs []*cell.Cell) (*cell.Cell, error) {
	res, err := cell.New(r.typ, r.data, r.bitLen, refs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v: %w", ErrCorruptRecord, hash, err)
	}
	if got := res.Hash(); got != hash {
		return nil, fmt.Errorf("%w: record stored under %v has hash %v", ErrCorruptRecord, hash, got)
	}
	return res, nil
}

// recordSource provides the raw records of a store.
type recordSource interface {
	getRecord(hash common.Hash) ([]byte, error)
}

// loadCell rebuilds the DAG below the given hash from records. Cells are
// resolved with an explicit stack so deep chains do not exhaust the call
// stack. Shared cells are loaded once.
func loadCell(source recordSource, hash common.Hash) (*cell.Cell, error) {
	type frame struct {
		hash   common.Hash
		record *record
	}
	loaded := map[common.Hash]*cell.Cell{}
	visiting := map[common.Hash]bool{}
	stack := []frame{{hash: hash}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if _, done := loaded[top.hash]; done {
			stack = stack[:len(stack)-1]
			continue
		}
		if top.record == nil {
			container, err := source.getRecord(top.hash)
			if err != nil {
				return nil, err
			}
			rec, err := decodeRecord(top.hash, container)
			if err != nil {
				return nil, err
			}
			top.record = &rec
			visiting[top.hash] = true
			pending := false
			for _, ref := range rec.refs {
				if visiting[ref] {
					return nil, fmt.Errorf("%w: cycle through %v", ErrCorruptRecord, ref)
				}
				if _, done := loaded[ref]; !done {
					stack = append(stack, frame{hash: ref})
					pending = true
				}
			}
			if pending {
				continue
			}
		}

		// all references are loaded once the frame is on top again
		refs := make([]*cell.Cell, len(top.record.refs))
		for i, ref := range top.record.refs {
			refs[i] = loaded[ref]
		}
		res, err := top.record.build(top.hash, refs)
		if err != nil {
			return nil, err
		}
		loaded[top.hash] = res
		delete(visiting, top.hash)
		stack = stack[:len(stack)-1]
	}
	return loaded[hash], nil
}

// collectCells lists the cells of the DAG below root, each once, children
// before parents.
func collectCells(root *cell.Cell) []*cell.Cell {
	type frame struct {
		cell     *cell.Cell
		expanded bool
	}
	seen := map[common.Hash]bool{}
	res := []*cell.Cell{}
	stack := []frame{{cell: root}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		hash := top.cell.Hash()
		if top.expanded {
			if !seen[hash] {
				seen[hash] = true
				res = append(res, top.cell)
			}
			continue
		}
		if seen[hash] {
			continue
		}
		stack = append(stack, frame{cell: top.cell, expanded: true})
		for _, ref := range top.cell.Refs() {
			stack = append(stack, frame{cell: ref})
		}
	}
	return res
}
