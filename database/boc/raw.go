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
	"fmt"
	"sort"

	"github.com/Fantom-foundation/Cellar/go/common"
	"github.com/Fantom-foundation/Cellar/go/database/cell"
)

// RawCell is a cell of the flat BOC model. References are indices into the
// cell list of the enclosing Raw and always point to lower indices.
type RawCell struct {
	Exotic    bool
	LevelMask cell.LevelMask
	BitLen    int
	Data      []byte
	Refs      []int
	// Hashes and Depths hold one entry per significant level if the cell
	// was stored with hashes, and are empty otherwise.
	Hashes []common.Hash
	Depths []uint16
	// Shared is set for cells referenced by more than one parent or root.
	Shared bool
}

// Raw is the flat model of a cell DAG: a list of unique cells in which
// every cell follows all cells it references, and the indices of the roots.
type Raw struct {
	Cells  []RawCell
	Roots  []int
	Absent int
}

// Flatten converts the DAG spanned by the given roots into its flat model.
// Cells with equal hashes are included only once. If withHashes is set, the
// hashes and depths of all cells are recorded.
func Flatten(roots []*cell.Cell, withHashes bool) (*Raw, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: no roots", ErrInvalidHeader)
	}

	type entry struct {
		cell    *cell.Cell
		index   int
		refs    []int
		parents int
	}

	// Phase 1: discover unique cells, assigning provisional indices in
	// discovery order.
	ids := map[common.Hash]int{}
	entries := []*entry{}
	pending := []int{}
	add := func(c *cell.Cell) int {
		hash := c.Hash()
		if id, found := ids[hash]; found {
			entries[id].parents++
			return id
		}
		id := len(entries)
		ids[hash] = id
		entries = append(entries, &entry{cell: c, index: id, parents: 1})
		pending = append(pending, id)
		return id
	}

	rootIds := make([]int, 0, len(roots))
	for _, root := range roots {
		if root == nil {
			return nil, fmt.Errorf("%w: nil root", cell.ErrInvalidCell)
		}
		rootIds = append(rootIds, add(root))
	}
	for len(pending) > 0 {
		id := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		e := entries[id]
		for _, ref := range e.cell.Refs() {
			e.refs = append(e.refs, add(ref))
		}
	}

	// Phase 2: relabel cells until every cell has a higher index than all
	// of its references. Cells are visited in descending index order so that
	// chains discovered top-down settle in a single pass.
	next := len(entries)
	order := make([]*entry, len(entries))
	copy(order, entries)
	for changed := true; changed; {
		changed = false
		sort.Slice(order, func(i, j int) bool {
			return order[i].index > order[j].index
		})
		for _, e := range order {
			for _, ref := range e.refs {
				if entries[ref].index >= e.index {
					e.index = next
					next++
					changed = true
					break
				}
			}
		}
	}

	// Phase 3: compact the final labels into positions.
	sort.Slice(order, func(i, j int) bool {
		return order[i].index < order[j].index
	})
	for i, e := range order {
		e.index = i
	}

	res := &Raw{
		Cells: make([]RawCell, len(order)),
		Roots: make([]int, len(rootIds)),
	}
	for i, e := range order {
		raw := RawCell{
			Exotic:    e.cell.IsExotic(),
			LevelMask: e.cell.LevelMask(),
			BitLen:    e.cell.BitLen(),
			Data:      e.cell.Data(),
			Refs:      make([]int, len(e.refs)),
			Shared:    e.parents > 1,
		}
		for j, ref := range e.refs {
			raw.Refs[j] = entries[ref].index
		}
		if withHashes {
			mask := e.cell.LevelMask()
			for level := 0; level <= mask.Level(); level++ {
				if mask.IsSignificant(level) {
					raw.Hashes = append(raw.Hashes, e.cell.HashAt(level))
					raw.Depths = append(raw.Depths, uint16(e.cell.DepthAt(level)))
				}
			}
		}
		res.Cells[i] = raw
	}
	for i, id := range rootIds {
		res.Roots[i] = entries[id].index
	}
	return res, nil
}

// Build reconstructs the cells of the flat model, lowest index first, and
// returns the root cells.
func (r *Raw) Build() ([]*cell.Cell, error) {
	cells := make([]*cell.Cell, len(r.Cells))
	for i := range r.Cells {
		c, err := r.Cells[i].build(i, cells)
		if err != nil {
			return nil, err
		}
		cells[i] = c
	}
	res := make([]*cell.Cell, len(r.Roots))
	for i, root := range r.Roots {
		if root < 0 || root >= len(cells) {
			return nil, fmt.Errorf("%w: root index %d out of range, %d cells", ErrInvalidHeader, root, len(cells))
		}
		res[i] = cells[root]
	}
	return res, nil
}

func (r *RawCell) build(index int, cells []*cell.Cell) (*cell.Cell, error) {
	refs := make([]*cell.Cell, len(r.Refs))
	for j, ref := range r.Refs {
		if ref < 0 || ref >= index {
			return nil, fmt.Errorf("%w: cell %d references cell %d", ErrForwardReference, index, ref)
		}
		refs[j] = cells[ref]
	}
	typ := cell.Ordinary
	if r.Exotic {
		if r.BitLen < 8 || len(r.Data) == 0 {
			return nil, fmt.Errorf("%w: exotic cell %d without type byte", cell.ErrInvalidCell, index)
		}
		typ = cell.Type(r.Data[0])
	}

	var res *cell.Cell
	var err error
	if len(r.Hashes) > 0 || len(r.Depths) > 0 {
		res, err = cell.NewWithHashes(typ, r.Data, r.BitLen, refs, r.Hashes, r.Depths)
	} else {
		res, err = cell.New(typ, r.Data, r.BitLen, refs)
	}
	if err != nil {
		return nil, fmt.Errorf("cell %d: %w", index, err)
	}
	if res.LevelMask() != r.LevelMask {
		return nil, fmt.Errorf("%w: cell %d declares level mask %d, content implies %d", cell.ErrInvalidCell, index, r.LevelMask, res.LevelMask())
	}
	return res, nil
}
