// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package dict

import (
	"fmt"

	"github.com/Fantom-foundation/Cellar/go/database/cell"
	"github.com/Fantom-foundation/Cellar/go/database/tlb"
)

// BinTree describes the encoding of a non-empty list of values as a
// balanced binary tree. A leaf is a zero bit followed by the value, a fork
// is a one bit followed by references to the two halves of the list.
type BinTree[T any] struct {
	Values tlb.Adapter[T]
}

// NewBinTree creates a binary tree description for the given value encoding.
func NewBinTree[T any](values tlb.Adapter[T]) BinTree[T] {
	return BinTree[T]{Values: values}
}

// ReadField decodes the values of the tree in list order. Forks are
// expanded with an explicit stack, so the depth of the tree is only bounded
// by the input.
func (t BinTree[T]) ReadField(p *cell.Parser) ([]T, error) {
	var res []T
	stack := []*cell.Parser{p}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		fork, err := cur.ReadBit()
		if err != nil {
			return nil, err
		}
		if !fork {
			value, err := t.Values.ReadField(cur)
			if err != nil {
				return nil, err
			}
			res = append(res, value)
		} else {
			left, err := cur.ReadRef()
			if err != nil {
				return nil, fmt.Errorf("left branch: %w", err)
			}
			right, err := cur.ReadRef()
			if err != nil {
				return nil, fmt.Errorf("right branch: %w", err)
			}
			stack = append(stack, right.Parser(), left.Parser())
		}
		// the caller checks the remainder of the outermost cell
		if cur != p {
			if err := cur.EnsureEmpty(); err != nil {
				return nil, err
			}
		}
	}
	return res, nil
}

func (t BinTree[T]) WriteField(b *cell.Builder, values []T) error {
	switch len(values) {
	case 0:
		return fmt.Errorf("%w: binary tree needs at least one value", tlb.ErrInvalidValue)
	case 1:
		if err := b.WriteBit(false); err != nil {
			return err
		}
		return t.Values.WriteField(b, values[0])
	}
	if b.RefsLeft() < 2 {
		return fmt.Errorf("%w: fork needs 2 references, %d left", cell.ErrRefOverflow, b.RefsLeft())
	}
	half := len(values) / 2
	left, err := tlb.WriteCell[[]T](values[:half], t)
	if err != nil {
		return err
	}
	right, err := tlb.WriteCell[[]T](values[half:], t)
	if err != nil {
		return err
	}
	if err := b.WriteBit(true); err != nil {
		return err
	}
	if err := b.WriteRef(left); err != nil {
		return err
	}
	return b.WriteRef(right)
}
