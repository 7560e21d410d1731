// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package tlb

import (
	"fmt"

	"github.com/Fantom-foundation/Cellar/go/database/cell"
)

// chunkBytes is the number of bytes stored in each continuation cell.
const chunkBytes = cell.MaxBits / 8

type textAdapter struct{}

// Text encodes a string in snake format: as many bytes as fit into the
// current cell, followed by a chain of referenced cells holding the rest.
// A text field consumes all remaining bits of its cell and therefore has
// to be the last field.
func Text() Adapter[string] {
	return textAdapter{}
}

func (textAdapter) ReadField(p *cell.Parser) (string, error) {
	var res []byte
	cur := p
	for {
		if cur.BitsLeft()%8 != 0 {
			return "", fmt.Errorf("%w: text segment of %d bits", ErrInvalidValue, cur.BitsLeft())
		}
		data, err := cur.ReadBytes(cur.BitsLeft() / 8)
		if err != nil {
			return "", err
		}
		res = append(res, data...)
		if cur.RefsLeft() == 0 {
			return string(res), nil
		}
		next, err := cur.ReadRef()
		if err != nil {
			return "", err
		}
		cur = next.Parser()
		if cur.RefsLeft() > 1 {
			return "", fmt.Errorf("%w: text segment with %d references", ErrInvalidValue, cur.RefsLeft())
		}
	}
}

func (textAdapter) WriteField(b *cell.Builder, value string) error {
	data := []byte(value)
	head := min(len(data), b.BitsLeft()/8)
	tail := data[head:]

	var next *cell.Cell
	if len(tail) > 0 {
		if b.RefsLeft() == 0 {
			return fmt.Errorf("%w: no reference left for text continuation", cell.ErrRefOverflow)
		}
		// the chain is built back to front
		for end := len(tail); end > 0; {
			start := max(0, end-chunkBytes)
			if rest := len(tail) % chunkBytes; rest != 0 && end == len(tail) {
				start = end - rest
			}
			chunk := cell.NewBuilder()
			if err := chunk.WriteBytes(tail[start:end]); err != nil {
				return err
			}
			if next != nil {
				if err := chunk.WriteRef(next); err != nil {
					return err
				}
			}
			c, err := chunk.Build()
			if err != nil {
				return err
			}
			next = c
			end = start
		}
	}

	if err := b.WriteBytes(data[:head]); err != nil {
		return err
	}
	if next != nil {
		return b.WriteRef(next)
	}
	return nil
}
