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

// Adapter describes the encoding of values of type T.
type Adapter[T any] interface {
	ReadField(p *cell.Parser) (T, error)
	WriteField(b *cell.Builder, value T) error
}

// FieldSpec is an entry of a Fields table, binding a value location to the
// adapter used for its encoding.
type FieldSpec interface {
	read(p *cell.Parser) error
	write(b *cell.Builder) error
}

type boundField[T any] struct {
	name    string
	target  *T
	adapter Adapter[T]
}

// Field binds the value referenced by target to the given adapter.
func Field[T any](name string, target *T, adapter Adapter[T]) FieldSpec {
	return &boundField[T]{name: name, target: target, adapter: adapter}
}

func (f *boundField[T]) read(p *cell.Parser) error {
	value, err := f.adapter.ReadField(p)
	if err != nil {
		return fmt.Errorf("%s: %w", f.name, err)
	}
	*f.target = value
	return nil
}

func (f *boundField[T]) write(b *cell.Builder) error {
	if err := f.adapter.WriteField(b, *f.target); err != nil {
		return fmt.Errorf("%s: %w", f.name, err)
	}
	return nil
}

// Fields is the ordered list of fields of a composite type. Fields are
// encoded in list order without any framing.
type Fields []FieldSpec

// Read decodes all fields in order.
func (f Fields) Read(p *cell.Parser) error {
	for _, field := range f {
		if err := field.read(p); err != nil {
			return err
		}
	}
	return nil
}

// Write encodes all fields in order.
func (f Fields) Write(b *cell.Builder) error {
	for _, field := range f {
		if err := field.write(b); err != nil {
			return err
		}
	}
	return nil
}
