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

// ReadCell decodes a value that must occupy the given cell completely.
func ReadCell[T any](c *cell.Cell, adapter Adapter[T]) (T, error) {
	p := c.Parser()
	res, err := adapter.ReadField(p)
	if err != nil {
		return res, err
	}
	return res, p.EnsureEmpty()
}

// WriteCell encodes a value into a new cell.
func WriteCell[T any](value T, adapter Adapter[T]) (*cell.Cell, error) {
	b := cell.NewBuilder()
	if err := adapter.WriteField(b, value); err != nil {
		return nil, err
	}
	return b.Build()
}

type refAdapter[T any] struct {
	adapter Adapter[T]
}

// Ref encodes a value in a separate cell referenced from the current one.
func Ref[T any](adapter Adapter[T]) Adapter[T] {
	return refAdapter[T]{adapter: adapter}
}

func (a refAdapter[T]) ReadField(p *cell.Parser) (T, error) {
	c, err := p.ReadRef()
	if err != nil {
		var zero T
		return zero, err
	}
	return ReadCell(c, a.adapter)
}

func (a refAdapter[T]) WriteField(b *cell.Builder, value T) error {
	if b.RefsLeft() == 0 {
		return fmt.Errorf("%w: no reference left for value", cell.ErrRefOverflow)
	}
	c, err := WriteCell(value, a.adapter)
	if err != nil {
		return err
	}
	return b.WriteRef(c)
}

type maybeAdapter[T any] struct {
	adapter Adapter[T]
}

// Maybe encodes an optional value as a presence bit followed by the value
// if present. A nil pointer denotes an absent value.
func Maybe[T any](adapter Adapter[T]) Adapter[*T] {
	return maybeAdapter[T]{adapter: adapter}
}

func (a maybeAdapter[T]) ReadField(p *cell.Parser) (*T, error) {
	present, err := p.ReadBit()
	if err != nil || !present {
		return nil, err
	}
	value, err := a.adapter.ReadField(p)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func (a maybeAdapter[T]) WriteField(b *cell.Builder, value *T) error {
	if err := b.WriteBit(value != nil); err != nil || value == nil {
		return err
	}
	return a.adapter.WriteField(b, *value)
}

// MaybeRef encodes an optional value as a presence bit and, if present, a
// reference to a cell holding the value.
func MaybeRef[T any](adapter Adapter[T]) Adapter[*T] {
	return Maybe(Ref(adapter))
}

type optionalAdapter[T comparable] struct {
	adapter Adapter[T]
}

// Optional encodes a value behind a presence bit like Maybe, but for
// nullable types whose zero value denotes absence, such as cell or object
// pointers.
func Optional[T comparable](adapter Adapter[T]) Adapter[T] {
	return optionalAdapter[T]{adapter: adapter}
}

func (a optionalAdapter[T]) ReadField(p *cell.Parser) (T, error) {
	var zero T
	present, err := p.ReadBit()
	if err != nil || !present {
		return zero, err
	}
	return a.adapter.ReadField(p)
}

func (a optionalAdapter[T]) WriteField(b *cell.Builder, value T) error {
	var zero T
	if err := b.WriteBit(value != zero); err != nil || value == zero {
		return err
	}
	return a.adapter.WriteField(b, value)
}

// Either holds one of two alternatives.
type Either[L, R any] struct {
	IsRight bool
	Left    L
	Right   R
}

type eitherAdapter[L, R any] struct {
	left  Adapter[L]
	right Adapter[R]
}

// EitherOf encodes a choice between two alternatives as a selector bit, 0
// for left and 1 for right, followed by the selected value.
func EitherOf[L, R any](left Adapter[L], right Adapter[R]) Adapter[Either[L, R]] {
	return eitherAdapter[L, R]{left: left, right: right}
}

func (a eitherAdapter[L, R]) ReadField(p *cell.Parser) (Either[L, R], error) {
	res := Either[L, R]{}
	isRight, err := p.ReadBit()
	if err != nil {
		return res, err
	}
	res.IsRight = isRight
	if isRight {
		res.Right, err = a.right.ReadField(p)
	} else {
		res.Left, err = a.left.ReadField(p)
	}
	return res, err
}

func (a eitherAdapter[L, R]) WriteField(b *cell.Builder, value Either[L, R]) error {
	if err := b.WriteBit(value.IsRight); err != nil {
		return err
	}
	if value.IsRight {
		return a.right.WriteField(b, value.Right)
	}
	return a.left.WriteField(b, value.Left)
}

type eitherRefAdapter[T any] struct {
	adapter Adapter[T]
}

// EitherRef encodes a value either inline, marked by a 0 bit, or in a
// referenced cell, marked by a 1 bit. Values are written inline whenever
// they fit into the remaining capacity of the current cell.
func EitherRef[T any](adapter Adapter[T]) Adapter[T] {
	return eitherRefAdapter[T]{adapter: adapter}
}

func (a eitherRefAdapter[T]) ReadField(p *cell.Parser) (T, error) {
	inRef, err := p.ReadBit()
	if err != nil {
		var zero T
		return zero, err
	}
	if inRef {
		return Ref(a.adapter).ReadField(p)
	}
	return a.adapter.ReadField(p)
}

func (a eitherRefAdapter[T]) WriteField(b *cell.Builder, value T) error {
	c, err := WriteCell(value, a.adapter)
	if err != nil {
		return err
	}
	if c.BitLen()+1 <= b.BitsLeft() && c.RefCount() <= b.RefsLeft() {
		if err := b.WriteBit(false); err != nil {
			return err
		}
		return b.WriteCell(c)
	}
	if err := b.WriteBit(true); err != nil {
		return err
	}
	return b.WriteRef(c)
}

type objectAdapter[T any, P interface {
	*T
	Serializable
}] struct{}

// Object encodes values of a Serializable type, including their
// constructor tag.
func Object[T any, P interface {
	*T
	Serializable
}]() Adapter[P] {
	return objectAdapter[T, P]{}
}

func (objectAdapter[T, P]) ReadField(p *cell.Parser) (P, error) {
	res := P(new(T))
	if err := Read(p, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (objectAdapter[T, P]) WriteField(b *cell.Builder, value P) error {
	if value == nil {
		return fmt.Errorf("%w: nil object", ErrInvalidValue)
	}
	return Write(b, value)
}

type variantAdapter[T Serializable] struct {
	candidates []func() T
}

// Variant encodes values of a sum type whose alternatives are
// distinguished by their constructor tags. See ReadVariant.
func Variant[T Serializable](candidates ...func() T) Adapter[T] {
	return variantAdapter[T]{candidates: candidates}
}

func (a variantAdapter[T]) ReadField(p *cell.Parser) (T, error) {
	return ReadVariant(p, a.candidates...)
}

func (a variantAdapter[T]) WriteField(b *cell.Builder, value T) error {
	return Write(b, value)
}

type cellRefAdapter struct{}

// CellRef encodes an arbitrary cell as a reference.
func CellRef() Adapter[*cell.Cell] {
	return cellRefAdapter{}
}

func (cellRefAdapter) ReadField(p *cell.Parser) (*cell.Cell, error) {
	return p.ReadRef()
}

func (cellRefAdapter) WriteField(b *cell.Builder, value *cell.Cell) error {
	return b.WriteRef(value)
}

type anyCellAdapter struct{}

// AnyCell captures all remaining bits and references of the current cell
// as a new cell. Writing appends the content of an ordinary cell.
func AnyCell() Adapter[*cell.Cell] {
	return anyCellAdapter{}
}

func (anyCellAdapter) ReadField(p *cell.Parser) (*cell.Cell, error) {
	b := cell.NewBuilder()
	if err := b.WriteSlice(p); err != nil {
		return nil, err
	}
	res, err := b.Build()
	if err != nil {
		return nil, err
	}
	if err := p.SkipBits(p.BitsLeft()); err != nil {
		return nil, err
	}
	for p.RefsLeft() > 0 {
		if _, err := p.ReadRef(); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (anyCellAdapter) WriteField(b *cell.Builder, value *cell.Cell) error {
	if value == nil || value.IsExotic() {
		return fmt.Errorf("%w: only ordinary cells can be inlined", ErrInvalidValue)
	}
	return b.WriteCell(value)
}
