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
	"errors"
	"testing"

	"github.com/Fantom-foundation/Cellar/go/database/cell"
)

type shape interface {
	Serializable
	Prefixed
}

type circle struct {
	Radius uint8
}

func (c *circle) Prefix() Prefix { return Prefix{Value: 0b01, Bits: 2} }

func (c *circle) fields() Fields {
	return Fields{Field("radius", &c.Radius, Uint[uint8](8))}
}

func (c *circle) Read(p *cell.Parser) error  { return c.fields().Read(p) }
func (c *circle) Write(b *cell.Builder) error { return c.fields().Write(b) }

type square struct {
	Side uint16
}

func (s *square) Prefix() Prefix { return Prefix{Value: 0b10, Bits: 2} }

func (s *square) fields() Fields {
	return Fields{Field("side", &s.Side, Uint[uint16](16))}
}

func (s *square) Read(p *cell.Parser) error  { return s.fields().Read(p) }
func (s *square) Write(b *cell.Builder) error { return s.fields().Write(b) }

type triangle struct {
	A, B, C uint8
}

func (t *triangle) Prefix() Prefix { return Prefix{Value: 0b11, Bits: 2} }

func (t *triangle) fields() Fields {
	return Fields{
		Field("a", &t.A, Uint[uint8](8)),
		Field("b", &t.B, Uint[uint8](8)),
		Field("c", &t.C, Uint[uint8](8)),
	}
}

func (t *triangle) Read(p *cell.Parser) error  { return t.fields().Read(p) }
func (t *triangle) Write(b *cell.Builder) error { return t.fields().Write(b) }

var shapes = []func() shape{
	func() shape { return &circle{} },
	func() shape { return &square{} },
	func() shape { return &triangle{} },
}

func TestReadVariant_PicksMatchingVariantOnly(t *testing.T) {
	c, err := ToCell(&square{Side: 0x1234})
	if err != nil {
		t.Fatal(err)
	}
	res, err := ReadVariant(c.Parser(), shapes...)
	if err != nil {
		t.Fatalf("failed to read variant: %v", err)
	}
	got, ok := res.(*square)
	if !ok {
		t.Fatalf("decoded wrong variant: %T", res)
	}
	if got.Side != 0x1234 {
		t.Errorf("unexpected side, wanted %x, got %x", 0x1234, got.Side)
	}
}

func TestReadVariant_ReportsExhaustedOptionsAndRewinds(t *testing.T) {
	b := cell.NewBuilder()
	if err := b.WriteUint(0b00, 2); err != nil {
		t.Fatal(err)
	}
	if err := b.WriteUint(7, 8); err != nil {
		t.Fatal(err)
	}
	c, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	p := c.Parser()
	if _, err := ReadVariant(p, shapes...); !errors.Is(err, ErrOptionsExhausted) {
		t.Errorf("expected ErrOptionsExhausted, got %v", err)
	}
	if got, want := p.BitsLeft(), 10; got != want {
		t.Errorf("parser was not rewound, wanted %d bits left, got %d", want, got)
	}
}

func TestReadVariant_NonRecoverableErrorsAbortDispatch(t *testing.T) {
	// a circle tag followed by too few bits for the radius
	b := cell.NewBuilder()
	if err := b.WriteUint(0b01, 2); err != nil {
		t.Fatal(err)
	}
	if err := b.WriteUint(1, 4); err != nil {
		t.Fatal(err)
	}
	c, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	p := c.Parser()
	_, err = ReadVariant(p, shapes...)
	if !errors.Is(err, cell.ErrReadUnderflow) {
		t.Errorf("expected ErrReadUnderflow, got %v", err)
	}
	if IsRecoverable(err) {
		t.Errorf("underflow should not be recoverable")
	}
	if got, want := p.BitsLeft(), 6; got != want {
		t.Errorf("parser was not rewound, wanted %d bits left, got %d", want, got)
	}
}

func TestReadVariant_NestedExhaustionIsRecoverable(t *testing.T) {
	nested := func() shape {
		return &wrapper{}
	}
	c, err := ToCell(&triangle{A: 1, B: 2, C: 3})
	if err != nil {
		t.Fatal(err)
	}
	res, err := ReadVariant(c.Parser(), nested, shapes[2])
	if err != nil {
		t.Fatalf("failed to read variant: %v", err)
	}
	if _, ok := res.(*triangle); !ok {
		t.Errorf("decoded wrong variant: %T", res)
	}
}

// wrapper is a shape without own tag whose content must be a circle or a
// square.
type wrapper struct {
	inner shape
}

func (w *wrapper) Prefix() Prefix { return Prefix{} }

func (w *wrapper) Read(p *cell.Parser) error {
	var err error
	w.inner, err = ReadVariant(p, shapes[0], shapes[1])
	return err
}

func (w *wrapper) Write(b *cell.Builder) error {
	return Write(b, w.inner)
}

func TestRead_PrefixMismatchLeavesParserUnchanged(t *testing.T) {
	c, err := ToCell(&circle{Radius: 5})
	if err != nil {
		t.Fatal(err)
	}
	p := c.Parser()
	if err := Read(p, &square{}); !errors.Is(err, ErrPrefixMismatch) {
		t.Errorf("expected ErrPrefixMismatch, got %v", err)
	}
	if got, want := p.BitsLeft(), 10; got != want {
		t.Errorf("parser was advanced, wanted %d bits left, got %d", want, got)
	}
	if err := Read(cell.Empty().Parser(), &square{}); !errors.Is(err, ErrPrefixMismatch) {
		t.Errorf("expected ErrPrefixMismatch for missing tag, got %v", err)
	}
}

func TestPrefix_String(t *testing.T) {
	tests := []struct {
		prefix Prefix
		want   string
	}{
		{Prefix{Value: 0x12345678, Bits: 32}, "#12345678"},
		{Prefix{Value: 0x0f, Bits: 8}, "#0f"},
		{Prefix{Value: 0b10, Bits: 2}, "$10"},
		{Prefix{Value: 0b1, Bits: 3}, "$001"},
	}
	for _, test := range tests {
		if got := test.prefix.String(); got != test.want {
			t.Errorf("unexpected rendering, wanted %q, got %q", test.want, got)
		}
	}
}
