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
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Fantom-foundation/Cellar/go/common"
)

func TestCell_NewCopiesInputs(t *testing.T) {
	data := []byte{0xAB}
	refs := []*Cell{Empty()}
	c, err := New(Ordinary, data, 8, refs)
	if err != nil {
		t.Fatal(err)
	}
	data[0] = 0
	refs[0] = nil
	if got, want := c.Data(), []byte{0xAB}; !bytes.Equal(got, want) {
		t.Errorf("cell data changed, wanted %x, got %x", want, got)
	}
	if c.Ref(0) != Empty() {
		t.Errorf("cell reference changed")
	}
	c.Data()[0] = 0
	if got, want := c.Data(), []byte{0xAB}; !bytes.Equal(got, want) {
		t.Errorf("cell data changed through accessor, wanted %x, got %x", want, got)
	}
}

func TestCell_NewValidatesLimits(t *testing.T) {
	if _, err := New(Ordinary, make([]byte, 1), 9, nil); !errors.Is(err, ErrInvalidCell) {
		t.Errorf("expected ErrInvalidCell for short data, got %v", err)
	}
	refs := []*Cell{Empty(), Empty(), Empty(), Empty(), Empty()}
	if _, err := New(Ordinary, nil, 0, refs); !errors.Is(err, ErrInvalidCell) {
		t.Errorf("expected ErrInvalidCell for too many references, got %v", err)
	}
	if _, err := New(Ordinary, nil, 0, []*Cell{nil}); !errors.Is(err, ErrInvalidCell) {
		t.Errorf("expected ErrInvalidCell for nil reference, got %v", err)
	}
	if _, err := New(Ordinary, make([]byte, MaxBytes), MaxBits, refs[:4]); err != nil {
		t.Errorf("failed to create cell of maximum size: %v", err)
	}
}

func TestCell_Descriptors(t *testing.T) {
	tests := []struct {
		bits   int
		refs   int
		d1, d2 byte
	}{
		{0, 0, 0, 0},
		{1, 0, 0, 1},
		{8, 1, 1, 2},
		{15, 2, 2, 3},
		{MaxBits, 4, 4, 255},
	}
	for _, test := range tests {
		refs := make([]*Cell, test.refs)
		for i := range refs {
			refs[i] = Empty()
		}
		c := mustBuild(t, make([]byte, MaxBytes), test.bits, refs...)
		d1, d2 := c.Descriptors()
		if d1 != test.d1 || d2 != test.d2 {
			t.Errorf("unexpected descriptors for %d bits and %d refs, wanted %d/%d, got %d/%d", test.bits, test.refs, test.d1, test.d2, d1, d2)
		}
	}

	_, left, _ := newSampleTree(t)
	pruned, err := CreatePrunedBranch(left)
	mustNot(t, err)
	if d1, _ := pruned.Descriptors(); d1 != 8|1<<5 {
		t.Errorf("unexpected refs descriptor of pruned branch: %08b", d1)
	}
}

func TestCell_PaddedDataAddsCompletionTag(t *testing.T) {
	c := mustBuild(t, []byte{0xA0}, 3)
	if got, want := c.PaddedData(), []byte{0xB0}; !bytes.Equal(got, want) {
		t.Errorf("unexpected padded data, wanted %x, got %x", want, got)
	}
	c = mustBuild(t, []byte{0xA0}, 8)
	if got, want := c.PaddedData(), []byte{0xA0}; !bytes.Equal(got, want) {
		t.Errorf("unexpected padded data, wanted %x, got %x", want, got)
	}
}

func TestFormatBits(t *testing.T) {
	tests := []struct {
		data []byte
		bits int
		want string
	}{
		{nil, 0, ""},
		{[]byte{0xAB}, 8, "AB"},
		{[]byte{0xA0}, 4, "A"},
		{[]byte{0x80}, 1, "C_"},
		{[]byte{0xAB, 0xC0}, 10, "ABE_"},
		{[]byte{0x00}, 2, "2_"},
	}
	for _, test := range tests {
		if got := FormatBits(test.data, test.bits); got != test.want {
			t.Errorf("unexpected format of %x/%d, wanted %q, got %q", test.data, test.bits, test.want, got)
		}
	}
}

func TestCell_String(t *testing.T) {
	leaf := mustBuild(t, []byte{0xCA, 0xFE}, 16)
	mid := mustBuild(t, []byte{0x80}, 1, leaf)
	root := mustBuild(t, []byte{0xAB}, 8, mid, Empty())
	want := "x{AB}\n x{C_}\n  x{CAFE}\n x{}\n"
	if got := root.String(); got != want {
		t.Errorf("unexpected rendering, wanted\n%s\ngot\n%s", want, got)
	}
}

func TestCell_StringLabelsSharedCells(t *testing.T) {
	leaf := mustBuild(t, []byte{0x01}, 8)
	mid := mustBuild(t, []byte{0x02}, 8, leaf, leaf)
	root := mustBuild(t, []byte{0x03}, 8, mid, mid)
	want := "x{03}\n x{02} #1\n  x{01} #2\n  -> #2\n -> #1\n"
	if got := root.String(); got != want {
		t.Errorf("unexpected rendering, wanted\n%s\ngot\n%s", want, got)
	}
}

func TestCell_StringOfLadderGrowsLinearly(t *testing.T) {
	const length = 64
	cur := mustBuild(t, []byte{0}, 8)
	for i := 1; i < length; i++ {
		cur = mustBuild(t, []byte{byte(i)}, 8, cur, cur)
	}
	lines := strings.Count(cur.String(), "\n")
	if got, want := lines, 2*length-1; got != want {
		t.Errorf("unexpected number of lines, wanted %d, got %d", want, got)
	}
}

func TestCell_NewRejectsDepthOverflow(t *testing.T) {
	pruned := func(depth uint16) *Cell {
		data := make([]byte, 2+common.HashSize+2)
		data[0] = byte(PrunedBranch)
		data[1] = 1
		data[2+common.HashSize] = byte(depth >> 8)
		data[3+common.HashSize] = byte(depth)
		c, err := New(PrunedBranch, data, len(data)*8, nil)
		if err != nil {
			t.Fatalf("failed to create pruned branch: %v", err)
		}
		return c
	}

	deepest, err := New(Ordinary, nil, 0, []*Cell{pruned(MaxDepth - 1)})
	if err != nil {
		t.Fatalf("failed to create cell of maximum depth: %v", err)
	}
	if got, want := deepest.DepthAt(0), MaxDepth; got != want {
		t.Errorf("unexpected depth, wanted %d, got %d", want, got)
	}
	if _, err := New(Ordinary, nil, 0, []*Cell{deepest}); !errors.Is(err, ErrInvalidCell) {
		t.Errorf("expected ErrInvalidCell for exceeding the depth limit, got %v", err)
	}
	if _, err := New(Ordinary, nil, 0, []*Cell{pruned(MaxDepth)}); !errors.Is(err, ErrInvalidCell) {
		t.Errorf("expected ErrInvalidCell for parent of deepest pruned branch, got %v", err)
	}
}

func TestType_String(t *testing.T) {
	tests := map[Type]string{
		Ordinary:     "ordinary",
		PrunedBranch: "pruned-branch",
		Library:      "library",
		MerkleProof:  "merkle-proof",
		MerkleUpdate: "merkle-update",
		Type(9):      "unknown(9)",
	}
	for typ, want := range tests {
		if got := typ.String(); got != want {
			t.Errorf("unexpected name, wanted %q, got %q", want, got)
		}
	}
	if Ordinary.IsExotic() || !Library.IsExotic() {
		t.Errorf("invalid exotic classification")
	}
	if !MerkleProof.IsMerkle() || !MerkleUpdate.IsMerkle() || PrunedBranch.IsMerkle() {
		t.Errorf("invalid merkle classification")
	}
}
