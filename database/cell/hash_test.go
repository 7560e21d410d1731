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
	"crypto/sha256"
	"sync"
	"testing"

	"github.com/Fantom-foundation/Cellar/go/common"
)

func TestHash_EmptyCellHasKnownHash(t *testing.T) {
	want, err := common.ParseHash("96a296d224f285c67bee93c30f8a309157f0daa35dc5b87e410b78630a09cfc7")
	if err != nil {
		t.Fatal(err)
	}
	if got := Empty().Hash(); got != want {
		t.Errorf("unexpected hash of empty cell, wanted %v, got %v", want, got)
	}
	if got := Empty().Depth(); got != 0 {
		t.Errorf("unexpected depth of empty cell: %d", got)
	}
}

func TestHash_LeafHashCoversDescriptorsAndPaddedData(t *testing.T) {
	tests := []struct {
		value uint64
		bits  int
		repr  []byte
	}{
		{0xAB, 8, []byte{0x00, 0x02, 0xAB}},
		{0xA, 4, []byte{0x00, 0x01, 0xA8}},
		{0x1, 1, []byte{0x00, 0x01, 0xC0}},
		{0xABC, 12, []byte{0x00, 0x03, 0xAB, 0xC8}},
	}
	for _, test := range tests {
		b := NewBuilder()
		mustNot(t, b.WriteUint(test.value, test.bits))
		c, err := b.Build()
		mustNot(t, err)
		want := common.Hash(sha256.Sum256(test.repr))
		if got := c.Hash(); got != want {
			t.Errorf("unexpected hash for %x/%d, wanted %v, got %v", test.value, test.bits, want, got)
		}
	}
}

func TestHash_ParentHashCoversChildDepthsAndHashes(t *testing.T) {
	leaf := Empty()
	mid := mustBuild(t, []byte{0x11}, 8, leaf)
	root := mustBuild(t, nil, 0, mid, leaf)

	midHash := mid.Hash()
	leafHash := leaf.Hash()
	repr := []byte{0x01, 0x02, 0x11, 0x00, 0x00}
	repr = append(repr, leafHash[:]...)
	if got, want := midHash, common.Hash(sha256.Sum256(repr)); got != want {
		t.Errorf("unexpected hash of middle cell, wanted %v, got %v", want, got)
	}

	repr = []byte{0x02, 0x00, 0x00, 0x01, 0x00, 0x00}
	repr = append(repr, midHash[:]...)
	repr = append(repr, leafHash[:]...)
	if got, want := root.Hash(), common.Hash(sha256.Sum256(repr)); got != want {
		t.Errorf("unexpected hash of root cell, wanted %v, got %v", want, got)
	}
	if got, want := root.Depth(), 2; got != want {
		t.Errorf("unexpected depth, wanted %d, got %d", want, got)
	}
}

func mustBuild(t *testing.T, data []byte, bits int, refs ...*Cell) *Cell {
	t.Helper()
	c, err := New(Ordinary, data, bits, refs)
	if err != nil {
		t.Fatalf("failed to create cell: %v", err)
	}
	return c
}

func TestHash_EqualContentProducesEqualHashes(t *testing.T) {
	build := func() *Cell {
		a := mustBuild(t, []byte{1, 2, 3}, 24)
		b := mustBuild(t, []byte{0xF0}, 4, a)
		return mustBuild(t, []byte{0x80}, 1, a, b, a)
	}
	x, y := build(), build()
	if x == y {
		t.Fatalf("cells should be distinct instances")
	}
	if x.Hash() != y.Hash() {
		t.Errorf("equal content produced different hashes")
	}
	if !x.Equal(y) {
		t.Errorf("cells should be equal")
	}

	z := mustBuild(t, []byte{0x00}, 1, x.Refs()...)
	if x.Hash() == z.Hash() {
		t.Errorf("different content produced equal hashes")
	}
	if x.Equal(z) {
		t.Errorf("cells should not be equal")
	}
}

func TestHash_TrailingBitsBeyondLengthAreIgnored(t *testing.T) {
	a := mustBuild(t, []byte{0xA0}, 4)
	b := mustBuild(t, []byte{0xAF}, 4)
	if a.Hash() != b.Hash() {
		t.Errorf("bits beyond the bit length influenced the hash")
	}
}

func TestHash_DeepChainsDoNotExhaustTheStack(t *testing.T) {
	const length = 10_000
	cur := Empty()
	for i := 0; i < length; i++ {
		cur = mustBuild(t, []byte{byte(i)}, 8, cur)
	}
	if got, want := cur.Depth(), length; got != want {
		t.Errorf("unexpected depth, wanted %d, got %d", want, got)
	}
}

func TestHash_ConcurrentHashingProducesConsistentResults(t *testing.T) {
	build := func() *Cell {
		cur := Empty()
		for i := 0; i < 1000; i++ {
			side := mustBuild(t, []byte{byte(i), byte(i >> 8)}, 16)
			cur = mustBuild(t, nil, 0, cur, side)
		}
		return cur
	}
	want := build().Hash()

	root := build()
	const numWorkers = 16
	var wg sync.WaitGroup
	results := make([]common.Hash, numWorkers)
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = root.Hash()
		}(i)
	}
	wg.Wait()
	for i, got := range results {
		if got != want {
			t.Errorf("worker %d observed hash %v, wanted %v", i, got, want)
		}
	}
}

func TestHash_SharedSubtreesAreHashedOnce(t *testing.T) {
	shared := mustBuild(t, []byte{0x42}, 8)
	root := mustBuild(t, nil, 0, shared, shared, shared)
	root.Hash()
	info := shared.hashes.Load()
	if info == nil {
		t.Fatalf("hash of shared child was not memoized")
	}
	root2 := mustBuild(t, nil, 0, shared)
	root2.Hash()
	if shared.hashes.Load() != info {
		t.Errorf("memoized hash of shared child was recomputed")
	}
}

func TestHash_OrdinaryCellHasSingleHashOnAllLevels(t *testing.T) {
	c := mustBuild(t, []byte{0x42}, 8, Empty())
	for level := 0; level <= MaxLevel; level++ {
		if c.HashAt(level) != c.Hash() {
			t.Errorf("hash at level %d differs from representation hash", level)
		}
		if c.DepthAt(level) != c.Depth() {
			t.Errorf("depth at level %d differs from depth", level)
		}
	}
}
