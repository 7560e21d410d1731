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
	"math/big"
	"sort"

	"github.com/Fantom-foundation/Cellar/go/database/cell"
	"github.com/Fantom-foundation/Cellar/go/database/tlb"
)

// MaxKeyBits is the widest supported key.
const MaxKeyBits = cell.MaxBits

// Entry is a single key/value pair of a dictionary.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// Dict describes the encoding of dictionaries with keys of KeyBits bits. As
// a tlb.Adapter it reads and writes the optional form of a dictionary, a
// presence bit followed by a reference to the trie root if the dictionary
// is not empty.
type Dict[K comparable, V any] struct {
	KeyBits int
	Keys    KeyAdapter[K]
	Values  tlb.Adapter[V]
}

// New creates a dictionary description for the given key width, key
// mapping and value encoding.
func New[K comparable, V any](keyBits int, keys KeyAdapter[K], values tlb.Adapter[V]) Dict[K, V] {
	return Dict[K, V]{KeyBits: keyBits, Keys: keys, Values: values}
}

func (d Dict[K, V]) checkWidth() error {
	if d.KeyBits < 0 || d.KeyBits > MaxKeyBits {
		return fmt.Errorf("%w: unsupported key width %d", ErrKeyWidth, d.KeyBits)
	}
	return nil
}

func (d Dict[K, V]) ReadField(p *cell.Parser) (map[K]V, error) {
	present, err := p.ReadBit()
	if err != nil {
		return nil, err
	}
	if !present {
		return map[K]V{}, nil
	}
	root, err := p.ReadRef()
	if err != nil {
		return nil, err
	}
	return d.Decode(root)
}

func (d Dict[K, V]) WriteField(b *cell.Builder, value map[K]V) error {
	if len(value) == 0 {
		return b.WriteBit(false)
	}
	root, err := d.Encode(value)
	if err != nil {
		return err
	}
	if b.RefsLeft() == 0 {
		return fmt.Errorf("%w: no room for dictionary root", cell.ErrRefOverflow)
	}
	if err := b.WriteBit(true); err != nil {
		return err
	}
	return b.WriteRef(root)
}

// Encode builds the trie root of a non-empty dictionary.
func (d Dict[K, V]) Encode(values map[K]V) (*cell.Cell, error) {
	entries := make([]Entry[K, V], 0, len(values))
	for key, value := range values {
		entries = append(entries, Entry[K, V]{Key: key, Value: value})
	}
	return d.EncodeEntries(entries)
}

type keyed[V any] struct {
	bits  *big.Int
	value V
}

// EncodeEntries builds the trie root of a non-empty list of entries. The
// result does not depend on the order of the entries. Entries mapping to
// the same key bits are rejected.
func (d Dict[K, V]) EncodeEntries(entries []Entry[K, V]) (*cell.Cell, error) {
	if err := d.checkWidth(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: an empty dictionary has no root", tlb.ErrInvalidValue)
	}
	list := make([]keyed[V], 0, len(entries))
	for _, entry := range entries {
		bits, err := d.Keys.ToBits(entry.Key, d.KeyBits)
		if err != nil {
			return nil, err
		}
		list = append(list, keyed[V]{bits: bits, value: entry.Value})
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].bits.Cmp(list[j].bits) < 0
	})
	for i := 1; i < len(list); i++ {
		if list[i-1].bits.Cmp(list[i].bits) == 0 {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateKey, list[i].bits)
		}
	}
	return d.build(list, 0)
}

// build creates the node covering the given sorted entries, all of which
// share the first offset key bits.
func (d Dict[K, V]) build(entries []keyed[V], offset int) (*cell.Cell, error) {
	m := d.KeyBits - offset
	n := m
	if len(entries) > 1 {
		n = commonPrefix(entries[0].bits, entries[len(entries)-1].bits, offset, d.KeyBits)
	}
	b := cell.NewBuilder()
	if err := writeLabel(b, segment(entries[0].bits, offset, n, d.KeyBits), m); err != nil {
		return nil, err
	}
	if len(entries) == 1 {
		if err := d.Values.WriteField(b, entries[0].value); err != nil {
			return nil, fmt.Errorf("value of key %v: %w", entries[0].bits, err)
		}
		return b.Build()
	}

	pos := d.KeyBits - 1 - (offset + n)
	split := sort.Search(len(entries), func(i int) bool {
		return entries[i].bits.Bit(pos) == 1
	})
	for _, part := range [][]keyed[V]{entries[:split], entries[split:]} {
		child, err := d.build(part, offset+n+1)
		if err != nil {
			return nil, err
		}
		if err := b.WriteRef(child); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// commonPrefix returns the number of equal bits of a and b starting at the
// given offset.
func commonPrefix(a, b *big.Int, offset, width int) int {
	n := 0
	for i := offset; i < width; i++ {
		pos := width - 1 - i
		if a.Bit(pos) != b.Bit(pos) {
			break
		}
		n++
	}
	return n
}

// segment extracts n bits of key starting at the given offset.
func segment(key *big.Int, offset, n, width int) label {
	value := new(big.Int).Rsh(key, uint(width-offset-n))
	mask := new(big.Int).Lsh(big.NewInt(1), uint(n))
	mask.Sub(mask, big.NewInt(1))
	return label{value: value.And(value, mask), n: n}
}

type pending struct {
	node   *cell.Cell
	prefix *big.Int
	offset int
}

// Decode reads all entries of the trie with the given root.
func (d Dict[K, V]) Decode(root *cell.Cell) (map[K]V, error) {
	res := map[K]V{}
	err := d.Walk(root, func(key K, value V) error {
		if _, found := res[key]; found {
			return fmt.Errorf("%w: %v", ErrDuplicateKey, key)
		}
		res[key] = value
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Walk visits all entries of the trie with the given root in ascending
// order of their key bits.
func (d Dict[K, V]) Walk(root *cell.Cell, visit func(K, V) error) error {
	if err := d.checkWidth(); err != nil {
		return err
	}
	stack := []pending{{node: root, prefix: new(big.Int)}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		p, l, err := d.openNode(cur.node, cur.offset)
		if err != nil {
			return err
		}
		prefix := new(big.Int).Lsh(cur.prefix, uint(l.n))
		prefix.Or(prefix, l.value)
		offset := cur.offset + l.n

		if offset == d.KeyBits {
			key, err := d.Keys.FromBits(prefix, d.KeyBits)
			if err != nil {
				return err
			}
			value, err := d.readValue(p, prefix)
			if err != nil {
				return err
			}
			if err := visit(key, value); err != nil {
				return err
			}
			continue
		}

		left, right, err := readFork(p)
		if err != nil {
			return err
		}
		// right is pushed first so the left subtree is visited first
		stack = append(stack,
			pending{node: right, prefix: new(big.Int).Or(new(big.Int).Lsh(prefix, 1), big.NewInt(1)), offset: offset + 1},
			pending{node: left, prefix: new(big.Int).Lsh(prefix, 1), offset: offset + 1},
		)
	}
	return nil
}

// Lookup finds the value stored for key in the trie with the given root
// without decoding unrelated entries.
func (d Dict[K, V]) Lookup(root *cell.Cell, key K) (V, bool, error) {
	var zero V
	if err := d.checkWidth(); err != nil {
		return zero, false, err
	}
	bits, err := d.Keys.ToBits(key, d.KeyBits)
	if err != nil {
		return zero, false, err
	}
	node, offset := root, 0
	for {
		p, l, err := d.openNode(node, offset)
		if err != nil {
			return zero, false, err
		}
		if segment(bits, offset, l.n, d.KeyBits).value.Cmp(l.value) != 0 {
			return zero, false, nil
		}
		offset += l.n
		if offset == d.KeyBits {
			value, err := d.readValue(p, bits)
			if err != nil {
				return zero, false, err
			}
			return value, true, nil
		}
		left, right, err := readFork(p)
		if err != nil {
			return zero, false, err
		}
		node = left
		if bits.Bit(d.KeyBits-1-offset) == 1 {
			node = right
		}
		offset++
	}
}

func (d Dict[K, V]) openNode(node *cell.Cell, offset int) (*cell.Parser, label, error) {
	if node.IsExotic() {
		return nil, label{}, fmt.Errorf("%w: dictionary node is a %v cell", cell.ErrInvalidCell, node.Type())
	}
	p := node.Parser()
	l, err := readLabel(p, d.KeyBits-offset)
	if err != nil {
		return nil, label{}, err
	}
	return p, l, nil
}

func (d Dict[K, V]) readValue(p *cell.Parser, key *big.Int) (V, error) {
	value, err := d.Values.ReadField(p)
	if err == nil {
		err = p.EnsureEmpty()
	}
	if err != nil {
		var zero V
		return zero, fmt.Errorf("value of key %v: %w", key, err)
	}
	return value, nil
}

func readFork(p *cell.Parser) (*cell.Cell, *cell.Cell, error) {
	left, err := p.ReadRef()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: fork without left branch: %w", ErrInvalidLabel, err)
	}
	right, err := p.ReadRef()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: fork without right branch: %w", ErrInvalidLabel, err)
	}
	if err := p.EnsureEmpty(); err != nil {
		return nil, nil, fmt.Errorf("%w: fork with extra content: %w", ErrInvalidLabel, err)
	}
	return left, right, nil
}
