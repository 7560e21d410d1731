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
	"sort"
	"sync"

	"github.com/Fantom-foundation/Cellar/go/common"
	"github.com/Fantom-foundation/Cellar/go/database/cell"
)

// MemoryStore keeps cells in memory. It is safe for concurrent use.
type MemoryStore struct {
	mutex sync.RWMutex
	cells map[common.Hash]*cell.Cell
	roots map[common.Hash]struct{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cells: map[common.Hash]*cell.Cell{},
		roots: map[common.Hash]struct{}{},
	}
}

func (s *MemoryStore) Put(root *cell.Cell) (common.Hash, error) {
	if root == nil {
		return common.Hash{}, fmt.Errorf("%w: nil root", cell.ErrInvalidCell)
	}
	cells := collectCells(root)
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, c := range cells {
		s.cells[c.Hash()] = c
	}
	hash := root.Hash()
	s.roots[hash] = struct{}{}
	return hash, nil
}

func (s *MemoryStore) Get(hash common.Hash) (*cell.Cell, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	res, found := s.cells[hash]
	if !found {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, hash)
	}
	return res, nil
}

func (s *MemoryStore) Has(hash common.Hash) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	_, found := s.cells[hash]
	return found, nil
}

func (s *MemoryStore) Roots() ([]common.Hash, error) {
	s.mutex.RLock()
	res := make([]common.Hash, 0, len(s.roots))
	for hash := range s.roots {
		res = append(res, hash)
	}
	s.mutex.RUnlock()
	sortHashes(res)
	return res, nil
}

func (s *MemoryStore) Flush() error {
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func sortHashes(hashes []common.Hash) {
	sort.Slice(hashes, func(i, j int) bool {
		return string(hashes[i][:]) < string(hashes[j][:])
	})
}
