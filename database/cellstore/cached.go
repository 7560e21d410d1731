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
	"sync"

	"github.com/Fantom-foundation/Cellar/go/common"
	"github.com/Fantom-foundation/Cellar/go/database/cell"
)

// CachedStore keeps recently used cells of a wrapped store in memory.
type CachedStore struct {
	store Store
	mutex sync.Mutex
	cache *common.LruCache[common.Hash, *cell.Cell]
}

// NewCachedStore wraps the given store with an LRU cache of the given
// capacity.
func NewCachedStore(store Store, capacity int) *CachedStore {
	return &CachedStore{
		store: store,
		cache: common.NewLruCache[common.Hash, *cell.Cell](capacity),
	}
}

func (s *CachedStore) Put(root *cell.Cell) (common.Hash, error) {
	hash, err := s.store.Put(root)
	if err != nil {
		return hash, err
	}
	s.mutex.Lock()
	s.cache.Set(hash, root)
	s.mutex.Unlock()
	return hash, nil
}

func (s *CachedStore) Get(hash common.Hash) (*cell.Cell, error) {
	s.mutex.Lock()
	res, found := s.cache.Get(hash)
	s.mutex.Unlock()
	if found {
		return res, nil
	}
	res, err := s.store.Get(hash)
	if err != nil {
		return nil, err
	}
	s.mutex.Lock()
	s.cache.Set(hash, res)
	s.mutex.Unlock()
	return res, nil
}

func (s *CachedStore) Has(hash common.Hash) (bool, error) {
	s.mutex.Lock()
	_, found := s.cache.Get(hash)
	s.mutex.Unlock()
	if found {
		return true, nil
	}
	return s.store.Has(hash)
}

func (s *CachedStore) Roots() ([]common.Hash, error) {
	return s.store.Roots()
}

func (s *CachedStore) Flush() error {
	return s.store.Flush()
}

func (s *CachedStore) Close() error {
	return s.store.Close()
}
