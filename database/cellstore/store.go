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

//go:generate mockgen -source store.go -destination store_mocks.go -package cellstore

import (
	"github.com/Fantom-foundation/Cellar/go/common"
	"github.com/Fantom-foundation/Cellar/go/database/boc"
	"github.com/Fantom-foundation/Cellar/go/database/cell"
)

const (
	// ErrNotFound is returned when loading a cell that is not in the store.
	ErrNotFound = common.ConstError("cell not found")
	// ErrCorruptRecord is returned if a stored record can not be decoded or
	// does not match the hash it is stored under.
	ErrCorruptRecord = common.ConstError("corrupt cell record")
)

// Store is a content addressed store of cell DAGs. Cells are addressed by
// their representation hash. Storing a cell stores all cells reachable from
// it; loading a cell restores the full DAG below it.
type Store interface {
	// Put stores the DAG rooted by the given cell and registers the cell
	// as a root. It returns the hash the root is stored under.
	Put(root *cell.Cell) (common.Hash, error)

	// Get loads the cell with the given hash. If it is not present,
	// ErrNotFound is returned.
	Get(hash common.Hash) (*cell.Cell, error)

	// Has checks whether a cell with the given hash is present.
	Has(hash common.Hash) (bool, error)

	// Roots lists the hashes of all registered roots in ascending order.
	Roots() ([]common.Hash, error)

	common.FlushAndCloser
}

// Config defines the parameters of a persistent store.
type Config struct {
	// CacheCapacity is the number of recently used cells kept in memory.
	// Zero disables caching.
	CacheCapacity int
	// Compress selects the compression applied to stored records.
	Compress boc.Compression
}

// DefaultConfig is a cached store with lz4 compressed records.
var DefaultConfig = Config{
	CacheCapacity: 1 << 16,
	Compress:      boc.CompressionLZ4,
}

// Open opens or creates a persistent store in the given directory.
func Open(directory string, config Config) (Store, error) {
	store, err := OpenLevelDbStore(directory, config)
	if err != nil {
		return nil, err
	}
	if config.CacheCapacity <= 0 {
		return store, nil
	}
	return NewCachedStore(store, config.CacheCapacity), nil
}
