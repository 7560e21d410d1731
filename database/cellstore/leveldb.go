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
	"errors"
	"fmt"
	"sync"

	"github.com/Fantom-foundation/Cellar/go/common"
	"github.com/Fantom-foundation/Cellar/go/database/boc"
	"github.com/Fantom-foundation/Cellar/go/database/cell"
	"github.com/syndtr/goleveldb/leveldb"
)

// LevelDbStore persists cell records in a LevelDB instance. Each cell is
// stored once under its hash in the cell record table; roots are listed
// in a separate table.
type LevelDbStore struct {
	db          common.LevelDB
	owned       *leveldb.DB
	compression boc.Compression
	mutex       sync.Mutex
}

// NewLevelDbStore creates a store on top of the given database. The
// database remains owned by the caller.
func NewLevelDbStore(db common.LevelDB, config Config) *LevelDbStore {
	return &LevelDbStore{db: db, compression: config.Compress}
}

// OpenLevelDbStore opens or creates a LevelDB database in the given
// directory. Closing the store closes the database.
func OpenLevelDbStore(directory string, config Config) (*LevelDbStore, error) {
	db, err := leveldb.OpenFile(directory, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open cell store in %s: %w", directory, err)
	}
	res := NewLevelDbStore(db, config)
	res.owned = db
	return res, nil
}

func (s *LevelDbStore) Put(root *cell.Cell) (common.Hash, error) {
	if root == nil {
		return common.Hash{}, fmt.Errorf("%w: nil root", cell.ErrInvalidCell)
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()

	batch := new(leveldb.Batch)
	for _, c := range collectCells(root) {
		key := common.CellRecordKey.DbKey(c.Hash())
		present, err := s.db.Has(key, nil)
		if err != nil {
			return common.Hash{}, err
		}
		if present {
			continue
		}
		record, err := encodeRecord(c, s.compression)
		if err != nil {
			return common.Hash{}, err
		}
		batch.Put(key, record)
	}
	hash := root.Hash()
	batch.Put(common.RootKey.DbKey(hash), nil)
	if err := s.db.Write(batch, nil); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

func (s *LevelDbStore) getRecord(hash common.Hash) ([]byte, error) {
	res, err := s.db.Get(common.CellRecordKey.DbKey(hash), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, hash)
	}
	return res, err
}

func (s *LevelDbStore) Get(hash common.Hash) (*cell.Cell, error) {
	return loadCell(s, hash)
}

func (s *LevelDbStore) Has(hash common.Hash) (bool, error) {
	return s.db.Has(common.CellRecordKey.DbKey(hash), nil)
}

func (s *LevelDbStore) Roots() ([]common.Hash, error) {
	iter := s.db.NewIterator(common.RootKey.Range(), nil)
	defer iter.Release()
	var res []common.Hash
	for iter.Next() {
		key := iter.Key()
		if len(key) != 1+common.HashSize {
			return nil, fmt.Errorf("%w: root key of %d bytes", ErrCorruptRecord, len(key))
		}
		res = append(res, common.HashFromBytes(key[1:]))
	}
	return res, iter.Error()
}

// Flush is a no-op since every Put is written in a single batch.
func (s *LevelDbStore) Flush() error {
	return nil
}

func (s *LevelDbStore) Close() error {
	if s.owned == nil {
		return nil
	}
	return s.owned.Close()
}
