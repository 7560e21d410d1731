// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDB is the subset of the LevelDB API used by persistent stores. It is
// satisfied by *leveldb.DB and *leveldb.Transaction allowing stores to be
// run inside or outside of a transaction.
type LevelDB interface {
	// Get gets the value for the given key. It returns leveldb.ErrNotFound
	// if the DB does not contain the key. The returned slice is a copy.
	Get(key []byte, ro *opt.ReadOptions) (value []byte, err error)

	// Has returns true if the DB does contain the given key.
	Has(key []byte, ro *opt.ReadOptions) (bool, error)

	// NewIterator returns an iterator over the given key range. The
	// iterator must be released after use.
	NewIterator(slice *util.Range, ro *opt.ReadOptions) iterator.Iterator

	// Put sets the value for the given key, overwriting previous values.
	Put(key, value []byte, wo *opt.WriteOptions) error

	// Delete deletes the value for the given key.
	Delete(key []byte, wo *opt.WriteOptions) error

	// Write applies the given batch to the DB.
	Write(batch *leveldb.Batch, wo *opt.WriteOptions) error
}

// TableSpace is a prefix byte separating the keys of different tables
// sharing a single LevelDB instance.
type TableSpace byte

const (
	// CellRecordKey is the table of cell records addressed by cell hash.
	CellRecordKey TableSpace = 'C'
	// RootKey is the table of hashes registered as roots.
	RootKey TableSpace = 'R'
)

// DbKey returns the database key of the given hash within this table space.
func (t TableSpace) DbKey(hash Hash) []byte {
	res := make([]byte, 1+HashSize)
	res[0] = byte(t)
	copy(res[1:], hash[:])
	return res
}

// Range returns the key range covering all keys of this table space.
func (t TableSpace) Range() *util.Range {
	return &util.Range{Start: []byte{byte(t)}, Limit: []byte{byte(t) + 1}}
}
