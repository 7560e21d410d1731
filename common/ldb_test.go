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
	"bytes"
	"testing"

	"github.com/syndtr/goleveldb/leveldb"
)

func TestLevelDB_ImplementedByDbAndTransaction(t *testing.T) {
	var _ LevelDB = (*leveldb.DB)(nil)
	var _ LevelDB = (*leveldb.Transaction)(nil)
}

func TestTableSpace_DbKeyIsPrefixedHash(t *testing.T) {
	hash := Hash{1, 2, 3}
	key := CellRecordKey.DbKey(hash)
	if len(key) != 1+HashSize {
		t.Fatalf("unexpected key length %d", len(key))
	}
	if key[0] != 'C' || !bytes.Equal(key[1:], hash[:]) {
		t.Errorf("unexpected key %x", key)
	}
}

func TestTableSpace_RangeCoversOnlyOwnKeys(t *testing.T) {
	r := RootKey.Range()
	inside := RootKey.DbKey(Hash{0xFF})
	outside := CellRecordKey.DbKey(Hash{})
	if bytes.Compare(inside, r.Start) < 0 || bytes.Compare(inside, r.Limit) >= 0 {
		t.Errorf("own key not covered by range")
	}
	if bytes.Compare(outside, r.Start) >= 0 && bytes.Compare(outside, r.Limit) < 0 {
		t.Errorf("foreign key covered by range")
	}
}
