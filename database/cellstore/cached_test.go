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
	"testing"

	"github.com/Fantom-foundation/Cellar/go/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestCachedStore_GetIsServedFromCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	wrapped := NewMockStore(ctrl)
	store := NewCachedStore(wrapped, 2)

	c := newLeaf(t, 1)
	wrapped.EXPECT().Get(c.Hash()).Return(c, nil).Times(1)

	for i := 0; i < 3; i++ {
		got, err := store.Get(c.Hash())
		require.NoError(t, err)
		assert.Same(t, c, got)
	}
}

func TestCachedStore_PutFillsCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	wrapped := NewMockStore(ctrl)
	store := NewCachedStore(wrapped, 2)

	c := newLeaf(t, 1)
	wrapped.EXPECT().Put(c).Return(c.Hash(), nil)

	hash, err := store.Put(c)
	require.NoError(t, err)
	got, err := store.Get(hash)
	require.NoError(t, err)
	assert.Same(t, c, got)
	present, err := store.Has(hash)
	require.NoError(t, err)
	assert.True(t, present)
}

func TestCachedStore_EvictedCellsAreReloaded(t *testing.T) {
	ctrl := gomock.NewController(t)
	wrapped := NewMockStore(ctrl)
	store := NewCachedStore(wrapped, 1)

	a, b := newLeaf(t, 1), newLeaf(t, 2)
	gomock.InOrder(
		wrapped.EXPECT().Get(a.Hash()).Return(a, nil),
		wrapped.EXPECT().Get(b.Hash()).Return(b, nil),
		wrapped.EXPECT().Get(a.Hash()).Return(a, nil),
	)
	for _, hash := range []common.Hash{a.Hash(), b.Hash(), a.Hash()} {
		_, err := store.Get(hash)
		require.NoError(t, err)
	}
}

func TestCachedStore_ErrorsAreForwardedAndNotCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	wrapped := NewMockStore(ctrl)
	store := NewCachedStore(wrapped, 2)

	injected := errors.New("injected")
	hash := common.Hash{1}
	wrapped.EXPECT().Get(hash).Return(nil, injected).Times(2)
	wrapped.EXPECT().Put(gomock.Any()).Return(common.Hash{}, injected)
	wrapped.EXPECT().Has(hash).Return(false, injected)

	for i := 0; i < 2; i++ {
		_, err := store.Get(hash)
		assert.ErrorIs(t, err, injected)
	}
	_, err := store.Put(newLeaf(t, 1))
	assert.ErrorIs(t, err, injected)
	_, err = store.Has(hash)
	assert.ErrorIs(t, err, injected)
}

func TestCachedStore_DelegatesRootsFlushAndClose(t *testing.T) {
	ctrl := gomock.NewController(t)
	wrapped := NewMockStore(ctrl)
	store := NewCachedStore(wrapped, 2)

	roots := []common.Hash{{1}, {2}}
	wrapped.EXPECT().Roots().Return(roots, nil)
	wrapped.EXPECT().Flush().Return(nil)
	wrapped.EXPECT().Close().Return(nil)

	got, err := store.Roots()
	require.NoError(t, err)
	assert.Equal(t, roots, got)
	require.NoError(t, store.Flush())
	require.NoError(t, store.Close())
}
