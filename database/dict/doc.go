// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package dict implements the PATRICIA trie encoding of dictionaries with
// fixed width keys, as well as balanced binary trees of values.
//
// A dictionary is a binary trie whose edges are labelled with the bits
// shared by all keys below them. Each node stores its edge label in the
// cheapest of three label encodings, followed either by the value of the
// single key it covers or by references to its two subtrees. The encoding of
// a set of entries is canonical: it depends only on the keys and values, not
// on the order in which they are provided.
package dict
