// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package cell implements the tree-of-cells storage model: immutable cells
// holding up to 1023 data bits and up to 4 references to other cells, the
// Builder and Parser types used to write and read bit streams to and from
// cells, and the computation of per-level representation hashes and depths.
//
// Cells form a DAG. A cell may be referenced by any number of parents and is
// never modified after it has been built. Hashes and depths are computed
// lazily on first access and memoized per cell instance. The computation
// walks the DAG with an explicit work list so that long chains of cells do
// not exhaust the call stack.
//
// Besides ordinary cells, the package supports the exotic cell types
// pruned branch, library reference, Merkle proof and Merkle update. Exotic
// cells carry their type in the first data byte and may contribute to the
// level mask of their ancestors.
package cell
