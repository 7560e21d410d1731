// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package boc implements the bag-of-cells (BOC) serialization format used to
// exchange cell DAGs as byte strings.
//
// A BOC consists of a header describing the widths of the variable sized
// fields, a list of root cell indices, an optional index of cell offsets,
// the cells themselves and an optional CRC-32C checksum. Identical subtrees
// are stored once. Encoding happens in two steps: the DAG is first flattened
// into a Raw list of cells where every cell is placed after all cells it
// references, which is then written to the wire with roots first. Decoding
// reverses both steps and rebuilds cells in dependency order.
package boc
