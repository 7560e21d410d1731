// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package cell

import "github.com/Fantom-foundation/Cellar/go/common"

const (
	// ErrWriteOverflow is returned if a write exceeds the bit capacity of a builder.
	ErrWriteOverflow = common.ConstError("cell bit capacity exceeded")
	// ErrRefOverflow is returned if more than MaxRefs references are added to a builder.
	ErrRefOverflow = common.ConstError("cell reference capacity exceeded")
	// ErrValueOutOfRange is returned if a numeric value does not fit the requested bit width.
	ErrValueOutOfRange = common.ConstError("value does not fit into bit width")
	// ErrReadUnderflow is returned if a read requests more bits than left in a cell.
	ErrReadUnderflow = common.ConstError("not enough bits left in cell")
	// ErrNoMoreRefs is returned if a reference is read from a parser with no references left.
	ErrNoMoreRefs = common.ConstError("no more references left in cell")
	// ErrInvalidSeek is returned if a seek target is outside of the cell's data.
	ErrInvalidSeek = common.ConstError("invalid seek position")
	// ErrNotFullyConsumed is returned by EnsureEmpty if bits or references are left.
	ErrNotFullyConsumed = common.ConstError("cell not fully consumed")
	// ErrInvalidCell is returned if a cell violates a structural constraint.
	ErrInvalidCell = common.ConstError("invalid cell")
)
