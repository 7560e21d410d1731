// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package dict

import "github.com/Fantom-foundation/Cellar/go/common"

const (
	// ErrInvalidLabel is returned for edge labels that are malformed or
	// longer than the remaining key width.
	ErrInvalidLabel = common.ConstError("invalid dictionary label")
	// ErrKeyWidth is returned if a key does not fit the key width of a
	// dictionary or the width itself is unsupported.
	ErrKeyWidth = common.ConstError("key does not fit key width")
	// ErrDuplicateKey is returned if two entries map to the same key bits.
	ErrDuplicateKey = common.ConstError("duplicate key")
)
