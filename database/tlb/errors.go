// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package tlb

import "github.com/Fantom-foundation/Cellar/go/common"

const (
	// ErrPrefixMismatch is returned if a constructor tag does not match the
	// expected value. Variant dispatch treats it as recoverable.
	ErrPrefixMismatch = common.ConstError("prefix mismatch")
	// ErrOptionsExhausted is returned if none of the candidates of a variant
	// matched. Variant dispatch treats it as recoverable.
	ErrOptionsExhausted = common.ConstError("no matching variant")
	// ErrInvalidValue is returned if a value cannot be represented by its
	// schema, for instance a byte string of the wrong length.
	ErrInvalidValue = common.ConstError("invalid value")
)
