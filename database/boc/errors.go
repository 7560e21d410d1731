// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package boc

import "github.com/Fantom-foundation/Cellar/go/common"

const (
	// ErrEmptyInput is returned when decoding an empty byte string.
	ErrEmptyInput = common.ConstError("empty input")
	// ErrBadMagic is returned if the input does not start with the BOC magic.
	ErrBadMagic = common.ConstError("invalid BOC magic")
	// ErrInvalidHeader is returned for inconsistent header fields.
	ErrInvalidHeader = common.ConstError("invalid BOC header")
	// ErrTruncated is returned if the input ends before a declared field.
	ErrTruncated = common.ConstError("truncated BOC")
	// ErrTooManyRoots is returned if roots and absent cells exceed the cell count.
	ErrTooManyRoots = common.ConstError("too many roots")
	// ErrForwardReference is returned if a cell references a cell that is
	// not yet available when cells are rebuilt in order.
	ErrForwardReference = common.ConstError("forward reference")
	// ErrChecksumMismatch is returned if the CRC-32C trailer does not match.
	ErrChecksumMismatch = common.ConstError("checksum mismatch")
	// ErrInvalidText is returned for malformed hex or base64 text.
	ErrInvalidText = common.ConstError("invalid BOC text")
	// ErrInvalidContainer is returned for malformed compression containers.
	ErrInvalidContainer = common.ConstError("invalid compression container")
)
