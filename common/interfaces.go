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

import "io"

// Flusher is implemented by stores buffering writes.
type Flusher interface {
	// Flush writes all buffered data to the underlying storage.
	Flush() error
}

// FlushAndCloser is a store that can be flushed and closed. Close implies a
// flush.
type FlushAndCloser interface {
	Flusher
	io.Closer
}
