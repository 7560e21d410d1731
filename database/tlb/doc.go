// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package tlb maps typed Go values to and from cells following TL-B style
// schemas.
//
// Composite types implement Serializable, usually by listing their fields
// together with an Adapter describing the encoding of each field in a Fields
// table. Types with a constructor tag additionally implement Prefixed; the
// tag is then checked and written by Read and Write. Sum types are decoded
// with ReadVariant, which tries the candidate constructors in order.
package tlb
