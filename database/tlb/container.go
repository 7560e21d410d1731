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

import (
	"encoding/base64"
	"encoding/hex"

	"github.com/Fantom-foundation/Cellar/go/common"
	"github.com/Fantom-foundation/Cellar/go/database/boc"
	"github.com/Fantom-foundation/Cellar/go/database/cell"
)

// ToCell encodes v, including its constructor tag, into a new cell.
func ToCell(v Serializable) (*cell.Cell, error) {
	b := cell.NewBuilder()
	if err := Write(b, v); err != nil {
		return nil, err
	}
	return b.Build()
}

// FromCell decodes v from the given cell, which must be fully consumed.
func FromCell(c *cell.Cell, v Serializable) error {
	p := c.Parser()
	if err := Read(p, v); err != nil {
		return err
	}
	return p.EnsureEmpty()
}

// CellHash returns the representation hash of the cell encoding v.
func CellHash(v Serializable) (common.Hash, error) {
	c, err := ToCell(v)
	if err != nil {
		return common.Hash{}, err
	}
	return c.Hash(), nil
}

// ToBOC encodes v into a serialized bag of cells.
func ToBOC(v Serializable, config boc.Config) ([]byte, error) {
	c, err := ToCell(v)
	if err != nil {
		return nil, err
	}
	return boc.EncodeRoot(c, config)
}

// FromBOC decodes v from a serialized bag of cells with a single root.
func FromBOC(data []byte, v Serializable) error {
	c, err := boc.DecodeRoot(data)
	if err != nil {
		return err
	}
	return FromCell(c, v)
}

// ToHex encodes v into a hex encoded bag of cells.
func ToHex(v Serializable, config boc.Config) (string, error) {
	data, err := ToBOC(v, config)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(data), nil
}

// FromHex decodes v from a hex encoded bag of cells.
func FromHex(text string, v Serializable) error {
	c, err := boc.DecodeHex(text)
	if err != nil {
		return err
	}
	return FromCell(c, v)
}

// ToBase64 encodes v into a base64 encoded bag of cells.
func ToBase64(v Serializable, config boc.Config) (string, error) {
	data, err := ToBOC(v, config)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// FromBase64 decodes v from a base64 encoded bag of cells.
func FromBase64(text string, v Serializable) error {
	c, err := boc.DecodeBase64(text)
	if err != nil {
		return err
	}
	return FromCell(c, v)
}
