// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"fmt"
	"os"

	"github.com/Fantom-foundation/Cellar/go/common"
	"github.com/Fantom-foundation/Cellar/go/database/boc"
	"github.com/Fantom-foundation/Cellar/go/database/cell"
	"github.com/fxamacker/cbor/v2"
	"github.com/urfave/cli/v2"
)

var Dump = cli.Command{
	Action: addPerformanceDiagnoses(dump),
	Name:   "dump",
	Usage:  "writes the flat cell list of a BOC as CBOR, readable again with --format cbor",
	Flags: []cli.Flag{
		&formatFlag,
		&outputFlag,
		&withHashesFlag,
	},
	ArgsUsage: "<file>",
}

var withHashesFlag = cli.BoolFlag{
	Name:  "with-hashes",
	Usage: "include the hashes and depths of every cell",
}

// dumpedCell is the CBOR form of a boc.RawCell.
type dumpedCell struct {
	Exotic    bool          `cbor:"exotic,omitempty"`
	LevelMask uint8         `cbor:"level_mask,omitempty"`
	Bits      int           `cbor:"bits"`
	Data      []byte        `cbor:"data"`
	Refs      []int         `cbor:"refs,omitempty"`
	Hashes    []common.Hash `cbor:"hashes,omitempty"`
	Depths    []uint16      `cbor:"depths,omitempty"`
}

// dumpedBoc is the CBOR form of a boc.Raw.
type dumpedBoc struct {
	Roots  []int        `cbor:"roots"`
	Absent int          `cbor:"absent,omitempty"`
	Cells  []dumpedCell `cbor:"cells"`
}

// encMode produces deterministic output, so equal cell lists have equal
// dumps.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("tool: CBOR encoder initialization failed: " + err.Error())
	}
}

func toDump(raw *boc.Raw) dumpedBoc {
	res := dumpedBoc{Roots: raw.Roots, Absent: raw.Absent, Cells: make([]dumpedCell, len(raw.Cells))}
	for i, c := range raw.Cells {
		res.Cells[i] = dumpedCell{
			Exotic:    c.Exotic,
			LevelMask: uint8(c.LevelMask),
			Bits:      c.BitLen,
			Data:      c.Data,
			Refs:      c.Refs,
			Hashes:    c.Hashes,
			Depths:    c.Depths,
		}
	}
	return res
}

func (d dumpedBoc) toRaw() *boc.Raw {
	res := &boc.Raw{Roots: d.Roots, Absent: d.Absent, Cells: make([]boc.RawCell, len(d.Cells))}
	for i, c := range d.Cells {
		res.Cells[i] = boc.RawCell{
			Exotic:    c.Exotic,
			LevelMask: cell.LevelMask(c.LevelMask),
			BitLen:    c.Bits,
			Data:      c.Data,
			Refs:      c.Refs,
			Hashes:    c.Hashes,
			Depths:    c.Depths,
		}
	}
	return res
}

// marshalDump converts the given roots into their CBOR dump.
func marshalDump(roots []*cell.Cell, withHashes bool) ([]byte, error) {
	raw, err := boc.Flatten(roots, withHashes)
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(toDump(raw))
}

// unmarshalDump restores the BOC encoded by a CBOR dump.
func unmarshalDump(data []byte) ([]byte, error) {
	var dumped dumpedBoc
	if err := cbor.Unmarshal(data, &dumped); err != nil {
		return nil, fmt.Errorf("invalid cell dump: %w", err)
	}
	raw := dumped.toRaw()
	// rebuilding validates the cells before they are serialized
	roots, err := raw.Build()
	if err != nil {
		return nil, err
	}
	config := boc.DefaultConfig
	config.StoreHashes = len(raw.Cells) > 0 && len(raw.Cells[0].Hashes) > 0
	return boc.Encode(roots, config)
}

func dump(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("missing input file")
	}
	roots, err := readRoots(context, context.Args().Get(0))
	if err != nil {
		return err
	}
	data, err := marshalDump(roots, context.Bool(withHashesFlag.Name))
	if err != nil {
		return err
	}
	if path := context.String(outputFlag.Name); path != "" {
		return os.WriteFile(path, data, 0600)
	}
	_, err = context.App.Writer.Write(data)
	return err
}
