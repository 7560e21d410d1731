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

	"github.com/Fantom-foundation/Cellar/go/database/boc"
	"github.com/Fantom-foundation/Cellar/go/database/cell"
	"github.com/urfave/cli/v2"
)

var Info = cli.Command{
	Action: addPerformanceDiagnoses(info),
	Name:   "info",
	Usage:  "lists the header fields and cell statistics of a BOC",
	Flags: []cli.Flag{
		&formatFlag,
	},
	ArgsUsage: "<file>",
}

// bocStatistics summarizes the cells of a decoded BOC.
type bocStatistics struct {
	cells      int
	shared     int
	exotic     map[cell.Type]int
	dataBits   int
	references int
	maxLevel   int
	withHashes int
}

func collectStatistics(raw *boc.Raw) bocStatistics {
	res := bocStatistics{cells: len(raw.Cells), exotic: map[cell.Type]int{}}
	for _, c := range raw.Cells {
		if c.Shared {
			res.shared++
		}
		if c.Exotic && c.BitLen >= 8 {
			res.exotic[cell.Type(c.Data[0])]++
		}
		if len(c.Hashes) > 0 {
			res.withHashes++
		}
		res.dataBits += c.BitLen
		res.references += len(c.Refs)
		res.maxLevel = max(res.maxLevel, c.LevelMask.Level())
	}
	return res
}

func info(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("missing input file")
	}
	data, err := readBoc(context, context.Args().Get(0))
	if err != nil {
		return err
	}
	raw, header, err := boc.DecodeRaw(data)
	if err != nil {
		return err
	}
	stats := collectStatistics(raw)

	out := context.App.Writer
	fmt.Fprintf(out, "BOC of %d bytes with the following properties:\n", len(data))
	fmt.Fprintf(out, "\tIndex:            %v\n", header.HasIndex)
	fmt.Fprintf(out, "\tChecksum:         %v\n", header.HasCrc32c)
	fmt.Fprintf(out, "\tCache bits:       %v\n", header.HasCacheBits)
	fmt.Fprintf(out, "\tReference bytes:  %d\n", header.RefBytes)
	fmt.Fprintf(out, "\tOffset bytes:     %d\n", header.OffsetBytes)
	fmt.Fprintf(out, "\tCells:            %d\n", header.CellCount)
	fmt.Fprintf(out, "\tRoots:            %d\n", header.RootCount)
	fmt.Fprintf(out, "\tAbsent:           %d\n", header.AbsentCount)
	fmt.Fprintf(out, "\tPayload bytes:    %d\n", header.TotalCellsSize)

	fmt.Fprintf(out, "\n--- Cell Statistics ---\n")
	fmt.Fprintf(out, "\tShared cells:     %d\n", stats.shared)
	fmt.Fprintf(out, "\tData bits:        %d\n", stats.dataBits)
	fmt.Fprintf(out, "\tReferences:       %d\n", stats.references)
	fmt.Fprintf(out, "\tMaximum level:    %d\n", stats.maxLevel)
	fmt.Fprintf(out, "\tStored hashes:    %d\n", stats.withHashes)
	for _, typ := range []cell.Type{cell.PrunedBranch, cell.Library, cell.MerkleProof, cell.MerkleUpdate} {
		if count := stats.exotic[typ]; count > 0 {
			fmt.Fprintf(out, "\t%-17s %d\n", typ.String()+":", count)
		}
	}
	return nil
}
