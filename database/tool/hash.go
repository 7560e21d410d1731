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

	"github.com/Fantom-foundation/Cellar/go/database/cell"
	"github.com/urfave/cli/v2"
)

var Hash = cli.Command{
	Action: addPerformanceDiagnoses(printHashes),
	Name:   "hash",
	Usage:  "prints the hashes and depths of the roots of a BOC",
	Flags: []cli.Flag{
		&formatFlag,
		&allLevelsFlag,
	},
	ArgsUsage: "<file>",
}

var allLevelsFlag = cli.BoolFlag{
	Name:  "all-levels",
	Usage: "print the hash and depth of every level, not only the representation hash",
}

func printHashes(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("missing input file")
	}
	roots, err := readRoots(context, context.Args().Get(0))
	if err != nil {
		return err
	}
	out := context.App.Writer
	for i, root := range roots {
		if !context.Bool(allLevelsFlag.Name) {
			fmt.Fprintf(out, "%d: %v depth=%d\n", i, root.Hash(), root.Depth())
			continue
		}
		fmt.Fprintf(out, "%d:\n", i)
		for level := 0; level <= cell.MaxLevel; level++ {
			if level > 0 && !root.LevelMask().IsSignificant(level) {
				continue
			}
			fmt.Fprintf(out, "\tlevel %d: %v depth=%d\n", level, root.HashAt(level), root.DepthAt(level))
		}
	}
	return nil
}
