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

	"github.com/urfave/cli/v2"
)

var Tree = cli.Command{
	Action: addPerformanceDiagnoses(printTree),
	Name:   "tree",
	Usage:  "prints the cells of a BOC as an indented tree",
	Flags: []cli.Flag{
		&formatFlag,
	},
	ArgsUsage: "<file>",
}

func printTree(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("missing input file")
	}
	roots, err := readRoots(context, context.Args().Get(0))
	if err != nil {
		return err
	}
	for _, root := range roots {
		fmt.Fprint(context.App.Writer, root.String())
	}
	return nil
}
