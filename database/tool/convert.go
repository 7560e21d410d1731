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

var Convert = cli.Command{
	Action: addPerformanceDiagnoses(convert),
	Name:   "convert",
	Usage:  "re-encodes a BOC using another layout, text encoding or compression",
	Flags: []cli.Flag{
		&formatFlag,
		&outputFormatFlag,
		&outputFlag,
		&configFlag,
		&compressFlag,
	},
	ArgsUsage: "<file>",
}

func convert(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("missing input file")
	}
	roots, err := readRoots(context, context.Args().Get(0))
	if err != nil {
		return err
	}
	data, err := encodeRoots(context, roots)
	if err != nil {
		return err
	}
	return writeOutput(context, data)
}
