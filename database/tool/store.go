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
	"errors"
	"fmt"

	"github.com/Fantom-foundation/Cellar/go/common"
	"github.com/Fantom-foundation/Cellar/go/common/interrupt"
	"github.com/Fantom-foundation/Cellar/go/database/boc"
	"github.com/Fantom-foundation/Cellar/go/database/cell"
	"github.com/Fantom-foundation/Cellar/go/database/cellstore"
	"github.com/urfave/cli/v2"
)

var Store = cli.Command{
	Action: addPerformanceDiagnoses(store),
	Name:   "store",
	Usage:  "imports the roots of BOC files into a cell database",
	Flags: []cli.Flag{
		&formatFlag,
		&cacheCapacityFlag,
		&storeCompressionFlag,
	},
	ArgsUsage: "<db-directory> <file>...",
}

var Load = cli.Command{
	Action: addPerformanceDiagnoses(load),
	Name:   "load",
	Usage:  "exports cell trees of a cell database as a BOC",
	Flags: []cli.Flag{
		&configFlag,
		&compressFlag,
		&outputFormatFlag,
		&outputFlag,
	},
	ArgsUsage: "<db-directory> <hash>...",
}

var Roots = cli.Command{
	Action:    addPerformanceDiagnoses(listRoots),
	Name:      "roots",
	Usage:     "lists the hashes of all roots stored in a cell database",
	ArgsUsage: "<db-directory>",
}

var (
	cacheCapacityFlag = cli.IntFlag{
		Name:  "cache-capacity",
		Usage: "number of cells kept in the in-memory cache, 0 disables the cache",
		Value: cellstore.DefaultConfig.CacheCapacity,
	}
	storeCompressionFlag = cli.StringFlag{
		Name:  "store-compression",
		Usage: "compression of stored cell records: none, lz4 or zstd",
		Value: cellstore.DefaultConfig.Compress.String(),
	}
)

// openStore opens the cell database named by the first argument using the
// store flags of the command, where present.
func openStore(context *cli.Context) (cellstore.Store, error) {
	directory := context.Args().Get(0)
	if directory == "" {
		return nil, fmt.Errorf("missing database directory")
	}
	config := cellstore.DefaultConfig
	if context.IsSet(cacheCapacityFlag.Name) {
		config.CacheCapacity = context.Int(cacheCapacityFlag.Name)
	}
	if context.IsSet(storeCompressionFlag.Name) {
		compression, err := boc.ParseCompression(context.String(storeCompressionFlag.Name))
		if err != nil {
			return nil, err
		}
		config.Compress = compression
	}
	return cellstore.Open(directory, config)
}

func store(context *cli.Context) (err error) {
	if context.Args().Len() < 2 {
		return fmt.Errorf("missing input files")
	}
	log := NewLog(context.App.ErrWriter)
	db, err := openStore(context)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, db.Close())
	}()

	ctx := interrupt.Register(context.Context, context.App.ErrWriter)
	progress := log.NewProgress("storing roots", 1000)
	for _, path := range context.Args().Slice()[1:] {
		if interrupt.IsCancelled(ctx) {
			return fmt.Errorf("%w: %d roots stored", interrupt.ErrCanceled, progress.Total())
		}
		roots, err := readRoots(context, path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		for _, root := range roots {
			hash, err := db.Put(root)
			if err != nil {
				return err
			}
			fmt.Fprintf(context.App.Writer, "%x\n", hash[:])
		}
		progress.Step(len(roots))
	}
	progress.Done()
	return db.Flush()
}

func load(context *cli.Context) (err error) {
	if context.Args().Len() < 2 {
		return fmt.Errorf("missing root hashes")
	}
	db, err := openStore(context)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, db.Close())
	}()

	var roots []*cell.Cell
	for _, text := range context.Args().Slice()[1:] {
		hash, err := common.ParseHash(text)
		if err != nil {
			return err
		}
		root, err := db.Get(hash)
		if err != nil {
			return fmt.Errorf("failed to load %x: %w", hash[:], err)
		}
		roots = append(roots, root)
	}
	data, err := encodeRoots(context, roots)
	if err != nil {
		return err
	}
	return writeOutput(context, data)
}

func listRoots(context *cli.Context) (err error) {
	if context.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one database directory")
	}
	db, err := openStore(context)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, db.Close())
	}()

	hashes, err := db.Roots()
	if err != nil {
		return err
	}
	for _, hash := range hashes {
		fmt.Fprintf(context.App.Writer, "%x\n", hash[:])
	}
	return nil
}
