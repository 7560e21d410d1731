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
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/Fantom-foundation/Cellar/go/database/boc"
	"github.com/Fantom-foundation/Cellar/go/database/cell"
	"github.com/urfave/cli/v2"
)

var (
	formatFlag = cli.StringFlag{
		Name:  "format",
		Usage: "encoding of the input: auto, binary, hex, base64 or cbor",
		Value: "auto",
	}
	outputFormatFlag = cli.StringFlag{
		Name:  "output-format",
		Usage: "encoding of the output: binary, hex or base64",
		Value: "hex",
	}
	outputFlag = cli.StringFlag{
		Name:  "output",
		Usage: "file to write the result to, standard output if empty",
	}
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "BOC layout used for encoding, one of the named configurations",
		Value: boc.DefaultConfig.Name,
	}
	compressFlag = cli.StringFlag{
		Name:  "compress",
		Usage: "wrap the output into a compression container: none, lz4 or zstd",
		Value: "none",
	}
)

// readFile reads the named file, or standard input for "-".
func readFile(context *cli.Context, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(context.App.Reader)
	}
	return os.ReadFile(path)
}

// decodeInput converts the content of an input file into BOC bytes. Inputs
// in compression containers are unpacked.
func decodeInput(content []byte, format string) ([]byte, error) {
	var data []byte
	var err error
	switch format {
	case "binary":
		data = content
	case "hex":
		data, err = boc.DecodeHexBytes(string(content))
	case "base64":
		data, err = boc.DecodeBase64Bytes(string(content))
	case "cbor":
		return unmarshalDump(content)
	case "auto":
		data, err = detectInput(content)
	default:
		return nil, fmt.Errorf("unknown input format %q", format)
	}
	if err != nil {
		return nil, err
	}
	if len(data) > 0 && !hasMagic(data) {
		if unpacked, err := boc.Decompress(data); err == nil && hasMagic(unpacked) {
			return unpacked, nil
		}
	}
	return data, nil
}

func hasMagic(data []byte) bool {
	return len(data) >= 4 && binary.BigEndian.Uint32(data) == boc.Magic
}

// detectInput guesses the encoding of the content, preferring binary, then
// hex, then base64.
func detectInput(content []byte) ([]byte, error) {
	if hasMagic(content) {
		return content, nil
	}
	if _, err := boc.Decompress(content); err == nil {
		return content, nil
	}
	text := string(bytes.TrimSpace(content))
	if data, err := boc.DecodeHexBytes(text); err == nil {
		return data, nil
	}
	return boc.DecodeBase64Bytes(text)
}

// readRoots reads and decodes the BOC in the given file.
func readRoots(context *cli.Context, path string) ([]*cell.Cell, error) {
	raw, err := readBoc(context, path)
	if err != nil {
		return nil, err
	}
	return boc.Decode(raw)
}

func readBoc(context *cli.Context, path string) ([]byte, error) {
	content, err := readFile(context, path)
	if err != nil {
		return nil, err
	}
	return decodeInput(content, context.String(formatFlag.Name))
}

// writeOutput encodes the given BOC bytes in the requested output format
// and writes them to the output file or standard output.
func writeOutput(context *cli.Context, data []byte) error {
	var content []byte
	switch format := context.String(outputFormatFlag.Name); format {
	case "binary":
		content = data
	case "hex":
		content = []byte(hex.EncodeToString(data) + "\n")
	case "base64":
		content = []byte(base64.StdEncoding.EncodeToString(data) + "\n")
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	if path := context.String(outputFlag.Name); path != "" {
		return os.WriteFile(path, content, 0600)
	}
	_, err := context.App.Writer.Write(content)
	return err
}

// encodeRoots serializes the roots using the configuration and compression
// selected by the command line flags.
func encodeRoots(context *cli.Context, roots []*cell.Cell) ([]byte, error) {
	name := context.String(configFlag.Name)
	config, found := boc.GetConfigByName(name)
	if !found {
		return nil, fmt.Errorf("unknown configuration %q, supported: %v", name, boc.GetAllConfigNames())
	}
	data, err := boc.Encode(roots, config)
	if err != nil {
		return nil, err
	}
	compression, err := boc.ParseCompression(context.String(compressFlag.Name))
	if err != nil {
		return nil, err
	}
	if compression == boc.CompressionNone {
		return data, nil
	}
	return boc.Compress(data, compression)
}
