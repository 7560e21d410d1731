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
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Fantom-foundation/Cellar/go/database/boc"
	"github.com/Fantom-foundation/Cellar/go/database/cell"
	"github.com/fxamacker/cbor/v2"
)

func runTool(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.Run(append([]string{"tool"}, args...))
	return out.String(), err
}

func newSampleRoots(t *testing.T) []*cell.Cell {
	t.Helper()
	leaf := func(value uint64, refs ...*cell.Cell) *cell.Cell {
		b := cell.NewBuilder()
		if err := b.WriteUint(value, 32); err != nil {
			t.Fatalf("failed to write value: %v", err)
		}
		for _, ref := range refs {
			if err := b.WriteRef(ref); err != nil {
				t.Fatalf("failed to write reference: %v", err)
			}
		}
		c, err := b.Build()
		if err != nil {
			t.Fatalf("failed to build cell: %v", err)
		}
		return c
	}
	shared := leaf(7)
	return []*cell.Cell{leaf(1, shared, leaf(2)), leaf(3, shared)}
}

func writeSampleBoc(t *testing.T, config boc.Config) (string, []*cell.Cell) {
	t.Helper()
	roots := newSampleRoots(t)
	data, err := boc.Encode(roots, config)
	if err != nil {
		t.Fatalf("failed to encode sample: %v", err)
	}
	path := filepath.Join(t.TempDir(), "sample.boc")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("failed to write sample: %v", err)
	}
	return path, roots
}

func TestTool_InfoListsHeaderAndStatistics(t *testing.T) {
	path, _ := writeSampleBoc(t, boc.IndexedConfig)
	out, err := runTool(t, "info", path)
	if err != nil {
		t.Fatalf("failed to run info: %v", err)
	}
	for _, want := range []string{
		"Index:            true",
		"Cells:            4",
		"Roots:            2",
		"Shared cells:     1",
		"References:       3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestTool_HashPrintsRootHashes(t *testing.T) {
	path, roots := writeSampleBoc(t, boc.DefaultConfig)
	out, err := runTool(t, "hash", path)
	if err != nil {
		t.Fatalf("failed to run hash: %v", err)
	}
	want := fmt.Sprintf("0: %v depth=1\n1: %v depth=1\n", roots[0].Hash(), roots[1].Hash())
	if out != want {
		t.Errorf("unexpected output, wanted\n%s\ngot\n%s", want, out)
	}
}

func TestTool_HashOfPrunedBranchListsAllLevels(t *testing.T) {
	roots := newSampleRoots(t)
	pruned, err := cell.CreatePrunedBranch(roots[0])
	if err != nil {
		t.Fatalf("failed to prune cell: %v", err)
	}
	data, err := boc.EncodeRoot(pruned, boc.DefaultConfig)
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "pruned.boc")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	out, err := runTool(t, "hash", "--all-levels", path)
	if err != nil {
		t.Fatalf("failed to run hash: %v", err)
	}
	for level, hash := range []string{pruned.HashAt(0).String(), pruned.HashAt(1).String()} {
		if want := fmt.Sprintf("level %d: %s", level, hash); !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestTool_TreePrintsCellContent(t *testing.T) {
	path, _ := writeSampleBoc(t, boc.DefaultConfig)
	out, err := runTool(t, "tree", path)
	if err != nil {
		t.Fatalf("failed to run tree: %v", err)
	}
	for _, want := range []string{"x{00000001}", "x{00000002}", "x{00000003}", "x{00000007}"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestTool_ConvertPreservesRoots(t *testing.T) {
	path, roots := writeSampleBoc(t, boc.DefaultConfig)
	for _, config := range boc.GetAllConfigNames() {
		for _, compression := range []string{"none", "lz4", "zstd"} {
			t.Run(config+"/"+compression, func(t *testing.T) {
				target := filepath.Join(t.TempDir(), "out.boc")
				_, err := runTool(t, "convert",
					"--config", config,
					"--compress", compression,
					"--output-format", "binary",
					"--output", target,
					path,
				)
				if err != nil {
					t.Fatalf("failed to convert: %v", err)
				}
				content, err := os.ReadFile(target)
				if err != nil {
					t.Fatalf("failed to read result: %v", err)
				}
				data, err := decodeInput(content, "auto")
				if err != nil {
					t.Fatalf("failed to decode result: %v", err)
				}
				restored, err := boc.Decode(data)
				if err != nil {
					t.Fatalf("failed to parse result: %v", err)
				}
				if got, want := len(restored), len(roots); got != want {
					t.Fatalf("unexpected number of roots, wanted %d, got %d", want, got)
				}
				for i := range roots {
					if got, want := restored[i].Hash(), roots[i].Hash(); got != want {
						t.Errorf("root %d differs, wanted %v, got %v", i, want, got)
					}
				}
			})
		}
	}
}

func TestTool_ConvertRejectsUnknownOptions(t *testing.T) {
	path, _ := writeSampleBoc(t, boc.DefaultConfig)
	tests := [][]string{
		{"convert", "--config", "unknown", path},
		{"convert", "--compress", "unknown", path},
		{"convert", "--output-format", "unknown", path},
		{"convert", "--format", "unknown", path},
		{"convert"},
	}
	for _, args := range tests {
		if _, err := runTool(t, args...); err == nil {
			t.Errorf("expected %v to fail", args)
		}
	}
}

func TestTool_DumpCanBeReadBack(t *testing.T) {
	path, roots := writeSampleBoc(t, boc.DefaultConfig)
	for _, withHashes := range []bool{false, true} {
		t.Run(fmt.Sprintf("hashes=%t", withHashes), func(t *testing.T) {
			target := filepath.Join(t.TempDir(), "dump.cbor")
			args := []string{"dump", "--output", target, path}
			if withHashes {
				args = []string{"dump", "--with-hashes", "--output", target, path}
			}
			if _, err := runTool(t, args...); err != nil {
				t.Fatalf("failed to dump: %v", err)
			}
			content, err := os.ReadFile(target)
			if err != nil {
				t.Fatalf("failed to read dump: %v", err)
			}

			var dumped dumpedBoc
			if err := cbor.Unmarshal(content, &dumped); err != nil {
				t.Fatalf("failed to decode dump: %v", err)
			}
			if got, want := len(dumped.Cells), 4; got != want {
				t.Errorf("unexpected number of cells, wanted %d, got %d", want, got)
			}
			if got, want := len(dumped.Cells[0].Hashes) > 0, withHashes; got != want {
				t.Errorf("unexpected presence of hashes, wanted %t, got %t", want, got)
			}

			out, err := runTool(t, "hash", "--format", "cbor", target)
			if err != nil {
				t.Fatalf("failed to read dump as input: %v", err)
			}
			want := fmt.Sprintf("0: %v depth=1\n1: %v depth=1\n", roots[0].Hash(), roots[1].Hash())
			if out != want {
				t.Errorf("unexpected output, wanted\n%s\ngot\n%s", want, out)
			}
		})
	}
}

func TestTool_DumpIsDeterministic(t *testing.T) {
	roots := newSampleRoots(t)
	first, err := marshalDump(roots, true)
	if err != nil {
		t.Fatalf("failed to dump: %v", err)
	}
	second, err := marshalDump(roots, true)
	if err != nil {
		t.Fatalf("failed to dump: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("dumps of the same roots differ")
	}
}

func TestTool_CorruptDumpIsRejected(t *testing.T) {
	if _, err := unmarshalDump([]byte{0xFF, 0x00}); err == nil {
		t.Errorf("invalid CBOR should be rejected")
	}
	dumped := dumpedBoc{Roots: []int{1}, Cells: []dumpedCell{{Bits: 8, Data: []byte{1}}}}
	data, err := encMode.Marshal(dumped)
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}
	if _, err := unmarshalDump(data); err == nil {
		t.Errorf("root index out of range should be rejected")
	}
}

func TestTool_DumpOfExoticCellWithoutDataIsRejected(t *testing.T) {
	dumped := dumpedBoc{Roots: []int{0}, Cells: []dumpedCell{{Exotic: true, Bits: 8, Data: []byte{}}}}
	data, err := encMode.Marshal(dumped)
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}
	if _, err := unmarshalDump(data); !errors.Is(err, cell.ErrInvalidCell) {
		t.Errorf("expected ErrInvalidCell, got %v", err)
	}
}

func TestTool_StoreLoadAndListRoots(t *testing.T) {
	path, roots := writeSampleBoc(t, boc.DefaultConfig)
	db := filepath.Join(t.TempDir(), "db")

	out, err := runTool(t, "store", "--store-compression", "zstd", db, path)
	if err != nil {
		t.Fatalf("failed to store: %v", err)
	}
	want := fmt.Sprintf("%v\n%v\n", roots[0].Hash(), roots[1].Hash())
	if out != want {
		t.Errorf("unexpected store output, wanted\n%s\ngot\n%s", want, out)
	}

	out, err = runTool(t, "roots", db)
	if err != nil {
		t.Fatalf("failed to list roots: %v", err)
	}
	if got := strings.Fields(out); len(got) != 2 {
		t.Errorf("unexpected roots %v", got)
	}
	for _, root := range roots {
		if !strings.Contains(out, root.Hash().String()) {
			t.Errorf("missing root %v in %s", root.Hash(), out)
		}
	}

	out, err = runTool(t, "load", "--output-format", "base64", db, roots[1].Hash().String())
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("invalid base64 output: %v", err)
	}
	loaded, err := boc.Decode(data)
	if err != nil {
		t.Fatalf("failed to decode loaded BOC: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Hash() != roots[1].Hash() {
		t.Errorf("loaded wrong roots: %v", loaded)
	}
}

func TestTool_LoadOfUnknownRootFails(t *testing.T) {
	db := filepath.Join(t.TempDir(), "db")
	if _, err := runTool(t, "roots", db); err != nil {
		t.Fatalf("failed to list roots of empty database: %v", err)
	}
	if _, err := runTool(t, "load", db, strings.Repeat("ab", 32)); err == nil {
		t.Errorf("loading an unknown root should fail")
	}
	if _, err := runTool(t, "load", db, "not-a-hash"); err == nil {
		t.Errorf("loading an invalid hash should fail")
	}
}

func TestDecodeInput_DetectsEncodings(t *testing.T) {
	data, err := boc.Encode(newSampleRoots(t), boc.CompactConfig)
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}
	compressed, err := boc.Compress(data, boc.CompressionZstd)
	if err != nil {
		t.Fatalf("failed to compress: %v", err)
	}
	tests := map[string]struct {
		content []byte
		format  string
	}{
		"binary":            {data, "binary"},
		"binary-auto":       {data, "auto"},
		"hex":               {[]byte(hex.EncodeToString(data)), "hex"},
		"hex-auto":          {[]byte("0x" + hex.EncodeToString(data) + "\n"), "auto"},
		"base64":            {[]byte(base64.StdEncoding.EncodeToString(data)), "base64"},
		"base64-auto":       {[]byte(base64.StdEncoding.EncodeToString(data) + "\n"), "auto"},
		"compressed":        {compressed, "binary"},
		"compressed-auto":   {compressed, "auto"},
		"compressed-base64": {[]byte(base64.StdEncoding.EncodeToString(compressed)), "auto"},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := decodeInput(test.content, test.format)
			if err != nil {
				t.Fatalf("failed to decode input: %v", err)
			}
			if !bytes.Equal(got, data) {
				t.Errorf("unexpected result, wanted %x, got %x", data, got)
			}
		})
	}
}

func TestDecodeInput_RejectsGarbage(t *testing.T) {
	for _, format := range []string{"hex", "base64", "auto", "cbor", "other"} {
		if _, err := decodeInput([]byte("?? not a boc ??"), format); err == nil {
			t.Errorf("format %s accepted garbage", format)
		}
	}
}
