// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package boc

import (
	"bytes"
	"errors"
	"runtime"
	"testing"

	"github.com/Fantom-foundation/Cellar/go/database/cell"
)

func TestCompress_RoundTrip(t *testing.T) {
	cur := cell.Empty()
	for i := 0; i < 200; i++ {
		cur = newCell(t, []byte{0xAB, 0xCD, byte(i % 4)}, 24, cur)
	}
	data, err := EncodeRoot(cur, DefaultConfig)
	if err != nil {
		t.Fatal(err)
	}
	inputs := [][]byte{nil, {1, 2, 3}, data}
	for _, algorithm := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		for _, input := range inputs {
			container, err := Compress(input, algorithm)
			if err != nil {
				t.Fatalf("failed to compress with %v: %v", algorithm, err)
			}
			restored, err := Decompress(container)
			if err != nil {
				t.Fatalf("failed to decompress with %v: %v", algorithm, err)
			}
			if !bytes.Equal(restored, input) {
				t.Errorf("%v round trip changed data", algorithm)
			}
		}
	}
}

func TestCompress_ShrinksRepetitiveData(t *testing.T) {
	data := bytes.Repeat([]byte{0xB5, 0xEE, 0x9C, 0x72}, 1000)
	for _, algorithm := range []Compression{CompressionLZ4, CompressionZstd} {
		container, err := Compress(data, algorithm)
		if err != nil {
			t.Fatal(err)
		}
		if got := Compression(container[0]); got != algorithm {
			t.Errorf("unexpected algorithm in container, wanted %v, got %v", algorithm, got)
		}
		if len(container) >= len(data) {
			t.Errorf("%v did not shrink data: %d >= %d", algorithm, len(container), len(data))
		}
	}
}

func TestCompress_IncompressibleDataIsStoredPlain(t *testing.T) {
	container, err := Compress([]byte{1, 2, 3}, CompressionLZ4)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := Compression(container[0]), CompressionNone; got != want {
		t.Errorf("unexpected algorithm, wanted %v, got %v", want, got)
	}
}

func TestDecompress_InvalidContainersAreRejected(t *testing.T) {
	valid, err := Compress(bytes.Repeat([]byte{1, 2}, 100), CompressionLZ4)
	if err != nil {
		t.Fatal(err)
	}
	tests := map[string][]byte{
		"unknown algorithm": {9, 0},
		"missing size":      {byte(CompressionLZ4)},
		"wrong size":        {byte(CompressionNone), 5, 1, 2},
		"huge size":         {byte(CompressionLZ4), 0xFF, 0xFF, 0xFF, 0xFF, 0x0F},
		"corrupted payload": append(bytes.Clone(valid[:len(valid)-2]), 0xFF),
		"corrupted zstd":    {byte(CompressionZstd), 4, 1, 2, 3, 4},
	}
	for name, container := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Decompress(container); !errors.Is(err, ErrInvalidContainer) {
				t.Errorf("expected ErrInvalidContainer, got %v", err)
			}
		})
	}
	if _, err := Decompress(nil); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestDecompress_ForgedSizeDoesNotAllocate(t *testing.T) {
	for _, algorithm := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(algorithm.String(), func(t *testing.T) {
			// declares 1 GiB of data for a single byte of payload
			container := []byte{byte(algorithm), 0x80, 0x80, 0x80, 0x80, 0x04, 0x00}
			var before, after runtime.MemStats
			runtime.ReadMemStats(&before)
			_, err := Decompress(container)
			runtime.ReadMemStats(&after)
			if !errors.Is(err, ErrInvalidContainer) {
				t.Errorf("expected ErrInvalidContainer, got %v", err)
			}
			if got, limit := after.TotalAlloc-before.TotalAlloc, uint64(1<<20); got > limit {
				t.Errorf("rejecting the container allocated %d bytes", got)
			}
		})
	}
}

func TestCompress_HighlyRepetitiveDataRoundTrips(t *testing.T) {
	data := make([]byte, 1<<20)
	for _, algorithm := range []Compression{CompressionLZ4, CompressionZstd} {
		t.Run(algorithm.String(), func(t *testing.T) {
			container, err := Compress(data, algorithm)
			if err != nil {
				t.Fatalf("failed to compress: %v", err)
			}
			restored, err := Decompress(container)
			if err != nil {
				t.Fatalf("failed to decompress: %v", err)
			}
			if !bytes.Equal(restored, data) {
				t.Errorf("restored data differs")
			}
		})
	}
}

func TestCompression_Names(t *testing.T) {
	for _, algorithm := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		parsed, err := ParseCompression(algorithm.String())
		if err != nil || parsed != algorithm {
			t.Errorf("failed to parse name of %v: %v, %v", algorithm, parsed, err)
		}
	}
	if _, err := ParseCompression("gzip"); err == nil {
		t.Errorf("unknown algorithm should be rejected")
	}
	if got, want := Compression(7).String(), "unknown(7)"; got != want {
		t.Errorf("unexpected name, wanted %q, got %q", want, got)
	}
}
