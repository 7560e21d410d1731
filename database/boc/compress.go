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
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the algorithm used in a compression container.
// The values are stored in the first byte of a container.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionLZ4  Compression = 1
	CompressionZstd Compression = 2
)

// maxContainerSize bounds the declared size of a decompressed container.
const maxContainerSize = 1 << 30

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	}
	return fmt.Sprintf("unknown(%d)", uint8(c))
}

// maxRatio bounds the size of the restored data relative to the size of the
// compressed payload. Containers exceeding it are rejected before any buffer
// for the restored data is allocated.
func (c Compression) maxRatio() uint64 {
	switch c {
	case CompressionLZ4:
		return 255
	case CompressionZstd:
		return 1 << 12
	}
	return 1
}

// ParseCompression parses the name of a compression algorithm.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	}
	return 0, fmt.Errorf("unknown compression: %q", name)
}

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("boc: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil,
		zstd.WithDecoderMaxMemory(maxContainerSize),
		zstd.WithDecodeAllCapLimit(true),
	)
	if err != nil {
		panic("boc: zstd decoder initialization failed: " + err.Error())
	}
}

// Compress wraps data into a container holding the algorithm, the original
// size and the compressed payload. Data that does not shrink is stored
// uncompressed.
func Compress(data []byte, algorithm Compression) ([]byte, error) {
	var payload []byte
	switch algorithm {
	case CompressionNone:
		payload = data
	case CompressionLZ4:
		buffer := make([]byte, lz4.CompressBlockBound(len(data)))
		written, err := lz4.CompressBlock(data, buffer, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		payload = buffer[:written]
	case CompressionZstd:
		payload = zstdEncoder.EncodeAll(data, nil)
	default:
		return nil, fmt.Errorf("%w: unsupported compression %v", ErrInvalidContainer, algorithm)
	}
	if algorithm != CompressionNone && (len(payload) == 0 || len(payload) >= len(data) ||
		uint64(len(data)) > uint64(len(payload))*algorithm.maxRatio()) {
		algorithm, payload = CompressionNone, data
	}

	res := make([]byte, 0, 1+binary.MaxVarintLen64+len(payload))
	res = append(res, byte(algorithm))
	res = binary.AppendUvarint(res, uint64(len(data)))
	return append(res, payload...), nil
}

// Decompress restores the data of a container produced by Compress.
func Decompress(container []byte) ([]byte, error) {
	if len(container) == 0 {
		return nil, ErrEmptyInput
	}
	algorithm := Compression(container[0])
	size, n := binary.Uvarint(container[1:])
	if n <= 0 || size > maxContainerSize {
		return nil, fmt.Errorf("%w: invalid size field", ErrInvalidContainer)
	}
	payload := container[1+n:]
	if size > uint64(len(payload))*algorithm.maxRatio() {
		return nil, fmt.Errorf("%w: declared size %d exceeds limit for %d byte %v payload", ErrInvalidContainer, size, len(payload), algorithm)
	}

	var res []byte
	switch algorithm {
	case CompressionNone:
		res = append([]byte(nil), payload...)
	case CompressionLZ4:
		res = make([]byte, size)
		read, err := lz4.UncompressBlock(payload, res)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %w", ErrInvalidContainer, err)
		}
		res = res[:read]
	case CompressionZstd:
		var err error
		res, err = zstdDecoder.DecodeAll(payload, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrInvalidContainer, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported compression %v", ErrInvalidContainer, algorithm)
	}
	if uint64(len(res)) != size {
		return nil, fmt.Errorf("%w: got %d bytes, expected %d", ErrInvalidContainer, len(res), size)
	}
	return res, nil
}
