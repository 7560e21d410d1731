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
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/Fantom-foundation/Cellar/go/database/cell"
)

// EncodeHex serializes a single root and renders the result in hex.
func EncodeHex(root *cell.Cell, config Config) (string, error) {
	data, err := EncodeRoot(root, config)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(data), nil
}

// DecodeHex parses a hex encoded BOC with a single root. An optional 0x
// prefix and white space are ignored.
func DecodeHex(text string) (*cell.Cell, error) {
	data, err := DecodeHexBytes(text)
	if err != nil {
		return nil, err
	}
	return DecodeRoot(data)
}

// DecodeHexBytes decodes hex text with an optional 0x prefix. White space
// anywhere in the text is ignored. Errors report the offset of the offending
// character in text.
func DecodeHexBytes(text string) ([]byte, error) {
	compact, offsets := compactText(text)
	start := 0
	if strings.HasPrefix(compact, "0x") || strings.HasPrefix(compact, "0X") {
		start = 2
	}
	digits := compact[start:]
	data := make([]byte, len(digits)/2)
	_, err := hex.Decode(data, []byte(digits))
	var invalid hex.InvalidByteError
	switch {
	case errors.As(err, &invalid):
		pos := start + strings.IndexByte(digits, byte(invalid))
		return nil, fmt.Errorf("%w: invalid hex character %q at offset %d", ErrInvalidText, byte(invalid), offsets[pos])
	case err != nil:
		return nil, fmt.Errorf("%w: odd number of hex digits, last digit at offset %d", ErrInvalidText, offsets[len(compact)-1])
	}
	return data, nil
}

// compactText removes white space from text. The offset of each remaining
// byte in text is returned alongside.
func compactText(text string) (string, []int) {
	res := make([]byte, 0, len(text))
	offsets := make([]int, 0, len(text))
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case ' ', '\t', '\n', '\r', '\v', '\f':
			continue
		}
		res = append(res, text[i])
		offsets = append(offsets, i)
	}
	return string(res), offsets
}

// EncodeBase64 serializes a single root and renders the result in standard
// base64 encoding.
func EncodeBase64(root *cell.Cell, config Config) (string, error) {
	data, err := EncodeRoot(root, config)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeBase64 parses a base64 encoded BOC with a single root. Both the
// standard and the URL-safe alphabet are accepted.
func DecodeBase64(text string) (*cell.Cell, error) {
	data, err := DecodeBase64Bytes(text)
	if err != nil {
		return nil, err
	}
	return DecodeRoot(data)
}

// DecodeBase64Bytes decodes base64 text in standard or URL-safe alphabet,
// with or without padding. White space is ignored.
func DecodeBase64Bytes(text string) ([]byte, error) {
	compact, offsets := compactText(text)
	compact = strings.TrimRight(compact, "=")
	compact = urlAlphabet.Replace(compact)
	data, err := base64.RawStdEncoding.DecodeString(compact)
	var corrupt base64.CorruptInputError
	if errors.As(err, &corrupt) {
		offset := len(text)
		if int(corrupt) < len(offsets) {
			offset = offsets[corrupt]
		}
		return nil, fmt.Errorf("%w: invalid base64 input at offset %d", ErrInvalidText, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidText, err)
	}
	return data, nil
}

var urlAlphabet = strings.NewReplacer("-", "+", "_", "/")
