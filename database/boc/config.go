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

// Config defines the optional parts of an encoded BOC. Decoding detects all
// options from the header, so the configuration only affects encoding.
type Config struct {
	// A descriptive name for this configuration. It has no effect except for
	// logging and tool selection.
	Name string

	// If set, an index of cell end offsets is stored after the root list,
	// allowing readers to locate cells without parsing all of them.
	HasIndex bool

	// If set, a CRC-32C checksum of all preceding bytes is appended.
	HasCrc32c bool

	// If set, index entries carry a flag marking cells referenced more than
	// once. Requires HasIndex.
	HasCacheBits bool

	// If set, every cell is stored with its hashes and depths, sparing
	// readers the hash computation.
	StoreHashes bool
}

var DefaultConfig = Config{
	Name:      "default",
	HasCrc32c: true,
}

var IndexedConfig = Config{
	Name:         "indexed",
	HasIndex:     true,
	HasCrc32c:    true,
	HasCacheBits: true,
}

var HashedConfig = Config{
	Name:        "hashed",
	HasCrc32c:   true,
	StoreHashes: true,
}

var CompactConfig = Config{
	Name: "compact",
}

var allConfigs = []Config{
	DefaultConfig, IndexedConfig, HashedConfig, CompactConfig,
}

// GetConfigByName attempts to locate a configuration with the given name.
func GetConfigByName(name string) (Config, bool) {
	for _, config := range allConfigs {
		if config.Name == name {
			return config, true
		}
	}
	return Config{}, false
}

// GetAllConfigNames lists the names of all predefined configurations.
func GetAllConfigNames() []string {
	res := make([]string, 0, len(allConfigs))
	for _, config := range allConfigs {
		res = append(res, config.Name)
	}
	return res
}
