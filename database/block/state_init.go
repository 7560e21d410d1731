// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package block

import (
	"fmt"

	"github.com/Fantom-foundation/Cellar/go/common"
	"github.com/Fantom-foundation/Cellar/go/database/cell"
	"github.com/Fantom-foundation/Cellar/go/database/dict"
	"github.com/Fantom-foundation/Cellar/go/database/tlb"
)

// TickTock marks special accounts invoked at the start and end of a block.
type TickTock struct {
	Tick bool
	Tock bool
}

func (t *TickTock) fields() tlb.Fields {
	return tlb.Fields{
		tlb.Field("tick", &t.Tick, tlb.Bool()),
		tlb.Field("tock", &t.Tock, tlb.Bool()),
	}
}

func (t *TickTock) Read(p *cell.Parser) error  { return t.fields().Read(p) }
func (t *TickTock) Write(b *cell.Builder) error { return t.fields().Write(b) }

// SimpleLib is a library cell made available to an account.
type SimpleLib struct {
	Public bool
	Root   *cell.Cell
}

func (l *SimpleLib) fields() tlb.Fields {
	return tlb.Fields{
		tlb.Field("public", &l.Public, tlb.Bool()),
		tlb.Field("root", &l.Root, tlb.CellRef()),
	}
}

func (l *SimpleLib) Read(p *cell.Parser) error  { return l.fields().Read(p) }
func (l *SimpleLib) Write(b *cell.Builder) error { return l.fields().Write(b) }

// libraries maps library root hashes to libraries.
var libraries = dict.New(256, dict.HashKeys(), tlb.Object[SimpleLib]())

// StateInit is the initial state of an account, its code and data along
// with optional libraries and deployment parameters.
type StateInit struct {
	SplitDepth *uint8
	Special    *TickTock
	Code       *cell.Cell
	Data       *cell.Cell
	Library    map[common.Hash]*SimpleLib
}

func (s *StateInit) fields() tlb.Fields {
	return tlb.Fields{
		tlb.Field("split_depth", &s.SplitDepth, tlb.Maybe(tlb.Uint[uint8](5))),
		tlb.Field("special", &s.Special, tlb.Optional(tlb.Object[TickTock]())),
		tlb.Field("code", &s.Code, tlb.Optional(tlb.CellRef())),
		tlb.Field("data", &s.Data, tlb.Optional(tlb.CellRef())),
		tlb.Field("library", &s.Library, tlb.Adapter[map[common.Hash]*SimpleLib](libraries)),
	}
}

func (s *StateInit) Read(p *cell.Parser) error {
	if err := s.fields().Read(p); err != nil {
		return err
	}
	return s.checkLibraries()
}

func (s *StateInit) Write(b *cell.Builder) error {
	if err := s.checkLibraries(); err != nil {
		return err
	}
	return s.fields().Write(b)
}

// checkLibraries verifies that each library is keyed by its root hash.
func (s *StateInit) checkLibraries() error {
	for key, lib := range s.Library {
		if lib == nil || lib.Root == nil {
			return fmt.Errorf("%w: library %v has no root", tlb.ErrInvalidValue, key)
		}
		if hash := lib.Root.Hash(); hash != key {
			return fmt.Errorf("%w: library keyed by %v has root hash %v", tlb.ErrInvalidValue, key, hash)
		}
	}
	return nil
}

// AddLibrary registers a library under the hash of its root.
func (s *StateInit) AddLibrary(root *cell.Cell, public bool) {
	if s.Library == nil {
		s.Library = map[common.Hash]*SimpleLib{}
	}
	s.Library[root.Hash()] = &SimpleLib{Public: public, Root: root}
}

// Address derives the address of the account initialised by this state
// in the given workchain, which is the hash of the state's cell.
func (s *StateInit) Address(workchain int8) (*AddrStd, error) {
	hash, err := tlb.CellHash(s)
	if err != nil {
		return nil, err
	}
	return &AddrStd{Workchain: workchain, Address: hash}, nil
}
