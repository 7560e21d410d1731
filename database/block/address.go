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
	"strconv"
	"strings"

	"github.com/Fantom-foundation/Cellar/go/common"
	"github.com/Fantom-foundation/Cellar/go/database/cell"
	"github.com/Fantom-foundation/Cellar/go/database/tlb"
)

// MsgAddress is any of the message address variants: AddrNone, AddrExtern,
// AddrStd and AddrVar.
type MsgAddress interface {
	tlb.Serializable
	tlb.Prefixed
	fmt.Stringer
}

var msgAddressVariants = []func() MsgAddress{
	func() MsgAddress { return &AddrNone{} },
	func() MsgAddress { return &AddrExtern{} },
	func() MsgAddress { return &AddrStd{} },
	func() MsgAddress { return &AddrVar{} },
}

// MsgAddressField is the adapter for fields holding any kind of address.
func MsgAddressField() tlb.Adapter[MsgAddress] {
	return tlb.Variant(msgAddressVariants...)
}

// ReadMsgAddress decodes an address of any kind.
func ReadMsgAddress(p *cell.Parser) (MsgAddress, error) {
	return tlb.ReadVariant(p, msgAddressVariants...)
}

// AddrNone is the empty address.
type AddrNone struct{}

func (*AddrNone) Prefix() tlb.Prefix        { return tlb.Prefix{Value: 0b00, Bits: 2} }
func (*AddrNone) Read(*cell.Parser) error   { return nil }
func (*AddrNone) Write(*cell.Builder) error { return nil }
func (*AddrNone) String() string            { return "addr_none" }

// AddrExtern is an address outside of the chain.
type AddrExtern struct {
	Address tlb.BitString
}

func (*AddrExtern) Prefix() tlb.Prefix { return tlb.Prefix{Value: 0b01, Bits: 2} }

func (a *AddrExtern) fields() tlb.Fields {
	return tlb.Fields{tlb.Field("address", &a.Address, tlb.VarBits(9))}
}

func (a *AddrExtern) Read(p *cell.Parser) error  { return a.fields().Read(p) }
func (a *AddrExtern) Write(b *cell.Builder) error { return a.fields().Write(b) }

func (a *AddrExtern) String() string {
	return "extern:" + a.Address.String()
}

// maxAnycastDepth is the longest rewrite prefix of an anycast address.
const maxAnycastDepth = 30

// Anycast holds the prefix replacing the leading bits of an address when
// routing to the shard holding the account.
type Anycast struct {
	RewritePrefix tlb.BitString
}

func (a *Anycast) Read(p *cell.Parser) error {
	prefix, err := tlb.VarBits(5).ReadField(p)
	if err != nil {
		return err
	}
	if prefix.Bits < 1 || prefix.Bits > maxAnycastDepth {
		return fmt.Errorf("%w: anycast depth %d outside [1,%d]", tlb.ErrInvalidValue, prefix.Bits, maxAnycastDepth)
	}
	a.RewritePrefix = prefix
	return nil
}

func (a *Anycast) Write(b *cell.Builder) error {
	if depth := a.RewritePrefix.Bits; depth < 1 || depth > maxAnycastDepth {
		return fmt.Errorf("%w: anycast depth %d outside [1,%d]", tlb.ErrInvalidValue, depth, maxAnycastDepth)
	}
	return tlb.VarBits(5).WriteField(b, a.RewritePrefix)
}

func anycastField() tlb.Adapter[*Anycast] {
	return tlb.Optional(tlb.Object[Anycast]())
}

// AddrStd is the standard address of an account, given by its workchain and
// a 256-bit account id.
type AddrStd struct {
	Anycast   *Anycast
	Workchain int8
	Address   common.Hash
}

func (*AddrStd) Prefix() tlb.Prefix { return tlb.Prefix{Value: 0b10, Bits: 2} }

func (a *AddrStd) fields() tlb.Fields {
	return tlb.Fields{
		tlb.Field("anycast", &a.Anycast, anycastField()),
		tlb.Field("workchain", &a.Workchain, tlb.Int[int8](8)),
		tlb.Field("address", &a.Address, tlb.Hash()),
	}
}

func (a *AddrStd) Read(p *cell.Parser) error  { return a.fields().Read(p) }
func (a *AddrStd) Write(b *cell.Builder) error { return a.fields().Write(b) }

// String renders the address in raw form, the workchain followed by the
// account id in hex.
func (a *AddrStd) String() string {
	return fmt.Sprintf("%d:%s", a.Workchain, a.Address)
}

// ParseAddrStd parses a standard address in raw form.
func ParseAddrStd(text string) (*AddrStd, error) {
	workchain, account, found := strings.Cut(strings.TrimSpace(text), ":")
	if !found {
		return nil, fmt.Errorf("%w: missing workchain separator in %q", ErrInvalidAddress, text)
	}
	wc, err := strconv.ParseInt(workchain, 10, 8)
	if err != nil {
		return nil, fmt.Errorf("%w: workchain %q: %w", ErrInvalidAddress, workchain, err)
	}
	hash, err := common.ParseHash(strings.ToLower(account))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return &AddrStd{Workchain: int8(wc), Address: hash}, nil
}

// AddrVar is an address with a workchain and account id of arbitrary width.
type AddrVar struct {
	Anycast   *Anycast
	Workchain int32
	Address   tlb.BitString
}

func (*AddrVar) Prefix() tlb.Prefix { return tlb.Prefix{Value: 0b11, Bits: 2} }

// The account id length precedes the workchain, so the address is not a
// plain sequence of fields.
func (a *AddrVar) Read(p *cell.Parser) error {
	anycast, err := anycastField().ReadField(p)
	if err != nil {
		return fmt.Errorf("anycast: %w", err)
	}
	length, err := p.ReadUint(9)
	if err != nil {
		return fmt.Errorf("address length: %w", err)
	}
	workchain, err := p.ReadInt(32)
	if err != nil {
		return fmt.Errorf("workchain: %w", err)
	}
	data, err := p.ReadBits(int(length))
	if err != nil {
		return fmt.Errorf("address: %w", err)
	}
	a.Anycast = anycast
	a.Workchain = int32(workchain)
	a.Address = tlb.BitString{Data: data, Bits: int(length)}
	return nil
}

func (a *AddrVar) Write(b *cell.Builder) error {
	if a.Address.Bits < 0 || a.Address.Bits >= 1<<9 || a.Address.Bits > len(a.Address.Data)*8 {
		return fmt.Errorf("%w: address of %d bits", tlb.ErrInvalidValue, a.Address.Bits)
	}
	if err := anycastField().WriteField(b, a.Anycast); err != nil {
		return fmt.Errorf("anycast: %w", err)
	}
	if err := b.WriteUint(uint64(a.Address.Bits), 9); err != nil {
		return err
	}
	if err := b.WriteInt(int64(a.Workchain), 32); err != nil {
		return err
	}
	return b.WriteBits(a.Address.Data, a.Address.Bits)
}

func (a *AddrVar) String() string {
	return fmt.Sprintf("%d:%s", a.Workchain, a.Address)
}
