// Copyright (C) 2026  z80emu contributors

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package cpu

// The ED-prefix block instructions (LDxx, CPxx, INxx, OUTxx) all share
// the same repeat trick: the "R" forms back PC up by 2 to re-execute
// the same opcode while BC (or B) stays nonzero, so Step never needs a
// separate notion of a multi-cycle instruction.

// ldi/ldd copy (HL) to (DE), stepping HL/DE by +1/-1 and decrementing
// BC. The undocumented X/Y flags come from A plus the transferred byte.
func (z *CPU) ldi() {
	v := z.Bus.ReadByte(z.hl())
	z.Bus.WriteByte(z.de(), v)
	z.setHL(z.hl() + 1)
	z.setDE(z.de() + 1)
	z.setBC(z.bc() - 1)
	z.ldFlags(v)
}

func (z *CPU) ldd() {
	v := z.Bus.ReadByte(z.hl())
	z.Bus.WriteByte(z.de(), v)
	z.setHL(z.hl() - 1)
	z.setDE(z.de() - 1)
	z.setBC(z.bc() - 1)
	z.ldFlags(v)
}

func (z *CPU) ldFlags(transferred uint8) {
	n := z.A + transferred
	z.setFlag(FlagH, false)
	z.setFlag(FlagN, false)
	z.setFlag(FlagP, z.bc() != 0)
	z.setFlag(FlagY, n&0x02 != 0)
	z.setFlag(FlagX, n&0x08 != 0)
}

// ldir/lddr repeat ldi/ldd, backing PC up by 2 (21 T-states) while
// BC != 0, falling through at 16 T-states on the final iteration; the
// caller's cycle table distinguishes the two costs.
func (z *CPU) ldir() bool {
	z.ldi()
	if z.bc() != 0 {
		z.PC -= 2
		z.WZ = z.PC + 1
		return true
	}
	return false
}

func (z *CPU) lddr() bool {
	z.ldd()
	if z.bc() != 0 {
		z.PC -= 2
		z.WZ = z.PC + 1
		return true
	}
	return false
}

// cpi/cpd compare A against (HL) like CP, but leave the Carry flag
// untouched and step HL/decrement BC instead of an operand fetch.
func (z *CPU) cpi() {
	v := z.Bus.ReadByte(z.hl())
	z.setHL(z.hl() + 1)
	z.WZ++
	z.cpBlockFlags(v)
	z.setBC(z.bc() - 1)
	z.setFlag(FlagP, z.bc() != 0)
}

func (z *CPU) cpd() {
	v := z.Bus.ReadByte(z.hl())
	z.setHL(z.hl() - 1)
	z.WZ--
	z.cpBlockFlags(v)
	z.setBC(z.bc() - 1)
	z.setFlag(FlagP, z.bc() != 0)
}

func (z *CPU) cpBlockFlags(v uint8) {
	result := z.A - v
	halfBorrow := int(z.A&0xF)-int(v&0xF) < 0
	z.setFlag(FlagH, halfBorrow)
	z.setFlag(FlagN, true)
	z.setFlag(FlagS, result&0x80 != 0)
	z.setFlag(FlagZ, result == 0)
	n := result
	if halfBorrow {
		n--
	}
	z.setFlag(FlagY, n&0x02 != 0)
	z.setFlag(FlagX, n&0x08 != 0)
}

func (z *CPU) cpir() bool {
	z.cpi()
	if z.bc() != 0 && !z.getFlag(FlagZ) {
		z.PC -= 2
		z.WZ = z.PC + 1
		return true
	}
	return false
}

func (z *CPU) cpdr() bool {
	z.cpd()
	if z.bc() != 0 && !z.getFlag(FlagZ) {
		z.PC -= 2
		z.WZ = z.PC + 1
		return true
	}
	return false
}

// ini/ind read a byte from port C into (HL), stepping HL and
// decrementing B. outi/outd are the mirror image, writing (HL) to
// port C. All four share the same undocumented H/C/P derivation from
// the transferred byte plus the post-step low byte of the address used
// to reach C.
func (z *CPU) ini() {
	io := z.Bus.In(z.C)
	z.Bus.WriteByte(z.hl(), io)
	z.WZ = z.bc() + 1
	z.B--
	z.setHL(z.hl() + 1)
	z.blockIOFlags(io, uint16(z.C+1))
}

func (z *CPU) ind() {
	io := z.Bus.In(z.C)
	z.Bus.WriteByte(z.hl(), io)
	z.WZ = z.bc() - 1
	z.B--
	z.setHL(z.hl() - 1)
	z.blockIOFlags(io, uint16(z.C-1))
}

func (z *CPU) outi() {
	z.B--
	io := z.Bus.ReadByte(z.hl())
	z.Bus.Out(z.C, io)
	z.setHL(z.hl() + 1)
	z.WZ = z.bc() + 1
	z.blockIOFlags(io, uint16(z.L))
}

func (z *CPU) outd() {
	z.B--
	io := z.Bus.ReadByte(z.hl())
	z.Bus.Out(z.C, io)
	z.setHL(z.hl() - 1)
	z.WZ = z.bc() - 1
	z.blockIOFlags(io, uint16(z.L))
}

// blockIOFlags implements the documented INI/IND/OUTI/OUTD flag
// derivation: N from bit 7 of the transferred byte, H/C from whether
// io plus k overflows a byte, P from the parity of that sum's low 3
// bits xor'd with the post-decrement B, S/Z/X/Y from B.
func (z *CPU) blockIOFlags(io uint8, k uint16) {
	z.setFlag(FlagN, io&0x80 != 0)
	sum := uint16(io) + k
	z.setFlag(FlagH, sum > 0xFF)
	z.setFlag(FlagC, sum > 0xFF)
	z.setFlag(FlagP, parityTable[uint8(sum&0x07)^z.B])
	z.szxy(z.B)
}

func (z *CPU) inir() bool {
	z.ini()
	if z.B != 0 {
		z.PC -= 2
		return true
	}
	return false
}

func (z *CPU) indr() bool {
	z.ind()
	if z.B != 0 {
		z.PC -= 2
		return true
	}
	return false
}

func (z *CPU) otir() bool {
	z.outi()
	if z.B != 0 {
		z.PC -= 2
		return true
	}
	return false
}

func (z *CPU) otdr() bool {
	z.outd()
	if z.B != 0 {
		z.PC -= 2
		return true
	}
	return false
}
