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

// rlca/rrca/rla/rra implement the unprefixed accumulator rotates. They
// touch C, H, N, X, Y but leave S, Z and P exactly as they were.
func (z *CPU) rlca() {
	carry := z.A&0x80 != 0
	z.A = z.A<<1 | b2u8(carry)
	z.setFlag(FlagC, carry)
	z.setFlag(FlagH, false)
	z.setFlag(FlagN, false)
	z.setFlag(FlagX, z.A&0x08 != 0)
	z.setFlag(FlagY, z.A&0x20 != 0)
}

func (z *CPU) rrca() {
	carry := z.A&0x01 != 0
	z.A = z.A>>1 | b2u8(carry)<<7
	z.setFlag(FlagC, carry)
	z.setFlag(FlagH, false)
	z.setFlag(FlagN, false)
	z.setFlag(FlagX, z.A&0x08 != 0)
	z.setFlag(FlagY, z.A&0x20 != 0)
}

func (z *CPU) rla() {
	oldCarry := z.getFlag(FlagC)
	carry := z.A&0x80 != 0
	z.A = z.A<<1 | b2u8(oldCarry)
	z.setFlag(FlagC, carry)
	z.setFlag(FlagH, false)
	z.setFlag(FlagN, false)
	z.setFlag(FlagX, z.A&0x08 != 0)
	z.setFlag(FlagY, z.A&0x20 != 0)
}

func (z *CPU) rra() {
	oldCarry := z.getFlag(FlagC)
	carry := z.A&0x01 != 0
	z.A = z.A>>1 | b2u8(oldCarry)<<7
	z.setFlag(FlagC, carry)
	z.setFlag(FlagH, false)
	z.setFlag(FlagN, false)
	z.setFlag(FlagX, z.A&0x08 != 0)
	z.setFlag(FlagY, z.A&0x20 != 0)
}

func b2u8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// cbShift applies one of the eight CB-prefix shift/rotate operations
// (selected by the y field: RLC, RRC, RL, RR, SLA, SRA, SLL, SRL) to v
// and returns the result, with the full S/Z/Y/H/X/P/N/C flag set.
func (z *CPU) cbShift(y uint8, v uint8) uint8 {
	var result uint8
	var carry bool

	switch y {
	case 0: // RLC
		carry = v&0x80 != 0
		result = v<<1 | b2u8(carry)
	case 1: // RRC
		carry = v&0x01 != 0
		result = v>>1 | b2u8(carry)<<7
	case 2: // RL
		carry = v&0x80 != 0
		result = v<<1 | b2u8(z.getFlag(FlagC))
	case 3: // RR
		carry = v&0x01 != 0
		result = v>>1 | b2u8(z.getFlag(FlagC))<<7
	case 4: // SLA
		carry = v&0x80 != 0
		result = v << 1
	case 5: // SRA
		carry = v&0x01 != 0
		result = v&0x80 | v>>1
	case 6: // SLL (undocumented), shifts in a 1 at bit 0
		carry = v&0x80 != 0
		result = v<<1 | 1
	case 7: // SRL
		carry = v&0x01 != 0
		result = v >> 1
	}

	z.setFlag(FlagC, carry)
	z.setFlag(FlagH, false)
	z.setFlag(FlagN, false)
	z.szxy(result)
	z.setParity(result)
	return result
}

// cbBit tests bit y of v, setting Z/P (equal for BIT), S, H and N per
// the documented rules. X/Y are normally copied from v itself, except
// for the (HL)/(IX+d)/(IY+d) forms where the caller must instead call
// xyFromWZHigh after, per real hardware behaviour.
func (z *CPU) cbBit(y uint8, v uint8) {
	set := v&(1<<y) != 0
	z.setFlag(FlagZ, !set)
	z.setFlag(FlagP, !set)
	z.setFlag(FlagH, true)
	z.setFlag(FlagN, false)
	z.setFlag(FlagS, y == 7 && set)
	z.setFlag(FlagX, v&0x08 != 0)
	z.setFlag(FlagY, v&0x20 != 0)
}

func cbRes(y uint8, v uint8) uint8 {
	return v &^ (1 << y)
}

func cbSet(y uint8, v uint8) uint8 {
	return v | (1 << y)
}
