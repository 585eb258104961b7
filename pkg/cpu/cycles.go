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

// baseCycles holds the T-state cost of every unprefixed opcode as if
// it never branches and never touches an index register. The CB, DD,
// ED and FD prefix bytes are placeholders (0) since those opcodes are
// costed by execCB/execED/the index path instead.
var baseCycles = [256]uint64{
	// 0x00
	4, 10, 7, 6, 4, 4, 7, 4, 4, 11, 7, 6, 4, 4, 7, 4,
	// 0x10
	8, 10, 7, 6, 4, 4, 7, 4, 12, 11, 7, 6, 4, 4, 7, 4,
	// 0x20
	7, 10, 16, 6, 4, 4, 7, 4, 7, 11, 16, 6, 4, 4, 7, 4,
	// 0x30
	7, 10, 13, 6, 11, 11, 10, 4, 7, 11, 13, 6, 4, 4, 7, 4,
	// 0x40
	4, 4, 4, 4, 4, 4, 7, 4, 4, 4, 4, 4, 4, 4, 7, 4,
	// 0x50
	4, 4, 4, 4, 4, 4, 7, 4, 4, 4, 4, 4, 4, 4, 7, 4,
	// 0x60
	4, 4, 4, 4, 4, 4, 7, 4, 4, 4, 4, 4, 4, 4, 7, 4,
	// 0x70
	7, 7, 7, 7, 7, 7, 4, 7, 4, 4, 4, 4, 4, 4, 7, 4,
	// 0x80
	4, 4, 4, 4, 4, 4, 7, 4, 4, 4, 4, 4, 4, 4, 7, 4,
	// 0x90
	4, 4, 4, 4, 4, 4, 7, 4, 4, 4, 4, 4, 4, 4, 7, 4,
	// 0xA0
	4, 4, 4, 4, 4, 4, 7, 4, 4, 4, 4, 4, 4, 4, 7, 4,
	// 0xB0
	4, 4, 4, 4, 4, 4, 7, 4, 4, 4, 4, 4, 4, 4, 7, 4,
	// 0xC0
	5, 10, 10, 10, 10, 11, 7, 11, 5, 10, 10, 0, 10, 17, 7, 11,
	// 0xD0
	5, 10, 10, 11, 10, 11, 7, 11, 5, 4, 10, 11, 10, 0, 7, 11,
	// 0xE0
	5, 10, 10, 19, 10, 11, 7, 11, 5, 4, 10, 4, 10, 0, 7, 11,
	// 0xF0
	5, 10, 10, 4, 10, 11, 7, 11, 5, 6, 10, 4, 10, 0, 7, 11,
}

const (
	branchBonusJR      = 5 // JR cc,d: 7 -> 12 when taken
	branchBonusDJNZ    = 5 // DJNZ d: 8 -> 13 when taken
	branchBonusRETcc   = 6 // RET cc: 5 -> 11 when taken
	branchBonusCALLcc  = 7 // CALL cc,nn: 10 -> 17 when taken
	indexPrefixCost    = 4 // DD/FD prefix byte itself
	indexDispCost      = 8 // extra for fetching/using (IX+d)/(IY+d)
	indexDispImmedCost = 9 // LD (IX+d),n needs one fewer wait cycle
)

// edCycles reports the T-state cost of an already-decoded ED opcode.
func edCycles(opcode uint8, repeated bool) uint64 {
	x := opcode >> 6
	y := (opcode >> 3) & 7
	zf := opcode & 7

	if x == 2 && y >= 4 && zf < 4 {
		if y >= 6 {
			if repeated {
				return 21
			}
			return 16
		}
		return 16
	}
	if x != 1 {
		return 8 // undocumented ED NOP
	}
	switch zf {
	case 0, 1:
		return 12
	case 2:
		return 15
	case 3:
		return 20
	case 4:
		return 8
	case 5:
		return 14
	case 6:
		return 8
	case 7:
		switch y {
		case 0, 1:
			return 9
		case 2, 3:
			return 9
		case 4, 5:
			return 18
		default:
			return 8
		}
	}
	return 8
}
