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

package disasm

import "testing"

type flatMem []uint8

func (m flatMem) ReadByte(addr uint16) uint8 { return m[addr] }

type testCase struct {
	Name   string
	Input  []uint8
	Output string
	Length int
}

func TestDisassembleUnprefixed(t *testing.T) {
	cases := []testCase{
		{"nop", []uint8{0x00}, "NOP", 1},
		{"ld-bc-nn", []uint8{0x01, 0x34, 0x12}, "LD BC,$1234", 3},
		{"inc-b", []uint8{0x04}, "INC B", 1},
		{"halt", []uint8{0x76}, "HALT", 1},
		{"ld-a-b", []uint8{0x78}, "LD A,B", 1},
		{"add-a-hl", []uint8{0x86}, "ADD A,(HL)", 1},
		{"jp-nn", []uint8{0xC3, 0x00, 0x80}, "JP $8000", 3},
		{"call-nz-nn", []uint8{0xC4, 0x00, 0x80}, "CALL NZ,$8000", 3},
	}
	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			text, n := Disassemble(flatMem(c.Input), 0)
			if text != c.Output || n != c.Length {
				t.Fatalf("got (%q, %d), want (%q, %d)", text, n, c.Output, c.Length)
			}
		})
	}
}

func TestDisassembleCB(t *testing.T) {
	text, n := Disassemble(flatMem{0xCB, 0x00}, 0)
	if text != "RLC B" || n != 2 {
		t.Fatalf("got (%q, %d)", text, n)
	}
}

func TestDisassembleED(t *testing.T) {
	text, n := Disassemble(flatMem{0xED, 0xB0}, 0)
	if text != "LDIR" || n != 2 {
		t.Fatalf("got (%q, %d)", text, n)
	}
}

func TestDisassembleIndexed(t *testing.T) {
	text, n := Disassemble(flatMem{0xDD, 0x21, 0x00, 0x90}, 0)
	if text != "LD IX,$9000" || n != 4 {
		t.Fatalf("got (%q, %d)", text, n)
	}
}

func TestDisassembleDDCB(t *testing.T) {
	text, n := Disassemble(flatMem{0xDD, 0xCB, 0x02, 0x46}, 0)
	if text != "BIT 0,(IX+2)" || n != 4 {
		t.Fatalf("got (%q, %d)", text, n)
	}
}
