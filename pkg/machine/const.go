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

package machine

// DefaultRomCeiling is the write-protect boundary used when a board
// isn't told otherwise: 8K of EPROM, the common RetroShield size.
const DefaultRomCeiling uint16 = 0x2000

// The maskable interrupt vector the USART's scheduler drives; IM1
// ignores it, but IM0/IM2 boards read it off the data bus.
const usartInterruptVector uint8 = 0xFF
