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

package bus

// Peripheral is anything that answers IN/OUT on one or more fixed
// port numbers. ACIA, USART and the SD card all implement it.
type Peripheral interface {
	In(port uint8) uint8
	Out(port uint8, value uint8)
}

// Bus ties memory and the port-mapped peripherals together into the
// single cpu.Bus the CPU drives. A port with nothing attached reads
// 0xFF and drops writes, matching an open data bus.
type Bus struct {
	Mem   *Memory
	ports [256]Peripheral
}

func New(mem *Memory) *Bus {
	return &Bus{Mem: mem}
}

// Attach registers p to handle every port in ports.
func (b *Bus) Attach(p Peripheral, ports ...uint8) {
	for _, port := range ports {
		b.ports[port] = p
	}
}

func (b *Bus) ReadByte(addr uint16) uint8 { return b.Mem.ReadByte(addr) }

func (b *Bus) WriteByte(addr uint16, v uint8) { b.Mem.WriteByte(addr, v) }

func (b *Bus) In(port uint8) uint8 {
	if p := b.ports[port]; p != nil {
		return p.In(port)
	}
	return 0xFF
}

func (b *Bus) Out(port uint8, v uint8) {
	if p := b.ports[port]; p != nil {
		p.Out(port, v)
	}
}
