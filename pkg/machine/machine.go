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

import (
	"log/slog"

	"github.com/retroshield/z80emu/pkg/acia"
	"github.com/retroshield/z80emu/pkg/bus"
	"github.com/retroshield/z80emu/pkg/cpu"
	"github.com/retroshield/z80emu/pkg/sd"
	"github.com/retroshield/z80emu/pkg/usart"
)

// New assembles a Machine: a CPU wired to a write-protected memory
// bus, an ACIA, a USART and an SD card, all reachable from Z80 IN/OUT.
// logger may be nil.
func New(romCeiling uint16, sdBackend sd.Backend, logger *slog.Logger) *Machine {
	mem := bus.NewMemory(romCeiling)
	b := bus.New(mem)

	a := acia.New()
	u := usart.New()
	s := sd.New(sdBackend)
	s.Logger = logger

	b.Attach(a, acia.PortControl, acia.PortData)
	b.Attach(u, usart.PortData, usart.PortControl)
	b.Attach(s, sd.PortCmd, sd.PortStatus, sd.PortData, sd.PortFilename, sd.PortSeekLo, sd.PortSeekHi)

	m := &Machine{
		CPU:    &cpu.CPU{},
		Bus:    b,
		Mem:    mem,
		ACIA:   a,
		USART:  u,
		SD:     s,
		Logger: logger,
	}
	m.CPU.Bus = m
	m.CPU.Reset()
	return m
}

// LoadROM seeds memory from address 0, bypassing the write-protect
// boundary so boot firmware can always be installed.
func (m *Machine) LoadROM(image []byte) {
	m.Mem.LoadROM(image)
}

func (m *Machine) Reset() {
	m.CPU.Reset()
}

// EnqueueInput feeds a byte to both serial peripherals; whichever one
// the firmware is actually polling is the one that will see it.
func (m *Machine) EnqueueInput(b uint8) {
	m.ACIA.EnqueueInput(b)
	m.USART.EnqueueInput(b)
}

// Step advances the debugger hook, the interrupt scheduler, and then
// the CPU itself by exactly one instruction.
func (m *Machine) Step() {
	if m.Debugger != nil {
		m.Debugger.Step(m)
	}
	m.scheduleInterrupts()
	m.CPU.Step()
}

// scheduleInterrupts is the C7 interrupt scheduler: a byte sitting in
// the USART's receive queue only becomes a maskable interrupt once the
// firmware has proven it is actually using the 8251 by touching one of
// its ports, and only while the CPU is ready to take one.
func (m *Machine) scheduleInterrupts() {
	if m.USART.Used() && m.USART.HasInput() && m.CPU.IFF1 && m.CPU.IFFDelay == 0 {
		m.CPU.RaiseInt(usartInterruptVector)
	}
}

// ReadByte, WriteByte, In and Out let Machine itself serve as the
// cpu.Bus the CPU drives, so memory watchpoints have a single place to
// hook in ahead of the real bus.
func (m *Machine) ReadByte(addr uint16) uint8 {
	if m.Debugger != nil {
		m.Debugger.Read(addr, m)
	}
	return m.Bus.ReadByte(addr)
}

func (m *Machine) WriteByte(addr uint16, v uint8) {
	if m.Debugger != nil {
		m.Debugger.Write(addr, m)
	}
	m.Bus.WriteByte(addr, v)
}

func (m *Machine) In(port uint8) uint8 { return m.Bus.In(port) }

func (m *Machine) Out(port uint8, v uint8) { m.Bus.Out(port, v) }
