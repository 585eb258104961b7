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

// Package machine wires a CPU, its memory bus and the RetroShield
// peripherals (ACIA, USART, SD card) together into one steppable
// board, and folds interrupt scheduling into that step loop.
package machine

import (
	"log/slog"

	"github.com/retroshield/z80emu/pkg/acia"
	"github.com/retroshield/z80emu/pkg/bus"
	"github.com/retroshield/z80emu/pkg/cpu"
	"github.com/retroshield/z80emu/pkg/sd"
	"github.com/retroshield/z80emu/pkg/usart"
)

// MachineDebugger hooks into the step loop the same way the CPU's own
// register state does; nil is the zero-cost default.
type MachineDebugger interface {
	Step(mc *Machine)
	Read(addr uint16, mc *Machine)
	Write(addr uint16, mc *Machine)
}

// Machine is the fully assembled board: one Z80, 64K of memory, and
// the three port-mapped peripherals a RetroShield sketch talks to.
type Machine struct {
	CPU   *cpu.CPU
	Bus   *bus.Bus
	Mem   *bus.Memory
	ACIA  *acia.ACIA
	USART *usart.USART
	SD    *sd.SD

	Logger   *slog.Logger
	Debugger MachineDebugger
}
