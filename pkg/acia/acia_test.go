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

package acia

import "testing"

func TestStatusReflectsQueue(t *testing.T) {
	a := New()

	if a.In(PortStatus)&statusTDRE == 0 {
		t.Fatal("transmitter must always report ready")
	}
	if a.In(PortStatus)&statusRDRF != 0 {
		t.Fatal("receiver should not report full with an empty queue")
	}

	a.EnqueueInput('X')

	if a.In(PortStatus)&statusRDRF == 0 {
		t.Fatal("receiver should report full once a byte is queued")
	}
}

func TestDataReadDrainsOneByte(t *testing.T) {
	a := New()
	a.EnqueueInput('X')
	a.EnqueueInput('Y')

	if v := a.In(PortData); v != 'X' {
		t.Fatalf("got %q, want %q", v, 'X')
	}
	if v := a.In(PortData); v != 'Y' {
		t.Fatalf("got %q, want %q", v, 'Y')
	}
	if v := a.In(PortData); v != 0 {
		t.Fatalf("got %q, want 0 once the queue is empty", v)
	}
}

func TestDataWriteReachesSink(t *testing.T) {
	a := New()
	var got []byte
	a.OnTransmit = func(b uint8) { got = append(got, b) }

	a.Out(PortData, 'Z')

	if string(got) != "Z" {
		t.Fatalf("sink received %q, want %q", got, "Z")
	}
}

func TestControlWriteIgnoresOnTransmit(t *testing.T) {
	a := New()
	called := false
	a.OnTransmit = func(b uint8) { called = true }

	a.Out(PortControl, 0x03)

	if called {
		t.Fatal("a control write must never reach the transmit sink")
	}
}
