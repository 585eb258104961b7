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

package sd

import "testing"

func writeFilename(s *SD, name string) {
	for _, b := range []byte(name) {
		s.Out(PortFilename, b)
	}
	s.Out(PortFilename, 0)
}

func TestCreateWriteReadBack(t *testing.T) {
	s := New(NewMemBackend())

	writeFilename(s, "HELLO.TXT")
	s.Out(PortCmd, CmdCreateTrunc)
	if s.In(PortStatus)&statusError != 0 {
		t.Fatal("create should not fail against a fresh backend")
	}

	s.Out(PortData, 'H')
	s.Out(PortData, 'I')
	s.Out(PortCmd, CmdClose)

	writeFilename(s, "HELLO.TXT")
	s.Out(PortCmd, CmdOpenRead)
	if s.In(PortStatus)&statusError != 0 {
		t.Fatal("re-opening the file for read should succeed")
	}

	if v := s.In(PortData); v != 'H' {
		t.Fatalf("got %q, want %q", v, 'H')
	}
	if v := s.In(PortData); v != 'I' {
		t.Fatalf("got %q, want %q", v, 'I')
	}
}

func TestOpenReadMissingFileSetsError(t *testing.T) {
	s := New(NewMemBackend())
	writeFilename(s, "NOPE.TXT")
	s.Out(PortCmd, CmdOpenRead)

	if s.In(PortStatus)&statusError == 0 {
		t.Fatal("opening a nonexistent file should set the error bit")
	}
}

func TestFilenameLatchTruncatesPastLimit(t *testing.T) {
	s := &SD{Backend: NewMemBackend()}
	for i := 0; i < maxFilenameLen+10; i++ {
		s.Out(PortFilename, 'A')
	}
	if len(s.filename) != maxFilenameLen {
		t.Fatalf("filename length = %d, want %d", len(s.filename), maxFilenameLen)
	}
}

func TestSeekAssemblesLittleEndian(t *testing.T) {
	s := New(NewMemBackend())
	s.Out(PortSeekLo, 0x34)
	s.Out(PortSeekHi, 0x12)

	if got := s.seekPos(); got != 0x1234 {
		t.Fatalf("seekPos() = %#x, want 0x1234", got)
	}
}

func TestSeekToByteFailsWithoutOpenFile(t *testing.T) {
	s := New(NewMemBackend())
	s.Out(PortCmd, CmdSeekToByte)

	if s.In(PortStatus)&statusError == 0 {
		t.Fatal("seeking with nothing open should set the error bit")
	}
}

func TestListDirectoryDrainsCRLFEntries(t *testing.T) {
	backend := NewMemBackend()
	backend.Files["ONE"] = nil

	s := New(backend)
	s.Out(PortCmd, CmdListDirectory)

	var got []byte
	for s.In(PortStatus)&statusHasData != 0 {
		got = append(got, s.In(PortData))
	}

	if string(got) != "ONE\r\n" {
		t.Fatalf("got %q, want %q", got, "ONE\r\n")
	}
}

func TestStatusReportsDataAvailableForOpenFile(t *testing.T) {
	backend := NewMemBackend()
	backend.Files["A.TXT"] = []byte("HI")

	s := New(backend)
	writeFilename(s, "A.TXT")
	s.Out(PortCmd, CmdOpenRead)

	if s.In(PortStatus)&statusHasData == 0 {
		t.Fatal("data-available should be set while the open file can still yield a byte")
	}

	if v := s.In(PortData); v != 'H' {
		t.Fatalf("got %q, want %q", v, 'H')
	}
	if s.In(PortStatus)&statusHasData == 0 {
		t.Fatal("data-available should stay set with one byte left")
	}

	if v := s.In(PortData); v != 'I' {
		t.Fatalf("got %q, want %q", v, 'I')
	}

	if s.In(PortStatus)&statusHasData != 0 {
		t.Fatal("data-available should clear once end-of-file is hit")
	}
	if s.In(PortStatus)&statusError != 0 {
		t.Fatal("end-of-file must not set the error bit")
	}
	if s.fileIsOpen {
		t.Fatal("end-of-file should have closed the file")
	}
}

func TestCreateTruncNeverReportsDataAvailable(t *testing.T) {
	s := New(NewMemBackend())
	writeFilename(s, "NEW.TXT")
	s.Out(PortCmd, CmdCreateTrunc)

	if s.In(PortStatus)&statusHasData != 0 {
		t.Fatal("a freshly created, write-only file has nothing to read back")
	}
	if !s.fileIsOpen {
		t.Fatal("create must not be closed out from under the caller by a speculative read")
	}
}

func TestCloseReleasesHandleAndFilename(t *testing.T) {
	s := New(NewMemBackend())
	writeFilename(s, "A.TXT")
	s.Out(PortCmd, CmdCreateTrunc)
	s.Out(PortCmd, CmdClose)

	if s.fileIsOpen {
		t.Fatal("close should clear fileIsOpen")
	}
	if len(s.filename) != 0 {
		t.Fatal("close should clear the latched filename")
	}
}
