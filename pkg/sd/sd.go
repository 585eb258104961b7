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

// Package sd emulates the RetroShield SD card slot: a command port, a
// status port, a data port for streaming file contents, a filename
// latch, and a two-byte seek position, all backed by a pluggable
// Backend so tests never have to touch the real filesystem.
package sd

import (
	"io"
	"log/slog"
)

const (
	PortCmd      = 0x10
	PortStatus   = 0x11
	PortData     = 0x12
	PortFilename = 0x13
	PortSeekLo   = 0x14
	PortSeekHi   = 0x15

	maxFilenameLen = 64
)

// Commands written to PortCmd.
const (
	CmdOpenRead      = 0x01
	CmdCreateTrunc   = 0x02
	CmdOpenAppend    = 0x03
	CmdSeekToStart   = 0x04
	CmdClose         = 0x05
	CmdListDirectory = 0x06
	CmdOpenReadWrite = 0x07
	CmdSeekToByte    = 0x08
)

const (
	statusReady   = 1 << 0
	statusError   = 1 << 1
	statusHasData = 1 << 2
)

// fileMode tracks whether the currently open file handle was opened
// for reading (so the data port may stream bytes out of it) or for
// writing (so the data port never speculatively reads ahead).
type fileMode int

const (
	fileModeNone fileMode = iota
	fileModeRead
	fileModeWrite
)

// SD is the port-mapped peripheral. Logger is nil-able; when set it
// receives a line for every backend error, mirroring how the rest of
// the machine surfaces faults without ever failing a Step.
type SD struct {
	Backend Backend
	Logger  *slog.Logger

	filename   []byte
	nameDone   bool
	seekLo     uint8
	seekHi     uint8
	lastErr    bool
	dirQueue   []byte
	fileIsOpen bool
	mode       fileMode

	// filePeek holds the next unread byte of an open readable file,
	// fetched ahead of time so the status port can answer "data
	// available" without consuming the byte itself.
	filePeek   uint8
	filePeekOK bool
}

func New(backend Backend) *SD {
	return &SD{Backend: backend}
}

func (s *SD) log(msg string, args ...any) {
	if s.Logger != nil {
		s.Logger.Warn(msg, args...)
	}
}

func (s *SD) In(port uint8) uint8 {
	switch port {
	case PortStatus:
		status := uint8(statusReady)
		if s.lastErr {
			status |= statusError
		}
		if len(s.dirQueue) > 0 || s.filePeekOK {
			status |= statusHasData
		}
		return status
	case PortData:
		if len(s.dirQueue) > 0 {
			b := s.dirQueue[0]
			s.dirQueue = s.dirQueue[1:]
			return b
		}
		if !s.filePeekOK {
			return 0
		}
		v := s.filePeek
		s.filePeekOK = false
		s.refillFilePeek()
		return v
	}
	return 0xFF
}

func (s *SD) Out(port uint8, v uint8) {
	switch port {
	case PortCmd:
		s.runCommand(v)
	case PortFilename:
		s.latchFilename(v)
	case PortSeekLo:
		s.seekLo = v
	case PortSeekHi:
		s.seekHi = v
	case PortData:
		s.writeData(v)
	}
}

// writeData appends a byte to the file currently open for writing, at
// its current position. A readable file's peek is kept in sync so a
// write through a read-write handle doesn't leave a stale lookahead
// byte behind.
func (s *SD) writeData(v uint8) {
	if !s.fileIsOpen {
		return
	}
	if err := s.Backend.WriteByte(v); err != nil {
		s.lastErr = true
		s.log("sd write failed", "error", err)
		return
	}
	s.filePeekOK = false
	if s.mode == fileModeRead {
		s.refillFilePeek()
	}
}

// refillFilePeek fetches the next byte of an open readable file into
// filePeek so the status port can report "data available" without
// consuming it. Hitting end-of-file closes the handle and leaves
// "data available" clear, per the data-port-read end-of-file rule —
// this is not an error, so it never sets the error bit.
func (s *SD) refillFilePeek() {
	if !s.fileIsOpen || s.mode != fileModeRead || s.filePeekOK {
		return
	}
	v, err := s.Backend.ReadByte()
	if err == io.EOF {
		s.closeFile()
		return
	}
	if err != nil {
		s.lastErr = true
		s.log("sd read failed", "error", err)
		return
	}
	s.filePeek = v
	s.filePeekOK = true
}

// latchFilename accumulates bytes into the pending filename, silently
// truncating past maxFilenameLen. A zero terminator ends the name; the
// next non-zero byte after it starts a new one.
func (s *SD) latchFilename(v uint8) {
	if v == 0 {
		s.nameDone = true
		return
	}
	if s.nameDone {
		s.filename = s.filename[:0]
		s.nameDone = false
	}
	if len(s.filename) >= maxFilenameLen {
		return
	}
	s.filename = append(s.filename, v)
}

func (s *SD) seekPos() int64 {
	return int64(s.seekHi)<<8 | int64(s.seekLo)
}

func (s *SD) runCommand(cmd uint8) {
	s.lastErr = false
	name := string(s.filename)

	switch cmd {
	case CmdOpenRead:
		s.openOrFail(s.Backend.OpenRead(name), fileModeRead)
	case CmdCreateTrunc:
		s.openOrFail(s.Backend.OpenWriteTrunc(name), fileModeWrite)
	case CmdOpenReadWrite:
		s.openOrFail(s.Backend.OpenReadWrite(name), fileModeRead)
	case CmdOpenAppend:
		s.openOrFail(s.Backend.OpenAppend(name), fileModeWrite)
	case CmdSeekToStart:
		s.seekOrFail(0)
	case CmdSeekToByte:
		s.seekOrFail(s.seekPos())
	case CmdClose:
		s.closeCommand()
	case CmdListDirectory:
		s.startListing()
	}
}

func (s *SD) openOrFail(err error, mode fileMode) {
	s.filePeekOK = false
	if err != nil {
		s.lastErr = true
		s.log("sd open failed", "error", err)
		s.fileIsOpen = false
		s.mode = fileModeNone
		return
	}
	s.fileIsOpen = true
	s.mode = mode
	s.refillFilePeek()
}

func (s *SD) seekOrFail(pos int64) {
	if err := s.Backend.Seek(pos); err != nil {
		s.lastErr = true
		s.log("sd seek failed", "error", err)
		return
	}
	s.filePeekOK = false
	s.refillFilePeek()
}

// closeCommand handles an explicit close command: a failure to close
// the backend sets the error bit, same as every other command.
func (s *SD) closeCommand() {
	if s.fileIsOpen {
		if err := s.Backend.Close(); err != nil {
			s.lastErr = true
			s.log("sd close failed", "error", err)
		}
	}
	s.resetFileState()
}

// closeFile is the implicit close end-of-file triggers while refilling
// the read-ahead peek. End-of-file is not an error, so it never sets
// the error bit; a genuine failure to close the backend is still
// logged.
func (s *SD) closeFile() {
	if err := s.Backend.Close(); err != nil {
		s.log("sd close failed", "error", err)
	}
	s.resetFileState()
}

func (s *SD) resetFileState() {
	s.fileIsOpen = false
	s.mode = fileModeNone
	s.filePeekOK = false
	s.filename = s.filename[:0]
}

// startListing queues every non-"." / ".." directory entry, each
// terminated by CR LF the way the firmware's line-oriented directory
// listing expects, ready to be drained one byte at a time from PortData.
func (s *SD) startListing() {
	names, err := s.Backend.List()
	if err != nil {
		s.lastErr = true
		s.log("sd list failed", "error", err)
		return
	}
	s.dirQueue = s.dirQueue[:0]
	for _, name := range names {
		if name == "." || name == ".." {
			continue
		}
		s.dirQueue = append(s.dirQueue, []byte(name)...)
		s.dirQueue = append(s.dirQueue, '\r', '\n')
	}
}
