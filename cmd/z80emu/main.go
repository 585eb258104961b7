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

package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/retroshield/z80emu/pkg/debugger"
	"github.com/retroshield/z80emu/pkg/encoding"
	"github.com/retroshield/z80emu/pkg/machine"
	"github.com/retroshield/z80emu/pkg/sd"
)

var helpvar bool
var debugvar bool
var romCeilingVar string
var sdDirVar string
var shouldexit bool

const usage = "z80emu [-debug] [-rom-ceiling 0x2000] [-sd-dir path] rom.bin"

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(fmt.Sprintf("%s: ", filepath.Base(exe)))
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(&debugvar, "debug", false, "Runs the machine in a debug CLI")
	flag.StringVar(&romCeilingVar, "rom-ceiling", "0x2000", "Write-protect boundary, e.g. 0x2000")
	flag.StringVar(&sdDirVar, "sd-dir", ".", "Directory served by the SD card slot")
	flag.Parse()
}

func z80emu() int {
	if helpvar {
		fmt.Println(usage)
		return 0
	}

	args := flag.Args()

	if len(args) != 1 {
		log.Println(usage)
		return 1
	}

	romCeiling, err := encoding.DecodeHex(romCeilingVar)
	if err != nil {
		log.Println(err)
		return 1
	}

	image, err := os.ReadFile(args[0])
	if err != nil {
		log.Println(err)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	mc := machine.New(romCeiling, sd.NewOSBackend(sdDirVar), logger)
	mc.LoadROM(image)

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	mc.ACIA.OnTransmit = func(b uint8) { out.WriteByte(b); out.Flush() }
	mc.USART.OnTransmit = func(b uint8) { out.WriteByte(b); out.Flush() }

	if debugvar {
		var dbg debugger.Debugger
		dbg.HandleBreak = handleBreak
		dbg.HandleRead = handleRead
		dbg.HandleWrite = handleWrite
		mc.Debugger = &dbg

		c := make(chan os.Signal, 1)
		defer close(c)

		signal.Notify(c, os.Interrupt)
		go func() {
			for range c {
				fmt.Println()
				dbg.Break = true
			}
		}()
	}

	enterRawTerm()
	defer exitRawTerm()

	go feedInput(mc)

	if debugvar {
		debugREPL(mc.Debugger.(*debugger.Debugger), mc)
	}

	for !shouldexit {
		mc.Step()
	}

	return 0
}

// feedInput reads stdin one byte at a time and hands each byte to the
// machine's serial peripherals, decoupled from the step loop the way
// the concurrency model requires: the only shared state between this
// goroutine and Step is the peripherals' own mutex-guarded queues.
//
// The raw terminal sets VMIN=0/VTIME=0, so a read with nothing waiting
// returns immediately with zero bytes rather than blocking; bufio's
// reader gives up after enough consecutive empty reads, so this polls
// the file descriptor directly instead.
func feedInput(mc *machine.Machine) {
	var buf [1]byte
	for {
		n, err := os.Stdin.Read(buf[:])
		if err != nil {
			return
		}
		if n == 0 {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		mc.EnqueueInput(buf[0])
	}
}

func main() {
	os.Exit(z80emu())
}
