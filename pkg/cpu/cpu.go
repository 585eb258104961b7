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

// Step runs exactly one instruction (or one HALT-state no-op, or one
// interrupt acknowledge) and advances Cyc by the T-states it consumed.
func (z *CPU) Step() {
	if z.serviceInterrupts() {
		return
	}
	if z.Halted {
		z.bumpR()
		z.Cyc += 4
		return
	}
	if z.IFFDelay > 0 {
		z.IFFDelay--
	}
	opcode := z.fetchOpcode()
	z.dispatch(opcode, idxNone)
}

func (z *CPU) fetchOpcode() uint8 {
	z.bumpR()
	return z.fetch8()
}

// serviceInterrupts checks NMI first, then a pending maskable request,
// pushing PC and vectoring per the current interrupt mode. It reports
// whether it consumed the cycle so Step knows not to also fetch an
// opcode.
func (z *CPU) serviceInterrupts() bool {
	if z.nmiPending {
		z.nmiPending = false
		z.Halted = false
		z.IFF1 = false
		z.bumpR()
		z.push(z.PC)
		z.PC = 0x0066
		z.Cyc += 11
		return true
	}
	if z.intPending && z.IFF1 && z.IFFDelay == 0 {
		z.intPending = false
		z.Halted = false
		z.IFF1 = false
		z.IFF2 = false
		z.bumpR()
		switch z.InterruptMode {
		case IM0:
			// Only RST-shaped vectors are supported, which covers every
			// peripheral this machine wires up.
			z.dispatch(z.intVector, idxNone)
			z.Cyc += 2
		case IM1:
			z.push(z.PC)
			z.PC = 0x0038
			z.Cyc += 13
		case IM2:
			z.push(z.PC)
			vectorAddr := uint16(z.I)<<8 | uint16(z.intVector)
			lo := z.Bus.ReadByte(vectorAddr)
			hi := z.Bus.ReadByte(vectorAddr + 1)
			z.PC = uint16(hi)<<8 | uint16(lo)
			z.Cyc += 19
		}
		return true
	}
	return false
}

// dispatch decodes opcode under the given index mode, chasing DD/FD
// prefix chains (each costing 4T, last one winning) and diverting into
// the DDCB/FDCB path when a CB byte follows a live index prefix.
func (z *CPU) dispatch(opcode uint8, mode indexMode) {
	switch opcode {
	case 0xCB:
		z.execCB()
		return
	case 0xED:
		next := z.fetchOpcode()
		repeated := z.execED(next)
		z.Cyc += edCycles(next, repeated)
		return
	case 0xDD, 0xFD:
		next := idxIX
		if opcode == 0xFD {
			next = idxIY
		}
		z.Cyc += indexPrefixCost
		follow := z.fetchOpcode()
		if follow == 0xCB {
			addr := z.indexedAddr(next)
			op2 := z.fetch8()
			z.execDDCB(addr, op2)
			return
		}
		z.dispatch(follow, next)
		return
	}
	z.execMain(opcode, mode)
}

func (z *CPU) execCB() {
	op := z.fetchOpcode()
	x := op >> 6
	y := (op >> 3) & 7
	zf := op & 7

	if zf == 6 {
		addr := z.hl()
		v := z.Bus.ReadByte(addr)
		switch x {
		case 0:
			z.Bus.WriteByte(addr, z.cbShift(y, v))
			z.Cyc += 15
		case 1:
			z.cbBit(y, v)
			z.xyFromWZHigh()
			z.Cyc += 12
		case 2:
			z.Bus.WriteByte(addr, cbRes(y, v))
			z.Cyc += 15
		case 3:
			z.Bus.WriteByte(addr, cbSet(y, v))
			z.Cyc += 15
		}
		return
	}

	v := z.readReg8(zf, idxNone, 0, false)
	switch x {
	case 0:
		z.writeReg8(zf, idxNone, 0, z.cbShift(y, v), false)
	case 1:
		z.cbBit(y, v)
	case 2:
		z.writeReg8(zf, idxNone, 0, cbRes(y, v), false)
	case 3:
		z.writeReg8(zf, idxNone, 0, cbSet(y, v), false)
	}
	z.Cyc += 8
}

// execDDCB runs the undocumented DDCB/FDCB form: the operand is always
// (addr), and for the rotate/RES/SET groups the result is also written
// back to the register named by the z field.
func (z *CPU) execDDCB(addr uint16, op2 uint8) {
	x := op2 >> 6
	y := (op2 >> 3) & 7
	zf := op2 & 7
	v := z.Bus.ReadByte(addr)

	switch x {
	case 0:
		result := z.cbShift(y, v)
		z.Bus.WriteByte(addr, result)
		if zf != 6 {
			z.writeReg8(zf, idxNone, 0, result, false)
		}
	case 1:
		z.cbBit(y, v)
		z.xyFromWZHigh()
	case 2:
		result := cbRes(y, v)
		z.Bus.WriteByte(addr, result)
		if zf != 6 {
			z.writeReg8(zf, idxNone, 0, result, false)
		}
	case 3:
		result := cbSet(y, v)
		z.Bus.WriteByte(addr, result)
		if zf != 6 {
			z.writeReg8(zf, idxNone, 0, result, false)
		}
	}

	if x == 1 {
		z.Cyc += 20
	} else {
		z.Cyc += 23
	}
}

func (z *CPU) execMain(opcode uint8, mode indexMode) {
	x := opcode >> 6
	y := (opcode >> 3) & 7
	zf := opcode & 7
	p := y >> 1
	q := y & 1

	switch x {
	case 0:
		z.execX0(opcode, y, zf, p, q, mode)
	case 1:
		z.execX1(y, zf, mode)
	case 2:
		z.execX2(y, zf, mode)
	case 3:
		z.execX3(opcode, y, zf, p, q, mode)
	}
}

// modeReg16/setModeReg16 resolve register-pair field p the way the
// main opcode table does it, except pair 2 (HL) is redirected to
// IX/IY under a live index prefix.
func (z *CPU) modeReg16(p uint8, mode indexMode) uint16 {
	if p == 2 {
		switch mode {
		case idxIX:
			return z.IX
		case idxIY:
			return z.IY
		}
	}
	return z.reg16(p)
}

func (z *CPU) setModeReg16(p uint8, mode indexMode, v uint16) {
	if p == 2 {
		switch mode {
		case idxIX:
			z.IX = v
			return
		case idxIY:
			z.IY = v
			return
		}
	}
	z.setReg16(p, v)
}

func (z *CPU) execX0(opcode uint8, y, zf, p, q uint8, mode indexMode) {
	switch zf {
	case 0:
		switch y {
		case 0: // NOP
			z.Cyc += baseCycles[opcode]
		case 1: // EX AF,AF'
			z.A, z.A_ = z.A_, z.A
			z.F, z.F_ = z.F_, z.F
			z.Cyc += baseCycles[opcode]
		case 2: // DJNZ d
			d := z.fetchDisp()
			z.B--
			if z.B != 0 {
				z.PC = uint16(int32(z.PC) + int32(d))
				z.WZ = z.PC
				z.Cyc += baseCycles[opcode] + branchBonusDJNZ
			} else {
				z.Cyc += baseCycles[opcode]
			}
		case 3: // JR d
			d := z.fetchDisp()
			z.PC = uint16(int32(z.PC) + int32(d))
			z.WZ = z.PC
			z.Cyc += baseCycles[opcode]
		default: // JR cc[y-4],d
			d := z.fetchDisp()
			if z.condition(y - 4) {
				z.PC = uint16(int32(z.PC) + int32(d))
				z.WZ = z.PC
				z.Cyc += baseCycles[opcode] + branchBonusJR
			} else {
				z.Cyc += baseCycles[opcode]
			}
		}
	case 1:
		if q == 0 {
			v := z.fetch16()
			z.setModeReg16(p, mode, v)
		} else {
			rr := z.modeReg16(p, mode)
			hl := z.modeReg16(2, mode)
			z.setModeReg16(2, mode, z.add16(hl, rr))
		}
		z.Cyc += modeCycles(opcode, mode, false)
	case 2:
		z.execIndirectLoad(p, q, mode)
		z.Cyc += modeCycles(opcode, mode, false)
	case 3:
		v := z.modeReg16(p, mode)
		if q == 0 {
			z.setModeReg16(p, mode, v+1)
		} else {
			z.setModeReg16(p, mode, v-1)
		}
		z.Cyc += modeCycles(opcode, mode, false)
	case 4:
		z.incDecReg(y, mode, true)
		z.Cyc += modeCycles(opcode, mode, y == 6)
	case 5:
		z.incDecReg(y, mode, false)
		z.Cyc += modeCycles(opcode, mode, y == 6)
	case 6:
		z.loadImm8(y, mode)
		if opcode == 0x36 && mode != idxNone {
			z.Cyc += baseCycles[opcode] + indexDispImmedCost
		} else {
			z.Cyc += modeCycles(opcode, mode, y == 6)
		}
	case 7:
		z.execAccumOp(y)
		z.Cyc += baseCycles[opcode]
	}
}

func (z *CPU) execIndirectLoad(p, q uint8, mode indexMode) {
	switch {
	case q == 0 && p == 0: // LD (BC),A
		z.Bus.WriteByte(z.bc(), z.A)
		z.WZ = uint16(z.A)<<8 | (z.bc()+1)&0xFF
	case q == 0 && p == 1: // LD (DE),A
		z.Bus.WriteByte(z.de(), z.A)
		z.WZ = uint16(z.A)<<8 | (z.de()+1)&0xFF
	case q == 0 && p == 2: // LD (nn),HL/IX/IY
		addr := z.fetch16()
		v := z.modeReg16(2, mode)
		z.Bus.WriteByte(addr, uint8(v))
		z.Bus.WriteByte(addr+1, uint8(v>>8))
		z.WZ = addr + 1
	case q == 0 && p == 3: // LD (nn),A
		addr := z.fetch16()
		z.Bus.WriteByte(addr, z.A)
		z.WZ = uint16(z.A)<<8 | (addr+1)&0xFF
	case q == 1 && p == 0: // LD A,(BC)
		z.A = z.Bus.ReadByte(z.bc())
		z.WZ = z.bc() + 1
	case q == 1 && p == 1: // LD A,(DE)
		z.A = z.Bus.ReadByte(z.de())
		z.WZ = z.de() + 1
	case q == 1 && p == 2: // LD HL/IX/IY,(nn)
		addr := z.fetch16()
		lo := z.Bus.ReadByte(addr)
		hi := z.Bus.ReadByte(addr + 1)
		z.setModeReg16(2, mode, uint16(hi)<<8|uint16(lo))
		z.WZ = addr + 1
	case q == 1 && p == 3: // LD A,(nn)
		addr := z.fetch16()
		z.A = z.Bus.ReadByte(addr)
		z.WZ = addr + 1
	}
}

func (z *CPU) incDecReg(y uint8, mode indexMode, isInc bool) {
	if y == 6 {
		addr := z.hlOperandAddr(mode)
		if mode != idxNone {
			addr = z.indexedAddr(mode)
		}
		v := z.Bus.ReadByte(addr)
		if isInc {
			v = z.inc8(v)
		} else {
			v = z.dec8(v)
		}
		z.Bus.WriteByte(addr, v)
		return
	}
	v := z.readReg8(y, mode, 0, false)
	if isInc {
		v = z.inc8(v)
	} else {
		v = z.dec8(v)
	}
	z.writeReg8(y, mode, 0, v, false)
}

func (z *CPU) loadImm8(y uint8, mode indexMode) {
	if y == 6 {
		addr := z.hlOperandAddr(mode)
		if mode != idxNone {
			addr = z.indexedAddr(mode)
		}
		v := z.fetch8()
		z.Bus.WriteByte(addr, v)
		return
	}
	v := z.fetch8()
	z.writeReg8(y, mode, 0, v, false)
}

func (z *CPU) execAccumOp(y uint8) {
	switch y {
	case 0:
		z.rlca()
	case 1:
		z.rrca()
	case 2:
		z.rla()
	case 3:
		z.rra()
	case 4:
		z.daa()
	case 5:
		z.A = ^z.A
		z.setFlag(FlagH, true)
		z.setFlag(FlagN, true)
		z.setFlag(FlagX, z.A&0x08 != 0)
		z.setFlag(FlagY, z.A&0x20 != 0)
	case 6:
		z.setFlag(FlagC, true)
		z.setFlag(FlagH, false)
		z.setFlag(FlagN, false)
		z.setFlag(FlagX, z.A&0x08 != 0)
		z.setFlag(FlagY, z.A&0x20 != 0)
	case 7:
		old := z.getFlag(FlagC)
		z.setFlag(FlagH, old)
		z.setFlag(FlagC, !old)
		z.setFlag(FlagN, false)
		z.setFlag(FlagX, z.A&0x08 != 0)
		z.setFlag(FlagY, z.A&0x20 != 0)
	}
}

func (z *CPU) daa() {
	a := z.A
	var corr uint8
	carry := z.getFlag(FlagC)
	halfBefore := z.getFlag(FlagH)

	if halfBefore || a&0x0F > 9 {
		corr |= 0x06
	}
	if carry || a > 0x99 {
		corr |= 0x60
		carry = true
	}

	var result uint8
	var halfAfter bool
	if z.getFlag(FlagN) {
		result = a - corr
		halfAfter = halfBefore && a&0x0F < 6
	} else {
		result = a + corr
		halfAfter = a&0x0F > 9
	}

	z.A = result
	z.setFlag(FlagC, carry)
	z.setFlag(FlagH, halfAfter)
	z.szxy(result)
	z.setParity(result)
}

func (z *CPU) execX1(y, zf uint8, mode indexMode) {
	if zf == 6 && y == 6 {
		z.Halted = true
		z.PC--
		z.Cyc += 4
		return
	}
	hasMem := zf == 6 || y == 6
	addr := uint16(0)
	if hasMem {
		addr = z.hlOperandAddr(mode)
		if mode != idxNone {
			addr = z.indexedAddr(mode)
		}
	}
	v := z.readReg8(zf, mode, addr, hasMem)
	z.writeReg8(y, mode, addr, v, hasMem)

	if hasMem {
		if mode != idxNone {
			z.Cyc += indexPrefixCost + indexDispCost + 7
		} else {
			z.Cyc += 7
		}
	} else {
		if mode != idxNone && (y == 4 || y == 5 || zf == 4 || zf == 5) {
			z.Cyc += indexPrefixCost + 4
		} else {
			z.Cyc += 4
		}
	}
}

func (z *CPU) execX2(y, zf uint8, mode indexMode) {
	addr := uint16(0)
	needsAddr := zf == 6
	if needsAddr {
		addr = z.hlOperandAddr(mode)
		if mode != idxNone {
			addr = z.indexedAddr(mode)
		}
	}
	v := z.readReg8(zf, mode, addr, false)
	z.applyAlu(y, v)

	if needsAddr {
		if mode != idxNone {
			z.Cyc += indexPrefixCost + indexDispCost + 7
		} else {
			z.Cyc += 7
		}
	} else {
		if mode != idxNone && (zf == 4 || zf == 5) {
			z.Cyc += indexPrefixCost + 4
		} else {
			z.Cyc += 4
		}
	}
}

func (z *CPU) applyAlu(y uint8, v uint8) {
	switch y {
	case 0:
		z.A = z.add8(z.A, v, false)
	case 1:
		z.A = z.add8(z.A, v, z.getFlag(FlagC))
	case 2:
		z.A = z.sub8(z.A, v, false)
	case 3:
		z.A = z.sub8(z.A, v, z.getFlag(FlagC))
	case 4:
		z.A = z.and8(z.A, v)
	case 5:
		z.A = z.xor8(z.A, v)
	case 6:
		z.A = z.or8(z.A, v)
	case 7:
		z.cp8(z.A, v)
	}
}

var conditionOffsets = [8]uint8{FlagZ, FlagZ, FlagC, FlagC, FlagP, FlagP, FlagS, FlagS}

// condition evaluates cc[y] (NZ,Z,NC,C,PO,PE,P,M).
func (z *CPU) condition(y uint8) bool {
	want := y&1 == 1
	return z.getFlag(conditionOffsets[y]) == want
}

func (z *CPU) execX3(opcode uint8, y, zf, p, q uint8, mode indexMode) {
	switch zf {
	case 0: // RET cc[y]
		if z.condition(y) {
			z.PC = z.pop()
			z.WZ = z.PC
			z.Cyc += baseCycles[opcode] + branchBonusRETcc
		} else {
			z.Cyc += baseCycles[opcode]
		}
	case 1:
		if q == 0 { // POP rp2[p]
			v := z.pop()
			if p == 3 {
				z.setAF(v)
			} else {
				z.setModeReg16(p, mode, v)
			}
			z.Cyc += modeCycles(opcode, mode, false)
			return
		}
		switch p {
		case 0: // RET
			z.PC = z.pop()
			z.WZ = z.PC
		case 1: // EXX
			z.B, z.B_ = z.B_, z.B
			z.C, z.C_ = z.C_, z.C
			z.D, z.D_ = z.D_, z.D
			z.E, z.E_ = z.E_, z.E
			z.H, z.H_ = z.H_, z.H
			z.L, z.L_ = z.L_, z.L
		case 2: // JP HL/IX/IY
			z.PC = z.modeReg16(2, mode)
		case 3: // LD SP,HL/IX/IY
			z.SP = z.modeReg16(2, mode)
		}
		z.Cyc += modeCycles(opcode, mode, false)
	case 2: // JP cc[y],nn
		addr := z.fetch16()
		z.WZ = addr
		if z.condition(y) {
			z.PC = addr
		}
		z.Cyc += baseCycles[opcode]
	case 3:
		switch y {
		case 0: // JP nn
			addr := z.fetch16()
			z.WZ = addr
			z.PC = addr
			z.Cyc += baseCycles[opcode]
		case 2: // OUT (n),A
			n := z.fetch8()
			z.Bus.Out(n, z.A)
			z.WZ = uint16(z.A)<<8 | (uint16(n)+1)&0xFF
			z.Cyc += baseCycles[opcode]
		case 3: // IN A,(n)
			n := z.fetch8()
			z.WZ = uint16(z.A)<<8 | (uint16(n)+1)&0xFF
			z.A = z.Bus.In(n)
			z.Cyc += baseCycles[opcode]
		case 4: // EX (SP),HL/IX/IY
			addr := z.SP
			lo := z.Bus.ReadByte(addr)
			hi := z.Bus.ReadByte(addr + 1)
			v := z.modeReg16(2, mode)
			z.Bus.WriteByte(addr, uint8(v))
			z.Bus.WriteByte(addr+1, uint8(v>>8))
			z.setModeReg16(2, mode, uint16(hi)<<8|uint16(lo))
			z.WZ = z.modeReg16(2, mode)
			z.Cyc += modeCycles(opcode, mode, false)
		case 5: // EX DE,HL
			z.D, z.H = z.H, z.D
			z.E, z.L = z.L, z.E
			z.Cyc += baseCycles[opcode]
		case 6: // DI
			z.IFF1, z.IFF2 = false, false
			z.Cyc += baseCycles[opcode]
		case 7: // EI
			z.IFF1, z.IFF2 = true, true
			z.IFFDelay = 1
			z.Cyc += baseCycles[opcode]
		}
	case 4: // CALL cc[y],nn
		addr := z.fetch16()
		z.WZ = addr
		if z.condition(y) {
			z.push(z.PC)
			z.PC = addr
			z.Cyc += baseCycles[opcode] + branchBonusCALLcc
		} else {
			z.Cyc += baseCycles[opcode]
		}
	case 5:
		if q == 0 { // PUSH rp2[p]
			v := z.af()
			if p != 3 {
				v = z.modeReg16(p, mode)
			}
			z.push(v)
			z.Cyc += modeCycles(opcode, mode, false)
			return
		}
		switch p {
		case 0: // CALL nn
			addr := z.fetch16()
			z.WZ = addr
			z.push(z.PC)
			z.PC = addr
			z.Cyc += baseCycles[opcode]
		}
	case 6: // ALU[y] A,n
		n := z.fetch8()
		z.applyAlu(y, n)
		z.Cyc += baseCycles[opcode]
	case 7: // RST y*8
		z.push(z.PC)
		z.PC = uint16(y) * 8
		z.WZ = z.PC
		z.Cyc += baseCycles[opcode]
	}
}

// modeCycles derives the total T-state cost of an opcode that may be
// running under a live DD/FD prefix: the unprefixed base plus the
// prefix byte, plus a further displacement cost when the opcode's
// register field 2 (HL) is what actually got redirected to IX/IY and
// forced a memory access.
func modeCycles(opcode uint8, mode indexMode, touchesIndexedMemory bool) uint64 {
	base := baseCycles[opcode]
	if mode == idxNone {
		return base
	}
	var extra uint64 = indexPrefixCost
	if touchesIndexedMemory {
		extra += indexDispCost
	}
	return base + extra
}
