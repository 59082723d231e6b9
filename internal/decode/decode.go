// Package decode turns a raw Thumb-1 halfword into an Instruction value.
// Decoding is side-effect-free: it touches neither registers nor memory,
// so the same opcode always decodes to the same Instruction. This mirrors
// the bit-pattern dispatch chain in the teacher's thumb.go, but returns
// data instead of a closure — the executor, not the decoder, carries out
// the operation (spec §4.3).
package decode

import "fmt"

// Op identifies the operation an Instruction carries out. Values group
// loosely by the Thumb-1 format table; several formats share one Op when
// the only difference is an operand (e.g. the four ALU-immediate ops of
// format 3 are distinguished by SubOp, not by Op).
type Op uint8

const (
	Undefined Op = iota
	ShiftImm       // LSL/LSR/ASR Rd, Rs, #imm5
	AddSubReg      // ADD/SUB Rd, Rs, Rn|#imm3
	MovCmpAddSubImm8
	ALU            // format 4: two-register ALU/shift ops, incl. MUL
	HiRegOp        // ADD/CMP/MOV on registers r8-r15
	BranchExchange // BX/BLX Rm
	PCRelativeLoad
	LoadStoreReg     // format 7: STR/LDR(B) with register offset
	LoadStoreSignExt // format 8: STRH/LDRH/LDSB/LDSH
	LoadStoreImm     // format 9: STR/LDR(B) with immediate offset
	LoadStoreHalfImm // format 10: STRH/LDRH with immediate offset
	SPRelLoadStore   // format 11
	LoadAddress      // format 12: ADD Rd, PC|SP, #imm
	AddOffsetToSP    // format 13
	PushPop          // format 14
	MultipleLoadStore
	CondBranch
	SoftwareInterrupt
	UncondBranch
	BranchLinkHigh // BL first halfword (H=10)
	BranchLinkLow  // BL second halfword (H=11), completes the previous
)

// SubOp further distinguishes format-4 ALU operations and format-5 high
// register operations, whose mnemonic is not otherwise implied by Op.
type SubOp uint8

const (
	SubNone SubOp = iota
	AND
	EOR
	LSL
	LSR
	ASR
	ADC
	SBC
	ROR
	TST
	NEG
	CMP
	CMN
	ORR
	MUL
	BIC
	MVN
	// ADD, SUB and MOV do not appear in the format-4 two-register ALU table
	// (they have their own dedicated formats 1-3 and 5) but are included
	// here so every format that picks an arithmetic SubOp can use one
	// unambiguous set of mnemonics.
	ADD
	SUB
	MOV
)

// Shift kinds for format 1 (move-shifted-register).
type ShiftKind uint8

const (
	ShiftLSL ShiftKind = iota
	ShiftLSR
	ShiftASR
)

// Instruction is the fully decoded form of one Thumb-1 halfword (or, for
// BL, a pair of halfwords combined by the executor). Fields not meaningful
// to a given Op are left at their zero value.
type Instruction struct {
	Raw uint16
	Op  Op
	Sub SubOp

	Rd, Rs, Rn, Rm int

	ShiftKind ShiftKind
	Imm       uint32 // unsigned immediate, already scaled for the format
	Offset    int32  // signed byte offset, already scaled

	Cond uint8 // format 16 4-bit condition code

	RegisterList uint16 // formats 14/15 register bitmap, bit0=r0
	R            bool   // format 14 LR/PC-in-list bit, also BX/BLX's link bit

	Load bool // true = load (L=1), false = store (L=0)
	Byte bool // true = byte transfer, false = word/halfword
	Sign bool // true = sign-extend on load (LDRSB/LDRSH)
	Half bool // true = halfword transfer (STRH/LDRH)

	SPBase bool // format 11/12/13: base is SP rather than PC

	// H1 and H2 are format-19 BL linkage bits, preserved so the executor
	// can recognise the first-then-second-halfword pairing.
	H1, H2 bool

	// ImmOperand marks format 2 (AddSubReg): true when operand2 is the
	// 3-bit immediate in Imm, false when it is register Rn.
	ImmOperand bool
}

// Decode inspects the top bits of opcode and returns the Instruction it
// encodes. Unknown bit patterns decode to Op==Undefined rather than
// panicking; the executor turns that into a fatal fault. Formats are
// checked in the same mask order the teacher's decodeThumb uses, most
// specific or most narrowly-masked first, so a later, broader mask never
// shadows an earlier, narrower one.
func Decode(opcode uint16) Instruction {
	in := Instruction{Raw: opcode}

	switch {
	case opcode&0xf800 == 0x1800:
		decodeAddSubtract(opcode, &in)
	case opcode&0xe000 == 0x0000:
		decodeMoveShiftedRegister(opcode, &in)
	case opcode&0xe000 == 0x2000:
		decodeMovCmpAddSubImm(opcode, &in)
	case opcode&0xfc00 == 0x4000:
		decodeALU(opcode, &in)
	case opcode&0xfc00 == 0x4400 && opcode&0xff00 != 0x4700:
		decodeHiRegisterOps(opcode, &in)
	case opcode&0xff00 == 0x4700:
		decodeBranchExchange(opcode, &in)
	case opcode&0xf800 == 0x4800:
		decodePCRelativeLoad(opcode, &in)
	case opcode&0xf200 == 0x5000:
		decodeLoadStoreRegisterOffset(opcode, &in)
	case opcode&0xf200 == 0x5200:
		decodeLoadStoreSignExtended(opcode, &in)
	case opcode&0xe000 == 0x6000:
		decodeLoadStoreImmOffset(opcode, &in)
	case opcode&0xf000 == 0x8000:
		decodeLoadStoreHalfword(opcode, &in)
	case opcode&0xf000 == 0x9000:
		decodeSPRelativeLoadStore(opcode, &in)
	case opcode&0xf000 == 0xa000:
		decodeLoadAddress(opcode, &in)
	case opcode&0xff00 == 0xb000:
		decodeAddOffsetToSP(opcode, &in)
	case opcode&0xf600 == 0xb400:
		decodePushPopRegisters(opcode, &in)
	case opcode&0xf000 == 0xc000:
		decodeMultipleLoadStore(opcode, &in)
	case opcode&0xff00 == 0xdf00:
		in.Op = SoftwareInterrupt
		in.Imm = uint32(opcode & 0x00ff)
	case opcode&0xf000 == 0xd000:
		decodeConditionalBranch(opcode, &in)
	case opcode&0xf800 == 0xe000:
		decodeUnconditionalBranch(opcode, &in)
	case opcode&0xf000 == 0xf000:
		decodeLongBranchWithLink(opcode, &in)
	default:
		in.Op = Undefined
	}

	return in
}

// decodeMoveShiftedRegister: format 1. 000ooLLLLLsssddd
func decodeMoveShiftedRegister(opcode uint16, in *Instruction) {
	in.Op = ShiftImm
	switch (opcode >> 11) & 0x3 {
	case 0b00:
		in.ShiftKind = ShiftLSL
	case 0b01:
		in.ShiftKind = ShiftLSR
	case 0b10:
		in.ShiftKind = ShiftASR
	}
	in.Imm = uint32((opcode >> 6) & 0x1f)
	in.Rs = int((opcode >> 3) & 0x7)
	in.Rd = int(opcode & 0x7)
}

// decodeAddSubtract: format 2. 00011 I O sss sssss|ddd -> 0 0 0 1 1 I O nnn sss ddd
func decodeAddSubtract(opcode uint16, in *Instruction) {
	in.Op = AddSubReg
	immediate := opcode&0x0400 != 0
	in.Sub = ADD
	if opcode&0x0200 != 0 {
		in.Sub = SUB
	}
	rnOrImm := (opcode >> 6) & 0x7
	in.Rs = int((opcode >> 3) & 0x7)
	in.Rd = int(opcode & 0x7)
	if immediate {
		in.Imm = uint32(rnOrImm)
	} else {
		in.Rn = int(rnOrImm)
	}
	in.ImmOperand = immediate
}

// decodeMovCmpAddSubImm: format 3. 001 oo ddd iiiiiiii
func decodeMovCmpAddSubImm(opcode uint16, in *Instruction) {
	in.Op = MovCmpAddSubImm8
	in.Sub = [4]SubOp{MOV, CMP, ADD, SUB}[(opcode>>11)&0x3]
	in.Rd = int((opcode >> 8) & 0x7)
	in.Imm = uint32(opcode & 0xff)
}

// decodeALU: format 4. 010000 oooo sss ddd
func decodeALU(opcode uint16, in *Instruction) {
	in.Op = ALU
	ops := [16]SubOp{AND, EOR, LSL, LSR, ASR, ADC, SBC, ROR, TST, NEG, CMP, CMN, ORR, MUL, BIC, MVN}
	in.Sub = ops[(opcode>>6)&0xf]
	in.Rs = int((opcode >> 3) & 0x7)
	in.Rd = int(opcode & 0x7)
}

// decodeHiRegisterOps: format 5 (excluding BX/BLX). 010001 oo h1h2 sss ddd
func decodeHiRegisterOps(opcode uint16, in *Instruction) {
	in.Op = HiRegOp
	subs := [4]SubOp{ADD, CMP, MOV, SubNone} // encoding 11 (BX/BLX) is handled by decodeBranchExchange
	in.Sub = subs[(opcode>>8)&0x3]
	h1 := opcode&0x0080 != 0
	h2 := opcode&0x0040 != 0
	rs := int((opcode >> 3) & 0x7)
	rd := int(opcode & 0x7)
	if h1 {
		rd += 8
	}
	if h2 {
		rs += 8
	}
	in.Rd = rd
	in.Rs = rs
}

// decodeBranchExchange: format 5 BX/BLX Rm. 01000111 Lh sss 000
func decodeBranchExchange(opcode uint16, in *Instruction) {
	in.Op = BranchExchange
	in.R = opcode&0x0080 != 0 // link bit: true => BLX, false => BX
	rm := int((opcode >> 3) & 0x7)
	if opcode&0x0040 != 0 {
		rm += 8
	}
	in.Rm = rm
}

// decodePCRelativeLoad: format 6. 01001 ddd iiiiiiii (word offset, x4)
func decodePCRelativeLoad(opcode uint16, in *Instruction) {
	in.Op = PCRelativeLoad
	in.Rd = int((opcode >> 8) & 0x7)
	in.Imm = uint32(opcode&0xff) << 2
	in.Load = true
}

// decodeLoadStoreRegisterOffset: format 7. 0101 L B 0 rrr bbb ddd
func decodeLoadStoreRegisterOffset(opcode uint16, in *Instruction) {
	in.Op = LoadStoreReg
	in.Load = opcode&0x0800 != 0
	in.Byte = opcode&0x0400 != 0
	in.Rm = int((opcode >> 6) & 0x7)
	in.Rs = int((opcode >> 3) & 0x7) // base register
	in.Rd = int(opcode & 0x7)
}

// decodeLoadStoreSignExtended: format 8. 0101 H S 1 rrr bbb ddd
func decodeLoadStoreSignExtended(opcode uint16, in *Instruction) {
	in.Op = LoadStoreSignExt
	signOrLoad := opcode & 0x0c00 >> 10
	// 00: STRH, 01: LDRSB, 10: LDRH, 11: LDRSH
	switch signOrLoad {
	case 0b00:
		in.Load = false
		in.Half = true
	case 0b01:
		in.Load = true
		in.Byte = true
		in.Sign = true
	case 0b10:
		in.Load = true
		in.Half = true
	case 0b11:
		in.Load = true
		in.Half = true
		in.Sign = true
	}
	in.Rm = int((opcode >> 6) & 0x7)
	in.Rs = int((opcode >> 3) & 0x7)
	in.Rd = int(opcode & 0x7)
}

// decodeLoadStoreImmOffset: format 9. 011 B L iiiii bbb ddd
func decodeLoadStoreImmOffset(opcode uint16, in *Instruction) {
	in.Op = LoadStoreImm
	in.Byte = opcode&0x1000 != 0
	in.Load = opcode&0x0800 != 0
	imm := uint32((opcode >> 6) & 0x1f)
	if !in.Byte {
		imm <<= 2
	}
	in.Imm = imm
	in.Rs = int((opcode >> 3) & 0x7)
	in.Rd = int(opcode & 0x7)
}

// decodeLoadStoreHalfword: format 10. 1000 L iiiii bbb ddd (offset x2)
func decodeLoadStoreHalfword(opcode uint16, in *Instruction) {
	in.Op = LoadStoreHalfImm
	in.Half = true
	in.Load = opcode&0x0800 != 0
	in.Imm = uint32((opcode>>6)&0x1f) << 1
	in.Rs = int((opcode >> 3) & 0x7)
	in.Rd = int(opcode & 0x7)
}

// decodeSPRelativeLoadStore: format 11. 1001 L ddd iiiiiiii (offset x4, base SP)
func decodeSPRelativeLoadStore(opcode uint16, in *Instruction) {
	in.Op = SPRelLoadStore
	in.SPBase = true
	in.Load = opcode&0x0800 != 0
	in.Rd = int((opcode >> 8) & 0x7)
	in.Imm = uint32(opcode&0xff) << 2
}

// decodeLoadAddress: format 12. 1010 SP ddd iiiiiiii (offset x4)
func decodeLoadAddress(opcode uint16, in *Instruction) {
	in.Op = LoadAddress
	in.SPBase = opcode&0x0800 != 0
	in.Rd = int((opcode >> 8) & 0x7)
	in.Imm = uint32(opcode&0xff) << 2
}

// decodeAddOffsetToSP: format 13. 10110000 S iiiiiii (offset x4, S=sign)
func decodeAddOffsetToSP(opcode uint16, in *Instruction) {
	in.Op = AddOffsetToSP
	imm := int32(opcode&0x7f) << 2
	if opcode&0x0080 != 0 {
		imm = -imm
	}
	in.Offset = imm
}

// decodePushPopRegisters: format 14. 1011 L 10 R iiiiiiii
func decodePushPopRegisters(opcode uint16, in *Instruction) {
	in.Op = PushPop
	in.Load = opcode&0x0800 != 0 // true = POP, false = PUSH
	in.R = opcode&0x0100 != 0    // PUSH: include LR; POP: include and branch to PC
	in.RegisterList = opcode & 0xff
}

// decodeMultipleLoadStore: format 15. 1100 L bbb iiiiiiii
func decodeMultipleLoadStore(opcode uint16, in *Instruction) {
	in.Op = MultipleLoadStore
	in.Load = opcode&0x0800 != 0
	in.Rd = int((opcode >> 8) & 0x7) // base register Rn
	in.RegisterList = opcode & 0xff
}

// decodeConditionalBranch: format 16. 1101 cccc iiiiiiii (offset x2, signed)
func decodeConditionalBranch(opcode uint16, in *Instruction) {
	in.Op = CondBranch
	in.Cond = uint8((opcode >> 8) & 0xf)
	in.Offset = signExtend(int32(opcode&0xff), 8) << 1
}

// decodeUnconditionalBranch: format 18. 11100 iiiiiiiiiii (offset x2, signed)
func decodeUnconditionalBranch(opcode uint16, in *Instruction) {
	in.Op = UncondBranch
	in.Offset = signExtend(int32(opcode&0x7ff), 11) << 1
}

// decodeLongBranchWithLink: format 19. 1111 H iiiiiiiiiii
// H=0 (0xf000 with bit11 clear): first halfword, high 11 bits of a 23-bit
// signed offset. H=1 (0xf800): second halfword, low 11 bits (x2). The
// executor combines the two across successive fetches.
func decodeLongBranchWithLink(opcode uint16, in *Instruction) {
	if opcode&0x0800 == 0 {
		in.Op = BranchLinkHigh
		in.H1 = true
		in.Offset = signExtend(int32(opcode&0x7ff), 11) << 12
	} else {
		in.Op = BranchLinkLow
		in.H2 = true
		in.Imm = uint32(opcode & 0x7ff)
	}
}

func signExtend(v int32, bits uint) int32 {
	shift := 32 - bits
	return (v << shift) >> shift
}

func (i Instruction) String() string {
	return fmt.Sprintf("{Op:%d Sub:%d Rd:%d Rs:%d Rn:%d Rm:%d Imm:%#x Offset:%d}",
		i.Op, i.Sub, i.Rd, i.Rs, i.Rn, i.Rm, i.Imm, i.Offset)
}
