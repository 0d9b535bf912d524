package cpu

import (
	"fmt"
	"strconv"
)

// Mnemonic is the operation of an instruction.
type Mnemonic int

//go:generate go tool stringer -linecomment -type=Mnemonic
const (
	SND = Mnemonic(0) // snd
	SET = Mnemonic(1) // set
	ADD = Mnemonic(2) // add
	MUL = Mnemonic(3) // mul
	MOD = Mnemonic(4) // mod
	RCV = Mnemonic(5) // rcv
	JGZ = Mnemonic(6) // jgz
)

// mnemonicMap maps source names to mnemonics.
var mnemonicMap = map[string]Mnemonic{
	"snd": SND,
	"set": SET,
	"add": ADD,
	"mul": MUL,
	"mod": MOD,
	"rcv": RCV,
	"jgz": JGZ,
}

// Register names a register. Registers are single letters.
type Register byte

// String returns the register name.
func (reg Register) String() string {
	return string(rune(reg))
}

// ParseRegister parses a single letter register name.
func ParseRegister(word string) (reg Register, err error) {
	if !isRegister(word) {
		err = ErrRegisterInvalid
		return
	}

	reg = Register(word[0])
	return
}

func isRegister(word string) bool {
	if len(word) != 1 {
		return false
	}
	c := word[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// Value is either an immediate integer or a reference to a register.
type Value struct {
	Register  Register // Register referenced, if non-zero.
	Immediate int64    // Immediate value, if Register is zero.
}

// Imm makes an immediate value.
func Imm(value int64) Value {
	return Value{Immediate: value}
}

// Reg makes a register reference value.
func Reg(reg Register) Value {
	return Value{Register: reg}
}

// IsRegister returns true if the value references a register.
func (value Value) IsRegister() bool {
	return value.Register != 0
}

// String returns the source form of the value.
func (value Value) String() string {
	if value.IsRegister() {
		return value.Register.String()
	}
	return strconv.FormatInt(value.Immediate, 10)
}

// ParseValue parses a register name or a base-10 signed integer.
func ParseValue(word string) (value Value, err error) {
	if isRegister(word) {
		value = Reg(Register(word[0]))
		return
	}

	imm, err := strconv.ParseInt(word, 10, 64)
	if err != nil {
		err = ErrParseValue(word)
		return
	}

	value = Imm(imm)
	return
}

// Instruction is a single decoded Duet instruction.
//
//	snd A
//	set R A     add R A     mul R A     mod R A
//	rcv R
//	jgz A B
type Instruction struct {
	Op       Mnemonic
	Register Register // Destination of set, add, mul, mod and rcv.
	A        Value    // Operand of snd, source of set..mod, condition of jgz.
	B        Value    // Offset of jgz.
}

// MakeSnd creates a send instruction.
func MakeSnd(a Value) Instruction {
	return Instruction{Op: SND, A: a}
}

// MakeSet creates a register assignment.
func MakeSet(reg Register, a Value) Instruction {
	return Instruction{Op: SET, Register: reg, A: a}
}

// MakeAdd creates a register addition.
func MakeAdd(reg Register, a Value) Instruction {
	return Instruction{Op: ADD, Register: reg, A: a}
}

// MakeMul creates a register multiplication.
func MakeMul(reg Register, a Value) Instruction {
	return Instruction{Op: MUL, Register: reg, A: a}
}

// MakeMod creates a register remainder.
func MakeMod(reg Register, a Value) Instruction {
	return Instruction{Op: MOD, Register: reg, A: a}
}

// MakeRcv creates a receive instruction.
func MakeRcv(reg Register) Instruction {
	return Instruction{Op: RCV, Register: reg}
}

// MakeJgz creates a relative jump, taken when cond is non-zero.
func MakeJgz(cond, offset Value) Instruction {
	return Instruction{Op: JGZ, A: cond, B: offset}
}

// String returns the source form of the instruction.
func (inst Instruction) String() (out string) {
	switch inst.Op {
	case SND:
		out = fmt.Sprintf("%v %v", inst.Op, inst.A)
	case SET, ADD, MUL, MOD:
		out = fmt.Sprintf("%v %v %v", inst.Op, inst.Register, inst.A)
	case RCV:
		out = fmt.Sprintf("%v %v", inst.Op, inst.Register)
	case JGZ:
		out = fmt.Sprintf("%v %v %v", inst.Op, inst.A, inst.B)
	default:
		out = inst.Op.String()
	}

	return
}
