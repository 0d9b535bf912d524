package cpu

import (
	"fmt"
	"iter"
	"strings"
)

// Program is an ordered list of instructions, indexed from zero.
type Program struct {
	Instructions []Instruction
	LineNo       []int // Source line of each instruction, if known.
}

// Len returns the count of instructions.
func (prog *Program) Len() int {
	return len(prog.Instructions)
}

// At returns the instruction at pc, if pc is in range.
func (prog *Program) At(pc int64) (inst Instruction, ok bool) {
	if pc < 0 || pc >= int64(len(prog.Instructions)) {
		return
	}

	return prog.Instructions[pc], true
}

// LineOf returns the source line for the instruction at pc, or 0.
func (prog *Program) LineOf(pc int64) int {
	if pc < 0 || pc >= int64(len(prog.LineNo)) {
		return 0
	}

	return prog.LineNo[pc]
}

// All iterates over the instructions with their pc.
func (prog *Program) All() iter.Seq2[int, Instruction] {
	return func(yield func(pc int, inst Instruction) bool) {
		for pc, inst := range prog.Instructions {
			if !yield(pc, inst) {
				return
			}
		}
	}
}

// String returns a numbered listing of the program.
func (prog *Program) String() string {
	var text strings.Builder
	for pc, inst := range prog.All() {
		fmt.Fprintf(&text, "%03d: %v\n", pc, inst)
	}
	return text.String()
}
