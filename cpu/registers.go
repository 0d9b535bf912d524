package cpu

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Registers is a register bank. Registers that were never written read
// as zero.
type Registers struct {
	Data map[Register]int64
}

// Get returns the value of a register.
func (regs *Registers) Get(reg Register) int64 {
	return regs.Data[reg]
}

// Set stores a value into a register.
func (regs *Registers) Set(reg Register, value int64) {
	if regs.Data == nil {
		regs.Data = make(map[Register]int64, 8)
	}
	regs.Data[reg] = value
}

// Len returns the count of registers written.
func (regs *Registers) Len() int {
	return len(regs.Data)
}

// Reset clears all registers back to zero.
func (regs *Registers) Reset() {
	clear(regs.Data)
}

// String returns the written registers in name order.
func (regs *Registers) String() string {
	var text []string
	for _, reg := range slices.Sorted(maps.Keys(regs.Data)) {
		text = append(text, fmt.Sprintf("%v=%d", reg, regs.Data[reg]))
	}
	return strings.Join(text, " ")
}
