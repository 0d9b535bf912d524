// Package cpu implements the machine and assembler for the Duet language.
//
// A Duet machine has an instruction pointer (pc), a bank of 64-bit registers
// named by single letters, and a Port that decides what the snd and rcv
// instructions do. With a Sound port, snd records the last sound played and
// rcv recovers it. With a Link port, snd and rcv exchange values with a
// second machine over a pair of channels.
//
// The assembler parses the seven-instruction Duet text format, one
// instruction per line, into a Program shared read-only by every machine
// that runs it.
package cpu
