// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package emulator runs Duet programs: alone on one machine, or as a pair
// of machines exchanging values.
package emulator

import (
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/ezrec/duet/cpu"
	"github.com/ezrec/duet/io"
)

// runtimeError locates an error raised by a machine.
func runtimeError(m *cpu.Machine, err error) error {
	return &ErrRuntime{
		Machine: m.Id,
		Pc:      m.Pc,
		LineNo:  m.Program.LineOf(m.Pc),
		Err:     err,
	}
}

// SoloResult is the outcome of a lone machine run.
type SoloResult struct {
	Sound     int64     // Last sound played.
	Recovered bool      // Set if a rcv recovered the sound.
	State     cpu.State // Final machine state.
	Steps     int       // Count of steps executed.
}

// Solo runs a program on a lone machine, where snd plays a sound and rcv
// recovers the last sound played.
func Solo(prog *cpu.Program, opts Options) (result *SoloResult, err error) {
	err = opts.Validate()
	if err != nil {
		return
	}

	sound := &cpu.Sound{}
	m := cpu.NewMachine(0, prog, sound)
	m.Verbose = opts.Verbose
	m.Limit = opts.Limit
	m.Reset()

	err = m.Run()
	if err != nil {
		err = runtimeError(m, err)
	}

	result = &SoloResult{
		Sound:     sound.Last,
		Recovered: sound.Recovered,
		State:     m.State(),
		Steps:     m.Steps,
	}

	if opts.Verbose && sound.Recovered {
		log.Print(f("solo: recovered %d", sound.Last))
	}

	return
}

// DuetResult is the outcome of a paired run.
type DuetResult struct {
	States   [2]cpu.State // Final state of each machine.
	Sends    [2]int64     // Count of values each machine sent.
	Receives [2]int64     // Count of values each machine received.
	Pending  [2]int       // Count of values left unreceived by each machine.
}

// Answer returns the count of values sent by machine 1.
func (result *DuetResult) Answer() int64 {
	return result.Sends[1]
}

// Deadlocked returns true if every machine gave up waiting for a value.
func (result *DuetResult) Deadlocked() bool {
	return result.States[0] == cpu.DEADLOCKED && result.States[1] == cpu.DEADLOCKED
}

// Duet is a pair of machines running the same program, each sending to
// the other over a channel pair.
type Duet struct {
	Options
	Program *cpu.Program
	Machine [2]*cpu.Machine
	Link    [2]*cpu.Link
}

// NewDuet creates a pair of machines with ids 0 and 1, each with its id
// seeded into the id register, and cross-wired so that each machine's
// outbound channel is the other's inbound channel.
func NewDuet(prog *cpu.Program, opts Options) (duet *Duet, err error) {
	err = opts.Validate()
	if err != nil {
		return
	}

	duet = &Duet{
		Options: opts,
		Program: prog,
	}

	a, b := io.NewPair()
	for id, endpoint := range []*io.Endpoint{a, b} {
		link := cpu.NewLink(endpoint, opts.Timeout)
		m := cpu.NewMachine(int64(id), prog, link)
		m.Verbose = opts.Verbose
		m.Limit = opts.Limit
		m.Reset()
		m.Registers.Set(opts.idRegister(), int64(id))

		duet.Machine[id] = m
		duet.Link[id] = link
	}

	return
}

// report logs how a machine exited.
func (duet *Duet) report(m *cpu.Machine, link *cpu.Link) {
	if !duet.Verbose {
		return
	}

	switch m.State() {
	case cpu.HALTED:
		log.Print(f("duet: machine %d halted, sent %d values", m.Id, link.Sends()))
	case cpu.DEADLOCKED:
		log.Print(f("duet: machine %d deadlocked waiting at pc %d, sent %d values", m.Id, m.Pc, link.Sends()))
	}
}

// Run runs both machines in parallel until each has halted or deadlocked,
// then returns their statistics. A machine's outbound channel is closed
// when it stops, so a peer waiting on it deadlocks without waiting for
// the full timeout. A machine runtime error is returned after both
// machines have stopped.
func (duet *Duet) Run() (result *DuetResult, err error) {
	var group errgroup.Group

	for n := range duet.Machine {
		m := duet.Machine[n]
		link := duet.Link[n]
		group.Go(func() (err error) {
			defer link.Close()

			err = m.Run()
			if err != nil {
				err = runtimeError(m, err)
			}

			duet.report(m, link)
			return
		})
	}

	err = group.Wait()

	result = &DuetResult{}
	for n, m := range duet.Machine {
		link := duet.Link[n]
		result.States[n] = m.State()
		result.Sends[n] = link.Sends()
		result.Receives[n] = link.Receives()
		result.Pending[n] = link.In.Len()
	}

	return
}
