package cpu

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync/atomic"

	duetio "github.com/ezrec/duet/io"
)

// State is the execution state of a machine.
type State int32

//go:generate go tool stringer -linecomment -type=State
const (
	RUNNING    = State(0) // running
	BLOCKED    = State(1) // blocked
	HALTED     = State(2) // halted
	DEADLOCKED = State(3) // deadlocked
)

// Done returns true if the state is terminal.
func (state State) Done() bool {
	return state == HALTED || state == DEADLOCKED
}

// Machine is the simulation context for one Duet machine.
type Machine struct {
	Verbose bool      // Set to enable verbose logging.
	Trace   io.Writer // If set, receives one line per executed instruction.

	Id        int64     // Machine identity, for diagnostics.
	Program   *Program  // Program executed, shared read-only.
	Registers Registers // Register bank.
	Pc        int64     // Current instruction pointer. May leave the program.
	Port      Port      // Behavior of snd and rcv.

	Limit int // If non-zero, the maximum count of steps to execute.
	Steps int // Count of steps executed.

	state atomic.Int32
}

// NewMachine creates a machine running a program through a port.
func NewMachine(id int64, prog *Program, port Port) (m *Machine) {
	m = &Machine{
		Id:      id,
		Program: prog,
		Port:    port,
	}

	return
}

// State returns the execution state. Safe to call from any goroutine.
func (m *Machine) State() State {
	return State(m.state.Load())
}

func (m *Machine) setState(state State) {
	m.state.Store(int32(state))
}

// Reset the machine: registers cleared, pc at zero, running.
func (m *Machine) Reset() {
	if m.Verbose {
		log.Printf("machine %d: reset", m.Id)
	}

	m.Registers.Reset()
	m.Pc = 0
	m.Steps = 0
	m.setState(RUNNING)
}

// String returns the current machine state as a string.
func (m *Machine) String() string {
	return fmt.Sprintf("machine %d: pc %03d %v [%v]", m.Id, m.Pc, m.State(), m.Registers.String())
}

// evaluate returns an immediate, or the current value of a register.
func (m *Machine) evaluate(value Value) int64 {
	if value.IsRegister() {
		return m.Registers.Get(value.Register)
	}
	return value.Immediate
}

// halt stops the machine in a terminal state.
func (m *Machine) halt(state State) {
	m.setState(state)

	if !m.Verbose {
		return
	}

	switch state {
	case HALTED:
		log.Print(f("machine %d: halted at pc %d after %d steps", m.Id, m.Pc, m.Steps))
	case DEADLOCKED:
		log.Print(f("machine %d: deadlocked at pc %d, no value to receive", m.Id, m.Pc))
	}
}

// Step executes a single instruction. done is set once the machine has
// reached a terminal state: its pc left the program, a rcv recovered a
// sound, or a rcv gave up waiting for a value.
func (m *Machine) Step() (done bool, err error) {
	if m.State().Done() {
		done = true
		return
	}

	inst, ok := m.Program.At(m.Pc)
	if !ok {
		m.halt(HALTED)
		done = true
		return
	}

	if m.Limit > 0 && m.Steps >= m.Limit {
		err = ErrStepLimit
		return
	}

	if m.Verbose {
		log.Printf("%d: %03d: %v", m.Id, m.Pc, inst)
	}

	m.Steps++

	pc := m.Pc
	next := m.Pc + 1
	var note string

	switch inst.Op {
	case SND:
		if m.Port == nil {
			err = ErrPortMissing
			return
		}
		value := m.evaluate(inst.A)
		err = m.Port.Send(value)
		if err != nil {
			return
		}
		note = fmt.Sprintf("sent %d", value)
	case SET:
		m.Registers.Set(inst.Register, m.evaluate(inst.A))
	case ADD:
		m.Registers.Set(inst.Register, m.Registers.Get(inst.Register)+m.evaluate(inst.A))
	case MUL:
		m.Registers.Set(inst.Register, m.Registers.Get(inst.Register)*m.evaluate(inst.A))
	case MOD:
		divisor := m.evaluate(inst.A)
		if divisor == 0 {
			err = ErrDivideByZero
			return
		}
		m.Registers.Set(inst.Register, m.Registers.Get(inst.Register)%divisor)
	case RCV:
		if m.Port == nil {
			err = ErrPortMissing
			return
		}
		m.setState(BLOCKED)
		value, rerr := m.Port.Receive(m.Registers.Get(inst.Register))
		m.setState(RUNNING)
		switch {
		case rerr == nil:
			m.Registers.Set(inst.Register, value)
			note = fmt.Sprintf("received %d", value)
		case errors.Is(rerr, ErrRecovered):
			m.trace(pc, inst, "recovered")
			m.halt(HALTED)
			done = true
			return
		case errors.Is(rerr, duetio.ErrTimeout), errors.Is(rerr, duetio.ErrClosed):
			m.trace(pc, inst, "deadlocked")
			m.halt(DEADLOCKED)
			done = true
			return
		default:
			err = rerr
			return
		}
	case JGZ:
		if m.evaluate(inst.A) != 0 {
			next = m.Pc + m.evaluate(inst.B)
		}
	}

	m.Pc = next
	m.trace(pc, inst, note)

	_, ok = m.Program.At(m.Pc)
	if !ok {
		m.halt(HALTED)
		done = true
	}

	return
}

// trace writes a diagnostic line for an executed instruction.
func (m *Machine) trace(pc int64, inst Instruction, note string) {
	if m.Trace == nil {
		return
	}

	if len(note) == 0 {
		fmt.Fprintf(m.Trace, "%03d: %v\n", pc, inst)
	} else {
		fmt.Fprintf(m.Trace, "%03d: %v ; %v\n", pc, inst, note)
	}
}

// Run steps the machine until it reaches a terminal state, or fails.
// A failed machine is left halted.
func (m *Machine) Run() (err error) {
	for {
		var done bool
		done, err = m.Step()
		if err != nil {
			m.halt(HALTED)
			return
		}
		if done {
			return
		}
	}
}
