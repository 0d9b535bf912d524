package cpu

import (
	"bytes"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"

	"github.com/ezrec/duet/io"
)

func TestMachine(t *testing.T) {
	assert := assert.New(t)

	m := NewMachine(3, &Program{}, &Sound{})
	assert.Equal(int64(3), m.Id)
	assert.Equal(RUNNING, m.State())
	assert.False(m.Verbose)

	// An empty program halts at once.
	done, err := m.Step()
	assert.NoError(err)
	assert.True(done)
	assert.Equal(HALTED, m.State())
	assert.True(m.State().Done())

	m.Reset()
	assert.Equal(RUNNING, m.State())
	assert.False(m.State().Done())
}

func TestMachine_Arithmetic(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name     string
		program  []string
		expected map[Register]int64
	}){
		{"set_add_mul", []string{"set a 5", "add a 3", "mul a 2"}, map[Register]int64{'a': 16}},
		{"unset_left", []string{"add a 3", "mul b 7", "mod c 4"}, map[Register]int64{'a': 3, 'b': 0, 'c': 0}},
		{"register_source", []string{"set a 6", "set b a", "mul b a", "mod b 5"}, map[Register]int64{'a': 6, 'b': 1}},
		{"negative_mod", []string{"set a -7", "mod a 3"}, map[Register]int64{'a': -1}},
		{"wide", []string{"set a 2147483647", "mul a a"}, map[Register]int64{'a': 4611686014132420609}},
	}

	for _, entry := range table {
		m := NewMachine(0, mustParse(t, entry.program...), &Sound{})
		err := m.Run()
		assert.NoError(err, entry.name)
		assert.Equal(HALTED, m.State(), entry.name)
		for reg, value := range entry.expected {
			assert.Equal(value, m.Registers.Get(reg), entry.name)
		}
	}
}

func TestMachine_Jump(t *testing.T) {
	assert := assert.New(t)

	// Count a down from 3, adding to b each time.
	m := NewMachine(0, mustParse(t,
		"set a 3",
		"add b 10",
		"add a -1",
		"jgz a -2",
		"snd b",
	), &Sound{})

	err := m.Run()
	assert.NoError(err)
	assert.Equal(int64(30), m.Registers.Get('b'))
	assert.Equal(int64(5), m.Pc)
	assert.Equal(int64(30), m.Port.(*Sound).Last)

	// A negative condition also jumps.
	m = NewMachine(0, mustParse(t, "set a -1", "jgz a 2", "set b 1", "set c 1"), &Sound{})
	err = m.Run()
	assert.NoError(err)
	assert.Equal(int64(0), m.Registers.Get('b'))
	assert.Equal(int64(1), m.Registers.Get('c'))

	// Jumping before the start halts normally.
	m = NewMachine(0, mustParse(t, "set a 1", "jgz a -5", "set b 1"), &Sound{})
	err = m.Run()
	assert.NoError(err)
	assert.Equal(HALTED, m.State())
	assert.Equal(int64(-4), m.Pc)
	assert.Equal(int64(0), m.Registers.Get('b'))
}

func TestMachine_Sound(t *testing.T) {
	assert := assert.New(t)

	sound := &Sound{}
	m := NewMachine(0, mustParse(t, soundProgram...), sound)

	trace := &bytes.Buffer{}
	m.Trace = trace

	err := m.Run()
	assert.NoError(err)
	assert.Equal(HALTED, m.State())
	assert.True(sound.Played)
	assert.True(sound.Recovered)
	assert.Equal(int64(4), sound.Last)
	assert.Equal(int64(6), m.Pc)
	assert.Equal(12, m.Steps)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "sound_trace", trace.Bytes())
}

func TestMachine_SoundNotRecovered(t *testing.T) {
	assert := assert.New(t)

	sound := &Sound{}
	m := NewMachine(0, mustParse(t, "snd 9", "rcv a", "snd 8"), sound)

	err := m.Run()
	assert.NoError(err)
	assert.Equal(HALTED, m.State())
	assert.False(sound.Recovered)
	assert.Equal(int64(8), sound.Last)
	assert.Equal(int64(0), m.Registers.Get('a'))
}

func TestMachine_Errors(t *testing.T) {
	assert := assert.New(t)

	m := NewMachine(0, mustParse(t, "set a 5", "mod a b"), &Sound{})
	err := m.Run()
	assert.ErrorIs(err, ErrDivideByZero)
	assert.Equal(HALTED, m.State())
	assert.Equal(int64(1), m.Pc)

	m = NewMachine(0, mustParse(t, "snd 1"), nil)
	err = m.Run()
	assert.ErrorIs(err, ErrPortMissing)

	m = NewMachine(0, mustParse(t, "set a 1", "jgz a 0"), &Sound{})
	m.Limit = 100
	err = m.Run()
	assert.ErrorIs(err, ErrStepLimit)
	assert.Equal(100, m.Steps)
}

func TestMachine_Link(t *testing.T) {
	assert := assert.New(t)

	a, b := io.NewPair()
	link := NewLink(a, time.Second)

	assert.NoError(b.Out.Send(11))
	assert.NoError(b.Out.Send(22))

	m := NewMachine(0, mustParse(t, "rcv a", "rcv b", "add a b", "snd a", "snd p"), link)
	m.Registers.Set('p', 7)

	err := m.Run()
	assert.NoError(err)
	assert.Equal(HALTED, m.State())
	assert.Equal(int64(2), link.Sends())
	assert.Equal(int64(2), link.Receives())

	for _, expected := range []int64{33, 7} {
		value, err := b.In.Receive(0)
		assert.NoError(err)
		assert.Equal(expected, value)
	}
}

func TestMachine_LinkDeadlock(t *testing.T) {
	assert := assert.New(t)

	a, _ := io.NewPair()
	link := NewLink(a, 20*time.Millisecond)

	m := NewMachine(1, mustParse(t, "snd 1", "rcv a", "snd 2"), link)

	err := m.Run()
	assert.NoError(err)
	assert.Equal(DEADLOCKED, m.State())
	assert.Equal(int64(1), m.Pc)
	assert.Equal(int64(1), link.Sends())
	assert.Equal(int64(0), link.Receives())

	// Terminal states are sticky.
	done, err := m.Step()
	assert.NoError(err)
	assert.True(done)
	assert.Equal(DEADLOCKED, m.State())
}

func TestMachine_LinkClosedPeer(t *testing.T) {
	assert := assert.New(t)

	a, b := io.NewPair()
	link := NewLink(a, time.Minute)
	b.Out.Close()

	m := NewMachine(0, mustParse(t, "rcv a"), link)

	start := time.Now()
	err := m.Run()
	assert.NoError(err)
	assert.Equal(DEADLOCKED, m.State())
	assert.Less(time.Since(start), time.Second)
}

func TestMachine_Blocked(t *testing.T) {
	assert := assert.New(t)

	a, b := io.NewPair()
	link := NewLink(a, 5*time.Second)

	m := NewMachine(0, mustParse(t, "rcv a"), link)

	done := make(chan error)
	go func() {
		done <- m.Run()
	}()

	assert.Eventually(func() bool { return m.State() == BLOCKED }, time.Second, time.Millisecond)

	assert.NoError(b.Out.Send(5))
	assert.NoError(<-done)
	assert.Equal(HALTED, m.State())
	assert.Equal(int64(5), m.Registers.Get('a'))
}
