package cpu

import (
	"sync/atomic"
	"time"

	"github.com/ezrec/duet/io"
)

// Port supplies the behavior of the snd and rcv instructions.
type Port interface {
	// Send emits a value.
	Send(value int64) error
	// Receive is given the current value of the rcv register, and returns
	// the value to store into it. ErrRecovered halts the machine, and
	// io.ErrTimeout or io.ErrClosed deadlock it.
	Receive(current int64) (value int64, err error)
}

// Sound is the Port of a lone machine. snd plays a sound, and rcv recovers
// the last sound played if its register is non-zero.
type Sound struct {
	Last      int64 // Last sound played.
	Played    bool  // Set once any sound has been played.
	Recovered bool  // Set when a rcv recovered the last sound.
}

var _ Port = (*Sound)(nil)

// Send records the sound played.
func (sound *Sound) Send(value int64) (err error) {
	sound.Last = value
	sound.Played = true
	return
}

// Receive recovers the last sound if current is non-zero, otherwise it
// leaves the register unchanged.
func (sound *Sound) Receive(current int64) (value int64, err error) {
	if current != 0 {
		sound.Recovered = true
		err = ErrRecovered
		return
	}

	value = current
	return
}

// Link is the Port of one machine of a communicating pair. snd pushes to
// the outbound channel, and rcv waits on the inbound channel for at most
// Timeout.
type Link struct {
	Out     io.Channel
	In      io.Channel
	Timeout time.Duration

	sends    atomic.Int64
	receives atomic.Int64
}

var _ Port = (*Link)(nil)

// NewLink creates a link over a channel endpoint.
func NewLink(endpoint *io.Endpoint, timeout time.Duration) *Link {
	return &Link{
		Out:     endpoint.Out,
		In:      endpoint.In,
		Timeout: timeout,
	}
}

// Send pushes a value to the outbound channel.
func (link *Link) Send(value int64) (err error) {
	err = link.Out.Send(value)
	if err == nil {
		link.sends.Add(1)
	}
	return
}

// Receive waits for a value on the inbound channel. The current register
// value is not consulted.
func (link *Link) Receive(current int64) (value int64, err error) {
	value, err = link.In.Receive(link.Timeout)
	if err == nil {
		link.receives.Add(1)
	}
	return
}

// Close closes the outbound channel, telling the peer no more values
// will be sent.
func (link *Link) Close() {
	link.Out.Close()
}

// Sends returns the count of values sent.
func (link *Link) Sends() int64 {
	return link.sends.Load()
}

// Receives returns the count of values received.
func (link *Link) Receives() int64 {
	return link.receives.Load()
}
