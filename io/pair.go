package io

// Endpoint is one side of a channel pair: the holder may send on Out and
// receive on In.
type Endpoint struct {
	Out Channel
	In  Channel
}

// NewPair creates two endpoints connected by two queues, so that the
// outbound channel of each is the inbound channel of the other.
func NewPair() (a, b *Endpoint) {
	ab := NewQueue()
	ba := NewQueue()

	a = &Endpoint{Out: ab, In: ba}
	b = &Endpoint{Out: ba, In: ab}

	return
}
