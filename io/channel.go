// Package io provides the message channels that connect duet machines.
// A channel carries signed 64-bit values in one direction, first-in
// first-out, without a capacity bound.
package io

import (
	"time"
)

// Channel defines the interface for a one-directional value channel.
type Channel interface {
	// Send appends a value to the tail of the channel. Never blocks.
	Send(value int64) error
	// Receive removes the head value, waiting up to timeout for one to arrive.
	Receive(timeout time.Duration) (value int64, err error)
	// Close marks the channel as having no further values.
	Close()
	// Len returns the count of values waiting to be received.
	Len() int
}
