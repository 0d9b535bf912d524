package io

import (
	"errors"

	"github.com/ezrec/duet/translate"
)

var f = translate.From

var (
	// Channel errors
	ErrTimeout = errors.New(f("channel receive timed out"))
	ErrClosed  = errors.New(f("channel closed"))
)
