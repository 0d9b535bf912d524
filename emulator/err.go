package emulator

import (
	"errors"

	"github.com/ezrec/duet/translate"
)

var f = translate.From

var (
	// Option errors
	ErrTimeoutInvalid    = errors.New(f("timeout must be positive"))
	ErrLimitInvalid      = errors.New(f("step limit must not be negative"))
	ErrIdRegisterInvalid = errors.New(f("id register invalid"))
)

// ErrRuntime indicates the machine and location of a runtime error.
type ErrRuntime struct {
	Machine int64
	Pc      int64
	LineNo  int
	Err     error
}

func (err *ErrRuntime) Error() string {
	return f("machine %d pc %d line %d %v", err.Machine, err.Pc, err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
