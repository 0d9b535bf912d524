package cpu

import (
	"errors"

	"github.com/ezrec/duet/translate"
)

var f = translate.From

var (
	// Machine errors
	ErrDivideByZero = errors.New(f("modulo by zero"))
	ErrStepLimit    = errors.New(f("step limit exceeded"))
	ErrPortMissing  = errors.New(f("port missing"))

	// Port signals
	ErrRecovered = errors.New(f("sound recovered"))

	// Assembler errors
	ErrEquateSyntax    = errors.New(f(".equ syntax"))
	ErrEquateDuplicate = errors.New(f(".equ duplicated"))
	ErrOpcodeMissing   = errors.New(f("opcode missing"))
	ErrOpcodeInvalid   = errors.New(f("opcode invalid"))
	ErrArgumentCount   = errors.New(f("wrong argument count"))
	ErrRegisterInvalid = errors.New(f("register invalid"))
)

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseValue string

func (err ErrParseValue) Error() string {
	return f("'%v' is not a value or register", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}
