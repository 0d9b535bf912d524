package emulator

import (
	"errors"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ezrec/duet/cpu"
)

const (
	DEFAULT_TIMEOUT     = 10 * time.Second // Default receive timeout of a paired machine.
	DEFAULT_ID_REGISTER = "p"              // Default register seeded with the machine id.
)

// Options configure a run.
type Options struct {
	// Timeout is how long a paired machine waits in rcv before it is
	// declared deadlocked. Shorter timeouts risk declaring a deadlock
	// while the peer is merely slow.
	Timeout time.Duration `yaml:"timeout"`
	// IdRegister is seeded with the machine id (0 or 1) of a paired machine.
	IdRegister string `yaml:"id_register"`
	// Limit bounds the steps each machine executes; zero is unbounded.
	Limit int `yaml:"limit"`
	// Verbose enables logging of every step and of machine exits.
	Verbose bool `yaml:"verbose"`
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		Timeout:    DEFAULT_TIMEOUT,
		IdRegister: DEFAULT_ID_REGISTER,
	}
}

// LoadOptions reads YAML options over the defaults.
func LoadOptions(input io.Reader) (opts Options, err error) {
	opts = DefaultOptions()

	dec := yaml.NewDecoder(input)
	dec.KnownFields(true)
	err = dec.Decode(&opts)
	if errors.Is(err, io.EOF) {
		err = nil
	}
	if err != nil {
		return
	}

	err = opts.Validate()
	return
}

// Validate checks the options for consistency.
func (opts Options) Validate() (err error) {
	if opts.Timeout <= 0 {
		err = ErrTimeoutInvalid
		return
	}

	if opts.Limit < 0 {
		err = ErrLimitInvalid
		return
	}

	_, err = cpu.ParseRegister(opts.IdRegister)
	if err != nil {
		err = errors.Join(ErrIdRegisterInvalid, err)
		return
	}

	return
}

// idRegister returns the validated id register.
func (opts Options) idRegister() cpu.Register {
	reg, _ := cpu.ParseRegister(opts.IdRegister)
	return reg
}
