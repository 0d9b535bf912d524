// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/ezrec/duet/cpu"
	"github.com/ezrec/duet/emulator"
	"github.com/ezrec/duet/translate"
)

var f = translate.From

// rootOptions holds the flags shared by every command.
type rootOptions struct {
	Config   string
	Timeout  time.Duration
	Limit    int
	Verbose  bool
	Extended bool
}

func main() {
	err := newRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v: %v\n", os.Args[0], err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "duet",
		Short:         "Run Duet programs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.Config, "config", "c", "", "YAML options file")
	flags.DurationVarP(&opts.Timeout, "timeout", "t", 0, "receive timeout of a paired machine, e.g. 5s")
	flags.IntVarP(&opts.Limit, "limit", "l", 0, "maximum steps per machine, 0 for no limit")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Verbose mode")
	flags.BoolVarP(&opts.Extended, "extended", "x", false, "accept comments, .equ and $(expr)")

	cmd.AddCommand(
		newSoloCommand(opts),
		newPairCommand(opts),
		newListCommand(opts),
	)

	return cmd
}

// options merges the config file and flags into run options.
func (opts *rootOptions) options(cmd *cobra.Command) (run emulator.Options, err error) {
	run = emulator.DefaultOptions()

	if len(opts.Config) != 0 {
		var inf *os.File
		inf, err = os.Open(opts.Config)
		if err != nil {
			return
		}
		defer inf.Close()

		run, err = emulator.LoadOptions(inf)
		if err != nil {
			err = fmt.Errorf("%v: %w", opts.Config, err)
			return
		}
	}

	flags := cmd.Flags()
	if flags.Changed("timeout") {
		run.Timeout = opts.Timeout
	}
	if flags.Changed("limit") {
		run.Limit = opts.Limit
	}
	if flags.Changed("verbose") {
		run.Verbose = opts.Verbose
	}

	if run.Verbose {
		log.Printf("duet: locale %v", translate.Locale())
	}

	err = run.Validate()
	return
}

// load assembles a program file.
func (opts *rootOptions) load(path string) (prog *cpu.Program, err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	atexit.Register(func() { inf.Close() })

	asm := &cpu.Assembler{
		Verbose:  opts.Verbose,
		Extended: opts.Extended,
	}
	prog, err = asm.Parse(inf)
	if err != nil {
		err = fmt.Errorf("%v: %w", path, err)
	}

	return
}

func newSoloCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "solo <file>",
		Short: "Run a program on one machine and print the recovered sound",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			run, err := opts.options(cmd)
			if err != nil {
				return
			}
			prog, err := opts.load(args[0])
			if err != nil {
				return
			}

			result, err := emulator.Solo(prog, run)
			if err != nil {
				return
			}
			if !result.Recovered {
				fmt.Fprintln(cmd.ErrOrStderr(), f("no sound recovered after %d steps", result.Steps))
				return
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Sound)
			return
		},
	}
}

func newPairCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pair <file>",
		Short: "Run a program on two communicating machines and print how many values machine 1 sent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			run, err := opts.options(cmd)
			if err != nil {
				return
			}
			prog, err := opts.load(args[0])
			if err != nil {
				return
			}

			duet, err := emulator.NewDuet(prog, run)
			if err != nil {
				return
			}

			result, err := duet.Run()
			for id, state := range result.States {
				fmt.Fprintln(cmd.ErrOrStderr(), f("machine %d %v: sent %d, received %d, unread %d",
					id, state, result.Sends[id], result.Receives[id], result.Pending[id]))
			}
			if err != nil {
				return
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Answer())
			return
		},
	}
}

func newListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <file>",
		Short: "Print the assembled program listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			prog, err := opts.load(args[0])
			if err != nil {
				return
			}

			fmt.Fprint(cmd.OutOrStdout(), prog.String())
			return
		},
	}
}
