// Package cli holds the flags and start-up logic shared by the wave
// commands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"

	"go.uber.org/multierr"
)

// Flags are the flags of the root command.
type Flags struct {
	showVersion bool
	cpuprofile  string
	memprofile  string
	cpuFile     *os.File
}

func (f *Flags) SetFlags(fs *flag.FlagSet) {
	fs.BoolVar(&f.showVersion, "version", false, "print version and exit")
	fs.StringVar(&f.cpuprofile, "cpuprofile", "", "write cpu profile to given file name")
	fs.StringVar(&f.memprofile, "memprofile", "", "write memory profile to given file name")
}

// An Initializer validates and completes a group of flags after parsing.
type Initializer interface {
	Init() error
}

// Init runs the initializers and returns a context canceled by SIGINT,
// SIGPIPE or SIGTERM.  The returned cleanup function stops the context
// and writes the requested profiles.
func (f *Flags) Init(all ...Initializer) (context.Context, func(), error) {
	return f.InitWithSignals(all, syscall.SIGINT, syscall.SIGPIPE, syscall.SIGTERM)
}

// InitWithSignals is like Init but the context is canceled by signals.
func (f *Flags) InitWithSignals(all []Initializer, signals ...os.Signal) (context.Context, func(), error) {
	if f.showVersion {
		fmt.Printf("Version: %s\n", Version())
		os.Exit(0)
	}
	var err error
	for _, flags := range all {
		err = multierr.Append(err, flags.Init())
	}
	if err != nil {
		return nil, nil, err
	}
	if f.cpuprofile != "" {
		if err := f.startCPUProfile(); err != nil {
			return nil, nil, err
		}
	}
	ctx, cancel := signal.NotifyContext(context.Background(), signals...)
	cleanup := func() {
		cancel()
		if err := f.stopProfiles(); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
	return &interruptedContext{ctx}, cleanup, nil
}

type interruptedContext struct{ context.Context }

func (i *interruptedContext) Err() error {
	err := i.Context.Err()
	if errors.Is(err, context.Canceled) {
		return errors.New("interrupted")
	}
	return err
}

func (f *Flags) startCPUProfile() error {
	file, err := os.Create(f.cpuprofile)
	if err != nil {
		return err
	}
	if err := pprof.StartCPUProfile(file); err != nil {
		file.Close()
		return err
	}
	f.cpuFile = file
	return nil
}

func (f *Flags) stopProfiles() error {
	var err error
	if f.cpuFile != nil {
		pprof.StopCPUProfile()
		err = f.cpuFile.Close()
	}
	if f.memprofile != "" {
		err = multierr.Append(err, writeMemProfile(f.memprofile))
	}
	return err
}

func writeMemProfile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	runtime.GC()
	err = pprof.Lookup("allocs").WriteTo(file, 0)
	return multierr.Append(err, file.Close())
}
