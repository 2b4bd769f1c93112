package main

import (
	"fmt"
	"os"

	"github.com/brimdata/wave/cmd/wave/dump"
	"github.com/brimdata/wave/cmd/wave/inspect"
	"github.com/brimdata/wave/cmd/wave/root"
	"github.com/brimdata/wave/cmd/wave/serve"
	"github.com/brimdata/wave/pkg/charm"
)

func main() {
	wave := root.Wave
	wave.Add(dump.Cmd)
	wave.Add(inspect.Cmd)
	wave.Add(serve.Cmd)
	wave.Add(charm.Help)
	if err := wave.ExecRoot(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}
