package charm

import (
	"bytes"
	"flag"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rootCommand struct {
	verbose bool
}

func (*rootCommand) Run([]string) error { return ErrNoRun }

type dumpCommand struct {
	root  *rootCommand
	count int
	args  []string
	ran   bool
}

func (c *dumpCommand) Run(args []string) error {
	if len(args) > 0 && args[0] == "help" {
		return NeedHelp
	}
	c.args = args
	c.ran = true
	return nil
}

func newTree(dump **dumpCommand) *Spec {
	root := &Spec{
		Name:  "wave",
		Usage: "wave [options] sub-command",
		Short: "waveform record streams",
		New: func(_ Command, f *flag.FlagSet) (Command, error) {
			c := &rootCommand{}
			f.BoolVar(&c.verbose, "v", false, "verbose")
			return c, nil
		},
	}
	root.Add(&Spec{
		Name:  "dump",
		Usage: "dump [options] url",
		Short: "dump records",
		Long:  "Dump reads records from a source.",
		New: func(parent Command, f *flag.FlagSet) (Command, error) {
			c := &dumpCommand{root: parent.(*rootCommand)}
			f.IntVar(&c.count, "n", 0, "record count")
			*dump = c
			return c, nil
		},
	})
	root.Add(&Spec{
		Name:   "secret",
		Short:  "hidden",
		Hidden: true,
		New: func(Command, *flag.FlagSet) (Command, error) {
			return &rootCommand{}, nil
		},
	})
	return root
}

func TestExecRoot(t *testing.T) {
	var dump *dumpCommand
	root := newTree(&dump)
	require.NoError(t, root.ExecRoot([]string{"-v", "dump", "-n", "3", "slink://host"}))
	require.NotNil(t, dump)
	assert.True(t, dump.ran)
	assert.True(t, dump.root.verbose)
	assert.Equal(t, 3, dump.count)
	assert.Equal(t, []string{"slink://host"}, dump.args)
}

func TestExecRootErrors(t *testing.T) {
	var dump *dumpCommand
	root := newTree(&dump)
	err := root.ExecRoot(nil)
	assert.EqualError(t, err, `"wave": requires a sub-command: dump`)
	err = root.ExecRoot([]string{"dupm"})
	assert.EqualError(t, err, `"wave": no such sub-command "dupm": options are: dump`)
	err = root.ExecRoot([]string{"dump", "-x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flag provided but not defined: -x")
}

func TestHelp(t *testing.T) {
	var buf bytes.Buffer
	helpOutput = &buf
	defer func() { helpOutput = os.Stderr }()
	var dump *dumpCommand
	root := newTree(&dump)
	require.NoError(t, root.ExecRoot([]string{"dump", "-h"}))
	out := buf.String()
	assert.Contains(t, out, "wave dump - dump records")
	assert.Contains(t, out, "wave dump [options] url")
	assert.Contains(t, out, `-n record count (default "0")`)
	assert.Contains(t, out, "[wave flags]")
	assert.Contains(t, out, "Dump reads records from a source.")

	buf.Reset()
	require.NoError(t, root.ExecRoot([]string{"dump", "help"}))
	assert.Contains(t, buf.String(), "wave dump - dump records")

	buf.Reset()
	root.Add(Help)
	require.NoError(t, root.ExecRoot([]string{"help"}))
	assert.Contains(t, buf.String(), "dump - dump records")
	assert.NotContains(t, buf.String(), "secret")
	_, err := search(root, []string{"dump", "nope"})
	assert.EqualError(t, err, "no such command: dump nope")
}
