package charm

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kr/text"
	"golang.org/x/term"
)

var helpOutput io.Writer = os.Stderr

var Help = &Spec{
	Name:  "help",
	Usage: "help [command]",
	Short: "display help for a command",
	Long: `
For help on the top-level command just type "help".
For help on a subcommand, type "help command" where command is the name of
the command.  For help on command nested further, type "help cmd1 cmd2" and
so forth.`,
	HiddenFlags: "v",
	New: func(parent Command, f *flag.FlagSet) (Command, error) {
		c := &HelpCommand{}
		f.BoolVar(&c.showHidden, "v", false, "show hidden commands and flags")
		return c, nil
	},
}

type HelpCommand struct {
	showHidden bool
}

func (c *HelpCommand) Run(args []string) error {
	p, err := search(Help.Root(), args)
	if err != nil {
		return err
	}
	displayHelp(p, c.showHidden)
	return nil
}

// search returns the path of instances named by args without running
// any of them.
func search(root *Spec, args []string) (path, error) {
	inst, err := newInstance(nil, root)
	if err != nil {
		return nil, err
	}
	p := path{inst}
	for k, arg := range args {
		sub := inst.spec.lookupSub(arg)
		if sub == nil {
			return nil, fmt.Errorf("no such command: %s", strings.Join(args[:k+1], " "))
		}
		if inst, err = newInstance(inst.command, sub); err != nil {
			return nil, err
		}
		p = append(p, inst)
	}
	return p, nil
}

func displayHelp(p path, showHidden bool) {
	inst := p.last()
	spec := inst.spec
	helpItem("NAME", p.pathname()+" - "+spec.Short)
	usage := strings.Fields(spec.Usage)
	if len(usage) > 0 {
		usage = usage[1:]
	}
	helpItem("USAGE", p.pathname(usage...))
	helpList("OPTIONS", buildOptions(p, showHidden))
	if commands := getCommands(spec, showHidden); len(commands) > 0 {
		helpList("COMMANDS", commands)
	}
	if long := strings.TrimSpace(spec.Long); long != "" {
		helpDesc("DESCRIPTION", long)
	}
}

// splitFlags is like strings.Split with a comma and also trims whitespace.
func splitFlags(flags string) []string {
	var out []string
	for _, flag := range strings.Split(flags, ",") {
		out = append(out, strings.TrimSpace(flag))
	}
	return out
}

func flagMap(flags string) map[string]bool {
	m := make(map[string]bool)
	for _, flag := range splitFlags(flags) {
		m[flag] = true
	}
	return m
}

func width() int {
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			return w
		}
	}
	return 80
}

func formatParagraph(body, tab string, lineWidth int) string {
	var chunks []string
	for _, paragraph := range strings.Split(body, "\n\n") {
		var chunk string
		if len(paragraph) < lineWidth {
			chunk = strings.TrimRight(paragraph, " \t\n")
		} else {
			paragraph = text.Wrap(strings.TrimSpace(paragraph), lineWidth)
			chunk = strings.Join(strings.Split(paragraph, "\n"), "\n"+tab)
		}
		chunks = append(chunks, chunk)
	}
	body = strings.Join(chunks, "\n\n"+tab)
	return tab + strings.TrimRight(body, " \t\n") + "\n\n"
}

const tab = "    "

func header(heading string) string {
	return "\033[1m" + heading + "\033[0m"
}

func helpItem(heading, body string) {
	fmt.Fprint(helpOutput, header(heading)+"\n"+tab+body+"\n\n")
}

func helpDesc(heading, body string) {
	fmt.Fprint(helpOutput, header(heading)+"\n"+formatParagraph(body, tab, width()-len(tab)-5))
}

func helpList(heading string, lines []string) {
	fmt.Fprint(helpOutput, header(heading)+"\n"+tab+strings.Join(lines, "\n"+tab)+"\n\n")
}

func getCommands(target *Spec, showHidden bool) []string {
	var lines []string
	for _, cmd := range target.children {
		name := cmd.Name
		if cmd.Hidden {
			if !showHidden {
				continue
			}
			name = "[" + name + "]"
		}
		lines = append(lines, name+" - "+cmd.Short)
	}
	return lines
}

// buildOptions lists the flags of the last command followed by the flags
// of each of its ancestors under a "[path flags]" heading.
func buildOptions(p path, showHidden bool) []string {
	options := p.last().options(showHidden)
	if len(options) == 0 {
		options = []string{"no flags for this command"}
	}
	for k := len(p) - 2; k >= 0; k-- {
		parent := p[k].options(showHidden)
		if len(parent) == 0 {
			continue
		}
		options = append(options, "", "["+p[:k+1].pathname()+" flags]")
		options = append(options, parent...)
	}
	return options
}
