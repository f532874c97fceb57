package command

import (
	"context"
	"flag"
	"strings"
	"time"

	"github.com/c-bata/go-prompt"
	"github.com/juju/errors"
	"github.com/temoto/devsim/cmd/devsim/subcmd"
	"github.com/temoto/devsim/helpers/cli"
	command_api "github.com/temoto/devsim/internal/command"
	"github.com/temoto/devsim/internal/state"
)

var Mod = subcmd.Mod{
	Name:  "command",
	Usage: "send one command to actuator: -addr host:port -id ID -cmd VALUE",
}

var ConsoleMod = subcmd.Mod{
	Name:  "console",
	Usage: "interactive prompt, each line is sent as command: -addr host:port -id ID",
}

// Main refers to Mod, assign here to avoid initialization cycle.
func init() {
	Mod.Main = Main
	ConsoleMod.Main = Console
}

type target struct {
	addr    string
	id      string
	timeout time.Duration
}

func parseTarget(name string, config *state.Config, args []string, extra func(*flag.FlagSet)) (target, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	flagAddr := fs.String("addr", "", "device command endpoint host:port")
	flagID := fs.String("id", "", "device id")
	flagTimeout := fs.Duration("timeout", config.Command.NetworkTimeout(), "connect and write timeout")
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return target{}, errors.Trace(err)
	}
	t := target{addr: *flagAddr, id: *flagID, timeout: *flagTimeout}
	if t.addr == "" {
		return t, errors.NotValidf("-addr empty")
	}
	return t, nil
}

func Main(ctx context.Context, config *state.Config, args []string) error {
	var flagCmd *string
	t, err := parseTarget(Mod.Name, config, args, func(fs *flag.FlagSet) {
		flagCmd = fs.String("cmd", "", "command value, for example on, off, 2")
	})
	if err != nil {
		return err
	}
	g := state.GetGlobal(ctx)
	if err = command_api.Send(ctx, t.addr, t.id, *flagCmd, t.timeout); err != nil {
		return errors.Annotatef(err, "send addr=%s", t.addr)
	}
	g.Log.Infof("sent addr=%s id=%s command=%s", t.addr, t.id, *flagCmd)
	return nil
}

func Console(ctx context.Context, config *state.Config, args []string) error {
	t, err := parseTarget(ConsoleMod.Name, config, args, nil)
	if err != nil {
		return err
	}
	return cli.MainLoop(ConsoleMod.Name, newExecutor(ctx, t), newCompleter())
}

func newCompleter() prompt.Completer {
	suggests := []prompt.Suggest{
		{Text: "on", Description: "headlight"},
		{Text: "off", Description: "headlight"},
		{Text: "1", Description: "ac"},
		{Text: "2", Description: "ac"},
		{Text: "3", Description: "ac"},
	}
	return func(d prompt.Document) []prompt.Suggest {
		return prompt.FilterHasPrefix(suggests, d.GetWordBeforeCursor(), true)
	}
}

func newExecutor(ctx context.Context, t target) func(string) {
	g := state.GetGlobal(ctx)
	return func(line string) {
		line = strings.TrimSpace(line)
		if line == "" {
			return
		}
		if err := command_api.Send(ctx, t.addr, t.id, line, t.timeout); err != nil {
			g.Log.Errorf("send addr=%s command=%s err=%v", t.addr, line, err)
			return
		}
		g.Log.Debugf("sent command=%s", line)
	}
}
