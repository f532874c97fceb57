// Package subcmd dispatches devsim sub-commands: device, discover, command, console.
package subcmd

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/temoto/devsim/internal/state"
)

type Mod struct {
	Name  string
	Usage string
	// args are positional arguments after command name
	Main func(ctx context.Context, config *state.Config, args []string) error
}

func Parse(command string, modules []Mod) (*Mod, error) {
	if command == "" {
		return nil, errors.NotValidf("empty command")
	}
	for i := range modules {
		if modules[i].Name == command {
			return &modules[i], nil
		}
	}
	return nil, errors.NotFoundf("command %q", command)
}

// PrintUsage lists modules, one per line with Usage text.
func PrintUsage(w io.Writer, prog string, modules []Mod) {
	fmt.Fprintf(w, "usage: %s [flags] command [command args]\n\ncommands:\n", prog)
	for _, m := range modules {
		fmt.Fprintf(w, "  %-10s %s\n", m.Name, m.Usage)
	}
}

// SdNotify returns false when not started by systemd.
func SdNotify(s string) bool {
	ok, err := daemon.SdNotify(false, s)
	if err != nil {
		log.Fatal("sdnotify: ", errors.ErrorStack(err))
	}
	return ok
}
