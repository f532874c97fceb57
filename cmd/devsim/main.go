package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/juju/errors"
	"github.com/mattn/go-isatty"
	"github.com/temoto/devsim/cmd/devsim/command"
	"github.com/temoto/devsim/cmd/devsim/device"
	"github.com/temoto/devsim/cmd/devsim/discover"
	"github.com/temoto/devsim/cmd/devsim/subcmd"
	"github.com/temoto/devsim/internal/state"
	"github.com/temoto/devsim/log2"
)

var log = log2.NewStderr(log2.LDebug)

var modules = []subcmd.Mod{
	device.Mod,
	discover.Mod,
	command.Mod,
	command.ConsoleMod,
}

func main() {
	flagConfig := flag.String("config", "devsim.hcl", "config file (.hcl or .yaml), empty to use defaults")
	flagLogLevel := flag.String("log-level", "", "override log.level: error, info, debug, all")
	flag.Usage = usage
	flag.Parse()

	if subcmd.SdNotify("start") {
		// we're under systemd, assume systemd journal logging, remove timestamp
		log.SetFlags(log2.LServiceFlags)
	} else if isatty.IsTerminal(os.Stderr.Fd()) {
		log.SetFlags(log2.LInteractiveFlags)
	}

	mod, err := subcmd.Parse(flag.Arg(0), modules)
	if err != nil {
		log.Error(err)
		flag.Usage()
		os.Exit(2)
	}

	fs := state.NewOsFullReader()
	config := &state.Config{}
	if *flagConfig != "" {
		config = state.MustReadConfig(log, fs, *flagConfig)
	}
	if *flagLogLevel != "" {
		config.Log.Level = *flagLogLevel
	}
	level, err := log2.ParseLevel(config.Log.Level)
	if err != nil {
		log.Fatal(err)
	}
	log.SetLevel(level)

	ctx, _ := state.NewContext(log, fs)
	if err := mod.Main(ctx, config, flag.Args()[1:]); err != nil {
		log.Fatalf("%s: %s", mod.Name, errors.ErrorStack(err))
	}
}

func usage() {
	w := flag.CommandLine.Output()
	subcmd.PrintUsage(w, os.Args[0], modules)
	fmt.Fprintf(w, "\nflags:\n")
	flag.PrintDefaults()
}
