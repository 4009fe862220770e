// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Command probescript is the CLI harness around the ecc/builtin packages:
// run a script, or dump the tokens/ops an input compiles to, or drop into
// an interactive REPL. Built as a urfave/cli.v1 App with one subcommand
// per file.
package main

import (
	"fmt"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/probescript/ecc"
)

var configFileFlag = cli.StringFlag{
	Name:  "config",
	Usage: "TOML configuration file (see ecc.Config)",
}

func loadEngineConfig(ctx *cli.Context) (ecc.Config, error) {
	if path := ctx.GlobalString(configFileFlag.Name); path != "" {
		return ecc.LoadConfig(path)
	}
	return ecc.DefaultConfig, nil
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "probescript"
	app.Usage = "embeddable ES3 scripting interpreter"
	app.Flags = []cli.Flag{configFileFlag}
	app.Commands = []cli.Command{
		runCommand,
		tokensCommand,
		opsCommand,
		replCommand,
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
