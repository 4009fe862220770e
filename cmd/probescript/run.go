// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package main

import (
	"fmt"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/probescript/builtin"
	"github.com/probechain/probescript/ecc"
)

var runCommand = cli.Command{
	Name:      "run",
	Usage:     "execute a script file",
	ArgsUsage: "<file.js>",
	Action:    runAction,
}

func runAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("run: expected exactly one script file argument", 2)
	}
	cfg, err := loadEngineConfig(ctx)
	if err != nil {
		return err
	}

	input, err := ecc.CreateInputFromFile(ctx.Args()[0])
	if err != nil {
		return err
	}

	e := ecc.New(cfg)
	defer e.Destroy()
	builtin.Install(e)

	v, err := e.EvalInput(input)
	if err != nil {
		// EvalInput has already printed the diagnostic excerpt to e.Stderr.
		return cli.NewExitError("", 1)
	}
	fmt.Fprintln(os.Stdout, v.DisplayString())
	return nil
}
