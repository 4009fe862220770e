// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package main

import (
	"fmt"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/probescript/parser"
	"github.com/probechain/probescript/runtime"
)

var opsCommand = cli.Command{
	Name:      "ops",
	Usage:     "parse a script file and print its compiled OpList",
	ArgsUsage: "<file.js>",
	Action:    opsAction,
}

func opsAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("ops: expected exactly one script file argument", 2)
	}
	source, err := os.ReadFile(ctx.Args()[0])
	if err != nil {
		return err
	}

	pool := runtime.NewPool()
	ops, err := parser.Parse(pool, ctx.Args()[0], source)
	if err != nil {
		return err
	}
	for i, op := range ops.Ops {
		fmt.Fprintf(os.Stdout, "%4d  %-18s %-12q %s\n", i, op.Kind, op.Value.DisplayString(), op.Text.String())
	}
	return nil
}
