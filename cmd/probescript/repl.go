// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/peterh/liner"
	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/probescript/builtin"
	"github.com/probechain/probescript/ecc"
	"github.com/probechain/probescript/runtime"
)

var replCommand = cli.Command{
	Name:   "repl",
	Usage:  "start an interactive read-eval-print loop",
	Action: replAction,
}

func replAction(ctx *cli.Context) error {
	cfg, err := loadEngineConfig(ctx)
	if err != nil {
		return err
	}

	e := ecc.New(cfg)
	defer e.Destroy()
	builtin.Install(e)

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	counter := 0
	for {
		source, err := line.Prompt("probescript> ")
		if err == liner.ErrPromptAborted || err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if source == "" {
			continue
		}
		line.AppendHistory(source)
		counter++

		input := ecc.CreateInputFromBytes([]byte(source), fmt.Sprintf("(repl:%d)", counter))
		v, err := e.EvalInput(input)
		if err != nil {
			// EvalInput already printed the diagnostic excerpt to e.Stderr.
			continue
		}
		if v.Kind != runtime.KindUndefined {
			fmt.Fprintln(os.Stdout, v.DisplayString())
		}
	}
}
