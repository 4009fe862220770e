// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package main

import (
	"fmt"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/probechain/probescript/lexer"
	"github.com/probechain/probescript/token"
)

var tokensCommand = cli.Command{
	Name:      "tokens",
	Usage:     "lex a script file and print its token stream",
	ArgsUsage: "<file.js>",
	Action:    tokensAction,
}

func tokensAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("tokens: expected exactly one script file argument", 2)
	}
	source, err := os.ReadFile(ctx.Args()[0])
	if err != nil {
		return err
	}

	l := lexer.New(ctx.Args()[0], source)
	for {
		tok, err := l.Next()
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%-6s %-16s %q\n", tok.Pos, tok.Type, tok.Text.String())
		if tok.Type == token.EOF {
			return nil
		}
	}
}
