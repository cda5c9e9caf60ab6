package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"lflc/lexer"
)

// lexCmd dumps the token stream for a source file, one token per line.
type lexCmd struct{}

func (*lexCmd) Name() string     { return "lex" }
func (*lexCmd) Synopsis() string { return "Dump the token stream for an LFL source file" }
func (*lexCmd) Usage() string {
	return `lex <path>.lfl:
  Print each token the lexer produces, one per line.
`
}
func (*lexCmd) SetFlags(f *flag.FlagSet) {}

func (*lexCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "💥 file not provided")
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	tokens, err := lexer.New(string(data)).Scan()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return subcommands.ExitFailure
	}

	for _, tok := range tokens {
		fmt.Println(tok.String())
	}
	return subcommands.ExitSuccess
}
