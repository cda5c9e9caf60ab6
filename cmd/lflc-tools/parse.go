package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"lflc/lexer"
	"lflc/parser"
)

// parseCmd dumps the parsed AST as JSON, without resolving names.
type parseCmd struct{}

func (*parseCmd) Name() string     { return "parse" }
func (*parseCmd) Synopsis() string { return "Dump the parsed AST for an LFL source file as JSON" }
func (*parseCmd) Usage() string {
	return `parse <path>.lfl:
  Print the parsed AST as prettified JSON.
`
}
func (*parseCmd) SetFlags(f *flag.FlagSet) {}

func (*parseCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	prog, err := parser.Parse(tokens)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return subcommands.ExitFailure
	}

	out, err := parser.DumpJSON(prog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to render AST: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Println(out)
	return subcommands.ExitSuccess
}
