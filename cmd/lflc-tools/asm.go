package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"lflc/asm"
	"lflc/codegen"
	"lflc/lexer"
	"lflc/parser"
	"lflc/resolve"
)

// asmCmd runs the full front end and code generator and prints the
// assembly listing, stopping short of blueprint emission.
type asmCmd struct{}

func (*asmCmd) Name() string     { return "asm" }
func (*asmCmd) Synopsis() string { return "Dump the assembly listing for an LFL source file" }
func (*asmCmd) Usage() string {
	return `asm <path>.lfl:
  Print the assembly listing without emitting a blueprint.
`
}
func (*asmCmd) SetFlags(f *flag.FlagSet) {}

func (*asmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	listing, err := assemble(string(data))
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return subcommands.ExitFailure
	}

	fmt.Print(listing)
	return subcommands.ExitSuccess
}

// assemble runs lex/parse/resolve/codegen/asm over src and formats the
// resulting instruction listing, without the blueprint emitter.
func assemble(src string) (string, error) {
	tokens, err := lexer.New(src).Scan()
	if err != nil {
		return "", err
	}
	prog, err := parser.Parse(tokens)
	if err != nil {
		return "", err
	}
	if err := resolve.Resolve(prog); err != nil {
		return "", err
	}
	items, err := codegen.Generate(prog)
	if err != nil {
		return "", err
	}
	instrs, err := asm.Assemble(items)
	if err != nil {
		return "", err
	}
	return asm.Format(instrs), nil
}
