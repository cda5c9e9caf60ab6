// Command lflc-tools bundles the development commands used while
// working on the LFL front end and back end: dumping tokens, dumping
// the parsed AST, dumping resolved bindings, dumping an assembly
// listing without emitting a blueprint, and an interactive REPL.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&lexCmd{}, "")
	subcommands.Register(&parseCmd{}, "")
	subcommands.Register(&resolveCmd{}, "")
	subcommands.Register(&asmCmd{}, "")
	subcommands.Register(&replCmd{}, "")

	flag.Parse()
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}
