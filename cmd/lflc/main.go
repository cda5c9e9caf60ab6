// Command lflc compiles a single LFL source file to a Factorio ROM
// blueprint string.
package main

import (
	"flag"
	"fmt"
	"os"

	"lflc/compile"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	fs := flag.NewFlagSet("lflc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	assembly := fs.Bool("assembly", false, "also print the assembly listing before the blueprint")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(stderr, "usage: lflc <path>.lfl [--assembly]")
		return 2
	}

	path := fs.Arg(0)
	// flag parsing stops at the path; parse what follows it so that
	// "lflc prog.lfl --assembly" also sets the flag.
	if err := fs.Parse(fs.Args()[1:]); err != nil {
		return 2
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "💥 cannot read %s: %v\n", path, err)
		return 1
	}

	res, err := compile.Source(string(data))
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}

	if *assembly {
		fmt.Fprint(stdout, res.Assembly)
		fmt.Fprintln(stdout)
	}
	fmt.Fprintln(stdout, res.Blueprint)
	return 0
}
