package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"
)

// replCmd is an interactive compile loop: the user types a whole
// program (functions and all), a blank line submits it, and the
// resulting assembly listing is printed.
type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Interactively compile LFL snippets" }
func (*replCmd) Usage() string {
	return `repl:
  Type a program, finish with a blank line, see its assembly listing.
  Type "exit" on its own line to quit.
`
}
func (*replCmd) SetFlags(f *flag.FlagSet) {}

func (*replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rl, err := readline.New(">>> ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to start readline: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	fmt.Println("LFL REPL — type a program, finish with a blank line, \"exit\" to quit.")

	var buffer strings.Builder
	for {
		if buffer.Len() == 0 {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}

		line, err := rl.Readline()
		if err != nil { // io.EOF or readline.ErrInterrupt
			if err == io.EOF || err == readline.ErrInterrupt {
				return subcommands.ExitSuccess
			}
			fmt.Fprintf(os.Stderr, "💥 %v\n", err)
			return subcommands.ExitFailure
		}

		if strings.TrimSpace(line) == "exit" && buffer.Len() == 0 {
			return subcommands.ExitSuccess
		}

		if strings.TrimSpace(line) == "" {
			if buffer.Len() == 0 {
				continue
			}
			listing, err := assemble(buffer.String())
			if err != nil {
				fmt.Println(err.Error())
			} else {
				fmt.Print(listing)
			}
			buffer.Reset()
			continue
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)
	}
}
