// Package compile orchestrates the full pipeline from source text to
// a ROM blueprint string, the entry point cmd/lflc calls into.
// cmd/lflc-tools runs the phases itself and does not use this package.
package compile

import (
	"lflc/asm"
	"lflc/blueprint"
	"lflc/codegen"
	"lflc/lexer"
	"lflc/parser"
	"lflc/resolve"
)

// Result carries every intermediate artifact a caller might want: the
// final instruction list, its assembly listing, and the blueprint
// string.
type Result struct {
	Instructions []asm.Instruction
	Assembly     string
	Blueprint    string
}

// Source lexes, parses, resolves, generates, assembles and emits a
// complete LFL program, stopping and returning at the first error any
// phase reports.
func Source(src string) (*Result, error) {
	tokens, err := lexer.New(src).Scan()
	if err != nil {
		return nil, err
	}

	prog, err := parser.Parse(tokens)
	if err != nil {
		return nil, err
	}

	if err := resolve.Resolve(prog); err != nil {
		return nil, err
	}

	items, err := codegen.Generate(prog)
	if err != nil {
		return nil, err
	}

	instrs, err := asm.Assemble(items)
	if err != nil {
		return nil, err
	}

	bp, err := blueprint.Emit(instrs)
	if err != nil {
		return nil, err
	}

	return &Result{
		Instructions: instrs,
		Assembly:     asm.Format(instrs),
		Blueprint:    bp,
	}, nil
}
