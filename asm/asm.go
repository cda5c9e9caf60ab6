// Package asm resolves a codegen symbolic item stream into the final
// 1-indexed (opcode, operand) instruction list, and formats that list
// as a human-readable assembly listing. It is a separate pass from
// codegen so that jump/call targets are plain strings until the whole
// program's layout is known: emission and patching become two
// explicit phases instead of one pass that backfills placeholders.
package asm

import (
	"fmt"
	"strings"

	"lflc/codegen"
	"lflc/isa"
)

// LinkError reports a symbolic label referenced by a jump or call but
// never defined.
type LinkError struct {
	Label string
}

func (e LinkError) Error() string {
	return fmt.Sprintf("link error: undefined label %q", e.Label)
}

// Instruction is one final, resolved instruction: a 1-indexed address
// (its own position in Program) holding an opcode and an operand.
type Instruction struct {
	Op      isa.Op
	Operand int
}

// Assemble resolves every label reference in items and returns the
// final instruction list, 1-indexed per the target machine's addressing.
func Assemble(items []codegen.Item) ([]Instruction, error) {
	addrs := map[string]int{}
	addr := 1
	for _, it := range items {
		switch it.Kind {
		case codegen.ItemLabel:
			addrs[it.Label] = addr
		case codegen.ItemInstr:
			addr++
		}
	}

	var out []Instruction
	for _, it := range items {
		if it.Kind != codegen.ItemInstr {
			continue
		}
		operand := it.Imm
		if it.Target != "" {
			target, ok := addrs[it.Target]
			if !ok {
				return nil, LinkError{Label: it.Target}
			}
			operand = target
		}
		out = append(out, Instruction{Op: it.Op, Operand: operand})
	}
	return out, nil
}

// Format renders the resolved instruction list as the listing format
// "NNNN  MNEMONIC [OPERAND]", one instruction per line, addresses
// 1-indexed and left-padded to four digits.
func Format(instrs []Instruction) string {
	var b strings.Builder
	for i, in := range instrs {
		fmt.Fprintf(&b, "%04d  %s", i+1, isa.Mnemonic(in.Op))
		if isa.HasOperand(in.Op) {
			fmt.Fprintf(&b, " %d", in.Operand)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
