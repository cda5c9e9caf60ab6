package main

import (
	"testing"

	"lflc/ast"
	"lflc/lexer"
	"lflc/parser"
	"lflc/resolve"
)

func resolveProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	tokens, err := lexer.New(src).Scan()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	prog, err := parser.Parse(tokens)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if err := resolve.Resolve(prog); err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	return prog
}

func TestCollectBindingsFindsLocalsAndGPIO(t *testing.T) {
	prog := resolveProgram(t, `void main() {
		x = 1;
		signal_1 = x;
	}`)

	bindings := collectBindings(prog.Functions[0].Body)

	x, ok := bindings["x"]
	if !ok || x.Kind != ast.BindLocal || x.Slot != 0 {
		t.Errorf("x binding = %+v, want local slot 0", x)
	}
	sig, ok := bindings["signal_1"]
	if !ok || sig.Kind != ast.BindGPIO || sig.GPIO != 1 {
		t.Errorf("signal_1 binding = %+v, want GPIO 1", sig)
	}
}

func TestCollectBindingsWalksIfAndWhile(t *testing.T) {
	prog := resolveProgram(t, `void main() {
		i = 0;
		while (i < 3) {
			if (i == 1) { signal_2 = i; }
			i = i + 1;
		}
	}`)

	bindings := collectBindings(prog.Functions[0].Body)
	if _, ok := bindings["i"]; !ok {
		t.Error("expected binding for i")
	}
	if _, ok := bindings["signal_2"]; !ok {
		t.Error("expected binding for signal_2")
	}
}
