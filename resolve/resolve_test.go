package resolve

import (
	"testing"

	"lflc/ast"
	"lflc/lexer"
	"lflc/parser"
)

func resolveSrc(t *testing.T, src string) (*ast.Program, error) {
	t.Helper()
	toks, err := lexer.New(src).Scan()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	prog, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return prog, Resolve(prog)
}

func TestResolveAssignsSlotsInFirstUseOrder(t *testing.T) {
	prog, err := resolveSrc(t, `void main() { y = 1; x = 2; }`)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	fn := prog.Functions[0]
	yAssign := fn.Body.Stmts[0].(*ast.AssignStmt)
	xAssign := fn.Body.Stmts[1].(*ast.AssignStmt)
	if yAssign.Binding.Slot != 0 {
		t.Errorf("y slot = %d, want 0", yAssign.Binding.Slot)
	}
	if xAssign.Binding.Slot != 1 {
		t.Errorf("x slot = %d, want 1", xAssign.Binding.Slot)
	}
	if fn.NumLocals != 2 {
		t.Errorf("NumLocals = %d, want 2", fn.NumLocals)
	}
}

func TestResolveParamsOccupyLeadingSlots(t *testing.T) {
	prog, err := resolveSrc(t, `int add(a, b) { return a + b; }`)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	fn := prog.Functions[0]
	if fn.NumLocals != 2 {
		t.Errorf("NumLocals = %d, want 2", fn.NumLocals)
	}
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)
	bin := ret.Expr.(*ast.BinaryExpr)
	a := bin.Left.(*ast.VarExpr)
	b := bin.Right.(*ast.VarExpr)
	if a.Binding.Slot != 0 || b.Binding.Slot != 1 {
		t.Errorf("a.Slot=%d b.Slot=%d, want 0,1", a.Binding.Slot, b.Binding.Slot)
	}
}

func TestResolveGPIOBinding(t *testing.T) {
	prog, err := resolveSrc(t, `void main() { signal_1 = signal_2 + 1; }`)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	assign := prog.Functions[0].Body.Stmts[0].(*ast.AssignStmt)
	if assign.Binding.Kind != ast.BindGPIO || assign.Binding.GPIO != 1 {
		t.Errorf("binding = %+v, want GPIO 1", assign.Binding)
	}
	read := assign.Expr.(*ast.BinaryExpr).Left.(*ast.VarExpr)
	if read.Binding.Kind != ast.BindGPIO || read.Binding.GPIO != 2 {
		t.Errorf("binding = %+v, want GPIO 2", read.Binding)
	}
}

func TestResolveUndefinedFunctionIsNameError(t *testing.T) {
	_, err := resolveSrc(t, `void main() { foo(); }`)
	if _, ok := err.(NameError); !ok {
		t.Fatalf("error type = %T, want NameError", err)
	}
}

func TestResolveArityMismatchIsNameError(t *testing.T) {
	_, err := resolveSrc(t, `int add(a, b) { return a + b; } void main() { x = add(1); }`)
	if _, ok := err.(NameError); !ok {
		t.Fatalf("error type = %T, want NameError", err)
	}
}

func TestResolveDuplicateFunctionIsNameError(t *testing.T) {
	_, err := resolveSrc(t, `void f() {} void f() {}`)
	if _, ok := err.(NameError); !ok {
		t.Fatalf("error type = %T, want NameError", err)
	}
}

func TestResolveBreakOutsideLoopIsSemError(t *testing.T) {
	_, err := resolveSrc(t, `void main() { break; }`)
	if _, ok := err.(SemError); !ok {
		t.Fatalf("error type = %T, want SemError", err)
	}
}

func TestResolveValueFunctionMustEndInReturn(t *testing.T) {
	_, err := resolveSrc(t, `int f() { x = 1; }`)
	if _, ok := err.(SemError); !ok {
		t.Fatalf("error type = %T, want SemError", err)
	}
}

func TestResolveVoidFunctionCannotReturnValue(t *testing.T) {
	_, err := resolveSrc(t, `void f() { return 1; }`)
	if _, ok := err.(SemError); !ok {
		t.Fatalf("error type = %T, want SemError", err)
	}
}

func TestResolveIntegerOutOfRangeIsSemError(t *testing.T) {
	_, err := resolveSrc(t, `void main() { x = 9999999999; }`)
	if _, ok := err.(SemError); !ok {
		t.Fatalf("error type = %T, want SemError", err)
	}
}

func TestResolveDiscardedCallResultIsSemError(t *testing.T) {
	_, err := resolveSrc(t, `int f() { return 1; } void main() { f(); }`)
	if _, ok := err.(SemError); !ok {
		t.Fatalf("error type = %T, want SemError", err)
	}
}
