// Package resolve performs name resolution and semantic checking over
// a parsed Program: it collects function signatures, binds every
// variable reference to a local slot or a GPIO signal, assigns local
// slots in first-assignment order, and checks control-flow and
// arity/return-kind rules. It is a dedicated pass over a locals table
// (declare-on-first-assignment, resolve on every later reference) that
// only annotates the tree rather than also emitting code.
package resolve

import (
	"fmt"
	"strconv"
	"strings"

	"lflc/ast"
	"lflc/token"
)

// NameError reports an undefined or misused name: an unknown variable,
// an unknown function, a duplicate function declaration, or a call
// with the wrong number of arguments.
type NameError struct {
	Pos     token.Pos
	Message string
}

func (e NameError) Error() string {
	return fmt.Sprintf("name error at %s: %s", e.Pos, e.Message)
}

// SemError reports a structural or value-range violation: break/continue
// outside a loop, a return statement that disagrees with its function's
// declared kind, a value function whose body doesn't end in a return, a
// value-returning call used as a statement, or an integer literal outside
// the signed 32-bit range.
type SemError struct {
	Pos     token.Pos
	Message string
}

func (e SemError) Error() string {
	return fmt.Sprintf("semantic error at %s: %s", e.Pos, e.Message)
}

// Resolve performs both passes over prog, annotating every AssignStmt,
// CompoundAssignStmt, VarExpr and CallExpr with a Binding or FuncSig,
// and every Function with its NumLocals. It returns the first error
// encountered.
func Resolve(prog *ast.Program) error {
	funcs, err := collectSignatures(prog)
	if err != nil {
		return err
	}
	for _, fn := range prog.Functions {
		r := &resolver{funcs: funcs, fn: fn, locals: map[string]int{}}
		if err := r.resolveFunction(); err != nil {
			return err
		}
	}
	return nil
}

func collectSignatures(prog *ast.Program) (map[string]*ast.FuncSig, error) {
	funcs := map[string]*ast.FuncSig{}
	for _, fn := range prog.Functions {
		if _, exists := funcs[fn.Name]; exists {
			return nil, NameError{Pos: fn.Pos, Message: fmt.Sprintf("function %q is declared more than once", fn.Name)}
		}
		funcs[fn.Name] = &ast.FuncSig{
			Name:         fn.Name,
			Arity:        len(fn.Params),
			ReturnsValue: fn.ReturnsValue,
			Label:        "fn_" + fn.Name,
		}
	}
	return funcs, nil
}

// gpioSignal reports whether name spells "signal_k" for k in 1..5, and
// if so returns k.
func gpioSignal(name string) (int, bool) {
	const prefix = "signal_"
	if !strings.HasPrefix(name, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(name[len(prefix):])
	if err != nil || n < 1 || n > 5 {
		return 0, false
	}
	return n, true
}

type resolver struct {
	funcs     map[string]*ast.FuncSig
	fn        *ast.Function
	locals    map[string]int
	loopDepth int
}

func (r *resolver) bindingFor(name string, pos token.Pos, declare bool) (ast.Binding, error) {
	if k, ok := gpioSignal(name); ok {
		return ast.Binding{Kind: ast.BindGPIO, GPIO: k}, nil
	}
	if slot, ok := r.locals[name]; ok {
		return ast.Binding{Kind: ast.BindLocal, Slot: slot}, nil
	}
	if declare {
		slot := len(r.locals)
		r.locals[name] = slot
		return ast.Binding{Kind: ast.BindLocal, Slot: slot}, nil
	}
	return ast.Binding{}, NameError{Pos: pos, Message: fmt.Sprintf("undefined name %q", name)}
}

func (r *resolver) resolveFunction() error {
	for i, p := range r.fn.Params {
		r.locals[p] = i
	}

	for _, stmt := range r.fn.Body.Stmts {
		if err := stmt.Accept(r); err != nil {
			return err
		}
	}

	if r.fn.ReturnsValue {
		stmts := r.fn.Body.Stmts
		last, ok := lastStmt(stmts)
		ret, isReturn := last.(*ast.ReturnStmt)
		if !ok || !isReturn || ret.Expr == nil {
			return SemError{Pos: r.fn.Pos, Message: fmt.Sprintf("function %q must end with 'return <expr>;'", r.fn.Name)}
		}
	}

	r.fn.NumLocals = len(r.locals)
	return nil
}

// lastStmt returns the final statement of a block, ok=false if empty.
func lastStmt(stmts []ast.Stmt) (ast.Stmt, bool) {
	if len(stmts) == 0 {
		return nil, false
	}
	return stmts[len(stmts)-1], true
}

func (r *resolver) resolveBlock(b *ast.Block) error {
	for _, stmt := range b.Stmts {
		if err := stmt.Accept(r); err != nil {
			return err
		}
	}
	return nil
}

// ---- StmtVisitor ----------------------------------------------------

func (r *resolver) VisitAssign(s *ast.AssignStmt) error {
	if err := acceptExpr(s.Expr, r); err != nil {
		return err
	}
	binding, err := r.bindingFor(s.Name, s.Pos, true)
	if err != nil {
		return err
	}
	s.Binding = binding
	return nil
}

func (r *resolver) VisitCompoundAssign(s *ast.CompoundAssignStmt) error {
	if err := acceptExpr(s.Expr, r); err != nil {
		return err
	}
	binding, err := r.bindingFor(s.Name, s.Pos, true)
	if err != nil {
		return err
	}
	s.Binding = binding
	return nil
}

func (r *resolver) VisitExprStmt(s *ast.ExprStmt) error {
	if _, err := r.VisitCall(s.Call); err != nil {
		return err
	}
	if s.Call.Sig.ReturnsValue {
		return SemError{Pos: s.Pos, Message: fmt.Sprintf("result of value-returning call to %q is discarded", s.Call.Name)}
	}
	return nil
}

func (r *resolver) VisitIf(s *ast.IfStmt) error {
	for _, branch := range s.Branches {
		if err := acceptExpr(branch.Cond, r); err != nil {
			return err
		}
		if err := r.resolveBlock(branch.Body); err != nil {
			return err
		}
	}
	if s.Else != nil {
		if err := r.resolveBlock(s.Else); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) VisitWhile(s *ast.WhileStmt) error {
	if err := acceptExpr(s.Cond, r); err != nil {
		return err
	}
	r.loopDepth++
	err := r.resolveBlock(s.Body)
	r.loopDepth--
	return err
}

func (r *resolver) VisitReturn(s *ast.ReturnStmt) error {
	if r.fn.ReturnsValue && s.Expr == nil {
		return SemError{Pos: s.Pos, Message: fmt.Sprintf("function %q returns a value but this return has none", r.fn.Name)}
	}
	if !r.fn.ReturnsValue && s.Expr != nil {
		return SemError{Pos: s.Pos, Message: fmt.Sprintf("void function %q cannot return a value", r.fn.Name)}
	}
	if s.Expr != nil {
		return acceptExpr(s.Expr, r)
	}
	return nil
}

func (r *resolver) VisitBreak(s *ast.BreakStmt) error {
	if r.loopDepth == 0 {
		return SemError{Pos: s.Pos, Message: "'break' outside of a while loop"}
	}
	return nil
}

func (r *resolver) VisitContinue(s *ast.ContinueStmt) error {
	if r.loopDepth == 0 {
		return SemError{Pos: s.Pos, Message: "'continue' outside of a while loop"}
	}
	return nil
}

// ---- ExprVisitor ------------------------------------------------------

// acceptExpr adapts Expr.Accept's (any, error) signature for call
// sites that only care about the error.
func acceptExpr(e ast.Expr, v ast.ExprVisitor) error {
	_, err := e.Accept(v)
	return err
}

const (
	minInt32 = -(1 << 31)
	maxInt32 = 1<<31 - 1
)

func (r *resolver) VisitIntLit(e *ast.IntLit) (any, error) {
	if e.Value < minInt32 || e.Value > maxInt32 {
		return nil, SemError{Pos: e.Pos, Message: fmt.Sprintf("integer literal %d is outside the signed 32-bit range", e.Value)}
	}
	return nil, nil
}

func (r *resolver) VisitVar(e *ast.VarExpr) (any, error) {
	binding, err := r.bindingFor(e.Name, e.Pos, false)
	if err != nil {
		return nil, err
	}
	e.Binding = binding
	return nil, nil
}

func (r *resolver) VisitCall(e *ast.CallExpr) (any, error) {
	sig, ok := r.funcs[e.Name]
	if !ok {
		return nil, NameError{Pos: e.Pos, Message: fmt.Sprintf("call to undefined function %q", e.Name)}
	}
	if len(e.Args) != sig.Arity {
		return nil, NameError{Pos: e.Pos, Message: fmt.Sprintf("%q expects %d argument(s), got %d", e.Name, sig.Arity, len(e.Args))}
	}
	for _, a := range e.Args {
		if err := acceptExpr(a, r); err != nil {
			return nil, err
		}
	}
	e.Sig = sig
	return nil, nil
}

func (r *resolver) VisitUnary(e *ast.UnaryExpr) (any, error) {
	return nil, acceptExpr(e.Operand, r)
}

func (r *resolver) VisitBinary(e *ast.BinaryExpr) (any, error) {
	if err := acceptExpr(e.Left, r); err != nil {
		return nil, err
	}
	return nil, acceptExpr(e.Right, r)
}
