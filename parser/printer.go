package parser

import (
	"encoding/json"

	"lflc/ast"
)

// astPrinter implements ast.StmtVisitor and ast.ExprVisitor, building a
// JSON-friendly representation of the tree out of maps and slices, one
// method per node kind stashing its result for the caller to collect.
type astPrinter struct {
	result any
}

func dumpExpr(e ast.Expr) any {
	p := &astPrinter{}
	if _, err := e.Accept(p); err != nil {
		return nil
	}
	return p.result
}

func dumpStmt(s ast.Stmt) any {
	p := &astPrinter{}
	if err := s.Accept(p); err != nil {
		return nil
	}
	return p.result
}

func dumpBlock(b *ast.Block) any {
	stmts := make([]any, 0, len(b.Stmts))
	for _, s := range b.Stmts {
		stmts = append(stmts, dumpStmt(s))
	}
	return map[string]any{"type": "Block", "statements": stmts}
}

func (p *astPrinter) VisitIntLit(e *ast.IntLit) (any, error) {
	p.result = map[string]any{"type": "IntLit", "value": e.Value}
	return nil, nil
}

func (p *astPrinter) VisitVar(e *ast.VarExpr) (any, error) {
	p.result = map[string]any{"type": "Var", "name": e.Name}
	return nil, nil
}

func (p *astPrinter) VisitCall(e *ast.CallExpr) (any, error) {
	args := make([]any, 0, len(e.Args))
	for _, a := range e.Args {
		args = append(args, dumpExpr(a))
	}
	p.result = map[string]any{"type": "Call", "name": e.Name, "args": args}
	return nil, nil
}

func (p *astPrinter) VisitUnary(e *ast.UnaryExpr) (any, error) {
	p.result = map[string]any{"type": "Unary", "op": string(e.Op), "operand": dumpExpr(e.Operand)}
	return nil, nil
}

func (p *astPrinter) VisitBinary(e *ast.BinaryExpr) (any, error) {
	p.result = map[string]any{
		"type": "Binary", "op": string(e.Op),
		"left": dumpExpr(e.Left), "right": dumpExpr(e.Right),
	}
	return nil, nil
}

func (p *astPrinter) VisitAssign(s *ast.AssignStmt) error {
	p.result = map[string]any{"type": "Assign", "name": s.Name, "expr": dumpExpr(s.Expr)}
	return nil
}

func (p *astPrinter) VisitCompoundAssign(s *ast.CompoundAssignStmt) error {
	p.result = map[string]any{
		"type": "CompoundAssign", "name": s.Name, "op": string(s.Op), "expr": dumpExpr(s.Expr),
	}
	return nil
}

func (p *astPrinter) VisitExprStmt(s *ast.ExprStmt) error {
	p.result = map[string]any{"type": "ExprStmt", "call": dumpExpr(s.Call)}
	return nil
}

func (p *astPrinter) VisitIf(s *ast.IfStmt) error {
	branches := make([]any, 0, len(s.Branches))
	for _, b := range s.Branches {
		branches = append(branches, map[string]any{"cond": dumpExpr(b.Cond), "body": dumpBlock(b.Body)})
	}
	var elseVal any
	if s.Else != nil {
		elseVal = dumpBlock(s.Else)
	}
	p.result = map[string]any{"type": "If", "branches": branches, "else": elseVal}
	return nil
}

func (p *astPrinter) VisitWhile(s *ast.WhileStmt) error {
	p.result = map[string]any{"type": "While", "cond": dumpExpr(s.Cond), "body": dumpBlock(s.Body)}
	return nil
}

func (p *astPrinter) VisitReturn(s *ast.ReturnStmt) error {
	var exprVal any
	if s.Expr != nil {
		exprVal = dumpExpr(s.Expr)
	}
	p.result = map[string]any{"type": "Return", "expr": exprVal}
	return nil
}

func (p *astPrinter) VisitBreak(s *ast.BreakStmt) error {
	p.result = map[string]any{"type": "Break"}
	return nil
}

func (p *astPrinter) VisitContinue(s *ast.ContinueStmt) error {
	p.result = map[string]any{"type": "Continue"}
	return nil
}

func dumpFunction(fn *ast.Function) any {
	return map[string]any{
		"type":         "Function",
		"name":         fn.Name,
		"params":       fn.Params,
		"returnsValue": fn.ReturnsValue,
		"body":         dumpBlock(fn.Body),
	}
}

// DumpJSON renders a Program as prettified JSON, one object per
// function in declaration order.
func DumpJSON(prog *ast.Program) (string, error) {
	out := make([]any, 0, len(prog.Functions))
	for _, fn := range prog.Functions {
		out = append(out, dumpFunction(fn))
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
