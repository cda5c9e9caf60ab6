package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/google/subcommands"

	"lflc/ast"
	"lflc/lexer"
	"lflc/parser"
	"lflc/resolve"
)

// resolveCmd resolves a program and dumps, per function, each local's
// slot and each GPIO signal binding it uses.
type resolveCmd struct{}

func (*resolveCmd) Name() string { return "resolve" }
func (*resolveCmd) Synopsis() string {
	return "Resolve an LFL source file and dump its bindings"
}
func (*resolveCmd) Usage() string {
	return `resolve <path>.lfl:
  Print each function's local slots and GPIO bindings.
`
}
func (*resolveCmd) SetFlags(f *flag.FlagSet) {}

func (*resolveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	tokens, err := lexer.New(string(data)).Scan()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return subcommands.ExitFailure
	}

	prog, err := parser.Parse(tokens)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return subcommands.ExitFailure
	}

	if err := resolve.Resolve(prog); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return subcommands.ExitFailure
	}

	for _, fn := range prog.Functions {
		fmt.Printf("func %s (locals: %d)\n", fn.Name, fn.NumLocals)
		bindings := collectBindings(fn.Body)
		names := make([]string, 0, len(bindings))
		for name := range bindings {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			b := bindings[name]
			switch b.Kind {
			case ast.BindLocal:
				fmt.Printf("  %s -> local slot %d\n", name, b.Slot)
			case ast.BindGPIO:
				fmt.Printf("  %s -> signal_%d\n", name, b.GPIO)
			}
		}
	}
	return subcommands.ExitSuccess
}

// bindingCollector walks a resolved function body recording the first
// binding seen for each referenced name.
type bindingCollector struct {
	bindings map[string]ast.Binding
}

func collectBindings(b *ast.Block) map[string]ast.Binding {
	c := &bindingCollector{bindings: map[string]ast.Binding{}}
	c.block(b)
	return c.bindings
}

func (c *bindingCollector) record(name string, b ast.Binding) {
	if _, ok := c.bindings[name]; !ok {
		c.bindings[name] = b
	}
}

func (c *bindingCollector) block(b *ast.Block) {
	for _, s := range b.Stmts {
		_ = s.Accept(c)
	}
}

func (c *bindingCollector) expr(e ast.Expr) {
	if e == nil {
		return
	}
	_, _ = e.Accept(c)
}

func (c *bindingCollector) VisitAssign(s *ast.AssignStmt) error {
	c.record(s.Name, s.Binding)
	c.expr(s.Expr)
	return nil
}

func (c *bindingCollector) VisitCompoundAssign(s *ast.CompoundAssignStmt) error {
	c.record(s.Name, s.Binding)
	c.expr(s.Expr)
	return nil
}

func (c *bindingCollector) VisitExprStmt(s *ast.ExprStmt) error {
	c.expr(s.Call)
	return nil
}

func (c *bindingCollector) VisitIf(s *ast.IfStmt) error {
	for _, branch := range s.Branches {
		c.expr(branch.Cond)
		c.block(branch.Body)
	}
	if s.Else != nil {
		c.block(s.Else)
	}
	return nil
}

func (c *bindingCollector) VisitWhile(s *ast.WhileStmt) error {
	c.expr(s.Cond)
	c.block(s.Body)
	return nil
}

func (c *bindingCollector) VisitReturn(s *ast.ReturnStmt) error {
	c.expr(s.Expr)
	return nil
}

func (c *bindingCollector) VisitBreak(s *ast.BreakStmt) error       { return nil }
func (c *bindingCollector) VisitContinue(s *ast.ContinueStmt) error { return nil }

func (c *bindingCollector) VisitIntLit(e *ast.IntLit) (any, error) { return nil, nil }

func (c *bindingCollector) VisitVar(e *ast.VarExpr) (any, error) {
	c.record(e.Name, e.Binding)
	return nil, nil
}

func (c *bindingCollector) VisitCall(e *ast.CallExpr) (any, error) {
	for _, a := range e.Args {
		c.expr(a)
	}
	return nil, nil
}

func (c *bindingCollector) VisitUnary(e *ast.UnaryExpr) (any, error) {
	c.expr(e.Operand)
	return nil, nil
}

func (c *bindingCollector) VisitBinary(e *ast.BinaryExpr) (any, error) {
	c.expr(e.Left)
	c.expr(e.Right)
	return nil, nil
}
