// Package codegen lowers a resolved AST onto the LFC stack machine,
// producing a symbolic item stream (labels interleaved with
// instructions) that the asm package later resolves into final
// 1-indexed (opcode, operand) pairs. Splitting emission from label
// resolution is a two-package take on patching jump offsets directly
// into an instruction buffer as they become known (emitPlaceholderJump
// / patchJump in ast_compiler.go); here the placeholder and the patch
// are two different packages instead of two calls on the same buffer.
package codegen

import (
	"fmt"

	"lflc/ast"
	"lflc/isa"
	"lflc/token"
)

// LinkError reports a program-level problem codegen can only discover
// once every function has been seen: no "main" function, or "main"
// declared with parameters or as value-returning.
type LinkError struct {
	Message string
}

func (e LinkError) Error() string {
	return fmt.Sprintf("link error: %s", e.Message)
}

// ItemKind distinguishes a label definition from an instruction in the
// symbolic stream.
type ItemKind int

const (
	ItemLabel ItemKind = iota
	ItemInstr
)

// Item is one entry of the symbolic instruction stream.
type Item struct {
	Kind ItemKind

	Label string // valid when Kind == ItemLabel

	Op     isa.Op // valid when Kind == ItemInstr
	Imm    int    // the operand, when the instruction's operand is a literal value or address
	Target string // the operand, when the instruction's operand is a label reference (JSR/JUMP/JMPIF/JMPNIF)
	Pos    token.Pos
}

func instr(op isa.Op, pos token.Pos) Item {
	return Item{Kind: ItemInstr, Op: op, Pos: pos}
}

func instrImm(op isa.Op, imm int, pos token.Pos) Item {
	return Item{Kind: ItemInstr, Op: op, Imm: imm, Pos: pos}
}

func instrTarget(op isa.Op, target string, pos token.Pos) Item {
	return Item{Kind: ItemInstr, Op: op, Target: target, Pos: pos}
}

func label(name string) Item {
	return Item{Kind: ItemLabel, Label: name}
}

// Generate lowers an entire resolved Program into a symbolic item
// stream, prefixed with the startup sequence that calls "main" and
// then jumps to address 0: there is no HALT opcode, so the generator
// relies on the ISA's rule that any jump outside ROM halts the machine.
func Generate(prog *ast.Program) ([]Item, error) {
	var mainSig *ast.FuncSig
	for _, fn := range prog.Functions {
		if fn.Name == "main" {
			mainSig = &ast.FuncSig{Name: "main", Arity: len(fn.Params), ReturnsValue: fn.ReturnsValue, Label: "fn_main"}
		}
	}
	if mainSig == nil {
		return nil, LinkError{Message: "no \"main\" function declared"}
	}
	if mainSig.Arity != 0 {
		return nil, LinkError{Message: "\"main\" must take no parameters"}
	}
	if mainSig.ReturnsValue {
		return nil, LinkError{Message: "\"main\" must be declared void"}
	}

	var items []Item
	items = append(items, instrTarget(isa.JSR, mainSig.Label, token.Pos{}))
	items = append(items, instrImm(isa.JUMP, 0, token.Pos{}))

	for _, fn := range prog.Functions {
		fnItems, err := generateFunction(fn)
		if err != nil {
			return nil, err
		}
		items = append(items, fnItems...)
	}
	return items, nil
}

type loopLabels struct {
	continueLabel string
	breakLabel    string
}

type funcGen struct {
	fn        *ast.Function
	items     []Item
	depth     int
	labelSeq  int
	loopStack []loopLabels
}

func generateFunction(fn *ast.Function) ([]Item, error) {
	g := &funcGen{fn: fn}
	g.emit(label("fn_" + fn.Name))

	for i := len(fn.Params); i < fn.NumLocals; i++ {
		g.emit(instrImm(isa.CNST, 0, fn.Pos))
	}

	for _, stmt := range fn.Body.Stmts {
		if err := stmt.Accept(g); err != nil {
			return nil, err
		}
	}

	if !fn.ReturnsValue && !endsInReturn(fn.Body) {
		g.emitVoidEpilogue(fn.Pos)
	}

	return g.items, nil
}

func endsInReturn(b *ast.Block) bool {
	if len(b.Stmts) == 0 {
		return false
	}
	_, ok := b.Stmts[len(b.Stmts)-1].(*ast.ReturnStmt)
	return ok
}

func (g *funcGen) emit(it Item) {
	g.items = append(g.items, it)
}

// emitVoidEpilogue drops the function's L locals with a bare POP each,
// then returns with nothing left on top of the caller's frame.
func (g *funcGen) emitVoidEpilogue(pos token.Pos) {
	for i := 0; i < g.fn.NumLocals; i++ {
		g.emit(instr(isa.POP, pos))
	}
	g.emit(instr(isa.RET, pos))
}

// emitValueEpilogue assumes the return value already sits on top of the
// function's L locals. Each `SAVE 1` pops that top value and writes it
// one slot further down, overwriting the local directly beneath it;
// repeated L times this walks the value down through every local slot,
// collapsing them one at a time while leaving the value on top. RET
// itself carries no operand: the caller's frame is already exactly the
// shape RET expects by the time it executes.
func (g *funcGen) emitValueEpilogue(pos token.Pos) {
	for i := 0; i < g.fn.NumLocals; i++ {
		g.emit(instrImm(isa.SAVE, 1, pos))
	}
	g.emit(instr(isa.RET, pos))
}

func (g *funcGen) newLabel(prefix string) string {
	g.labelSeq++
	return fmt.Sprintf("%s_%s_%d", prefix, g.fn.Name, g.labelSeq)
}

// localAddr computes a LOAD/SAVE address for a local at the given slot,
// per the stack discipline invariant: the local is (NumLocals - slot)
// positions below the frame's original top, plus however many
// transient values (depth) are currently pushed above the frame.
func (g *funcGen) localAddr(slot int) int {
	return g.fn.NumLocals - slot + g.depth
}

func bindingLoadAddr(g *funcGen, b ast.Binding) int {
	if b.Kind == ast.BindGPIO {
		return isa.ReadAddress(b.GPIO)
	}
	return g.localAddr(b.Slot)
}

func bindingStoreAddr(g *funcGen, b ast.Binding) int {
	if b.Kind == ast.BindGPIO {
		return isa.WriteAddress(b.GPIO)
	}
	// SAVE pops the value before addressing the stack, so the address is
	// one less than a read at the current depth (value included) would use.
	return g.fn.NumLocals - b.Slot + g.depth - 1
}

var binaryOps = map[token.Kind]isa.Op{
	token.ADD: isa.ADD, token.SUB: isa.SUB, token.MUL: isa.MUL, token.DIV: isa.DIV,
	token.REM: isa.REM, token.XOR: isa.XOR, token.SHL: isa.SHL, token.SHR: isa.SHR,
	token.LT: isa.LT, token.LE: isa.LTE, token.GT: isa.GT, token.GE: isa.GTE,
	token.EQ: isa.EQ, token.NE: isa.NE, token.AND: isa.AND, token.OR: isa.OR,
}

// ---- ast.ExprVisitor --------------------------------------------------

func (g *funcGen) VisitIntLit(e *ast.IntLit) (any, error) {
	g.emit(instrImm(isa.CNST, int(e.Value), e.Pos))
	g.depth++
	return nil, nil
}

func (g *funcGen) VisitVar(e *ast.VarExpr) (any, error) {
	g.emit(instrImm(isa.LOAD, bindingLoadAddr(g, e.Binding), e.Pos))
	g.depth++
	return nil, nil
}

func (g *funcGen) VisitCall(e *ast.CallExpr) (any, error) {
	for _, a := range e.Args {
		if _, err := a.Accept(g); err != nil {
			return nil, err
		}
	}
	g.emit(instrTarget(isa.JSR, e.Sig.Label, e.Pos))
	g.depth -= len(e.Args)
	if e.Sig.ReturnsValue {
		g.depth++
	}
	return nil, nil
}

func (g *funcGen) VisitUnary(e *ast.UnaryExpr) (any, error) {
	switch e.Op {
	case token.NOT:
		if _, err := e.Operand.Accept(g); err != nil {
			return nil, err
		}
		g.emit(instr(isa.NOT, e.Pos))
		return nil, nil
	case token.SUB:
		g.emit(instrImm(isa.CNST, 0, e.Pos))
		g.depth++
		if _, err := e.Operand.Accept(g); err != nil {
			return nil, err
		}
		g.emit(instr(isa.SUB, e.Pos))
		g.depth--
		return nil, nil
	default:
		return nil, fmt.Errorf("codegen: unsupported unary operator %q", e.Op)
	}
}

func (g *funcGen) VisitBinary(e *ast.BinaryExpr) (any, error) {
	if _, err := e.Left.Accept(g); err != nil {
		return nil, err
	}
	if _, err := e.Right.Accept(g); err != nil {
		return nil, err
	}
	op, ok := binaryOps[e.Op]
	if !ok {
		return nil, fmt.Errorf("codegen: unsupported binary operator %q", e.Op)
	}
	g.emit(instr(op, e.Pos))
	g.depth--
	return nil, nil
}

// ---- ast.StmtVisitor --------------------------------------------------

func (g *funcGen) VisitAssign(s *ast.AssignStmt) error {
	if _, err := s.Expr.Accept(g); err != nil {
		return err
	}
	g.emit(instrImm(isa.SAVE, bindingStoreAddr(g, s.Binding), s.Pos))
	g.depth--
	return nil
}

func (g *funcGen) VisitCompoundAssign(s *ast.CompoundAssignStmt) error {
	op, ok := binaryOps[s.Op]
	if !ok {
		return fmt.Errorf("codegen: unsupported compound-assignment operator %q", s.Op)
	}
	g.emit(instrImm(isa.LOAD, bindingLoadAddr(g, s.Binding), s.Pos))
	g.depth++
	if _, err := s.Expr.Accept(g); err != nil {
		return err
	}
	g.emit(instr(op, s.Pos))
	g.depth--
	g.emit(instrImm(isa.SAVE, bindingStoreAddr(g, s.Binding), s.Pos))
	g.depth--
	return nil
}

func (g *funcGen) VisitExprStmt(s *ast.ExprStmt) error {
	_, err := s.Call.Accept(g)
	return err
}

func (g *funcGen) VisitIf(s *ast.IfStmt) error {
	endLabel := g.newLabel("if_end")
	for i, branch := range s.Branches {
		if _, err := branch.Cond.Accept(g); err != nil {
			return err
		}
		nextLabel := g.newLabel(fmt.Sprintf("if_next%d", i))
		g.emit(instrTarget(isa.JMPNIF, nextLabel, s.Pos))
		g.depth--
		for _, stmt := range branch.Body.Stmts {
			if err := stmt.Accept(g); err != nil {
				return err
			}
		}
		g.emit(instrTarget(isa.JUMP, endLabel, s.Pos))
		g.emit(label(nextLabel))
	}
	if s.Else != nil {
		for _, stmt := range s.Else.Stmts {
			if err := stmt.Accept(g); err != nil {
				return err
			}
		}
	}
	g.emit(label(endLabel))
	return nil
}

func (g *funcGen) VisitWhile(s *ast.WhileStmt) error {
	startLbl := g.newLabel("while_start")
	endLbl := g.newLabel("while_end")
	g.emit(label(startLbl))
	if _, err := s.Cond.Accept(g); err != nil {
		return err
	}
	g.emit(instrTarget(isa.JMPNIF, endLbl, s.Pos))
	g.depth--

	g.loopStack = append(g.loopStack, loopLabels{continueLabel: startLbl, breakLabel: endLbl})
	for _, stmt := range s.Body.Stmts {
		if err := stmt.Accept(g); err != nil {
			return err
		}
	}
	g.loopStack = g.loopStack[:len(g.loopStack)-1]

	g.emit(instrTarget(isa.JUMP, startLbl, s.Pos))
	g.emit(label(endLbl))
	return nil
}

func (g *funcGen) VisitReturn(s *ast.ReturnStmt) error {
	if s.Expr != nil {
		if _, err := s.Expr.Accept(g); err != nil {
			return err
		}
		g.emitValueEpilogue(s.Pos)
		return nil
	}
	g.emitVoidEpilogue(s.Pos)
	return nil
}

func (g *funcGen) VisitBreak(s *ast.BreakStmt) error {
	lbl := g.loopStack[len(g.loopStack)-1]
	g.emit(instrTarget(isa.JUMP, lbl.breakLabel, s.Pos))
	return nil
}

func (g *funcGen) VisitContinue(s *ast.ContinueStmt) error {
	lbl := g.loopStack[len(g.loopStack)-1]
	g.emit(instrTarget(isa.JUMP, lbl.continueLabel, s.Pos))
	return nil
}
