// Package simulate is a reference interpreter for the LFC instruction
// set, used only by tests to check a compiled program's observable
// behaviour end to end instead of hand-verifying instruction
// sequences. It runs a plain fetch-decode-execute loop over a 32-entry
// signed stack with GPIO-mapped negative addresses. This is test
// infrastructure only — nothing in the compiled toolchain imports it.
package simulate

import (
	"fmt"

	"lflc/asm"
	"lflc/isa"
)

const stackSize = 32

// RuntimeError reports a failure encountered while executing a program:
// stack overflow/underflow, an out-of-range stack address, division by
// zero, RET with no active call, an undefined opcode, or exceeding the
// step limit.
type RuntimeError struct {
	IP      int
	Message string
}

func (e RuntimeError) Error() string {
	return fmt.Sprintf("runtime error at instruction %d: %s", e.IP, e.Message)
}

// Machine is the LFC reference interpreter: a 32-entry signed stack, a
// GPIO address space, and a call stack of return addresses.
type Machine struct {
	instrs []asm.Instruction
	stack  []int32
	ip     int // 1-indexed, the address of the next instruction to execute
	gpio   map[int]int32
	calls  []int // return addresses, one per active call
	Steps  int
}

// New constructs a Machine ready to execute instrs from address 1.
func New(instrs []asm.Instruction) *Machine {
	return &Machine{instrs: instrs, ip: 1, gpio: map[int]int32{}}
}

// SetGPIO sets the value observed at signal_k's read address before
// execution begins (simulating external input).
func (m *Machine) SetGPIO(k int, value int32) {
	m.gpio[isa.ReadAddress(k)] = value
}

// GPIOWrite returns the most recent value written to signal_k, or 0 if
// the program never wrote it.
func (m *Machine) GPIOWrite(k int) int32 {
	return m.gpio[isa.WriteAddress(k)]
}

func (m *Machine) push(v int32) error {
	if len(m.stack) >= stackSize {
		return RuntimeError{IP: m.ip, Message: "stack overflow"}
	}
	m.stack = append(m.stack, v)
	return nil
}

func (m *Machine) pop() (int32, error) {
	if len(m.stack) == 0 {
		return 0, RuntimeError{IP: m.ip, Message: "stack underflow"}
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v, nil
}

func (m *Machine) top(addr int) (int32, error) {
	if addr < 1 || addr > len(m.stack) {
		return 0, RuntimeError{IP: m.ip, Message: fmt.Sprintf("stack address %d out of range", addr)}
	}
	return m.stack[len(m.stack)-addr], nil
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

const maxSteps = 1_000_000

// Run executes the program starting at address 1 until it jumps
// outside ROM (the compiler always appends one such jump, to address
// 0, right after the call to "main") or a runtime error occurs.
func (m *Machine) Run() error {
	for {
		if m.ip < 1 || m.ip > len(m.instrs) {
			return nil
		}
		if m.Steps >= maxSteps {
			return RuntimeError{IP: m.ip, Message: "exceeded maximum step count"}
		}
		m.Steps++

		in := m.instrs[m.ip-1]
		if err := m.step(in); err != nil {
			return err
		}
	}
}

func (m *Machine) step(in asm.Instruction) error {
	next := m.ip + 1
	switch in.Op {
	case isa.CNST:
		if err := m.push(int32(in.Operand)); err != nil {
			return err
		}
	case isa.LOAD:
		if in.Operand < 0 {
			if err := m.push(m.gpio[in.Operand]); err != nil {
				return err
			}
		} else {
			v, err := m.top(in.Operand)
			if err != nil {
				return err
			}
			if err := m.push(v); err != nil {
				return err
			}
		}
	case isa.SAVE:
		v, err := m.pop()
		if err != nil {
			return err
		}
		if in.Operand < 0 {
			m.gpio[in.Operand] = v
		} else {
			idx := len(m.stack) - in.Operand
			if idx < 0 || idx >= len(m.stack) {
				return RuntimeError{IP: m.ip, Message: fmt.Sprintf("stack address %d out of range", in.Operand)}
			}
			m.stack[idx] = v
		}
	case isa.ADD, isa.SUB, isa.MUL, isa.DIV, isa.REM, isa.XOR, isa.SHL, isa.SHR,
		isa.EQ, isa.NE, isa.GT, isa.LT, isa.GTE, isa.LTE, isa.AND, isa.OR:
		b, err := m.pop()
		if err != nil {
			return err
		}
		a, err := m.pop()
		if err != nil {
			return err
		}
		result, err := binaryOp(in.Op, a, b, m.ip)
		if err != nil {
			return err
		}
		if err := m.push(result); err != nil {
			return err
		}
	case isa.NOT:
		a, err := m.pop()
		if err != nil {
			return err
		}
		if err := m.push(^a); err != nil {
			return err
		}
	case isa.SWAP:
		b, err := m.pop()
		if err != nil {
			return err
		}
		a, err := m.pop()
		if err != nil {
			return err
		}
		if err := m.push(b); err != nil {
			return err
		}
		if err := m.push(a); err != nil {
			return err
		}
	case isa.POP:
		if _, err := m.pop(); err != nil {
			return err
		}
	case isa.JSR:
		m.calls = append(m.calls, next)
		next = in.Operand
	case isa.RET:
		if len(m.calls) == 0 {
			return RuntimeError{IP: m.ip, Message: "return with no active call"}
		}
		next = m.calls[len(m.calls)-1]
		m.calls = m.calls[:len(m.calls)-1]
	case isa.JUMP:
		next = in.Operand
	case isa.JMPIF:
		v, err := m.pop()
		if err != nil {
			return err
		}
		if v != 0 {
			next = in.Operand
		}
	case isa.JMPNIF:
		v, err := m.pop()
		if err != nil {
			return err
		}
		if v == 0 {
			next = in.Operand
		}
	default:
		return RuntimeError{IP: m.ip, Message: fmt.Sprintf("undefined opcode %d", in.Op)}
	}
	m.ip = next
	return nil
}

func binaryOp(op isa.Op, a, b int32, ip int) (int32, error) {
	switch op {
	case isa.ADD:
		return a + b, nil
	case isa.SUB:
		return a - b, nil
	case isa.MUL:
		return a * b, nil
	case isa.DIV:
		if b == 0 {
			return 0, RuntimeError{IP: ip, Message: "division by zero"}
		}
		return a / b, nil
	case isa.REM:
		if b == 0 {
			return 0, RuntimeError{IP: ip, Message: "division by zero"}
		}
		return a % b, nil
	case isa.XOR:
		return a ^ b, nil
	case isa.SHL:
		return a << uint32(b), nil
	case isa.SHR:
		return a >> uint32(b), nil
	case isa.EQ:
		return boolToInt32(a == b), nil
	case isa.NE:
		return boolToInt32(a != b), nil
	case isa.GT:
		return boolToInt32(a > b), nil
	case isa.LT:
		return boolToInt32(a < b), nil
	case isa.GTE:
		return boolToInt32(a >= b), nil
	case isa.LTE:
		return boolToInt32(a <= b), nil
	case isa.AND:
		return a & b, nil
	case isa.OR:
		return a | b, nil
	default:
		return 0, RuntimeError{IP: ip, Message: fmt.Sprintf("not a binary opcode: %d", op)}
	}
}
