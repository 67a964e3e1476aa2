// emu_expression.go - Stack-based bytecode evaluator shared by math and logic blocks

/*
 ██▀███   █    ██  ███▄    █  ██▓▄▄▄█████▓   ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██ ▒ ██▒ ██  ▓██▒ ██ ▀█   █ ▓██▒▓  ██▒ ▓▒   ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▓██ ░▄█ ▒▓██  ▒██░▓██  ▀█ ██▒▒██▒▒ ▓██░ ▒░   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
▒██▀▀█▄  ▓▓█  ░██░▓██▒  ▐▌██▒░██░░ ▓██▓ ░    ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██▓ ▒██▒▒▒█████▓ ▒██░   ▓██░░██░  ▒██▒ ░    ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░ ▒▓ ░▒▓░░▒▓▒ ▒ ▒ ░ ▒░   ▒ ▒  ░▓    ▒ ░░     ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒  ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
  ░▒ ░ ▒░░░▒░ ░ ░ ░ ░░   ░ ▒░ ▒ ░    ░        ░ ░  ░░ ░░   ░ ▒░  ░   ░   ▒ ░░ ░░   ░ ▒░ ░ ░  ░

(c) 2025 - 2026 prukasz
https://github.com/prukasz/RunitEngine

License: GPLv3 or later
*/

package main

import (
	"math"
)

// Instruction format: two bytes {op:u8, arg:u8}. The arg selects an input
// slot for OP_VAR and a constant pool slot for OP_CONST; operators ignore it.
type exprInstruction struct {
	op  uint8
	arg uint8
}

// Math opcodes (0x0X range).
const (
	OP_VAR   = 0x00
	OP_CONST = 0x01
	OP_ADD   = 0x02
	OP_MUL   = 0x03
	OP_DIV   = 0x04
	OP_COS   = 0x05
	OP_SIN   = 0x06
	OP_POW   = 0x07
	OP_SQRT  = 0x08
	OP_SUB   = 0x09
)

// Logic opcodes (comparisons 0x1X, combinators 0x2X). VAR/CONST are shared
// with the math set.
const (
	CMP_OP_GT  = 0x10
	CMP_OP_LT  = 0x11
	CMP_OP_EQ  = 0x12
	CMP_OP_GTE = 0x13
	CMP_OP_LTE = 0x14
	CMP_OP_AND = 0x20
	CMP_OP_OR  = 0x21
	CMP_OP_NOT = 0x22
)

// exprMode selects which opcode family an expression may use; the math and
// logic blocks share the evaluator but not each other's operators.
type exprMode uint8

const (
	EXPR_MATH exprMode = iota
	EXPR_LOGIC
)

const EXPR_STACK_DEPTH = 16

// expression is the compiled program of one math or logic block: bytecode
// plus its constant pool.
type expression struct {
	code   []exprInstruction
	consts []float32
}

func isTrue(f float32) bool { return f > 0.5 }

func boolToFloat(v bool) float32 {
	if v {
		return 1
	}
	return 0
}

func isZeroF32(f float32) bool {
	return float32(math.Abs(float64(f))) < F32_EPSILON
}

func isEqualF32(a, b float32) bool {
	return float32(math.Abs(float64(a-b))) < F32_EPSILON
}

// parseConstants fills the constant pool from a CONSTANTS payload:
// {count:u8, f32 * count}.
func (x *expression) parseConstants(payload []byte) EmuErr {
	if len(payload) < 1 {
		return EMU_ERR_PACKET_INCOMPLETE
	}
	count := int(payload[0])
	if len(payload) < 1+count*4 {
		return EMU_ERR_PACKET_INCOMPLETE
	}
	x.consts = make([]float32, count)
	for i := 0; i < count; i++ {
		x.consts[i] = math.Float32frombits(leU32(payload[1+i*4:]))
	}
	return EMU_OK
}

// parseInstructions fills the bytecode from an INSTRUCTIONS payload:
// {count:u8, {op:u8, arg:u8} * count}.
func (x *expression) parseInstructions(payload []byte) EmuErr {
	if len(payload) < 1 {
		return EMU_ERR_PACKET_INCOMPLETE
	}
	count := int(payload[0])
	if len(payload) < 1+count*2 {
		return EMU_ERR_PACKET_INCOMPLETE
	}
	x.code = make([]exprInstruction, count)
	for i := 0; i < count; i++ {
		x.code[i] = exprInstruction{op: payload[1+i*2], arg: payload[1+i*2+1]}
	}
	return EMU_OK
}

// eval runs the program against the cached block inputs. Binary operators
// pop right-then-left. The top of stack after the last instruction is the
// result; an empty stack evaluates to zero. Stack overflow, stack underflow,
// out-of-range VAR/CONST arguments and opcodes outside the mode's family all
// fail the block.
func (x *expression) eval(inputs []float32, mode exprMode) (float32, EmuErr) {
	var stack [EXPR_STACK_DEPTH]float32
	top := 0

	push := func(f float32) EmuErr {
		if top >= EXPR_STACK_DEPTH {
			return EMU_ERR_BLOCK_INVALID_PARAM
		}
		stack[top] = f
		top++
		return EMU_OK
	}
	pop2 := func() (a, b float32, err EmuErr) {
		if top < 2 {
			return 0, 0, EMU_ERR_BLOCK_INVALID_PARAM
		}
		b = stack[top-1]
		a = stack[top-2]
		top -= 2
		return a, b, EMU_OK
	}
	pop1 := func() (float32, EmuErr) {
		if top < 1 {
			return 0, EMU_ERR_BLOCK_INVALID_PARAM
		}
		top--
		return stack[top], EMU_OK
	}

	for _, ins := range x.code {
		var err EmuErr
		switch {
		case ins.op == OP_VAR:
			if int(ins.arg) >= len(inputs) {
				return 0, EMU_ERR_BLOCK_INVALID_CONN
			}
			err = push(inputs[ins.arg])

		case ins.op == OP_CONST:
			if int(ins.arg) >= len(x.consts) {
				return 0, EMU_ERR_BLOCK_INVALID_PARAM
			}
			err = push(x.consts[ins.arg])

		case mode == EXPR_MATH && ins.op <= OP_SUB:
			err = x.evalMathOp(ins.op, push, pop2, pop1)

		case mode == EXPR_LOGIC && ins.op >= CMP_OP_GT && ins.op <= CMP_OP_NOT:
			err = x.evalLogicOp(ins.op, push, pop2, pop1)

		default:
			return 0, EMU_ERR_BLOCK_INVALID_PARAM
		}
		if err != EMU_OK {
			return 0, err
		}
	}

	if top == 0 {
		return 0, EMU_OK
	}
	return stack[top-1], EMU_OK
}

func (x *expression) evalMathOp(op uint8,
	push func(float32) EmuErr, pop2 func() (float32, float32, EmuErr), pop1 func() (float32, EmuErr)) EmuErr {
	switch op {
	case OP_ADD:
		a, b, err := pop2()
		if err != EMU_OK {
			return err
		}
		return push(a + b)
	case OP_SUB:
		a, b, err := pop2()
		if err != EMU_OK {
			return err
		}
		return push(a - b)
	case OP_MUL:
		a, b, err := pop2()
		if err != EMU_OK {
			return err
		}
		return push(a * b)
	case OP_DIV:
		a, b, err := pop2()
		if err != EMU_OK {
			return err
		}
		if isZeroF32(b) {
			return EMU_ERR_BLOCK_DIV_BY_ZERO
		}
		return push(a / b)
	case OP_SIN:
		a, err := pop1()
		if err != EMU_OK {
			return err
		}
		return push(float32(math.Sin(float64(a))))
	case OP_COS:
		a, err := pop1()
		if err != EMU_OK {
			return err
		}
		return push(float32(math.Cos(float64(a))))
	case OP_POW:
		a, b, err := pop2()
		if err != EMU_OK {
			return err
		}
		return push(float32(math.Pow(float64(a), float64(b))))
	case OP_SQRT:
		a, err := pop1()
		if err != EMU_OK {
			return err
		}
		return push(float32(math.Sqrt(float64(a))))
	}
	return EMU_ERR_BLOCK_INVALID_PARAM
}

func (x *expression) evalLogicOp(op uint8,
	push func(float32) EmuErr, pop2 func() (float32, float32, EmuErr), pop1 func() (float32, EmuErr)) EmuErr {
	switch op {
	case CMP_OP_NOT:
		a, err := pop1()
		if err != EMU_OK {
			return err
		}
		return push(boolToFloat(!isTrue(a)))
	}
	a, b, err := pop2()
	if err != EMU_OK {
		return err
	}
	switch op {
	case CMP_OP_GT:
		return push(boolToFloat(a > b))
	case CMP_OP_LT:
		return push(boolToFloat(a < b))
	case CMP_OP_EQ:
		return push(boolToFloat(isEqualF32(a, b)))
	case CMP_OP_GTE:
		return push(boolToFloat(a >= b))
	case CMP_OP_LTE:
		return push(boolToFloat(a <= b))
	case CMP_OP_AND:
		return push(boolToFloat(isTrue(a) && isTrue(b)))
	case CMP_OP_OR:
		return push(boolToFloat(isTrue(a) || isTrue(b)))
	}
	return EMU_ERR_BLOCK_INVALID_PARAM
}
