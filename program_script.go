// program_script.go - Lua front end for authoring packet streams

/*
program_script.go - Scripted program authoring

Programs are authored as small Lua scripts that drive the packet builder
one call per packet, the same way the firmware's host generator emits its
byte stream. The script sees constant tables (T for data types, B for block
types, OP for expression opcodes, CMD for commands) plus global functions
wrapping the builder methods (arrays are U8 only, block data is CFG only). Access descriptors are encoded eagerly by acc(...) and
passed around as byte strings, so a dynamic index is just another acc()
result in place of a literal.

	context(0, {heap = 64, inst = 16, dims = 8})
	instance(0, T.F32, {}, true, false)
	scalar_f32(0, 0, 3.0)
	code_cfg(1)
	block_header(0, B.MATH, 0x7, 3, 2)
	block_input(0, 1, acc(0, T.F32, 0))
	expr_instructions(0, B.MATH, {OP.VAR, 1}, {OP.VAR, 2}, {OP.MUL, 0})
	command(CMD.LOOP_INIT)
*/

package main

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// RunProgramScript executes a Lua program script and returns the packet
// stream it built.
func RunProgramScript(path string) ([][]byte, error) {
	pb := NewProgramBuilder()
	L := lua.NewState()
	defer L.Close()
	registerScriptAPI(L, pb)
	if err := L.DoFile(path); err != nil {
		return nil, fmt.Errorf("lua: %w", err)
	}
	return pb.Packets(), nil
}

// RunProgramScriptSource is the string-input variant used by tests.
func RunProgramScriptSource(source string) ([][]byte, error) {
	pb := NewProgramBuilder()
	L := lua.NewState()
	defer L.Close()
	registerScriptAPI(L, pb)
	if err := L.DoString(source); err != nil {
		return nil, fmt.Errorf("lua: %w", err)
	}
	return pb.Packets(), nil
}

func registerScriptAPI(L *lua.LState, pb *ProgramBuilder) {
	setConstTable(L, "T", map[string]int{
		"U8": int(MEM_U8), "U16": int(MEM_U16), "U32": int(MEM_U32),
		"I16": int(MEM_I16), "I32": int(MEM_I32), "F32": int(MEM_F), "B": int(MEM_B),
	})
	setConstTable(L, "B", map[string]int{
		"MATH": BLOCK_MATH, "SET": BLOCK_SET, "LOGIC": BLOCK_LOGIC,
		"COUNTER": BLOCK_COUNTER, "CLOCK": BLOCK_CLOCK, "LATCH": BLOCK_LATCH,
		"IN_SELECTOR": BLOCK_IN_SELECTOR, "FOR": BLOCK_FOR,
		"TIMER": BLOCK_TIMER, "Q_SELECTOR": BLOCK_Q_SELECTOR,
	})
	setConstTable(L, "OP", map[string]int{
		"VAR": OP_VAR, "CONST": OP_CONST, "ADD": OP_ADD, "SUB": OP_SUB,
		"MUL": OP_MUL, "DIV": OP_DIV, "SIN": OP_SIN, "COS": OP_COS,
		"POW": OP_POW, "SQRT": OP_SQRT,
		"GT": CMP_OP_GT, "LT": CMP_OP_LT, "EQ": CMP_OP_EQ,
		"GTE": CMP_OP_GTE, "LTE": CMP_OP_LTE,
		"AND": CMP_OP_AND, "OR": CMP_OP_OR, "NOT": CMP_OP_NOT,
	})
	setConstTable(L, "CMD", map[string]int{
		"LOOP_INIT": CMD_LOOP_INIT, "LOOP_START": CMD_LOOP_START,
		"LOOP_STOP": CMD_LOOP_STOP, "RESET_ALL": CMD_RESET_ALL,
		"RESET_BLOCKS": CMD_RESET_BLOCKS, "SET_PERIOD": CMD_SET_PERIOD,
		"RUN_ONCE": CMD_RUN_ONCE,
	})

	L.SetGlobal("context", L.NewFunction(func(L *lua.LState) int {
		ctxID := uint8(L.CheckInt(1))
		opts := L.CheckTable(2)
		caps := CtxTypeCaps{
			HeapElements: uint32(intField(opts, "heap")),
			MaxInstances: uint16(intField(opts, "inst")),
			MaxDims:      uint16(intField(opts, "dims")),
		}
		pb.ContextCfgUniform(ctxID, caps)
		return 0
	}))

	L.SetGlobal("instance", L.NewFunction(func(L *lua.LState) int {
		ctx := uint8(L.CheckInt(1))
		t := MemType(L.CheckInt(2))
		dims := u16Slice(L.CheckTable(3))
		updated := L.CheckBool(4)
		canClear := L.CheckBool(5)
		pb.Instance(ctx, t, dims, updated, canClear)
		return 0
	}))

	L.SetGlobal("scalar_f32", L.NewFunction(func(L *lua.LState) int {
		pb.ScalarF32(uint8(L.CheckInt(1)), uint16(L.CheckInt(2)), float32(L.CheckNumber(3)))
		return 0
	}))
	L.SetGlobal("scalar_u8", L.NewFunction(func(L *lua.LState) int {
		pb.ScalarU8(uint8(L.CheckInt(1)), uint16(L.CheckInt(2)), uint8(L.CheckInt(3)))
		return 0
	}))
	L.SetGlobal("scalar_u32", L.NewFunction(func(L *lua.LState) int {
		pb.ScalarU32(uint8(L.CheckInt(1)), uint16(L.CheckInt(2)), uint32(L.CheckInt(3)))
		return 0
	}))
	L.SetGlobal("scalar_bool", L.NewFunction(func(L *lua.LState) int {
		pb.ScalarBool(uint8(L.CheckInt(1)), uint16(L.CheckInt(2)), L.CheckBool(3))
		return 0
	}))

	// array_u8(ctx, inst_idx, start, {bytes})
	L.SetGlobal("array_u8", L.NewFunction(func(L *lua.LState) int {
		ctx := uint8(L.CheckInt(1))
		instIdx := uint16(L.CheckInt(2))
		start := uint16(L.CheckInt(3))
		vals := L.CheckTable(4)
		raw := make([]byte, 0, vals.Len())
		vals.ForEach(func(_, v lua.LValue) {
			raw = append(raw, uint8(lua.LVAsNumber(v)))
		})
		pb.ArrayData(ctx, MEM_U8, instIdx, start, uint16(len(raw)), raw)
		return 0
	}))

	// acc(ctx, type, inst_idx, idx...) -> descriptor bytes; each idx is a
	// number (static) or another acc() string (dynamic).
	L.SetGlobal("acc", L.NewFunction(func(L *lua.LState) int {
		ctx := uint8(L.CheckInt(1))
		t := MemType(L.CheckInt(2))
		instIdx := uint16(L.CheckInt(3))
		var idxs []AccessIdx
		for i := 4; i <= L.GetTop(); i++ {
			switch v := L.Get(i).(type) {
			case lua.LNumber:
				idxs = append(idxs, IdxStatic(uint16(v)))
			case lua.LString:
				idxs = append(idxs, IdxDynamic([]byte(v)))
			default:
				L.ArgError(i, "expected number or access string")
			}
		}
		L.Push(lua.LString(Access(ctx, t, instIdx, idxs...)))
		return 1
	}))

	L.SetGlobal("access_alloc", L.NewFunction(func(L *lua.LState) int {
		pb.AccessAlloc(uint16(L.CheckInt(1)), uint16(L.CheckInt(2)))
		return 0
	}))
	L.SetGlobal("code_cfg", L.NewFunction(func(L *lua.LState) int {
		pb.CodeCfg(uint16(L.CheckInt(1)))
		return 0
	}))
	L.SetGlobal("block_header", L.NewFunction(func(L *lua.LState) int {
		pb.BlockHeader(uint16(L.CheckInt(1)), uint8(L.CheckInt(2)),
			uint16(L.CheckInt(3)), uint8(L.CheckInt(4)), uint8(L.CheckInt(5)))
		return 0
	}))
	L.SetGlobal("block_input", L.NewFunction(func(L *lua.LState) int {
		pb.BlockInput(uint16(L.CheckInt(1)), uint8(L.CheckInt(2)), []byte(L.CheckString(3)))
		return 0
	}))
	L.SetGlobal("block_output", L.NewFunction(func(L *lua.LState) int {
		pb.BlockOutput(uint16(L.CheckInt(1)), uint8(L.CheckInt(2)), []byte(L.CheckString(3)))
		return 0
	}))

	// block_cfg(block_idx, block_type, {bytes}) emits a raw CFG payload.
	L.SetGlobal("block_cfg", L.NewFunction(func(L *lua.LState) int {
		blockIdx := uint16(L.CheckInt(1))
		blockType := uint8(L.CheckInt(2))
		vals := L.CheckTable(3)
		payload := make([]byte, 0, vals.Len())
		vals.ForEach(func(_, v lua.LValue) {
			payload = append(payload, uint8(lua.LVAsNumber(v)))
		})
		pb.BlockData(blockIdx, blockType, BLOCK_PKT_CFG, payload)
		return 0
	}))

	L.SetGlobal("expr_constants", L.NewFunction(func(L *lua.LState) int {
		blockIdx := uint16(L.CheckInt(1))
		blockType := uint8(L.CheckInt(2))
		vals := L.CheckTable(3)
		var consts []float32
		vals.ForEach(func(_, v lua.LValue) {
			consts = append(consts, float32(lua.LVAsNumber(v)))
		})
		pb.ExprConstants(blockIdx, blockType, consts)
		return 0
	}))

	// expr_instructions(block_idx, block_type, {op, arg}, ...)
	L.SetGlobal("expr_instructions", L.NewFunction(func(L *lua.LState) int {
		blockIdx := uint16(L.CheckInt(1))
		blockType := uint8(L.CheckInt(2))
		var instrs [][2]uint8
		for i := 3; i <= L.GetTop(); i++ {
			pair := L.CheckTable(i)
			instrs = append(instrs, [2]uint8{
				uint8(lua.LVAsNumber(pair.RawGetInt(1))),
				uint8(lua.LVAsNumber(pair.RawGetInt(2))),
			})
		}
		pb.ExprInstructions(blockIdx, blockType, instrs...)
		return 0
	}))

	L.SetGlobal("loop_cfg", L.NewFunction(func(L *lua.LState) int {
		pb.LoopCfg(uint32(L.CheckInt(1)), uint8(L.CheckInt(2)))
		return 0
	}))
	L.SetGlobal("sub_cfg", L.NewFunction(func(L *lua.LState) int {
		pb.SubCfg(uint16(L.CheckInt(1)))
		return 0
	}))
	L.SetGlobal("sub_add", L.NewFunction(func(L *lua.LState) int {
		ctx := uint8(L.CheckInt(1))
		t := MemType(L.CheckInt(2))
		idxs := u16Slice(L.CheckTable(3))
		pb.SubAdd(ctx, t, idxs...)
		return 0
	}))
	L.SetGlobal("command", L.NewFunction(func(L *lua.LState) int {
		cmd := uint16(L.CheckInt(1))
		if L.GetTop() >= 2 {
			pb.CommandU32(cmd, uint32(L.CheckInt(2)))
		} else {
			pb.Command(cmd, nil)
		}
		return 0
	}))
}

func setConstTable(L *lua.LState, name string, values map[string]int) {
	t := L.NewTable()
	for k, v := range values {
		t.RawSetString(k, lua.LNumber(v))
	}
	L.SetGlobal(name, t)
}

func intField(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

func u16Slice(t *lua.LTable) []uint16 {
	out := make([]uint16, 0, t.Len())
	t.ForEach(func(_, v lua.LValue) {
		out = append(out, uint16(lua.LVAsNumber(v)))
	})
	return out
}
