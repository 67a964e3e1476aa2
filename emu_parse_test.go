// emu_parse_test.go - Order guard, dispatch and end-to-end load tests

package main

import (
	"testing"
)

// buildScalarMathProgram assembles the S1 program: c = a*b + 1.0 with
// a=3.0, b=4.0 and a constant-true enable line.
func buildScalarMathProgram() *ProgramBuilder {
	pb := NewProgramBuilder()
	pb.ContextCfgUniform(0, CtxTypeCaps{HeapElements: 64, MaxInstances: 16, MaxDims: 8})
	pb.Instance(0, MEM_B, nil, true, false)  // B0: EN constant
	pb.Instance(0, MEM_B, nil, false, true)  // B1: ENO
	pb.Instance(0, MEM_F, nil, true, false)  // F0: a
	pb.Instance(0, MEM_F, nil, true, false)  // F1: b
	pb.Instance(0, MEM_F, nil, false, true)  // F2: c
	pb.ScalarBool(0, 0, true)
	pb.ScalarF32(0, 0, 3.0)
	pb.ScalarF32(0, 1, 4.0)

	pb.CodeCfg(1)
	pb.AccessAlloc(8, 4)
	pb.BlockHeader(0, BLOCK_MATH, 0b111, 3, 2)
	pb.BlockInput(0, 0, Access(0, MEM_B, 0))
	pb.BlockInput(0, 1, Access(0, MEM_F, 0))
	pb.BlockInput(0, 2, Access(0, MEM_F, 1))
	pb.BlockOutput(0, 0, Access(0, MEM_B, 1))
	pb.BlockOutput(0, 1, Access(0, MEM_F, 2))
	pb.ExprConstants(0, BLOCK_MATH, []float32{1.0})
	pb.ExprInstructions(0, BLOCK_MATH,
		[2]uint8{OP_VAR, 1}, [2]uint8{OP_VAR, 2}, [2]uint8{OP_MUL, 0},
		[2]uint8{OP_CONST, 0}, [2]uint8{OP_ADD, 0})
	return pb
}

// TestScalarMathEndToEnd is S1 through the full packet path: load, init,
// run one tick, read c = 13.0 with its updated flag set.
func TestScalarMathEndToEnd(t *testing.T) {
	e := NewEmulator()
	defer e.Close()
	loadPackets(t, e, buildScalarMathProgram())

	cmds := NewProgramBuilder().Command(CMD_LOOP_INIT, nil).Command(CMD_RUN_ONCE, nil)
	loadPackets(t, e, cmds)

	c := e.instance(0, MEM_F, 2)
	if c == nil {
		t.Fatal("output instance missing")
	}
	got := leF32(e.typeMgr(0, MEM_F).instanceData(c))
	if got != 13.0 {
		t.Fatalf("c: got %f, expected 13.0", got)
	}
	if !c.updated {
		t.Fatal("c.updated must be set after the tick")
	}
}

// TestOrderGuardRejectsEarlyBlockHeader: a BLOCK_HEADER before CODE_CFG is
// a sequence violation and must not touch state.
func TestOrderGuardRejectsEarlyBlockHeader(t *testing.T) {
	e := NewEmulator()
	defer e.Close()
	pkt := NewProgramBuilder().BlockHeader(0, BLOCK_MATH, 0, 1, 1).Packets()[0]
	res := e.ParsePacket(pkt)
	if res.Code != EMU_ERR_SEQUENCE_VIOLATION {
		t.Fatalf("got %s, expected EMU_ERR_SEQUENCE_VIOLATION", res.Code)
	}
	if e.code != nil {
		t.Fatal("rejected packet mutated state")
	}
}

// TestOrderGuardRejectsBackwardsStep: once LOOP_CFG was seen, construction
// packets are refused.
func TestOrderGuardRejectsBackwardsStep(t *testing.T) {
	e := NewEmulator()
	defer e.Close()
	pb := NewProgramBuilder()
	pb.CodeCfg(1)
	pb.LoopCfg(20_000, 2)
	loadPackets(t, e, pb)

	hdr := NewProgramBuilder().BlockHeader(0, BLOCK_MATH, 0, 1, 1).Packets()[0]
	res := e.ParsePacket(hdr)
	if res.Code != EMU_ERR_SEQUENCE_VIOLATION {
		t.Fatalf("got %s, expected EMU_ERR_SEQUENCE_VIOLATION", res.Code)
	}
}

// TestOrderGuardAllowsRepeatedContexts: context/instance packets stay
// unguarded so independent contexts can be built at any time.
func TestOrderGuardAllowsRepeatedContexts(t *testing.T) {
	e := NewEmulator()
	defer e.Close()
	pb := NewProgramBuilder()
	pb.ContextCfgUniform(0, CtxTypeCaps{HeapElements: 8, MaxInstances: 4, MaxDims: 4})
	pb.CodeCfg(1)
	pb.ContextCfgUniform(1, CtxTypeCaps{HeapElements: 8, MaxInstances: 4, MaxDims: 4})
	pb.Instance(1, MEM_F, nil, true, false)
	loadPackets(t, e, pb)
	if !e.ctxAllocated[1] {
		t.Fatal("second context not created after CODE_CFG")
	}
}

// TestBlockDataTypeMismatch: BLOCK_DATA naming the wrong recorded type is
// rejected.
func TestBlockDataTypeMismatch(t *testing.T) {
	e := NewEmulator()
	defer e.Close()
	pb := NewProgramBuilder()
	pb.CodeCfg(1)
	pb.BlockHeader(0, BLOCK_MATH, 0, 1, 1)
	loadPackets(t, e, pb)

	bad := NewProgramBuilder().BlockData(0, BLOCK_LOGIC, BLOCK_PKT_CFG, []byte{0}).Packets()[0]
	res := e.ParsePacket(bad)
	if res.Code != EMU_ERR_BLOCK_INVALID_PARAM {
		t.Fatalf("got %s, expected EMU_ERR_BLOCK_INVALID_PARAM", res.Code)
	}
}

// TestUnknownHeaderReported: an unmapped header tag is PACKET_NOT_FOUND.
func TestUnknownHeaderReported(t *testing.T) {
	e := NewEmulator()
	defer e.Close()
	res := e.ParsePacket([]byte{0x99, 0x01})
	if res.Code != EMU_ERR_PACKET_NOT_FOUND {
		t.Fatalf("got %s, expected EMU_ERR_PACKET_NOT_FOUND", res.Code)
	}
}

// TestParserDeniedWhileRunning: the control plane refuses to mutate a
// running engine.
func TestParserDeniedWhileRunning(t *testing.T) {
	e := NewEmulator()
	defer e.Close()
	loadPackets(t, e, buildScalarMathProgram())
	cmds := NewProgramBuilder().Command(CMD_LOOP_INIT, nil).Command(CMD_LOOP_START, nil)
	loadPackets(t, e, cmds)

	ctx := NewProgramBuilder().
		ContextCfgUniform(1, CtxTypeCaps{HeapElements: 8, MaxInstances: 4, MaxDims: 4}).
		Packets()[0]
	res := e.ParsePacket(ctx)
	if res.Code != EMU_ERR_DENY {
		t.Fatalf("got %s, expected EMU_ERR_DENY", res.Code)
	}

	stop := NewProgramBuilder().Command(CMD_LOOP_STOP, nil).Packets()[0]
	if res := e.ParsePacket(stop); res.IsErr() {
		t.Fatalf("stop failed: %s", res.Code)
	}
}

// TestVerifyCodeRejectsUnwiredOutput: LOOP_START fails while an output slot
// is missing its descriptor.
func TestVerifyCodeRejectsUnwiredOutput(t *testing.T) {
	e := NewEmulator()
	defer e.Close()
	pb := NewProgramBuilder()
	pb.ContextCfgUniform(0, CtxTypeCaps{HeapElements: 8, MaxInstances: 4, MaxDims: 4})
	pb.Instance(0, MEM_B, nil, true, false)
	pb.CodeCfg(1)
	pb.AccessAlloc(4, 2)
	pb.BlockHeader(0, BLOCK_LATCH, 0b001, 3, 1)
	pb.BlockInput(0, 0, Access(0, MEM_B, 0))
	pb.BlockData(0, BLOCK_LATCH, BLOCK_PKT_CFG, []byte{LATCH_TYPE_SR})
	loadPackets(t, e, pb)

	cmds := NewProgramBuilder().Command(CMD_LOOP_INIT, nil).Command(CMD_LOOP_START, nil)
	for _, pkt := range cmds.Packets() {
		e.ParsePacket(pkt)
	}
	if e.verified {
		t.Fatal("verification must fail with an unwired output")
	}
	if e.loop.currentStatus() == LOOP_RUNNING {
		t.Fatal("loop must not start on failed verification")
	}
}
