// program_script_test.go - Lua authoring front end tests

package main

import (
	"testing"

	"github.com/kylelemons/godebug/pretty"
)

const scalarMathScript = `
context(0, {heap = 64, inst = 16, dims = 8})
instance(0, T.B, {}, true, false)
instance(0, T.B, {}, false, true)
instance(0, T.F32, {}, true, false)
instance(0, T.F32, {}, true, false)
instance(0, T.F32, {}, false, true)
scalar_bool(0, 0, true)
scalar_f32(0, 0, 3.0)
scalar_f32(0, 1, 4.0)
code_cfg(1)
access_alloc(8, 4)
block_header(0, B.MATH, 0x7, 3, 2)
block_input(0, 0, acc(0, T.B, 0))
block_input(0, 1, acc(0, T.F32, 0))
block_input(0, 2, acc(0, T.F32, 1))
block_output(0, 0, acc(0, T.B, 1))
block_output(0, 1, acc(0, T.F32, 2))
expr_constants(0, B.MATH, {1.0})
expr_instructions(0, B.MATH, {OP.VAR, 1}, {OP.VAR, 2}, {OP.MUL, 0}, {OP.CONST, 0}, {OP.ADD, 0})
`

// TestScriptMatchesBuilder: the Lua front end emits byte-identical packets
// to the Go builder for the same program.
func TestScriptMatchesBuilder(t *testing.T) {
	scripted, err := RunProgramScriptSource(scalarMathScript)
	if err != nil {
		t.Fatalf("script failed: %v", err)
	}
	direct := buildScalarMathProgram().Packets()

	if diff := pretty.Compare(scripted, direct); diff != "" {
		t.Fatalf("script vs builder packet diff:\n%s", diff)
	}
}

// TestScriptedProgramRuns: a Lua-authored program loads and executes to the
// same S1 result.
func TestScriptedProgramRuns(t *testing.T) {
	packets, err := RunProgramScriptSource(scalarMathScript + `
command(CMD.LOOP_INIT)
command(CMD.RUN_ONCE)
`)
	if err != nil {
		t.Fatalf("script failed: %v", err)
	}
	e := NewEmulator()
	defer e.Close()
	for i, pkt := range packets {
		if res := e.ParsePacket(pkt); res.Abort {
			t.Fatalf("packet %d aborted: %s", i, res.Code)
		}
	}
	c := e.instance(0, MEM_F, 2)
	if got := leF32(e.typeMgr(0, MEM_F).instanceData(c)); got != 13.0 {
		t.Fatalf("scripted c: got %f, expected 13.0", got)
	}
}

// TestScriptDynamicAccessNesting: acc() results compose as dynamic indices.
func TestScriptDynamicAccessNesting(t *testing.T) {
	scripted, err := RunProgramScriptSource(`
context(0, {heap = 32, inst = 8, dims = 8})
instance(0, T.U8, {8}, true, false)
instance(0, T.U8, {}, true, false)
code_cfg(1)
access_alloc(4, 2)
block_header(0, B.SET, 0x3, 2, 0)
block_input(0, 0, acc(0, T.U8, 0, acc(0, T.U8, 1)))
block_input(0, 1, acc(0, T.U8, 1))
`)
	if err != nil {
		t.Fatalf("script failed: %v", err)
	}

	direct := NewProgramBuilder()
	direct.ContextCfgUniform(0, CtxTypeCaps{HeapElements: 32, MaxInstances: 8, MaxDims: 8})
	direct.Instance(0, MEM_U8, []uint16{8}, true, false)
	direct.Instance(0, MEM_U8, nil, true, false)
	direct.CodeCfg(1)
	direct.AccessAlloc(4, 2)
	direct.BlockHeader(0, BLOCK_SET, 0x3, 2, 0)
	direct.BlockInput(0, 0, Access(0, MEM_U8, 0, IdxDynamic(Access(0, MEM_U8, 1))))
	direct.BlockInput(0, 1, Access(0, MEM_U8, 1))

	if diff := pretty.Compare(scripted, direct.Packets()); diff != "" {
		t.Fatalf("dynamic access diff:\n%s", diff)
	}
}

// TestScriptErrorSurfaces: a broken script reports a Lua error, not a
// partial stream.
func TestScriptErrorSurfaces(t *testing.T) {
	if _, err := RunProgramScriptSource(`block_header("not a number")`); err == nil {
		t.Fatal("invalid script must fail")
	}
}
