// component_reset_test.go - Reset/reload law and block-state reset tests

package main

import (
	"bytes"
	"reflect"
	"testing"
)

// TestResetAllThenReloadReproducesState: the §reset law — RESET_ALL
// followed by a complete reload yields runtime state identical to a fresh
// load, heaps included.
func TestResetAllThenReloadReproducesState(t *testing.T) {
	used := NewEmulator()
	defer used.Close()
	loadPackets(t, used, buildScalarMathProgram())
	cmds := NewProgramBuilder().Command(CMD_LOOP_INIT, nil).Command(CMD_RUN_ONCE, nil)
	loadPackets(t, used, cmds)

	// The tick wrote c = 13; the runtime is now dirty.
	loadPackets(t, used, NewProgramBuilder().Command(CMD_RESET_ALL, nil))
	loadPackets(t, used, buildScalarMathProgram())

	fresh := NewEmulator()
	defer fresh.Close()
	loadPackets(t, fresh, buildScalarMathProgram())

	for typ := MemType(0); typ < MEM_TYPES_COUNT; typ++ {
		a := used.typeMgr(0, typ)
		b := fresh.typeMgr(0, typ)
		if a == nil || b == nil {
			t.Fatalf("type %s manager missing after reload", typ)
		}
		if !bytes.Equal(a.heap, b.heap) {
			t.Fatalf("type %s heap differs after reset+reload", typ)
		}
	}

	usedSnap := used.Snapshot()
	freshSnap := fresh.Snapshot()
	// Time and cycle counters are explicitly excluded from the law.
	usedSnap.timeMs, freshSnap.timeMs = 0, 0
	usedSnap.loopCounter, freshSnap.loopCounter = 0, 0
	if !reflect.DeepEqual(usedSnap, freshSnap) {
		t.Fatalf("snapshot diff after reset+reload:\n%+v\nvs\n%+v", usedSnap, freshSnap)
	}
}

// TestResetAllReleasesEverything: contexts, code, arena, order guard.
func TestResetAllReleasesEverything(t *testing.T) {
	e := NewEmulator()
	defer e.Close()
	loadPackets(t, e, buildScalarMathProgram())

	e.ResetAll()
	if e.ctxAllocated[0] {
		t.Fatal("context survived RESET_ALL")
	}
	if e.code != nil {
		t.Fatal("code graph survived RESET_ALL")
	}
	if e.access.created {
		t.Fatal("access arena survived RESET_ALL")
	}
	if e.parse.done != 0 {
		t.Fatal("order guard survived RESET_ALL")
	}
}

// TestResetBlocksRewindsRuntimeState: RESET_BLOCKS rewinds latches and
// counters without dropping the program.
func TestResetBlocksRewindsRuntimeState(t *testing.T) {
	e := NewEmulator()
	defer e.Close()
	loadPackets(t, e, buildScalarMathProgram())

	latch := &latchState{latchType: LATCH_TYPE_SR, state: true}
	counter := &counterState{start: 5, current: 42}
	e.code.blocks[0].state = latch

	extra := &Block{cfg: BlockCfg{blockType: BLOCK_COUNTER}, state: counter}
	e.code.blocks = append(e.code.blocks, extra)

	if res := e.ResetBlocks(); res.IsErr() {
		t.Fatalf("reset blocks: %s", res.Code)
	}
	if latch.state {
		t.Fatal("latch state survived RESET_BLOCKS")
	}
	if counter.current != 5 {
		t.Fatalf("counter current %f, expected start 5", counter.current)
	}
	if e.code == nil {
		t.Fatal("RESET_BLOCKS must keep the program loaded")
	}
}
