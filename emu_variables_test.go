// emu_variables_test.go - Typed memory context and instance tests

package main

import (
	"bytes"
	"testing"
)

func smallCtxConfig() memCtxConfig {
	var cfg memCtxConfig
	for i := 0; i < MEM_TYPES_COUNT; i++ {
		cfg.heapElements[i] = 16
		cfg.maxInstances[i] = 4
		cfg.maxDims[i] = 8
	}
	return cfg
}

// TestContextAllocateIdempotent verifies allocating an existing id is a
// warning no-op that leaves the first allocation intact.
func TestContextAllocateIdempotent(t *testing.T) {
	e := NewEmulator()
	cfg := smallCtxConfig()
	if res := e.memContextAllocate(2, &cfg); res.IsErr() {
		t.Fatalf("first allocate failed: %s", res.Code)
	}
	if _, err := e.contextCreateInstance(2, MEM_U8, nil, true, false); err != EMU_OK {
		t.Fatalf("instance create failed: %s", err)
	}
	res := e.memContextAllocate(2, &cfg)
	if !res.Warning || res.Code != EMU_ERR_DENY {
		t.Fatalf("re-allocate: got %s (warn=%t), expected EMU_ERR_DENY warning", res.Code, res.Warning)
	}
	if e.contexts[2].types[MEM_U8].instCursor != 1 {
		t.Fatal("re-allocate clobbered existing instances")
	}
}

// TestContextAllocateRollsBack verifies an oversized capacity request leaves
// the context fully unallocated.
func TestContextAllocateRollsBack(t *testing.T) {
	e := NewEmulator()
	cfg := smallCtxConfig()
	cfg.heapElements[MEM_F] = MEM_HEAP_ELEMENTS_MAX + 1
	res := e.memContextAllocate(0, &cfg)
	if res.Code != EMU_ERR_NO_MEM {
		t.Fatalf("oversized allocate: got %s, expected EMU_ERR_NO_MEM", res.Code)
	}
	if e.ctxAllocated[0] {
		t.Fatal("context marked allocated after rollback")
	}
	if e.contexts[0].types[MEM_U8].heap != nil {
		t.Fatal("partial pools survived rollback")
	}
}

// TestInstanceCreationCursors verifies heap, instance and dim cursors all
// advance by instance shape, and that indices follow creation order.
func TestInstanceCreationCursors(t *testing.T) {
	e := newTestEmu(t)
	i0 := mkInstance(t, e, MEM_U16, nil, true, false)
	i1 := mkInstance(t, e, MEM_U16, []uint16{3, 4}, false, true)
	i2 := mkInstance(t, e, MEM_U16, nil, true, false)
	if i0 != 0 || i1 != 1 || i2 != 2 {
		t.Fatalf("instance indices out of order: %d %d %d", i0, i1, i2)
	}
	mgr := e.typeMgr(0, MEM_U16)
	if mgr.heapCursor != 1+12+1 {
		t.Fatalf("heap cursor %d, expected 14 elements", mgr.heapCursor)
	}
	if mgr.dimsCursor != 2 {
		t.Fatalf("dims cursor %d, expected 2", mgr.dimsCursor)
	}
	arr := &mgr.instances[i1]
	if arr.elCnt != 12 || arr.dataOff != 1 {
		t.Fatalf("array instance shape: elCnt %d off %d", arr.elCnt, arr.dataOff)
	}
	if e.dimSize(arr, 0) != 3 || e.dimSize(arr, 1) != 4 {
		t.Fatal("dimension sizes not copied into pool")
	}
}

// TestInstanceCreationHonorsCapacity verifies NO_MEM on heap and instance
// exhaustion, and INVALID_ARG for a zero-sized dimension.
func TestInstanceCreationHonorsCapacity(t *testing.T) {
	e := NewEmulator()
	cfg := smallCtxConfig()
	if res := e.memContextAllocate(0, &cfg); res.IsErr() {
		t.Fatalf("allocate: %s", res.Code)
	}
	// Heap: 16 elements per type.
	if _, err := e.contextCreateInstance(0, MEM_U8, []uint16{17}, true, false); err != EMU_ERR_NO_MEM {
		t.Fatalf("heap overflow: got %s, expected EMU_ERR_NO_MEM", err)
	}
	// Instances: 4 records.
	for i := 0; i < 4; i++ {
		if _, err := e.contextCreateInstance(0, MEM_B, nil, true, false); err != EMU_OK {
			t.Fatalf("instance %d: %s", i, err)
		}
	}
	if _, err := e.contextCreateInstance(0, MEM_B, nil, true, false); err != EMU_ERR_NO_MEM {
		t.Fatalf("instance overflow: got %s, expected EMU_ERR_NO_MEM", err)
	}
	// Zero-sized dimensions are invalid.
	if _, err := e.contextCreateInstance(0, MEM_F, []uint16{0}, true, false); err != EMU_ERR_INVALID_ARG {
		t.Fatalf("zero dim: got %s, expected EMU_ERR_INVALID_ARG", err)
	}
}

// TestHeapBoundsInvariant checks that every created instance region lies
// inside its heap capacity.
func TestHeapBoundsInvariant(t *testing.T) {
	e := newTestEmu(t)
	mkInstance(t, e, MEM_F, []uint16{5}, true, false)
	mkInstance(t, e, MEM_F, []uint16{7, 2}, true, false)
	mgr := e.typeMgr(0, MEM_F)
	for i := uint16(0); i < mgr.instCursor; i++ {
		inst := &mgr.instances[i]
		if inst.dataOff+inst.elCnt > mgr.heapCap {
			t.Fatalf("instance %d exceeds heap: off %d + %d > cap %d", i, inst.dataOff, inst.elCnt, mgr.heapCap)
		}
	}
}

// TestScalarDataFillIsIdempotent sends the same data packet twice and
// expects a byte-identical heap (memory fill law).
func TestScalarDataFillIsIdempotent(t *testing.T) {
	e := newTestEmu(t)
	mkInstance(t, e, MEM_F, nil, true, false)

	pb := NewProgramBuilder().ScalarF32(0, 0, 42.5)
	pkt := pb.Packets()[0]

	if res := parseScalarData(e, pkt[1:]); res.IsErr() {
		t.Fatalf("first fill: %s", res.Code)
	}
	first := append([]byte(nil), e.typeMgr(0, MEM_F).heap...)
	if res := parseScalarData(e, pkt[1:]); res.IsErr() {
		t.Fatalf("second fill: %s", res.Code)
	}
	if !bytes.Equal(first, e.typeMgr(0, MEM_F).heap) {
		t.Fatal("re-sending identical scalar data changed the heap")
	}
}

// TestArrayDataFill verifies ranged writes land at the right offsets and
// reject out-of-range spans.
func TestArrayDataFill(t *testing.T) {
	e := newTestEmu(t)
	mkInstance(t, e, MEM_U8, []uint16{8}, true, false)

	pb := NewProgramBuilder().ArrayData(0, MEM_U8, 0, 2, 3, []byte{9, 8, 7})
	if res := parseArrayData(e, pb.Packets()[0][1:]); res.IsErr() {
		t.Fatalf("array fill: %s", res.Code)
	}
	heap := e.typeMgr(0, MEM_U8).heap
	if heap[2] != 9 || heap[3] != 8 || heap[4] != 7 {
		t.Fatalf("array data misplaced: % X", heap[:8])
	}

	over := NewProgramBuilder().ArrayData(0, MEM_U8, 0, 6, 4, []byte{1, 2, 3, 4})
	res := parseArrayData(e, over.Packets()[0][1:])
	if res.Code != EMU_ERR_MEM_OUT_OF_BOUNDS {
		t.Fatalf("overrun fill: got %s, expected EMU_ERR_MEM_OUT_OF_BOUNDS", res.Code)
	}
}
