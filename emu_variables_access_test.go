// emu_variables_access_test.go - Access descriptor and mem_get/mem_set tests

package main

import (
	"testing"
)

// TestStaticAccessPrecomputesStride verifies the row-major stride rule
// flat = sum(i_k * prod(dims_j, j>k)) on a fully static descriptor.
func TestStaticAccessPrecomputesStride(t *testing.T) {
	e := newTestEmu(t)
	mkInstance(t, e, MEM_U16, []uint16{3, 4, 5}, true, false)

	a := mkAccess(t, e, Access(0, MEM_U16, 0, IdxStatic(2), IdxStatic(1), IdxStatic(3)))
	if !a.isResolved {
		t.Fatal("all-static descriptor not marked resolved")
	}
	// flat = 2*(4*5) + 1*5 + 3 = 48.
	if a.resolvedIndex != 48 {
		t.Fatalf("resolved index %d, expected 48", a.resolvedIndex)
	}
}

// TestStaticAccessOutOfRangeFailsAtParse: a literal index beyond its
// dimension is rejected while the descriptor is built.
func TestStaticAccessOutOfRangeFailsAtParse(t *testing.T) {
	e := newTestEmu(t)
	mkInstance(t, e, MEM_U16, []uint16{3}, true, false)

	i := 0
	_, err := e.parseAccess(Access(0, MEM_U16, 0, IdxStatic(3)), &i)
	if err != EMU_ERR_MEM_OUT_OF_BOUNDS {
		t.Fatalf("got %s, expected EMU_ERR_MEM_OUT_OF_BOUNDS", err)
	}
}

// TestDynamicIndexResolution reads arr[k] where k is itself a variable,
// including the out-of-bounds path when k grows past the dimension.
func TestDynamicIndexResolution(t *testing.T) {
	e := newTestEmu(t)
	arrIdx := mkInstance(t, e, MEM_U8, []uint16{8}, true, false)
	kIdx := mkInstance(t, e, MEM_U8, nil, true, false)

	// arr = [0..7], k = 5.
	mgr := e.typeMgr(0, MEM_U8)
	for i := 0; i < 8; i++ {
		mgr.heap[i] = byte(i)
	}
	kAccess := scalarAccess(t, e, MEM_U8, kIdx)
	setF32(t, e, kAccess, 5)

	dyn := mkAccess(t, e, Access(0, MEM_U8, arrIdx, IdxDynamic(Access(0, MEM_U8, kIdx))))
	if dyn.isResolved {
		t.Fatal("dynamic descriptor must not be pre-resolved")
	}

	var v MemVar
	if res := e.memGet(&v, dyn, false); res.IsErr() {
		t.Fatalf("dynamic get: %s", res.Code)
	}
	if v.AsF32() != 5 {
		t.Fatalf("arr[k] with k=5: got %f, expected 5", v.AsF32())
	}

	// k = 9 must fail with MEM_OUT_OF_BOUNDS.
	setF32(t, e, kAccess, 9)
	res := e.memGet(&v, dyn, false)
	if res.Code != EMU_ERR_MEM_OUT_OF_BOUNDS {
		t.Fatalf("oob dynamic get: got %s, expected EMU_ERR_MEM_OUT_OF_BOUNDS", res.Code)
	}
}

// TestDynamicIndexCoercesToU16 uses a float index variable; resolution
// truncates it to an unsigned element index.
func TestDynamicIndexCoercesToU16(t *testing.T) {
	e := newTestEmu(t)
	arrIdx := mkInstance(t, e, MEM_U8, []uint16{4}, true, false)
	kIdx := mkInstance(t, e, MEM_F, nil, true, false)

	mgr := e.typeMgr(0, MEM_U8)
	copy(mgr.heap, []byte{10, 11, 12, 13})
	setF32(t, e, scalarAccess(t, e, MEM_F, kIdx), 2.9)

	dyn := mkAccess(t, e, Access(0, MEM_U8, arrIdx, IdxDynamic(Access(0, MEM_F, kIdx))))
	var v MemVar
	if res := e.memGet(&v, dyn, false); res.IsErr() {
		t.Fatalf("get: %s", res.Code)
	}
	if v.AsF32() != 12 {
		t.Fatalf("arr[2.9 -> 2]: got %f, expected 12", v.AsF32())
	}
}

// TestMemSetMarksUpdatedAndCoerces stores a float through a U8 destination
// and checks both the saturated payload and the updated flag.
func TestMemSetMarksUpdatedAndCoerces(t *testing.T) {
	e := newTestEmu(t)
	outIdx := mkInstance(t, e, MEM_U8, nil, false, true)
	a := scalarAccess(t, e, MEM_U8, outIdx)

	inst := e.instance(0, MEM_U8, outIdx)
	if inst.updated {
		t.Fatal("output instance born updated")
	}
	if res := e.memSet(VarF32(300.0), a); res.IsErr() {
		t.Fatalf("set: %s", res.Code)
	}
	if !inst.updated {
		t.Fatal("memSet must set the updated flag unconditionally")
	}
	var v MemVar
	if res := e.memGet(&v, a, false); res.IsErr() {
		t.Fatalf("get: %s", res.Code)
	}
	if v.AsF32() != 255 {
		t.Fatalf("saturated store: got %f, expected 255", v.AsF32())
	}
}

// TestMemGetByReferenceAliasesHeap verifies by-reference reads observe later
// writes without re-resolving.
func TestMemGetByReferenceAliasesHeap(t *testing.T) {
	e := newTestEmu(t)
	idx := mkInstance(t, e, MEM_U16, nil, true, false)
	a := scalarAccess(t, e, MEM_U16, idx)

	var ref MemVar
	if res := e.memGet(&ref, a, true); res.IsErr() {
		t.Fatalf("ref get: %s", res.Code)
	}
	if !ref.ByReference() {
		t.Fatal("expected a by-reference value")
	}
	setF32(t, e, a, 777)
	if ref.AsF32() != 777 {
		t.Fatalf("reference did not track the heap: %f", ref.AsF32())
	}
}

// TestAccessArenaExhaustion: the slab refuses descriptors past its sized
// capacity.
func TestAccessArenaExhaustion(t *testing.T) {
	e := NewEmulator()
	var cfg memCtxConfig
	cfg.heapElements[MEM_B] = 4
	cfg.maxInstances[MEM_B] = 4
	if res := e.memContextAllocate(0, &cfg); res.IsErr() {
		t.Fatalf("allocate: %s", res.Code)
	}
	if _, err := e.contextCreateInstance(0, MEM_B, nil, true, false); err != EMU_OK {
		t.Fatalf("instance: %s", err)
	}
	e.access.allocate(2, 0)

	i := 0
	if _, err := e.parseAccess(Access(0, MEM_B, 0), &i); err != EMU_OK {
		t.Fatalf("first node: %s", err)
	}
	i = 0
	if _, err := e.parseAccess(Access(0, MEM_B, 0), &i); err != EMU_OK {
		t.Fatalf("second node: %s", err)
	}
	i = 0
	if _, err := e.parseAccess(Access(0, MEM_B, 0), &i); err != EMU_ERR_NO_MEM {
		t.Fatalf("third node: got %s, expected EMU_ERR_NO_MEM", err)
	}
}

// TestAccessDimsCountMustMatch rejects an indexed reference whose index
// count disagrees with the instance's dimensionality.
func TestAccessDimsCountMustMatch(t *testing.T) {
	e := newTestEmu(t)
	mkInstance(t, e, MEM_U16, []uint16{3, 4}, true, false)
	i := 0
	_, err := e.parseAccess(Access(0, MEM_U16, 0, IdxStatic(1)), &i)
	if err != EMU_ERR_INVALID_ARG {
		t.Fatalf("got %s, expected EMU_ERR_INVALID_ARG", err)
	}
}
