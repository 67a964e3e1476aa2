// emu_test_helpers_test.go - Shared fixtures for engine tests

package main

import (
	"testing"
)

// newTestEmu returns an emulator with context 0 allocated with uniform
// generous caps and the access arena sized; enough for every block rig.
func newTestEmu(t *testing.T) *Emulator {
	t.Helper()
	e := NewEmulator()
	var cfg memCtxConfig
	for i := 0; i < MEM_TYPES_COUNT; i++ {
		cfg.heapElements[i] = 256
		cfg.maxInstances[i] = 64
		cfg.maxDims[i] = 32
	}
	if res := e.memContextAllocate(0, &cfg); res.IsErr() {
		t.Fatalf("context allocate failed: %s", res.Code)
	}
	e.access.allocate(128, 64)
	return e
}

// mkInstance creates an instance in context 0 and returns its index.
func mkInstance(t *testing.T, e *Emulator, typ MemType, dims []uint16, updated, canClear bool) uint16 {
	t.Helper()
	idx, err := e.contextCreateInstance(0, typ, dims, updated, canClear)
	if err != EMU_OK {
		t.Fatalf("create instance type %s: %s", typ, err)
	}
	return idx
}

// mkAccess parses an encoded descriptor into the arena, going through the
// same wire path production loads use.
func mkAccess(t *testing.T, e *Emulator, encoded []byte) *MemAccess {
	t.Helper()
	i := 0
	a, err := e.parseAccess(encoded, &i)
	if err != EMU_OK {
		t.Fatalf("parse access: %s", err)
	}
	if i != len(encoded) {
		t.Fatalf("parse access consumed %d of %d bytes", i, len(encoded))
	}
	return a
}

// scalarAccess is the common case: a scalar instance in context 0.
func scalarAccess(t *testing.T, e *Emulator, typ MemType, instIdx uint16) *MemAccess {
	t.Helper()
	return mkAccess(t, e, Access(0, typ, instIdx))
}

// mkBlock assembles a block record with every non-nil input declared
// connected unless a mask is forced later.
func mkBlock(blockType uint8, ins, outs []*MemAccess) *Block {
	var mask uint16
	for i, in := range ins {
		if in != nil {
			mask |= 1 << i
		}
	}
	return &Block{
		cfg: BlockCfg{
			blockType:       blockType,
			inConnectedMask: mask,
			inCnt:           uint8(len(ins)),
			qCnt:            uint8(len(outs)),
		},
		inputs:  ins,
		outputs: outs,
	}
}

func setF32(t *testing.T, e *Emulator, a *MemAccess, v float32) {
	t.Helper()
	if res := e.memSet(VarF32(v), a); res.IsErr() {
		t.Fatalf("memSet f32: %s", res.Code)
	}
}

func setBool(t *testing.T, e *Emulator, a *MemAccess, v bool) {
	t.Helper()
	if res := e.memSet(VarBool(v), a); res.IsErr() {
		t.Fatalf("memSet bool: %s", res.Code)
	}
}

func getF32(t *testing.T, e *Emulator, a *MemAccess) float32 {
	t.Helper()
	var v MemVar
	if res := e.memGet(&v, a, false); res.IsErr() {
		t.Fatalf("memGet: %s", res.Code)
	}
	return v.AsF32()
}

func getBool(t *testing.T, e *Emulator, a *MemAccess) bool {
	t.Helper()
	var v MemVar
	if res := e.memGet(&v, a, false); res.IsErr() {
		t.Fatalf("memGet: %s", res.Code)
	}
	return v.Bool()
}

// loadPackets feeds a builder's stream through the public parse entry and
// fails the test on any aborting result.
func loadPackets(t *testing.T, e *Emulator, pb *ProgramBuilder) {
	t.Helper()
	for i, pkt := range pb.Packets() {
		if res := e.ParsePacket(pkt); res.Abort {
			t.Fatalf("packet %d (header 0x%02X) aborted: %s owner %s", i, pkt[0], res.Code, res.Owner)
		}
	}
}

// advanceTick moves the deterministic clock one period forward; block unit
// tests drive time by hand instead of running the timer.
func advanceTick(e *Emulator) {
	e.loop.timeMs.Add(e.loop.periodMs())
}
