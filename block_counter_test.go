// block_counter_test.go - Counter block edge/level semantics

package main

import "testing"

type counterRig struct {
	e               *Emulator
	b               *Block
	ctu, ctd, reset *MemAccess
	eno, val        *MemAccess
}

func newCounterRig(t *testing.T, mode uint8, start, step, max, min float32) *counterRig {
	e := newTestEmu(t)
	ctuIdx := mkInstance(t, e, MEM_B, nil, true, false)
	ctdIdx := mkInstance(t, e, MEM_B, nil, true, false)
	resetIdx := mkInstance(t, e, MEM_B, nil, true, false)
	enoIdx := mkInstance(t, e, MEM_B, nil, false, true)
	valIdx := mkInstance(t, e, MEM_F, nil, false, true)

	rig := &counterRig{
		e:     e,
		ctu:   scalarAccess(t, e, MEM_B, ctuIdx),
		ctd:   scalarAccess(t, e, MEM_B, ctdIdx),
		reset: scalarAccess(t, e, MEM_B, resetIdx),
		eno:   scalarAccess(t, e, MEM_B, enoIdx),
		val:   scalarAccess(t, e, MEM_F, valIdx),
	}
	// STEP/LIMIT inputs left unconnected; the parsed defaults rule.
	rig.b = mkBlock(BLOCK_COUNTER,
		[]*MemAccess{rig.ctu, rig.ctd, rig.reset, nil, nil, nil},
		[]*MemAccess{rig.eno, rig.val})
	rig.b.state = &counterState{mode: mode, start: start, step: step, max: max, min: min, current: start}
	return rig
}

func (rig *counterRig) tick(t *testing.T, ctu, ctd, reset bool) float32 {
	t.Helper()
	setBool(t, rig.e, rig.ctu, ctu)
	setBool(t, rig.e, rig.ctd, ctd)
	setBool(t, rig.e, rig.reset, reset)
	if res := blockCounterExec(rig.e, rig.b); res.IsErr() && !res.Inactive() {
		t.Fatalf("counter exec: %s", res.Code)
	}
	return getF32(t, rig.e, rig.val)
}

// TestCounterOnRisingCountsOncePerEdge: CTU held high across many ticks
// counts exactly once.
func TestCounterOnRisingCountsOncePerEdge(t *testing.T) {
	rig := newCounterRig(t, COUNTER_CFG_ON_RISING, 0, 1, 100, -100)
	for i := 0; i < 5; i++ {
		rig.tick(t, true, false, false)
	}
	if got := getF32(t, rig.e, rig.val); got != 1 {
		t.Fatalf("held CTU: got %f, expected 1", got)
	}
	rig.tick(t, false, false, false)
	if got := rig.tick(t, true, false, false); got != 2 {
		t.Fatalf("second edge: got %f, expected 2", got)
	}
}

// TestCounterWhenActiveCountsEveryTick counts on level, not edge.
func TestCounterWhenActiveCountsEveryTick(t *testing.T) {
	rig := newCounterRig(t, COUNTER_CFG_WHEN_ACTIVE, 0, 2, 100, -100)
	for i := 0; i < 3; i++ {
		rig.tick(t, true, false, false)
	}
	if got := getF32(t, rig.e, rig.val); got != 6 {
		t.Fatalf("3 active ticks step 2: got %f, expected 6", got)
	}
}

// TestCounterResetHasPriority: reset wins over simultaneous CTU.
func TestCounterResetHasPriority(t *testing.T) {
	rig := newCounterRig(t, COUNTER_CFG_WHEN_ACTIVE, 10, 1, 100, -100)
	rig.tick(t, true, false, false)
	rig.tick(t, true, false, false)
	if got := rig.tick(t, true, false, true); got != 10 {
		t.Fatalf("reset with CTU high: got %f, expected start 10", got)
	}
}

// TestCounterResetRearmsEdges: after a reset the very next CTU edge counts.
func TestCounterResetRearmsEdges(t *testing.T) {
	rig := newCounterRig(t, COUNTER_CFG_ON_RISING, 0, 1, 100, -100)
	rig.tick(t, true, false, false)
	rig.tick(t, true, false, true) // reset while CTU still high
	if got := rig.tick(t, true, false, false); got != 1 {
		t.Fatalf("post-reset edge: got %f, expected 1", got)
	}
}

// TestCounterSaturatesAtLimits clamps at max going up and min going down.
func TestCounterSaturatesAtLimits(t *testing.T) {
	rig := newCounterRig(t, COUNTER_CFG_WHEN_ACTIVE, 0, 5, 8, -3)
	rig.tick(t, true, false, false)
	rig.tick(t, true, false, false)
	if got := getF32(t, rig.e, rig.val); got != 8 {
		t.Fatalf("saturate up: got %f, expected 8", got)
	}
	for i := 0; i < 5; i++ {
		rig.tick(t, false, true, false)
	}
	if got := getF32(t, rig.e, rig.val); got != -3 {
		t.Fatalf("saturate down: got %f, expected -3", got)
	}
}

// TestCounterDirectionsTrackSeparateEdges: in ON_RISING mode a CTD pulse
// while CTU stays high must not re-trigger the CTU count (each direction
// clears only its own prev-edge flag).
func TestCounterDirectionsTrackSeparateEdges(t *testing.T) {
	rig := newCounterRig(t, COUNTER_CFG_ON_RISING, 0, 1, 100, -100)
	rig.tick(t, true, false, false) // CTU edge: 1
	rig.tick(t, true, true, false)  // CTU has priority, already counted: 1
	rig.tick(t, true, false, false) // still held: 1
	if got := getF32(t, rig.e, rig.val); got != 1 {
		t.Fatalf("CTU with CTD pulse: got %f, expected 1", got)
	}
	rig.tick(t, false, true, false) // CTD edge: 0
	if got := getF32(t, rig.e, rig.val); got != 0 {
		t.Fatalf("CTD edge after CTU release: got %f, expected 0", got)
	}
}

// TestCounterAlwaysPublishesOutputs: even an idle tick leaves ENO and the
// value marked updated.
func TestCounterAlwaysPublishesOutputs(t *testing.T) {
	rig := newCounterRig(t, COUNTER_CFG_ON_RISING, 7, 1, 100, -100)
	rig.val.instance.updated = false
	rig.tick(t, false, false, false)
	if !rig.val.instance.updated {
		t.Fatal("counter output must be updated every tick")
	}
	if got := getF32(t, rig.e, rig.val); got != 7 {
		t.Fatalf("idle tick value: got %f, expected 7", got)
	}
}
