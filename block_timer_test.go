// block_timer_test.go - TON/TOF/TP timer behaviour

package main

import "testing"

type timerRig struct {
	e         *Emulator
	b         *Block
	en, reset *MemAccess
	q, et     *MemAccess
}

func newTimerRig(t *testing.T, typ uint8, invert bool, pt uint32) *timerRig {
	e := newTestEmu(t)
	// Loop period 10ms drives the timer delta.
	e.loop.periodUs = 10_000

	enIdx := mkInstance(t, e, MEM_B, nil, true, false)
	resetIdx := mkInstance(t, e, MEM_B, nil, true, false)
	qIdx := mkInstance(t, e, MEM_B, nil, false, true)
	etIdx := mkInstance(t, e, MEM_U32, nil, false, true)

	rig := &timerRig{
		e:     e,
		en:    scalarAccess(t, e, MEM_B, enIdx),
		reset: scalarAccess(t, e, MEM_B, resetIdx),
		q:     scalarAccess(t, e, MEM_B, qIdx),
		et:    scalarAccess(t, e, MEM_U32, etIdx),
	}
	// PT input unconnected; the parsed default preset rules.
	rig.b = mkBlock(BLOCK_TIMER, []*MemAccess{rig.en, nil, rig.reset}, []*MemAccess{rig.q, rig.et})
	rig.b.state = &timerState{typ: typ, invert: invert, defaultPT: pt}
	return rig
}

func (rig *timerRig) tick(t *testing.T, en, reset bool) bool {
	t.Helper()
	advanceTick(rig.e)
	setBool(t, rig.e, rig.en, en)
	setBool(t, rig.e, rig.reset, reset)
	if res := blockTimerExec(rig.e, rig.b); res.IsErr() && !res.Inactive() {
		t.Fatalf("timer exec: %s", res.Code)
	}
	return getBool(t, rig.e, rig.q)
}

func (rig *timerRig) elapsed(t *testing.T) uint32 {
	t.Helper()
	return uint32(getF32(t, rig.e, rig.et))
}

// TestTimerTONScenario is S4: 10ms period, PT=35. EN T,T,T,T,F,T,T,T gives
// Q F,F,F,T,F,F,F,F with elapsed >= 35 at the fourth tick.
func TestTimerTONScenario(t *testing.T) {
	rig := newTimerRig(t, TIMER_TYPE_TON, false, 35)
	enSeq := []bool{true, true, true, true, false, true, true, true}
	wantQ := []bool{false, false, false, true, false, false, false, false}
	for i, en := range enSeq {
		got := rig.tick(t, en, false)
		if got != wantQ[i] {
			t.Fatalf("TON tick %d (EN=%t): Q=%t, expected %t", i, en, got, wantQ[i])
		}
		if i == 3 && rig.elapsed(t) < 35 {
			t.Fatalf("TON tick 4 elapsed %d, expected >= 35", rig.elapsed(t))
		}
	}
}

// TestTimerTOF: Q follows EN up at once and holds for PT after the falling
// edge.
func TestTimerTOF(t *testing.T) {
	rig := newTimerRig(t, TIMER_TYPE_TOF, false, 25)
	if !rig.tick(t, true, false) {
		t.Fatal("TOF: Q must rise with EN")
	}
	// Falling edge; Q holds for 25ms = ticks at 10 and 20 elapsed.
	if !rig.tick(t, false, false) {
		t.Fatal("TOF: Q must hold right after falling EN")
	}
	if !rig.tick(t, false, false) {
		t.Fatal("TOF: Q must hold at 20ms")
	}
	if rig.tick(t, false, false) {
		t.Fatal("TOF: Q must fall once PT elapsed")
	}
}

// TestTimerTPNonRetriggerable: the pulse runs to completion regardless of
// EN and does not retrigger while active.
func TestTimerTPNonRetriggerable(t *testing.T) {
	rig := newTimerRig(t, TIMER_TYPE_TP, false, 25)
	if !rig.tick(t, true, false) {
		t.Fatal("TP: rising edge must start the pulse")
	}
	// EN drops; the pulse keeps running (10, 20 elapsed).
	if !rig.tick(t, false, false) {
		t.Fatal("TP: pulse must survive EN falling")
	}
	// Mid-pulse rising edge must not restart the pulse.
	if rig.tick(t, true, false) {
		t.Fatal("TP: pulse must end after PT despite retrigger attempt")
	}
	// EN still high from the blocked retrigger: no new pulse without a
	// fresh edge.
	if rig.tick(t, true, false) {
		t.Fatal("TP: held EN must not start a new pulse")
	}
	rig.tick(t, false, false)
	if !rig.tick(t, true, false) {
		t.Fatal("TP: fresh rising edge after idle must pulse again")
	}
}

// TestTimerInvertFlipsQ: TON_INV outputs the complement.
func TestTimerInvertFlipsQ(t *testing.T) {
	rig := newTimerRig(t, TIMER_TYPE_TON, true, 15)
	if !rig.tick(t, true, false) {
		t.Fatal("TON_INV: Q must be high while elapsing")
	}
	rig.tick(t, true, false)
	if rig.tick(t, true, false) {
		t.Fatal("TON_INV: Q must drop once the delay completes")
	}
}

// TestTimerResetForcesInactive: RESET zeroes elapsed and drops Q to the
// inactive value.
func TestTimerResetForcesInactive(t *testing.T) {
	rig := newTimerRig(t, TIMER_TYPE_TON, false, 20)
	rig.tick(t, true, false)
	rig.tick(t, true, false)
	if !rig.tick(t, true, false) {
		t.Fatal("TON must be high after PT")
	}
	if rig.tick(t, true, true) {
		t.Fatal("RESET must force Q low")
	}
	if rig.elapsed(t) != 0 {
		t.Fatalf("RESET elapsed %d, expected 0", rig.elapsed(t))
	}
}
