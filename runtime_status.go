// runtime_status.go - Consolidated runtime snapshot for the monitor and tests

package main

// ctxStatusSnapshot summarizes one allocated context per type.
type ctxStatusSnapshot struct {
	ctxID     uint8
	instances [MEM_TYPES_COUNT]uint16
	heapUsed  [MEM_TYPES_COUNT]uint32
	heapCap   [MEM_TYPES_COUNT]uint32
	dimsUsed  [MEM_TYPES_COUNT]uint16
}

type runtimeStatusSnapshot struct {
	status       loopStatus
	periodUs     uint64
	timeMs       uint64
	loopCounter  uint64
	loopsSkipped uint8
	wtdTriggered bool

	totalBlocks uint16
	verified    bool

	contexts []ctxStatusSnapshot
}

// Snapshot captures the observable runtime state in one value. The driver
// may be mid-tick; counters are read atomically, structure is read as-is
// under the stopped/running discipline callers already follow.
func (e *Emulator) Snapshot() runtimeStatusSnapshot {
	snap := runtimeStatusSnapshot{
		status:       e.loop.currentStatus(),
		periodUs:     e.loop.currentPeriodUs(),
		timeMs:       e.loop.timeNowMs(),
		loopCounter:  e.loop.cycleCount(),
		loopsSkipped: e.loop.skipped(),
		wtdTriggered: e.loop.wtdTripped(),
		totalBlocks:  e.code.totalBlocks(),
		verified:     e.verified,
	}
	for id := uint8(0); id < MAX_CONTEXTS; id++ {
		if !e.ctxAllocated[id] {
			continue
		}
		cs := ctxStatusSnapshot{ctxID: id}
		for t := 0; t < MEM_TYPES_COUNT; t++ {
			mgr := &e.contexts[id].types[t]
			cs.instances[t] = mgr.instCursor
			cs.heapUsed[t] = mgr.heapCursor
			cs.heapCap[t] = mgr.heapCap
			cs.dimsUsed[t] = mgr.dimsCursor
		}
		snap.contexts = append(snap.contexts, cs)
	}
	return snap
}
