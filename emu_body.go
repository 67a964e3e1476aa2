// emu_body.go - Execution driver: the per-tick block walk

package main

// executeCode walks the ordered block list once. Before each block runs its
// clearable outputs lose their updated flag; the watchdog is polled between
// blocks; a for-loop block advances the iterator past its child chain. Any
// abort-flagged result terminates the tick with the failing block index in
// the chain.
func (e *Emulator) executeCode() EmuResult {
	code := e.code
	if code == nil || len(code.blocks) == 0 {
		return emuCritical(EMU_ERR_NULL_PTR, OWNER_EXECUTE_CODE, 0)
	}

	for code.iterator = 0; code.iterator < code.totalBlocks(); code.iterator++ {
		block := code.blocks[code.iterator]
		blockResetOutputsStatus(block)

		if e.loop.wtdTripped() {
			return emuCritical(EMU_ERR_BLOCK_WTD_TRIGGERED, OWNER_EXECUTE_CODE, code.iterator)
		}

		execFunc := blockExecTable[block.cfg.blockType]
		if execFunc == nil {
			return emuCritical(EMU_ERR_BLOCK_INVALID_PARAM, OWNER_EXECUTE_CODE, code.iterator)
		}
		res := execFunc(e, block)
		if res.Abort {
			return chainFrom(res, OWNER_EXECUTE_CODE, code.iterator)
		}
		if res.IsErr() && !res.Inactive() {
			// Warnings and notices are logged; the tick continues.
			e.logResult(res)
		}
	}
	return emuOK()
}

// driverTask is the single-threaded execution unit. It wakes on each granted
// tick, runs the whole block graph, then rendezvouses with the logger and
// the publisher before posting end-of-cycle to the watchdog.
func (e *Emulator) driverTask() {
	for {
		if !e.loop.waitForCycleStart(e.shutdown) {
			return
		}

		res := e.executeCode()
		if res.IsErr() {
			e.logResult(res)
		}

		if e.subs.active() {
			e.subs.publish(e)
		}
		e.logger.requestDrain()
		e.loop.notifyCycleEnd()
	}
}

func (e *Emulator) startDriver() {
	if e.driverRunning {
		return
	}
	e.shutdown = make(chan struct{})
	e.driverDone = make(chan struct{})
	e.driverRunning = true
	go func() {
		defer close(e.driverDone)
		e.driverTask()
	}()
}

// stopDriver signals shutdown and waits for the driver to leave its current
// tick, so nothing races the logger or loop teardown that follows.
func (e *Emulator) stopDriver() {
	if !e.driverRunning {
		return
	}
	close(e.shutdown)
	<-e.driverDone
	e.driverRunning = false
}
