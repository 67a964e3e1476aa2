// emu_interface.go - Emulator runtime state and public control surface

/*
 ██▀███   █    ██  ███▄    █  ██▓▄▄▄█████▓   ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██ ▒ ██▒ ██  ▓██▒ ██ ▀█   █ ▓██▒▓  ██▒ ▓▒   ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▓██ ░▄█ ▒▓██  ▒██░▓██  ▀█ ██▒▒██▒▒ ▓██░ ▒░   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
▒██▀▀█▄  ▓▓█  ░██░▓██▒  ▐▌██▒░██░░ ▓██▓ ░    ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██▓ ▒██▒▒▒█████▓ ▒██░   ▓██░░██░  ▒██▒ ░    ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░ ▒▓ ░▒▓░░▒▓▒ ▒ ▒ ░ ▒░   ▒ ▒  ░▓    ▒ ░░     ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒  ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
  ░▒ ░ ▒░░░▒░ ░ ░ ░ ░░   ░ ▒░ ▒ ░    ░        ░ ░  ░░ ░░   ░ ▒░  ░   ░   ▒ ░░ ░░   ░ ▒░ ░ ░  ░

(c) 2025 - 2026 prukasz
https://github.com/prukasz/RunitEngine

License: GPLv3 or later
*/

/*
emu_interface.go - Runtime-state value

All formerly-global firmware state lives behind one Emulator value: the
typed-memory contexts, the access-descriptor arena, the loaded code graph,
the tick loop, the logger and the publish channel. The driver task, the
parser and the publisher all borrow from it under the stopped/running
discipline: control-plane parsers refuse to mutate a running engine.
*/

package main

import "sync"

// Emulator is the complete runtime state constructed once and reset through
// the RESET_* commands.
type Emulator struct {
	contexts     [MAX_CONTEXTS]MemContext
	ctxAllocated [MAX_CONTEXTS]bool
	access       accessArena
	code         *emuCode
	verified     bool

	loop   *emuLoop
	logger *emuLogger
	subs   *subManager
	parse  parseState

	// parseMu serializes the control plane: one packet at a time.
	parseMu sync.Mutex

	driverRunning bool
	shutdown      chan struct{}
	driverDone    chan struct{}
}

func NewEmulator() *Emulator {
	return &Emulator{
		loop:     newEmuLoop(LOOP_PERIOD_DEFAULT),
		logger:   newEmuLogger(),
		subs:     newSubManager(),
		shutdown: make(chan struct{}),
	}
}

// logResult stamps and enqueues a non-OK record. The silent BLOCK_INACTIVE
// outcome never reaches the ring.
func (e *Emulator) logResult(res EmuResult) {
	if !res.IsErr() || res.Inactive() {
		return
	}
	res.Time = e.loop.timeNowMs()
	res.Cycle = e.loop.cycleCount()
	e.logger.pushResult(res)
}

func (e *Emulator) logReport(id EmuLogID, owner EmuOwner, idx uint16) {
	e.logger.pushReport(EmuReport{
		LogID:    id,
		Owner:    owner,
		OwnerIdx: idx,
		Time:     e.loop.timeNowMs(),
		Cycle:    e.loop.cycleCount(),
	})
}

// loopInit (re)creates the tick machinery and spawns the driver task.
// Re-initializing an existing loop tears the old one down first, so a host
// may always begin a session with LOOP_INIT.
func (e *Emulator) loopInit(periodUs uint64) EmuResult {
	e.stopDriver()
	e.loop.deinit()
	e.loop.setPeriod(periodUs)
	e.startDriver()
	e.logger.startTask()
	e.logReport(LOG_LOOP_INITIALIZED, OWNER_LOOP_INIT, uint16(periodUs/1000))
	return emuOK()
}

// loopStart verifies the loaded code once and then releases the tick loop.
func (e *Emulator) loopStart() EmuResult {
	if !e.driverRunning {
		return emuWarn(EMU_ERR_INVALID_STATE, OWNER_LOOP_START, 0)
	}
	if !e.verified {
		if res := e.verifyCode(); res.IsErr() && !res.Warning {
			res.Abort = false
			res.Warning = true
			return chainFrom(res, OWNER_LOOP_START, 0)
		}
		e.logReport(LOG_BLOCKS_VERIFIED, OWNER_VERIFY_CODE, e.code.totalBlocks())
	}
	res := e.loop.start()
	if !res.IsErr() {
		e.logReport(LOG_LOOP_STARTED, OWNER_LOOP_START, 0)
	}
	return res
}

func (e *Emulator) loopStop() EmuResult {
	res := e.loop.stop()
	if !res.IsErr() {
		e.logReport(LOG_LOOP_STOPPED, OWNER_LOOP_STOP, 0)
	}
	return res
}

// runOnce executes one synchronous tick under the watchdog timeout.
func (e *Emulator) runOnce() EmuResult {
	if !e.driverRunning {
		return emuWarn(EMU_ERR_INVALID_STATE, OWNER_LOOP_RUN_ONCE, 0)
	}
	if !e.verified {
		if res := e.verifyCode(); res.IsErr() && !res.Warning {
			res.Abort = false
			res.Warning = true
			return chainFrom(res, OWNER_LOOP_RUN_ONCE, 0)
		}
	}
	res := e.loop.runOnce()
	if !res.IsErr() {
		e.logReport(LOG_LOOP_RAN_ONCE, OWNER_LOOP_RUN_ONCE, 0)
	}
	return res
}

// Close releases the driver, logger task and timer; the emulator is not
// usable afterwards.
func (e *Emulator) Close() {
	e.stopDriver()
	e.loop.deinit()
	e.logger.stopTask()
}
