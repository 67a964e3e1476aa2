// component_reset.go - Reset paths for every engine component (hard reset support)

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

package main

// ResetAll tears the runtime back to its freshly-constructed shape: code
// graph, access arena, every memory context, subscriptions, the order guard
// and the loop counters. A complete reload after ResetAll reproduces
// byte-identical runtime state.
func (e *Emulator) ResetAll() EmuResult {
	if e.loop.currentStatus() == LOOP_RUNNING {
		e.loop.stop()
	}
	// Driver must be out of its tick before the structures under it go away.
	e.stopDriver()
	e.freeCode()
	e.access.free()
	for id := uint8(0); id < MAX_CONTEXTS; id++ {
		e.memContextDelete(id)
	}
	e.subs.reset()
	e.parse.reset()
	e.loop.deinit()
	e.logReport(LOG_RESET_ALL, OWNER_PARSE_MANAGER, 0)
	return emuOK()
}

// ResetBlocks rewinds the runtime part of every block's state (latches,
// counters, timer phases) to its parsed defaults without dropping the
// loaded program. The loop must not be running.
func (e *Emulator) ResetBlocks() EmuResult {
	if e.loop.currentStatus() == LOOP_RUNNING {
		return emuWarn(EMU_ERR_INVALID_STATE, OWNER_PARSE_MANAGER, 0)
	}
	if e.code == nil {
		return emuWarn(EMU_ERR_NULL_PTR, OWNER_PARSE_MANAGER, 0)
	}
	for _, block := range e.code.blocks {
		if block != nil && block.state != nil {
			block.state.resetState()
		}
	}
	e.logReport(LOG_RESET_BLOCKS, OWNER_PARSE_MANAGER, e.code.totalBlocks())
	return emuOK()
}
