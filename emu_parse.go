// emu_parse.go - Framed-packet dispatcher, order guard and command handling

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
emu_parse.go - Control-plane ingestion

Every frame's first byte is a header tag resolved through a 256-entry
function table. Construction packets pass an order guard first: a bitset of
completed phases enforces the load sequence (code list before access arena,
arena before wiring, wiring before block data, loop config last) and rejects
out-of-order packets with SEQUENCE_VIOLATION before any state is touched.
Context and variable packets are deliberately unguarded so independent
contexts can be created and filled at any point before start.

The parser never runs concurrently with the driver: mutating packets are
denied while the loop is RUNNING.
*/

package main

type parseFunc func(*Emulator, []byte) EmuResult

var parseDispatchTable [256]parseFunc

func init() {
	parseDispatchTable[PACKET_H_CONTEXT_CFG] = parseContextCfg
	parseDispatchTable[PACKET_H_INSTANCE] = parseInstancePacket
	parseDispatchTable[PACKET_H_INSTANCE_SCALAR_DATA] = parseScalarData
	parseDispatchTable[PACKET_H_INSTANCE_ARR_DATA] = parseArrayData

	parseDispatchTable[PACKET_H_CODE_CFG] = parseCodeCfg
	parseDispatchTable[PACKET_H_ACCESS_ALLOC] = parseAccessAlloc
	parseDispatchTable[PACKET_H_LOOP_CFG] = parseLoopCfg

	parseDispatchTable[PACKET_H_BLOCK_HEADER] = parseBlockHeader
	parseDispatchTable[PACKET_H_BLOCK_INPUTS] = parseBlockInput
	parseDispatchTable[PACKET_H_BLOCK_OUTPUTS] = parseBlockOutput
	parseDispatchTable[PACKET_H_BLOCK_DATA] = parseBlockData

	parseDispatchTable[PACKET_H_SUB_CFG] = parseSubCfg
	parseDispatchTable[PACKET_H_SUB_ADD] = parseSubAdd
}

/* ============================================================================
    ORDER GUARD
   ============================================================================ */

type parsePhase uint8

const (
	PHASE_CODE_CFG parsePhase = iota
	PHASE_ACCESS_ALLOC
	PHASE_BLOCK_HEADER
	PHASE_BLOCK_IO
	PHASE_BLOCK_DATA
	PHASE_LOOP_CFG
	phaseCount
)

// parseState is the order-guard bitset of completed phases.
type parseState struct {
	done uint32
}

func (p *parseState) reset() { p.done = 0 }

func (p *parseState) has(ph parsePhase) bool { return p.done>>ph&1 == 1 }

var phasePrereqs = [phaseCount][]parsePhase{
	PHASE_CODE_CFG:     {},
	PHASE_ACCESS_ALLOC: {PHASE_CODE_CFG},
	PHASE_BLOCK_HEADER: {PHASE_CODE_CFG},
	PHASE_BLOCK_IO:     {PHASE_ACCESS_ALLOC, PHASE_BLOCK_HEADER},
	PHASE_BLOCK_DATA:   {PHASE_BLOCK_HEADER},
	PHASE_LOOP_CFG:     {PHASE_CODE_CFG},
}

// guard admits a packet of the given phase when every prerequisite phase has
// begun and no later phase has. Repeats within a phase are fine; going
// backwards is a sequence violation.
func (p *parseState) guard(ph parsePhase) EmuErr {
	for _, pre := range phasePrereqs[ph] {
		if !p.has(pre) {
			return EMU_ERR_SEQUENCE_VIOLATION
		}
	}
	for later := ph + 1; later < phaseCount; later++ {
		if p.has(later) {
			return EMU_ERR_SEQUENCE_VIOLATION
		}
	}
	p.done |= 1 << ph
	return EMU_OK
}

// headerPhase maps guarded header tags to their construction phase; ok is
// false for unguarded tags.
func headerPhase(header uint8) (parsePhase, bool) {
	switch header {
	case PACKET_H_CODE_CFG:
		return PHASE_CODE_CFG, true
	case PACKET_H_ACCESS_ALLOC:
		return PHASE_ACCESS_ALLOC, true
	case PACKET_H_BLOCK_HEADER:
		return PHASE_BLOCK_HEADER, true
	case PACKET_H_BLOCK_INPUTS, PACKET_H_BLOCK_OUTPUTS:
		return PHASE_BLOCK_IO, true
	case PACKET_H_BLOCK_DATA:
		return PHASE_BLOCK_DATA, true
	case PACKET_H_LOOP_CFG:
		return PHASE_LOOP_CFG, true
	}
	return 0, false
}

/* ============================================================================
    PACKET ENTRY POINT
   ============================================================================ */

// ParsePacket consumes one framed packet: header tag in byte 0, payload
// after it. Non-OK outcomes are enqueued to the logger and returned.
func (e *Emulator) ParsePacket(packet []byte) EmuResult {
	e.parseMu.Lock()
	defer e.parseMu.Unlock()

	if len(packet) < 1 {
		res := emuCritical(EMU_ERR_PACKET_INCOMPLETE, OWNER_PARSE_MANAGER, 0)
		e.logResult(res)
		return res
	}
	header := packet[0]

	if header == PACKET_H_COMMAND {
		res := e.handleCommand(packet)
		e.logResult(res)
		return res
	}

	fn := parseDispatchTable[header]
	if fn == nil {
		res := emuWarn(EMU_ERR_PACKET_NOT_FOUND, OWNER_PARSE_MANAGER, uint16(header))
		e.logResult(res)
		return res
	}

	// The control plane only mutates a stopped engine.
	if e.loop.currentStatus() == LOOP_RUNNING {
		res := emuWarn(EMU_ERR_DENY, OWNER_PARSE_MANAGER, uint16(header))
		e.logResult(res)
		return res
	}

	if phase, guarded := headerPhase(header); guarded {
		if err := e.parse.guard(phase); err != EMU_OK {
			res := emuWarn(err, OWNER_PARSE_MANAGER, uint16(header))
			e.logResult(res)
			return res
		}
	}

	res := fn(e, packet[1:])
	e.logResult(res)
	return res
}

// LOOP_CFG payload: {period_us:u32, max_skipped:u8}.
func parseLoopCfg(e *Emulator, data []byte) EmuResult {
	if len(data) < 5 {
		return emuCritical(EMU_ERR_PACKET_INCOMPLETE, OWNER_LOOP_INIT, 0)
	}
	periodUs := uint64(leU32(data[0:]))
	maxSkipped := data[4]

	res := e.loop.setPeriod(periodUs)
	e.loop.mu.Lock()
	if maxSkipped > 0 {
		e.loop.maxSkipped = maxSkipped
	}
	e.loop.mu.Unlock()
	return res
}

/* ============================================================================
    COMMANDS
   ============================================================================ */

// handleCommand decodes a control packet. The command id occupies the first
// two bytes big-endian, keeping 0xC0 as the dispatch tag.
func (e *Emulator) handleCommand(packet []byte) EmuResult {
	if len(packet) < 2 {
		return emuCritical(EMU_ERR_PACKET_INCOMPLETE, OWNER_PARSE_MANAGER, 0)
	}
	cmd := uint16(packet[0])<<8 | uint16(packet[1])
	payload := packet[2:]

	switch cmd {
	case CMD_LOOP_INIT:
		periodUs := uint64(LOOP_PERIOD_DEFAULT)
		if len(payload) >= 4 {
			periodUs = uint64(leU32(payload))
		}
		return e.loopInit(periodUs)

	case CMD_LOOP_START:
		return e.loopStart()

	case CMD_LOOP_STOP:
		return e.loopStop()

	case CMD_RESET_ALL:
		return e.ResetAll()

	case CMD_RESET_BLOCKS:
		return e.ResetBlocks()

	case CMD_SET_PERIOD:
		if len(payload) < 4 {
			return emuCritical(EMU_ERR_PACKET_INCOMPLETE, OWNER_LOOP_SET_PERIOD, 0)
		}
		res := e.loop.setPeriod(uint64(leU32(payload)))
		if !res.IsErr() {
			e.logReport(LOG_PERIOD_CHANGED, OWNER_LOOP_SET_PERIOD, uint16(leU32(payload)/1000))
		}
		return res

	case CMD_RUN_ONCE:
		return e.runOnce()
	}
	return emuWarn(EMU_ERR_NOT_FOUND, OWNER_PARSE_MANAGER, cmd)
}
