// block_timer.go - TON/TOF/TP timer block with inverted variants

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
block_timer.go - PLC timer block

TON delays the rise of Q: EN must stay continuously true for PT milliseconds
before Q goes true; a falling EN clears the elapsed time and drops Q at once.
TOF delays the fall: Q follows EN up immediately and stays true for PT after
EN falls. TP emits a fixed-width pulse on the rising edge of EN and is not
retriggerable until the pulse finishes. The invert bit flips Q on the way
out; RESET forces elapsed time to zero and Q to the inactive value of the
selected type. Time advances with the driver's tick period.
*/

package main

const (
	TIMER_IN_EN    = 0
	TIMER_IN_PT    = 1
	TIMER_IN_RESET = 2

	TIMER_OUT_Q       = 0
	TIMER_OUT_ELAPSED = 1

	TIMER_TYPE_TON = 1
	TIMER_TYPE_TOF = 2
	TIMER_TYPE_TP  = 3
)

type timerState struct {
	typ       uint8
	invert    bool
	defaultPT uint32

	elapsedMs uint32
	prevEn    bool
	q         bool
	// TOF off-delay in progress / TP pulse in progress.
	phaseActive bool
}

func (s *timerState) resetState() {
	s.elapsedMs = 0
	s.prevEn = false
	s.q = false
	s.phaseActive = false
}

func blockTimerExec(e *Emulator, b *Block) EmuResult {
	data := b.state.(*timerState)

	deltaMs := uint32(e.loop.periodMs())
	if deltaMs == 0 {
		deltaMs = 1
	}

	pt := data.defaultPT
	if blockInUpdated(b, TIMER_IN_PT) {
		if v, ok := e.blockInF32(b, TIMER_IN_PT); ok && v > 0 {
			pt = uint32(v)
		}
	}

	en := e.blockInTrue(b, TIMER_IN_EN)

	if e.blockInTrue(b, TIMER_IN_RESET) {
		data.resetState()
		data.prevEn = en
		return timerSetOutputs(e, b, data)
	}

	switch data.typ {
	case TIMER_TYPE_TON:
		if en {
			data.elapsedMs += deltaMs
			data.q = data.elapsedMs >= pt
		} else {
			data.elapsedMs = 0
			data.q = false
		}

	case TIMER_TYPE_TOF:
		if en {
			data.q = true
			data.elapsedMs = 0
			data.phaseActive = false
		} else {
			if data.prevEn {
				// Falling edge arms the off-delay.
				data.phaseActive = true
				data.elapsedMs = 0
			}
			if data.phaseActive {
				data.elapsedMs += deltaMs
				if data.elapsedMs >= pt {
					data.q = false
					data.phaseActive = false
				}
			}
		}

	case TIMER_TYPE_TP:
		if en && !data.prevEn && !data.phaseActive {
			data.phaseActive = true
			data.elapsedMs = 0
		}
		if data.phaseActive {
			data.elapsedMs += deltaMs
			if data.elapsedMs >= pt {
				data.q = false
				data.phaseActive = false
			} else {
				data.q = true
			}
		} else {
			data.q = false
		}

	default:
		return emuCritical(EMU_ERR_BLOCK_INVALID_PARAM, OWNER_BLOCK_TIMER, b.cfg.blockIdx)
	}

	data.prevEn = en
	return timerSetOutputs(e, b, data)
}

func timerSetOutputs(e *Emulator, b *Block, data *timerState) EmuResult {
	q := data.q
	if data.invert {
		q = !q
	}
	if res := e.blockSetOutput(b, VarBool(q), TIMER_OUT_Q); res.IsErr() {
		return chainFrom(res, OWNER_BLOCK_TIMER, b.cfg.blockIdx)
	}
	if b.cfg.qCnt > TIMER_OUT_ELAPSED {
		if res := e.blockSetOutput(b, VarU32(data.elapsedMs), TIMER_OUT_ELAPSED); res.IsErr() {
			return chainFrom(res, OWNER_BLOCK_TIMER, b.cfg.blockIdx)
		}
	}
	return emuOK()
}

// CFG payload: {type:u8, invert:u8, default_pt_ms:u32}.
func blockTimerParse(e *Emulator, b *Block, packetID uint8, payload []byte) EmuResult {
	if b.state == nil {
		b.state = &timerState{}
	}
	if packetID != BLOCK_PKT_CFG {
		return emuWarn(EMU_ERR_PACKET_NOT_FOUND, OWNER_BLOCK_TIMER, b.cfg.blockIdx)
	}
	if len(payload) < 6 {
		return emuCritical(EMU_ERR_PACKET_INCOMPLETE, OWNER_BLOCK_TIMER, b.cfg.blockIdx)
	}
	data := b.state.(*timerState)
	data.typ = payload[0]
	data.invert = payload[1] != 0
	data.defaultPT = leU32(payload[2:])
	data.resetState()
	return emuOK()
}

func blockTimerVerify(e *Emulator, b *Block) EmuResult {
	if b.state == nil {
		return emuCritical(EMU_ERR_NULL_PTR, OWNER_BLOCK_TIMER, b.cfg.blockIdx)
	}
	data := b.state.(*timerState)
	if data.typ < TIMER_TYPE_TON || data.typ > TIMER_TYPE_TP {
		return emuCritical(EMU_ERR_BLOCK_INVALID_PARAM, OWNER_BLOCK_TIMER, b.cfg.blockIdx)
	}
	return emuOK()
}
