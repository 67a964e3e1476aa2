// block_latch.go - SR/RS latch block

package main

const (
	LATCH_IN_EN    = 0
	LATCH_IN_SET   = 1
	LATCH_IN_RESET = 2
	LATCH_OUT_Q    = 0

	LATCH_TYPE_SR = 0
	LATCH_TYPE_RS = 1
)

type latchState struct {
	state     bool
	latchType uint8
}

func (s *latchState) resetState() { s.state = false }

// SR: set dominates, both lines high latches to 1.
// RS: reset dominates, both lines high latches to 0.
func blockLatchExec(e *Emulator, b *Block) EmuResult {
	if !e.blockInTrue(b, LATCH_IN_EN) {
		return emuNotice(EMU_ERR_BLOCK_INACTIVE, OWNER_BLOCK_LATCH, b.cfg.blockIdx)
	}
	latch := b.state.(*latchState)
	set := e.blockInTrue(b, LATCH_IN_SET)
	reset := e.blockInTrue(b, LATCH_IN_RESET)

	switch {
	case set && !reset:
		latch.state = true
	case !set && reset:
		latch.state = false
	case set && reset:
		latch.state = latch.latchType == LATCH_TYPE_SR
	}

	if res := e.blockSetOutput(b, VarBool(latch.state), LATCH_OUT_Q); res.IsErr() {
		return chainFrom(res, OWNER_BLOCK_LATCH, b.cfg.blockIdx)
	}
	return emuOK()
}

// CFG payload: {latch_type:u8} (0 = SR, 1 = RS).
func blockLatchParse(e *Emulator, b *Block, packetID uint8, payload []byte) EmuResult {
	if b.state == nil {
		b.state = &latchState{}
	}
	if packetID != BLOCK_PKT_CFG {
		return emuWarn(EMU_ERR_PACKET_NOT_FOUND, OWNER_BLOCK_LATCH, b.cfg.blockIdx)
	}
	if len(payload) < 1 {
		return emuCritical(EMU_ERR_PACKET_INCOMPLETE, OWNER_BLOCK_LATCH, b.cfg.blockIdx)
	}
	latch := b.state.(*latchState)
	latch.latchType = payload[0] & 1
	latch.state = false
	return emuOK()
}
