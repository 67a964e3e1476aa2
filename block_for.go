// block_for.go - For-loop block driving a child chain of blocks

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
block_for.go - Loop block

The for block owns the `chain_len` blocks that follow it in the global
array. While its condition holds it publishes ENO plus the iterator value,
runs the child chain in order, then steps the iterator with the configured
operator. When the outer tick resumes, the block shifts the driver's global
iterator past the children so they do not run a second time.

The watchdog is polled before every child execution; a trip aborts the loop
with BLOCK_FOR_TIMEOUT. A division step with a near-zero operand leaves the
iterator unchanged rather than diverging through NaN or infinity.
*/

package main

const (
	FOR_IN_EN    = 0
	FOR_IN_START = 1
	FOR_IN_STOP  = 2
	FOR_IN_STEP  = 3

	FOR_OUT_ENO  = 0
	FOR_OUT_ITER = 1

	FOR_COND_GT  = 0
	FOR_COND_LT  = 1
	FOR_COND_GTE = 2
	FOR_COND_LTE = 3

	FOR_OP_ADD = 0
	FOR_OP_SUB = 1
	FOR_OP_MUL = 2
	FOR_OP_DIV = 3
)

type forState struct {
	startVal  float32
	endVal    float32
	stepVal   float32
	condition uint8
	op        uint8
	chainLen  uint16
}

func (s *forState) resetState() {}

func blockForExec(e *Emulator, b *Block) EmuResult {
	cfg := b.state.(*forState)

	// Skip the child chain in the outer walk whether or not we iterate;
	// the children belong to this block.
	defer func() {
		if e.code != nil {
			e.code.iterator += cfg.chainLen
		}
	}()

	if !blockInputsUpdated(b) || !e.blockInTrue(b, FOR_IN_EN) {
		return emuNotice(EMU_ERR_BLOCK_INACTIVE, OWNER_BLOCK_FOR, b.cfg.blockIdx)
	}

	start := cfg.startVal
	if v, ok := e.blockInF32(b, FOR_IN_START); ok {
		start = v
	}
	limit := cfg.endVal
	if v, ok := e.blockInF32(b, FOR_IN_STOP); ok {
		limit = v
	}
	step := cfg.stepVal
	if v, ok := e.blockInF32(b, FOR_IN_STEP); ok {
		step = v
	}

	current := start
	for {
		var conditionMet bool
		switch cfg.condition {
		case FOR_COND_GT:
			conditionMet = current > limit
		case FOR_COND_LT:
			conditionMet = current < limit
		case FOR_COND_GTE:
			conditionMet = current >= limit
		case FOR_COND_LTE:
			conditionMet = current <= limit
		}
		if !conditionMet {
			break
		}

		if res := e.blockSetOutput(b, VarBool(true), FOR_OUT_ENO); res.IsErr() {
			return chainFrom(res, OWNER_BLOCK_FOR, b.cfg.blockIdx)
		}
		if res := e.blockSetOutput(b, VarF32(current), FOR_OUT_ITER); res.IsErr() {
			return chainFrom(res, OWNER_BLOCK_FOR, b.cfg.blockIdx)
		}

		for c := uint16(1); c <= cfg.chainLen; c++ {
			childIdx := b.cfg.blockIdx + c
			if childIdx >= e.code.totalBlocks() {
				break
			}
			if e.loop.wtdTripped() {
				return emuCritical(EMU_ERR_BLOCK_FOR_TIMEOUT, OWNER_BLOCK_FOR, b.cfg.blockIdx)
			}
			child := e.code.blocks[childIdx]
			blockResetOutputsStatus(child)
			childFunc := blockExecTable[child.cfg.blockType]
			if childFunc == nil {
				continue
			}
			res := childFunc(e, child)
			if res.IsErr() && !res.Inactive() {
				return chainFrom(res, OWNER_BLOCK_FOR, b.cfg.blockIdx)
			}
		}

		switch cfg.op {
		case FOR_OP_ADD:
			current += step
		case FOR_OP_SUB:
			current -= step
		case FOR_OP_MUL:
			current *= step
		case FOR_OP_DIV:
			if !isZeroF32(step) {
				current /= step
			}
		}
	}
	return emuOK()
}

// CFG payload: {condition:u8, operator:u8, chain_len:u16, start:f32,
// stop:f32, step:f32}.
func blockForParse(e *Emulator, b *Block, packetID uint8, payload []byte) EmuResult {
	if b.state == nil {
		b.state = &forState{}
	}
	if packetID != BLOCK_PKT_CFG {
		return emuWarn(EMU_ERR_PACKET_NOT_FOUND, OWNER_BLOCK_FOR, b.cfg.blockIdx)
	}
	if len(payload) < 16 {
		return emuCritical(EMU_ERR_PACKET_INCOMPLETE, OWNER_BLOCK_FOR, b.cfg.blockIdx)
	}
	cfg := b.state.(*forState)
	cfg.condition = payload[0]
	cfg.op = payload[1]
	cfg.chainLen = leU16(payload[2:])
	cfg.startVal = leF32(payload[4:])
	cfg.endVal = leF32(payload[8:])
	cfg.stepVal = leF32(payload[12:])
	return emuOK()
}

func blockForVerify(e *Emulator, b *Block) EmuResult {
	if b.state == nil {
		return emuCritical(EMU_ERR_NULL_PTR, OWNER_BLOCK_FOR, b.cfg.blockIdx)
	}
	cfg := b.state.(*forState)
	if cfg.condition > FOR_COND_LTE || cfg.op > FOR_OP_DIV {
		return emuCritical(EMU_ERR_BLOCK_INVALID_PARAM, OWNER_BLOCK_FOR, b.cfg.blockIdx)
	}
	if uint32(b.cfg.blockIdx)+uint32(cfg.chainLen) >= uint32(e.code.totalBlocks()) {
		return emuCritical(EMU_ERR_BLOCK_INVALID_PARAM, OWNER_BLOCK_FOR, b.cfg.blockIdx)
	}
	return emuOK()
}
