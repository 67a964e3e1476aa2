// block_counter.go - Up/down counter block with edge and level modes

package main

const (
	COUNTER_IN_CTU       = 0
	COUNTER_IN_CTD       = 1
	COUNTER_IN_RESET     = 2
	COUNTER_IN_STEP      = 3
	COUNTER_IN_LIMIT_MAX = 4
	COUNTER_IN_LIMIT_MIN = 5

	COUNTER_OUT_ENO = 0
	COUNTER_OUT_VAL = 1

	COUNTER_CFG_ON_RISING   = 0
	COUNTER_CFG_WHEN_ACTIVE = 1
)

type counterState struct {
	current float32
	start   float32
	step    float32
	max     float32
	min     float32
	mode    uint8
	prevCtu bool
	prevCtd bool
}

func (s *counterState) resetState() {
	s.current = s.start
	s.prevCtu = false
	s.prevCtd = false
}

// Priority: RESET > CTU > CTD. In ON_RISING mode each direction counts only
// on its own 0->1 transition and each clears its own prev-edge flag; in
// WHEN_ACTIVE mode every tick with the line high counts. The value
// saturates at the max/min limits.
func blockCounterExec(e *Emulator, b *Block) EmuResult {
	data := b.state.(*counterState)

	if blockInUpdated(b, COUNTER_IN_STEP) {
		if v, ok := e.blockInF32(b, COUNTER_IN_STEP); ok {
			data.step = v
		}
	}
	if blockInUpdated(b, COUNTER_IN_LIMIT_MAX) {
		if v, ok := e.blockInF32(b, COUNTER_IN_LIMIT_MAX); ok {
			data.max = v
		}
	}
	if blockInUpdated(b, COUNTER_IN_LIMIT_MIN) {
		if v, ok := e.blockInF32(b, COUNTER_IN_LIMIT_MIN); ok {
			data.min = v
		}
	}

	ctu := e.blockInTrue(b, COUNTER_IN_CTU)
	ctd := e.blockInTrue(b, COUNTER_IN_CTD)

	switch {
	case e.blockInTrue(b, COUNTER_IN_RESET):
		data.resetState()

	case ctu:
		if data.mode != COUNTER_CFG_ON_RISING || !data.prevCtu {
			data.current += data.step
			data.prevCtu = true
			if data.current > data.max {
				data.current = data.max
			}
		}

	case ctd:
		if data.mode != COUNTER_CFG_ON_RISING || !data.prevCtd {
			data.current -= data.step
			data.prevCtd = true
			if data.current < data.min {
				data.current = data.min
			}
		}
	}

	// Each direction tracks its own edge: a low line re-arms only its own
	// prev flag.
	if !ctu {
		data.prevCtu = false
	}
	if !ctd {
		data.prevCtd = false
	}

	if res := e.blockSetOutput(b, VarBool(true), COUNTER_OUT_ENO); res.IsErr() {
		return chainFrom(res, OWNER_BLOCK_COUNTER, b.cfg.blockIdx)
	}
	if res := e.blockSetOutput(b, VarF32(data.current), COUNTER_OUT_VAL); res.IsErr() {
		return chainFrom(res, OWNER_BLOCK_COUNTER, b.cfg.blockIdx)
	}
	return emuOK()
}

// CFG payload: {mode:u8, start:f32, step:f32, max:f32, min:f32}.
func blockCounterParse(e *Emulator, b *Block, packetID uint8, payload []byte) EmuResult {
	if b.state == nil {
		b.state = &counterState{}
	}
	if packetID != BLOCK_PKT_CFG {
		return emuWarn(EMU_ERR_PACKET_NOT_FOUND, OWNER_BLOCK_COUNTER, b.cfg.blockIdx)
	}
	if len(payload) < 17 {
		return emuCritical(EMU_ERR_PACKET_INCOMPLETE, OWNER_BLOCK_COUNTER, b.cfg.blockIdx)
	}
	data := b.state.(*counterState)
	data.mode = payload[0]
	data.start = leF32(payload[1:])
	data.step = leF32(payload[5:])
	data.max = leF32(payload[9:])
	data.min = leF32(payload[13:])
	data.resetState()
	return emuOK()
}
