// block_clock.go - Free-running pulse clock block

package main

import "math"

const (
	CLK_IN_EN     = 0
	CLK_IN_PERIOD = 1
	CLK_IN_WIDTH  = 2
	CLK_OUT_Q     = 0
)

type clockState struct {
	defaultPeriod float32
	defaultWidth  float32
	startTimeMs   uint64
	prevEn        bool
}

func (s *clockState) resetState() {
	s.startTimeMs = 0
	s.prevEn = false
}

// While EN is high the output is 1 for the first `width` milliseconds of
// every `period` window, measured from the rising edge of EN. A falling EN
// clears the window start and forces the output low.
func blockClockExec(e *Emulator, b *Block) EmuResult {
	data := b.state.(*clockState)

	if !e.blockInTrue(b, CLK_IN_EN) {
		data.prevEn = false
		if res := e.blockSetOutput(b, VarBool(false), CLK_OUT_Q); res.IsErr() {
			return chainFrom(res, OWNER_BLOCK_CLOCK, b.cfg.blockIdx)
		}
		return emuOK()
	}

	period := data.defaultPeriod
	if blockInUpdated(b, CLK_IN_PERIOD) {
		if v, ok := e.blockInF32(b, CLK_IN_PERIOD); ok {
			period = v
		}
	}
	width := data.defaultWidth
	if blockInUpdated(b, CLK_IN_WIDTH) {
		if v, ok := e.blockInF32(b, CLK_IN_WIDTH); ok {
			width = v
		}
	}
	if period < 1 {
		period = 1
	}
	if width < 0 {
		width = 0
	}

	now := e.loop.timeNowMs()
	if !data.prevEn {
		data.startTimeMs = now
		data.prevEn = true
	}

	phase := float32(math.Mod(float64(now-data.startTimeMs), float64(period)))
	q := phase < width

	if res := e.blockSetOutput(b, VarBool(q), CLK_OUT_Q); res.IsErr() {
		return chainFrom(res, OWNER_BLOCK_CLOCK, b.cfg.blockIdx)
	}
	return emuOK()
}

// CFG payload: {period_ms:f32, width_ms:f32}.
func blockClockParse(e *Emulator, b *Block, packetID uint8, payload []byte) EmuResult {
	if b.state == nil {
		b.state = &clockState{}
	}
	if packetID != BLOCK_PKT_CFG {
		return emuWarn(EMU_ERR_PACKET_NOT_FOUND, OWNER_BLOCK_CLOCK, b.cfg.blockIdx)
	}
	if len(payload) < 8 {
		return emuCritical(EMU_ERR_PACKET_INCOMPLETE, OWNER_BLOCK_CLOCK, b.cfg.blockIdx)
	}
	data := b.state.(*clockState)
	data.defaultPeriod = leF32(payload[0:])
	data.defaultWidth = leF32(payload[4:])
	data.resetState()
	return emuOK()
}

func blockClockVerify(e *Emulator, b *Block) EmuResult {
	if b.state == nil {
		return emuCritical(EMU_ERR_NULL_PTR, OWNER_BLOCK_CLOCK, b.cfg.blockIdx)
	}
	data := b.state.(*clockState)
	if data.defaultPeriod < 0.001 {
		return emuWarn(EMU_ERR_BLOCK_INVALID_PARAM, OWNER_BLOCK_CLOCK, b.cfg.blockIdx)
	}
	return emuOK()
}
