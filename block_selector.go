// block_selector.go - Input-selector and output-selector (Q-selector) blocks

package main

const (
	SEL_IN_EN       = 0
	SEL_IN_SEL      = 1
	SEL_IN_OPT_BASE = 2
)

type inSelectorState struct{}

func (s *inSelectorState) resetState() {}

type qSelectorState struct{}

func (s *qSelectorState) resetState() {}

// blockInSelectorExec mirrors the chosen option's instance record into the
// output instance whenever SEL changes, so the output aliases the option's
// storage with its type preserved. The output is marked updated
// unconditionally; whether the mirrored option itself was updated is not
// propagated.
func blockInSelectorExec(e *Emulator, b *Block) EmuResult {
	if !e.blockInTrue(b, SEL_IN_EN) {
		return emuNotice(EMU_ERR_BLOCK_INACTIVE, OWNER_BLOCK_IN_SELECTOR, b.cfg.blockIdx)
	}
	out := b.outputs[0]
	if out == nil || out.instance == nil {
		return emuCritical(EMU_ERR_BLOCK_INVALID_CONN, OWNER_BLOCK_IN_SELECTOR, b.cfg.blockIdx)
	}

	if blockInUpdated(b, SEL_IN_SEL) {
		var sel MemVar
		if res := e.memGet(&sel, b.inputs[SEL_IN_SEL], false); res.IsErr() {
			return chainFrom(res, OWNER_BLOCK_IN_SELECTOR, b.cfg.blockIdx)
		}
		selector := sel.AsU16()
		optCount := uint16(b.cfg.inCnt) - SEL_IN_OPT_BASE
		if selector >= optCount {
			return emuWarn(EMU_ERR_BLOCK_SELECTOR_OOB, OWNER_BLOCK_IN_SELECTOR, b.cfg.blockIdx)
		}
		opt := b.inputs[SEL_IN_OPT_BASE+uint8(selector)]
		if opt == nil || opt.instance == nil {
			return emuCritical(EMU_ERR_BLOCK_INVALID_CONN, OWNER_BLOCK_IN_SELECTOR, b.cfg.blockIdx)
		}
		// Mirror the whole record; the output instance now aliases the
		// option's heap region.
		canClear := out.instance.canClear
		*out.instance = *opt.instance
		out.instance.canClear = canClear
	}
	out.instance.updated = true
	return emuOK()
}

// Option wiring arrives as ordinary BLOCK_INPUTS packets on slots 2..N;
// packet ids at BLOCK_PKT_OPTION_BASE and above are reserved for hosts that
// prefer to ship options through BLOCK_DATA and are accepted as no-ops.
func blockInSelectorParse(e *Emulator, b *Block, packetID uint8, payload []byte) EmuResult {
	if b.state == nil {
		b.state = &inSelectorState{}
	}
	return emuOK()
}

// instanceStoreBool writes a boolean straight into the first element of an
// instance, bypassing descriptor resolution; only the Q-selector needs this
// because it controls updated flags itself.
func (e *Emulator) instanceStoreBool(inst *MemInstance, v bool) {
	mgr := e.typeMgr(inst.context, inst.typ)
	if mgr == nil {
		return
	}
	raw := uint32(0)
	if v {
		raw = 1
	}
	memStoreRaw(inst.typ, mgr.elemBytes(inst.typ, inst.dataOff, 1), raw)
}

// blockQSelectorExec drives N boolean outputs of which only the selected one
// is true and marked updated. EN false clears every output.
func blockQSelectorExec(e *Emulator, b *Block) EmuResult {
	if !e.blockInTrue(b, SEL_IN_EN) {
		for _, out := range b.outputs {
			if out != nil && out.instance != nil {
				e.instanceStoreBool(out.instance, false)
				out.instance.updated = false
			}
		}
		return emuNotice(EMU_ERR_BLOCK_INACTIVE, OWNER_BLOCK_Q_SELECTOR, b.cfg.blockIdx)
	}

	if blockInUpdated(b, SEL_IN_SEL) {
		var sel MemVar
		if res := e.memGet(&sel, b.inputs[SEL_IN_SEL], false); res.IsErr() {
			return chainFrom(res, OWNER_BLOCK_Q_SELECTOR, b.cfg.blockIdx)
		}
		selector := sel.AsU16()
		for _, out := range b.outputs {
			if out != nil && out.instance != nil {
				e.instanceStoreBool(out.instance, false)
				out.instance.updated = false
			}
		}
		if selector >= uint16(b.cfg.qCnt) {
			return emuCritical(EMU_ERR_BLOCK_SELECTOR_OOB, OWNER_BLOCK_Q_SELECTOR, b.cfg.blockIdx)
		}
		out := b.outputs[selector]
		if out == nil || out.instance == nil {
			return emuCritical(EMU_ERR_BLOCK_INVALID_CONN, OWNER_BLOCK_Q_SELECTOR, b.cfg.blockIdx)
		}
		e.instanceStoreBool(out.instance, true)
		out.instance.updated = true
	}
	return emuOK()
}

func blockQSelectorParse(e *Emulator, b *Block, packetID uint8, payload []byte) EmuResult {
	if b.state == nil {
		b.state = &qSelectorState{}
	}
	return emuOK()
}
