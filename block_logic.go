// block_logic.go - Logic block: bytecode comparisons and boolean combinators

package main

const (
	LOGIC_IN_EN   = 0
	LOGIC_OUT_ENO = 0
	LOGIC_OUT_RES = 1
)

type logicState struct {
	expr expression
}

func (s *logicState) resetState() {}

func blockLogicExec(e *Emulator, b *Block) EmuResult {
	if !blockInputsUpdated(b) || !e.blockInTrue(b, LOGIC_IN_EN) {
		return emuNotice(EMU_ERR_BLOCK_INACTIVE, OWNER_BLOCK_LOGIC, b.cfg.blockIdx)
	}
	state := b.state.(*logicState)

	result, err := state.expr.eval(e.cacheExprInputs(b), EXPR_LOGIC)
	if err != EMU_OK {
		return emuCritical(err, OWNER_BLOCK_LOGIC, b.cfg.blockIdx)
	}

	if res := e.blockSetOutput(b, VarBool(true), LOGIC_OUT_ENO); res.IsErr() {
		return chainFrom(res, OWNER_BLOCK_LOGIC, b.cfg.blockIdx)
	}
	// The top of stack is a 0.0/1.0 encoded boolean; threshold it.
	if res := e.blockSetOutput(b, VarBool(isTrue(result)), LOGIC_OUT_RES); res.IsErr() {
		return chainFrom(res, OWNER_BLOCK_LOGIC, b.cfg.blockIdx)
	}
	return emuOK()
}

func blockLogicParse(e *Emulator, b *Block, packetID uint8, payload []byte) EmuResult {
	if b.state == nil {
		b.state = &logicState{}
	}
	state := b.state.(*logicState)
	var err EmuErr
	switch packetID {
	case BLOCK_PKT_CONSTANTS:
		err = state.expr.parseConstants(payload)
	case BLOCK_PKT_INSTRUCTIONS:
		err = state.expr.parseInstructions(payload)
	default:
		return emuWarn(EMU_ERR_PACKET_NOT_FOUND, OWNER_BLOCK_LOGIC, b.cfg.blockIdx)
	}
	if err != EMU_OK {
		return emuCritical(err, OWNER_BLOCK_LOGIC, b.cfg.blockIdx)
	}
	return emuOK()
}

func blockLogicVerify(e *Emulator, b *Block) EmuResult {
	if b.state == nil {
		return emuCritical(EMU_ERR_NULL_PTR, OWNER_BLOCK_LOGIC, b.cfg.blockIdx)
	}
	state := b.state.(*logicState)
	if len(state.expr.code) == 0 {
		return emuWarn(EMU_ERR_BLOCK_INVALID_PARAM, OWNER_BLOCK_LOGIC, b.cfg.blockIdx)
	}
	return emuOK()
}
