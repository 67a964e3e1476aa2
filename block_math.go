// block_math.go - Math block: bytecode arithmetic over block inputs

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

// Input 0 is the enable line; opcode VAR(i) references the remaining
// operand inputs by position. Output 0 is ENO, output 1 the F32 result.
const (
	MATH_IN_EN   = 0
	MATH_OUT_ENO = 0
	MATH_OUT_RES = 1
)

type mathState struct {
	expr expression
}

func (s *mathState) resetState() {}

// cacheExprInputs copies every connected input's current value into a local
// array indexed by input position, so the bytecode never touches memory
// mid-evaluation. Slot 0 (EN) stays zero; opcodes do not reference it.
func (e *Emulator) cacheExprInputs(b *Block) []float32 {
	inputs := make([]float32, b.cfg.inCnt)
	for i := uint8(1); i < b.cfg.inCnt; i++ {
		if b.cfg.inConnectedMask>>i&1 == 1 {
			var v MemVar
			if res := e.memGet(&v, b.inputs[i], false); !res.IsErr() {
				inputs[i] = v.AsF32()
			}
		}
	}
	return inputs
}

func blockMathExec(e *Emulator, b *Block) EmuResult {
	if !blockInputsUpdated(b) || !e.blockInTrue(b, MATH_IN_EN) {
		return emuNotice(EMU_ERR_BLOCK_INACTIVE, OWNER_BLOCK_MATH, b.cfg.blockIdx)
	}
	state := b.state.(*mathState)

	result, err := state.expr.eval(e.cacheExprInputs(b), EXPR_MATH)
	if err != EMU_OK {
		return emuCritical(err, OWNER_BLOCK_MATH, b.cfg.blockIdx)
	}

	if res := e.blockSetOutput(b, VarBool(true), MATH_OUT_ENO); res.IsErr() {
		return chainFrom(res, OWNER_BLOCK_MATH, b.cfg.blockIdx)
	}
	if res := e.blockSetOutput(b, VarF32(result), MATH_OUT_RES); res.IsErr() {
		return chainFrom(res, OWNER_BLOCK_MATH, b.cfg.blockIdx)
	}
	return emuOK()
}

// blockMathParse accepts the CONSTANTS and INSTRUCTIONS packets; either may
// arrive first and either may be re-sent.
func blockMathParse(e *Emulator, b *Block, packetID uint8, payload []byte) EmuResult {
	if b.state == nil {
		b.state = &mathState{}
	}
	state := b.state.(*mathState)
	var err EmuErr
	switch packetID {
	case BLOCK_PKT_CONSTANTS:
		err = state.expr.parseConstants(payload)
	case BLOCK_PKT_INSTRUCTIONS:
		err = state.expr.parseInstructions(payload)
	default:
		return emuWarn(EMU_ERR_PACKET_NOT_FOUND, OWNER_BLOCK_MATH, b.cfg.blockIdx)
	}
	if err != EMU_OK {
		return emuCritical(err, OWNER_BLOCK_MATH, b.cfg.blockIdx)
	}
	return emuOK()
}

func blockMathVerify(e *Emulator, b *Block) EmuResult {
	if b.state == nil {
		return emuCritical(EMU_ERR_NULL_PTR, OWNER_BLOCK_MATH, b.cfg.blockIdx)
	}
	state := b.state.(*mathState)
	if len(state.expr.code) == 0 {
		return emuWarn(EMU_ERR_BLOCK_INVALID_PARAM, OWNER_BLOCK_MATH, b.cfg.blockIdx)
	}
	return emuOK()
}
