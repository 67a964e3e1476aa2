// emu_blocks.go - Block records, code graph construction and verification

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

// BlockCfg mirrors the packed BLOCK_HEADER payload:
// {block_idx:u16, block_type:u8, in_connected_mask:u16, in_cnt:u8, q_cnt:u8}.
type BlockCfg struct {
	blockIdx        uint16
	blockType       uint8
	inConnectedMask uint16
	inCnt           uint8
	qCnt            uint8
}

// Block is the uniform block record. Inputs and outputs are access
// descriptors; state holds the block-type-specific variant selected by the
// type byte (nil for state-less blocks such as SET).
type Block struct {
	cfg     BlockCfg
	inputs  []*MemAccess
	outputs []*MemAccess
	state   blockState
}

// blockState is the tagged per-type state carried by a block. Concrete
// types live next to their block implementations.
type blockState interface {
	resetState()
}

// emuCode is the loaded code graph: the ordered block array plus the driver
// iterator, which for-loop blocks advance past their child chains.
type emuCode struct {
	blocks   []*Block
	iterator uint16
}

func (c *emuCode) totalBlocks() uint16 {
	if c == nil {
		return 0
	}
	return uint16(len(c.blocks))
}

/* ============================================================================
    EXECUTION HELPERS
   ============================================================================ */

// blockInConnected reports whether input i is both declared connected and
// actually wired to a descriptor.
func blockInConnected(b *Block, i uint8) bool {
	return i < b.cfg.inCnt && b.cfg.inConnectedMask>>i&1 == 1 && b.inputs[i] != nil
}

// blockInUpdated reports whether input i is connected and its instance
// produced a value this tick (or holds a steady value from an earlier one).
func blockInUpdated(b *Block, i uint8) bool {
	return blockInConnected(b, i) && b.inputs[i].instance != nil && b.inputs[i].instance.updated
}

// blockInTrue reads a boolean-ish input line; unconnected or unreadable
// lines count as false.
func (e *Emulator) blockInTrue(b *Block, i uint8) bool {
	if !blockInConnected(b, i) {
		return false
	}
	var v MemVar
	if res := e.memGet(&v, b.inputs[i], false); res.IsErr() {
		return false
	}
	return isTrue(v.AsF32())
}

// blockInF32 reads input i coerced to float32; ok is false when the line is
// unconnected or unreadable.
func (e *Emulator) blockInF32(b *Block, i uint8) (float32, bool) {
	if !blockInConnected(b, i) {
		return 0, false
	}
	var v MemVar
	if res := e.memGet(&v, b.inputs[i], false); res.IsErr() {
		return 0, false
	}
	return v.AsF32(), true
}

// blockInputsUpdated reports whether every connected input has a known
// value; blocks that gate on activity use it before touching the evaluator.
func blockInputsUpdated(b *Block) bool {
	for i := uint8(0); i < b.cfg.inCnt; i++ {
		if b.cfg.inConnectedMask>>i&1 == 1 {
			if b.inputs[i] == nil || b.inputs[i].instance == nil || !b.inputs[i].instance.updated {
				return false
			}
		}
	}
	return true
}

// blockSetOutput writes a value through output slot q.
func (e *Emulator) blockSetOutput(b *Block, v MemVar, q uint8) EmuResult {
	if q >= b.cfg.qCnt || b.outputs[q] == nil {
		return emuCritical(EMU_ERR_BLOCK_INVALID_CONN, OWNER_BLOCK_OUTPUT, b.cfg.blockIdx)
	}
	res := e.memSet(v, b.outputs[q])
	if res.IsErr() {
		return chainFrom(res, OWNER_BLOCK_OUTPUT, b.cfg.blockIdx)
	}
	return emuOK()
}

// blockResetOutputsStatus clears the updated flag on every output whose
// instance permits it; the driver calls this before each block runs.
func blockResetOutputsStatus(b *Block) {
	for _, out := range b.outputs {
		if out != nil && out.instance != nil && out.instance.canClear {
			out.instance.updated = false
		}
	}
}

/* ============================================================================
    PACKET PARSERS (CODE_CFG / BLOCK_HEADER / BLOCK_INPUTS / BLOCK_OUTPUTS /
    BLOCK_DATA)
   ============================================================================ */

const blocksTotalMax = 4096

// CODE_CFG payload: {block_count:u16}. Allocates the ordered block array;
// block_idx equals position within it.
func parseCodeCfg(e *Emulator, data []byte) EmuResult {
	if len(data) < 2 {
		return emuCritical(EMU_ERR_PACKET_INCOMPLETE, OWNER_PARSE_CODE_CFG, 0)
	}
	count := leU16(data)
	if count == 0 || count > blocksTotalMax {
		return emuCritical(EMU_ERR_INVALID_ARG, OWNER_PARSE_CODE_CFG, count)
	}
	pool := make([]Block, count)
	code := &emuCode{blocks: make([]*Block, count)}
	for i := range code.blocks {
		code.blocks[i] = &pool[i]
	}
	e.code = code
	e.verified = false
	return emuOK()
}

// BLOCK_HEADER payload: packed BlockCfg, 7 bytes.
func parseBlockHeader(e *Emulator, data []byte) EmuResult {
	if len(data) < 7 {
		return emuCritical(EMU_ERR_PACKET_INCOMPLETE, OWNER_PARSE_BLOCK_HEADER, 0)
	}
	cfg := BlockCfg{
		blockIdx:        leU16(data[0:]),
		blockType:       data[2],
		inConnectedMask: leU16(data[3:]),
		inCnt:           data[5],
		qCnt:            data[6],
	}
	if e.code == nil || cfg.blockIdx >= e.code.totalBlocks() {
		return emuCritical(EMU_ERR_BLOCK_INVALID_PARAM, OWNER_PARSE_BLOCK_HEADER, cfg.blockIdx)
	}
	block := e.code.blocks[cfg.blockIdx]
	block.cfg = cfg
	block.inputs = make([]*MemAccess, cfg.inCnt)
	block.outputs = make([]*MemAccess, cfg.qCnt)
	block.state = nil
	e.verified = false
	return emuOK()
}

// BLOCK_INPUTS / BLOCK_OUTPUTS payload: {block_idx:u16, slot_idx:u8}
// followed by one access-descriptor subtree.
func parseBlockSlot(e *Emulator, data []byte, output bool) EmuResult {
	owner := OWNER_PARSE_BLOCK_INPUT
	if output {
		owner = OWNER_PARSE_BLOCK_OUTPUT
	}
	if len(data) < 3 {
		return emuCritical(EMU_ERR_PACKET_INCOMPLETE, owner, 0)
	}
	blockIdx := leU16(data[0:])
	slot := data[2]
	if e.code == nil || blockIdx >= e.code.totalBlocks() {
		return emuCritical(EMU_ERR_BLOCK_INVALID_PARAM, owner, blockIdx)
	}
	idx := 3
	access, err := e.parseAccess(data, &idx)
	if err != EMU_OK {
		return emuCritical(err, owner, blockIdx)
	}
	block := e.code.blocks[blockIdx]
	if output {
		if slot >= block.cfg.qCnt {
			return emuCritical(EMU_ERR_BLOCK_INVALID_PARAM, owner, blockIdx)
		}
		block.outputs[slot] = access
	} else {
		if slot >= block.cfg.inCnt {
			return emuCritical(EMU_ERR_BLOCK_INVALID_PARAM, owner, blockIdx)
		}
		block.inputs[slot] = access
	}
	e.verified = false
	return emuOK()
}

func parseBlockInput(e *Emulator, data []byte) EmuResult {
	return parseBlockSlot(e, data, false)
}

func parseBlockOutput(e *Emulator, data []byte) EmuResult {
	return parseBlockSlot(e, data, true)
}

// BLOCK_DATA payload: {block_idx:u16, block_type:u8, packet_id:u8, data...}.
// Validates the target block and its recorded type, then hands the stripped
// payload to the block-specific parser.
func parseBlockData(e *Emulator, data []byte) EmuResult {
	if len(data) < 4 {
		return emuCritical(EMU_ERR_PACKET_INCOMPLETE, OWNER_PARSE_BLOCK_DATA, 0)
	}
	blockIdx := leU16(data[0:])
	blockType := data[2]
	packetID := data[3]

	if e.code == nil || blockIdx >= e.code.totalBlocks() {
		return emuCritical(EMU_ERR_BLOCK_INVALID_PARAM, OWNER_PARSE_BLOCK_DATA, blockIdx)
	}
	block := e.code.blocks[blockIdx]
	if block.cfg.blockType != blockType {
		return emuCritical(EMU_ERR_BLOCK_INVALID_PARAM, OWNER_PARSE_BLOCK_DATA, blockIdx)
	}
	parser := blockParseTable[blockType]
	if parser == nil {
		// Some blocks carry no private state (e.g. SET).
		return emuOK()
	}
	res := parser(e, block, packetID, data[4:])
	if res.IsErr() {
		return chainFrom(res, OWNER_PARSE_BLOCK_DATA, blockIdx)
	}
	e.verified = false
	return emuOK()
}

/* ============================================================================
    CODE VERIFICATION
   ============================================================================ */

// verifyCode is the precondition to starting the loop: every block must
// exist, have a dispatch function, have every declared-connected input and
// every output wired, and pass its per-type verifier.
func (e *Emulator) verifyCode() EmuResult {
	code := e.code
	if code == nil || code.blocks == nil {
		return emuCritical(EMU_ERR_NULL_PTR, OWNER_VERIFY_CODE, 0)
	}
	if code.totalBlocks() == 0 {
		return emuWarn(EMU_ERR_BLOCK_INVALID_PARAM, OWNER_VERIFY_CODE, 0)
	}
	for i, block := range code.blocks {
		idx := uint16(i)
		if block == nil {
			return emuCritical(EMU_ERR_NULL_PTR, OWNER_VERIFY_CODE, idx)
		}
		if blockExecTable[block.cfg.blockType] == nil {
			return emuCritical(EMU_ERR_BLOCK_INVALID_PARAM, OWNER_VERIFY_CODE, idx)
		}
		for in := uint8(0); in < block.cfg.inCnt; in++ {
			if block.cfg.inConnectedMask>>in&1 == 0 {
				continue
			}
			if block.inputs[in] == nil || block.inputs[in].instance == nil {
				return emuCritical(EMU_ERR_BLOCK_INVALID_CONN, OWNER_VERIFY_CODE, idx)
			}
		}
		for q := uint8(0); q < block.cfg.qCnt; q++ {
			if block.outputs[q] == nil || block.outputs[q].instance == nil {
				return emuCritical(EMU_ERR_BLOCK_INVALID_CONN, OWNER_VERIFY_CODE, idx)
			}
		}
		if verify := blockVerifyTable[block.cfg.blockType]; verify != nil {
			if res := verify(e, block); res.IsErr() && !res.Warning && !res.Notice {
				return chainFrom(res, OWNER_VERIFY_CODE, idx)
			}
		}
	}
	e.verified = true
	return emuOK()
}

// freeCode releases the code graph and its per-block state.
func (e *Emulator) freeCode() {
	if e.code == nil {
		return
	}
	for _, block := range e.code.blocks {
		if block == nil {
			continue
		}
		if freeFn := blockFreeTable[block.cfg.blockType]; freeFn != nil {
			freeFn(block)
		}
		block.state = nil
		block.inputs = nil
		block.outputs = nil
	}
	e.code = nil
	e.verified = false
}
