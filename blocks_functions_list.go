// blocks_functions_list.go - Per-type dispatch tables for the block library

package main

// Dispatch is O(1) on the block type byte. Any entry may be absent: blocks
// without private state skip parse/verify/free.
type blockExecFunc func(*Emulator, *Block) EmuResult
type blockParseFunc func(e *Emulator, b *Block, packetID uint8, payload []byte) EmuResult
type blockVerifyFunc func(*Emulator, *Block) EmuResult
type blockFreeFunc func(*Block)

var blockExecTable [256]blockExecFunc
var blockParseTable [256]blockParseFunc
var blockVerifyTable [256]blockVerifyFunc
var blockFreeTable [256]blockFreeFunc

func init() {
	blockExecTable[BLOCK_MATH] = blockMathExec
	blockParseTable[BLOCK_MATH] = blockMathParse
	blockVerifyTable[BLOCK_MATH] = blockMathVerify
	blockFreeTable[BLOCK_MATH] = blockStateFree

	blockExecTable[BLOCK_LOGIC] = blockLogicExec
	blockParseTable[BLOCK_LOGIC] = blockLogicParse
	blockVerifyTable[BLOCK_LOGIC] = blockLogicVerify
	blockFreeTable[BLOCK_LOGIC] = blockStateFree

	blockExecTable[BLOCK_SET] = blockSetExec

	blockExecTable[BLOCK_LATCH] = blockLatchExec
	blockParseTable[BLOCK_LATCH] = blockLatchParse
	blockVerifyTable[BLOCK_LATCH] = blockStateVerify
	blockFreeTable[BLOCK_LATCH] = blockStateFree

	blockExecTable[BLOCK_COUNTER] = blockCounterExec
	blockParseTable[BLOCK_COUNTER] = blockCounterParse
	blockVerifyTable[BLOCK_COUNTER] = blockStateVerify
	blockFreeTable[BLOCK_COUNTER] = blockStateFree

	blockExecTable[BLOCK_CLOCK] = blockClockExec
	blockParseTable[BLOCK_CLOCK] = blockClockParse
	blockVerifyTable[BLOCK_CLOCK] = blockClockVerify
	blockFreeTable[BLOCK_CLOCK] = blockStateFree

	blockExecTable[BLOCK_TIMER] = blockTimerExec
	blockParseTable[BLOCK_TIMER] = blockTimerParse
	blockVerifyTable[BLOCK_TIMER] = blockTimerVerify
	blockFreeTable[BLOCK_TIMER] = blockStateFree

	blockExecTable[BLOCK_FOR] = blockForExec
	blockParseTable[BLOCK_FOR] = blockForParse
	blockVerifyTable[BLOCK_FOR] = blockForVerify
	blockFreeTable[BLOCK_FOR] = blockStateFree

	blockExecTable[BLOCK_IN_SELECTOR] = blockInSelectorExec
	blockParseTable[BLOCK_IN_SELECTOR] = blockInSelectorParse
	blockVerifyTable[BLOCK_IN_SELECTOR] = blockStateVerify
	blockFreeTable[BLOCK_IN_SELECTOR] = blockStateFree

	blockExecTable[BLOCK_Q_SELECTOR] = blockQSelectorExec
	blockParseTable[BLOCK_Q_SELECTOR] = blockQSelectorParse
	blockVerifyTable[BLOCK_Q_SELECTOR] = blockStateVerify
	blockFreeTable[BLOCK_Q_SELECTOR] = blockStateFree
}

// blockStateVerify is the shared "state must exist" check used by blocks
// whose config packet is mandatory.
func blockStateVerify(e *Emulator, b *Block) EmuResult {
	if b.state == nil {
		return emuCritical(EMU_ERR_NULL_PTR, OWNER_VERIFY_CODE, b.cfg.blockIdx)
	}
	return emuOK()
}

// blockStateFree drops the per-block state variant.
func blockStateFree(b *Block) {
	b.state = nil
}
