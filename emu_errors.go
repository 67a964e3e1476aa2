// emu_errors.go - Error codes, result records and owner tables for the runIT engine

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

// EmuErr is the engine-wide status code. Every internal operation reports one
// of these; they travel to the host inside EmuResult records. The numeric
// ranges group the codes: 0xE... execution/ordering/parsing, 0xF... memory,
// 0xB... block-local, 0xA... system.
type EmuErr uint16

const (
	EMU_OK EmuErr = 0

	// Execution / order / parsing
	EMU_ERR_INVALID_STATE      EmuErr = 0xE001
	EMU_ERR_INVALID_ARG        EmuErr = 0xE002
	EMU_ERR_INVALID_DATA       EmuErr = 0xE003
	EMU_ERR_PACKET_INCOMPLETE  EmuErr = 0xE004
	EMU_ERR_PACKET_NOT_FOUND   EmuErr = 0xE005
	EMU_ERR_SEQUENCE_VIOLATION EmuErr = 0xE006
	EMU_ERR_DENY               EmuErr = 0xE007
	EMU_ERR_NOT_FOUND          EmuErr = 0xE008
	EMU_ERR_UNLIKELY           EmuErr = 0xEFFF

	// Memory
	EMU_ERR_NO_MEM               EmuErr = 0xF000
	EMU_ERR_MEM_INVALID_IDX      EmuErr = 0xF002
	EMU_ERR_MEM_OUT_OF_BOUNDS    EmuErr = 0xF004
	EMU_ERR_MEM_INVALID_DATATYPE EmuErr = 0xF005
	EMU_ERR_NULL_PTR             EmuErr = 0xF006
	EMU_ERR_CTX_INVALID_ID       EmuErr = 0xF007

	// Block specific
	EMU_ERR_BLOCK_DIV_BY_ZERO   EmuErr = 0xB001
	EMU_ERR_BLOCK_INVALID_PARAM EmuErr = 0xB003
	EMU_ERR_BLOCK_SELECTOR_OOB  EmuErr = 0xB004
	EMU_ERR_BLOCK_FOR_TIMEOUT   EmuErr = 0xB005
	EMU_ERR_BLOCK_INVALID_CONN  EmuErr = 0xB006
	EMU_ERR_BLOCK_WTD_TRIGGERED EmuErr = 0xB008
	// Not a failure: the block simply did not run this tick.
	EMU_ERR_BLOCK_INACTIVE EmuErr = 0xB00A

	// System
	EMU_ERR_WTD_TRIGGERED EmuErr = 0xA001
)

func (e EmuErr) String() string {
	switch e {
	case EMU_OK:
		return "EMU_OK"
	case EMU_ERR_INVALID_STATE:
		return "EMU_ERR_INVALID_STATE"
	case EMU_ERR_INVALID_ARG:
		return "EMU_ERR_INVALID_ARG"
	case EMU_ERR_INVALID_DATA:
		return "EMU_ERR_INVALID_DATA"
	case EMU_ERR_PACKET_INCOMPLETE:
		return "EMU_ERR_PACKET_INCOMPLETE"
	case EMU_ERR_PACKET_NOT_FOUND:
		return "EMU_ERR_PACKET_NOT_FOUND"
	case EMU_ERR_SEQUENCE_VIOLATION:
		return "EMU_ERR_SEQUENCE_VIOLATION"
	case EMU_ERR_DENY:
		return "EMU_ERR_DENY"
	case EMU_ERR_NOT_FOUND:
		return "EMU_ERR_NOT_FOUND"
	case EMU_ERR_UNLIKELY:
		return "EMU_ERR_UNLIKELY"
	case EMU_ERR_NO_MEM:
		return "EMU_ERR_NO_MEM"
	case EMU_ERR_MEM_INVALID_IDX:
		return "EMU_ERR_MEM_INVALID_IDX"
	case EMU_ERR_MEM_OUT_OF_BOUNDS:
		return "EMU_ERR_MEM_OUT_OF_BOUNDS"
	case EMU_ERR_MEM_INVALID_DATATYPE:
		return "EMU_ERR_MEM_INVALID_DATATYPE"
	case EMU_ERR_NULL_PTR:
		return "EMU_ERR_NULL_PTR"
	case EMU_ERR_CTX_INVALID_ID:
		return "EMU_ERR_CTX_INVALID_ID"
	case EMU_ERR_BLOCK_DIV_BY_ZERO:
		return "EMU_ERR_BLOCK_DIV_BY_ZERO"
	case EMU_ERR_BLOCK_INVALID_PARAM:
		return "EMU_ERR_BLOCK_INVALID_PARAM"
	case EMU_ERR_BLOCK_SELECTOR_OOB:
		return "EMU_ERR_BLOCK_SELECTOR_OOB"
	case EMU_ERR_BLOCK_FOR_TIMEOUT:
		return "EMU_ERR_BLOCK_FOR_TIMEOUT"
	case EMU_ERR_BLOCK_INVALID_CONN:
		return "EMU_ERR_BLOCK_INVALID_CONN"
	case EMU_ERR_BLOCK_WTD_TRIGGERED:
		return "EMU_ERR_BLOCK_WTD_TRIGGERED"
	case EMU_ERR_BLOCK_INACTIVE:
		return "EMU_ERR_BLOCK_INACTIVE"
	case EMU_ERR_WTD_TRIGGERED:
		return "EMU_ERR_WTD_TRIGGERED"
	default:
		return "UNKNOWN_ERR_CODE"
	}
}

// EmuOwner identifies the operation that produced a result record.
type EmuOwner uint16

const (
	OWNER_NONE EmuOwner = iota
	OWNER_MEM_CONTEXT_ALLOCATE
	OWNER_MEM_CONTEXT_DELETE
	OWNER_MEM_CREATE_INSTANCE
	OWNER_MEM_PARSE_CONTEXT_CFG
	OWNER_MEM_PARSE_INSTANCES
	OWNER_MEM_PARSE_SCALAR_DATA
	OWNER_MEM_PARSE_ARRAY_DATA
	OWNER_MEM_ACCESS_ALLOC
	OWNER_MEM_ACCESS_PARSE
	OWNER_MEM_GET
	OWNER_MEM_SET
	OWNER_PARSE_MANAGER
	OWNER_PARSE_CODE_CFG
	OWNER_PARSE_BLOCK_HEADER
	OWNER_PARSE_BLOCK_INPUT
	OWNER_PARSE_BLOCK_OUTPUT
	OWNER_PARSE_BLOCK_DATA
	OWNER_VERIFY_CODE
	OWNER_EXECUTE_CODE
	OWNER_LOOP_INIT
	OWNER_LOOP_START
	OWNER_LOOP_STOP
	OWNER_LOOP_SET_PERIOD
	OWNER_LOOP_RUN_ONCE
	OWNER_SUBSCRIBE
	OWNER_BLOCK_MATH
	OWNER_BLOCK_LOGIC
	OWNER_BLOCK_LATCH
	OWNER_BLOCK_COUNTER
	OWNER_BLOCK_CLOCK
	OWNER_BLOCK_TIMER
	OWNER_BLOCK_SET
	OWNER_BLOCK_FOR
	OWNER_BLOCK_IN_SELECTOR
	OWNER_BLOCK_Q_SELECTOR
	OWNER_BLOCK_OUTPUT
)

func (o EmuOwner) String() string {
	switch o {
	case OWNER_NONE:
		return "none"
	case OWNER_MEM_CONTEXT_ALLOCATE:
		return "mem_context_allocate"
	case OWNER_MEM_CONTEXT_DELETE:
		return "mem_context_delete"
	case OWNER_MEM_CREATE_INSTANCE:
		return "mem_create_instance"
	case OWNER_MEM_PARSE_CONTEXT_CFG:
		return "mem_parse_context_cfg"
	case OWNER_MEM_PARSE_INSTANCES:
		return "mem_parse_instances"
	case OWNER_MEM_PARSE_SCALAR_DATA:
		return "mem_parse_scalar_data"
	case OWNER_MEM_PARSE_ARRAY_DATA:
		return "mem_parse_array_data"
	case OWNER_MEM_ACCESS_ALLOC:
		return "mem_access_alloc"
	case OWNER_MEM_ACCESS_PARSE:
		return "mem_access_parse"
	case OWNER_MEM_GET:
		return "mem_get"
	case OWNER_MEM_SET:
		return "mem_set"
	case OWNER_PARSE_MANAGER:
		return "parse_manager"
	case OWNER_PARSE_CODE_CFG:
		return "parse_code_cfg"
	case OWNER_PARSE_BLOCK_HEADER:
		return "parse_block_header"
	case OWNER_PARSE_BLOCK_INPUT:
		return "parse_block_input"
	case OWNER_PARSE_BLOCK_OUTPUT:
		return "parse_block_output"
	case OWNER_PARSE_BLOCK_DATA:
		return "parse_block_data"
	case OWNER_VERIFY_CODE:
		return "verify_code"
	case OWNER_EXECUTE_CODE:
		return "execute_code"
	case OWNER_LOOP_INIT:
		return "loop_init"
	case OWNER_LOOP_START:
		return "loop_start"
	case OWNER_LOOP_STOP:
		return "loop_stop"
	case OWNER_LOOP_SET_PERIOD:
		return "loop_set_period"
	case OWNER_LOOP_RUN_ONCE:
		return "loop_run_once"
	case OWNER_SUBSCRIBE:
		return "subscribe"
	case OWNER_BLOCK_MATH:
		return "block_math"
	case OWNER_BLOCK_LOGIC:
		return "block_logic"
	case OWNER_BLOCK_LATCH:
		return "block_latch"
	case OWNER_BLOCK_COUNTER:
		return "block_counter"
	case OWNER_BLOCK_CLOCK:
		return "block_clock"
	case OWNER_BLOCK_TIMER:
		return "block_timer"
	case OWNER_BLOCK_SET:
		return "block_set"
	case OWNER_BLOCK_FOR:
		return "block_for"
	case OWNER_BLOCK_IN_SELECTOR:
		return "block_in_selector"
	case OWNER_BLOCK_Q_SELECTOR:
		return "block_q_selector"
	case OWNER_BLOCK_OUTPUT:
		return "block_output"
	default:
		return "UNKNOWN_OWNER"
	}
}

// EmuResult is the uniform result record. Code EMU_OK with no flags means
// success. Abort terminates the current tick; Warning and Notice are logged
// and execution continues. Depth counts how many callers re-surfaced the
// record on its way up. Time and Cycle are stamped by the logger when the
// record is enqueued.
type EmuResult struct {
	Code     EmuErr
	Owner    EmuOwner
	OwnerIdx uint16
	Depth    uint8
	Abort    bool
	Warning  bool
	Notice   bool
	Time     uint64
	Cycle    uint64
}

func emuOK() EmuResult {
	return EmuResult{Code: EMU_OK, OwnerIdx: 0xFFFF}
}

func emuCritical(code EmuErr, owner EmuOwner, idx uint16) EmuResult {
	return EmuResult{Code: code, Owner: owner, OwnerIdx: idx, Abort: true}
}

func emuWarn(code EmuErr, owner EmuOwner, idx uint16) EmuResult {
	return EmuResult{Code: code, Owner: owner, OwnerIdx: idx, Warning: true}
}

func emuNotice(code EmuErr, owner EmuOwner, idx uint16) EmuResult {
	return EmuResult{Code: code, Owner: owner, OwnerIdx: idx, Notice: true}
}

// IsErr reports whether the record carries a non-OK code.
func (r EmuResult) IsErr() bool { return r.Code != EMU_OK }

// Inactive reports the silent "did not run this tick" outcome.
func (r EmuResult) Inactive() bool { return r.Code == EMU_ERR_BLOCK_INACTIVE }

// chainFrom re-surfaces a child record under a new owner, preserving the
// original code and incrementing the depth counter.
func chainFrom(child EmuResult, owner EmuOwner, idx uint16) EmuResult {
	child.Owner = owner
	child.OwnerIdx = idx
	child.Depth++
	return child
}
