// emu_variables.go - Typed memory contexts, heaps and instances

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
emu_variables.go - Typed memory subsystem

A context is a namespace of typed memory. Each of the up-to-eight contexts
owns, per data type, a contiguous little-endian element heap, a table of
instance records and a shared pool of U16 dimension sizes. All three are
sized once by the CONTEXT_CFG packet and then only ever advance monotonic
cursors; nothing is freed until the context is destroyed.

An instance is one scalar or one N-dimensional array inside a context. Its
index is assigned in packet order and stays stable for the lifetime of the
context, which is what lets access descriptors refer to instances by index.
*/

package main

import (
	"encoding/binary"
)

// Per-type capacity caps keep a malformed CONTEXT_CFG from asking the host
// for absurd allocations. The firmware relied on calloc failing; here the
// caps are explicit.
const (
	MEM_HEAP_ELEMENTS_MAX = 1 << 24
	MEM_INSTANCES_MAX     = 1 << 14
	MEM_DIMS_POOL_MAX     = 1 << 14
)

// MemInstance is one scalar or array living inside a context. dataOff and
// elCnt are element (not byte) quantities inside the owning heap.
type MemInstance struct {
	context  uint8
	typ      MemType
	dimsCnt  uint8
	dimsIdx  uint16
	dataOff  uint32
	elCnt    uint32
	updated  bool
	canClear bool
}

// typeManager bundles the three per-type pools of a context.
type typeManager struct {
	heap       []byte
	heapCap    uint32 // elements
	heapCursor uint32 // elements
	instances  []MemInstance
	instCursor uint16
	dimsPool   []uint16
	dimsCursor uint16
}

// elemBytes returns the heap window of count elements starting at element
// offset off.
func (mgr *typeManager) elemBytes(t MemType, off, count uint32) []byte {
	sz := uint32(t.Size())
	return mgr.heap[off*sz : (off+count)*sz]
}

// instanceData returns the full heap window backing an instance.
func (mgr *typeManager) instanceData(inst *MemInstance) []byte {
	return mgr.elemBytes(inst.typ, inst.dataOff, inst.elCnt)
}

// MemContext owns one typeManager per data type.
type MemContext struct {
	types [MEM_TYPES_COUNT]typeManager
}

type memCtxConfig struct {
	heapElements [MEM_TYPES_COUNT]uint32
	maxInstances [MEM_TYPES_COUNT]uint16
	maxDims      [MEM_TYPES_COUNT]uint16
}

// typeMgr resolves the manager for (context, type); nil when the context was
// never allocated or the ids are out of range.
func (e *Emulator) typeMgr(ctx uint8, t MemType) *typeManager {
	if ctx >= MAX_CONTEXTS || !t.Valid() || !e.ctxAllocated[ctx] {
		return nil
	}
	return &e.contexts[ctx].types[t]
}

// memContextDelete releases every pool of a context. Safe on a context that
// was never allocated.
func (e *Emulator) memContextDelete(ctxID uint8) {
	if ctxID >= MAX_CONTEXTS {
		return
	}
	ctx := &e.contexts[ctxID]
	for i := range ctx.types {
		ctx.types[i] = typeManager{}
	}
	e.ctxAllocated[ctxID] = false
}

// memContextAllocate creates the per-type pools of a context. Allocating an
// already-allocated id is reported as a warning and changes nothing; a
// capacity failure rolls the whole context back.
func (e *Emulator) memContextAllocate(ctxID uint8, cfg *memCtxConfig) EmuResult {
	if ctxID >= MAX_CONTEXTS {
		return emuCritical(EMU_ERR_CTX_INVALID_ID, OWNER_MEM_CONTEXT_ALLOCATE, uint16(ctxID))
	}
	if e.ctxAllocated[ctxID] {
		return emuWarn(EMU_ERR_DENY, OWNER_MEM_CONTEXT_ALLOCATE, uint16(ctxID))
	}
	ctx := &e.contexts[ctxID]
	for i := 0; i < MEM_TYPES_COUNT; i++ {
		t := MemType(i)
		if cfg.heapElements[i] > MEM_HEAP_ELEMENTS_MAX ||
			cfg.maxInstances[i] > MEM_INSTANCES_MAX ||
			cfg.maxDims[i] > MEM_DIMS_POOL_MAX {
			e.memContextDelete(ctxID)
			return emuCritical(EMU_ERR_NO_MEM, OWNER_MEM_CONTEXT_ALLOCATE, uint16(ctxID))
		}
		mgr := &ctx.types[i]
		if cfg.heapElements[i] > 0 {
			mgr.heap = make([]byte, cfg.heapElements[i]*uint32(t.Size()))
			mgr.heapCap = cfg.heapElements[i]
		}
		if cfg.maxInstances[i] > 0 {
			mgr.instances = make([]MemInstance, cfg.maxInstances[i])
		}
		if cfg.maxDims[i] > 0 {
			mgr.dimsPool = make([]uint16, cfg.maxDims[i])
		}
	}
	e.ctxAllocated[ctxID] = true
	return emuOK()
}

// contextCreateInstance appends one instance record, copies its dimension
// sizes into the dim pool and reserves its heap region. Instance indices
// follow creation order.
func (e *Emulator) contextCreateInstance(ctxID uint8, t MemType, dimSizes []uint16, updated, canClear bool) (uint16, EmuErr) {
	if !t.Valid() || len(dimSizes) > MAX_DIMS {
		return 0, EMU_ERR_INVALID_ARG
	}
	mgr := e.typeMgr(ctxID, t)
	if mgr == nil {
		return 0, EMU_ERR_CTX_INVALID_ID
	}

	total := uint32(1)
	for _, d := range dimSizes {
		if d == 0 {
			return 0, EMU_ERR_INVALID_ARG
		}
		total *= uint32(d)
	}

	if mgr.heapCursor+total > mgr.heapCap {
		return 0, EMU_ERR_NO_MEM
	}
	if int(mgr.instCursor) >= len(mgr.instances) {
		return 0, EMU_ERR_NO_MEM
	}
	if int(mgr.dimsCursor)+len(dimSizes) > len(mgr.dimsPool) && len(dimSizes) > 0 {
		return 0, EMU_ERR_NO_MEM
	}

	idx := mgr.instCursor
	inst := &mgr.instances[idx]
	mgr.instCursor++

	inst.context = ctxID
	inst.typ = t
	inst.dimsCnt = uint8(len(dimSizes))
	inst.dimsIdx = mgr.dimsCursor
	inst.dataOff = mgr.heapCursor
	inst.elCnt = total
	inst.updated = updated
	inst.canClear = canClear

	copy(mgr.dimsPool[mgr.dimsCursor:], dimSizes)
	mgr.dimsCursor += uint16(len(dimSizes))
	mgr.heapCursor += total
	return idx, EMU_OK
}

// instance resolves (context, type, index) to the live record; nil when any
// part of the triple is invalid.
func (e *Emulator) instance(ctx uint8, t MemType, idx uint16) *MemInstance {
	mgr := e.typeMgr(ctx, t)
	if mgr == nil || idx >= mgr.instCursor {
		return nil
	}
	return &mgr.instances[idx]
}

// dimSize returns the i-th dimension size of an instance.
func (e *Emulator) dimSize(inst *MemInstance, i uint8) uint16 {
	mgr := e.typeMgr(inst.context, inst.typ)
	return mgr.dimsPool[inst.dimsIdx+uint16(i)]
}

/* ============================================================================
    PACKET PARSERS (CONTEXT_CFG / INSTANCE / INSTANCE_*_DATA)
   ============================================================================ */

// CONTEXT_CFG payload: ctx_id:u8 then, per type in fixed order,
// {heap_elements:u32, max_instances:u16, max_dims:u16}.
const ctxCfgPacketSize = 1 + MEM_TYPES_COUNT*(4+2+2)

func parseContextCfg(e *Emulator, data []byte) EmuResult {
	if len(data) != ctxCfgPacketSize {
		return emuCritical(EMU_ERR_PACKET_INCOMPLETE, OWNER_MEM_PARSE_CONTEXT_CFG, 0)
	}
	ctxID := data[0]
	var cfg memCtxConfig
	idx := 1
	for i := 0; i < MEM_TYPES_COUNT; i++ {
		cfg.heapElements[i] = binary.LittleEndian.Uint32(data[idx:])
		idx += 4
		cfg.maxInstances[i] = binary.LittleEndian.Uint16(data[idx:])
		idx += 2
		cfg.maxDims[i] = binary.LittleEndian.Uint16(data[idx:])
		idx += 2
	}
	res := e.memContextAllocate(ctxID, &cfg)
	if res.IsErr() {
		return chainFrom(res, OWNER_MEM_PARSE_CONTEXT_CFG, uint16(ctxID))
	}
	return emuOK()
}

// INSTANCE head bit layout inside a little-endian u16:
// context:3 | dims_cnt:4 | type:4 | updated:1 | can_clear:1 | reserved:3
// (LSB first).
func packInstanceHead(ctx uint8, dimsCnt uint8, t MemType, updated, canClear bool) uint16 {
	h := uint16(ctx&0x07) | uint16(dimsCnt&0x0F)<<3 | uint16(t&0x0F)<<7
	if updated {
		h |= 1 << 11
	}
	if canClear {
		h |= 1 << 12
	}
	return h
}

func unpackInstanceHead(h uint16) (ctx uint8, dimsCnt uint8, t MemType, updated, canClear bool) {
	ctx = uint8(h & 0x07)
	dimsCnt = uint8(h >> 3 & 0x0F)
	t = MemType(h >> 7 & 0x0F)
	updated = h>>11&1 == 1
	canClear = h>>12&1 == 1
	return
}

// parseInstancePacket consumes a stream of {head:u16, dim_sizes:[u16]}
// records and creates one instance per record.
func parseInstancePacket(e *Emulator, data []byte) EmuResult {
	idx := 0
	for idx < len(data) {
		if idx+2 > len(data) {
			return emuCritical(EMU_ERR_PACKET_INCOMPLETE, OWNER_MEM_PARSE_INSTANCES, 0)
		}
		ctx, dimsCnt, t, updated, canClear := unpackInstanceHead(binary.LittleEndian.Uint16(data[idx:]))
		idx += 2

		if dimsCnt > MAX_DIMS {
			return emuCritical(EMU_ERR_INVALID_ARG, OWNER_MEM_PARSE_INSTANCES, 0)
		}
		if idx+int(dimsCnt)*2 > len(data) {
			return emuCritical(EMU_ERR_PACKET_INCOMPLETE, OWNER_MEM_PARSE_INSTANCES, 0)
		}
		dims := make([]uint16, dimsCnt)
		for i := range dims {
			dims[i] = binary.LittleEndian.Uint16(data[idx:])
			idx += 2
		}
		if _, err := e.contextCreateInstance(ctx, t, dims, updated, canClear); err != EMU_OK {
			return emuCritical(err, OWNER_MEM_PARSE_INSTANCES, uint16(ctx))
		}
	}
	return emuOK()
}

// INSTANCE_SCALAR_DATA payload: {ctx:u8, type:u8, count:u8} then count times
// {inst_idx:u16, value:element_size}. Re-sending the same packet is
// idempotent by construction: the bytes land in the same place.
func parseScalarData(e *Emulator, data []byte) EmuResult {
	if len(data) < 3 {
		return emuCritical(EMU_ERR_PACKET_INCOMPLETE, OWNER_MEM_PARSE_SCALAR_DATA, 0)
	}
	ctxID := data[0]
	t := MemType(data[1])
	count := int(data[2])
	if !t.Valid() {
		return emuCritical(EMU_ERR_MEM_INVALID_DATATYPE, OWNER_MEM_PARSE_SCALAR_DATA, uint16(ctxID))
	}
	mgr := e.typeMgr(ctxID, t)
	if mgr == nil {
		return emuCritical(EMU_ERR_CTX_INVALID_ID, OWNER_MEM_PARSE_SCALAR_DATA, uint16(ctxID))
	}
	elSize := t.Size()
	if len(data) < 3+count*(2+elSize) {
		return emuCritical(EMU_ERR_PACKET_INCOMPLETE, OWNER_MEM_PARSE_SCALAR_DATA, uint16(ctxID))
	}
	idx := 3
	for i := 0; i < count; i++ {
		instIdx := binary.LittleEndian.Uint16(data[idx:])
		idx += 2
		if instIdx >= mgr.instCursor {
			return emuWarn(EMU_ERR_MEM_INVALID_IDX, OWNER_MEM_PARSE_SCALAR_DATA, instIdx)
		}
		inst := &mgr.instances[instIdx]
		copy(mgr.instanceData(inst)[:elSize], data[idx:idx+elSize])
		idx += elSize
		inst.updated = true
	}
	return emuOK()
}

// INSTANCE_ARR_DATA payload: {ctx:u8, type:u8, count:u8} then count times
// {inst_idx:u16, start_idx:u16, items:u16, data:items*element_size}.
func parseArrayData(e *Emulator, data []byte) EmuResult {
	if len(data) < 3 {
		return emuCritical(EMU_ERR_PACKET_INCOMPLETE, OWNER_MEM_PARSE_ARRAY_DATA, 0)
	}
	ctxID := data[0]
	t := MemType(data[1])
	count := int(data[2])
	if !t.Valid() {
		return emuCritical(EMU_ERR_MEM_INVALID_DATATYPE, OWNER_MEM_PARSE_ARRAY_DATA, uint16(ctxID))
	}
	mgr := e.typeMgr(ctxID, t)
	if mgr == nil {
		return emuCritical(EMU_ERR_CTX_INVALID_ID, OWNER_MEM_PARSE_ARRAY_DATA, uint16(ctxID))
	}
	elSize := t.Size()
	idx := 3
	for i := 0; i < count; i++ {
		if idx+6 > len(data) {
			return emuCritical(EMU_ERR_PACKET_INCOMPLETE, OWNER_MEM_PARSE_ARRAY_DATA, uint16(ctxID))
		}
		instIdx := binary.LittleEndian.Uint16(data[idx:])
		startIdx := binary.LittleEndian.Uint16(data[idx+2:])
		items := binary.LittleEndian.Uint16(data[idx+4:])
		idx += 6

		if instIdx >= mgr.instCursor {
			return emuWarn(EMU_ERR_MEM_INVALID_IDX, OWNER_MEM_PARSE_ARRAY_DATA, instIdx)
		}
		inst := &mgr.instances[instIdx]
		if uint32(startIdx)+uint32(items) > inst.elCnt {
			return emuCritical(EMU_ERR_MEM_OUT_OF_BOUNDS, OWNER_MEM_PARSE_ARRAY_DATA, instIdx)
		}
		payload := int(items) * elSize
		if idx+payload > len(data) {
			return emuCritical(EMU_ERR_PACKET_INCOMPLETE, OWNER_MEM_PARSE_ARRAY_DATA, instIdx)
		}
		dst := mgr.instanceData(inst)
		copy(dst[int(startIdx)*elSize:], data[idx:idx+payload])
		idx += payload
		inst.updated = true
	}
	return emuOK()
}
