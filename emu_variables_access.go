// emu_variables_access.go - Access descriptors, slab arena and mem_get/mem_set

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
emu_variables_access.go - Access descriptor subsystem

An access descriptor names "the value reached by instance X, indexed by
[k0..kN-1]" where each index is either a literal U16 or another descriptor
resolved at read time. Descriptors are bump-allocated from one arena per code
load, sized by a dedicated packet, and freed wholesale on code reset; the
code graph owns them, nothing else does.

Whenever every index of a descriptor is static the flat element offset is
precomputed at parse time with the row-major stride rule
flat = sum(i_k * prod(dims_j, j>k)); the same accumulation is repeated for
dynamic resolution so out-of-range behaviour is identical on both paths.
*/

package main

import (
	"encoding/binary"
)

// accessIndex is one dimension index: a literal when the descriptor's static
// mask selects it, otherwise a child descriptor.
type accessIndex struct {
	static  uint16
	dynamic *MemAccess
}

// MemAccess locates a value in typed memory.
type MemAccess struct {
	instance   *MemInstance
	indicesCnt uint8
	staticMask uint8
	indices    []accessIndex // window into the arena index pool

	isResolved    bool
	resolvedIndex uint32
}

// accessArena is the per-code-load slab. Node and index capacities come from
// the allocator packet; exhaustion is NO_MEM, never a grow.
type accessArena struct {
	nodes      []MemAccess
	nodeCursor int
	indexPool  []accessIndex
	idxCursor  int
	created    bool
}

func (a *accessArena) free() {
	*a = accessArena{}
}

func (a *accessArena) allocate(descCount, totalIndices uint16) {
	a.nodes = make([]MemAccess, descCount)
	a.indexPool = make([]accessIndex, totalIndices)
	a.nodeCursor = 0
	a.idxCursor = 0
	a.created = true
}

// new hands out one descriptor with room for extra indices; nil when the
// arena was never sized or is exhausted.
func (a *accessArena) new(extra uint8) *MemAccess {
	if !a.created || a.nodeCursor >= len(a.nodes) {
		return nil
	}
	if a.idxCursor+int(extra) > len(a.indexPool) {
		return nil
	}
	node := &a.nodes[a.nodeCursor]
	a.nodeCursor++
	node.indices = a.indexPool[a.idxCursor : a.idxCursor+int(extra)]
	a.idxCursor += int(extra)
	return node
}

// Allocator packet payload: {desc_count:u16, total_extra_indices:u16}.
func parseAccessAlloc(e *Emulator, data []byte) EmuResult {
	if len(data) != 4 {
		return emuCritical(EMU_ERR_PACKET_INCOMPLETE, OWNER_MEM_ACCESS_ALLOC, 0)
	}
	descCount := binary.LittleEndian.Uint16(data[0:])
	totalIndices := binary.LittleEndian.Uint16(data[2:])
	if e.access.created {
		e.access.free()
	}
	e.access.allocate(descCount, totalIndices)
	return emuOK()
}

/* ============================================================================
    DESCRIPTOR PARSING
   ============================================================================ */

// Wire header, two bitfield bytes plus the instance index (LSB-first
// bitfields, little-endian u16):
//
//	byte 0: type:4 | ctx:3 | reserved:1
//	byte 1: dims_cnt:3 | idx_static_mask:3 | reserved:2
//	bytes 2..3: instance_idx:u16
const accessHeadSize = 4

func packAccessHead(t MemType, ctx uint8, dimsCnt uint8, staticMask uint8, instIdx uint16) []byte {
	b := make([]byte, accessHeadSize)
	b[0] = uint8(t)&0x0F | (ctx&0x07)<<4
	b[1] = dimsCnt&0x07 | (staticMask&0x07)<<3
	binary.LittleEndian.PutUint16(b[2:], instIdx)
	return b
}

// parseAccess recursively consumes one descriptor subtree from data starting
// at *idx and returns the arena node. The three-bit static mask lets only
// the first three indices be literals; any later index is parsed as a child
// descriptor. Scalar references carry dims_cnt 0 and resolve immediately.
func (e *Emulator) parseAccess(data []byte, idx *int) (*MemAccess, EmuErr) {
	if *idx+accessHeadSize > len(data) {
		return nil, EMU_ERR_PACKET_INCOMPLETE
	}
	t := MemType(data[*idx] & 0x0F)
	ctx := data[*idx] >> 4 & 0x07
	dimsCnt := data[*idx+1] & 0x07
	staticMask := data[*idx+1] >> 3 & 0x07
	instIdx := binary.LittleEndian.Uint16(data[*idx+2:])
	*idx += accessHeadSize

	inst := e.instance(ctx, t, instIdx)
	if inst == nil {
		return nil, EMU_ERR_MEM_INVALID_IDX
	}

	node := e.access.new(dimsCnt)
	if node == nil {
		return nil, EMU_ERR_NO_MEM
	}
	node.instance = inst
	node.indicesCnt = dimsCnt
	node.staticMask = staticMask

	if dimsCnt == 0 {
		node.isResolved = true
		node.resolvedIndex = 0
		return node, EMU_OK
	}
	if dimsCnt != inst.dimsCnt {
		return nil, EMU_ERR_INVALID_ARG
	}

	allStatic := true
	for i := uint8(0); i < dimsCnt; i++ {
		if staticMask>>i&1 == 1 {
			if *idx+2 > len(data) {
				return nil, EMU_ERR_PACKET_INCOMPLETE
			}
			node.indices[i].static = binary.LittleEndian.Uint16(data[*idx:])
			*idx += 2
		} else {
			allStatic = false
			child, err := e.parseAccess(data, idx)
			if err != EMU_OK {
				return nil, err
			}
			node.indices[i].dynamic = child
		}
	}

	if allStatic {
		offset := uint32(0)
		stride := uint32(1)
		for i := int(dimsCnt) - 1; i >= 0; i-- {
			indexVal := node.indices[i].static
			dimSize := e.dimSize(inst, uint8(i))
			if indexVal >= dimSize {
				return nil, EMU_ERR_MEM_OUT_OF_BOUNDS
			}
			offset += uint32(indexVal) * stride
			stride *= uint32(dimSize)
		}
		node.resolvedIndex = offset
		node.isResolved = true
	}
	return node, EMU_OK
}

/* ============================================================================
    MEM GET / MEM SET
   ============================================================================ */

// memGet reads the value an access descriptor points at. byReference hands
// out a window into the live heap instead of copying the payload bits.
func (e *Emulator) memGet(result *MemVar, search *MemAccess, byReference bool) EmuResult {
	if search == nil || search.instance == nil {
		return emuCritical(EMU_ERR_NULL_PTR, OWNER_MEM_GET, 0)
	}
	inst := search.instance
	t := inst.typ
	elOffset := uint32(0)

	if search.isResolved {
		elOffset = search.resolvedIndex
	} else if search.indicesCnt > 0 {
		stride := uint32(1)
		for i := int(search.indicesCnt) - 1; i >= 0; i-- {
			var indexVal uint16
			dimSize := e.dimSize(inst, uint8(i))
			if search.staticMask>>uint(i)&1 == 1 {
				indexVal = search.indices[i].static
			} else {
				var v MemVar
				res := e.memGet(&v, search.indices[i].dynamic, false)
				if res.IsErr() {
					return chainFrom(res, OWNER_MEM_GET, 0)
				}
				indexVal = v.AsU16()
			}
			if indexVal >= dimSize {
				return emuCritical(EMU_ERR_MEM_OUT_OF_BOUNDS, OWNER_MEM_GET, indexVal)
			}
			elOffset += uint32(indexVal) * stride
			stride *= uint32(dimSize)
		}
	}

	mgr := e.typeMgr(inst.context, t)
	if mgr == nil {
		return emuCritical(EMU_ERR_NULL_PTR, OWNER_MEM_GET, uint16(inst.context))
	}

	result.Type = t
	if byReference {
		result.ref = mgr.elemBytes(t, inst.dataOff+elOffset, 1)
		result.raw = 0
	} else {
		result.ref = nil
		result.raw = memLoadRaw(t, mgr.elemBytes(t, inst.dataOff+elOffset, 1))
	}
	return emuOK()
}

// memSet writes a value through an access descriptor, coercing to the
// destination type. The destination instance is marked updated
// unconditionally.
func (e *Emulator) memSet(toSet MemVar, target *MemAccess) EmuResult {
	var dst MemVar
	res := e.memGet(&dst, target, true)
	if res.IsErr() {
		return chainFrom(res, OWNER_MEM_SET, 0)
	}

	target.instance.updated = true

	if !dst.Type.Valid() {
		return emuCritical(EMU_ERR_MEM_INVALID_DATATYPE, OWNER_MEM_SET, uint16(dst.Type))
	}
	memStoreRaw(dst.Type, dst.ref, coerceRaw(dst.Type, toSet))
	return emuOK()
}
