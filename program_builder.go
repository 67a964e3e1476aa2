// program_builder.go - Fluent builder emitting the engine's binary packet stream

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
program_builder.go - Packet stream authoring

The firmware is programmed by a host-side generator; this builder is the
repo-native equivalent. Every method appends one wire-exact packet, so a
program is written as a linear sequence of calls and handed to the parser
(tests), a frame connection (live host) or a file (tooling). The Lua front
end in program_script.go drives exactly this API.
*/

package main

import (
	"encoding/binary"
	"io"
	"math"
)

type ProgramBuilder struct {
	packets [][]byte
}

func NewProgramBuilder() *ProgramBuilder {
	return &ProgramBuilder{}
}

func (pb *ProgramBuilder) add(p []byte) *ProgramBuilder {
	pb.packets = append(pb.packets, p)
	return pb
}

// Packets returns the accumulated stream in emit order.
func (pb *ProgramBuilder) Packets() [][]byte { return pb.packets }

// WriteTo emits the stream as length-prefixed frames.
func (pb *ProgramBuilder) WriteTo(w io.Writer) error {
	for _, p := range pb.packets {
		if err := WriteFrame(w, p); err != nil {
			return err
		}
	}
	return nil
}

/* ============================================================================
    MEMORY PACKETS
   ============================================================================ */

// CtxTypeCaps sizes one type's pools inside a context.
type CtxTypeCaps struct {
	HeapElements uint32
	MaxInstances uint16
	MaxDims      uint16
}

func (pb *ProgramBuilder) ContextCfg(ctxID uint8, caps [MEM_TYPES_COUNT]CtxTypeCaps) *ProgramBuilder {
	p := make([]byte, 0, 2+ctxCfgPacketSize)
	p = append(p, PACKET_H_CONTEXT_CFG, ctxID)
	for _, c := range caps {
		p = binary.LittleEndian.AppendUint32(p, c.HeapElements)
		p = binary.LittleEndian.AppendUint16(p, c.MaxInstances)
		p = binary.LittleEndian.AppendUint16(p, c.MaxDims)
	}
	return pb.add(p)
}

// ContextCfgUniform applies the same caps to all seven types.
func (pb *ProgramBuilder) ContextCfgUniform(ctxID uint8, caps CtxTypeCaps) *ProgramBuilder {
	var all [MEM_TYPES_COUNT]CtxTypeCaps
	for i := range all {
		all[i] = caps
	}
	return pb.ContextCfg(ctxID, all)
}

// Instance emits one INSTANCE record; instance indices follow emit order
// per (context, type).
func (pb *ProgramBuilder) Instance(ctx uint8, t MemType, dims []uint16, updated, canClear bool) *ProgramBuilder {
	p := make([]byte, 0, 3+len(dims)*2)
	p = append(p, PACKET_H_INSTANCE)
	p = binary.LittleEndian.AppendUint16(p, packInstanceHead(ctx, uint8(len(dims)), t, updated, canClear))
	for _, d := range dims {
		p = binary.LittleEndian.AppendUint16(p, d)
	}
	return pb.add(p)
}

// Scalar emits a one-entry INSTANCE_SCALAR_DATA packet with a raw element.
func (pb *ProgramBuilder) Scalar(ctx uint8, t MemType, instIdx uint16, element []byte) *ProgramBuilder {
	p := make([]byte, 0, 6+len(element))
	p = append(p, PACKET_H_INSTANCE_SCALAR_DATA, ctx, uint8(t), 1)
	p = binary.LittleEndian.AppendUint16(p, instIdx)
	p = append(p, element...)
	return pb.add(p)
}

func (pb *ProgramBuilder) ScalarF32(ctx uint8, instIdx uint16, v float32) *ProgramBuilder {
	return pb.Scalar(ctx, MEM_F, instIdx, binary.LittleEndian.AppendUint32(nil, math.Float32bits(v)))
}

func (pb *ProgramBuilder) ScalarU8(ctx uint8, instIdx uint16, v uint8) *ProgramBuilder {
	return pb.Scalar(ctx, MEM_U8, instIdx, []byte{v})
}

func (pb *ProgramBuilder) ScalarU32(ctx uint8, instIdx uint16, v uint32) *ProgramBuilder {
	return pb.Scalar(ctx, MEM_U32, instIdx, binary.LittleEndian.AppendUint32(nil, v))
}

func (pb *ProgramBuilder) ScalarBool(ctx uint8, instIdx uint16, v bool) *ProgramBuilder {
	b := byte(0)
	if v {
		b = 1
	}
	return pb.Scalar(ctx, MEM_B, instIdx, []byte{b})
}

// ArrayData emits a one-entry INSTANCE_ARR_DATA packet. raw holds `items`
// consecutive elements already encoded little-endian.
func (pb *ProgramBuilder) ArrayData(ctx uint8, t MemType, instIdx, startIdx, items uint16, raw []byte) *ProgramBuilder {
	p := make([]byte, 0, 10+len(raw))
	p = append(p, PACKET_H_INSTANCE_ARR_DATA, ctx, uint8(t), 1)
	p = binary.LittleEndian.AppendUint16(p, instIdx)
	p = binary.LittleEndian.AppendUint16(p, startIdx)
	p = binary.LittleEndian.AppendUint16(p, items)
	p = append(p, raw...)
	return pb.add(p)
}

/* ============================================================================
    ACCESS DESCRIPTORS
   ============================================================================ */

// AccessIdx is one dimension index in a descriptor under construction:
// either a literal or an encoded child descriptor.
type AccessIdx struct {
	static uint16
	child  []byte
}

func IdxStatic(v uint16) AccessIdx      { return AccessIdx{static: v} }
func IdxDynamic(child []byte) AccessIdx { return AccessIdx{child: child} }

// Access encodes a descriptor subtree. With no indices it references the
// whole instance (scalar form).
func Access(ctx uint8, t MemType, instIdx uint16, idxs ...AccessIdx) []byte {
	var mask uint8
	for i, ix := range idxs {
		if ix.child == nil {
			mask |= 1 << i
		}
	}
	b := packAccessHead(t, ctx, uint8(len(idxs)), mask, instIdx)
	for _, ix := range idxs {
		if ix.child == nil {
			b = binary.LittleEndian.AppendUint16(b, ix.static)
		} else {
			b = append(b, ix.child...)
		}
	}
	return b
}

/* ============================================================================
    CODE PACKETS
   ============================================================================ */

func (pb *ProgramBuilder) AccessAlloc(descCount, totalIndices uint16) *ProgramBuilder {
	p := []byte{PACKET_H_ACCESS_ALLOC}
	p = binary.LittleEndian.AppendUint16(p, descCount)
	p = binary.LittleEndian.AppendUint16(p, totalIndices)
	return pb.add(p)
}

func (pb *ProgramBuilder) CodeCfg(blockCount uint16) *ProgramBuilder {
	p := []byte{PACKET_H_CODE_CFG}
	p = binary.LittleEndian.AppendUint16(p, blockCount)
	return pb.add(p)
}

func (pb *ProgramBuilder) BlockHeader(blockIdx uint16, blockType uint8, inConnectedMask uint16, inCnt, qCnt uint8) *ProgramBuilder {
	p := []byte{PACKET_H_BLOCK_HEADER}
	p = binary.LittleEndian.AppendUint16(p, blockIdx)
	p = append(p, blockType)
	p = binary.LittleEndian.AppendUint16(p, inConnectedMask)
	p = append(p, inCnt, qCnt)
	return pb.add(p)
}

func (pb *ProgramBuilder) blockSlot(header uint8, blockIdx uint16, slot uint8, access []byte) *ProgramBuilder {
	p := []byte{header}
	p = binary.LittleEndian.AppendUint16(p, blockIdx)
	p = append(p, slot)
	p = append(p, access...)
	return pb.add(p)
}

func (pb *ProgramBuilder) BlockInput(blockIdx uint16, slot uint8, access []byte) *ProgramBuilder {
	return pb.blockSlot(PACKET_H_BLOCK_INPUTS, blockIdx, slot, access)
}

func (pb *ProgramBuilder) BlockOutput(blockIdx uint16, slot uint8, access []byte) *ProgramBuilder {
	return pb.blockSlot(PACKET_H_BLOCK_OUTPUTS, blockIdx, slot, access)
}

func (pb *ProgramBuilder) BlockData(blockIdx uint16, blockType, packetID uint8, payload []byte) *ProgramBuilder {
	p := []byte{PACKET_H_BLOCK_DATA}
	p = binary.LittleEndian.AppendUint16(p, blockIdx)
	p = append(p, blockType, packetID)
	p = append(p, payload...)
	return pb.add(p)
}

// ExprConstants packs the shared CONSTANTS payload for math/logic blocks.
func (pb *ProgramBuilder) ExprConstants(blockIdx uint16, blockType uint8, consts []float32) *ProgramBuilder {
	payload := []byte{uint8(len(consts))}
	for _, c := range consts {
		payload = binary.LittleEndian.AppendUint32(payload, math.Float32bits(c))
	}
	return pb.BlockData(blockIdx, blockType, BLOCK_PKT_CONSTANTS, payload)
}

// ExprInstructions packs the shared INSTRUCTIONS payload; instrs alternates
// op, arg pairs.
func (pb *ProgramBuilder) ExprInstructions(blockIdx uint16, blockType uint8, instrs ...[2]uint8) *ProgramBuilder {
	payload := []byte{uint8(len(instrs))}
	for _, ins := range instrs {
		payload = append(payload, ins[0], ins[1])
	}
	return pb.BlockData(blockIdx, blockType, BLOCK_PKT_INSTRUCTIONS, payload)
}

/* ============================================================================
    LOOP, SUBSCRIPTIONS AND COMMANDS
   ============================================================================ */

func (pb *ProgramBuilder) LoopCfg(periodUs uint32, maxSkipped uint8) *ProgramBuilder {
	p := []byte{PACKET_H_LOOP_CFG}
	p = binary.LittleEndian.AppendUint32(p, periodUs)
	p = append(p, maxSkipped)
	return pb.add(p)
}

func (pb *ProgramBuilder) SubCfg(listSize uint16) *ProgramBuilder {
	p := []byte{PACKET_H_SUB_CFG}
	p = binary.LittleEndian.AppendUint16(p, listSize)
	return pb.add(p)
}

// SubAdd registers instances of one (context, type) pair.
func (pb *ProgramBuilder) SubAdd(ctx uint8, t MemType, instIdxs ...uint16) *ProgramBuilder {
	p := []byte{PACKET_H_SUB_ADD, ctx, uint8(len(instIdxs))}
	for _, idx := range instIdxs {
		p = append(p, uint8(t))
		p = binary.LittleEndian.AppendUint16(p, idx)
	}
	return pb.add(p)
}

// Command emits a control packet; the id goes big-endian so byte 0 stays
// the 0xC0 tag.
func (pb *ProgramBuilder) Command(cmd uint16, payload []byte) *ProgramBuilder {
	p := []byte{uint8(cmd >> 8), uint8(cmd)}
	p = append(p, payload...)
	return pb.add(p)
}

func (pb *ProgramBuilder) CommandU32(cmd uint16, arg uint32) *ProgramBuilder {
	return pb.Command(cmd, binary.LittleEndian.AppendUint32(nil, arg))
}
