// emu_constants.go - Wire protocol constants shared by the parser, builder and tests

package main

import (
	"encoding/binary"
	"math"
)

// Packet header tags (first payload byte of every frame).
const (
	PACKET_H_CONTEXT_CFG          = 0xF0
	PACKET_H_INSTANCE             = 0xF1
	PACKET_H_INSTANCE_SCALAR_DATA = 0xFA
	PACKET_H_INSTANCE_ARR_DATA    = 0xFB

	PACKET_H_CODE_CFG     = 0xAA
	PACKET_H_LOOP_CFG     = 0xA0
	PACKET_H_ACCESS_ALLOC = 0xAD

	PACKET_H_BLOCK_HEADER  = 0xB0
	PACKET_H_BLOCK_INPUTS  = 0xB1
	PACKET_H_BLOCK_OUTPUTS = 0xB2
	PACKET_H_BLOCK_DATA    = 0xBA

	PACKET_H_SUB_CFG = 0x50
	PACKET_H_SUB_ADD = 0x51

	PACKET_H_COMMAND = 0xC0
	PACKET_H_PUBLISH = 0xD0
	PACKET_H_LOG     = 0xD1
)

// Command ids. Unlike every other multi-byte field these are big-endian on
// the wire so that byte 0 keeps working as the 0xC0 dispatch tag.
const (
	CMD_LOOP_INIT    = 0xC001
	CMD_LOOP_START   = 0xC002
	CMD_LOOP_STOP    = 0xC003
	CMD_RESET_ALL    = 0xC004
	CMD_RESET_BLOCKS = 0xC005
	CMD_SET_PERIOD   = 0xC006
	CMD_RUN_ONCE     = 0xC007
)

// Block type bytes.
const (
	BLOCK_MATH        = 0x01
	BLOCK_SET         = 0x02
	BLOCK_LOGIC       = 0x03
	BLOCK_COUNTER     = 0x04
	BLOCK_CLOCK       = 0x05
	BLOCK_LATCH       = 0x06
	BLOCK_IN_SELECTOR = 0x07
	BLOCK_FOR         = 0x08
	BLOCK_TIMER       = 0x09
	BLOCK_Q_SELECTOR  = 0x0A
)

// BLOCK_DATA packet ids.
const (
	BLOCK_PKT_CONSTANTS    = 0x00
	BLOCK_PKT_CFG          = 0x01
	BLOCK_PKT_INSTRUCTIONS = 0x10
	BLOCK_PKT_OPTION_BASE  = 0x20
)

// Loop timing limits, microseconds.
const (
	LOOP_PERIOD_MIN     = 10_000
	LOOP_PERIOD_MAX     = 1_000_000
	LOOP_PERIOD_DEFAULT = 100_000

	LOOP_WTD_MAX_SKIPPED_DEFAULT = 2
)

// Transport limits.
const (
	TRANSPORT_MTU  = 512
	LOG_QUEUE_SIZE = 64
)

// Little-endian read helpers; the parsers index into raw packet slices the
// way the firmware walked its byte buffers.
func leU16(b []byte) uint16  { return binary.LittleEndian.Uint16(b) }
func leU32(b []byte) uint32  { return binary.LittleEndian.Uint32(b) }
func leF32(b []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b)) }
