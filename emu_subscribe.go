// emu_subscribe.go - Subscription-based publish channel

package main

import (
	"encoding/binary"
	"sync"
)

// pubInstance is one registered subscription. Element counts are
// precomputed at registration so the per-cycle publish pass is a straight
// copy with no dimension walking.
type pubInstance struct {
	ctx     uint8
	typ     MemType
	instIdx uint16
	elCnt   uint32
}

// subManager owns the subscription list. Registrations arrive over the
// control plane and persist until RESET_ALL.
type subManager struct {
	mu      sync.Mutex
	list    []pubInstance
	maxSize int
	sink    func([]byte)
}

func newSubManager() *subManager {
	return &subManager{}
}

func (sm *subManager) setSink(sink func([]byte)) {
	sm.mu.Lock()
	sm.sink = sink
	sm.mu.Unlock()
}

func (sm *subManager) reset() {
	sm.mu.Lock()
	sm.list = nil
	sm.maxSize = 0
	sm.mu.Unlock()
}

func (sm *subManager) active() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.list) > 0
}

// SUB_CFG payload: {list_size:u16}. Re-sizing drops prior registrations.
func parseSubCfg(e *Emulator, data []byte) EmuResult {
	if len(data) < 2 {
		return emuCritical(EMU_ERR_PACKET_INCOMPLETE, OWNER_SUBSCRIBE, 0)
	}
	size := leU16(data)
	sm := e.subs
	sm.mu.Lock()
	sm.maxSize = int(size)
	sm.list = make([]pubInstance, 0, size)
	sm.mu.Unlock()
	return emuOK()
}

// SUB_ADD payload: {ctx:u8, count:u8} then count times {type:u8,
// inst_idx:u16}.
func parseSubAdd(e *Emulator, data []byte) EmuResult {
	if len(data) < 2 {
		return emuCritical(EMU_ERR_PACKET_INCOMPLETE, OWNER_SUBSCRIBE, 0)
	}
	ctx := data[0]
	count := int(data[1])
	if len(data) < 2+count*3 {
		return emuCritical(EMU_ERR_PACKET_INCOMPLETE, OWNER_SUBSCRIBE, uint16(ctx))
	}
	sm := e.subs
	idx := 2
	for i := 0; i < count; i++ {
		t := MemType(data[idx])
		instIdx := leU16(data[idx+1:])
		idx += 3

		inst := e.instance(ctx, t, instIdx)
		if inst == nil {
			return emuCritical(EMU_ERR_MEM_INVALID_IDX, OWNER_SUBSCRIBE, instIdx)
		}
		sm.mu.Lock()
		if sm.maxSize == 0 || len(sm.list) >= sm.maxSize {
			sm.mu.Unlock()
			return emuWarn(EMU_ERR_NO_MEM, OWNER_SUBSCRIBE, instIdx)
		}
		sm.list = append(sm.list, pubInstance{ctx: ctx, typ: t, instIdx: instIdx, elCnt: inst.elCnt})
		sm.mu.Unlock()
	}
	e.logReport(LOG_SUBSCRIPTIONS_REGISTERED, OWNER_SUBSCRIBE, uint16(count))
	return emuOK()
}

// publish snapshots every subscribed instance into PUBLISH packets capped at
// the transport MTU. Item layout: {inst_idx:u16,
// ctx:3|type:4|updated:1 (one byte), el_cnt:u16, raw bytes}.
func (sm *subManager) publish(e *Emulator) {
	sm.mu.Lock()
	list := sm.list
	sink := sm.sink
	sm.mu.Unlock()
	if len(list) == 0 || sink == nil {
		return
	}

	packet := make([]byte, 1, TRANSPORT_MTU)
	packet[0] = PACKET_H_PUBLISH
	flush := func() {
		if len(packet) > 1 {
			sink(packet)
		}
		packet = make([]byte, 1, TRANSPORT_MTU)
		packet[0] = PACKET_H_PUBLISH
	}

	for _, sub := range list {
		inst := e.instance(sub.ctx, sub.typ, sub.instIdx)
		mgr := e.typeMgr(sub.ctx, sub.typ)
		if inst == nil || mgr == nil {
			continue
		}
		raw := mgr.instanceData(inst)
		item := make([]byte, 5+len(raw))
		binary.LittleEndian.PutUint16(item[0:], sub.instIdx)
		head := sub.ctx&0x07 | (uint8(sub.typ)&0x0F)<<3
		if inst.updated {
			head |= 1 << 7
		}
		item[2] = head
		binary.LittleEndian.PutUint16(item[3:], uint16(sub.elCnt))
		copy(item[5:], raw)

		if len(packet)+len(item) > TRANSPORT_MTU {
			flush()
		}
		if len(item)+1 > TRANSPORT_MTU {
			// Oversized single instance: send as its own oversized packet
			// rather than dropping it silently.
			over := append([]byte{PACKET_H_PUBLISH}, item...)
			sink(over)
			continue
		}
		packet = append(packet, item...)
	}
	flush()
}
