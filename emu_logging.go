// emu_logging.go - Ring-buffered result/report logger and its drain task

package main

import (
	"encoding/binary"
	"log"
	"sync"
)

// EmuLogID names the lifecycle notices the engine reports alongside error
// records.
type EmuLogID uint16

const (
	LOG_CONTEXT_ALLOCATED EmuLogID = iota + 1
	LOG_INSTANCES_CREATED
	LOG_ACCESS_POOL_ALLOCATED
	LOG_BLOCKS_LIST_ALLOCATED
	LOG_BLOCKS_VERIFIED
	LOG_LOOP_INITIALIZED
	LOG_LOOP_STARTED
	LOG_LOOP_STOPPED
	LOG_LOOP_RAN_ONCE
	LOG_PERIOD_CHANGED
	LOG_RESET_ALL
	LOG_RESET_BLOCKS
	LOG_SUBSCRIPTIONS_REGISTERED
)

func (id EmuLogID) String() string {
	switch id {
	case LOG_CONTEXT_ALLOCATED:
		return "context_allocated"
	case LOG_INSTANCES_CREATED:
		return "instances_created"
	case LOG_ACCESS_POOL_ALLOCATED:
		return "access_pool_allocated"
	case LOG_BLOCKS_LIST_ALLOCATED:
		return "blocks_list_allocated"
	case LOG_BLOCKS_VERIFIED:
		return "blocks_verified"
	case LOG_LOOP_INITIALIZED:
		return "loop_initialized"
	case LOG_LOOP_STARTED:
		return "loop_started"
	case LOG_LOOP_STOPPED:
		return "loop_stopped"
	case LOG_LOOP_RAN_ONCE:
		return "loop_ran_once"
	case LOG_PERIOD_CHANGED:
		return "period_changed"
	case LOG_RESET_ALL:
		return "reset_all"
	case LOG_RESET_BLOCKS:
		return "reset_blocks"
	case LOG_SUBSCRIPTIONS_REGISTERED:
		return "subscriptions_registered"
	default:
		return "unknown_log"
	}
}

// EmuReport is the notice-record flowing to the sink next to error records.
type EmuReport struct {
	LogID    EmuLogID
	Owner    EmuOwner
	OwnerIdx uint16
	Time     uint64
	Cycle    uint64
}

// Serialized record sizes on the wire.
const (
	logResultRecordSize = 24
	logReportRecordSize = 22
)

// emuLogger accumulates result and report records in fixed rings; the drain
// pass serializes them into LOG packets capped at the transport MTU and
// echoes them to the console log. When the ring is full new records are
// dropped and counted, never blocked on: the producers include the tick
// path.
type emuLogger struct {
	mu      sync.Mutex
	results []EmuResult
	reports []EmuReport
	dropped uint64

	sink func([]byte)

	reqCh       chan struct{}
	doneCh      chan struct{}
	taskRunning bool
	verbose     bool
}

func newEmuLogger() *emuLogger {
	return &emuLogger{
		results: make([]EmuResult, 0, LOG_QUEUE_SIZE),
		reports: make([]EmuReport, 0, LOG_QUEUE_SIZE),
		reqCh:   make(chan struct{}, 1),
		doneCh:  make(chan struct{}, 1),
	}
}

// setSink installs the transmit callback; nil keeps console echo only.
func (lg *emuLogger) setSink(sink func([]byte)) {
	lg.mu.Lock()
	lg.sink = sink
	lg.mu.Unlock()
}

func (lg *emuLogger) pushResult(res EmuResult) {
	lg.mu.Lock()
	if len(lg.results) < cap(lg.results) {
		lg.results = append(lg.results, res)
	} else {
		lg.dropped++
	}
	lg.mu.Unlock()
}

func (lg *emuLogger) pushReport(rep EmuReport) {
	lg.mu.Lock()
	if len(lg.reports) < cap(lg.reports) {
		lg.reports = append(lg.reports, rep)
	} else {
		lg.dropped++
	}
	lg.mu.Unlock()
}

// startTask launches the drain goroutine woken at each end-of-cycle.
func (lg *emuLogger) startTask() {
	lg.mu.Lock()
	if lg.taskRunning {
		lg.mu.Unlock()
		return
	}
	lg.taskRunning = true
	lg.mu.Unlock()

	go func() {
		for range lg.reqCh {
			lg.drain()
			lg.doneCh <- struct{}{}
		}
	}()
}

// requestDrain wakes the drain task and waits for completion; without a
// running task it drains inline, which is what unit tests rely on.
func (lg *emuLogger) requestDrain() {
	lg.mu.Lock()
	running := lg.taskRunning
	lg.mu.Unlock()
	if !running {
		lg.drain()
		return
	}
	lg.reqCh <- struct{}{}
	<-lg.doneCh
}

func (lg *emuLogger) stopTask() {
	lg.mu.Lock()
	if !lg.taskRunning {
		lg.mu.Unlock()
		return
	}
	lg.taskRunning = false
	lg.mu.Unlock()
	close(lg.reqCh)
}

// drain flushes both rings: records are packed into MTU-bounded LOG packets
// for the sink and echoed to the console.
func (lg *emuLogger) drain() {
	lg.mu.Lock()
	results := lg.results
	reports := lg.reports
	lg.results = make([]EmuResult, 0, LOG_QUEUE_SIZE)
	lg.reports = make([]EmuReport, 0, LOG_QUEUE_SIZE)
	sink := lg.sink
	verbose := lg.verbose
	lg.mu.Unlock()

	if len(results) == 0 && len(reports) == 0 {
		return
	}

	packet := make([]byte, 1, TRANSPORT_MTU)
	packet[0] = PACKET_H_LOG
	flush := func() {
		if len(packet) > 1 && sink != nil {
			sink(packet)
		}
		packet = make([]byte, 1, TRANSPORT_MTU)
		packet[0] = PACKET_H_LOG
	}
	add := func(rec []byte) {
		if len(packet)+len(rec) > TRANSPORT_MTU {
			flush()
		}
		packet = append(packet, rec...)
	}

	for _, r := range results {
		add(marshalResult(r))
		log.Printf("EMU ERR owner:%s idx:%d code:%s depth:%d abort:%t warn:%t notice:%t time:%d cycle:%d",
			r.Owner, r.OwnerIdx, r.Code, r.Depth, r.Abort, r.Warning, r.Notice, r.Time, r.Cycle)
	}
	for _, r := range reports {
		add(marshalReport(r))
		if verbose {
			log.Printf("EMU RPT %s owner:%s idx:%d time:%d cycle:%d",
				r.LogID, r.Owner, r.OwnerIdx, r.Time, r.Cycle)
		}
	}
	flush()
}

// marshalResult packs an EmuResult as
// {code:u16, owner:u16, owner_idx:u16, flags:u8, depth:u8, time:u64, cycle:u64}.
func marshalResult(r EmuResult) []byte {
	b := make([]byte, logResultRecordSize)
	binary.LittleEndian.PutUint16(b[0:], uint16(r.Code))
	binary.LittleEndian.PutUint16(b[2:], uint16(r.Owner))
	binary.LittleEndian.PutUint16(b[4:], r.OwnerIdx)
	var flags uint8
	if r.Abort {
		flags |= 1 << 0
	}
	if r.Warning {
		flags |= 1 << 1
	}
	if r.Notice {
		flags |= 1 << 2
	}
	b[6] = flags
	b[7] = r.Depth
	binary.LittleEndian.PutUint64(b[8:], r.Time)
	binary.LittleEndian.PutUint64(b[16:], r.Cycle)
	return b
}

// marshalReport packs an EmuReport as
// {log_id:u16, owner:u16, owner_idx:u16, time:u64, cycle:u64}.
func marshalReport(r EmuReport) []byte {
	b := make([]byte, logReportRecordSize)
	binary.LittleEndian.PutUint16(b[0:], uint16(r.LogID))
	binary.LittleEndian.PutUint16(b[2:], uint16(r.Owner))
	binary.LittleEndian.PutUint16(b[4:], r.OwnerIdx)
	binary.LittleEndian.PutUint64(b[6:], r.Time)
	binary.LittleEndian.PutUint64(b[14:], r.Cycle)
	return b
}
