// machine.go - Machine assembly: emulator, transport listener and monitor

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

import (
	"context"
	"fmt"
	"log"
	"net"

	"golang.org/x/sync/errgroup"
)

// MachineConfig carries the CLI surface into the machine.
type MachineConfig struct {
	ListenAddr string
	PeriodUs   uint64
	Monitor    bool
	ScriptPath string
}

// Machine ties the emulator to its transport and the optional interactive
// monitor. The long-lived units run under one errgroup; the first fatal
// error or a context cancel brings the whole machine down.
type Machine struct {
	emu *Emulator
	cfg MachineConfig
}

func NewMachine(cfg MachineConfig) *Machine {
	return &Machine{emu: NewEmulator(), cfg: cfg}
}

// Run starts the transport acceptor and the monitor and blocks until the
// context is cancelled or a unit fails.
func (m *Machine) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if m.cfg.PeriodUs != 0 {
		m.emu.loop.setPeriod(m.cfg.PeriodUs)
	}

	if m.cfg.ScriptPath != "" {
		packets, err := RunProgramScript(m.cfg.ScriptPath)
		if err != nil {
			return fmt.Errorf("program script %s: %w", m.cfg.ScriptPath, err)
		}
		for _, pkt := range packets {
			if res := m.emu.ParsePacket(pkt); res.Abort {
				return fmt.Errorf("script load aborted: %s (owner %s)", res.Code, res.Owner)
			}
		}
		log.Printf("Loaded %d packets from %s", len(packets), m.cfg.ScriptPath)
	}

	if m.cfg.ListenAddr != "" {
		listener, err := net.Listen("tcp", m.cfg.ListenAddr)
		if err != nil {
			return fmt.Errorf("transport listen: %w", err)
		}
		g.Go(func() error {
			<-ctx.Done()
			listener.Close()
			return nil
		})
		g.Go(func() error {
			return m.acceptLoop(ctx, listener)
		})
		log.Printf("Transport listening on %s", m.cfg.ListenAddr)
	}

	if m.cfg.Monitor {
		g.Go(func() error {
			return runTerminalMonitor(ctx, m.emu)
		})
	}

	err := g.Wait()
	m.emu.Close()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// acceptLoop serves one host connection at a time; the control protocol is
// inherently single-master.
func (m *Machine) acceptLoop(ctx context.Context, listener net.Listener) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("transport accept: %w", err)
		}
		m.serveConn(conn)
	}
}

// serveConn pumps frames from one host connection into the parser and
// points the publish/log sinks at it for the duration.
func (m *Machine) serveConn(conn net.Conn) {
	fc := NewFrameConn(conn)
	defer fc.Close()
	log.Printf("Host connected: %s", conn.RemoteAddr())

	send := func(packet []byte) {
		if err := fc.Send(packet); err != nil {
			log.Printf("Transport send failed: %v", err)
		}
	}
	m.emu.subs.setSink(send)
	m.emu.logger.setSink(send)
	defer m.emu.subs.setSink(nil)
	defer m.emu.logger.setSink(nil)

	for {
		packet, err := fc.Receive()
		if err != nil {
			log.Printf("Host disconnected: %s (%v)", conn.RemoteAddr(), err)
			return
		}
		m.emu.ParsePacket(packet)
	}
}
