// terminal_monitor.go - Interactive raw-mode debug monitor on the controlling terminal

package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/term"
)

// Single-key monitor in the spirit of a front-panel debugger: the terminal
// goes raw, each keystroke is a command, and state renders as plain lines.
//
//	s  status snapshot      g  start loop      x  stop loop
//	o  run one tick         r  reset all       q  quit monitor
func runTerminalMonitor(ctx context.Context, emu *Emulator) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("monitor: stdin is not a terminal")
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("monitor: raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	fmt.Print("runIT monitor ready: [s]tatus [g]o [x]stop [o]nce [r]eset [q]uit\r\n")

	keys := make(chan byte, 8)
	go func() {
		buf := make([]byte, 1)
		for {
			if _, err := os.Stdin.Read(buf); err != nil {
				close(keys)
				return
			}
			keys <- buf[0]
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case key, ok := <-keys:
			if !ok {
				return nil
			}
			switch key {
			case 's':
				printSnapshot(emu.Snapshot())
			case 'g':
				res := emu.loopStart()
				fmt.Printf("start: %s\r\n", res.Code)
			case 'x':
				res := emu.loopStop()
				fmt.Printf("stop: %s\r\n", res.Code)
			case 'o':
				res := emu.runOnce()
				fmt.Printf("run once: %s\r\n", res.Code)
			case 'r':
				res := emu.ResetAll()
				fmt.Printf("reset all: %s\r\n", res.Code)
			case 'q', 0x03: // q or Ctrl-C
				return nil
			}
		}
	}
}

func printSnapshot(s runtimeStatusSnapshot) {
	fmt.Printf("loop: %s  period: %dus  time: %dms  cycle: %d  skipped: %d  wtd: %t\r\n",
		s.status, s.periodUs, s.timeMs, s.loopCounter, s.loopsSkipped, s.wtdTriggered)
	fmt.Printf("code: %d blocks  verified: %t\r\n", s.totalBlocks, s.verified)
	for _, cs := range s.contexts {
		fmt.Printf("ctx %d:", cs.ctxID)
		for t := 0; t < MEM_TYPES_COUNT; t++ {
			if cs.instances[t] == 0 && cs.heapCap[t] == 0 {
				continue
			}
			fmt.Printf("  %s inst:%d heap:%d/%d dims:%d",
				MemType(t), cs.instances[t], cs.heapUsed[t], cs.heapCap[t], cs.dimsUsed[t])
		}
		fmt.Print("\r\n")
	}
}
