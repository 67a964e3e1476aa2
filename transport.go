// transport.go - Framed byte-stream transport feeding the packet parser

package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
)

// The wire framing is a little-endian u16 length prefix followed by the
// packet bytes; the first packet byte is the header tag the parser
// dispatches on. The engine treats the transport as an opaque framed
// byte-stream source; TCP here stands in for the firmware's BLE GATT link.

var errFrameTooLarge = errors.New("frame exceeds the 16-bit length prefix")

// WriteFrame emits one length-prefixed frame.
func WriteFrame(w io.Writer, packet []byte) error {
	if len(packet) > 0xFFFF {
		return errFrameTooLarge
	}
	var hdr [2]byte
	binary.LittleEndian.PutUint16(hdr[:], uint16(len(packet)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(packet)
	return err
}

// ReadFrame reads one length-prefixed frame.
func ReadFrame(r io.Reader) ([]byte, error) {
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint16(hdr[:])
	packet := make([]byte, n)
	if _, err := io.ReadFull(r, packet); err != nil {
		return nil, err
	}
	return packet, nil
}

// FrameConn wraps a stream connection with frame-at-a-time send/receive and
// a write lock so the publisher, the logger and command responses can share
// the link.
type FrameConn struct {
	conn net.Conn
	wmu  sync.Mutex
}

func NewFrameConn(conn net.Conn) *FrameConn {
	return &FrameConn{conn: conn}
}

func (fc *FrameConn) Send(packet []byte) error {
	fc.wmu.Lock()
	defer fc.wmu.Unlock()
	return WriteFrame(fc.conn, packet)
}

func (fc *FrameConn) Receive() ([]byte, error) {
	return ReadFrame(fc.conn)
}

func (fc *FrameConn) Close() error { return fc.conn.Close() }

func (fc *FrameConn) String() string {
	return fmt.Sprintf("frame-conn %s", fc.conn.RemoteAddr())
}
