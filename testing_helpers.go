// sscp-host
// Copyright (c) 2025 SpringCard SAS.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of sscp-host.
//
// sscp-host is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// sscp-host is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with sscp-host; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package sscp

import (
	"time"

	"github.com/springcard/sscp-host/internal/frame"
)

// MockTransport is a scripted byte-level transport for tests: queued
// chunks are served to Read with serial-like semantics. An exhausted queue
// at the start of a Read behaves like a mute device; running dry mid-fill
// behaves like a device that stopped transmitting.
type MockTransport struct {
	reads     []mockChunk
	writes    [][]byte
	firstByte time.Duration
	interByte time.Duration
	closed    bool
}

type mockChunk struct {
	data []byte
	err  error
}

// NewMockTransport creates an empty scripted transport.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// QueueRead appends raw bytes to the receive script.
func (m *MockTransport) QueueRead(data []byte) {
	m.reads = append(m.reads, mockChunk{data: append([]byte(nil), data...)})
}

// QueueReadError appends a failure to the receive script. Bytes queued
// before it are served first.
func (m *MockTransport) QueueReadError(err error) {
	m.reads = append(m.reads, mockChunk{err: err})
}

// QueueFrame encodes a complete frame and appends it to the receive
// script.
func (m *MockTransport) QueueFrame(address, protocol byte, payload []byte) {
	raw, err := frame.Encode(address, protocol, payload)
	if err != nil {
		panic(err)
	}
	m.QueueRead(raw)
}

// Writes returns everything written so far, one entry per Write call.
func (m *MockTransport) Writes() [][]byte {
	return m.writes
}

// Write records the outgoing bytes.
func (m *MockTransport) Write(data []byte) error {
	if m.closed {
		return ErrCommNotOpen
	}
	m.writes = append(m.writes, append([]byte(nil), data...))
	return nil
}

// Read serves queued chunks with serial-like semantics.
func (m *MockTransport) Read(buf []byte) error {
	if m.closed {
		return ErrCommNotOpen
	}

	total := 0
	for total < len(buf) {
		if len(m.reads) == 0 {
			if total == 0 {
				return ErrCommRecvMute
			}
			return ErrCommRecvStopped
		}

		chunk := &m.reads[0]
		if len(chunk.data) == 0 {
			err := chunk.err
			m.reads = m.reads[1:]
			if err != nil {
				return err
			}
			continue
		}

		n := copy(buf[total:], chunk.data)
		chunk.data = chunk.data[n:]
		total += n
		if len(chunk.data) == 0 && chunk.err == nil {
			m.reads = m.reads[1:]
		}
	}
	return nil
}

// SetTimeouts records the requested timeouts.
func (m *MockTransport) SetTimeouts(firstByte, interByte time.Duration) error {
	m.firstByte = firstByte
	m.interByte = interByte
	return nil
}

// Timeouts returns the last timeouts requested by the device.
func (m *MockTransport) Timeouts() (firstByte, interByte time.Duration) {
	return m.firstByte, m.interByte
}

// Close marks the transport closed.
func (m *MockTransport) Close() error {
	m.closed = true
	return nil
}

// IsConnected returns true until Close is called.
func (m *MockTransport) IsConnected() bool {
	return !m.closed
}

// Port returns a fixed identifier.
func (*MockTransport) Port() string {
	return "mock"
}

// Type returns TransportMock
func (*MockTransport) Type() TransportType {
	return TransportMock
}
