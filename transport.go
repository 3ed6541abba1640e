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

import "time"

// Transport is the blocking byte-stream the SSCP framing runs over.
// The serial backend in transport/uart is the production implementation;
// tests substitute scripted or protocol-true mocks.
type Transport interface {
	// Write sends the whole buffer.
	Write(data []byte) error

	// Read fills buf completely or fails. A device that sends nothing at
	// all yields ErrCommRecvMute; a device that stalls after the first
	// byte yields ErrCommRecvStopped. The first byte is awaited under the
	// first-byte timeout, every subsequent byte under the inter-byte
	// timeout.
	Read(buf []byte) error

	// SetTimeouts configures the two receive timeouts.
	SetTimeouts(firstByte, interByte time.Duration) error

	// Close releases the underlying port.
	Close() error

	// IsConnected returns true while the port is usable.
	IsConnected() bool

	// Port returns the port identifier, for error reporting.
	Port() string

	// Type returns the transport type.
	Type() TransportType
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportUART represents a serial (RS-232 or RS-485) transport.
	TransportUART TransportType = "uart"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)

// BaudrateSetter is an optional transport capability: reconfiguring the
// local line speed without reopening the port. The uart transport
// implements it; SelectBaudrate requires it.
type BaudrateSetter interface {
	SetBaudrate(baud int) error
}
