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

// Package uart provides the serial transport for SSCP readers, over an
// RS-232 point-to-point link or an RS-485 multi-drop bus behind a
// USB-to-serial adapter.
package uart

import (
	"fmt"
	"time"

	"go.bug.st/serial"

	sscp "github.com/springcard/sscp-host"
)

// Baudrates accepted by SSCP readers.
var supportedBaudrates = map[int]bool{
	9600:   true,
	19200:  true,
	38400:  true,
	57600:  true,
	115200: true,
}

// Transport implements sscp.Transport over a serial port.
type Transport struct {
	port      serial.Port
	portName  string
	firstByte time.Duration
	interByte time.Duration
	connected bool
}

// New opens and configures the serial port: 8 data bits, no parity, one
// stop bit, at one of the five supported baudrates.
func New(portName string, baudRate int) (*Transport, error) {
	if portName == "" {
		return nil, sscp.ErrInvalidParameter
	}
	if !supportedBaudrates[baudRate] {
		return nil, sscp.ErrInvalidParameter
	}

	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, sscp.NewTransportError("open", portName,
			fmt.Errorf("%w: %v", sscp.ErrCommNotAvailable, err), sscp.ErrorTypePermanent)
	}

	return &Transport{
		port:      port,
		portName:  portName,
		connected: true,
	}, nil
}

// Write sends the whole buffer through the port.
func (t *Transport) Write(data []byte) error {
	if !t.connected {
		return sscp.ErrCommNotOpen
	}

	for written := 0; written < len(data); {
		n, err := t.port.Write(data[written:])
		if err != nil {
			return sscp.NewTransportError("write", t.portName,
				fmt.Errorf("%w: %v", sscp.ErrCommSendFailed, err), sscp.ErrorTypeTransient)
		}
		written += n
	}
	return nil
}

// Read fills buf completely. The first byte is awaited under the
// first-byte timeout; once bytes are flowing, every further read runs
// under the inter-byte timeout. A device that sends nothing at all is
// mute; one that stalls mid-buffer has stopped.
func (t *Transport) Read(buf []byte) error {
	if !t.connected {
		return sscp.ErrCommNotOpen
	}
	if len(buf) == 0 {
		return nil
	}

	timeout := t.firstByte
	for total := 0; total < len(buf); {
		if err := t.port.SetReadTimeout(timeout); err != nil {
			return sscp.NewTransportError("read", t.portName,
				fmt.Errorf("%w: %v", sscp.ErrCommControlFailed, err), sscp.ErrorTypePermanent)
		}

		n, err := t.port.Read(buf[total:])
		if err != nil {
			return sscp.NewTransportError("read", t.portName,
				fmt.Errorf("%w: %v", sscp.ErrCommRecvFailed, err), sscp.ErrorTypeTransient)
		}
		if n == 0 {
			// Read timeout
			if total == 0 {
				return sscp.NewTimeoutError("read", t.portName)
			}
			return sscp.NewTransportError("read", t.portName,
				sscp.ErrCommRecvStopped, sscp.ErrorTypeTimeout)
		}

		total += n
		timeout = t.interByte
	}
	return nil
}

// SetTimeouts configures the two receive timeouts used by Read.
func (t *Transport) SetTimeouts(firstByte, interByte time.Duration) error {
	if firstByte <= 0 || interByte <= 0 {
		return sscp.ErrInvalidParameter
	}
	t.firstByte = firstByte
	t.interByte = interByte
	return nil
}

// SetBaudrate reconfigures the local line speed without reopening the
// port. This is the sscp.BaudrateSetter capability.
func (t *Transport) SetBaudrate(baud int) error {
	if !supportedBaudrates[baud] {
		return sscp.ErrInvalidParameter
	}
	if !t.connected {
		return sscp.ErrCommNotOpen
	}

	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	if err := t.port.SetMode(mode); err != nil {
		return sscp.NewTransportError("setmode", t.portName,
			fmt.Errorf("%w: %v", sscp.ErrCommControlFailed, err), sscp.ErrorTypePermanent)
	}
	return nil
}

// Close releases the serial port.
func (t *Transport) Close() error {
	if !t.connected {
		return nil
	}
	t.connected = false
	if err := t.port.Close(); err != nil {
		return sscp.NewTransportError("close", t.portName,
			fmt.Errorf("%w: %v", sscp.ErrCommControlFailed, err), sscp.ErrorTypePermanent)
	}
	return nil
}

// IsConnected returns true while the port is open.
func (t *Transport) IsConnected() bool {
	return t.connected
}

// Port returns the port name.
func (t *Transport) Port() string {
	return t.portName
}

// Type returns sscp.TransportUART.
func (*Transport) Type() sscp.TransportType {
	return sscp.TransportUART
}
