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
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/springcard/sscp-host/internal/secure"
)

// Default exchange timing.
const (
	// defaultFirstByteTimeout bounds the wait for the first header byte of
	// a response. The reader may think for a while before answering.
	defaultFirstByteTimeout = 2 * time.Second
	// defaultInterByteTimeout bounds every subsequent read; the link must
	// not stall mid-frame.
	defaultInterByteTimeout = 200 * time.Millisecond
	// defaultMaxTimeoutRetry is how many times a secure exchange is
	// attempted when the reader stays mute or stops mid-frame.
	defaultMaxTimeoutRetry = 3
	// scanGuardTime is the minimum interval between two scan commands.
	scanGuardTime = 250 * time.Millisecond
	// maxPayload caps command and response payloads in both directions.
	maxPayload = 4096
)

// DeviceConfig contains configuration options for the Device
type DeviceConfig struct {
	// FirstByteTimeout is the wait for the first byte of a response.
	FirstByteTimeout time.Duration
	// InterByteTimeout is the wait for every subsequent byte.
	InterByteTimeout time.Duration
	// MaxTimeoutRetries bounds the resend loop of the secure exchanger.
	MaxTimeoutRetries int
	// TraceExchange logs hex dumps of every secure exchange at Debug level.
	TraceExchange bool
	// TraceAuthenticate logs hex dumps of the handshake at Debug level.
	TraceAuthenticate bool
}

// DefaultDeviceConfig returns default device configuration
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		FirstByteTimeout:  defaultFirstByteTimeout,
		InterByteTimeout:  defaultInterByteTimeout,
		MaxTimeoutRetries: defaultMaxTimeoutRetry,
	}
}

// Device is one SSCP session context: it owns the serial transport, the
// selected RS-485 address, the exchange counter, the session keys and the
// guard-time state.
//
// Thread Safety: Device is NOT thread-safe. All methods must be called from
// a single goroutine or protected with external synchronization. One Device
// exclusively owns one serial port; two Devices must not share a port.
type Device struct {
	transport Transport
	config    *DeviceConfig
	log       *zap.Logger
	clock     clockwork.Clock

	address  byte
	counter  uint32
	keys     secure.SessionKeys
	selfTest bool

	guardRunning bool
	guardStart   time.Time
	guardValue   time.Duration

	stats sessionStats
}

type sessionStats struct {
	whenOpen      time.Time
	whenSession   time.Time
	sessionCount  uint32
	errorCount    uint32
	bytesSent     uint64
	bytesReceived uint64
}

// New creates a device bound to an open transport. The transport is
// typically created with uart.New; see WithSelfTest for running the
// deterministic vectors without any port at all.
func New(transport Transport, opts ...Option) (*Device, error) {
	device := &Device{
		transport: transport,
		config:    DefaultDeviceConfig(),
		log:       zap.NewNop(),
		clock:     clockwork.NewRealClock(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}

	if device.transport == nil && !device.selfTest {
		return nil, ErrCommNotOpen
	}

	device.stats.whenOpen = device.clock.Now()
	return device, nil
}

// Transport returns the underlying transport
func (d *Device) Transport() Transport {
	return d.transport
}

// SelectAddress selects the RS-485 target of subsequent exchanges.
// It does not talk to the reader; address 0 is the point-to-point
// (RS-232) convention.
func (d *Device) SelectAddress(address byte) error {
	if address > 127 {
		return ErrInvalidParameter
	}
	d.address = address
	return nil
}

// Address returns the currently selected RS-485 address.
func (d *Device) Address() byte {
	return d.address
}

// SelectBaudrate reconfigures the local serial line. It does not change
// the reader's own setting; see SetBaudrate for that.
func (d *Device) SelectBaudrate(baud int) error {
	bs, ok := d.transport.(BaudrateSetter)
	if !ok {
		return ErrNotYetImplemented
	}
	if err := bs.SetBaudrate(baud); err != nil {
		return err
	}
	return nil
}

// Authenticated reports whether a secure session is currently established.
func (d *Device) Authenticated() bool {
	return d.keys.Valid()
}

// Close zeroizes the session keys and releases the transport.
func (d *Device) Close() error {
	d.keys.Zeroize()
	d.counter = 0
	if d.transport != nil {
		if err := d.transport.Close(); err != nil {
			return fmt.Errorf("failed to close transport: %w", err)
		}
	}
	return nil
}

func (d *Device) portName() string {
	if d.transport == nil {
		return ""
	}
	return d.transport.Port()
}
