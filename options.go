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

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Option is a functional option for configuring a Device
type Option func(*Device) error

// WithLogger sets the logger used for exchange traces and diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(d *Device) error {
		if log == nil {
			return ErrInvalidParameter
		}
		d.log = log
		return nil
	}
}

// WithAddress selects the initial RS-485 target address.
func WithAddress(address byte) Option {
	return func(d *Device) error {
		return d.SelectAddress(address)
	}
}

// WithTimeouts overrides the first-byte and inter-byte receive timeouts.
func WithTimeouts(firstByte, interByte time.Duration) Option {
	return func(d *Device) error {
		if firstByte <= 0 || interByte <= 0 {
			return ErrInvalidParameter
		}
		d.config.FirstByteTimeout = firstByte
		d.config.InterByteTimeout = interByte
		return nil
	}
}

// WithMaxTimeoutRetries sets how many times a secure exchange is attempted
// when the reader times out.
func WithMaxTimeoutRetries(attempts int) Option {
	return func(d *Device) error {
		if attempts < 1 {
			return ErrInvalidParameter
		}
		d.config.MaxTimeoutRetries = attempts
		return nil
	}
}

// WithTraceExchange enables Debug-level hex traces of the secure exchange
// pipeline.
func WithTraceExchange() Option {
	return func(d *Device) error {
		d.config.TraceExchange = true
		return nil
	}
}

// WithTraceAuthenticate enables Debug-level hex traces of the
// authentication handshake.
func WithTraceAuthenticate() Option {
	return func(d *Device) error {
		d.config.TraceAuthenticate = true
		return nil
	}
}

// WithSelfTest switches the device to self-test mode: deterministic
// vectors replace the RNG and the reader's responses, and no serial port
// is touched. The transport may be nil.
func WithSelfTest() Option {
	return func(d *Device) error {
		d.selfTest = true
		return nil
	}
}

// WithClock substitutes the clock behind the guard-time gate and the
// statistics. Tests use a fake clock.
func WithClock(clock clockwork.Clock) Option {
	return func(d *Device) error {
		if clock == nil {
			return ErrInvalidParameter
		}
		d.clock = clock
		return nil
	}
}
