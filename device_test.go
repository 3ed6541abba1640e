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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresTransport(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	assert.ErrorIs(t, err, ErrCommNotOpen)

	// Self-test mode runs without a port.
	device, err := New(nil, WithSelfTest())
	require.NoError(t, err)
	assert.Nil(t, device.Transport())
}

func TestNewOptionValidation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		opt  Option
	}{
		{name: "nil logger", opt: WithLogger(nil)},
		{name: "nil clock", opt: WithClock(nil)},
		{name: "zero timeouts", opt: WithTimeouts(0, time.Second)},
		{name: "zero retries", opt: WithMaxTimeoutRetries(0)},
		{name: "address out of range", opt: WithAddress(0xFF)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(NewMockTransport(), tt.opt)
			assert.ErrorIs(t, err, ErrInvalidParameter)
		})
	}
}

func TestSelectAddress(t *testing.T) {
	t.Parallel()

	device := newTestDevice(t, NewMockTransport())
	require.NoError(t, device.SelectAddress(0x07))
	assert.Equal(t, byte(0x07), device.Address())

	assert.ErrorIs(t, device.SelectAddress(0x80), ErrInvalidParameter)
	assert.Equal(t, byte(0x07), device.Address(), "a rejected address must not stick")
}

func TestSelectBaudrateWithoutCapability(t *testing.T) {
	t.Parallel()

	device := newTestDevice(t, NewMockTransport())
	assert.ErrorIs(t, device.SelectBaudrate(115200), ErrNotYetImplemented)
}

func TestCloseZeroizesKeys(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device := newTestDevice(t, mock)
	installTestKeys(t, device)
	require.True(t, device.Authenticated())

	require.NoError(t, device.Close())
	assert.False(t, device.Authenticated(), "session keys must not survive Close")
	assert.False(t, mock.IsConnected())
}

func TestBaudrateSelector(t *testing.T) {
	t.Parallel()

	wants := map[int]byte{9600: 0, 19200: 1, 38400: 2, 57600: 3, 115200: 4}
	for baud, want := range wants {
		got, ok := baudrateSelector(baud)
		require.True(t, ok, "baud %d", baud)
		assert.Equal(t, want, got, "baud %d", baud)
	}

	_, ok := baudrateSelector(250000)
	assert.False(t, ok)
}
