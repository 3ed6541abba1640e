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

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardTimeThrottlesBackToBack(t *testing.T) {
	t.Parallel()

	device := newTestDevice(t, NewMockTransport())

	const guard = 50 * time.Millisecond
	device.guardTime(guard)

	start := time.Now()
	device.guardTime(guard)
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, guard-5*time.Millisecond,
		"the second guarded call must wait out the first guard")
	assert.True(t, device.guardRunning, "guardTime re-arms after waiting")
}

func TestGuardTimeElapsedGuardDoesNotSleep(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	device := newTestDevice(t, NewMockTransport(), WithClock(clock))

	device.guardTime(100 * time.Millisecond)
	clock.Advance(150 * time.Millisecond)

	start := time.Now()
	device.guardTime(100 * time.Millisecond)
	assert.Less(t, time.Since(start), 50*time.Millisecond,
		"an already-elapsed guard must not block")
}

func TestWaitGuardConsumesTheArm(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	device := newTestDevice(t, NewMockTransport(), WithClock(clock))

	device.armGuard(100 * time.Millisecond)
	require.True(t, device.guardRunning)
	clock.Advance(200 * time.Millisecond)

	device.waitGuard()
	assert.False(t, device.guardRunning, "waitGuard consumes without re-arming")

	// A second wait is a no-op.
	device.waitGuard()
	assert.False(t, device.guardRunning)
}

func TestGuardTimeUnarmedDoesNotWait(t *testing.T) {
	t.Parallel()

	device := newTestDevice(t, NewMockTransport())

	start := time.Now()
	device.guardTime(time.Second)
	assert.Less(t, time.Since(start), 100*time.Millisecond,
		"arming with no prior guard must return immediately")
}
