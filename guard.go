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

// The guard-time gate throttles commands the reader handles slowly (the
// scans). Arming records a monotonic timestamp; the next guarded command
// first sleeps out whatever remains of the previous guard. Wall-clock
// adjustments do not affect it.

// armGuard starts a new guard interval.
func (d *Device) armGuard(guard time.Duration) {
	d.guardStart = d.clock.Now()
	d.guardValue = guard
	d.guardRunning = true
}

// waitGuard consumes an armed guard, sleeping out the remainder. It does
// not re-arm.
func (d *Device) waitGuard() {
	if !d.guardRunning {
		return
	}
	d.guardRunning = false

	elapsed := d.clock.Since(d.guardStart)
	if elapsed < d.guardValue {
		d.clock.Sleep(d.guardValue - elapsed)
	}
}

// guardTime waits out any armed guard, then arms a new one.
func (d *Device) guardTime(guard time.Duration) {
	if d.guardRunning {
		d.waitGuard()
	}
	d.armGuard(guard)
}
