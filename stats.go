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

// Statistics is a snapshot of the session counters.
type Statistics struct {
	// TotalTime is the time since the device was created.
	TotalTime time.Duration
	// SessionTime is the time since the last successful authentication.
	SessionTime time.Duration
	// TotalErrors counts recovered exchange timeouts.
	TotalErrors uint32
	// SessionCount counts successful authentications.
	SessionCount uint32
	// SessionCounter is the current secure-exchange counter.
	SessionCounter uint32
	// BytesSent and BytesReceived count raw frame bytes on the wire.
	BytesSent     uint64
	BytesReceived uint64
}

// GetStatistics returns a snapshot of the session counters.
func (d *Device) GetStatistics() *Statistics {
	stats := &Statistics{
		TotalErrors:    d.stats.errorCount,
		SessionCount:   d.stats.sessionCount,
		SessionCounter: d.counter,
		BytesSent:      d.stats.bytesSent,
		BytesReceived:  d.stats.bytesReceived,
	}
	if !d.stats.whenOpen.IsZero() {
		stats.TotalTime = d.clock.Since(d.stats.whenOpen)
	}
	if !d.stats.whenSession.IsZero() {
		stats.SessionTime = d.clock.Since(d.stats.whenSession)
	}
	return stats
}
