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
	"encoding/hex"

	"go.uber.org/zap"
)

// Hex traces of the two protocol pipelines. Both are off by default and
// enabled per device with WithTraceExchange / WithTraceAuthenticate.

func (d *Device) traceExchange(stage string, data []byte) {
	if !d.config.TraceExchange {
		return
	}
	d.log.Debug("exchange",
		zap.String("stage", stage),
		zap.String("bytes", hex.EncodeToString(data)),
	)
}

func (d *Device) traceAuthenticate(stage string, data []byte) {
	if !d.config.TraceAuthenticate {
		return
	}
	d.log.Debug("authenticate",
		zap.String("stage", stage),
		zap.String("bytes", hex.EncodeToString(data)),
	)
}
