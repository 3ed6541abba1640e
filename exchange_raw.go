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
	"errors"

	"github.com/springcard/sscp-host/internal/frame"
)

// exchangeRaw writes one request frame and reads one response frame,
// returning the response payload. The first header byte is awaited under
// the first-byte timeout; once the header is in hand every further read
// runs under the inter-byte timeout, and a mute port is reported as
// stopped because partial data was already received.
func (d *Device) exchangeRaw(address, protocol byte, command []byte, maxResponseSz int) ([]byte, error) {
	if d.transport == nil {
		return nil, ErrCommNotOpen
	}
	if len(command) > frame.MaxPayload {
		return nil, ErrCommandTooLong
	}

	if err := d.transport.SetTimeouts(d.config.FirstByteTimeout, d.config.InterByteTimeout); err != nil {
		return nil, err
	}

	raw, err := frame.Encode(address, protocol, command)
	if err != nil {
		return nil, ErrCommandTooLong
	}

	if err := d.transport.Write(raw); err != nil {
		return nil, err
	}
	d.stats.bytesSent += uint64(len(raw))

	header := make([]byte, frame.HeaderSize)
	if err := d.transport.Read(header); err != nil {
		return nil, err
	}
	d.stats.bytesReceived += frame.HeaderSize

	parsed, err := frame.ParseHeader(header)
	if err != nil {
		return nil, ErrWrongResponseCommand
	}
	if parsed.Length > maxResponseSz {
		// Payload will not fit
		return nil, ErrResponseTooLong
	}

	if err := d.transport.SetTimeouts(d.config.InterByteTimeout, d.config.InterByteTimeout); err != nil {
		return nil, err
	}

	payload := make([]byte, parsed.Length)
	if err := d.transport.Read(payload); err != nil {
		// We already have the header, right?
		return nil, upgradeRecvMute(err)
	}

	crc := make([]byte, frame.CRCSize)
	if err := d.transport.Read(crc); err != nil {
		// We already have the header and the payload, right?
		return nil, upgradeRecvMute(err)
	}
	d.stats.bytesReceived += uint64(parsed.Length + frame.CRCSize)

	expected := frame.Checksum(header[1:], payload)
	if expected[0] != crc[0] || expected[1] != crc[1] {
		return nil, ErrWrongResponseCRC
	}

	return payload, nil
}

// upgradeRecvMute turns a mute port into a mid-frame stall once part of
// the response was already received. The distinction matters to the retry
// policy of the secure exchanger.
func upgradeRecvMute(err error) error {
	if errors.Is(err, ErrCommRecvMute) {
		return ErrCommRecvStopped
	}
	return err
}
