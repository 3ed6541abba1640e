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

// Scan protocols reported by the reader.
const (
	ScanProtocolNone uint16 = 0x0000
	ScanProtocolISOA uint16 = 0x0001
	ScanProtocolISOB uint16 = 0x0002
)

// ScanResult describes the card found in the field, if any.
type ScanResult struct {
	// Protocol is ScanProtocolNone when the field is empty.
	Protocol uint16
	UID      []byte
	// ATS is the Answer To Select of ISO-A cards, when present. Its first
	// byte is the ATS's own length byte.
	ATS []byte
}

// ScanNFC polls the field for a card over any supported protocol.
// The reader handles scans slowly, so the guard-time gate is armed first.
func (d *Device) ScanNFC() (*ScanResult, error) {
	// Make sure we don't call this function too often, because the reader
	// is __slow__
	d.guardTime(scanGuardTime)

	filter := []byte{0x00, 0x07}
	data, err := d.Exchange(cmdScanGlobal, filter)
	if err != nil {
		return nil, err
	}
	if len(data) < 1 {
		return nil, ErrWrongResponseLength
	}

	result := &ScanResult{}
	switch data[0] {
	case 0x00:
		// No tag
		return result, nil

	case 0x01:
		result.Protocol = ScanProtocolISOA
		if len(data) < 6 {
			return nil, ErrUnsupportedResponseLength
		}
		if data[1] != 1 {
			return nil, ErrUnsupportedResponseValue
		}
		// Skip ATQA and SAK
		return parseISOA(result, data[5:])

	case 0x02:
		result.Protocol = ScanProtocolISOB
		if len(data) < 4 {
			return nil, ErrUnsupportedResponseLength
		}
		if data[1] != 1 {
			return nil, ErrUnsupportedResponseValue
		}
		// Skip RFU
		uidLen := int(data[3])
		if 4+uidLen > len(data) {
			return nil, ErrUnsupportedResponseValue
		}
		result.UID = append([]byte(nil), data[4:4+uidLen]...)
		return result, nil

	default:
		return nil, ErrUnsupportedResponseStatus
	}
}

// ScanARaw polls for an ISO-A card and requests its ATS.
func (d *Device) ScanARaw() (*ScanResult, error) {
	// Make sure we don't call this function too often, because the reader
	// is __slow__
	d.guardTime(scanGuardTime)

	atsSpec := []byte{0x01}
	data, err := d.Exchange(cmdScanARaw, atsSpec)
	if err != nil {
		return nil, err
	}
	if len(data) < 1 {
		return nil, ErrWrongResponseLength
	}

	result := &ScanResult{}
	switch data[0] {
	case 0x00:
		// No tag
		return result, nil

	case 0x01:
		result.Protocol = ScanProtocolISOA
		if len(data) < 5 {
			return nil, ErrUnsupportedResponseLength
		}
		// Skip ATQA and SAK
		return parseISOA(result, data[4:])

	default:
		return nil, ErrUnsupportedResponseStatus
	}
}

// parseISOA fills UID and optional ATS from the reader's ISO-A layout:
// UIDLen, UID bytes, then an ATS whose length byte is part of the ATS
// itself.
func parseISOA(result *ScanResult, data []byte) (*ScanResult, error) {
	if len(data) < 1 {
		return nil, ErrUnsupportedResponseLength
	}
	uidLen := int(data[0])
	if 1+uidLen > len(data) {
		// Not a valid length
		return nil, ErrUnsupportedResponseValue
	}
	result.UID = append([]byte(nil), data[1:1+uidLen]...)

	rest := data[1+uidLen:]
	if len(rest) > 0 {
		// ATSLen is part of the ATS itself
		atsLen := int(rest[0])
		if atsLen > len(rest) {
			return nil, ErrUnsupportedResponseValue
		}
		result.ATS = append([]byte(nil), rest[:atsLen]...)
	}
	return result, nil
}
