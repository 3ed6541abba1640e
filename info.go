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

import "fmt"

// ReaderInfo is the reader's static configuration as reported by GET_INFOS.
type ReaderInfo struct {
	// Version is the firmware version byte.
	Version byte
	// Baudrate is the reader's baudrate selector (0..4, see
	// SetBaudrate).
	Baudrate byte
	// Address is the reader's RS-485 address.
	Address byte
	// Voltage is the supply voltage in millivolts.
	Voltage uint16
}

// GetInfos queries the reader's version, line configuration and supply
// voltage.
func (d *Device) GetInfos() (*ReaderInfo, error) {
	data, err := d.Exchange(cmdGetInfos, nil)
	if err != nil {
		return nil, err
	}
	if len(data) < 5 {
		return nil, ErrUnsupportedResponseLength
	}

	return &ReaderInfo{
		Version:  data[0],
		Baudrate: data[1],
		Address:  data[2],
		Voltage:  uint16(data[3])<<8 | uint16(data[4]),
	}, nil
}

// GetSerialNumber returns the reader's serial number, formatted as the
// leading product letter followed by four hex octets.
func (d *Device) GetSerialNumber() (string, error) {
	data, err := d.Exchange(cmdGetSerialNumber, nil)
	if err != nil {
		return "", err
	}
	if len(data) != 5 {
		return "", ErrUnsupportedResponseLength
	}

	return fmt.Sprintf("%c%02X%02X%02X%02X", data[0], data[1], data[2], data[3], data[4]), nil
}

// GetReaderType returns the reader's product name, a NUL-terminated
// string.
func (d *Device) GetReaderType() (string, error) {
	data, err := d.Exchange(cmdGetReaderType, nil)
	if err != nil {
		return "", err
	}

	for i, b := range data {
		if b == 0x00 {
			// EOT
			data = data[:i]
			break
		}
	}
	return string(data), nil
}
