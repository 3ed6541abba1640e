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

// TransceiveAPDU relays a command APDU to the card currently in the field
// and returns the response APDU. The first byte of the reader's reply is a
// card status: 0x00 success, 0x01 card timeout, 0x02 card communication
// error.
func (d *Device) TransceiveAPDU(commandAPDU []byte) ([]byte, error) {
	data, err := d.Exchange(cmdTransceiveAPDU, commandAPDU)
	if err != nil {
		return nil, err
	}
	if len(data) < 1 {
		return nil, ErrWrongResponseLength
	}

	switch data[0] {
	case 0x00:
		return data[1:], nil
	case 0x01:
		return nil, ErrNFCCardMuteOrRemoved
	case 0x02:
		return nil, ErrNFCCardCommError
	default:
		return nil, ErrUnsupportedResponseStatus
	}
}

// ReleaseNFC turns the RF field off, releasing the card.
func (d *Device) ReleaseNFC() error {
	_, err := d.Exchange(cmdReleaseRF, nil)
	return err
}
