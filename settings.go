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

// SetBaudrate changes the reader's own baudrate setting. The serial line
// keeps its current speed until SelectBaudrate is called; the reader
// applies the new setting on its next reset.
func (d *Device) SetBaudrate(baud int) error {
	selector, ok := baudrateSelector(baud)
	if !ok {
		return ErrInvalidParameter
	}
	_, err := d.Exchange(cmdSetBaudrate, []byte{selector})
	return err
}

// SetRS485Address changes the reader's RS-485 address. The local address
// selection is untouched; call SelectAddress to follow the reader.
func (d *Device) SetRS485Address(address byte) error {
	if address > 127 {
		return ErrInvalidParameter
	}
	_, err := d.Exchange(cmdSetRS485Address, []byte{address})
	return err
}
