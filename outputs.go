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

// Outputs drives the reader's LED and buzzer. Durations are in reader
// time units; 0 means steady.
func (d *Device) Outputs(ledColor, ledDuration, buzzerDuration byte) error {
	data := []byte{ledColor, ledDuration, buzzerDuration}
	_, err := d.Exchange(cmdOutputs, data)
	return err
}

// OutputsRGB drives the RGB LED with a 24-bit color.
func (d *Device) OutputsRGB(color uint32, ledDuration, buzzerDuration byte) error {
	data := []byte{
		byte(color >> 16), byte(color >> 8), byte(color),
		ledDuration, buzzerDuration,
	}
	_, err := d.Exchange(cmdOutputRGB, data)
	return err
}

// ExternalLEDColors drives the three external LED heads, one 24-bit color
// each.
func (d *Device) ExternalLEDColors(color1, color2, color3 uint32) error {
	data := make([]byte, 0, 9)
	for _, color := range []uint32{color1, color2, color3} {
		data = append(data, byte(color>>16), byte(color>>8), byte(color))
	}
	_, err := d.Exchange(cmdExternalLEDColors, data)
	return err
}
