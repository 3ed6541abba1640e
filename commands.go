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

// SSCP command headers (type:8 | code:16)
const (
	cmdChangeReaderKeys  CommandHeader = 0x000003
	cmdSetBaudrate       CommandHeader = 0x000005
	cmdSetRS485Address   CommandHeader = 0x000006
	cmdOutputs           CommandHeader = 0x000007
	cmdGetInfos          CommandHeader = 0x000008
	cmdScanARaw          CommandHeader = 0x00000F
	cmdGetSerialNumber   CommandHeader = 0x00001F
	cmdOutputRGB         CommandHeader = 0x000050
	cmdReleaseRF         CommandHeader = 0x000052
	cmdGetReaderType     CommandHeader = 0x000057
	cmdExternalLEDColors CommandHeader = 0x00005A
	cmdTransceiveAPDU    CommandHeader = 0x00005F
	cmdScanGlobal        CommandHeader = 0x0000B0
)

// Baudrates supported by the serial line and the reader, in selector
// order: the reader-side SET_BAUDRATE command encodes them as 0..4.
var supportedBaudrates = []int{9600, 19200, 38400, 57600, 115200}

// baudrateSelector maps a baudrate to the reader's selector encoding.
func baudrateSelector(baud int) (byte, bool) {
	for i, b := range supportedBaudrates {
		if b == baud {
			return byte(i), true
		}
	}
	return 0, false
}
