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

/*
Package sscp is the host-side (control panel) implementation of SSCPv2,
the Smart Secure Communication Protocol spoken over RS-232 or RS-485
between an access-control panel and an NFC coupler.

After a two-round mutual authentication with a 16-byte transport key,
every command is HMAC-signed, AES-CBC encrypted and bound to a strictly
increasing counter, so a passive or active attacker on the serial line can
neither read, forge nor replay exchanges.

Basic Usage:

	import (
	    sscp "github.com/springcard/sscp-host"
	    "github.com/springcard/sscp-host/transport/uart"
	)

	transport, err := uart.New("/dev/ttyUSB0", 38400)
	if err != nil {
	    log.Fatal(err)
	}

	device, err := sscp.New(transport)
	if err != nil {
	    log.Fatal(err)
	}
	defer device.Close()

	// nil selects the factory transport key
	if err := device.Authenticate(nil); err != nil {
	    log.Fatal(err)
	}

	scan, err := device.ScanNFC()
	if err != nil {
	    log.Fatal(err)
	}
	if scan.Protocol != sscp.ScanProtocolNone {
	    fmt.Printf("card UID: %X\n", scan.UID)

	    rapdu, err := device.TransceiveAPDU([]byte{0x00, 0xA4, 0x04, 0x00})
	    if err != nil {
	        log.Fatal(err)
	    }
	    fmt.Printf("R-APDU: %X\n", rapdu)
	}

RS-485 multi-drop buses address each reader individually:

	device.SelectAddress(3)

Self-Test:

A device built with sscp.WithSelfTest() replaces the RNG and the reader's
handshake answers with recorded vectors, synthesizes the reader's reply to
secure exchanges locally with the session keys, and performs no I/O at
all; Authenticate and the secure exchange then run deterministically, which
validates the crypto pipeline on any machine without hardware.

Error Handling:

All operations return errors from a single flat taxonomy that can be
inspected with errors.Is:

	if errors.Is(err, sscp.ErrCommRecvMute) {
	    // reader did not answer
	}

Statuses reported by the reader itself travel through the same channel as
a StatusError; use errors.As to read the status byte.

Thread Safety:

Device operations are not thread-safe. One Device exclusively owns one
serial port; if you need concurrent access, implement appropriate
synchronization in your application.
*/
package sscp
