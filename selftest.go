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
	"encoding/binary"

	"github.com/springcard/sscp-host/internal/secure"
)

// Self-test mode substitutes deterministic vectors for the RNG and for the
// reader's answers, so the HMAC, key-derivation and cipher code paths can
// be validated bit-exactly without a serial port.

// selfTestRndA replaces the host nonce.
var selfTestRndA = []byte{
	0x75, 0xCC, 0xF7, 0xB1, 0xF7, 0xFE, 0xA6, 0xF7,
	0x58, 0x71, 0xFC, 0xF6, 0xDC, 0x75, 0x59, 0x23,
}

// selfTestChallengeResponse is the recorded round-1 reply:
// B(4) A(4) RndA'(16) RndB(16) hB(32), hB being a genuine HMAC-SHA-256
// under the factory key.
var selfTestChallengeResponse = []byte{
	0x53, 0x77, 0x07, 0xAD, 0x48, 0x6F, 0x07, 0xAD,
	0x75, 0xCC, 0xF7, 0xB1, 0xF7, 0xFE, 0xA6, 0xF7,
	0x58, 0x71, 0xFC, 0xF6, 0xDC, 0x75, 0x59, 0x23,
	0xC8, 0xEE, 0x7C, 0x37, 0x5C, 0x21, 0xEA, 0xC5,
	0x1B, 0xD9, 0x7C, 0x51, 0xC6, 0x9F, 0x39, 0x5B,
	0x69, 0xF6, 0x61, 0x77, 0x07, 0xD9, 0x44, 0x29,
	0x40, 0xC3, 0x9B, 0xEB, 0xFA, 0x0B, 0x44, 0x59,
	0xCE, 0xBF, 0x6C, 0xD5, 0xE6, 0x10, 0xEA, 0x1F,
	0xF4, 0x4B, 0x34, 0x1E, 0x29, 0x16, 0x54, 0xA9,
}

// selfTestConfirmationResponse is the recorded round-2 ACK.
var selfTestConfirmationResponse = []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x08}

// selfTestIV replaces the random initialization vector.
var selfTestIV = []byte{
	0x7C, 0x3D, 0xE3, 0xF3, 0xE1, 0x91, 0xD3, 0xCD,
	0x3A, 0x09, 0x3E, 0x64, 0x3B, 0xF0, 0x35, 0xCE,
}

// selfTestPadding replaces the 0x80 00.. padding so padded buffers are
// fully deterministic.
var selfTestPadding = []byte{0xBA, 0x40, 0x5E, 0xDD}

// selfTestSecureResponse synthesizes the reader's reply to a self-test
// secure exchange: an empty-data success response carrying counter+1,
// signed and encrypted with the BA session keys. This keeps the whole
// build/encrypt/decrypt/validate pipeline on a deterministic loop without
// any I/O.
func (d *Device) selfTestSecureResponse(cmd CommandHeader) ([]byte, error) {
	body := make([]byte, 0, securePrologue+secure.MACSize+2*secure.BlockSize)
	body = binary.BigEndian.AppendUint32(body, d.counter+1)
	body = binary.BigEndian.AppendUint16(body, cmd.Code())
	body = binary.BigEndian.AppendUint16(body, 0) // no response data
	body = append(body, cmd.Type(), 0x00)
	body = append(body, secure.Sign(d.keys.SignBA[:], body)...)
	body = secure.PadPattern(body, selfTestPadding)

	if err := secure.EncryptCBC(d.keys.CipherBA[:], selfTestIV, body); err != nil {
		return nil, ErrInternalFailure
	}
	return append(body, selfTestIV...), nil
}
