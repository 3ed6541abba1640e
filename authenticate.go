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
	"github.com/springcard/sscp-host/internal/frame"
	"github.com/springcard/sscp-host/internal/secure"
)

// DefaultAuthKey is the factory transport key, used when Authenticate is
// given a nil key.
var DefaultAuthKey = [16]byte{
	0xE7, 0x4A, 0x54, 0x0F, 0xA0, 0x7C, 0x4D, 0xB1,
	0xB4, 0x64, 0x21, 0x12, 0x6D, 0xF7, 0xAD, 0x36,
}

// Sizes of the round-1 response fields: B(4) A(4) RndA'(16) RndB(16) hB(32).
const authChallengeSize = 4 + 4 + 16 + 16 + 32

// maxAuthResponse bounds the frames of the handshake.
const maxAuthResponse = 256

// Authenticate runs the two-round mutual authentication handshake, derives
// the four session keys and resets the exchange counter. A nil authKey
// selects the factory default transport key.
//
// Round 1 sends a fresh RndA and receives B, A, RndA', RndB and an HMAC of
// those 40 bytes under the long-term key. Round 2 echoes A and RndB with
// the host's own HMAC; the reader acknowledges with a short frame that is
// not parsed further.
func (d *Device) Authenticate(authKey []byte) error {
	if authKey == nil {
		authKey = DefaultAuthKey[:]
	}
	if len(authKey) != secure.KeySize {
		return ErrInvalidParameter
	}

	var rndA []byte
	if d.selfTest {
		rndA = append([]byte(nil), selfTestRndA...)
	} else {
		var err error
		rndA, err = secure.Random(16)
		if err != nil {
			return ErrInternalFailure
		}
	}

	// 1st step
	command := make([]byte, 0, 2+16)
	command = append(command, 0x00, 0x00)
	command = append(command, rndA...)
	d.traceAuthenticate("challenge", command)

	var response []byte
	if d.selfTest {
		response = append([]byte(nil), selfTestChallengeResponse...)
	} else {
		var err error
		response, err = d.exchangeRaw(d.address, frame.ProtocolAuthenticate, command, maxAuthResponse)
		if err != nil {
			return err
		}
	}
	d.traceAuthenticate("challenge response", response)

	if len(response) < authChallengeSize {
		return ErrWrongResponseLength
	}
	tagB := response[0:4]
	tagA := response[4:8]
	// response[8:24] is RndA', the reader's transform of RndA. It is not
	// interpreted by the host.
	rndB := response[24:40]
	hB := response[40:72]

	if !secure.Verify(authKey, hB, response[:40]) {
		return ErrWrongResponseSignature
	}
	_ = tagB

	// 2nd step
	command = command[:0]
	command = append(command, tagA...)
	command = append(command, rndB...)
	hA := secure.Sign(authKey, command)
	command = append(command, hA...)
	d.traceAuthenticate("confirmation", command)

	if d.selfTest {
		response = append([]byte(nil), selfTestConfirmationResponse...)
	} else {
		var err error
		response, err = d.exchangeRaw(d.address, frame.ProtocolAuthenticate, command, maxAuthResponse)
		if err != nil {
			return err
		}
	}
	// Expected response is an ACK
	d.traceAuthenticate("confirmation response", response)

	keys, err := secure.DeriveSessionKeys(authKey, rndA, rndB)
	if err != nil {
		return ErrInternalFailure
	}
	d.keys = *keys
	keys.Zeroize()

	// Initialize the counter to 1
	d.counter = 1

	d.stats.sessionCount++
	d.stats.whenSession = d.clock.Now()

	return nil
}
