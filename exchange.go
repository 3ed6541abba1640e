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
	"errors"
	"math"

	"github.com/springcard/sscp-host/internal/frame"
	"github.com/springcard/sscp-host/internal/secure"
)

// CommandHeader is the 24-bit command identifier: type in the high byte,
// code in the low 16 bits.
type CommandHeader uint32

// Type returns the command type byte.
func (h CommandHeader) Type() byte {
	return byte(h >> 16)
}

// Code returns the 16-bit command code.
func (h CommandHeader) Code() uint16 {
	return uint16(h)
}

// Secure command layout, before padding:
//
//	0   4  counter (big-endian)
//	4   1  command type
//	5   2  command code (big-endian)
//	7   2  data length + 1 (big-endian)
//	9   1  reserved, 0x00
//	10  N  command data
//	10+N 32 HMAC-SHA-256 under K_sign_AB
const securePrologue = 10

// Exchange runs one secure command/response round-trip: the command is
// signed, padded, encrypted and framed; the response is decrypted and
// validated (counter, opcode, length, HMAC, status type) before its data
// is returned. A nonzero reader status byte is returned as a StatusError
// alongside whatever data the reader attached.
//
// Only receive timeouts are retried, and the very same ciphertext is
// resent: the counter is advanced only once a response has been received
// and validated, so a reader that never saw the first transmission accepts
// the resend.
func (d *Device) Exchange(cmd CommandHeader, commandData []byte) ([]byte, error) {
	if len(commandData) > maxPayload {
		return nil, ErrCommandTooLong
	}
	if !d.keys.Valid() {
		return nil, ErrNotAuthenticated
	}
	if d.counter == math.MaxUint32 {
		return nil, ErrCounterExhausted
	}

	wire, err := d.buildSecureCommand(cmd, commandData)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if d.selfTest {
		payload, err = d.selfTestSecureResponse(cmd)
	} else {
		payload, err = d.sendSecureCommand(wire)
	}
	if err != nil {
		return nil, err
	}

	return d.parseSecureResponse(cmd, payload)
}

// buildSecureCommand produces the transport payload: AES-CBC ciphertext
// followed by the 16-byte IV.
func (d *Device) buildSecureCommand(cmd CommandHeader, commandData []byte) ([]byte, error) {
	command := make([]byte, 0, securePrologue+len(commandData)+secure.MACSize+2*secure.BlockSize)
	command = binary.BigEndian.AppendUint32(command, d.counter)
	command = append(command, cmd.Type())
	command = binary.BigEndian.AppendUint16(command, cmd.Code())
	command = binary.BigEndian.AppendUint16(command, uint16(len(commandData)+1))
	command = append(command, 0x00)
	command = append(command, commandData...)
	d.traceExchange("command", command)

	mac := secure.Sign(d.keys.SignAB[:], command)
	d.traceExchange("sign", mac)
	command = append(command, mac...)

	if d.selfTest {
		command = secure.PadPattern(command, selfTestPadding)
	} else {
		command = secure.Pad(command)
	}
	d.traceExchange("padded", command)

	var iv []byte
	if d.selfTest {
		iv = append([]byte(nil), selfTestIV...)
	} else {
		var err error
		iv, err = secure.Random(secure.BlockSize)
		if err != nil {
			secure.Zeroize(command)
			return nil, ErrInternalFailure
		}
	}

	if err := secure.EncryptCBC(d.keys.CipherAB[:], iv, command); err != nil {
		secure.Zeroize(command)
		return nil, ErrInternalFailure
	}
	d.traceExchange("crypted", command)

	// The reader expects the IV after the ciphertext.
	wire := append(command, iv...)
	d.traceExchange("sending", wire)
	return wire, nil
}

// sendSecureCommand runs the framed exchange with the timeout retry loop.
func (d *Device) sendSecureCommand(wire []byte) ([]byte, error) {
	var payload []byte
	var err error
	for attempt := 0; attempt < d.config.MaxTimeoutRetries; attempt++ {
		payload, err = d.exchangeRaw(d.address, frame.ProtocolSecure, wire, maxPayload)
		if err == nil {
			if attempt > 0 {
				// We have recovered this error
				d.stats.errorCount++
			}
			return payload, nil
		}
		if !errors.Is(err, ErrCommRecvMute) && !errors.Is(err, ErrCommRecvStopped) {
			// Not a timeout error? So fatal!
			return nil, err
		}
	}
	return nil, err
}

// parseSecureResponse decrypts and validates a secure response payload and
// returns the embedded response data.
func (d *Device) parseSecureResponse(cmd CommandHeader, payload []byte) ([]byte, error) {
	d.traceExchange("received", payload)

	// At least one ciphertext block plus the trailing IV.
	if len(payload) < 2*secure.BlockSize || len(payload)%secure.BlockSize != 0 {
		return nil, ErrWrongResponseLength
	}

	// The trailing block is the IV.
	body := payload[:len(payload)-secure.BlockSize]
	iv := payload[len(payload)-secure.BlockSize:]

	if err := secure.DecryptCBC(d.keys.CipherBA[:], iv, body); err != nil {
		return nil, ErrInternalFailure
	}
	defer secure.Zeroize(body)
	d.traceExchange("decrypted", body)

	counter := binary.BigEndian.Uint32(body[0:4])
	if counter <= d.counter {
		// Counter has not been incremented by the device
		return nil, ErrWrongResponseCounter
	}
	d.counter = counter + 1

	if binary.BigEndian.Uint16(body[4:6]) != cmd.Code() {
		return nil, ErrWrongResponseCommand
	}

	dataLen := int(binary.BigEndian.Uint16(body[6:8]))
	signedLen := securePrologue + dataLen
	if len(body) < signedLen+secure.MACSize || len(body) > signedLen+secure.MACSize+secure.BlockSize {
		return nil, ErrWrongResponseFormat
	}

	if !secure.Verify(d.keys.SignBA[:], body[signedLen:signedLen+secure.MACSize], body[:signedLen]) {
		return nil, ErrWrongResponseSignature
	}

	if body[signedLen-2] != cmd.Type() {
		return nil, ErrWrongResponseType
	}
	status := body[signedLen-1]

	data := append([]byte(nil), body[8:8+dataLen]...)
	d.traceExchange("response", data)

	if status != 0 {
		return data, StatusError(status)
	}
	return data, nil
}
