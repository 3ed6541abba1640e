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

// Package sscptest provides a virtual SSCP reader for tests: an in-memory
// transport that speaks the real wire protocol, including the mutual
// authentication handshake and the encrypted exchanges, with hooks to
// inject the faults the host must survive.
package sscptest

import (
	"encoding/binary"
	"time"

	sscp "github.com/springcard/sscp-host"
	"github.com/springcard/sscp-host/internal/frame"
	"github.com/springcard/sscp-host/internal/secure"
)

// Tag values presented in round 1. The host echoes them without
// interpretation.
var (
	tagB = []byte{0x53, 0x77, 0x07, 0xAD}
	tagA = []byte{0x48, 0x6F, 0x07, 0xAD}
)

// Handler executes one secure command on the virtual reader and returns
// the response data and status byte.
type Handler func(cmdType byte, code uint16, data []byte) (respData []byte, status byte)

// VirtualReader implements sscp.Transport by running the reader side of
// SSCPv2 in memory.
//
// Fault injection fields take effect on the next response and model the
// misbehaviors the host-side validation must catch.
type VirtualReader struct {
	// AuthKey is the long-term transport key the reader authenticates
	// with.
	AuthKey [16]byte
	// RndB is the reader-side handshake nonce.
	RndB [16]byte
	// Handler executes secure commands. The default answers success with
	// no data.
	Handler Handler

	// MuteCount swallows the next N responses entirely.
	MuteCount int
	// StallAfterHeader sends only the frame header of the next response.
	StallAfterHeader bool
	// CorruptCRC flips the last CRC byte of the next response frame.
	CorruptCRC bool
	// ForceCounter fixes the counter echoed in secure responses instead
	// of command counter + 1.
	ForceCounter uint32
	// TamperMAC flips one bit of the response HMAC before encryption.
	TamperMAC bool
	// WrongCode echoes a wrong command code in secure responses.
	WrongCode bool
	// WrongStatusType echoes a wrong status type in secure responses.
	WrongStatusType bool

	keys    *secure.SessionKeys
	rndA    [16]byte
	inbuf   []byte
	reads   []readChunk
	lastOut []byte
	closed  bool
}

type readChunk struct {
	data []byte
	err  error
}

// NewVirtualReader creates a reader holding the given long-term key; nil
// selects the factory default key. The reader nonce defaults to the RndB
// of the recorded self-test handshake.
func NewVirtualReader(authKey []byte) *VirtualReader {
	r := &VirtualReader{
		RndB: [16]byte{
			0xC8, 0xEE, 0x7C, 0x37, 0x5C, 0x21, 0xEA, 0xC5,
			0x1B, 0xD9, 0x7C, 0x51, 0xC6, 0x9F, 0x39, 0x5B,
		},
	}
	if authKey == nil {
		r.AuthKey = sscp.DefaultAuthKey
	} else {
		copy(r.AuthKey[:], authKey)
	}
	return r
}

// SessionKeys exposes the derived session keys once the handshake is
// complete, so tests can build or inspect secure traffic themselves.
func (r *VirtualReader) SessionKeys() *secure.SessionKeys {
	return r.keys
}

// LastResponse returns the raw bytes of the last response frame, for
// replay tests.
func (r *VirtualReader) LastResponse() []byte {
	return append([]byte(nil), r.lastOut...)
}

// InjectRaw queues raw bytes ahead of any pending response.
func (r *VirtualReader) InjectRaw(data []byte) {
	r.reads = append(r.reads, readChunk{data: append([]byte(nil), data...)})
}

// Write feeds bytes to the reader; complete frames are executed
// immediately and their responses queued for Read.
func (r *VirtualReader) Write(data []byte) error {
	if r.closed {
		return sscp.ErrCommNotOpen
	}
	r.inbuf = append(r.inbuf, data...)

	for {
		header, err := frame.ParseHeader(r.inbuf)
		if err == frame.ErrBadSOF {
			// Resync on the next byte
			r.inbuf = r.inbuf[1:]
			continue
		}
		if err != nil {
			// Wait for the rest of the header
			return nil
		}
		total := frame.HeaderSize + header.Length + frame.CRCSize
		if len(r.inbuf) < total {
			return nil
		}

		_, payload, err := frame.Decode(r.inbuf[:total])
		r.inbuf = r.inbuf[total:]
		if err != nil {
			// A real reader stays silent on a corrupted frame
			continue
		}
		r.handleFrame(header, payload)
	}
}

func (r *VirtualReader) handleFrame(header frame.Header, payload []byte) {
	switch header.Protocol {
	case frame.ProtocolAuthenticate:
		r.handleAuthenticate(header, payload)
	case frame.ProtocolSecure:
		r.handleSecure(header, payload)
	}
}

func (r *VirtualReader) handleAuthenticate(header frame.Header, payload []byte) {
	switch {
	case len(payload) == 18 && payload[0] == 0x00 && payload[1] == 0x00:
		// Round 1: remember RndA, answer B || A || RndA' || RndB || hB.
		copy(r.rndA[:], payload[2:18])

		resp := make([]byte, 0, 40+secure.MACSize)
		resp = append(resp, tagB...)
		resp = append(resp, tagA...)
		resp = append(resp, r.rndA[:]...)
		resp = append(resp, r.RndB[:]...)
		resp = append(resp, secure.Sign(r.AuthKey[:], resp)...)
		r.respond(header.Address, frame.ProtocolAuthenticate, resp)

	case len(payload) == 52:
		// Round 2: verify hA over A || RndB, then install session keys.
		if !secure.Verify(r.AuthKey[:], payload[20:52], payload[:20]) {
			return
		}
		keys, err := secure.DeriveSessionKeys(r.AuthKey[:], r.rndA[:], r.RndB[:])
		if err != nil {
			return
		}
		r.keys = keys
		r.respond(header.Address, frame.ProtocolAuthenticate, []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x08})
	}
}

func (r *VirtualReader) handleSecure(header frame.Header, payload []byte) {
	if r.keys == nil {
		return
	}
	if len(payload) < 2*secure.BlockSize || len(payload)%secure.BlockSize != 0 {
		return
	}

	body := append([]byte(nil), payload[:len(payload)-secure.BlockSize]...)
	iv := payload[len(payload)-secure.BlockSize:]
	if err := secure.DecryptCBC(r.keys.CipherAB[:], iv, body); err != nil {
		return
	}

	counter := binary.BigEndian.Uint32(body[0:4])
	cmdType := body[4]
	code := binary.BigEndian.Uint16(body[5:7])
	dataLen := int(binary.BigEndian.Uint16(body[7:9])) - 1
	if dataLen < 0 || 10+dataLen+secure.MACSize > len(body) {
		return
	}
	data := body[10 : 10+dataLen]

	if !secure.Verify(r.keys.SignAB[:], body[10+dataLen:10+dataLen+secure.MACSize], body[:10+dataLen]) {
		return
	}

	respData := []byte(nil)
	status := byte(0x00)
	if r.Handler != nil {
		respData, status = r.Handler(cmdType, code, data)
	}

	respCounter := counter + 1
	if r.ForceCounter != 0 {
		respCounter = r.ForceCounter
	}
	echoCode := code
	if r.WrongCode {
		echoCode = code ^ 0xFFFF
	}
	echoType := cmdType
	if r.WrongStatusType {
		echoType = cmdType ^ 0xFF
	}

	resp := make([]byte, 0, 10+len(respData)+secure.MACSize+2*secure.BlockSize)
	resp = binary.BigEndian.AppendUint32(resp, respCounter)
	resp = binary.BigEndian.AppendUint16(resp, echoCode)
	resp = binary.BigEndian.AppendUint16(resp, uint16(len(respData)))
	resp = append(resp, respData...)
	resp = append(resp, echoType, status)

	mac := secure.Sign(r.keys.SignBA[:], resp)
	if r.TamperMAC {
		mac[0] ^= 0x01
		r.TamperMAC = false
	}
	resp = append(resp, mac...)
	resp = secure.Pad(resp)

	respIV, err := secure.Random(secure.BlockSize)
	if err != nil {
		return
	}
	if err := secure.EncryptCBC(r.keys.CipherBA[:], respIV, resp); err != nil {
		return
	}
	r.respond(header.Address, frame.ProtocolSecure, append(resp, respIV...))
}

// respond frames a payload and queues it, applying pending faults.
func (r *VirtualReader) respond(address, protocol byte, payload []byte) {
	raw, err := frame.Encode(address, protocol, payload)
	if err != nil {
		return
	}
	r.lastOut = append([]byte(nil), raw...)

	if r.MuteCount > 0 {
		r.MuteCount--
		return
	}
	if r.CorruptCRC {
		r.CorruptCRC = false
		raw[len(raw)-1] ^= 0xFF
	}
	if r.StallAfterHeader {
		r.StallAfterHeader = false
		r.reads = append(r.reads,
			readChunk{data: append([]byte(nil), raw[:frame.HeaderSize]...)},
			readChunk{err: sscp.ErrCommRecvMute},
		)
		return
	}
	r.reads = append(r.reads, readChunk{data: raw})
}

// Read serves queued response bytes with serial-like semantics.
func (r *VirtualReader) Read(buf []byte) error {
	if r.closed {
		return sscp.ErrCommNotOpen
	}

	total := 0
	for total < len(buf) {
		if len(r.reads) == 0 {
			if total == 0 {
				return sscp.ErrCommRecvMute
			}
			return sscp.ErrCommRecvStopped
		}

		chunk := &r.reads[0]
		if len(chunk.data) == 0 {
			err := chunk.err
			r.reads = r.reads[1:]
			if err != nil {
				return err
			}
			continue
		}

		n := copy(buf[total:], chunk.data)
		chunk.data = chunk.data[n:]
		total += n
		if len(chunk.data) == 0 && chunk.err == nil {
			r.reads = r.reads[1:]
		}
	}
	return nil
}

// SetTimeouts is accepted and ignored; the virtual reader never blocks.
func (*VirtualReader) SetTimeouts(_, _ time.Duration) error {
	return nil
}

// Close marks the transport closed.
func (r *VirtualReader) Close() error {
	r.closed = true
	return nil
}

// IsConnected returns true until Close is called.
func (r *VirtualReader) IsConnected() bool {
	return !r.closed
}

// Port returns a fixed identifier.
func (*VirtualReader) Port() string {
	return "virtual"
}

// Type returns sscp.TransportMock.
func (*VirtualReader) Type() sscp.TransportType {
	return sscp.TransportMock
}
