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

package sscp_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sscp "github.com/springcard/sscp-host"
	"github.com/springcard/sscp-host/internal/sscptest"
)

// newSession authenticates a device against a fresh virtual reader.
func newSession(t *testing.T, opts ...sscp.Option) (*sscp.Device, *sscptest.VirtualReader) {
	t.Helper()

	reader := sscptest.NewVirtualReader(nil)
	device, err := sscp.New(reader, opts...)
	require.NoError(t, err)
	require.NoError(t, device.Authenticate(nil))
	return device, reader
}

func TestSessionAuthenticateAndExchange(t *testing.T) {
	t.Parallel()

	device, _ := newSession(t)
	require.True(t, device.Authenticated())
	require.Equal(t, uint32(1), device.GetStatistics().SessionCounter)

	require.NoError(t, device.Outputs(0x02, 0x0A, 0x02))

	stats := device.GetStatistics()
	assert.Equal(t, uint32(3), stats.SessionCounter, "sent 1, reader echoed 2")
	assert.Equal(t, uint32(0), stats.TotalErrors)
	assert.NotZero(t, stats.BytesSent)
	assert.NotZero(t, stats.BytesReceived)
}

func TestSessionAuthenticateCustomKey(t *testing.T) {
	t.Parallel()

	key := []byte{
		0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
		0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F,
	}
	reader := sscptest.NewVirtualReader(key)
	device, err := sscp.New(reader)
	require.NoError(t, err)

	require.NoError(t, device.Authenticate(key))
	require.NoError(t, device.Outputs(0x01, 0x00, 0x00))
}

func TestSessionCounterMonotonic(t *testing.T) {
	t.Parallel()

	device, _ := newSession(t)
	previous := device.GetStatistics().SessionCounter
	for i := 0; i < 5; i++ {
		require.NoError(t, device.Outputs(0x01, 0x00, 0x00))
		current := device.GetStatistics().SessionCounter
		assert.Greater(t, current, previous)
		previous = current
	}
}

func TestSessionStaleCounterRejected(t *testing.T) {
	t.Parallel()

	device, reader := newSession(t)

	// The reader echoes the counter the host just sent instead of
	// incrementing it.
	reader.ForceCounter = 1
	err := device.Outputs(0x01, 0x00, 0x00)
	assert.ErrorIs(t, err, sscp.ErrWrongResponseCounter)
	assert.Equal(t, uint32(1), device.GetStatistics().SessionCounter,
		"a rejected counter must not move the session counter")
}

func TestSessionReplayedResponseRejected(t *testing.T) {
	t.Parallel()

	device, reader := newSession(t)
	require.NoError(t, device.Outputs(0x01, 0x00, 0x00))
	replay := reader.LastResponse()

	// The attacker races the reader and replays the previous response.
	reader.MuteCount = 1
	reader.InjectRaw(replay)
	err := device.Outputs(0x01, 0x00, 0x00)
	assert.ErrorIs(t, err, sscp.ErrWrongResponseCounter)
}

func TestSessionTamperedSignatureRejected(t *testing.T) {
	t.Parallel()

	device, reader := newSession(t)
	reader.TamperMAC = true
	err := device.Outputs(0x01, 0x00, 0x00)
	assert.ErrorIs(t, err, sscp.ErrWrongResponseSignature)
}

func TestSessionWrongEchoesRejected(t *testing.T) {
	t.Parallel()

	t.Run("wrong opcode", func(t *testing.T) {
		t.Parallel()
		device, reader := newSession(t)
		reader.WrongCode = true
		assert.ErrorIs(t, device.Outputs(0x01, 0x00, 0x00), sscp.ErrWrongResponseCommand)
	})

	t.Run("wrong status type", func(t *testing.T) {
		t.Parallel()
		device, reader := newSession(t)
		reader.WrongStatusType = true
		assert.ErrorIs(t, device.Outputs(0x01, 0x00, 0x00), sscp.ErrWrongResponseType)
	})
}

func TestSessionStatusPropagated(t *testing.T) {
	t.Parallel()

	device, reader := newSession(t)
	reader.Handler = func(_ byte, _ uint16, _ []byte) ([]byte, byte) {
		return nil, 0x10
	}

	err := device.Outputs(0x01, 0x00, 0x00)
	var status sscp.StatusError
	require.ErrorAs(t, err, &status)
	assert.Equal(t, byte(0x10), byte(status))
}

func TestSessionTimeoutRecovery(t *testing.T) {
	t.Parallel()

	t.Run("mute then answer", func(t *testing.T) {
		t.Parallel()
		device, reader := newSession(t)
		reader.MuteCount = 2

		require.NoError(t, device.Outputs(0x01, 0x00, 0x00))
		assert.Equal(t, uint32(1), device.GetStatistics().TotalErrors,
			"a recovered timeout counts once per exchange")
	})

	t.Run("stall then answer", func(t *testing.T) {
		t.Parallel()
		device, reader := newSession(t)
		reader.StallAfterHeader = true

		require.NoError(t, device.Outputs(0x01, 0x00, 0x00))
		assert.Equal(t, uint32(1), device.GetStatistics().TotalErrors)
	})

	t.Run("retries exhausted", func(t *testing.T) {
		t.Parallel()
		device, reader := newSession(t)
		reader.MuteCount = 3

		err := device.Outputs(0x01, 0x00, 0x00)
		assert.ErrorIs(t, err, sscp.ErrCommRecvMute)
	})

	t.Run("corrupted CRC is fatal, not retried", func(t *testing.T) {
		t.Parallel()
		device, reader := newSession(t)
		reader.CorruptCRC = true

		err := device.Outputs(0x01, 0x00, 0x00)
		assert.ErrorIs(t, err, sscp.ErrWrongResponseCRC)
		assert.Equal(t, uint32(0), device.GetStatistics().TotalErrors)
	})
}

func TestGetInfosWrapper(t *testing.T) {
	t.Parallel()

	device, reader := newSession(t)
	reader.Handler = func(_ byte, code uint16, _ []byte) ([]byte, byte) {
		require.Equal(t, uint16(0x0008), code)
		return []byte{0x13, 0x02, 0x01, 0x0D, 0x48}, 0x00
	}

	info, err := device.GetInfos()
	require.NoError(t, err)
	assert.Equal(t, byte(0x13), info.Version)
	assert.Equal(t, byte(0x02), info.Baudrate)
	assert.Equal(t, byte(0x01), info.Address)
	assert.Equal(t, uint16(0x0D48), info.Voltage)
}

func TestGetSerialNumberWrapper(t *testing.T) {
	t.Parallel()

	device, reader := newSession(t)
	reader.Handler = func(_ byte, _ uint16, _ []byte) ([]byte, byte) {
		return []byte{'H', 0xAB, 0x01, 0x02, 0x03}, 0x00
	}

	serial, err := device.GetSerialNumber()
	require.NoError(t, err)
	assert.Equal(t, "HAB010203", serial)
}

func TestGetReaderTypeWrapper(t *testing.T) {
	t.Parallel()

	device, reader := newSession(t)
	reader.Handler = func(_ byte, _ uint16, _ []byte) ([]byte, byte) {
		return []byte("H663/SSCP\x00garbage"), 0x00
	}

	readerType, err := device.GetReaderType()
	require.NoError(t, err)
	assert.Equal(t, "H663/SSCP", readerType)
}

func TestScanNFCWrapper(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		response []byte
		want     *sscp.ScanResult
		wantErr  error
	}{
		{
			name:     "no tag",
			response: []byte{0x00},
			want:     &sscp.ScanResult{Protocol: sscp.ScanProtocolNone},
		},
		{
			name: "ISO-A with ATS",
			response: []byte{
				0x01,                   // ISO-A
				0x01,                   // one card
				0x00, 0x04, 0x20,       // ATQA, SAK
				0x04,                   // UID length
				0xDE, 0xAD, 0xBE, 0xEF, // UID
				0x03, 0x78, 0x80, // ATS, length byte included
			},
			want: &sscp.ScanResult{
				Protocol: sscp.ScanProtocolISOA,
				UID:      []byte{0xDE, 0xAD, 0xBE, 0xEF},
				ATS:      []byte{0x03, 0x78, 0x80},
			},
		},
		{
			name: "ISO-B",
			response: []byte{
				0x02, 0x01, 0x00,
				0x04, 0x11, 0x22, 0x33, 0x44,
			},
			want: &sscp.ScanResult{
				Protocol: sscp.ScanProtocolISOB,
				UID:      []byte{0x11, 0x22, 0x33, 0x44},
			},
		},
		{
			name:     "unknown protocol byte",
			response: []byte{0x77},
			wantErr:  sscp.ErrUnsupportedResponseStatus,
		},
		{
			name:     "UID length overruns the payload",
			response: []byte{0x01, 0x01, 0x00, 0x04, 0x20, 0x10, 0xDE},
			wantErr:  sscp.ErrUnsupportedResponseValue,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			device, reader := newSession(t)
			reader.Handler = func(_ byte, code uint16, data []byte) ([]byte, byte) {
				require.Equal(t, uint16(0x00B0), code)
				require.Equal(t, []byte{0x00, 0x07}, data, "scan filter")
				return tt.response, 0x00
			}

			scan, err := device.ScanNFC()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, scan)
		})
	}
}

func TestScanARawWrapper(t *testing.T) {
	t.Parallel()

	device, reader := newSession(t)
	reader.Handler = func(_ byte, code uint16, data []byte) ([]byte, byte) {
		require.Equal(t, uint16(0x000F), code)
		require.Equal(t, []byte{0x01}, data, "ats spec")
		return []byte{
			0x01,             // one card
			0x00, 0x04, 0x20, // ATQA, SAK
			0x04, 0xDE, 0xAD, 0xBE, 0xEF,
		}, 0x00
	}

	scan, err := device.ScanARaw()
	require.NoError(t, err)
	assert.Equal(t, sscp.ScanProtocolISOA, scan.Protocol)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, scan.UID)
	assert.Empty(t, scan.ATS)
}

func TestScanThrottled(t *testing.T) {
	t.Parallel()

	device, reader := newSession(t)
	reader.Handler = func(_ byte, _ uint16, _ []byte) ([]byte, byte) {
		return []byte{0x00}, 0x00
	}

	_, err := device.ScanNFC()
	require.NoError(t, err)

	start := time.Now()
	_, err = device.ScanNFC()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 240*time.Millisecond,
		"back-to-back scans must respect the guard time")
}

func TestTransceiveAPDUWrapper(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		response []byte
		want     []byte
		wantErr  error
	}{
		{
			name:     "success",
			response: []byte{0x00, 0x90, 0x00},
			want:     []byte{0x90, 0x00},
		},
		{
			name:     "card mute or removed",
			response: []byte{0x01},
			wantErr:  sscp.ErrNFCCardMuteOrRemoved,
		},
		{
			name:     "card communication error",
			response: []byte{0x02},
			wantErr:  sscp.ErrNFCCardCommError,
		},
		{
			name:     "unknown card status",
			response: []byte{0x09},
			wantErr:  sscp.ErrUnsupportedResponseStatus,
		},
	}

	capdu := []byte{0x00, 0xA4, 0x04, 0x00}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			device, reader := newSession(t)
			reader.Handler = func(_ byte, code uint16, data []byte) ([]byte, byte) {
				require.Equal(t, uint16(0x005F), code)
				require.Equal(t, capdu, data)
				return tt.response, 0x00
			}

			rapdu, err := device.TransceiveAPDU(capdu)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rapdu)
		})
	}
}

func TestReaderSettingsWrappers(t *testing.T) {
	t.Parallel()

	device, reader := newSession(t)

	var gotCode uint16
	var gotData []byte
	reader.Handler = func(_ byte, code uint16, data []byte) ([]byte, byte) {
		gotCode = code
		gotData = append([]byte(nil), data...)
		return nil, 0x00
	}

	require.NoError(t, device.SetBaudrate(115200))
	assert.Equal(t, uint16(0x0005), gotCode)
	assert.Equal(t, []byte{0x04}, gotData, "115200 encodes as selector 4")

	require.NoError(t, device.SetRS485Address(0x05))
	assert.Equal(t, uint16(0x0006), gotCode)
	assert.Equal(t, []byte{0x05}, gotData)

	assert.ErrorIs(t, device.SetBaudrate(12345), sscp.ErrInvalidParameter)
	assert.ErrorIs(t, device.SetRS485Address(0x90), sscp.ErrInvalidParameter)

	require.NoError(t, device.ReleaseNFC())
	assert.Equal(t, uint16(0x0052), gotCode)
	assert.Empty(t, gotData)

	require.NoError(t, device.OutputsRGB(0x20A040, 0x0A, 0x00))
	assert.Equal(t, uint16(0x0050), gotCode)
	assert.Equal(t, []byte{0x20, 0xA0, 0x40, 0x0A, 0x00}, gotData)

	require.NoError(t, device.ExternalLEDColors(0xFF0000, 0x00FF00, 0x0000FF))
	assert.Equal(t, uint16(0x005A), gotCode)
	assert.Equal(t, []byte{0xFF, 0x00, 0x00, 0x00, 0xFF, 0x00, 0x00, 0x00, 0xFF}, gotData)
}

func TestSessionSurvivesLargePayloads(t *testing.T) {
	t.Parallel()

	device, reader := newSession(t)
	blob := make([]byte, 1024)
	for i := range blob {
		blob[i] = byte(i)
	}
	reader.Handler = func(_ byte, _ uint16, data []byte) ([]byte, byte) {
		// Echo a success status ahead of the payload, like the APDU relay.
		return append([]byte{0x00}, data...), 0x00
	}

	rapdu, err := device.TransceiveAPDU(blob)
	require.NoError(t, err)
	assert.Equal(t, blob, rapdu)
}
