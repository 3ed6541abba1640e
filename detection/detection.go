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

// Package detection enumerates serial ports that may have an SSCP reader
// behind them. It only lists candidates; probing a port is left to the
// caller, because talking SSCP to an arbitrary device is not harmless.
package detection

import (
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"
)

// DeviceInfo describes one candidate serial port.
type DeviceInfo struct {
	// Path is the port name to pass to uart.New.
	Path string
	// Description is the product string reported by the USB descriptor,
	// when available.
	Description string
	// VID and PID identify USB adapters, empty for native ports.
	VID string
	PID string
}

// DefaultBlocklist returns VID:PID pairs of devices known not to be SSCP
// readers that should not be offered as candidates.
// Format: VID:PID in hexadecimal (case-insensitive).
func DefaultBlocklist() []string {
	return []string{
		// Add known problematic devices here as discovered
	}
}

// IsBlocked checks whether a VID:PID pair is in the blocklist.
func IsBlocked(vidpid string, blocklist []string) bool {
	vidpid = strings.ToUpper(strings.TrimSpace(vidpid))
	for _, blocked := range blocklist {
		if vidpid == strings.ToUpper(strings.TrimSpace(blocked)) {
			return true
		}
	}
	return false
}

// blockedPathPrefixes are onboard ports that are never USB serial
// adapters: consoles and SoC debug UARTs.
var blockedPathPrefixes = []string{
	"/dev/ttyAMA",
	"/dev/ttyprintk",
	"/dev/console",
}

func isBlockedPath(path string) bool {
	for _, prefix := range blockedPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// DetectAll lists candidate serial ports, USB adapters first.
func DetectAll() ([]DeviceInfo, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	blocklist := DefaultBlocklist()
	var usb, native []DeviceInfo
	for _, port := range ports {
		if isBlockedPath(port.Name) {
			continue
		}

		info := DeviceInfo{Path: port.Name, Description: port.Product}
		if port.IsUSB {
			info.VID = port.VID
			info.PID = port.PID
			if IsBlocked(info.VID+":"+info.PID, blocklist) {
				continue
			}
			usb = append(usb, info)
			continue
		}
		native = append(native, info)
	}

	return append(usb, native...), nil
}
