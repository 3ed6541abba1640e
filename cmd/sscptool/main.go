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

// sscptool exercises an SSCP reader from the command line: authenticate,
// blink the LED, query the reader identity, scan for a card and relay
// APDUs to it.
package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v2"

	sscp "github.com/springcard/sscp-host"
	"github.com/springcard/sscp-host/detection"
	"github.com/springcard/sscp-host/transport/uart"
)

type config struct {
	device   *string
	baud     *int
	address  *int
	key      *string
	cfgFile  *string
	logFile  *string
	debug    *bool
	selftest *bool

	doInfo  *bool
	doScan  *bool
	doStats *bool
	apdu    *string
	led     *int
}

// fileConfig mirrors the flag set for YAML-based defaults.
type fileConfig struct {
	Device  string `yaml:"device"`
	Baud    int    `yaml:"baud"`
	Address int    `yaml:"address"`
	Key     string `yaml:"key"`
	LogFile string `yaml:"log_file"`
}

func parseFlags() *config {
	cfg := &config{
		device:   flag.String("device", "", "Serial device path (e.g. /dev/ttyUSB0 or COM8). Empty lists candidates."),
		baud:     flag.Int("baud", 38400, "Serial baudrate (9600..115200)"),
		address:  flag.Int("address", 0, "RS-485 address of the reader (0 for RS-232)"),
		key:      flag.String("key", "", "Transport key, 32 hex digits (default: factory key)"),
		cfgFile:  flag.String("config", "", "YAML configuration file"),
		logFile:  flag.String("log-file", "", "Write logs to this file with rotation instead of stderr"),
		debug:    flag.Bool("debug", false, "Enable protocol hex traces"),
		selftest: flag.Bool("selftest", false, "Run the deterministic self-test without a reader"),

		doInfo:  flag.Bool("info", false, "Query reader identity"),
		doScan:  flag.Bool("scan", false, "Scan for a card"),
		doStats: flag.Bool("stats", false, "Print session statistics"),
		apdu:    flag.String("apdu", "", "Transceive this C-APDU (hex) to the card"),
		led:     flag.Int("led", -1, "Drive the LED with this color code"),
	}
	flag.Parse()
	return cfg
}

func newLogger(cfg *config) *zap.Logger {
	level := zapcore.InfoLevel
	if *cfg.debug {
		level = zapcore.DebugLevel
	}

	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	sink := zapcore.AddSync(os.Stderr)
	if *cfg.logFile != "" {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   *cfg.logFile,
			MaxSize:    10, // MB
			MaxBackups: 3,
		})
	}
	return zap.New(zapcore.NewCore(encoder, sink, level))
}

func applyConfigFile(cfg *config) error {
	if *cfg.cfgFile == "" {
		return nil
	}
	raw, err := os.ReadFile(*cfg.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	// Flags that were left at their defaults pick up the file values.
	if *cfg.device == "" {
		*cfg.device = fc.Device
	}
	if fc.Baud != 0 && *cfg.baud == 38400 {
		*cfg.baud = fc.Baud
	}
	if fc.Address != 0 && *cfg.address == 0 {
		*cfg.address = fc.Address
	}
	if *cfg.key == "" {
		*cfg.key = fc.Key
	}
	if *cfg.logFile == "" {
		*cfg.logFile = fc.LogFile
	}
	return nil
}

func parseKey(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(s)
	if err != nil || len(key) != 16 {
		return nil, errors.New("key must be 32 hex digits")
	}
	return key, nil
}

func listCandidates() error {
	devices, err := detection.DetectAll()
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Println("No serial ports found")
		return nil
	}
	fmt.Println("Candidate serial ports (pass one with -device):")
	for _, dev := range devices {
		if dev.Description != "" {
			fmt.Printf("  %s  (%s)\n", dev.Path, dev.Description)
		} else {
			fmt.Printf("  %s\n", dev.Path)
		}
	}
	return nil
}

func deviceOptions(cfg *config, log *zap.Logger) []sscp.Option {
	opts := []sscp.Option{
		sscp.WithLogger(log),
		sscp.WithAddress(byte(*cfg.address)),
	}
	if *cfg.debug {
		opts = append(opts, sscp.WithTraceExchange(), sscp.WithTraceAuthenticate())
	}
	if *cfg.selftest {
		opts = append(opts, sscp.WithSelfTest())
	}
	return opts
}

func runSelfTest(cfg *config, log *zap.Logger) error {
	device, err := sscp.New(nil, deviceOptions(cfg, log)...)
	if err != nil {
		return err
	}

	key, err := parseKey(*cfg.key)
	if err != nil {
		return err
	}
	if err := device.Authenticate(key); err != nil {
		return fmt.Errorf("self-test authenticate failed: %w", err)
	}
	fmt.Println("Self-test authenticate OK")

	if err := device.Outputs(0x02, 0x0A, 0x00); err != nil {
		return fmt.Errorf("self-test exchange failed: %w", err)
	}
	fmt.Println("Self-test exchange OK")
	return nil
}

func runActions(cfg *config, device *sscp.Device) error {
	if *cfg.led >= 0 {
		if err := device.Outputs(byte(*cfg.led), 0x0A, 0x02); err != nil {
			return fmt.Errorf("outputs failed: %w", err)
		}
	}

	if *cfg.doInfo {
		info, err := device.GetInfos()
		if err != nil {
			return fmt.Errorf("get infos failed: %w", err)
		}
		serial, err := device.GetSerialNumber()
		if err != nil {
			return fmt.Errorf("get serial number failed: %w", err)
		}
		readerType, err := device.GetReaderType()
		if err != nil {
			return fmt.Errorf("get reader type failed: %w", err)
		}
		fmt.Printf("Reader:        %s\n", readerType)
		fmt.Printf("Serial number: %s\n", serial)
		fmt.Printf("Version:       %d\n", info.Version)
		fmt.Printf("Address:       %d\n", info.Address)
		fmt.Printf("Voltage:       %dmV\n", info.Voltage)
	}

	if *cfg.doScan {
		scan, err := device.ScanNFC()
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
		switch scan.Protocol {
		case sscp.ScanProtocolNone:
			fmt.Println("No card in the field")
		default:
			fmt.Printf("Card found, protocol %d, UID %X\n", scan.Protocol, scan.UID)
			if len(scan.ATS) > 0 {
				fmt.Printf("ATS: %X\n", scan.ATS)
			}
		}
	}

	if *cfg.apdu != "" {
		capdu, err := hex.DecodeString(*cfg.apdu)
		if err != nil {
			return errors.New("apdu must be hex")
		}
		rapdu, err := device.TransceiveAPDU(capdu)
		if err != nil {
			return fmt.Errorf("transceive failed: %w", err)
		}
		fmt.Printf("R-APDU: %X\n", rapdu)
	}

	if *cfg.doStats {
		stats := device.GetStatistics()
		fmt.Printf("Total SSCP time:       %s\n", stats.TotalTime)
		fmt.Printf("Recovered SSCP errors: %d\n", stats.TotalErrors)
		fmt.Printf("Total bytes sent:      %d\n", stats.BytesSent)
		fmt.Printf("Total bytes received:  %d\n", stats.BytesReceived)
		fmt.Printf("Number of sessions:    %d\n", stats.SessionCount)
		fmt.Printf("Last session time:     %s\n", stats.SessionTime)
		fmt.Printf("Last session counter:  %d\n", stats.SessionCounter)
	}

	return nil
}

func run() error {
	cfg := parseFlags()
	if err := applyConfigFile(cfg); err != nil {
		return err
	}

	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()

	if *cfg.selftest {
		return runSelfTest(cfg, log)
	}

	if *cfg.device == "" {
		return listCandidates()
	}
	if *cfg.address < 0 || *cfg.address > 127 {
		return errors.New("address must be 0..127")
	}

	transport, err := uart.New(*cfg.device, *cfg.baud)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", *cfg.device, err)
	}

	device, err := sscp.New(transport, deviceOptions(cfg, log)...)
	if err != nil {
		_ = transport.Close()
		return err
	}
	defer func() { _ = device.Close() }()

	key, err := parseKey(*cfg.key)
	if err != nil {
		return err
	}
	if err := device.Authenticate(key); err != nil {
		return fmt.Errorf("authenticate failed: %w", err)
	}
	log.Info("authenticated", zap.String("device", *cfg.device))

	return runActions(cfg, device)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "sscptool: %v\n", err)
		os.Exit(1)
	}
}
