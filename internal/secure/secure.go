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

// Package secure provides the cryptographic helpers behind the SSCPv2
// secure channel: AES-128-CBC, HMAC-SHA-256, ISO-style padding and the
// session-key derivation shared by the host and the test reader.
package secure

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the length of every SSCP key, long-term or session.
	KeySize = 16
	// BlockSize is the AES block size; all ciphertexts are multiples of it.
	BlockSize = 16
	// MACSize is the length of an HMAC-SHA-256 tag.
	MACSize = 32
)

var (
	ErrBadKeySize    = errors.New("secure: key must be 16 bytes")
	ErrBadIVSize     = errors.New("secure: IV must be 16 bytes")
	ErrBadBlockAlign = errors.New("secure: data is not a nonzero multiple of the block size")
)

// sessionKeyInfo is the HKDF context string binding derived material to
// this protocol version.
var sessionKeyInfo = []byte("SSCPv2 session keys")

// SessionKeys holds the four 16-byte keys protecting one session.
// AB is host to reader, BA is reader to host.
type SessionKeys struct {
	CipherAB [KeySize]byte
	CipherBA [KeySize]byte
	SignAB   [KeySize]byte
	SignBA   [KeySize]byte
}

// DeriveSessionKeys derives the four session keys from the long-term key
// and the two handshake nonces using HKDF-SHA-256 (RFC 5869) with
// salt RndA||RndB. The output order is CipherAB, CipherBA, SignAB, SignBA.
func DeriveSessionKeys(authKey, rndA, rndB []byte) (*SessionKeys, error) {
	if len(authKey) != KeySize {
		return nil, ErrBadKeySize
	}

	salt := make([]byte, 0, len(rndA)+len(rndB))
	salt = append(salt, rndA...)
	salt = append(salt, rndB...)

	reader := hkdf.New(sha256.New, authKey, salt, sessionKeyInfo)
	okm := make([]byte, 4*KeySize)
	if _, err := io.ReadFull(reader, okm); err != nil {
		return nil, err
	}
	defer Zeroize(okm)

	keys := &SessionKeys{}
	copy(keys.CipherAB[:], okm[0*KeySize:])
	copy(keys.CipherBA[:], okm[1*KeySize:])
	copy(keys.SignAB[:], okm[2*KeySize:])
	copy(keys.SignBA[:], okm[3*KeySize:])
	return keys, nil
}

// Valid reports whether the keys have been installed by an authentication.
func (k *SessionKeys) Valid() bool {
	var zero [KeySize]byte
	return k.CipherAB != zero && k.CipherBA != zero && k.SignAB != zero && k.SignBA != zero
}

// Zeroize wipes the session keys.
func (k *SessionKeys) Zeroize() {
	Zeroize(k.CipherAB[:])
	Zeroize(k.CipherBA[:])
	Zeroize(k.SignAB[:])
	Zeroize(k.SignBA[:])
}

// Sign computes HMAC-SHA-256 over the concatenation of parts.
func Sign(key []byte, parts ...[]byte) []byte {
	mac := hmac.New(sha256.New, key)
	for _, part := range parts {
		mac.Write(part)
	}
	return mac.Sum(nil)
}

// Verify recomputes the HMAC over parts and compares it to the expected
// tag in constant time.
func Verify(key, expected []byte, parts ...[]byte) bool {
	return hmac.Equal(Sign(key, parts...), expected)
}

// EncryptCBC encrypts buf in place with AES-128-CBC.
func EncryptCBC(key, iv, buf []byte) error {
	block, err := newBlock(key, iv, buf)
	if err != nil {
		return err
	}
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(buf, buf)
	return nil
}

// DecryptCBC decrypts buf in place with AES-128-CBC.
func DecryptCBC(key, iv, buf []byte) error {
	block, err := newBlock(key, iv, buf)
	if err != nil {
		return err
	}
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(buf, buf)
	return nil
}

func newBlock(key, iv, buf []byte) (cipher.Block, error) {
	if len(key) != KeySize {
		return nil, ErrBadKeySize
	}
	if len(iv) != BlockSize {
		return nil, ErrBadIVSize
	}
	if len(buf) == 0 || len(buf)%BlockSize != 0 {
		return nil, ErrBadBlockAlign
	}
	return aes.NewCipher(key)
}

// Pad appends the standard padding to reach a multiple of the block size:
// a single 0x80 byte followed by zeroes. Already-aligned input is returned
// unchanged.
func Pad(buf []byte) []byte {
	if len(buf)%BlockSize == 0 {
		return buf
	}
	buf = append(buf, 0x80)
	for len(buf)%BlockSize != 0 {
		buf = append(buf, 0x00)
	}
	return buf
}

// PadPattern appends the repeating pattern until buf is a multiple of the
// block size. Used by the self-test mode so padded buffers match the
// recorded vectors.
func PadPattern(buf, pattern []byte) []byte {
	for i := 0; len(buf)%BlockSize != 0; i++ {
		buf = append(buf, pattern[i%len(pattern)])
	}
	return buf
}

// Random fills a fresh buffer from the CSPRNG.
func Random(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Zeroize wipes a buffer holding secret or protocol-sensitive material.
func Zeroize(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
