// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package digest provides the weak string digest used by the password gate.
//
// The digest is DJB2 over UTF-16 code units, so values match those written by
// the browser build of gatechat. It is NOT a cryptographic hash: it only exists
// so the gate can compare a candidate password against a stored value without
// keeping the password itself.
package digest

import (
	"strconv"
	"unicode/utf16"
)

// seed is the DJB2 starting value.
const seed uint32 = 5381

// String returns the decimal DJB2 digest of text.
func String(text string) string {
	h := seed
	for _, unit := range utf16.Encode([]rune(text)) {
		// h*33 + c, wrapping at 32 bits
		h = (h << 5) + h + uint32(unit)
	}
	return strconv.FormatUint(uint64(h), 10)
}

// Equal reports whether text digests to want.
func Equal(text, want string) bool {
	return want != "" && String(text) == want
}
