// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package digest

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString_KnownValues(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "5381"},
		{"a", "177670"},
		{"abc", "193485963"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, String(tt.in))
		})
	}
}

func TestString_Deterministic(t *testing.T) {
	assert.Equal(t, String("correct horse"), String("correct horse"))
	assert.NotEqual(t, String("correct horse"), String("correct horsf"))
}

// Astral characters hash as two UTF-16 surrogates, like the browser build.
func TestString_SurrogatePairs(t *testing.T) {
	h := seed
	for _, unit := range []uint32{0xD83D, 0xDE00} {
		h = h*33 + unit
	}
	assert.Equal(t, strconv.FormatUint(uint64(h), 10), String("\U0001F600"))
}

func TestString_Wraps32Bits(t *testing.T) {
	long := make([]byte, 4096)
	for i := range long {
		long[i] = 'z'
	}
	got := String(string(long))
	assert.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), 10)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("hunter2", String("hunter2")))
	assert.False(t, Equal("hunter3", String("hunter2")))
	assert.False(t, Equal("", ""))
}
