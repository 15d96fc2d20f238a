// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package scale

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testStruct struct {
	A uint32
	B []byte
	C bool
}

func TestMarshal(t *testing.T) {
	t.Parallel()

	encoded, err := Marshal(testStruct{A: 1, B: []byte{9, 9}, C: true})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 0, 0, 8, 9, 9, 1}, encoded)
}

func TestUnmarshal(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		data     []byte
		expected testStruct
		errWrap  error
	}{
		"exact": {
			data:     []byte{1, 0, 0, 0, 8, 9, 9, 1},
			expected: testStruct{A: 1, B: []byte{9, 9}, C: true},
		},
		"trailing_bytes": {
			data:    []byte{1, 0, 0, 0, 8, 9, 9, 1, 7},
			errWrap: ErrTrailingBytes,
		},
	}

	for name, testCase := range testCases {
		testCase := testCase
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var s testStruct
			err := Unmarshal(testCase.data, &s)
			if testCase.errWrap != nil {
				require.ErrorIs(t, err, testCase.errWrap)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.expected, s)
		})
	}
}

func TestCompact(t *testing.T) {
	t.Parallel()

	for _, n := range []uint64{0, 1, 63, 64, 16383, 16384, 1 << 30, 1<<64 - 1} {
		buf := bytes.NewBuffer(nil)
		require.NoError(t, EncodeCompact(*NewEncoder(buf), n))

		decoded, err := DecodeCompact(*NewDecoder(bytes.NewReader(buf.Bytes())))
		require.NoError(t, err)
		assert.Equal(t, n, decoded)
	}
}

func TestBytes(t *testing.T) {
	t.Parallel()

	buf := bytes.NewBuffer(nil)
	require.NoError(t, EncodeBytes(*NewEncoder(buf), []byte("abc")))
	assert.Equal(t, []byte{12, 'a', 'b', 'c'}, buf.Bytes())

	decoded, err := DecodeBytes(*NewDecoder(bytes.NewReader(buf.Bytes())))
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), decoded)
}

func TestDecodeBytes_Lengths(t *testing.T) {
	t.Parallel()

	prefixed := func(length uint64, body []byte) []byte {
		buf := bytes.NewBuffer(nil)
		require.NoError(t, EncodeCompact(*NewEncoder(buf), length))
		return append(buf.Bytes(), body...)
	}
	large := bytes.Repeat([]byte{7}, 3*readChunk+5)

	testCases := map[string]struct {
		input    []byte
		expected []byte
		errIs    error
		errorMsg string
	}{
		"empty": {
			input:    prefixed(0, nil),
			expected: []byte{},
		},
		"several_chunks": {
			input:    prefixed(uint64(len(large)), large),
			expected: large,
		},
		"length_past_input": {
			input:    prefixed(1<<30, []byte{1, 2, 3}),
			errorMsg: "reading 65536 of 1073741824 bytes",
		},
		"length_above_u32": {
			input: prefixed(1<<40, nil),
			errIs: ErrLengthTooLarge,
		},
	}

	for name, testCase := range testCases {
		testCase := testCase
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			decoded, err := DecodeBytes(*NewDecoder(bytes.NewReader(testCase.input)))
			if testCase.errIs == nil && testCase.errorMsg == "" {
				require.NoError(t, err)
				assert.Equal(t, testCase.expected, decoded)
				return
			}
			if testCase.errIs != nil {
				assert.ErrorIs(t, err, testCase.errIs)
			}
			if testCase.errorMsg != "" {
				assert.ErrorContains(t, err, testCase.errorMsg)
			}
			assert.Nil(t, decoded)
		})
	}
}

func TestDecodeSlice(t *testing.T) {
	t.Parallel()

	prefixed := func(length uint64, items ...uint16) []byte {
		buf := bytes.NewBuffer(nil)
		require.NoError(t, EncodeCompact(*NewEncoder(buf), length))
		for _, item := range items {
			buf.Write([]byte{byte(item), byte(item >> 8)})
		}
		return buf.Bytes()
	}

	testCases := map[string]struct {
		input    []byte
		expected []uint16
		errIs    error
		errorMsg string
	}{
		"empty": {
			input: prefixed(0),
		},
		"items": {
			input:    prefixed(3, 1, 2, 0x0100),
			expected: []uint16{1, 2, 0x0100},
		},
		"length_past_input": {
			input:    prefixed(1<<28, 1, 2),
			errorMsg: "decoding item 2 of 268435456",
		},
		"length_above_u32": {
			input: prefixed(1 << 40),
			errIs: ErrLengthTooLarge,
		},
	}

	for name, testCase := range testCases {
		testCase := testCase
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			decoded, err := DecodeSlice[uint16](*NewDecoder(bytes.NewReader(testCase.input)))
			if testCase.errIs == nil && testCase.errorMsg == "" {
				require.NoError(t, err)
				assert.Equal(t, testCase.expected, decoded)
				return
			}
			if testCase.errIs != nil {
				assert.ErrorIs(t, err, testCase.errIs)
			}
			if testCase.errorMsg != "" {
				assert.ErrorContains(t, err, testCase.errorMsg)
			}
			assert.Nil(t, decoded)
		})
	}
}

func TestOption(t *testing.T) {
	t.Parallel()

	encoded, err := Marshal(Some(uint16(5)))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 5, 0}, encoded)

	var decoded Option[uint16]
	require.NoError(t, Unmarshal(encoded, &decoded))
	assert.Equal(t, Some(uint16(5)), decoded)

	encoded, err = Marshal(None[uint16]())
	require.NoError(t, err)
	assert.Equal(t, []byte{0}, encoded)

	require.NoError(t, Unmarshal(encoded, &decoded))
	_, ok := decoded.Unwrap()
	assert.False(t, ok)
}

type panickingDecoder struct{}

func (*panickingDecoder) Decode(Decoder) error {
	panic("makeslice: len out of range")
}

func TestUnmarshal_Panic(t *testing.T) {
	t.Parallel()

	err := Unmarshal([]byte{1}, &panickingDecoder{})
	assert.ErrorIs(t, err, ErrMalformedInput)
	assert.EqualError(t, err, "malformed input: decoding *scale.panickingDecoder: makeslice: len out of range")
}
