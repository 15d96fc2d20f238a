// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package memory

import (
	"testing"

	"github.com/ChainSafe/rtapi/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Database(t *testing.T) {
	t.Parallel()

	db := New()

	err := db.Set([]byte{1}, []byte{2})
	require.NoError(t, err)
	value, err := db.Get([]byte{1})
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, value)

	err = db.Delete([]byte{2})
	require.NoError(t, err)
	err = db.Delete([]byte{1})
	require.NoError(t, err)
	_, err = db.Get([]byte{1})
	require.ErrorIs(t, err, database.ErrKeyNotFound)

	err = db.Set([]byte{1}, []byte{2})
	require.NoError(t, err)
	err = db.DropAll()
	require.NoError(t, err)
	_, err = db.Get([]byte{1})
	require.ErrorIs(t, err, database.ErrKeyNotFound)

	err = db.Close()
	require.NoError(t, err)
	err = db.Set([]byte{1}, []byte{2})
	assert.ErrorIs(t, err, database.ErrClosed)
}

func Test_Database_Get(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		db         *Database
		key        []byte
		value      []byte
		errWrapped error
		errMessage string
	}{
		"key_not_found": {
			db:         &Database{keyValues: map[string][]byte{}},
			key:        []byte{1},
			errWrapped: database.ErrKeyNotFound,
			errMessage: "key not found: 0x01",
		},
		"key_found": {
			db:    &Database{keyValues: map[string][]byte{"\x01": {2}}},
			key:   []byte{1},
			value: []byte{2},
		},
		"closed": {
			db:         &Database{closed: true},
			key:        []byte{1},
			errWrapped: database.ErrClosed,
			errMessage: "database closed",
		},
	}

	for name, testCase := range testCases {
		testCase := testCase
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			value, err := testCase.db.Get(testCase.key)

			assert.ErrorIs(t, err, testCase.errWrapped)
			if testCase.errWrapped != nil {
				assert.EqualError(t, err, testCase.errMessage)
			}
			assert.Equal(t, testCase.value, value)
		})
	}
}

func Test_Database_ValueMutationSafety(t *testing.T) {
	t.Parallel()

	db := New()
	value := []byte{2}
	require.NoError(t, db.Set([]byte{1}, value))
	value[0]++

	stored, err := db.Get([]byte{1})
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, stored)

	stored[0]++
	stored, err = db.Get([]byte{1})
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, stored)
}

func Test_writeBatch(t *testing.T) {
	t.Parallel()

	db := &Database{keyValues: map[string][]byte{"\x03": {2}}}
	writeBatch := db.NewWriteBatch()

	require.NoError(t, writeBatch.Set([]byte{1}, []byte{2}))
	require.NoError(t, writeBatch.Delete([]byte{3}))
	writeBatch.Cancel()
	assert.Equal(t, map[string][]byte{"\x03": {2}}, db.keyValues)

	require.NoError(t, writeBatch.Set([]byte{1}, []byte{2}))
	require.NoError(t, writeBatch.Delete([]byte{3}))
	require.NoError(t, writeBatch.Set([]byte{3}, []byte{4}))
	require.NoError(t, writeBatch.Flush())
	assert.Equal(t, map[string][]byte{"\x01": {2}, "\x03": {4}}, db.keyValues)
}

func Test_table(t *testing.T) {
	t.Parallel()

	db := New()
	dbTable := db.NewTable("prefix")

	require.NoError(t, dbTable.Set([]byte{1}, []byte{1}))
	value, err := db.Get([]byte("prefix\x01"))
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, value)

	writeBatch := dbTable.NewWriteBatch()
	require.NoError(t, writeBatch.Delete([]byte{1}))
	require.NoError(t, writeBatch.Set([]byte{2}, []byte{2}))
	require.NoError(t, writeBatch.Flush())

	_, err = dbTable.Get([]byte{1})
	assert.ErrorIs(t, err, database.ErrKeyNotFound)
	value, err = dbTable.Get([]byte{2})
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, value)
}
