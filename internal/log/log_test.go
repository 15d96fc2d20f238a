// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package log

import (
	"bytes"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const timePrefixRegex = `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}[^ ]* `

func levelPtr(level Level) *Level { return &level }

func boolPtr(b bool) *bool { return &b }

func Test_Logger_log(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		settings    settings
		level       Level
		s           string
		args        []interface{}
		outputRegex string
	}{
		"log_at_trace": {
			settings: settings{
				level:  levelPtr(Trace),
				colour: boolPtr(false),
				caller: boolPtr(false),
			},
			level:       Trace,
			s:           "some words",
			outputRegex: timePrefixRegex + "TRACE    some words\n$",
		},
		"do_not_log_at_trace": {
			settings: settings{
				level:  levelPtr(Debug),
				colour: boolPtr(false),
				caller: boolPtr(false),
			},
			level:       Trace,
			s:           "some words",
			outputRegex: "^$",
		},
		"format_string": {
			settings: settings{
				level:  levelPtr(Trace),
				colour: boolPtr(false),
				caller: boolPtr(false),
			},
			level:       Warn,
			s:           "some %s",
			args:        []interface{}{"words"},
			outputRegex: timePrefixRegex + "WARN     some words\n$",
		},
		"context": {
			settings: settings{
				level:  levelPtr(Trace),
				colour: boolPtr(false),
				caller: boolPtr(false),
				context: []contextKeyValues{
					{key: "pkg", values: []string{"runtime", "native"}},
				},
			},
			level:       Error,
			s:           "some words",
			outputRegex: timePrefixRegex + "ERROR    some words\tpkg=runtime,native\n$",
		},
	}

	for name, testCase := range testCases {
		testCase := testCase
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			buffer := bytes.NewBuffer(nil)
			testCase.settings.writer = buffer
			logger := &Logger{
				settings: testCase.settings,
				mutex:    new(sync.Mutex),
			}

			logger.log(testCase.level, testCase.s, testCase.args...)

			regex, err := regexp.Compile(testCase.outputRegex)
			require.NoError(t, err)
			assert.Regexp(t, regex, buffer.String())
		})
	}
}

func Test_Logger_New(t *testing.T) {
	t.Parallel()

	buffer := bytes.NewBuffer(nil)
	parent := New(SetWriter(buffer), SetLevel(Warn), AddContext("pkg", "a"))
	child := parent.New(AddContext("module", "b"))

	child.Info("not logged")
	child.Warn("logged")

	assert.Regexp(t, timePrefixRegex+"WARN     logged\tpkg=a module=b\n$", buffer.String())
}

func Test_Logger_Patch(t *testing.T) {
	t.Parallel()

	buffer := bytes.NewBuffer(nil)
	parent := New(SetWriter(buffer), SetLevel(Warn))
	child := parent.New()

	parent.Patch(SetLevel(Debug))
	child.Debug("logged")

	assert.Regexp(t, timePrefixRegex+"DEBUG    logged\n$", buffer.String())
}

func Test_ParseLevel(t *testing.T) {
	t.Parallel()

	level, err := ParseLevel("dbug")
	require.NoError(t, err)
	assert.Equal(t, Debug, level)

	level, err = ParseLevel("ERROR")
	require.NoError(t, err)
	assert.Equal(t, Error, level)

	_, err = ParseLevel("nope")
	assert.ErrorIs(t, err, ErrLevelNotRecognised)
}

func Test_Logger_Caller(t *testing.T) {
	t.Parallel()

	buffer := bytes.NewBuffer(nil)
	logger := New(SetWriter(buffer), SetCaller(true))
	logger.Infof("some %s", "words")

	assert.Regexp(t, timePrefixRegex+`INFO     some words\tlog_test\.go:\d+\n$`, buffer.String())
}

func Test_Level_ColouredString(t *testing.T) {
	t.Parallel()

	assert.Contains(t, Warn.ColouredString(), "WARN")
	assert.Equal(t, "???", Level(42).String())
}
