package io

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, r *Reader) []string {
	t.Helper()

	var lines []string
	for {
		line, err := r.ReadNext(nil)
		if errors.Is(err, io.EOF) {
			return lines
		}
		require.NoError(t, err)
		lines = append(lines, string(line))
	}
}

func TestReader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		lines []string
	}{
		{"simple", "{\"a\":1}\n{\"b\":2}\n", []string{`{"a":1}`, `{"b":2}`}},
		{"without last \\n", "{\"a\":1}\n{\"b\":2}", []string{`{"a":1}`, `{"b":2}`}},
		{"blank lines", "\n{\"a\":1}\n  \n\n{\"b\":2}\n\n", []string{`{"a":1}`, `{"b":2}`}},
		{"empty", "", nil},
	}

	for _, tc := range tests {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := NewReader(strings.NewReader(tc.input), 0)
			assert.Equal(t, tc.lines, readAll(t, r))
		})
	}
}

func TestReaderLongLine(t *testing.T) {
	t.Parallel()

	line := strings.Repeat("x", 10000)
	assert.Equal(t, []string{line}, readAll(t, NewReader(strings.NewReader(line+"\n"), 0)))

	_, err := NewReader(strings.NewReader(line+"\n"), 100).ReadNext(nil)
	assert.ErrorIs(t, err, ErrLineTooLong)
}

func TestWriter(t *testing.T) {
	t.Parallel()

	bb := new(bytes.Buffer)
	w := NewWriter(bb)
	require.NoError(t, w.WriteNext([]byte(`{"a":1}`)))
	require.NoError(t, w.WriteNext([]byte(`{"b":2}`)))
	assert.Equal(t, "{\"a\":1}\n{\"b\":2}\n", bb.String())
}
