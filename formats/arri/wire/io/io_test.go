package io

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type test struct {
	name  string
	bytes []byte
	data  [][]byte
}

const (
	invocationFrame = "ARRIRPC/0.0.8 foo.fooFoo\n" +
		"content-type: application/json\n" +
		"req-id: 12345\n" +
		"client-version: 1.2.5\n" +
		"foo: hello foo\n" +
		"\n" +
		`{"message":"hello world"}`
	heartbeatFrame = "ARRIRPC/0.0.8 HEARTBEAT\n" +
		"heartbeat-interval: 155\n" +
		"\n"
)

func makeTests() []test {
	return []test{
		{
			"simple",
			[]byte("133\n" + invocationFrame + "\n" +
				"49\n" + heartbeatFrame + "\n"),
			[][]byte{
				[]byte(invocationFrame),
				[]byte(heartbeatFrame),
			},
		},
		{
			"empty frame",
			[]byte("0\n\n" + "49\n" + heartbeatFrame + "\n"),
			[][]byte{
				{},
				[]byte(heartbeatFrame),
			},
		},
	}
}

func TestReader(t *testing.T) {
	t.Parallel()

	runTest := func(tc test, opts ...ReaderOption) {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			a := assert.New(t)

			r := NewReader(bytes.NewReader(tc.bytes), opts...)
			var i int
			for {
				d, err := r.ReadNext(nil)
				if errors.Is(err, io.EOF) {
					break
				}
				require.NoError(t, err)

				var expected string
				if i < len(tc.data) {
					expected = string(tc.data[i])
				}
				a.Equal(expected, string(d), fmt.Sprintf("read %d frame", i))
				i++
			}
			a.Equal(len(tc.data), i)
		})
	}

	for _, tc := range makeTests() {
		runTest(tc)
	}

	runTest(test{
		"without last \\n",
		[]byte("49\n" + heartbeatFrame + "\n" + "133\n" + invocationFrame),
		[][]byte{
			[]byte(heartbeatFrame),
			[]byte(invocationFrame),
		},
	})

	tiny := makeTests()[0]
	tiny.name = "tiny buffer"
	runTest(tiny, WithBufferSize(3))
}

func TestReaderReusesBuffer(t *testing.T) {
	t.Parallel()

	r := NewReader(bytes.NewReader([]byte("3\nabc\n2\nde\n")))
	buf := make([]byte, 0, 16)

	d, err := r.ReadNext(buf)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(d))
	assert.Same(t, &buf[:1][0], &d[0])

	d, err = r.ReadNext(d[:0])
	require.NoError(t, err)
	assert.Equal(t, "de", string(d))

	_, err = r.ReadNext(d[:0])
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		bytes string
		opts  []ReaderOption
		err   error
	}{
		{"not a number", "abc\nabc\n", nil, ErrBadLength},
		{"empty length", "\nabc\n", nil, ErrBadLength},
		{"truncated frame", "10\nabc", nil, io.ErrUnexpectedEOF},
		{"truncated length", "10", nil, io.ErrUnexpectedEOF},
		{"too large", "100\n" + string(bytes.Repeat([]byte{'a'}, 100)) + "\n", []ReaderOption{WithMaxFrameSize(10)}, ErrFrameTooLarge},
	}

	for _, tc := range tests {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := NewReader(bytes.NewReader([]byte(tc.bytes)), tc.opts...)
			_, err := r.ReadNext(nil)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestWriter(t *testing.T) {
	t.Parallel()
	for _, tc := range makeTests() {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			a := assert.New(t)
			bb := new(bytes.Buffer)
			w := NewWriter(bb)
			for _, d := range tc.data {
				a.NoError(w.WriteNext(d))
			}
			a.Equal(string(tc.bytes), bb.String())
		})
	}
}

func TestWriterDoesNotTouchInput(t *testing.T) {
	t.Parallel()

	backing := []byte("abcX")
	w := NewWriter(io.Discard)
	require.NoError(t, w.WriteNext(backing[:3]))
	assert.Equal(t, "abcX", string(backing))
}
