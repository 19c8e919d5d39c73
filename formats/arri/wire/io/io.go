// Package io reads and writes frame archives: every frame is stored as its
// decimal byte length, a newline, the frame itself and one more newline.
package io

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/ozontech/arriwire/consts"
)

const nChar = '\n'

var (
	ErrBadLength     = errors.New("frame archive: bad length prefix")
	ErrFrameTooLarge = errors.New("frame archive: frame too large")
)

type ReaderOption func(*Reader)

func WithBufferSize(size int) ReaderOption {
	return func(r *Reader) {
		if size > 0 {
			r.buf = make([]byte, size)
		}
	}
}

// WithMaxFrameSize limits the length prefix the reader accepts. Zero disables the limit.
func WithMaxFrameSize(n int) ReaderOption {
	return func(r *Reader) { r.maxFrameSize = n }
}

type Reader struct {
	buf          []byte
	unprocessed  []byte
	maxFrameSize int
	frames       int

	r io.Reader
}

func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	reader := &Reader{
		buf:          make([]byte, consts.ReadBufferSize),
		maxFrameSize: consts.DefaultMaxFrameSize,
		r:            r,
	}
	for _, o := range opts {
		o(reader)
	}
	return reader
}

func (r *Reader) fillUnprocessed() error {
	n, err := r.r.Read(r.buf)
	if err != nil {
		return err
	}
	r.unprocessed = r.buf[:n]
	return nil
}

// ReadNext reads the next frame into b, growing it when needed. It returns
// io.EOF once the archive is exhausted between frames and
// io.ErrUnexpectedEOF when it ends inside one.
func (r *Reader) ReadNext(b []byte) ([]byte, error) {
	var (
		size   int
		n      int
		digits int
		err    error
	)

	for {
		size, n, err = parseLength(size, r.unprocessed)
		digits += n
		r.unprocessed = r.unprocessed[n:]
		if err == nil {
			digits--
			break
		}
		if err != io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("frame %d: %w", r.frames, err)
		}
		if r.maxFrameSize > 0 && size > r.maxFrameSize {
			return nil, fmt.Errorf("frame %d: %w: %d bytes, limit %d", r.frames, ErrFrameTooLarge, size, r.maxFrameSize)
		}

		err = r.fillUnprocessed()
		if err == io.EOF && digits > 0 {
			return nil, io.ErrUnexpectedEOF
		}
		if err != nil {
			return nil, err
		}
	}
	if digits == 0 {
		return nil, fmt.Errorf("frame %d: %w: empty", r.frames, ErrBadLength)
	}
	if r.maxFrameSize > 0 && size > r.maxFrameSize {
		return nil, fmt.Errorf("frame %d: %w: %d bytes, limit %d", r.frames, ErrFrameTooLarge, size, r.maxFrameSize)
	}

	if cap(b) < size {
		b = make([]byte, size)
	} else {
		b = b[:size]
	}
	var filled int
	for filled < size {
		if len(r.unprocessed) == 0 {
			err = r.fillUnprocessed()
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			if err != nil {
				return nil, err
			}
		}

		n = copy(b[filled:], r.unprocessed)
		filled += n
		r.unprocessed = r.unprocessed[n:]
	}

	// skip separators up to the next length prefix
	for {
		if len(r.unprocessed) == 0 {
			err = r.fillUnprocessed()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, err
			}
			continue
		}
		if r.unprocessed[0] != nChar {
			break
		}
		r.unprocessed = r.unprocessed[1:]
	}

	r.frames++
	return b, nil
}

func parseLength(accIn int, in []byte) (acc int, consumed int, err error) {
	for i, b := range in {
		switch {
		case '0' <= b && b <= '9':
			accIn = accIn*10 + int(b-'0')
			if accIn < 0 {
				return accIn, i + 1, fmt.Errorf("%w: overflow", ErrBadLength)
			}
		case b == nChar:
			return accIn, i + 1, nil
		default:
			return accIn, i + 1, fmt.Errorf("%w: unexpected char %q", ErrBadLength, b)
		}
	}
	return accIn, len(in), io.ErrUnexpectedEOF
}

type Writer struct {
	w         io.Writer
	prefixBuf []byte
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) WriteNext(p []byte) error {
	w.prefixBuf = strconv.AppendUint(w.prefixBuf[:0], uint64(len(p)), 10)
	w.prefixBuf = append(w.prefixBuf, nChar)
	if _, err := w.w.Write(w.prefixBuf); err != nil {
		return err
	}
	if _, err := w.w.Write(p); err != nil {
		return err
	}
	_, err := w.w.Write([]byte{nChar})
	return err
}
