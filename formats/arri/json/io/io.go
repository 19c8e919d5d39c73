// Package io reads and writes newline separated records.
package io

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ozontech/arriwire/consts"
)

var ErrLineTooLong = errors.New("json lines: line too long")

type Reader struct {
	buf         []byte
	unprocessed []byte
	maxLineSize int

	r io.Reader
}

// NewReader returns a reader that rejects lines longer than maxLineSize bytes.
// Zero disables the limit.
func NewReader(r io.Reader, maxLineSize int) *Reader {
	return &Reader{
		buf:         make([]byte, consts.ReadBufferSize),
		maxLineSize: maxLineSize,
		r:           r,
	}
}

func (r *Reader) fillUnprocessed() error {
	n, err := r.r.Read(r.buf)
	if err != nil {
		return err
	}
	r.unprocessed = r.buf[:n]
	return nil
}

// ReadNext appends the next non-empty line to p[:0]. A final line without
// a trailing newline is returned as is.
func (r *Reader) ReadNext(p []byte) ([]byte, error) {
	p = p[:0]
	for {
		if len(r.unprocessed) == 0 {
			err := r.fillUnprocessed()
			if err == io.EOF && len(bytes.TrimSpace(p)) > 0 {
				return p, nil
			}
			if err != nil {
				return p, err
			}
		}

		index := bytes.IndexByte(r.unprocessed, '\n')
		if index == -1 {
			p = append(p, r.unprocessed...)
			r.unprocessed = nil
		} else {
			p = append(p, r.unprocessed[:index]...)
			r.unprocessed = r.unprocessed[index+1:]
		}
		if r.maxLineSize > 0 && len(p) > r.maxLineSize {
			return p, fmt.Errorf("%w: over %d bytes", ErrLineTooLong, r.maxLineSize)
		}
		if index != -1 {
			if len(bytes.TrimSpace(p)) == 0 {
				p = p[:0]
				continue
			}
			return p, nil
		}
	}
}

type Writer struct {
	w io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) WriteNext(p []byte) error {
	if _, err := w.w.Write(p); err != nil {
		return err
	}
	_, err := w.w.Write([]byte{'\n'})
	return err
}
