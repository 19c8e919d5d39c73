// Package jsonkv writes and reads custom header maps as flat JSON objects.
package jsonkv

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"
)

var ErrDuplicateKey = errors.New("duplicate header key")

type SingleVal struct {
	opts *options
}

func NewSingleVal(optFns ...Option) SingleVal {
	return SingleVal{applyOptions(optFns...)}
}

// MarshalTo writes headers as an object with keys in ascending order.
func (SingleVal) MarshalTo(w *jwriter.Writer, headers map[string]string) {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w.RawByte('{')
	for i, k := range keys {
		if i > 0 {
			w.RawByte(',')
		}
		w.String(k)
		w.RawByte(':')
		w.String(headers[k])
	}
	w.RawByte('}')
}

func (s SingleVal) MarshalAppend(b []byte, headers map[string]string) []byte {
	w := jwriter.Writer{NoEscapeHTML: true}
	s.MarshalTo(&w, headers)
	out, _ := w.BuildBytes()
	return append(b, out...)
}

// UnmarshalFrom reads an object of string values. null and {} yield a nil
// map. Keys rejected by the filter are dropped.
func (s SingleVal) UnmarshalFrom(in *jlexer.Lexer) map[string]string {
	if in.IsNull() {
		in.Skip()
		return nil
	}

	var headers map[string]string
	in.Delim('{')
	for !in.IsDelim('}') {
		k := in.String()
		in.WantColon()
		v := in.String()

		if s.opts.filter(k) {
			if _, dup := headers[k]; dup {
				in.AddError(fmt.Errorf("%w: %q", ErrDuplicateKey, k))
				break
			}
			if headers == nil {
				headers = make(map[string]string)
			}
			headers[k] = v
		}

		in.WantComma()
	}
	in.Delim('}')
	return headers
}

func (s SingleVal) Unmarshal(b []byte) (map[string]string, error) {
	in := jlexer.Lexer{Data: b}
	headers := s.UnmarshalFrom(&in)
	in.Consumed()
	if err := in.Error(); err != nil {
		return nil, err
	}
	return headers, nil
}

type options struct {
	filter func(k string) (allowed bool)
}

func applyOptions(optFns ...Option) *options {
	opts := &options{
		filter: func(k string) (allowed bool) { return true },
	}

	for _, o := range optFns {
		o(opts)
	}

	return opts
}

type Option func(*options)

func WithFilter(filter func(k string) (allowed bool)) Option {
	return func(o *options) { o.filter = filter }
}
