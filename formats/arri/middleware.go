package arri

import (
	"github.com/ozontech/arriwire/formats/model"
)

// MiddlewareFunc rewrites messages on their way to an encoder. It must not
// modify maps or slices of the message it receives; return a changed copy.
type MiddlewareFunc func(model.Message) model.Message

// WrapEncoder applies mw in order before every MarshalAppend call of enc.
func WrapEncoder(enc model.Marshaler, mw ...MiddlewareFunc) model.Marshaler {
	if len(mw) == 0 {
		return enc
	}
	return &middlewareEncoder{
		enc: enc,
		mws: mw,
	}
}

type middlewareEncoder struct {
	enc model.Marshaler
	mws []MiddlewareFunc
}

func (e *middlewareEncoder) MarshalAppend(b []byte, m model.Message) ([]byte, error) {
	for _, mw := range e.mws {
		m = mw(m)
	}
	return e.enc.MarshalAppend(b, m)
}

// StripBody drops the body of every variant that carries one.
func StripBody(m model.Message) model.Message {
	switch m := m.(type) {
	case model.Invocation:
		m.Body = nil
		return m
	case model.Ok:
		m.Body = nil
		return m
	case model.Error:
		m.Body = nil
		return m
	case model.StreamData:
		m.Body = nil
		return m
	}
	return m
}

// SetCustomHeader sets a custom header on invocations, ok and error
// messages, replacing any existing value. Other variants pass through.
func SetCustomHeader(name, value string) MiddlewareFunc {
	set := func(headers map[string]string) map[string]string {
		out := make(map[string]string, len(headers)+1)
		for k, v := range headers {
			out[k] = v
		}
		out[name] = value
		return out
	}

	return func(m model.Message) model.Message {
		switch m := m.(type) {
		case model.Invocation:
			m.CustomHeaders = set(m.CustomHeaders)
			return m
		case model.Ok:
			m.CustomHeaders = set(m.CustomHeaders)
			return m
		case model.Error:
			m.CustomHeaders = set(m.CustomHeaders)
			return m
		}
		return m
	}
}
