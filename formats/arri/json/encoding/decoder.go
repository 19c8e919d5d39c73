package encoding

import (
	"fmt"

	"github.com/mailru/easyjson/jlexer"

	jsonkv "github.com/ozontech/arriwire/formats/internal/kv/json"
	"github.com/ozontech/arriwire/formats/model"
)

type Decoder struct {
	headers jsonkv.SingleVal
}

func NewDecoder() *Decoder {
	return &Decoder{jsonkv.NewSingleVal()}
}

type fields struct {
	present map[string]bool

	kind          string
	reqID         string
	rpcName       string
	contentType   string
	clientVersion string
	httpMethod    string
	path          string
	code          uint32
	message       string
	interval      uint32
	msgID         string
	reason        string
	headers       map[string]string
	body          []byte
}

// Unmarshal parses one JSON object produced by Encoder.
func (d *Decoder) Unmarshal(b []byte) (model.Message, error) {
	f := fields{present: make(map[string]bool)}

	in := jlexer.Lexer{Data: b}
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		if f.present[key] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateField, key)
		}
		f.present[key] = true

		switch key {
		case keyKind:
			f.kind = in.String()
		case keyReqID:
			f.reqID = in.String()
		case keyRPCName:
			f.rpcName = in.String()
		case keyContentType:
			f.contentType = in.String()
		case keyClientVersion:
			f.clientVersion = in.String()
		case keyHTTPMethod:
			f.httpMethod = in.String()
		case keyPath:
			f.path = in.String()
		case keyCode:
			f.code = in.Uint32()
		case keyMessage:
			f.message = in.String()
		case keyHeartbeatInterval:
			f.interval = in.Uint32()
		case keyMsgID:
			f.msgID = in.String()
		case keyReason:
			f.reason = in.String()
		case keyHeaders:
			f.headers = d.headers.UnmarshalFrom(&in)
		case keyBody:
			f.body = in.Bytes()
			if len(f.body) == 0 {
				f.body = []byte{}
			}
		default:
			in.SkipRecursive()
			if in.Ok() {
				return nil, fmt.Errorf("%w: %q", ErrUnknownField, key)
			}
		}
		in.WantComma()
	}
	in.Delim('}')
	in.Consumed()
	if err := in.Error(); err != nil {
		return nil, err
	}

	return f.build()
}

func (f *fields) build() (model.Message, error) {
	if !f.present[keyKind] {
		return nil, fmt.Errorf("%w: %q", ErrMissingField, keyKind)
	}
	kind, ok := model.ParseKind(f.kind)
	if !ok || kind == model.KindUnknown {
		return nil, fmt.Errorf("%w: %q", ErrBadKind, f.kind)
	}

	allowed := fieldsOf[kind]
	for key := range f.present {
		if key != keyKind && !allowed[key] {
			return nil, fmt.Errorf("%w: %q in %s", ErrUnknownField, key, kind)
		}
	}
	for _, key := range requiredOf[kind] {
		if !f.present[key] {
			return nil, fmt.Errorf("%w: %q in %s", ErrMissingField, key, kind)
		}
	}

	var (
		ct  model.ContentType
		err error
	)
	if f.contentType != "" {
		if ct, err = model.ParseContentType(f.contentType); err != nil {
			return nil, err
		}
	}

	switch kind {
	case model.KindInvocation:
		var method model.HTTPMethod
		if f.httpMethod != "" {
			if method, err = model.ParseHTTPMethod(f.httpMethod); err != nil {
				return nil, err
			}
		}
		return model.Invocation{
			ReqID:         f.reqID,
			RPCName:       f.rpcName,
			ContentType:   ct,
			ClientVersion: f.clientVersion,
			CustomHeaders: f.headers,
			HTTPMethod:    method,
			Path:          f.path,
			Body:          f.body,
		}, nil
	case model.KindOk:
		return model.Ok{ReqID: f.reqID, ContentType: ct, CustomHeaders: f.headers, Body: f.body}, nil
	case model.KindError:
		return model.Error{
			ReqID:         f.reqID,
			Code:          f.code,
			Message:       f.message,
			ContentType:   ct,
			CustomHeaders: f.headers,
			Body:          f.body,
		}, nil
	case model.KindHeartbeat:
		return model.Heartbeat{HeartbeatInterval: f.heartbeatInterval()}, nil
	case model.KindConnectionStart:
		return model.ConnectionStart{HeartbeatInterval: f.heartbeatInterval()}, nil
	case model.KindStreamData:
		return model.StreamData{ReqID: f.reqID, MsgID: f.msgID, Body: f.body}, nil
	case model.KindStreamEnd:
		return model.StreamEnd{ReqID: f.reqID, Reason: f.reason}, nil
	case model.KindStreamCancel:
		return model.StreamCancel{ReqID: f.reqID, Reason: f.reason}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrBadKind, f.kind)
}

func (f *fields) heartbeatInterval() *uint32 {
	if !f.present[keyHeartbeatInterval] {
		return nil
	}
	return model.Interval(f.interval)
}

var _ model.Unmarshaler = &Decoder{}
