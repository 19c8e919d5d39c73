package encoding

import (
	"fmt"

	"github.com/mailru/easyjson/jwriter"

	jsonkv "github.com/ozontech/arriwire/formats/internal/kv/json"
	"github.com/ozontech/arriwire/formats/model"
)

// Encoder writes one JSON object per message. Only fields the variant carries
// are written and absent optional fields are omitted.
type Encoder struct {
	headers jsonkv.SingleVal
}

func NewEncoder() *Encoder {
	return &Encoder{jsonkv.NewSingleVal()}
}

func (e *Encoder) MarshalAppend(b []byte, m model.Message) ([]byte, error) {
	w := &jwriter.Writer{NoEscapeHTML: true}
	o := object{w: w}
	w.RawByte('{')

	switch m := m.(type) {
	case model.Invocation:
		o.str(keyKind, model.KindInvocation.String())
		o.str(keyReqID, m.ReqID)
		o.str(keyRPCName, m.RPCName)
		o.optStr(keyContentType, m.ContentType.SerialValue())
		o.optStr(keyClientVersion, m.ClientVersion)
		o.optStr(keyHTTPMethod, m.HTTPMethod.String())
		o.optStr(keyPath, m.Path)
		e.appendHeaders(&o, m.CustomHeaders)
		o.body(m.Body)
	case model.Ok:
		o.str(keyKind, model.KindOk.String())
		o.str(keyReqID, m.ReqID)
		o.optStr(keyContentType, m.ContentType.SerialValue())
		e.appendHeaders(&o, m.CustomHeaders)
		o.body(m.Body)
	case model.Error:
		o.str(keyKind, model.KindError.String())
		o.str(keyReqID, m.ReqID)
		o.optStr(keyContentType, m.ContentType.SerialValue())
		o.key(keyCode)
		w.Uint32(m.Code)
		o.str(keyMessage, m.Message)
		e.appendHeaders(&o, m.CustomHeaders)
		o.body(m.Body)
	case model.Heartbeat:
		o.str(keyKind, model.KindHeartbeat.String())
		o.interval(m.HeartbeatInterval)
	case model.ConnectionStart:
		o.str(keyKind, model.KindConnectionStart.String())
		o.interval(m.HeartbeatInterval)
	case model.StreamData:
		o.str(keyKind, model.KindStreamData.String())
		o.str(keyReqID, m.ReqID)
		o.optStr(keyMsgID, m.MsgID)
		o.body(m.Body)
	case model.StreamEnd:
		o.str(keyKind, model.KindStreamEnd.String())
		o.str(keyReqID, m.ReqID)
		o.optStr(keyReason, m.Reason)
	case model.StreamCancel:
		o.str(keyKind, model.KindStreamCancel.String())
		o.str(keyReqID, m.ReqID)
		o.optStr(keyReason, m.Reason)
	default:
		return b, fmt.Errorf("%w: %T", ErrUnsupportedMessage, m)
	}

	w.RawByte('}')
	out, err := w.BuildBytes()
	if err != nil {
		return b, err
	}
	return append(b, out...), nil
}

func (e *Encoder) appendHeaders(o *object, headers map[string]string) {
	if len(headers) == 0 {
		return
	}
	o.key(keyHeaders)
	e.headers.MarshalTo(o.w, headers)
}

type object struct {
	w      *jwriter.Writer
	fields int
}

func (o *object) key(k string) {
	if o.fields > 0 {
		o.w.RawByte(',')
	}
	o.fields++
	o.w.RawByte('"')
	o.w.RawString(k)
	o.w.RawString(`":`)
}

func (o *object) str(k, v string) {
	o.key(k)
	o.w.String(v)
}

func (o *object) optStr(k, v string) {
	if v != "" {
		o.str(k, v)
	}
}

func (o *object) interval(v *uint32) {
	if v != nil {
		o.key(keyHeartbeatInterval)
		o.w.Uint32(*v)
	}
}

func (o *object) body(b []byte) {
	if b != nil {
		o.key(keyBody)
		o.w.Base64Bytes(b)
	}
}

var _ model.Marshaler = &Encoder{}
