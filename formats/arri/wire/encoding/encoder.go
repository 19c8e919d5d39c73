package encoding

import (
	"sort"
	"strconv"

	"golang.org/x/net/http/httpguts"

	"github.com/ozontech/arriwire/consts"
	"github.com/ozontech/arriwire/formats/model"
)

type EncoderOption func(*Encoder)

// WithProtocolVersion sets the version written to every status line.
func WithProtocolVersion(version string) EncoderOption {
	return func(e *Encoder) {
		e.statusPrefix = consts.ProtocolTag + "/" + version + " "
	}
}

// Encoder writes messages as ARRIRPC frames. It holds no mutable state and
// is safe for concurrent use.
type Encoder struct {
	statusPrefix string
}

func NewEncoder(opts ...EncoderOption) *Encoder {
	e := &Encoder{statusPrefix: consts.ProtocolTag + "/" + consts.ProtocolVersion + " "}
	for _, o := range opts {
		o(e)
	}
	return e
}

var defaultEncoder = NewEncoder()

// Encode returns the frame for m using the default protocol version.
func Encode(m model.Message) ([]byte, error) {
	return defaultEncoder.MarshalAppend(nil, m)
}

// CheckRPCName reports whether name can be written as an invocation selector
// and read back as the same name.
func CheckRPCName(name string) error {
	if isKeyword(name) {
		return &InvalidFieldError{Kind: model.KindInvocation, Field: "rpc-name", Reason: "must not be empty or a message keyword"}
	}
	for i := 0; i < len(name); i++ {
		if c := name[i]; c <= ' ' || c == 0x7f {
			return &InvalidFieldError{Kind: model.KindInvocation, Field: "rpc-name", Reason: "contains a space or control character"}
		}
	}
	return nil
}

// MarshalAppend appends the frame for m to b. Unknown and nil messages encode
// to nothing. A message holding a value that would not decode back as itself
// fails with ErrInvalidMessage, and b is returned unchanged.
func (e *Encoder) MarshalAppend(b []byte, m model.Message) ([]byte, error) {
	if m == nil {
		return b, nil
	}
	f := frame{kind: m.Kind(), b: b}
	switch m := m.(type) {
	case model.Invocation:
		if err := CheckRPCName(m.RPCName); err != nil {
			return b, err
		}
		e.status(&f, m.RPCName)
		f.contentType(m.ContentType)
		f.reqID(m.ReqID)
		f.optional(consts.HeaderClientVersion, m.ClientVersion)
		f.custom(m.CustomHeaders)
		f.body(m.Body)
	case model.Ok:
		e.status(&f, model.KindOk.String())
		f.contentType(m.ContentType)
		f.reqID(m.ReqID)
		f.custom(m.CustomHeaders)
		f.body(m.Body)
	case model.Error:
		e.status(&f, model.KindError.String())
		f.contentType(m.ContentType)
		f.reqID(m.ReqID)
		f.number(consts.HeaderErrorCode, m.Code)
		f.header(consts.HeaderErrorMessage, m.Message)
		f.custom(m.CustomHeaders)
		f.body(m.Body)
	case model.Heartbeat:
		e.status(&f, model.KindHeartbeat.String())
		f.interval(m.HeartbeatInterval)
		f.body(nil)
	case model.ConnectionStart:
		e.status(&f, model.KindConnectionStart.String())
		f.interval(m.HeartbeatInterval)
		f.body(nil)
	case model.StreamData:
		e.status(&f, model.KindStreamData.String())
		f.reqID(m.ReqID)
		f.optional(consts.HeaderMsgID, m.MsgID)
		f.body(m.Body)
	case model.StreamEnd:
		e.status(&f, model.KindStreamEnd.String())
		f.reqID(m.ReqID)
		f.optional(consts.HeaderReason, m.Reason)
		f.body(nil)
	case model.StreamCancel:
		e.status(&f, model.KindStreamCancel.String())
		f.reqID(m.ReqID)
		f.optional(consts.HeaderReason, m.Reason)
		f.body(nil)
	default:
		return b, nil
	}
	if f.err != nil {
		return b, f.err
	}
	return f.b, nil
}

func (e *Encoder) status(f *frame, selector string) {
	f.b = append(f.b, e.statusPrefix...)
	f.b = append(f.b, selector...)
	f.b = append(f.b, '\n')
}

// frame accumulates one encoded message. After the first invalid field every
// method is a no-op and err holds the reason.
type frame struct {
	kind model.Kind
	b    []byte
	err  error
}

func (f *frame) fail(field, reason string) {
	f.err = &InvalidFieldError{Kind: f.kind, Field: field, Reason: reason}
}

func (f *frame) header(name, value string) {
	if f.err != nil {
		return
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		f.fail(name, "contains a line break or control character")
		return
	}
	f.b = append(f.b, name...)
	f.b = append(f.b, ": "...)
	f.b = append(f.b, value...)
	f.b = append(f.b, '\n')
}

func (f *frame) optional(name, value string) {
	if value != "" {
		f.header(name, value)
	}
}

// reqID is required by every variant that carries it; an empty value reads
// back as a missing header.
func (f *frame) reqID(id string) {
	if f.err == nil && id == "" {
		f.fail(consts.HeaderReqID, "is empty")
		return
	}
	f.header(consts.HeaderReqID, id)
}

func (f *frame) contentType(ct model.ContentType) {
	f.optional(consts.HeaderContentType, ct.SerialValue())
}

func (f *frame) number(name string, v uint32) {
	if f.err != nil {
		return
	}
	f.b = append(f.b, name...)
	f.b = append(f.b, ": "...)
	f.b = strconv.AppendUint(f.b, uint64(v), 10)
	f.b = append(f.b, '\n')
}

func (f *frame) interval(interval *uint32) {
	if interval != nil {
		f.number(consts.HeaderHeartbeatInterval, *interval)
	}
}

// custom writes custom headers in ascending key order. Keys the variant
// reserves for its own fields are skipped, otherwise the frame would not decode.
func (f *frame) custom(headers map[string]string) {
	if f.err != nil || len(headers) == 0 {
		return
	}
	schema := headersOf(f.kind)
	keys := make([]string, 0, len(headers))
	for k := range headers {
		if schema.isKnown(k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !httpguts.ValidHeaderFieldName(k) {
			f.fail(k, "is not a valid header name")
			return
		}
		f.header(k, headers[k])
	}
}

func (f *frame) body(body []byte) {
	if f.err != nil {
		return
	}
	f.b = append(f.b, '\n')
	f.b = append(f.b, body...)
}

var _ model.Marshaler = &Encoder{}
