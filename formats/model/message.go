package model

import "fmt"

// Kind discriminates the message variants.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindInvocation
	KindOk
	KindError
	KindHeartbeat
	KindConnectionStart
	KindStreamData
	KindStreamEnd
	KindStreamCancel
)

var kindNames = [...]string{
	KindUnknown:         "UNKNOWN",
	KindInvocation:      "INVOCATION",
	KindOk:              "OK",
	KindError:           "ERROR",
	KindHeartbeat:       "HEARTBEAT",
	KindConnectionStart: "CONNECTION_START",
	KindStreamData:      "STREAM_DATA",
	KindStreamEnd:       "STREAM_END",
	KindStreamCancel:    "STREAM_CANCEL",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}
	return KindUnknown, false
}

// Message is one protocol frame. The set of implementations is closed:
// only the variant types declared in this package satisfy it.
type Message interface {
	Kind() Kind
	isMessage()
}

// Unknown is the sentinel for a frame that could not be interpreted.
type Unknown struct{}

// Invocation is a client calling an RPC.
type Invocation struct {
	ReqID         string
	RPCName       string
	ContentType   ContentType
	ClientVersion string
	CustomHeaders map[string]string
	// HTTPMethod and Path describe how the invocation was routed.
	// They are not part of the wire frame.
	HTTPMethod HTTPMethod
	Path       string
	Body       []byte
}

// Ok is a successful RPC reply.
type Ok struct {
	ReqID         string
	ContentType   ContentType
	CustomHeaders map[string]string
	Body          []byte
}

// Error is a failed RPC reply.
type Error struct {
	ReqID         string
	Code          uint32
	Message       string
	ContentType   ContentType
	CustomHeaders map[string]string
	Body          []byte
}

// Heartbeat keeps an idle connection alive.
type Heartbeat struct {
	HeartbeatInterval *uint32
}

// ConnectionStart is the handshake sent when a connection is established.
type ConnectionStart struct {
	HeartbeatInterval *uint32
}

// StreamData carries one chunk of a streamed response.
type StreamData struct {
	ReqID string
	MsgID string
	Body  []byte
}

// StreamEnd terminates a stream normally.
type StreamEnd struct {
	ReqID  string
	Reason string
}

// StreamCancel terminates a stream on the client's request.
type StreamCancel struct {
	ReqID  string
	Reason string
}

func (Unknown) Kind() Kind         { return KindUnknown }
func (Invocation) Kind() Kind      { return KindInvocation }
func (Ok) Kind() Kind              { return KindOk }
func (Error) Kind() Kind           { return KindError }
func (Heartbeat) Kind() Kind       { return KindHeartbeat }
func (ConnectionStart) Kind() Kind { return KindConnectionStart }
func (StreamData) Kind() Kind      { return KindStreamData }
func (StreamEnd) Kind() Kind       { return KindStreamEnd }
func (StreamCancel) Kind() Kind    { return KindStreamCancel }

func (Unknown) isMessage()         {}
func (Invocation) isMessage()      {}
func (Ok) isMessage()              {}
func (Error) isMessage()           {}
func (Heartbeat) isMessage()       {}
func (ConnectionStart) isMessage() {}
func (StreamData) isMessage()      {}
func (StreamEnd) isMessage()       {}
func (StreamCancel) isMessage()    {}

// ReqIDOf returns the correlation id of request and stream scoped messages.
// Connection level messages have none.
func ReqIDOf(m Message) (string, bool) {
	switch m := m.(type) {
	case Invocation:
		return m.ReqID, true
	case Ok:
		return m.ReqID, true
	case Error:
		return m.ReqID, true
	case StreamData:
		return m.ReqID, true
	case StreamEnd:
		return m.ReqID, true
	case StreamCancel:
		return m.ReqID, true
	}
	return "", false
}

// BodyOf returns the body of the variants that carry one.
func BodyOf(m Message) []byte {
	switch m := m.(type) {
	case Invocation:
		return m.Body
	case Ok:
		return m.Body
	case Error:
		return m.Body
	case StreamData:
		return m.Body
	}
	return nil
}

// Interval returns a pointer to ms, for the optional heartbeat interval fields.
func Interval(ms uint32) *uint32 {
	return &ms
}

// Visitor dispatches on the message variant. Visit calls exactly one method.
type Visitor interface {
	Unknown(Unknown) error
	Invocation(Invocation) error
	Ok(Ok) error
	Error(Error) error
	Heartbeat(Heartbeat) error
	ConnectionStart(ConnectionStart) error
	StreamData(StreamData) error
	StreamEnd(StreamEnd) error
	StreamCancel(StreamCancel) error
}

func Visit(m Message, v Visitor) error {
	switch m := m.(type) {
	case Invocation:
		return v.Invocation(m)
	case Ok:
		return v.Ok(m)
	case Error:
		return v.Error(m)
	case Heartbeat:
		return v.Heartbeat(m)
	case ConnectionStart:
		return v.ConnectionStart(m)
	case StreamData:
		return v.StreamData(m)
	case StreamEnd:
		return v.StreamEnd(m)
	case StreamCancel:
		return v.StreamCancel(m)
	case Unknown:
		return v.Unknown(m)
	}
	return v.Unknown(Unknown{})
}
