package encoding

import (
	"bytes"
	"fmt"
	"strconv"

	"golang.org/x/net/http/httpguts"

	"github.com/ozontech/arriwire/consts"
	"github.com/ozontech/arriwire/formats/model"
	"github.com/ozontech/arriwire/utils/lru"
)

var (
	headerTerminator = []byte("\n\n")
	headerSeparator  = []byte(": ")
	protocolPrefix   = []byte(consts.ProtocolTag + "/")
)

type DecoderOption func(*Decoder)

// WithMaxFrameSize rejects frames longer than n bytes. Zero disables the limit.
func WithMaxFrameSize(n int) DecoderOption {
	return func(d *Decoder) { d.maxFrameSize = n }
}

// WithInternCache interns rpc names and custom header names through an LRU of
// the given size.
func WithInternCache(size int) DecoderOption {
	return func(d *Decoder) {
		if size > 0 {
			d.names = lru.New(size)
		}
	}
}

// WithStrictVersion makes the decoder reject status lines whose protocol
// version differs from version. By default any version is accepted.
func WithStrictVersion(version string) DecoderOption {
	return func(d *Decoder) { d.version = []byte(version) }
}

// Decoder parses ARRIRPC frames. It is safe for concurrent use.
type Decoder struct {
	maxFrameSize int
	version      []byte
	names        *lru.LRU
}

func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{maxFrameSize: consts.DefaultMaxFrameSize}
	for _, o := range opts {
		o(d)
	}
	return d
}

var defaultDecoder = NewDecoder()

// Decode parses one complete frame with the default options.
func Decode(b []byte) (model.Message, error) {
	return defaultDecoder.Unmarshal(b)
}

// InternStats reports the name cache usage, zero when interning is disabled.
func (d *Decoder) InternStats() lru.Stats {
	if d.names == nil {
		return lru.Stats{}
	}
	return d.names.Stats()
}

// Unmarshal parses one complete frame. The result never references b.
func (d *Decoder) Unmarshal(b []byte) (model.Message, error) {
	if d.maxFrameSize > 0 && len(b) > d.maxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrFrameTooLarge, len(b), d.maxFrameSize)
	}

	end := bytes.Index(b, headerTerminator)
	if end == -1 {
		return nil, fmt.Errorf("%w: no blank line after headers", ErrMalformedFrame)
	}
	head, body := b[:end], b[end+len(headerTerminator):]

	statusLine, head := nextLine(head)
	kind, rpcName, err := d.parseStatus(statusLine)
	if err != nil {
		return nil, err
	}

	h, err := d.parseHeaders(kind, head)
	if err != nil {
		return nil, err
	}

	return h.build(kind, rpcName, cloneBody(body))
}

func (d *Decoder) parseStatus(line []byte) (model.Kind, string, error) {
	tag, selector, ok := bytes.Cut(line, []byte{' '})
	if !ok || len(tag) == 0 || len(selector) == 0 || bytes.IndexByte(selector, ' ') != -1 {
		return model.KindUnknown, "", fmt.Errorf("%w: bad status line %q", ErrMalformedFrame, line)
	}

	version, ok := bytes.CutPrefix(tag, protocolPrefix)
	if !ok || len(version) == 0 {
		return model.KindUnknown, "", fmt.Errorf("%w: protocol tag %q", ErrUnrecognizedMessageKind, tag)
	}
	if d.version != nil && !bytes.Equal(version, d.version) {
		return model.KindUnknown, "", fmt.Errorf(
			"%w: protocol version %q, want %q", ErrUnrecognizedMessageKind, version, d.version,
		)
	}

	if !isKeyword(selector) {
		return model.KindInvocation, d.intern(selector), nil
	}
	kind, ok := model.ParseKind(string(selector))
	if !ok || kind == model.KindInvocation || kind == model.KindUnknown {
		return model.KindUnknown, "", fmt.Errorf("%w: %q", ErrUnrecognizedMessageKind, selector)
	}
	return kind, "", nil
}

// isKeyword reports whether s looks like a message keyword rather than an rpc
// name. The empty selector counts as a keyword.
func isKeyword[T string | []byte](s T) bool {
	for i := 0; i < len(s); i++ {
		if c := s[i]; (c < 'A' || c > 'Z') && c != '_' {
			return false
		}
	}
	return true
}

type headerValue struct {
	value string
	line  int
}

type parsedHeaders struct {
	known  map[string]headerValue
	custom map[string]string
}

func (d *Decoder) parseHeaders(kind model.Kind, head []byte) (*parsedHeaders, error) {
	schema := headersOf(kind)
	h := &parsedHeaders{known: make(map[string]headerValue, len(schema.known))}
	seen := make(map[string]struct{})

	// line 1 is the status line
	for lineNo := 2; len(head) > 0; lineNo++ {
		var line []byte
		line, head = nextLine(head)

		nameB, valueB, ok := bytes.Cut(line, headerSeparator)
		if !ok {
			return nil, &HeaderError{
				Line: lineNo,
				Err:  fmt.Errorf("%w: no %q separator in %q", ErrMalformedHeader, headerSeparator, line),
			}
		}
		if !validName(nameB) {
			return nil, &HeaderError{Line: lineNo, Name: string(nameB), Err: fmt.Errorf("%w: invalid name", ErrMalformedHeader)}
		}
		name := d.intern(nameB)
		if _, dup := seen[name]; dup {
			return nil, &HeaderError{Line: lineNo, Name: name, Err: fmt.Errorf("%w: repeated", ErrMalformedHeader)}
		}
		seen[name] = struct{}{}

		switch {
		case schema.isKnown(name):
			h.known[name] = headerValue{string(valueB), lineNo}
		case schema.custom:
			if h.custom == nil {
				h.custom = make(map[string]string)
			}
			h.custom[name] = string(valueB)
		}
	}
	return h, nil
}

func (h *parsedHeaders) build(kind model.Kind, rpcName string, body []byte) (model.Message, error) {
	for _, name := range headersOf(kind).required {
		v, ok := h.known[name]
		if !ok || (name == consts.HeaderReqID && v.value == "") {
			return nil, &MissingFieldError{Kind: kind, Field: name}
		}
	}

	reqID := h.known[consts.HeaderReqID].value
	switch kind {
	case model.KindInvocation:
		ct, err := h.contentType()
		if err != nil {
			return nil, err
		}
		return model.Invocation{
			ReqID:         reqID,
			RPCName:       rpcName,
			ContentType:   ct,
			ClientVersion: h.known[consts.HeaderClientVersion].value,
			CustomHeaders: h.custom,
			Body:          body,
		}, nil
	case model.KindOk:
		ct, err := h.contentType()
		if err != nil {
			return nil, err
		}
		return model.Ok{ReqID: reqID, ContentType: ct, CustomHeaders: h.custom, Body: body}, nil
	case model.KindError:
		ct, err := h.contentType()
		if err != nil {
			return nil, err
		}
		code, err := h.parseUint(consts.HeaderErrorCode)
		if err != nil {
			return nil, err
		}
		return model.Error{
			ReqID:         reqID,
			Code:          *code,
			Message:       h.known[consts.HeaderErrorMessage].value,
			ContentType:   ct,
			CustomHeaders: h.custom,
			Body:          body,
		}, nil
	case model.KindHeartbeat:
		interval, err := h.parseUint(consts.HeaderHeartbeatInterval)
		if err != nil {
			return nil, err
		}
		return model.Heartbeat{HeartbeatInterval: interval}, nil
	case model.KindConnectionStart:
		interval, err := h.parseUint(consts.HeaderHeartbeatInterval)
		if err != nil {
			return nil, err
		}
		return model.ConnectionStart{HeartbeatInterval: interval}, nil
	case model.KindStreamData:
		return model.StreamData{ReqID: reqID, MsgID: h.known[consts.HeaderMsgID].value, Body: body}, nil
	case model.KindStreamEnd:
		return model.StreamEnd{ReqID: reqID, Reason: h.known[consts.HeaderReason].value}, nil
	case model.KindStreamCancel:
		return model.StreamCancel{ReqID: reqID, Reason: h.known[consts.HeaderReason].value}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnrecognizedMessageKind, kind)
}

func (h *parsedHeaders) contentType() (model.ContentType, error) {
	v, ok := h.known[consts.HeaderContentType]
	if !ok {
		return model.ContentTypeUnset, nil
	}
	ct, err := model.ParseContentType(v.value)
	if err != nil {
		return model.ContentTypeUnset, &HeaderError{
			Line: v.line,
			Name: consts.HeaderContentType,
			Err:  fmt.Errorf("%w: %w", ErrInvalidHeaderValue, err),
		}
	}
	return ct, nil
}

// parseUint returns nil when the header is absent.
func (h *parsedHeaders) parseUint(name string) (*uint32, error) {
	v, ok := h.known[name]
	if !ok {
		return nil, nil
	}
	n, err := strconv.ParseUint(v.value, 10, 32)
	if err != nil {
		return nil, &HeaderError{
			Line: v.line,
			Name: name,
			Err:  fmt.Errorf("%w: %w", ErrInvalidHeaderValue, err),
		}
	}
	return model.Interval(uint32(n)), nil
}

// validName is httpguts.ValidHeaderFieldName without converting b to a string.
func validName(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if !httpguts.IsTokenRune(rune(c)) {
			return false
		}
	}
	return true
}

func (d *Decoder) intern(b []byte) string {
	if d.names == nil {
		return string(b)
	}
	return d.names.GetOrAdd(b)
}

func nextLine(in []byte) ([]byte, []byte) {
	index := bytes.IndexByte(in, '\n')
	if index == -1 {
		return in, nil
	}
	return in[:index], in[index+1:]
}

func cloneBody(body []byte) []byte {
	if len(body) == 0 {
		return nil
	}
	return bytes.Clone(body)
}

var _ model.Unmarshaler = &Decoder{}
