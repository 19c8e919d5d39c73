package encoding_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozontech/arriwire/formats/arri/json/encoding"
	"github.com/ozontech/arriwire/formats/model"
)

type test struct {
	name  string
	bytes []byte
	msg   model.Message
}

func makeTests() []test {
	return []test{
		{
			"invocation",
			[]byte("{" +
				`"kind":"INVOCATION",` +
				`"reqId":"12345",` +
				`"rpcName":"foo.fooFoo",` +
				`"contentType":"application/json",` +
				`"clientVersion":"1.2.5",` +
				`"httpMethod":"post",` +
				`"path":"/foo/foo-foo",` +
				`"headers":{"bar":"hello bar","foo":"hello foo"},` +
				`"body":"eyJtZXNzYWdlIjoiaGVsbG8gd29ybGQifQ=="` +
				"}"),
			model.Invocation{
				ReqID:         "12345",
				RPCName:       "foo.fooFoo",
				ContentType:   model.ContentTypeJSON,
				ClientVersion: "1.2.5",
				CustomHeaders: map[string]string{"foo": "hello foo", "bar": "hello bar"},
				HTTPMethod:    model.HTTPMethodPost,
				Path:          "/foo/foo-foo",
				Body:          []byte(`{"message":"hello world"}`),
			},
		},
		{
			"invocation without optionals",
			[]byte(`{"kind":"INVOCATION","reqId":"1","rpcName":"users.getUser"}`),
			model.Invocation{ReqID: "1", RPCName: "users.getUser"},
		},
		{
			"ok",
			[]byte(`{"kind":"OK","reqId":"1","contentType":"application/json","body":"e30="}`),
			model.Ok{ReqID: "1", ContentType: model.ContentTypeJSON, Body: []byte("{}")},
		},
		{
			"error",
			[]byte(`{"kind":"ERROR","reqId":"1","code":54,"message":"this is an error","headers":{"retry-after":"10"}}`),
			model.Error{ReqID: "1", Code: 54, Message: "this is an error", CustomHeaders: map[string]string{"retry-after": "10"}},
		},
		{
			"error with empty message",
			[]byte(`{"kind":"ERROR","reqId":"1","code":0,"message":""}`),
			model.Error{ReqID: "1"},
		},
		{
			"heartbeat",
			[]byte(`{"kind":"HEARTBEAT","heartbeatInterval":155}`),
			model.Heartbeat{HeartbeatInterval: model.Interval(155)},
		},
		{
			"connection start without interval",
			[]byte(`{"kind":"CONNECTION_START"}`),
			model.ConnectionStart{},
		},
		{
			"stream data with opaque body",
			[]byte(`{"kind":"STREAM_DATA","reqId":"1515","msgId":"1","body":"CgpsaW5lAP8="}`),
			model.StreamData{ReqID: "1515", MsgID: "1", Body: []byte("\n\nline\x00\xff")},
		},
		{
			"stream data with empty body",
			[]byte(`{"kind":"STREAM_DATA","reqId":"1515","body":""}`),
			model.StreamData{ReqID: "1515", Body: []byte{}},
		},
		{
			"stream end",
			[]byte(`{"kind":"STREAM_END","reqId":"1515","reason":"no more <events>"}`),
			model.StreamEnd{ReqID: "1515", Reason: "no more <events>"},
		},
		{
			"stream cancel",
			[]byte(`{"kind":"STREAM_CANCEL","reqId":"1515"}`),
			model.StreamCancel{ReqID: "1515"},
		},
	}
}

func TestDecoder(t *testing.T) {
	t.Parallel()
	d := encoding.NewDecoder()
	for _, tc := range makeTests() {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			msg, err := d.Unmarshal(tc.bytes)
			require.NoError(t, err)
			assert.Equal(t, tc.msg, msg)
		})
	}
}

func TestEncoder(t *testing.T) {
	t.Parallel()
	e := encoding.NewEncoder()
	for _, tc := range makeTests() {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			b, err := e.MarshalAppend(nil, tc.msg)
			require.NoError(t, err)
			assert.Equal(t, string(tc.bytes), string(b))
		})
	}
}

func TestDecoderAcceptsAnyKeyOrder(t *testing.T) {
	t.Parallel()

	msg, err := encoding.NewDecoder().Unmarshal([]byte(`{ "reqId": "1", "reason": "done", "kind": "STREAM_END" }`))
	require.NoError(t, err)
	assert.Equal(t, model.StreamEnd{ReqID: "1", Reason: "done"}, msg)
}

func TestEncoderRejectsUnknown(t *testing.T) {
	t.Parallel()

	b, err := encoding.NewEncoder().MarshalAppend([]byte("keep"), model.Unknown{})
	assert.ErrorIs(t, err, encoding.ErrUnsupportedMessage)
	assert.Equal(t, "keep", string(b))
}

func TestDecoderErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		json string
		err  error
	}{
		{"missing kind", `{"reqId":"1"}`, encoding.ErrMissingField},
		{"unknown kind", `{"kind":"SUCCESS","reqId":"1"}`, encoding.ErrBadKind},
		{"unknown placeholder kind", `{"kind":"UNKNOWN"}`, encoding.ErrBadKind},
		{"unknown key", `{"kind":"OK","reqId":"1","status":200}`, encoding.ErrUnknownField},
		{"key of another kind", `{"kind":"OK","reqId":"1","reason":"x"}`, encoding.ErrUnknownField},
		{"repeated key", `{"kind":"OK","reqId":"1","reqId":"2"}`, encoding.ErrDuplicateField},
		{"missing req id", `{"kind":"STREAM_DATA","msgId":"1"}`, encoding.ErrMissingField},
		{"missing error code", `{"kind":"ERROR","reqId":"1","message":"x"}`, encoding.ErrMissingField},
		{"unsupported content type", `{"kind":"OK","reqId":"1","contentType":"text/plain"}`, model.ErrUnsupportedContentType},
	}

	d := encoding.NewDecoder()
	for _, tc := range tests {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			msg, err := d.Unmarshal([]byte(tc.json))
			assert.ErrorIs(t, err, tc.err)
			assert.Nil(t, msg)
		})
	}

	for _, garbage := range []string{
		`some garbage{///]`,
		`{"kind":"HEARTBEAT","heartbeatInterval":-1}`,
		`{"kind":"OK","reqId":"1","body":"not base64!"}`,
		`{"kind":"OK","reqId":"1"} trailing`,
		`{"kind":"OK","reqId":"1","headers":{"a":1}}`,
	} {
		_, err := d.Unmarshal([]byte(garbage))
		assert.Error(t, err, garbage)
	}
}
