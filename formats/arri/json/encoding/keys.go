// Package encoding renders messages as single-line JSON objects for
// inspection and hand editing, and parses them back.
package encoding

import (
	"errors"

	"github.com/ozontech/arriwire/formats/model"
)

const (
	keyKind              = "kind"
	keyReqID             = "reqId"
	keyRPCName           = "rpcName"
	keyContentType       = "contentType"
	keyClientVersion     = "clientVersion"
	keyHTTPMethod        = "httpMethod"
	keyPath              = "path"
	keyCode              = "code"
	keyMessage           = "message"
	keyHeartbeatInterval = "heartbeatInterval"
	keyMsgID             = "msgId"
	keyReason            = "reason"
	keyHeaders           = "headers"
	keyBody              = "body"
)

var (
	ErrUnsupportedMessage = errors.New("json: message kind has no json form")
	ErrUnknownField       = errors.New("json: unknown field")
	ErrMissingField       = errors.New("json: missing field")
	ErrDuplicateField     = errors.New("json: repeated field")
	ErrBadKind            = errors.New("json: bad kind")
)

// fieldsOf lists the keys each kind accepts besides "kind".
var fieldsOf = map[model.Kind]map[string]bool{
	model.KindInvocation: set(
		keyReqID, keyRPCName, keyContentType, keyClientVersion, keyHTTPMethod, keyPath, keyHeaders, keyBody,
	),
	model.KindOk:              set(keyReqID, keyContentType, keyHeaders, keyBody),
	model.KindError:           set(keyReqID, keyContentType, keyCode, keyMessage, keyHeaders, keyBody),
	model.KindHeartbeat:       set(keyHeartbeatInterval),
	model.KindConnectionStart: set(keyHeartbeatInterval),
	model.KindStreamData:      set(keyReqID, keyMsgID, keyBody),
	model.KindStreamEnd:       set(keyReqID, keyReason),
	model.KindStreamCancel:    set(keyReqID, keyReason),
}

// requiredOf lists the keys each kind must carry besides "kind".
var requiredOf = map[model.Kind][]string{
	model.KindInvocation:   {keyReqID, keyRPCName},
	model.KindOk:           {keyReqID},
	model.KindError:        {keyReqID, keyCode, keyMessage},
	model.KindStreamData:   {keyReqID},
	model.KindStreamEnd:    {keyReqID},
	model.KindStreamCancel: {keyReqID},
}

func set(keys ...string) map[string]bool {
	s := make(map[string]bool, len(keys))
	for _, k := range keys {
		s[k] = true
	}
	return s
}
