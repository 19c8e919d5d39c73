package encoding

import (
	"github.com/ozontech/arriwire/consts"
	"github.com/ozontech/arriwire/formats/model"
)

// variantHeaders lists the header names a variant maps onto typed fields.
// Any other header is a custom header when the variant carries custom headers
// and is dropped otherwise.
type variantHeaders struct {
	known    []string
	required []string
	custom   bool
}

var variants = [...]variantHeaders{
	model.KindInvocation: {
		known:    []string{consts.HeaderContentType, consts.HeaderReqID, consts.HeaderClientVersion},
		required: []string{consts.HeaderReqID},
		custom:   true,
	},
	model.KindOk: {
		known:    []string{consts.HeaderContentType, consts.HeaderReqID},
		required: []string{consts.HeaderReqID},
		custom:   true,
	},
	model.KindError: {
		known: []string{
			consts.HeaderContentType, consts.HeaderReqID,
			consts.HeaderErrorCode, consts.HeaderErrorMessage,
		},
		required: []string{consts.HeaderReqID, consts.HeaderErrorCode, consts.HeaderErrorMessage},
		custom:   true,
	},
	model.KindHeartbeat: {
		known: []string{consts.HeaderHeartbeatInterval},
	},
	model.KindConnectionStart: {
		known: []string{consts.HeaderHeartbeatInterval},
	},
	model.KindStreamData: {
		known:    []string{consts.HeaderReqID, consts.HeaderMsgID},
		required: []string{consts.HeaderReqID},
	},
	model.KindStreamEnd: {
		known:    []string{consts.HeaderReqID, consts.HeaderReason},
		required: []string{consts.HeaderReqID},
	},
	model.KindStreamCancel: {
		known:    []string{consts.HeaderReqID, consts.HeaderReason},
		required: []string{consts.HeaderReqID},
	},
}

func headersOf(kind model.Kind) variantHeaders {
	if int(kind) < len(variants) {
		return variants[kind]
	}
	return variantHeaders{}
}

func (v variantHeaders) isKnown(name string) bool {
	for _, k := range v.known {
		if k == name {
			return true
		}
	}
	return false
}
