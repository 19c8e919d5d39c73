package consts

const (
	ProtocolTag     = "ARRIRPC"
	ProtocolVersion = "0.0.8"

	ReadBufferSize = 4096

	// DefaultMaxFrameSize bounds a single decoded frame. Zero disables the check.
	DefaultMaxFrameSize = 8 * 1024 * 1024
	// DefaultInternCacheSize is the number of rpc and header names kept interned per decoder.
	DefaultInternCacheSize = 1024
)

// Header names of the wire grammar.
const (
	HeaderContentType       = "content-type"
	HeaderReqID             = "req-id"
	HeaderClientVersion     = "client-version"
	HeaderErrorCode         = "error-code"
	HeaderErrorMessage      = "error-message"
	HeaderHeartbeatInterval = "heartbeat-interval"
	HeaderMsgID             = "msg-id"
	HeaderReason            = "reason"
)
