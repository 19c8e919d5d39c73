package model

// Marshaler appends the encoded form of a message to a buffer.
type Marshaler interface {
	MarshalAppend([]byte, Message) ([]byte, error)
}

// Unmarshaler builds a message from one complete encoded container.
// Implementations must not retain b: the returned message owns its data.
type Unmarshaler interface {
	Unmarshal(b []byte) (Message, error)
}

// RequestReader reads the next encoded container, using the argument as a buffer.
type RequestReader interface {
	ReadNext([]byte) ([]byte, error)
}

type PooledRequestReader interface {
	ReadNext() ([]byte, error)
	Release([]byte)
}

type RequestWriter interface {
	WriteNext([]byte) error
}

type InputFormat struct {
	Reader  PooledRequestReader
	Decoder Unmarshaler
}

type OutputFormat struct {
	Writer  RequestWriter
	Encoder Marshaler
}
