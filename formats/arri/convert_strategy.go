// Package arri glues ARRIRPC formats to the conversion pipeline.
package arri

import (
	"github.com/ozontech/arriwire/formats/converter"
	"github.com/ozontech/arriwire/formats/model"
	"github.com/ozontech/arriwire/utils/pool"
)

// holders kept for reuse; bounded so a burst of reads does not pin memory
const holderPoolSize = 1024

type MessageHolder struct {
	message  model.Message
	readBuf  []byte
	writeBuf []byte
}

type ConvertStrategy struct {
	pool *pool.SlicePool[*MessageHolder]

	in  *model.InputFormat
	out *model.OutputFormat
}

func NewConvertStrategy(in *model.InputFormat, out *model.OutputFormat) *ConvertStrategy {
	return &ConvertStrategy{
		pool: pool.NewSlicePoolSize[*MessageHolder](holderPoolSize),
		in:   in,
		out:  out,
	}
}

func (s *ConvertStrategy) Read() (interface{}, error) {
	mh, ok := s.pool.Acquire()
	if !ok {
		mh = new(MessageHolder)
	}

	var err error
	mh.readBuf, err = s.in.Reader.ReadNext()
	return mh, err
}

func (s *ConvertStrategy) Decode(holder interface{}) error {
	mh := holder.(*MessageHolder)
	var err error
	mh.message, err = s.in.Decoder.Unmarshal(mh.readBuf)
	return err
}

// Label names a decoded holder by its message kind.
func (s *ConvertStrategy) Label(holder interface{}) string {
	mh := holder.(*MessageHolder)
	if mh.message == nil {
		return ""
	}
	return mh.message.Kind().String()
}

func (s *ConvertStrategy) Encode(holder interface{}) error {
	mh := holder.(*MessageHolder)
	var err error
	mh.writeBuf, err = s.out.Encoder.MarshalAppend(mh.writeBuf[:0], mh.message)
	return err
}

func (s *ConvertStrategy) Write(holder interface{}) error {
	mh := holder.(*MessageHolder)
	return s.out.Writer.WriteNext(mh.writeBuf)
}

func (s *ConvertStrategy) Release(holder interface{}) {
	mh := holder.(*MessageHolder)
	s.in.Reader.Release(mh.readBuf)
	mh.readBuf = nil
	mh.message = nil
	s.pool.Release(mh)
}

var (
	_ converter.Strategy = (*ConvertStrategy)(nil)
	_ converter.Labeler  = (*ConvertStrategy)(nil)
)
