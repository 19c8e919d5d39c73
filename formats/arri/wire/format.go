package wire

import (
	"io"

	"github.com/ozontech/arriwire/formats/arri/wire/encoding"
	wireIO "github.com/ozontech/arriwire/formats/arri/wire/io"
	"github.com/ozontech/arriwire/formats/internal/pooledreader"
	"github.com/ozontech/arriwire/formats/model"
)

// NewReader reads a frame archive, recycling frame buffers handed back
// through Release.
func NewReader(r io.Reader, opts ...wireIO.ReaderOption) model.PooledRequestReader {
	return pooledreader.New(wireIO.NewReader(r, opts...))
}

func NewInput(r io.Reader, opts ...encoding.DecoderOption) *model.InputFormat {
	return &model.InputFormat{
		Reader:  NewReader(r),
		Decoder: encoding.NewDecoder(opts...),
	}
}

func NewOutput(w io.Writer, opts ...encoding.EncoderOption) *model.OutputFormat {
	return &model.OutputFormat{
		Writer:  wireIO.NewWriter(w),
		Encoder: encoding.NewEncoder(opts...),
	}
}
