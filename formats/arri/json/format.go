package json

import (
	"io"

	"github.com/ozontech/arriwire/formats/arri/json/encoding"
	formatIO "github.com/ozontech/arriwire/formats/arri/json/io"
	"github.com/ozontech/arriwire/formats/internal/pooledreader"
	"github.com/ozontech/arriwire/formats/model"
)

// NewInput reads one JSON message per line. JSON carries bodies as base64,
// so lines may run up to a third longer than maxFrameSize.
func NewInput(r io.Reader, maxFrameSize int) *model.InputFormat {
	maxLineSize := 0
	if maxFrameSize > 0 {
		maxLineSize = maxFrameSize/3*4 + 4096
	}
	return &model.InputFormat{
		Reader:  pooledreader.New(formatIO.NewReader(r, maxLineSize)),
		Decoder: encoding.NewDecoder(),
	}
}

func NewOutput(w io.Writer) *model.OutputFormat {
	return &model.OutputFormat{
		Writer:  formatIO.NewWriter(w),
		Encoder: encoding.NewEncoder(),
	}
}
