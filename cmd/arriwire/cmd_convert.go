package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ozontech/arriwire/config"
	"github.com/ozontech/arriwire/formats/arri"
	arriJSON "github.com/ozontech/arriwire/formats/arri/json"
	"github.com/ozontech/arriwire/formats/arri/wire"
	"github.com/ozontech/arriwire/formats/converter"
	"github.com/ozontech/arriwire/formats/model"
)

type format string

const (
	formatWire format = "wire"
	formatJSON format = "json"
)

type ConvertCommand struct {
	In  *os.File `arg:"" required:"" default:"-" help:"Input file (default is stdin)."`
	Out string   `arg:"" required:"" default:"-" help:"Output file (default is stdout)." type:"path"`

	From format `enum:"wire, json" required:"" placeholder:"wire" help:"Input format. Available types: ${enum}"`
	To   format `enum:"wire, json" required:"" placeholder:"json" help:"Output format. Available types: ${enum}"`

	StripBody    bool              `help:"Drop message bodies."`
	SetHeader    map[string]string `placeholder:"KEY=VALUE" help:"Set a custom header on invocations, ok and error messages."`
	Threads      int               `help:"Decode and encode threads (default is GOMAXPROCS)."`
	FailOnErrors bool              `help:"Stop at the first message that fails to convert."`
}

func (c *ConvertCommand) Validate() error {
	if c.From == c.To && !c.StripBody && len(c.SetHeader) == 0 {
		return errors.New("--from and --to flags must have different values unless messages are rewritten")
	}
	return validateHeaders(c.SetHeader)
}

func (c *ConvertCommand) Run(ctx context.Context, log *zap.Logger, cfg config.Config, stdout io.Writer) (err error) {
	defer c.In.Close()

	out := stdout
	if c.Out != "-" {
		var f *os.File
		if f, err = os.Create(c.Out); err != nil {
			return fmt.Errorf("output file creation: %w", err)
		}
		defer multierr.AppendInvoke(&err, multierr.Close(f))
		out = f
	}

	var inputFormat *model.InputFormat
	switch c.From {
	case formatWire:
		inputFormat = wire.NewInput(c.In, cfg.DecoderOptions()...)
	case formatJSON:
		inputFormat = arriJSON.NewInput(c.In, cfg.MaxFrameSize)
	default:
		panic("assertion error")
	}

	var outputFormat *model.OutputFormat
	switch c.To {
	case formatWire:
		outputFormat = wire.NewOutput(out, cfg.EncoderOptions()...)
	case formatJSON:
		outputFormat = arriJSON.NewOutput(out)
	default:
		panic("assertion error")
	}

	var mws []arri.MiddlewareFunc
	if c.StripBody {
		mws = append(mws, arri.StripBody)
	}
	for name, value := range c.SetHeader {
		mws = append(mws, arri.SetCustomHeader(name, value))
	}
	outputFormat.Encoder = arri.WrapEncoder(outputFormat.Encoder, mws...)

	opts := []converter.Option{
		converter.WithThreads(c.Threads),
		converter.WithLogger(log.Named("convert")),
	}
	if c.FailOnErrors {
		opts = append(opts, converter.WithFailOnConvertErrors())
	}

	p := converter.NewProcessor(arri.NewConvertStrategy(inputFormat, outputFormat), opts...)
	if err = p.Process(ctx); err != nil {
		return err
	}
	stats := p.Stats()
	log.Info("converted",
		zap.Int("written", stats.Written),
		zap.Int("decode_failed", stats.DecodeFailed),
		zap.Int("encode_failed", stats.EncodeFailed),
		zap.Any("kinds", stats.Labels),
	)
	return nil
}
