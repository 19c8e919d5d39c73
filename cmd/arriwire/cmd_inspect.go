package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ozontech/arriwire/config"
	"github.com/ozontech/arriwire/formats/arri/wire"
	"github.com/ozontech/arriwire/formats/arri/wire/encoding"
	wireIO "github.com/ozontech/arriwire/formats/arri/wire/io"
	"github.com/ozontech/arriwire/inspect"
)

type InspectCommand struct {
	In       *os.File `arg:"" default:"-" help:"Frame archive (default is stdin)."`
	FailFast bool     `help:"Stop at the first malformed frame."`
	Strict   bool     `help:"Treat frames with another protocol version as malformed."`
}

func (c *InspectCommand) Run(ctx context.Context, log *zap.Logger, cfg config.Config, stdout io.Writer) error {
	defer c.In.Close()

	decoderOpts := cfg.DecoderOptions()
	if c.Strict {
		decoderOpts = append(decoderOpts, encoding.WithStrictVersion(cfg.ProtocolVersion))
	}
	opts := []inspect.Option{
		inspect.WithLogger(log.Named("inspect")),
		inspect.WithDecoder(encoding.NewDecoder(decoderOpts...)),
	}
	if c.FailFast {
		opts = append(opts, inspect.WithFailFast())
	}

	r := wire.NewReader(c.In, wireIO.WithMaxFrameSize(cfg.MaxFrameSize))
	summary, err := inspect.New(opts...).Inspect(ctx, r)
	if _, werr := io.WriteString(stdout, summary.String()); werr != nil {
		return multierr.Append(err, werr)
	}
	if err != nil {
		errs := multierr.Errors(err)
		for _, e := range errs {
			log.Warn("inspect", zap.Error(e))
		}
		return fmt.Errorf("%d problem(s) found, first: %w", len(errs), errs[0])
	}
	return nil
}
