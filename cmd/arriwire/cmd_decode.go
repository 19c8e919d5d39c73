package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/ozontech/arriwire/config"
	jsonEncoding "github.com/ozontech/arriwire/formats/arri/json/encoding"
	"github.com/ozontech/arriwire/formats/arri/wire/encoding"
)

type DecodeCommand struct {
	In     *os.File `arg:"" default:"-" help:"Raw frame file (default is stdin)."`
	Strict bool     `help:"Reject frames whose protocol version differs from the configured one."`
}

func (c *DecodeCommand) Run(ctx context.Context, log *zap.Logger, cfg config.Config, stdout io.Writer) error {
	defer c.In.Close()

	frame, err := io.ReadAll(c.In)
	if err != nil {
		return fmt.Errorf("read frame: %w", err)
	}

	opts := cfg.DecoderOptions()
	if c.Strict {
		opts = append(opts, encoding.WithStrictVersion(cfg.ProtocolVersion))
	}
	msg, err := encoding.NewDecoder(opts...).Unmarshal(frame)
	if err != nil {
		return err
	}
	log.Named("decode").Debug("frame decoded", zap.Stringer("kind", msg.Kind()), zap.Int("size", len(frame)))

	b, err := jsonEncoding.NewEncoder().MarshalAppend(nil, msg)
	if err != nil {
		return err
	}
	_, err = stdout.Write(append(b, '\n'))
	return err
}
