package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	mangokong "github.com/alecthomas/mango-kong"
	"go.uber.org/zap"

	"github.com/ozontech/arriwire/config"
)

var CLI struct {
	Encode  EncodeCommand     `cmd:"" help:"Build one message and write it as a frame."`
	Decode  DecodeCommand     `cmd:"" help:"Decode one raw frame and print it as JSON."`
	Convert ConvertCommand    `cmd:"" help:"Convert between frame archives and JSON lines."`
	Inspect InspectCommand    `cmd:"" help:"Summarize a frame archive."`
	Config  string            `type:"existingfile" env:"ARRIWIRE_CONFIG" placeholder:"arriwire.toml" help:"TOML config file."`
	Verbose bool              `short:"v" help:"Write debug logs to stderr."`
	Man     mangokong.ManFlag `help:"Write man page." hidden:""`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kongCtx := kong.Parse(
		&CLI,
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.BindTo(os.Stdout, (*io.Writer)(nil)),
		kong.ConfigureHelp(kong.HelpOptions{
			Tree:    true,
			Compact: true,
		}),
		kong.Description(`ARRIRPC wire message toolkit

arriwire encodes, decodes, converts and inspects ARRIRPC frames: a status line, "name: value" headers, a blank line and an opaque body.
		`),
	)

	log := zap.NewNop()
	if CLI.Verbose {
		log = zap.Must(zap.NewDevelopment())
	}
	defer log.Sync() //nolint:errcheck

	cfg := config.Default()
	if CLI.Config != "" {
		var err error
		cfg, err = config.Load(CLI.Config)
		kongCtx.FatalIfErrorf(err)
		log.Debug("config loaded", zap.String("path", CLI.Config), zap.String("protocol_version", cfg.ProtocolVersion))
	}

	err := kongCtx.Run(log, cfg)
	kongCtx.FatalIfErrorf(err)
}
