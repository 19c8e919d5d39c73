package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/net/http/httpguts"

	"github.com/ozontech/arriwire/config"
	"github.com/ozontech/arriwire/formats/arri/wire/encoding"
	wireIO "github.com/ozontech/arriwire/formats/arri/wire/io"
	"github.com/ozontech/arriwire/formats/model"
)

type EncodeCommand struct {
	Kind string `arg:"" enum:"invocation,ok,error,heartbeat,connection-start,stream-data,stream-end,stream-cancel" help:"Message kind: ${enum}."`

	RPC           string            `name:"rpc" placeholder:"users.getUser" help:"Rpc name of an invocation."`
	ReqID         string            `name:"req-id" help:"Request id. A random UUID when empty."`
	MsgID         string            `name:"msg-id" help:"Stream message id."`
	ContentType   string            `placeholder:"application/json" help:"Content type. Defaults to the configured one."`
	ClientVersion string            `help:"Client version of an invocation. Defaults to the configured one."`
	Code          uint32            `help:"Error code."`
	Message       string            `help:"Error message."`
	Reason        string            `help:"Stream end or cancel reason."`
	Interval      string            `placeholder:"MS" help:"Heartbeat interval in milliseconds."`
	Header        map[string]string `short:"H" placeholder:"KEY=VALUE" help:"Custom header, may be repeated."`
	Body          string            `type:"path" placeholder:"FILE" help:"Body file, - for stdin."`

	Out    string `short:"o" default:"-" type:"path" help:"Output file, - for stdout."`
	Append bool   `help:"Append the frame to a frame archive instead of writing it raw."`
}

func (c *EncodeCommand) Validate() error {
	if c.Kind == "invocation" {
		if c.RPC == "" {
			return errors.New("--rpc is required for invocations")
		}
		if err := encoding.CheckRPCName(c.RPC); err != nil {
			return fmt.Errorf("--rpc: %w", err)
		}
	}
	if c.Interval != "" {
		if _, err := strconv.ParseUint(c.Interval, 10, 32); err != nil {
			return fmt.Errorf("--interval: %w", err)
		}
	}
	for _, f := range []struct{ flag, value string }{
		{"--req-id", c.ReqID},
		{"--msg-id", c.MsgID},
		{"--client-version", c.ClientVersion},
		{"--message", c.Message},
		{"--reason", c.Reason},
	} {
		if !httpguts.ValidHeaderFieldValue(f.value) {
			return fmt.Errorf("%s must not contain line breaks or control characters", f.flag)
		}
	}
	return validateHeaders(c.Header)
}

func validateHeaders(headers map[string]string) error {
	names := make([]string, 0, len(headers))
	for k := range headers {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		if !httpguts.ValidHeaderFieldName(k) {
			return fmt.Errorf("invalid header name %q", k)
		}
		if !httpguts.ValidHeaderFieldValue(headers[k]) {
			return fmt.Errorf("invalid value for header %q", k)
		}
	}
	return nil
}

func (c *EncodeCommand) Run(ctx context.Context, log *zap.Logger, cfg config.Config, stdout io.Writer) (err error) {
	msg, err := c.message(cfg, os.Stdin)
	if err != nil {
		return err
	}

	frame, err := encoding.NewEncoder(cfg.EncoderOptions()...).MarshalAppend(nil, msg)
	if err != nil {
		return err
	}
	reqID, _ := model.ReqIDOf(msg)
	log.Named("encode").Debug("frame built",
		zap.Stringer("kind", msg.Kind()),
		zap.String("req_id", reqID),
		zap.Int("size", len(frame)),
	)

	w := stdout
	if c.Out != "-" {
		flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
		if c.Append {
			flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
		}
		var f *os.File
		if f, err = os.OpenFile(c.Out, flags, 0o644); err != nil {
			return fmt.Errorf("open output: %w", err)
		}
		defer multierr.AppendInvoke(&err, multierr.Close(f))
		w = f
	}

	if c.Append {
		return wireIO.NewWriter(w).WriteNext(frame)
	}
	_, err = w.Write(frame)
	return err
}

// message builds the message the flags describe. stdin is read when --body is "-".
func (c *EncodeCommand) message(cfg config.Config, stdin io.Reader) (model.Message, error) {
	body, err := c.readBody(stdin)
	if err != nil {
		return nil, err
	}

	contentType := cfg.ContentType
	if c.ContentType != "" {
		if contentType, err = model.ParseContentType(c.ContentType); err != nil {
			return nil, err
		}
	}
	clientVersion := cfg.ClientVersion
	if c.ClientVersion != "" {
		clientVersion = c.ClientVersion
	}

	reqID := c.ReqID
	if reqID == "" {
		reqID = uuid.NewString()
	}

	var headers map[string]string
	if len(c.Header) > 0 {
		headers = c.Header
	}

	var interval *uint32
	if c.Interval != "" {
		n, err := strconv.ParseUint(c.Interval, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("--interval: %w", err)
		}
		interval = model.Interval(uint32(n))
	}

	switch c.Kind {
	case "invocation":
		return model.Invocation{
			ReqID:         reqID,
			RPCName:       c.RPC,
			ContentType:   contentType,
			ClientVersion: clientVersion,
			CustomHeaders: headers,
			Body:          body,
		}, nil
	case "ok":
		return model.Ok{ReqID: reqID, ContentType: contentType, CustomHeaders: headers, Body: body}, nil
	case "error":
		return model.Error{
			ReqID:         reqID,
			Code:          c.Code,
			Message:       c.Message,
			ContentType:   contentType,
			CustomHeaders: headers,
			Body:          body,
		}, nil
	case "heartbeat":
		return model.Heartbeat{HeartbeatInterval: interval}, nil
	case "connection-start":
		return model.ConnectionStart{HeartbeatInterval: interval}, nil
	case "stream-data":
		return model.StreamData{ReqID: reqID, MsgID: c.MsgID, Body: body}, nil
	case "stream-end":
		return model.StreamEnd{ReqID: reqID, Reason: c.Reason}, nil
	case "stream-cancel":
		return model.StreamCancel{ReqID: reqID, Reason: c.Reason}, nil
	}
	panic("assertion error")
}

func (c *EncodeCommand) readBody(stdin io.Reader) ([]byte, error) {
	var (
		body []byte
		err  error
	)
	switch c.Body {
	case "":
		return nil, nil
	case "-":
		body, err = io.ReadAll(stdin)
	default:
		body, err = os.ReadFile(c.Body)
	}
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return nil, nil
	}
	return body, nil
}
