// Package inspect walks a frame archive and summarizes what it holds.
package inspect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ozontech/arriwire/formats/arri/wire/encoding"
	"github.com/ozontech/arriwire/formats/model"
	"github.com/ozontech/arriwire/utils/lru"
)

// ErrReqIDReused is reported for an invocation whose req-id belongs to another
// invocation that has not finished yet.
var ErrReqIDReused = errors.New("inspect: req-id reused while in flight")

type Option func(*Inspector)

func WithLogger(log *zap.Logger) Option {
	return func(i *Inspector) { i.log = log }
}

// WithFailFast stops at the first malformed frame or lifecycle violation.
func WithFailFast() Option {
	return func(i *Inspector) { i.failFast = true }
}

func WithDecoder(d *encoding.Decoder) Option {
	return func(i *Inspector) { i.decoder = d }
}

type Inspector struct {
	log      *zap.Logger
	failFast bool
	decoder  *encoding.Decoder
}

func New(opts ...Option) *Inspector {
	i := &Inspector{
		log:     zap.NewNop(),
		decoder: encoding.NewDecoder(),
	}
	for _, o := range opts {
		o(i)
	}
	return i
}

type KindStats struct {
	Count int
	Bytes uint64
}

type Summary struct {
	Frames    int
	Bytes     uint64
	BodyBytes uint64
	Malformed int
	// Conflicts counts well-formed frames that break a request lifecycle.
	Conflicts int
	Kinds     map[model.Kind]KindStats
	// ErrorCodes counts ERROR messages by code.
	ErrorCodes map[uint32]int
	// Pending counts invocations with no OK, ERROR, STREAM_END or
	// STREAM_CANCEL for their req-id later in the archive.
	Pending int
	Intern  lru.Stats
}

// Inspect decodes every frame r yields. Malformed frames are counted and
// their errors combined into the returned error; the summary is valid
// either way.
func (i *Inspector) Inspect(ctx context.Context, r model.PooledRequestReader) (Summary, error) {
	s := Summary{
		Kinds:      make(map[model.Kind]KindStats),
		ErrorCodes: make(map[uint32]int),
	}
	t := &tally{s: &s, open: make(map[string]struct{})}

	err := i.walk(ctx, r, t)
	s.Pending = len(t.open)
	s.Intern = i.decoder.InternStats()
	return s, err
}

func (i *Inspector) walk(ctx context.Context, r model.PooledRequestReader, t *tally) error {
	s := t.s

	var errs error
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}

		frame, err := r.ReadNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return errs
			}
			return multierr.Append(errs, fmt.Errorf("read frame #%d: %w", n, err))
		}

		size := len(frame)
		s.Frames++
		s.Bytes += uint64(size)
		msg, err := i.decoder.Unmarshal(frame)
		r.Release(frame)
		if err != nil {
			s.Malformed++
			err = fmt.Errorf("frame #%d: %w", n, err)
			i.log.Debug("malformed frame", zap.Int("frame", n), zap.Int("size", size), zap.Error(err))
			if i.failFast {
				return err
			}
			errs = multierr.Append(errs, err)
			continue
		}

		k := s.Kinds[msg.Kind()]
		k.Count++
		k.Bytes += uint64(size)
		s.Kinds[msg.Kind()] = k
		s.BodyBytes += uint64(len(model.BodyOf(msg)))

		reqID, _ := model.ReqIDOf(msg)
		i.log.Debug("frame",
			zap.Int("frame", n),
			zap.Stringer("kind", msg.Kind()),
			zap.Int("size", size),
			zap.String("req_id", reqID),
		)
		if err := model.Visit(msg, t); err != nil {
			s.Conflicts++
			err = fmt.Errorf("frame #%d: %w", n, err)
			i.log.Debug("lifecycle conflict", zap.Int("frame", n), zap.Error(err))
			if i.failFast {
				return err
			}
			errs = multierr.Append(errs, err)
		}
	}
}

func (s Summary) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "frames: %s (%s), malformed: %s, conflicts: %s\n",
		humanize.Comma(int64(s.Frames)), humanize.Bytes(s.Bytes),
		humanize.Comma(int64(s.Malformed)), humanize.Comma(int64(s.Conflicts)))

	kinds := make([]model.Kind, 0, len(s.Kinds))
	for k := range s.Kinds {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	for _, k := range kinds {
		fmt.Fprintf(&sb, "  %-16s %8s  %s\n", k, humanize.Comma(int64(s.Kinds[k].Count)), humanize.Bytes(s.Kinds[k].Bytes))
	}

	if len(s.ErrorCodes) > 0 {
		codes := make([]uint32, 0, len(s.ErrorCodes))
		for c := range s.ErrorCodes {
			codes = append(codes, c)
		}
		sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
		sb.WriteString("error codes:")
		for _, c := range codes {
			fmt.Fprintf(&sb, " %d=%d", c, s.ErrorCodes[c])
		}
		sb.WriteByte('\n')
	}

	fmt.Fprintf(&sb, "bodies: %s, pending invocations: %s\n", humanize.Bytes(s.BodyBytes), humanize.Comma(int64(s.Pending)))
	if s.Intern != (lru.Stats{}) {
		fmt.Fprintf(&sb, "name cache: %d hits, %d misses, %d evictions\n", s.Intern.Hits, s.Intern.Misses, s.Intern.Evictions)
	}
	return sb.String()
}

// tally follows request lifecycles across the archive.
type tally struct {
	s    *Summary
	open map[string]struct{}
}

func (t *tally) Unknown(model.Unknown) error { return nil }

func (t *tally) Invocation(m model.Invocation) error {
	if _, ok := t.open[m.ReqID]; ok {
		return fmt.Errorf("%w: %q", ErrReqIDReused, m.ReqID)
	}
	t.open[m.ReqID] = struct{}{}
	return nil
}

func (t *tally) Ok(m model.Ok) error {
	delete(t.open, m.ReqID)
	return nil
}

func (t *tally) Error(m model.Error) error {
	t.s.ErrorCodes[m.Code]++
	delete(t.open, m.ReqID)
	return nil
}

func (t *tally) Heartbeat(model.Heartbeat) error { return nil }

func (t *tally) ConnectionStart(model.ConnectionStart) error { return nil }

func (t *tally) StreamData(model.StreamData) error { return nil }

func (t *tally) StreamEnd(m model.StreamEnd) error {
	delete(t.open, m.ReqID)
	return nil
}

func (t *tally) StreamCancel(m model.StreamCancel) error {
	delete(t.open, m.ReqID)
	return nil
}
