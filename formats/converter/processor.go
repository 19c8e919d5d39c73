package converter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type DataHolder = interface{}

// Strategy moves one message through the pipeline. Read runs on a single
// goroutine, Decode and Encode run concurrently, Write and Release run on a
// single goroutine in read order. Release is called for every holder Read
// returned without error, whether it was written or failed to convert.
type Strategy interface {
	Read() (DataHolder, error)
	Decode(DataHolder) error

	Encode(DataHolder) error
	Write(DataHolder) error
	Release(DataHolder)
}

// Labeler is an optional Strategy extension. Label names a decoded holder,
// e.g. by message kind; it feeds Stats.Labels and error context.
type Labeler interface {
	Label(DataHolder) string
}

type Stage string

const (
	StageDecode Stage = "decode"
	StageEncode Stage = "encode"
)

// ItemError is a message that failed to convert. Seq counts messages from 1
// in read order. Label is empty for decode failures.
type ItemError struct {
	Seq   int
	Stage Stage
	Label string
	Err   error
}

func (e *ItemError) Error() string {
	if e.Label == "" {
		return fmt.Sprintf("message #%d: %s error: %v", e.Seq, e.Stage, e.Err)
	}
	return fmt.Sprintf("message #%d (%s): %s error: %v", e.Seq, e.Label, e.Stage, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// Stats counts messages once Process returns.
type Stats struct {
	Written      int
	DecodeFailed int
	EncodeFailed int
	// Labels counts written messages by label. Nil unless the strategy is a Labeler.
	Labels map[string]int
}

func (s Stats) Failed() int { return s.DecodeFailed + s.EncodeFailed }

type job struct {
	seq    int
	holder DataHolder
	label  string
	err    *ItemError
}

type Processor struct {
	conf     conf
	strategy Strategy
	labeler  Labeler
	stats    Stats
}

func NewProcessor(strategy Strategy, opts ...Option) *Processor {
	conf := newDefaultConf()
	for _, o := range opts {
		if o != nil {
			o(&conf)
		}
	}

	p := &Processor{
		conf:     conf,
		strategy: strategy,
	}
	if l, ok := strategy.(Labeler); ok {
		p.labeler = l
		p.stats.Labels = make(map[string]int)
	}
	return p
}

// Process converts every message the strategy reads. Messages are spread
// over conf.threads lanes round robin and collected back in the same order,
// so output order matches input order.
func (p *Processor) Process(ctx context.Context) error {
	lanesIn := make([]chan job, p.conf.threads)
	lanesOut := make([]chan job, p.conf.threads)
	for i := range lanesIn {
		lanesIn[i] = make(chan job, p.conf.threadBuffer)
		lanesOut[i] = make(chan job)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.dispatch(ctx, lanesIn) })
	for i := range lanesIn {
		in, out := lanesIn[i], lanesOut[i]
		g.Go(func() error { return p.convert(ctx, in, out) })
	}
	g.Go(func() error { return p.collect(ctx, lanesOut) })

	err := g.Wait()
	p.conf.logger.Debug("conversion finished",
		zap.Int("written", p.stats.Written),
		zap.Int("decode_failed", p.stats.DecodeFailed),
		zap.Int("encode_failed", p.stats.EncodeFailed),
		zap.Error(err),
	)
	return err
}

// Stats is valid after Process returns.
func (p *Processor) Stats() Stats {
	return p.stats
}

func (p *Processor) dispatch(ctx context.Context, lanes []chan job) error {
	defer func() {
		for _, lane := range lanes {
			close(lane)
		}
	}()

	for seq := 1; ; seq++ {
		holder, err := p.strategy.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read #%d message error: %w", seq, err)
		}

		select {
		case lanes[(seq-1)%len(lanes)] <- job{seq: seq, holder: holder}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *Processor) convert(ctx context.Context, in <-chan job, out chan<- job) error {
	defer close(out)

	for {
		var j job
		select {
		case next, ok := <-in:
			if !ok {
				return nil
			}
			j = next
		case <-ctx.Done():
			return ctx.Err()
		}

		p.convertOne(&j)

		select {
		case out <- j:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *Processor) convertOne(j *job) {
	if err := p.strategy.Decode(j.holder); err != nil {
		j.err = &ItemError{Seq: j.seq, Stage: StageDecode, Err: err}
		return
	}
	if p.labeler != nil {
		j.label = p.labeler.Label(j.holder)
	}
	if err := p.strategy.Encode(j.holder); err != nil {
		j.err = &ItemError{Seq: j.seq, Stage: StageEncode, Label: j.label, Err: err}
	}
}

// collect reads lanes in dispatch order. A closed lane at the expected
// position means dispatch stopped before producing that message, so nothing
// follows it on any lane.
func (p *Processor) collect(ctx context.Context, lanes []chan job) error {
	for i := 0; ; i++ {
		var j job
		select {
		case next, ok := <-lanes[i%len(lanes)]:
			if !ok {
				return nil
			}
			j = next
		case <-ctx.Done():
			return ctx.Err()
		}

		if err := p.finish(j); err != nil {
			return err
		}
	}
}

func (p *Processor) finish(j job) error {
	defer p.strategy.Release(j.holder)

	if j.err != nil {
		return p.skip(j.err)
	}
	if err := p.strategy.Write(j.holder); err != nil {
		return fmt.Errorf("write #%d message: %w", j.seq, err)
	}
	p.stats.Written++
	if p.stats.Labels != nil {
		p.stats.Labels[j.label]++
	}
	return nil
}

func (p *Processor) skip(err *ItemError) error {
	if err.Stage == StageDecode {
		p.stats.DecodeFailed++
	} else {
		p.stats.EncodeFailed++
	}
	if p.conf.failOnConvertErrors {
		return err
	}

	p.conf.logger.Debug("message skipped",
		zap.Int("message", err.Seq),
		zap.String("stage", string(err.Stage)),
		zap.String("label", err.Label),
		zap.Error(err.Err),
	)
	if _, werr := fmt.Fprintln(p.conf.errWriter, err.Error()); werr != nil {
		return fmt.Errorf("errWriter: %w", werr)
	}
	return nil
}

type conf struct {
	threads             int
	threadBuffer        int
	errWriter           io.Writer
	failOnConvertErrors bool
	logger              *zap.Logger
}

func newDefaultConf() conf {
	return conf{
		threads:      runtime.GOMAXPROCS(-1),
		threadBuffer: 100,
		errWriter:    os.Stderr,
		logger:       zap.NewNop(),
	}
}

type Option func(*conf)

func WithThreads(threads int) Option {
	return func(c *conf) {
		if threads > 0 {
			c.threads = threads
		}
	}
}

func WithThreadsBuffer(threadBuffer int) Option {
	return func(c *conf) {
		c.threadBuffer = threadBuffer
	}
}

func WithErrWriter(errWriter io.Writer) Option {
	return func(c *conf) {
		c.errWriter = errWriter
	}
}

func WithFailOnConvertErrors() Option {
	return func(c *conf) {
		c.failOnConvertErrors = true
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *conf) {
		c.logger = logger
	}
}
