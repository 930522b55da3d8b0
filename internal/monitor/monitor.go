package monitor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/uptime-industries/ccvs-speed/pkg/eventbus"
	"github.com/uptime-industries/ccvs-speed/pkg/j1939/payload"
	"github.com/uptime-industries/ccvs-speed/pkg/log"
	"github.com/uptime-industries/ccvs-speed/pkg/util"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const samplesTopic = "ccvs:samples"

// Monitor decodes a stream of payloads, one hex encoded payload per line.
type Monitor interface {
	// Run blocks until the input is exhausted or the context is canceled
	Run(ctx context.Context) error
}

// MonitorOpts are the options for the Monitor
type MonitorOpts struct {
	// Input provides newline separated hex payloads. Empty lines and lines starting with '#' are skipped.
	Input io.Reader
	// Output receives one line per sample, nothing is printed when nil
	Output io.Writer
	// Clock is used to timestamp samples
	Clock util.Clock
	// BufferSize is the receive queue size of each consumer
	BufferSize int
}

type monitorImpl struct {
	input      io.Reader
	output     io.Writer
	clock      util.Clock
	bufferSize int
}

func NewMonitor(opts MonitorOpts) Monitor {
	clock := opts.Clock
	if clock == nil {
		clock = util.RealClock{}
	}
	bufSize := opts.BufferSize
	if bufSize <= 0 {
		bufSize = 16
	}
	return &monitorImpl{
		input:      opts.Input,
		output:     opts.Output,
		clock:      clock,
		bufferSize: bufSize,
	}
}

func (m *monitorImpl) Run(parentCtx context.Context) error {
	bus := eventbus.New[Sample]()
	group, ctx := errgroup.WithContext(parentCtx)

	// Subscribe before reading so no sample is missed
	metricsSub := bus.Subscribe(samplesTopic, m.bufferSize, eventbus.MatchAll[Sample])
	group.Go(func() error {
		return consume(ctx, metricsSub, recordMetrics)
	})

	if m.output != nil {
		printSub := bus.Subscribe(samplesTopic, m.bufferSize, eventbus.MatchAll[Sample])
		group.Go(func() error {
			var err error
			return consume(ctx, printSub, func(s Sample) {
				if err != nil {
					return
				}
				if _, err = fmt.Fprintln(m.output, s.String()); err != nil {
					log.FromContext(ctx).Error("Failed to write sample", zap.Error(err))
				}
			})
		})
	}

	group.Go(func() error {
		// Closing the bus lets the consumers drain and exit
		defer bus.Close()
		return m.read(ctx, bus)
	})

	return group.Wait()
}

// scanResult is one line or the terminal scan error
type scanResult struct {
	line string
	err  error
}

// scan feeds input lines to the returned channel, which is closed once the input is exhausted.
// The goroutine may outlive Run while a Read is blocked, it exits with the next Read.
func scan(input io.Reader, done <-chan struct{}) <-chan scanResult {
	lines := make(chan scanResult)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(input)
		for scanner.Scan() {
			select {
			case lines <- scanResult{line: scanner.Text()}:
			case <-done:
				return
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case lines <- scanResult{err: err}:
			case <-done:
			}
		}
	}()
	return lines
}

// read delivers a sample per payload line. It returns as soon as ctx is done, even while a Read is pending.
func (m *monitorImpl) read(ctx context.Context, bus *eventbus.Bus[Sample]) error {
	logger := log.FromContext(ctx)
	lines := scan(m.input, ctx.Done())

	lineNo := 0
	for {
		var res scanResult
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res, ok = <-lines:
		}
		if !ok {
			break
		}
		if res.err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to read payloads: %w", res.err)
		}

		lineNo++
		line := strings.TrimSpace(res.line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var sample Sample
		msg, err := payload.ParseHex(line)
		if err != nil {
			logger.Warn("Skipping malformed payload", zap.Int("line", lineNo), zap.Error(err))
			sample = Sample{Time: m.clock.Now(), Err: fmt.Errorf("%w: %w", ErrMalformed, err)}
		} else {
			sample = NewSample(m.clock.Now(), msg)
			logger.Debug("Decoded payload",
				zap.Int("line", lineNo),
				zap.String("payload", payload.FormatHex(msg)),
				zap.String("result", sample.Result()),
				zap.Float64("mph", sample.MPH),
			)
		}

		if err := bus.Deliver(ctx, samplesTopic, sample); err != nil {
			return err
		}
	}

	logger.Info("Input exhausted", zap.Int("lines", lineNo))
	return nil
}

func consume(ctx context.Context, sub eventbus.Subscriber[Sample], handle func(Sample)) error {
	defer sub.Unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sample, ok := <-sub.C():
			if !ok {
				return nil
			}
			handle(sample)
		}
	}
}

func recordMetrics(s Sample) {
	messageCounter.WithLabelValues(s.Result()).Inc()
	if s.Valid() {
		speedMPH.Set(s.MPH)
	}
}
