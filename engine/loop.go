// Package engine runs an application's frame loop against a driver.
package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"
	"golang.org/x/exp/slog"
)

// ErrLoopFinished is returned by Run on a loop that has already run.
var ErrLoopFinished = errors.New("engine: frame loop already ran")

// MinSleep is the shortest remainder of a frame budget worth sleeping for.
const MinSleep = time.Millisecond

// FrameInfo describes one iteration of the loop.
type FrameInfo struct {
	Index  uint64
	Total  time.Duration
	Delta  time.Duration
	Budget time.Duration
}

// Driver is what the loop drives. Term is called exactly once per Run,
// even when Init fails, and must cope with a partial Init.
type Driver interface {
	Init() error
	ProcessEvents(stop func()) error
	Render(frame FrameInfo) error
	Term()
}

type FrameLoop struct {
	app    Application
	driver Driver
	logger *slog.Logger

	// Now and Sleep default to hrtime.Now and time.Sleep.
	Now   func() time.Duration
	Sleep func(time.Duration)

	started  atomic.Bool
	running  atomic.Bool
	stopped  atomic.Bool
	stopOnce sync.Once
	frames   uint64
}

func NewFrameLoop(app Application, driver Driver, logger *slog.Logger) *FrameLoop {
	if logger == nil {
		logger = NewLogger(nil, slog.LevelInfo)
	}
	return &FrameLoop{
		app:    app,
		driver: driver,
		logger: logger.With(slog.String("component", "loop")),
		Now:    hrtime.Now,
		Sleep:  time.Sleep,
	}
}

// Run initializes the driver and renders frames until Stop is called or
// the driver asks to stop. A loop runs once; later calls return
// ErrLoopFinished.
func (l *FrameLoop) Run() error {
	if !l.started.CompareAndSwap(false, true) {
		return ErrLoopFinished
	}
	l.running.Store(true)
	defer l.running.Store(false)
	defer l.driver.Term()

	l.logger.Info("starting",
		slog.String("app", l.app.Name()),
		slog.String("version", l.app.Version().String()),
		slog.Float64("target_fps", l.app.TargetFrameRate()))

	if err := l.driver.Init(); err != nil {
		return errors.Wrap(err, "engine: init")
	}

	budget := l.budget()
	start := l.Now()
	last := start

	for !l.stopped.Load() {
		now := l.Now()
		frame := FrameInfo{
			Index:  l.frames,
			Total:  now - start,
			Delta:  now - last,
			Budget: budget,
		}
		last = now

		if err := l.driver.ProcessEvents(l.Stop); err != nil {
			return errors.Wrapf(err, "engine: frame %d: events", frame.Index)
		}
		if err := l.driver.Render(frame); err != nil {
			return errors.Wrapf(err, "engine: frame %d: render", frame.Index)
		}
		l.frames++

		if remaining := budget - (l.Now() - now); remaining > MinSleep {
			l.Sleep(remaining)
		}
	}

	l.logger.Info("stopped", slog.Uint64("frames", l.frames))
	return nil
}

// Stop asks the loop to exit after the current frame. It may be called
// from any goroutine, including before Run; the application's OnStop runs
// on the first call only.
func (l *FrameLoop) Stop() {
	l.stopped.Store(true)
	l.stopOnce.Do(l.app.OnStop)
}

// Running reports whether Run is in progress.
func (l *FrameLoop) Running() bool {
	return l.running.Load()
}

func (l *FrameLoop) budget() time.Duration {
	rate := l.app.TargetFrameRate()
	if rate <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / rate)
}
