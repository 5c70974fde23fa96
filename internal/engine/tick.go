// Package engine provides the fixed-rate tick loop and the Game state it drives.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultInterval = 100 * time.Millisecond // 10 ticks per game second
	pausedPoll      = 100 * time.Millisecond
)

// Engine drives the game forward at a fixed cadence.
type Engine struct {
	Interval time.Duration // Game time per tick; also the wall-clock period at speed 1

	// Callbacks for each tick layer, populated during setup.
	OnTick   func(tick uint64) // Every tick
	OnSecond func(tick uint64) // Each time a full game second elapses
	OnMinute func(tick uint64) // Each time a full game minute elapses

	tick     atomic.Uint64
	skipped  atomic.Uint64
	stepping atomic.Bool
	running  atomic.Bool

	mu      sync.Mutex
	speed   float64 // 1.0 = real-time, 0 = paused
	stop    chan struct{}
	stopped bool
}

// NewEngine creates an engine with the default 100ms interval at speed 1.
func NewEngine() *Engine {
	return &Engine{
		Interval: DefaultInterval,
		speed:    1.0,
	}
}

// Tick returns the number of ticks processed so far.
func (e *Engine) Tick() uint64 { return e.tick.Load() }

// Skipped returns how many Step calls were dropped because a step was
// already in progress.
func (e *Engine) Skipped() uint64 { return e.skipped.Load() }

// Running reports whether Run is active.
func (e *Engine) Running() bool { return e.running.Load() }

// Speed returns the current wall-clock multiplier.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed changes the wall-clock multiplier. Zero or negative pauses.
// Game time per tick is unaffected.
func (e *Engine) SetSpeed(speed float64) {
	if speed < 0 {
		speed = 0
	}
	e.mu.Lock()
	e.speed = speed
	e.mu.Unlock()
	slog.Info("engine speed changed", "speed", speed)
}

// DeltaSeconds is the game time added by one tick.
func (e *Engine) DeltaSeconds() float64 {
	return e.interval().Seconds()
}

func (e *Engine) interval() time.Duration {
	if e.Interval <= 0 {
		return DefaultInterval
	}
	return e.Interval
}

// Run starts the tick loop. Blocks until ctx is cancelled or Stop is called.
// Late ticks are not caught up. Once the engine is stopped Run returns
// immediately.
func (e *Engine) Run(ctx context.Context) {
	stop := e.stopChan()
	select {
	case <-stop:
		slog.Info("tick engine already stopped", "tick", e.Tick())
		return
	default:
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	e.running.Store(true)
	defer e.running.Store(false)
	slog.Info("tick engine started", "tick", e.Tick(), "interval", e.interval(), "speed", e.Speed())

	for {
		speed := e.Speed()
		if speed <= 0 {
			if !sleep(ctx, pausedPoll) {
				break
			}
			continue
		}

		start := time.Now()
		e.Step()

		target := time.Duration(float64(e.interval()) / speed)
		if elapsed := time.Since(start); elapsed < target {
			if !sleep(ctx, target-elapsed) {
				break
			}
		} else if ctx.Err() != nil {
			break
		}
	}

	slog.Info("tick engine stopped", "tick", e.Tick())
}

// Stop halts every running loop and makes later Run calls return at once.
// Safe to call more than once, and before Run.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return
	}
	e.stopped = true
	if e.stop == nil {
		e.stop = make(chan struct{})
	}
	close(e.stop)
}

func (e *Engine) stopChan() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stop == nil {
		e.stop = make(chan struct{})
	}
	return e.stop
}

// Step advances one tick and runs the callbacks. If another step is still
// in progress the call is skipped and counted, and Step returns false.
func (e *Engine) Step() bool {
	if !e.stepping.CompareAndSwap(false, true) {
		n := e.skipped.Add(1)
		slog.Warn("tick skipped, previous step still running", "tick", e.Tick(), "skipped", n)
		return false
	}
	defer e.stepping.Store(false)

	tick := e.tick.Add(1)
	iv := e.interval()

	if e.OnTick != nil {
		e.OnTick(tick)
	}

	prev, now := elapsed(tick-1, iv), elapsed(tick, iv)
	if now/time.Second != prev/time.Second && e.OnSecond != nil {
		e.OnSecond(tick)
	}
	if now/time.Minute != prev/time.Minute && e.OnMinute != nil {
		e.OnMinute(tick)
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func elapsed(tick uint64, interval time.Duration) time.Duration {
	return time.Duration(tick) * interval
}

// ElapsedTime formats the game time after tick ticks of interval as HH:MM:SS.
// Hours keep counting past 99.
func ElapsedTime(tick uint64, interval time.Duration) string {
	secs := uint64(elapsed(tick, interval) / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}
