// Package playback replays a history at a fixed cadence.
package playback

import (
	"context"
	"sync/atomic"
	"time"
)

// Speed bounds. The delay between steps is (MaxSpeed+1-speed) step units,
// so it stays between 1 and MaxSpeed units.
const (
	MinSpeed = 1
	MaxSpeed = 1000
)

// Defaults match the browser version: half a second before the first entry,
// 1 ms units so speed 1000 steps every millisecond.
const (
	DefaultInitialDelay = 500 * time.Millisecond
	DefaultStepUnit     = time.Millisecond
)

// Player sequences history steps. A zero StepUnit means DefaultStepUnit.
type Player struct {
	InitialDelay time.Duration
	StepUnit     time.Duration

	playing atomic.Bool
}

// New returns a player with the default timings.
func New() *Player {
	return &Player{InitialDelay: DefaultInitialDelay, StepUnit: DefaultStepUnit}
}

// Delay returns the wait between two steps at speed.
func (p *Player) Delay(speed int) time.Duration {
	unit := p.StepUnit
	if unit <= 0 {
		unit = DefaultStepUnit
	}
	return time.Duration(MaxSpeed+1-ClampSpeed(speed)) * unit
}

// ClampSpeed bounds speed to [MinSpeed, MaxSpeed].
func ClampSpeed(speed int) int {
	return max(MinSpeed, min(MaxSpeed, speed))
}

// Playing reports whether a replay is in flight.
func (p *Player) Playing() bool {
	return p.playing.Load()
}

// Play calls step(-1) to restore the empty baseline, waits InitialDelay,
// then calls step(i) for every i in [0, n) with Delay(speed) between calls.
// It returns started=false without doing anything when n < 2 or another
// replay is running. Cancelling ctx stops between steps and returns its
// error.
func (p *Player) Play(ctx context.Context, n, speed int, step func(i int)) (started bool, err error) {
	if n < 2 {
		return false, nil
	}
	if !p.playing.CompareAndSwap(false, true) {
		return false, nil
	}
	defer p.playing.Store(false)

	initial := p.InitialDelay
	if initial < 0 {
		initial = 0
	}
	step(-1)
	if err := wait(ctx, initial); err != nil {
		return true, err
	}
	delay := p.Delay(speed)
	for i := 0; i < n; i++ {
		step(i)
		if i == n-1 {
			break
		}
		if err := wait(ctx, delay); err != nil {
			return true, err
		}
	}
	return true, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
