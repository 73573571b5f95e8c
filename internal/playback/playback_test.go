package playback

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPlayer() *Player {
	return &Player{StepUnit: time.Microsecond}
}

func TestDelayBounds(t *testing.T) {
	p := &Player{}
	assert.Equal(t, 1000*time.Millisecond, p.Delay(1))
	assert.Equal(t, time.Millisecond, p.Delay(1000))
	assert.Equal(t, 1000*time.Millisecond, p.Delay(-50))
	assert.Equal(t, time.Millisecond, p.Delay(5000))
	assert.Equal(t, 501*time.Millisecond, p.Delay(500))
}

func TestPlayOrder(t *testing.T) {
	var got []int
	started, err := fastPlayer().Play(context.Background(), 4, 1000, func(i int) {
		got = append(got, i)
	})
	require.NoError(t, err)
	assert.True(t, started)
	assert.Equal(t, []int{-1, 0, 1, 2, 3}, got)
}

func TestPlayNeedsTwoEntries(t *testing.T) {
	called := false
	started, err := fastPlayer().Play(context.Background(), 1, 1000, func(int) { called = true })
	assert.NoError(t, err)
	assert.False(t, started)
	assert.False(t, called)
}

func TestPlayIsNotReentrant(t *testing.T) {
	p := &Player{StepUnit: time.Millisecond}
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := p.Play(context.Background(), 3, 1000, func(i int) {
			if i == 0 {
				once.Do(func() { close(entered) })
				<-release
			}
		})
		assert.NoError(t, err)
	}()

	<-entered
	assert.True(t, p.Playing())
	calls := 0
	started, err := p.Play(context.Background(), 3, 1000, func(int) { calls++ })
	assert.NoError(t, err)
	assert.False(t, started)
	assert.Zero(t, calls)

	close(release)
	<-done
	assert.False(t, p.Playing(), "completion re-enables playback")

	started, _ = fastPlayer().Play(context.Background(), 2, 1000, func(int) {})
	assert.True(t, started)
}

func TestPlayCancel(t *testing.T) {
	p := &Player{StepUnit: time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	var got []int
	started, err := p.Play(ctx, 5, 1, func(i int) {
		got = append(got, i)
		if i == 0 {
			cancel()
		}
	})
	assert.True(t, started)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int{-1, 0}, got)
	assert.False(t, p.Playing())
}
