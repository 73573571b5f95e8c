package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"fractalforest/internal/scene"
)

// startPlayback replays the history on a goroutine. Steps come back to
// Update as playStepMsg through m.playSteps, so the composer is only
// touched from Update.
func (m model) startPlayback() (tea.Model, tea.Cmd) {
	if m.composer.History().Len() < 2 {
		m.successMessage = "Nothing to play"
		return m, nil
	}
	m.endGesture()
	ctx, cancel := context.WithCancel(context.Background())
	steps := make(chan tea.Msg)
	m.playCancel = cancel
	m.playSteps = steps
	m.mode = ModePlayback
	c := m.composer
	speed := m.config.Playback.Speed
	go func() {
		defer close(steps)
		started, err := c.Play(ctx, speed, func(i int, snap scene.Snapshot) {
			select {
			case steps <- playStepMsg{index: i, snap: snap}:
			case <-ctx.Done():
			}
		})
		steps <- playDoneMsg{started: started, err: err}
	}()
	return m, waitForPlayback(steps)
}

func waitForPlayback(steps chan tea.Msg) tea.Cmd {
	if steps == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-steps
		if !ok {
			return nil
		}
		return msg
	}
}

func (m *model) cancelPlayback() {
	if m.playCancel != nil {
		m.playCancel()
	}
}

// stopPlayback cancels a replay on quit.
func (m *model) stopPlayback() {
	m.cancelPlayback()
	m.playCancel = nil
}

func (m model) finishPlayback(msg playDoneMsg) model {
	if m.playCancel != nil {
		m.playCancel()
	}
	m.playCancel = nil
	m.playSteps = nil
	m.mode = ModeNormal
	m.composer.Resync()
	switch {
	case errors.Is(msg.err, context.Canceled):
		m.successMessage = "Playback cancelled"
	case msg.err != nil:
		m.errorMessage = msg.err.Error()
	case !msg.started:
		m.successMessage = "Playback already running"
	default:
		m.successMessage = fmt.Sprintf("Played %d steps", m.composer.History().Len())
	}
	return m
}

func animationTick() tea.Cmd {
	return tea.Tick(windFrameRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
