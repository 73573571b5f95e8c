package main

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"fractalforest/internal/compose"
	"fractalforest/internal/config"
	"fractalforest/internal/render"
	"fractalforest/internal/scene"
)

type model struct {
	width   int
	height  int
	cursorX int
	cursorY int

	composer *compose.Composer
	config   *config.Config
	log      *slog.Logger
	canvas   *Canvas
	wind     render.Options

	mode          Mode
	help          bool
	helpScroll    int
	presetIndex   int
	applyAll      bool
	frame         uint32
	animTime      float64
	animating     bool
	filename      string
	fileList      []string
	selectedFile  int
	fileOp        FileOperation
	confirmAction ConfirmAction
	lastExport    string

	playCancel context.CancelFunc
	playSteps  chan tea.Msg

	errorMessage   string
	successMessage string
}

// playStepMsg carries one replay step into Update.
type playStepMsg struct {
	index int
	snap  scene.Snapshot
}

type playDoneMsg struct {
	started bool
	err     error
}

type tickMsg time.Time
