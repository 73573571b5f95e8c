package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"

	"fractalforest/internal/compose"
	"fractalforest/internal/config"
	"fractalforest/internal/render"
)

func main() {
	var (
		configPath  = flag.String("config", config.DefaultPath(), "path to the config file")
		sessionPath = flag.String("session", "", "session file to open")
		pngOut      = flag.String("png", "", "render the session to this PNG and exit")
		svgOut      = flag.String("svg", "", "render the session to this SVG and exit")
		layersDir   = flag.String("layers", "", "write the background, ferns, strokes and combined PNG layers to this directory and exit")
		watch       = flag.Bool("watch", false, "with -png/-svg/-layers, re-export whenever the session file changes")
	)
	flag.Parse()

	cfg, cfgErr := loadConfig(*configPath)

	if *pngOut != "" || *svgOut != "" || *layersDir != "" {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		if cfgErr != nil {
			logger.Warn("config not loaded, using defaults", "err", cfgErr)
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		job := headlessJob{
			session: *sessionPath,
			png:     *pngOut,
			svg:     *svgOut,
			layers:  *layersDir,
			watch:   *watch,
		}
		if err := runHeadless(ctx, job, cfg, logger); err != nil {
			logger.Error("export failed", "err", err)
			os.Exit(1)
		}
		return
	}

	logger, closeLog := tuiLogger()
	defer closeLog()

	m := initialModel(cfg, logger)
	if cfgErr != nil {
		m.errorMessage = cfgErr.Error()
	}
	if *sessionPath != "" {
		if err := m.composer.LoadSession(*sessionPath); err != nil {
			m.errorMessage = err.Error()
		} else {
			m.successMessage = fmt.Sprintf("Opened %s", *sessionPath)
		}
	}

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}
}

// tuiLogger logs to fractalforest.log when FRACTALFOREST_DEBUG is set; the
// alternate screen owns the terminal otherwise.
func tuiLogger() (*slog.Logger, func()) {
	if os.Getenv(debugEnv) == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}
	}
	f, err := tea.LogToFile(logFileName, "fractalforest")
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() { f.Close() }
}

func initialModel(cfg *config.Config, logger *slog.Logger) model {
	settings := compose.SettingsFromConfig(cfg)
	c := compose.New(settings,
		compose.WithLogger(logger),
		compose.WithStyle(compose.StyleFromConfig(cfg)),
	)
	c.Player().InitialDelay = initialDelay(cfg)
	return model{
		composer:    c,
		config:      cfg,
		log:         logger,
		canvas:      NewCanvas(cfg.Canvas.Width, cfg.Canvas.Height),
		mode:        ModeNormal,
		presetIndex: -1,
		wind:        render.DefaultOptions(cfg.Canvas.Width, cfg.Canvas.Height),
	}
}
