package main

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"fractalforest/internal/compose"
	"fractalforest/internal/config"
	"fractalforest/internal/render"
	"fractalforest/internal/session"
)

type headlessJob struct {
	session string
	png     string
	svg     string
	layers  string
	watch   bool
}

// runHeadless renders the session's current entry to the requested
// outputs. With watch set it renders again whenever the session file is
// rewritten, until ctx is cancelled.
func runHeadless(ctx context.Context, job headlessJob, cfg *config.Config, logger *slog.Logger) error {
	if job.session == "" {
		return errors.New("-session is required with -png, -svg or -layers")
	}
	if err := exportSession(job, cfg, logger); err != nil {
		return err
	}
	if !job.watch {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	abs, err := filepath.Abs(job.session)
	if err != nil {
		return err
	}
	// sessions are saved by renaming a temp file over the old one, so the
	// directory is watched rather than the file
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	logger.Info("watching session", "path", abs)

	const settle = 100 * time.Millisecond
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				pending = time.After(settle)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)
		case <-pending:
			pending = nil
			if err := exportSession(job, cfg, logger); err != nil {
				logger.Error("export failed", "path", abs, "err", err)
			}
		}
	}
}

func exportSession(job headlessJob, cfg *config.Config, logger *slog.Logger) error {
	c := compose.New(compose.SettingsFromConfig(cfg), compose.WithLogger(logger))
	if err := c.LoadSession(job.session); err != nil {
		return err
	}
	opts := render.DefaultOptions(cfg.Canvas.Width, cfg.Canvas.Height)
	opts.Caption = cfg.Export.Caption
	if job.png != "" {
		if err := c.ExportPNG(job.png, opts); err != nil {
			return err
		}
	}
	if job.svg != "" {
		svgOpts := render.SVGOptions{Width: cfg.Canvas.Width, Height: cfg.Canvas.Height, FernThin: cfg.Export.FernThin}
		if err := c.ExportSVG(job.svg, svgOpts); err != nil {
			return err
		}
	}
	if job.layers != "" {
		if _, err := c.ExportLayers(job.layers, time.Now().Format(session.StampLayout), opts); err != nil {
			return err
		}
	}
	return nil
}
