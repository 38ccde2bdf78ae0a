package engine

import (
	"flag"
	"io"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/slog"
)

// Config is what a program built on the engine can be started with.
type Config struct {
	Name            string
	Version         Version
	Width, Height   int
	Backbuffers     int
	TargetFrameRate float64
	Validation      bool
	LogLevel        slog.Level
}

func DefaultConfig() Config {
	return Config{
		Name:            DefaultName,
		Width:           1024,
		Height:          768,
		Backbuffers:     2,
		TargetFrameRate: DefaultTargetFrameRate,
		LogLevel:        slog.LevelInfo,
	}
}

// ParseFlags overlays command line flags on base.
func ParseFlags(base Config, args []string) (Config, error) {
	cfg := base
	version := cfg.Version.String()

	fs := flag.NewFlagSet(cfg.Name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.Name, "name", cfg.Name, "application name")
	fs.StringVar(&version, "version", version, "application version, major.minor.patch")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "window width")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "window height")
	fs.IntVar(&cfg.Backbuffers, "backbuffers", cfg.Backbuffers, "requested swapchain image count")
	fs.Float64Var(&cfg.TargetFrameRate, "fps", cfg.TargetFrameRate, "target frames per second")
	fs.BoolVar(&cfg.Validation, "validation", cfg.Validation, "enable the validation layer and debug messenger")
	fs.TextVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return base, errors.Wrap(err, "engine: parse flags")
	}
	if fs.NArg() > 0 {
		return base, errors.Newf("engine: unexpected arguments %q", fs.Args())
	}

	cfg.Version = ParseVersion(version)
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return base, errors.Newf("engine: window size %dx%d is empty", cfg.Width, cfg.Height)
	}
	if cfg.TargetFrameRate <= 0 {
		return base, errors.Newf("engine: target frame rate %v must be positive", cfg.TargetFrameRate)
	}
	return cfg, nil
}

// Application returns the Application described by the config.
func (c Config) Application() BaseApplication {
	return BaseApplication{
		AppName:    c.Name,
		AppVersion: c.Version,
		FrameRate:  c.TargetFrameRate,
	}
}
