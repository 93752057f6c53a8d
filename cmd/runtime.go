package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/schollz/progressbar/v3"

	"github.com/kozaktomas/facegate/internal/access"
	"github.com/kozaktomas/facegate/internal/actuator"
	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/facematch"
	"github.com/kozaktomas/facegate/internal/gallery"
)

// loadConfig reads and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadGallery loads the enrolled faces, optionally drawing a progress bar.
func loadGallery(cfg *config.Config, showProgress bool) (*gallery.Gallery, []gallery.Warning, error) {
	opts := []gallery.Option{gallery.WithLogger(slog.Default())}
	if showProgress {
		bar := progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Loading faces"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("faces"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionFullWidth(),
		)
		defer func() {
			_ = bar.Finish()
			fmt.Println()
		}()
		opts = append(opts, gallery.WithProgress(bar))
	}

	g, warnings, err := gallery.Load(cfg.Gallery.Dir, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("loading gallery: %w", err)
	}
	return g, warnings, nil
}

// openGateway opens the serial actuator. Failure is not fatal: a
// disconnected gateway is returned and every unlock is reported as unreachable.
func openGateway(ctx context.Context, cfg *config.ActuatorConfig) actuator.Gateway {
	if cfg.Port == "" {
		slog.Warn("no actuator port configured, running in decision and audit only mode")
		return &actuator.Disconnected{Reason: errors.New("no actuator port configured")}
	}

	gw, err := actuator.OpenSerial(ctx, serialConfig(cfg))
	if err != nil {
		slog.Warn("actuator unavailable, running in decision and audit only mode", "port", cfg.Port, "error", err)
		return &actuator.Disconnected{Channel: cfg.Port, Reason: err}
	}
	return gw
}

func serialConfig(cfg *config.ActuatorConfig) actuator.SerialConfig {
	return actuator.SerialConfig{
		Port:    cfg.Port,
		Baud:    cfg.Baud,
		Token:   cfg.Token[0],
		Timeout: cfg.Timeout,
		Settle:  cfg.Settle,
	}
}

func controllerConfig(cfg *config.Config) access.Config {
	return access.Config{
		Threshold: cfg.Access.Threshold,
		Timing: access.Timing{
			CooldownPeriod: cfg.Access.CooldownPeriod,
			UnlockDuration: cfg.Access.UnlockDuration,
		},
	}
}

// newMatcher builds the matcher for the configured scorer.
func newMatcher(cfg *config.Config) (*facematch.Matcher, error) {
	scorer, err := facematch.ScorerByName(cfg.Access.Scorer)
	if err != nil {
		return nil, err
	}
	return facematch.NewMatcher(scorer), nil
}
