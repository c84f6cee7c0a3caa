package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/megaversectl/internal/megaverse"
	"github.com/danmuck/megaversectl/internal/transport"
)

const (
	envBaseURL     = "API_BASE_URL"
	envCandidateID = "CANDIDATE_ID"
)

var errCandidateIDRequired = errors.New("CANDIDATE_ID environment variable not set")

// megaversectl config.toml key mapping to runtime settings.
type fileConfig struct {
	BaseURL          string `toml:"base_url"`
	CandidateID      string `toml:"candidate_id"`
	GridSize         int    `toml:"grid_size"`
	PacingMS         int64  `toml:"pacing_ms"`
	MaxRetries       int    `toml:"max_retries"`
	RetryDelayMS     int64  `toml:"retry_delay_ms"`
	MaxRetryDelayMS  int64  `toml:"max_retry_delay_ms"`
	RetryJitter      bool   `toml:"retry_jitter"`
	AttemptTimeoutMS int64  `toml:"attempt_timeout_ms"`
	MetricsPath      string `toml:"metrics_path"`
}

type runConfig struct {
	Transport   transport.Config
	Engine      megaverse.EngineConfig
	MetricsPath string
}

func defaultRunConfig() runConfig {
	return runConfig{
		Transport: transport.DefaultConfig(),
		Engine:    megaverse.DefaultEngineConfig(),
	}
}

// loadRunConfig overlays an optional TOML file and then the environment onto
// defaults. A missing candidate identifier is fatal.
func loadRunConfig(path string, getenv func(string) string) (runConfig, error) {
	cfg := defaultRunConfig()

	if path = strings.TrimSpace(path); path != "" {
		if err := applyFileConfig(&cfg, path); err != nil {
			return runConfig{}, err
		}
	}

	if v := strings.TrimSpace(getenv(envBaseURL)); v != "" {
		cfg.Transport.BaseURL = v
	}
	if v := strings.TrimSpace(getenv(envCandidateID)); v != "" {
		cfg.Transport.CandidateID = v
	}

	if strings.TrimSpace(cfg.Transport.CandidateID) == "" {
		return runConfig{}, fmt.Errorf("load config: %w", errCandidateIDRequired)
	}
	if strings.TrimSpace(cfg.Transport.BaseURL) == "" {
		return runConfig{}, fmt.Errorf("load config: base_url must not be empty")
	}
	if cfg.Engine.GridSize <= 0 {
		return runConfig{}, fmt.Errorf("load config: grid_size must be positive, got %d", cfg.Engine.GridSize)
	}
	if cfg.Engine.Pacing < 0 {
		return runConfig{}, fmt.Errorf("load config: pacing_ms must not be negative")
	}
	if cfg.Transport.MaxRetries <= 0 {
		return runConfig{}, fmt.Errorf("load config: max_retries must be positive, got %d", cfg.Transport.MaxRetries)
	}
	return cfg, nil
}

func applyFileConfig(cfg *runConfig, path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load megaversectl config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load megaversectl config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("base_url") {
		cfg.Transport.BaseURL = strings.TrimSpace(raw.BaseURL)
	}
	if meta.IsDefined("candidate_id") {
		cfg.Transport.CandidateID = strings.TrimSpace(raw.CandidateID)
	}
	if meta.IsDefined("grid_size") {
		cfg.Engine.GridSize = raw.GridSize
	}
	if meta.IsDefined("pacing_ms") {
		cfg.Engine.Pacing = time.Duration(raw.PacingMS) * time.Millisecond
	}
	if meta.IsDefined("max_retries") {
		cfg.Transport.MaxRetries = raw.MaxRetries
	}
	if meta.IsDefined("retry_delay_ms") {
		cfg.Transport.Backoff.InitialDelay = time.Duration(raw.RetryDelayMS) * time.Millisecond
	}
	if meta.IsDefined("max_retry_delay_ms") {
		cfg.Transport.Backoff.MaxDelay = time.Duration(raw.MaxRetryDelayMS) * time.Millisecond
	}
	if meta.IsDefined("retry_jitter") {
		cfg.Transport.Backoff.Jitter = raw.RetryJitter
	}
	if meta.IsDefined("attempt_timeout_ms") {
		cfg.Transport.AttemptTimeout = time.Duration(raw.AttemptTimeoutMS) * time.Millisecond
	}
	if meta.IsDefined("metrics_path") {
		cfg.MetricsPath = strings.TrimSpace(raw.MetricsPath)
	}
	return nil
}
