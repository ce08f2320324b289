// Package config reads runtime settings from LSA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration.
type Config struct {
	CameraID int `env:"LSA_CAMERA_ID" envDefault:"0"`
	FPS      int `env:"LSA_FPS" envDefault:"30"`
	Width    int `env:"LSA_FRAME_WIDTH" envDefault:"640"`
	Height   int `env:"LSA_FRAME_HEIGHT" envDefault:"480"`

	HTTPAddr string `env:"LSA_HTTP_ADDR" envDefault:"127.0.0.1:8080"`

	// DataDir defaults to ~/.lsainterp. DBPath defaults to DataDir/lsainterp.db.
	DataDir string `env:"LSA_DATA_DIR"`
	DBPath  string `env:"LSA_DB_PATH"`

	FaceCascade string `env:"LSA_FACE_CASCADE" envDefault:"haarcascade_frontalface_default.xml"`
	// EyeCascade is optional; eyes are only used for annotation.
	EyeCascade string `env:"LSA_EYE_CASCADE"`

	LogLevel string `env:"LSA_LOG_LEVEL" envDefault:"info"`
	LogDev   bool   `env:"LSA_LOG_DEV" envDefault:"false"`

	HistoryLimit    int           `env:"LSA_HISTORY_LIMIT" envDefault:"100"`
	MotionThreshold float64       `env:"LSA_MOTION_THRESHOLD" envDefault:"0"`
	IdleTimeout     time.Duration `env:"LSA_IDLE_TIMEOUT" envDefault:"2s"`
	TrayEnabled     bool          `env:"LSA_TRAY" envDefault:"false"`
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment, fills derived paths and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve data dir: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".lsainterp")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "lsainterp.db")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	var errs []error
	if c.FPS <= 0 {
		errs = append(errs, fmt.Errorf("LSA_FPS must be positive, got %d", c.FPS))
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("frame size must be positive, got %dx%d", c.Width, c.Height))
	}
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("LSA_HTTP_ADDR must not be empty"))
	}
	if c.FaceCascade == "" {
		errs = append(errs, errors.New("LSA_FACE_CASCADE must not be empty"))
	}
	if c.HistoryLimit <= 0 {
		errs = append(errs, fmt.Errorf("LSA_HISTORY_LIMIT must be positive, got %d", c.HistoryLimit))
	}
	if c.MotionThreshold < 0 || c.MotionThreshold > 100 {
		errs = append(errs, fmt.Errorf("LSA_MOTION_THRESHOLD must be within [0, 100], got %g", c.MotionThreshold))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
