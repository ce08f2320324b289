package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LSA_DATA_DIR", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.FPS != 30 {
		t.Errorf("FPS = %d, want 30", cfg.FPS)
	}
	if cfg.Width != 640 || cfg.Height != 480 {
		t.Errorf("frame size = %dx%d, want 640x480", cfg.Width, cfg.Height)
	}
	if cfg.HistoryLimit != 100 {
		t.Errorf("HistoryLimit = %d, want 100", cfg.HistoryLimit)
	}
	if cfg.MotionThreshold != 0 {
		t.Errorf("MotionThreshold = %f, want 0", cfg.MotionThreshold)
	}
	if cfg.IdleTimeout != 2*time.Second {
		t.Errorf("IdleTimeout = %v, want 2s", cfg.IdleTimeout)
	}
	if cfg.DBPath != filepath.Join(cfg.DataDir, "lsainterp.db") {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.TrayEnabled {
		t.Error("tray should be disabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LSA_DATA_DIR", t.TempDir())
	t.Setenv("LSA_FPS", "15")
	t.Setenv("LSA_DB_PATH", "/tmp/custom.db")
	t.Setenv("LSA_MOTION_THRESHOLD", "1.5")
	t.Setenv("LSA_LOG_DEV", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.FPS != 15 {
		t.Errorf("FPS = %d, want 15", cfg.FPS)
	}
	if cfg.DBPath != "/tmp/custom.db" {
		t.Errorf("DBPath = %q, want /tmp/custom.db", cfg.DBPath)
	}
	if cfg.MotionThreshold != 1.5 {
		t.Errorf("MotionThreshold = %f, want 1.5", cfg.MotionThreshold)
	}
	if !cfg.LogDev {
		t.Error("LogDev should be true")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantMsg string
	}{
		{"unparsable", "LSA_FPS", "fast", "parse env:"},
		{"zero fps", "LSA_FPS", "0", "LSA_FPS must be positive"},
		{"threshold too high", "LSA_MOTION_THRESHOLD", "150", "LSA_MOTION_THRESHOLD"},
		{"zero history", "LSA_HISTORY_LIMIT", "0", "LSA_HISTORY_LIMIT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LSA_DATA_DIR", t.TempDir())
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %v, want containing %q", err, tt.wantMsg)
			}
		})
	}
}
