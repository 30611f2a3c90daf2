package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.ServerPort != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.ServerPort)
	}
	if !cfg.AutoRegister {
		t.Error("Expected auto-register enabled by default")
	}
	if cfg.MaxRangeDays != 360 {
		t.Errorf("Expected default range cap 360, got %d", cfg.MaxRangeDays)
	}
	if cfg.OccupancyPeriod != 5*time.Second {
		t.Errorf("Expected default occupancy period 5s, got %v", cfg.OccupancyPeriod)
	}
	if cfg.PositionsPeriod != 2*time.Second {
		t.Errorf("Expected default positions period 2s, got %v", cfg.PositionsPeriod)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("YARD_AUTO_REGISTER", "false")
	t.Setenv("REPORT_MAX_RANGE_DAYS", "30")
	t.Setenv("STREAM_OCCUPANCY_SECONDS", "1")

	cfg := Load()

	if cfg.ServerPort != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.ServerPort)
	}
	if cfg.AutoRegister {
		t.Error("Expected auto-register disabled")
	}
	if cfg.MaxRangeDays != 30 {
		t.Errorf("Expected range cap 30, got %d", cfg.MaxRangeDays)
	}
	if cfg.OccupancyPeriod != time.Second {
		t.Errorf("Expected occupancy period 1s, got %v", cfg.OccupancyPeriod)
	}
}

func TestLoadIgnoresInvalidValues(t *testing.T) {
	t.Setenv("YARD_AUTO_REGISTER", "sim")
	t.Setenv("REPORT_MAX_RANGE_DAYS", "-5")

	cfg := Load()

	if !cfg.AutoRegister {
		t.Error("Expected fallback to default on unparseable bool")
	}
	if cfg.MaxRangeDays != 360 {
		t.Errorf("Expected fallback to 360 on non-positive value, got %d", cfg.MaxRangeDays)
	}
}
