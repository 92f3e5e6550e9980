package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"versusbot.dev/wreck-league-go/internal/bot"
	"versusbot.dev/wreck-league-go/internal/match"
	"versusbot.dev/wreck-league-go/internal/vote"
)

func TestLoadFromINI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Settings.ini")
	content := `[Settings]
teamPreference = second
fuelStrategy = custom
customFuelAmount = 4
minFuelThreshold = 2
minDelaySeconds = 3
maxDelaySeconds = 20
executionMode = sequential
maxNextMatchWaitSeconds = 600
journalVotes = false
logLevel = debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadFromINI(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Team != match.PreferenceSecond {
		t.Errorf("Expected second team preference, got %v", cfg.Team)
	}
	if cfg.Strategy.Kind != vote.StrategyCustom || cfg.Strategy.Amount != 4 {
		t.Errorf("Unexpected strategy: %+v", cfg.Strategy)
	}
	if cfg.MinDelay != 3*time.Second || cfg.MaxDelay != 20*time.Second {
		t.Errorf("Unexpected delay range: %v..%v", cfg.MinDelay, cfg.MaxDelay)
	}
	if cfg.Mode != bot.ModeSequential {
		t.Errorf("Expected sequential mode, got %v", cfg.Mode)
	}
	if cfg.MaxNextMatchWait != 10*time.Minute {
		t.Errorf("Expected 10m next-match wait, got %v", cfg.MaxNextMatchWait)
	}
	if cfg.JournalVotes {
		t.Error("Expected journaling disabled")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected debug log level, got %q", cfg.LogLevel)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Loaded config should validate: %v", err)
	}
}

func TestLoadFromINIDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Settings.ini")
	if err := os.WriteFile(path, []byte("[Settings]\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadFromINI(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	def := NewDefaultConfig()
	if cfg.Strategy != def.Strategy || cfg.Mode != def.Mode || cfg.RequestTimeout != def.RequestTimeout {
		t.Errorf("Empty section should produce defaults, got %+v", cfg)
	}
}

func TestLoadFromINIRejectsBadStrategy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Settings.ini")
	if err := os.WriteFile(path, []byte("[Settings]\nfuelStrategy = yolo\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := LoadFromINI(path); err == nil {
		t.Error("Expected error for unknown fuel strategy")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Settings.ini")

	original := NewDefaultConfig()
	original.Team = match.PreferenceFirst
	original.Strategy = vote.Max(2)
	original.MinFuelThreshold = 2
	original.Mode = bot.ModeSequential

	if err := SaveToINI(original, path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := LoadFromINI(path)
	if err != nil {
		t.Fatalf("Failed to reload config: %v", err)
	}

	if loaded.Team != original.Team {
		t.Errorf("Team preference lost in round trip: %v != %v", loaded.Team, original.Team)
	}
	if loaded.Strategy.Kind != vote.StrategyMax {
		t.Errorf("Strategy kind lost in round trip: %v", loaded.Strategy.Kind)
	}
	if loaded.Mode != bot.ModeSequential {
		t.Errorf("Mode lost in round trip: %v", loaded.Mode)
	}
}

func TestValidate(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should validate: %v", err)
	}

	bad := *cfg
	bad.MinFuelThreshold = 0
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for zero fuel threshold")
	}

	bad = *cfg
	bad.MaxDelay = time.Second
	bad.MinDelay = time.Minute
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for inverted delay range")
	}
}
