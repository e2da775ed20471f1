package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/HendryAvila/archkit/internal/artifact"
)

// --- Defaults ---

func TestDefault_MatchesDocumentedValues(t *testing.T) {
	cfg := Default()

	if !cfg.Cache.Enabled {
		t.Error("cache should be enabled by default")
	}
	if cfg.Cache.TTL != 30*time.Second {
		t.Errorf("Cache.TTL = %s, want 30s", cfg.Cache.TTL)
	}
	if cfg.Health.StalenessThresholdDays != 90 {
		t.Errorf("StalenessThresholdDays = %d, want 90", cfg.Health.StalenessThresholdDays)
	}
	if cfg.Health.StalenessPenaltyPerMonth != 5 {
		t.Errorf("StalenessPenaltyPerMonth = %d, want 5", cfg.Health.StalenessPenaltyPerMonth)
	}
	if cfg.Health.NoLinksPenalty != 10 {
		t.Errorf("NoLinksPenalty = %d, want 10", cfg.Health.NoLinksPenalty)
	}
	if cfg.Health.StaleReferencePenalty != 15 {
		t.Errorf("StaleReferencePenalty = %d, want 15", cfg.Health.StaleReferencePenalty)
	}
	if cfg.Health.ScoreThreshold != 80 {
		t.Errorf("ScoreThreshold = %d, want 80", cfg.Health.ScoreThreshold)
	}
	if cfg.Health.Strategy != StrategyEnhanced {
		t.Errorf("Strategy = %s, want enhanced", cfg.Health.Strategy)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

// --- Load ---

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Health.StalenessThresholdDays != 90 {
		t.Errorf("StalenessThresholdDays = %d, want 90", cfg.Health.StalenessThresholdDays)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	content := "project: payments\ncache:\n  ttl: 5s\nhealth:\n  strategy: basic\n  required_sections:\n    adr: [Context, Decision]\n"
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Project != "payments" {
		t.Errorf("Project = %q, want payments", cfg.Project)
	}
	if cfg.Cache.TTL != 5*time.Second {
		t.Errorf("Cache.TTL = %s, want 5s", cfg.Cache.TTL)
	}
	if !cfg.Cache.Enabled {
		t.Error("Cache.Enabled should keep its default")
	}
	if cfg.Cache.MaxEntries != 100 {
		t.Errorf("Cache.MaxEntries = %d, want 100", cfg.Cache.MaxEntries)
	}
	if cfg.Health.Strategy != StrategyBasic {
		t.Errorf("Strategy = %s, want basic", cfg.Health.Strategy)
	}
	if cfg.Health.NoLinksPenalty != 10 {
		t.Errorf("NoLinksPenalty = %d, want default 10", cfg.Health.NoLinksPenalty)
	}
	if got := cfg.Health.RequiredSections[artifact.TypeADR]; len(got) != 2 || got[1] != "Decision" {
		t.Errorf("RequiredSections[adr] = %v", got)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("cache: [oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"strategy":  "health:\n  strategy: magic\n",
		"threshold": "health:\n  score_threshold: 120\n",
		"ttl":       "cache:\n  ttl: -1s\n",
		"type":      "health:\n  required_sections:\n    memo: [Body]\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(dir); err == nil {
				t.Errorf("expected validation error for %s", name)
			}
		})
	}
}

// --- Save ---

func TestSave_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".arch")
	cfg := Default()
	cfg.Project = "roundtrip"
	cfg.Health.StalenessThresholdDays = 45

	if err := Save(dir, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(Path(dir))
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if !strings.Contains(string(data), "staleness_threshold_days: 45") {
		t.Errorf("config.yaml missing threshold:\n%s", data)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Project != "roundtrip" || loaded.Health.StalenessThresholdDays != 45 {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.Cache.TTL != 30*time.Second {
		t.Errorf("Cache.TTL = %s, want 30s", loaded.Cache.TTL)
	}
}
