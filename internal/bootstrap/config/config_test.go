package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "app:\n  env: test\n")

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.App.Name != "maintrack" || cfg.App.Env != "test" {
		t.Fatalf("app = %+v", cfg.App)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("database.driver = %q", cfg.Database.Driver)
	}
	if cfg.Audio.SampleRate != 16000 || cfg.Audio.Channels != 1 || cfg.Audio.ChunkInterval != time.Second {
		t.Fatalf("audio = %+v", cfg.Audio)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Fatalf("cache.ttl = %v", cfg.Cache.TTL)
	}
	if cfg.Lifecycle.StrictTransitions {
		t.Fatalf("lifecycle.strict_transitions = true, want false")
	}
	if cfg.AI.Transcription.Model != "whisper-1" {
		t.Fatalf("ai.transcription.model = %q", cfg.AI.Transcription.Model)
	}
}

func TestLoadReadsEnvOverrides(t *testing.T) {
	path := writeConfig(t, "ai:\n  generation:\n    provider: gemini\n")
	t.Setenv("MT_AI_GENERATION_MODEL", "gemini-2.5-flash")
	t.Setenv("MT_LIFECYCLE_STRICT_TRANSITIONS", "true")

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.AI.Generation.Provider != "gemini" {
		t.Fatalf("provider = %q", cfg.AI.Generation.Provider)
	}
	if cfg.AI.Generation.Model != "gemini-2.5-flash" {
		t.Fatalf("model = %q", cfg.AI.Generation.Model)
	}
	if !cfg.Lifecycle.StrictTransitions {
		t.Fatalf("strict_transitions = false, want true")
	}
}

func TestLoadRejectsRedisWithoutURL(t *testing.T) {
	path := writeConfig(t, "cache:\n  driver: redis\n")

	if _, err := Load(context.Background(), path); err == nil {
		t.Fatalf("Load() expected error for redis without url")
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("Load() expected error for missing explicit file")
	}
}
