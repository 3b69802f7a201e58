package core

import (
	"testing"
	"time"
)

func setTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OPENROUTER_API_KEY", "sk-or-test")
	t.Setenv("OPENAI_API_KEY", "sk-test")
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		setTestEnv(t)

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}

		if cfg.MaxConcurrent != 5 {
			t.Errorf("MaxConcurrent = %d, want 5", cfg.MaxConcurrent)
		}
		if cfg.DefaultQuantity != 5 {
			t.Errorf("DefaultQuantity = %d, want 5", cfg.DefaultQuantity)
		}
		if cfg.ImageSize != "1536x1024" {
			t.Errorf("ImageSize = %q, want 1536x1024", cfg.ImageSize)
		}
		if cfg.ImageQuality != "high" {
			t.Errorf("ImageQuality = %q, want high", cfg.ImageQuality)
		}
		if cfg.ImageModel != "gpt-image-1" {
			t.Errorf("ImageModel = %q", cfg.ImageModel)
		}
		if cfg.SessionTTL != 24*time.Hour {
			t.Errorf("SessionTTL = %v, want 24h", cfg.SessionTTL)
		}
		if cfg.Port != 3001 {
			t.Errorf("Port = %d, want 3001", cfg.Port)
		}
	})

	t.Run("missing keys rejected", func(t *testing.T) {
		t.Setenv("OPENROUTER_API_KEY", "")
		t.Setenv("OPENAI_API_KEY", "")

		if _, err := LoadConfig(); err == nil {
			t.Error("expected error for missing API keys")
		}
	})

	t.Run("overrides", func(t *testing.T) {
		setTestEnv(t)
		t.Setenv("MAX_CONCURRENT", "3")
		t.Setenv("OPENROUTER_MODEL", "anthropic/claude-sonnet-4")
		t.Setenv("PORT", "8080")

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.MaxConcurrent != 3 {
			t.Errorf("MaxConcurrent = %d, want 3", cfg.MaxConcurrent)
		}
		if cfg.OpenRouterModel != "anthropic/claude-sonnet-4" {
			t.Errorf("OpenRouterModel = %q", cfg.OpenRouterModel)
		}
		if cfg.Port != 8080 {
			t.Errorf("Port = %d, want 8080", cfg.Port)
		}
	})

	t.Run("duration overrides", func(t *testing.T) {
		setTestEnv(t)
		t.Setenv("AI_TIMEOUT", "5s")
		t.Setenv("RENDER_TIMEOUT", "1m")
		t.Setenv("SESSION_TTL", "1h")

		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.AITimeout != 5*time.Second {
			t.Errorf("AITimeout = %v, want 5s", cfg.AITimeout)
		}
		if cfg.RenderTimeout != time.Minute {
			t.Errorf("RenderTimeout = %v, want 1m", cfg.RenderTimeout)
		}
		if cfg.SessionTTL != time.Hour {
			t.Errorf("SessionTTL = %v, want 1h", cfg.SessionTTL)
		}
	})

	t.Run("invalid concurrency rejected", func(t *testing.T) {
		setTestEnv(t)
		t.Setenv("MAX_CONCURRENT", "0")

		if _, err := LoadConfig(); err == nil {
			t.Error("expected error for MAX_CONCURRENT=0")
		}
	})
}

func TestParseIntEnv(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	if got := ParseIntEnv("TEST_INT", 7); got != 42 {
		t.Errorf("ParseIntEnv = %d, want 42", got)
	}
	if got := ParseIntEnv("TEST_INT_UNSET", 7); got != 7 {
		t.Errorf("ParseIntEnv unset = %d, want default 7", got)
	}
	t.Setenv("TEST_INT_BAD", "not-a-number")
	if got := ParseIntEnv("TEST_INT_BAD", 7); got != 7 {
		t.Errorf("ParseIntEnv invalid = %d, want default 7", got)
	}
}

func TestParseDurationEnv(t *testing.T) {
	t.Setenv("TEST_DUR", "90s")
	if got := ParseDurationEnv("TEST_DUR", time.Minute); got != 90*time.Second {
		t.Errorf("ParseDurationEnv = %v, want 90s", got)
	}
	if got := ParseDurationEnv("TEST_DUR_UNSET", time.Minute); got != time.Minute {
		t.Errorf("ParseDurationEnv unset = %v, want default 1m", got)
	}
	t.Setenv("TEST_DUR_BAD", "soon")
	if got := ParseDurationEnv("TEST_DUR_BAD", time.Minute); got != time.Minute {
		t.Errorf("ParseDurationEnv invalid = %v, want default 1m", got)
	}
}

func TestSessionExpiry(t *testing.T) {
	live := NewSession("tok", 1, time.Hour)
	if live.IsExpired() {
		t.Error("fresh session reported expired")
	}
	dead := NewSession("tok", 1, -time.Minute)
	if !dead.IsExpired() {
		t.Error("past-expiry session reported live")
	}
}
