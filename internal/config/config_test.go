package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestRequireEnv(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		shouldSet bool
		wantPanic bool
	}{
		{
			name:      "variable set",
			key:       "THERA_TEST_VAR",
			value:     "test_value",
			shouldSet: true,
			wantPanic: false,
		},
		{
			name:      "variable not set",
			key:       "THERA_TEST_VAR_MISSING",
			shouldSet: false,
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				t.Setenv(tt.key, tt.value)
			}

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnv() should have panicked")
					}
				}()
			}

			result := requireEnv(tt.key)
			if !tt.wantPanic && result != tt.value {
				t.Errorf("requireEnv() = %v, want %v", result, tt.value)
			}
		})
	}
}

func TestGetenvInt64(t *testing.T) {
	t.Setenv("THERA_TEST_ID", "30002086")
	if got := getenvInt64("THERA_TEST_ID", 1); got != 30002086 {
		t.Errorf("getenvInt64() = %v, want 30002086", got)
	}
	if got := getenvInt64("THERA_TEST_ID_MISSING", 31000005); got != 31000005 {
		t.Errorf("getenvInt64() = %v, want default", got)
	}

	t.Setenv("THERA_TEST_ID_BAD", "thera")
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("getenvInt64() should have panicked on a non-integer")
		}
	}()
	getenvInt64("THERA_TEST_ID_BAD", 0)
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		def   time.Duration
		want  time.Duration
	}{
		{"valid minutes", "10m", time.Minute, 10 * time.Minute},
		{"valid seconds", "90s", time.Minute, 90 * time.Second},
		{"invalid falls back", "soon", 5 * time.Minute, 5 * time.Minute},
		{"empty falls back", "", 5 * time.Minute, 5 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("THERA_TEST_DURATION", tt.value)
			if got := mustDuration("THERA_TEST_DURATION", tt.def); got != tt.want {
				t.Errorf("mustDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		value string
		def   bool
		want  bool
	}{
		{"true", false, true},
		{"0", true, false},
		{"maybe", true, true},
		{"", false, false},
	}
	for _, tt := range tests {
		t.Setenv("THERA_TEST_BOOL", tt.value)
		if got := mustBool("THERA_TEST_BOOL", tt.def); got != tt.want {
			t.Errorf("mustBool(%q, %v) = %v, want %v", tt.value, tt.def, got, tt.want)
		}
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a.example.com", []string{"a.example.com"}},
		{` "10.0.0.0/8" , 192.168.1.4,, `, []string{"10.0.0.0/8", "192.168.1.4"}},
	}
	for _, tt := range tests {
		if got := splitAndTrim(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitAndTrim(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("THERA_DISCORD_WEBHOOK_URL", "https://discord.test/api/webhooks/1/abc")
		cfg := Load()

		if cfg.PollInterval != 5*time.Minute {
			t.Errorf("PollInterval = %v, want 5m", cfg.PollInterval)
		}
		if cfg.HubSystemID != 31000005 {
			t.Errorf("HubSystemID = %v, want Thera", cfg.HubSystemID)
		}
		if cfg.OracleAttempts != 3 || cfg.RouteParallelism != 5 || cfg.OracleTimeout != 10*time.Second {
			t.Errorf("oracle settings = %d/%d/%v, want 3/5/10s", cfg.OracleAttempts, cfg.RouteParallelism, cfg.OracleTimeout)
		}
		if cfg.RedisEnabled() {
			t.Errorf("RedisEnabled() = true, want false without THERA_REDIS_ADDR")
		}
		if !cfg.DiscordMentionEveryone {
			t.Errorf("DiscordMentionEveryone = false, want true by default")
		}
	})

	t.Run("webhook required unless dry run", func(t *testing.T) {
		_ = os.Unsetenv("THERA_DISCORD_WEBHOOK_URL")
		t.Setenv("THERA_DRY_RUN", "true")
		if cfg := Load(); cfg.DiscordWebhookURL != "" {
			t.Errorf("DiscordWebhookURL = %q, want empty in dry run", cfg.DiscordWebhookURL)
		}

		t.Setenv("THERA_DRY_RUN", "false")
		defer func() {
			r := recover()
			if r == nil || !strings.Contains(r.(string), "THERA_DISCORD_WEBHOOK_URL") {
				t.Errorf("Load() panic = %v, want missing webhook", r)
			}
		}()
		Load()
	})

	t.Run("forced dry run ignores env", func(t *testing.T) {
		_ = os.Unsetenv("THERA_DISCORD_WEBHOOK_URL")
		t.Setenv("THERA_DRY_RUN", "false")
		if cfg := LoadDryRun(); !cfg.DryRun {
			t.Errorf("LoadDryRun().DryRun = false, want true")
		}
	})

	t.Run("poll interval floor", func(t *testing.T) {
		t.Setenv("THERA_DRY_RUN", "true")
		t.Setenv("THERA_POLL_INTERVAL", "10s")
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("Load() should have panicked on a 10s poll interval")
			}
		}()
		Load()
	})
}
