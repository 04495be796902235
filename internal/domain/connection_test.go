package domain

import (
	"strings"
	"testing"
	"time"
)

func TestConnectionInWormholeSpace(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"J123456", true},
		{"Jita", false},
		{"Jel", false},
		{"Amarr", false},
		{"J", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Connection{ExitSystemName: tt.name}
			if got := c.InWormholeSpace(); got != tt.want {
				t.Errorf("InWormholeSpace(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestConnectionExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	if (Connection{}).Expired(now) {
		t.Error("connection with unknown lifetime should never expire")
	}
	if !(Connection{ExpiresAt: now.Add(-time.Minute)}).Expired(now) {
		t.Error("connection past ExpiresAt should be expired")
	}
	if (Connection{ExpiresAt: now.Add(time.Minute)}).Expired(now) {
		t.Error("connection before ExpiresAt should not be expired")
	}
}

func TestConnectionLifetimeStatus(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		remaining time.Duration
		prefix    string
	}{
		{3 * time.Hour, "⚠️ EOL"},
		{6 * time.Hour, "🕐"},
		{14 * time.Hour, "✅"},
	}

	for _, tt := range tests {
		c := Connection{ExpiresAt: now.Add(tt.remaining)}
		if got := c.LifetimeStatus(now); !strings.HasPrefix(got, tt.prefix) {
			t.Errorf("LifetimeStatus(%v) = %q, want prefix %q", tt.remaining, got, tt.prefix)
		}
	}

	if got := (Connection{}).LifetimeStatus(now); got != "❔ lifetime unknown" {
		t.Errorf("LifetimeStatus(unknown) = %q, want lifetime unknown", got)
	}
}
