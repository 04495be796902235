package config

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/therawatch/internal/domain"
	"github.com/MrSnakeDoc/therawatch/internal/logger"
)

const sampleWatchlist = `
origin:
  name: Amarr
  system_id: 30002187
destinations:
  - name: Jita
    system_id: 30000142
    max_jumps: 10
  - name: Dodixie
    system_id: 30002659
    max_jumps: 8
min_wormhole_size: large
cooldown_seconds: 1800
route:
  preference: secure
`

func TestParseWatchlist(t *testing.T) {
	crit, err := ParseWatchlist([]byte(sampleWatchlist))
	if err != nil {
		t.Fatalf("ParseWatchlist() error = %v", err)
	}

	if len(crit.Origins) != 1 || crit.Origins[0] != (domain.Origin{Name: "Amarr", SystemID: 30002187}) {
		t.Errorf("Origins = %+v", crit.Origins)
	}
	if len(crit.Destinations) != 2 || crit.Destinations[1].MaxJumps != 8 {
		t.Errorf("Destinations = %+v", crit.Destinations)
	}
	if crit.MinSize != domain.SizeLarge {
		t.Errorf("MinSize = %v, want large", crit.MinSize)
	}
	if crit.Cooldown != 30*time.Minute {
		t.Errorf("Cooldown = %v, want 30m", crit.Cooldown)
	}
	if crit.Preference != domain.PreferSecure {
		t.Errorf("Preference = %v, want secure", crit.Preference)
	}
}

func TestParseWatchlist_Defaults(t *testing.T) {
	crit, err := ParseWatchlist([]byte(`
hq_system:
  name: Amarr
  id: 30002187
destinations:
  - name: Jita
    system_id: 30000142
    max_jumps: 0
`))
	if err != nil {
		t.Fatalf("ParseWatchlist() error = %v", err)
	}
	if len(crit.Origins) != 1 || crit.Origins[0].SystemID != 30002187 {
		t.Errorf("legacy hq_system not honored: %+v", crit.Origins)
	}
	if crit.MinSize != domain.SizeSmall || crit.Cooldown != time.Hour || crit.Preference != domain.PreferShortest {
		t.Errorf("defaults = %v/%v/%v, want small/1h/shortest", crit.MinSize, crit.Cooldown, crit.Preference)
	}
	if crit.Destinations[0].MaxJumps != 0 {
		t.Errorf("explicit max_jumps 0 must be kept")
	}
}

func TestParseWatchlist_DepartureSystems(t *testing.T) {
	crit, err := ParseWatchlist([]byte(`
departure_systems:
  - name: Amarr
    system_id: 30002187
  - name: Dodixie
    system_id: 30002659
hq_system:
  name: Ignored
  id: 1
destinations:
  - name: Jita
    system_id: 30000142
    max_jumps: 12
`))
	if err != nil {
		t.Fatalf("ParseWatchlist() error = %v", err)
	}

	want := []domain.Origin{
		{Name: "Amarr", SystemID: 30002187},
		{Name: "Dodixie", SystemID: 30002659},
	}
	if !reflect.DeepEqual(crit.Origins, want) {
		t.Errorf("Origins = %+v, want %+v", crit.Origins, want)
	}
	if ids := crit.OriginIDs(); len(ids) != 2 || ids[0] != 30002187 || ids[1] != 30002659 {
		t.Errorf("OriginIDs() = %v", ids)
	}
	if len(crit.Destinations) != 1 || crit.Destinations[0].MaxJumps != 12 {
		t.Errorf("Destinations = %+v", crit.Destinations)
	}
}

func TestParseWatchlist_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"no origin", "destinations: []", "departure_systems (or origin) is required"},
		{"bad origin id", "origin: {name: X, system_id: 0}", "system_id must be > 0"},
		{"departure without name", "departure_systems: [{system_id: 1}]", "departure_systems[0]: name is required"},
		{"departure bad id", "departure_systems: [{name: A, system_id: -4}]", "system_id must be > 0"},
		{"duplicate departure", "departure_systems: [{name: A, system_id: 1}, {name: B, system_id: 1}]", "duplicate system_id"},
		{"missing max jumps", "origin: {name: A, system_id: 1}\ndestinations: [{name: Jita, system_id: 2}]", "max_jumps is required"},
		{"duplicate destination", "origin: {name: A, system_id: 1}\ndestinations: [{name: Jita, system_id: 2, max_jumps: 1}, {name: Jita, system_id: 3, max_jumps: 1}]", "duplicate"},
		{"unknown size", "origin: {name: A, system_id: 1}\nmin_wormhole_size: huge", "unknown size"},
		{"bad preference", "origin: {name: A, system_id: 1}\nroute: {preference: scenic}", "route.preference"},
		{"negative cooldown", "origin: {name: A, system_id: 1}\ncooldown_seconds: -1", "cooldown_seconds"},
		{"not yaml", "origin: [", "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWatchlist([]byte(tt.doc))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("ParseWatchlist() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestWatchlistSnapshot(t *testing.T) {
	w := NewWatchlist(domain.Criteria{Cooldown: time.Hour})
	before := w.Snapshot()

	w.Set(domain.Criteria{Cooldown: time.Minute})

	if before.Cooldown != time.Hour {
		t.Errorf("earlier snapshot changed: %v", before.Cooldown)
	}
	if got := w.Snapshot().Cooldown; got != time.Minute {
		t.Errorf("Snapshot().Cooldown = %v, want 1m", got)
	}
}

func TestWatchWatchlist(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watchlist.yaml")
	if err := os.WriteFile(path, []byte(sampleWatchlist), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan domain.Criteria, 4)
	done := make(chan error, 1)
	go func() {
		done <- WatchWatchlist(ctx, path, logger.NewNop(), func(c domain.Criteria) { changes <- c })
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	// An invalid edit is ignored.
	if err := os.WriteFile(path, []byte("origin: ["), 0o600); err != nil {
		t.Fatal(err)
	}
	updated := strings.Replace(sampleWatchlist, "cooldown_seconds: 1800", "cooldown_seconds: 60", 1)
	if err := os.WriteFile(path, []byte(updated), 0o600); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for {
		select {
		case c := <-changes:
			if c.Cooldown == time.Minute {
				cancel()
				if err := <-done; err != nil {
					t.Errorf("WatchWatchlist() error = %v", err)
				}
				return
			}
		case <-deadline:
			t.Fatal("watchlist change not observed")
		}
	}
}
