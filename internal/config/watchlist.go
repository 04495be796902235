package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/therawatch/internal/domain"
)

const defaultCooldownSeconds = 3600

// watchlistFile mirrors the YAML layout.
type watchlistFile struct {
	DepartureSystems []systemRef `yaml:"departure_systems"`

	// Single-departure spellings.
	Origin   *systemRef `yaml:"origin"`
	HQSystem *struct {
		Name string `yaml:"name"`
		ID   int64  `yaml:"id"`
	} `yaml:"hq_system"`

	Destinations []struct {
		Name     string `yaml:"name"`
		SystemID int64  `yaml:"system_id"`
		MaxJumps *int   `yaml:"max_jumps"`
	} `yaml:"destinations"`

	MinWormholeSize string `yaml:"min_wormhole_size"`
	CooldownSeconds *int   `yaml:"cooldown_seconds"`

	Route struct {
		Preference string `yaml:"preference"`
	} `yaml:"route"`
}

type systemRef struct {
	Name     string `yaml:"name"`
	SystemID int64  `yaml:"system_id"`
}

// LoadWatchlist reads and validates the watchlist at path.
func LoadWatchlist(path string) (domain.Criteria, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Criteria{}, fmt.Errorf("failed to read watchlist: %w", err)
	}
	return ParseWatchlist(data)
}

// ParseWatchlist decodes and validates a watchlist document.
func ParseWatchlist(data []byte) (domain.Criteria, error) {
	var f watchlistFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return domain.Criteria{}, fmt.Errorf("failed to parse watchlist: %w", err)
	}

	var crit domain.Criteria
	var errs []error

	crit.Origins, errs = parseOrigins(f)

	seen := make(map[string]bool, len(f.Destinations))
	for i, d := range f.Destinations {
		name := strings.TrimSpace(d.Name)
		switch {
		case name == "":
			errs = append(errs, fmt.Errorf("destinations[%d]: name is required", i))
			continue
		case seen[name]:
			errs = append(errs, fmt.Errorf("destinations[%d]: duplicate name %q", i, name))
			continue
		case d.SystemID <= 0:
			errs = append(errs, fmt.Errorf("destinations[%d] %q: system_id must be > 0", i, name))
			continue
		case d.MaxJumps == nil:
			errs = append(errs, fmt.Errorf("destinations[%d] %q: max_jumps is required", i, name))
			continue
		case *d.MaxJumps < 0:
			errs = append(errs, fmt.Errorf("destinations[%d] %q: max_jumps must be >= 0", i, name))
			continue
		}
		seen[name] = true
		crit.Destinations = append(crit.Destinations, domain.Destination{
			Name:     name,
			SystemID: d.SystemID,
			MaxJumps: *d.MaxJumps,
		})
	}

	crit.MinSize = domain.SizeSmall
	if f.MinWormholeSize != "" {
		size, ok := domain.ParseSizeClass(f.MinWormholeSize)
		if !ok {
			errs = append(errs, fmt.Errorf("min_wormhole_size: unknown size %q", f.MinWormholeSize))
		}
		crit.MinSize = size
	}

	cooldown := defaultCooldownSeconds
	if f.CooldownSeconds != nil {
		cooldown = *f.CooldownSeconds
		if cooldown < 0 {
			errs = append(errs, fmt.Errorf("cooldown_seconds must be >= 0, got %d", cooldown))
		}
	}
	crit.Cooldown = time.Duration(cooldown) * time.Second

	pref, err := domain.ParseRoutePreference(f.Route.Preference)
	if err != nil {
		errs = append(errs, fmt.Errorf("route.preference: %w", err))
	}
	crit.Preference = pref

	if err := errors.Join(errs...); err != nil {
		return domain.Criteria{}, fmt.Errorf("invalid watchlist: %w", err)
	}
	return crit, nil
}

// parseOrigins reads departure_systems, or else the single origin, or
// else the legacy hq_system.
func parseOrigins(f watchlistFile) ([]domain.Origin, []error) {
	var errs []error

	switch {
	case len(f.DepartureSystems) > 0:
		origins := make([]domain.Origin, 0, len(f.DepartureSystems))
		seen := make(map[int64]bool, len(f.DepartureSystems))
		for i, d := range f.DepartureSystems {
			name := strings.TrimSpace(d.Name)
			switch {
			case name == "":
				errs = append(errs, fmt.Errorf("departure_systems[%d]: name is required", i))
			case d.SystemID <= 0:
				errs = append(errs, fmt.Errorf("departure_systems[%d] %q: system_id must be > 0", i, name))
			case seen[d.SystemID]:
				errs = append(errs, fmt.Errorf("departure_systems[%d] %q: duplicate system_id %d", i, name, d.SystemID))
			default:
				seen[d.SystemID] = true
				origins = append(origins, domain.Origin{Name: name, SystemID: d.SystemID})
			}
		}
		return origins, errs

	case f.Origin != nil:
		return single(f.Origin.Name, f.Origin.SystemID, "origin")

	case f.HQSystem != nil:
		return single(f.HQSystem.Name, f.HQSystem.ID, "hq_system")

	default:
		return nil, []error{errors.New("departure_systems (or origin) is required")}
	}
}

func single(name string, id int64, field string) ([]domain.Origin, []error) {
	if id <= 0 {
		return nil, []error{fmt.Errorf("%s: system_id must be > 0", field)}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("%d", id)
	}
	return []domain.Origin{{Name: name, SystemID: id}}, nil
}

// Watchlist holds the criteria in force. Readers take a snapshot per
// cycle; a reload swaps the whole value.
type Watchlist struct {
	current atomic.Pointer[domain.Criteria]
}

func NewWatchlist(initial domain.Criteria) *Watchlist {
	w := &Watchlist{}
	w.Set(initial)
	return w
}

// Snapshot returns the current criteria. The destinations slice is
// shared and must not be modified.
func (w *Watchlist) Snapshot() domain.Criteria {
	return *w.current.Load()
}

func (w *Watchlist) Set(c domain.Criteria) {
	w.current.Store(&c)
}
