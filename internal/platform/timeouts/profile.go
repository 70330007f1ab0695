package timeouts

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Profile overrides command timeout budgets. Default replaces Query and
// Mutation class budgets; commands budgeted at Analysis or above keep their
// budget unless named in Commands. A zero Default keeps every class budget.
type Profile struct {
	Default  time.Duration
	Commands map[string]time.Duration
}

type profileFile struct {
	Default  string            `yaml:"default"`
	Commands map[string]string `yaml:"commands"`
}

// LoadProfile reads a YAML timeout profile from path.
func LoadProfile(path string) (Profile, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Profile{}, errors.New("timeout profile path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read timeout profile: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes a YAML timeout profile. Durations use Go syntax
// ("750ms", "2m") and must be positive.
func ParseProfile(data []byte) (Profile, error) {
	var raw profileFile
	if len(bytes.TrimSpace(data)) == 0 {
		return Profile{}, nil
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return Profile{}, fmt.Errorf("decode timeout profile: %w", err)
	}

	var profile Profile
	if strings.TrimSpace(raw.Default) != "" {
		value, err := parsePositive(raw.Default)
		if err != nil {
			return Profile{}, fmt.Errorf("default: %w", err)
		}
		profile.Default = value
	}
	if len(raw.Commands) > 0 {
		profile.Commands = make(map[string]time.Duration, len(raw.Commands))
		for name, text := range raw.Commands {
			name = strings.TrimSpace(name)
			if name == "" {
				return Profile{}, errors.New("command name is required")
			}
			value, err := parsePositive(text)
			if err != nil {
				return Profile{}, fmt.Errorf("command %q: %w", name, err)
			}
			profile.Commands[name] = value
		}
	}
	return profile, nil
}

// For returns the budget for command: its named override, else the profile
// default when fallback is below Analysis, else fallback.
func (p Profile) For(command string, fallback time.Duration) time.Duration {
	if value, ok := p.Commands[command]; ok {
		return value
	}
	if p.Default > 0 && fallback < Analysis {
		return p.Default
	}
	return fallback
}

// CommandNames lists the commands the profile overrides, sorted.
func (p Profile) CommandNames() []string {
	names := make([]string, 0, len(p.Commands))
	for name := range p.Commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func parsePositive(text string) (time.Duration, error) {
	value, err := time.ParseDuration(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", value)
	}
	return value, nil
}
