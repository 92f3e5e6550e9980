package accounts

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"versusbot.dev/wreck-league-go/internal/match"
)

// tokenPrefix is the prefix Warpcast bearer tokens carry; lines without it
// in a token file are ignored rather than rejected, matching the legacy
// account.txt format.
const tokenPrefix = "MK-"

// LoadTokenFile reads the legacy plain-text credential list: one bearer
// token per line, blank lines and non-token lines skipped.
func LoadTokenFile(path string) ([]*Account, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer f.Close()

	var accts []*Account
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		token := strings.TrimSpace(scanner.Text())
		if token == "" || !strings.HasPrefix(token, tokenPrefix) {
			continue
		}
		accts = append(accts, New(len(accts)+1, token))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	if len(accts) == 0 {
		return nil, fmt.Errorf("no valid tokens found in %s", path)
	}
	return accts, nil
}

// manifestEntry is one account in a YAML manifest. Team accepts
// "first"/"second"/"auto" and defaults to auto.
type manifestEntry struct {
	Token string `yaml:"token"`
	Team  string `yaml:"team"`
}

type manifest struct {
	Accounts []manifestEntry `yaml:"accounts"`
}

// LoadManifest reads a YAML account manifest with optional per-account
// overrides.
func LoadManifest(path string) ([]*Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if len(m.Accounts) == 0 {
		return nil, fmt.Errorf("manifest %s lists no accounts", path)
	}

	accts := make([]*Account, 0, len(m.Accounts))
	for i, entry := range m.Accounts {
		token := strings.TrimSpace(entry.Token)
		if token == "" {
			return nil, fmt.Errorf("manifest account %d has no token", i+1)
		}
		acct := New(len(accts)+1, token)
		pref, err := ParsePreference(entry.Team)
		if err != nil {
			return nil, fmt.Errorf("manifest account %d: %w", i+1, err)
		}
		acct.Preference = pref
		accts = append(accts, acct)
	}
	return accts, nil
}

// ParsePreference maps a manifest/config team value to a side preference.
// The empty string means auto.
func ParsePreference(s string) (match.Preference, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return match.PreferenceAuto, nil
	case "first", "left", "red":
		return match.PreferenceFirst, nil
	case "second", "right", "blue":
		return match.PreferenceSecond, nil
	default:
		return match.PreferenceAuto, fmt.Errorf("unknown team preference %q", s)
	}
}
