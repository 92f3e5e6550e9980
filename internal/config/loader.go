package config

import (
	"fmt"
	"time"

	"gopkg.in/ini.v1"

	"versusbot.dev/wreck-league-go/internal/accounts"
	"versusbot.dev/wreck-league-go/internal/bot"
	"versusbot.dev/wreck-league-go/internal/vote"
)

// LoadFromINI loads configuration from a Settings.ini file.
func LoadFromINI(path string) (*bot.Config, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	section := cfg.Section("Settings")
	config := NewDefaultConfig()

	// Voting behavior
	team, err := accounts.ParsePreference(section.Key("teamPreference").MustString("auto"))
	if err != nil {
		return nil, err
	}
	config.Team = team

	config.MinFuelThreshold = section.Key("minFuelThreshold").MustInt(1)
	config.Strategy, err = parseFuelStrategy(
		section.Key("fuelStrategy").MustString("conservative"),
		section.Key("customFuelAmount").MustInt(1),
		config.MinFuelThreshold,
	)
	if err != nil {
		return nil, err
	}

	config.MinDelay = secondsKey(section, "minDelaySeconds", 5)
	config.MaxDelay = secondsKey(section, "maxDelaySeconds", 45)
	config.Mode = parseExecutionMode(section.Key("executionMode").MustString("concurrent"))

	// Scheduling cadence
	config.MaxNextMatchWait = secondsKey(section, "maxNextMatchWaitSeconds", 1800)
	config.RetryInterval = secondsKey(section, "retryIntervalSeconds", 30)
	config.PollInterval = secondsKey(section, "pollIntervalSeconds", 60)
	config.ExhaustedSleep = secondsKey(section, "exhaustedSleepSeconds", 300)
	config.MaxSleepSlice = secondsKey(section, "maxSleepSliceSeconds", 30)

	// Account lifecycle
	config.MaxExhaustedCycles = section.Key("maxExhaustedCycles").MustInt(3)

	// Remote service
	config.VersusBaseURL = section.Key("versusBaseUrl").MustString(config.VersusBaseURL)
	config.WarpcastBaseURL = section.Key("warpcastBaseUrl").MustString(config.WarpcastBaseURL)
	config.RequestTimeout = secondsKey(section, "requestTimeoutSeconds", 10)

	// Inputs and bookkeeping
	config.TokenFile = section.Key("tokenFile").MustString(config.TokenFile)
	config.ManifestFile = section.Key("manifestFile").MustString("")
	config.DatabasePath = section.Key("databasePath").MustString(config.DatabasePath)
	config.JournalVotes = section.Key("journalVotes").MustBool(true)

	// Logging
	config.LogLevel = section.Key("logLevel").MustString("info")

	return config, nil
}

// NewDefaultConfig returns a config with working defaults.
func NewDefaultConfig() *bot.Config {
	return &bot.Config{
		Strategy:           vote.Conservative(1),
		MinFuelThreshold:   1,
		MinDelay:           5 * time.Second,
		MaxDelay:           45 * time.Second,
		Mode:               bot.ModeConcurrent,
		MaxNextMatchWait:   30 * time.Minute,
		RetryInterval:      30 * time.Second,
		PollInterval:       60 * time.Second,
		ExhaustedSleep:     5 * time.Minute,
		MaxSleepSlice:      30 * time.Second,
		MaxExhaustedCycles: 3,
		VersusBaseURL:      "https://versus-prod-api.wreckleague.xyz",
		WarpcastBaseURL:    "https://client.warpcast.com",
		RequestTimeout:     10 * time.Second,
		TokenFile:          "account.txt",
		DatabasePath:       "data/versus.db",
		JournalVotes:       true,
		LogLevel:           "info",
	}
}

// SaveToINI writes the configuration back out, suitable for `config init`.
func SaveToINI(config *bot.Config, path string) error {
	cfg := ini.Empty()
	section := cfg.Section("Settings")

	section.Key("teamPreference").SetValue(config.Team.String())
	section.Key("fuelStrategy").SetValue(config.Strategy.Kind.String())
	section.Key("customFuelAmount").SetValue(fmt.Sprintf("%d", config.Strategy.Amount))
	section.Key("minFuelThreshold").SetValue(fmt.Sprintf("%d", config.MinFuelThreshold))
	section.Key("minDelaySeconds").SetValue(fmt.Sprintf("%d", int(config.MinDelay.Seconds())))
	section.Key("maxDelaySeconds").SetValue(fmt.Sprintf("%d", int(config.MaxDelay.Seconds())))
	section.Key("executionMode").SetValue(config.Mode.String())

	section.Key("maxNextMatchWaitSeconds").SetValue(fmt.Sprintf("%d", int(config.MaxNextMatchWait.Seconds())))
	section.Key("retryIntervalSeconds").SetValue(fmt.Sprintf("%d", int(config.RetryInterval.Seconds())))
	section.Key("pollIntervalSeconds").SetValue(fmt.Sprintf("%d", int(config.PollInterval.Seconds())))
	section.Key("exhaustedSleepSeconds").SetValue(fmt.Sprintf("%d", int(config.ExhaustedSleep.Seconds())))
	section.Key("maxSleepSliceSeconds").SetValue(fmt.Sprintf("%d", int(config.MaxSleepSlice.Seconds())))
	section.Key("maxExhaustedCycles").SetValue(fmt.Sprintf("%d", config.MaxExhaustedCycles))

	section.Key("versusBaseUrl").SetValue(config.VersusBaseURL)
	section.Key("warpcastBaseUrl").SetValue(config.WarpcastBaseURL)
	section.Key("requestTimeoutSeconds").SetValue(fmt.Sprintf("%d", int(config.RequestTimeout.Seconds())))

	section.Key("tokenFile").SetValue(config.TokenFile)
	section.Key("manifestFile").SetValue(config.ManifestFile)
	section.Key("databasePath").SetValue(config.DatabasePath)
	section.Key("journalVotes").SetValue(fmt.Sprintf("%t", config.JournalVotes))

	section.Key("logLevel").SetValue(config.LogLevel)

	return cfg.SaveTo(path)
}

func secondsKey(section *ini.Section, key string, def int) time.Duration {
	return time.Duration(section.Key(key).MustInt(def)) * time.Second
}

func parseFuelStrategy(kind string, customAmount, minThreshold int) (vote.FuelStrategy, error) {
	switch kind {
	case "conservative":
		return vote.Conservative(minThreshold), nil
	case "max":
		return vote.Max(minThreshold), nil
	case "custom":
		return vote.Custom(customAmount, minThreshold), nil
	default:
		return vote.FuelStrategy{}, fmt.Errorf("unknown fuel strategy %q", kind)
	}
}

func parseExecutionMode(s string) bot.ExecutionMode {
	switch s {
	case "sequential":
		return bot.ModeSequential
	default:
		return bot.ModeConcurrent
	}
}
