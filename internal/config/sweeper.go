package config

import "time"

// SweeperConfig defines settings for the reminder/completion sweeper.
// The reminder window is the lookahead within which a confirmed
// booking qualifies for a reminder; the two intervals drive the
// independent scan tickers.  All values are optional with sensible
// defaults, so the sweeper runs out of the box.
type SweeperConfig struct {
    ReminderWindow     time.Duration
    ReminderInterval   time.Duration
    CompletionInterval time.Duration
}

// LoadSweeperConfig reads environment variables to build a
// SweeperConfig.  Defaults are used when variables are not set.
func LoadSweeperConfig() SweeperConfig {
    cfg := SweeperConfig{
        ReminderWindow:     time.Duration(envInt("REMINDER_WINDOW_MIN", 30)) * time.Minute,
        ReminderInterval:   time.Duration(envInt("REMINDER_INTERVAL_SEC", 60)) * time.Second,
        CompletionInterval: time.Duration(envInt("COMPLETION_INTERVAL_SEC", 300)) * time.Second,
    }
    if cfg.ReminderWindow <= 0 {
        cfg.ReminderWindow = 30 * time.Minute
    }
    if cfg.ReminderInterval <= 0 {
        cfg.ReminderInterval = time.Minute
    }
    if cfg.CompletionInterval <= 0 {
        cfg.CompletionInterval = 5 * time.Minute
    }
    return cfg
}
