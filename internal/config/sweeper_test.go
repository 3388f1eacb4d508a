package config

import (
    "testing"
    "time"
)

func TestLoadSweeperConfigDefaults(t *testing.T) {
    cfg := LoadSweeperConfig()
    if cfg.ReminderWindow != 30*time.Minute {
        t.Fatalf("ReminderWindow = %v, want 30m", cfg.ReminderWindow)
    }
    if cfg.ReminderInterval != time.Minute {
        t.Fatalf("ReminderInterval = %v, want 1m", cfg.ReminderInterval)
    }
    if cfg.CompletionInterval != 5*time.Minute {
        t.Fatalf("CompletionInterval = %v, want 5m", cfg.CompletionInterval)
    }
}

func TestLoadSweeperConfigOverrides(t *testing.T) {
    t.Setenv("REMINDER_WINDOW_MIN", "60")
    t.Setenv("REMINDER_INTERVAL_SEC", "15")
    t.Setenv("COMPLETION_INTERVAL_SEC", "120")

    cfg := LoadSweeperConfig()
    if cfg.ReminderWindow != time.Hour {
        t.Fatalf("ReminderWindow = %v, want 1h", cfg.ReminderWindow)
    }
    if cfg.ReminderInterval != 15*time.Second {
        t.Fatalf("ReminderInterval = %v, want 15s", cfg.ReminderInterval)
    }
    if cfg.CompletionInterval != 2*time.Minute {
        t.Fatalf("CompletionInterval = %v, want 2m", cfg.CompletionInterval)
    }
}

func TestLoadSweeperConfigRejectsNonPositive(t *testing.T) {
    t.Setenv("REMINDER_WINDOW_MIN", "0")
    t.Setenv("REMINDER_INTERVAL_SEC", "-5")

    cfg := LoadSweeperConfig()
    if cfg.ReminderWindow != 30*time.Minute {
        t.Fatalf("ReminderWindow = %v, want fallback 30m", cfg.ReminderWindow)
    }
    if cfg.ReminderInterval != time.Minute {
        t.Fatalf("ReminderInterval = %v, want fallback 1m", cfg.ReminderInterval)
    }
}
