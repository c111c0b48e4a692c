package config

import (
	"fmt"
	"strings"
	"time"

	"roomcast/engine"
	"roomcast/inject"
	"roomcast/pkg/logx"
)

type Config struct {
	Logging   LoggingConfig    `json:"logging"`
	Target    TargetConfig     `json:"target"`
	Timing    TimingConfig     `json:"timing"`
	History   HistoryConfig    `json:"history"`
	Dispatch  DispatchConfig   `json:"dispatch"`
	AMQP      AMQPConfig       `json:"amqp"`
	Schedules []ScheduleConfig `json:"schedules,omitempty"`
}

type LoggingConfig struct {
	Level   string            `json:"level"`
	Console bool              `json:"console"`
	File    LoggingFileConfig `json:"file"`
}

type LoggingFileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type TargetConfig struct {
	Signature string `json:"signature"`
}

// TimingConfig holds every settle interval as a Go duration string.
// Blank fields take the built-in default.
type TimingConfig struct {
	ClipboardSettle  string `json:"clipboard_settle,omitempty"`
	PasteSettle      string `json:"paste_settle,omitempty"`
	ConfirmSettle    string `json:"confirm_settle,omitempty"`
	FileDialogSettle string `json:"file_dialog_settle,omitempty"`
	FileAcceptSettle string `json:"file_accept_settle,omitempty"`
	FileSendSettle   string `json:"file_send_settle,omitempty"`
	CloseSettle      string `json:"close_settle,omitempty"`

	SearchSettle           string `json:"search_settle,omitempty"`
	FallbackActivateSettle string `json:"fallback_activate_settle,omitempty"`
	FindSettle             string `json:"find_settle,omitempty"`
	FallbackPasteSettle    string `json:"fallback_paste_settle,omitempty"`
	ActivateSettle         string `json:"activate_settle,omitempty"`
	PollInterval           string `json:"poll_interval,omitempty"`
	PollAttempts           int    `json:"poll_attempts,omitempty"`
	Stabilize              string `json:"stabilize,omitempty"`
}

type HistoryConfig struct {
	Driver string `json:"driver"` // none | memory | sqlite
	Path   string `json:"path,omitempty"`
}

type DispatchConfig struct {
	// MaxRunsPerMinute caps run requests; 0 disables the limit.
	MaxRunsPerMinute int `json:"max_runs_per_minute"`
}

type AMQPConfig struct {
	Enabled       bool   `json:"enabled"`
	URL           string `json:"url,omitempty"`
	Exchange      string `json:"exchange,omitempty"`
	RetryAttempts int    `json:"retry_attempts,omitempty"`
	RetryDelay    string `json:"retry_delay,omitempty"`
}

type ScheduleConfig struct {
	Name        string `json:"name"`
	Spec        string `json:"spec"`
	RequestFile string `json:"request_file"`
}

// Default is the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Console: true},
		Target:  TargetConfig{Signature: "kakaotalk"},
		History: HistoryConfig{Driver: "sqlite", Path: "./data/roomcast.db"},
		AMQP:    AMQPConfig{Exchange: "roomcast", RetryAttempts: 5, RetryDelay: "1s"},
	}
}

func (c LoggingConfig) Logx() logx.Config {
	return logx.Config{
		Level:   c.Level,
		Console: c.Console,
		File:    logx.FileConfig{Enabled: c.File.Enabled, Path: c.File.Path},
	}
}

// durations parses a list of duration fields, stopping at the first error.
type durations struct {
	err error
}

func (d *durations) parse(dst *time.Duration, path, raw string, def time.Duration) {
	if d.err != nil {
		return
	}
	*dst, d.err = ParseDurationOrDefault(path, raw, def)
}

// Injector resolves the injector timings.
func (t TimingConfig) Injector() (inject.Timing, error) {
	def := inject.DefaultTiming()
	var out inject.Timing
	var p durations
	p.parse(&out.ClipboardSettle, "timing.clipboard_settle", t.ClipboardSettle, def.ClipboardSettle)
	p.parse(&out.PasteSettle, "timing.paste_settle", t.PasteSettle, def.PasteSettle)
	p.parse(&out.ConfirmSettle, "timing.confirm_settle", t.ConfirmSettle, def.ConfirmSettle)
	p.parse(&out.FileDialogSettle, "timing.file_dialog_settle", t.FileDialogSettle, def.FileDialogSettle)
	p.parse(&out.FileAcceptSettle, "timing.file_accept_settle", t.FileAcceptSettle, def.FileAcceptSettle)
	p.parse(&out.FileSendSettle, "timing.file_send_settle", t.FileSendSettle, def.FileSendSettle)
	p.parse(&out.CloseSettle, "timing.close_settle", t.CloseSettle, def.CloseSettle)
	return out, p.err
}

// Policy resolves the engine's settle intervals.
func (t TimingConfig) Policy() (engine.Policy, error) {
	def := engine.DefaultPolicy()
	out := engine.Policy{PollAttempts: def.PollAttempts}
	if t.PollAttempts > 0 {
		out.PollAttempts = t.PollAttempts
	}
	var p durations
	p.parse(&out.SearchSettle, "timing.search_settle", t.SearchSettle, def.SearchSettle)
	p.parse(&out.FallbackActivateSettle, "timing.fallback_activate_settle", t.FallbackActivateSettle, def.FallbackActivateSettle)
	p.parse(&out.FindSettle, "timing.find_settle", t.FindSettle, def.FindSettle)
	p.parse(&out.FallbackPasteSettle, "timing.fallback_paste_settle", t.FallbackPasteSettle, def.FallbackPasteSettle)
	p.parse(&out.ActivateSettle, "timing.activate_settle", t.ActivateSettle, def.ActivateSettle)
	p.parse(&out.PollInterval, "timing.poll_interval", t.PollInterval, def.PollInterval)
	p.parse(&out.Stabilize, "timing.stabilize", t.Stabilize, def.Stabilize)
	return out, p.err
}

// Validate checks everything that can be checked without touching the desktop.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	if lvl := strings.TrimSpace(c.Logging.Level); lvl != "" && !logx.ValidLevel(lvl) {
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}
	if _, err := c.Timing.Injector(); err != nil {
		return err
	}
	if _, err := c.Timing.Policy(); err != nil {
		return err
	}
	if c.Timing.PollAttempts < 0 {
		return fmt.Errorf("timing.poll_attempts must be >= 0")
	}
	switch strings.ToLower(strings.TrimSpace(c.History.Driver)) {
	case "", "none", "memory":
	case "sqlite":
		if strings.TrimSpace(c.History.Path) == "" {
			return fmt.Errorf("history.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("history.driver: unknown driver %q", c.History.Driver)
	}
	if c.Dispatch.MaxRunsPerMinute < 0 {
		return fmt.Errorf("dispatch.max_runs_per_minute must be >= 0")
	}
	if c.AMQP.Enabled {
		if strings.TrimSpace(c.AMQP.URL) == "" {
			return fmt.Errorf("amqp.url is required when amqp is enabled")
		}
		if _, err := ParseDurationField("amqp.retry_delay", c.AMQP.RetryDelay); err != nil {
			return err
		}
	}
	seen := map[string]bool{}
	for i, s := range c.Schedules {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return fmt.Errorf("schedules[%d].name is required", i)
		}
		if seen[name] {
			return fmt.Errorf("schedules[%d]: duplicate name %q", i, name)
		}
		seen[name] = true
		if strings.TrimSpace(s.Spec) == "" || strings.TrimSpace(s.RequestFile) == "" {
			return fmt.Errorf("schedules[%d] (%s): spec and request_file are required", i, name)
		}
	}
	return nil
}
