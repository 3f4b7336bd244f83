package config

import (
	"time"

	logx "fgfbot/pkg/logx"
)

const (
	DefaultSubreddit   = "FreeGameFindings"
	DefaultPostCount   = 5
	DefaultHTTPTimeout = 30 * time.Second
)

// Config is the settings file shape plus the secrets pulled from the
// environment. Secrets never round-trip through the file.
type Config struct {
	Subreddit  string   `json:"subreddit"`
	PostCount  int      `json:"post_count"`
	SkipFlairs []string `json:"skip_flairs,omitempty"`

	// HTTPTimeout is a Go duration string (e.g. "30s"). Applies to every remote call.
	HTTPTimeout string `json:"http_timeout,omitempty"`

	State   StateConfig   `json:"state"`
	Logging LoggingConfig `json:"logging"`
	Sinks   SinksConfig   `json:"sinks"`

	Secrets Secrets `json:"-"`
}

// StateConfig selects the saved-post store.
//
// Example:
//
//	"state": { "driver": "sqlite", "path": "./saved_posts.db" }
type StateConfig struct {
	Driver string `json:"driver"`
	Path   string `json:"path"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Journal  bool            `json:"journal"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoggingTelegram forwards error records to an operator chat.
// The bot token comes from FGFBOT_TELEGRAM_TOKEN.
type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	ChatID     int64  `json:"chat_id"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

type SinksConfig struct {
	Bluesky  SinkConfig `json:"bluesky"`
	Twitter  SinkConfig `json:"twitter"`
	Facebook SinkConfig `json:"facebook"`
}

type SinkConfig struct {
	Enabled bool `json:"enabled"`
	// RatePerSec paces posts within one batch. 0 means unpaced.
	RatePerSec float64 `json:"rate_per_sec,omitempty"`
	// BaseURL overrides the API host (PDS for bluesky, Graph host for facebook).
	BaseURL string `json:"base_url,omitempty"`
}

type Secrets struct {
	RedditClientID     string
	RedditClientSecret string
	RedditUserAgent    string

	BlueskyHandle   string
	BlueskyPassword string

	TwitterConsumerKey       string
	TwitterConsumerSecret    string
	TwitterAccessToken       string
	TwitterAccessTokenSecret string

	FacebookAppID       string
	FacebookAppSecret   string
	FacebookAccessToken string
	FacebookPageID      string

	TelegramToken string
}

// Default returns the settings used when no file is given. The settings file
// is decoded on top of it, so omitted keys keep these values.
func Default() *Config {
	return &Config{
		Subreddit: DefaultSubreddit,
		PostCount: DefaultPostCount,
		State:     StateConfig{Driver: "file", Path: "saved_posts.json"},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			File:    LoggingFile{Path: "fgfbot.log"},
		},
		Sinks: SinksConfig{
			Bluesky:  SinkConfig{Enabled: true},
			Twitter:  SinkConfig{Enabled: true},
			Facebook: SinkConfig{Enabled: true},
		},
	}
}

// Timeout returns the parsed HTTP timeout. Validate has already rejected bad values.
func (c *Config) Timeout() time.Duration {
	d, err := ParseDuration("http_timeout", c.HTTPTimeout, DefaultHTTPTimeout)
	if err != nil {
		return DefaultHTTPTimeout
	}
	return d
}

// LogConfig maps the logging block and the Telegram secret onto logx.
func (c *Config) LogConfig() logx.Config {
	l := c.Logging
	return logx.Config{
		Level:   l.Level,
		Console: l.Console,
		File:    logx.FileConfig{Enabled: l.File.Enabled, Path: l.File.Path},
		Journal: l.Journal,
		Telegram: logx.TelegramConfig{
			Enabled:    l.Telegram.Enabled,
			Token:      c.Secrets.TelegramToken,
			ChatID:     l.Telegram.ChatID,
			MinLevel:   l.Telegram.MinLevel,
			RatePerSec: l.Telegram.RatePerSec,
		},
	}
}
