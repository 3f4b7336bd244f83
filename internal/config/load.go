package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvConfigPath    = "FGFBOT_CONFIG"
	EnvSubreddit     = "FGFBOT_SUBREDDIT"
	EnvPostCount     = "FGFBOT_POST_COUNT"
	EnvStateDriver   = "FGFBOT_STATE_DRIVER"
	EnvStatePath     = "FGFBOT_STATE_PATH"
	EnvLogLevel      = "FGFBOT_LOG_LEVEL"
	EnvTelegramToken = "FGFBOT_TELEGRAM_TOKEN"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load reads dotenv (when it exists) into the process environment and builds
// the config from it. Variables already set in the environment win.
func Load(dotenv string) (*Config, error) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", dotenv, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a validated config: defaults, then the settings file named by
// FGFBOT_CONFIG, then FGFBOT_* overrides, then secrets.
func FromEnv(lookup LookupFunc) (*Config, error) {
	get := func(k string) string {
		v, _ := lookup(k)
		return strings.TrimSpace(v)
	}

	cfg := Default()
	if p := get(EnvConfigPath); p != "" {
		if err := cfg.decodeFile(p); err != nil {
			return nil, err
		}
	}

	if v := get(EnvSubreddit); v != "" {
		cfg.Subreddit = v
	}
	if v := get(EnvPostCount); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid integer %q", EnvPostCount, v)
		}
		cfg.PostCount = n
	}
	if v := get(EnvStateDriver); v != "" {
		cfg.State.Driver = v
	}
	if v := get(EnvStatePath); v != "" {
		cfg.State.Path = v
	}
	if v := get(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}

	cfg.Secrets = Secrets{
		RedditClientID:     get("CLIENT_ID"),
		RedditClientSecret: get("CLIENT_SECRET"),
		RedditUserAgent:    get("USER_AGENT"),

		BlueskyHandle:   get("BS_HANDLE"),
		BlueskyPassword: get("BS_PASSWORD"),

		TwitterConsumerKey:       get("T_CONSUMER_KEY"),
		TwitterConsumerSecret:    get("T_CONSUMER_SECRET"),
		TwitterAccessToken:       get("T_ACCESS_TOKEN"),
		TwitterAccessTokenSecret: get("T_ACCESS_TOKEN_SECRET"),

		FacebookAppID:       get("FB_APP_ID"),
		FacebookAppSecret:   get("FB_APP_SECRET"),
		FacebookAccessToken: get("FB_ACCESS_TOKEN"),
		FacebookPageID:      get("FB_PAGE_ID"),

		TelegramToken: get(EnvTelegramToken),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	jb, format, err := coerceToJSONBytes(path, b)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("%s (%s): %w", path, format, err)
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return fmt.Errorf("%s: invalid config: trailing data", path)
		}
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Validate checks knobs only. Missing credentials surface when the component
// that needs them starts.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Subreddit) == "" {
		errs = append(errs, errors.New("subreddit: must not be empty"))
	}
	if c.PostCount <= 0 {
		errs = append(errs, fmt.Errorf("post_count: must be > 0, got %d", c.PostCount))
	}
	switch strings.ToLower(strings.TrimSpace(c.State.Driver)) {
	case "", "file", "json", "sqlite", "sqlite3":
	default:
		errs = append(errs, fmt.Errorf("state.driver: unknown driver %q", c.State.Driver))
	}
	if _, err := ParseDuration("http_timeout", c.HTTPTimeout, 0); err != nil {
		errs = append(errs, err)
	}
	for _, s := range []struct {
		name string
		cfg  SinkConfig
	}{
		{"bluesky", c.Sinks.Bluesky},
		{"twitter", c.Sinks.Twitter},
		{"facebook", c.Sinks.Facebook},
	} {
		if s.cfg.RatePerSec < 0 {
			errs = append(errs, fmt.Errorf("sinks.%s.rate_per_sec: must be >= 0", s.name))
		}
	}
	if t := c.Logging.Telegram; t.Enabled && t.ChatID == 0 {
		errs = append(errs, errors.New("logging.telegram.chat_id: required when enabled"))
	}
	return errors.Join(errs...)
}
