package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func envMap(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"CLIENT_ID":   "id",
		"BS_HANDLE":   " fgf.bsky.social ",
		"FB_PAGE_ID":  "42",
		"USER_AGENT":  "fgfbot/1.0",
		"UNRELATED_X": "ignored",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Subreddit != DefaultSubreddit || cfg.PostCount != DefaultPostCount {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.State.Driver != "file" || cfg.State.Path != "saved_posts.json" {
		t.Fatalf("unexpected state defaults: %+v", cfg.State)
	}
	if !cfg.Sinks.Bluesky.Enabled || !cfg.Sinks.Twitter.Enabled || !cfg.Sinks.Facebook.Enabled {
		t.Fatalf("all sinks should default on: %+v", cfg.Sinks)
	}
	if cfg.Secrets.BlueskyHandle != "fgf.bsky.social" || cfg.Secrets.RedditClientID != "id" {
		t.Fatalf("unexpected secrets: %+v", cfg.Secrets)
	}
	if cfg.Timeout() != DefaultHTTPTimeout {
		t.Fatalf("Timeout() = %s", cfg.Timeout())
	}
}

func TestFromEnvFileFormats(t *testing.T) {
	want := Default()
	want.Subreddit = "FreeGamesOnSteam"
	want.PostCount = 25
	want.HTTPTimeout = "10s"
	want.State = StateConfig{Driver: "sqlite", Path: "state.db"}
	want.Sinks.Twitter = SinkConfig{Enabled: false}
	want.Sinks.Bluesky.RatePerSec = 0.5

	cases := []struct {
		name string
		body string
	}{
		{"fgfbot.json", `{
			"subreddit": "FreeGamesOnSteam",
			"post_count": 25,
			"http_timeout": "10s",
			"state": {"driver": "sqlite", "path": "state.db"},
			"sinks": {"twitter": {"enabled": false}, "bluesky": {"enabled": true, "rate_per_sec": 0.5}}
		}`},
		{"fgfbot.yaml", `
subreddit: FreeGamesOnSteam
post_count: 25
http_timeout: 10s
state:
  driver: sqlite
  path: state.db
sinks:
  twitter:
    enabled: false
  bluesky:
    enabled: true
    rate_per_sec: 0.5
`},
		{"fgfbot.toml", `
subreddit = "FreeGamesOnSteam"
post_count = 25
http_timeout = "10s"

[state]
driver = "sqlite"
path = "state.db"

[sinks.twitter]
enabled = false

[sinks.bluesky]
enabled = true
rate_per_sec = 0.5
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, tc.name, tc.body)
			got, err := FromEnv(envMap(map[string]string{EnvConfigPath: path}))
			if err != nil {
				t.Fatalf("FromEnv: %v", err)
			}
			got.Secrets = Secrets{}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("config mismatch (-want +got):\n%s", diff)
			}
			if got.Timeout() != 10*time.Second {
				t.Fatalf("Timeout() = %s", got.Timeout())
			}
		})
	}
}

func TestFromEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "c.yaml", "subreddit: A\npost_count: 3\n")
	cfg, err := FromEnv(envMap(map[string]string{
		EnvConfigPath:  path,
		EnvSubreddit:   "B",
		EnvPostCount:   "7",
		EnvStateDriver: "sqlite",
		EnvStatePath:   "/var/lib/fgfbot/state.db",
		EnvLogLevel:    "debug",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Subreddit != "B" || cfg.PostCount != 7 || cfg.State.Driver != "sqlite" ||
		cfg.State.Path != "/var/lib/fgfbot/state.db" || cfg.Logging.Level != "debug" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestFromEnvRejects(t *testing.T) {
	cases := []struct {
		name    string
		file    string
		body    string
		env     map[string]string
		wantErr string
	}{
		{name: "unknown key", file: "c.json", body: `{"subredit": "typo"}`, wantErr: "unknown field"},
		{name: "unknown yaml key", file: "c.yml", body: "sinks:\n  mastodon: {}\n", wantErr: "unknown field"},
		{name: "trailing data", file: "c.json", body: `{} {}`, wantErr: "trailing data"},
		{name: "bad toml", file: "c.toml", body: `post_count = `, wantErr: "toml decode"},
		{name: "zero count", file: "c.json", body: `{"post_count": 0}`, wantErr: "post_count"},
		{name: "bad driver", file: "c.json", body: `{"state": {"driver": "redis"}}`, wantErr: "state.driver"},
		{name: "bad timeout", file: "c.json", body: `{"http_timeout": "soon"}`, wantErr: "http_timeout"},
		{name: "negative rate", file: "c.json", body: `{"sinks": {"facebook": {"enabled": true, "rate_per_sec": -1}}}`, wantErr: "sinks.facebook.rate_per_sec"},
		{name: "telegram without chat", file: "c.json", body: `{"logging": {"telegram": {"enabled": true}}}`, wantErr: "chat_id"},
		{name: "bad env count", env: map[string]string{EnvPostCount: "five"}, wantErr: EnvPostCount},
		{name: "missing file", env: map[string]string{EnvConfigPath: "/nonexistent/fgfbot.json"}, wantErr: "read config"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := map[string]string{}
			for k, v := range tc.env {
				env[k] = v
			}
			if tc.file != "" {
				env[EnvConfigPath] = writeFile(t, tc.file, tc.body)
			}
			_, err := FromEnv(envMap(env))
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoadDotenvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")
	body := "CLIENT_ID=from-file\nFB_PAGE_ID=page-from-file\n"
	if err := os.WriteFile(dotenv, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CLIENT_ID", "from-env")
	// Registers FB_PAGE_ID for restore before godotenv sets it.
	t.Setenv("FB_PAGE_ID", "")
	os.Unsetenv("FB_PAGE_ID")

	cfg, err := Load(dotenv)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Secrets.RedditClientID != "from-env" {
		t.Fatalf("env var should win, got %q", cfg.Secrets.RedditClientID)
	}
	if cfg.Secrets.FacebookPageID != "page-from-file" {
		t.Fatalf("dotenv value not loaded, got %q", cfg.Secrets.FacebookPageID)
	}

	if _, err := Load(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing dotenv should be ignored: %v", err)
	}
}

func TestParseDuration(t *testing.T) {
	cases := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{raw: "", want: time.Minute},
		{raw: "0s", want: time.Minute},
		{raw: " 15s ", want: 15 * time.Second},
		{raw: "-1s", wantErr: true},
		{raw: "ten", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseDuration("k", tc.raw, time.Minute)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Errorf("ParseDuration(%q) = %s, %v", tc.raw, got, err)
		}
	}
}

func TestLogConfigCarriesTelegramToken(t *testing.T) {
	cfg := Default()
	cfg.Logging.Telegram = LoggingTelegram{Enabled: true, ChatID: -100123, MinLevel: "warn"}
	cfg.Secrets.TelegramToken = "123:abc"

	lc := cfg.LogConfig()
	if !lc.Console || lc.Telegram.Token != "123:abc" || lc.Telegram.ChatID != -100123 || lc.Telegram.MinLevel != "warn" {
		t.Fatalf("unexpected log config: %+v", lc)
	}
}
