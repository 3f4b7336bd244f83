package app

import (
	"strings"

	"fgfbot/internal/config"
	"fgfbot/internal/publish"
	"fgfbot/internal/publish/bluesky"
	"fgfbot/internal/publish/facebook"
	"fgfbot/internal/publish/twitter"
	"fgfbot/internal/storage"
)

type sinkEntry struct {
	sink publish.Sink
	rate float64
}

func mapStateConfig(cfg *config.Config) storage.Config {
	return storage.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.State.Driver)),
		Path:   strings.TrimSpace(cfg.State.Path),
	}
}

// buildSinks returns the enabled sinks in publishing order: bluesky, twitter, facebook.
// Credentials are checked by each sink's Connect, so a misconfigured sink is
// skipped for the batch rather than failing the run.
func buildSinks(cfg *config.Config) []sinkEntry {
	sec, sc, timeout := cfg.Secrets, cfg.Sinks, cfg.Timeout()
	var out []sinkEntry
	if sc.Bluesky.Enabled {
		out = append(out, sinkEntry{
			sink: bluesky.New(bluesky.Config{
				Handle:   sec.BlueskyHandle,
				Password: sec.BlueskyPassword,
				PDS:      sc.Bluesky.BaseURL,
				Timeout:  timeout,
			}),
			rate: sc.Bluesky.RatePerSec,
		})
	}
	if sc.Twitter.Enabled {
		out = append(out, sinkEntry{
			sink: twitter.New(twitter.Config{
				ConsumerKey:       sec.TwitterConsumerKey,
				ConsumerSecret:    sec.TwitterConsumerSecret,
				AccessToken:       sec.TwitterAccessToken,
				AccessTokenSecret: sec.TwitterAccessTokenSecret,
				APIURL:            sc.Twitter.BaseURL,
				Timeout:           timeout,
			}),
			rate: sc.Twitter.RatePerSec,
		})
	}
	if sc.Facebook.Enabled {
		out = append(out, sinkEntry{
			sink: facebook.New(facebook.Config{
				AppID:       sec.FacebookAppID,
				AppSecret:   sec.FacebookAppSecret,
				AccessToken: sec.FacebookAccessToken,
				PageID:      sec.FacebookPageID,
				GraphURL:    sc.Facebook.BaseURL,
				Timeout:     timeout,
			}),
			rate: sc.Facebook.RatePerSec,
		})
	}
	return out
}
